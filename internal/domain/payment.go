package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Payment methods
const (
	PaymentMethodCash         = "cash"
	PaymentMethodCard         = "card"
	PaymentMethodUPI          = "upi"
	PaymentMethodBankTransfer = "bank_transfer"
	PaymentMethodCheque       = "cheque"
)

// Payment is money received against a StudentFee
type Payment struct {
	ID            uuid.UUID       `json:"id" db:"id"`
	FeeID         uuid.UUID       `json:"fee_id" db:"fee_id"`
	Amount        decimal.Decimal `json:"amount" db:"amount"`
	Method        string          `json:"payment_method" db:"payment_method"`
	TransactionID string          `json:"transaction_id" db:"transaction_id"`
	PaymentDate   time.Time       `json:"payment_date" db:"payment_date"`
	Notes         string          `json:"notes" db:"notes"`
	CreatedBy     string          `json:"created_by" db:"created_by"`
	CreatedAt     time.Time       `json:"created_at" db:"created_at"`
}
