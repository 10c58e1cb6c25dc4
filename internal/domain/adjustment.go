package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Adjustment kinds. Late fees raise what is owed, discounts and waivers
// lower it.
const (
	AdjustmentLateFee  = "late_fee"
	AdjustmentDiscount = "discount"
	AdjustmentWaiver   = "waiver"
)

// FeeAdjustment is an append-only line changing what a fee is worth
type FeeAdjustment struct {
	ID        uuid.UUID       `json:"id" db:"id"`
	FeeID     uuid.UUID       `json:"fee_id" db:"fee_id"`
	Kind      string          `json:"kind" db:"kind"`
	Amount    decimal.Decimal `json:"amount" db:"amount"`
	Reason    string          `json:"reason" db:"reason"`
	AppliedOn time.Time       `json:"applied_on" db:"applied_on"`
	CreatedAt time.Time       `json:"created_at" db:"created_at"`
}

// Apply folds the adjustment into the fee's running aggregates.
func (a *FeeAdjustment) Apply(f *StudentFee) {
	switch a.Kind {
	case AdjustmentLateFee:
		f.LateFeeAmount = f.LateFeeAmount.Add(a.Amount)
		f.TotalAmount = f.OriginalAmount.Add(f.LateFeeAmount)
	case AdjustmentDiscount:
		f.DiscountAmount = f.DiscountAmount.Add(a.Amount)
	case AdjustmentWaiver:
		f.WaiverAmount = f.WaiverAmount.Add(a.Amount)
	}
}
