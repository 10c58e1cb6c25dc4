package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/segyhp/student-fees/pkg/utils"
)

// Fee statuses
const (
	FeeStatusPending = "pending"
	FeeStatusPartial = "partial"
	FeeStatusPaid    = "paid"
	FeeStatusOverdue = "overdue"
)

// StudentFee is one fee obligation in the ledger.
//
// OriginalAmount is the contracted amount and never changes. Late fees
// are separate adjustment lines whose sum is mirrored in LateFeeAmount, and
// TotalAmount = OriginalAmount + LateFeeAmount. PaidAmount always equals the
// sum of the fee's payments.
type StudentFee struct {
	ID                   uuid.UUID       `json:"id" db:"id"`
	StudentID            uuid.UUID       `json:"student_id" db:"student_id"`
	EnrollmentID         uuid.UUID       `json:"enrollment_id" db:"enrollment_id"`
	FeeStructureID       uuid.NullUUID   `json:"fee_structure_id" db:"fee_structure_id"`
	InstallmentNumber    int             `json:"installment_number" db:"installment_number"`
	Description          string          `json:"description" db:"description"`
	OriginalAmount       decimal.Decimal `json:"original_amount" db:"original_amount"`
	LateFeeAmount        decimal.Decimal `json:"late_fee_amount" db:"late_fee_amount"`
	DiscountAmount       decimal.Decimal `json:"discount_amount" db:"discount_amount"`
	WaiverAmount         decimal.Decimal `json:"waiver_amount" db:"waiver_amount"`
	TotalAmount          decimal.Decimal `json:"total_amount" db:"total_amount"`
	PaidAmount           decimal.Decimal `json:"paid_amount" db:"paid_amount"`
	DueDate              time.Time       `json:"due_date" db:"due_date"`
	Status               string          `json:"status" db:"status"`
	LastLateFeeAppliedOn *time.Time      `json:"last_late_fee_applied_on,omitempty" db:"last_late_fee_applied_on"`
	CreatedAt            time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt            time.Time       `json:"updated_at" db:"updated_at"`
}

// NewStudentFee builds a pending ledger entry for amount due on dueDate.
func NewStudentFee(studentID, enrollmentID uuid.UUID, structureID uuid.NullUUID, amount decimal.Decimal, dueDate time.Time) *StudentFee {
	return &StudentFee{
		ID:             uuid.New(),
		StudentID:      studentID,
		EnrollmentID:   enrollmentID,
		FeeStructureID: structureID,
		OriginalAmount: amount,
		LateFeeAmount:  decimal.Zero,
		DiscountAmount: decimal.Zero,
		WaiverAmount:   decimal.Zero,
		TotalAmount:    amount,
		PaidAmount:     decimal.Zero,
		DueDate:        utils.DateOnly(dueDate),
		Status:         FeeStatusPending,
	}
}

// Payable is what the student owes in total after discounts and waivers
func (f *StudentFee) Payable() decimal.Decimal {
	return f.TotalAmount.Sub(f.DiscountAmount).Sub(f.WaiverAmount)
}

// Remaining is the unpaid part of Payable, never negative
func (f *StudentFee) Remaining() decimal.Decimal {
	return utils.MaxZero(f.Payable().Sub(f.PaidAmount))
}

// OutstandingPrincipal is the unpaid part of the contracted amount,
// ignoring any late fees already charged.
func (f *StudentFee) OutstandingPrincipal() decimal.Decimal {
	return utils.MaxZero(f.OriginalAmount.Sub(f.DiscountAmount).Sub(f.WaiverAmount).Sub(f.PaidAmount))
}

// IsOverdue reports whether the fee is past due and not settled
func (f *StudentFee) IsOverdue(today time.Time) bool {
	return utils.IsDateOverdue(f.DueDate, today) && f.Remaining().IsPositive()
}

// Recompute sets Status from the current amounts.
func (f *StudentFee) Recompute(today time.Time) {
	f.Status = DeriveStatus(f.PaidAmount, f.Payable(), f.DueDate, today)
}

// DeriveStatus maps a fee's amounts and due date to its status:
//
//	paid >= total              -> paid
//	0 < paid < total           -> partial
//	paid == 0, due before today -> overdue
//	otherwise                  -> pending
func DeriveStatus(paid, total decimal.Decimal, dueDate, today time.Time) string {
	switch {
	case paid.GreaterThanOrEqual(total):
		return FeeStatusPaid
	case paid.IsPositive():
		return FeeStatusPartial
	case utils.IsDateOverdue(dueDate, today):
		return FeeStatusOverdue
	default:
		return FeeStatusPending
	}
}

// StudentFeeView is the API shape of a fee with its derived amounts
type StudentFeeView struct {
	*StudentFee
	RemainingAmount decimal.Decimal `json:"remaining_amount"`
	PayableAmount   decimal.Decimal `json:"payable_amount"`
	IsOverdue       bool            `json:"is_overdue"`
	Payments        []*Payment      `json:"payments,omitempty"`
}

func NewStudentFeeView(f *StudentFee, payments []*Payment, today time.Time) *StudentFeeView {
	return &StudentFeeView{
		StudentFee:      f,
		RemainingAmount: f.Remaining(),
		PayableAmount:   f.Payable(),
		IsOverdue:       f.IsOverdue(today),
		Payments:        payments,
	}
}

// StudentFeeFilter narrows ledger listings
type StudentFeeFilter struct {
	Status       string
	StudentID    *uuid.UUID
	EnrollmentID *uuid.UUID
	CourseID     *uuid.UUID
	Batch        string
}
