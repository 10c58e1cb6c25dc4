package domain

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DTOs for requests and responses

type FeeStructureRequest struct {
	CourseID           uuid.UUID       `json:"course_id" validate:"required"`
	DurationMonths     int             `json:"duration_months" validate:"required,gt=0"`
	BaseFee            decimal.Decimal `json:"base_fee" validate:"gte=0"`
	RegistrationFee    decimal.Decimal `json:"registration_fee" validate:"gte=0"`
	DiscountPercentage decimal.Decimal `json:"discount_percentage" validate:"gte=0,lte=100"`
	IsActive           *bool           `json:"is_active"`
}

type FeeQuoteRequest struct {
	BaseFee        decimal.Decimal  `json:"base_fee" validate:"gte=0"`
	DurationMonths int              `json:"duration_months" validate:"required,gt=0"`
	Batch          string           `json:"batch" validate:"omitempty,oneof=morning afternoon evening"`
	EarlyBird      bool             `json:"early_bird"`
	CustomDiscount *decimal.Decimal `json:"custom_discount" validate:"omitempty,gte=0,lte=100"`
}

type InstallmentPlanRequest struct {
	TotalAmount    decimal.Decimal `json:"total_amount" validate:"gt=0"`
	DurationMonths int             `json:"duration_months" validate:"required,gt=0"`
	Scheme         string          `json:"scheme" validate:"required,oneof=monthly quarterly half_yearly"`
	AnchorDate     string          `json:"anchor_date" validate:"omitempty,datetime=2006-01-02"`
}

type CreateStudentFeeRequest struct {
	StudentID      uuid.UUID        `json:"student_id" validate:"required"`
	EnrollmentID   uuid.UUID        `json:"enrollment_id" validate:"required"`
	FeeStructureID uuid.UUID        `json:"fee_structure_id" validate:"required"`
	TotalAmount    *decimal.Decimal `json:"total_amount" validate:"omitempty,gt=0"`
	DueDate        string           `json:"due_date" validate:"required,datetime=2006-01-02"`
}

type BulkCreateFeesRequest struct {
	EnrollmentIDs  []uuid.UUID `json:"enrollment_ids" validate:"required,min=1"`
	FeeStructureID uuid.UUID   `json:"fee_structure_id" validate:"required"`
	DueDate        string      `json:"due_date" validate:"required,datetime=2006-01-02"`
}

type BulkCreateFeesResponse struct {
	CreatedCount int               `json:"created_count"`
	CreatedFees  []*StudentFeeView `json:"created_fees,omitempty"`
	Errors       []string          `json:"errors"`
}

type EnrollmentFeesRequest struct {
	Scheme         string           `json:"scheme" validate:"omitempty,oneof=full monthly quarterly half_yearly"`
	CustomDiscount *decimal.Decimal `json:"custom_discount" validate:"omitempty,gte=0,lte=100"`
}

type RecordPaymentRequest struct {
	Amount        decimal.Decimal `json:"amount" validate:"gt=0"`
	Method        string          `json:"payment_method" validate:"required,oneof=cash card upi bank_transfer cheque"`
	TransactionID string          `json:"transaction_id" validate:"max=100"`
	PaymentDate   string          `json:"payment_date" validate:"omitempty,datetime=2006-01-02"`
	Notes         string          `json:"notes"`
	CreatedBy     string          `json:"created_by"`
}

type UpdatePaymentRequest struct {
	Amount decimal.Decimal `json:"amount" validate:"gt=0"`
}

type AdjustmentRequest struct {
	Kind   string          `json:"kind" validate:"required,oneof=discount waiver"`
	Amount decimal.Decimal `json:"amount" validate:"gt=0"`
	Reason string          `json:"reason" validate:"required"`
}

type SendReminderRequest struct {
	Channel   string `json:"reminder_type" validate:"omitempty,oneof=email sms call"`
	Kind      string `json:"kind" validate:"omitempty,oneof=due_soon overdue final_notice general"`
	Message   string `json:"message"`
	CreatedBy string `json:"created_by"`
}

type RefundQuoteRequest struct {
	WithdrawalDate string `json:"withdrawal_date" validate:"required,datetime=2006-01-02"`
}

type FeeStats struct {
	TotalFees            decimal.Decimal `json:"total_fees" db:"total_fees"`
	CollectedFees        decimal.Decimal `json:"collected_fees" db:"collected_fees"`
	PendingFees          decimal.Decimal `json:"pending_fees" db:"pending_fees"`
	OverdueFees          decimal.Decimal `json:"overdue_fees" db:"overdue_fees"`
	LateFeesCharged      decimal.Decimal `json:"late_fees_charged" db:"late_fees_charged"`
	CollectionPercentage decimal.Decimal `json:"collection_percentage" db:"-"`
	TotalStudents        int             `json:"total_students" db:"total_students"`
	PaidStudents         int             `json:"paid_students" db:"paid_students"`
	PendingStudents      int             `json:"pending_students" db:"pending_students"`
	OverdueStudents      int             `json:"overdue_students" db:"overdue_students"`
}

type CourseFeeReport struct {
	CourseID             uuid.UUID       `json:"course_id" db:"course_id"`
	CourseName           string          `json:"course_name" db:"course_name"`
	CourseCode           string          `json:"course_code" db:"course_code"`
	TotalStudents        int             `json:"total_students" db:"total_students"`
	TotalFees            decimal.Decimal `json:"total_fees" db:"total_fees"`
	CollectedFees        decimal.Decimal `json:"collected_fees" db:"collected_fees"`
	PendingFees          decimal.Decimal `json:"pending_fees" db:"-"`
	CollectionPercentage decimal.Decimal `json:"collection_percentage" db:"-"`
}

// SweepResult summarises one overdue sweep
type SweepResult struct {
	Scanned       int             `json:"scanned"`
	Updated       int             `json:"updated"`
	Skipped       int             `json:"skipped"`
	LateFeesAdded decimal.Decimal `json:"late_fees_added"`
	Errors        []string        `json:"errors"`
}

// ReminderRunResult summarises one reminder dispatch
type ReminderRunResult struct {
	DueSoonSent int      `json:"due_soon_sent"`
	OverdueSent int      `json:"overdue_sent"`
	Failed      int      `json:"failed"`
	Errors      []string `json:"errors"`
}
