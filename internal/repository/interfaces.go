package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/segyhp/student-fees/internal/domain"
)

// Transactor runs fn inside one database transaction. Repository calls made
// with the context passed to fn join that transaction.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// FeeStructureRepository defines the interface for fee structure data operations
type FeeStructureRepository interface {
	// Create inserts a structure, failing if (course, duration) already exists
	Create(ctx context.Context, s *domain.FeeStructure) error

	// GetOrCreate returns the structure for s.CourseID and s.DurationMonths,
	// inserting s when there is none. created reports whether s was inserted.
	GetOrCreate(ctx context.Context, s *domain.FeeStructure) (structure *domain.FeeStructure, created bool, err error)

	// GetByID retrieves a structure by ID
	GetByID(ctx context.Context, id uuid.UUID) (*domain.FeeStructure, error)

	// List retrieves structures matching the filter
	List(ctx context.Context, filter domain.FeeStructureFilter) ([]*domain.FeeStructure, error)

	// Update updates a structure
	Update(ctx context.Context, s *domain.FeeStructure) error

	// Delete removes a structure; fees referencing it keep their amounts
	Delete(ctx context.Context, id uuid.UUID) error
}

// StudentFeeRepository defines the interface for ledger entry data operations
type StudentFeeRepository interface {
	// Create inserts a fee
	Create(ctx context.Context, fee *domain.StudentFee) error

	// GetByID retrieves a fee by ID
	GetByID(ctx context.Context, id uuid.UUID) (*domain.StudentFee, error)

	// GetForUpdate retrieves a fee and locks its row until the surrounding
	// transaction ends
	GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.StudentFee, error)

	// Update writes back amounts, status and late fee stamp
	Update(ctx context.Context, fee *domain.StudentFee) error

	// Delete removes a fee together with its payments and history
	Delete(ctx context.Context, id uuid.UUID) error

	// ExistsForEnrollment reports whether any fee was raised for the enrollment
	ExistsForEnrollment(ctx context.Context, enrollmentID uuid.UUID) (bool, error)

	// List retrieves fees matching the filter, newest due date first
	List(ctx context.Context, filter domain.StudentFeeFilter) ([]*domain.StudentFee, error)

	// ListOverdue retrieves unsettled fees due before today
	ListOverdue(ctx context.Context, today time.Time) ([]*domain.StudentFee, error)

	// ListSweepCandidateIDs snapshots the IDs the overdue sweep should visit
	ListSweepCandidateIDs(ctx context.Context, today time.Time) ([]uuid.UUID, error)

	// ListDueOn retrieves unsettled fees falling due on date
	ListDueOn(ctx context.Context, date time.Time) ([]*domain.StudentFee, error)

	// Stats aggregates the whole ledger
	Stats(ctx context.Context, today time.Time) (*domain.FeeStats, error)

	// CourseReports aggregates the ledger per course
	CourseReports(ctx context.Context) ([]*domain.CourseFeeReport, error)
}

// PaymentRepository defines the interface for payment data operations
type PaymentRepository interface {
	// Create creates a new payment record
	Create(ctx context.Context, payment *domain.Payment) error

	// GetByID retrieves a payment
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Payment, error)

	// ListByFee retrieves all payments for a fee, oldest first
	ListByFee(ctx context.Context, feeID uuid.UUID) ([]*domain.Payment, error)

	// UpdateAmount changes the amount of a payment
	UpdateAmount(ctx context.Context, id uuid.UUID, amount decimal.Decimal) error

	// Delete removes a payment
	Delete(ctx context.Context, id uuid.UUID) error

	// SumByFee calculates total amount paid for a fee
	SumByFee(ctx context.Context, feeID uuid.UUID) (decimal.Decimal, error)
}

// AdjustmentRepository defines the interface for fee adjustment lines
type AdjustmentRepository interface {
	Create(ctx context.Context, adj *domain.FeeAdjustment) error
	ListByFee(ctx context.Context, feeID uuid.UUID) ([]*domain.FeeAdjustment, error)
}

// ReminderRepository defines the interface for the reminder log
type ReminderRepository interface {
	Create(ctx context.Context, reminder *domain.FeeReminder) error
	ListByFee(ctx context.Context, feeID uuid.UUID) ([]*domain.FeeReminder, error)

	// SentSince reports whether a successful reminder of kind went out for
	// the fee at or after since
	SentSince(ctx context.Context, feeID uuid.UUID, kind string, since time.Time) (bool, error)
}

// EnrollmentRepository reads enrollments joined with their student and course
type EnrollmentRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Enrollment, error)
}
