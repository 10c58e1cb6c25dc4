package mocks

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"

	"github.com/segyhp/student-fees/internal/domain"
)

// MockTransactor runs fn directly on the caller's context and counts the
// transactions opened. Err, when set, fails every transaction before fn
// runs.
type MockTransactor struct {
	Err   error
	Count int
}

func (m *MockTransactor) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	m.Count++
	if m.Err != nil {
		return m.Err
	}
	return fn(ctx)
}

type MockFeeStructureRepository struct {
	mock.Mock
}

func (m *MockFeeStructureRepository) Create(ctx context.Context, s *domain.FeeStructure) error {
	args := m.Called(ctx, s)
	return args.Error(0)
}

func (m *MockFeeStructureRepository) GetOrCreate(ctx context.Context, s *domain.FeeStructure) (*domain.FeeStructure, bool, error) {
	args := m.Called(ctx, s)
	if args.Get(0) == nil {
		return nil, false, args.Error(2)
	}
	return args.Get(0).(*domain.FeeStructure), args.Bool(1), args.Error(2)
}

func (m *MockFeeStructureRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.FeeStructure, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.FeeStructure), args.Error(1)
}

func (m *MockFeeStructureRepository) List(ctx context.Context, filter domain.FeeStructureFilter) ([]*domain.FeeStructure, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.FeeStructure), args.Error(1)
}

func (m *MockFeeStructureRepository) Update(ctx context.Context, s *domain.FeeStructure) error {
	args := m.Called(ctx, s)
	return args.Error(0)
}

func (m *MockFeeStructureRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type MockStudentFeeRepository struct {
	mock.Mock
}

func (m *MockStudentFeeRepository) Create(ctx context.Context, fee *domain.StudentFee) error {
	args := m.Called(ctx, fee)
	return args.Error(0)
}

func (m *MockStudentFeeRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.StudentFee, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.StudentFee), args.Error(1)
}

func (m *MockStudentFeeRepository) GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.StudentFee, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.StudentFee), args.Error(1)
}

func (m *MockStudentFeeRepository) Update(ctx context.Context, fee *domain.StudentFee) error {
	args := m.Called(ctx, fee)
	return args.Error(0)
}

func (m *MockStudentFeeRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockStudentFeeRepository) ExistsForEnrollment(ctx context.Context, enrollmentID uuid.UUID) (bool, error) {
	args := m.Called(ctx, enrollmentID)
	return args.Bool(0), args.Error(1)
}

func (m *MockStudentFeeRepository) List(ctx context.Context, filter domain.StudentFeeFilter) ([]*domain.StudentFee, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.StudentFee), args.Error(1)
}

func (m *MockStudentFeeRepository) ListOverdue(ctx context.Context, today time.Time) ([]*domain.StudentFee, error) {
	args := m.Called(ctx, today)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.StudentFee), args.Error(1)
}

func (m *MockStudentFeeRepository) ListSweepCandidateIDs(ctx context.Context, today time.Time) ([]uuid.UUID, error) {
	args := m.Called(ctx, today)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]uuid.UUID), args.Error(1)
}

func (m *MockStudentFeeRepository) ListDueOn(ctx context.Context, date time.Time) ([]*domain.StudentFee, error) {
	args := m.Called(ctx, date)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.StudentFee), args.Error(1)
}

func (m *MockStudentFeeRepository) Stats(ctx context.Context, today time.Time) (*domain.FeeStats, error) {
	args := m.Called(ctx, today)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.FeeStats), args.Error(1)
}

func (m *MockStudentFeeRepository) CourseReports(ctx context.Context) ([]*domain.CourseFeeReport, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.CourseFeeReport), args.Error(1)
}

type MockPaymentRepository struct {
	mock.Mock
}

func (m *MockPaymentRepository) Create(ctx context.Context, payment *domain.Payment) error {
	args := m.Called(ctx, payment)
	return args.Error(0)
}

func (m *MockPaymentRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Payment, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Payment), args.Error(1)
}

func (m *MockPaymentRepository) ListByFee(ctx context.Context, feeID uuid.UUID) ([]*domain.Payment, error) {
	args := m.Called(ctx, feeID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Payment), args.Error(1)
}

func (m *MockPaymentRepository) UpdateAmount(ctx context.Context, id uuid.UUID, amount decimal.Decimal) error {
	args := m.Called(ctx, id, amount)
	return args.Error(0)
}

func (m *MockPaymentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockPaymentRepository) SumByFee(ctx context.Context, feeID uuid.UUID) (decimal.Decimal, error) {
	args := m.Called(ctx, feeID)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

type MockAdjustmentRepository struct {
	mock.Mock
}

func (m *MockAdjustmentRepository) Create(ctx context.Context, adj *domain.FeeAdjustment) error {
	args := m.Called(ctx, adj)
	return args.Error(0)
}

func (m *MockAdjustmentRepository) ListByFee(ctx context.Context, feeID uuid.UUID) ([]*domain.FeeAdjustment, error) {
	args := m.Called(ctx, feeID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.FeeAdjustment), args.Error(1)
}

type MockReminderRepository struct {
	mock.Mock
}

func (m *MockReminderRepository) Create(ctx context.Context, reminder *domain.FeeReminder) error {
	args := m.Called(ctx, reminder)
	return args.Error(0)
}

func (m *MockReminderRepository) ListByFee(ctx context.Context, feeID uuid.UUID) ([]*domain.FeeReminder, error) {
	args := m.Called(ctx, feeID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.FeeReminder), args.Error(1)
}

func (m *MockReminderRepository) SentSince(ctx context.Context, feeID uuid.UUID, kind string, since time.Time) (bool, error) {
	args := m.Called(ctx, feeID, kind, since)
	return args.Bool(0), args.Error(1)
}

type MockEnrollmentRepository struct {
	mock.Mock
}

func (m *MockEnrollmentRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Enrollment, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Enrollment), args.Error(1)
}
