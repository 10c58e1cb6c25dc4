package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"

	"github.com/segyhp/student-fees/internal/domain"
	"github.com/segyhp/student-fees/internal/feecalc"
)

type MockFeeService struct {
	mock.Mock
}

func (m *MockFeeService) CreateStructure(ctx context.Context, req *domain.FeeStructureRequest) (*domain.FeeStructureView, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.FeeStructureView), args.Error(1)
}

func (m *MockFeeService) GetStructure(ctx context.Context, id uuid.UUID) (*domain.FeeStructureView, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.FeeStructureView), args.Error(1)
}

func (m *MockFeeService) ListStructures(ctx context.Context, filter domain.FeeStructureFilter) ([]*domain.FeeStructureView, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.FeeStructureView), args.Error(1)
}

func (m *MockFeeService) UpdateStructure(ctx context.Context, id uuid.UUID, req *domain.FeeStructureRequest) (*domain.FeeStructureView, error) {
	args := m.Called(ctx, id, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.FeeStructureView), args.Error(1)
}

func (m *MockFeeService) DeleteStructure(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockFeeService) QuoteFee(ctx context.Context, req *domain.FeeQuoteRequest) (*feecalc.FeeBreakdown, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*feecalc.FeeBreakdown), args.Error(1)
}

func (m *MockFeeService) PlanInstallments(ctx context.Context, req *domain.InstallmentPlanRequest) ([]feecalc.Installment, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]feecalc.Installment), args.Error(1)
}

func (m *MockFeeService) CreateFee(ctx context.Context, req *domain.CreateStudentFeeRequest) (*domain.StudentFeeView, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.StudentFeeView), args.Error(1)
}

func (m *MockFeeService) BulkCreateFees(ctx context.Context, req *domain.BulkCreateFeesRequest) (*domain.BulkCreateFeesResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.BulkCreateFeesResponse), args.Error(1)
}

func (m *MockFeeService) GetFee(ctx context.Context, id uuid.UUID) (*domain.StudentFeeView, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.StudentFeeView), args.Error(1)
}

func (m *MockFeeService) ListFees(ctx context.Context, filter domain.StudentFeeFilter) ([]*domain.StudentFeeView, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.StudentFeeView), args.Error(1)
}

func (m *MockFeeService) ListStudentFees(ctx context.Context, studentID uuid.UUID) ([]*domain.StudentFeeView, error) {
	args := m.Called(ctx, studentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.StudentFeeView), args.Error(1)
}

func (m *MockFeeService) ListOverdue(ctx context.Context) ([]*domain.StudentFeeView, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.StudentFeeView), args.Error(1)
}

func (m *MockFeeService) DeleteFee(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockFeeService) Stats(ctx context.Context) (*domain.FeeStats, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.FeeStats), args.Error(1)
}

func (m *MockFeeService) Reports(ctx context.Context) ([]*domain.CourseFeeReport, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.CourseFeeReport), args.Error(1)
}

func (m *MockFeeService) QuoteRefund(ctx context.Context, feeID uuid.UUID, req *domain.RefundQuoteRequest) (*feecalc.RefundResult, error) {
	args := m.Called(ctx, feeID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*feecalc.RefundResult), args.Error(1)
}

func (m *MockFeeService) ListReminders(ctx context.Context, feeID uuid.UUID) ([]*domain.FeeReminder, error) {
	args := m.Called(ctx, feeID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.FeeReminder), args.Error(1)
}

func (m *MockFeeService) SendReminder(ctx context.Context, feeID uuid.UUID, req *domain.SendReminderRequest) (*domain.FeeReminder, error) {
	args := m.Called(ctx, feeID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.FeeReminder), args.Error(1)
}

type MockLedgerService struct {
	mock.Mock
}

func (m *MockLedgerService) RecordPayment(ctx context.Context, feeID uuid.UUID, req *domain.RecordPaymentRequest) (*domain.Payment, error) {
	args := m.Called(ctx, feeID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Payment), args.Error(1)
}

func (m *MockLedgerService) EditPaymentAmount(ctx context.Context, paymentID uuid.UUID, newAmount decimal.Decimal) (*domain.Payment, error) {
	args := m.Called(ctx, paymentID, newAmount)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Payment), args.Error(1)
}

func (m *MockLedgerService) DeletePayment(ctx context.Context, paymentID uuid.UUID) error {
	args := m.Called(ctx, paymentID)
	return args.Error(0)
}

func (m *MockLedgerService) GetPayment(ctx context.Context, paymentID uuid.UUID) (*domain.Payment, error) {
	args := m.Called(ctx, paymentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Payment), args.Error(1)
}

func (m *MockLedgerService) ListPayments(ctx context.Context, feeID uuid.UUID) ([]*domain.Payment, error) {
	args := m.Called(ctx, feeID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Payment), args.Error(1)
}

func (m *MockLedgerService) AddAdjustment(ctx context.Context, feeID uuid.UUID, req *domain.AdjustmentRequest) (*domain.FeeAdjustment, error) {
	args := m.Called(ctx, feeID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.FeeAdjustment), args.Error(1)
}

func (m *MockLedgerService) ListAdjustments(ctx context.Context, feeID uuid.UUID) ([]*domain.FeeAdjustment, error) {
	args := m.Called(ctx, feeID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.FeeAdjustment), args.Error(1)
}

func (m *MockLedgerService) Reconcile(ctx context.Context, feeID uuid.UUID) (*domain.StudentFee, error) {
	args := m.Called(ctx, feeID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.StudentFee), args.Error(1)
}

type MockAutomationService struct {
	mock.Mock
}

func (m *MockAutomationService) CreateEnrollmentFees(ctx context.Context, enrollmentID uuid.UUID, req *domain.EnrollmentFeesRequest) ([]*domain.StudentFeeView, error) {
	args := m.Called(ctx, enrollmentID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.StudentFeeView), args.Error(1)
}

func (m *MockAutomationService) SweepOverdue(ctx context.Context) (*domain.SweepResult, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.SweepResult), args.Error(1)
}

func (m *MockAutomationService) SendDailyReminders(ctx context.Context) (*domain.ReminderRunResult, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ReminderRunResult), args.Error(1)
}
