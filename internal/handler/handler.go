package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"reflect"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"

	"github.com/segyhp/student-fees/internal/domain"
	"github.com/segyhp/student-fees/internal/feecalc"
	customError "github.com/segyhp/student-fees/pkg/errors"
	"github.com/segyhp/student-fees/pkg/response"
)

// FeeService is what the fee and catalog endpoints need
type FeeService interface {
	CreateStructure(ctx context.Context, req *domain.FeeStructureRequest) (*domain.FeeStructureView, error)
	GetStructure(ctx context.Context, id uuid.UUID) (*domain.FeeStructureView, error)
	ListStructures(ctx context.Context, filter domain.FeeStructureFilter) ([]*domain.FeeStructureView, error)
	UpdateStructure(ctx context.Context, id uuid.UUID, req *domain.FeeStructureRequest) (*domain.FeeStructureView, error)
	DeleteStructure(ctx context.Context, id uuid.UUID) error

	QuoteFee(ctx context.Context, req *domain.FeeQuoteRequest) (*feecalc.FeeBreakdown, error)
	PlanInstallments(ctx context.Context, req *domain.InstallmentPlanRequest) ([]feecalc.Installment, error)

	CreateFee(ctx context.Context, req *domain.CreateStudentFeeRequest) (*domain.StudentFeeView, error)
	BulkCreateFees(ctx context.Context, req *domain.BulkCreateFeesRequest) (*domain.BulkCreateFeesResponse, error)
	GetFee(ctx context.Context, id uuid.UUID) (*domain.StudentFeeView, error)
	ListFees(ctx context.Context, filter domain.StudentFeeFilter) ([]*domain.StudentFeeView, error)
	ListStudentFees(ctx context.Context, studentID uuid.UUID) ([]*domain.StudentFeeView, error)
	ListOverdue(ctx context.Context) ([]*domain.StudentFeeView, error)
	DeleteFee(ctx context.Context, id uuid.UUID) error

	Stats(ctx context.Context) (*domain.FeeStats, error)
	Reports(ctx context.Context) ([]*domain.CourseFeeReport, error)
	QuoteRefund(ctx context.Context, feeID uuid.UUID, req *domain.RefundQuoteRequest) (*feecalc.RefundResult, error)

	ListReminders(ctx context.Context, feeID uuid.UUID) ([]*domain.FeeReminder, error)
	SendReminder(ctx context.Context, feeID uuid.UUID, req *domain.SendReminderRequest) (*domain.FeeReminder, error)
}

// LedgerService is what the payment and adjustment endpoints need
type LedgerService interface {
	RecordPayment(ctx context.Context, feeID uuid.UUID, req *domain.RecordPaymentRequest) (*domain.Payment, error)
	EditPaymentAmount(ctx context.Context, paymentID uuid.UUID, newAmount decimal.Decimal) (*domain.Payment, error)
	DeletePayment(ctx context.Context, paymentID uuid.UUID) error
	GetPayment(ctx context.Context, paymentID uuid.UUID) (*domain.Payment, error)
	ListPayments(ctx context.Context, feeID uuid.UUID) ([]*domain.Payment, error)
	AddAdjustment(ctx context.Context, feeID uuid.UUID, req *domain.AdjustmentRequest) (*domain.FeeAdjustment, error)
	ListAdjustments(ctx context.Context, feeID uuid.UUID) ([]*domain.FeeAdjustment, error)
	Reconcile(ctx context.Context, feeID uuid.UUID) (*domain.StudentFee, error)
}

// AutomationService is what the enrollment and job endpoints need
type AutomationService interface {
	CreateEnrollmentFees(ctx context.Context, enrollmentID uuid.UUID, req *domain.EnrollmentFeesRequest) ([]*domain.StudentFeeView, error)
	SweepOverdue(ctx context.Context) (*domain.SweepResult, error)
	SendDailyReminders(ctx context.Context) (*domain.ReminderRunResult, error)
}

// newValidator validates decimal fields as numbers, so tags like gt=0
// work on money amounts.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			f, _ := d.Float64()
			return f
		}
		return nil
	}, decimal.Decimal{})
	return v
}

// decode reads a JSON body into dst and validates it
func decode(r *http.Request, v *validator.Validate, dst interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	if err := v.Struct(dst); err != nil {
		return err
	}
	return nil
}

// pathID parses the named mux variable as a UUID
func pathID(r *http.Request, name string) (uuid.UUID, error) {
	raw := mux.Vars(r)[name]
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid %s: %q", name, raw)
	}
	return id, nil
}

// queryID parses an optional UUID query parameter
func queryID(r *http.Request, name string) (*uuid.UUID, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid %s: %q", name, raw)
	}
	return &id, nil
}

// writeError maps service errors onto HTTP statuses
func writeError(w http.ResponseWriter, logger *slog.Logger, r *http.Request, err error) {
	var be *customError.BusinessError
	message := "Internal server error"
	if errors.As(err, &be) {
		message = be.Message
	}

	switch {
	case customError.IsValidation(err):
		response.BadRequest(w, message, err)
	case customError.IsNotFound(err):
		response.NotFound(w, message)
	case customError.IsConflict(err):
		response.Conflict(w, message, err)
	default:
		logger.ErrorContext(r.Context(), "request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"error", err,
		)
		response.InternalServerError(w, message, nil)
	}
}
