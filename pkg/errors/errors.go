package errors

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Domain errors
var (
	ErrFeeNotFound          = errors.New("student fee not found")
	ErrPaymentNotFound      = errors.New("payment not found")
	ErrStructureNotFound    = errors.New("fee structure not found")
	ErrEnrollmentNotFound   = errors.New("enrollment not found")
	ErrStructureExists      = errors.New("fee structure already exists")
	ErrInvalidPaymentAmount = errors.New("invalid payment amount")
	ErrOverpayment          = errors.New("payment exceeds remaining amount")
	ErrReferenceMismatch    = errors.New("mismatched fee references")
	ErrInvalidRequest       = errors.New("invalid request")
	ErrNoOutstandingBalance = errors.New("no outstanding balance")
	ErrJobAlreadyRunning    = errors.New("job already running")
)

// BusinessError represents a business logic error
type BusinessError struct {
	Code    string
	Message string
	Err     error
}

func (e *BusinessError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *BusinessError) Unwrap() error {
	return e.Err
}

// NewBusinessError creates a new business error
func NewBusinessError(code, message string, err error) *BusinessError {
	return &BusinessError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Error codes
const (
	ErrCodeFeeNotFound          = "FEE_NOT_FOUND"
	ErrCodePaymentNotFound      = "PAYMENT_NOT_FOUND"
	ErrCodeStructureNotFound    = "FEE_STRUCTURE_NOT_FOUND"
	ErrCodeEnrollmentNotFound   = "ENROLLMENT_NOT_FOUND"
	ErrCodeStructureExists      = "FEE_STRUCTURE_EXISTS"
	ErrCodeInvalidPaymentAmount = "INVALID_PAYMENT_AMOUNT"
	ErrCodeOverpayment          = "OVERPAYMENT"
	ErrCodeReferenceMismatch    = "REFERENCE_MISMATCH"
	ErrCodeInvalidRequest       = "INVALID_REQUEST"
	ErrCodeNoOutstandingBalance = "NO_OUTSTANDING_BALANCE"
	ErrCodeJobAlreadyRunning    = "JOB_ALREADY_RUNNING"
	ErrCodeDatabaseError        = "DATABASE_ERROR"
	ErrCodeCacheError           = "CACHE_ERROR"
)

// Wrap common errors with business context
func WrapFeeNotFound(feeID fmt.Stringer) *BusinessError {
	return NewBusinessError(
		ErrCodeFeeNotFound,
		fmt.Sprintf("Student fee with ID %s not found", feeID),
		ErrFeeNotFound,
	)
}

func WrapPaymentNotFound(paymentID fmt.Stringer) *BusinessError {
	return NewBusinessError(
		ErrCodePaymentNotFound,
		fmt.Sprintf("Payment with ID %s not found", paymentID),
		ErrPaymentNotFound,
	)
}

func WrapStructureNotFound(structureID fmt.Stringer) *BusinessError {
	return NewBusinessError(
		ErrCodeStructureNotFound,
		fmt.Sprintf("Fee structure with ID %s not found", structureID),
		ErrStructureNotFound,
	)
}

func WrapEnrollmentNotFound(enrollmentID fmt.Stringer) *BusinessError {
	return NewBusinessError(
		ErrCodeEnrollmentNotFound,
		fmt.Sprintf("Enrollment with ID %s not found", enrollmentID),
		ErrEnrollmentNotFound,
	)
}

func WrapStructureExists(courseID fmt.Stringer, months int) *BusinessError {
	return NewBusinessError(
		ErrCodeStructureExists,
		fmt.Sprintf("Fee structure for course %s over %d months already exists", courseID, months),
		ErrStructureExists,
	)
}

func WrapInvalidPaymentAmount(amount decimal.Decimal) *BusinessError {
	return NewBusinessError(
		ErrCodeInvalidPaymentAmount,
		fmt.Sprintf("Invalid payment amount: %s", amount.StringFixed(2)),
		ErrInvalidPaymentAmount,
	)
}

func WrapOverpayment(amount, remaining decimal.Decimal) *BusinessError {
	return NewBusinessError(
		ErrCodeOverpayment,
		fmt.Sprintf("Payment amount %s cannot exceed remaining amount %s", amount.StringFixed(2), remaining.StringFixed(2)),
		ErrOverpayment,
	)
}

func WrapReferenceMismatch(message string) *BusinessError {
	return NewBusinessError(
		ErrCodeReferenceMismatch,
		message,
		ErrReferenceMismatch,
	)
}

func WrapInvalidRequest(err error) *BusinessError {
	return NewBusinessError(
		ErrCodeInvalidRequest,
		err.Error(),
		ErrInvalidRequest,
	)
}

func WrapNoOutstandingBalance(feeID fmt.Stringer) *BusinessError {
	return NewBusinessError(
		ErrCodeNoOutstandingBalance,
		fmt.Sprintf("Student fee with ID %s has no outstanding balance", feeID),
		ErrNoOutstandingBalance,
	)
}

func WrapJobAlreadyRunning(job string) *BusinessError {
	return NewBusinessError(
		ErrCodeJobAlreadyRunning,
		fmt.Sprintf("%s is already running on another instance", job),
		ErrJobAlreadyRunning,
	)
}

func WrapDatabaseError(err error) *BusinessError {
	return NewBusinessError(
		ErrCodeDatabaseError,
		"database operation failed",
		err,
	)
}

func WrapCacheError(err error) *BusinessError {
	return NewBusinessError(
		ErrCodeCacheError,
		"Cache operation failed",
		err,
	)
}

// IsValidation reports whether err should be answered with 400
func IsValidation(err error) bool {
	return errors.Is(err, ErrInvalidPaymentAmount) ||
		errors.Is(err, ErrOverpayment) ||
		errors.Is(err, ErrReferenceMismatch) ||
		errors.Is(err, ErrInvalidRequest) ||
		errors.Is(err, ErrNoOutstandingBalance)
}

// IsNotFound reports whether err should be answered with 404
func IsNotFound(err error) bool {
	return errors.Is(err, ErrFeeNotFound) ||
		errors.Is(err, ErrPaymentNotFound) ||
		errors.Is(err, ErrStructureNotFound) ||
		errors.Is(err, ErrEnrollmentNotFound)
}

// IsConflict reports whether err should be answered with 409
func IsConflict(err error) bool {
	return errors.Is(err, ErrStructureExists) || errors.Is(err, ErrJobAlreadyRunning)
}
