package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/segyhp/student-fees/internal/domain"
	"github.com/segyhp/student-fees/internal/notify"
	"github.com/segyhp/student-fees/internal/repository"
	"github.com/segyhp/student-fees/pkg/utils"
)

// systemUser marks rows written by scheduled jobs
const systemUser = "system"

// reminderSender contacts students about a fee and logs every attempt
type reminderSender struct {
	enrollments repository.EnrollmentRepository
	reminders   repository.ReminderRepository
	notifier    notify.Notifier
	institute   string
	logger      *slog.Logger
	now         Clock
}

// send records one reminder for fee. Email goes through the notifier; a
// failed send is logged and stored as unsuccessful, never returned. Other
// channels are contacts staff made themselves and are only logged.
func (r *reminderSender) send(ctx context.Context, fee *domain.StudentFee, kind, channel, message, createdBy string, today time.Time) (*domain.FeeReminder, error) {
	enrollment, err := r.enrollments.GetByID(ctx, fee.EnrollmentID)
	if err != nil {
		return nil, err
	}

	subject, body := reminderMessage(kind, enrollment, fee, today, r.institute)
	if message != "" {
		body = message
	}

	reminder := &domain.FeeReminder{
		ID:         uuid.New(),
		FeeID:      fee.ID,
		Channel:    channel,
		Kind:       kind,
		Message:    body,
		SentAt:     r.now(),
		Successful: true,
		CreatedBy:  createdBy,
	}

	if channel == domain.ReminderChannelEmail {
		if err := r.notifier.SendReminder(ctx, enrollment.Recipients(), subject, body); err != nil {
			r.logger.WarnContext(ctx, "fee reminder not delivered",
				"fee_id", fee.ID,
				"kind", kind,
				"error", err,
			)
			reminder.Successful = false
		}
	}

	if err := r.reminders.Create(ctx, reminder); err != nil {
		return nil, err
	}

	return reminder, nil
}

// confirmPayment emails a receipt for payment. Errors are logged only.
func (r *reminderSender) confirmPayment(ctx context.Context, fee *domain.StudentFee, payment *domain.Payment) {
	enrollment, err := r.enrollments.GetByID(ctx, fee.EnrollmentID)
	if err != nil {
		r.logger.WarnContext(ctx, "payment confirmation skipped", "fee_id", fee.ID, "error", err)
		return
	}

	subject := "Payment Received - " + enrollment.CourseName
	transactionID := payment.TransactionID
	if transactionID == "" {
		transactionID = "N/A"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Dear %s,\n\n", enrollment.StudentName)
	fmt.Fprintf(&b, "Thank you for your payment of Rs. %s for %s.\n\n", payment.Amount.StringFixed(2), enrollment.CourseName)
	fmt.Fprintf(&b, "Payment Details:\n")
	fmt.Fprintf(&b, "- Amount: Rs. %s\n", payment.Amount.StringFixed(2))
	fmt.Fprintf(&b, "- Date: %s\n", payment.PaymentDate.Format(utils.DateLayout))
	fmt.Fprintf(&b, "- Method: %s\n", methodLabel(payment.Method))
	fmt.Fprintf(&b, "- Transaction ID: %s\n\n", transactionID)
	fmt.Fprintf(&b, "Remaining Balance: Rs. %s\n\n", fee.Remaining().StringFixed(2))
	fmt.Fprintf(&b, "Thank you,\n%s", r.institute)

	if err := r.notifier.SendReminder(ctx, enrollment.Recipients(), subject, b.String()); err != nil {
		r.logger.WarnContext(ctx, "payment confirmation not delivered",
			"fee_id", fee.ID,
			"payment_id", payment.ID,
			"error", err,
		)
	}
}

func reminderMessage(kind string, enrollment *domain.Enrollment, fee *domain.StudentFee, today time.Time, institute string) (subject, body string) {
	switch kind {
	case domain.ReminderKindOverdue:
		subject = "Overdue Fee Notice - " + enrollment.CourseName
	case domain.ReminderKindFinalNotice:
		subject = "Final Notice - Fee Payment Required - " + enrollment.CourseName
	default:
		subject = "Fee Payment Reminder - " + enrollment.CourseName
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Dear %s,\n\n", enrollment.StudentName)
	fmt.Fprintf(&b, "This is a reminder that your fee payment for %s is %s.\n\n", enrollment.CourseName, strings.ReplaceAll(kind, "_", " "))
	fmt.Fprintf(&b, "Amount Due: Rs. %s\n", fee.Remaining().StringFixed(2))
	fmt.Fprintf(&b, "Due Date: %s\n", fee.DueDate.Format(utils.DateLayout))
	if days := utils.DaysOverdue(fee.DueDate, today); days > 0 {
		fmt.Fprintf(&b, "Days Overdue: %d\n", days)
	}
	if fee.LateFeeAmount.IsPositive() {
		fmt.Fprintf(&b, "Late Fees Included: Rs. %s\n", fee.LateFeeAmount.StringFixed(2))
	}
	fmt.Fprintf(&b, "\nPlease make the payment at your earliest convenience.\n\nThank you,\n%s", institute)

	return subject, b.String()
}

func methodLabel(method string) string {
	switch method {
	case domain.PaymentMethodUPI:
		return "UPI"
	case domain.PaymentMethodBankTransfer:
		return "Bank Transfer"
	case domain.PaymentMethodCard:
		return "Card"
	case domain.PaymentMethodCheque:
		return "Cheque"
	default:
		return "Cash"
	}
}
