package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/segyhp/student-fees/internal/config"
	"github.com/segyhp/student-fees/internal/domain"
	"github.com/segyhp/student-fees/internal/notify"
	"github.com/segyhp/student-fees/internal/repository"
	customError "github.com/segyhp/student-fees/pkg/errors"
	"github.com/segyhp/student-fees/pkg/utils"
)

// LedgerService records money against fees. Every mutation locks the fee
// row first, so concurrent payments on one fee are applied one at a time
// and paid_amount always equals the sum of the fee's payments.
type LedgerService struct {
	Tx          repository.Transactor
	FeeRepo     repository.StudentFeeRepository
	PaymentRepo repository.PaymentRepository
	AdjustRepo  repository.AdjustmentRepository
	cache       Cache
	sender      *reminderSender
	config      *config.Config
	logger      *slog.Logger
	calendar    calendar
	wg          sync.WaitGroup
}

func NewLedgerService(
	tx repository.Transactor,
	feeRepo repository.StudentFeeRepository,
	paymentRepo repository.PaymentRepository,
	adjustRepo repository.AdjustmentRepository,
	enrollmentRepo repository.EnrollmentRepository,
	reminderRepo repository.ReminderRepository,
	cache Cache,
	notifier notify.Notifier,
	config *config.Config,
	logger *slog.Logger,
) *LedgerService {
	cal := newCalendar(config)
	return &LedgerService{
		Tx:          tx,
		FeeRepo:     feeRepo,
		PaymentRepo: paymentRepo,
		AdjustRepo:  adjustRepo,
		cache:       cache,
		sender: &reminderSender{
			enrollments: enrollmentRepo,
			reminders:   reminderRepo,
			notifier:    notifier,
			institute:   config.Notification.InstituteName,
			logger:      logger,
			now:         time.Now,
		},
		config:   config,
		logger:   logger,
		calendar: cal,
	}
}

// SetClock pins the service to a fixed clock
func (s *LedgerService) SetClock(c Clock) {
	s.calendar.now = c
	s.sender.now = c
}

// Wait blocks until background payment confirmations have finished
func (s *LedgerService) Wait() {
	s.wg.Wait()
}

// RecordPayment appends a payment to a fee. The amount must be positive
// and no larger than what is still owed; a rejected payment writes nothing.
func (s *LedgerService) RecordPayment(ctx context.Context, feeID uuid.UUID, req *domain.RecordPaymentRequest) (*domain.Payment, error) {
	amount := req.Amount.Round(2)
	if !amount.IsPositive() {
		return nil, customError.WrapInvalidPaymentAmount(req.Amount)
	}

	today := s.calendar.today()
	paymentDate := today
	if req.PaymentDate != "" {
		d, err := utils.ParseDate(req.PaymentDate)
		if err != nil {
			return nil, customError.WrapInvalidRequest(err)
		}
		paymentDate = d
	}

	var (
		payment *domain.Payment
		fee     *domain.StudentFee
	)
	err := s.Tx.WithinTx(ctx, func(ctx context.Context) error {
		f, err := s.FeeRepo.GetForUpdate(ctx, feeID)
		if err != nil {
			return err
		}

		remaining := f.Remaining()
		if amount.GreaterThan(remaining) {
			return customError.WrapOverpayment(amount, remaining)
		}

		p := &domain.Payment{
			ID:            uuid.New(),
			FeeID:         f.ID,
			Amount:        amount,
			Method:        req.Method,
			TransactionID: req.TransactionID,
			PaymentDate:   paymentDate,
			Notes:         req.Notes,
			CreatedBy:     req.CreatedBy,
		}
		if err := s.PaymentRepo.Create(ctx, p); err != nil {
			return err
		}

		f.PaidAmount = f.PaidAmount.Add(p.Amount)
		f.Recompute(today)
		if err := s.FeeRepo.Update(ctx, f); err != nil {
			return err
		}

		payment, fee = p, f
		return nil
	})
	if err != nil {
		return nil, dbError(err)
	}

	s.logger.InfoContext(ctx, "payment recorded",
		"fee_id", fee.ID,
		"payment_id", payment.ID,
		"amount", payment.Amount.StringFixed(2),
		"status", fee.Status,
	)
	invalidateAggregates(ctx, s.cache, s.logger)
	s.confirmAsync(ctx, fee, payment)

	return payment, nil
}

// EditPaymentAmount changes a payment's amount and moves the fee's paid
// amount by the difference.
func (s *LedgerService) EditPaymentAmount(ctx context.Context, paymentID uuid.UUID, newAmount decimal.Decimal) (*domain.Payment, error) {
	rounded := newAmount.Round(2)
	if !rounded.IsPositive() {
		return nil, customError.WrapInvalidPaymentAmount(newAmount)
	}
	newAmount = rounded

	var payment *domain.Payment
	err := s.withLockedPayment(ctx, paymentID, func(ctx context.Context, f *domain.StudentFee, p *domain.Payment) error {
		delta := newAmount.Sub(p.Amount)
		if remaining := f.Remaining(); delta.GreaterThan(remaining) {
			return customError.WrapOverpayment(delta, remaining)
		}

		if err := s.PaymentRepo.UpdateAmount(ctx, p.ID, newAmount); err != nil {
			return err
		}

		f.PaidAmount = f.PaidAmount.Add(delta)
		f.Recompute(s.calendar.today())
		if err := s.FeeRepo.Update(ctx, f); err != nil {
			return err
		}

		p.Amount = newAmount
		payment = p
		return nil
	})
	if err != nil {
		return nil, err
	}

	invalidateAggregates(ctx, s.cache, s.logger)
	return payment, nil
}

// DeletePayment removes a payment and takes its amount back off the fee
func (s *LedgerService) DeletePayment(ctx context.Context, paymentID uuid.UUID) error {
	err := s.withLockedPayment(ctx, paymentID, func(ctx context.Context, f *domain.StudentFee, p *domain.Payment) error {
		if err := s.PaymentRepo.Delete(ctx, p.ID); err != nil {
			return err
		}

		f.PaidAmount = utils.MaxZero(f.PaidAmount.Sub(p.Amount))
		f.Recompute(s.calendar.today())
		return s.FeeRepo.Update(ctx, f)
	})
	if err != nil {
		return err
	}

	invalidateAggregates(ctx, s.cache, s.logger)
	return nil
}

// withLockedPayment locks the payment's fee and re-reads the payment under
// that lock before calling fn, all in one transaction.
func (s *LedgerService) withLockedPayment(ctx context.Context, paymentID uuid.UUID, fn func(ctx context.Context, f *domain.StudentFee, p *domain.Payment) error) error {
	err := s.Tx.WithinTx(ctx, func(ctx context.Context) error {
		p, err := s.PaymentRepo.GetByID(ctx, paymentID)
		if err != nil {
			return err
		}

		f, err := s.FeeRepo.GetForUpdate(ctx, p.FeeID)
		if err != nil {
			return err
		}

		// the payment may have changed while we waited for the lock
		p, err = s.PaymentRepo.GetByID(ctx, paymentID)
		if err != nil {
			return err
		}

		return fn(ctx, f, p)
	})
	if err != nil {
		return dbError(err)
	}
	return nil
}

// AddAdjustment grants a discount or waiver on a fee. It can never take
// the fee below what has already been paid.
func (s *LedgerService) AddAdjustment(ctx context.Context, feeID uuid.UUID, req *domain.AdjustmentRequest) (*domain.FeeAdjustment, error) {
	if req.Kind != domain.AdjustmentDiscount && req.Kind != domain.AdjustmentWaiver {
		return nil, customError.WrapInvalidRequest(fmt.Errorf("adjustment kind must be %s or %s", domain.AdjustmentDiscount, domain.AdjustmentWaiver))
	}
	amount := req.Amount.Round(2)
	if !amount.IsPositive() {
		return nil, customError.WrapInvalidRequest(fmt.Errorf("adjustment amount must be positive"))
	}

	today := s.calendar.today()
	var adj *domain.FeeAdjustment
	err := s.Tx.WithinTx(ctx, func(ctx context.Context) error {
		f, err := s.FeeRepo.GetForUpdate(ctx, feeID)
		if err != nil {
			return err
		}

		remaining := f.Remaining()
		if !remaining.IsPositive() {
			return customError.WrapNoOutstandingBalance(f.ID)
		}
		if amount.GreaterThan(remaining) {
			return customError.WrapInvalidRequest(fmt.Errorf("%s of %s exceeds remaining amount %s", req.Kind, amount.StringFixed(2), remaining.StringFixed(2)))
		}

		a := &domain.FeeAdjustment{
			ID:        uuid.New(),
			FeeID:     f.ID,
			Kind:      req.Kind,
			Amount:    amount,
			Reason:    req.Reason,
			AppliedOn: today,
		}
		if err := s.AdjustRepo.Create(ctx, a); err != nil {
			return err
		}

		a.Apply(f)
		f.Recompute(today)
		if err := s.FeeRepo.Update(ctx, f); err != nil {
			return err
		}

		adj = a
		return nil
	})
	if err != nil {
		return nil, dbError(err)
	}

	invalidateAggregates(ctx, s.cache, s.logger)
	return adj, nil
}

// Reconcile resets a fee's paid amount to the sum of its payments. Used by
// operators to repair rows written outside the service.
func (s *LedgerService) Reconcile(ctx context.Context, feeID uuid.UUID) (*domain.StudentFee, error) {
	var fee *domain.StudentFee
	err := s.Tx.WithinTx(ctx, func(ctx context.Context) error {
		f, err := s.FeeRepo.GetForUpdate(ctx, feeID)
		if err != nil {
			return err
		}

		paid, err := s.PaymentRepo.SumByFee(ctx, f.ID)
		if err != nil {
			return err
		}

		if !paid.Equal(f.PaidAmount) {
			s.logger.WarnContext(ctx, "paid amount drifted from payments",
				"fee_id", f.ID,
				"recorded", f.PaidAmount.StringFixed(2),
				"payments", paid.StringFixed(2),
			)
		}

		f.PaidAmount = paid
		f.Recompute(s.calendar.today())
		if err := s.FeeRepo.Update(ctx, f); err != nil {
			return err
		}

		fee = f
		return nil
	})
	if err != nil {
		return nil, dbError(err)
	}

	invalidateAggregates(ctx, s.cache, s.logger)
	return fee, nil
}

// GetPayment retrieves a payment
func (s *LedgerService) GetPayment(ctx context.Context, paymentID uuid.UUID) (*domain.Payment, error) {
	p, err := s.PaymentRepo.GetByID(ctx, paymentID)
	if err != nil {
		return nil, dbError(err)
	}
	return p, nil
}

// ListPayments retrieves the payments made against a fee
func (s *LedgerService) ListPayments(ctx context.Context, feeID uuid.UUID) ([]*domain.Payment, error) {
	if _, err := s.FeeRepo.GetByID(ctx, feeID); err != nil {
		return nil, dbError(err)
	}

	payments, err := s.PaymentRepo.ListByFee(ctx, feeID)
	if err != nil {
		return nil, dbError(err)
	}
	return payments, nil
}

// ListAdjustments retrieves the late fee, discount and waiver lines of a fee
func (s *LedgerService) ListAdjustments(ctx context.Context, feeID uuid.UUID) ([]*domain.FeeAdjustment, error) {
	if _, err := s.FeeRepo.GetByID(ctx, feeID); err != nil {
		return nil, dbError(err)
	}

	adjustments, err := s.AdjustRepo.ListByFee(ctx, feeID)
	if err != nil {
		return nil, dbError(err)
	}
	return adjustments, nil
}

// confirmAsync sends the receipt without holding up the caller
func (s *LedgerService) confirmAsync(ctx context.Context, fee *domain.StudentFee, payment *domain.Payment) {
	ctx = context.WithoutCancel(ctx)
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.sender.confirmPayment(ctx, fee, payment)
	}()
}
