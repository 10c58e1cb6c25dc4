package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/segyhp/student-fees/internal/config"
	"github.com/segyhp/student-fees/internal/domain"
	"github.com/segyhp/student-fees/internal/feecalc"
	"github.com/segyhp/student-fees/internal/notify"
	"github.com/segyhp/student-fees/internal/repository"
	customError "github.com/segyhp/student-fees/pkg/errors"
	"github.com/segyhp/student-fees/pkg/utils"
)

// Job names, also used as lock names
const (
	JobSweepOverdue   = "sweep-overdue"
	JobDailyReminders = "daily-reminders"
)

// overdueReminderEvery spaces repeated overdue notices for one fee
const overdueReminderEvery = 7

// AutomationService runs the jobs that keep the ledger current without
// staff action: raising fees for new enrollments, charging late fees and
// reminding students.
type AutomationService struct {
	Tx             repository.Transactor
	StructureRepo  repository.FeeStructureRepository
	FeeRepo        repository.StudentFeeRepository
	AdjustRepo     repository.AdjustmentRepository
	EnrollmentRepo repository.EnrollmentRepository
	ReminderRepo   repository.ReminderRepository
	calc           *feecalc.Calculator
	cache          Cache
	locker         Locker
	sender         *reminderSender
	config         *config.Config
	logger         *slog.Logger
	calendar       calendar
}

func NewAutomationService(
	tx repository.Transactor,
	structureRepo repository.FeeStructureRepository,
	feeRepo repository.StudentFeeRepository,
	adjustRepo repository.AdjustmentRepository,
	enrollmentRepo repository.EnrollmentRepository,
	reminderRepo repository.ReminderRepository,
	calc *feecalc.Calculator,
	cache Cache,
	locker Locker,
	notifier notify.Notifier,
	config *config.Config,
	logger *slog.Logger,
) *AutomationService {
	return &AutomationService{
		Tx:             tx,
		StructureRepo:  structureRepo,
		FeeRepo:        feeRepo,
		AdjustRepo:     adjustRepo,
		EnrollmentRepo: enrollmentRepo,
		ReminderRepo:   reminderRepo,
		calc:           calc,
		cache:          cache,
		locker:         locker,
		sender: &reminderSender{
			enrollments: enrollmentRepo,
			reminders:   reminderRepo,
			notifier:    notifier,
			institute:   config.Notification.InstituteName,
			logger:      logger,
			now:         time.Now,
		},
		config:   config,
		logger:   logger.With("component", "automation"),
		calendar: newCalendar(config),
	}
}

// SetClock pins the service to a fixed clock
func (s *AutomationService) SetClock(c Clock) {
	s.calendar.now = c
	s.sender.now = c
}

// CreateEnrollmentFees prices an enrollment and raises its fees: one fee
// due at course start for the full scheme, otherwise one per installment
// counted from the course start date. The course's catalog entry is
// created on first use. Calling it twice for one enrollment bills twice.
func (s *AutomationService) CreateEnrollmentFees(ctx context.Context, enrollmentID uuid.UUID, req *domain.EnrollmentFeesRequest) ([]*domain.StudentFeeView, error) {
	scheme := req.Scheme
	if scheme == "" {
		scheme = feecalc.SchemeFull
	}
	if !feecalc.IsValidScheme(scheme) {
		return nil, customError.WrapInvalidRequest(fmt.Errorf("%w: %q", feecalc.ErrUnknownScheme, scheme))
	}

	enrollment, err := s.EnrollmentRepo.GetByID(ctx, enrollmentID)
	if err != nil {
		return nil, dbError(err)
	}

	today := s.calendar.today()
	earlyBird := enrollment.StartDate.After(today) && !utils.SameDay(enrollment.StartDate, today)

	breakdown, err := s.calc.ComputeFee(enrollment.CourseFee, enrollment.DurationMonths, enrollment.Batch, earlyBird, req.CustomDiscount)
	if err != nil {
		return nil, customError.WrapInvalidRequest(err)
	}

	var plan []feecalc.Installment
	if scheme != feecalc.SchemeFull {
		plan, err = s.calc.PlanInstallments(breakdown.TotalFee, enrollment.DurationMonths, scheme, enrollment.StartDate)
		if err != nil {
			return nil, customError.WrapInvalidRequest(err)
		}
	}

	var created []*domain.StudentFee
	err = s.Tx.WithinTx(ctx, func(ctx context.Context) error {
		now := time.Now()
		structure, _, err := s.StructureRepo.GetOrCreate(ctx, &domain.FeeStructure{
			ID:                 uuid.New(),
			CourseID:           enrollment.CourseID,
			DurationMonths:     enrollment.DurationMonths,
			BaseFee:            enrollment.CourseFee,
			RegistrationFee:    breakdown.RegistrationFee,
			DiscountPercentage: breakdown.DurationDiscountPercent,
			IsActive:           true,
			CreatedAt:          now,
			UpdatedAt:          now,
		})
		if err != nil {
			return err
		}
		structureID := uuid.NullUUID{UUID: structure.ID, Valid: true}

		if scheme == feecalc.SchemeFull {
			fee := domain.NewStudentFee(enrollment.StudentID, enrollment.ID, structureID, breakdown.TotalFee, enrollment.StartDate)
			fee.Description = "Full course fee - " + enrollment.CourseName
			created = append(created, fee)
		}
		for _, inst := range plan {
			fee := domain.NewStudentFee(enrollment.StudentID, enrollment.ID, structureID, inst.Amount, inst.DueDate)
			fee.InstallmentNumber = inst.Number
			fee.Description = inst.Description + " - " + enrollment.CourseName
			created = append(created, fee)
		}

		for _, fee := range created {
			fee.Recompute(today)
			if err := s.FeeRepo.Create(ctx, fee); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, dbError(err)
	}

	s.logger.InfoContext(ctx, "enrollment fees created",
		"enrollment_id", enrollment.ID,
		"scheme", scheme,
		"fees", len(created),
		"total", breakdown.TotalFee.StringFixed(2),
	)
	invalidateAggregates(ctx, s.cache, s.logger)

	views := make([]*domain.StudentFeeView, 0, len(created))
	for _, f := range created {
		views = append(views, domain.NewStudentFeeView(f, nil, today))
	}
	return views, nil
}

// SweepOverdue charges late fees on unsettled fees past their due date.
//
// Only one sweep runs at a time across instances. Candidates are
// snapshotted first, then each fee is re-read under a row lock in its own
// transaction, so a payment landing mid-sweep is always seen. A fee is
// charged at most once per day and only the increase over late fees
// already charged is added. A failing fee is logged and skipped.
func (s *AutomationService) SweepOverdue(ctx context.Context) (*domain.SweepResult, error) {
	var result *domain.SweepResult
	err := s.withJobLock(ctx, JobSweepOverdue, func(ctx context.Context) error {
		today := s.calendar.today()

		ids, err := s.FeeRepo.ListSweepCandidateIDs(ctx, today)
		if err != nil {
			return dbError(err)
		}

		result = &domain.SweepResult{
			Scanned:       len(ids),
			LateFeesAdded: decimal.Zero,
			Errors:        []string{},
		}

		for _, id := range ids {
			if err := ctx.Err(); err != nil {
				result.Errors = append(result.Errors, fmt.Sprintf("sweep interrupted: %v", err))
				break
			}

			added, updated, err := s.sweepFee(ctx, id, today)
			if err != nil {
				s.logger.ErrorContext(ctx, "overdue sweep failed for fee", "fee_id", id, "error", err)
				result.Errors = append(result.Errors, fmt.Sprintf("fee %s: %v", id, err))
				continue
			}
			if !updated {
				result.Skipped++
				continue
			}
			result.Updated++
			result.LateFeesAdded = result.LateFeesAdded.Add(added)
		}

		if result.Updated > 0 {
			invalidateAggregates(ctx, s.cache, s.logger)
		}

		s.logger.InfoContext(ctx, "overdue sweep finished",
			"scanned", result.Scanned,
			"updated", result.Updated,
			"skipped", result.Skipped,
			"failed", len(result.Errors),
			"late_fees_added", result.LateFeesAdded.StringFixed(2),
		)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// sweepFee brings one fee up to date. updated is false when nothing had to
// change.
func (s *AutomationService) sweepFee(ctx context.Context, id uuid.UUID, today time.Time) (added decimal.Decimal, updated bool, err error) {
	err = s.Tx.WithinTx(ctx, func(ctx context.Context) error {
		fee, err := s.FeeRepo.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}

		previous := fee.Status
		fee.Recompute(today)

		if fee.Status == domain.FeeStatusPaid || !fee.IsOverdue(today) {
			if fee.Status != previous {
				updated = true
				return s.FeeRepo.Update(ctx, fee)
			}
			return nil
		}

		if fee.LastLateFeeAppliedOn != nil && utils.SameDay(*fee.LastLateFeeAppliedOn, today) {
			return nil
		}

		days := utils.DaysOverdue(fee.DueDate, today)
		target := s.calc.LateFee(fee.OutstandingPrincipal(), days)
		delta := target.Sub(fee.LateFeeAmount)

		if delta.IsPositive() {
			adj := &domain.FeeAdjustment{
				ID:        uuid.New(),
				FeeID:     fee.ID,
				Kind:      domain.AdjustmentLateFee,
				Amount:    delta,
				Reason:    fmt.Sprintf("%d days overdue, %s%% late fee", days, s.calc.LateFeePercent(days).String()),
				AppliedOn: today,
			}
			if err := s.AdjustRepo.Create(ctx, adj); err != nil {
				return err
			}
			adj.Apply(fee)
			fee.Recompute(today)
			added = delta
		}

		if added.IsZero() && fee.Status == previous {
			return nil
		}

		stamp := today
		fee.LastLateFeeAppliedOn = &stamp
		updated = true
		return s.FeeRepo.Update(ctx, fee)
	})
	if err != nil {
		return decimal.Zero, false, err
	}
	return added, updated, nil
}

// SendDailyReminders emails due-soon notices for fees falling due in
// REMINDER_LEAD_DAYS and overdue notices, escalating to a final notice
// after FINAL_NOTICE_AFTER_DAYS. A fee gets one due-soon notice and at
// most one overdue notice a week. Delivery failures are counted, never
// returned.
func (s *AutomationService) SendDailyReminders(ctx context.Context) (*domain.ReminderRunResult, error) {
	var result *domain.ReminderRunResult
	err := s.withJobLock(ctx, JobDailyReminders, func(ctx context.Context) error {
		today := s.calendar.today()
		lead := s.config.Business.ReminderLeadDays
		result = &domain.ReminderRunResult{Errors: []string{}}

		dueSoon, err := s.FeeRepo.ListDueOn(ctx, today.AddDate(0, 0, lead))
		if err != nil {
			return dbError(err)
		}
		for _, fee := range dueSoon {
			s.remind(ctx, fee, domain.ReminderKindDueSoon, today.AddDate(0, 0, -lead), today, result)
		}

		overdue, err := s.FeeRepo.ListOverdue(ctx, today)
		if err != nil {
			return dbError(err)
		}
		for _, fee := range overdue {
			if !fee.Remaining().IsPositive() {
				continue
			}
			kind := domain.ReminderKindOverdue
			if utils.DaysOverdue(fee.DueDate, today) >= s.config.Business.FinalNoticeAfterDays {
				kind = domain.ReminderKindFinalNotice
			}
			s.remind(ctx, fee, kind, today.AddDate(0, 0, -overdueReminderEvery+1), today, result)
		}

		s.logger.InfoContext(ctx, "daily reminders finished",
			"due_soon", result.DueSoonSent,
			"overdue", result.OverdueSent,
			"failed", result.Failed,
		)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *AutomationService) remind(ctx context.Context, fee *domain.StudentFee, kind string, since, today time.Time, result *domain.ReminderRunResult) {
	sent, err := s.ReminderRepo.SentSince(ctx, fee.ID, kind, since)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("fee %s: %v", fee.ID, err))
		return
	}
	if sent {
		return
	}

	reminder, err := s.sender.send(ctx, fee, kind, domain.ReminderChannelEmail, "", systemUser, today)
	if err != nil {
		s.logger.ErrorContext(ctx, "reminder failed", "fee_id", fee.ID, "kind", kind, "error", err)
		result.Errors = append(result.Errors, fmt.Sprintf("fee %s: %v", fee.ID, err))
		return
	}

	switch {
	case !reminder.Successful:
		result.Failed++
	case kind == domain.ReminderKindDueSoon:
		result.DueSoonSent++
	default:
		result.OverdueSent++
	}
}

// RunDaily runs the overdue sweep and then the reminders, so reminders
// quote amounts that include today's late fees. A failed sweep does not
// stop the reminders.
func (s *AutomationService) RunDaily(ctx context.Context) error {
	_, sweepErr := s.SweepOverdue(ctx)
	if sweepErr != nil {
		s.logger.ErrorContext(ctx, "overdue sweep did not run", "error", sweepErr)
	}

	_, remindErr := s.SendDailyReminders(ctx)
	if remindErr != nil {
		s.logger.ErrorContext(ctx, "daily reminders did not run", "error", remindErr)
	}

	return errors.Join(sweepErr, remindErr)
}

// withJobLock runs fn while holding the named job lock
func (s *AutomationService) withJobLock(ctx context.Context, job string, fn func(ctx context.Context) error) error {
	token, ok, err := s.locker.TryLock(ctx, job, s.config.GetJobLockTTL())
	if err != nil {
		return customError.WrapCacheError(err)
	}
	if !ok {
		return customError.WrapJobAlreadyRunning(job)
	}
	defer func() {
		if err := s.locker.Unlock(context.WithoutCancel(ctx), job, token); err != nil {
			s.logger.WarnContext(ctx, "release job lock", "job", job, "error", err)
		}
	}()

	return fn(ctx)
}
