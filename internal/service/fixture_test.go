package service

import (
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"

	"github.com/segyhp/student-fees/internal/config"
	"github.com/segyhp/student-fees/internal/domain"
	"github.com/segyhp/student-fees/internal/feecalc"
	"github.com/segyhp/student-fees/internal/mocks"
)

// all service tests run on 15 March 2025
var fixedNow = time.Date(2025, 3, 15, 10, 30, 0, 0, time.UTC)

func fixedClock() time.Time { return fixedNow }

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func testConfig() *config.Config {
	return &config.Config{
		Scheduler: config.SchedulerConfig{
			Timezone:   "UTC",
			JobLockTTL: "30m",
		},
		Notification: config.NotificationConfig{
			InstituteName: "Northwind Academy",
		},
		Business: config.BusinessConfig{
			ReminderLeadDays:     3,
			FinalNoticeAfterDays: 30,
			StatsCacheTTL:        "5m",
		},
	}
}

type fixture struct {
	tx          *mocks.MockTransactor
	structures  *mocks.MockFeeStructureRepository
	feeRepo     *mocks.MockStudentFeeRepository
	payments    *mocks.MockPaymentRepository
	adjustments *mocks.MockAdjustmentRepository
	reminders   *mocks.MockReminderRepository
	enrollments *mocks.MockEnrollmentRepository
	cache       *mocks.MockCache
	locker      *mocks.MockLocker
	notifier    *mocks.MockNotifier
	cfg         *config.Config
	calc        *feecalc.Calculator
	logger      *slog.Logger
}

func newFixture() *fixture {
	f := &fixture{
		tx:          &mocks.MockTransactor{},
		structures:  &mocks.MockFeeStructureRepository{},
		feeRepo:     &mocks.MockStudentFeeRepository{},
		payments:    &mocks.MockPaymentRepository{},
		adjustments: &mocks.MockAdjustmentRepository{},
		reminders:   &mocks.MockReminderRepository{},
		enrollments: &mocks.MockEnrollmentRepository{},
		cache:       &mocks.MockCache{},
		locker:      &mocks.MockLocker{},
		notifier:    &mocks.MockNotifier{},
		cfg:         testConfig(),
		calc:        feecalc.New(feecalc.DefaultPolicy()),
		logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	f.cache.On("Delete", mock.Anything, mock.Anything).Return(nil).Maybe()
	return f
}

func (f *fixture) ledgerService() *LedgerService {
	svc := NewLedgerService(f.tx, f.feeRepo, f.payments, f.adjustments, f.enrollments, f.reminders, f.cache, f.notifier, f.cfg, f.logger)
	svc.SetClock(fixedClock)
	return svc
}

func (f *fixture) feeService() *FeeService {
	svc := NewFeeService(f.structures, f.feeRepo, f.payments, f.enrollments, f.reminders, f.calc, f.cache, f.notifier, f.cfg, f.logger)
	svc.SetClock(fixedClock)
	return svc
}

func (f *fixture) automationService() *AutomationService {
	svc := NewAutomationService(f.tx, f.structures, f.feeRepo, f.adjustments, f.enrollments, f.reminders, f.calc, f.cache, f.locker, f.notifier, f.cfg, f.logger)
	svc.SetClock(fixedClock)
	return svc
}

func testEnrollment() *domain.Enrollment {
	return &domain.Enrollment{
		ID:             uuid.New(),
		StudentID:      uuid.New(),
		StudentCode:    "STU-0042",
		StudentName:    "Asha Rao",
		StudentEmail:   "asha@example.com",
		ParentEmail:    "rao.family@example.com",
		CourseID:       uuid.New(),
		CourseCode:     "GO101",
		CourseName:     "Go Programming",
		CourseFee:      decimal.NewFromInt(5000),
		Batch:          feecalc.BatchMorning,
		StartDate:      date(2025, 4, 1),
		EndDate:        date(2025, 7, 1),
		DurationMonths: 3,
	}
}

func testFee(e *domain.Enrollment, amount string, due time.Time) *domain.StudentFee {
	fee := domain.NewStudentFee(e.StudentID, e.ID, uuid.NullUUID{}, dec(amount), due)
	fee.Recompute(date(2025, 3, 15))
	return fee
}
