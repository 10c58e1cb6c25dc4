package service

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/segyhp/student-fees/internal/cache"
	"github.com/segyhp/student-fees/internal/domain"
	"github.com/segyhp/student-fees/internal/feecalc"
	customError "github.com/segyhp/student-fees/pkg/errors"
)

func testStructure(courseID uuid.UUID) *domain.FeeStructure {
	return &domain.FeeStructure{
		ID:                 uuid.New(),
		CourseID:           courseID,
		DurationMonths:     3,
		BaseFee:            decimal.NewFromInt(5000),
		RegistrationFee:    decimal.NewFromInt(500),
		DiscountPercentage: decimal.NewFromInt(5),
		IsActive:           true,
	}
}

func TestCreateFee(t *testing.T) {
	t.Run("uses the structure total", func(t *testing.T) {
		f := newFixture()
		svc := f.feeService()

		e := testEnrollment()
		st := testStructure(e.CourseID)
		f.enrollments.On("GetByID", mock.Anything, e.ID).Return(e, nil)
		f.structures.On("GetByID", mock.Anything, st.ID).Return(st, nil)
		f.feeRepo.On("Create", mock.Anything, mock.AnythingOfType("*domain.StudentFee")).Return(nil)

		view, err := svc.CreateFee(context.Background(), &domain.CreateStudentFeeRequest{
			StudentID:      e.StudentID,
			EnrollmentID:   e.ID,
			FeeStructureID: st.ID,
			DueDate:        "2025-04-01",
		})

		require.NoError(t, err)
		assert.True(t, view.OriginalAmount.Equal(st.TotalFee()))
		assert.True(t, view.RemainingAmount.Equal(st.TotalFee()))
		assert.Equal(t, domain.FeeStatusPending, view.Status)
		assert.Equal(t, "Course fee - Go Programming", view.Description)
		assert.Equal(t, st.ID, view.FeeStructureID.UUID)
		assert.NotNil(t, view.Payments)
	})

	t.Run("explicit amount and past due date", func(t *testing.T) {
		f := newFixture()
		svc := f.feeService()

		e := testEnrollment()
		st := testStructure(e.CourseID)
		amount := decimal.NewFromInt(1200)
		f.enrollments.On("GetByID", mock.Anything, e.ID).Return(e, nil)
		f.structures.On("GetByID", mock.Anything, st.ID).Return(st, nil)
		f.feeRepo.On("Create", mock.Anything, mock.Anything).Return(nil)

		view, err := svc.CreateFee(context.Background(), &domain.CreateStudentFeeRequest{
			StudentID:      e.StudentID,
			EnrollmentID:   e.ID,
			FeeStructureID: st.ID,
			TotalAmount:    &amount,
			DueDate:        "2025-03-01",
		})

		require.NoError(t, err)
		assert.True(t, view.TotalAmount.Equal(amount))
		assert.Equal(t, domain.FeeStatusOverdue, view.Status)
		assert.True(t, view.IsOverdue)
	})

	t.Run("student does not own the enrollment", func(t *testing.T) {
		f := newFixture()
		svc := f.feeService()

		e := testEnrollment()
		f.enrollments.On("GetByID", mock.Anything, e.ID).Return(e, nil)

		_, err := svc.CreateFee(context.Background(), &domain.CreateStudentFeeRequest{
			StudentID:      uuid.New(),
			EnrollmentID:   e.ID,
			FeeStructureID: uuid.New(),
			DueDate:        "2025-04-01",
		})

		assert.ErrorIs(t, err, customError.ErrReferenceMismatch)
		f.feeRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("structure for another course", func(t *testing.T) {
		f := newFixture()
		svc := f.feeService()

		e := testEnrollment()
		st := testStructure(uuid.New())
		f.enrollments.On("GetByID", mock.Anything, e.ID).Return(e, nil)
		f.structures.On("GetByID", mock.Anything, st.ID).Return(st, nil)

		_, err := svc.CreateFee(context.Background(), &domain.CreateStudentFeeRequest{
			StudentID:      e.StudentID,
			EnrollmentID:   e.ID,
			FeeStructureID: st.ID,
			DueDate:        "2025-04-01",
		})

		assert.ErrorIs(t, err, customError.ErrReferenceMismatch)
	})
}

func TestBulkCreateFees_ReportsPerEnrollment(t *testing.T) {
	f := newFixture()
	svc := f.feeService()

	good := testEnrollment()
	billed := testEnrollment()
	billed.CourseID = good.CourseID
	otherCourse := testEnrollment()
	missing := uuid.New()
	st := testStructure(good.CourseID)

	f.structures.On("GetByID", mock.Anything, st.ID).Return(st, nil)
	f.enrollments.On("GetByID", mock.Anything, good.ID).Return(good, nil)
	f.enrollments.On("GetByID", mock.Anything, billed.ID).Return(billed, nil)
	f.enrollments.On("GetByID", mock.Anything, otherCourse.ID).Return(otherCourse, nil)
	f.enrollments.On("GetByID", mock.Anything, missing).Return(nil, customError.WrapEnrollmentNotFound(missing))
	f.feeRepo.On("ExistsForEnrollment", mock.Anything, good.ID).Return(false, nil)
	f.feeRepo.On("ExistsForEnrollment", mock.Anything, billed.ID).Return(true, nil)
	f.feeRepo.On("ExistsForEnrollment", mock.Anything, otherCourse.ID).Return(false, nil)
	f.feeRepo.On("Create", mock.Anything, mock.MatchedBy(func(fee *domain.StudentFee) bool {
		return fee.EnrollmentID == good.ID
	})).Return(nil).Once()

	resp, err := svc.BulkCreateFees(context.Background(), &domain.BulkCreateFeesRequest{
		EnrollmentIDs:  []uuid.UUID{good.ID, billed.ID, otherCourse.ID, missing},
		FeeStructureID: st.ID,
		DueDate:        "2025-04-01",
	})

	require.NoError(t, err)
	assert.Equal(t, 1, resp.CreatedCount)
	require.Len(t, resp.CreatedFees, 1)
	assert.Equal(t, good.ID, resp.CreatedFees[0].EnrollmentID)
	assert.Equal(t, []string{
		"Fee already exists for enrollment " + billed.ID.String(),
		"Enrollment " + otherCourse.ID.String() + " is not on the fee structure's course",
		"Enrollment " + missing.String() + " not found",
	}, resp.Errors)
	f.feeRepo.AssertExpectations(t)
}

func TestBulkCreateFees_UnknownStructure(t *testing.T) {
	f := newFixture()
	svc := f.feeService()
	id := uuid.New()

	f.structures.On("GetByID", mock.Anything, id).Return(nil, customError.WrapStructureNotFound(id))

	_, err := svc.BulkCreateFees(context.Background(), &domain.BulkCreateFeesRequest{
		EnrollmentIDs:  []uuid.UUID{uuid.New()},
		FeeStructureID: id,
		DueDate:        "2025-04-01",
	})

	assert.True(t, customError.IsNotFound(err))
	f.enrollments.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
}

func TestQuoteFee_DefaultsToMorningBatch(t *testing.T) {
	f := newFixture()
	svc := f.feeService()

	breakdown, err := svc.QuoteFee(context.Background(), &domain.FeeQuoteRequest{
		BaseFee:        decimal.NewFromInt(5000),
		DurationMonths: 3,
		EarlyBird:      true,
	})

	require.NoError(t, err)
	assert.True(t, breakdown.BatchMultiplier.Equal(decimal.NewFromInt(1)))
	assert.True(t, breakdown.TotalFee.Equal(decimal.NewFromInt(5000)), "total %s", breakdown.TotalFee)
}

func TestQuoteFee_RejectsBadDiscount(t *testing.T) {
	f := newFixture()
	svc := f.feeService()
	custom := decimal.NewFromInt(120)

	_, err := svc.QuoteFee(context.Background(), &domain.FeeQuoteRequest{
		BaseFee:        decimal.NewFromInt(5000),
		DurationMonths: 3,
		CustomDiscount: &custom,
	})

	assert.ErrorIs(t, err, customError.ErrInvalidRequest)
}

func TestPlanInstallments_AnchorsOnToday(t *testing.T) {
	f := newFixture()
	svc := f.feeService()

	plan, err := svc.PlanInstallments(context.Background(), &domain.InstallmentPlanRequest{
		TotalAmount:    decimal.NewFromInt(5000),
		DurationMonths: 3,
		Scheme:         feecalc.SchemeMonthly,
	})

	require.NoError(t, err)
	require.Len(t, plan, 3)
	assert.Equal(t, date(2025, 4, 14), plan[0].DueDate)
	assert.True(t, plan[2].Amount.Equal(dec("1666.66")))
}

func TestQuoteRefund(t *testing.T) {
	tests := []struct {
		name       string
		setup      func(f *fixture, fee *domain.StudentFee)
		wantRefund decimal.Decimal
	}{
		{
			name: "structure registration fee",
			setup: func(f *fixture, fee *domain.StudentFee) {
				st := testStructure(uuid.New())
				st.RegistrationFee = decimal.NewFromInt(1000)
				fee.FeeStructureID = uuid.NullUUID{UUID: st.ID, Valid: true}
				f.structures.On("GetByID", mock.Anything, st.ID).Return(st, nil)
			},
			// 90% of 5500 - 1000
			wantRefund: dec("4050"),
		},
		{
			name: "structure deleted",
			setup: func(f *fixture, fee *domain.StudentFee) {
				id := uuid.New()
				fee.FeeStructureID = uuid.NullUUID{UUID: id, Valid: true}
				f.structures.On("GetByID", mock.Anything, id).Return(nil, customError.WrapStructureNotFound(id))
			},
			// 90% of 5500 - 500
			wantRefund: dec("4500"),
		},
		{
			name:       "no structure",
			setup:      func(f *fixture, fee *domain.StudentFee) {},
			wantRefund: dec("4500"),
		},
		{
			name: "installment is quoted on its own",
			setup: func(f *fixture, fee *domain.StudentFee) {
				st := testStructure(uuid.New())
				st.RegistrationFee = decimal.NewFromInt(1000)
				fee.FeeStructureID = uuid.NullUUID{UUID: st.ID, Valid: true}
				fee.OriginalAmount = dec("1666.67")
				f.structures.On("GetByID", mock.Anything, st.ID).Return(st, nil)
			},
			// 90% of 1666.67 - 1000, the full registration fee again
			wantRefund: dec("600"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			svc := f.feeService()

			e := testEnrollment()
			fee := testFee(e, "5500", date(2025, 4, 1))
			// late fees never change the quote
			fee.LateFeeAmount = decimal.NewFromInt(110)
			fee.TotalAmount = dec("5610")
			tt.setup(f, fee)

			f.feeRepo.On("GetByID", mock.Anything, fee.ID).Return(fee, nil)
			f.enrollments.On("GetByID", mock.Anything, e.ID).Return(e, nil)

			quote, err := svc.QuoteRefund(context.Background(), fee.ID, &domain.RefundQuoteRequest{WithdrawalDate: "2025-03-01"})

			require.NoError(t, err)
			assert.True(t, quote.RefundAmount.Equal(tt.wantRefund), "refund %s", quote.RefundAmount)
			assert.True(t, quote.RefundPercent.Equal(decimal.NewFromInt(90)))
		})
	}
}

func TestQuoteRefund_StructureLookupFailure(t *testing.T) {
	f := newFixture()
	svc := f.feeService()

	e := testEnrollment()
	fee := testFee(e, "5500", date(2025, 4, 1))
	fee.FeeStructureID = uuid.NullUUID{UUID: uuid.New(), Valid: true}

	f.feeRepo.On("GetByID", mock.Anything, fee.ID).Return(fee, nil)
	f.enrollments.On("GetByID", mock.Anything, e.ID).Return(e, nil)
	f.structures.On("GetByID", mock.Anything, fee.FeeStructureID.UUID).Return(nil, errors.New("connection refused"))

	_, err := svc.QuoteRefund(context.Background(), fee.ID, &domain.RefundQuoteRequest{WithdrawalDate: "2025-03-01"})

	var be *customError.BusinessError
	require.ErrorAs(t, err, &be)
	assert.Equal(t, customError.ErrCodeDatabaseError, be.Code)
}

func TestStats_ComputedOnMissAndServedFromCache(t *testing.T) {
	f := newFixture()
	svc := f.feeService()

	f.cache.On("Get", mock.Anything, statsCacheKey, mock.Anything).Return(cache.ErrMiss).Once()
	f.feeRepo.On("Stats", mock.Anything, date(2025, 3, 15)).Return(&domain.FeeStats{
		TotalFees:     decimal.NewFromInt(20000),
		CollectedFees: decimal.NewFromInt(5000),
		TotalStudents: 4,
	}, nil).Once()
	f.cache.On("Set", mock.Anything, statsCacheKey, mock.Anything, f.cfg.GetStatsCacheTTL()).Return(nil).Once()

	stats, err := svc.Stats(context.Background())
	require.NoError(t, err)
	assert.True(t, stats.CollectionPercentage.Equal(decimal.NewFromInt(25)))

	f.cache.On("Get", mock.Anything, statsCacheKey, mock.Anything).Return(nil).Run(func(args mock.Arguments) {
		dest := args.Get(2).(**domain.FeeStats)
		*dest = &domain.FeeStats{TotalStudents: 9}
	}).Once()

	cached, err := svc.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 9, cached.TotalStudents)

	f.feeRepo.AssertNumberOfCalls(t, "Stats", 1)
	f.cache.AssertExpectations(t)
}

func TestReports_PendingNeverNegative(t *testing.T) {
	f := newFixture()
	svc := f.feeService()

	f.cache.On("Get", mock.Anything, reportsCacheKey, mock.Anything).Return(cache.ErrMiss)
	f.cache.On("Set", mock.Anything, reportsCacheKey, mock.Anything, mock.Anything).Return(errors.New("redis down"))
	f.feeRepo.On("CourseReports", mock.Anything).Return([]*domain.CourseFeeReport{
		{CourseName: "Go Programming", TotalFees: decimal.NewFromInt(10000), CollectedFees: decimal.NewFromInt(4000)},
		{CourseName: "Rust Basics", TotalFees: decimal.NewFromInt(1000), CollectedFees: decimal.NewFromInt(1200)},
	}, nil)

	reports, err := svc.Reports(context.Background())

	require.NoError(t, err)
	require.Len(t, reports, 2)
	assert.True(t, reports[0].PendingFees.Equal(decimal.NewFromInt(6000)))
	assert.True(t, reports[0].CollectionPercentage.Equal(decimal.NewFromInt(40)))
	assert.True(t, reports[1].PendingFees.IsZero())
}

func TestSendReminder(t *testing.T) {
	t.Run("email delivery failure is recorded", func(t *testing.T) {
		f := newFixture()
		svc := f.feeService()

		e := testEnrollment()
		fee := testFee(e, "5900", date(2025, 3, 1))
		f.feeRepo.On("GetByID", mock.Anything, fee.ID).Return(fee, nil)
		f.enrollments.On("GetByID", mock.Anything, e.ID).Return(e, nil)
		f.notifier.On("SendReminder", mock.Anything, e.Recipients(), "Fee Payment Reminder - Go Programming", mock.Anything).
			Return(errors.New("mailbox full"))
		f.reminders.On("Create", mock.Anything, mock.MatchedBy(func(r *domain.FeeReminder) bool {
			return !r.Successful && r.Channel == domain.ReminderChannelEmail && r.Kind == domain.ReminderKindGeneral
		})).Return(nil)

		reminder, err := svc.SendReminder(context.Background(), fee.ID, &domain.SendReminderRequest{CreatedBy: "front-desk"})

		require.NoError(t, err)
		assert.False(t, reminder.Successful)
		assert.Equal(t, "front-desk", reminder.CreatedBy)
		assert.Contains(t, reminder.Message, "Amount Due: Rs. 5900.00")
		assert.Contains(t, reminder.Message, "Days Overdue: 14")
		f.reminders.AssertExpectations(t)
	})

	t.Run("phone call is only logged", func(t *testing.T) {
		f := newFixture()
		svc := f.feeService()

		e := testEnrollment()
		fee := testFee(e, "5900", date(2025, 4, 1))
		f.feeRepo.On("GetByID", mock.Anything, fee.ID).Return(fee, nil)
		f.enrollments.On("GetByID", mock.Anything, e.ID).Return(e, nil)
		f.reminders.On("Create", mock.Anything, mock.Anything).Return(nil)

		reminder, err := svc.SendReminder(context.Background(), fee.ID, &domain.SendReminderRequest{
			Channel: domain.ReminderChannelCall,
			Message: "Spoke to parent, will pay Friday",
		})

		require.NoError(t, err)
		assert.True(t, reminder.Successful)
		assert.Equal(t, "Spoke to parent, will pay Friday", reminder.Message)
		f.notifier.AssertNotCalled(t, "SendReminder", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestGetFee_RefreshesStatus(t *testing.T) {
	f := newFixture()
	svc := f.feeService()

	fee := testFee(testEnrollment(), "5900", date(2025, 3, 1))
	// stored before the due date passed
	fee.Status = domain.FeeStatusPending
	payments := []*domain.Payment{}

	f.feeRepo.On("GetByID", mock.Anything, fee.ID).Return(fee, nil)
	f.payments.On("ListByFee", mock.Anything, fee.ID).Return(payments, nil)

	view, err := svc.GetFee(context.Background(), fee.ID)

	require.NoError(t, err)
	assert.Equal(t, domain.FeeStatusOverdue, view.Status)
	assert.True(t, view.IsOverdue)
}
