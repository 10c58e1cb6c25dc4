package repository

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/segyhp/student-fees/internal/domain"
	customError "github.com/segyhp/student-fees/pkg/errors"
)

// These tests run against a scratch Postgres database named by
// TEST_DATABASE_URL and are skipped without one.
var testDB *sqlx.DB

func TestMain(m *testing.M) {
	if dsn := os.Getenv("TEST_DATABASE_URL"); dsn != "" {
		db, err := sqlx.Connect("postgres", dsn)
		if err != nil {
			panic(fmt.Sprintf("Failed to connect to test database: %v", err))
		}
		if err := executeInitSQL(db); err != nil {
			panic(fmt.Sprintf("Failed to initialize database schema: %v", err))
		}
		testDB = db
	}

	code := m.Run()
	if testDB != nil {
		testDB.Close()
	}
	os.Exit(code)
}

func executeInitSQL(db *sqlx.DB) error {
	schema, err := os.ReadFile("../../scripts/init.sql")
	if err != nil {
		return err
	}
	_, err = db.Exec(string(schema))
	return err
}

func requireDB(t *testing.T) *sqlx.DB {
	t.Helper()
	if testDB == nil {
		t.Skip("TEST_DATABASE_URL not set")
	}
	t.Cleanup(func() {
		for _, table := range []string{"fee_reminders", "fee_adjustments", "payments", "student_fees", "fee_structures", "enrollments", "courses", "students"} {
			testDB.MustExec("DELETE FROM " + table)
		}
	})
	return testDB
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// seedEnrollment inserts a student on a 3 month course
func seedEnrollment(t *testing.T, db *sqlx.DB) *domain.Enrollment {
	t.Helper()
	e := &domain.Enrollment{
		ID:             uuid.New(),
		StudentID:      uuid.New(),
		StudentCode:    "STU-" + uuid.NewString()[:8],
		StudentName:    "Asha Rao",
		StudentEmail:   "asha@example.com",
		ParentEmail:    "rao.family@example.com",
		CourseID:       uuid.New(),
		CourseCode:     "GO-" + uuid.NewString()[:8],
		CourseName:     "Go Programming",
		CourseFee:      decimal.NewFromInt(5000),
		Batch:          "morning",
		StartDate:      day(2025, 4, 1),
		EndDate:        day(2025, 7, 1),
		DurationMonths: 3,
	}

	db.MustExec(`INSERT INTO students (id, student_code, full_name, email, parent_email) VALUES ($1, $2, $3, $4, $5)`,
		e.StudentID, e.StudentCode, e.StudentName, e.StudentEmail, e.ParentEmail)
	db.MustExec(`INSERT INTO courses (id, code, name, fee) VALUES ($1, $2, $3, $4)`,
		e.CourseID, e.CourseCode, e.CourseName, e.CourseFee)
	db.MustExec(`INSERT INTO enrollments (id, student_id, course_id, batch, start_date, end_date, duration_months)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		e.ID, e.StudentID, e.CourseID, e.Batch, e.StartDate, e.EndDate, e.DurationMonths)
	return e
}

func createFee(t *testing.T, repo StudentFeeRepository, e *domain.Enrollment, amount int64, due time.Time) *domain.StudentFee {
	t.Helper()
	fee := domain.NewStudentFee(e.StudentID, e.ID, uuid.NullUUID{}, decimal.NewFromInt(amount), due)
	require.NoError(t, repo.Create(context.Background(), fee))
	return fee
}

func TestEnrollmentRepository_GetByID(t *testing.T) {
	db := requireDB(t)
	repo := NewEnrollmentRepository(db)
	e := seedEnrollment(t, db)

	got, err := repo.GetByID(context.Background(), e.ID)
	require.NoError(t, err)
	assert.Equal(t, e.StudentName, got.StudentName)
	assert.Equal(t, e.CourseName, got.CourseName)
	assert.True(t, got.CourseFee.Equal(e.CourseFee))
	assert.Equal(t, []string{"asha@example.com", "rao.family@example.com"}, got.Recipients())

	_, err = repo.GetByID(context.Background(), uuid.New())
	assert.True(t, customError.IsNotFound(err))
}

func TestStudentFeeRepository_CreateGetUpdate(t *testing.T) {
	db := requireDB(t)
	repo := NewStudentFeeRepository(db)
	ctx := context.Background()
	e := seedEnrollment(t, db)

	fee := createFee(t, repo, e, 5000, day(2025, 3, 1))

	got, err := repo.GetByID(ctx, fee.ID)
	require.NoError(t, err)
	assert.True(t, got.TotalAmount.Equal(decimal.NewFromInt(5000)))
	assert.Equal(t, domain.FeeStatusPending, got.Status)
	assert.Equal(t, "2025-03-01", got.DueDate.Format("2006-01-02"))
	assert.Nil(t, got.LastLateFeeAppliedOn)

	stamp := day(2025, 3, 15)
	got.LateFeeAmount = decimal.NewFromInt(200)
	got.TotalAmount = decimal.NewFromInt(5200)
	got.PaidAmount = decimal.NewFromInt(1000)
	got.Status = domain.FeeStatusPartial
	got.LastLateFeeAppliedOn = &stamp
	require.NoError(t, repo.Update(ctx, got))

	again, err := repo.GetByID(ctx, fee.ID)
	require.NoError(t, err)
	assert.True(t, again.Remaining().Equal(decimal.NewFromInt(4200)))
	assert.Equal(t, domain.FeeStatusPartial, again.Status)
	require.NotNil(t, again.LastLateFeeAppliedOn)
	assert.Equal(t, "2025-03-15", again.LastLateFeeAppliedOn.Format("2006-01-02"))

	_, err = repo.GetByID(ctx, uuid.New())
	assert.ErrorIs(t, err, customError.ErrFeeNotFound)
}

func TestStudentFeeRepository_RejectsPaidAbovePayable(t *testing.T) {
	db := requireDB(t)
	repo := NewStudentFeeRepository(db)
	e := seedEnrollment(t, db)

	fee := createFee(t, repo, e, 5000, day(2025, 3, 1))
	fee.PaidAmount = decimal.NewFromInt(5001)

	assert.Error(t, repo.Update(context.Background(), fee))
}

func TestStudentFeeRepository_SchedulerQueries(t *testing.T) {
	db := requireDB(t)
	repo := NewStudentFeeRepository(db)
	ctx := context.Background()
	e := seedEnrollment(t, db)
	today := day(2025, 3, 15)

	late := createFee(t, repo, e, 1000, day(2025, 3, 1))
	dueSoon := createFee(t, repo, e, 1000, day(2025, 3, 18))
	settled := createFee(t, repo, e, 1000, day(2025, 3, 2))
	settled.PaidAmount = decimal.NewFromInt(1000)
	settled.Status = domain.FeeStatusPaid
	require.NoError(t, repo.Update(ctx, settled))

	ids, err := repo.ListSweepCandidateIDs(ctx, today)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{late.ID}, ids)

	overdue, err := repo.ListOverdue(ctx, today)
	require.NoError(t, err)
	require.Len(t, overdue, 1)
	assert.Equal(t, late.ID, overdue[0].ID)

	due, err := repo.ListDueOn(ctx, day(2025, 3, 18))
	require.NoError(t, err)
	require.Len(t, due, 1)
	assert.Equal(t, dueSoon.ID, due[0].ID)

	exists, err := repo.ExistsForEnrollment(ctx, e.ID)
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestFeeStructureRepository_GetOrCreate(t *testing.T) {
	db := requireDB(t)
	repo := NewFeeStructureRepository(db)
	ctx := context.Background()
	e := seedEnrollment(t, db)

	structure := func() *domain.FeeStructure {
		return &domain.FeeStructure{
			ID:                 uuid.New(),
			CourseID:           e.CourseID,
			DurationMonths:     3,
			BaseFee:            decimal.NewFromInt(5000),
			RegistrationFee:    decimal.NewFromInt(500),
			DiscountPercentage: decimal.NewFromInt(5),
			IsActive:           true,
			CreatedAt:          time.Now(),
			UpdatedAt:          time.Now(),
		}
	}

	first, created, err := repo.GetOrCreate(ctx, structure())
	require.NoError(t, err)
	assert.True(t, created)

	second, created, err := repo.GetOrCreate(ctx, structure())
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, second.ID)

	err = repo.Create(ctx, structure())
	assert.ErrorIs(t, err, customError.ErrStructureExists)
}

func TestPaymentRepository_SumByFee(t *testing.T) {
	db := requireDB(t)
	fees := NewStudentFeeRepository(db)
	payments := NewPaymentRepository(db)
	ctx := context.Background()
	e := seedEnrollment(t, db)
	fee := createFee(t, fees, e, 5000, day(2025, 3, 1))

	sum, err := payments.SumByFee(ctx, fee.ID)
	require.NoError(t, err)
	assert.True(t, sum.IsZero())

	for _, amount := range []string{"1000.50", "499.50"} {
		require.NoError(t, payments.Create(ctx, &domain.Payment{
			ID:          uuid.New(),
			FeeID:       fee.ID,
			Amount:      decimal.RequireFromString(amount),
			Method:      "cash",
			PaymentDate: day(2025, 3, 10),
			CreatedAt:   time.Now(),
		}))
	}

	sum, err = payments.SumByFee(ctx, fee.ID)
	require.NoError(t, err)
	assert.True(t, sum.Equal(decimal.NewFromInt(1500)), "sum %s", sum)
}

func TestReminderRepository_SentSince(t *testing.T) {
	db := requireDB(t)
	fees := NewStudentFeeRepository(db)
	reminders := NewReminderRepository(db)
	ctx := context.Background()
	e := seedEnrollment(t, db)
	fee := createFee(t, fees, e, 5000, day(2025, 3, 1))

	send := func(kind string, at time.Time, ok bool) {
		require.NoError(t, reminders.Create(ctx, &domain.FeeReminder{
			ID:         uuid.New(),
			FeeID:      fee.ID,
			Channel:    domain.ReminderChannelEmail,
			Kind:       kind,
			SentAt:     at,
			Successful: ok,
			CreatedBy:  "system",
		}))
	}
	send(domain.ReminderKindOverdue, time.Date(2025, 3, 10, 6, 0, 0, 0, time.UTC), true)
	send(domain.ReminderKindFinalNotice, time.Date(2025, 3, 14, 6, 0, 0, 0, time.UTC), false)

	sent, err := reminders.SentSince(ctx, fee.ID, domain.ReminderKindOverdue, day(2025, 3, 9))
	require.NoError(t, err)
	assert.True(t, sent)

	sent, err = reminders.SentSince(ctx, fee.ID, domain.ReminderKindOverdue, day(2025, 3, 11))
	require.NoError(t, err)
	assert.False(t, sent)

	// failed deliveries do not count
	sent, err = reminders.SentSince(ctx, fee.ID, domain.ReminderKindFinalNotice, day(2025, 3, 1))
	require.NoError(t, err)
	assert.False(t, sent)

	history, err := reminders.ListByFee(ctx, fee.ID)
	require.NoError(t, err)
	assert.Len(t, history, 2)
}

func TestTransactor_WithinTx(t *testing.T) {
	db := requireDB(t)
	tx := NewTransactor(db)
	repo := NewStudentFeeRepository(db)
	ctx := context.Background()
	e := seedEnrollment(t, db)

	t.Run("rolls back on error", func(t *testing.T) {
		fee := domain.NewStudentFee(e.StudentID, e.ID, uuid.NullUUID{}, decimal.NewFromInt(100), day(2025, 3, 1))
		boom := errors.New("boom")

		err := tx.WithinTx(ctx, func(ctx context.Context) error {
			require.NoError(t, repo.Create(ctx, fee))
			return boom
		})

		assert.ErrorIs(t, err, boom)
		_, err = repo.GetByID(ctx, fee.ID)
		assert.ErrorIs(t, err, customError.ErrFeeNotFound)
	})

	t.Run("nested calls share one transaction", func(t *testing.T) {
		fee := domain.NewStudentFee(e.StudentID, e.ID, uuid.NullUUID{}, decimal.NewFromInt(100), day(2025, 3, 1))

		err := tx.WithinTx(ctx, func(ctx context.Context) error {
			if err := tx.WithinTx(ctx, func(ctx context.Context) error {
				return repo.Create(ctx, fee)
			}); err != nil {
				return err
			}
			return errors.New("outer failed")
		})

		assert.Error(t, err)
		_, err = repo.GetByID(ctx, fee.ID)
		assert.ErrorIs(t, err, customError.ErrFeeNotFound)
	})

	t.Run("commits on success", func(t *testing.T) {
		fee := domain.NewStudentFee(e.StudentID, e.ID, uuid.NullUUID{}, decimal.NewFromInt(100), day(2025, 3, 1))

		require.NoError(t, tx.WithinTx(ctx, func(ctx context.Context) error {
			return repo.Create(ctx, fee)
		}))

		got, err := repo.GetByID(ctx, fee.ID)
		require.NoError(t, err)
		assert.Equal(t, fee.ID, got.ID)
	})
}
