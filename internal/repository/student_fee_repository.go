package repository

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/segyhp/student-fees/internal/domain"
	customError "github.com/segyhp/student-fees/pkg/errors"
)

const studentFeeColumns = `sf.id, sf.student_id, sf.enrollment_id, sf.fee_structure_id, sf.installment_number, sf.description,
	sf.original_amount, sf.late_fee_amount, sf.discount_amount, sf.waiver_amount, sf.total_amount, sf.paid_amount,
	sf.due_date, sf.status, sf.last_late_fee_applied_on, sf.created_at, sf.updated_at`

type studentFeeRepository struct {
	db *sqlx.DB
}

func NewStudentFeeRepository(db *sqlx.DB) StudentFeeRepository {
	return &studentFeeRepository{db: db}
}

func (r *studentFeeRepository) Create(ctx context.Context, fee *domain.StudentFee) error {
	query := `
		INSERT INTO student_fees (id, student_id, enrollment_id, fee_structure_id, installment_number, description,
			original_amount, late_fee_amount, discount_amount, waiver_amount, total_amount, paid_amount,
			due_date, status, last_late_fee_applied_on, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
	`

	now := time.Now()
	if fee.CreatedAt.IsZero() {
		fee.CreatedAt = now
	}
	fee.UpdatedAt = now

	_, err := conn(ctx, r.db).ExecContext(ctx, query,
		fee.ID,
		fee.StudentID,
		fee.EnrollmentID,
		fee.FeeStructureID,
		fee.InstallmentNumber,
		fee.Description,
		fee.OriginalAmount,
		fee.LateFeeAmount,
		fee.DiscountAmount,
		fee.WaiverAmount,
		fee.TotalAmount,
		fee.PaidAmount,
		fee.DueDate,
		fee.Status,
		fee.LastLateFeeAppliedOn,
		fee.CreatedAt,
		fee.UpdatedAt,
	)

	return err
}

func (r *studentFeeRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.StudentFee, error) {
	return r.get(ctx, id, "")
}

func (r *studentFeeRepository) GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.StudentFee, error) {
	return r.get(ctx, id, " FOR UPDATE")
}

func (r *studentFeeRepository) get(ctx context.Context, id uuid.UUID, lock string) (*domain.StudentFee, error) {
	query := `SELECT ` + studentFeeColumns + ` FROM student_fees sf WHERE sf.id = $1` + lock

	var fee domain.StudentFee
	err := conn(ctx, r.db).GetContext(ctx, &fee, query, id)
	if isNoRows(err) {
		return nil, customError.WrapFeeNotFound(id)
	}
	if err != nil {
		return nil, err
	}

	return &fee, nil
}

func (r *studentFeeRepository) Update(ctx context.Context, fee *domain.StudentFee) error {
	query := `
		UPDATE student_fees
		SET late_fee_amount = $2, discount_amount = $3, waiver_amount = $4, total_amount = $5,
			paid_amount = $6, status = $7, last_late_fee_applied_on = $8, updated_at = $9
		WHERE id = $1
	`

	fee.UpdatedAt = time.Now()
	res, err := conn(ctx, r.db).ExecContext(ctx, query,
		fee.ID,
		fee.LateFeeAmount,
		fee.DiscountAmount,
		fee.WaiverAmount,
		fee.TotalAmount,
		fee.PaidAmount,
		fee.Status,
		fee.LastLateFeeAppliedOn,
		fee.UpdatedAt,
	)
	if err != nil {
		return err
	}

	return requireAffected(res, customError.WrapFeeNotFound(fee.ID))
}

func (r *studentFeeRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := conn(ctx, r.db).ExecContext(ctx, `DELETE FROM student_fees WHERE id = $1`, id)
	if err != nil {
		return err
	}

	return requireAffected(res, customError.WrapFeeNotFound(id))
}

func (r *studentFeeRepository) ExistsForEnrollment(ctx context.Context, enrollmentID uuid.UUID) (bool, error) {
	var exists bool
	err := conn(ctx, r.db).GetContext(ctx, &exists, `SELECT EXISTS (SELECT 1 FROM student_fees WHERE enrollment_id = $1)`, enrollmentID)
	return exists, err
}

func (r *studentFeeRepository) List(ctx context.Context, filter domain.StudentFeeFilter) ([]*domain.StudentFee, error) {
	var (
		where []string
		args  []interface{}
	)
	add := func(clause string, arg interface{}) {
		args = append(args, arg)
		where = append(where, clause+" $"+strconv.Itoa(len(args)))
	}

	if filter.Status != "" {
		add("sf.status =", filter.Status)
	}
	if filter.StudentID != nil {
		add("sf.student_id =", *filter.StudentID)
	}
	if filter.EnrollmentID != nil {
		add("sf.enrollment_id =", *filter.EnrollmentID)
	}
	if filter.CourseID != nil {
		add("e.course_id =", *filter.CourseID)
	}
	if filter.Batch != "" {
		add("e.batch =", filter.Batch)
	}

	query := `SELECT ` + studentFeeColumns + ` FROM student_fees sf JOIN enrollments e ON e.id = sf.enrollment_id`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY sf.due_date DESC, sf.installment_number`

	return r.selectFees(ctx, query, args...)
}

func (r *studentFeeRepository) ListOverdue(ctx context.Context, today time.Time) ([]*domain.StudentFee, error) {
	query := `
		SELECT ` + studentFeeColumns + `
		FROM student_fees sf
		WHERE sf.due_date < $1 AND sf.status <> 'paid'
		ORDER BY sf.due_date
	`

	return r.selectFees(ctx, query, today)
}

func (r *studentFeeRepository) ListSweepCandidateIDs(ctx context.Context, today time.Time) ([]uuid.UUID, error) {
	query := `
		SELECT id
		FROM student_fees
		WHERE due_date < $1 AND status IN ('pending', 'partial', 'overdue')
		ORDER BY due_date, id
	`

	ids := []uuid.UUID{}
	if err := conn(ctx, r.db).SelectContext(ctx, &ids, query, today); err != nil {
		return nil, err
	}

	return ids, nil
}

func (r *studentFeeRepository) ListDueOn(ctx context.Context, date time.Time) ([]*domain.StudentFee, error) {
	query := `
		SELECT ` + studentFeeColumns + `
		FROM student_fees sf
		WHERE sf.due_date = $1 AND sf.status IN ('pending', 'partial')
		ORDER BY sf.id
	`

	return r.selectFees(ctx, query, date)
}

func (r *studentFeeRepository) Stats(ctx context.Context, today time.Time) (*domain.FeeStats, error) {
	query := `
		SELECT
			COALESCE(SUM(total_amount - discount_amount - waiver_amount), 0) AS total_fees,
			COALESCE(SUM(paid_amount), 0) AS collected_fees,
			COALESCE(SUM(total_amount - discount_amount - waiver_amount - paid_amount) FILTER (WHERE status <> 'paid'), 0) AS pending_fees,
			COALESCE(SUM(total_amount - discount_amount - waiver_amount - paid_amount) FILTER (WHERE status <> 'paid' AND due_date < $1), 0) AS overdue_fees,
			COALESCE(SUM(late_fee_amount), 0) AS late_fees_charged,
			COUNT(DISTINCT student_id) AS total_students,
			COUNT(DISTINCT student_id) FILTER (WHERE status = 'paid') AS paid_students,
			COUNT(DISTINCT student_id) FILTER (WHERE status IN ('pending', 'partial')) AS pending_students,
			COUNT(DISTINCT student_id) FILTER (WHERE status <> 'paid' AND due_date < $1) AS overdue_students
		FROM student_fees
	`

	var stats domain.FeeStats
	if err := conn(ctx, r.db).GetContext(ctx, &stats, query, today); err != nil {
		return nil, err
	}

	return &stats, nil
}

func (r *studentFeeRepository) CourseReports(ctx context.Context) ([]*domain.CourseFeeReport, error) {
	query := `
		SELECT
			c.id AS course_id,
			c.name AS course_name,
			c.code AS course_code,
			COUNT(DISTINCT sf.student_id) AS total_students,
			COALESCE(SUM(sf.total_amount - sf.discount_amount - sf.waiver_amount), 0) AS total_fees,
			COALESCE(SUM(sf.paid_amount), 0) AS collected_fees
		FROM courses c
		JOIN enrollments e ON e.course_id = c.id
		JOIN student_fees sf ON sf.enrollment_id = e.id
		GROUP BY c.id, c.name, c.code
		ORDER BY c.name
	`

	reports := []*domain.CourseFeeReport{}
	if err := conn(ctx, r.db).SelectContext(ctx, &reports, query); err != nil {
		return nil, err
	}

	return reports, nil
}

func (r *studentFeeRepository) selectFees(ctx context.Context, query string, args ...interface{}) ([]*domain.StudentFee, error) {
	fees := []*domain.StudentFee{}
	if err := conn(ctx, r.db).SelectContext(ctx, &fees, query, args...); err != nil {
		return nil, err
	}

	return fees, nil
}
