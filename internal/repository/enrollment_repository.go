package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/segyhp/student-fees/internal/domain"
	customError "github.com/segyhp/student-fees/pkg/errors"
)

type enrollmentRepository struct {
	db *sqlx.DB
}

func NewEnrollmentRepository(db *sqlx.DB) EnrollmentRepository {
	return &enrollmentRepository{db: db}
}

func (r *enrollmentRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Enrollment, error) {
	query := `
		SELECT
			e.id, e.student_id, s.student_code, s.full_name AS student_name, s.email AS student_email, s.parent_email,
			e.course_id, c.code AS course_code, c.name AS course_name, c.fee AS course_fee,
			e.batch, e.start_date, e.end_date, e.duration_months
		FROM enrollments e
		JOIN students s ON s.id = e.student_id
		JOIN courses c ON c.id = e.course_id
		WHERE e.id = $1
	`

	var enrollment domain.Enrollment
	err := conn(ctx, r.db).GetContext(ctx, &enrollment, query, id)
	if isNoRows(err) {
		return nil, customError.WrapEnrollmentNotFound(id)
	}
	if err != nil {
		return nil, err
	}

	return &enrollment, nil
}
