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

const feeStructureColumns = `id, course_id, duration_months, base_fee, registration_fee, discount_percentage, is_active, created_at, updated_at`

type feeStructureRepository struct {
	db *sqlx.DB
}

func NewFeeStructureRepository(db *sqlx.DB) FeeStructureRepository {
	return &feeStructureRepository{db: db}
}

func (r *feeStructureRepository) Create(ctx context.Context, s *domain.FeeStructure) error {
	query := `
		INSERT INTO fee_structures (` + feeStructureColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := conn(ctx, r.db).ExecContext(ctx, query,
		s.ID,
		s.CourseID,
		s.DurationMonths,
		s.BaseFee,
		s.RegistrationFee,
		s.DiscountPercentage,
		s.IsActive,
		s.CreatedAt,
		s.UpdatedAt,
	)
	if isUniqueViolation(err) {
		return customError.WrapStructureExists(s.CourseID, s.DurationMonths)
	}

	return err
}

func (r *feeStructureRepository) GetOrCreate(ctx context.Context, s *domain.FeeStructure) (*domain.FeeStructure, bool, error) {
	insert := `
		INSERT INTO fee_structures (` + feeStructureColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (course_id, duration_months) DO NOTHING
	`

	db := conn(ctx, r.db)
	res, err := db.ExecContext(ctx, insert,
		s.ID,
		s.CourseID,
		s.DurationMonths,
		s.BaseFee,
		s.RegistrationFee,
		s.DiscountPercentage,
		s.IsActive,
		s.CreatedAt,
		s.UpdatedAt,
	)
	if err != nil {
		return nil, false, err
	}

	if n, err := res.RowsAffected(); err == nil && n == 1 {
		return s, true, nil
	}

	query := `
		SELECT ` + feeStructureColumns + `
		FROM fee_structures
		WHERE course_id = $1 AND duration_months = $2
	`

	var existing domain.FeeStructure
	if err := db.GetContext(ctx, &existing, query, s.CourseID, s.DurationMonths); err != nil {
		return nil, false, err
	}

	return &existing, false, nil
}

func (r *feeStructureRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.FeeStructure, error) {
	query := `
		SELECT ` + feeStructureColumns + `
		FROM fee_structures
		WHERE id = $1
	`

	var s domain.FeeStructure
	err := conn(ctx, r.db).GetContext(ctx, &s, query, id)
	if isNoRows(err) {
		return nil, customError.WrapStructureNotFound(id)
	}
	if err != nil {
		return nil, err
	}

	return &s, nil
}

func (r *feeStructureRepository) List(ctx context.Context, filter domain.FeeStructureFilter) ([]*domain.FeeStructure, error) {
	var (
		where []string
		args  []interface{}
	)
	if filter.CourseID != nil {
		args = append(args, *filter.CourseID)
		where = append(where, "course_id = $"+strconv.Itoa(len(args)))
	}
	if filter.DurationMonths != nil {
		args = append(args, *filter.DurationMonths)
		where = append(where, "duration_months = $"+strconv.Itoa(len(args)))
	}
	if filter.ActiveOnly {
		where = append(where, "is_active")
	}

	query := `SELECT ` + feeStructureColumns + ` FROM fee_structures`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY course_id, duration_months`

	structures := []*domain.FeeStructure{}
	if err := conn(ctx, r.db).SelectContext(ctx, &structures, query, args...); err != nil {
		return nil, err
	}

	return structures, nil
}

func (r *feeStructureRepository) Update(ctx context.Context, s *domain.FeeStructure) error {
	query := `
		UPDATE fee_structures
		SET course_id = $2, duration_months = $3, base_fee = $4, registration_fee = $5,
			discount_percentage = $6, is_active = $7, updated_at = $8
		WHERE id = $1
	`

	s.UpdatedAt = time.Now()
	res, err := conn(ctx, r.db).ExecContext(ctx, query,
		s.ID,
		s.CourseID,
		s.DurationMonths,
		s.BaseFee,
		s.RegistrationFee,
		s.DiscountPercentage,
		s.IsActive,
		s.UpdatedAt,
	)
	if isUniqueViolation(err) {
		return customError.WrapStructureExists(s.CourseID, s.DurationMonths)
	}
	if err != nil {
		return err
	}

	return requireAffected(res, customError.WrapStructureNotFound(s.ID))
}

func (r *feeStructureRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := conn(ctx, r.db).ExecContext(ctx, `DELETE FROM fee_structures WHERE id = $1`, id)
	if err != nil {
		return err
	}

	return requireAffected(res, customError.WrapStructureNotFound(id))
}
