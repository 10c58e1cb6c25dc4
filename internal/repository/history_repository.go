package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/segyhp/student-fees/internal/domain"
)

type adjustmentRepository struct {
	db *sqlx.DB
}

func NewAdjustmentRepository(db *sqlx.DB) AdjustmentRepository {
	return &adjustmentRepository{db: db}
}

func (r *adjustmentRepository) Create(ctx context.Context, adj *domain.FeeAdjustment) error {
	query := `
		INSERT INTO fee_adjustments (id, fee_id, kind, amount, reason, applied_on, created_at)
		VALUES (:id, :fee_id, :kind, :amount, :reason, :applied_on, :created_at)
	`

	if adj.CreatedAt.IsZero() {
		adj.CreatedAt = time.Now()
	}

	_, err := conn(ctx, r.db).NamedExecContext(ctx, query, adj)
	return err
}

func (r *adjustmentRepository) ListByFee(ctx context.Context, feeID uuid.UUID) ([]*domain.FeeAdjustment, error) {
	query := `
		SELECT id, fee_id, kind, amount, reason, applied_on, created_at
		FROM fee_adjustments
		WHERE fee_id = $1
		ORDER BY applied_on, created_at
	`

	adjustments := []*domain.FeeAdjustment{}
	if err := conn(ctx, r.db).SelectContext(ctx, &adjustments, query, feeID); err != nil {
		return nil, err
	}

	return adjustments, nil
}

type reminderRepository struct {
	db *sqlx.DB
}

func NewReminderRepository(db *sqlx.DB) ReminderRepository {
	return &reminderRepository{db: db}
}

func (r *reminderRepository) Create(ctx context.Context, reminder *domain.FeeReminder) error {
	query := `
		INSERT INTO fee_reminders (id, fee_id, channel, kind, message, sent_at, is_successful, created_by)
		VALUES (:id, :fee_id, :channel, :kind, :message, :sent_at, :is_successful, :created_by)
	`

	if reminder.SentAt.IsZero() {
		reminder.SentAt = time.Now()
	}

	_, err := conn(ctx, r.db).NamedExecContext(ctx, query, reminder)
	return err
}

func (r *reminderRepository) ListByFee(ctx context.Context, feeID uuid.UUID) ([]*domain.FeeReminder, error) {
	query := `
		SELECT id, fee_id, channel, kind, message, sent_at, is_successful, created_by
		FROM fee_reminders
		WHERE fee_id = $1
		ORDER BY sent_at DESC
	`

	reminders := []*domain.FeeReminder{}
	if err := conn(ctx, r.db).SelectContext(ctx, &reminders, query, feeID); err != nil {
		return nil, err
	}

	return reminders, nil
}

func (r *reminderRepository) SentSince(ctx context.Context, feeID uuid.UUID, kind string, since time.Time) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM fee_reminders
			WHERE fee_id = $1 AND kind = $2 AND is_successful AND sent_at >= $3
		)
	`

	var sent bool
	err := conn(ctx, r.db).GetContext(ctx, &sent, query, feeID, kind, since)
	return sent, err
}
