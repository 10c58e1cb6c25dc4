package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/segyhp/student-fees/internal/domain"
	customError "github.com/segyhp/student-fees/pkg/errors"
)

const paymentColumns = `id, fee_id, amount, payment_method, transaction_id, payment_date, notes, created_by, created_at`

type paymentRepository struct {
	db *sqlx.DB
}

func NewPaymentRepository(db *sqlx.DB) PaymentRepository {
	return &paymentRepository{db: db}
}

func (r *paymentRepository) Create(ctx context.Context, payment *domain.Payment) error {
	query := `
		INSERT INTO payments (` + paymentColumns + `)
		VALUES (:id, :fee_id, :amount, :payment_method, :transaction_id, :payment_date, :notes, :created_by, :created_at)
	`

	if payment.CreatedAt.IsZero() {
		payment.CreatedAt = time.Now()
	}

	_, err := conn(ctx, r.db).NamedExecContext(ctx, query, payment)
	return err
}

func (r *paymentRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE id = $1`

	var payment domain.Payment
	err := conn(ctx, r.db).GetContext(ctx, &payment, query, id)
	if isNoRows(err) {
		return nil, customError.WrapPaymentNotFound(id)
	}
	if err != nil {
		return nil, err
	}

	return &payment, nil
}

func (r *paymentRepository) ListByFee(ctx context.Context, feeID uuid.UUID) ([]*domain.Payment, error) {
	query := `
		SELECT ` + paymentColumns + `
		FROM payments
		WHERE fee_id = $1
		ORDER BY payment_date, created_at
	`

	payments := []*domain.Payment{}
	if err := conn(ctx, r.db).SelectContext(ctx, &payments, query, feeID); err != nil {
		return nil, err
	}

	return payments, nil
}

func (r *paymentRepository) UpdateAmount(ctx context.Context, id uuid.UUID, amount decimal.Decimal) error {
	res, err := conn(ctx, r.db).ExecContext(ctx, `UPDATE payments SET amount = $2 WHERE id = $1`, id, amount)
	if err != nil {
		return err
	}

	return requireAffected(res, customError.WrapPaymentNotFound(id))
}

func (r *paymentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := conn(ctx, r.db).ExecContext(ctx, `DELETE FROM payments WHERE id = $1`, id)
	if err != nil {
		return err
	}

	return requireAffected(res, customError.WrapPaymentNotFound(id))
}

func (r *paymentRepository) SumByFee(ctx context.Context, feeID uuid.UUID) (decimal.Decimal, error) {
	var total decimal.Decimal
	err := conn(ctx, r.db).GetContext(ctx, &total, `SELECT COALESCE(SUM(amount), 0) FROM payments WHERE fee_id = $1`, feeID)
	return total, err
}
