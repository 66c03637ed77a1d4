package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"ebook-subscription/internal/domain"
	"ebook-subscription/internal/domain/model"
	"ebook-subscription/internal/domain/ports/repository"
)

var _ repository.PaymentRepository = (*paymentRepo)(nil)

const paymentColumns = `id, order_id, user_id, amount, duration_months, status, snap_token, payment_url, payment_method, paid_at, expires_at, created_at, updated_at`

type paymentRepo struct{ pool *pgxpool.Pool }

func NewPaymentRepo(pool *pgxpool.Pool) *paymentRepo {
	return &paymentRepo{pool: pool}
}

func (r *paymentRepo) Save(ctx context.Context, tx repository.Tx, p *model.PaymentIntent) error {
	const q = `
INSERT INTO payments (
  id, order_id, user_id, amount, duration_months, status, snap_token, payment_url, payment_method, paid_at, expires_at, created_at, updated_at
) VALUES (
  $1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13
) ON CONFLICT (id) DO UPDATE SET
  status=$6, snap_token=$7, payment_url=$8, payment_method=$9, paid_at=$10, expires_at=$11, updated_at=$13;`

	ex, err := getExecutor(r.pool, tx)
	if err != nil {
		return err
	}
	if _, err := ex.Exec(ctx, q,
		p.ID, p.OrderID, p.UserID, p.Amount, p.DurationMonths, p.Status,
		nullStr(p.SnapToken), nullStr(p.PaymentURL), nullStr(p.PaymentMethod),
		p.PaidAt, p.ExpiresAt, p.CreatedAt, p.UpdatedAt,
	); err != nil {
		return domain.ErrOperationFailed
	}
	return nil
}

func (r *paymentRepo) FindByOrderID(ctx context.Context, tx repository.Tx, orderID string) (*model.PaymentIntent, error) {
	q := `SELECT ` + paymentColumns + ` FROM payments WHERE order_id=$1`
	if inTx(tx) {
		q += " FOR UPDATE"
	}
	q += ";"

	ex, err := getExecutor(r.pool, tx)
	if err != nil {
		return nil, err
	}
	return scanPayment(ex.QueryRow(ctx, q, orderID))
}

func (r *paymentRepo) ListByUser(ctx context.Context, tx repository.Tx, userID string) ([]*model.PaymentIntent, error) {
	const q = `SELECT ` + paymentColumns + ` FROM payments WHERE user_id=$1 ORDER BY created_at DESC;`
	ex, err := getExecutor(r.pool, tx)
	if err != nil {
		return nil, err
	}
	rows, err := ex.Query(ctx, q, userID)
	if err != nil {
		return nil, domain.ErrOperationFailed
	}
	defer rows.Close()
	return collectPayments(rows)
}

func (r *paymentRepo) AttachGatewayResult(ctx context.Context, tx repository.Tx, orderID, snapToken, paymentURL string) error {
	const q = `UPDATE payments SET snap_token=$2, payment_url=$3, updated_at=NOW() WHERE order_id=$1;`
	ex, err := getExecutor(r.pool, tx)
	if err != nil {
		return err
	}
	tag, err := ex.Exec(ctx, q, orderID, snapToken, paymentURL)
	if err != nil {
		return domain.ErrOperationFailed
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *paymentRepo) UpdateStatus(ctx context.Context, tx repository.Tx, orderID string, status model.PaymentStatus, paymentMethod string) error {
	const q = `UPDATE payments SET status=$2, payment_method=COALESCE(NULLIF($3,''), payment_method), updated_at=NOW() WHERE order_id=$1;`
	ex, err := getExecutor(r.pool, tx)
	if err != nil {
		return err
	}
	tag, err := ex.Exec(ctx, q, orderID, status, paymentMethod)
	if err != nil {
		return domain.ErrOperationFailed
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *paymentRepo) MarkPaid(ctx context.Context, tx repository.Tx, orderID, paymentMethod string, paidAt, expiresAt time.Time) error {
	const q = `UPDATE payments SET status='success', payment_method=$2, paid_at=$3, expires_at=$4, updated_at=NOW() WHERE order_id=$1;`
	ex, err := getExecutor(r.pool, tx)
	if err != nil {
		return err
	}
	tag, err := ex.Exec(ctx, q, orderID, paymentMethod, paidAt, expiresAt)
	if err != nil {
		return domain.ErrOperationFailed
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *paymentRepo) ListOrphanedBefore(ctx context.Context, tx repository.Tx, cutoff time.Time, limit int) ([]*model.PaymentIntent, error) {
	if limit <= 0 {
		limit = 100
	}
	const q = `SELECT ` + paymentColumns + ` FROM payments WHERE status='pending' AND snap_token IS NULL AND created_at < $1 ORDER BY created_at ASC LIMIT $2;`
	ex, err := getExecutor(r.pool, tx)
	if err != nil {
		return nil, err
	}
	rows, err := ex.Query(ctx, q, cutoff, limit)
	if err != nil {
		return nil, domain.ErrOperationFailed
	}
	defer rows.Close()
	return collectPayments(rows)
}

func (r *paymentRepo) SumByPeriod(ctx context.Context, tx repository.Tx, period string) (int64, error) {
	const q = `SELECT COALESCE(SUM(amount),0) FROM payments WHERE status='success' AND paid_at >= DATE_TRUNC($1, NOW());`
	ex, err := getExecutor(r.pool, tx)
	if err != nil {
		return 0, err
	}
	var sum int64
	if err := ex.QueryRow(ctx, q, period).Scan(&sum); err != nil {
		return 0, domain.ErrReadDatabaseRow
	}
	return sum, nil
}

// InvalidateOrder is a no-op; the SQL repo holds no cache.
func (r *paymentRepo) InvalidateOrder(ctx context.Context, orderID string) error {
	return nil
}

func scanPayment(row pgx.Row) (*model.PaymentIntent, error) {
	p := &model.PaymentIntent{}
	var snapToken, paymentURL, paymentMethod *string
	err := row.Scan(&p.ID, &p.OrderID, &p.UserID, &p.Amount, &p.DurationMonths, &p.Status,
		&snapToken, &paymentURL, &paymentMethod, &p.PaidAt, &p.ExpiresAt, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	p.SnapToken = deref(snapToken)
	p.PaymentURL = deref(paymentURL)
	p.PaymentMethod = deref(paymentMethod)
	return p, nil
}

func collectPayments(rows pgx.Rows) ([]*model.PaymentIntent, error) {
	var out []*model.PaymentIntent
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	if rows.Err() != nil {
		return nil, domain.ErrReadDatabaseRow
	}
	return out, nil
}

func nullStr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
