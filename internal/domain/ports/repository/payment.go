package repository

import (
	"context"
	"time"

	"ebook-subscription/internal/domain/model"
)

type PaymentRepository interface {
	Save(ctx context.Context, tx Tx, p *model.PaymentIntent) error
	FindByOrderID(ctx context.Context, tx Tx, orderID string) (*model.PaymentIntent, error)
	ListByUser(ctx context.Context, tx Tx, userID string) ([]*model.PaymentIntent, error)
	// AttachGatewayResult stores the token and redirect URL returned by the
	// gateway's transaction-create call.
	AttachGatewayResult(ctx context.Context, tx Tx, orderID, snapToken, paymentURL string) error
	// UpdateStatus records a non-success reconciliation outcome.
	UpdateStatus(ctx context.Context, tx Tx, orderID string, status model.PaymentStatus, paymentMethod string) error
	// MarkPaid records a success transition with its derived timestamps.
	MarkPaid(ctx context.Context, tx Tx, orderID, paymentMethod string, paidAt, expiresAt time.Time) error
	// ListOrphanedBefore returns pending intents created before the cutoff
	// that never received a gateway token; the sweeper fails them.
	ListOrphanedBefore(ctx context.Context, tx Tx, cutoff time.Time, limit int) ([]*model.PaymentIntent, error)
	// SumByPeriod totals successful payments since the start of the given
	// period ("week" | "month" | "year").
	SumByPeriod(ctx context.Context, tx Tx, period string) (int64, error)
	// InvalidateOrder drops any cached copy of the order's row. A no-op on
	// uncached implementations. The reconciler calls it after its transaction
	// commits: a poll racing the transaction can re-cache the pre-commit row
	// between the write-path delete and the commit, and without this call that
	// stale row would be served until the TTL expires.
	InvalidateOrder(ctx context.Context, orderID string) error
}
