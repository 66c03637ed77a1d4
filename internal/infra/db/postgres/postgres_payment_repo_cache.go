package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"ebook-subscription/internal/domain/model"
	"ebook-subscription/internal/domain/ports/repository"
	"ebook-subscription/internal/infra/metrics"
	red "ebook-subscription/internal/infra/redis"
)

var _ repository.PaymentRepository = (*paymentRepoCacheDecorator)(nil)

// paymentRepoCacheDecorator caches FindByOrderID reads, which the status
// polling endpoint hits repeatedly while the client waits for the webhook.
// Every write path invalidates the order's key; transactional reads bypass
// the cache entirely so reconciliation always sees the locked row.
type paymentRepoCacheDecorator struct {
	inner repository.PaymentRepository
	cache red.RedisClient
	ttl   time.Duration
}

func NewPaymentRepoCacheDecorator(inner repository.PaymentRepository, cache red.RedisClient, ttl time.Duration) repository.PaymentRepository {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &paymentRepoCacheDecorator{inner: inner, cache: cache, ttl: ttl}
}

func paymentKey(orderID string) string { return fmt.Sprintf("payment:order:%s", orderID) }

func (d *paymentRepoCacheDecorator) Save(ctx context.Context, tx repository.Tx, p *model.PaymentIntent) error {
	_ = d.cache.Del(ctx, paymentKey(p.OrderID))
	return d.inner.Save(ctx, tx, p)
}

func (d *paymentRepoCacheDecorator) FindByOrderID(ctx context.Context, tx repository.Tx, orderID string) (*model.PaymentIntent, error) {
	if inTx(tx) {
		return d.inner.FindByOrderID(ctx, tx, orderID)
	}

	key := paymentKey(orderID)
	if val, err := d.cache.Get(ctx, key); err == nil {
		var p model.PaymentIntent
		if json.Unmarshal([]byte(val), &p) == nil {
			metrics.IncCacheRequest("payment", "hit")
			return &p, nil
		}
	}
	metrics.IncCacheRequest("payment", "miss")

	p, err := d.inner.FindByOrderID(ctx, tx, orderID)
	if err != nil {
		return nil, err
	}
	if bytes, err := json.Marshal(p); err == nil {
		_ = d.cache.Set(ctx, key, bytes, d.ttl)
	}
	return p, nil
}

func (d *paymentRepoCacheDecorator) ListByUser(ctx context.Context, tx repository.Tx, userID string) ([]*model.PaymentIntent, error) {
	return d.inner.ListByUser(ctx, tx, userID)
}

func (d *paymentRepoCacheDecorator) AttachGatewayResult(ctx context.Context, tx repository.Tx, orderID, snapToken, paymentURL string) error {
	_ = d.cache.Del(ctx, paymentKey(orderID))
	return d.inner.AttachGatewayResult(ctx, tx, orderID, snapToken, paymentURL)
}

func (d *paymentRepoCacheDecorator) UpdateStatus(ctx context.Context, tx repository.Tx, orderID string, status model.PaymentStatus, paymentMethod string) error {
	_ = d.cache.Del(ctx, paymentKey(orderID))
	return d.inner.UpdateStatus(ctx, tx, orderID, status, paymentMethod)
}

func (d *paymentRepoCacheDecorator) MarkPaid(ctx context.Context, tx repository.Tx, orderID, paymentMethod string, paidAt, expiresAt time.Time) error {
	_ = d.cache.Del(ctx, paymentKey(orderID))
	return d.inner.MarkPaid(ctx, tx, orderID, paymentMethod, paidAt, expiresAt)
}

func (d *paymentRepoCacheDecorator) ListOrphanedBefore(ctx context.Context, tx repository.Tx, cutoff time.Time, limit int) ([]*model.PaymentIntent, error) {
	return d.inner.ListOrphanedBefore(ctx, tx, cutoff, limit)
}

func (d *paymentRepoCacheDecorator) SumByPeriod(ctx context.Context, tx repository.Tx, period string) (int64, error) {
	return d.inner.SumByPeriod(ctx, tx, period)
}

// InvalidateOrder drops the order's cached row. The write-path deletes above
// run before the inner write, which inside a transaction means before the
// commit; a poll landing in that gap re-caches the old row, so transactional
// callers invalidate again once the commit is through.
func (d *paymentRepoCacheDecorator) InvalidateOrder(ctx context.Context, orderID string) error {
	if err := d.cache.Del(ctx, paymentKey(orderID)); err != nil {
		return err
	}
	return d.inner.InvalidateOrder(ctx, orderID)
}
