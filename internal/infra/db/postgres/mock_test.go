//go:build !integration

package postgres

import (
	"context"
	"time"

	"ebook-subscription/internal/domain/model"
	"ebook-subscription/internal/domain/ports/repository"
	red "ebook-subscription/internal/infra/redis"

	"github.com/jackc/pgx/v4"
)

// fakeTx satisfies pgx.Tx for code paths that only type-assert on it.
// Calling any of its methods panics.
type fakeTx struct{ pgx.Tx }

// --- Mocks for Cache Decorator Tests ---

// mockInnerPaymentRepo mocks the database repository that the decorator wraps.
type mockInnerPaymentRepo struct {
	SaveFunc                func(ctx context.Context, tx repository.Tx, p *model.PaymentIntent) error
	FindByOrderIDFunc       func(ctx context.Context, tx repository.Tx, orderID string) (*model.PaymentIntent, error)
	ListByUserFunc          func(ctx context.Context, tx repository.Tx, userID string) ([]*model.PaymentIntent, error)
	AttachGatewayResultFunc func(ctx context.Context, tx repository.Tx, orderID, snapToken, paymentURL string) error
	UpdateStatusFunc        func(ctx context.Context, tx repository.Tx, orderID string, status model.PaymentStatus, paymentMethod string) error
	MarkPaidFunc            func(ctx context.Context, tx repository.Tx, orderID, paymentMethod string, paidAt, expiresAt time.Time) error
	ListOrphanedBeforeFunc  func(ctx context.Context, tx repository.Tx, cutoff time.Time, limit int) ([]*model.PaymentIntent, error)
	SumByPeriodFunc         func(ctx context.Context, tx repository.Tx, period string) (int64, error)
	InvalidateOrderFunc     func(ctx context.Context, orderID string) error
}

var _ repository.PaymentRepository = (*mockInnerPaymentRepo)(nil)

func (m *mockInnerPaymentRepo) Save(ctx context.Context, tx repository.Tx, p *model.PaymentIntent) error {
	return m.SaveFunc(ctx, tx, p)
}
func (m *mockInnerPaymentRepo) FindByOrderID(ctx context.Context, tx repository.Tx, orderID string) (*model.PaymentIntent, error) {
	return m.FindByOrderIDFunc(ctx, tx, orderID)
}
func (m *mockInnerPaymentRepo) ListByUser(ctx context.Context, tx repository.Tx, userID string) ([]*model.PaymentIntent, error) {
	return m.ListByUserFunc(ctx, tx, userID)
}
func (m *mockInnerPaymentRepo) AttachGatewayResult(ctx context.Context, tx repository.Tx, orderID, snapToken, paymentURL string) error {
	return m.AttachGatewayResultFunc(ctx, tx, orderID, snapToken, paymentURL)
}
func (m *mockInnerPaymentRepo) UpdateStatus(ctx context.Context, tx repository.Tx, orderID string, status model.PaymentStatus, paymentMethod string) error {
	return m.UpdateStatusFunc(ctx, tx, orderID, status, paymentMethod)
}
func (m *mockInnerPaymentRepo) MarkPaid(ctx context.Context, tx repository.Tx, orderID, paymentMethod string, paidAt, expiresAt time.Time) error {
	return m.MarkPaidFunc(ctx, tx, orderID, paymentMethod, paidAt, expiresAt)
}
func (m *mockInnerPaymentRepo) ListOrphanedBefore(ctx context.Context, tx repository.Tx, cutoff time.Time, limit int) ([]*model.PaymentIntent, error) {
	return m.ListOrphanedBeforeFunc(ctx, tx, cutoff, limit)
}
func (m *mockInnerPaymentRepo) SumByPeriod(ctx context.Context, tx repository.Tx, period string) (int64, error) {
	return m.SumByPeriodFunc(ctx, tx, period)
}
func (m *mockInnerPaymentRepo) InvalidateOrder(ctx context.Context, orderID string) error {
	if m.InvalidateOrderFunc == nil {
		return nil
	}
	return m.InvalidateOrderFunc(ctx, orderID)
}

// mockRedisClient mocks our Redis client wrapper.
type mockRedisClient struct {
	GetFunc  func(ctx context.Context, key string) (string, error)
	SetFunc  func(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	DelFunc  func(ctx context.Context, keys ...string) error
	PingFunc func(ctx context.Context) error
}

var _ red.RedisClient = (*mockRedisClient)(nil)

func (m *mockRedisClient) Get(ctx context.Context, key string) (string, error) {
	return m.GetFunc(ctx, key)
}
func (m *mockRedisClient) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	return m.SetFunc(ctx, key, value, expiration)
}
func (m *mockRedisClient) Del(ctx context.Context, keys ...string) error {
	return m.DelFunc(ctx, keys...)
}
func (m *mockRedisClient) Ping(ctx context.Context) error { return m.PingFunc(ctx) }
func (m *mockRedisClient) Incr(ctx context.Context, key string) (int64, error) {
	return 0, nil
}
func (m *mockRedisClient) Expire(ctx context.Context, key string, expiration time.Duration) error {
	return nil
}
func (m *mockRedisClient) FlushDB(ctx context.Context) error { return nil }
func (m *mockRedisClient) Close() error                      { return nil }
