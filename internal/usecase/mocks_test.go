//go:build !integration

package usecase_test

import (
	"context"
	"encoding/json"
	"io"
	"sync"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"ebook-subscription/internal/domain"
	"ebook-subscription/internal/domain/model"
	"ebook-subscription/internal/domain/ports/adapter"
	"ebook-subscription/internal/domain/ports/repository"
)

func newTestLogger() *zerolog.Logger {
	l := zerolog.New(io.Discard)
	return &l
}

// memPaymentRepo is a small in-memory implementation used by unit tests.
type memPaymentRepo struct {
	mu          sync.RWMutex
	store       map[string]*model.PaymentIntent // by orderID
	invalidated []string                        // orders whose cached copy was dropped

	SaveFunc    error // simulate save failures
	MarkPaidErr error
}

func newMemPaymentRepo() *memPaymentRepo {
	return &memPaymentRepo{store: make(map[string]*model.PaymentIntent)}
}

func (m *memPaymentRepo) snapshot() map[string]*model.PaymentIntent {
	m.mu.RLock()
	defer m.mu.RUnlock()
	cp := make(map[string]*model.PaymentIntent, len(m.store))
	for k, v := range m.store {
		pv := *v
		cp[k] = &pv
	}
	return cp
}

func (m *memPaymentRepo) restore(s map[string]*model.PaymentIntent) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.store = s
}

func (m *memPaymentRepo) Save(ctx context.Context, tx repository.Tx, p *model.PaymentIntent) error {
	if m.SaveFunc != nil {
		return m.SaveFunc
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *p
	m.store[p.OrderID] = &cp
	return nil
}

func (m *memPaymentRepo) FindByOrderID(ctx context.Context, tx repository.Tx, orderID string) (*model.PaymentIntent, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.store[orderID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *memPaymentRepo) ListByUser(ctx context.Context, tx repository.Tx, userID string) ([]*model.PaymentIntent, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*model.PaymentIntent
	for _, p := range m.store {
		if p.UserID == userID {
			cp := *p
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *memPaymentRepo) AttachGatewayResult(ctx context.Context, tx repository.Tx, orderID, snapToken, paymentURL string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.store[orderID]
	if !ok {
		return domain.ErrNotFound
	}
	p.SnapToken = snapToken
	p.PaymentURL = paymentURL
	p.UpdatedAt = time.Now()
	return nil
}

func (m *memPaymentRepo) UpdateStatus(ctx context.Context, tx repository.Tx, orderID string, status model.PaymentStatus, paymentMethod string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.store[orderID]
	if !ok {
		return domain.ErrNotFound
	}
	p.Status = status
	if paymentMethod != "" {
		p.PaymentMethod = paymentMethod
	}
	p.UpdatedAt = time.Now()
	return nil
}

func (m *memPaymentRepo) MarkPaid(ctx context.Context, tx repository.Tx, orderID, paymentMethod string, paidAt, expiresAt time.Time) error {
	if m.MarkPaidErr != nil {
		return m.MarkPaidErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.store[orderID]
	if !ok {
		return domain.ErrNotFound
	}
	p.Status = model.PaymentStatusSuccess
	p.PaymentMethod = paymentMethod
	p.PaidAt = &paidAt
	p.ExpiresAt = &expiresAt
	p.UpdatedAt = time.Now()
	return nil
}

func (m *memPaymentRepo) ListOrphanedBefore(ctx context.Context, tx repository.Tx, cutoff time.Time, limit int) ([]*model.PaymentIntent, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*model.PaymentIntent
	for _, p := range m.store {
		if p.Status == model.PaymentStatusPending && p.SnapToken == "" && p.CreatedAt.Before(cutoff) {
			cp := *p
			out = append(out, &cp)
			if len(out) == limit {
				break
			}
		}
	}
	return out, nil
}

func (m *memPaymentRepo) SumByPeriod(ctx context.Context, tx repository.Tx, period string) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var sum int64
	for _, p := range m.store {
		if p.Status == model.PaymentStatusSuccess {
			sum += p.Amount
		}
	}
	return sum, nil
}

func (m *memPaymentRepo) InvalidateOrder(ctx context.Context, orderID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.invalidated = append(m.invalidated, orderID)
	return nil
}

// invalidations returns the order ids invalidated so far.
func (m *memPaymentRepo) invalidations() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]string(nil), m.invalidated...)
}

// memUserRepo holds test accounts and their entitlement state.
type memUserRepo struct {
	mu    sync.RWMutex
	store map[string]*model.User

	GrantErr error // simulate entitlement write failures
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{store: make(map[string]*model.User)}
}

func (m *memUserRepo) put(u *model.User) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *u
	m.store[u.ID] = &cp
}

func (m *memUserRepo) snapshot() map[string]*model.User {
	m.mu.RLock()
	defer m.mu.RUnlock()
	cp := make(map[string]*model.User, len(m.store))
	for k, v := range m.store {
		uv := *v
		cp[k] = &uv
	}
	return cp
}

func (m *memUserRepo) restore(s map[string]*model.User) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.store = s
}

func (m *memUserRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.store[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *memUserRepo) GrantPremium(ctx context.Context, tx repository.Tx, userID string, expiry time.Time) error {
	if m.GrantErr != nil {
		return m.GrantErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.store[userID]
	if !ok {
		return domain.ErrNotFound
	}
	u.IsPremium = true
	e := expiry
	u.PremiumExpiry = &e
	return nil
}

func (m *memUserRepo) CountPremium(ctx context.Context, tx repository.Tx) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n := 0
	now := time.Now()
	for _, u := range m.store {
		if u.HasActivePremium(now) {
			n++
		}
	}
	return n, nil
}

// mockGateway scripts gateway behaviour per test.
type mockGateway struct {
	mu sync.Mutex

	CreateErr  error
	ResolveErr error
	statuses   map[string]adapter.NotificationStatus

	createCalls int
}

func newMockGateway() *mockGateway {
	return &mockGateway{statuses: make(map[string]adapter.NotificationStatus)}
}

func (g *mockGateway) Name() string { return "mock" }

func (g *mockGateway) CreateTransaction(ctx context.Context, req adapter.CreateTransactionRequest) (*adapter.SnapTransaction, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.createCalls++
	if g.CreateErr != nil {
		return nil, g.CreateErr
	}
	return &adapter.SnapTransaction{
		Token:       "tok-" + req.OrderID,
		RedirectURL: "https://checkout.example.test/" + req.OrderID,
	}, nil
}

func (g *mockGateway) setStatus(st adapter.NotificationStatus) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.statuses[st.OrderID] = st
}

func (g *mockGateway) ResolveNotification(ctx context.Context, raw []byte) (*adapter.NotificationStatus, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.ResolveErr != nil {
		return nil, g.ResolveErr
	}
	var body struct {
		OrderID string `json:"order_id"`
	}
	if err := json.Unmarshal(raw, &body); err != nil || body.OrderID == "" {
		return nil, domain.ErrVerificationFailed
	}
	st, ok := g.statuses[body.OrderID]
	if !ok {
		return nil, domain.ErrVerificationFailed
	}
	cp := st
	return &cp, nil
}

// mockTxManager mimics transactional semantics for the in-memory repos: it
// snapshots both stores before running fn and restores them if fn fails, so
// the reconciler's ledger+entitlement writes land together or not at all.
type mockTxManager struct {
	payments *memPaymentRepo
	users    *memUserRepo
}

type fakeTx struct{}

func (m *mockTxManager) WithTx(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error {
	paySnap := m.payments.snapshot()
	userSnap := m.users.snapshot()
	if err := fn(ctx, fakeTx{}); err != nil {
		m.payments.restore(paySnap)
		m.users.restore(userSnap)
		return err
	}
	return nil
}
