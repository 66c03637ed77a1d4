package payment

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"ebook-subscription/internal/domain"
	"ebook-subscription/internal/domain/ports/adapter"
)

var _ adapter.PaymentGateway = (*NoopPaymentGateway)(nil)

// NoopPaymentGateway is a simple in-memory gateway for dev mode and tests.
// Transactions are registered on create; ResolveNotification answers with a
// scripted status ("settlement" unless overridden via SetStatus).
type NoopPaymentGateway struct {
	mu       sync.Mutex
	seq      int64
	statuses map[string]adapter.NotificationStatus // orderID -> scripted answer
}

func NewNoopPaymentGateway() *NoopPaymentGateway {
	return &NoopPaymentGateway{statuses: make(map[string]adapter.NotificationStatus)}
}

func (g *NoopPaymentGateway) Name() string { return "noop" }

func (g *NoopPaymentGateway) CreateTransaction(ctx context.Context, req adapter.CreateTransactionRequest) (*adapter.SnapTransaction, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.seq++
	token := fmt.Sprintf("noop-token-%d", g.seq)
	g.statuses[req.OrderID] = adapter.NotificationStatus{
		OrderID:           req.OrderID,
		TransactionStatus: "settlement",
		PaymentMethod:     "noop",
	}
	return &adapter.SnapTransaction{
		Token:       token,
		RedirectURL: "https://example.test/pay/" + token,
	}, nil
}

// SetStatus scripts the status the next notification for orderID resolves to.
func (g *NoopPaymentGateway) SetStatus(orderID, transactionStatus, fraudStatus string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.statuses[orderID] = adapter.NotificationStatus{
		OrderID:           orderID,
		TransactionStatus: transactionStatus,
		FraudStatus:       fraudStatus,
		PaymentMethod:     "noop",
	}
}

func (g *NoopPaymentGateway) ResolveNotification(ctx context.Context, rawPayload []byte) (*adapter.NotificationStatus, error) {
	var body struct {
		OrderID string `json:"order_id"`
	}
	if err := json.Unmarshal(rawPayload, &body); err != nil || body.OrderID == "" {
		return nil, domain.ErrVerificationFailed
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	st, ok := g.statuses[body.OrderID]
	if !ok {
		return nil, domain.ErrVerificationFailed
	}
	cp := st
	return &cp, nil
}
