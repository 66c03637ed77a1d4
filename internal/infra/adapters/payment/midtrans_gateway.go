// File: internal/infra/adapters/payment/midtrans_gateway.go
package payment

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"ebook-subscription/internal/domain"
	"ebook-subscription/internal/domain/ports/adapter"
)

var _ adapter.PaymentGateway = (*MidtransGateway)(nil)

// MidtransGateway implements adapter.PaymentGateway against the Midtrans
// Snap API (transaction create) and Core API (status lookup).
type MidtransGateway struct {
	serverKey  string
	production bool
	client     *http.Client
}

func NewMidtransGateway(serverKey string, production bool) (*MidtransGateway, error) {
	if serverKey == "" {
		return nil, errors.New("midtrans server key empty")
	}
	return &MidtransGateway{
		serverKey:  serverKey,
		production: production,
		client:     &http.Client{Timeout: 15 * time.Second},
	}, nil
}

func (g *MidtransGateway) Name() string { return "midtrans" }

func (g *MidtransGateway) snapEndpoint() string {
	if g.production {
		return "https://app.midtrans.com/snap/v1/transactions"
	}
	return "https://app.sandbox.midtrans.com/snap/v1/transactions"
}

func (g *MidtransGateway) statusEndpoint(orderID string) string {
	base := "https://api.sandbox.midtrans.com"
	if g.production {
		base = "https://api.midtrans.com"
	}
	return fmt.Sprintf("%s/v2/%s/status", base, url.PathEscape(orderID))
}

func (g *MidtransGateway) authHeader() string {
	return "Basic " + base64.StdEncoding.EncodeToString([]byte(g.serverKey+":"))
}

// CreateTransaction calls Snap /transactions and returns the checkout token
// and redirect URL.
func (g *MidtransGateway) CreateTransaction(ctx context.Context, req adapter.CreateTransactionRequest) (*adapter.SnapTransaction, error) {
	payload := map[string]any{
		"transaction_details": map[string]any{
			"order_id":     req.OrderID,
			"gross_amount": req.Amount,
		},
		"customer_details": map[string]any{
			"first_name": req.Buyer.FirstName,
			"last_name":  req.Buyer.LastName,
			"email":      req.Buyer.Email,
			"phone":      req.Buyer.Phone,
		},
		"item_details": []map[string]any{{
			"id":       req.Item.ID,
			"price":    req.Item.Price,
			"quantity": req.Item.Quantity,
			"name":     req.Item.Name,
		}},
		"callbacks": map[string]any{
			"finish":  req.Callbacks.Finish,
			"error":   req.Callbacks.Error,
			"pending": req.Callbacks.Pending,
		},
	}
	b, _ := json.Marshal(payload)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, g.snapEndpoint(), bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("Authorization", g.authHeader())

	resp, err := g.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrGatewayUnavailable, err)
	}
	defer resp.Body.Close()

	var out struct {
		Token         string   `json:"token"`
		RedirectURL   string   `json:"redirect_url"`
		ErrorMessages []string `json:"error_messages"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", domain.ErrGatewayUnavailable, err)
	}
	if resp.StatusCode != http.StatusCreated || out.Token == "" || out.RedirectURL == "" {
		return nil, fmt.Errorf("%w: snap create http %d %v", domain.ErrGatewayUnavailable, resp.StatusCode, out.ErrorMessages)
	}
	return &adapter.SnapTransaction{Token: out.Token, RedirectURL: out.RedirectURL}, nil
}

// ResolveNotification verifies a webhook delivery by asking the Core API for
// the transaction's current status. Only the order id is taken from the raw
// payload; everything else comes from Midtrans.
func (g *MidtransGateway) ResolveNotification(ctx context.Context, rawPayload []byte) (*adapter.NotificationStatus, error) {
	var body struct {
		OrderID string `json:"order_id"`
	}
	if err := json.Unmarshal(rawPayload, &body); err != nil || body.OrderID == "" {
		return nil, domain.ErrVerificationFailed
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, g.statusEndpoint(body.OrderID), nil)
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("Authorization", g.authHeader())

	resp, err := g.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrVerificationFailed, err)
	}
	defer resp.Body.Close()

	var out struct {
		StatusCode        string `json:"status_code"`
		OrderID           string `json:"order_id"`
		TransactionStatus string `json:"transaction_status"`
		FraudStatus       string `json:"fraud_status"`
		PaymentType       string `json:"payment_type"`
		GrossAmount       string `json:"gross_amount"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("%w: decode status: %v", domain.ErrVerificationFailed, err)
	}
	if resp.StatusCode != http.StatusOK || out.TransactionStatus == "" {
		return nil, fmt.Errorf("%w: status http %d (code %s)", domain.ErrVerificationFailed, resp.StatusCode, out.StatusCode)
	}
	return &adapter.NotificationStatus{
		OrderID:           out.OrderID,
		TransactionStatus: out.TransactionStatus,
		FraudStatus:       out.FraudStatus,
		PaymentMethod:     out.PaymentType,
		GrossAmount:       out.GrossAmount,
	}, nil
}
