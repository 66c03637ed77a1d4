package adapter

import "context"

// BuyerDetails is the customer block sent with a transaction-create call.
type BuyerDetails struct {
	FirstName string
	LastName  string
	Email     string
	Phone     string
}

// ItemDetails describes the single line item of a subscription purchase.
type ItemDetails struct {
	ID       string
	Name     string
	Price    int64
	Quantity int
}

// CallbackURLs are the client-application pages the gateway redirects to.
type CallbackURLs struct {
	Finish  string
	Error   string
	Pending string
}

type CreateTransactionRequest struct {
	OrderID   string
	Amount    int64
	Buyer     BuyerDetails
	Item      ItemDetails
	Callbacks CallbackURLs
}

// SnapTransaction is the redirectable transaction the gateway hands back.
type SnapTransaction struct {
	Token       string
	RedirectURL string
}

// NotificationStatus is the gateway's authoritative answer for a webhook
// payload, fetched from the provider rather than trusted from the raw body.
type NotificationStatus struct {
	OrderID           string
	TransactionStatus string
	FraudStatus       string // only meaningful for "capture"
	PaymentMethod     string
	GrossAmount       string
}

// PaymentGateway is the hex port for the payment provider.
type PaymentGateway interface {
	Name() string

	// CreateTransaction registers a payment intent with the provider and
	// returns the token and redirect URL for the client checkout.
	CreateTransaction(ctx context.Context, req CreateTransactionRequest) (*SnapTransaction, error)

	// ResolveNotification validates a raw webhook payload by asking the
	// provider for the transaction's current status. The raw body is only
	// used to extract the order id; every status field comes from the
	// provider's own answer.
	ResolveNotification(ctx context.Context, rawPayload []byte) (*NotificationStatus, error)
}
