package model

import (
	"fmt"
	"time"

	"ebook-subscription/internal/domain"
)

type PaymentStatus string

const (
	PaymentStatusPending PaymentStatus = "pending" // intent created; awaiting gateway settlement
	PaymentStatusSuccess PaymentStatus = "success" // settled at provider; entitlement granted
	PaymentStatusFailed  PaymentStatus = "failed"  // cancelled, denied or expired at provider
)

// IsTerminal reports whether the status can no longer change.
func (s PaymentStatus) IsTerminal() bool {
	return s == PaymentStatusSuccess || s == PaymentStatusFailed
}

// PaymentIntent records one attempt to purchase premium access.
// One row per attempt; looked up by OrderID during reconciliation.
type PaymentIntent struct {
	ID             string // UUID, internal primary key
	OrderID        string // "{userID}-{unixNano}", unique, sent to the gateway
	UserID         string
	Amount         int64 // whole currency units (IDR)
	DurationMonths int
	Status         PaymentStatus
	SnapToken      string // gateway token, empty until the create call succeeds
	PaymentURL     string // gateway redirect URL, empty until the create call succeeds
	PaymentMethod  string // reported by the gateway on reconciliation
	PaidAt         *time.Time
	ExpiresAt      *time.Time // premium expiry granted by this payment
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// NewOrderID builds the gateway-facing order identifier. Nanosecond
// resolution keeps concurrent orders from the same user distinct.
func NewOrderID(userID string, at time.Time) string {
	return fmt.Sprintf("%s-%d", userID, at.UnixNano())
}

// Gateway-reported transaction statuses (Midtrans vocabulary).
const (
	TxStatusCapture    = "capture"
	TxStatusSettlement = "settlement"
	TxStatusCancel     = "cancel"
	TxStatusDeny       = "deny"
	TxStatusExpire     = "expire"
	TxStatusPending    = "pending"

	FraudStatusAccept    = "accept"
	FraudStatusChallenge = "challenge"
)

// ResolveStatus maps a verified (transaction_status, fraud_status) pair onto
// our payment status. Combinations outside the known table return
// ErrUnrecognizedStatus instead of defaulting to a terminal state.
func ResolveStatus(transactionStatus, fraudStatus string) (PaymentStatus, error) {
	switch transactionStatus {
	case TxStatusCapture:
		switch fraudStatus {
		case FraudStatusAccept:
			return PaymentStatusSuccess, nil
		case FraudStatusChallenge:
			return PaymentStatusPending, nil
		}
		return "", domain.ErrUnrecognizedStatus
	case TxStatusSettlement:
		return PaymentStatusSuccess, nil
	case TxStatusCancel, TxStatusDeny, TxStatusExpire:
		return PaymentStatusFailed, nil
	case TxStatusPending:
		return PaymentStatusPending, nil
	}
	return "", domain.ErrUnrecognizedStatus
}
