// File: internal/usecase/payment_uc.go
package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"ebook-subscription/internal/config"
	"ebook-subscription/internal/domain"
	"ebook-subscription/internal/domain/model"
	"ebook-subscription/internal/domain/ports/adapter"
	"ebook-subscription/internal/domain/ports/repository"
	"ebook-subscription/internal/infra/metrics"
)

// Compile-time check
var _ PaymentUseCase = (*paymentUC)(nil)

type PaymentUseCase interface {
	// Create validates a subscription request, records a pending intent and
	// registers it with the gateway. The returned intent carries the gateway
	// token and redirect URL.
	Create(ctx context.Context, userID string, durationMonths int) (*model.PaymentIntent, error)
	// GetByOrderID is the read-only polling path.
	GetByOrderID(ctx context.Context, orderID string) (*model.PaymentIntent, error)
	// ListByUser returns a user's payment history, newest first.
	ListByUser(ctx context.Context, userID string) ([]*model.PaymentIntent, error)
}

type paymentUC struct {
	payments repository.PaymentRepository
	users    repository.UserRepository
	gateway  adapter.PaymentGateway
	pricing  config.PricingConfig
	frontend string
	log      *zerolog.Logger
}

func NewPaymentUseCase(
	payments repository.PaymentRepository,
	users repository.UserRepository,
	gateway adapter.PaymentGateway,
	pricing config.PricingConfig,
	frontendURL string,
	logger *zerolog.Logger,
) *paymentUC {
	return &paymentUC{
		payments: payments,
		users:    users,
		gateway:  gateway,
		pricing:  pricing,
		frontend: frontendURL,
		log:      logger,
	}
}

func (u *paymentUC) Create(ctx context.Context, userID string, durationMonths int) (*model.PaymentIntent, error) {
	if durationMonths < 1 {
		return nil, fmt.Errorf("%w: duration must be at least one month", domain.ErrInvalidArgument)
	}

	user, err := u.users.FindByID(ctx, repository.NoTX, userID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	amount := u.pricing.PricePerMonth * int64(durationMonths)
	p := &model.PaymentIntent{
		ID:             uuid.NewString(),
		OrderID:        model.NewOrderID(userID, now),
		UserID:         userID,
		Amount:         amount,
		DurationMonths: durationMonths,
		Status:         model.PaymentStatusPending,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	// The pending row goes in before the gateway call so a gateway failure
	// still leaves a traceable attempt; the sweeper fails tokenless rows.
	if err := u.payments.Save(ctx, repository.NoTX, p); err != nil {
		return nil, err
	}
	metrics.IncPayment(string(model.PaymentStatusPending))

	first, last := user.BuyerName()
	tx, err := u.gateway.CreateTransaction(ctx, adapter.CreateTransactionRequest{
		OrderID: p.OrderID,
		Amount:  amount,
		Buyer: adapter.BuyerDetails{
			FirstName: first,
			LastName:  last,
			Email:     user.Email,
			Phone:     user.Phone,
		},
		Item: adapter.ItemDetails{
			ID:       "PREMIUM_SUBSCRIPTION",
			Name:     fmt.Sprintf("Premium %d Month(s)", durationMonths),
			Price:    u.pricing.PricePerMonth,
			Quantity: durationMonths,
		},
		Callbacks: adapter.CallbackURLs{
			Finish:  u.frontend + "/payment/finish",
			Error:   u.frontend + "/payment/error",
			Pending: u.frontend + "/payment/pending",
		},
	})
	if err != nil {
		u.log.Error().Err(err).Str("order_id", p.OrderID).Msg("gateway transaction create failed")
		return nil, err
	}

	if err := u.payments.AttachGatewayResult(ctx, repository.NoTX, p.OrderID, tx.Token, tx.RedirectURL); err != nil {
		return nil, err
	}
	p.SnapToken = tx.Token
	p.PaymentURL = tx.RedirectURL

	u.log.Info().Str("order_id", p.OrderID).Int64("amount", amount).Int("months", durationMonths).Msg("payment intent created")
	return p, nil
}

func (u *paymentUC) GetByOrderID(ctx context.Context, orderID string) (*model.PaymentIntent, error) {
	if orderID == "" {
		return nil, domain.ErrInvalidArgument
	}
	return u.payments.FindByOrderID(ctx, repository.NoTX, orderID)
}

func (u *paymentUC) ListByUser(ctx context.Context, userID string) ([]*model.PaymentIntent, error) {
	return u.payments.ListByUser(ctx, repository.NoTX, userID)
}
