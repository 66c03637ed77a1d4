// File: internal/usecase/notification_uc.go
package usecase

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"ebook-subscription/internal/domain"
	"ebook-subscription/internal/domain/model"
	"ebook-subscription/internal/domain/ports/adapter"
	"ebook-subscription/internal/domain/ports/repository"
	"ebook-subscription/internal/infra/logging"
	"ebook-subscription/internal/infra/metrics"
)

// Compile-time check
var _ NotificationUseCase = (*notificationUC)(nil)

type NotificationUseCase interface {
	// HandleNotification applies one gateway webhook delivery. Safe to call
	// more than once for the same transaction; redeliveries against a
	// terminal row are absorbed as no-ops.
	HandleNotification(ctx context.Context, rawPayload []byte) error
}

type notificationUC struct {
	payments repository.PaymentRepository
	users    repository.UserRepository
	gateway  adapter.PaymentGateway
	tm       repository.TransactionManager
	log      *zerolog.Logger
}

func NewNotificationUseCase(
	payments repository.PaymentRepository,
	users repository.UserRepository,
	gateway adapter.PaymentGateway,
	tm repository.TransactionManager,
	logger *zerolog.Logger,
) *notificationUC {
	return &notificationUC{payments: payments, users: users, gateway: gateway, tm: tm, log: logger}
}

func (n *notificationUC) HandleNotification(ctx context.Context, rawPayload []byte) error {
	// Status truth comes from the gateway's own lookup, never the raw body.
	st, err := n.gateway.ResolveNotification(ctx, rawPayload)
	if err != nil {
		metrics.IncWebhookNotification("verification_failed")
		return err
	}

	ctx = logging.WithOrderID(ctx, st.OrderID)
	log := logging.With(ctx, n.log)

	target, err := model.ResolveStatus(st.TransactionStatus, st.FraudStatus)
	if err != nil {
		metrics.IncWebhookNotification("unrecognized")
		log.Error().
			Str("transaction_status", st.TransactionStatus).
			Str("fraud_status", st.FraudStatus).
			Msg("unrecognized gateway status")
		return err
	}

	var outcome string
	err = n.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		// Row-locked re-read; a concurrent delivery for the same order
		// blocks here and then sees the terminal status.
		p, err := n.payments.FindByOrderID(ctx, tx, st.OrderID)
		if err != nil {
			return err
		}

		if p.Status.IsTerminal() {
			// Redelivery after success/failed: nothing to re-apply, and a
			// stale "pending" must not regress the row.
			outcome = "noop"
			return nil
		}

		// The gateway reports the amount it actually holds; a mismatch with
		// the ledger row means the notification is not about this intent.
		if st.GrossAmount != "" {
			gross, perr := strconv.ParseFloat(st.GrossAmount, 64)
			if perr != nil || int64(gross) != p.Amount {
				return fmt.Errorf("%w: reported amount %q does not match ledger amount %d",
					domain.ErrVerificationFailed, st.GrossAmount, p.Amount)
			}
		}

		switch target {
		case model.PaymentStatusSuccess:
			paidAt := time.Now()
			expiresAt := paidAt.AddDate(0, p.DurationMonths, 0)
			if err := n.payments.MarkPaid(ctx, tx, p.OrderID, st.PaymentMethod, paidAt, expiresAt); err != nil {
				return err
			}
			// Entitlement grant rides the same transaction as the ledger
			// update; neither lands without the other.
			if err := n.users.GrantPremium(ctx, tx, p.UserID, expiresAt); err != nil {
				return err
			}
			outcome = "applied"
			metrics.IncPayment(string(model.PaymentStatusSuccess))
			metrics.AddPaymentRevenue(p.Amount)
			log.Info().
				Str("user_id", p.UserID).
				Time("expires_at", expiresAt).
				Msg("payment settled, premium granted")
		case model.PaymentStatusFailed:
			if err := n.payments.UpdateStatus(ctx, tx, p.OrderID, target, st.PaymentMethod); err != nil {
				return err
			}
			outcome = "applied"
			metrics.IncPayment(string(model.PaymentStatusFailed))
			log.Info().Str("transaction_status", st.TransactionStatus).Msg("payment failed")
		default: // stays pending (gateway "pending" or capture+challenge)
			if err := n.payments.UpdateStatus(ctx, tx, p.OrderID, target, st.PaymentMethod); err != nil {
				return err
			}
			outcome = "applied"
		}
		return nil
	})
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrNotFound):
			metrics.IncWebhookNotification("not_found")
		case errors.Is(err, domain.ErrVerificationFailed):
			metrics.IncWebhookNotification("verification_failed")
		default:
			metrics.IncWebhookNotification("error")
		}
		return err
	}

	// The write-path cache deletes ran before the commit; a poll in that gap
	// can have re-cached the old row. Drop it now that the commit is visible.
	if err := n.payments.InvalidateOrder(ctx, st.OrderID); err != nil {
		log.Warn().Err(err).Msg("post-commit cache invalidation failed")
	}

	metrics.IncWebhookNotification(outcome)
	return nil
}
