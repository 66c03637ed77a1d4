package sched

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"ebook-subscription/internal/domain/model"
	"ebook-subscription/internal/domain/ports/repository"
	"ebook-subscription/internal/infra/metrics"
)

// PendingSweeper periodically fails pending intents that never received a
// gateway token. Those rows exist when the gateway call failed or timed out
// after intent creation; the gateway never registered the transaction, so no
// webhook will ever arrive for them.
type PendingSweeper struct {
	payments   repository.PaymentRepository
	interval   time.Duration // how often to scan
	staleAfter time.Duration // how old a tokenless pending intent must be
	log        *zerolog.Logger
}

func NewPendingSweeper(payments repository.PaymentRepository, interval, staleAfter time.Duration, logger *zerolog.Logger) *PendingSweeper {
	if interval <= 0 {
		interval = time.Minute
	}
	if staleAfter <= 0 {
		staleAfter = 10 * time.Minute
	}
	return &PendingSweeper{payments: payments, interval: interval, staleAfter: staleAfter, log: logger}
}

func (w *PendingSweeper) Start(ctx context.Context) {
	t := time.NewTicker(w.interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			w.tick(ctx)
		}
	}
}

func (w *PendingSweeper) tick(ctx context.Context) {
	cutoff := time.Now().Add(-w.staleAfter)
	orphaned, err := w.payments.ListOrphanedBefore(ctx, repository.NoTX, cutoff, 200)
	if err != nil {
		w.log.Error().Err(err).Msg("pending-sweeper: list orphaned failed")
		return
	}
	for _, p := range orphaned {
		if err := w.payments.UpdateStatus(ctx, repository.NoTX, p.OrderID, model.PaymentStatusFailed, ""); err != nil {
			w.log.Error().Err(err).Str("order_id", p.OrderID).Msg("pending-sweeper: mark failed")
			continue
		}
		metrics.IncOrphanedSwept()
		w.log.Info().Str("order_id", p.OrderID).Msg("pending-sweeper: orphaned intent failed")
	}
}
