// File: internal/usecase/stats_uc.go
package usecase

import (
	"context"

	"ebook-subscription/internal/domain/ports/repository"
)

// Compile-time check
var _ StatsUseCase = (*statsUC)(nil)

type StatsUseCase interface {
	// Revenue returns successful-payment totals since the start of the
	// current week, month and year.
	Revenue(ctx context.Context) (week, month, year int64, err error)
	// PremiumUsers counts accounts whose entitlement is currently active.
	PremiumUsers(ctx context.Context) (int, error)
}

type statsUC struct {
	payments repository.PaymentRepository
	users    repository.UserRepository
}

func NewStatsUseCase(payments repository.PaymentRepository, users repository.UserRepository) *statsUC {
	return &statsUC{payments: payments, users: users}
}

func (s *statsUC) Revenue(ctx context.Context) (int64, int64, int64, error) {
	week, err := s.payments.SumByPeriod(ctx, repository.NoTX, "week")
	if err != nil {
		return 0, 0, 0, err
	}
	month, err := s.payments.SumByPeriod(ctx, repository.NoTX, "month")
	if err != nil {
		return 0, 0, 0, err
	}
	year, err := s.payments.SumByPeriod(ctx, repository.NoTX, "year")
	if err != nil {
		return 0, 0, 0, err
	}
	return week, month, year, nil
}

func (s *statsUC) PremiumUsers(ctx context.Context) (int, error) {
	return s.users.CountPremium(ctx, repository.NoTX)
}
