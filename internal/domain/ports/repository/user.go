package repository

import (
	"context"
	"time"

	"ebook-subscription/internal/domain/model"
)

type UserRepository interface {
	FindByID(ctx context.Context, tx Tx, id string) (*model.User, error)
	// GrantPremium sets is_premium and resets premium_expiry. Called only by
	// the reconciler, inside the same transaction as the ledger update.
	GrantPremium(ctx context.Context, tx Tx, userID string, expiry time.Time) error
	CountPremium(ctx context.Context, tx Tx) (int, error)
}
