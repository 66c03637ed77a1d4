//go:build !integration

package usecase_test

import (
	"context"
	"errors"
	"testing"

	"ebook-subscription/internal/config"
	"ebook-subscription/internal/domain"
	"ebook-subscription/internal/domain/model"
	"ebook-subscription/internal/domain/ports/repository"
	"ebook-subscription/internal/usecase"
)

const frontendURL = "https://reader.example.test"

func testPricing() config.PricingConfig {
	return config.PricingConfig{PricePerMonth: 50000}
}

func seedUser(users *memUserRepo) *model.User {
	u := &model.User{
		ID:        "u1",
		Email:     "reader@example.test",
		FirstName: "Budi",
		Phone:     "+6281200000000",
	}
	users.put(u)
	return u
}

func TestPaymentUseCase_Create(t *testing.T) {
	ctx := context.Background()

	t.Run("creates a pending intent with gateway token", func(t *testing.T) {
		payments := newMemPaymentRepo()
		users := newMemUserRepo()
		gateway := newMockGateway()
		seedUser(users)

		uc := usecase.NewPaymentUseCase(payments, users, gateway, testPricing(), frontendURL, newTestLogger())

		p, err := uc.Create(ctx, "u1", 3)
		if err != nil {
			t.Fatalf("expected no error, got: %v", err)
		}
		if p.Amount != 150000 {
			t.Errorf("expected amount 150000, got %d", p.Amount)
		}
		if p.Status != model.PaymentStatusPending {
			t.Errorf("expected status pending, got %q", p.Status)
		}
		if p.SnapToken == "" || p.PaymentURL == "" {
			t.Error("expected gateway token and redirect URL on the returned intent")
		}

		stored, err := payments.FindByOrderID(ctx, repository.NoTX, p.OrderID)
		if err != nil {
			t.Fatalf("expected a stored row, got: %v", err)
		}
		if stored.SnapToken != p.SnapToken || stored.PaymentURL != p.PaymentURL {
			t.Error("gateway result not persisted on the ledger row")
		}
	})

	t.Run("rejects non-positive duration without writing a row", func(t *testing.T) {
		for _, months := range []int{0, -1} {
			payments := newMemPaymentRepo()
			users := newMemUserRepo()
			seedUser(users)

			uc := usecase.NewPaymentUseCase(payments, users, newMockGateway(), testPricing(), frontendURL, newTestLogger())

			_, err := uc.Create(ctx, "u1", months)
			if !errors.Is(err, domain.ErrInvalidArgument) {
				t.Fatalf("months=%d: expected ErrInvalidArgument, got %v", months, err)
			}
			if len(payments.snapshot()) != 0 {
				t.Errorf("months=%d: no ledger row may be created", months)
			}
		}
	})

	t.Run("fails for unknown account", func(t *testing.T) {
		uc := usecase.NewPaymentUseCase(newMemPaymentRepo(), newMemUserRepo(), newMockGateway(), testPricing(), frontendURL, newTestLogger())
		if _, err := uc.Create(ctx, "ghost", 1); !errors.Is(err, domain.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("gateway failure leaves a tokenless pending row", func(t *testing.T) {
		payments := newMemPaymentRepo()
		users := newMemUserRepo()
		gateway := newMockGateway()
		gateway.CreateErr = domain.ErrGatewayUnavailable
		seedUser(users)

		uc := usecase.NewPaymentUseCase(payments, users, gateway, testPricing(), frontendURL, newTestLogger())

		_, err := uc.Create(ctx, "u1", 2)
		if !errors.Is(err, domain.ErrGatewayUnavailable) {
			t.Fatalf("expected ErrGatewayUnavailable, got %v", err)
		}

		rows := payments.snapshot()
		if len(rows) != 1 {
			t.Fatalf("expected the pending row to survive, got %d rows", len(rows))
		}
		for _, p := range rows {
			if p.Status != model.PaymentStatusPending {
				t.Errorf("expected status pending, got %q", p.Status)
			}
			if p.SnapToken != "" {
				t.Error("expected no gateway token on the orphaned row")
			}
		}
	})

	t.Run("distinct orders for concurrent-ish requests from one user", func(t *testing.T) {
		payments := newMemPaymentRepo()
		users := newMemUserRepo()
		seedUser(users)

		uc := usecase.NewPaymentUseCase(payments, users, newMockGateway(), testPricing(), frontendURL, newTestLogger())

		a, err := uc.Create(ctx, "u1", 1)
		if err != nil {
			t.Fatal(err)
		}
		b, err := uc.Create(ctx, "u1", 1)
		if err != nil {
			t.Fatal(err)
		}
		if a.OrderID == b.OrderID {
			t.Errorf("order ids must be unique, both were %q", a.OrderID)
		}
	})
}

func TestPaymentUseCase_GetByOrderID(t *testing.T) {
	ctx := context.Background()
	payments := newMemPaymentRepo()
	users := newMemUserRepo()
	seedUser(users)

	uc := usecase.NewPaymentUseCase(payments, users, newMockGateway(), testPricing(), frontendURL, newTestLogger())

	created, err := uc.Create(ctx, "u1", 1)
	if err != nil {
		t.Fatal(err)
	}

	got, err := uc.GetByOrderID(ctx, created.OrderID)
	if err != nil {
		t.Fatalf("expected lookup to succeed, got: %v", err)
	}
	if got.OrderID != created.OrderID || got.Amount != created.Amount {
		t.Error("lookup returned a different intent")
	}

	if _, err := uc.GetByOrderID(ctx, "missing-order"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := uc.GetByOrderID(ctx, ""); !errors.Is(err, domain.ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument for empty id, got %v", err)
	}
}
