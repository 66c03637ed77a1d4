package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"ebook-subscription/internal/domain"
	"ebook-subscription/internal/domain/model"
	"ebook-subscription/internal/infra/logging"
)

const maxNotificationBody = 1 << 20 // 1 MiB

type createPaymentRequest struct {
	DurationMonths int `json:"duration_months"`
}

type paymentResponse struct {
	OrderID        string     `json:"order_id"`
	Amount         int64      `json:"amount"`
	DurationMonths int        `json:"duration_months"`
	Status         string     `json:"status"`
	SnapToken      string     `json:"snap_token,omitempty"`
	PaymentURL     string     `json:"payment_url,omitempty"`
	PaymentMethod  string     `json:"payment_method,omitempty"`
	PaidAt         *time.Time `json:"paid_at,omitempty"`
	ExpiresAt      *time.Time `json:"expires_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}

func toPaymentResponse(p *model.PaymentIntent) paymentResponse {
	return paymentResponse{
		OrderID:        p.OrderID,
		Amount:         p.Amount,
		DurationMonths: p.DurationMonths,
		Status:         string(p.Status),
		SnapToken:      p.SnapToken,
		PaymentURL:     p.PaymentURL,
		PaymentMethod:  p.PaymentMethod,
		PaidAt:         p.PaidAt,
		ExpiresAt:      p.ExpiresAt,
		CreatedAt:      p.CreatedAt,
	}
}

func (s *Server) handleCreatePayment(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	claims := ClaimsFromContext(ctx)

	var req createPaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	p, err := s.paymentUC.Create(ctx, claims.UserID(), req.DurationMonths)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidArgument):
			respondError(w, http.StatusBadRequest, "Invalid subscription duration")
		case errors.Is(err, domain.ErrNotFound):
			respondError(w, http.StatusNotFound, "Account not found")
		case errors.Is(err, domain.ErrGatewayUnavailable):
			respondError(w, http.StatusBadGateway, "Payment gateway unavailable")
		default:
			respondError(w, http.StatusInternalServerError, "Failed to create payment")
		}
		return
	}

	respondJSON(w, http.StatusCreated, "Payment created successfully", toPaymentResponse(p))
}

func (s *Server) handlePaymentStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	orderID := chi.URLParam(r, "orderID")

	p, err := s.paymentUC.GetByOrderID(ctx, orderID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			respondError(w, http.StatusNotFound, "Payment not found")
			return
		}
		respondError(w, http.StatusInternalServerError, "Failed to get payment status")
		return
	}

	respondJSON(w, http.StatusOK, "Payment status retrieved successfully", toPaymentResponse(p))
}

func (s *Server) handleListPayments(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	claims := ClaimsFromContext(ctx)

	payments, err := s.paymentUC.ListByUser(ctx, claims.UserID())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to list payments")
		return
	}

	out := make([]paymentResponse, 0, len(payments))
	for _, p := range payments {
		out = append(out, toPaymentResponse(p))
	}
	respondJSON(w, http.StatusOK, "Payments retrieved successfully", out)
}

// handleNotification answers per whether reconciliation completed, not per
// the resulting business status; the gateway retries on non-2xx.
func (s *Server) handleNotification(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	raw, err := io.ReadAll(io.LimitReader(r.Body, maxNotificationBody))
	if err != nil {
		respondError(w, http.StatusBadRequest, "Failed to read notification body")
		return
	}

	if err := s.notifUC.HandleNotification(ctx, raw); err != nil {
		logging.With(ctx, s.log).Warn().Err(err).Msg("notification reconciliation failed")
		switch {
		case errors.Is(err, domain.ErrNotFound):
			respondError(w, http.StatusNotFound, "Payment not found")
		case errors.Is(err, domain.ErrVerificationFailed), errors.Is(err, domain.ErrUnrecognizedStatus):
			respondError(w, http.StatusBadRequest, "Failed to handle payment notification")
		default:
			respondError(w, http.StatusInternalServerError, "Failed to handle payment notification")
		}
		return
	}

	respondJSON(w, http.StatusOK, "Payment notification handled successfully", nil)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	week, month, year, err := s.statsUC.Revenue(ctx)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to get revenue")
		return
	}
	premium, err := s.statsUC.PremiumUsers(ctx)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to count premium users")
		return
	}

	respondJSON(w, http.StatusOK, "Stats retrieved successfully", struct {
		PremiumUsers int `json:"premium_users"`
		Revenue      struct {
			Week  int64 `json:"week"`
			Month int64 `json:"month"`
			Year  int64 `json:"year"`
		} `json:"revenue_idr"`
	}{
		PremiumUsers: premium,
		Revenue: struct {
			Week  int64 `json:"week"`
			Month int64 `json:"month"`
			Year  int64 `json:"year"`
		}{Week: week, Month: month, Year: year},
	})
}
