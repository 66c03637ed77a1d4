package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"ebook-subscription/internal/config"
	red "ebook-subscription/internal/infra/redis"
	"ebook-subscription/internal/usecase"
)

// Server exposes the payment API: intent creation and status polling for
// authenticated users, the unauthenticated gateway webhook, and admin stats.
type Server struct {
	paymentUC usecase.PaymentUseCase
	notifUC   usecase.NotificationUseCase
	statsUC   usecase.StatsUseCase
	auth      *AuthManager
	limiter   *red.RateLimiter
	rateCfg   config.APIConfig
	log       *zerolog.Logger
	server    *http.Server
}

// NewServer wires the route tree. limiter may be nil; rate limiting is then
// disabled.
func NewServer(
	paymentUC usecase.PaymentUseCase,
	notifUC usecase.NotificationUseCase,
	statsUC usecase.StatsUseCase,
	auth *AuthManager,
	limiter *red.RateLimiter,
	rateCfg config.APIConfig,
	logger *zerolog.Logger,
) *Server {
	return &Server{
		paymentUC: paymentUC,
		notifUC:   notifUC,
		statsUC:   statsUC,
		auth:      auth,
		limiter:   limiter,
		rateCfg:   rateCfg,
		log:       logger,
	}
}

// Router builds the chi route tree. Split out of Start so tests can mount it
// on httptest.Server.
func (s *Server) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(requestLogger(s.log))

	r.Route("/api/v1", func(r chi.Router) {
		// Gateway-to-server webhook; the gateway does not authenticate.
		r.Post("/payments/notification", s.handleNotification)

		r.Group(func(r chi.Router) {
			r.Use(s.auth.Authenticate)
			r.With(s.rateLimit("create_payment")).Post("/payments", s.handleCreatePayment)
			r.Get("/payments", s.handleListPayments)
			r.Get("/payments/{orderID}", s.handlePaymentStatus)
		})

		r.Group(func(r chi.Router) {
			r.Use(s.auth.Authenticate, s.auth.RequireAdmin)
			r.Get("/stats", s.handleStats)
		})
	})

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	return r
}

func (s *Server) Start(port int) error {
	s.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           s.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	s.log.Info().Int("port", port).Msg("HTTP server listening")
	return s.server.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}
