package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"

	"ebook-subscription/internal/infra/logging"
	"ebook-subscription/internal/infra/metrics"
	red "ebook-subscription/internal/infra/redis"
)

// requestID tags every request with a ULID, exposed via X-Request-Id and the
// logging context.
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := ulid.Make().String()
		ctx := logging.WithRequestID(r.Context(), id)
		w.Header().Set("X-Request-Id", id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// rateLimit throttles the wrapped route per authenticated user. Runs after
// Authenticate. A redis failure lets the request through; throttling is not
// worth failing payments over.
func (s *Server) rateLimit(action string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if s.limiter == nil {
				next.ServeHTTP(w, r)
				return
			}
			claims := ClaimsFromContext(r.Context())
			if claims == nil {
				next.ServeHTTP(w, r)
				return
			}
			key := red.UserActionKey(claims.UserID(), action)
			ok, err := s.limiter.Allow(r.Context(), key, s.rateCfg.CreateRateLimit, s.rateCfg.CreateRateWindow)
			if err != nil {
				logging.With(r.Context(), s.log).Warn().Err(err).Msg("rate limiter unavailable")
				next.ServeHTTP(w, r)
				return
			}
			if !ok {
				respondError(w, http.StatusTooManyRequests, "Too many payment attempts, slow down")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

type statusRecorder struct {
	http.ResponseWriter
	code int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.code = code
	r.ResponseWriter.WriteHeader(code)
}

// requestLogger emits one access-log line per request and feeds the HTTP
// metrics, using the chi route pattern so order ids don't explode cardinality.
func requestLogger(base *zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, code: http.StatusOK}
			next.ServeHTTP(rec, r)

			route := chi.RouteContext(r.Context()).RoutePattern()
			if route == "" {
				route = r.URL.Path
			}
			elapsed := time.Since(start)
			metrics.ObserveHTTPRequest(route, r.Method, rec.code, float64(elapsed.Milliseconds()))
			logging.With(r.Context(), base).Info().
				Str("method", r.Method).
				Str("route", route).
				Int("code", rec.code).
				Dur("duration", elapsed).
				Msg("http request")
		})
	}
}
