package web

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"line-fortune-subscription/internal/config"
	"line-fortune-subscription/internal/domain"
	"line-fortune-subscription/internal/domain/ports/adapter"
	"line-fortune-subscription/internal/domain/ports/repository"
	"line-fortune-subscription/internal/infra/metrics"
	red "line-fortune-subscription/internal/infra/redis"
	"line-fortune-subscription/internal/usecase"
)

type Server struct {
	users    usecase.UserUseCase
	payments usecase.PaymentUseCase
	subs     usecase.SubscriptionUseCase
	fortunes usecase.FortuneUseCase
	admins   usecase.AdminUseCase
	dispatch usecase.DispatchUseCase

	auth         *AuthManager
	limiter      *red.RateLimiter
	push         adapter.PushClient
	packages     repository.PackageRepository
	maxSlipBytes int64
	log          *zerolog.Logger

	http *http.Server
}

func NewServer(
	cfg *config.ServerConfig,
	users usecase.UserUseCase,
	payments usecase.PaymentUseCase,
	subs usecase.SubscriptionUseCase,
	fortunes usecase.FortuneUseCase,
	admins usecase.AdminUseCase,
	dispatch usecase.DispatchUseCase,
	auth *AuthManager,
	limiter *red.RateLimiter,
	push adapter.PushClient,
	packages repository.PackageRepository,
	logger *zerolog.Logger,
) *Server {
	webLog := logger.With().Str("component", "web").Logger()
	s := &Server{
		users:        users,
		payments:     payments,
		subs:         subs,
		fortunes:     fortunes,
		admins:       admins,
		dispatch:     dispatch,
		auth:         auth,
		limiter:      limiter,
		push:         push,
		packages:     packages,
		maxSlipBytes: cfg.MaxSlipBytes,
		log:          &webLog,
	}
	s.http = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      s.routes(),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}
	return s
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(s.observe)

	r.Get("/health", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())
	r.Post("/webhook/line", s.handleLineWebhook)

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/login", s.handleLogin)
			r.Post("/register", s.handleRegister)
			r.Post("/logout", s.handleLogout)
		})

		r.Route("/order", func(r chi.Router) {
			r.Use(s.requireRole(RoleMember))
			r.Get("/payment", s.handlePaymentRequest)
			r.Get("/renew", s.handleRenewRequest)
			r.Post("/verify-slip", s.handleVerifySlip)
			r.Get("/status/{transactionID}", s.handleOrderStatus)
			r.Post("/cancel/{transactionID}", s.handleCancelOrder)
		})

		r.With(s.requireRole(RoleMember)).Get("/subscription", s.handleSubscription)
		r.With(s.requireRole(RoleMember)).Get("/fortune/today", s.handleTodayFortune)

		r.Route("/admin", func(r chi.Router) {
			r.Post("/login", s.handleAdminLogin)
			r.Group(func(r chi.Router) {
				r.Use(s.requireRole(RoleAdmin))
				r.Post("/logout", s.handleLogout)
				r.Get("/transactions", s.handleListTransactions)
				r.Put("/transactions/{transactionID}", s.handleUpdateTransaction)
				r.Post("/admins", s.handleAddAdmin)
				r.Post("/fortunes", s.handleCreateFortune)
				r.Post("/dispatch/run", s.handleRunDispatch)
				r.Get("/stats", s.handleStats)
			})
		})
	})

	return r
}

func (s *Server) Start() error {
	s.log.Info().Str("addr", s.http.Addr).Msg("Starting HTTP server")
	if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info().Msg("Stopping HTTP server")
	return s.http.Shutdown(ctx)
}

// requireRole authenticates the request and enforces the capability in
// one place; handlers read the principal from the context.
func (s *Server) requireRole(role string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, err := s.auth.ParseFromRequest(r)
			if err != nil {
				writeError(w, domain.ErrUnauthorized)
				return
			}
			if err := Require(p, role); err != nil {
				writeError(w, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(withPrincipal(r.Context(), p)))
		})
	}
}

// observe records request counts and latency against the matched route
// pattern, not the raw URL, to keep label cardinality bounded.
func (s *Server) observe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := chi.RouteContext(r.Context()).RoutePattern()
		if route == "" {
			route = "unmatched"
		}
		metrics.ObserveHTTPRequest(route, fmt.Sprintf("%dxx", ww.Status()/100), time.Since(start))
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
