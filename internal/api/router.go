/**
 * @description
 * HTTP router for the Stackvest API using go-chi/chi.
 *
 * @dependencies
 * - github.com/go-chi/chi/v5: routing and standard middleware.
 * - github.com/go-chi/cors: CORS for the SPA and marketing site.
 * - internal/metrics: request instrumentation and /metrics.
 */
package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/stackvest/backend/internal/app"
	"github.com/stackvest/backend/internal/metrics"
)

// RouterConfig carries the settings the router needs beyond the handler itself.
type RouterConfig struct {
	AllowedOrigins         []string
	InternalAPIKey         string
	RateLimiter            *app.RateLimiter
	AuthRateLimitPerMinute int
	Logger                 *slog.Logger
}

// NewRouter registers every route of the API.
func NewRouter(h *Handler, cfg RouterConfig) *chi.Mux {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	origins := cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"https://*", "http://*"}
	}

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(metrics.InstrumentHandler)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link", "Retry-After"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("healthy"))
	})
	r.Handle("/metrics", metrics.Handler())

	// Sweeps can outlast the request timeout used by the public API.
	r.Route("/internal", func(r chi.Router) {
		r.Use(InternalAuthMiddleware(cfg.InternalAPIKey))
		r.Post("/sweeps/daily-gains", h.handleRunDailyGains)
		r.Post("/sweeps/maturity", h.handleRunMaturity)
	})

	limiter := cfg.RateLimiter
	if limiter == nil {
		limiter = app.NewRateLimiter(nil, logger)
	}
	authLimit := RateLimit("auth", cfg.AuthRateLimitPerMinute, time.Minute, limiter)

	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(30 * time.Second))

		r.Route("/auth", func(r chi.Router) {
			r.With(authLimit).Post("/register", h.handleRegister)
			r.With(authLimit).Post("/login", h.handleLogin)
			r.With(authLimit).Post("/forgot-password", h.handleForgotPassword)
			r.With(authLimit).Post("/reset-password", h.handleResetPassword)
		})

		r.Get("/plans", h.handleListPlans)
		r.Get("/plans/{id}", h.handleGetPlan)
		r.With(authLimit).Post("/newsletter/subscribe", h.handleSubscribe)
		r.Get("/newsletter/unsubscribe", h.handleUnsubscribe)
		r.Post("/newsletter/unsubscribe", h.handleUnsubscribe)
		r.With(authLimit).Post("/contact", h.handleContact)

		r.Group(func(r chi.Router) {
			r.Use(AuthMiddleware(h.svc.Tokens()))

			r.Get("/me", h.handleMe)
			r.Post("/me/password", h.handleChangePassword)
			r.Get("/me/activity", h.handleActivity)

			r.Get("/dashboard", h.handleDashboard)
			r.Get("/balances", h.handleBalances)
			r.Get("/transactions", h.handleTransactions)

			r.Get("/investments", h.handleListInvestments)
			r.Post("/investments", h.handleInvest)
			r.Get("/investments/{id}", h.handleGetInvestment)

			r.Get("/deposits", h.handleListMyDeposits)
			r.Post("/deposits", h.handleCreateDeposit)
			r.Get("/withdrawals", h.handleListMyWithdrawals)
			r.Post("/withdrawals", h.handleRequestWithdrawal)
			r.Get("/transfers", h.handleListTransfers)
			r.Post("/transfers", h.handleTransfer)
			r.Get("/transfers/quote", h.handleTransferQuote)

			r.Get("/referrals", h.handleReferrals)
			r.Post("/referrals/redeem", h.handleRedeemReferral)

			r.Get("/notifications", h.handleListNotifications)
			r.Get("/notifications/unread-count", h.handleUnreadCount)
			r.Post("/notifications/read-all", h.handleMarkAllNotificationsRead)
			r.Post("/notifications/{id}/read", h.handleMarkNotificationRead)

			r.Get("/support/tickets", h.handleListMyTickets)
			r.Post("/support/tickets", h.handleSubmitTicket)

			r.Route("/admin", func(r chi.Router) {
				r.Use(RequireAdmin)

				r.Get("/stats", h.handleAdminStats)
				r.Get("/users", h.handleAdminListUsers)
				r.Get("/users/{id}", h.handleAdminGetUser)
				r.Put("/users/{id}/status", h.handleAdminSetUserStatus)
				r.Post("/users/{id}/adjust", h.handleAdminAdjustBalance)
				r.Post("/balances/fix", h.handleAdminFixBalances)

				r.Get("/plans", h.handleAdminListPlans)
				r.Post("/plans", h.handleAdminCreatePlan)
				r.Put("/plans/{id}", h.handleAdminUpdatePlan)
				r.Put("/plans/{id}/active", h.handleAdminSetPlanActive)

				r.Get("/deposits", h.handleAdminListDeposits)
				r.Post("/deposits/{id}/approve", h.handleAdminApproveDeposit)
				r.Post("/deposits/{id}/reject", h.handleAdminRejectDeposit)
				r.Get("/withdrawals", h.handleAdminListWithdrawals)
				r.Post("/withdrawals/{id}/complete", h.handleAdminCompleteWithdrawal)
				r.Post("/withdrawals/{id}/reject", h.handleAdminRejectWithdrawal)

				r.Post("/notifications", h.handleAdminSendNotification)
				r.Post("/newsletter", h.handleAdminSendNewsletter)
				r.Get("/support", h.handleAdminListTickets)
				r.Post("/support/{id}/reply", h.handleAdminReplyTicket)
				r.Post("/support/{id}/close", h.handleAdminCloseTicket)
			})
		})
	})

	return r
}
