package handler

import (
	"net/http"
	"time"

	"github.com/suryadigit/affiliate-gateway/internal/config"
	"github.com/suryadigit/affiliate-gateway/internal/infra/observability"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Handlers bundles everything the router mounts.
type Handlers struct {
	Auth      *AuthHandler
	Menu      *MenuHandler
	Dashboard *DashboardHandler
	Admin     *AdminHandler
	Events    *EventsHandler
}

// NewRouter builds the HTTP router: public auth endpoints, the
// authenticated /v1 surface, the admin subtree, and the operator surface
// behind basic auth.
func NewRouter(cfg *config.Config, h Handlers, sessionAuth func(http.Handler) http.Handler, metrics *observability.Metrics, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(observability.ZapLoggerMiddleware(logger))
	r.Use(observability.TracingMiddleware)
	r.Use(requestMetrics(metrics))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Heartbeat("/ping"))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/readyz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	})

	operatorAuth := OperatorAuthMiddleware(cfg.OperatorUser, cfg.OperatorPasswordHash)
	r.Group(func(r chi.Router) {
		r.Use(operatorAuth)
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))
		r.Get("/ops/stats", h.Admin.Stats)
		r.Get("/ops/errors", h.Admin.RecentErrors)
	})

	r.Route("/v1", func(r chi.Router) {
		// Public: no session required. Login and OTP are rate limited.
		r.Group(func(r chi.Router) {
			r.Use(RateLimitMiddleware(cfg.LoginRatePerMin, cfg.LoginBurst, logger))
			r.Post("/auth/login", h.Auth.Login)
			r.Post("/auth/signup", h.Auth.Signup)
			r.Post("/auth/verify-otp", h.Auth.VerifyOTP)
			r.Post("/auth/resend-otp", h.Auth.ResendOTP)
		})
		r.Get("/auth/session", h.Auth.Status)

		// Authenticated surface.
		r.Group(func(r chi.Router) {
			r.Use(sessionAuth)

			r.Post("/auth/logout", h.Auth.Logout)

			r.Get("/profile", h.Auth.GetProfile)
			r.Put("/profile", h.Auth.UpdateProfile)
			r.Post("/profile/refresh", h.Auth.RefreshProfile)
			r.Get("/preferences", h.Auth.GetPreferences)
			r.Put("/preferences", h.Auth.PutPreferences)

			r.Get("/menus", h.Menu.Get)
			r.Get("/events", h.Events.Stream)

			r.Get("/dashboard", h.Dashboard.Summary)
			r.Get("/commissions", h.Dashboard.ListCommissions)
			r.Get("/withdrawals", h.Dashboard.ListWithdrawals)
			r.Post("/withdrawals", h.Dashboard.CreateWithdrawal)
			r.Get("/referrals", h.Dashboard.ListReferrals)
			r.Get("/notifications", h.Dashboard.ListNotifications)
			r.Post("/notifications/{id}/read", h.Dashboard.MarkNotificationRead)

			r.Route("/admin", func(r chi.Router) {
				r.Use(RequireAdmin)
				r.Get("/users", h.Admin.ListUsers)
				r.Get("/users/{id}", h.Admin.GetUser)
				r.Put("/users/{id}/status", h.Admin.UpdateUserStatus)
				r.Get("/withdrawals", h.Admin.ListPendingWithdrawals)
				r.Put("/withdrawals/{id}", h.Admin.DecideWithdrawal)
			})
		})
	})

	return r
}

// requestMetrics counts completed requests and records their duration.
func requestMetrics(metrics *observability.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			outcome := "success"
			if ww.Status() >= 400 {
				outcome = "error"
			}
			metrics.IncrRequest(outcome)

			// The route pattern keeps the label cardinality bounded.
			pattern := chi.RouteContext(r.Context()).RoutePattern()
			if pattern == "" {
				pattern = "unmatched"
			}
			metrics.RecordRequestDuration(r.Method+" "+pattern, time.Since(start))
		})
	}
}
