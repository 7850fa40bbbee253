package handler

import (
	"net/http"

	"github.com/suryadigit/affiliate-gateway/internal/domain"
	"github.com/suryadigit/affiliate-gateway/internal/infra/report"
	"github.com/suryadigit/affiliate-gateway/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// DashboardHandler serves the member dashboard data endpoints.
type DashboardHandler struct {
	svc        *service.DashboardService
	controller *service.SessionController
	reporter   *report.Reporter
	logger     *zap.Logger
}

// NewDashboardHandler creates the dashboard handler.
func NewDashboardHandler(svc *service.DashboardService, controller *service.SessionController, reporter *report.Reporter, logger *zap.Logger) *DashboardHandler {
	return &DashboardHandler{
		svc:        svc,
		controller: controller,
		reporter:   reporter,
		logger:     logger,
	}
}

// fail routes the error through the session controller first so a
// rejected credential evicts the session before the response goes out.
func (h *DashboardHandler) fail(w http.ResponseWriter, sess *service.Session, err error) {
	h.controller.ObserveError(sess, err)
	handleServiceError(w, err, h.reporter, h.logger)
}

// Summary handles GET /v1/dashboard.
func (h *DashboardHandler) Summary(w http.ResponseWriter, r *http.Request) {
	sess, _ := SessionFromContext(r.Context())

	summary, err := h.svc.Summary(r.Context(), sess)
	if err != nil {
		h.fail(w, sess, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// ListCommissions handles GET /v1/commissions.
func (h *DashboardHandler) ListCommissions(w http.ResponseWriter, r *http.Request) {
	sess, _ := SessionFromContext(r.Context())
	page, pageSize := parsePagination(r)

	items, err := h.svc.ListCommissions(r.Context(), sess, page, pageSize)
	if err != nil {
		h.fail(w, sess, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message":     "commissions",
		"commissions": items,
	})
}

// ListWithdrawals handles GET /v1/withdrawals.
func (h *DashboardHandler) ListWithdrawals(w http.ResponseWriter, r *http.Request) {
	sess, _ := SessionFromContext(r.Context())
	page, pageSize := parsePagination(r)

	items, err := h.svc.ListWithdrawals(r.Context(), sess, page, pageSize)
	if err != nil {
		h.fail(w, sess, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message":     "withdrawals",
		"withdrawals": items,
	})
}

// CreateWithdrawal handles POST /v1/withdrawals.
func (h *DashboardHandler) CreateWithdrawal(w http.ResponseWriter, r *http.Request) {
	sess, _ := SessionFromContext(r.Context())

	var req domain.WithdrawalRequest
	if !decodeBody(w, r, &req) {
		return
	}

	withdrawal, err := h.svc.CreateWithdrawal(r.Context(), sess, &req)
	if err != nil {
		h.fail(w, sess, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"message":    "withdrawal requested",
		"withdrawal": withdrawal,
	})
}

// ListReferrals handles GET /v1/referrals.
func (h *DashboardHandler) ListReferrals(w http.ResponseWriter, r *http.Request) {
	sess, _ := SessionFromContext(r.Context())
	page, pageSize := parsePagination(r)

	items, err := h.svc.ListReferrals(r.Context(), sess, page, pageSize)
	if err != nil {
		h.fail(w, sess, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message":   "referrals",
		"referrals": items,
	})
}

// ListNotifications handles GET /v1/notifications.
func (h *DashboardHandler) ListNotifications(w http.ResponseWriter, r *http.Request) {
	sess, _ := SessionFromContext(r.Context())
	page, pageSize := parsePagination(r)
	unreadOnly := r.URL.Query().Get("unreadOnly") == "true"

	items, err := h.svc.ListNotifications(r.Context(), sess, unreadOnly, page, pageSize)
	if err != nil {
		h.fail(w, sess, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message":       "notifications",
		"notifications": items,
	})
}

// MarkNotificationRead handles POST /v1/notifications/{id}/read.
func (h *DashboardHandler) MarkNotificationRead(w http.ResponseWriter, r *http.Request) {
	sess, _ := SessionFromContext(r.Context())
	notifID := chi.URLParam(r, "id")

	if err := h.svc.MarkNotificationRead(r.Context(), sess, notifID); err != nil {
		h.fail(w, sess, err)
		return
	}
	writeJSON(w, http.StatusOK, domain.SuccessResponse{Message: "notification read"})
}
