package handler

import (
	"net/http"

	"github.com/suryadigit/affiliate-gateway/internal/domain"
	"github.com/suryadigit/affiliate-gateway/internal/infra/observability"
	"github.com/suryadigit/affiliate-gateway/internal/infra/report"
	"github.com/suryadigit/affiliate-gateway/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// AdminHandler serves the admin panel endpoints and the operator surface.
type AdminHandler struct {
	svc        *service.AdminService
	controller *service.SessionController
	metrics    *observability.Metrics
	reporter   *report.Reporter
	logger     *zap.Logger
}

// NewAdminHandler creates the admin handler.
func NewAdminHandler(svc *service.AdminService, controller *service.SessionController, metrics *observability.Metrics, reporter *report.Reporter, logger *zap.Logger) *AdminHandler {
	return &AdminHandler{
		svc:        svc,
		controller: controller,
		metrics:    metrics,
		reporter:   reporter,
		logger:     logger,
	}
}

func (h *AdminHandler) fail(w http.ResponseWriter, sess *service.Session, err error) {
	h.controller.ObserveError(sess, err)
	handleServiceError(w, err, h.reporter, h.logger)
}

// ListUsers handles GET /v1/admin/users.
func (h *AdminHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	sess, _ := SessionFromContext(r.Context())
	page, pageSize := parsePagination(r)

	users, err := h.svc.ListUsers(r.Context(), sess, page, pageSize)
	if err != nil {
		h.fail(w, sess, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "users",
		"users":   users,
	})
}

// GetUser handles GET /v1/admin/users/{id}.
func (h *AdminHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	sess, _ := SessionFromContext(r.Context())

	user, err := h.svc.GetUser(r.Context(), sess, chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, sess, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "user",
		"user":    user,
	})
}

// UpdateUserStatus handles PUT /v1/admin/users/{id}/status.
func (h *AdminHandler) UpdateUserStatus(w http.ResponseWriter, r *http.Request) {
	sess, _ := SessionFromContext(r.Context())

	var req domain.UpdateUserStatusRequest
	if !decodeBody(w, r, &req) {
		return
	}

	user, err := h.svc.UpdateUserStatus(r.Context(), sess, chi.URLParam(r, "id"), &req)
	if err != nil {
		h.fail(w, sess, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "user status updated",
		"user":    user,
	})
}

// ListPendingWithdrawals handles GET /v1/admin/withdrawals.
func (h *AdminHandler) ListPendingWithdrawals(w http.ResponseWriter, r *http.Request) {
	sess, _ := SessionFromContext(r.Context())
	page, pageSize := parsePagination(r)

	items, err := h.svc.ListPendingWithdrawals(r.Context(), sess, page, pageSize)
	if err != nil {
		h.fail(w, sess, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message":     "pending withdrawals",
		"withdrawals": items,
	})
}

// DecideWithdrawal handles PUT /v1/admin/withdrawals/{id}.
func (h *AdminHandler) DecideWithdrawal(w http.ResponseWriter, r *http.Request) {
	sess, _ := SessionFromContext(r.Context())

	var req domain.WithdrawalDecisionRequest
	if !decodeBody(w, r, &req) {
		return
	}

	withdrawal, err := h.svc.DecideWithdrawal(r.Context(), sess, chi.URLParam(r, "id"), &req)
	if err != nil {
		h.fail(w, sess, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message":    "withdrawal decided",
		"withdrawal": withdrawal,
	})
}

// Stats handles GET /ops/stats: a counter snapshot for operators.
func (h *AdminHandler) Stats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.metrics.GetStatsSnapshot())
}

// RecentErrors handles GET /ops/errors: the reporter's recent records.
func (h *AdminHandler) RecentErrors(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"errors": h.reporter.Recent(),
	})
}
