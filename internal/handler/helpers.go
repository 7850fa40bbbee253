// Package handler exposes the gateway's HTTP surface: auth and session
// endpoints, menu resolution, dashboard data, the admin panel and the
// change-event stream.
package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/suryadigit/affiliate-gateway/internal/domain"
	"github.com/suryadigit/affiliate-gateway/internal/infra/report"

	"go.uber.org/zap"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

func parsePagination(r *http.Request) (page, pageSize int) {
	page = 1
	pageSize = defaultPageSize
	if v, err := strconv.Atoi(r.URL.Query().Get("page")); err == nil && v > 0 {
		page = v
	}
	if v, err := strconv.Atoi(r.URL.Query().Get("pageSize")); err == nil && v > 0 {
		pageSize = v
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	return page, pageSize
}

// handleServiceError maps typed service errors onto HTTP statuses. The
// upstream server's message is passed through verbatim for business
// rejections; unexpected errors are recorded and masked.
func handleServiceError(w http.ResponseWriter, err error, reporter *report.Reporter, logger *zap.Logger) {
	var (
		notFound    *domain.ErrNotFound
		validation  *domain.ErrValidation
		unauthszd   *domain.ErrUnauthorized
		invalidated *domain.ErrSessionInvalidated
		forbidden   *domain.ErrForbidden
		conflict    *domain.ErrConflict
		business    *domain.ErrBusiness
		invalidCode *domain.ErrInvalidCode
		timeout     *domain.ErrTimeout
		circuit     *domain.ErrCircuitOpen
		decode      *domain.ErrDecode
	)

	switch {
	case errors.As(err, &validation):
		writeError(w, http.StatusBadRequest, validation.Error())
	case errors.As(err, &invalidCode):
		writeError(w, http.StatusBadRequest, invalidCode.Error())
	case errors.As(err, &business):
		writeError(w, http.StatusBadRequest, business.Message)
	case errors.As(err, &invalidated):
		writeError(w, http.StatusUnauthorized, "session expired")
	case errors.As(err, &unauthszd):
		writeError(w, http.StatusUnauthorized, unauthszd.Error())
	case errors.As(err, &forbidden):
		writeError(w, http.StatusForbidden, forbidden.Error())
	case errors.As(err, &notFound):
		writeError(w, http.StatusNotFound, notFound.Error())
	case errors.As(err, &conflict):
		writeError(w, http.StatusConflict, conflict.Message)
	case errors.As(err, &timeout):
		writeError(w, http.StatusGatewayTimeout, "upstream timed out")
	case errors.As(err, &circuit):
		writeError(w, http.StatusServiceUnavailable, "upstream temporarily unavailable")
	case errors.As(err, &decode):
		reporter.Report("handler", "decode", "unexpected upstream payload", err.Error())
		writeError(w, http.StatusBadGateway, "unexpected upstream response")
	default:
		reporter.Report("handler", "internal", "unhandled service error", err.Error())
		logger.Error("unhandled service error", zap.Error(err))
		writeError(w, http.StatusBadGateway, "upstream request failed")
	}
}
