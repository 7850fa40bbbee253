package handler

import (
	"net/http"

	"github.com/suryadigit/affiliate-gateway/internal/domain"
	"github.com/suryadigit/affiliate-gateway/internal/service"

	"go.uber.org/zap"
)

// MenuHandler serves the resolved navigation menu.
type MenuHandler struct {
	menus  *service.MenuService
	logger *zap.Logger
}

// NewMenuHandler creates the menu handler.
func NewMenuHandler(menus *service.MenuService, logger *zap.Logger) *MenuHandler {
	return &MenuHandler{menus: menus, logger: logger}
}

// Get handles GET /v1/menus. Resolution never fails: when everything else
// is unavailable the static fallback for the user's role is served, and
// an empty list is a valid answer.
func (h *MenuHandler) Get(w http.ResponseWriter, r *http.Request) {
	sess, _ := SessionFromContext(r.Context())

	items := h.menus.Resolve(r.Context(), sess.Token, sess.User)
	if items == nil {
		items = []domain.MenuItem{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "menus",
		"menus":   items,
		"role":    sess.User.Role,
	})
}
