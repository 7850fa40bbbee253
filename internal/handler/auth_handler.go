package handler

import (
	"net/http"

	"github.com/suryadigit/affiliate-gateway/internal/domain"
	"github.com/suryadigit/affiliate-gateway/internal/infra/report"
	"github.com/suryadigit/affiliate-gateway/internal/service"

	"go.uber.org/zap"
)

// AuthHandler serves login, signup, OTP, session status, profile and
// preference endpoints.
type AuthHandler struct {
	controller *service.SessionController
	prefs      *service.PreferencesStore
	reporter   *report.Reporter
	logger     *zap.Logger
}

// NewAuthHandler creates the auth handler.
func NewAuthHandler(controller *service.SessionController, prefs *service.PreferencesStore, reporter *report.Reporter, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		controller: controller,
		prefs:      prefs,
		reporter:   reporter,
		logger:     logger,
	}
}

// Login handles POST /v1/auth/login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req domain.LoginRequest
	if !decodeBody(w, r, &req) {
		return
	}

	sess, err := h.controller.Login(r.Context(), &req)
	if err != nil {
		handleServiceError(w, err, h.reporter, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, domain.LoginResponse{
		Message: "login successful",
		Token:   sess.Token,
		User:    sess.User,
	})
}

// Signup handles POST /v1/auth/signup.
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req domain.SignupRequest
	if !decodeBody(w, r, &req) {
		return
	}

	resp, err := h.controller.Signup(r.Context(), &req)
	if err != nil {
		handleServiceError(w, err, h.reporter, h.logger)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

// VerifyOTP handles POST /v1/auth/verify-otp.
func (h *AuthHandler) VerifyOTP(w http.ResponseWriter, r *http.Request) {
	var req domain.VerifyOTPRequest
	if !decodeBody(w, r, &req) {
		return
	}

	sess, err := h.controller.VerifyOTP(r.Context(), &req)
	if err != nil {
		handleServiceError(w, err, h.reporter, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, domain.LoginResponse{
		Message: "verification successful",
		Token:   sess.Token,
		User:    sess.User,
	})
}

// ResendOTP handles POST /v1/auth/resend-otp.
func (h *AuthHandler) ResendOTP(w http.ResponseWriter, r *http.Request) {
	var req domain.ResendOTPRequest
	if !decodeBody(w, r, &req) {
		return
	}

	resp, err := h.controller.ResendOTP(r.Context(), &req)
	if err != nil {
		handleServiceError(w, err, h.reporter, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// Logout handles POST /v1/auth/logout.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	sess, _ := SessionFromContext(r.Context())
	h.controller.Logout(sess)
	writeJSON(w, http.StatusOK, domain.SuccessResponse{Message: "logged out"})
}

// Status handles GET /v1/auth/session. Unlike the authenticated routes it
// answers 200 for unknown tokens, reporting the unauthenticated state.
func (h *AuthHandler) Status(w http.ResponseWriter, r *http.Request) {
	bearer := bearerToken(r)
	var sess *service.Session
	if bearer != "" {
		sess, _ = h.controller.Resolve(bearer)
	}
	writeJSON(w, http.StatusOK, h.controller.Status(sess))
}

// GetProfile handles GET /v1/profile: the cached snapshot, no round trip.
func (h *AuthHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	sess, _ := SessionFromContext(r.Context())
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "profile",
		"user":    sess.User,
	})
}

// RefreshProfile handles POST /v1/profile/refresh: re-read from upstream.
func (h *AuthHandler) RefreshProfile(w http.ResponseWriter, r *http.Request) {
	sess, _ := SessionFromContext(r.Context())

	user, err := h.controller.Refresh(r.Context(), sess)
	if err != nil {
		handleServiceError(w, err, h.reporter, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "profile refreshed",
		"user":    user,
	})
}

// UpdateProfile handles PUT /v1/profile.
func (h *AuthHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	sess, _ := SessionFromContext(r.Context())

	var req domain.UpdateProfileRequest
	if !decodeBody(w, r, &req) {
		return
	}

	user, err := h.controller.UpdateProfile(r.Context(), sess, &req)
	if err != nil {
		handleServiceError(w, err, h.reporter, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "profile updated",
		"user":    user,
	})
}

// GetPreferences handles GET /v1/preferences.
func (h *AuthHandler) GetPreferences(w http.ResponseWriter, r *http.Request) {
	sess, _ := SessionFromContext(r.Context())
	writeJSON(w, http.StatusOK, h.prefs.Get(sess.User.ID))
}

// PutPreferences handles PUT /v1/preferences.
func (h *AuthHandler) PutPreferences(w http.ResponseWriter, r *http.Request) {
	sess, _ := SessionFromContext(r.Context())

	var prefs domain.Preferences
	if !decodeBody(w, r, &prefs) {
		return
	}
	h.prefs.Set(sess.User.ID, prefs)
	writeJSON(w, http.StatusOK, domain.SuccessResponse{Message: "preferences saved"})
}
