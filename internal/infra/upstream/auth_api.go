package upstream

import (
	"context"
	"fmt"
	"net/http"

	"github.com/suryadigit/affiliate-gateway/internal/domain"
)

// profileEnvelope is the upstream body for profile reads and writes.
type profileEnvelope struct {
	Message string              `json:"message"`
	User    *domain.UserProfile `json:"user"`
}

// Login authenticates the user. Never retried: a duplicate login attempt
// can trip upstream lockout counters.
func (c *Client) Login(ctx context.Context, req *domain.LoginRequest) (*domain.LoginResponse, error) {
	var resp domain.LoginResponse
	if err := c.do(ctx, "auth.login", http.MethodPost, "/v1/users/login", "", req, &resp, false); err != nil {
		return nil, err
	}
	if resp.Token == "" || resp.User == nil {
		return nil, &domain.ErrDecode{What: "login response", Err: fmt.Errorf("missing token or user")}
	}
	return &resp, nil
}

// Signup registers a new user.
func (c *Client) Signup(ctx context.Context, req *domain.SignupRequest) (*domain.SignupResponse, error) {
	var resp domain.SignupResponse
	if err := c.do(ctx, "auth.signup", http.MethodPost, "/v1/users/signup", "", req, &resp, false); err != nil {
		return nil, err
	}
	return &resp, nil
}

// VerifyOTP confirms a one-time code. A successful verification returns
// the same payload as login.
func (c *Client) VerifyOTP(ctx context.Context, req *domain.VerifyOTPRequest) (*domain.LoginResponse, error) {
	var resp domain.LoginResponse
	if err := c.do(ctx, "auth.verify_otp", http.MethodPost, "/v1/users/verify-otp", "", req, &resp, false); err != nil {
		return nil, err
	}
	if resp.Token == "" || resp.User == nil {
		return nil, &domain.ErrDecode{What: "otp response", Err: fmt.Errorf("missing token or user")}
	}
	return &resp, nil
}

// ResendOTP requests a fresh one-time code.
func (c *Client) ResendOTP(ctx context.Context, req *domain.ResendOTPRequest) (*domain.SuccessResponse, error) {
	var resp domain.SuccessResponse
	if err := c.do(ctx, "auth.resend_otp", http.MethodPost, "/v1/users/resend-otp", "", req, &resp, false); err != nil {
		return nil, err
	}
	return &resp, nil
}

// GetProfile fetches the authenticated user's profile.
func (c *Client) GetProfile(ctx context.Context, token string) (*domain.UserProfile, error) {
	var env profileEnvelope
	if err := c.do(ctx, "users.profile", http.MethodGet, "/v1/users/profile", token, nil, &env, true); err != nil {
		return nil, err
	}
	if env.User == nil {
		return nil, &domain.ErrDecode{What: "profile response", Err: fmt.Errorf("missing user")}
	}
	return env.User, nil
}

// UpdateProfile updates mutable profile fields and returns the fresh profile.
func (c *Client) UpdateProfile(ctx context.Context, token string, req *domain.UpdateProfileRequest) (*domain.UserProfile, error) {
	var env profileEnvelope
	if err := c.do(ctx, "users.update_profile", http.MethodPut, "/v1/users/profile", token, req, &env, false); err != nil {
		return nil, err
	}
	if env.User == nil {
		return nil, &domain.ErrDecode{What: "profile response", Err: fmt.Errorf("missing user")}
	}
	return env.User, nil
}

// GetMenus fetches the server-provided navigation menus for the user.
func (c *Client) GetMenus(ctx context.Context, token string) (*domain.MenusResponse, error) {
	var resp domain.MenusResponse
	if err := c.do(ctx, "users.menus", http.MethodGet, "/v1/users/menus", token, nil, &resp, true); err != nil {
		return nil, err
	}
	return &resp, nil
}
