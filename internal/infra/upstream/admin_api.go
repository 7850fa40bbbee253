package upstream

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/suryadigit/affiliate-gateway/internal/domain"
)

// ListUsers fetches one page of managed users.
func (c *Client) ListUsers(ctx context.Context, token string, page, pageSize int) ([]domain.AdminUser, error) {
	var env struct {
		Message string             `json:"message"`
		Users   []domain.AdminUser `json:"users"`
	}
	path := "/v1/admin/users?" + pageQuery(page, pageSize)
	if err := c.do(ctx, "admin.users.list", http.MethodGet, path, token, nil, &env, true); err != nil {
		return nil, err
	}
	return env.Users, nil
}

// GetUser fetches a single managed user.
func (c *Client) GetUser(ctx context.Context, token, userID string) (*domain.AdminUser, error) {
	var env struct {
		Message string            `json:"message"`
		User    *domain.AdminUser `json:"user"`
	}
	path := fmt.Sprintf("/v1/admin/users/%s", url.PathEscape(userID))
	if err := c.do(ctx, "admin.users.get", http.MethodGet, path, token, nil, &env, true); err != nil {
		return nil, err
	}
	if env.User == nil {
		return nil, &domain.ErrNotFound{Resource: "user", ID: userID}
	}
	return env.User, nil
}

// UpdateUserStatus activates or suspends a managed user.
func (c *Client) UpdateUserStatus(ctx context.Context, token, userID string, req *domain.UpdateUserStatusRequest) (*domain.AdminUser, error) {
	var env struct {
		Message string            `json:"message"`
		User    *domain.AdminUser `json:"user"`
	}
	path := fmt.Sprintf("/v1/admin/users/%s/status", url.PathEscape(userID))
	if err := c.do(ctx, "admin.users.status", http.MethodPut, path, token, req, &env, false); err != nil {
		return nil, err
	}
	if env.User == nil {
		return nil, &domain.ErrDecode{What: "user status response", Err: fmt.Errorf("missing user")}
	}
	return env.User, nil
}

// ListPendingWithdrawals fetches withdrawal requests awaiting a decision.
func (c *Client) ListPendingWithdrawals(ctx context.Context, token string, page, pageSize int) ([]domain.Withdrawal, error) {
	var env struct {
		Message     string              `json:"message"`
		Withdrawals []domain.Withdrawal `json:"withdrawals"`
	}
	path := "/v1/admin/withdrawals?status=pending&" + pageQuery(page, pageSize)
	if err := c.do(ctx, "admin.withdrawals.list", http.MethodGet, path, token, nil, &env, true); err != nil {
		return nil, err
	}
	return env.Withdrawals, nil
}

// DecideWithdrawal approves or rejects a withdrawal request.
func (c *Client) DecideWithdrawal(ctx context.Context, token, withdrawalID string, req *domain.WithdrawalDecisionRequest) (*domain.Withdrawal, error) {
	var env struct {
		Message    string             `json:"message"`
		Withdrawal *domain.Withdrawal `json:"withdrawal"`
	}
	path := fmt.Sprintf("/v1/admin/withdrawals/%s", url.PathEscape(withdrawalID))
	if err := c.do(ctx, "admin.withdrawals.decide", http.MethodPut, path, token, req, &env, false); err != nil {
		return nil, err
	}
	if env.Withdrawal == nil {
		return nil, &domain.ErrDecode{What: "withdrawal decision response", Err: fmt.Errorf("missing withdrawal")}
	}
	return env.Withdrawal, nil
}
