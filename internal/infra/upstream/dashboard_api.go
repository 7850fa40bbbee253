package upstream

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/suryadigit/affiliate-gateway/internal/domain"
)

func pageQuery(page, pageSize int) string {
	return fmt.Sprintf("page=%d&pageSize=%d", page, pageSize)
}

// ListCommissions fetches one page of commission entries.
func (c *Client) ListCommissions(ctx context.Context, token string, page, pageSize int) ([]domain.Commission, error) {
	var env struct {
		Message     string              `json:"message"`
		Commissions []domain.Commission `json:"commissions"`
	}
	path := "/v1/commissions?" + pageQuery(page, pageSize)
	if err := c.do(ctx, "commissions.list", http.MethodGet, path, token, nil, &env, true); err != nil {
		return nil, err
	}
	return env.Commissions, nil
}

// GetCommissionSummary fetches the aggregated earnings figures.
func (c *Client) GetCommissionSummary(ctx context.Context, token string) (*domain.CommissionSummary, error) {
	var env struct {
		Message string                    `json:"message"`
		Summary *domain.CommissionSummary `json:"summary"`
	}
	if err := c.do(ctx, "commissions.summary", http.MethodGet, "/v1/commissions/summary", token, nil, &env, true); err != nil {
		return nil, err
	}
	if env.Summary == nil {
		return nil, &domain.ErrDecode{What: "commission summary", Err: fmt.Errorf("missing summary")}
	}
	return env.Summary, nil
}

// ListWithdrawals fetches one page of the user's withdrawal requests.
func (c *Client) ListWithdrawals(ctx context.Context, token string, page, pageSize int) ([]domain.Withdrawal, error) {
	var env struct {
		Message     string              `json:"message"`
		Withdrawals []domain.Withdrawal `json:"withdrawals"`
	}
	path := "/v1/withdrawals?" + pageQuery(page, pageSize)
	if err := c.do(ctx, "withdrawals.list", http.MethodGet, path, token, nil, &env, true); err != nil {
		return nil, err
	}
	return env.Withdrawals, nil
}

// CreateWithdrawal submits a withdrawal request. Never retried — the
// idempotency key protects against duplicates only when upstream sees it.
func (c *Client) CreateWithdrawal(ctx context.Context, token string, req *domain.WithdrawalRequest) (*domain.Withdrawal, error) {
	var env struct {
		Message    string             `json:"message"`
		Withdrawal *domain.Withdrawal `json:"withdrawal"`
	}
	if err := c.do(ctx, "withdrawals.create", http.MethodPost, "/v1/withdrawals", token, req, &env, false); err != nil {
		return nil, err
	}
	if env.Withdrawal == nil {
		return nil, &domain.ErrDecode{What: "withdrawal response", Err: fmt.Errorf("missing withdrawal")}
	}
	return env.Withdrawal, nil
}

// ListReferrals fetches one page of the user's referrals.
func (c *Client) ListReferrals(ctx context.Context, token string, page, pageSize int) ([]domain.Referral, error) {
	var env struct {
		Message   string            `json:"message"`
		Referrals []domain.Referral `json:"referrals"`
	}
	path := "/v1/referrals?" + pageQuery(page, pageSize)
	if err := c.do(ctx, "referrals.list", http.MethodGet, path, token, nil, &env, true); err != nil {
		return nil, err
	}
	return env.Referrals, nil
}

// GetReferralStats fetches the referral hierarchy summary.
func (c *Client) GetReferralStats(ctx context.Context, token string) (*domain.ReferralStats, error) {
	var env struct {
		Message string                `json:"message"`
		Stats   *domain.ReferralStats `json:"stats"`
	}
	if err := c.do(ctx, "referrals.stats", http.MethodGet, "/v1/referrals/stats", token, nil, &env, true); err != nil {
		return nil, err
	}
	if env.Stats == nil {
		return nil, &domain.ErrDecode{What: "referral stats", Err: fmt.Errorf("missing stats")}
	}
	return env.Stats, nil
}

// ListNotifications fetches one page of notifications.
func (c *Client) ListNotifications(ctx context.Context, token string, unreadOnly bool, page, pageSize int) ([]domain.Notification, error) {
	var env struct {
		Message       string                `json:"message"`
		Notifications []domain.Notification `json:"notifications"`
	}
	q := url.Values{}
	q.Set("page", fmt.Sprint(page))
	q.Set("pageSize", fmt.Sprint(pageSize))
	if unreadOnly {
		q.Set("unreadOnly", "true")
	}
	path := "/v1/notifications?" + q.Encode()
	if err := c.do(ctx, "notifications.list", http.MethodGet, path, token, nil, &env, true); err != nil {
		return nil, err
	}
	return env.Notifications, nil
}

// MarkNotificationRead marks one notification as read.
func (c *Client) MarkNotificationRead(ctx context.Context, token, notifID string) error {
	path := fmt.Sprintf("/v1/notifications/%s/read", url.PathEscape(notifID))
	return c.do(ctx, "notifications.mark_read", http.MethodPost, path, token, nil, nil, false)
}

// UnreadCount fetches the number of unread notifications.
func (c *Client) UnreadCount(ctx context.Context, token string) (int, error) {
	var env struct {
		Message string `json:"message"`
		Count   int    `json:"count"`
	}
	if err := c.do(ctx, "notifications.unread", http.MethodGet, "/v1/notifications/unread-count", token, nil, &env, true); err != nil {
		return 0, err
	}
	return env.Count, nil
}
