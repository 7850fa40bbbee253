package service

import (
	"context"
	"fmt"
	"time"

	"github.com/suryadigit/affiliate-gateway/internal/domain"
	"github.com/suryadigit/affiliate-gateway/internal/infra/cache"
	"github.com/suryadigit/affiliate-gateway/internal/infra/observability"
	"github.com/suryadigit/affiliate-gateway/internal/port"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var dashboardTracer = otel.Tracer("service/dashboard")

// DashboardService serves the member-facing dashboard data: commissions,
// withdrawals, referrals and notifications. The aggregated summary is
// cached per user; list endpoints always hit upstream.
type DashboardService struct {
	api     port.DashboardAPI
	summary *cache.InMemory[*domain.DashboardSummary]
	metrics *observability.Metrics
	logger  *zap.Logger
}

// NewDashboardService creates the dashboard service. ttl bounds how stale
// the cached summary may get.
func NewDashboardService(api port.DashboardAPI, ttl time.Duration, metrics *observability.Metrics, logger *zap.Logger) *DashboardService {
	return &DashboardService{
		api:     api,
		summary: cache.New[*domain.DashboardSummary](ttl),
		metrics: metrics,
		logger:  logger,
	}
}

func summaryKey(userID string) string {
	return fmt.Sprintf("dashboard:%s", userID)
}

// Summary aggregates commission totals, referral stats and the unread
// notification count in one round. The three upstream calls run
// concurrently and the first failure cancels the rest.
func (s *DashboardService) Summary(ctx context.Context, sess *Session) (*domain.DashboardSummary, error) {
	ctx, span := dashboardTracer.Start(ctx, "DashboardService.Summary")
	defer span.End()

	key := summaryKey(sess.User.ID)
	if cached, ok := s.summary.Get(key); ok {
		s.metrics.IncrCacheHit("dashboard")
		return cached, nil
	}
	s.metrics.IncrCacheMiss("dashboard")

	out := &domain.DashboardSummary{FetchedAt: time.Now()}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		cs, err := s.api.GetCommissionSummary(gctx, sess.Token)
		if err != nil {
			return err
		}
		out.Commissions = cs
		return nil
	})
	g.Go(func() error {
		rs, err := s.api.GetReferralStats(gctx, sess.Token)
		if err != nil {
			return err
		}
		out.ReferralStats = rs
		return nil
	})
	g.Go(func() error {
		n, err := s.api.UnreadCount(gctx, sess.Token)
		if err != nil {
			return err
		}
		out.UnreadCount = n
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	s.summary.Set(key, out)
	return out, nil
}

// ListCommissions passes a commission page through.
func (s *DashboardService) ListCommissions(ctx context.Context, sess *Session, page, pageSize int) ([]domain.Commission, error) {
	return s.api.ListCommissions(ctx, sess.Token, page, pageSize)
}

// ListWithdrawals passes a withdrawal page through.
func (s *DashboardService) ListWithdrawals(ctx context.Context, sess *Session, page, pageSize int) ([]domain.Withdrawal, error) {
	return s.api.ListWithdrawals(ctx, sess.Token, page, pageSize)
}

// CreateWithdrawal validates the request bounds, attaches an idempotency
// key and submits it. The cached summary is dropped on success because
// the available balance changed.
func (s *DashboardService) CreateWithdrawal(ctx context.Context, sess *Session, req *domain.WithdrawalRequest) (*domain.Withdrawal, error) {
	ctx, span := dashboardTracer.Start(ctx, "DashboardService.CreateWithdrawal")
	defer span.End()

	if req.Amount < domain.WithdrawalMinAmount {
		return nil, &domain.ErrValidation{
			Field:   "amount",
			Message: fmt.Sprintf("amount must be at least %.0f", domain.WithdrawalMinAmount),
		}
	}
	if req.Amount > domain.WithdrawalMaxAmount {
		return nil, &domain.ErrValidation{
			Field:   "amount",
			Message: fmt.Sprintf("amount must not exceed %.0f", domain.WithdrawalMaxAmount),
		}
	}
	if req.Method == "" || req.Account == "" {
		return nil, &domain.ErrValidation{Field: "method", Message: "payout method and account are required"}
	}
	// When a fresh summary is cached the balance is known; reject
	// overdraws here instead of bouncing them off upstream. Upstream
	// remains the authority when no summary is cached.
	if cached, ok := s.summary.Get(summaryKey(sess.User.ID)); ok &&
		cached.Commissions != nil && req.Amount > cached.Commissions.AvailableBalance {
		return nil, &domain.ErrValidation{
			Field:   "amount",
			Message: fmt.Sprintf("amount exceeds available balance of %.2f", cached.Commissions.AvailableBalance),
		}
	}
	if req.IdempotencyKey == "" {
		req.IdempotencyKey = uuid.New().String()
	}

	w, err := s.api.CreateWithdrawal(ctx, sess.Token, req)
	if err != nil {
		return nil, err
	}

	s.summary.Delete(summaryKey(sess.User.ID))
	s.logger.Info("withdrawal submitted",
		zap.String("user_id", sess.User.ID),
		zap.String("withdrawal_id", w.ID),
		zap.Float64("amount", w.Amount),
	)
	return w, nil
}

// ListReferrals passes a referral page through.
func (s *DashboardService) ListReferrals(ctx context.Context, sess *Session, page, pageSize int) ([]domain.Referral, error) {
	return s.api.ListReferrals(ctx, sess.Token, page, pageSize)
}

// ListNotifications passes a notification page through.
func (s *DashboardService) ListNotifications(ctx context.Context, sess *Session, unreadOnly bool, page, pageSize int) ([]domain.Notification, error) {
	return s.api.ListNotifications(ctx, sess.Token, unreadOnly, page, pageSize)
}

// MarkNotificationRead marks one notification read and drops the cached
// summary so the unread count is recomputed.
func (s *DashboardService) MarkNotificationRead(ctx context.Context, sess *Session, notifID string) error {
	if notifID == "" {
		return &domain.ErrValidation{Field: "id", Message: "notification id is required"}
	}
	if err := s.api.MarkNotificationRead(ctx, sess.Token, notifID); err != nil {
		return err
	}
	s.summary.Delete(summaryKey(sess.User.ID))
	return nil
}

// InvalidateUser drops the cached summary for a user. Part of the
// dependent-cache contract used on credential change.
func (s *DashboardService) InvalidateUser(userID string) {
	s.summary.Delete(summaryKey(userID))
}

// Prefetch warms the summary cache after login.
func (s *DashboardService) Prefetch(ctx context.Context, bearer string, user *domain.UserProfile) error {
	sess := &Session{Token: bearer, User: user, State: StateAuthenticated}
	_, err := s.Summary(ctx, sess)
	return err
}
