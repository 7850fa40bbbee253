package service

import (
	"context"

	"github.com/suryadigit/affiliate-gateway/internal/domain"
	"github.com/suryadigit/affiliate-gateway/internal/port"

	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

var adminTracer = otel.Tracer("service/admin")

var validUserStatuses = map[string]struct{}{
	"active":    {},
	"suspended": {},
}

// AdminService fronts the upstream admin surface with role checks. The
// upstream API enforces authorization too; the checks here exist to
// reject obviously unauthorized calls without a round trip.
type AdminService struct {
	api       port.AdminAPI
	dashboard *DashboardService
	logger    *zap.Logger
}

// NewAdminService creates the admin service. dashboard is used to drop a
// member's cached summary after an admin decision changes their balance.
func NewAdminService(api port.AdminAPI, dashboard *DashboardService, logger *zap.Logger) *AdminService {
	return &AdminService{api: api, dashboard: dashboard, logger: logger}
}

func (s *AdminService) requireAdmin(sess *Session) error {
	if sess == nil || sess.User == nil || !sess.User.Role.IsAdmin() {
		return &domain.ErrForbidden{Action: "admin access required"}
	}
	return nil
}

// ListUsers fetches a page of managed users.
func (s *AdminService) ListUsers(ctx context.Context, sess *Session, page, pageSize int) ([]domain.AdminUser, error) {
	if err := s.requireAdmin(sess); err != nil {
		return nil, err
	}
	return s.api.ListUsers(ctx, sess.Token, page, pageSize)
}

// GetUser fetches one managed user.
func (s *AdminService) GetUser(ctx context.Context, sess *Session, userID string) (*domain.AdminUser, error) {
	if err := s.requireAdmin(sess); err != nil {
		return nil, err
	}
	if userID == "" {
		return nil, &domain.ErrValidation{Field: "id", Message: "user id is required"}
	}
	return s.api.GetUser(ctx, sess.Token, userID)
}

// UpdateUserStatus activates or suspends a user. Changing another admin's
// status requires the superadmin role.
func (s *AdminService) UpdateUserStatus(ctx context.Context, sess *Session, userID string, req *domain.UpdateUserStatusRequest) (*domain.AdminUser, error) {
	ctx, span := adminTracer.Start(ctx, "AdminService.UpdateUserStatus")
	defer span.End()

	if err := s.requireAdmin(sess); err != nil {
		return nil, err
	}
	if userID == "" {
		return nil, &domain.ErrValidation{Field: "id", Message: "user id is required"}
	}
	if _, ok := validUserStatuses[req.Status]; !ok {
		return nil, &domain.ErrValidation{Field: "status", Message: "status must be active or suspended"}
	}

	target, err := s.api.GetUser(ctx, sess.Token, userID)
	if err != nil {
		return nil, err
	}
	if target.Role.IsAdmin() && sess.User.Role != domain.RoleSuperAdmin {
		return nil, &domain.ErrForbidden{Action: "only a superadmin can change an admin account"}
	}

	updated, err := s.api.UpdateUserStatus(ctx, sess.Token, userID, req)
	if err != nil {
		return nil, err
	}

	s.logger.Info("user status updated",
		zap.String("admin_id", sess.User.ID),
		zap.String("user_id", userID),
		zap.String("status", req.Status),
	)
	return updated, nil
}

// ListPendingWithdrawals fetches withdrawal requests awaiting a decision.
func (s *AdminService) ListPendingWithdrawals(ctx context.Context, sess *Session, page, pageSize int) ([]domain.Withdrawal, error) {
	if err := s.requireAdmin(sess); err != nil {
		return nil, err
	}
	return s.api.ListPendingWithdrawals(ctx, sess.Token, page, pageSize)
}

// DecideWithdrawal approves or rejects a withdrawal. The owner's cached
// dashboard summary is dropped so their balance reflects the decision.
func (s *AdminService) DecideWithdrawal(ctx context.Context, sess *Session, withdrawalID string, req *domain.WithdrawalDecisionRequest) (*domain.Withdrawal, error) {
	ctx, span := adminTracer.Start(ctx, "AdminService.DecideWithdrawal")
	defer span.End()

	if err := s.requireAdmin(sess); err != nil {
		return nil, err
	}
	if withdrawalID == "" {
		return nil, &domain.ErrValidation{Field: "id", Message: "withdrawal id is required"}
	}
	if req.Decision != "approve" && req.Decision != "reject" {
		return nil, &domain.ErrValidation{Field: "decision", Message: "decision must be approve or reject"}
	}

	w, err := s.api.DecideWithdrawal(ctx, sess.Token, withdrawalID, req)
	if err != nil {
		return nil, err
	}

	if w.UserID != "" {
		s.dashboard.InvalidateUser(w.UserID)
	}
	s.logger.Info("withdrawal decided",
		zap.String("admin_id", sess.User.ID),
		zap.String("withdrawal_id", withdrawalID),
		zap.String("decision", req.Decision),
	)
	return w, nil
}
