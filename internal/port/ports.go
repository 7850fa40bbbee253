// Package port defines the interfaces (ports) for external dependencies.
// Following hexagonal architecture, these ports decouple the service layer
// from the upstream API client and cache implementations.
package port

import (
	"context"

	"github.com/suryadigit/affiliate-gateway/internal/domain"
)

// AuthAPI covers the upstream authentication and profile surface.
type AuthAPI interface {
	Login(ctx context.Context, req *domain.LoginRequest) (*domain.LoginResponse, error)
	Signup(ctx context.Context, req *domain.SignupRequest) (*domain.SignupResponse, error)
	VerifyOTP(ctx context.Context, req *domain.VerifyOTPRequest) (*domain.LoginResponse, error)
	ResendOTP(ctx context.Context, req *domain.ResendOTPRequest) (*domain.SuccessResponse, error)
	GetProfile(ctx context.Context, token string) (*domain.UserProfile, error)
	UpdateProfile(ctx context.Context, token string, req *domain.UpdateProfileRequest) (*domain.UserProfile, error)
	GetMenus(ctx context.Context, token string) (*domain.MenusResponse, error)
}

// DashboardAPI covers the upstream commission, withdrawal, referral and
// notification surface. All business logic lives upstream; the gateway
// consumes these as opaque JSON payloads.
type DashboardAPI interface {
	ListCommissions(ctx context.Context, token string, page, pageSize int) ([]domain.Commission, error)
	GetCommissionSummary(ctx context.Context, token string) (*domain.CommissionSummary, error)
	ListWithdrawals(ctx context.Context, token string, page, pageSize int) ([]domain.Withdrawal, error)
	CreateWithdrawal(ctx context.Context, token string, req *domain.WithdrawalRequest) (*domain.Withdrawal, error)
	ListReferrals(ctx context.Context, token string, page, pageSize int) ([]domain.Referral, error)
	GetReferralStats(ctx context.Context, token string) (*domain.ReferralStats, error)
	ListNotifications(ctx context.Context, token string, unreadOnly bool, page, pageSize int) ([]domain.Notification, error)
	MarkNotificationRead(ctx context.Context, token, notifID string) error
	UnreadCount(ctx context.Context, token string) (int, error)
}

// AdminAPI covers the upstream admin surface.
type AdminAPI interface {
	ListUsers(ctx context.Context, token string, page, pageSize int) ([]domain.AdminUser, error)
	GetUser(ctx context.Context, token, userID string) (*domain.AdminUser, error)
	UpdateUserStatus(ctx context.Context, token, userID string, req *domain.UpdateUserStatusRequest) (*domain.AdminUser, error)
	ListPendingWithdrawals(ctx context.Context, token string, page, pageSize int) ([]domain.Withdrawal, error)
	DecideWithdrawal(ctx context.Context, token, withdrawalID string, req *domain.WithdrawalDecisionRequest) (*domain.Withdrawal, error)
}

// Cache provides generic caching with TTL.
type Cache[T any] interface {
	Get(key string) (T, bool)
	Set(key string, value T)
	Delete(key string)
	DeletePrefix(prefix string)
}

// DependentCache is a cache whose contents depend on the authenticated
// user. The session controller invalidates all dependents on credential
// change and asks them to refetch eagerly after login.
type DependentCache interface {
	InvalidateUser(userID string)
	Prefetch(ctx context.Context, token string, user *domain.UserProfile) error
}
