package service_test

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/suryadigit/affiliate-gateway/internal/domain"

	"github.com/golang-jwt/jwt/v5"
)

// --- Mocks ---

type mockAuthAPI struct {
	loginResp   *domain.LoginResponse
	loginErr    error
	profile     *domain.UserProfile
	profileErr  error
	menusResp   *domain.MenusResponse
	menusErr    error
	menuCalls   atomic.Int32
	updateResp  *domain.UserProfile
	updateErr   error
	signupResp  *domain.SignupResponse
	signupErr   error
	otpResp     *domain.LoginResponse
	otpErr      error
	resendResp  *domain.SuccessResponse
	resendErr   error
}

func (m *mockAuthAPI) Login(_ context.Context, _ *domain.LoginRequest) (*domain.LoginResponse, error) {
	return m.loginResp, m.loginErr
}

func (m *mockAuthAPI) Signup(_ context.Context, _ *domain.SignupRequest) (*domain.SignupResponse, error) {
	return m.signupResp, m.signupErr
}

func (m *mockAuthAPI) VerifyOTP(_ context.Context, _ *domain.VerifyOTPRequest) (*domain.LoginResponse, error) {
	return m.otpResp, m.otpErr
}

func (m *mockAuthAPI) ResendOTP(_ context.Context, _ *domain.ResendOTPRequest) (*domain.SuccessResponse, error) {
	return m.resendResp, m.resendErr
}

func (m *mockAuthAPI) GetProfile(_ context.Context, _ string) (*domain.UserProfile, error) {
	return m.profile, m.profileErr
}

func (m *mockAuthAPI) UpdateProfile(_ context.Context, _ string, _ *domain.UpdateProfileRequest) (*domain.UserProfile, error) {
	return m.updateResp, m.updateErr
}

func (m *mockAuthAPI) GetMenus(_ context.Context, _ string) (*domain.MenusResponse, error) {
	m.menuCalls.Add(1)
	return m.menusResp, m.menusErr
}

type mockDashboardAPI struct {
	commissions  []domain.Commission
	summary      *domain.CommissionSummary
	summaryErr   error
	summaryCalls atomic.Int32
	withdrawals  []domain.Withdrawal
	created      *domain.Withdrawal
	createErr    error
	referrals    []domain.Referral
	stats        *domain.ReferralStats
	statsErr     error
	notifs       []domain.Notification
	unread       int
	unreadErr    error
	listErr      error
}

func (m *mockDashboardAPI) ListCommissions(_ context.Context, _ string, _, _ int) ([]domain.Commission, error) {
	return m.commissions, m.listErr
}

func (m *mockDashboardAPI) GetCommissionSummary(_ context.Context, _ string) (*domain.CommissionSummary, error) {
	m.summaryCalls.Add(1)
	return m.summary, m.summaryErr
}

func (m *mockDashboardAPI) ListWithdrawals(_ context.Context, _ string, _, _ int) ([]domain.Withdrawal, error) {
	return m.withdrawals, m.listErr
}

func (m *mockDashboardAPI) CreateWithdrawal(_ context.Context, _ string, _ *domain.WithdrawalRequest) (*domain.Withdrawal, error) {
	return m.created, m.createErr
}

func (m *mockDashboardAPI) ListReferrals(_ context.Context, _ string, _, _ int) ([]domain.Referral, error) {
	return m.referrals, m.listErr
}

func (m *mockDashboardAPI) GetReferralStats(_ context.Context, _ string) (*domain.ReferralStats, error) {
	return m.stats, m.statsErr
}

func (m *mockDashboardAPI) ListNotifications(_ context.Context, _ string, _ bool, _, _ int) ([]domain.Notification, error) {
	return m.notifs, m.listErr
}

func (m *mockDashboardAPI) MarkNotificationRead(_ context.Context, _, _ string) error {
	return m.listErr
}

func (m *mockDashboardAPI) UnreadCount(_ context.Context, _ string) (int, error) {
	return m.unread, m.unreadErr
}

type mockAdminAPI struct {
	users     []domain.AdminUser
	user      *domain.AdminUser
	userErr   error
	updated   *domain.AdminUser
	updateErr error
	pending   []domain.Withdrawal
	decided   *domain.Withdrawal
	decideErr error
}

func (m *mockAdminAPI) ListUsers(_ context.Context, _ string, _, _ int) ([]domain.AdminUser, error) {
	return m.users, nil
}

func (m *mockAdminAPI) GetUser(_ context.Context, _, _ string) (*domain.AdminUser, error) {
	return m.user, m.userErr
}

func (m *mockAdminAPI) UpdateUserStatus(_ context.Context, _, _ string, _ *domain.UpdateUserStatusRequest) (*domain.AdminUser, error) {
	return m.updated, m.updateErr
}

func (m *mockAdminAPI) ListPendingWithdrawals(_ context.Context, _ string, _, _ int) ([]domain.Withdrawal, error) {
	return m.pending, nil
}

func (m *mockAdminAPI) DecideWithdrawal(_ context.Context, _, _ string, _ *domain.WithdrawalDecisionRequest) (*domain.Withdrawal, error) {
	return m.decided, m.decideErr
}

// --- Fixtures ---

func memberProfile(id string) *domain.UserProfile {
	return &domain.UserProfile{
		ID:       id,
		Email:    id + "@example.com",
		FullName: "Member " + id,
		Role:     domain.RoleMember,
		Level:    1,
	}
}

func adminProfile(id string) *domain.UserProfile {
	p := memberProfile(id)
	p.Role = domain.RoleAdmin
	return p
}

func liveToken(exp time.Duration) string {
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"exp": time.Now().Add(exp).Unix(),
	})
	s, _ := tok.SignedString([]byte("test-secret"))
	return s
}
