package domain

import "time"

// ============================================================
// Dashboard data — commissions, withdrawals, referrals, notifications.
// All computed upstream; the gateway consumes and re-serves them.
// ============================================================

// Commission is a single commission earning entry.
type Commission struct {
	ID           string    `json:"id"`
	UserID       string    `json:"userId"`
	Amount       float64   `json:"amount"`
	Currency     string    `json:"currency"`
	Status       string    `json:"status"` // pending | approved | paid
	Source       string    `json:"source"` // referral level, campaign, ...
	ReferralName string    `json:"referralName,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
}

// CommissionSummary aggregates earnings for the dashboard header cards.
type CommissionSummary struct {
	TotalEarned      float64 `json:"totalEarned"`
	PendingAmount    float64 `json:"pendingAmount"`
	ApprovedAmount   float64 `json:"approvedAmount"`
	PaidAmount       float64 `json:"paidAmount"`
	AvailableBalance float64 `json:"availableBalance"`
	Currency         string  `json:"currency"`
}

// Withdrawal is a withdrawal request and its approval state.
type Withdrawal struct {
	ID          string     `json:"id"`
	UserID      string     `json:"userId"`
	Amount      float64    `json:"amount"`
	Currency    string     `json:"currency"`
	Method      string     `json:"method"` // bank_transfer | wallet
	Account     string     `json:"account,omitempty"`
	Status      string     `json:"status"` // pending | approved | rejected | paid
	Note        string     `json:"note,omitempty"`
	RequestedAt time.Time  `json:"requestedAt"`
	DecidedAt   *time.Time `json:"decidedAt,omitempty"`
	DecidedBy   string     `json:"decidedBy,omitempty"`
}

// WithdrawalRequest is the body for POST /v1/withdrawals.
type WithdrawalRequest struct {
	Amount  float64 `json:"amount"`
	Method  string  `json:"method"`
	Account string  `json:"account,omitempty"`
	// IdempotencyKey is generated by the gateway so a retried submit
	// cannot create a duplicate request upstream.
	IdempotencyKey string `json:"idempotencyKey,omitempty"`
}

// Withdrawal amount bounds enforced before the request is proxied upstream.
const (
	WithdrawalMinAmount = 10.0
	WithdrawalMaxAmount = 100000.0
)

// Referral is one entry in the user's referral list.
type Referral struct {
	ID        string    `json:"id"`
	FullName  string    `json:"fullName"`
	Email     string    `json:"email,omitempty"`
	Level     int       `json:"level"`
	Status    string    `json:"status"` // active | inactive
	JoinedAt  time.Time `json:"joinedAt"`
	EarnedVia float64   `json:"earnedVia,omitempty"`
}

// ReferralStats summarizes the referral hierarchy per level.
type ReferralStats struct {
	TotalReferrals int         `json:"totalReferrals"`
	ActiveCount    int         `json:"activeCount"`
	LevelCounts    map[int]int `json:"levelCounts,omitempty"`
	ReferralCode   string      `json:"referralCode,omitempty"`
}

// Notification is a dashboard notification entry.
type Notification struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	Title     string    `json:"title"`
	Body      string    `json:"body,omitempty"`
	Kind      string    `json:"kind,omitempty"` // commission | withdrawal | system
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"createdAt"`
}

// DashboardSummary is the composite payload behind the landing view.
// Cached per user and invalidated on credential change and on any
// withdrawal mutation.
type DashboardSummary struct {
	Commissions   *CommissionSummary `json:"commissions"`
	ReferralStats *ReferralStats     `json:"referralStats"`
	UnreadCount   int                `json:"unreadCount"`
	FetchedAt     time.Time          `json:"fetchedAt"`
}

// ============================================================
// Admin — user management and withdrawal approval
// ============================================================

// AdminUser is a managed user row in the admin panel.
type AdminUser struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	FullName  string    `json:"fullName"`
	Role      Role      `json:"role"`
	Status    string    `json:"status"` // active | suspended
	Level     int       `json:"level"`
	CreatedAt time.Time `json:"createdAt"`
}

// UpdateUserStatusRequest is the body for PUT /v1/admin/users/{id}/status.
type UpdateUserStatusRequest struct {
	Status string `json:"status"`
	Reason string `json:"reason,omitempty"`
}

// WithdrawalDecisionRequest is the body for PUT /v1/admin/withdrawals/{id}.
type WithdrawalDecisionRequest struct {
	Decision string `json:"decision"` // approve | reject
	Note     string `json:"note,omitempty"`
}
