package domain

// ============================================================
// Auth — Request / Response types (matches the dashboard API contract)
// ============================================================

// LoginRequest is the body for POST /v1/users/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse is the body for 200 from POST /v1/users/login.
type LoginResponse struct {
	Message string       `json:"message"`
	Token   string       `json:"token"`
	User    *UserProfile `json:"user"`
}

// SignupRequest is the body for POST /v1/users/signup.
type SignupRequest struct {
	Email        string `json:"email"`
	FullName     string `json:"fullName"`
	Phone        string `json:"phone,omitempty"`
	Password     string `json:"password"`
	ReferralCode string `json:"referralCode,omitempty"`
}

// SignupResponse is the body for 201 from POST /v1/users/signup.
type SignupResponse struct {
	Message string `json:"message"`
	UserID  string `json:"userId,omitempty"`
}

// VerifyOTPRequest is the body for POST /v1/users/verify-otp.
// A successful verification returns the same payload as login.
type VerifyOTPRequest struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}

// ResendOTPRequest is the body for POST /v1/users/resend-otp.
type ResendOTPRequest struct {
	Email string `json:"email"`
}

// UpdateProfileRequest is the body for PUT /v1/users/profile.
type UpdateProfileRequest struct {
	FullName string `json:"fullName,omitempty"`
	Phone    string `json:"phone,omitempty"`
}

// MenusResponse is the body for 200 from GET /v1/users/menus.
type MenusResponse struct {
	Message     string     `json:"message,omitempty"`
	Menus       []MenuItem `json:"menus"`
	AdminMenus  []MenuItem `json:"adminMenus,omitempty"`
	Permissions []string   `json:"permissions,omitempty"`
	Role        Role       `json:"role,omitempty"`
}

// SessionStatus is the gateway's view of a session, served to the SPA so a
// header or sidebar can recompute derived state after a change event.
type SessionStatus struct {
	State         string       `json:"state"`
	Authenticated bool         `json:"authenticated"`
	User          *UserProfile `json:"user,omitempty"`
	Error         string       `json:"error,omitempty"`
}
