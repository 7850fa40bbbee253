package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

// ============================================================
// Roles
// ============================================================

// Role is the access level of a dashboard user. It is a closed set;
// anything else read from storage or the wire is rejected at the boundary
// rather than trusted.
type Role string

const (
	RoleMember     Role = "MEMBER"
	RoleAdmin      Role = "ADMIN"
	RoleSuperAdmin Role = "SUPERADMIN"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleMember, RoleAdmin, RoleSuperAdmin:
		return true
	}
	return false
}

// IsAdmin reports whether the role grants access to the admin menu and
// admin routes.
func (r Role) IsAdmin() bool {
	return r == RoleAdmin || r == RoleSuperAdmin
}

// UnmarshalJSON validates the role while decoding. Malformed cached
// payloads fail here instead of flowing through the system untyped.
func (r *Role) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	role := Role(s)
	if !role.Valid() {
		return fmt.Errorf("unknown role %q", s)
	}
	*r = role
	return nil
}

// ============================================================
// User profile
// ============================================================

// UserProfile is the authenticated user as returned by the upstream API.
// It is replaced wholesale on every refresh and destroyed on logout.
type UserProfile struct {
	ID            string     `json:"id"`
	Email         string     `json:"email"`
	FullName      string     `json:"fullName"`
	Role          Role       `json:"role"`
	Phone         string     `json:"phone,omitempty"`
	EmailVerified bool       `json:"emailVerified"`
	PhoneVerified bool       `json:"phoneVerified"`
	Level         int        `json:"level"`
	SidebarMenu   []MenuItem `json:"sidebarMenu,omitempty"`
	AdminMenu     []MenuItem `json:"adminMenu,omitempty"`
}

// ============================================================
// Menus
// ============================================================

// MenuItem is a single navigation entry. Entries are deduplicated by Link
// (first occurrence wins) and sorted ascending by Order with input order
// preserved on ties.
type MenuItem struct {
	ID                 string `json:"id,omitempty"`
	Label              string `json:"label"`
	Icon               string `json:"icon,omitempty"`
	Link               string `json:"link"`
	Order              int    `json:"order,omitempty"`
	RequiredPermission string `json:"requiredPermission,omitempty"`
}

// MenuEnvelope wraps cached menu lists with the metadata used to judge
// validity before reuse.
type MenuEnvelope struct {
	UserID      string     `json:"userId"`
	Menus       []MenuItem `json:"menus"`
	AdminMenus  []MenuItem `json:"adminMenus,omitempty"`
	Permissions []string   `json:"permissions,omitempty"`
	Role        Role       `json:"role"`
	Timestamp   int64      `json:"timestamp"` // unix milliseconds at write time
}

// MenuEnvelopeTTL is how long a cached menu envelope stays reusable.
const MenuEnvelopeTTL = 10 * time.Second

// ValidFor reports whether the envelope may be reused for the given user
// at the given instant. Stale or foreign envelopes are discarded and a
// fresh fetch is required.
func (e *MenuEnvelope) ValidFor(userID string, now time.Time) bool {
	if e == nil || e.UserID == "" || e.UserID != userID {
		return false
	}
	if !e.Role.Valid() {
		return false
	}
	age := now.UnixMilli() - e.Timestamp
	return age >= 0 && age < MenuEnvelopeTTL.Milliseconds()
}

// ============================================================
// UI preferences
// ============================================================

// Preferences holds per-user presentation state persisted across reloads.
type Preferences struct {
	SidebarState string `json:"sidebarState,omitempty"` // "expanded" | "collapsed"
	SidebarWidth int    `json:"sidebarWidth,omitempty"`
	Theme        string `json:"theme,omitempty"` // "light" | "dark"
}

// ============================================================
// Shared response types
// ============================================================

// SuccessResponse is the generic { message } envelope.
type SuccessResponse struct {
	Message string `json:"message"`
}
