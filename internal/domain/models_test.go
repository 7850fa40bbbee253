package domain_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/suryadigit/affiliate-gateway/internal/domain"
)

func TestRole_Valid(t *testing.T) {
	for _, r := range []domain.Role{domain.RoleMember, domain.RoleAdmin, domain.RoleSuperAdmin} {
		if !r.Valid() {
			t.Errorf("expected %s to be valid", r)
		}
	}
	for _, r := range []domain.Role{"", "member", "ROOT", "Admin"} {
		if r.Valid() {
			t.Errorf("expected %q to be invalid", r)
		}
	}
}

func TestRole_IsAdmin(t *testing.T) {
	if domain.RoleMember.IsAdmin() {
		t.Error("member must not be admin")
	}
	if !domain.RoleAdmin.IsAdmin() || !domain.RoleSuperAdmin.IsAdmin() {
		t.Error("admin roles must report admin")
	}
}

func TestRole_UnmarshalRejectsUnknown(t *testing.T) {
	var p domain.UserProfile
	err := json.Unmarshal([]byte(`{"id":"u1","role":"HACKER"}`), &p)
	if err == nil {
		t.Fatal("expected unknown role to fail decoding")
	}

	if err := json.Unmarshal([]byte(`{"id":"u1","role":"ADMIN"}`), &p); err != nil {
		t.Fatalf("expected known role to decode, got %v", err)
	}
	if p.Role != domain.RoleAdmin {
		t.Errorf("expected ADMIN, got %s", p.Role)
	}
}

func TestMenuEnvelope_ValidFor(t *testing.T) {
	now := time.Now()
	env := &domain.MenuEnvelope{
		UserID:    "u1",
		Role:      domain.RoleMember,
		Timestamp: now.UnixMilli(),
	}

	if !env.ValidFor("u1", now) {
		t.Error("expected a fresh envelope to be valid for its owner")
	}
	if env.ValidFor("u2", now) {
		t.Error("expected envelope to be invalid for another user")
	}
	if env.ValidFor("u1", now.Add(domain.MenuEnvelopeTTL)) {
		t.Error("expected envelope to be stale past the TTL")
	}
	if env.ValidFor("u1", now.Add(-time.Second)) {
		t.Error("expected an envelope stamped in the future to be invalid")
	}

	var nilEnv *domain.MenuEnvelope
	if nilEnv.ValidFor("u1", now) {
		t.Error("expected nil envelope to be invalid")
	}

	env.Role = ""
	if env.ValidFor("u1", now) {
		t.Error("expected an envelope without a valid role to be invalid")
	}
}
