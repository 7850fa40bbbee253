// Package token persists bearer tokens and answers advisory expiry
// questions about them. No signature verification happens here: the
// expiry check only decodes the claims segment so the UI can refresh
// proactively. The upstream server remains the authority on validity.
package token

import (
	"fmt"
	"time"

	"github.com/suryadigit/affiliate-gateway/internal/infra/kvstore"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultStorageKey is the base key tokens are persisted under when none
// is configured.
const DefaultStorageKey = "auth_token"

// Store persists one bearer token per session under a configurable base key.
type Store struct {
	kv      *kvstore.Store
	baseKey string
}

// NewStore creates a token store. An empty baseKey falls back to
// DefaultStorageKey.
func NewStore(kv *kvstore.Store, baseKey string) *Store {
	if baseKey == "" {
		baseKey = DefaultStorageKey
	}
	return &Store{kv: kv, baseKey: baseKey}
}

// StorageKey returns the persisted key for a session's token. Exposed so
// the session controller can clear all session artifacts in one write.
func (s *Store) StorageKey(sessionID string) string {
	return fmt.Sprintf("%s:%s", s.baseKey, sessionID)
}

// Save persists the token for a session. Failures are swallowed by the
// underlying store — persistence is best-effort.
func (s *Store) Save(sessionID, token string) {
	s.kv.Set(s.StorageKey(sessionID), token)
}

// Get returns the persisted token for a session.
func (s *Store) Get(sessionID string) (string, bool) {
	var t string
	if !s.kv.GetJSON(s.StorageKey(sessionID), &t) || t == "" {
		return "", false
	}
	return t, true
}

// Clear removes the persisted token for a session.
func (s *Store) Clear(sessionID string) {
	s.kv.Delete(s.StorageKey(sessionID))
}

// Sessions returns the session IDs that have a persisted token.
func (s *Store) Sessions() []string {
	prefix := s.baseKey + ":"
	keys := s.kv.Keys(prefix)
	ids := make([]string, 0, len(keys))
	for _, k := range keys {
		ids = append(ids, k[len(prefix):])
	}
	return ids
}

// IsExpired reports whether the token's exp claim is in the past. A token
// that cannot be decoded, or that carries no exp claim, is treated as
// expired (fail-closed).
func IsExpired(tokenString string) bool {
	return remainingLifetime(tokenString) <= 0
}

// ExpiringWithin reports whether the token's remaining lifetime is in
// (0, d]. An already-expired or undecodable token reports false here;
// IsExpired covers that case.
func ExpiringWithin(tokenString string, d time.Duration) bool {
	remaining := remainingLifetime(tokenString)
	return remaining > 0 && remaining <= d
}

// remainingLifetime decodes the claims segment without verifying the
// signature and returns time until exp. Zero or negative means expired.
func remainingLifetime(tokenString string) time.Duration {
	parser := jwt.NewParser()
	tok, _, err := parser.ParseUnverified(tokenString, jwt.MapClaims{})
	if err != nil {
		return 0
	}
	exp, err := tok.Claims.GetExpirationTime()
	if err != nil || exp == nil {
		return 0
	}
	return time.Until(exp.Time)
}
