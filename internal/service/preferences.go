package service

import (
	"fmt"

	"github.com/suryadigit/affiliate-gateway/internal/domain"
	"github.com/suryadigit/affiliate-gateway/internal/infra/bus"
	"github.com/suryadigit/affiliate-gateway/internal/infra/kvstore"
)

// PreferencesStore persists per-user UI preferences. Each preference is
// kept under its own key so a partial update never clobbers the others.
type PreferencesStore struct {
	kv  *kvstore.Store
	bus *bus.Bus
}

// NewPreferencesStore creates the preferences store.
func NewPreferencesStore(kv *kvstore.Store, b *bus.Bus) *PreferencesStore {
	return &PreferencesStore{kv: kv, bus: b}
}

// Keys returns every persisted preference key for a user, for bulk clears.
func (p *PreferencesStore) Keys(userID string) []string {
	return []string{
		fmt.Sprintf("sidebar_state:%s", userID),
		fmt.Sprintf("sidebar_width:%s", userID),
		fmt.Sprintf("theme:%s", userID),
	}
}

// Get reads the user's preferences. Missing or unreadable values come
// back as zero values; callers apply their own defaults.
func (p *PreferencesStore) Get(userID string) domain.Preferences {
	var prefs domain.Preferences
	p.kv.GetJSON(fmt.Sprintf("sidebar_state:%s", userID), &prefs.SidebarState)
	p.kv.GetJSON(fmt.Sprintf("sidebar_width:%s", userID), &prefs.SidebarWidth)
	p.kv.GetJSON(fmt.Sprintf("theme:%s", userID), &prefs.Theme)
	return prefs
}

// Set persists the user's preferences and announces the change so other
// connected views can pick it up.
func (p *PreferencesStore) Set(userID string, prefs domain.Preferences) {
	p.kv.Set(fmt.Sprintf("sidebar_state:%s", userID), prefs.SidebarState)
	p.kv.Set(fmt.Sprintf("sidebar_width:%s", userID), prefs.SidebarWidth)
	p.kv.Set(fmt.Sprintf("theme:%s", userID), prefs.Theme)
	p.bus.Publish(bus.Event{Kind: bus.KindPreferencesUpdated, UserID: userID})
}
