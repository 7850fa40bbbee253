// Package service — session controller, menu resolution, and the
// dashboard/admin orchestration on top of the upstream affiliate API.
package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/suryadigit/affiliate-gateway/internal/domain"
	"github.com/suryadigit/affiliate-gateway/internal/infra/cache"
	"github.com/suryadigit/affiliate-gateway/internal/infra/kvstore"
	"github.com/suryadigit/affiliate-gateway/internal/infra/observability"
	"github.com/suryadigit/affiliate-gateway/internal/infra/token"
	"github.com/suryadigit/affiliate-gateway/internal/port"

	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

var menuTracer = otel.Tracer("service/menu")

// DefaultIcon replaces unknown icon keys so a menu entry never fails to
// render over an icon name.
const DefaultIcon = "circle-dot"

var knownIcons = map[string]struct{}{
	"dashboard": {}, "coins": {}, "wallet": {}, "users": {},
	"bell": {}, "user": {}, "shield": {}, "report": {},
	"settings": {}, "logout": {}, "circle-dot": {},
}

// FallbackMemberMenus is the static navigation used when neither a cached
// snapshot nor the server can provide menus for a member.
var FallbackMemberMenus = []domain.MenuItem{
	{Label: "Dashboard", Icon: "dashboard", Link: "/dashboard", Order: 1},
	{Label: "Commissions", Icon: "coins", Link: "/commissions", Order: 2},
	{Label: "Withdrawals", Icon: "wallet", Link: "/withdrawals", Order: 3},
	{Label: "Referrals", Icon: "users", Link: "/referrals", Order: 4},
	{Label: "Notifications", Icon: "bell", Link: "/notifications", Order: 5},
	{Label: "Profile", Icon: "user", Link: "/profile", Order: 6},
}

// FallbackAdminMenus is the static admin navigation, also used to fill
// gaps when the server returns an empty admin menu for an admin user.
var FallbackAdminMenus = []domain.MenuItem{
	{Label: "Manage Users", Icon: "shield", Link: "/admin/users", Order: 10},
	{Label: "Approve Withdrawals", Icon: "wallet", Link: "/admin/withdrawals", Order: 11},
	{Label: "Reports", Icon: "report", Link: "/admin/reports", Order: 12},
}

// MenuService resolves the navigation menu for a user from, in order of
// preference: the menu lists embedded in the profile snapshot, a valid
// cached envelope, a fresh upstream fetch, and the static fallback tables.
type MenuService struct {
	api     port.AuthAPI
	cache   *cache.MenuCache
	kv      *kvstore.Store
	metrics *observability.Metrics
	logger  *zap.Logger
}

// NewMenuService creates the menu service.
func NewMenuService(api port.AuthAPI, menuCache *cache.MenuCache, kv *kvstore.Store, metrics *observability.Metrics, logger *zap.Logger) *MenuService {
	return &MenuService{
		api:     api,
		cache:   menuCache,
		kv:      kv,
		metrics: metrics,
		logger:  logger,
	}
}

// StorageKey is the persisted location of the menu envelope for a user.
func (s *MenuService) StorageKey(userID string) string {
	return fmt.Sprintf("user_menus:%s", userID)
}

// Resolve produces the ordered, deduplicated navigation list for the
// user. An empty result is a valid terminal state, not an error.
func (s *MenuService) Resolve(ctx context.Context, bearer string, user *domain.UserProfile) []domain.MenuItem {
	ctx, span := menuTracer.Start(ctx, "MenuService.Resolve")
	defer span.End()

	if user == nil {
		return nil
	}

	base, admin := s.menuLists(ctx, bearer, user)

	lists := [][]domain.MenuItem{base}
	if user.Role.IsAdmin() {
		// Admin entries join the base set; static admin entries fill any
		// gaps the server left, matched by link.
		lists = append(lists, admin, FallbackAdminMenus)
	}

	merged := MergeMenus(lists...)
	for i := range merged {
		merged[i].Icon = normalizeIcon(merged[i].Icon)
	}
	return merged
}

// menuLists picks the base and admin menu sources.
func (s *MenuService) menuLists(ctx context.Context, bearer string, user *domain.UserProfile) (base, admin []domain.MenuItem) {
	// 1. Menu lists embedded in the profile snapshot win: no round trip.
	if len(user.SidebarMenu) > 0 {
		s.metrics.IncrCacheHit("menus")
		return user.SidebarMenu, user.AdminMenu
	}

	// 2. A valid cached envelope is as good as a fetch for 10 seconds.
	if env, ok := s.cachedEnvelope(user.ID); ok {
		s.metrics.IncrCacheHit("menus")
		return env.Menus, env.AdminMenus
	}
	s.metrics.IncrCacheMiss("menus")

	// 3. Fetch fresh menus when we hold a usable token; any failure
	// degrades to the static fallback for the user's role.
	if bearer != "" && !token.IsExpired(bearer) {
		env, err := s.fetchEnvelope(ctx, bearer, user)
		if err == nil {
			return env.Menus, env.AdminMenus
		}
		s.logger.Warn("menu fetch failed, using fallback",
			zap.String("user_id", user.ID),
			zap.Error(err),
		)
		s.metrics.IncrUpstreamError("menus")
	}

	// 4. Static fallback tables.
	if user.Role.IsAdmin() {
		return FallbackMemberMenus, FallbackAdminMenus
	}
	return FallbackMemberMenus, nil
}

// cachedEnvelope checks the in-memory cache, then the persisted snapshot.
// Validity (age under the envelope TTL, matching owner) is enforced on
// every read; malformed persisted payloads are treated as absent.
func (s *MenuService) cachedEnvelope(userID string) (*domain.MenuEnvelope, bool) {
	now := time.Now()
	if env, ok := s.cache.Get(userID, now); ok {
		return env, true
	}

	var env domain.MenuEnvelope
	if !s.kv.GetJSON(s.StorageKey(userID), &env) {
		return nil, false
	}
	if !env.ValidFor(userID, now) {
		return nil, false
	}
	return &env, true
}

// fetchEnvelope fetches menus upstream and applies them under a sequence
// number taken before the request was issued, so a slow response can
// never overwrite the result of a later fetch.
func (s *MenuService) fetchEnvelope(ctx context.Context, bearer string, user *domain.UserProfile) (*domain.MenuEnvelope, error) {
	seq := s.cache.NextSeq()

	resp, err := s.api.GetMenus(ctx, bearer)
	if err != nil {
		return nil, err
	}

	role := resp.Role
	if !role.Valid() {
		role = user.Role
	}

	env := &domain.MenuEnvelope{
		UserID:      user.ID,
		Menus:       resp.Menus,
		AdminMenus:  resp.AdminMenus,
		Permissions: resp.Permissions,
		Role:        role,
		Timestamp:   time.Now().UnixMilli(),
	}

	if s.cache.Apply(seq, env) {
		s.kv.Set(s.StorageKey(user.ID), env)
	}
	return env, nil
}

// InvalidateUser drops the cached envelope for a user. Part of the
// dependent-cache contract used on credential change.
func (s *MenuService) InvalidateUser(userID string) {
	s.cache.Invalidate(userID)
	s.kv.Delete(s.StorageKey(userID))
}

// Prefetch warms the envelope cache after login.
func (s *MenuService) Prefetch(ctx context.Context, bearer string, user *domain.UserProfile) error {
	_, err := s.fetchEnvelope(ctx, bearer, user)
	return err
}

// MergeMenus concatenates the given lists, deduplicates by link (first
// occurrence wins), and sorts ascending by order. The sort is stable, so
// entries with equal order keep their relative input position.
func MergeMenus(lists ...[]domain.MenuItem) []domain.MenuItem {
	seen := make(map[string]struct{})
	var merged []domain.MenuItem
	for _, list := range lists {
		for _, item := range list {
			if _, dup := seen[item.Link]; dup {
				continue
			}
			seen[item.Link] = struct{}{}
			merged = append(merged, item)
		}
	}

	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].Order < merged[j].Order
	})
	return merged
}

func normalizeIcon(icon string) string {
	if icon == "" {
		return DefaultIcon
	}
	if _, ok := knownIcons[icon]; !ok {
		return DefaultIcon
	}
	return icon
}
