package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/suryadigit/affiliate-gateway/internal/domain"
	"github.com/suryadigit/affiliate-gateway/internal/infra/cache"
	"github.com/suryadigit/affiliate-gateway/internal/infra/kvstore"
	"github.com/suryadigit/affiliate-gateway/internal/infra/observability"
	"github.com/suryadigit/affiliate-gateway/internal/service"

	"go.uber.org/zap"
)

func newMenuService(api *mockAuthAPI) *service.MenuService {
	return service.NewMenuService(api, cache.NewMenuCache(), kvstore.NewMemory(), observability.NewMetrics(), zap.NewNop())
}

func links(items []domain.MenuItem) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.Link
	}
	return out
}

func TestMergeMenus_DedupeByLink(t *testing.T) {
	merged := service.MergeMenus(
		[]domain.MenuItem{{Label: "First", Link: "/a", Order: 1}},
		[]domain.MenuItem{{Label: "Second", Link: "/a", Order: 5}, {Label: "B", Link: "/b", Order: 2}},
	)

	if len(merged) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(merged))
	}
	if merged[0].Label != "First" {
		t.Errorf("expected first occurrence to win, got %s", merged[0].Label)
	}
}

func TestMergeMenus_SortsByOrder(t *testing.T) {
	merged := service.MergeMenus([]domain.MenuItem{
		{Link: "/a", Order: 2},
		{Link: "/b", Order: 1},
	})

	got := links(merged)
	if got[0] != "/b" || got[1] != "/a" {
		t.Errorf("expected [/b /a], got %v", got)
	}
}

func TestMergeMenus_StableForEqualOrder(t *testing.T) {
	merged := service.MergeMenus([]domain.MenuItem{
		{Link: "/x", Order: 3},
		{Link: "/y", Order: 3},
		{Link: "/z", Order: 3},
	})

	got := links(merged)
	want := []string{"/x", "/y", "/z"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected stable order %v, got %v", want, got)
		}
	}
}

func TestResolve_ProfileMenusWin(t *testing.T) {
	api := &mockAuthAPI{}
	svc := newMenuService(api)

	user := memberProfile("u1")
	user.SidebarMenu = []domain.MenuItem{{Label: "Home", Icon: "dashboard", Link: "/home", Order: 1}}

	items := svc.Resolve(context.Background(), liveToken(time.Hour), user)

	if len(items) != 1 || items[0].Link != "/home" {
		t.Fatalf("expected profile menus to be used, got %v", links(items))
	}
	if api.menuCalls.Load() != 0 {
		t.Error("expected no upstream fetch when the profile carries menus")
	}
}

func TestResolve_FetchesWhenProfileEmpty(t *testing.T) {
	api := &mockAuthAPI{
		menusResp: &domain.MenusResponse{
			Menus: []domain.MenuItem{{Label: "Served", Icon: "dashboard", Link: "/served", Order: 1}},
			Role:  domain.RoleMember,
		},
	}
	svc := newMenuService(api)

	items := svc.Resolve(context.Background(), liveToken(time.Hour), memberProfile("u1"))

	if len(items) != 1 || items[0].Link != "/served" {
		t.Fatalf("expected fetched menus, got %v", links(items))
	}
	if api.menuCalls.Load() != 1 {
		t.Errorf("expected exactly one fetch, got %d", api.menuCalls.Load())
	}

	// Second resolve within the envelope TTL reuses the cache.
	svc.Resolve(context.Background(), liveToken(time.Hour), memberProfile("u1"))
	if api.menuCalls.Load() != 1 {
		t.Errorf("expected cached envelope reuse, got %d fetches", api.menuCalls.Load())
	}
}

func TestResolve_FallbackOnFetchFailure(t *testing.T) {
	api := &mockAuthAPI{menusErr: &domain.ErrTimeout{Operation: "users.menus"}}
	svc := newMenuService(api)

	items := svc.Resolve(context.Background(), liveToken(time.Hour), memberProfile("u1"))

	if len(items) != len(service.FallbackMemberMenus) {
		t.Fatalf("expected fallback menus, got %v", links(items))
	}
	if items[0].Link != "/dashboard" {
		t.Errorf("expected fallback to start at /dashboard, got %s", items[0].Link)
	}
}

func TestResolve_FallbackWithoutToken(t *testing.T) {
	api := &mockAuthAPI{}
	svc := newMenuService(api)

	items := svc.Resolve(context.Background(), "", memberProfile("u1"))

	if len(items) != len(service.FallbackMemberMenus) {
		t.Fatalf("expected fallback menus, got %v", links(items))
	}
	if api.menuCalls.Load() != 0 {
		t.Error("expected no fetch without a token")
	}
}

func TestResolve_AdminGapFill(t *testing.T) {
	api := &mockAuthAPI{
		menusResp: &domain.MenusResponse{
			Menus: []domain.MenuItem{{Label: "Dashboard", Icon: "dashboard", Link: "/dashboard", Order: 1}},
			AdminMenus: []domain.MenuItem{
				// Server provides one admin entry that overlaps a fallback link.
				{Label: "Users (server)", Icon: "shield", Link: "/admin/users", Order: 10},
			},
			Role: domain.RoleAdmin,
		},
	}
	svc := newMenuService(api)

	items := svc.Resolve(context.Background(), liveToken(time.Hour), adminProfile("a1"))

	got := map[string]domain.MenuItem{}
	for _, it := range items {
		if _, dup := got[it.Link]; dup {
			t.Fatalf("duplicate link %s in %v", it.Link, links(items))
		}
		got[it.Link] = it
	}

	if _, ok := got["/admin/withdrawals"]; !ok {
		t.Error("expected fallback to fill the missing /admin/withdrawals entry")
	}
	if got["/admin/users"].Label != "Users (server)" {
		t.Error("expected the server's admin entry to win over the fallback")
	}
}

func TestResolve_MemberGetsNoAdminMenus(t *testing.T) {
	api := &mockAuthAPI{
		menusResp: &domain.MenusResponse{
			Menus:      []domain.MenuItem{{Label: "Dashboard", Icon: "dashboard", Link: "/dashboard", Order: 1}},
			AdminMenus: []domain.MenuItem{{Label: "Users", Icon: "shield", Link: "/admin/users", Order: 10}},
			Role:       domain.RoleMember,
		},
	}
	svc := newMenuService(api)

	items := svc.Resolve(context.Background(), liveToken(time.Hour), memberProfile("u1"))

	for _, it := range items {
		if it.Link == "/admin/users" {
			t.Fatal("expected admin entries to be excluded for a member")
		}
	}
}

func TestResolve_UnknownIconDegrades(t *testing.T) {
	api := &mockAuthAPI{}
	svc := newMenuService(api)

	user := memberProfile("u1")
	user.SidebarMenu = []domain.MenuItem{{Label: "X", Icon: "no-such-icon", Link: "/x", Order: 1}}

	items := svc.Resolve(context.Background(), liveToken(time.Hour), user)

	if items[0].Icon != service.DefaultIcon {
		t.Errorf("expected unknown icon to degrade to %s, got %s", service.DefaultIcon, items[0].Icon)
	}
}

func TestResolve_EmptyListIsValid(t *testing.T) {
	api := &mockAuthAPI{
		menusResp: &domain.MenusResponse{Role: domain.RoleMember},
	}
	svc := newMenuService(api)

	items := svc.Resolve(context.Background(), liveToken(time.Hour), memberProfile("u1"))

	// Upstream answered with an empty list; that is a terminal state, not
	// a reason to substitute the fallback.
	if len(items) != 0 {
		t.Errorf("expected empty menu list, got %v", links(items))
	}
}

func TestInvalidateUser_DropsEnvelope(t *testing.T) {
	api := &mockAuthAPI{
		menusResp: &domain.MenusResponse{
			Menus: []domain.MenuItem{{Label: "Served", Icon: "dashboard", Link: "/served", Order: 1}},
			Role:  domain.RoleMember,
		},
	}
	svc := newMenuService(api)

	svc.Resolve(context.Background(), liveToken(time.Hour), memberProfile("u1"))
	svc.InvalidateUser("u1")
	svc.Resolve(context.Background(), liveToken(time.Hour), memberProfile("u1"))

	if api.menuCalls.Load() != 2 {
		t.Errorf("expected a fresh fetch after invalidation, got %d calls", api.menuCalls.Load())
	}
}
