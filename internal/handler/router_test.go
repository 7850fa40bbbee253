package handler_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/suryadigit/affiliate-gateway/internal/config"
	"github.com/suryadigit/affiliate-gateway/internal/domain"
	"github.com/suryadigit/affiliate-gateway/internal/handler"
	"github.com/suryadigit/affiliate-gateway/internal/infra/bus"
	"github.com/suryadigit/affiliate-gateway/internal/infra/cache"
	"github.com/suryadigit/affiliate-gateway/internal/infra/kvstore"
	"github.com/suryadigit/affiliate-gateway/internal/infra/observability"
	"github.com/suryadigit/affiliate-gateway/internal/infra/report"
	"github.com/suryadigit/affiliate-gateway/internal/infra/resilience"
	"github.com/suryadigit/affiliate-gateway/internal/infra/token"
	"github.com/suryadigit/affiliate-gateway/internal/infra/upstream"
	"github.com/suryadigit/affiliate-gateway/internal/service"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

func mintToken(t *testing.T) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "u1",
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	s, err := tok.SignedString([]byte("upstream-secret"))
	if err != nil {
		t.Fatal(err)
	}
	return s
}

// fakeUpstream imitates the affiliate backend API surface the gateway
// consumes.
func fakeUpstream(t *testing.T, bearer string, user *domain.UserProfile) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	writeJSON := func(w http.ResponseWriter, status int, v any) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(v)
	}
	authorized := func(w http.ResponseWriter, r *http.Request) bool {
		if r.Header.Get("Authorization") != "Bearer "+bearer {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Token expired"})
			return false
		}
		return true
	}
	// Method-prefixed ServeMux patterns need Go 1.22; emulate them so the
	// fake upstream also works on a Go 1.21 toolchain.
	handle := func(method, path string, h http.HandlerFunc) {
		mux.HandleFunc(path, func(w http.ResponseWriter, r *http.Request) {
			if r.Method != method {
				http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
				return
			}
			h(w, r)
		})
	}

	handle(http.MethodPost, "/v1/users/login", func(w http.ResponseWriter, r *http.Request) {
		var req domain.LoginRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		if req.Password != "secret" {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid email or password"})
			return
		}
		writeJSON(w, http.StatusOK, domain.LoginResponse{Message: "ok", Token: bearer, User: user})
	})
	handle(http.MethodGet, "/v1/users/profile", func(w http.ResponseWriter, r *http.Request) {
		if !authorized(w, r) {
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"message": "profile", "user": user})
	})
	handle(http.MethodGet, "/v1/users/menus", func(w http.ResponseWriter, r *http.Request) {
		if !authorized(w, r) {
			return
		}
		writeJSON(w, http.StatusOK, domain.MenusResponse{
			Message: "menus",
			Menus: []domain.MenuItem{
				{Label: "Referrals", Icon: "users", Link: "/referrals", Order: 2},
				{Label: "Dashboard", Icon: "dashboard", Link: "/dashboard", Order: 1},
			},
			Role: user.Role,
		})
	})
	handle(http.MethodGet, "/v1/commissions/summary", func(w http.ResponseWriter, r *http.Request) {
		if !authorized(w, r) {
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"message": "summary",
			"summary": domain.CommissionSummary{TotalEarned: 900, AvailableBalance: 250, Currency: "USD"},
		})
	})
	handle(http.MethodGet, "/v1/referrals/stats", func(w http.ResponseWriter, r *http.Request) {
		if !authorized(w, r) {
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"message": "stats",
			"stats":   domain.ReferralStats{TotalReferrals: 4, ActiveCount: 3},
		})
	})
	handle(http.MethodGet, "/v1/notifications/unread-count", func(w http.ResponseWriter, r *http.Request) {
		if !authorized(w, r) {
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"message": "count", "count": 2})
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newGateway(t *testing.T, upstreamURL string) http.Handler {
	t.Helper()

	cfg := config.Load()
	cfg.UpstreamURL = upstreamURL
	logger := zap.NewNop()

	metrics := observability.NewMetrics()
	kv := kvstore.NewMemory()
	tokens := token.NewStore(kv, cfg.TokenStorageKey)
	menuCache := cache.NewMenuCache()
	changeBus := bus.New()
	reporter := report.NewReporter(cfg.ErrorLogSize, logger)

	resilienceCfg := resilience.Config{MaxRetries: 1, InitialBackoff: time.Millisecond, MaxConcurrency: 10}
	cb := resilience.NewCircuitBreaker("test")
	api := upstream.NewClient(&http.Client{Timeout: 2 * time.Second}, upstreamURL, cb, resilienceCfg, logger)

	menuSvc := service.NewMenuService(api, menuCache, kv, metrics, logger)
	dashboardSvc := service.NewDashboardService(api, time.Minute, metrics, logger)
	prefs := service.NewPreferencesStore(kv, changeBus)
	controller := service.NewSessionController(
		api, tokens, kv, changeBus, prefs, metrics, logger,
		time.Second,
		menuSvc, dashboardSvc,
	)
	adminSvc := service.NewAdminService(api, dashboardSvc, logger)

	handlers := handler.Handlers{
		Auth:      handler.NewAuthHandler(controller, prefs, reporter, logger),
		Menu:      handler.NewMenuHandler(menuSvc, logger),
		Dashboard: handler.NewDashboardHandler(dashboardSvc, controller, reporter, logger),
		Admin:     handler.NewAdminHandler(adminSvc, controller, metrics, reporter, logger),
		Events:    handler.NewEventsHandler(changeBus, metrics, logger),
	}
	return handler.NewRouter(cfg, handlers, handler.SessionMiddleware(controller), metrics, logger)
}

func doJSON(t *testing.T, router http.Handler, method, path, bearer, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *strings.Reader
	if body != "" {
		reader = strings.NewReader(body)
	} else {
		reader = strings.NewReader("")
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestGateway_LoginMenuDashboardLogoutFlow(t *testing.T) {
	user := &domain.UserProfile{
		ID: "u1", Email: "u1@example.com", FullName: "User One", Role: domain.RoleMember, Level: 1,
	}
	bearer := mintToken(t)
	up := fakeUpstream(t, bearer, user)
	router := newGateway(t, up.URL)

	// Login.
	rec := doJSON(t, router, http.MethodPost, "/v1/auth/login", "",
		`{"email":"u1@example.com","password":"secret"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("login: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var login domain.LoginResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &login); err != nil {
		t.Fatal(err)
	}
	if login.Token != bearer {
		t.Fatal("expected the upstream token to be returned")
	}

	// Menus come back sorted by order.
	rec = doJSON(t, router, http.MethodGet, "/v1/menus", bearer, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("menus: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var menus domain.MenusResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &menus); err != nil {
		t.Fatal(err)
	}
	if len(menus.Menus) != 2 || menus.Menus[0].Link != "/dashboard" {
		t.Errorf("expected ordered menus, got %+v", menus.Menus)
	}

	// Dashboard summary aggregates the three upstream calls.
	rec = doJSON(t, router, http.MethodGet, "/v1/dashboard", bearer, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("dashboard: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var summary domain.DashboardSummary
	if err := json.Unmarshal(rec.Body.Bytes(), &summary); err != nil {
		t.Fatal(err)
	}
	if summary.Commissions == nil || summary.Commissions.TotalEarned != 900 {
		t.Errorf("expected commission summary, got %+v", summary.Commissions)
	}
	if summary.UnreadCount != 2 {
		t.Errorf("expected 2 unread, got %d", summary.UnreadCount)
	}

	// Logout, then the token no longer works.
	rec = doJSON(t, router, http.MethodPost, "/v1/auth/logout", bearer, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("logout: expected 200, got %d", rec.Code)
	}
	rec = doJSON(t, router, http.MethodGet, "/v1/profile", bearer, "")
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 after logout, got %d", rec.Code)
	}
}

func TestGateway_LoginFailurePreservesUpstreamMessage(t *testing.T) {
	user := &domain.UserProfile{ID: "u1", Email: "u1@example.com", Role: domain.RoleMember}
	up := fakeUpstream(t, mintToken(t), user)
	router := newGateway(t, up.URL)

	rec := doJSON(t, router, http.MethodPost, "/v1/auth/login", "",
		`{"email":"u1@example.com","password":"wrong"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Invalid email or password") {
		t.Errorf("expected the upstream message verbatim, got %s", rec.Body.String())
	}
}

func TestGateway_MissingTokenRejected(t *testing.T) {
	user := &domain.UserProfile{ID: "u1", Role: domain.RoleMember}
	up := fakeUpstream(t, mintToken(t), user)
	router := newGateway(t, up.URL)

	for _, path := range []string{"/v1/profile", "/v1/menus", "/v1/dashboard"} {
		rec := doJSON(t, router, http.MethodGet, path, "", "")
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("%s: expected 401 without token, got %d", path, rec.Code)
		}
	}
}

func TestGateway_MemberBlockedFromAdmin(t *testing.T) {
	user := &domain.UserProfile{ID: "u1", Email: "u1@example.com", Role: domain.RoleMember}
	bearer := mintToken(t)
	up := fakeUpstream(t, bearer, user)
	router := newGateway(t, up.URL)

	rec := doJSON(t, router, http.MethodPost, "/v1/auth/login", "",
		`{"email":"u1@example.com","password":"secret"}`)
	if rec.Code != http.StatusOK {
		t.Fatal("login failed")
	}

	rec = doJSON(t, router, http.MethodGet, "/v1/admin/users", bearer, "")
	if rec.Code != http.StatusForbidden {
		t.Errorf("expected 403 for member on admin route, got %d", rec.Code)
	}
}

func TestGateway_SessionStatusEndpoint(t *testing.T) {
	user := &domain.UserProfile{ID: "u1", Email: "u1@example.com", Role: domain.RoleMember}
	bearer := mintToken(t)
	up := fakeUpstream(t, bearer, user)
	router := newGateway(t, up.URL)

	// Unknown token still answers 200, reporting unauthenticated.
	rec := doJSON(t, router, http.MethodGet, "/v1/auth/session", "no-such-token", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var status domain.SessionStatus
	if err := json.Unmarshal(rec.Body.Bytes(), &status); err != nil {
		t.Fatal(err)
	}
	if status.Authenticated {
		t.Error("expected unauthenticated status for unknown token")
	}

	doJSON(t, router, http.MethodPost, "/v1/auth/login", "",
		`{"email":"u1@example.com","password":"secret"}`)

	rec = doJSON(t, router, http.MethodGet, "/v1/auth/session", bearer, "")
	_ = json.Unmarshal(rec.Body.Bytes(), &status)
	if !status.Authenticated || status.User == nil {
		t.Errorf("expected authenticated status, got %+v", status)
	}
}

func TestGateway_PreferencesRoundTrip(t *testing.T) {
	user := &domain.UserProfile{ID: "u1", Email: "u1@example.com", Role: domain.RoleMember}
	bearer := mintToken(t)
	up := fakeUpstream(t, bearer, user)
	router := newGateway(t, up.URL)

	doJSON(t, router, http.MethodPost, "/v1/auth/login", "",
		`{"email":"u1@example.com","password":"secret"}`)

	rec := doJSON(t, router, http.MethodPut, "/v1/preferences", bearer,
		`{"sidebarState":"collapsed","sidebarWidth":220,"theme":"dark"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("put preferences: expected 200, got %d", rec.Code)
	}

	rec = doJSON(t, router, http.MethodGet, "/v1/preferences", bearer, "")
	var prefs domain.Preferences
	if err := json.Unmarshal(rec.Body.Bytes(), &prefs); err != nil {
		t.Fatal(err)
	}
	if prefs.SidebarState != "collapsed" || prefs.SidebarWidth != 220 || prefs.Theme != "dark" {
		t.Errorf("unexpected preferences %+v", prefs)
	}
}

func TestGateway_HealthAndPing(t *testing.T) {
	user := &domain.UserProfile{ID: "u1", Role: domain.RoleMember}
	up := fakeUpstream(t, mintToken(t), user)
	router := newGateway(t, up.URL)

	for _, path := range []string{"/healthz", "/readyz", "/ping"} {
		rec := doJSON(t, router, http.MethodGet, path, "", "")
		if rec.Code != http.StatusOK {
			t.Errorf("%s: expected 200, got %d", path, rec.Code)
		}
	}
}

func TestGateway_OperatorSurfaceOpenWhenUnconfigured(t *testing.T) {
	user := &domain.UserProfile{ID: "u1", Role: domain.RoleMember}
	up := fakeUpstream(t, mintToken(t), user)
	router := newGateway(t, up.URL)

	rec := doJSON(t, router, http.MethodGet, "/ops/stats", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 from /ops/stats, got %d", rec.Code)
	}
	var stats domain.GatewayStats
	if err := json.Unmarshal(rec.Body.Bytes(), &stats); err != nil {
		t.Fatal(err)
	}
}
