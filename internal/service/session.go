package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/suryadigit/affiliate-gateway/internal/domain"
	"github.com/suryadigit/affiliate-gateway/internal/infra/bus"
	"github.com/suryadigit/affiliate-gateway/internal/infra/kvstore"
	"github.com/suryadigit/affiliate-gateway/internal/infra/observability"
	"github.com/suryadigit/affiliate-gateway/internal/infra/token"
	"github.com/suryadigit/affiliate-gateway/internal/port"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var sessionTracer = otel.Tracer("service/session")

// SessionState is the lifecycle phase of a session.
type SessionState string

const (
	StateUnauthenticated SessionState = "unauthenticated"
	StateAuthenticated   SessionState = "authenticated"
)

// Session is one authenticated dashboard session: the upstream bearer
// token plus the cached profile snapshot derived from it.
//
// The controller hands out point-in-time copies, never the stored
// struct, so concurrent requests can read Token and User freely. The
// User pointer is safe to share because profiles are replaced whole,
// never mutated in place.
type Session struct {
	ID          string
	Token       string
	User        *domain.UserProfile
	State       SessionState
	LastError   string
	CreatedAt   time.Time
	RefreshedAt time.Time
}

// Authenticated reports whether the session holds a usable credential.
func (s *Session) Authenticated() bool {
	return s != nil && s.State == StateAuthenticated && s.Token != "" && s.User != nil
}

// SessionController owns the session lifecycle: login, restore, refresh,
// invalidation and logout. It is the single writer of persisted session
// artifacts (token, profile, menus, preferences) and the only component
// that reacts to an upstream credential rejection.
type SessionController struct {
	api             port.AuthAPI
	tokens          *token.Store
	kv              *kvstore.Store
	bus             *bus.Bus
	prefs           *PreferencesStore
	dependents      []port.DependentCache
	metrics         *observability.Metrics
	logger          *zap.Logger
	prefetchTimeout time.Duration

	mu       sync.Mutex
	sessions map[string]*Session // by session ID
	byToken  map[string]string   // bearer token -> session ID
}

// NewSessionController creates the controller. dependents are the caches
// whose contents follow the credential: all of them are invalidated on
// login and logout, and warmed after login.
func NewSessionController(
	api port.AuthAPI,
	tokens *token.Store,
	kv *kvstore.Store,
	b *bus.Bus,
	prefs *PreferencesStore,
	metrics *observability.Metrics,
	logger *zap.Logger,
	prefetchTimeout time.Duration,
	dependents ...port.DependentCache,
) *SessionController {
	if prefetchTimeout <= 0 {
		prefetchTimeout = 30 * time.Second
	}
	return &SessionController{
		api:             api,
		tokens:          tokens,
		kv:              kv,
		bus:             b,
		prefs:           prefs,
		dependents:      dependents,
		metrics:         metrics,
		logger:          logger,
		prefetchTimeout: prefetchTimeout,
		sessions:        make(map[string]*Session),
		byToken:         make(map[string]string),
	}
}

func profileKey(sessionID string) string {
	return fmt.Sprintf("user_profile:%s", sessionID)
}

// Login authenticates against upstream and establishes a session. On
// failure nothing is stored and no session exists; there is no partially
// authenticated state.
func (c *SessionController) Login(ctx context.Context, req *domain.LoginRequest) (*Session, error) {
	ctx, span := sessionTracer.Start(ctx, "SessionController.Login")
	defer span.End()

	if req.Email == "" || req.Password == "" {
		return nil, &domain.ErrValidation{Field: "email", Message: "email and password are required"}
	}

	resp, err := c.api.Login(ctx, req)
	if err != nil {
		c.metrics.IncrSessionEvent("login_failed")
		return nil, err
	}
	return c.establish(resp.Token, resp.User), nil
}

// VerifyOTP confirms a one-time code. Upstream answers a successful
// verification with the login payload, so this establishes a session too.
func (c *SessionController) VerifyOTP(ctx context.Context, req *domain.VerifyOTPRequest) (*Session, error) {
	ctx, span := sessionTracer.Start(ctx, "SessionController.VerifyOTP")
	defer span.End()

	if req.Email == "" || req.Code == "" {
		return nil, &domain.ErrInvalidCode{}
	}

	resp, err := c.api.VerifyOTP(ctx, req)
	if err != nil {
		c.metrics.IncrSessionEvent("otp_failed")
		return nil, err
	}
	return c.establish(resp.Token, resp.User), nil
}

// Signup proxies registration. No session is created; the user verifies
// their email first.
func (c *SessionController) Signup(ctx context.Context, req *domain.SignupRequest) (*domain.SignupResponse, error) {
	if req.Email == "" || req.Password == "" || req.FullName == "" {
		return nil, &domain.ErrValidation{Field: "email", Message: "email, password and full name are required"}
	}
	return c.api.Signup(ctx, req)
}

// ResendOTP proxies a request for a fresh verification code.
func (c *SessionController) ResendOTP(ctx context.Context, req *domain.ResendOTPRequest) (*domain.SuccessResponse, error) {
	if req.Email == "" {
		return nil, &domain.ErrValidation{Field: "email", Message: "email is required"}
	}
	return c.api.ResendOTP(ctx, req)
}

// establish records the session, persists its artifacts, invalidates
// credential-dependent caches and warms them in the background.
func (c *SessionController) establish(bearer string, user *domain.UserProfile) *Session {
	sess := &Session{
		ID:          uuid.New().String(),
		Token:       bearer,
		User:        user,
		State:       StateAuthenticated,
		CreatedAt:   time.Now(),
		RefreshedAt: time.Now(),
	}

	c.mu.Lock()
	c.sessions[sess.ID] = sess
	c.byToken[bearer] = sess.ID
	c.mu.Unlock()

	c.tokens.Save(sess.ID, bearer)
	c.kv.Set(profileKey(sess.ID), user)

	for _, d := range c.dependents {
		d.InvalidateUser(user.ID)
	}

	c.bus.Publish(bus.Event{Kind: bus.KindProfileUpdated, UserID: user.ID})
	c.metrics.IncrSessionEvent("started")
	c.logger.Info("session established",
		zap.String("session_id", sess.ID),
		zap.String("user_id", user.ID),
		zap.String("role", string(user.Role)),
	)

	go c.prefetch(bearer, user)

	cp := *sess
	return &cp
}

// prefetch warms the dependent caches concurrently. Failures are logged
// and otherwise ignored: every dependent can serve a miss later.
func (c *SessionController) prefetch(bearer string, user *domain.UserProfile) {
	ctx, cancel := context.WithTimeout(context.Background(), c.prefetchTimeout)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)
	for _, d := range c.dependents {
		d := d
		g.Go(func() error {
			return d.Prefetch(gctx, bearer, user)
		})
	}
	if err := g.Wait(); err != nil {
		c.logger.Debug("cache prefetch incomplete",
			zap.String("user_id", user.ID),
			zap.Error(err),
		)
	}
}

// Resolve finds the session holding the given bearer token. The result
// is a point-in-time copy; it stays readable even if the session is torn
// down while the caller's request is in flight.
func (c *SessionController) Resolve(bearer string) (*Session, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	id, ok := c.byToken[bearer]
	if !ok {
		return nil, false
	}
	sess := c.sessions[id]
	if !sess.Authenticated() {
		return nil, false
	}
	cp := *sess
	return &cp, true
}

// Get finds a session by ID. Like Resolve, the result is a copy.
func (c *SessionController) Get(sessionID string) (*Session, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	sess, ok := c.sessions[sessionID]
	if !ok {
		return nil, false
	}
	cp := *sess
	return &cp, true
}

// Logout ends the session deliberately. Token, profile, menus and
// preferences are removed in a single store write so the clear can never
// partially complete.
func (c *SessionController) Logout(sess *Session) {
	c.teardown(sess, "ended")
}

// Invalidate evicts a session after upstream rejected its credential.
// Same clears as logout; only the recorded reason differs.
func (c *SessionController) Invalidate(sess *Session) {
	c.teardown(sess, "invalidated")
}

// ObserveError inspects an upstream error on behalf of a session. A
// credential rejection evicts the session; every other error is recorded
// on it and passes through untouched. This is the only place that reacts
// to a rejection.
func (c *SessionController) ObserveError(sess *Session, err error) {
	if err == nil || sess == nil {
		return
	}
	var invalidated *domain.ErrSessionInvalidated
	if errors.As(err, &invalidated) {
		if invalidated.SessionID == "" {
			invalidated.SessionID = sess.ID
		}
		c.logger.Warn("session rejected upstream, evicting",
			zap.String("session_id", sess.ID),
		)
		c.Invalidate(sess)
		return
	}

	c.mu.Lock()
	if live, ok := c.sessions[sess.ID]; ok {
		live.LastError = err.Error()
	}
	c.mu.Unlock()
}

// teardown removes the session and all persisted artifacts. The caller's
// copy is left untouched: dropping the session from the maps already makes
// it unresolvable, and requests still in flight on another view keep a
// readable snapshot instead of seeing fields go nil under them.
func (c *SessionController) teardown(sess *Session, event string) {
	if sess == nil {
		return
	}

	c.mu.Lock()
	if live, ok := c.sessions[sess.ID]; ok {
		delete(c.sessions, sess.ID)
		if c.byToken[live.Token] == sess.ID {
			delete(c.byToken, live.Token)
		}
	}
	c.mu.Unlock()

	var userID string
	if sess.User != nil {
		userID = sess.User.ID
	}
	c.clearArtifacts(sess.ID, userID)

	if userID != "" {
		c.bus.Publish(bus.Event{Kind: bus.KindSessionEnded, UserID: userID})
	}
	c.metrics.IncrSessionEvent(event)
	c.logger.Info("session ended",
		zap.String("session_id", sess.ID),
		zap.String("reason", event),
	)
}

// clearArtifacts deletes every persisted trace of a session in one write,
// then drops the in-memory dependent caches.
func (c *SessionController) clearArtifacts(sessionID, userID string) {
	keys := []string{
		c.tokens.StorageKey(sessionID),
		profileKey(sessionID),
	}
	if userID != "" {
		keys = append(keys, fmt.Sprintf("user_menus:%s", userID))
		keys = append(keys, c.prefs.Keys(userID)...)
	}
	c.kv.Delete(keys...)

	if userID != "" {
		for _, d := range c.dependents {
			d.InvalidateUser(userID)
		}
	}
}

// Refresh re-reads the profile from upstream and replaces the cached
// snapshot wholesale. A credential rejection evicts the session; any
// other failure leaves the current snapshot in place.
func (c *SessionController) Refresh(ctx context.Context, sess *Session) (*domain.UserProfile, error) {
	ctx, span := sessionTracer.Start(ctx, "SessionController.Refresh")
	defer span.End()

	user, err := c.api.GetProfile(ctx, sess.Token)
	if err != nil {
		c.ObserveError(sess, err)
		return nil, err
	}

	c.applyProfile(sess.ID, user)
	return user, nil
}

// UpdateProfile writes mutable profile fields upstream and caches the
// returned snapshot.
func (c *SessionController) UpdateProfile(ctx context.Context, sess *Session, req *domain.UpdateProfileRequest) (*domain.UserProfile, error) {
	if req.FullName == "" {
		return nil, &domain.ErrValidation{Field: "fullName", Message: "full name is required"}
	}

	user, err := c.api.UpdateProfile(ctx, sess.Token, req)
	if err != nil {
		c.ObserveError(sess, err)
		return nil, err
	}

	c.applyProfile(sess.ID, user)
	return user, nil
}

// applyProfile replaces the stored session's profile, persists it and
// announces the change. The profile is replaced whole, never merged.
// Snapshots handed out earlier keep the previous profile; callers use
// the returned profile or resolve again.
func (c *SessionController) applyProfile(sessionID string, user *domain.UserProfile) {
	c.mu.Lock()
	if live, ok := c.sessions[sessionID]; ok {
		live.User = user
		live.RefreshedAt = time.Now()
	}
	c.mu.Unlock()

	c.kv.Set(profileKey(sessionID), user)
	c.bus.Publish(bus.Event{Kind: bus.KindProfileUpdated, UserID: user.ID})
}

// RestoreAll rebuilds sessions from persisted tokens at startup. A token
// that is expired, undecodable, or rejected upstream gets its artifacts
// cleared rather than restored: restoration fails closed.
func (c *SessionController) RestoreAll(ctx context.Context) {
	for _, sid := range c.tokens.Sessions() {
		bearer, ok := c.tokens.Get(sid)
		if !ok || token.IsExpired(bearer) {
			c.discardPersisted(sid)
			continue
		}

		user, err := c.api.GetProfile(ctx, bearer)
		if err != nil {
			c.logger.Warn("session restore failed, clearing",
				zap.String("session_id", sid),
				zap.Error(err),
			)
			c.discardPersisted(sid)
			continue
		}

		sess := &Session{
			ID:          sid,
			Token:       bearer,
			User:        user,
			State:       StateAuthenticated,
			CreatedAt:   time.Now(),
			RefreshedAt: time.Now(),
		}
		c.mu.Lock()
		c.sessions[sid] = sess
		c.byToken[bearer] = sid
		c.mu.Unlock()

		c.kv.Set(profileKey(sid), user)
		c.metrics.IncrSessionEvent("restored")
		c.logger.Info("session restored",
			zap.String("session_id", sid),
			zap.String("user_id", user.ID),
		)
	}
}

// discardPersisted clears artifacts of a session that could not be
// restored. The owning user is recovered from the cached profile when
// possible so their menu and preference keys go too.
func (c *SessionController) discardPersisted(sessionID string) {
	var cached domain.UserProfile
	var userID string
	if c.kv.GetJSON(profileKey(sessionID), &cached) {
		userID = cached.ID
	}
	c.clearArtifacts(sessionID, userID)
	c.metrics.IncrSessionEvent("restore_failed")
}

// Status reports the session lifecycle state for the status endpoint.
// sess is a snapshot from Resolve, so no locking is needed here.
func (c *SessionController) Status(sess *Session) domain.SessionStatus {
	if sess == nil {
		return domain.SessionStatus{State: string(StateUnauthenticated)}
	}

	return domain.SessionStatus{
		State:         string(sess.State),
		Authenticated: sess.Authenticated(),
		User:          sess.User,
		Error:         sess.LastError,
	}
}

// Sessions returns the number of live sessions.
func (c *SessionController) Sessions() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.sessions)
}
