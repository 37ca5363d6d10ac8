// Package stores holds the two client-side state containers: the session
// (who is the current user) and the cart. Both are constructed once at
// process start and passed by reference to whatever needs them; there is no
// ambient singleton. Both follow the same contract: mutate in memory,
// persist immediately, emit a change event, and never surface persistence
// errors to the caller.
package stores

import (
	"context"
	"errors"
	"sync"

	"shopfront/app/api"
	"shopfront/app/models"
	"shopfront/pkg/crypt"
	"shopfront/pkg/event"
	"shopfront/pkg/kvstore"
	"shopfront/pkg/logger"
	"shopfront/pkg/metrics"
)

// SessionStore is the single source of truth for the current identity,
// synchronised with the key-value store and the backend's canonical view.
type SessionStore struct {
	kv  kvstore.Store
	api *api.Client

	mu         sync.Mutex
	user       *models.User
	token      string
	loading    bool
	refreshing bool
}

// NewSessionStore returns an empty session over kv. client may be nil, in
// which case Initialize never contacts the network and the cached identity
// is authoritative for the process lifetime.
func NewSessionStore(kv kvstore.Store, client *api.Client) *SessionStore {
	return &SessionStore{kv: kv, api: client}
}

// Initialize reads the persisted token and identity. When both are present
// the cached identity is exposed immediately (optimistic, for a fast first
// paint) with Loading() true, and a background refresh reconciles it
// against the backend. A refresh already in flight makes this a no-op.
func (s *SessionStore) Initialize(ctx context.Context) {
	s.mu.Lock()
	if s.refreshing {
		s.mu.Unlock()
		return
	}

	token, user, ok := s.readCached()
	if !ok {
		s.loading = false
		s.mu.Unlock()
		metrics.SessionRefreshes.WithLabelValues("skipped").Inc()
		return
	}

	s.user = &user
	s.token = token
	if s.api == nil {
		s.loading = false
		s.mu.Unlock()
		event.Fire(event.SessionChanged, user)
		metrics.SessionRefreshes.WithLabelValues("skipped").Inc()
		return
	}

	s.loading = true
	s.refreshing = true
	s.mu.Unlock()

	event.Fire(event.SessionChanged, user)
	go s.refresh(ctx, token)
}

// refresh fetches the canonical identity and reconciles the cache.
// Exactly one of the four outcomes happens, and loading always ends false.
func (s *SessionStore) refresh(ctx context.Context, token string) {
	canonical, err := s.api.CurrentUser(ctx, token)

	var fire *models.User

	s.mu.Lock()
	if s.token != token {
		// Session replaced mid-flight (login/logout raced the refresh):
		// the stale result must not clobber the new session.
		s.loading = false
		s.refreshing = false
		s.mu.Unlock()
		metrics.SessionRefreshes.WithLabelValues("skipped").Inc()
		return
	}
	switch {
	case err == nil:
		if s.user != nil && canonical.Equal(*s.user) {
			metrics.SessionRefreshes.WithLabelValues("unchanged").Inc()
			break
		}
		s.user = &canonical
		s.persistUserLocked(canonical)
		fire = &canonical
		metrics.SessionRefreshes.WithLabelValues("reconciled").Inc()
	case errors.Is(err, api.ErrUnauthorized):
		// The backend confirmed the token is dead: full teardown.
		s.clearLocked()
		fire = &models.User{}
		metrics.SessionRefreshes.WithLabelValues("auth_rejected").Inc()
	default:
		// Transient failure: the cached identity stands.
		logger.Debug("session: refresh failed, keeping cached identity", "error", err)
		metrics.SessionRefreshes.WithLabelValues("error").Inc()
	}
	s.loading = false
	s.refreshing = false
	s.mu.Unlock()

	if fire != nil {
		event.Fire(event.SessionChanged, *fire)
	}
}

// Login replaces the session wholesale with the given identity and token.
func (s *SessionStore) Login(user models.User, token string) {
	user = user.WithDefaultRole()

	s.mu.Lock()
	s.user = &user
	s.token = token
	s.loading = false
	s.persistUserLocked(user)
	s.persistTokenLocked(token)
	s.mu.Unlock()

	event.Fire(event.SessionChanged, user)
}

// Logout clears the persisted entries and the in-memory identity.
func (s *SessionStore) Logout() {
	s.mu.Lock()
	s.clearLocked()
	s.loading = false
	s.mu.Unlock()

	event.Fire(event.SessionChanged, models.User{})
}

// UpdateProfile overwrites the cached identity after a profile edit. The
// caller already holds the backend's authoritative response, so no network
// call happens here.
func (s *SessionStore) UpdateProfile(user models.User) {
	user = user.WithDefaultRole()

	s.mu.Lock()
	s.user = &user
	s.persistUserLocked(user)
	s.mu.Unlock()

	event.Fire(event.SessionChanged, user)
}

// Current returns the current identity, if any.
func (s *SessionStore) Current() (models.User, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.user == nil {
		return models.User{}, false
	}
	return *s.user, true
}

// IdentityID returns the current identity's id, or "" for guest scope.
func (s *SessionStore) IdentityID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.user == nil {
		return ""
	}
	return s.user.ID
}

// Token returns the auth token when a session is active.
func (s *SessionStore) Token() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token, s.token != ""
}

// IsAuthenticated requires both an identity and a token. Checking both
// guards against a partial write leaving only one of the two behind.
func (s *SessionStore) IsAuthenticated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.user != nil && s.token != ""
}

// IsAdmin reports whether the current identity carries the admin role.
func (s *SessionStore) IsAdmin() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.user != nil && s.user.IsAdmin()
}

// Loading reports whether the initial identity resolution is in flight.
func (s *SessionStore) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

// readCached loads the persisted token and identity. Both must be present
// and intact; a missing or undecryptable half yields (., ., false).
func (s *SessionStore) readCached() (string, models.User, bool) {
	var sealed string
	if !s.kv.Get(TokenKey, &sealed) {
		return "", models.User{}, false
	}
	token, err := crypt.Decrypt(sealed)
	if err != nil || token == "" {
		logger.Warn("session: persisted token unreadable, treating as signed out", "error", err)
		return "", models.User{}, false
	}

	var user models.User
	if !s.kv.Get(UserKey, &user) {
		return "", models.User{}, false
	}
	return token, user.WithDefaultRole(), true
}

func (s *SessionStore) persistUserLocked(user models.User) {
	if err := s.kv.Set(UserKey, user, 0); err != nil {
		logger.Error("session: persist identity failed", "error", err)
	}
}

func (s *SessionStore) persistTokenLocked(token string) {
	sealed, err := crypt.Encrypt(token)
	if err != nil {
		logger.Error("session: seal token failed", "error", err)
		return
	}
	if err := s.kv.Set(TokenKey, sealed, 0); err != nil {
		logger.Error("session: persist token failed", "error", err)
	}
}

func (s *SessionStore) clearLocked() {
	s.user = nil
	s.token = ""
	if err := s.kv.Delete(TokenKey, UserKey); err != nil {
		logger.Error("session: clear persisted session failed", "error", err)
	}
}
