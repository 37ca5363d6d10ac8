package stores_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shopfront/app/api"
	"shopfront/app/models"
	"shopfront/app/stores"
	"shopfront/pkg/kvstore"
)

func stubBackend(t *testing.T, handler http.HandlerFunc) *api.Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return api.NewClient(srv.URL)
}

func writeUser(w http.ResponseWriter, user models.User) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{"status": 200, "data": user}) //nolint:errcheck
}

// seedSession persists an identity + token the way the store itself does.
func seedSession(t *testing.T, kv kvstore.Store, user models.User, token string) {
	t.Helper()
	writer := stores.NewSessionStore(kv, nil)
	writer.Login(user, token)
	require.True(t, kv.Has(stores.TokenKey))
	require.True(t, kv.Has(stores.UserKey))
}

// waitSettled polls until the initial identity resolution has finished.
func waitSettled(t *testing.T, s *stores.SessionStore) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if !s.Loading() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("session never finished loading")
}

func TestLoginDefaultsRoleToCustomer(t *testing.T) {
	kv := kvstore.NewMemory()
	s := stores.NewSessionStore(kv, nil)

	s.Login(models.User{ID: "7", Name: "A"}, "tok")

	current, ok := s.Current()
	require.True(t, ok)
	assert.Equal(t, models.RoleCustomer, current.Role)

	// The persisted copy carries the default too.
	var cached models.User
	require.True(t, kv.Get(stores.UserKey, &cached))
	assert.Equal(t, models.RoleCustomer, cached.Role)
}

func TestLoginThenLogoutClearsEverything(t *testing.T) {
	kv := kvstore.NewMemory()
	s := stores.NewSessionStore(kv, nil)

	s.Login(models.User{ID: "7", Name: "A"}, "tok")
	require.True(t, s.IsAuthenticated())

	s.Logout()

	assert.False(t, s.IsAuthenticated())
	assert.False(t, kv.Has(stores.TokenKey))
	assert.False(t, kv.Has(stores.UserKey))
	_, ok := s.Current()
	assert.False(t, ok)
}

func TestInitializeWithoutCacheSkipsNetwork(t *testing.T) {
	var calls atomic.Int32
	client := stubBackend(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	})

	s := stores.NewSessionStore(kvstore.NewMemory(), client)
	s.Initialize(context.Background())

	waitSettled(t, s)
	assert.False(t, s.IsAuthenticated())
	assert.Zero(t, calls.Load())
}

func TestInitializeExposesCachedIdentityImmediately(t *testing.T) {
	kv := kvstore.NewMemory()
	cached := models.User{ID: "7", Name: "A", Role: models.RoleCustomer}
	seedSession(t, kv, cached, "tok")

	release := make(chan struct{})
	client := stubBackend(t, func(w http.ResponseWriter, r *http.Request) {
		<-release
		writeUser(w, cached)
	})

	s := stores.NewSessionStore(kv, client)
	s.Initialize(context.Background())

	// Cached identity is visible while the refresh is still in flight.
	current, ok := s.Current()
	require.True(t, ok)
	assert.Equal(t, "A", current.Name)
	assert.True(t, s.Loading())

	close(release)
	waitSettled(t, s)
}

func TestRefreshReconcilesChangedIdentity(t *testing.T) {
	kv := kvstore.NewMemory()
	seedSession(t, kv, models.User{ID: "7", Name: "Old Name"}, "tok")

	canonical := models.User{ID: "7", Name: "New Name", Email: "new@example.com", Role: models.RoleSeller}
	client := stubBackend(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		writeUser(w, canonical)
	})

	s := stores.NewSessionStore(kv, client)
	s.Initialize(context.Background())
	waitSettled(t, s)

	current, ok := s.Current()
	require.True(t, ok)
	assert.Equal(t, "New Name", current.Name)
	assert.Equal(t, models.RoleSeller, current.Role)

	// The persisted cache was overwritten as well.
	var cached models.User
	require.True(t, kv.Get(stores.UserKey, &cached))
	assert.Equal(t, "New Name", cached.Name)
}

func TestRefreshTransientFailureKeepsCachedIdentity(t *testing.T) {
	kv := kvstore.NewMemory()
	cached := models.User{ID: "7", Name: "A"}
	seedSession(t, kv, cached, "tok")

	client := stubBackend(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})

	s := stores.NewSessionStore(kv, client)
	s.Initialize(context.Background())
	waitSettled(t, s)

	assert.True(t, s.IsAuthenticated())
	current, ok := s.Current()
	require.True(t, ok)
	assert.Equal(t, "A", current.Name)
	assert.True(t, kv.Has(stores.TokenKey))
}

func TestRefreshAuthRejectionTearsDownSession(t *testing.T) {
	kv := kvstore.NewMemory()
	seedSession(t, kv, models.User{ID: "7", Name: "A"}, "stale-tok")

	client := stubBackend(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "token expired", http.StatusUnauthorized)
	})

	s := stores.NewSessionStore(kv, client)
	s.Initialize(context.Background())
	waitSettled(t, s)

	assert.False(t, s.IsAuthenticated())
	assert.False(t, kv.Has(stores.TokenKey))
	assert.False(t, kv.Has(stores.UserKey))
}

func TestInitializeIsSingleFlight(t *testing.T) {
	kv := kvstore.NewMemory()
	cached := models.User{ID: "7", Name: "A"}
	seedSession(t, kv, cached, "tok")

	var calls atomic.Int32
	client := stubBackend(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		time.Sleep(50 * time.Millisecond)
		writeUser(w, cached)
	})

	s := stores.NewSessionStore(kv, client)
	s.Initialize(context.Background())
	s.Initialize(context.Background())
	s.Initialize(context.Background())
	waitSettled(t, s)

	assert.Equal(t, int32(1), calls.Load())
}

func TestUpdateProfileOverwritesCacheWithoutNetwork(t *testing.T) {
	kv := kvstore.NewMemory()
	s := stores.NewSessionStore(kv, nil)
	s.Login(models.User{ID: "7", Name: "A"}, "tok")

	s.UpdateProfile(models.User{ID: "7", Name: "A Updated", Attrs: map[string]interface{}{"bio": "hi"}})

	current, ok := s.Current()
	require.True(t, ok)
	assert.Equal(t, "A Updated", current.Name)
	assert.Equal(t, models.RoleCustomer, current.Role)

	var cached models.User
	require.True(t, kv.Get(stores.UserKey, &cached))
	assert.Equal(t, "A Updated", cached.Name)
}

func TestIsAdmin(t *testing.T) {
	s := stores.NewSessionStore(kvstore.NewMemory(), nil)
	assert.False(t, s.IsAdmin())

	s.Login(models.User{ID: "1", Role: models.RoleAdmin}, "tok")
	assert.True(t, s.IsAdmin())

	s.Login(models.User{ID: "2", Role: models.RoleSeller}, "tok")
	assert.False(t, s.IsAdmin())
}

func TestTokenMissingMeansSignedOut(t *testing.T) {
	kv := kvstore.NewMemory()
	// Identity persisted but no token: a partial write must not authenticate.
	require.NoError(t, kv.Set(stores.UserKey, models.User{ID: "7"}, 0))

	var calls atomic.Int32
	client := stubBackend(t, func(w http.ResponseWriter, r *http.Request) { calls.Add(1) })

	s := stores.NewSessionStore(kv, client)
	s.Initialize(context.Background())
	waitSettled(t, s)

	assert.False(t, s.IsAuthenticated())
	assert.Zero(t, calls.Load())
}
