package devserver

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"shopfront/app/api"
	"shopfront/app/models"
	"shopfront/app/stores"
	"shopfront/config"
	"shopfront/pkg/kvstore"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	config.Set("JWT_SECRET", "devserver-test-secret")

	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "dev.db")), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	srv, err := New(db)
	require.NoError(t, err)

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func TestRegisterLoginRoundTrip(t *testing.T) {
	ts := newTestServer(t)
	client := api.NewClient(ts.URL)
	ctx := context.Background()

	creds, err := client.Register(ctx, "Asha", "asha@example.com", "hunter2hunter2")
	require.NoError(t, err)
	assert.NotEmpty(t, creds.Token)
	assert.Equal(t, "Asha", creds.User.Name)
	assert.Equal(t, models.RoleCustomer, creds.User.Role)

	// Duplicate email must be rejected, not overwritten.
	_, err = client.Register(ctx, "Asha Again", "asha@example.com", "hunter2hunter2")
	require.Error(t, err)

	again, err := client.Login(ctx, "asha@example.com", "hunter2hunter2")
	require.NoError(t, err)
	assert.Equal(t, creds.User.ID, again.User.ID)

	_, err = client.Login(ctx, "asha@example.com", "wrong-password")
	require.ErrorIs(t, err, api.ErrUnauthorized)

	user, err := client.CurrentUser(ctx, again.Token)
	require.NoError(t, err)
	assert.Equal(t, creds.User, user)
}

func TestRequestsWithoutTokenAreRejected(t *testing.T) {
	ts := newTestServer(t)
	client := api.NewClient(ts.URL)
	ctx := context.Background()

	_, err := client.CurrentUser(ctx, "not-a-jwt")
	assert.ErrorIs(t, err, api.ErrUnauthorized)

	err = client.PushCart(ctx, "", nil)
	assert.ErrorIs(t, err, api.ErrUnauthorized)
}

func TestCartMirrorRoundTrip(t *testing.T) {
	ts := newTestServer(t)
	client := api.NewClient(ts.URL)
	ctx := context.Background()

	creds, err := client.Register(ctx, "Ben", "ben@example.com", "hunter2hunter2")
	require.NoError(t, err)

	lines := []models.CartLine{
		{Product: models.Product{ID: "p1", Title: "Mug", Price: 9.5}, Quantity: 2},
		{Product: models.Product{ID: "p2", Title: "Shirt", Price: 20}, Quantity: 1},
	}
	require.NoError(t, client.PushCart(ctx, creds.Token, lines))

	req, err := http.NewRequest(http.MethodGet, ts.URL+"/api/cart", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+creds.Token)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Data []models.CartLine `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, lines, body.Data)
}

// The stores and the stub backend speak the same wire shapes. Drive a full
// client session against the server: login, background reconcile, cart
// mutations mirrored over PUT /api/cart.
func TestStoresAgainstStubBackend(t *testing.T) {
	ts := newTestServer(t)
	client := api.NewClient(ts.URL)
	ctx := context.Background()

	creds, err := client.Register(ctx, "Cleo", "cleo@example.com", "hunter2hunter2")
	require.NoError(t, err)

	kv := kvstore.NewMemory()
	session := stores.NewSessionStore(kv, client)
	cart := stores.NewCartStore(kv, client, session)

	session.Login(creds.User, creds.Token)
	cart.OnIdentityChanged(session.IdentityID())

	session.Initialize(ctx)
	waitFor(t, func() bool { return !session.Loading() })
	current, ok := session.Current()
	require.True(t, ok)
	assert.Equal(t, creds.User, current)

	cart.AddLine(models.Product{ID: "p1", Title: "Mug", Price: 9.5}, 3)

	// The mirror push is asynchronous; poll the canonical copy.
	waitFor(t, func() bool {
		req, err := http.NewRequest(http.MethodGet, ts.URL+"/api/cart", nil)
		if err != nil {
			return false
		}
		req.Header.Set("Authorization", "Bearer "+creds.Token)
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			return false
		}
		defer resp.Body.Close()

		var body struct {
			Data []models.CartLine `json:"data"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
			return false
		}
		return len(body.Data) == 1 && body.Data[0].Quantity == 3
	})
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("condition not met within deadline")
}
