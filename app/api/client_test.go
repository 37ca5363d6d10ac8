package api_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shopfront/app/api"
	"shopfront/app/models"
)

func backend(t *testing.T, handler http.HandlerFunc) *api.Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return api.NewClient(srv.URL)
}

func respond(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]interface{}{"status": status, "data": data}) //nolint:errcheck
}

func TestLoginReturnsCredentials(t *testing.T) {
	client := backend(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/api/login", r.URL.Path)

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "a@example.com", body["email"])

		respond(w, http.StatusOK, api.Credentials{
			User:  models.User{ID: "7", Name: "A", Email: "a@example.com"},
			Token: "tok",
		})
	})

	creds, err := client.Login(context.Background(), "a@example.com", "secret")
	require.NoError(t, err)
	assert.Equal(t, "tok", creds.Token)
	assert.Equal(t, "7", creds.User.ID)
	// Missing role on the wire is defaulted before the value leaves the client.
	assert.Equal(t, models.RoleCustomer, creds.User.Role)
}

func TestLoginBadCredentialsIsUnauthorized(t *testing.T) {
	client := backend(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad credentials", http.StatusUnauthorized)
	})

	_, err := client.Login(context.Background(), "a@example.com", "wrong")
	assert.ErrorIs(t, err, api.ErrUnauthorized)
}

func TestCurrentUserClassifiesResponses(t *testing.T) {
	cases := []struct {
		name    string
		status  int
		wantErr error
	}{
		{"unauthorized", http.StatusUnauthorized, api.ErrUnauthorized},
		{"forbidden", http.StatusForbidden, api.ErrUnauthorized},
		{"server error", http.StatusInternalServerError, nil},
		{"bad gateway", http.StatusBadGateway, nil},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			client := backend(t, func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, tc.name, tc.status)
			})

			_, err := client.CurrentUser(context.Background(), "tok")
			require.Error(t, err)
			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
			} else {
				assert.NotErrorIs(t, err, api.ErrUnauthorized)
			}
		})
	}
}

func TestCurrentUserSendsBearerToken(t *testing.T) {
	client := backend(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		respond(w, http.StatusOK, models.User{ID: "7", Role: models.RoleAdmin})
	})

	user, err := client.CurrentUser(context.Background(), "tok")
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, user.Role)
}

func TestPushCartSendsFullCollection(t *testing.T) {
	var got []models.CartLine
	client := backend(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPut, r.Method)
		require.Equal(t, "/api/cart", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusNoContent)
	})

	lines := []models.CartLine{
		{Product: models.Product{ID: "p1", Price: 10}, Quantity: 2},
	}
	require.NoError(t, client.PushCart(context.Background(), "tok", lines))
	assert.Equal(t, lines, got)
}

func TestNetworkErrorIsNotUnauthorized(t *testing.T) {
	// Point at a server that is already closed.
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()
	client := api.NewClient(srv.URL)

	_, err := client.CurrentUser(context.Background(), "tok")
	require.Error(t, err)
	assert.NotErrorIs(t, err, api.ErrUnauthorized)
}
