// Package api is the typed client for the storefront REST backend.
//
// The stores only care about a three-way distinction on every call:
// success, auth-rejected (the backend confirmed the held token is invalid),
// and everything else. Auth rejection surfaces as ErrUnauthorized; all other
// failures are generic errors the callers treat as transient.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"shopfront/app/models"
	"shopfront/config"
	"shopfront/pkg/httpx"
)

// ErrUnauthorized marks a response that explicitly rejected the bearer
// token (or the supplied credentials). Check with errors.Is.
var ErrUnauthorized = errors.New("api: unauthorized")

// Client talks to one storefront backend.
type Client struct {
	baseURL string
	timeout time.Duration
}

// NewClient returns a client rooted at baseURL. An empty baseURL falls back
// to the configured API_BASE_URL.
func NewClient(baseURL string) *Client {
	if baseURL == "" {
		baseURL = config.APIBaseURL()
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		timeout: config.APITimeout(),
	}
}

// Credentials is the login/register response payload.
type Credentials struct {
	User  models.User `json:"user"`
	Token string      `json:"token"`
}

// envelope matches the backend's JSON response wrapper.
type envelope struct {
	Status  int             `json:"status"`
	Message string          `json:"message,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// Login exchanges credentials for an identity and a token.
func (c *Client) Login(ctx context.Context, email, password string) (Credentials, error) {
	var creds Credentials
	err := c.call(ctx, httpx.Post(c.baseURL+"/api/login").
		Body(map[string]string{"email": email, "password": password}), &creds)
	if err != nil {
		return Credentials{}, err
	}
	creds.User = creds.User.WithDefaultRole()
	return creds, nil
}

// Register creates an account and returns the same payload as Login.
func (c *Client) Register(ctx context.Context, name, email, password string) (Credentials, error) {
	var creds Credentials
	err := c.call(ctx, httpx.Post(c.baseURL+"/api/register").
		Body(map[string]string{"name": name, "email": email, "password": password}), &creds)
	if err != nil {
		return Credentials{}, err
	}
	creds.User = creds.User.WithDefaultRole()
	return creds, nil
}

// CurrentUser fetches the canonical identity for token.
func (c *Client) CurrentUser(ctx context.Context, token string) (models.User, error) {
	var user models.User
	err := c.call(ctx, httpx.Get(c.baseURL+"/api/user").Bearer(token), &user)
	if err != nil {
		return models.User{}, err
	}
	return user.WithDefaultRole(), nil
}

// PushCart mirrors the full cart to the backend. Best effort: callers treat
// any failure as transient and keep the local copy authoritative.
func (c *Client) PushCart(ctx context.Context, token string, lines []models.CartLine) error {
	return c.call(ctx, httpx.Put(c.baseURL+"/api/cart").Bearer(token).Body(lines), nil)
}

// call sends the request, classifies the response, and decodes the data
// envelope into dest when dest is non-nil.
func (c *Client) call(ctx context.Context, req *httpx.Request, dest interface{}) error {
	resp, err := req.
		WithContext(ctx).
		Timeout(c.timeout).
		Send()
	if err != nil {
		return fmt.Errorf("api: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return fmt.Errorf("%w: status %d", ErrUnauthorized, resp.StatusCode)
	case !resp.OK():
		return fmt.Errorf("api: unexpected status %d: %s", resp.StatusCode, resp.Text())
	}

	if dest == nil {
		return nil
	}

	var env envelope
	if err := resp.JSON(&env); err != nil {
		return fmt.Errorf("api: %w", err)
	}
	if len(env.Data) == 0 {
		return errors.New("api: empty response data")
	}
	if err := json.Unmarshal(env.Data, dest); err != nil {
		return fmt.Errorf("api: decode data: %w", err)
	}
	return nil
}
