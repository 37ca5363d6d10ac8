// Package reqid provides request ID generation and context propagation for
// the stub backend: every request gets a unique ID, forwarded via the
// X-Request-ID header and attached to log lines through logger.WithCtx.
package reqid

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"net/http"
)

// ctxKey is the unexported key used to store the request ID in context.
type ctxKey struct{}

// Header is the HTTP header name used to propagate the request ID.
const Header = "X-Request-ID"

// New generates a cryptographically random 16-byte (32 hex char) request ID.
func New() string {
	b := make([]byte, 16)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}

// WithValue stores id in ctx and returns the new context.
func WithValue(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

// FromCtx extracts the request ID from ctx, or "" when none is present.
func FromCtx(ctx context.Context) string {
	if id, ok := ctx.Value(ctxKey{}).(string); ok {
		return id
	}
	return ""
}

// Middleware injects a unique request ID into every request context and
// response header. An upstream X-Request-ID is honoured when present.
func Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := r.Header.Get(Header)
			if id == "" {
				id = New()
			}

			w.Header().Set(Header, id)

			ctx := WithValue(r.Context(), id)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
