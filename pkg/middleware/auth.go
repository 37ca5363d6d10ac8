package middleware

import (
	"context"
	"net/http"
	"strings"

	"shopfront/pkg/auth"
	"shopfront/pkg/response"
)

type claimsKey struct{}

// Auth validates the bearer token and stores the claims in the request
// context. Requests without a valid token get a 401, which is exactly the
// signal the client's session store treats as auth-rejected.
func Auth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		if token == "" {
			response.Unauthorized(w)
			return
		}

		claims, err := auth.ValidateToken(token)
		if err != nil {
			response.Unauthorized(w)
			return
		}

		ctx := context.WithValue(r.Context(), claimsKey{}, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// ClaimsFromCtx returns the validated claims stored by Auth.
func ClaimsFromCtx(ctx context.Context) (*auth.Claims, bool) {
	c, ok := ctx.Value(claimsKey{}).(*auth.Claims)
	return c, ok
}
