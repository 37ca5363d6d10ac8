package middleware

import (
	"net/http"
	"time"

	"shopfront/pkg/logger"
	"shopfront/pkg/reqid"
)

// responseWriter wraps http.ResponseWriter to capture the status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Logger logs each request with method, path, status, duration, IP, and the
// request_id injected by reqid.Middleware. Wire reqid.Middleware() before
// this middleware.
func Logger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rid := reqid.FromCtx(r.Context())

		reqLog := logger.L.With("request_id", rid)
		ctx := logger.InjectLogger(r.Context(), reqLog)
		r = r.WithContext(ctx)

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(rw, r)

		reqLog.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rw.statusCode,
			"duration", time.Since(start).String(),
			"ip", r.RemoteAddr,
		)
	})
}
