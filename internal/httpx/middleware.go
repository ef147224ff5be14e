package httpx

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/mathstore/storefront-api/internal/auth"
)

// Logger logs every request with status and latency.
func Logger(log *slog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := &statusWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(ww, r)
			log.Info("http request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.status,
				"duration_ms", time.Since(start).Milliseconds(),
				"remote_addr", r.RemoteAddr,
			)
		})
	}
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

// AdminAuth guards mutating catalog/admin routes with the X-Admin-Token
// JWT issued by the login endpoint.
func AdminAuth(svc *auth.Service) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := r.Header.Get("X-Admin-Token")
			if token == "" {
				writeError(w, http.StatusUnauthorized, "Unauthorized: Admin access required")
				return
			}
			if _, err := svc.VerifyToken(token); err != nil {
				writeError(w, http.StatusUnauthorized, "Unauthorized: Admin access required")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
