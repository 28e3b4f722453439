package http

import (
	"log/slog"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/example/labor-tracker/internal/application"
)

const (
	userIDHeader      = "X-User-ID"
	permissionsHeader = "X-Permissions"
)

// RequireIdentity builds the caller identity from the headers set by the
// authenticating gateway in front of this service. Requests without a user id
// are rejected before reaching any handler.
func RequireIdentity(logger *slog.Logger) func(http.Handler) http.Handler {
	responder := newResponder(logger)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID := strings.TrimSpace(r.Header.Get(userIDHeader))
			if userID == "" {
				responder.writeError(r.Context(), w, http.StatusUnauthorized, errMissingIdentity)
				return
			}

			auth := application.AuthContext{
				UserID:      userID,
				Permissions: parsePermissions(r.Header.Get(permissionsHeader)),
			}

			ctx := ContextWithAuth(r.Context(), auth)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func parsePermissions(header string) []string {
	if strings.TrimSpace(header) == "" {
		return nil
	}

	parts := strings.Split(header, ",")
	permissions := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			permissions = append(permissions, trimmed)
		}
	}
	if len(permissions) == 0 {
		return nil
	}
	return permissions
}

func RequestLogger(base *slog.Logger) func(http.Handler) http.Handler {
	if base == nil {
		base = slog.Default()
	}
	var counter atomic.Uint64

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := counter.Add(1)
			logger := base.With(
				"request_id", id,
				"method", r.Method,
				"path", r.URL.Path,
			)

			ctx := ContextWithLogger(r.Context(), logger)
			start := time.Now()
			logger.InfoContext(ctx, "request started")
			next.ServeHTTP(w, r.WithContext(ctx))
			logger.InfoContext(ctx, "request completed", "duration", time.Since(start))
		})
	}
}
