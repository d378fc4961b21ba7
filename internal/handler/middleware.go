package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/IgorSimim/zoopia-go/internal/service"
)

type contextKey string

const sessionIDKey contextKey = "sessionID"

// SessionTokenMiddleware resolves the session token carried in the
// Authorization header (Bearer) or in X-Session-Token and injects the
// session id into the request context. A missing or invalid token means
// a fresh session, never a rejected request.
func SessionTokenMiddleware(tokens *service.SessionTokens) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := r.Header.Get("X-Session-Token")
			if raw == "" {
				if auth := r.Header.Get("Authorization"); auth != "" {
					parts := strings.SplitN(auth, " ", 2)
					if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
						raw = parts[1]
					}
				}
			}

			ctx := context.WithValue(r.Context(), sessionIDKey, tokens.Resolve(raw))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// SessionIDFromContext extracts the resolved session id from context.
func SessionIDFromContext(ctx context.Context) string {
	v, _ := ctx.Value(sessionIDKey).(string)
	return v
}
