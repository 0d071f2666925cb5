// Package middleware provides HTTP middleware for the web server.
package middleware

import (
	"crypto/subtle"
	"log/slog"
	"net/http"
	"strings"

	"github.com/enrollhub/enrollhub/internal/config"
	"github.com/enrollhub/enrollhub/internal/core"
)

// Authenticate resolves the caller's opaque user identifier from a bearer
// token and stamps it onto the request context. The identity provider
// itself is external; this middleware only maps already-issued tokens to
// user identifiers.
//
// Requests without a resolvable identity get 401. When auth is disabled
// (local development) every request runs as the configured dev user.
func Authenticate(cfg *config.AuthConfig) func(http.Handler) http.Handler {
	tokens, users := tokenTable(cfg)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if cfg.Disabled {
				ctx := core.ContextWithUserID(r.Context(), cfg.DevUser)
				next.ServeHTTP(w, r.WithContext(ctx))
				return
			}

			token := bearerToken(r)
			if token == "" {
				slog.Warn("auth: missing token",
					"path", r.URL.Path,
					"method", r.Method,
					"remote_addr", r.RemoteAddr,
				)
				unauthorized(w)
				return
			}

			userID := resolveUser(token, tokens, users)
			if userID == "" {
				slog.Warn("auth: invalid token",
					"path", r.URL.Path,
					"method", r.Method,
					"remote_addr", r.RemoteAddr,
				)
				unauthorized(w)
				return
			}

			ctx := core.ContextWithUserID(r.Context(), userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// tokenTable splits the configured token map into parallel slices so the
// lookup can run in constant time over all entries.
func tokenTable(cfg *config.AuthConfig) ([]string, []string) {
	m := cfg.TokenUsers()
	tokens := make([]string, 0, len(m))
	users := make([]string, 0, len(m))
	for token, user := range m {
		tokens = append(tokens, token)
		users = append(users, user)
	}
	return tokens, users
}

// resolveUser compares the presented token against every configured token.
// All entries are always checked so the comparison time does not depend on
// which token matches, or whether any does.
func resolveUser(token string, tokens, users []string) string {
	matched := -1
	for i, t := range tokens {
		if subtle.ConstantTimeCompare([]byte(token), []byte(t)) == 1 {
			matched = i
		}
	}
	if matched < 0 {
		return ""
	}
	return users[matched]
}

// bearerToken extracts the token from the Authorization header.
func bearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if len(auth) > len(prefix) && strings.EqualFold(auth[:len(prefix)], prefix) {
		return strings.TrimSpace(auth[len(prefix):])
	}
	return ""
}

func unauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	w.Write([]byte(`{"success":false,"error":"Unauthorized."}`))
}
