package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/tubehub/backend/internal/logging"
	"github.com/tubehub/backend/internal/models"
	"github.com/tubehub/backend/internal/repositories"
)

type userCtxKey struct{}

// AccessTokenCookie is the cookie carrying the short-lived access token.
const AccessTokenCookie = "accessToken"

// TokenVerifier validates an access token and returns the user id it asserts.
type TokenVerifier interface {
	VerifyAccess(token string) (string, error)
}

// UserLoader resolves a stored user by id.
type UserLoader interface {
	FindByID(ctx context.Context, id string) (models.User, error)
}

// UserFromContext returns the authenticated caller attached by Authenticate.
func UserFromContext(ctx context.Context) (models.Profile, bool) {
	profile, ok := ctx.Value(userCtxKey{}).(models.Profile)
	return profile, ok
}

// WithUser attaches the caller's public profile to the context. Exposed for tests.
func WithUser(ctx context.Context, profile models.Profile) context.Context {
	return context.WithValue(ctx, userCtxKey{}, profile)
}

// Authenticate verifies the access token from the accessToken cookie or the
// Authorization header, resolves the caller and attaches its public profile
// to the request context. Missing, expired and forged tokens are rejected
// with the same message so the response cannot be used to probe token state.
func Authenticate(verifier TokenVerifier, users UserLoader) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			logger := logging.FromContext(ctx)

			token := extractToken(r)
			if token == "" {
				rejectUnauthenticated(w)
				return
			}

			userID, err := verifier.VerifyAccess(token)
			if err != nil {
				logger.Warn("access token rejected")
				rejectUnauthenticated(w)
				return
			}

			user, err := users.FindByID(ctx, userID)
			if err != nil {
				if !errors.Is(err, repositories.ErrNotFound) {
					logger.Error("resolve authenticated user", "error", err)
				}
				rejectUnauthenticated(w)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUser(ctx, user.Public())))
		})
	}
}

func extractToken(r *http.Request) string {
	if cookie, err := r.Cookie(AccessTokenCookie); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	header := r.Header.Get("Authorization")
	if token, ok := strings.CutPrefix(header, "Bearer "); ok {
		return strings.TrimSpace(token)
	}
	return ""
}

func rejectUnauthenticated(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"statusCode": http.StatusUnauthorized,
		"message":    "unauthorized request",
		"success":    false,
	})
}
