package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"campusmantri/internal/httputil"
	"campusmantri/internal/model"
)

// contextKey is a custom type for context keys to avoid collisions
type contextKey string

const (
	// AuthUIDKey is the context key for the authenticated identity's uid
	AuthUIDKey contextKey = "auth_uid"
)

// AuthMiddleware creates a middleware that validates JWT tokens
// Checks Authorization header first (for mobile), then falls back to cookie (for web)
func AuthMiddleware(jwtSecret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var tokenString string

			// 1. Try Authorization header first
			authHeader := r.Header.Get("Authorization")
			if authHeader != "" {
				// Expected format: "Bearer <token>"
				parts := strings.SplitN(authHeader, " ", 2)
				if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
					tokenString = parts[1]
				}
			}

			// 2. Fall back to cookie (web browsers)
			if tokenString == "" {
				cookie, err := r.Cookie("access_token")
				if err == nil && cookie.Value != "" {
					tokenString = cookie.Value
				}
			}

			if tokenString == "" {
				httputil.WriteUnauthorized(w, "Missing authentication token")
				return
			}

			// Parse and validate token
			token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
				// Validate signing method
				if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, jwt.ErrSignatureInvalid
				}
				return []byte(jwtSecret), nil
			})

			if err != nil {
				if strings.Contains(err.Error(), "expired") {
					httputil.WriteUnauthorizedWithCode(w, model.CodeTokenExpired, "Access token has expired")
					return
				}
				httputil.WriteUnauthorizedWithCode(w, model.CodeTokenInvalid, "Invalid authentication token")
				return
			}

			claims, ok := token.Claims.(jwt.MapClaims)
			if !ok || !token.Valid {
				httputil.WriteUnauthorizedWithCode(w, model.CodeTokenInvalid, "Invalid authentication token")
				return
			}

			authUID, ok := claims["auth_uid"].(string)
			if !ok || authUID == "" {
				httputil.WriteUnauthorizedWithCode(w, model.CodeTokenInvalid, "Invalid token claims")
				return
			}

			ctx := context.WithValue(r.Context(), AuthUIDKey, authUID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetAuthUIDFromContext extracts the identity uid from the request context
// Returns the uid and true if found, or "" and false if not found
func GetAuthUIDFromContext(ctx context.Context) (string, bool) {
	authUID, ok := ctx.Value(AuthUIDKey).(string)
	return authUID, ok
}

// WithAuthUID returns a context carrying the identity uid. Used by tests to
// exercise handlers without going through the middleware.
func WithAuthUID(ctx context.Context, authUID string) context.Context {
	return context.WithValue(ctx, AuthUIDKey, authUID)
}
