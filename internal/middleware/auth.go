package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"cabin-order-services/internal/auth"
)

type contextKey string

const authContextKey contextKey = "authContext"

// AuthContext is the verified staff session attached to the request.
type AuthContext struct {
	Location string
	Username string
}

func WithAuthContext(ctx context.Context, authCtx *AuthContext) context.Context {
	return context.WithValue(ctx, authContextKey, authCtx)
}

func GetAuthContext(ctx context.Context) (*AuthContext, bool) {
	value := ctx.Value(authContextKey)
	if value == nil {
		return nil, false
	}
	ac, ok := value.(*AuthContext)
	return ac, ok
}

// StaffAuth verifies the branch session token and injects the AuthContext.
func StaffAuth(jwtSecret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := auth.ParseBearerToken(r.Header.Get("Authorization"))
			if token == "" {
				writeAuthError(w, http.StatusUnauthorized, "Missing bearer token")
				return
			}

			claims, err := auth.VerifyAccessToken(token, jwtSecret)
			if err != nil {
				writeAuthError(w, http.StatusUnauthorized, "Invalid or expired session")
				return
			}

			authCtx := &AuthContext{
				Location: strings.TrimSpace(claims.Location),
				Username: claims.Username,
			}
			next.ServeHTTP(w, r.WithContext(WithAuthContext(r.Context(), authCtx)))
		})
	}
}

func writeAuthError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"success": false,
		"error":   "UNAUTHORIZED",
		"message": message,
	})
}
