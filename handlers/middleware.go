package handlers

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/camden-git/adminconsole/models"
	"github.com/camden-git/adminconsole/repository"
	"github.com/camden-git/adminconsole/session"
)

// ContextKey is a custom type for context keys to avoid collisions.
type ContextKey string

const (
	// UserContextKey is the key used to store the user object in the request context.
	UserContextKey ContextKey = "user"
)

// UserFromContext returns the authenticated user stored by AuthMiddleware.
func UserFromContext(ctx context.Context) (*models.User, bool) {
	user, ok := ctx.Value(UserContextKey).(*models.User)
	return user, ok && user != nil
}

func bearerToken(r *http.Request) (string, error) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", fmt.Errorf("Authorization header required")
	}
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
		return "", fmt.Errorf("Authorization header format must be Bearer {token}")
	}
	return parts[1], nil
}

// AuthMiddleware creates a middleware handler for JWT authentication.
// It verifies the token and, if valid, fetches the user and adds them to the request context.
// Inactive users are rejected even while their token is still valid.
func AuthMiddleware(secret []byte, userRepo repository.UserRepository) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString, err := bearerToken(r)
			if err != nil {
				WriteAPIError(w, http.StatusUnauthorized, "unauthorized", err.Error())
				return
			}

			claims, err := session.ParseToken(secret, tokenString)
			if err != nil {
				WriteAPIError(w, http.StatusUnauthorized, "invalid_token", "Invalid token: "+err.Error())
				return
			}

			userID, err := claims.UserID()
			if err != nil {
				log.Printf("Warning: %v", err)
				WriteAPIError(w, http.StatusUnauthorized, "invalid_token", "Invalid user ID in token")
				return
			}

			user, err := userRepo.GetByID(userID)
			if err != nil || !user.IsActive() {
				// deleted or deactivated after the token was issued
				WriteAPIError(w, http.StatusUnauthorized, "unauthorized", "User not found")
				return
			}

			ctx := context.WithValue(r.Context(), UserContextKey, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequirePermission is a middleware that checks if the authenticated user has
// the named permission. Admin users pass every check. It should be used after AuthMiddleware.
func RequirePermission(requiredPermission string) func(http.Handler) http.Handler {
	return RequireAnyPermission(requiredPermission)
}

// RequireAnyPermission is a middleware that checks if the authenticated user has
// at least one of the named permissions. It should be used after AuthMiddleware.
func RequireAnyPermission(permissionNames ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := UserFromContext(r.Context())
			if !ok {
				// This should not happen if AuthMiddleware ran successfully
				WriteAPIError(w, http.StatusInternalServerError, "internal_error", "User not found in context")
				return
			}

			for _, p := range permissionNames {
				if user.HasPermission(p) {
					next.ServeHTTP(w, r)
					return
				}
			}
			WriteAPIError(w, http.StatusForbidden, "forbidden",
				fmt.Sprintf("Forbidden: requires one of the following permissions: %s", strings.Join(permissionNames, ", ")))
		})
	}
}
