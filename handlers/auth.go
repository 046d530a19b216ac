package handlers

import (
	"log"
	"net/http"
	"time"

	"github.com/camden-git/adminconsole/models"
	"github.com/camden-git/adminconsole/repository"
	"github.com/camden-git/adminconsole/session"
)

type AuthHandler struct {
	UserRepo  repository.UserRepository
	JWTSecret []byte
	TokenTTL  time.Duration
}

func NewAuthHandler(userRepo repository.UserRepository, jwtSecret []byte, tokenTTL time.Duration) *AuthHandler {
	return &AuthHandler{UserRepo: userRepo, JWTSecret: jwtSecret, TokenTTL: tokenTTL}
}

type LoginPayload struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// loginResponseFor builds the body shared by login and profile.
// Admin users get the wildcard permission instead of the full list.
func loginResponseFor(user *models.User, token string) session.LoginResponse {
	perms := user.PermissionNames()
	if user.IsAdmin() {
		perms = []string{session.AllPermissions}
	}
	return session.LoginResponse{
		Token:           token,
		UserID:          user.ID,
		UserName:        user.Name,
		UserLastName:    user.LastName,
		UserEmail:       user.Email,
		UserRole:        user.RoleName(),
		UserImage:       user.Image,
		UserPermissions: perms,
	}
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var payload LoginPayload
	if !decodeAndValidate(w, r, &payload) {
		return
	}

	user, err := h.UserRepo.GetByEmail(payload.Email)
	if err != nil || !user.IsActive() || !user.CheckPassword(payload.Password) {
		WriteAPIError(w, http.StatusUnauthorized, "invalid_credentials", "Invalid email or password")
		return
	}

	tokenString, _, err := session.IssueToken(h.JWTSecret, user, h.TokenTTL)
	if err != nil {
		log.Printf("Error issuing token for user %d: %v", user.ID, err)
		WriteAPIError(w, http.StatusInternalServerError, "internal_error", "Failed to generate token")
		return
	}

	writeJSON(w, http.StatusOK, loginResponseFor(user, tokenString))
}

// Logout is acknowledged only; tokens are stateless and discarded by the client.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"message": "Logged out successfully. Please discard your token."})
}

// Profile returns the authenticated user in the login response shape, without a new token.
func (h *AuthHandler) Profile(w http.ResponseWriter, r *http.Request) {
	user, ok := UserFromContext(r.Context())
	if !ok {
		WriteAPIError(w, http.StatusInternalServerError, "internal_error", "Could not retrieve user from context")
		return
	}
	writeJSON(w, http.StatusOK, loginResponseFor(user, ""))
}
