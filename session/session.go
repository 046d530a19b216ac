package session

import (
	"errors"
	"fmt"
	"log"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/camden-git/adminconsole/models"
	"github.com/golang-jwt/jwt/v5"
)

// AllPermissions is the wildcard granted to Admin sessions.
const AllPermissions = "*"

// defaultLifetime is used when the token carries no readable expiry.
const defaultLifetime = 24 * time.Hour

// ErrNoToken is returned when a login response carries no token.
var ErrNoToken = errors.New("login response has no token")

// LoginResponse is the body returned by POST /api/auth/login.
type LoginResponse struct {
	Token           string   `json:"token"`
	UserID          uint     `json:"userId"`
	UserName        string   `json:"userName"`
	UserLastName    string   `json:"userApellido"`
	UserEmail       string   `json:"userEmail"`
	UserRole        string   `json:"userRole"`
	UserImage       string   `json:"userImage,omitempty"`
	UserPermissions []string `json:"userPermissions"`
}

// User is the signed-in account as seen by the session.
type User struct {
	ID          uint     `json:"id"`
	Email       string   `json:"email"`
	Name        string   `json:"name"`
	LastName    string   `json:"apellido"`
	Role        string   `json:"role"`
	Image       string   `json:"imagen,omitempty"`
	Permissions []string `json:"permisos"`
}

// Session is the explicit, per-login authentication context handed to the
// components that need it. It replaces any process-wide mutable auth state.
type Session struct {
	mu        sync.RWMutex
	token     string
	expiresAt time.Time
	user      *User
	now       func() time.Time
}

// New builds a session from a login response. Admin users get the wildcard permission.
func New(resp LoginResponse) (*Session, error) {
	if resp.Token == "" {
		return nil, ErrNoToken
	}
	s := &Session{token: resp.Token, now: time.Now}

	exp, err := tokenExpiry(resp.Token)
	if err != nil {
		log.Printf("Warning: could not read token expiration, assuming %s: %v", defaultLifetime, err)
		exp = s.now().Add(defaultLifetime)
	}
	s.expiresAt = exp

	perms := resp.UserPermissions
	if strings.EqualFold(resp.UserRole, models.AdminRoleName) {
		perms = []string{AllPermissions}
	}
	if perms == nil {
		perms = []string{}
	}
	s.user = &User{
		ID:          resp.UserID,
		Email:       resp.UserEmail,
		Name:        resp.UserName,
		LastName:    resp.UserLastName,
		Role:        resp.UserRole,
		Image:       resp.UserImage,
		Permissions: perms,
	}
	return s, nil
}

// tokenExpiry reads the exp claim without verifying the signature; the
// backend remains the authority on validity.
func tokenExpiry(token string) (time.Time, error) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}, fmt.Errorf("failed to parse token: %w", err)
	}
	exp, err := claims.GetExpirationTime()
	if err != nil {
		return time.Time{}, err
	}
	if exp == nil {
		return time.Time{}, errors.New("token has no exp claim")
	}
	return exp.Time, nil
}

// Token returns the bearer token, or "" once expired or closed.
func (s *Session) Token() string {
	if !s.IsAuthenticated() {
		return ""
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// ExpiresAt returns the token expiry.
func (s *Session) ExpiresAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.expiresAt
}

// CurrentUser returns a copy of the signed-in user, or nil after Close.
func (s *Session) CurrentUser() *User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return nil
	}
	u := *s.user
	u.Permissions = slices.Clone(s.user.Permissions)
	return &u
}

// IsAuthenticated reports whether the session holds an unexpired token.
func (s *Session) IsAuthenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.token == "" {
		return false
	}
	return s.expiresAt.After(s.now())
}

// IsAdmin reports whether the user holds the Admin role.
func (s *Session) IsAdmin() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user != nil && strings.EqualFold(s.user.Role, models.AdminRoleName)
}

// Permissions returns the granted permission names; empty when not authenticated.
func (s *Session) Permissions() []string {
	if !s.IsAuthenticated() {
		return []string{}
	}
	u := s.CurrentUser()
	if u == nil {
		return []string{}
	}
	return u.Permissions
}

// HasPermission is an exact-name check, used to show or hide individual actions.
func (s *Session) HasPermission(name string) bool {
	if !s.IsAuthenticated() {
		return false
	}
	return slices.Contains(s.Permissions(), name)
}

// Allows is the navigation check: Admin (or the wildcard) allows everything,
// other names are compared trimmed and case-insensitively.
func (s *Session) Allows(name string) bool {
	u := s.CurrentUser()
	if u == nil {
		return false
	}
	if s.IsAdmin() || slices.Contains(u.Permissions, AllPermissions) {
		return true
	}
	want := normalize(name)
	for _, p := range u.Permissions {
		if normalize(p) == want {
			return true
		}
	}
	return false
}

// Close drops the token and user. The session cannot be reused afterwards.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = ""
	s.user = nil
}

func normalize(p string) string {
	return strings.ToLower(strings.TrimSpace(p))
}
