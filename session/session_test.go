package session

import (
	"errors"
	"testing"
	"time"

	"github.com/camden-git/adminconsole/models"
)

var testSecret = []byte("test-secret")

func testUser(role string, perms ...string) *models.User {
	r := &models.Role{ID: 2, Name: role}
	for i, p := range perms {
		r.Permissions = append(r.Permissions, models.Permission{ID: uint(i + 1), Name: p})
	}
	return &models.User{ID: 42, Name: "Ana", LastName: "Pérez", Email: "ana@example.com", Role: r}
}

func loginResponse(t *testing.T, user *models.User, ttl time.Duration) LoginResponse {
	t.Helper()
	token, _, err := IssueToken(testSecret, user, ttl)
	if err != nil {
		t.Fatalf("IssueToken() failed: %v", err)
	}
	return LoginResponse{
		Token:           token,
		UserID:          user.ID,
		UserName:        user.Name,
		UserLastName:    user.LastName,
		UserEmail:       user.Email,
		UserRole:        user.RoleName(),
		UserPermissions: user.PermissionNames(),
	}
}

func TestNewReadsExpiryFromToken(t *testing.T) {
	s, err := New(loginResponse(t, testUser("Vendedor", "Ver Usuarios"), time.Hour))
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	if d := time.Until(s.ExpiresAt()); d < 59*time.Minute || d > time.Hour+time.Minute {
		t.Fatalf("ExpiresAt() is %v away, want about an hour", d)
	}
	if !s.IsAuthenticated() || s.Token() == "" {
		t.Fatal("fresh session should be authenticated")
	}
}

func TestNewRequiresToken(t *testing.T) {
	if _, err := New(LoginResponse{}); !errors.Is(err, ErrNoToken) {
		t.Fatalf("New() error = %v, want ErrNoToken", err)
	}
}

func TestNewWithUnreadableTokenFallsBack(t *testing.T) {
	s, err := New(LoginResponse{Token: "not-a-jwt", UserRole: "Vendedor"})
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	if d := time.Until(s.ExpiresAt()); d < 23*time.Hour {
		t.Fatalf("fallback expiry too short: %v", d)
	}
}

func TestPermissionChecks(t *testing.T) {
	s, _ := New(loginResponse(t, testUser("Vendedor", "Ver Usuarios", "Crear Usuarios"), time.Hour))

	if !s.HasPermission("Ver Usuarios") {
		t.Error("HasPermission(Ver Usuarios) = false")
	}
	if s.HasPermission("ver usuarios") {
		t.Error("HasPermission is an exact match")
	}
	if !s.Allows("  ver USUARIOS ") {
		t.Error("Allows() should normalize names")
	}
	if s.Allows("Ver Roles") {
		t.Error("Allows(Ver Roles) = true")
	}
	if s.IsAdmin() {
		t.Error("IsAdmin() = true")
	}
}

func TestAdminGetsWildcard(t *testing.T) {
	s, _ := New(loginResponse(t, testUser("Admin", "Ver Usuarios"), time.Hour))

	perms := s.Permissions()
	if len(perms) != 1 || perms[0] != AllPermissions {
		t.Fatalf("Permissions() = %v, want [*]", perms)
	}
	if !s.Allows("Ver Reportes de Ventas") {
		t.Fatal("Admin should be allowed everything")
	}
}

func TestExpiredSession(t *testing.T) {
	s, _ := New(loginResponse(t, testUser("Vendedor", "Ver Usuarios"), time.Hour))
	s.now = func() time.Time { return time.Now().Add(2 * time.Hour) }

	if s.IsAuthenticated() {
		t.Fatal("session should be expired")
	}
	if s.Token() != "" {
		t.Fatal("expired session must not hand out its token")
	}
	if s.HasPermission("Ver Usuarios") {
		t.Fatal("expired session has no permissions")
	}
}

func TestClose(t *testing.T) {
	s, _ := New(loginResponse(t, testUser("Vendedor", "Ver Usuarios"), time.Hour))
	s.Close()
	if s.IsAuthenticated() || s.CurrentUser() != nil || s.Allows("Ver Usuarios") {
		t.Fatal("closed session should hold nothing")
	}
}

func TestParseToken(t *testing.T) {
	user := testUser("Vendedor", "Ver Roles")
	token, _, err := IssueToken(testSecret, user, time.Hour)
	if err != nil {
		t.Fatal(err)
	}

	claims, err := ParseToken(testSecret, token)
	if err != nil {
		t.Fatalf("ParseToken() failed: %v", err)
	}
	id, err := claims.UserID()
	if err != nil || id != 42 {
		t.Fatalf("UserID() = %d, %v", id, err)
	}
	if claims.Role != "Vendedor" || len(claims.Permissions) != 1 {
		t.Fatalf("unexpected claims %+v", claims)
	}

	if _, err := ParseToken([]byte("other"), token); err == nil {
		t.Fatal("ParseToken() with the wrong secret should fail")
	}
}
