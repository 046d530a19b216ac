package models

import (
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// User statuses
const (
	UserStatusActive   = "Activo"
	UserStatusInactive = "Inactivo"
)

// User is an account of the administrative back office.
type User struct {
	ID           uint       `json:"id" gorm:"primaryKey"`
	Name         string     `json:"nombre" gorm:"not null"`
	LastName     string     `json:"apellido"`
	Email        string     `json:"correo" gorm:"uniqueIndex;not null"`
	PasswordHash string     `json:"-" gorm:"not null"` // "-" means don't include in JSON responses
	Image        string     `json:"imagen,omitempty"`
	BirthDate    *time.Time `json:"fechaNacimiento,omitempty"`
	Status       string     `json:"estado" gorm:"default:Activo"`
	RoleID       *uint      `json:"rolId,omitempty"`
	Role         *Role      `json:"rol,omitempty" gorm:"foreignKey:RoleID"`
	CreatedAt    time.Time  `json:"fechaCreacion"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// SetPassword hashes the given password and sets it on the user model.
func (u *User) SetPassword(password string) error {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = string(hashedPassword)
	return nil
}

// CheckPassword verifies if the given password matches the user's hashed password.
func (u *User) CheckPassword(password string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password))
	return err == nil
}

// IsActive reports whether the account has not been logically deleted.
func (u *User) IsActive() bool {
	return u.Status == "" || u.Status == UserStatusActive
}

// FullName joins name and last name.
func (u *User) FullName() string {
	return strings.TrimSpace(u.Name + " " + u.LastName)
}

// RoleName returns the name of the preloaded role, or "" when the user has none.
func (u *User) RoleName() string {
	if u.Role == nil {
		return ""
	}
	return u.Role.Name
}

// IsAdmin reports whether the user holds the built-in Admin role.
// Assumes u.Role is preloaded.
func (u *User) IsAdmin() bool {
	return u.Role != nil && u.Role.IsNamed(AdminRoleName)
}

// PermissionNames returns the names of the permissions granted through the user's role.
// Assumes u.Role.Permissions is preloaded.
func (u *User) PermissionNames() []string {
	if u.Role == nil {
		return []string{}
	}
	return PermissionNames(u.Role.Permissions)
}

// HasPermission checks whether the user's role grants the named permission.
// Admin users hold every permission.
func (u *User) HasPermission(permission string) bool {
	if u.IsAdmin() {
		return true
	}
	want := strings.ToLower(strings.TrimSpace(permission))
	for _, p := range u.PermissionNames() {
		if strings.ToLower(strings.TrimSpace(p)) == want {
			return true
		}
	}
	return false
}
