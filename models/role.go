package models

import (
	"strings"
	"time"
)

// AdminRoleName is the built-in role that always holds every permission.
// Its permission set is managed by SyncAdminRole and cannot be edited.
const AdminRoleName = "Admin"

// Role defines a named set of permissions that can be assigned to users
type Role struct {
	ID          uint         `json:"id" gorm:"primaryKey"`
	Name        string       `json:"nombre" gorm:"uniqueIndex;not null"`
	Description string       `json:"descripcion,omitempty"`
	Permissions []Permission `json:"permisos,omitempty" gorm:"many2many:role_permissions;"`
	Users       []User       `json:"-" gorm:"foreignKey:RoleID"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

// IsNamed reports whether the role's name matches name, ignoring case and surrounding spaces.
func (r *Role) IsNamed(name string) bool {
	return strings.EqualFold(strings.TrimSpace(r.Name), strings.TrimSpace(name))
}
