package models

import "time"

// Permission is a single named capability, e.g. "Ver Usuarios".
// Names follow the "<Action> <Module...>" convention; see permissions.ModuleOf.
type Permission struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	Name      string    `json:"nombre" gorm:"uniqueIndex;not null"`
	Code      string    `json:"codigo" gorm:"uniqueIndex;not null"`
	CreatedAt time.Time `json:"-"`
	UpdatedAt time.Time `json:"-"`
}

// RolePermission is the join table between roles and permissions.
type RolePermission struct {
	RoleID       uint       `json:"role_id" gorm:"primaryKey"`
	PermissionID uint       `json:"permission_id" gorm:"primaryKey"`
	Role         Role       `json:"-" gorm:"foreignKey:RoleID"`
	Permission   Permission `json:"-" gorm:"foreignKey:PermissionID"`
	CreatedAt    time.Time  `json:"created_at"`
}

// TableName overrides the table name for RolePermission to be `role_permissions`
func (RolePermission) TableName() string {
	return "role_permissions"
}

// PermissionNames returns the names of the given permissions, keeping their order.
func PermissionNames(perms []Permission) []string {
	names := make([]string, len(perms))
	for i, p := range perms {
		names[i] = p.Name
	}
	return names
}
