package repository

import (
	"errors"

	"github.com/camden-git/adminconsole/models"
)

var (
	// ErrRoleInUse is returned when deleting a role that still has users assigned
	ErrRoleInUse = errors.New("role has assigned users")
	// ErrUnknownPermissions is returned when a permission id does not exist in the catalog
	ErrUnknownPermissions = errors.New("unknown permission ids")
)

// PermissionRepository defines the methods for the permission catalog
type PermissionRepository interface {
	ListAll() ([]models.Permission, error)
	GetByIDs(ids []uint) ([]models.Permission, error)
	GetByCode(code string) (*models.Permission, error)
}

// RoleRepository defines the methods for role data operations
type RoleRepository interface {
	Create(role *models.Role) error
	GetByID(id uint) (*models.Role, error)
	GetByName(name string) (*models.Role, error)
	ListAll() ([]models.Role, error)
	List(filter string, offset, limit int) ([]models.Role, int64, error)
	Update(role *models.Role) error // name and description only
	Delete(id uint) error

	// permission assignment for a role
	GetPermissions(roleID uint) ([]models.Permission, error)
	ReplacePermissions(roleID uint, permissionIDs []uint) error
	AddPermissions(roleID uint, permissionIDs []uint) error

	// users holding a role
	FindUsersByRoleID(roleID uint) ([]models.User, error)
	CountUsers(roleID uint) (int64, error)
}

// UserRepository defines the methods for user data operations
type UserRepository interface {
	Create(user *models.User) error
	GetByID(id uint) (*models.User, error)
	GetByEmail(email string) (*models.User, error)
	Update(user *models.User) error
	SoftDelete(id uint) error
	List(filter string, offset, limit int) ([]models.User, int64, error)
	Count() (int64, error)
}

// CompanyRepository defines the methods for the company contact record
type CompanyRepository interface {
	Get() (*models.Company, error)
	Save(company *models.Company) error
}
