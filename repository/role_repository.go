package repository

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/camden-git/adminconsole/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type GormRoleRepository struct {
	db *gorm.DB
}

func NewGormRoleRepository(db *gorm.DB) RoleRepository {
	return &GormRoleRepository{db: db}
}

func (r *GormRoleRepository) Create(role *models.Role) error {
	return r.db.Omit("Permissions.*").Create(role).Error
}

func (r *GormRoleRepository) GetByID(id uint) (*models.Role, error) {
	var role models.Role
	err := r.db.Preload("Permissions", func(db *gorm.DB) *gorm.DB {
		return db.Order("permissions.id")
	}).First(&role, id).Error
	if err != nil {
		return nil, err
	}
	return &role, nil
}

// GetByName matches the role name case-insensitively
func (r *GormRoleRepository) GetByName(name string) (*models.Role, error) {
	var role models.Role
	err := r.db.Preload("Permissions").
		Where("LOWER(name) = ?", strings.ToLower(strings.TrimSpace(name))).
		First(&role).Error
	if err != nil {
		return nil, err
	}
	return &role, nil
}

func (r *GormRoleRepository) ListAll() ([]models.Role, error) {
	var roles []models.Role
	err := r.db.Order("name").Find(&roles).Error
	return roles, err
}

// List returns one page of roles whose name contains filter, and the total number of matches
func (r *GormRoleRepository) List(filter string, offset, limit int) ([]models.Role, int64, error) {
	q := r.db.Model(&models.Role{})
	if f := strings.ToLower(strings.TrimSpace(filter)); f != "" {
		q = q.Where("LOWER(name) LIKE ?", "%"+f+"%")
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count roles: %w", err)
	}

	roles := []models.Role{}
	if limit > 0 {
		q = q.Offset(offset).Limit(limit)
	}
	if err := q.Order("name").Find(&roles).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list roles: %w", err)
	}
	return roles, total, nil
}

func (r *GormRoleRepository) Update(role *models.Role) error {
	res := r.db.Model(&models.Role{}).Where("id = ?", role.ID).
		Updates(map[string]interface{}{"name": role.Name, "description": role.Description})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *GormRoleRepository) Delete(id uint) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&models.Role{}, id).Error; err != nil {
			return err
		}
		var users int64
		if err := tx.Model(&models.User{}).Where("role_id = ?", id).Count(&users).Error; err != nil {
			return err
		}
		if users > 0 {
			return fmt.Errorf("%w: %d user(s)", ErrRoleInUse, users)
		}
		if err := tx.Where("role_id = ?", id).Delete(&models.RolePermission{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Role{}, id).Error
	})
}

// GetPermissions returns the permissions assigned to a role ordered by id.
// gorm.ErrRecordNotFound is returned when the role itself does not exist.
func (r *GormRoleRepository) GetPermissions(roleID uint) ([]models.Permission, error) {
	role, err := r.GetByID(roleID)
	if err != nil {
		return nil, err
	}
	if role.Permissions == nil {
		return []models.Permission{}, nil
	}
	return role.Permissions, nil
}

// uniqueIDs drops duplicates and returns the ids sorted ascending
func uniqueIDs(ids []uint) []uint {
	seen := make(map[uint]struct{}, len(ids))
	out := make([]uint, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// checkPermissionIDs verifies every id exists in the catalog
func checkPermissionIDs(tx *gorm.DB, ids []uint) error {
	if len(ids) == 0 {
		return nil
	}
	var found []uint
	if err := tx.Model(&models.Permission{}).Where("id IN ?", ids).Pluck("id", &found).Error; err != nil {
		return err
	}
	if len(found) == len(ids) {
		return nil
	}
	known := make(map[uint]bool, len(found))
	for _, id := range found {
		known[id] = true
	}
	var missing []uint
	for _, id := range ids {
		if !known[id] {
			missing = append(missing, id)
		}
	}
	return fmt.Errorf("%w: %v", ErrUnknownPermissions, missing)
}

func rolePermissionRows(roleID uint, ids []uint) []models.RolePermission {
	rows := make([]models.RolePermission, len(ids))
	for i, id := range ids {
		rows[i] = models.RolePermission{RoleID: roleID, PermissionID: id}
	}
	return rows
}

// ReplacePermissions makes permissionIDs the exact permission set of the role
func (r *GormRoleRepository) ReplacePermissions(roleID uint, permissionIDs []uint) error {
	ids := uniqueIDs(permissionIDs)
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&models.Role{}, roleID).Error; err != nil {
			return err
		}
		if err := checkPermissionIDs(tx, ids); err != nil {
			return err
		}
		if err := tx.Where("role_id = ?", roleID).Delete(&models.RolePermission{}).Error; err != nil {
			return fmt.Errorf("failed to clear permissions of role %d: %w", roleID, err)
		}
		if len(ids) == 0 {
			return nil
		}
		if err := tx.Create(rolePermissionRows(roleID, ids)).Error; err != nil {
			return fmt.Errorf("failed to assign permissions to role %d: %w", roleID, err)
		}
		return nil
	})
}

// AddPermissions grants permissionIDs to the role, keeping the ones it already has
func (r *GormRoleRepository) AddPermissions(roleID uint, permissionIDs []uint) error {
	ids := uniqueIDs(permissionIDs)
	if len(ids) == 0 {
		return nil
	}
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&models.Role{}, roleID).Error; err != nil {
			return err
		}
		if err := checkPermissionIDs(tx, ids); err != nil {
			return err
		}
		return tx.Clauses(clause.OnConflict{DoNothing: true}).Create(rolePermissionRows(roleID, ids)).Error
	})
}

func (r *GormRoleRepository) FindUsersByRoleID(roleID uint) ([]models.User, error) {
	var role models.Role

	err := r.db.Preload("Users", func(db *gorm.DB) *gorm.DB {
		return db.Order("users.name")
	}).First(&role, roleID).Error
	if err != nil {
		return nil, err
	}
	if role.Users == nil {
		return []models.User{}, nil
	}
	return role.Users, nil
}

func (r *GormRoleRepository) CountUsers(roleID uint) (int64, error) {
	var count int64
	err := r.db.Model(&models.User{}).Where("role_id = ?", roleID).Count(&count).Error
	return count, err
}

// IsNotFound reports whether err means the requested record does not exist
func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
