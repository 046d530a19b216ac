package repository

import (
	"github.com/camden-git/adminconsole/models"
	"gorm.io/gorm"
)

type GormPermissionRepository struct {
	db *gorm.DB
}

func NewGormPermissionRepository(db *gorm.DB) PermissionRepository {
	return &GormPermissionRepository{db: db}
}

func (r *GormPermissionRepository) ListAll() ([]models.Permission, error) {
	var perms []models.Permission
	err := r.db.Order("id").Find(&perms).Error
	return perms, err
}

func (r *GormPermissionRepository) GetByIDs(ids []uint) ([]models.Permission, error) {
	perms := []models.Permission{}
	if len(ids) == 0 {
		return perms, nil
	}
	err := r.db.Where("id IN ?", ids).Order("id").Find(&perms).Error
	return perms, err
}

func (r *GormPermissionRepository) GetByCode(code string) (*models.Permission, error) {
	var perm models.Permission
	if err := r.db.Where("code = ?", code).First(&perm).Error; err != nil {
		return nil, err
	}
	return &perm, nil
}
