package repository

import (
	"fmt"
	"strings"

	"github.com/camden-git/adminconsole/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type GormUserRepository struct {
	db *gorm.DB
}

func NewGormUserRepository(db *gorm.DB) UserRepository {
	return &GormUserRepository{db: db}
}

func (r *GormUserRepository) Create(user *models.User) error {
	return r.db.Omit(clause.Associations).Create(user).Error
}

func (r *GormUserRepository) GetByID(id uint) (*models.User, error) {
	var user models.User
	err := r.db.Preload("Role.Permissions").First(&user, id).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetByEmail matches the email case-insensitively
func (r *GormUserRepository) GetByEmail(email string) (*models.User, error) {
	var user models.User
	err := r.db.Preload("Role.Permissions").
		Where("LOWER(email) = ?", strings.ToLower(strings.TrimSpace(email))).
		First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *GormUserRepository) Update(user *models.User) error {
	return r.db.Omit(clause.Associations).Save(user).Error
}

// SoftDelete marks the user inactive; the row and its history are kept
func (r *GormUserRepository) SoftDelete(id uint) error {
	res := r.db.Model(&models.User{}).Where("id = ?", id).Update("status", models.UserStatusInactive)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// List returns one page of users matching filter on name, last name or email, and the total
func (r *GormUserRepository) List(filter string, offset, limit int) ([]models.User, int64, error) {
	q := r.db.Model(&models.User{})
	if f := strings.ToLower(strings.TrimSpace(filter)); f != "" {
		pattern := "%" + f + "%"
		q = q.Where("LOWER(name) LIKE ? OR LOWER(last_name) LIKE ? OR LOWER(email) LIKE ?", pattern, pattern, pattern)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count users: %w", err)
	}

	users := []models.User{}
	if limit > 0 {
		q = q.Offset(offset).Limit(limit)
	}
	if err := q.Preload("Role").Order("name").Order("id").Find(&users).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list users: %w", err)
	}
	return users, total, nil
}

func (r *GormUserRepository) Count() (int64, error) {
	var count int64
	err := r.db.Model(&models.User{}).Count(&count).Error
	return count, err
}
