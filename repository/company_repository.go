package repository

import (
	"github.com/camden-git/adminconsole/models"
	"gorm.io/gorm"
)

type GormCompanyRepository struct {
	db *gorm.DB
}

func NewGormCompanyRepository(db *gorm.DB) CompanyRepository {
	return &GormCompanyRepository{db: db}
}

// Get returns the single company record, or gorm.ErrRecordNotFound before one is saved
func (r *GormCompanyRepository) Get() (*models.Company, error) {
	var company models.Company
	if err := r.db.Order("id").First(&company).Error; err != nil {
		return nil, err
	}
	return &company, nil
}

// Save creates the record on first use and overwrites it afterwards
func (r *GormCompanyRepository) Save(company *models.Company) error {
	if company.ID == 0 {
		existing, err := r.Get()
		if err != nil && !IsNotFound(err) {
			return err
		}
		if existing != nil {
			company.ID = existing.ID
		}
	}
	return r.db.Save(company).Error
}
