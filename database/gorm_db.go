package database

import (
	"fmt"
	"log"
	"os"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"github.com/camden-git/adminconsole/models"
	"github.com/camden-git/adminconsole/permissions"
)

// InitGormDB initializes and returns a GORM database instance
func InitGormDB(dataSourceName string, logLevel logger.LogLevel) (*gorm.DB, error) {
	gormLogger := logger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags), // io writer
		logger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  logLevel,
			IgnoreRecordNotFoundError: true,
			Colorful:                  true,
		},
	)

	db, err := gorm.Open(sqlite.Open(dataSourceName), &gorm.Config{
		Logger: gormLogger,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database using GORM: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB from GORM: %w", err)
	}

	// enable write-ahead logging for better concurrency
	if err := db.Exec("PRAGMA journal_mode=WAL;").Error; err != nil {
		log.Printf("Warning: failed to set WAL mode: %v", err)
	}
	if err := db.Exec("PRAGMA foreign_keys = ON;").Error; err != nil {
		log.Printf("Warning: failed to enable foreign keys: %v", err)
	}

	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	log.Println("GORM Database initialized successfully at", dataSourceName)
	return db, nil
}

// AutoMigrateModels migrates every schema used by the service
func AutoMigrateModels(db *gorm.DB) error {
	if err := db.SetupJoinTable(&models.Role{}, "Permissions", &models.RolePermission{}); err != nil {
		return fmt.Errorf("failed to set up role_permissions join table: %w", err)
	}
	err := db.AutoMigrate(
		&models.Permission{},
		&models.Role{},
		&models.RolePermission{},
		&models.User{},
		&models.Company{},
	)
	if err != nil {
		return fmt.Errorf("GORM AutoMigrate failed: %w", err)
	}
	log.Println("GORM AutoMigrate completed successfully.")
	return nil
}

// SeedPermissions inserts every defined permission, renaming existing rows whose
// code matches. It is idempotent and safe to run on every startup.
func SeedPermissions(db *gorm.DB) error {
	defs := permissions.AllDefinitions()
	rows := make([]models.Permission, 0, len(defs))
	for _, def := range defs {
		rows = append(rows, models.Permission{Code: def.Code, Name: def.Name})
	}
	err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "code"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "updated_at"}),
	}).Create(&rows).Error
	if err != nil {
		return fmt.Errorf("failed to seed permissions: %w", err)
	}
	log.Printf("Permission catalog seeded (%d definitions)", len(defs))
	return nil
}
