package handlers

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/camden-git/adminconsole/database"
	"github.com/camden-git/adminconsole/models"
	"gorm.io/gorm"
)

// RoleSyncer grants every catalog permission to a role; implemented by services.RolePermissionService.
type RoleSyncer interface {
	SyncRole(ctx context.Context, roleName string) (*models.Role, error)
}

type SetupHandler struct {
	DB            *gorm.DB
	AdminRoleName string
}

func NewSetupHandler(db *gorm.DB, adminRoleName string) *SetupHandler {
	if adminRoleName == "" {
		adminRoleName = models.AdminRoleName
	}
	return &SetupHandler{DB: db, AdminRoleName: adminRoleName}
}

type FirstAdminPayload struct {
	Name     string `json:"nombre" validate:"required,max=100"`
	LastName string `json:"apellido" validate:"max=100"`
	Email    string `json:"correo" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

var errSetupCompleted = errors.New("setup already completed")

// SyncAdminRole seeds the permission catalog and ensures the admin role exists and holds
// every permission. This function is idempotent and safe to run on every application startup.
func SyncAdminRole(ctx context.Context, db *gorm.DB, syncer RoleSyncer, roleName string) error {
	log.Printf("Syncing '%s' role...", roleName)
	if err := database.SeedPermissions(db); err != nil {
		return err
	}
	role, err := syncer.SyncRole(ctx, roleName)
	if err != nil {
		return fmt.Errorf("failed to sync '%s' role: %w", roleName, err)
	}
	log.Printf("'%s' role is up to date with %d permissions.", role.Name, len(role.Permissions))
	return nil
}

// CreateFirstAdmin handles the creation of the initial administrator user
// This endpoint should only be usable if no other users exist in the system!!
func (h *SetupHandler) CreateFirstAdmin(w http.ResponseWriter, r *http.Request) {
	var payload FirstAdminPayload
	if !decodeAndValidate(w, r, &payload) {
		return
	}

	txErr := h.DB.Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.User{}).Count(&count).Error; err != nil {
			return fmt.Errorf("failed to count existing users in transaction: %w", err)
		}
		if count > 0 {
			return errSetupCompleted
		}

		var adminRole models.Role
		err := tx.Where("LOWER(name) = ?", strings.ToLower(h.AdminRoleName)).First(&adminRole).Error
		if err != nil {
			return fmt.Errorf("could not find the '%s' role, which should have been auto-generated: %w", h.AdminRoleName, err)
		}

		adminUser := &models.User{
			Name:     strings.TrimSpace(payload.Name),
			LastName: strings.TrimSpace(payload.LastName),
			Email:    strings.TrimSpace(payload.Email),
			Status:   models.UserStatusActive,
			RoleID:   &adminRole.ID,
		}
		if err := adminUser.SetPassword(payload.Password); err != nil {
			return fmt.Errorf("failed to hash password: %w", err)
		}
		if err := tx.Create(adminUser).Error; err != nil {
			return fmt.Errorf("failed to create admin user: %w", err)
		}

		log.Printf("Successfully created initial admin user '%s' with the '%s' role.", adminUser.Email, adminRole.Name)
		return nil
	})

	if txErr != nil {
		if errors.Is(txErr, errSetupCompleted) {
			WriteAPIError(w, http.StatusForbidden, "setup_completed", "Setup has already been completed: users exist.")
		} else {
			WriteAPIError(w, http.StatusInternalServerError, "internal_error", "Failed to create first admin user: "+txErr.Error())
		}
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{"message": "Initial admin user created successfully. Please log in."})
}
