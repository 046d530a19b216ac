package services

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/camden-git/adminconsole/editor"
	"github.com/camden-git/adminconsole/models"
	"github.com/camden-git/adminconsole/realtime"
	"github.com/camden-git/adminconsole/repository"
)

// PermissionsField is the validation field reported for permission id lists
const PermissionsField = "permisos"

// RolePermissionService serves the permission catalog and role assignments from the
// local database. It implements editor.Backend.
type RolePermissionService struct {
	roleRepo       repository.RoleRepository
	permissionRepo repository.PermissionRepository
	publisher      realtime.Publisher
	protectedRoles []string
}

// NewRolePermissionService creates a new role permission service.
// publisher may be nil; protectedRoles defaults to the Admin role.
func NewRolePermissionService(
	roleRepo repository.RoleRepository,
	permissionRepo repository.PermissionRepository,
	publisher realtime.Publisher,
	protectedRoles ...string,
) *RolePermissionService {
	if len(protectedRoles) == 0 {
		protectedRoles = []string{models.AdminRoleName}
	}
	return &RolePermissionService{
		roleRepo:       roleRepo,
		permissionRepo: permissionRepo,
		publisher:      publisher,
		protectedRoles: protectedRoles,
	}
}

var _ editor.Backend = (*RolePermissionService)(nil)

// IsProtected reports whether the named role's permissions are locked
func (s *RolePermissionService) IsProtected(roleName string) bool {
	return editor.IsProtectedRole(roleName, s.protectedRoles)
}

// FetchPermissionCatalog returns every permission ordered by id
func (s *RolePermissionService) FetchPermissionCatalog(ctx context.Context) ([]models.Permission, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	perms, err := s.permissionRepo.ListAll()
	if err != nil {
		return nil, fmt.Errorf("failed to list permission catalog: %w", err)
	}
	return perms, nil
}

// FetchAssignedPermissions returns the role's permissions, or editor.ErrNotFound when the
// role is unknown or has none assigned yet
func (s *RolePermissionService) FetchAssignedPermissions(ctx context.Context, roleID uint) ([]models.Permission, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	perms, err := s.roleRepo.GetPermissions(roleID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, fmt.Errorf("role %d: %w", roleID, editor.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get permissions of role %d: %w", roleID, err)
	}
	if len(perms) == 0 {
		return nil, fmt.Errorf("role %d has no permissions: %w", roleID, editor.ErrNotFound)
	}
	return perms, nil
}

// ReplaceRolePermissions sets the role's permissions to exactly ids
func (s *RolePermissionService) ReplaceRolePermissions(ctx context.Context, roleID uint, ids []uint) error {
	if len(ids) == 0 {
		return &editor.ValidationError{
			Fields: map[string][]string{PermissionsField: {editor.ErrNothingSelected.Error()}},
			Err:    editor.ErrNothingSelected,
		}
	}
	role, err := s.editableRole(ctx, roleID)
	if err != nil {
		return err
	}
	if err := s.roleRepo.ReplacePermissions(roleID, ids); err != nil {
		return translateAssignError(roleID, err)
	}

	log.Printf("Info: permissions of role '%s' (%d) replaced with %d permission(s)", role.Name, roleID, len(ids))
	s.publish(role, ids)
	return nil
}

// AddRolePermissions grants ids to the role on top of what it already has
func (s *RolePermissionService) AddRolePermissions(ctx context.Context, roleID uint, ids []uint) error {
	if len(ids) == 0 {
		return editor.NewValidationError(PermissionsField, "at least one permission id is required")
	}
	role, err := s.editableRole(ctx, roleID)
	if err != nil {
		return err
	}
	if err := s.roleRepo.AddPermissions(roleID, ids); err != nil {
		return translateAssignError(roleID, err)
	}

	current, err := s.roleRepo.GetPermissions(roleID)
	if err != nil {
		log.Printf("Warning: could not reload permissions of role %d after add: %v", roleID, err)
		return nil
	}
	s.publish(role, permissionIDs(current))
	return nil
}

// SyncRole grants every catalog permission to the named role, creating it when missing.
// Used on startup to keep the Admin role complete.
func (s *RolePermissionService) SyncRole(ctx context.Context, roleName string) (*models.Role, error) {
	catalog, err := s.FetchPermissionCatalog(ctx)
	if err != nil {
		return nil, err
	}

	role, err := s.roleRepo.GetByName(roleName)
	if err != nil {
		if !repository.IsNotFound(err) {
			return nil, fmt.Errorf("failed to query for '%s' role: %w", roleName, err)
		}
		role = &models.Role{Name: roleName, Description: "Full access to every module."}
		if err := s.roleRepo.Create(role); err != nil {
			return nil, fmt.Errorf("failed to create '%s' role: %w", roleName, err)
		}
		log.Printf("Info: '%s' role not found, created it", roleName)
	}

	if holdsExactly(role.Permissions, catalog) {
		return role, nil
	}
	if err := s.roleRepo.ReplacePermissions(role.ID, permissionIDs(catalog)); err != nil {
		return nil, fmt.Errorf("failed to update '%s' role permissions: %w", roleName, err)
	}
	log.Printf("Info: '%s' role now holds all %d permissions", roleName, len(catalog))
	return s.roleRepo.GetByID(role.ID)
}

// DeleteRole removes a role no user holds and notifies listeners. Protected roles
// cannot be deleted; repository.ErrRoleInUse is returned while users hold the role.
func (s *RolePermissionService) DeleteRole(ctx context.Context, roleID uint) error {
	role, err := s.editableRole(ctx, roleID)
	if err != nil {
		return err
	}
	if err := s.roleRepo.Delete(roleID); err != nil {
		return err
	}
	log.Printf("Info: role '%s' (%d) deleted", role.Name, roleID)
	if s.publisher != nil {
		s.publisher.Broadcast(realtime.Event{Type: realtime.EventRoleDeleted, RoleID: role.ID, RoleName: role.Name})
	}
	return nil
}

func (s *RolePermissionService) editableRole(ctx context.Context, roleID uint) (*models.Role, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	role, err := s.roleRepo.GetByID(roleID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, fmt.Errorf("role %d: %w", roleID, editor.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get role %d: %w", roleID, err)
	}
	if s.IsProtected(role.Name) {
		return nil, editor.ErrProtectedRole
	}
	return role, nil
}

func (s *RolePermissionService) publish(role *models.Role, ids []uint) {
	if s.publisher == nil {
		return
	}
	s.publisher.Broadcast(realtime.Event{
		Type:        realtime.EventRolePermissionsUpdated,
		RoleID:      role.ID,
		RoleName:    role.Name,
		Permissions: ids,
	})
}

func translateAssignError(roleID uint, err error) error {
	switch {
	case errors.Is(err, repository.ErrUnknownPermissions):
		return &editor.ValidationError{
			Fields: map[string][]string{PermissionsField: {err.Error()}},
			Err:    editor.ErrUnknownPermission,
		}
	case repository.IsNotFound(err):
		return fmt.Errorf("role %d: %w", roleID, editor.ErrNotFound)
	default:
		return fmt.Errorf("failed to assign permissions to role %d: %w", roleID, err)
	}
}

// holdsExactly reports whether held and want contain the same permission ids
func holdsExactly(held, want []models.Permission) bool {
	if len(held) != len(want) {
		return false
	}
	ids := make(map[uint]bool, len(held))
	for _, p := range held {
		ids[p.ID] = true
	}
	for _, p := range want {
		if !ids[p.ID] {
			return false
		}
	}
	return true
}

func permissionIDs(perms []models.Permission) []uint {
	ids := make([]uint, len(perms))
	for i, p := range perms {
		ids[i] = p.ID
	}
	return ids
}
