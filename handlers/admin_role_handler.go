package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/camden-git/adminconsole/editor"
	"github.com/camden-git/adminconsole/models"
	"github.com/camden-git/adminconsole/repository"
	"github.com/go-chi/chi/v5"
)

// RolePermissionManager assigns permissions to roles; implemented by services.RolePermissionService.
type RolePermissionManager interface {
	FetchAssignedPermissions(ctx context.Context, roleID uint) ([]models.Permission, error)
	ReplaceRolePermissions(ctx context.Context, roleID uint, ids []uint) error
	AddRolePermissions(ctx context.Context, roleID uint, ids []uint) error
	DeleteRole(ctx context.Context, roleID uint) error
	IsProtected(roleName string) bool
}

type AdminRoleHandler struct {
	RoleRepo    repository.RoleRepository
	Assignments RolePermissionManager
}

func NewAdminRoleHandler(roleRepo repository.RoleRepository, assignments RolePermissionManager) *AdminRoleHandler {
	return &AdminRoleHandler{RoleRepo: roleRepo, Assignments: assignments}
}

// --- DTOs for Role Management ---

type RolePayload struct {
	Name        string `json:"nombre" validate:"required,max=100"`
	Description string `json:"descripcion" validate:"max=255"`
}

// RoleResponseDTO is a simplified Role model for API responses.
type RoleResponseDTO struct {
	ID          uint                `json:"id"`
	Name        string              `json:"nombre"`
	Description string              `json:"descripcion"`
	Protected   bool                `json:"protegido"`
	Permissions []models.Permission `json:"permisos,omitempty"`
	CreatedAt   string              `json:"created_at"`
	UpdatedAt   string              `json:"updated_at"`
}

// UserSummaryDTO is a very minimal user representation for embedding in other responses.
type UserSummaryDTO struct {
	ID   uint   `json:"id"`
	Name string `json:"nombre"`
}

func toUserSummaryListDTO(users []models.User) []UserSummaryDTO {
	dtos := make([]UserSummaryDTO, len(users))
	for i, user := range users {
		dtos[i] = UserSummaryDTO{ID: user.ID, Name: user.FullName()}
	}
	return dtos
}

func (h *AdminRoleHandler) toRoleResponseDTO(role *models.Role) RoleResponseDTO {
	return RoleResponseDTO{
		ID:          role.ID,
		Name:        role.Name,
		Description: role.Description,
		Protected:   h.Assignments.IsProtected(role.Name),
		Permissions: role.Permissions,
		CreatedAt:   role.CreatedAt.Format(http.TimeFormat),
		UpdatedAt:   role.UpdatedAt.Format(http.TimeFormat),
	}
}

func (h *AdminRoleHandler) toRoleListResponseDTO(roles []models.Role) []RoleResponseDTO {
	dtos := make([]RoleResponseDTO, len(roles))
	for i := range roles {
		dtos[i] = h.toRoleResponseDTO(&roles[i])
	}
	return dtos
}

func parseUintParam(r *http.Request, name string) (uint, error) {
	id, err := strconv.ParseUint(chi.URLParam(r, name), 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid %s format", name)
	}
	return uint(id), nil
}

func decodeIDList(w http.ResponseWriter, r *http.Request) ([]uint, bool) {
	var ids []uint
	if err := json.NewDecoder(r.Body).Decode(&ids); err != nil {
		WriteAPIError(w, http.StatusBadRequest, "invalid_payload", "Expected a JSON array of permission ids: "+err.Error())
		return nil, false
	}
	return ids, true
}

// --- Handler Methods ---

// ListRoles godoc
// @Summary List roles
// @Description Roles whose name contains q. Paginated when page or pageSize is given, a plain array otherwise.
// @Tags roles
// @Produce json
// @Param q query string false "Name filter"
// @Success 200 {array} RoleResponseDTO
// @Router /api/roles [get]
// @Security BearerAuth
func (h *AdminRoleHandler) ListRoles(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := q.Get("q")

	if q.Get("page") == "" && q.Get("pageSize") == "" {
		roles, _, err := h.RoleRepo.List(filter, 0, 0)
		if err != nil {
			writeDomainError(w, err, "failed to retrieve roles")
			return
		}
		writeJSON(w, http.StatusOK, h.toRoleListResponseDTO(roles))
		return
	}

	page := pageFromRequest(r, DefaultPageSize)
	roles, total, err := h.RoleRepo.List(filter, page.Offset(), page.Size)
	if err != nil {
		writeDomainError(w, err, "failed to retrieve roles")
		return
	}
	writeJSON(w, http.StatusOK, newPaginatedResponse(h.toRoleListResponseDTO(roles), total, page))
}

// GetRole godoc
// @Summary Get a single role by ID, including its permissions
// @Tags roles
// @Produce json
// @Param roleID path int true "Role ID"
// @Success 200 {object} RoleResponseDTO
// @Failure 404 {object} APIErrorResponse
// @Router /api/roles/{roleID} [get]
// @Security BearerAuth
func (h *AdminRoleHandler) GetRole(w http.ResponseWriter, r *http.Request) {
	roleID, err := parseUintParam(r, "roleID")
	if err != nil {
		WriteAPIError(w, http.StatusBadRequest, "invalid_id", err.Error())
		return
	}
	role, err := h.RoleRepo.GetByID(roleID)
	if err != nil {
		writeDomainError(w, err, "role")
		return
	}
	writeJSON(w, http.StatusOK, h.toRoleResponseDTO(role))
}

// checkRoleName rejects reserved names and names already used by another role
func (h *AdminRoleHandler) checkRoleName(w http.ResponseWriter, name string, selfID uint) bool {
	if h.Assignments.IsProtected(name) {
		WriteAPIError(w, http.StatusBadRequest, "reserved_name", fmt.Sprintf("Role name '%s' is reserved.", name))
		return false
	}
	existing, err := h.RoleRepo.GetByName(name)
	if err == nil && existing.ID != selfID {
		WriteValidationError(w, editor.NewValidationError("nombre", "A role with this name already exists"))
		return false
	}
	if err != nil && !repository.IsNotFound(err) {
		writeDomainError(w, err, "failed to check role name")
		return false
	}
	return true
}

// CreateRole godoc
// @Summary Create a new role without permissions
// @Tags roles
// @Accept json
// @Produce json
// @Param role body RolePayload true "Role creation payload"
// @Success 201 {object} RoleResponseDTO
// @Failure 400 {object} APIErrorResponse
// @Router /api/roles [post]
// @Security BearerAuth
func (h *AdminRoleHandler) CreateRole(w http.ResponseWriter, r *http.Request) {
	var payload RolePayload
	if !decodeAndValidate(w, r, &payload) {
		return
	}
	payload.Name = strings.TrimSpace(payload.Name)
	if !h.checkRoleName(w, payload.Name, 0) {
		return
	}

	role := &models.Role{Name: payload.Name, Description: strings.TrimSpace(payload.Description)}
	if err := h.RoleRepo.Create(role); err != nil {
		writeDomainError(w, err, "failed to create role")
		return
	}
	writeJSON(w, http.StatusCreated, h.toRoleResponseDTO(role))
}

// UpdateRole godoc
// @Summary Rename or re-describe a role
// @Tags roles
// @Accept json
// @Produce json
// @Param roleID path int true "Role ID"
// @Param role body RolePayload true "Role update payload"
// @Success 200 {object} RoleResponseDTO
// @Failure 403 {object} APIErrorResponse
// @Router /api/roles/{roleID} [put]
// @Security BearerAuth
func (h *AdminRoleHandler) UpdateRole(w http.ResponseWriter, r *http.Request) {
	roleID, err := parseUintParam(r, "roleID")
	if err != nil {
		WriteAPIError(w, http.StatusBadRequest, "invalid_id", err.Error())
		return
	}
	var payload RolePayload
	if !decodeAndValidate(w, r, &payload) {
		return
	}

	role, err := h.RoleRepo.GetByID(roleID)
	if err != nil {
		writeDomainError(w, err, "role")
		return
	}
	if h.Assignments.IsProtected(role.Name) {
		WriteAPIError(w, http.StatusForbidden, "protected_role", fmt.Sprintf("The '%s' role cannot be modified.", role.Name))
		return
	}
	payload.Name = strings.TrimSpace(payload.Name)
	if !h.checkRoleName(w, payload.Name, role.ID) {
		return
	}

	role.Name = payload.Name
	role.Description = strings.TrimSpace(payload.Description)
	if err := h.RoleRepo.Update(role); err != nil {
		writeDomainError(w, err, "failed to update role")
		return
	}
	writeJSON(w, http.StatusOK, h.toRoleResponseDTO(role))
}

// DeleteRole godoc
// @Summary Delete a role that no user holds
// @Tags roles
// @Param roleID path int true "Role ID"
// @Success 204
// @Failure 400 {object} APIErrorResponse "users are still assigned"
// @Router /api/roles/{roleID} [delete]
// @Security BearerAuth
func (h *AdminRoleHandler) DeleteRole(w http.ResponseWriter, r *http.Request) {
	roleID, err := parseUintParam(r, "roleID")
	if err != nil {
		WriteAPIError(w, http.StatusBadRequest, "invalid_id", err.Error())
		return
	}
	role, err := h.RoleRepo.GetByID(roleID)
	if err != nil {
		writeDomainError(w, err, "role")
		return
	}
	if h.Assignments.IsProtected(role.Name) {
		WriteAPIError(w, http.StatusForbidden, "protected_role", fmt.Sprintf("The '%s' role cannot be deleted.", role.Name))
		return
	}
	if err := h.Assignments.DeleteRole(r.Context(), roleID); err != nil {
		writeDomainError(w, err, "failed to delete role")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListRoleUsers serves the users holding a role.
func (h *AdminRoleHandler) ListRoleUsers(w http.ResponseWriter, r *http.Request) {
	roleID, err := parseUintParam(r, "roleID")
	if err != nil {
		WriteAPIError(w, http.StatusBadRequest, "invalid_id", err.Error())
		return
	}
	users, err := h.RoleRepo.FindUsersByRoleID(roleID)
	if err != nil {
		writeDomainError(w, err, "role")
		return
	}
	writeJSON(w, http.StatusOK, toUserSummaryListDTO(users))
}

// GetRolePermissions serves the permissions assigned to a role; 404 while it has none.
func (h *AdminRoleHandler) GetRolePermissions(w http.ResponseWriter, r *http.Request) {
	roleID, err := parseUintParam(r, "roleID")
	if err != nil {
		WriteAPIError(w, http.StatusBadRequest, "invalid_id", err.Error())
		return
	}
	perms, err := h.Assignments.FetchAssignedPermissions(r.Context(), roleID)
	if err != nil {
		writeDomainError(w, err, "permissions of role")
		return
	}
	writeJSON(w, http.StatusOK, perms)
}

// AddRolePermissions grants the posted permission ids on top of the current ones.
func (h *AdminRoleHandler) AddRolePermissions(w http.ResponseWriter, r *http.Request) {
	roleID, err := parseUintParam(r, "roleID")
	if err != nil {
		WriteAPIError(w, http.StatusBadRequest, "invalid_id", err.Error())
		return
	}
	ids, ok := decodeIDList(w, r)
	if !ok {
		return
	}
	if err := h.Assignments.AddRolePermissions(r.Context(), roleID, ids); err != nil {
		writeDomainError(w, err, "role")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Permissions added to role."})
}

// ReplaceRolePermissions makes the posted permission ids the role's whole set.
func (h *AdminRoleHandler) ReplaceRolePermissions(w http.ResponseWriter, r *http.Request) {
	roleID, err := parseUintParam(r, "roleID")
	if err != nil {
		WriteAPIError(w, http.StatusBadRequest, "invalid_id", err.Error())
		return
	}
	ids, ok := decodeIDList(w, r)
	if !ok {
		return
	}
	if err := h.Assignments.ReplaceRolePermissions(r.Context(), roleID, ids); err != nil {
		writeDomainError(w, err, "role")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Role permissions updated."})
}
