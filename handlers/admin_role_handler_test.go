package handlers

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/camden-git/adminconsole/models"
	"github.com/camden-git/adminconsole/permissions"
	"github.com/camden-git/adminconsole/services"
)

func TestRoleCRUD(t *testing.T) {
	env := newTestEnv(t)

	rec := env.asAdmin(t, http.MethodPost, "/api/roles", RolePayload{Name: "  Ventas ", Description: "Equipo comercial"})
	expectStatus(t, rec, http.StatusCreated)
	var created RoleResponseDTO
	decodeBody(t, rec, &created)
	if created.Name != "Ventas" || created.Protected {
		t.Fatalf("created = %+v", created)
	}

	rec = env.asAdmin(t, http.MethodPost, "/api/roles", RolePayload{Name: "ventas"})
	expectStatus(t, rec, http.StatusBadRequest)
	if fields := fieldErrors(t, rec); len(fields["nombre"]) == 0 {
		t.Errorf("duplicate name: fields = %v, want nombre error", fields)
	}

	rec = env.asAdmin(t, http.MethodPost, "/api/roles", RolePayload{Name: "ADMIN"})
	expectStatus(t, rec, http.StatusBadRequest)

	rec = env.asAdmin(t, http.MethodPost, "/api/roles", RolePayload{})
	expectStatus(t, rec, http.StatusBadRequest)
	if fields := fieldErrors(t, rec); len(fields["nombre"]) == 0 {
		t.Errorf("missing name: fields = %v, want nombre error", fields)
	}

	path := fmt.Sprintf("/api/roles/%d", created.ID)
	rec = env.asAdmin(t, http.MethodPut, path, RolePayload{Name: "Ventas Norte"})
	expectStatus(t, rec, http.StatusOK)

	rec = env.asAdmin(t, http.MethodGet, path, nil)
	expectStatus(t, rec, http.StatusOK)
	var got RoleResponseDTO
	decodeBody(t, rec, &got)
	if got.Name != "Ventas Norte" {
		t.Errorf("name after update = %q", got.Name)
	}

	rec = env.asAdmin(t, http.MethodDelete, path, nil)
	expectStatus(t, rec, http.StatusNoContent)

	rec = env.asAdmin(t, http.MethodGet, path, nil)
	expectStatus(t, rec, http.StatusNotFound)
}

func TestListRolesFilterAndPagination(t *testing.T) {
	env := newTestEnv(t)
	for _, name := range []string{"Ventas", "Ventas Sur", "Bodega"} {
		env.roleWith(t, name)
	}

	rec := env.asAdmin(t, http.MethodGet, "/api/roles?q=ventas", nil)
	expectStatus(t, rec, http.StatusOK)
	var plain []RoleResponseDTO
	decodeBody(t, rec, &plain)
	if len(plain) != 2 {
		t.Errorf("filtered roles = %d, want 2", len(plain))
	}

	rec = env.asAdmin(t, http.MethodGet, "/api/roles?page=2&pageSize=3", nil)
	expectStatus(t, rec, http.StatusOK)
	var paged struct {
		Items      []RoleResponseDTO `json:"items"`
		TotalRows  int64             `json:"totalRows"`
		TotalPages int               `json:"totalPages"`
	}
	decodeBody(t, rec, &paged)
	// Admin plus three
	if paged.TotalRows != 4 || paged.TotalPages != 2 || len(paged.Items) != 1 {
		t.Errorf("page 2 = %d items, totalRows %d, totalPages %d", len(paged.Items), paged.TotalRows, paged.TotalPages)
	}
}

func TestProtectedRoleCannotBeChanged(t *testing.T) {
	env := newTestEnv(t)
	admin, err := env.roles.GetByName(models.AdminRoleName)
	if err != nil {
		t.Fatalf("GetByName() failed: %v", err)
	}
	path := fmt.Sprintf("/api/roles/%d", admin.ID)

	expectStatus(t, env.asAdmin(t, http.MethodPut, path, RolePayload{Name: "Root"}), http.StatusForbidden)
	expectStatus(t, env.asAdmin(t, http.MethodDelete, path, nil), http.StatusForbidden)
	expectStatus(t, env.asAdmin(t, http.MethodPut, fmt.Sprintf("/api/RolPermisos/%d/actualizar-permisos", admin.ID), []uint{1}), http.StatusForbidden)

	rec := env.asAdmin(t, http.MethodGet, path, nil)
	expectStatus(t, rec, http.StatusOK)
	var got RoleResponseDTO
	decodeBody(t, rec, &got)
	if !got.Protected {
		t.Error("Admin role not reported as protected")
	}
}

func TestDeleteRoleInUse(t *testing.T) {
	env := newTestEnv(t)
	role := env.roleWith(t, "Soporte")
	env.createUser(t, "soporte@example.com", "secret123", &role.ID)

	rec := env.asAdmin(t, http.MethodDelete, fmt.Sprintf("/api/roles/%d", role.ID), nil)
	expectStatus(t, rec, http.StatusBadRequest)

	rec = env.asAdmin(t, http.MethodGet, fmt.Sprintf("/api/roles/%d/usuarios", role.ID), nil)
	expectStatus(t, rec, http.StatusOK)
	var users []UserSummaryDTO
	decodeBody(t, rec, &users)
	if len(users) != 1 || users[0].Name != "Test User" {
		t.Errorf("role users = %+v", users)
	}
}

func TestRolePermissionsEndpoints(t *testing.T) {
	env := newTestEnv(t)
	role := env.roleWith(t, "Contabilidad")
	permsPath := fmt.Sprintf("/api/roles/%d/permisos", role.ID)
	replacePath := fmt.Sprintf("/api/RolPermisos/%d/actualizar-permisos", role.ID)

	// nothing assigned yet
	expectStatus(t, env.asAdmin(t, http.MethodGet, permsPath, nil), http.StatusNotFound)

	rec := env.asAdmin(t, http.MethodPut, replacePath, []uint{})
	expectStatus(t, rec, http.StatusBadRequest)
	if fields := fieldErrors(t, rec); len(fields[services.PermissionsField]) == 0 {
		t.Errorf("empty replace: fields = %v, want %s error", fields, services.PermissionsField)
	}

	expectStatus(t, env.asAdmin(t, http.MethodPut, replacePath, []uint{99999}), http.StatusBadRequest)
	expectStatus(t, env.asAdmin(t, http.MethodPut, replacePath, "not a list"), http.StatusBadRequest)

	all, err := env.perms.ListAll()
	if err != nil {
		t.Fatalf("ListAll() failed: %v", err)
	}
	expectStatus(t, env.asAdmin(t, http.MethodPut, replacePath, []uint{all[1].ID, all[0].ID}), http.StatusOK)

	rec = env.asAdmin(t, http.MethodGet, permsPath, nil)
	expectStatus(t, rec, http.StatusOK)
	var assigned []models.Permission
	decodeBody(t, rec, &assigned)
	if len(assigned) != 2 {
		t.Fatalf("assigned = %d, want 2", len(assigned))
	}

	expectStatus(t, env.asAdmin(t, http.MethodPost, permsPath, []uint{all[0].ID, all[2].ID}), http.StatusOK)
	rec = env.asAdmin(t, http.MethodGet, permsPath, nil)
	decodeBody(t, rec, &assigned)
	if len(assigned) != 3 {
		t.Errorf("assigned after add = %d, want 3", len(assigned))
	}

	names := models.PermissionNames(assigned)
	if names[0] != permissions.ViewUsers {
		t.Errorf("assigned names = %v, want %q first", names, permissions.ViewUsers)
	}
}
