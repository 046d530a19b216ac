package handlers

import (
	"context"
	"net/http"

	"github.com/camden-git/adminconsole/models"
	"github.com/camden-git/adminconsole/permissions"
)

// CatalogSource supplies the permission catalog; the cached role permission service in production.
type CatalogSource interface {
	FetchPermissionCatalog(ctx context.Context) ([]models.Permission, error)
}

type PermissionHandler struct {
	Catalog CatalogSource
}

func NewPermissionHandler(catalog CatalogSource) *PermissionHandler {
	return &PermissionHandler{Catalog: catalog}
}

// PermissionGroupDTO is one module group of the catalog
type PermissionGroupDTO struct {
	Module      string              `json:"modulo"`
	Permissions []PermissionItemDTO `json:"permisos"`
}

type PermissionItemDTO struct {
	ID     uint   `json:"id"`
	Name   string `json:"nombre"`
	Action string `json:"accion"`
}

// ListPermissions serves the flat permission catalog.
func (h *PermissionHandler) ListPermissions(w http.ResponseWriter, r *http.Request) {
	catalog, err := h.Catalog.FetchPermissionCatalog(r.Context())
	if err != nil {
		writeDomainError(w, err, "failed to retrieve permissions")
		return
	}
	if catalog == nil {
		catalog = []models.Permission{}
	}
	writeJSON(w, http.StatusOK, catalog)
}

// ListPermissionGroups serves the catalog grouped by module, groups in natural order.
func (h *PermissionHandler) ListPermissionGroups(w http.ResponseWriter, r *http.Request) {
	catalog, err := h.Catalog.FetchPermissionCatalog(r.Context())
	if err != nil {
		writeDomainError(w, err, "failed to retrieve permissions")
		return
	}

	groups := permissions.GroupByModule(catalog)
	resp := make([]PermissionGroupDTO, 0, len(groups))
	for _, key := range groups.Keys() {
		group := PermissionGroupDTO{Module: key, Permissions: make([]PermissionItemDTO, 0, len(groups[key]))}
		for _, p := range groups[key] {
			group.Permissions = append(group.Permissions, PermissionItemDTO{
				ID:     p.ID,
				Name:   p.Name,
				Action: permissions.ActionOf(p.Name),
			})
		}
		resp = append(resp, group)
	}
	writeJSON(w, http.StatusOK, resp)
}
