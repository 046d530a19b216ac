package handlers

import (
	"net/http"

	"github.com/camden-git/adminconsole/permissions"
)

type PermissionsHandler struct {
	// No dependencies needed for now, as it serves static data
}

func NewPermissionsHandler() *PermissionsHandler {
	return &PermissionsHandler{}
}

// ListDefinedModules serves the statically defined modules and the permissions seeded for them.
func (h *PermissionsHandler) ListDefinedModules(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, permissions.DefinedModules)
}
