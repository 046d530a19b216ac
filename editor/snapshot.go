package editor

import (
	"github.com/camden-git/adminconsole/models"
	"github.com/camden-git/adminconsole/permissions"
)

// PermissionView is one permission row as rendered by a UI.
type PermissionView struct {
	ID       uint   `json:"id"`
	Name     string `json:"nombre"`
	Action   string `json:"accion"`
	Selected bool   `json:"seleccionado"`
}

// GroupView is one module group with only its visible members.
type GroupView struct {
	Key               string           `json:"modulo"`
	Expanded          bool             `json:"expandido"`
	FullySelected     bool             `json:"todo_seleccionado"`
	PartiallySelected bool             `json:"seleccion_parcial"`
	Permissions       []PermissionView `json:"permisos"`
}

// Snapshot is an immutable view of the editor, suitable for rendering.
type Snapshot struct {
	RoleID   uint        `json:"rol_id"`
	RoleName string      `json:"rol_nombre"`
	State    string      `json:"estado"`
	Error    string      `json:"error,omitempty"`
	Filter   string      `json:"filtro"`
	Selected int         `json:"seleccionados"`
	Total    int         `json:"total"`
	Groups   []GroupView `json:"grupos"`
}

// Snapshot captures the current state in one consistent read.
func (e *Editor) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()

	s := Snapshot{
		RoleID:   e.role.ID,
		RoleName: e.role.Name,
		State:    e.state.String(),
		Filter:   e.filter,
		Total:    len(e.catalog),
		Groups:   []GroupView{},
	}
	if e.loadErr != nil {
		s.Error = e.loadErr.Error()
	}
	if e.state == StateLoadFailed {
		return s
	}
	for _, selected := range e.selection {
		if selected {
			s.Selected++
		}
	}
	for _, key := range e.groups.Keys() {
		visible := e.filteredByGroupLocked(key)
		if len(visible) == 0 {
			continue
		}
		selected, total := e.groupCountsLocked(key)
		g := GroupView{
			Key:               key,
			Expanded:          e.expanded[key],
			FullySelected:     total > 0 && selected == total,
			PartiallySelected: selected > 0 && selected < total,
			Permissions:       make([]PermissionView, 0, len(visible)),
		}
		for _, p := range visible {
			g.Permissions = append(g.Permissions, toPermissionView(p, e.selection[p.ID]))
		}
		s.Groups = append(s.Groups, g)
	}
	return s
}

func toPermissionView(p models.Permission, selected bool) PermissionView {
	return PermissionView{
		ID:       p.ID,
		Name:     p.Name,
		Action:   permissions.ActionOf(p.Name),
		Selected: selected,
	}
}
