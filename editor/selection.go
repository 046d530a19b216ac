package editor

import (
	"github.com/camden-git/adminconsole/models"
	"github.com/camden-git/adminconsole/permissions"
)

// SetFilter changes the name filter. Selection and expansion are left untouched.
func (e *Editor) SetFilter(filter string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.filter = filter
}

// Filter returns the active name filter.
func (e *Editor) Filter() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.filter
}

// GroupKeys returns the module groups discovered in the catalog, naturally sorted.
func (e *Editor) GroupKeys() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.groups.Keys()
}

// Filtered returns every catalog permission visible under the filter, ignoring grouping.
func (e *Editor) Filtered() []models.Permission {
	e.mu.Lock()
	defer e.mu.Unlock()
	return clonePermissions(permissions.Filter(e.catalog, e.filter))
}

// FilteredByGroup returns the members of group key visible under the filter.
func (e *Editor) FilteredByGroup(key string) []models.Permission {
	e.mu.Lock()
	defer e.mu.Unlock()
	return clonePermissions(e.filteredByGroupLocked(key))
}

func (e *Editor) filteredByGroupLocked(key string) []models.Permission {
	return permissions.Filter(e.groups[key], e.filter)
}

// IsSelected reports whether id is selected. Unknown ids are unselected.
func (e *Editor) IsSelected(id uint) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.selection[id]
}

// ToggleOne flips the selection of a single permission.
func (e *Editor) ToggleOne(id uint) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state == StateClosed {
		return ErrClosed
	}
	selected, ok := e.selection[id]
	if !ok {
		return ErrUnknownPermission
	}
	e.selection[id] = !selected
	return nil
}

// ToggleGroup sets every visible member of group key to selected.
// Members hidden by the filter keep their state.
func (e *Editor) ToggleGroup(key string, selected bool) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state == StateClosed {
		return ErrClosed
	}
	if _, ok := e.groups[key]; !ok {
		return ErrUnknownGroup
	}
	for _, p := range e.filteredByGroupLocked(key) {
		e.selection[p.ID] = selected
	}
	return nil
}

// ToggleAllVisible sets every permission visible under the filter to selected.
func (e *Editor) ToggleAllVisible(selected bool) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state == StateClosed {
		return ErrClosed
	}
	for _, p := range permissions.Filter(e.catalog, e.filter) {
		e.selection[p.ID] = selected
	}
	return nil
}

// IsGroupFullySelected is true only when the group's visible members are
// non-empty and all selected.
func (e *Editor) IsGroupFullySelected(key string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	selected, total := e.groupCountsLocked(key)
	return total > 0 && selected == total
}

// IsGroupPartiallySelected is true when some, but not all, visible members are selected.
func (e *Editor) IsGroupPartiallySelected(key string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	selected, total := e.groupCountsLocked(key)
	return selected > 0 && selected < total
}

func (e *Editor) groupCountsLocked(key string) (selected, total int) {
	for _, p := range e.filteredByGroupLocked(key) {
		total++
		if e.selection[p.ID] {
			selected++
		}
	}
	return selected, total
}

// Count returns how many permissions are selected across the whole catalog,
// regardless of the filter.
func (e *Editor) Count() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	n := 0
	for _, selected := range e.selection {
		if selected {
			n++
		}
	}
	return n
}

// SelectedIDs returns the selected ids across the whole catalog in ascending order.
func (e *Editor) SelectedIDs() []uint {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.selectedIDsLocked()
}

// ToggleExpanded flips the expansion of a module group.
func (e *Editor) ToggleExpanded(key string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state == StateClosed {
		return ErrClosed
	}
	if _, ok := e.groups[key]; !ok {
		return ErrUnknownGroup
	}
	e.expanded[key] = !e.expanded[key]
	return nil
}

// IsExpanded reports whether a module group is expanded.
func (e *Editor) IsExpanded(key string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.expanded[key]
}

func clonePermissions(perms []models.Permission) []models.Permission {
	out := make([]models.Permission, len(perms))
	copy(out, perms)
	return out
}
