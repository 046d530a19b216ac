package permissions

import (
	"strings"

	"github.com/camden-git/adminconsole/models"
	"github.com/facette/natsort"
)

// GeneralModule is the group for permission names that carry no module part.
const GeneralModule = "General"

// ModuleOf derives the module group of a permission name by dropping its
// leading action token, e.g. "Ver Reportes de Usuarios" -> "Reportes de Usuarios".
// Single-token names belong to GeneralModule.
func ModuleOf(name string) string {
	parts := strings.Fields(name)
	if len(parts) < 2 {
		return GeneralModule
	}
	return strings.Join(parts[1:], " ")
}

// ActionOf returns the leading action token of a permission name ("Ver", "Crear", ...).
func ActionOf(name string) string {
	parts := strings.Fields(name)
	if len(parts) == 0 {
		return name
	}
	return parts[0]
}

// Groups maps a module key to the permissions belonging to it, in catalog order.
type Groups map[string][]models.Permission

// GroupByModule buckets the catalog by ModuleOf. Every permission lands in exactly one group.
func GroupByModule(catalog []models.Permission) Groups {
	groups := make(Groups)
	for _, p := range catalog {
		key := ModuleOf(p.Name)
		groups[key] = append(groups[key], p)
	}
	return groups
}

// Keys returns the module keys in natural sort order.
func (g Groups) Keys() []string {
	keys := make([]string, 0, len(g))
	for k := range g {
		keys = append(keys, k)
	}
	natsort.Sort(keys)
	return keys
}

// Matches reports whether name contains filter, ignoring case.
// A blank filter matches everything.
func Matches(name, filter string) bool {
	if strings.TrimSpace(filter) == "" {
		return true
	}
	return strings.Contains(strings.ToLower(name), strings.ToLower(filter))
}

// Filter returns the permissions whose names match filter, preserving order.
func Filter(perms []models.Permission, filter string) []models.Permission {
	if strings.TrimSpace(filter) == "" {
		return perms
	}
	out := make([]models.Permission, 0, len(perms))
	for _, p := range perms {
		if Matches(p.Name, filter) {
			out = append(out, p)
		}
	}
	return out
}
