package permissions

// PermissionDefinition describes a single permission seeded into the catalog
type PermissionDefinition struct {
	Code string `json:"codigo"` // unique code, e.g. "usuarios.ver"
	Name string `json:"nombre"` // display name, "<Action> <Module>", e.g. "Ver Usuarios"
}

// ModuleDefinition groups the permissions of one administrative module
type ModuleDefinition struct {
	Key         string                 `json:"key"`         // module as it appears in permission names
	Description string                 `json:"description"` // what the module covers
	Permissions []PermissionDefinition `json:"permissions"`
}

// Actions used in permission names
const (
	ActionView   = "Ver"
	ActionCreate = "Crear"
	ActionEdit   = "Editar"
	ActionDelete = "Eliminar"
)

// Well-known permission names checked by the HTTP layer
const (
	ViewUsers   = "Ver Usuarios"
	CreateUsers = "Crear Usuarios"
	EditUsers   = "Editar Usuarios"
	DeleteUsers = "Eliminar Usuarios"

	ViewRoles   = "Ver Roles"
	CreateRoles = "Crear Roles"
	EditRoles   = "Editar Roles"
	DeleteRoles = "Eliminar Roles"

	ViewContact = "Ver Contacto"
	EditContact = "Editar Contacto"

	ViewUserReports = "Ver Reportes de Usuarios"
)

// DefinedModules holds the permission catalog seeded on startup
var DefinedModules = []ModuleDefinition{
	{
		Key:         "Usuarios",
		Description: "User account management.",
		Permissions: crud("usuarios", "Usuarios"),
	},
	{
		Key:         "Roles",
		Description: "Roles and the permissions assigned to them.",
		Permissions: crud("roles", "Roles"),
	},
	{
		Key:         "Contacto",
		Description: "Company contact information.",
		Permissions: []PermissionDefinition{
			{Code: "contacto.ver", Name: ViewContact},
			{Code: "contacto.editar", Name: EditContact},
		},
	},
	{
		Key:         "Administración",
		Description: "Access to the administration menu.",
		Permissions: []PermissionDefinition{
			{Code: "administracion.ver", Name: "Ver Administración"},
		},
	},
	{
		Key:         "Reportes de Usuarios",
		Description: "User report and export.",
		Permissions: []PermissionDefinition{
			{Code: "reportes.usuarios.ver", Name: ViewUserReports},
		},
	},
	{
		Key:         "Reportes de Inventario",
		Description: "Inventory report.",
		Permissions: []PermissionDefinition{
			{Code: "reportes.inventario.ver", Name: "Ver Reportes de Inventario"},
		},
	},
	{
		Key:         "Reportes de Pedidos",
		Description: "Orders report.",
		Permissions: []PermissionDefinition{
			{Code: "reportes.pedidos.ver", Name: "Ver Reportes de Pedidos"},
		},
	},
	{
		Key:         "Reportes de Ventas",
		Description: "Sales report.",
		Permissions: []PermissionDefinition{
			{Code: "reportes.ventas.ver", Name: "Ver Reportes de Ventas"},
		},
	},
}

func crud(codePrefix, module string) []PermissionDefinition {
	return []PermissionDefinition{
		{Code: codePrefix + ".ver", Name: ActionView + " " + module},
		{Code: codePrefix + ".crear", Name: ActionCreate + " " + module},
		{Code: codePrefix + ".editar", Name: ActionEdit + " " + module},
		{Code: codePrefix + ".eliminar", Name: ActionDelete + " " + module},
	}
}

var allDefinitionsByCode map[string]PermissionDefinition

func init() {
	allDefinitionsByCode = make(map[string]PermissionDefinition)
	for _, module := range DefinedModules {
		for _, perm := range module.Permissions {
			allDefinitionsByCode[perm.Code] = perm
		}
	}
}

// AllDefinitions returns every defined permission in declaration order.
func AllDefinitions() []PermissionDefinition {
	var defs []PermissionDefinition
	for _, module := range DefinedModules {
		defs = append(defs, module.Permissions...)
	}
	return defs
}

// GetDefinition retrieves a permission definition by code.
func GetDefinition(code string) (PermissionDefinition, bool) {
	def, ok := allDefinitionsByCode[code]
	return def, ok
}
