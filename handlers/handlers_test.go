package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/camden-git/adminconsole/database"
	"github.com/camden-git/adminconsole/editor"
	"github.com/camden-git/adminconsole/models"
	"github.com/camden-git/adminconsole/permissions"
	"github.com/camden-git/adminconsole/repository"
	"github.com/camden-git/adminconsole/services"
	"github.com/camden-git/adminconsole/session"
)

var testSecret = []byte("test-secret")

type testEnv struct {
	db       *gorm.DB
	router   chi.Router
	roles    repository.RoleRepository
	users    repository.UserRepository
	perms    repository.PermissionRepository
	service  *services.RolePermissionService
	registry *editor.Registry
	admin    *models.User
}

// newTestEnv builds the API router over a fresh sqlite database holding the
// seeded catalog and one active Admin user.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db, err := database.InitGormDB(filepath.Join(t.TempDir(), "api.db"), logger.Silent)
	if err != nil {
		t.Fatalf("InitGormDB() failed: %v", err)
	}
	if err := database.AutoMigrateModels(db); err != nil {
		t.Fatalf("AutoMigrateModels() failed: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("DB() failed: %v", err)
	}
	t.Cleanup(func() { sqlDB.Close() })

	env := &testEnv{
		db:       db,
		roles:    repository.NewGormRoleRepository(db),
		users:    repository.NewGormUserRepository(db),
		perms:    repository.NewGormPermissionRepository(db),
		registry: editor.NewRegistry(time.Minute),
	}
	env.service = services.NewRolePermissionService(env.roles, env.perms, nil)
	if err := SyncAdminRole(context.Background(), db, env.service, models.AdminRoleName); err != nil {
		t.Fatalf("SyncAdminRole() failed: %v", err)
	}
	adminRole, err := env.roles.GetByName(models.AdminRoleName)
	if err != nil {
		t.Fatalf("GetByName(Admin) failed: %v", err)
	}
	env.admin = env.createUser(t, "admin@example.com", "secret123", &adminRole.ID)

	companies := repository.NewGormCompanyRepository(db)
	lookup := func(_ context.Context, id uint) (*models.Role, error) { return env.roles.GetByID(id) }

	auth := NewAuthHandler(env.users, testSecret, time.Hour)
	setup := NewSetupHandler(db, models.AdminRoleName)
	roleHandler := NewAdminRoleHandler(env.roles, env.service)
	userHandler := NewAdminUserHandler(env.users, env.roles, 0)
	companyHandler := NewCompanyHandler(companies)
	reportHandler := NewReportHandler(sqlDB, companies, 0)
	editorHandler := NewEditorHandler(env.registry, env.service, lookup)
	permissionHandler := NewPermissionHandler(env.service)

	r := chi.NewRouter()
	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/login", auth.Login)
		r.Post("/setup/first-admin", setup.CreateFirstAdmin)
		r.Group(func(r chi.Router) {
			r.Use(AuthMiddleware(testSecret, env.users))
			r.Get("/auth/profile", auth.Profile)
			r.With(RequirePermission(permissions.ViewRoles)).Get("/Permisos/grupos", permissionHandler.ListPermissionGroups)
			r.Route("/roles", func(r chi.Router) {
				r.With(RequirePermission(permissions.ViewRoles)).Get("/", roleHandler.ListRoles)
				r.With(RequirePermission(permissions.CreateRoles)).Post("/", roleHandler.CreateRole)
				r.Route("/{roleID}", func(r chi.Router) {
					r.Get("/", roleHandler.GetRole)
					r.Put("/", roleHandler.UpdateRole)
					r.Delete("/", roleHandler.DeleteRole)
					r.Get("/usuarios", roleHandler.ListRoleUsers)
					r.Get("/permisos", roleHandler.GetRolePermissions)
					r.Post("/permisos", roleHandler.AddRolePermissions)
				})
			})
			r.Put("/RolPermisos/{roleID}/actualizar-permisos", roleHandler.ReplaceRolePermissions)
			r.Route("/usuario", func(r chi.Router) {
				r.Get("/", userHandler.ListUsers)
				r.Post("/", userHandler.CreateUser)
				r.Get("/{userID}", userHandler.GetUser)
				r.Put("/{userID}", userHandler.UpdateUser)
				r.Delete("/{userID}", userHandler.DeleteUser)
			})
			r.Get("/Usuario/reporte", reportHandler.UserReport)
			r.Get("/Empresa", companyHandler.GetCompany)
			r.Put("/Empresa", companyHandler.UpdateCompany)
			r.Route("/editors", func(r chi.Router) {
				r.Post("/", editorHandler.OpenEditor)
				r.Get("/{editorID}", editorHandler.GetEditor)
				r.Delete("/{editorID}", editorHandler.CloseEditor)
				r.Put("/{editorID}/filtro", editorHandler.SetFilter)
				r.Post("/{editorID}/permisos/{permissionID}/toggle", editorHandler.TogglePermission)
				r.Post("/{editorID}/grupos/seleccion", editorHandler.ToggleGroup)
				r.Post("/{editorID}/grupos/expandir", editorHandler.ToggleExpanded)
				r.Post("/{editorID}/seleccion", editorHandler.ToggleAllVisible)
				r.Post("/{editorID}/guardar", editorHandler.SaveEditor)
			})
		})
	})
	env.router = r
	return env
}

func (env *testEnv) createUser(t *testing.T, email, password string, roleID *uint) *models.User {
	t.Helper()
	user := &models.User{Name: "Test", LastName: "User", Email: email, Status: models.UserStatusActive, RoleID: roleID}
	if err := user.SetPassword(password); err != nil {
		t.Fatalf("SetPassword() failed: %v", err)
	}
	if err := env.users.Create(user); err != nil {
		t.Fatalf("Create(%s) failed: %v", email, err)
	}
	return user
}

// roleWith creates a role holding the named permissions
func (env *testEnv) roleWith(t *testing.T, name string, permissionNames ...string) *models.Role {
	t.Helper()
	role := &models.Role{Name: name}
	if err := env.roles.Create(role); err != nil {
		t.Fatalf("Create(%s) failed: %v", name, err)
	}
	if len(permissionNames) == 0 {
		return role
	}
	all, err := env.perms.ListAll()
	if err != nil {
		t.Fatalf("ListAll() failed: %v", err)
	}
	var ids []uint
	for _, p := range all {
		for _, n := range permissionNames {
			if p.Name == n {
				ids = append(ids, p.ID)
			}
		}
	}
	if err := env.roles.ReplacePermissions(role.ID, ids); err != nil {
		t.Fatalf("ReplacePermissions() failed: %v", err)
	}
	return role
}

func tokenFor(t *testing.T, user *models.User) string {
	t.Helper()
	token, _, err := session.IssueToken(testSecret, user, time.Hour)
	if err != nil {
		t.Fatalf("IssueToken() failed: %v", err)
	}
	return token
}

// do sends a request through the router; body is JSON-encoded unless nil
func (env *testEnv) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	return rec
}

func (env *testEnv) asAdmin(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	return env.do(t, method, path, tokenFor(t, env.admin), body)
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.NewDecoder(rec.Body).Decode(v); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
}

func expectStatus(t *testing.T, rec *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rec.Code != want {
		t.Fatalf("status = %d, want %d; body: %s", rec.Code, want, rec.Body.String())
	}
}

func fieldErrors(t *testing.T, rec *httptest.ResponseRecorder) map[string][]string {
	t.Helper()
	var resp APIErrorResponse
	decodeBody(t, rec, &resp)
	return resp.Fields
}

func TestLoginAndProfile(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/auth/login", "", LoginPayload{Email: "admin@example.com", Password: "wrong"})
	expectStatus(t, rec, http.StatusUnauthorized)

	rec = env.do(t, http.MethodPost, "/api/auth/login", "", LoginPayload{Email: "admin@example.com", Password: "secret123"})
	expectStatus(t, rec, http.StatusOK)
	var login session.LoginResponse
	decodeBody(t, rec, &login)
	if login.Token == "" {
		t.Fatal("login returned no token")
	}
	if len(login.UserPermissions) != 1 || login.UserPermissions[0] != session.AllPermissions {
		t.Errorf("admin permissions = %v, want [*]", login.UserPermissions)
	}

	rec = env.do(t, http.MethodGet, "/api/auth/profile", login.Token, nil)
	expectStatus(t, rec, http.StatusOK)
	var profile session.LoginResponse
	decodeBody(t, rec, &profile)
	if profile.UserEmail != "admin@example.com" || profile.UserRole != models.AdminRoleName {
		t.Errorf("profile = %+v", profile)
	}
}

func TestLoginRejectsInvalidPayload(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{"email": "not-an-email"})
	expectStatus(t, rec, http.StatusBadRequest)
	fields := fieldErrors(t, rec)
	if len(fields["email"]) == 0 || len(fields["password"]) == 0 {
		t.Errorf("fields = %v, want email and password errors", fields)
	}
}

func TestAuthMiddleware(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/api/roles", "", nil)
	expectStatus(t, rec, http.StatusUnauthorized)

	rec = env.do(t, http.MethodGet, "/api/roles", "not-a-jwt", nil)
	expectStatus(t, rec, http.StatusUnauthorized)

	viewer := env.roleWith(t, "Lectura", permissions.ViewRoles)
	reader := env.createUser(t, "reader@example.com", "secret123", &viewer.ID)
	nobody := env.createUser(t, "nobody@example.com", "secret123", nil)

	rec = env.do(t, http.MethodGet, "/api/roles", tokenFor(t, nobody), nil)
	expectStatus(t, rec, http.StatusForbidden)

	rec = env.do(t, http.MethodGet, "/api/roles", tokenFor(t, reader), nil)
	expectStatus(t, rec, http.StatusOK)

	// reader may view but not create
	rec = env.do(t, http.MethodPost, "/api/roles", tokenFor(t, reader), RolePayload{Name: "Nuevo"})
	expectStatus(t, rec, http.StatusForbidden)

	// Admin passes every check
	rec = env.asAdmin(t, http.MethodPost, "/api/roles", RolePayload{Name: "Nuevo"})
	expectStatus(t, rec, http.StatusCreated)
}

func TestAuthMiddlewareRejectsDeactivatedUser(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser(t, "gone@example.com", "secret123", nil)
	token := tokenFor(t, user)

	if err := env.users.SoftDelete(user.ID); err != nil {
		t.Fatalf("SoftDelete() failed: %v", err)
	}
	rec := env.do(t, http.MethodGet, "/api/auth/profile", token, nil)
	expectStatus(t, rec, http.StatusUnauthorized)
}

func TestCreateFirstAdminOnlyOnce(t *testing.T) {
	env := newTestEnv(t)
	payload := FirstAdminPayload{Name: "Root", Email: "root@example.com", Password: "longenough"}
	rec := env.do(t, http.MethodPost, "/api/setup/first-admin", "", payload)
	// newTestEnv already created a user
	expectStatus(t, rec, http.StatusForbidden)
}

func TestListPermissionGroups(t *testing.T) {
	env := newTestEnv(t)
	rec := env.asAdmin(t, http.MethodGet, "/api/Permisos/grupos", nil)
	expectStatus(t, rec, http.StatusOK)

	var groups []PermissionGroupDTO
	decodeBody(t, rec, &groups)
	byKey := make(map[string]PermissionGroupDTO)
	for _, g := range groups {
		byKey[g.Module] = g
	}
	users, ok := byKey["Usuarios"]
	if !ok {
		t.Fatalf("groups %v have no Usuarios", groups)
	}
	if len(users.Permissions) != 4 {
		t.Errorf("Usuarios has %d permissions, want 4", len(users.Permissions))
	}
}
