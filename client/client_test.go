package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"
	"time"

	"github.com/camden-git/adminconsole/editor"
	"github.com/camden-git/adminconsole/models"
	"github.com/camden-git/adminconsole/session"
	"github.com/go-chi/chi/v5"
)

type fakeServer struct {
	assigned   map[string][]models.Permission
	replaced   []uint
	authHeader string
	replaceErr int
}

func (f *fakeServer) routes() http.Handler {
	r := chi.NewRouter()
	r.Get("/api/Permisos", func(w http.ResponseWriter, r *http.Request) {
		f.authHeader = r.Header.Get("Authorization")
		writeJSON(w, http.StatusOK, []models.Permission{
			{ID: 1, Name: "Ver Administración", Code: "administracion.ver"},
			{ID: 2, Name: "Crear Administración", Code: "administracion.crear"},
			{ID: 3, Name: "Ver Reportes", Code: "reportes.ver"},
		})
	})
	r.Get("/api/roles/{id}/permisos", func(w http.ResponseWriter, r *http.Request) {
		perms, ok := f.assigned[chi.URLParam(r, "id")]
		if !ok {
			writeJSON(w, http.StatusNotFound, map[string]string{"message": "Este rol aún no cuenta con permisos asignados."})
			return
		}
		writeJSON(w, http.StatusOK, perms)
	})
	r.Put("/api/RolPermisos/{id}/actualizar-permisos", func(w http.ResponseWriter, r *http.Request) {
		if f.replaceErr != 0 {
			writeJSON(w, f.replaceErr, map[string]interface{}{
				"errors": map[string]interface{}{"permisoIds": []string{"Permiso inválido"}, "rolId": "Rol inválido"},
			})
			return
		}
		_ = json.NewDecoder(r.Body).Decode(&f.replaced)
		w.WriteHeader(http.StatusNoContent)
	})
	r.Get("/api/Empresa", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusInternalServerError, map[string]interface{}{
			"errors": []map[string]string{{"code": "internal", "status": "500", "detail": "database down"}},
		})
	})
	r.Get("/api/roles", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})
	return r
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func newTestSession(t *testing.T) *session.Session {
	t.Helper()
	user := &models.User{ID: 5, Role: &models.Role{Name: "Vendedor"}}
	token, _, err := session.IssueToken([]byte("secret"), user, time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	s, err := session.New(session.LoginResponse{Token: token, UserID: 5, UserRole: "Vendedor"})
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func TestClientDrivesEditor(t *testing.T) {
	fake := &fakeServer{assigned: map[string][]models.Permission{"7": {{ID: 1, Name: "Ver Administración"}}}}
	srv := httptest.NewServer(fake.routes())
	defer srv.Close()

	s := newTestSession(t)
	c := New(srv.URL+"/", WithSession(s))

	saved := false
	ed, err := editor.Open(models.Role{ID: 7, Name: "Vendedor"}, c, editor.OnSaved(func() { saved = true }))
	if err != nil {
		t.Fatal(err)
	}
	if err := ed.Load(context.Background()); err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if fake.authHeader != "Bearer "+s.Token() {
		t.Fatalf("Authorization header = %q", fake.authHeader)
	}
	if !ed.IsSelected(1) || ed.IsSelected(2) {
		t.Fatalf("unexpected selection %v", ed.SelectedIDs())
	}

	_ = ed.ToggleOne(3)
	if err := ed.Save(context.Background()); err != nil {
		t.Fatalf("Save() failed: %v", err)
	}
	if !saved {
		t.Fatal("OnSaved not called")
	}
	if !reflect.DeepEqual(fake.replaced, []uint{1, 3}) {
		t.Fatalf("backend received %v, want [1 3]", fake.replaced)
	}
}

func TestFetchAssignedNotFound(t *testing.T) {
	srv := httptest.NewServer((&fakeServer{}).routes())
	defer srv.Close()

	_, err := New(srv.URL).FetchAssignedPermissions(context.Background(), 9)
	if !errors.Is(err, editor.ErrNotFound) {
		t.Fatalf("error = %v, want ErrNotFound", err)
	}
}

func TestValidationErrorsAreNormalized(t *testing.T) {
	srv := httptest.NewServer((&fakeServer{replaceErr: http.StatusBadRequest}).routes())
	defer srv.Close()

	err := New(srv.URL).ReplaceRolePermissions(context.Background(), 7, []uint{99})
	var verr *editor.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("error = %#v, want *editor.ValidationError", err)
	}
	if got := verr.Fields["permisoIds"]; !reflect.DeepEqual(got, []string{"Permiso inválido"}) {
		t.Fatalf("permisoIds = %v", got)
	}
	if got := verr.Fields["rolId"]; !reflect.DeepEqual(got, []string{"Rol inválido"}) {
		t.Fatalf("rolId = %v", got)
	}
}

func TestServerErrorDetail(t *testing.T) {
	srv := httptest.NewServer((&fakeServer{}).routes())
	defer srv.Close()

	_, err := New(srv.URL).GetCompany(context.Background())
	var herr *HTTPError
	if !errors.As(err, &herr) {
		t.Fatalf("error = %#v, want *HTTPError", err)
	}
	if herr.StatusCode != http.StatusInternalServerError || herr.Message != "database down" {
		t.Fatalf("unexpected HTTPError %+v", herr)
	}
}

func TestUnauthorizedClosesSession(t *testing.T) {
	srv := httptest.NewServer((&fakeServer{}).routes())
	defer srv.Close()

	s := newTestSession(t)
	_, err := New(srv.URL, WithSession(s)).ListRoles(context.Background())
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("error = %v, want ErrUnauthorized", err)
	}
	if s.IsAuthenticated() {
		t.Fatal("session should be closed after a 401")
	}
}
