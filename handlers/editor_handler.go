package handlers

import (
	"context"
	"errors"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/camden-git/adminconsole/editor"
	"github.com/camden-git/adminconsole/models"
)

// RoleLookup resolves the role an editor is opened for
type RoleLookup func(ctx context.Context, id uint) (*models.Role, error)

// EditorHandler exposes permission editors as server-side sessions. Each session
// holds one editor.Editor; clients drive it with commands and render its snapshot.
type EditorHandler struct {
	Registry       *editor.Registry
	Backend        editor.Backend
	LookupRole     RoleLookup
	ProtectedRoles []string
}

func NewEditorHandler(registry *editor.Registry, backend editor.Backend, lookup RoleLookup, protectedRoles ...string) *EditorHandler {
	return &EditorHandler{Registry: registry, Backend: backend, LookupRole: lookup, ProtectedRoles: protectedRoles}
}

type OpenEditorPayload struct {
	RoleID uint `json:"rolId" validate:"required,gt=0"`
}

type EditorFilterPayload struct {
	Filter string `json:"filtro"`
}

type EditorGroupPayload struct {
	Module   string `json:"modulo" validate:"required"`
	Selected bool   `json:"seleccionado"`
}

type EditorSelectAllPayload struct {
	Selected bool `json:"seleccionado"`
}

// EditorSessionDTO is returned by every editor endpoint
type EditorSessionDTO struct {
	ID     string          `json:"id"`
	Editor editor.Snapshot `json:"editor"`
}

func (h *EditorHandler) respond(w http.ResponseWriter, status int, id string, ed *editor.Editor) {
	writeJSON(w, status, EditorSessionDTO{ID: id, Editor: ed.Snapshot()})
}

// sessionFromRequest resolves {editorID}; it writes a 404 and returns false when unknown
func (h *EditorHandler) sessionFromRequest(w http.ResponseWriter, r *http.Request) (string, *editor.Editor, bool) {
	id := chi.URLParam(r, "editorID")
	ed, ok := h.Registry.Get(id)
	if !ok {
		WriteAPIError(w, http.StatusNotFound, "not_found", "Editor session not found or expired")
		return id, nil, false
	}
	return id, ed, true
}

// OpenEditor builds an editor for the role and loads it. A catalog failure still
// creates the session so the client can show the error; it must then be closed.
func (h *EditorHandler) OpenEditor(w http.ResponseWriter, r *http.Request) {
	var payload OpenEditorPayload
	if !decodeAndValidate(w, r, &payload) {
		return
	}

	role, err := h.LookupRole(r.Context(), payload.RoleID)
	if err != nil {
		writeDomainError(w, err, "role")
		return
	}

	var id string
	opts := []editor.Option{
		editor.OnClose(func() { h.Registry.Remove(id) }),
		editor.OnSaved(func() { log.Printf("Info: permissions of role '%s' saved from editor %s", role.Name, id) }),
	}
	if len(h.ProtectedRoles) > 0 {
		opts = append(opts, editor.WithProtectedRoles(h.ProtectedRoles...))
	}
	ed, err := editor.Open(*role, h.Backend, opts...)
	if err != nil {
		writeDomainError(w, err, "role")
		return
	}
	id = h.Registry.Add(ed)

	if err := ed.Load(r.Context()); err != nil && !errors.Is(err, editor.ErrLoadFailed) {
		h.Registry.Remove(id)
		writeDomainError(w, err, "failed to load editor")
		return
	}
	h.respond(w, http.StatusCreated, id, ed)
}

func (h *EditorHandler) GetEditor(w http.ResponseWriter, r *http.Request) {
	id, ed, ok := h.sessionFromRequest(w, r)
	if !ok {
		return
	}
	h.respond(w, http.StatusOK, id, ed)
}

func (h *EditorHandler) SetFilter(w http.ResponseWriter, r *http.Request) {
	id, ed, ok := h.sessionFromRequest(w, r)
	if !ok {
		return
	}
	var payload EditorFilterPayload
	if !decodeAndValidate(w, r, &payload) {
		return
	}
	ed.SetFilter(payload.Filter)
	h.respond(w, http.StatusOK, id, ed)
}

func (h *EditorHandler) TogglePermission(w http.ResponseWriter, r *http.Request) {
	id, ed, ok := h.sessionFromRequest(w, r)
	if !ok {
		return
	}
	permID, err := parseUintParam(r, "permissionID")
	if err != nil {
		WriteAPIError(w, http.StatusBadRequest, "invalid_id", err.Error())
		return
	}
	if err := ed.ToggleOne(permID); err != nil {
		writeDomainError(w, err, "permission")
		return
	}
	h.respond(w, http.StatusOK, id, ed)
}

func (h *EditorHandler) ToggleGroup(w http.ResponseWriter, r *http.Request) {
	id, ed, ok := h.sessionFromRequest(w, r)
	if !ok {
		return
	}
	var payload EditorGroupPayload
	if !decodeAndValidate(w, r, &payload) {
		return
	}
	if err := ed.ToggleGroup(payload.Module, payload.Selected); err != nil {
		writeDomainError(w, err, "module group")
		return
	}
	h.respond(w, http.StatusOK, id, ed)
}

func (h *EditorHandler) ToggleExpanded(w http.ResponseWriter, r *http.Request) {
	id, ed, ok := h.sessionFromRequest(w, r)
	if !ok {
		return
	}
	var payload EditorGroupPayload
	if !decodeAndValidate(w, r, &payload) {
		return
	}
	if err := ed.ToggleExpanded(payload.Module); err != nil {
		writeDomainError(w, err, "module group")
		return
	}
	h.respond(w, http.StatusOK, id, ed)
}

func (h *EditorHandler) ToggleAllVisible(w http.ResponseWriter, r *http.Request) {
	id, ed, ok := h.sessionFromRequest(w, r)
	if !ok {
		return
	}
	var payload EditorSelectAllPayload
	if !decodeAndValidate(w, r, &payload) {
		return
	}
	if err := ed.ToggleAllVisible(payload.Selected); err != nil {
		writeDomainError(w, err, "editor")
		return
	}
	h.respond(w, http.StatusOK, id, ed)
}

// SaveEditor submits the selection. On success the session is closed and removed;
// on failure it stays open with its selection so the client can retry.
func (h *EditorHandler) SaveEditor(w http.ResponseWriter, r *http.Request) {
	id, ed, ok := h.sessionFromRequest(w, r)
	if !ok {
		return
	}
	if err := ed.Save(r.Context()); err != nil {
		writeDomainError(w, err, "failed to save role permissions")
		return
	}
	h.respond(w, http.StatusOK, id, ed)
}

func (h *EditorHandler) CloseEditor(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "editorID")
	if !h.Registry.Remove(id) {
		WriteAPIError(w, http.StatusNotFound, "not_found", "Editor session not found or expired")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
