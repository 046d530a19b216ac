package editor

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"strings"
	"sync"

	"github.com/camden-git/adminconsole/models"
	"github.com/camden-git/adminconsole/permissions"
)

// Backend is the remote side of the editor: the permission catalog, the role's
// current assignments and the bulk replace operation.
type Backend interface {
	FetchPermissionCatalog(ctx context.Context) ([]models.Permission, error)
	// FetchAssignedPermissions fails with ErrNotFound when the role has no assignments.
	FetchAssignedPermissions(ctx context.Context, roleID uint) ([]models.Permission, error)
	// ReplaceRolePermissions sets the role's permissions to exactly ids.
	ReplaceRolePermissions(ctx context.Context, roleID uint, ids []uint) error
}

// State of an editor instance
type State int

const (
	StateUnopened State = iota
	StateLoading
	StateReady
	StateLoadFailed
	StateSaving
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateUnopened:
		return "unopened"
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	case StateLoadFailed:
		return "load_failed"
	case StateSaving:
		return "saving"
	case StateClosed:
		return "closed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

type options struct {
	protectedRoles []string
	onClose        func()
	onSaved        func()
}

// Option configures an Editor
type Option func(*options)

// WithProtectedRoles replaces the list of role names that cannot be edited.
func WithProtectedRoles(names ...string) Option {
	return func(o *options) { o.protectedRoles = names }
}

// OnClose registers a callback invoked once when the editor closes.
func OnClose(fn func()) Option {
	return func(o *options) { o.onClose = fn }
}

// OnSaved registers a callback invoked after a successful save, before OnClose.
// The caller is expected to reload authoritative state from the backend.
func OnSaved(fn func()) Option {
	return func(o *options) { o.onSaved = fn }
}

// Editor holds the permission assignment state of one role while it is being edited.
// It is safe for concurrent use; only one load and one save may be in flight.
type Editor struct {
	mu      sync.Mutex
	backend Backend
	role    models.Role
	opts    options

	state     State
	loadErr   error
	catalog   []models.Permission
	groups    permissions.Groups
	selection map[uint]bool
	expanded  map[string]bool
	filter    string

	cancel context.CancelFunc
}

// IsProtectedRole reports whether roleName is one of protected, ignoring case.
func IsProtectedRole(roleName string, protected []string) bool {
	for _, p := range protected {
		if strings.EqualFold(strings.TrimSpace(roleName), strings.TrimSpace(p)) {
			return true
		}
	}
	return false
}

// Open constructs an editor for role. Protected roles (by default the Admin role)
// are rejected with ErrProtectedRole and no editor is built.
func Open(role models.Role, backend Backend, opts ...Option) (*Editor, error) {
	o := options{protectedRoles: []string{models.AdminRoleName}}
	for _, opt := range opts {
		opt(&o)
	}
	if IsProtectedRole(role.Name, o.protectedRoles) {
		return nil, fmt.Errorf("role '%s': %w", role.Name, ErrProtectedRole)
	}
	return &Editor{
		backend:   backend,
		role:      role,
		opts:      o,
		state:     StateUnopened,
		groups:    permissions.Groups{},
		selection: map[uint]bool{},
		expanded:  map[string]bool{},
	}, nil
}

// Role returns the role being edited.
func (e *Editor) Role() models.Role {
	return e.role
}

// State returns the current state.
func (e *Editor) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Load fetches the catalog and the role's assignments and seeds the selection.
// A failed catalog fetch is terminal. A failed assignment fetch is treated as
// an empty assignment set.
func (e *Editor) Load(ctx context.Context) error {
	e.mu.Lock()
	switch e.state {
	case StateClosed:
		e.mu.Unlock()
		return ErrClosed
	case StateLoading, StateSaving:
		e.mu.Unlock()
		return ErrBusy
	case StateLoadFailed:
		e.mu.Unlock()
		return e.loadErr
	case StateReady:
		e.mu.Unlock()
		return nil
	}
	ctx, cancel := context.WithCancel(ctx)
	e.cancel = cancel
	e.state = StateLoading
	e.mu.Unlock()
	defer cancel()

	catalog, err := e.backend.FetchPermissionCatalog(ctx)

	e.mu.Lock()
	if e.state == StateClosed {
		e.mu.Unlock()
		return ErrClosed
	}
	if err != nil {
		e.state = StateLoadFailed
		e.loadErr = fmt.Errorf("%w: %w", ErrLoadFailed, err)
		e.cancel = nil
		e.mu.Unlock()
		log.Printf("Error loading permission catalog for role %d: %v", e.role.ID, err)
		return e.loadErr
	}
	e.setCatalogLocked(catalog)
	e.mu.Unlock()

	assigned, err := e.backend.FetchAssignedPermissions(ctx, e.role.ID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			log.Printf("Info: role %d has no permissions assigned yet", e.role.ID)
		} else {
			log.Printf("Warning: failed to load permissions of role %d, treating as none: %v", e.role.ID, err)
		}
		assigned = nil
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state == StateClosed {
		return ErrClosed
	}
	for _, p := range assigned {
		if _, known := e.selection[p.ID]; known {
			e.selection[p.ID] = true
		}
	}
	e.expanded = make(map[string]bool, len(e.groups))
	for key := range e.groups {
		e.expanded[key] = false
	}
	e.state = StateReady
	e.cancel = nil
	return nil
}

// setCatalogLocked rebuilds groups and resets selection to all-unselected.
func (e *Editor) setCatalogLocked(catalog []models.Permission) {
	e.catalog = catalog
	e.groups = permissions.GroupByModule(catalog)
	e.selection = make(map[uint]bool, len(catalog))
	for _, p := range catalog {
		e.selection[p.ID] = false
	}
}

// Save replaces the role's permissions with every selected id across the whole
// catalog. An empty selection is rejected locally without calling the backend.
// On failure the editor stays open with its selection intact.
func (e *Editor) Save(ctx context.Context) error {
	e.mu.Lock()
	switch e.state {
	case StateClosed:
		e.mu.Unlock()
		return ErrClosed
	case StateLoading, StateSaving:
		e.mu.Unlock()
		return ErrBusy
	case StateUnopened, StateLoadFailed:
		e.mu.Unlock()
		return ErrNotReady
	}
	ids := e.selectedIDsLocked()
	if len(ids) == 0 {
		e.mu.Unlock()
		verr := NewValidationError("permisos", ErrNothingSelected.Error())
		verr.Err = ErrNothingSelected
		return verr
	}
	ctx, cancel := context.WithCancel(ctx)
	e.cancel = cancel
	e.state = StateSaving
	e.mu.Unlock()
	defer cancel()

	err := e.backend.ReplaceRolePermissions(ctx, e.role.ID, ids)

	e.mu.Lock()
	if e.state == StateClosed {
		e.mu.Unlock()
		return ErrClosed
	}
	e.cancel = nil
	if err != nil {
		e.state = StateReady
		e.mu.Unlock()
		log.Printf("Error updating permissions of role %d: %v", e.role.ID, err)
		return fmt.Errorf("failed to update permissions of role %d: %w", e.role.ID, err)
	}
	e.state = StateClosed
	e.mu.Unlock()

	if e.opts.onSaved != nil {
		e.opts.onSaved()
	}
	if e.opts.onClose != nil {
		e.opts.onClose()
	}
	return nil
}

// Close discards the editor. Any in-flight load or save is cancelled and its
// result ignored. Closing twice is a no-op.
// A backend that ignores ctx may still apply a save that was in flight; the
// local service commits it and publishes its event, only the editor drops the result.
func (e *Editor) Close() {
	e.mu.Lock()
	if e.state == StateClosed {
		e.mu.Unlock()
		return
	}
	e.state = StateClosed
	if e.cancel != nil {
		e.cancel()
		e.cancel = nil
	}
	e.mu.Unlock()

	if e.opts.onClose != nil {
		e.opts.onClose()
	}
}

func (e *Editor) selectedIDsLocked() []uint {
	ids := make([]uint, 0, len(e.selection))
	for id, selected := range e.selection {
		if selected {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
