package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/camden-git/adminconsole/models"
	"github.com/camden-git/adminconsole/session"
)

const defaultTimeout = 30 * time.Second

// Client talks to the administrative REST backend. It implements editor.Backend.
type Client struct {
	baseURL    string
	httpClient *http.Client
	session    *session.Session
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithSession attaches the session whose token is sent as a bearer token.
func WithSession(s *session.Session) Option {
	return func(c *Client) { c.session = s }
}

// New creates a client for the backend rooted at baseURL, e.g. "http://localhost:5010".
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Session returns the attached session, if any.
func (c *Client) Session() *session.Session {
	return c.session
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body for %s %s: %w", method, path, err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to build request %s %s: %w", method, path, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.session != nil {
		if token := c.session.Token(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s failed: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := decodeError(resp)
		if errors.Is(apiErr, ErrUnauthorized) && c.session != nil {
			log.Printf("Warning: session expired or token invalid, closing session")
			c.session.Close()
		}
		return apiErr
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("failed to decode response of %s %s: %w", method, path, err)
	}
	return nil
}

// --- permission editor backend ---

// FetchPermissionCatalog returns every permission known to the backend.
func (c *Client) FetchPermissionCatalog(ctx context.Context) ([]models.Permission, error) {
	var perms []models.Permission
	if err := c.do(ctx, http.MethodGet, "/api/Permisos", nil, &perms); err != nil {
		return nil, err
	}
	return perms, nil
}

// FetchAssignedPermissions returns the role's permissions; editor.ErrNotFound when it has none.
func (c *Client) FetchAssignedPermissions(ctx context.Context, roleID uint) ([]models.Permission, error) {
	var perms []models.Permission
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/api/roles/%d/permisos", roleID), nil, &perms); err != nil {
		return nil, err
	}
	return perms, nil
}

// ReplaceRolePermissions sets the role's permissions to exactly ids.
func (c *Client) ReplaceRolePermissions(ctx context.Context, roleID uint, ids []uint) error {
	return c.do(ctx, http.MethodPut, fmt.Sprintf("/api/RolPermisos/%d/actualizar-permisos", roleID), ids, nil)
}

// AddRolePermissions grants ids to the role, keeping what it already has.
func (c *Client) AddRolePermissions(ctx context.Context, roleID uint, ids []uint) error {
	return c.do(ctx, http.MethodPost, fmt.Sprintf("/api/roles/%d/permisos", roleID), ids, nil)
}

// --- roles ---

// RolePayload is the body for creating or updating a role.
type RolePayload struct {
	Name        string `json:"nombre"`
	Description string `json:"descripcion,omitempty"`
}

// ListRoles returns every role.
func (c *Client) ListRoles(ctx context.Context) ([]models.Role, error) {
	var roles []models.Role
	if err := c.do(ctx, http.MethodGet, "/api/roles", nil, &roles); err != nil {
		return nil, err
	}
	return roles, nil
}

// GetRole returns a role by id.
func (c *Client) GetRole(ctx context.Context, id uint) (*models.Role, error) {
	var role models.Role
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/api/roles/%d", id), nil, &role); err != nil {
		return nil, err
	}
	return &role, nil
}

// CreateRole creates a role.
func (c *Client) CreateRole(ctx context.Context, payload RolePayload) (*models.Role, error) {
	var role models.Role
	if err := c.do(ctx, http.MethodPost, "/api/roles", payload, &role); err != nil {
		return nil, err
	}
	return &role, nil
}

// UpdateRole renames or re-describes a role.
func (c *Client) UpdateRole(ctx context.Context, id uint, payload RolePayload) (*models.Role, error) {
	var role models.Role
	if err := c.do(ctx, http.MethodPut, fmt.Sprintf("/api/roles/%d", id), payload, &role); err != nil {
		return nil, err
	}
	return &role, nil
}

// DeleteRole deletes a role. The backend refuses when users are still assigned.
func (c *Client) DeleteRole(ctx context.Context, id uint) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/api/roles/%d", id), nil, nil)
}

// UserSummary is the minimal user representation embedded in role responses.
type UserSummary struct {
	ID   uint   `json:"id"`
	Name string `json:"nombre"`
}

// ListRoleUsers returns the users assigned to a role.
func (c *Client) ListRoleUsers(ctx context.Context, roleID uint) ([]UserSummary, error) {
	var users []UserSummary
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/api/roles/%d/usuarios", roleID), nil, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// --- company ---

// GetCompany returns the company contact record.
func (c *Client) GetCompany(ctx context.Context) (*models.Company, error) {
	var company models.Company
	if err := c.do(ctx, http.MethodGet, "/api/Empresa", nil, &company); err != nil {
		return nil, err
	}
	return &company, nil
}

// UpdateCompany replaces the company contact record.
func (c *Client) UpdateCompany(ctx context.Context, company models.Company) (*models.Company, error) {
	var updated models.Company
	if err := c.do(ctx, http.MethodPut, "/api/Empresa", company, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

// --- users ---

// ListUsers returns users matching the optional search text.
func (c *Client) ListUsers(ctx context.Context, search string) ([]models.User, error) {
	path := "/api/usuario"
	if search != "" {
		path += "?q=" + url.QueryEscape(search)
	}
	var page struct {
		Items []models.User `json:"items"`
	}
	if err := c.do(ctx, http.MethodGet, path, nil, &page); err != nil {
		return nil, err
	}
	return page.Items, nil
}

// --- auth ---

// Login authenticates and attaches the resulting session to the client.
func (c *Client) Login(ctx context.Context, email, password string) (*session.Session, error) {
	var resp session.LoginResponse
	body := map[string]string{"email": email, "password": password}
	if err := c.do(ctx, http.MethodPost, "/api/auth/login", body, &resp); err != nil {
		return nil, err
	}
	s, err := session.New(resp)
	if err != nil {
		return nil, err
	}
	c.session = s
	return s, nil
}

// Logout closes the local session first, then tells the backend.
func (c *Client) Logout(ctx context.Context) error {
	s := c.session
	token := ""
	if s != nil {
		token = s.Token()
		s.Close()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/auth/logout", nil)
	if err != nil {
		return err
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("logout failed: %w", err)
	}
	resp.Body.Close()
	return nil
}
