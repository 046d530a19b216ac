package handlers

import (
	"crypto/rand"
	"math/big"
	"net/http"
	"strings"
	"time"

	"github.com/camden-git/adminconsole/editor"
	"github.com/camden-git/adminconsole/models"
	"github.com/camden-git/adminconsole/repository"
)

// GeneratedPasswordLength is the length of passwords created for new accounts
const GeneratedPasswordLength = 10

const passwordAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZabcdefghijkmnopqrstuvwxyz23456789"

const birthDateLayout = "2006-01-02"

type AdminUserHandler struct {
	UserRepo repository.UserRepository
	RoleRepo repository.RoleRepository // For validating role IDs during user creation/update
	PageSize int
}

func NewAdminUserHandler(userRepo repository.UserRepository, roleRepo repository.RoleRepository, pageSize int) *AdminUserHandler {
	return &AdminUserHandler{UserRepo: userRepo, RoleRepo: roleRepo, PageSize: pageSize}
}

// --- DTOs for User Management ---

type UserCreatePayload struct {
	Name      string `json:"nombre" validate:"required,max=100"`
	LastName  string `json:"apellido" validate:"max=100"`
	Email     string `json:"correo" validate:"required,email"`
	RoleID    *uint  `json:"rolId" validate:"omitempty,gt=0"`
	BirthDate string `json:"fechaNacimiento" validate:"omitempty,datetime=2006-01-02"`
	Image     string `json:"imagen" validate:"omitempty,url"`
}

type UserUpdatePayload struct {
	Name      *string `json:"nombre,omitempty" validate:"omitempty,min=1,max=100"`
	LastName  *string `json:"apellido,omitempty" validate:"omitempty,max=100"`
	Email     *string `json:"correo,omitempty" validate:"omitempty,email"`
	Password  *string `json:"password,omitempty" validate:"omitempty,min=8"`
	RoleID    *uint   `json:"rolId,omitempty"`
	Status    *string `json:"estado,omitempty" validate:"omitempty,oneof=Activo Inactivo"`
	BirthDate *string `json:"fechaNacimiento,omitempty" validate:"omitempty,datetime=2006-01-02"`
	Image     *string `json:"imagen,omitempty" validate:"omitempty,url"`
}

// UserResponseDTO is a simplified User model for API responses, excluding sensitive data.
type UserResponseDTO struct {
	ID        uint   `json:"id"`
	Name      string `json:"nombre"`
	LastName  string `json:"apellido"`
	Email     string `json:"correo"`
	Status    string `json:"estado"`
	Image     string `json:"imagen,omitempty"`
	BirthDate string `json:"fechaNacimiento,omitempty"`
	RoleID    *uint  `json:"rolId,omitempty"`
	Role      string `json:"rol"`
	CreatedAt string `json:"fechaCreacion"`
}

// UserCreatedDTO carries the generated password; it is shown only once.
type UserCreatedDTO struct {
	UserResponseDTO
	GeneratedPassword string `json:"passwordGenerada"`
}

func toUserResponseDTO(user *models.User) UserResponseDTO {
	dto := UserResponseDTO{
		ID:        user.ID,
		Name:      user.Name,
		LastName:  user.LastName,
		Email:     user.Email,
		Status:    user.Status,
		Image:     user.Image,
		RoleID:    user.RoleID,
		Role:      user.RoleName(),
		CreatedAt: user.CreatedAt.Format(time.RFC3339),
	}
	if user.BirthDate != nil {
		dto.BirthDate = user.BirthDate.Format(birthDateLayout)
	}
	return dto
}

func toUserListResponseDTO(users []models.User) []UserResponseDTO {
	dtos := make([]UserResponseDTO, len(users))
	for i := range users {
		dtos[i] = toUserResponseDTO(&users[i])
	}
	return dtos
}

// generatePassword returns a random password of n characters from passwordAlphabet
func generatePassword(n int) (string, error) {
	limit := big.NewInt(int64(len(passwordAlphabet)))
	var b strings.Builder
	b.Grow(n)
	for i := 0; i < n; i++ {
		idx, err := rand.Int(rand.Reader, limit)
		if err != nil {
			return "", err
		}
		b.WriteByte(passwordAlphabet[idx.Int64()])
	}
	return b.String(), nil
}

// checkRole verifies roleID refers to an existing role; nil is allowed
func (h *AdminUserHandler) checkRole(w http.ResponseWriter, roleID *uint) bool {
	if roleID == nil {
		return true
	}
	if _, err := h.RoleRepo.GetByID(*roleID); err != nil {
		if repository.IsNotFound(err) {
			WriteValidationError(w, editor.NewValidationError("rolId", "Role does not exist"))
		} else {
			writeDomainError(w, err, "failed to retrieve role")
		}
		return false
	}
	return true
}

// checkEmail rejects an email already used by another account
func (h *AdminUserHandler) checkEmail(w http.ResponseWriter, email string, selfID uint) bool {
	existing, err := h.UserRepo.GetByEmail(email)
	if err == nil && existing.ID != selfID {
		WriteValidationError(w, editor.NewValidationError("correo", "Email is already registered"))
		return false
	}
	if err != nil && !repository.IsNotFound(err) {
		writeDomainError(w, err, "failed to check email")
		return false
	}
	return true
}

// --- Handler Methods ---

// ListUsers serves one page of users filtered by name, last name or email (query "q").
func (h *AdminUserHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	page := pageFromRequest(r, h.PageSize)
	users, total, err := h.UserRepo.List(r.URL.Query().Get("q"), page.Offset(), page.Size)
	if err != nil {
		writeDomainError(w, err, "failed to retrieve users")
		return
	}
	writeJSON(w, http.StatusOK, newPaginatedResponse(toUserListResponseDTO(users), total, page))
}

func (h *AdminUserHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	userID, err := parseUintParam(r, "userID")
	if err != nil {
		WriteAPIError(w, http.StatusBadRequest, "invalid_id", err.Error())
		return
	}
	user, err := h.UserRepo.GetByID(userID)
	if err != nil {
		writeDomainError(w, err, "user")
		return
	}
	writeJSON(w, http.StatusOK, toUserResponseDTO(user))
}

// CreateUser creates an active account with a generated password returned in the response.
func (h *AdminUserHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var payload UserCreatePayload
	if !decodeAndValidate(w, r, &payload) {
		return
	}
	payload.Email = strings.TrimSpace(payload.Email)
	if !h.checkEmail(w, payload.Email, 0) || !h.checkRole(w, payload.RoleID) {
		return
	}

	user := &models.User{
		Name:     strings.TrimSpace(payload.Name),
		LastName: strings.TrimSpace(payload.LastName),
		Email:    payload.Email,
		Image:    payload.Image,
		Status:   models.UserStatusActive,
		RoleID:   payload.RoleID,
	}
	if payload.BirthDate != "" {
		// format already checked by the datetime tag
		if d, err := time.Parse(birthDateLayout, payload.BirthDate); err == nil {
			user.BirthDate = &d
		}
	}

	password, err := generatePassword(GeneratedPasswordLength)
	if err != nil {
		writeDomainError(w, err, "failed to generate password")
		return
	}
	if err := user.SetPassword(password); err != nil {
		writeDomainError(w, err, "failed to hash password")
		return
	}
	if err := h.UserRepo.Create(user); err != nil {
		writeDomainError(w, err, "failed to create user")
		return
	}

	created, err := h.UserRepo.GetByID(user.ID)
	if err != nil {
		writeDomainError(w, err, "failed to retrieve newly created user")
		return
	}
	writeJSON(w, http.StatusCreated, UserCreatedDTO{UserResponseDTO: toUserResponseDTO(created), GeneratedPassword: password})
}

func (h *AdminUserHandler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	userID, err := parseUintParam(r, "userID")
	if err != nil {
		WriteAPIError(w, http.StatusBadRequest, "invalid_id", err.Error())
		return
	}
	var payload UserUpdatePayload
	if !decodeAndValidate(w, r, &payload) {
		return
	}

	user, err := h.UserRepo.GetByID(userID)
	if err != nil {
		writeDomainError(w, err, "user")
		return
	}

	if payload.Name != nil {
		user.Name = strings.TrimSpace(*payload.Name)
	}
	if payload.LastName != nil {
		user.LastName = strings.TrimSpace(*payload.LastName)
	}
	if payload.Email != nil {
		email := strings.TrimSpace(*payload.Email)
		if !h.checkEmail(w, email, user.ID) {
			return
		}
		user.Email = email
	}
	if payload.Password != nil {
		if err := user.SetPassword(*payload.Password); err != nil {
			writeDomainError(w, err, "failed to set new password")
			return
		}
	}
	if payload.RoleID != nil {
		if !h.checkRole(w, payload.RoleID) {
			return
		}
		user.RoleID = payload.RoleID
		user.Role = nil
	}
	if payload.Status != nil {
		user.Status = *payload.Status
	}
	if payload.BirthDate != nil {
		if d, err := time.Parse(birthDateLayout, *payload.BirthDate); err == nil {
			user.BirthDate = &d
		}
	}
	if payload.Image != nil {
		user.Image = *payload.Image
	}

	if err := h.UserRepo.Update(user); err != nil {
		writeDomainError(w, err, "failed to update user")
		return
	}
	updated, err := h.UserRepo.GetByID(user.ID)
	if err != nil {
		writeDomainError(w, err, "failed to retrieve updated user")
		return
	}
	writeJSON(w, http.StatusOK, toUserResponseDTO(updated))
}

// DeleteUser deactivates the account. Users cannot deactivate themselves.
func (h *AdminUserHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	userID, err := parseUintParam(r, "userID")
	if err != nil {
		WriteAPIError(w, http.StatusBadRequest, "invalid_id", err.Error())
		return
	}
	if current, ok := UserFromContext(r.Context()); ok && current.ID == userID {
		WriteAPIError(w, http.StatusBadRequest, "self_delete", "You cannot deactivate your own account.")
		return
	}
	if err := h.UserRepo.SoftDelete(userID); err != nil {
		writeDomainError(w, err, "user")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
