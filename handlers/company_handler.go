package handlers

import (
	"net/http"
	"strings"

	"github.com/camden-git/adminconsole/models"
	"github.com/camden-git/adminconsole/repository"
)

type CompanyHandler struct {
	CompanyRepo repository.CompanyRepository
}

func NewCompanyHandler(companyRepo repository.CompanyRepository) *CompanyHandler {
	return &CompanyHandler{CompanyRepo: companyRepo}
}

type CompanyPayload struct {
	Name    string `json:"nombre" validate:"required,max=150"`
	Phone   string `json:"telefono" validate:"omitempty,max=30"`
	Email   string `json:"correo" validate:"omitempty,email"`
	Address string `json:"direccion" validate:"omitempty,max=255"`
}

// GetCompany serves the company contact record; an empty record before it is first saved.
func (h *CompanyHandler) GetCompany(w http.ResponseWriter, r *http.Request) {
	company, err := h.CompanyRepo.Get()
	if err != nil {
		if repository.IsNotFound(err) {
			writeJSON(w, http.StatusOK, models.Company{})
			return
		}
		writeDomainError(w, err, "failed to retrieve company")
		return
	}
	writeJSON(w, http.StatusOK, company)
}

func (h *CompanyHandler) UpdateCompany(w http.ResponseWriter, r *http.Request) {
	var payload CompanyPayload
	if !decodeAndValidate(w, r, &payload) {
		return
	}
	company := &models.Company{
		Name:    strings.TrimSpace(payload.Name),
		Phone:   strings.TrimSpace(payload.Phone),
		Email:   strings.TrimSpace(payload.Email),
		Address: strings.TrimSpace(payload.Address),
	}
	if err := h.CompanyRepo.Save(company); err != nil {
		writeDomainError(w, err, "failed to save company")
		return
	}
	writeJSON(w, http.StatusOK, company)
}
