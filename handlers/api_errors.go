package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/camden-git/adminconsole/editor"
	"github.com/camden-git/adminconsole/repository"
)

// APIErrorDetail represents a single error in the standardized error response.
type APIErrorDetail struct {
	Code   string `json:"code"`
	Status string `json:"status"`
	Detail string `json:"detail"`
}

// APIErrorResponse represents the standardized error response body.
// Fields is only set for validation failures.
type APIErrorResponse struct {
	Errors []APIErrorDetail    `json:"errors"`
	Fields map[string][]string `json:"fields,omitempty"`
}

// WriteAPIError writes a standardized error response with the given HTTP status, code, and detail.
func WriteAPIError(w http.ResponseWriter, httpStatus int, code string, detail string) {
	writeAPIErrorResponse(w, httpStatus, APIErrorResponse{
		Errors: []APIErrorDetail{
			{
				Code:   code,
				Status: strconv.Itoa(httpStatus),
				Detail: detail,
			},
		},
	})
}

// WriteValidationError writes a 400 carrying every field message of verr.
func WriteValidationError(w http.ResponseWriter, verr *editor.ValidationError) {
	writeAPIErrorResponse(w, http.StatusBadRequest, APIErrorResponse{
		Errors: []APIErrorDetail{
			{
				Code:   "validation_failed",
				Status: strconv.Itoa(http.StatusBadRequest),
				Detail: verr.Error(),
			},
		},
		Fields: verr.Fields,
	})
}

func writeAPIErrorResponse(w http.ResponseWriter, httpStatus int, resp APIErrorResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(httpStatus)
	_ = json.NewEncoder(w).Encode(resp)
}

// writeDomainError maps the errors shared by the permission editor and the
// repositories onto HTTP responses. Anything unrecognised is a 500.
func writeDomainError(w http.ResponseWriter, err error, what string) {
	var verr *editor.ValidationError
	switch {
	case errors.As(err, &verr):
		WriteValidationError(w, verr)
	case errors.Is(err, editor.ErrNotFound), repository.IsNotFound(err):
		WriteAPIError(w, http.StatusNotFound, "not_found", what+": not found")
	case errors.Is(err, editor.ErrProtectedRole):
		WriteAPIError(w, http.StatusForbidden, "protected_role", editor.ErrProtectedRole.Error())
	case errors.Is(err, editor.ErrBusy):
		WriteAPIError(w, http.StatusConflict, "busy", err.Error())
	case errors.Is(err, editor.ErrClosed):
		WriteAPIError(w, http.StatusGone, "closed", err.Error())
	case errors.Is(err, editor.ErrNotReady), errors.Is(err, editor.ErrLoadFailed):
		WriteAPIError(w, http.StatusConflict, "not_ready", err.Error())
	case errors.Is(err, editor.ErrUnknownPermission), errors.Is(err, editor.ErrUnknownGroup):
		WriteAPIError(w, http.StatusBadRequest, "unknown_reference", err.Error())
	case errors.Is(err, repository.ErrRoleInUse):
		WriteAPIError(w, http.StatusBadRequest, "role_in_use", err.Error())
	default:
		log.Printf("Error: %s: %v", what, err)
		WriteAPIError(w, http.StatusInternalServerError, "internal_error", what+": "+err.Error())
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Error encoding JSON response: %v", err)
	}
}
