package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/camden-git/adminconsole/editor"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// report fields by their JSON name
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// FormatValidationError formats validation errors into user-friendly messages
func FormatValidationError(err validator.FieldError) string {
	switch err.Tag() {
	case "required":
		return "This field is required"
	case "email":
		return "Invalid email format"
	case "min":
		return fmt.Sprintf("Minimum length is %s", err.Param())
	case "max":
		return fmt.Sprintf("Maximum length is %s", err.Param())
	case "oneof":
		return fmt.Sprintf("Must be one of: %s", err.Param())
	case "datetime":
		return fmt.Sprintf("Must be a date formatted as %s", err.Param())
	default:
		return fmt.Sprintf("Validation failed on %s", err.Tag())
	}
}

// validateStruct runs the struct tags of payload and collects the failures per field
func validateStruct(payload interface{}) *editor.ValidationError {
	err := validate.Struct(payload)
	if err == nil {
		return nil
	}
	verr := &editor.ValidationError{}
	fieldErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		verr.Add("body", err.Error())
		return verr
	}
	for _, fe := range fieldErrs {
		verr.Add(fe.Field(), FormatValidationError(fe))
	}
	return verr
}

// decodeAndValidate decodes the JSON body into payload and validates it.
// It writes the error response itself and returns false on failure.
func decodeAndValidate(w http.ResponseWriter, r *http.Request, payload interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(payload); err != nil {
		WriteAPIError(w, http.StatusBadRequest, "invalid_payload", "Invalid request payload: "+err.Error())
		return false
	}
	if verr := validateStruct(payload); verr != nil {
		WriteValidationError(w, verr)
		return false
	}
	return true
}
