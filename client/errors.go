package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/camden-git/adminconsole/editor"
)

// ErrUnauthorized is returned on 401; the session is closed when it happens.
var ErrUnauthorized = errors.New("session expired or token invalid")

// HTTPError is a non-2xx response that is not a validation failure or a 404.
type HTTPError struct {
	StatusCode int
	Message    string
}

func (e *HTTPError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("backend returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("backend returned status %d: %s", e.StatusCode, e.Message)
}

// errorBody covers the error shapes the backend may return:
// {"errors": {"Field": ["msg"]}}, {"errors": [{"detail": "..."}], "fields": {...}}
// and {"message": "..."}.
type errorBody struct {
	Errors  json.RawMessage     `json:"errors"`
	Fields  map[string][]string `json:"fields"`
	Message string              `json:"message"`
	Title   string              `json:"title"`
}

type errorDetail struct {
	Detail string `json:"detail"`
}

// decodeError turns a failed response into a typed error.
func decodeError(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))

	var body errorBody
	_ = json.Unmarshal(raw, &body)

	switch resp.StatusCode {
	case http.StatusNotFound:
		return fmt.Errorf("%s %s: %w", resp.Request.Method, resp.Request.URL.Path, editor.ErrNotFound)
	case http.StatusUnauthorized:
		return ErrUnauthorized
	}

	if fields := validationFields(body); len(fields) > 0 {
		return &editor.ValidationError{Fields: fields}
	}

	msg := body.Message
	if msg == "" {
		var details []errorDetail
		if json.Unmarshal(body.Errors, &details) == nil {
			parts := make([]string, 0, len(details))
			for _, d := range details {
				parts = append(parts, d.Detail)
			}
			msg = strings.Join(parts, "; ")
		}
	}
	if msg == "" {
		msg = body.Title
	}
	if msg == "" {
		msg = strings.TrimSpace(string(raw))
	}
	return &HTTPError{StatusCode: resp.StatusCode, Message: msg}
}

func validationFields(body errorBody) map[string][]string {
	if len(body.Fields) > 0 {
		return body.Fields
	}
	if len(body.Errors) == 0 {
		return nil
	}
	// field-level validation map; values may be a single string or a list
	var generic map[string]interface{}
	if err := json.Unmarshal(body.Errors, &generic); err != nil {
		return nil
	}
	fields := make(map[string][]string, len(generic))
	for field, v := range generic {
		switch val := v.(type) {
		case string:
			fields[field] = append(fields[field], val)
		case []interface{}:
			for _, item := range val {
				fields[field] = append(fields[field], fmt.Sprint(item))
			}
		default:
			fields[field] = append(fields[field], fmt.Sprint(val))
		}
	}
	return fields
}
