package backend

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
)

// ErrNotFound matches any APIError carrying a 404 status.
var ErrNotFound = errors.New("backend: not found")

// APIError is a non-2xx response from the backend.
type APIError struct {
	Method string
	Path   string
	Status int
	Body   []byte
	Fields any // decoded JSON body, nil when the body was not JSON
}

func newAPIError(method, path string, status int, body []byte) *APIError {
	e := &APIError{Method: method, Path: path, Status: status, Body: body}
	var decoded any
	if len(body) > 0 && json.Unmarshal(body, &decoded) == nil {
		e.Fields = decoded
	}
	return e
}

func (e *APIError) Error() string {
	if msg := e.Message(); msg != "" {
		return fmt.Sprintf("backend %s %s: %d: %s", e.Method, e.Path, e.Status, msg)
	}
	return fmt.Sprintf("backend %s %s: %d %s", e.Method, e.Path, e.Status, http.StatusText(e.Status))
}

// Message is the user-facing text of the error: the flattened field errors
// when the backend sent a structured payload.
func (e *APIError) Message() string {
	if e.Fields == nil {
		return ""
	}
	return FormatFieldErrors(e.Fields)
}

func (e *APIError) Is(target error) bool {
	return target == ErrNotFound && e.Status == http.StatusNotFound
}

// IsValidation reports whether the backend rejected the input itself.
func (e *APIError) IsValidation() bool {
	return e.Status == http.StatusBadRequest || e.Status == http.StatusUnprocessableEntity
}

// FormatFieldErrors flattens a DRF-style error payload into sorted
// "field: message" lines. Nested objects and lists extend the field path.
//
//	{"owners": [{"id_number": ["required"]}], "detail": "bad"}
//
// becomes
//
//	detail: bad
//	owners[0].id_number: required
func FormatFieldErrors(v any) string {
	var lines []string
	collectFieldErrors("", v, &lines)
	sort.Strings(lines)
	return strings.Join(lines, "\n")
}

func collectFieldErrors(path string, v any, lines *[]string) {
	switch val := v.(type) {
	case map[string]any:
		for k, child := range val {
			p := k
			if path != "" {
				p = path + "." + k
			}
			collectFieldErrors(p, child, lines)
		}
	case []any:
		allStrings := true
		for _, item := range val {
			if _, ok := item.(string); !ok {
				allStrings = false
				break
			}
		}
		if allStrings {
			msgs := make([]string, 0, len(val))
			for _, item := range val {
				msgs = append(msgs, item.(string))
			}
			if len(msgs) > 0 {
				*lines = append(*lines, label(path, strings.Join(msgs, " ")))
			}
			return
		}
		for i, item := range val {
			collectFieldErrors(fmt.Sprintf("%s[%d]", path, i), item, lines)
		}
	case nil:
	case string:
		if val != "" {
			*lines = append(*lines, label(path, val))
		}
	default:
		*lines = append(*lines, label(path, fmt.Sprint(val)))
	}
}

func label(path, msg string) string {
	if path == "" {
		return msg
	}
	return path + ": " + msg
}
