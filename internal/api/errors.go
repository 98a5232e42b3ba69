package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

// NetworkError is returned when a request cannot complete or the server
// answers with a non-2xx status. Callers show it as a dismissible message.
type NetworkError struct {
	// Op is the request, e.g. "GET /api/posts/feed".
	Op string
	// StatusCode is zero when no response was received.
	StatusCode int
	// Message is the server supplied message, if any.
	Message string
	Err     error
}

func (e *NetworkError) Error() string {
	switch {
	case e.StatusCode == 0 && e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	case e.Message != "":
		return fmt.Sprintf("%s: %d %s", e.Op, e.StatusCode, e.Message)
	default:
		return fmt.Sprintf("%s: status %d", e.Op, e.StatusCode)
	}
}

func (e *NetworkError) Unwrap() error { return e.Err }

// IsUnauthorized returns true if the server rejected the bearer token.
func (e *NetworkError) IsUnauthorized() bool {
	return e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden
}

// AuthError reports missing or rejected credentials. Message is meant to be
// shown inline on the login form.
type AuthError struct {
	Message string
}

func (e *AuthError) Error() string { return "auth: " + e.Message }

// DecodeError is returned when a response body does not match its schema.
type DecodeError struct {
	Op  string
	Err error
}

func (e *DecodeError) Error() string { return fmt.Sprintf("%s: decode response: %v", e.Op, e.Err) }

func (e *DecodeError) Unwrap() error { return e.Err }

// serverMessage pulls {"message": "..."} out of an error body, falling back
// to the trimmed body text.
func serverMessage(body []byte) string {
	var m struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(body, &m); err == nil {
		if m.Message != "" {
			return m.Message
		}
		if m.Error != "" {
			return m.Error
		}
	}
	msg := strings.TrimSpace(string(body))
	if r := []rune(msg); len(r) > 200 {
		msg = string(r[:200])
	}
	return msg
}
