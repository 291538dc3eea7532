package client

import (
	"fmt"
	"net/http"

	"github.com/goliatone/go-errors"
)

const TextCodeInvalidTransition = "INVALID_SESSION_TRANSITION"

// ErrInvalidTransition is returned when an event is not allowed in the current state
var ErrInvalidTransition = errors.New("invalid session transition", errors.CategoryValidation).
	WithTextCode(TextCodeInvalidTransition).
	WithCode(errors.CodeBadRequest)

// APIError carries the envelope of a failed API call. Message is suitable
// for showing to users as is.
type APIError struct {
	Status  int
	Message string
	Errors  []string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("taskboard api: %d %s", e.Status, http.StatusText(e.Status))
	}
	return e.Message
}

// IsUnauthorized reports whether err is a 401 from the API
func IsUnauthorized(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusUnauthorized
}

// Message extracts a user facing message from err
func Message(err error) string {
	if err == nil {
		return ""
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Error()
	}
	return "Something went wrong. Please try again."
}
