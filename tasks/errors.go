package tasks

import "github.com/goliatone/go-errors"

const (
	TextCodeTaskNotFound = "TASK_NOT_FOUND"
	TextCodeInvalidTask  = "TASK_INVALID"
)

// ErrTaskNotFound covers unknown ids, malformed ids and tasks owned by
// someone else so callers cannot probe for existence.
var ErrTaskNotFound = errors.New("Task not found", errors.CategoryNotFound).
	WithTextCode(TextCodeTaskNotFound).
	WithCode(errors.CodeNotFound)

// ErrInvalidTask is returned when fields break the task model constraints
var ErrInvalidTask = errors.New("Validation failed", errors.CategoryValidation).
	WithTextCode(TextCodeInvalidTask).
	WithCode(errors.CodeBadRequest)

// IsNotFound reports whether err is ErrTaskNotFound
func IsNotFound(err error) bool {
	var richErr *errors.Error
	if !errors.As(err, &richErr) {
		return false
	}
	return richErr.TextCode == TextCodeTaskNotFound
}

func invalid(messages ...string) error {
	return ErrInvalidTask.Clone().WithMetadata(map[string]any{
		"errors": messages,
	})
}
