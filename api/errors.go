package api

import (
	"fmt"
	"net/http"
	"sort"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/gofiber/fiber/v2"
	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-print"
	"github.com/goliatone/go-taskboard/logging"
)

const (
	TextCodeValidation     = "VALIDATION_FAILED"
	TextCodeInvalidPayload = "INVALID_PAYLOAD"
	TextCodeRouteNotFound  = "ROUTE_NOT_FOUND"
)

// InternalErrorMessage is the only detail clients see for unexpected failures
const InternalErrorMessage = "Internal server error"

// ErrValidation wraps payload validation failures. The individual messages
// travel in the "errors" metadata entry.
var ErrValidation = errors.New("Validation failed", errors.CategoryValidation).
	WithTextCode(TextCodeValidation).
	WithCode(errors.CodeBadRequest)

// ErrInvalidPayload is returned when the body or query cannot be decoded
var ErrInvalidPayload = errors.New("Invalid request payload", errors.CategoryBadInput).
	WithTextCode(TextCodeInvalidPayload).
	WithCode(errors.CodeBadRequest)

// ErrRouteNotFound is returned for unknown routes
var ErrRouteNotFound = errors.New("Route not found", errors.CategoryNotFound).
	WithTextCode(TextCodeRouteNotFound).
	WithCode(errors.CodeNotFound)

// validationError turns the result of an ozzo validation into ErrValidation
// with one message per failing field, ordered by field name.
func validationError(err error) error {
	if err == nil {
		return nil
	}

	messages := []string{}

	var fieldErrs validation.Errors
	if errors.As(err, &fieldErrs) {
		keys := make([]string, 0, len(fieldErrs))
		for k := range fieldErrs {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			if fieldErrs[k] != nil {
				messages = append(messages, fieldErrs[k].Error())
			}
		}
	} else {
		messages = append(messages, err.Error())
	}

	return ErrValidation.Clone().WithMetadata(map[string]any{
		"errors": messages,
	})
}

func invalidPayload(err error) error {
	return ErrInvalidPayload.Clone().WithMetadata(map[string]any{
		"cause": err.Error(),
	})
}

// ErrorHandler renders every error in the response envelope. Unexpected
// errors are logged and reported with a generic message.
func ErrorHandler(logger logging.Logger, debug bool) fiber.ErrorHandler {
	if logger == nil {
		logger = logging.Default()
	}

	return func(c *fiber.Ctx, err error) error {
		var fiberErr *fiber.Error
		if errors.As(err, &fiberErr) {
			if fiberErr.Code == fiber.StatusNotFound {
				err = ErrRouteNotFound
			} else if fiberErr.Code < http.StatusInternalServerError {
				return Failure(c, fiberErr.Code, fiberErr.Message, nil)
			}
		}

		var richErr *errors.Error
		if !errors.As(err, &richErr) {
			logUnexpected(c, logger, debug, err)
			return Failure(c, fiber.StatusInternalServerError, InternalErrorMessage, nil)
		}

		status := statusFor(richErr)
		if status >= http.StatusInternalServerError {
			logUnexpected(c, logger, debug, err)
			return Failure(c, status, InternalErrorMessage, nil)
		}

		return Failure(c, status, richErr.Message, metadataErrors(richErr))
	}
}

func statusFor(err *errors.Error) int {
	switch err.Category {
	case errors.CategoryValidation, errors.CategoryBadInput:
		return http.StatusBadRequest
	case errors.CategoryAuth:
		return http.StatusUnauthorized
	case errors.CategoryAuthz:
		return http.StatusForbidden
	case errors.CategoryNotFound:
		return http.StatusNotFound
	case errors.CategoryConflict:
		if err.Code != 0 {
			return err.Code
		}
		return http.StatusBadRequest
	case errors.CategoryRateLimit:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

func metadataErrors(err *errors.Error) []string {
	if err.Metadata == nil {
		return nil
	}
	switch v := err.Metadata["errors"].(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, e := range v {
			out = append(out, fmt.Sprint(e))
		}
		return out
	default:
		return nil
	}
}

func logUnexpected(c *fiber.Ctx, logger logging.Logger, debug bool, err error) {
	args := []any{
		"method", c.Method(),
		"path", c.Path(),
		"error", err,
	}
	if rid, ok := c.Locals("requestid").(string); ok && rid != "" {
		args = append(args, "request_id", rid)
	}
	if debug {
		args = append(args, "detail", print.MaybePrettyJSON(err))
	}
	logger.Error("unexpected error", args...)
}
