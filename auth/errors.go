package auth

import (
	"github.com/goliatone/go-errors"
)

const (
	TextCodeMissingToken       = "AUTH_MISSING_TOKEN"
	TextCodeTokenInvalid       = "AUTH_TOKEN_INVALID"
	TextCodeTokenExpired       = "AUTH_TOKEN_EXPIRED"
	TextCodeTokenRevoked       = "AUTH_TOKEN_REVOKED"
	TextCodeIdentityNotFound   = "AUTH_IDENTITY_NOT_FOUND"
	TextCodeAccountInactive    = "AUTH_ACCOUNT_INACTIVE"
	TextCodeInvalidCredentials = "AUTH_INVALID_CREDENTIALS"
	TextCodeDuplicateEmail     = "AUTH_DUPLICATE_EMAIL"
	TextCodeForbidden          = "AUTH_FORBIDDEN"
	TextCodeUserNotFound       = "USER_NOT_FOUND"
	TextCodeEmptyPassword      = "AUTH_EMPTY_PASSWORD"
)

// ErrMissingToken is returned when the request carries no bearer token
var ErrMissingToken = errors.New("Access denied. No token provided.", errors.CategoryAuth).
	WithTextCode(TextCodeMissingToken).
	WithCode(errors.CodeUnauthorized)

// ErrTokenInvalid covers bad signatures, unexpected algorithms and malformed payloads
var ErrTokenInvalid = errors.New("Invalid token.", errors.CategoryAuth).
	WithTextCode(TextCodeTokenInvalid).
	WithCode(errors.CodeUnauthorized)

// ErrTokenExpired is returned when the token exp claim is in the past
var ErrTokenExpired = errors.New("Token expired.", errors.CategoryAuth).
	WithTextCode(TextCodeTokenExpired).
	WithCode(errors.CodeUnauthorized)

// ErrTokenRevoked is returned for tokens whose id was recorded at logout
var ErrTokenRevoked = errors.New("Token revoked.", errors.CategoryAuth).
	WithTextCode(TextCodeTokenRevoked).
	WithCode(errors.CodeUnauthorized)

// ErrIdentityNotFound is returned when a valid token points to an unknown user
var ErrIdentityNotFound = errors.New("Invalid token. User not found.", errors.CategoryAuth).
	WithTextCode(TextCodeIdentityNotFound).
	WithCode(errors.CodeUnauthorized)

// ErrAccountInactive is returned when the user has been deactivated
var ErrAccountInactive = errors.New("Account is deactivated.", errors.CategoryAuth).
	WithTextCode(TextCodeAccountInactive).
	WithCode(errors.CodeUnauthorized)

// ErrInvalidCredentials does not tell unknown emails from wrong passwords
var ErrInvalidCredentials = errors.New("Invalid email or password", errors.CategoryAuth).
	WithTextCode(TextCodeInvalidCredentials).
	WithCode(errors.CodeUnauthorized)

// ErrDuplicateEmail is returned when registering an email already in use
var ErrDuplicateEmail = errors.New("User already exists with this email", errors.CategoryConflict).
	WithTextCode(TextCodeDuplicateEmail).
	WithCode(errors.CodeBadRequest)

// ErrForbidden is returned by role gates
var ErrForbidden = errors.New("Access denied. Insufficient permissions.", errors.CategoryAuthz).
	WithTextCode(TextCodeForbidden).
	WithCode(errors.CodeForbidden)

// ErrUserNotFound is returned by user stores
var ErrUserNotFound = errors.New("User not found", errors.CategoryNotFound).
	WithTextCode(TextCodeUserNotFound).
	WithCode(errors.CodeNotFound)

// ErrNoEmptyString is returned when hashing an empty password
var ErrNoEmptyString = errors.New("password must not be empty", errors.CategoryBadInput).
	WithTextCode(TextCodeEmptyPassword).
	WithCode(errors.CodeBadRequest)

// HasTextCode reports whether err carries the given text code. Categories are
// shared across sentinels so this is the reliable way to tell them apart.
func HasTextCode(err error, code string) bool {
	if err == nil {
		return false
	}
	var richErr *errors.Error
	if !errors.As(err, &richErr) {
		return false
	}
	return richErr.TextCode == code
}
