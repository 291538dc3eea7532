package auth

import (
	"context"
	"time"

	"github.com/goliatone/go-taskboard/logging"
)

// Logger is the logging contract used across the auth package
type Logger = logging.Logger

// Identity holds the attributes of an authenticated user
type Identity struct {
	ID    string   `json:"id"`
	Email string   `json:"email"`
	Name  string   `json:"name"`
	Role  UserRole `json:"role"`
}

// HasRole reports whether the identity holds any of roles
func (i Identity) HasRole(roles ...UserRole) bool {
	for _, r := range roles {
		if i.Role == r {
			return true
		}
	}
	return false
}

// Users is the credential store. Implementations must treat email as
// case insensitive and return ErrUserNotFound for unknown records.
type Users interface {
	Create(ctx context.Context, user *User) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	FindByID(ctx context.Context, id string) (*User, error)
	Update(ctx context.Context, id string, patch UserPatch) (*User, error)
	ListActive(ctx context.Context) ([]*User, error)
}

// PasswordHasher hashes and compares cleartext passwords
type PasswordHasher interface {
	Hash(password string) (string, error)
	Compare(password, hash string) error
}

// TokenService issues and verifies session tokens
type TokenService interface {
	Issue(userID string) (string, error)
	Verify(token string) (*JWTClaims, error)
}

// RevocationStore records revoked token ids until they expire
type RevocationStore interface {
	Revoke(ctx context.Context, jti string, expiresAt time.Time) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

// ActivitySink receives auth lifecycle events
type ActivitySink interface {
	Record(ctx context.Context, event ActivityEvent) error
}
