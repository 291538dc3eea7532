package auth

import (
	"context"
	"sync"

	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-taskboard/logging"
)

// UserProvider checks credentials and resolves identities against a Users store
type UserProvider struct {
	store  Users
	hasher PasswordHasher
	logger Logger

	dummyOnce sync.Once
	dummyHash string
}

// NewUserProvider will create a new UserProvider
func NewUserProvider(store Users, hasher PasswordHasher) *UserProvider {
	if hasher == nil {
		hasher = NewBcryptHasher(DefaultPasswordCost)
	}
	return &UserProvider{
		store:  store,
		hasher: hasher,
		logger: logging.Default(),
	}
}

// WithLogger sets the logger
func (u *UserProvider) WithLogger(l Logger) *UserProvider {
	if l != nil {
		u.logger = l
	}
	return u
}

// VerifyIdentity finds the user by email and compares the password. Unknown
// emails and wrong passwords both yield ErrInvalidCredentials. The password
// is checked before the active flag so inactive accounts are only reported to
// callers that know the password.
func (u *UserProvider) VerifyIdentity(ctx context.Context, email, password string) (*User, error) {
	user, err := u.store.FindByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		if isUserNotFound(err) {
			u.compareDummy(password)
			return nil, ErrInvalidCredentials
		}
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to retrieve user during verification")
	}

	if err := u.hasher.Compare(password, user.PasswordHash); err != nil {
		if HasTextCode(err, TextCodeInvalidCredentials) {
			return nil, ErrInvalidCredentials
		}
		u.logger.Error("password comparison failed", "user_id", user.ID, "error", err)
		return nil, ErrInvalidCredentials
	}

	if !user.Active {
		return nil, ErrAccountInactive
	}

	return user, nil
}

// FindIdentity loads the user behind a verified token
func (u *UserProvider) FindIdentity(ctx context.Context, id string) (*User, error) {
	user, err := u.store.FindByID(ctx, id)
	if err != nil {
		if isUserNotFound(err) {
			return nil, ErrIdentityNotFound
		}
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to retrieve identity")
	}

	if !user.Active {
		return nil, ErrAccountInactive
	}

	return user, nil
}

// compareDummy spends about the same time as a real comparison so unknown
// emails cannot be told apart by latency.
func (u *UserProvider) compareDummy(password string) {
	u.dummyOnce.Do(func() {
		r, ok := u.hasher.(interface{ RandomPasswordHash() (string, error) })
		if !ok {
			return
		}
		hash, err := r.RandomPasswordHash()
		if err != nil {
			u.logger.Warn("failed to prepare dummy password hash", "error", err)
			return
		}
		u.dummyHash = hash
	})
	if u.dummyHash != "" {
		_ = u.hasher.Compare(password, u.dummyHash)
	}
}

func isUserNotFound(err error) bool {
	return HasTextCode(err, TextCodeUserNotFound)
}
