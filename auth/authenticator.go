package auth

import (
	"context"
	"math"
	"strings"
	"time"

	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-taskboard/logging"
	"github.com/goliatone/hashid/pkg/hashid"
	"github.com/google/uuid"
)

// Session is what a successful register or login hands back
type Session struct {
	User  PublicUser `json:"user"`
	Token string     `json:"token"`
}

// RegisterInput holds the attributes for a new account
type RegisterInput struct {
	Name     string
	Email    string
	Password string
}

// ProfileUpdate holds the attributes a user may change on their own account
type ProfileUpdate struct {
	Name   *string
	Avatar *string
}

// UserStats summarizes a user's account
type UserStats struct {
	AccountCreated    time.Time  `json:"accountCreated"`
	LastLogin         *time.Time `json:"lastLogin"`
	ProfileCompletion int        `json:"profileCompletion"`
}

// Auther handles registration, login and identity resolution
type Auther struct {
	users            Users
	provider         *UserProvider
	tokens           TokenService
	hasher           PasswordHasher
	revocations      RevocationStore
	activity         ActivitySink
	clock            func() time.Time
	deterministicIDs bool
	logger           Logger
}

// AutherOption configures an Auther
type AutherOption func(*Auther)

// WithHasher overrides the password hasher
func WithHasher(h PasswordHasher) AutherOption {
	return func(a *Auther) {
		if h != nil {
			a.hasher = h
		}
	}
}

// WithRevocationStore enables server side logout
func WithRevocationStore(s RevocationStore) AutherOption {
	return func(a *Auther) {
		a.revocations = s
	}
}

// WithActivitySink sets the sink receiving auth events
func WithActivitySink(s ActivitySink) AutherOption {
	return func(a *Auther) {
		a.activity = normalizeActivitySink(s)
	}
}

// WithAutherClock overrides the time source
func WithAutherClock(clock func() time.Time) AutherOption {
	return func(a *Auther) {
		if clock != nil {
			a.clock = clock
		}
	}
}

// WithDeterministicIDs derives user ids from the email address
func WithDeterministicIDs(enabled bool) AutherOption {
	return func(a *Auther) {
		a.deterministicIDs = enabled
	}
}

// WithAutherLogger sets the logger
func WithAutherLogger(l Logger) AutherOption {
	return func(a *Auther) {
		if l != nil {
			a.logger = l
		}
	}
}

// NewAuther returns a new authenticator
func NewAuther(users Users, tokens TokenService, opts ...AutherOption) *Auther {
	a := &Auther{
		users:    users,
		tokens:   tokens,
		activity: noopActivitySink{},
		clock:    time.Now,
		logger:   logging.Default(),
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.hasher == nil {
		a.hasher = NewBcryptHasher(DefaultPasswordCost)
	}
	a.provider = NewUserProvider(users, a.hasher).WithLogger(a.logger)
	return a
}

// RevocationEnabled reports whether logout invalidates tokens server side
func (a *Auther) RevocationEnabled() bool {
	return a.revocations != nil
}

// Register creates a new active account and issues a token for it
func (a *Auther) Register(ctx context.Context, in RegisterInput) (*Session, error) {
	email := NormalizeEmail(in.Email)

	if _, err := a.users.FindByEmail(ctx, email); err == nil {
		return nil, ErrDuplicateEmail
	} else if !isUserNotFound(err) {
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to check email uniqueness")
	}

	hash, err := a.hasher.Hash(in.Password)
	if err != nil {
		return nil, err
	}

	id, err := a.newUserID(email)
	if err != nil {
		return nil, err
	}

	now := a.clock()
	user := &User{
		ID:           id,
		Name:         in.Name,
		Email:        email,
		PasswordHash: hash,
		Role:         RoleUser,
		Active:       true,
	}
	PrepareUserDefaults(user, now)

	created, err := a.users.Create(ctx, user)
	if err != nil {
		return nil, err
	}

	token, err := a.tokens.Issue(created.ID)
	if err != nil {
		return nil, err
	}

	a.record(ctx, ActivityEventRegistered, created, nil)
	a.logger.Info("user registered", "user_id", created.ID)

	return &Session{User: created.Public(), Token: token}, nil
}

// Login verifies credentials, stamps lastLogin and issues a token
func (a *Auther) Login(ctx context.Context, email, password string) (*Session, error) {
	user, err := a.provider.VerifyIdentity(ctx, email, password)
	if err != nil {
		if HasTextCode(err, TextCodeInvalidCredentials) || HasTextCode(err, TextCodeAccountInactive) {
			a.record(ctx, ActivityEventLoginFailure, &User{Email: NormalizeEmail(email)}, map[string]any{
				"reason": textCode(err),
			})
		}
		return nil, err
	}

	now := a.clock()
	updated, err := a.users.Update(ctx, user.ID, UserPatch{LastLogin: &now})
	if err != nil {
		return nil, err
	}

	token, err := a.tokens.Issue(updated.ID)
	if err != nil {
		return nil, err
	}

	a.record(ctx, ActivityEventLoginSuccess, updated, nil)

	return &Session{User: updated.Public(), Token: token}, nil
}

// Authenticate resolves a bearer token into the identity it belongs to
func (a *Auther) Authenticate(ctx context.Context, token string) (Identity, *JWTClaims, error) {
	claims, err := a.tokens.Verify(token)
	if err != nil {
		return Identity{}, nil, err
	}

	if a.revocations != nil && claims.TokenID() != "" {
		revoked, err := a.revocations.IsRevoked(ctx, claims.TokenID())
		if err != nil {
			return Identity{}, nil, errors.Wrap(err, errors.CategoryInternal, "failed to check token revocation")
		}
		if revoked {
			return Identity{}, nil, ErrTokenRevoked
		}
	}

	user, err := a.provider.FindIdentity(ctx, claims.UserID())
	if err != nil {
		return Identity{}, nil, err
	}

	return user.Identity(), claims, nil
}

// Logout revokes the token when a revocation store is configured. Without
// one tokens are stateless and logging out is a client side discard.
func (a *Auther) Logout(ctx context.Context, claims *JWTClaims) error {
	if claims == nil {
		return nil
	}
	if a.revocations != nil && claims.TokenID() != "" {
		if err := a.revocations.Revoke(ctx, claims.TokenID(), claims.Expires()); err != nil {
			return errors.Wrap(err, errors.CategoryInternal, "failed to revoke token")
		}
	}
	a.record(ctx, ActivityEventLogout, &User{ID: claims.UserID()}, nil)
	return nil
}

// CurrentUser returns the public shape of the user with id
func (a *Auther) CurrentUser(ctx context.Context, id string) (PublicUser, error) {
	user, err := a.users.FindByID(ctx, id)
	if err != nil {
		return PublicUser{}, err
	}
	return user.Public(), nil
}

// UpdateProfile changes the name and avatar of the user with id
func (a *Auther) UpdateProfile(ctx context.Context, id string, in ProfileUpdate) (PublicUser, error) {
	updated, err := a.users.Update(ctx, id, UserPatch{Name: in.Name, Avatar: in.Avatar})
	if err != nil {
		return PublicUser{}, err
	}
	a.record(ctx, ActivityEventProfileUpdated, updated, nil)
	return updated.Public(), nil
}

// Deactivate marks the account inactive. Owned tasks are left untouched.
func (a *Auther) Deactivate(ctx context.Context, id string) error {
	inactive := false
	updated, err := a.users.Update(ctx, id, UserPatch{Active: &inactive})
	if err != nil {
		return err
	}
	a.record(ctx, ActivityEventUserDeactivated, updated, nil)
	return nil
}

// DeactivateByEmail is the administrative variant of Deactivate
func (a *Auther) DeactivateByEmail(ctx context.Context, email string) (PublicUser, error) {
	user, err := a.users.FindByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		return PublicUser{}, err
	}
	if err := a.Deactivate(ctx, user.ID); err != nil {
		return PublicUser{}, err
	}
	return a.CurrentUser(ctx, user.ID)
}

// SetRole changes the role of the account registered with email
func (a *Auther) SetRole(ctx context.Context, email string, role UserRole) (PublicUser, error) {
	if !role.IsValid() {
		return PublicUser{}, errors.New("unknown role "+role.String(), errors.CategoryBadInput).
			WithCode(errors.CodeBadRequest)
	}
	user, err := a.users.FindByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		return PublicUser{}, err
	}
	updated, err := a.users.Update(ctx, user.ID, UserPatch{Role: &role})
	if err != nil {
		return PublicUser{}, err
	}
	a.record(ctx, ActivityEventRoleChanged, updated, map[string]any{
		"from": user.Role.String(),
		"to":   role.String(),
	})
	return updated.Public(), nil
}

// ListActive returns every active account
func (a *Auther) ListActive(ctx context.Context) ([]PublicUser, error) {
	users, err := a.users.ListActive(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]PublicUser, 0, len(users))
	for _, u := range users {
		out = append(out, u.Public())
	}
	return out, nil
}

// Stats returns account statistics for the user with id
func (a *Auther) Stats(ctx context.Context, id string) (UserStats, error) {
	user, err := a.users.FindByID(ctx, id)
	if err != nil {
		return UserStats{}, err
	}
	return UserStats{
		AccountCreated:    user.CreatedAt,
		LastLogin:         user.LastLogin,
		ProfileCompletion: ProfileCompletion(user),
	}, nil
}

// ProfileCompletion is the rounded percentage of filled profile fields
// among name, email and avatar.
func ProfileCompletion(u *User) int {
	fields := []string{u.Name, u.Email, u.Avatar}
	filled := 0
	for _, f := range fields {
		if strings.TrimSpace(f) != "" {
			filled++
		}
	}
	return int(math.Round(100 * float64(filled) / float64(len(fields))))
}

func (a *Auther) newUserID(email string) (string, error) {
	if !a.deterministicIDs {
		return uuid.NewString(), nil
	}
	id, err := hashid.NewUUID(email)
	if err != nil {
		return "", errors.Wrap(err, errors.CategoryInternal, "failed to derive user id")
	}
	return id.String(), nil
}

func (a *Auther) record(ctx context.Context, kind ActivityEventType, user *User, meta map[string]any) {
	event := ActivityEvent{
		EventType:  kind,
		UserID:     user.ID,
		Email:      user.Email,
		Metadata:   meta,
		OccurredAt: a.clock(),
	}
	if err := a.activity.Record(ctx, event); err != nil {
		a.logger.Warn("failed to record activity", "event", string(kind), "error", err)
	}
}

func textCode(err error) string {
	var richErr *errors.Error
	if errors.As(err, &richErr) {
		return richErr.TextCode
	}
	return ""
}
