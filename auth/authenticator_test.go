package auth_test

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/goliatone/go-taskboard/auth"
	"github.com/goliatone/go-taskboard/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type recordingSink struct {
	mu     sync.Mutex
	events []auth.ActivityEvent
}

func (r *recordingSink) Record(_ context.Context, e auth.ActivityEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return nil
}

func (r *recordingSink) types() []auth.ActivityEventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]auth.ActivityEventType, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.EventType)
	}
	return out
}

func newTestAuther(t *testing.T, opts ...auth.AutherOption) (*auth.Auther, *fakeUsers, *auth.TokenServiceImpl) {
	t.Helper()
	users := newFakeUsers()
	tokens := auth.NewTokenService(signingKey, time.Hour)
	base := []auth.AutherOption{
		auth.WithHasher(auth.NewBcryptHasher(bcrypt.MinCost)),
		auth.WithAutherLogger(logging.Nop()),
	}
	return auth.NewAuther(users, tokens, append(base, opts...)...), users, tokens
}

func TestAuther_Register(t *testing.T) {
	sink := &recordingSink{}
	a, users, tokens := newTestAuther(t, auth.WithActivitySink(sink))
	ctx := context.Background()

	session, err := a.Register(ctx, auth.RegisterInput{Name: "Jane Doe", Email: "  Jane@Example.COM ", Password: "password123"})
	require.NoError(t, err)

	assert.Equal(t, "jane@example.com", session.User.Email)
	assert.Equal(t, auth.RoleUser, session.User.Role)
	assert.True(t, session.User.Active)
	assert.Nil(t, session.User.LastLogin)
	assert.NotEmpty(t, session.User.ID)

	claims, err := tokens.Verify(session.Token)
	require.NoError(t, err)
	assert.Equal(t, session.User.ID, claims.UserID())

	stored, err := users.FindByID(ctx, session.User.ID)
	require.NoError(t, err)
	assert.NotEqual(t, "password123", stored.PasswordHash)

	raw, err := json.Marshal(session)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), stored.PasswordHash)
	assert.NotContains(t, string(raw), "password")

	assert.Equal(t, []auth.ActivityEventType{auth.ActivityEventRegistered}, sink.types())
}

func TestAuther_RegisterDuplicateIsCaseInsensitive(t *testing.T) {
	a, _, _ := newTestAuther(t)
	ctx := context.Background()

	_, err := a.Register(ctx, auth.RegisterInput{Name: "Jane", Email: "jane@example.com", Password: "password123"})
	require.NoError(t, err)

	_, err = a.Register(ctx, auth.RegisterInput{Name: "Other", Email: "JANE@example.com", Password: "password456"})
	require.Error(t, err)
	assert.True(t, auth.HasTextCode(err, auth.TextCodeDuplicateEmail))
}

func TestAuther_RegisterDeterministicIDs(t *testing.T) {
	a, _, _ := newTestAuther(t, auth.WithDeterministicIDs(true))
	b, _, _ := newTestAuther(t, auth.WithDeterministicIDs(true))
	ctx := context.Background()

	s1, err := a.Register(ctx, auth.RegisterInput{Name: "Jane", Email: "jane@example.com", Password: "password123"})
	require.NoError(t, err)
	s2, err := b.Register(ctx, auth.RegisterInput{Name: "Jane", Email: "JANE@example.com", Password: "password123"})
	require.NoError(t, err)

	assert.Equal(t, s1.User.ID, s2.User.ID)
}

func TestAuther_Login(t *testing.T) {
	now := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	a, _, _ := newTestAuther(t, auth.WithAutherClock(func() time.Time { return now }))
	ctx := context.Background()

	reg, err := a.Register(ctx, auth.RegisterInput{Name: "Jane", Email: "jane@example.com", Password: "password123"})
	require.NoError(t, err)

	session, err := a.Login(ctx, "JANE@example.com", "password123")
	require.NoError(t, err)
	assert.Equal(t, reg.User.ID, session.User.ID)
	require.NotNil(t, session.User.LastLogin)
	assert.True(t, now.Equal(*session.User.LastLogin))
	assert.NotEmpty(t, session.Token)
}

func TestAuther_LoginFailuresAreIndistinguishable(t *testing.T) {
	sink := &recordingSink{}
	a, _, _ := newTestAuther(t, auth.WithActivitySink(sink))
	ctx := context.Background()

	_, err := a.Register(ctx, auth.RegisterInput{Name: "Jane", Email: "jane@example.com", Password: "password123"})
	require.NoError(t, err)

	_, errUnknown := a.Login(ctx, "nobody@example.com", "password123")
	_, errWrong := a.Login(ctx, "jane@example.com", "wrong-password")

	require.Error(t, errUnknown)
	require.Error(t, errWrong)
	assert.Equal(t, errUnknown.Error(), errWrong.Error())
	assert.True(t, auth.HasTextCode(errUnknown, auth.TextCodeInvalidCredentials))
	assert.Contains(t, sink.types(), auth.ActivityEventLoginFailure)
}

func TestAuther_DeactivatedUserCannotAuthenticate(t *testing.T) {
	a, _, _ := newTestAuther(t)
	ctx := context.Background()

	reg, err := a.Register(ctx, auth.RegisterInput{Name: "Jane", Email: "jane@example.com", Password: "password123"})
	require.NoError(t, err)

	identity, _, err := a.Authenticate(ctx, reg.Token)
	require.NoError(t, err)
	assert.Equal(t, reg.User.ID, identity.ID)

	require.NoError(t, a.Deactivate(ctx, reg.User.ID))

	_, _, err = a.Authenticate(ctx, reg.Token)
	assert.True(t, auth.HasTextCode(err, auth.TextCodeAccountInactive))

	_, err = a.Login(ctx, "jane@example.com", "password123")
	assert.True(t, auth.HasTextCode(err, auth.TextCodeAccountInactive))

	active, err := a.ListActive(ctx)
	require.NoError(t, err)
	assert.Empty(t, active)
}

func TestAuther_AuthenticateUnknownUser(t *testing.T) {
	a, _, tokens := newTestAuther(t)

	token, err := tokens.Issue("ghost")
	require.NoError(t, err)

	_, _, err = a.Authenticate(context.Background(), token)
	assert.True(t, auth.HasTextCode(err, auth.TextCodeIdentityNotFound))
}

func TestAuther_LogoutWithRevocation(t *testing.T) {
	store := auth.NewMemoryRevocationStore()
	a, _, _ := newTestAuther(t, auth.WithRevocationStore(store))
	ctx := context.Background()
	require.True(t, a.RevocationEnabled())

	reg, err := a.Register(ctx, auth.RegisterInput{Name: "Jane", Email: "jane@example.com", Password: "password123"})
	require.NoError(t, err)

	_, claims, err := a.Authenticate(ctx, reg.Token)
	require.NoError(t, err)

	require.NoError(t, a.Logout(ctx, claims))

	_, _, err = a.Authenticate(ctx, reg.Token)
	assert.True(t, auth.HasTextCode(err, auth.TextCodeTokenRevoked))

	fresh, err := a.Login(ctx, "jane@example.com", "password123")
	require.NoError(t, err)
	_, _, err = a.Authenticate(ctx, fresh.Token)
	assert.NoError(t, err)
}

func TestAuther_LogoutWithoutRevocationIsStateless(t *testing.T) {
	a, _, _ := newTestAuther(t)
	ctx := context.Background()
	assert.False(t, a.RevocationEnabled())

	reg, err := a.Register(ctx, auth.RegisterInput{Name: "Jane", Email: "jane@example.com", Password: "password123"})
	require.NoError(t, err)
	_, claims, err := a.Authenticate(ctx, reg.Token)
	require.NoError(t, err)

	require.NoError(t, a.Logout(ctx, claims))

	_, _, err = a.Authenticate(ctx, reg.Token)
	assert.NoError(t, err)
}

func TestAuther_ProfileAndStats(t *testing.T) {
	a, _, _ := newTestAuther(t)
	ctx := context.Background()

	reg, err := a.Register(ctx, auth.RegisterInput{Name: "Jane", Email: "jane@example.com", Password: "password123"})
	require.NoError(t, err)

	stats, err := a.Stats(ctx, reg.User.ID)
	require.NoError(t, err)
	assert.Equal(t, 67, stats.ProfileCompletion)
	assert.Nil(t, stats.LastLogin)

	name := "Jane Smith"
	avatar := "https://example.com/a.png"
	updated, err := a.UpdateProfile(ctx, reg.User.ID, auth.ProfileUpdate{Name: &name, Avatar: &avatar})
	require.NoError(t, err)
	assert.Equal(t, "Jane Smith", updated.Name)
	assert.Equal(t, avatar, updated.Avatar)
	assert.Equal(t, "jane@example.com", updated.Email)

	stats, err = a.Stats(ctx, reg.User.ID)
	require.NoError(t, err)
	assert.Equal(t, 100, stats.ProfileCompletion)
}

func TestAuther_SetRole(t *testing.T) {
	a, _, _ := newTestAuther(t)
	ctx := context.Background()

	_, err := a.Register(ctx, auth.RegisterInput{Name: "Jane", Email: "jane@example.com", Password: "password123"})
	require.NoError(t, err)

	u, err := a.SetRole(ctx, "jane@example.com", auth.RoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, auth.RoleAdmin, u.Role)

	_, err = a.SetRole(ctx, "jane@example.com", auth.UserRole("root"))
	assert.Error(t, err)

	_, err = a.SetRole(ctx, "nobody@example.com", auth.RoleAdmin)
	assert.True(t, auth.HasTextCode(err, auth.TextCodeUserNotFound))
}

func TestProfileCompletion(t *testing.T) {
	assert.Equal(t, 0, auth.ProfileCompletion(&auth.User{}))
	assert.Equal(t, 33, auth.ProfileCompletion(&auth.User{Email: "a@b.c"}))
	assert.Equal(t, 67, auth.ProfileCompletion(&auth.User{Name: "A", Email: "a@b.c"}))
	assert.Equal(t, 100, auth.ProfileCompletion(&auth.User{Name: "A", Email: "a@b.c", Avatar: "x"}))
}
