package client

import (
	"testing"

	"github.com/goliatone/go-errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnapshotHappyPath(t *testing.T) {
	var s Snapshot
	assert.Equal(t, StateUnauthenticated, s.State())
	assert.Nil(t, s.User())

	s, err := s.Begin()
	require.NoError(t, err)
	assert.Equal(t, StateLoading, s.State())

	s, err = s.Succeed(User{ID: "u1", Name: "Ann"}, "tok")
	require.NoError(t, err)
	assert.True(t, s.IsAuthenticated())
	assert.Equal(t, "tok", s.Token())
	assert.Equal(t, "Ann", s.User().Name)

	s, err = s.WithUser(User{ID: "u1", Name: "Annie"})
	require.NoError(t, err)
	assert.Equal(t, "Annie", s.User().Name)
	assert.Equal(t, "tok", s.Token())

	s = s.SignOut()
	assert.Equal(t, StateUnauthenticated, s.State())
	assert.Empty(t, s.Token())
	assert.Nil(t, s.User())
}

func TestSnapshotFailureClearsCredentials(t *testing.T) {
	s, err := Snapshot{}.Begin()
	require.NoError(t, err)

	s, err = s.Fail("Invalid email or password")
	require.NoError(t, err)
	assert.Equal(t, StateUnauthenticated, s.State())
	assert.Equal(t, "Invalid email or password", s.Err())
	assert.Empty(t, s.Token())
	assert.Nil(t, s.User())
}

func TestSnapshotIllegalTransitions(t *testing.T) {
	authenticated := Snapshot{state: StateAuthenticated, user: &User{ID: "u1"}, token: "tok"}
	loading := Snapshot{state: StateLoading}

	cases := []struct {
		name string
		run  func() (Snapshot, error)
		from Snapshot
	}{
		{"succeed while unauthenticated", func() (Snapshot, error) { return Snapshot{}.Succeed(User{}, "t") }, Snapshot{}},
		{"fail while unauthenticated", func() (Snapshot, error) { return Snapshot{}.Fail("x") }, Snapshot{}},
		{"update user while unauthenticated", func() (Snapshot, error) { return Snapshot{}.WithUser(User{}) }, Snapshot{}},
		{"begin while loading", func() (Snapshot, error) { return loading.Begin() }, loading},
		{"update user while loading", func() (Snapshot, error) { return loading.WithUser(User{}) }, loading},
		{"succeed while authenticated", func() (Snapshot, error) { return authenticated.Succeed(User{}, "t") }, authenticated},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := tc.run()
			require.Error(t, err)

			var richErr *errors.Error
			require.True(t, errors.As(err, &richErr))
			assert.Equal(t, TextCodeInvalidTransition, richErr.TextCode)
			assert.Equal(t, tc.from.State().String(), richErr.Metadata["from"])
			assert.Equal(t, tc.from, got)
		})
	}
}

func TestSignOutFromEveryState(t *testing.T) {
	for _, s := range []Snapshot{{}, {state: StateLoading}, {state: StateAuthenticated, token: "t"}} {
		assert.Equal(t, StateUnauthenticated, s.SignOut().State())
	}
}

func TestSnapshotUserIsACopy(t *testing.T) {
	s, _ := Snapshot{}.Begin()
	s, _ = s.Succeed(User{Name: "Ann"}, "tok")

	u := s.User()
	u.Name = "Mallory"
	assert.Equal(t, "Ann", s.User().Name)
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "unauthenticated", StateUnauthenticated.String())
	assert.Equal(t, "loading", StateLoading.String())
	assert.Equal(t, "authenticated", StateAuthenticated.String())
	assert.Equal(t, "unknown", State(42).String())
}
