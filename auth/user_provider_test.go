package auth_test

import (
	"context"
	"errors"
	"testing"

	"github.com/goliatone/go-taskboard/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestUserProvider_VerifyIdentity(t *testing.T) {
	hasher := auth.NewBcryptHasher(bcrypt.MinCost)
	hash, err := hasher.Hash("password123")
	require.NoError(t, err)

	active := &auth.User{ID: "u-1", Email: "jane@example.com", PasswordHash: hash, Active: true}
	inactive := &auth.User{ID: "u-2", Email: "gone@example.com", PasswordHash: hash, Active: false}

	tests := []struct {
		name     string
		email    string
		password string
		setup    func(m *MockUsers)
		wantCode string
		wantID   string
	}{
		{
			name:     "valid credentials",
			email:    " Jane@Example.com ",
			password: "password123",
			setup: func(m *MockUsers) {
				m.On("FindByEmail", mock.Anything, "jane@example.com").Return(active, nil)
			},
			wantID: "u-1",
		},
		{
			name:     "unknown email",
			email:    "nobody@example.com",
			password: "password123",
			setup: func(m *MockUsers) {
				m.On("FindByEmail", mock.Anything, "nobody@example.com").Return(nil, auth.ErrUserNotFound)
			},
			wantCode: auth.TextCodeInvalidCredentials,
		},
		{
			name:     "wrong password",
			email:    "jane@example.com",
			password: "nope",
			setup: func(m *MockUsers) {
				m.On("FindByEmail", mock.Anything, "jane@example.com").Return(active, nil)
			},
			wantCode: auth.TextCodeInvalidCredentials,
		},
		{
			name:     "inactive account",
			email:    "gone@example.com",
			password: "password123",
			setup: func(m *MockUsers) {
				m.On("FindByEmail", mock.Anything, "gone@example.com").Return(inactive, nil)
			},
			wantCode: auth.TextCodeAccountInactive,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &MockUsers{}
			tt.setup(store)

			provider := auth.NewUserProvider(store, hasher)
			user, err := provider.VerifyIdentity(context.Background(), tt.email, tt.password)

			if tt.wantCode != "" {
				require.Error(t, err)
				assert.Nil(t, user)
				assert.True(t, auth.HasTextCode(err, tt.wantCode), "got %v", err)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.wantID, user.ID)
			}
			store.AssertExpectations(t)
		})
	}
}

func TestUserProvider_VerifyIdentityStoreFailure(t *testing.T) {
	store := &MockUsers{}
	store.On("FindByEmail", mock.Anything, "jane@example.com").Return(nil, errors.New("db down"))

	provider := auth.NewUserProvider(store, auth.NewBcryptHasher(bcrypt.MinCost))
	_, err := provider.VerifyIdentity(context.Background(), "jane@example.com", "x")

	require.Error(t, err)
	assert.False(t, auth.HasTextCode(err, auth.TextCodeInvalidCredentials))
}

func TestUserProvider_FindIdentity(t *testing.T) {
	store := &MockUsers{}
	store.On("FindByID", mock.Anything, "u-1").Return(&auth.User{ID: "u-1", Active: true}, nil)
	store.On("FindByID", mock.Anything, "u-2").Return(&auth.User{ID: "u-2", Active: false}, nil)
	store.On("FindByID", mock.Anything, "u-3").Return(nil, auth.ErrUserNotFound)

	provider := auth.NewUserProvider(store, nil)

	user, err := provider.FindIdentity(context.Background(), "u-1")
	require.NoError(t, err)
	assert.Equal(t, "u-1", user.ID)

	_, err = provider.FindIdentity(context.Background(), "u-2")
	assert.True(t, auth.HasTextCode(err, auth.TextCodeAccountInactive))

	_, err = provider.FindIdentity(context.Background(), "u-3")
	assert.True(t, auth.HasTextCode(err, auth.TextCodeIdentityNotFound))
}
