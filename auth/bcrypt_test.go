package auth_test

import (
	"testing"

	"github.com/goliatone/go-taskboard/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestBcryptHasher(t *testing.T) {
	hasher := auth.NewBcryptHasher(bcrypt.MinCost)

	tests := []struct {
		name     string
		password string
		wantErr  bool
	}{
		{name: "Valid password", password: "securePassword123!"},
		{name: "Empty password", password: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hash, err := hasher.Hash(tt.password)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}

			require.NoError(t, err)
			assert.NotEqual(t, tt.password, hash)
			assert.NoError(t, hasher.Compare(tt.password, hash))

			err = hasher.Compare("wrong", hash)
			assert.True(t, auth.HasTextCode(err, auth.TextCodeInvalidCredentials))
		})
	}
}

func TestBcryptHasher_CostFallback(t *testing.T) {
	assert.Equal(t, bcrypt.MinCost, auth.NewBcryptHasher(bcrypt.MinCost).Cost())

	hash, err := auth.NewBcryptHasher(bcrypt.MinCost).Hash("password123")
	require.NoError(t, err)
	cost, err := bcrypt.Cost([]byte(hash))
	require.NoError(t, err)
	assert.Equal(t, bcrypt.MinCost, cost)
}

func TestBcryptHasher_RandomPasswordHash(t *testing.T) {
	hasher := auth.NewBcryptHasher(bcrypt.MinCost)
	a, err := hasher.RandomPasswordHash()
	require.NoError(t, err)
	b, err := hasher.RandomPasswordHash()
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}
