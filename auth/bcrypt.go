package auth

import (
	"errors"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// DefaultPasswordCost is the bcrypt work factor used for stored passwords
const DefaultPasswordCost = 12

// BcryptHasher implements PasswordHasher with a fixed work factor
type BcryptHasher struct {
	cost int
}

// NewBcryptHasher returns a hasher using cost, falling back to the build
// default when cost is outside the range bcrypt accepts.
func NewBcryptHasher(cost int) *BcryptHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = passwordHashCost()
	}
	return &BcryptHasher{cost: cost}
}

// Cost returns the configured work factor
func (b *BcryptHasher) Cost() int {
	return b.cost
}

// Hash will generate a password hash
func (b *BcryptHasher) Hash(password string) (string, error) {
	if password == "" {
		return "", ErrNoEmptyString
	}

	h, err := bcrypt.GenerateFromPassword([]byte(password), b.cost)
	return string(h), err
}

// Compare will validate the given cleartext password matches the hashed password
func (b *BcryptHasher) Compare(password, hash string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return ErrInvalidCredentials
		}
		return err
	}
	return nil
}

// RandomPasswordHash hashes a random secret no password can match
func (b *BcryptHasher) RandomPasswordHash() (string, error) {
	return b.Hash(uuid.NewString())
}
