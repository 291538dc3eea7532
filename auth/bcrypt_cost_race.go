//go:build race

package auth

import "golang.org/x/crypto/bcrypt"

// race builds fall back to a cheaper factor so suites stay within timeouts
func passwordHashCost() int {
	return bcrypt.DefaultCost
}
