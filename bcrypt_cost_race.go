//go:build race

package accounts

import "golang.org/x/crypto/bcrypt"

// race builds hash with the library default to keep suites under their timeouts
func passwordHashCost() int {
	return bcrypt.DefaultCost
}
