package accounts

import (
	"encoding/base64"
	"errors"

	"golang.org/x/crypto/bcrypt"
	"golang.org/x/crypto/blake2b"
)

// bcryptMaxInput is the longest input bcrypt accepts
const bcryptMaxInput = 72

// HashPassword will generate a salted password hash
func HashPassword(password string) (string, error) {
	return hashWithCost(password, passwordHashCost())
}

// ComparePasswordAndHash will validate the given cleartext
// password matches the hashed password
func ComparePasswordAndHash(password, hash string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(hash), bcryptInput(password)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return ErrMismatchedHashAndPassword
		}
		return err
	}
	return nil
}

// BcryptHasher hashes with a fixed cost, zero means the build default
type BcryptHasher struct {
	Cost int
}

// HashPassword implements PasswordHasher
func (b BcryptHasher) HashPassword(password string) (string, error) {
	cost := b.Cost
	if cost == 0 || cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = passwordHashCost()
	}
	return hashWithCost(password, cost)
}

func hashWithCost(password string, cost int) (string, error) {
	if password == "" {
		return "", ErrNoEmptyString
	}

	h, err := bcrypt.GenerateFromPassword(bcryptInput(password), cost)
	return string(h), err
}

// bcryptInput digests passwords longer than bcrypt's 72 byte limit so no
// valid password is rejected or silently truncated. Shorter passwords are
// hashed as is.
func bcryptInput(password string) []byte {
	if len(password) <= bcryptMaxInput {
		return []byte(password)
	}
	sum := blake2b.Sum256([]byte(password))
	return []byte(base64.StdEncoding.EncodeToString(sum[:]))
}
