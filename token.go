package accounts

import "github.com/google/uuid"

// TokenGenerator issues activation tokens
type TokenGenerator interface {
	Generate() (string, error)
}

// TokenGeneratorFunc adapts a function to the TokenGenerator interface
type TokenGeneratorFunc func() (string, error)

// Generate implements TokenGenerator
func (f TokenGeneratorFunc) Generate() (string, error) {
	return f()
}

// UUIDTokenGenerator issues random v4 UUIDs, read from crypto/rand
type UUIDTokenGenerator struct{}

// Generate implements TokenGenerator
func (UUIDTokenGenerator) Generate() (string, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return "", err
	}
	return id.String(), nil
}
