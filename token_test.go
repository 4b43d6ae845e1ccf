package accounts_test

import (
	"testing"

	accounts "github.com/goliatone/go-accounts"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUUIDTokenGenerator(t *testing.T) {
	gen := accounts.UUIDTokenGenerator{}
	seen := map[string]bool{}

	for i := 0; i < 100; i++ {
		token, err := gen.Generate()
		require.NoError(t, err)

		id, err := uuid.Parse(token)
		require.NoError(t, err)
		assert.Equal(t, uuid.Version(4), id.Version())

		assert.False(t, seen[token], "token issued twice")
		seen[token] = true
	}
}

func TestTokenGeneratorFunc(t *testing.T) {
	gen := accounts.TokenGeneratorFunc(func() (string, error) {
		return "fixed-token", nil
	})

	token, err := gen.Generate()
	require.NoError(t, err)
	assert.Equal(t, "fixed-token", token)
}
