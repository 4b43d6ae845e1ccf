package accounts_test

import (
	"context"
	"errors"
	"testing"

	accounts "github.com/goliatone/go-accounts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
)

func TestRepositoryManager(t *testing.T) {
	db := newTestDB(t)
	mngr := accounts.NewRepositoryManager(db)

	require.NoError(t, mngr.Validate())
	assert.NotPanics(t, mngr.MustValidate)

	ctx := context.Background()
	boom := errors.New("boom")

	err := mngr.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		_, err := mngr.Accounts().CreateTx(ctx, tx, accounts.NewPendingAccount("user1", "user1@gmail.com", "hash", "token-1"))
		require.NoError(t, err)
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 0, countAccounts(t, db, "user1@gmail.com"))

	err = mngr.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		_, err := mngr.Accounts().CreateTx(ctx, tx, accounts.NewPendingAccount("user1", "user1@gmail.com", "hash", "token-1"))
		return err
	})
	require.NoError(t, err)
	assert.Equal(t, 1, countAccounts(t, db, "user1@gmail.com"))
}
