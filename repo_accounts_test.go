package accounts_test

import (
	"context"
	"testing"
	"time"

	accounts "github.com/goliatone/go-accounts"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccountsRepository_CreateAndLookup(t *testing.T) {
	db := newTestDB(t)
	now := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	repo := accounts.NewAccountsRepository(db, accounts.WithAccountsClock(func() time.Time { return now }))
	ctx := context.Background()

	created, err := repo.Create(ctx, accounts.NewPendingAccount("user1", "user1@gmail.com", "hash", "token-1"))
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, created.ID)
	require.NotNil(t, created.CreatedAt)
	assert.True(t, created.CreatedAt.Equal(now))

	byEmail, err := repo.GetByEmail(ctx, "user1@gmail.com")
	require.NoError(t, err)
	assert.Equal(t, created.ID, byEmail.ID)
	assert.True(t, byEmail.IsPending())
	assert.Equal(t, "token-1", byEmail.Token())

	byID, err := repo.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "user1", byID.Username)
}

func TestAccountsRepository_GetByEmailNotFound(t *testing.T) {
	repo := accounts.NewAccountsRepository(newTestDB(t))

	_, err := repo.GetByEmail(context.Background(), "nobody@gmail.com")
	require.Error(t, err)
	assert.True(t, accounts.IsNotFound(err))

	_, err = repo.GetByEmail(context.Background(), "  ")
	assert.True(t, accounts.IsNotFound(err))
}

func TestAccountsRepository_DuplicateEmailIsUniqueViolation(t *testing.T) {
	repo := accounts.NewAccountsRepository(newTestDB(t))
	ctx := context.Background()

	_, err := repo.Create(ctx, accounts.NewPendingAccount("user1", "user1@gmail.com", "hash", "token-1"))
	require.NoError(t, err)

	_, err = repo.Create(ctx, accounts.NewPendingAccount("user2", "user1@gmail.com", "hash", "token-2"))
	require.Error(t, err)
	assert.True(t, accounts.IsUniqueViolation(err))
}

func TestAccountsRepository_Delete(t *testing.T) {
	db := newTestDB(t)
	repo := accounts.NewAccountsRepository(db)
	ctx := context.Background()

	created, err := repo.Create(ctx, accounts.NewPendingAccount("user1", "user1@gmail.com", "hash", "token-1"))
	require.NoError(t, err)

	require.NoError(t, repo.Delete(ctx, created))
	assert.Equal(t, 0, countAccounts(t, db, "user1@gmail.com"))

	// deleting twice is harmless
	require.NoError(t, repo.Delete(ctx, created))

	err = repo.Delete(ctx, &accounts.Account{})
	assert.True(t, accounts.IsNotFound(err))
}

func TestAccountsRepository_ActivateByTokenIsSingleUse(t *testing.T) {
	db := newTestDB(t)
	now := time.Date(2024, 3, 2, 8, 30, 0, 0, time.UTC)
	repo := accounts.NewAccountsRepository(db, accounts.WithAccountsClock(func() time.Time { return now }))
	ctx := context.Background()

	_, err := repo.Create(ctx, accounts.NewPendingAccount("user1", "user1@gmail.com", "hash", "token-1"))
	require.NoError(t, err)
	_, err = repo.Create(ctx, accounts.NewPendingAccount("user2", "user2@gmail.com", "hash", "token-2"))
	require.NoError(t, err)

	activated, err := repo.ActivateByToken(ctx, "token-1")
	require.NoError(t, err)
	assert.True(t, activated.IsActive())
	assert.Empty(t, activated.Token())
	require.NotNil(t, activated.ActivatedAt)
	assert.True(t, activated.ActivatedAt.Equal(now))

	_, err = repo.ActivateByToken(ctx, "token-1")
	assert.True(t, accounts.IsNotFound(err))

	_, err = repo.ActivateByToken(ctx, "")
	assert.True(t, accounts.IsNotFound(err))

	other := loadAccount(t, db, "user2@gmail.com")
	assert.True(t, other.Inactive)
	assert.Equal(t, "token-2", other.Token())
}

func TestAccountsRepository_ActivateByTokenTxRollsBack(t *testing.T) {
	db := newTestDB(t)
	repo := accounts.NewAccountsRepository(db)
	ctx := context.Background()

	_, err := repo.Create(ctx, accounts.NewPendingAccount("user1", "user1@gmail.com", "hash", "token-1"))
	require.NoError(t, err)

	tx, err := db.BeginTx(ctx, nil)
	require.NoError(t, err)

	_, err = repo.ActivateByTokenTx(ctx, tx, "token-1")
	require.NoError(t, err)
	require.NoError(t, tx.Rollback())

	stored := loadAccount(t, db, "user1@gmail.com")
	assert.True(t, stored.Inactive)
	assert.Equal(t, "token-1", stored.Token())
}
