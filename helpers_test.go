package accounts_test

import (
	"context"
	"fmt"
	"testing"

	accounts "github.com/goliatone/go-accounts"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"golang.org/x/crypto/bcrypt"
)

type testPersistence struct {
	dsn string
}

func (p testPersistence) GetDriver() string { return accounts.DriverSQLite }
func (p testPersistence) GetDSN() string    { return p.dsn }

// newTestDB returns a migrated in memory database private to the test
func newTestDB(t *testing.T) *bun.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := accounts.OpenDB(testPersistence{dsn: dsn})
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = db.Close()
	})

	require.NoError(t, accounts.Migrate(context.Background(), db))
	return db
}

// fastHasher keeps integration tests quick
var fastHasher = accounts.BcryptHasher{Cost: bcrypt.MinCost}

func countAccounts(t *testing.T, db *bun.DB, email string) int {
	t.Helper()
	n, err := db.NewSelect().
		Model((*accounts.Account)(nil)).
		Where("email = ?", email).
		Count(context.Background())
	require.NoError(t, err)
	return n
}

func loadAccount(t *testing.T, db *bun.DB, email string) *accounts.Account {
	t.Helper()
	account := &accounts.Account{}
	err := db.NewSelect().
		Model(account).
		Where("?TableAlias.email = ?", email).
		Limit(1).
		Scan(context.Background())
	require.NoError(t, err)
	return account
}
