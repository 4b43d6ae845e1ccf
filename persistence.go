package accounts

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	goerrors "github.com/goliatone/go-errors"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// PersistenceConfig is the database section of the configuration
type PersistenceConfig interface {
	GetDriver() string
	GetDSN() string
}

// OpenDB opens a bun database for the configured driver.
// Postgres goes through the pgx stdlib driver.
func OpenDB(cfg PersistenceConfig) (*bun.DB, error) {
	driver := strings.ToLower(strings.TrimSpace(cfg.GetDriver()))
	dsn := cfg.GetDSN()

	switch driver {
	case DriverPostgres, "pgx", "postgresql":
		sqldb, err := sql.Open("pgx", dsn)
		if err != nil {
			return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to open postgres database")
		}
		return bun.NewDB(sqldb, pgdialect.New()), nil
	case DriverSQLite, "sqlite3", "":
		sqldb, err := sql.Open(sqliteshim.ShimName, dsn)
		if err != nil {
			return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to open sqlite database")
		}
		// one writer, shared cache in memory databases disappear otherwise
		sqldb.SetMaxOpenConns(1)
		return bun.NewDB(sqldb, sqlitedialect.New()), nil
	default:
		return nil, goerrors.New(fmt.Sprintf("unsupported database driver %q", driver), goerrors.CategoryBadInput).
			WithCode(goerrors.CodeBadRequest)
	}
}

// Migrate applies the embedded migrations
func Migrate(ctx context.Context, db *bun.DB) error {
	goose.SetBaseFS(GetMigrationsFS())

	if err := goose.SetDialect(gooseDialect(db)); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to set migration dialect")
	}

	if err := goose.UpContext(ctx, db.DB, MigrationsDir); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to run migrations")
	}

	return nil
}

func gooseDialect(db *bun.DB) string {
	if db.Dialect().Name() == dialect.PG {
		return "postgres"
	}
	return "sqlite3"
}
