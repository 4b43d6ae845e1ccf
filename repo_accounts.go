package accounts

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Accounts is the bun backed account store
type Accounts interface {
	AccountStore

	GetByID(ctx context.Context, id uuid.UUID) (*Account, error)
	GetByEmailTx(ctx context.Context, tx bun.IDB, email string) (*Account, error)
	CreateTx(ctx context.Context, tx bun.IDB, record *Account) (*Account, error)
	DeleteTx(ctx context.Context, tx bun.IDB, record *Account) error
	ActivateByTokenTx(ctx context.Context, tx bun.IDB, token string) (*Account, error)
}

type accounts struct {
	repo repository.Repository[*Account]
	db   *bun.DB
	now  func() time.Time
}

var _ Accounts = (*accounts)(nil)

// AccountsOption customizes the accounts repository
type AccountsOption func(*accounts)

// WithAccountsClock injects the clock used for timestamps
func WithAccountsClock(clock func() time.Time) AccountsOption {
	return func(a *accounts) {
		if clock != nil {
			a.now = clock
		}
	}
}

// NewAccountsRepository returns the account store over db
func NewAccountsRepository(db *bun.DB, opts ...AccountsOption) Accounts {
	repo := repository.NewRepository[*Account](db, repository.ModelHandlers[*Account]{
		NewRecord: func() *Account { return &Account{} },
		GetID: func(a *Account) uuid.UUID {
			if a == nil {
				return uuid.Nil
			}
			return a.ID
		},
		SetID: func(a *Account, id uuid.UUID) {
			if a != nil {
				a.ID = id
			}
		},
		GetIdentifier: func() string {
			return "email"
		},
	})

	a := &accounts{
		repo: repo,
		db:   db,
		now:  time.Now,
	}

	for _, opt := range opts {
		if opt != nil {
			opt(a)
		}
	}

	return a
}

func (a *accounts) GetByID(ctx context.Context, id uuid.UUID) (*Account, error) {
	return a.repo.GetByID(ctx, id.String())
}

func (a *accounts) GetByEmail(ctx context.Context, email string) (*Account, error) {
	return a.GetByEmailTx(ctx, a.db, email)
}

func (a *accounts) GetByEmailTx(ctx context.Context, tx bun.IDB, email string) (*Account, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil, repository.NewRecordNotFound()
	}

	record, err := a.repo.GetByIdentifierTx(ctx, tx, email)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, repository.NewRecordNotFound().
				WithMetadata(map[string]any{
					"email": email,
				})
		}
		return nil, err
	}

	return record, nil
}

func (a *accounts) Create(ctx context.Context, record *Account) (*Account, error) {
	return a.CreateTx(ctx, a.db, record)
}

func (a *accounts) CreateTx(ctx context.Context, tx bun.IDB, record *Account) (*Account, error) {
	a.prepareDefaults(record)
	return a.repo.CreateTx(ctx, tx, record)
}

// Delete removes the row, an already missing row is not an error
func (a *accounts) Delete(ctx context.Context, record *Account) error {
	return a.DeleteTx(ctx, a.db, record)
}

func (a *accounts) DeleteTx(ctx context.Context, tx bun.IDB, record *Account) error {
	if record == nil || record.ID == uuid.Nil {
		return repository.NewRecordNotFound()
	}

	_, err := tx.NewDelete().
		Model((*Account)(nil)).
		Where("id = ?", record.ID).
		Exec(ctx)
	return err
}

func (a *accounts) ActivateByToken(ctx context.Context, token string) (*Account, error) {
	var out *Account
	err := a.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		var err error
		out, err = a.ActivateByTokenTx(ctx, tx, token)
		return err
	})
	return out, err
}

// ActivateByTokenTx flips a pending account holding token to active and
// clears the token. The update is conditional on the row still being
// inactive so concurrent activations of one token succeed at most once.
func (a *accounts) ActivateByTokenTx(ctx context.Context, tx bun.IDB, token string) (*Account, error) {
	if token == "" {
		return nil, repository.NewRecordNotFound()
	}

	pending := &Account{}
	err := tx.NewSelect().
		Model(pending).
		Where("?TableAlias.activation_token = ?", token).
		Where("?TableAlias.inactive = ?", true).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) || repository.IsRecordNotFound(err) {
			return nil, repository.NewRecordNotFound().
				WithMetadata(map[string]any{
					"reason": "no pending account for token",
				})
		}
		return nil, err
	}

	now := a.now()
	res, err := tx.NewUpdate().
		Model((*Account)(nil)).
		Set("inactive = ?", false).
		Set("activation_token = NULL").
		Set("activated_at = ?", now).
		Set("updated_at = ?", now).
		Where("id = ?", pending.ID).
		Where("inactive = ?", true).
		Where("activation_token = ?", token).
		Exec(ctx)
	if err != nil {
		return nil, err
	}

	if n, err := res.RowsAffected(); err != nil {
		return nil, err
	} else if n == 0 {
		return nil, repository.NewRecordNotFound().
			WithMetadata(map[string]any{
				"reason": "token consumed concurrently",
			})
	}

	pending.Inactive = false
	pending.ActivationToken = nil
	pending.ActivatedAt = &now
	pending.UpdatedAt = &now

	return pending, nil
}

func (a *accounts) prepareDefaults(record *Account) {
	if record == nil {
		return
	}
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	now := a.now()
	if record.CreatedAt == nil {
		record.CreatedAt = &now
	}
	if record.UpdatedAt == nil {
		record.UpdatedAt = &now
	}
}
