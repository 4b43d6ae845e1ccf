package accounts

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// AccountStatus is derived from the inactive flag
type AccountStatus = string

const (
	// AccountStatusPending is an account waiting for activation
	AccountStatusPending AccountStatus = "pending"
	// AccountStatusActive is an activated account
	AccountStatusActive AccountStatus = "active"
)

// Account is the user account model
type Account struct {
	bun.BaseModel   `bun:"table:users,alias:usr"`
	ID              uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Username        string     `bun:"username,notnull" json:"username,omitempty"`
	Email           string     `bun:"email,notnull,unique" json:"email,omitempty"`
	PasswordHash    string     `bun:"password_hash,notnull" json:"-"`
	Inactive        bool       `bun:"inactive,notnull" json:"inactive"`
	ActivationToken *string    `bun:"activation_token,nullzero" json:"-"`
	ActivatedAt     *time.Time `bun:"activated_at,nullzero" json:"activated_at,omitempty"`
	CreatedAt       *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt       *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
}

// Status returns the lifecycle state of the account
func (a *Account) Status() AccountStatus {
	if a == nil || a.Inactive {
		return AccountStatusPending
	}
	return AccountStatusActive
}

// IsPending reports whether the account still waits for activation
func (a *Account) IsPending() bool {
	return a.Status() == AccountStatusPending
}

// IsActive reports whether the account was activated
func (a *Account) IsActive() bool {
	return a.Status() == AccountStatusActive
}

// Token returns the activation token or an empty string once consumed
func (a *Account) Token() string {
	if a == nil || a.ActivationToken == nil {
		return ""
	}
	return *a.ActivationToken
}

// NewPendingAccount builds the record persisted on registration.
// Inactive is always true and the token is always set.
func NewPendingAccount(username, email, passwordHash, token string) *Account {
	t := token
	return &Account{
		Username:        username,
		Email:           email,
		PasswordHash:    passwordHash,
		Inactive:        true,
		ActivationToken: &t,
	}
}
