package accounts

import (
	"context"
	"fmt"
	"strings"
)

// Logger is the logging contract used across the package.
// glog.Logger and the zap adapter both satisfy it.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// AccountStore is the persistence contract used by the registration
// and activation flows.
type AccountStore interface {
	EmailLookup
	Create(ctx context.Context, account *Account) (*Account, error)
	Delete(ctx context.Context, account *Account) error
	ActivateByToken(ctx context.Context, token string) (*Account, error)
}

// EmailLookup finds accounts by email, returning a not found error when
// there is no match.
type EmailLookup interface {
	GetByEmail(ctx context.Context, email string) (*Account, error)
}

// EmailLookupFunc adapts a function to the EmailLookup interface
type EmailLookupFunc func(ctx context.Context, email string) (*Account, error)

// GetByEmail implements EmailLookup
func (f EmailLookupFunc) GetByEmail(ctx context.Context, email string) (*Account, error) {
	return f(ctx, email)
}

// Mailer delivers the activation message
type Mailer interface {
	SendActivationEmail(ctx context.Context, msg ActivationEmail) error
}

// MailerFunc adapts a function to the Mailer interface
type MailerFunc func(ctx context.Context, msg ActivationEmail) error

// SendActivationEmail implements Mailer
func (f MailerFunc) SendActivationEmail(ctx context.Context, msg ActivationEmail) error {
	return f(ctx, msg)
}

// PasswordHasher hashes plaintext passwords
type PasswordHasher interface {
	HashPassword(password string) (string, error)
}

// PasswordHasherFunc adapts a function to the PasswordHasher interface
type PasswordHasherFunc func(password string) (string, error)

// HashPassword implements PasswordHasher
func (f PasswordHasherFunc) HashPassword(password string) (string, error) {
	return f(password)
}

// Translator resolves message keys for a locale
type Translator interface {
	Translate(key, locale string) string
}

type defLogger struct{}

func (d defLogger) Error(msg string, args ...any) {
	fmt.Print(formatLine("ERR", msg, args...))
}

func (d defLogger) Warn(msg string, args ...any) {
	fmt.Print(formatLine("WRN", msg, args...))
}

func (d defLogger) Info(msg string, args ...any) {
	fmt.Print(formatLine("INF", msg, args...))
}

func (d defLogger) Debug(msg string, args ...any) {
	fmt.Print(formatLine("DBG", msg, args...))
}

func formatLine(level, msg string, args ...any) string {
	var b strings.Builder
	b.WriteString("[" + level + "] ACCOUNTS " + msg)
	for i := 0; i < len(args); i += 2 {
		if i+1 < len(args) {
			fmt.Fprintf(&b, " %v=%v", args[i], args[i+1])
			continue
		}
		fmt.Fprintf(&b, " %v", args[i])
	}
	b.WriteString("\n")
	return b.String()
}
