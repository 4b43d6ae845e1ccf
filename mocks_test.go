package accounts_test

import (
	"context"
	"sync"

	accounts "github.com/goliatone/go-accounts"
	"github.com/stretchr/testify/mock"
)

// MockAccountStore implements accounts.AccountStore
type MockAccountStore struct {
	mock.Mock
}

func (m *MockAccountStore) GetByEmail(ctx context.Context, email string) (*accounts.Account, error) {
	args := m.Called(ctx, email)
	account, _ := args.Get(0).(*accounts.Account)
	return account, args.Error(1)
}

func (m *MockAccountStore) Create(ctx context.Context, account *accounts.Account) (*accounts.Account, error) {
	args := m.Called(ctx, account)
	if fn, ok := args.Get(0).(func(context.Context, *accounts.Account) *accounts.Account); ok {
		return fn(ctx, account), args.Error(1)
	}
	created, _ := args.Get(0).(*accounts.Account)
	return created, args.Error(1)
}

func (m *MockAccountStore) Delete(ctx context.Context, account *accounts.Account) error {
	args := m.Called(ctx, account)
	return args.Error(0)
}

func (m *MockAccountStore) ActivateByToken(ctx context.Context, token string) (*accounts.Account, error) {
	args := m.Called(ctx, token)
	account, _ := args.Get(0).(*accounts.Account)
	return account, args.Error(1)
}

// MockMailer implements accounts.Mailer
type MockMailer struct {
	mock.Mock
}

func (m *MockMailer) SendActivationEmail(ctx context.Context, msg accounts.ActivationEmail) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}

// MockActivitySink implements accounts.ActivitySink
type MockActivitySink struct {
	mock.Mock
}

func (m *MockActivitySink) Record(ctx context.Context, event accounts.ActivityEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

// capturingMailer records every message and fails when err is set
type capturingMailer struct {
	mu   sync.Mutex
	sent []accounts.ActivationEmail
	err  error
}

func (c *capturingMailer) SendActivationEmail(_ context.Context, msg accounts.ActivationEmail) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sent = append(c.sent, msg)
	return c.err
}

func (c *capturingMailer) last() (accounts.ActivationEmail, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.sent) == 0 {
		return accounts.ActivationEmail{}, false
	}
	return c.sent[len(c.sent)-1], true
}

func (c *capturingMailer) fail(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.err = err
}

type capturingSink struct {
	mu     sync.Mutex
	events []accounts.ActivityEvent
}

func (c *capturingSink) Record(_ context.Context, evt accounts.ActivityEvent) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, evt)
	return nil
}

func (c *capturingSink) types() []accounts.ActivityEventType {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]accounts.ActivityEventType, 0, len(c.events))
	for _, evt := range c.events {
		out = append(out, evt.EventType)
	}
	return out
}
