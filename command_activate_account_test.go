package accounts_test

import (
	"context"
	"testing"

	accounts "github.com/goliatone/go-accounts"
	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockStateMachine struct {
	mock.Mock
}

func (m *mockStateMachine) Activate(ctx context.Context, actor accounts.ActorRef, token string, opts ...accounts.TransitionOption) (*accounts.Account, error) {
	args := m.Called(ctx, actor, token)
	account, _ := args.Get(0).(*accounts.Account)
	return account, args.Error(1)
}

func (m *mockStateMachine) CanTransition(from, to accounts.AccountStatus) bool {
	return m.Called(from, to).Bool(0)
}

func TestActivateAccountHandler_DefaultsActor(t *testing.T) {
	machine := &mockStateMachine{}
	account := &accounts.Account{ID: uuid.New()}
	machine.On("Activate", mock.Anything, accounts.ActorRef{Type: "token"}, "token-1").Return(account, nil).Once()

	handler := accounts.NewActivateAccountHandler(machine, nil)
	require.NoError(t, handler.Execute(context.Background(), accounts.ActivateAccountMessage{Token: "token-1"}))
	machine.AssertExpectations(t)
}

func TestActivateAccountHandler_PassesActor(t *testing.T) {
	machine := &mockStateMachine{}
	actor := accounts.ActorRef{ID: "admin-1", Type: "admin"}
	machine.On("Activate", mock.Anything, actor, "token-1").Return(&accounts.Account{ID: uuid.New()}, nil).Once()

	handler := accounts.NewActivateAccountHandler(machine, nil)
	_, err := handler.Activate(context.Background(), accounts.ActivateAccountMessage{Token: "token-1", Actor: actor})
	require.NoError(t, err)
	machine.AssertExpectations(t)
}

func TestActivateAccountHandler_InvalidToken(t *testing.T) {
	machine := &mockStateMachine{}
	machine.On("Activate", mock.Anything, mock.Anything, "bad").
		Return(nil, accounts.NewInvalidTokenFailure()).Once()

	handler := accounts.NewActivateAccountHandler(machine, nil)
	_, err := handler.Activate(context.Background(), accounts.ActivateAccountMessage{Token: "bad"})
	require.Error(t, err)
	assert.True(t, accounts.IsInvalidToken(err))
}

func TestActivateAccountHandler_CancelledContext(t *testing.T) {
	machine := &mockStateMachine{}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	handler := accounts.NewActivateAccountHandler(machine, nil)
	_, err := handler.Activate(ctx, accounts.ActivateAccountMessage{Token: "token-1"})
	require.Error(t, err)

	var richErr *goerrors.Error
	require.True(t, goerrors.As(err, &richErr))
	assert.Equal(t, goerrors.CategoryOperation, richErr.Category)
	machine.AssertNotCalled(t, "Activate", mock.Anything, mock.Anything, mock.Anything)
}
