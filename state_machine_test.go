package accounts_test

import (
	"context"
	"errors"
	"testing"
	"time"

	accounts "github.com/goliatone/go-accounts"
	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestAccountStateMachineActivates(t *testing.T) {
	repo := &MockAccountStore{}
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	activated := &accounts.Account{
		ID:          uuid.New(),
		Email:       "user1@gmail.com",
		Inactive:    false,
		ActivatedAt: &now,
	}

	repo.On("ActivateByToken", mock.Anything, "token-1").Return(activated, nil).Once()

	sm := accounts.NewAccountStateMachine(repo, accounts.WithStateMachineClock(func() time.Time { return now }))

	result, err := sm.Activate(context.Background(), accounts.ActorRef{}, "token-1")
	require.NoError(t, err)
	assert.True(t, result.IsActive())
	assert.Empty(t, result.Token())
	repo.AssertExpectations(t)
}

func TestAccountStateMachineRejectsEmptyToken(t *testing.T) {
	repo := &MockAccountStore{}
	sm := accounts.NewAccountStateMachine(repo)

	_, err := sm.Activate(context.Background(), accounts.ActorRef{}, "")
	require.Error(t, err)
	assert.True(t, accounts.IsInvalidToken(err))
	repo.AssertNotCalled(t, "ActivateByToken", mock.Anything, mock.Anything)
}

func TestAccountStateMachineUnknownToken(t *testing.T) {
	repo := &MockAccountStore{}
	repo.On("ActivateByToken", mock.Anything, "nope").
		Return(nil, repository.NewRecordNotFound()).Once()

	sm := accounts.NewAccountStateMachine(repo)

	_, err := sm.Activate(context.Background(), accounts.ActorRef{}, "nope")
	require.Error(t, err)
	assert.True(t, accounts.IsInvalidToken(err))
	repo.AssertExpectations(t)
}

func TestAccountStateMachineStoreError(t *testing.T) {
	repo := &MockAccountStore{}
	repo.On("ActivateByToken", mock.Anything, "token-1").
		Return(nil, errors.New("connection refused")).Once()

	sm := accounts.NewAccountStateMachine(repo)

	_, err := sm.Activate(context.Background(), accounts.ActorRef{}, "token-1")
	require.Error(t, err)
	assert.False(t, accounts.IsInvalidToken(err))
	assert.True(t, accounts.IsStoreFailure(err))
}

func TestAccountStateMachineTransitionTable(t *testing.T) {
	sm := accounts.NewAccountStateMachine(&MockAccountStore{})

	assert.True(t, sm.CanTransition(accounts.AccountStatusPending, accounts.AccountStatusActive))
	assert.False(t, sm.CanTransition(accounts.AccountStatusActive, accounts.AccountStatusPending))
	assert.False(t, sm.CanTransition(accounts.AccountStatusActive, accounts.AccountStatusActive))
}

func TestAccountStateMachineRunsHooksWithMetadata(t *testing.T) {
	repo := &MockAccountStore{}
	activated := &accounts.Account{ID: uuid.New()}
	repo.On("ActivateByToken", mock.Anything, "token-1").Return(activated, nil).Once()

	var beforeAccount, afterAccount *accounts.Account
	var beforeCalled bool
	var reasonSeen string
	var metadataSeen map[string]any

	before := func(ctx context.Context, tc accounts.TransitionContext) error {
		beforeCalled = true
		beforeAccount = tc.Account
		return nil
	}
	after := func(ctx context.Context, tc accounts.TransitionContext) error {
		afterAccount = tc.Account
		reasonSeen = tc.Meta.Reason
		metadataSeen = tc.Meta.Metadata
		return nil
	}

	sm := accounts.NewAccountStateMachine(repo)

	_, err := sm.Activate(
		context.Background(),
		accounts.ActorRef{ID: "admin"},
		"token-1",
		accounts.WithTransitionReason("email link"),
		accounts.WithTransitionMetadata(map[string]any{"ip": "127.0.0.1"}),
		accounts.WithBeforeTransitionHook(before),
		accounts.WithAfterTransitionHook(after),
	)
	require.NoError(t, err)
	assert.True(t, beforeCalled)
	assert.Nil(t, beforeAccount)
	assert.Equal(t, activated, afterAccount)
	assert.Equal(t, "email link", reasonSeen)
	assert.Equal(t, "127.0.0.1", metadataSeen["ip"])
}

func TestAccountStateMachineBeforeHookErrorStopsActivation(t *testing.T) {
	repo := &MockAccountStore{}
	var phaseSeen accounts.TransitionHookPhase

	sm := accounts.NewAccountStateMachine(repo,
		accounts.WithStateMachineHookErrorHandler(func(ctx context.Context, phase accounts.TransitionHookPhase, err error, tc accounts.TransitionContext) error {
			phaseSeen = phase
			return err
		}),
	)

	hookErr := errors.New("blocked")
	_, err := sm.Activate(context.Background(), accounts.ActorRef{}, "token-1",
		accounts.WithBeforeTransitionHook(func(context.Context, accounts.TransitionContext) error { return hookErr }),
	)
	require.ErrorIs(t, err, hookErr)
	assert.Equal(t, accounts.HookPhaseBefore, phaseSeen)
	repo.AssertNotCalled(t, "ActivateByToken", mock.Anything, mock.Anything)
}

func TestAccountStateMachineEmitsActivityEvent(t *testing.T) {
	repo := &MockAccountStore{}
	sink := &MockActivitySink{}
	now := time.Date(2024, 6, 2, 9, 0, 0, 0, time.UTC)
	account := &accounts.Account{ID: uuid.New()}

	repo.On("ActivateByToken", mock.Anything, "token-1").Return(account, nil).Once()

	sink.On("Record", mock.Anything, mock.MatchedBy(func(evt accounts.ActivityEvent) bool {
		return evt.EventType == accounts.ActivityEventAccountActivated &&
			evt.AccountID == account.ID.String() &&
			evt.FromStatus == accounts.AccountStatusPending &&
			evt.ToStatus == accounts.AccountStatusActive &&
			evt.OccurredAt.Equal(now) &&
			evt.Actor.Type == "system"
	})).Return(nil).Once()

	sm := accounts.NewAccountStateMachine(
		repo,
		accounts.WithStateMachineClock(func() time.Time { return now }),
		accounts.WithStateMachineActivitySink(sink),
	)

	_, err := sm.Activate(context.Background(), accounts.ActorRef{}, "token-1")
	require.NoError(t, err)

	repo.AssertExpectations(t)
	sink.AssertExpectations(t)
}

func TestAccountStateMachineSinkErrorDoesNotFailActivation(t *testing.T) {
	repo := &MockAccountStore{}
	account := &accounts.Account{ID: uuid.New()}
	repo.On("ActivateByToken", mock.Anything, "token-1").Return(account, nil).Once()

	sink := accounts.ActivitySinkFunc(func(context.Context, accounts.ActivityEvent) error {
		return errors.New("sink offline")
	})

	sm := accounts.NewAccountStateMachine(repo, accounts.WithStateMachineActivitySink(sink))

	result, err := sm.Activate(context.Background(), accounts.ActorRef{}, "token-1")
	require.NoError(t, err)
	assert.Equal(t, account, result)
}

func TestAccountStateMachineIntegration(t *testing.T) {
	db := newTestDB(t)
	store := accounts.NewAccountsRepository(db)
	ctx := context.Background()

	hash, err := fastHasher.HashPassword("P4ssword")
	require.NoError(t, err)
	_, err = store.Create(ctx, accounts.NewPendingAccount("user1", "user1@gmail.com", hash, "token-1"))
	require.NoError(t, err)

	handler := accounts.NewActivateAccountHandler(accounts.NewAccountStateMachine(store), nil)

	activated, err := handler.Activate(ctx, accounts.ActivateAccountMessage{Token: "token-1"})
	require.NoError(t, err)
	assert.True(t, activated.IsActive())

	stored := loadAccount(t, db, "user1@gmail.com")
	assert.False(t, stored.Inactive)
	assert.Nil(t, stored.ActivationToken)
	assert.NotNil(t, stored.ActivatedAt)

	_, err = handler.Activate(ctx, accounts.ActivateAccountMessage{Token: "token-1"})
	require.Error(t, err)
	assert.True(t, accounts.IsInvalidToken(err))

	_, err = handler.Activate(ctx, accounts.ActivateAccountMessage{Token: "unknown"})
	require.Error(t, err)
	assert.True(t, accounts.IsInvalidToken(err))
}
