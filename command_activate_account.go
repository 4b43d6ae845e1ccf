package accounts

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
)

// ActivateAccountMessage carries the token from the activation email
type ActivateAccountMessage struct {
	Token string `json:"token"`
	Actor ActorRef
}

func (e ActivateAccountMessage) Type() string { return "account.activate" }

// ActivateAccountHandler consumes activation tokens
type ActivateAccountHandler struct {
	machine AccountStateMachine
	logger  Logger
	timeout time.Duration
}

// NewActivateAccountHandler returns a handler driving machine
func NewActivateAccountHandler(machine AccountStateMachine, logger Logger) *ActivateAccountHandler {
	return &ActivateAccountHandler{
		machine: machine,
		logger:  normalizeLogger(logger),
		timeout: 10 * time.Second,
	}
}

func (h *ActivateAccountHandler) Execute(ctx context.Context, event ActivateAccountMessage) error {
	_, err := h.Activate(ctx, event)
	return err
}

// Activate returns the activated account
func (h *ActivateAccountHandler) Activate(ctx context.Context, event ActivateAccountMessage) (*Account, error) {
	select {
	case <-ctx.Done():
		return nil, goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during account activation",
		)
	default:
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), h.timeout)
	defer cancel()

	actor := event.Actor
	if actor == (ActorRef{}) {
		actor = ActorRef{Type: "token"}
	}

	account, err := h.machine.Activate(ctx, actor, event.Token)
	if err != nil {
		if !IsInvalidToken(err) {
			h.logger.Error("account activation failed", "error", err)
		}
		return nil, err
	}

	h.logger.Info("account activated", "account_id", account.ID.String())
	return account, nil
}
