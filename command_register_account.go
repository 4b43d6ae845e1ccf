package accounts

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
	"github.com/sethvargo/go-retry"
)

const (
	stepCreateAccount   = "create_account"
	stepActivationEmail = "send_activation_email"
)

// RegisterAccountMessage is the registration request.
// Inactive is accepted for compatibility and always ignored.
type RegisterAccountMessage struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Inactive *bool  `json:"inactive,omitempty"`
	Locale   string `json:"-"`
}

func (e RegisterAccountMessage) Type() string { return "account.register" }

// Candidate returns the fields subject to validation
func (e RegisterAccountMessage) Candidate() Candidate {
	return Candidate{
		Username: e.Username,
		Email:    e.Email,
		Password: e.Password,
	}
}

// Confirmation is returned after a successful registration
type Confirmation struct {
	AccountID uuid.UUID `json:"account_id"`
	Email     string    `json:"email"`
}

// RegisterAccountHandler creates a pending account and sends its
// activation email. If the email cannot be sent the account is deleted
// before the failure is returned.
type RegisterAccountHandler struct {
	store       AccountStore
	mailer      Mailer
	validator   CandidateValidator
	hasher      PasswordHasher
	tokens      TokenGenerator
	logger      Logger
	sink        ActivitySink
	now         func() time.Time
	timeout     time.Duration
	retries     uint64
	backoffBase time.Duration
	undoTimeout time.Duration
	activateURL string
}

// RegisterAccountOption customizes the handler
type RegisterAccountOption func(*RegisterAccountHandler)

// WithRegisterValidator overrides the candidate validator
func WithRegisterValidator(v CandidateValidator) RegisterAccountOption {
	return func(h *RegisterAccountHandler) {
		if v != nil {
			h.validator = v
		}
	}
}

// WithRegisterHasher overrides the password hasher
func WithRegisterHasher(hasher PasswordHasher) RegisterAccountOption {
	return func(h *RegisterAccountHandler) {
		if hasher != nil {
			h.hasher = hasher
		}
	}
}

// WithRegisterTokenGenerator overrides the activation token source
func WithRegisterTokenGenerator(gen TokenGenerator) RegisterAccountOption {
	return func(h *RegisterAccountHandler) {
		if gen != nil {
			h.tokens = gen
		}
	}
}

// WithRegisterLogger sets the logger
func WithRegisterLogger(logger Logger) RegisterAccountOption {
	return func(h *RegisterAccountHandler) {
		if logger != nil {
			h.logger = logger
		}
	}
}

// WithRegisterActivitySink sets the sink receiving registration events
func WithRegisterActivitySink(sink ActivitySink) RegisterAccountOption {
	return func(h *RegisterAccountHandler) {
		h.sink = normalizeActivitySink(sink)
	}
}

// WithRegisterClock injects a custom clock
func WithRegisterClock(clock func() time.Time) RegisterAccountOption {
	return func(h *RegisterAccountHandler) {
		if clock != nil {
			h.now = clock
		}
	}
}

// WithRegisterTimeout bounds the persistence and email stages
func WithRegisterTimeout(timeout time.Duration) RegisterAccountOption {
	return func(h *RegisterAccountHandler) {
		if timeout > 0 {
			h.timeout = timeout
		}
	}
}

// WithCompensationRetry sets how many times a failed rollback delete is
// retried and the base of its exponential backoff.
func WithCompensationRetry(retries uint64, base time.Duration) RegisterAccountOption {
	return func(h *RegisterAccountHandler) {
		h.retries = retries
		if base > 0 {
			h.backoffBase = base
		}
	}
}

// WithCompensationTimeout bounds the rollback delete. The delete runs on its
// own deadline so it still completes after the email step used up the
// registration timeout.
func WithCompensationTimeout(timeout time.Duration) RegisterAccountOption {
	return func(h *RegisterAccountHandler) {
		if timeout > 0 {
			h.undoTimeout = timeout
		}
	}
}

// WithActivationURL sets the base URL the token is appended to in the email
func WithActivationURL(base string) RegisterAccountOption {
	return func(h *RegisterAccountHandler) {
		h.activateURL = strings.TrimRight(base, "/")
	}
}

// NewRegisterAccountHandler returns a handler using store and mailer
func NewRegisterAccountHandler(store AccountStore, mailer Mailer, opts ...RegisterAccountOption) *RegisterAccountHandler {
	h := &RegisterAccountHandler{
		store:       store,
		mailer:      mailer,
		hasher:      PasswordHasherFunc(HashPassword),
		tokens:      UUIDTokenGenerator{},
		logger:      defLogger{},
		sink:        noopActivitySink{},
		now:         time.Now,
		timeout:     10 * time.Second,
		retries:     3,
		backoffBase: 100 * time.Millisecond,
		undoTimeout: 5 * time.Second,
	}

	for _, opt := range opts {
		if opt != nil {
			opt(h)
		}
	}

	if h.validator == nil {
		h.validator = NewValidator(store)
	}

	return h
}

func (h *RegisterAccountHandler) Execute(ctx context.Context, event RegisterAccountMessage) error {
	_, err := h.Register(ctx, event)
	return err
}

// Register runs the registration and returns the confirmation
func (h *RegisterAccountHandler) Register(ctx context.Context, event RegisterAccountMessage) (*Confirmation, error) {
	select {
	case <-ctx.Done():
		return nil, goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during account registration",
		)
	default:
		return h.register(ctx, event)
	}
}

func (h *RegisterAccountHandler) register(ctx context.Context, event RegisterAccountMessage) (*Confirmation, error) {
	fields, err := h.validator.Validate(ctx, event.Candidate())
	if err != nil {
		return nil, asRichError(err, "failed to validate registration")
	}

	if fields.Len() > 0 {
		return nil, NewValidationFailure(fields)
	}

	hash, err := h.hasher.HashPassword(event.Password)
	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return nil, goerrors.Wrap(richErr, goerrors.CategoryValidation, "invalid password provided")
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to hash password")
	}

	token, err := h.tokens.Generate()
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to generate activation token")
	}

	// once the account is written the flow must reach a defined outcome
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), h.timeout)
	defer cancel()

	account := NewPendingAccount(event.Username, event.Email, hash, token)

	saga := NewSaga(
		Step{
			Name: stepCreateAccount,
			Run: func(ctx context.Context) error {
				created, err := h.store.Create(ctx, account)
				if err != nil {
					return h.mapCreateError(err)
				}
				if created != nil {
					account = created
				}
				return nil
			},
			Compensate: func(ctx context.Context) error {
				return h.deleteAccount(ctx, account)
			},
		},
		Step{
			Name: stepActivationEmail,
			Run: func(ctx context.Context) error {
				if err := h.mailer.SendActivationEmail(ctx, h.activationEmail(account, event.Locale)); err != nil {
					return NewEmailFailure(err)
				}
				return nil
			},
		},
	)

	if err := saga.Execute(ctx); err != nil {
		return nil, h.handleStepError(ctx, err, account)
	}

	h.logger.Info("account registered", "account_id", account.ID.String(), "email", account.Email)

	recordActivity(ctx, h.sink, h.logger, h.now, ActivityEvent{
		EventType: ActivityEventAccountRegistered,
		AccountID: account.ID.String(),
		ToStatus:  AccountStatusPending,
		Metadata: map[string]any{
			"email": account.Email,
		},
	})

	return &Confirmation{
		AccountID: account.ID,
		Email:     account.Email,
	}, nil
}

func (h *RegisterAccountHandler) handleStepError(ctx context.Context, err error, account *Account) error {
	var stepErr *StepError
	if !errors.As(err, &stepErr) {
		return asRichError(err, "account registration failed")
	}

	if stepErr.Step == stepCreateAccount {
		return stepErr.Err
	}

	if !stepErr.Compensated() {
		h.logger.Error("failed to remove account after activation email failure",
			"account_id", account.ID.String(),
			"email", account.Email,
			"email_error", stepErr.Err,
			"error", stepErr.CompensateErr,
		)

		recordActivity(ctx, h.sink, h.logger, h.now, ActivityEvent{
			EventType:  ActivityEventCompensationFailed,
			AccountID:  account.ID.String(),
			FromStatus: AccountStatusPending,
			Metadata: map[string]any{
				"email": account.Email,
				"error": stepErr.CompensateErr.Error(),
			},
		})

		return NewCompensationFailure(stepErr.CompensateErr, account)
	}

	h.logger.Warn("activation email failed, account removed",
		"email", account.Email,
		"error", stepErr.Err,
	)

	recordActivity(ctx, h.sink, h.logger, h.now, ActivityEvent{
		EventType:  ActivityEventRegistrationRolledBack,
		AccountID:  account.ID.String(),
		FromStatus: AccountStatusPending,
		Metadata: map[string]any{
			"email": account.Email,
		},
	})

	return stepErr.Err
}

func (h *RegisterAccountHandler) mapCreateError(err error) error {
	if IsUniqueViolation(err) {
		return NewValidationFailure(FieldErrors{
			{Field: FieldEmail, Key: KeyEmailInUse},
		})
	}
	return NewStoreFailure(err, "could not create account")
}

func (h *RegisterAccountHandler) deleteAccount(ctx context.Context, account *Account) error {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), h.undoTimeout)
	defer cancel()

	backoff := retry.WithMaxRetries(h.retries, retry.NewExponential(h.backoffBase))

	attempt := 0
	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		if err := h.store.Delete(ctx, account); err != nil {
			if isContextError(err) {
				return err
			}
			h.logger.Warn("compensating delete failed", "account_id", account.ID.String(), "attempt", attempt, "error", err)
			return retry.RetryableError(err)
		}
		return nil
	})
}

func (h *RegisterAccountHandler) activationEmail(account *Account, locale string) ActivationEmail {
	msg := ActivationEmail{
		To:       account.Email,
		Username: account.Username,
		Token:    account.Token(),
		Locale:   locale,
	}

	if h.activateURL != "" {
		msg.ActivationURL = h.activateURL + "/" + url.PathEscape(msg.Token)
	}

	return msg
}

func asRichError(err error, msg string) error {
	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) {
		return richErr
	}
	return goerrors.Wrap(err, goerrors.CategoryInternal, msg)
}
