package accounts

import (
	"context"

	"github.com/goliatone/go-print"
	"github.com/goliatone/go-router"
)

// Registrar runs the registration use case
type Registrar interface {
	Register(ctx context.Context, event RegisterAccountMessage) (*Confirmation, error)
}

// Activator runs the activation use case
type Activator interface {
	Activate(ctx context.Context, event ActivateAccountMessage) (*Account, error)
}

// LocaleResolver picks the response locale from an Accept-Language header
type LocaleResolver interface {
	Resolve(acceptLanguage string) string
}

// RegisterAccountRoutes mounts the account routes on app
func RegisterAccountRoutes[T any](app router.Router[T], opts ...AccountsControllerOption) *AccountsController {
	controller := NewAccountsController(opts...)

	app.Post(controller.Routes.Users, controller.RegistrationCreate).
		SetName("users.create")

	app.Post(controller.Routes.ActivationToken, controller.ActivationCreate).
		SetName("users.activate")

	return controller
}

type AccountsControllerRoutes struct {
	Users           string
	ActivationToken string
}

type AccountsController struct {
	Debug     bool
	Logger    Logger
	Routes    *AccountsControllerRoutes
	Registrar Registrar
	Activator Activator
	Formatter *EnvelopeFormatter
	Locales   LocaleResolver
}

type AccountsControllerOption func(*AccountsController) *AccountsController

// WithControllerRegistrar sets the registration handler
func WithControllerRegistrar(r Registrar) AccountsControllerOption {
	return func(c *AccountsController) *AccountsController {
		c.Registrar = r
		return c
	}
}

// WithControllerActivator sets the activation handler
func WithControllerActivator(a Activator) AccountsControllerOption {
	return func(c *AccountsController) *AccountsController {
		c.Activator = a
		return c
	}
}

// WithControllerFormatter sets the envelope formatter
func WithControllerFormatter(f *EnvelopeFormatter) AccountsControllerOption {
	return func(c *AccountsController) *AccountsController {
		if f != nil {
			c.Formatter = f
		}
		return c
	}
}

// WithControllerLocales sets the locale resolver
func WithControllerLocales(l LocaleResolver) AccountsControllerOption {
	return func(c *AccountsController) *AccountsController {
		c.Locales = l
		return c
	}
}

// WithControllerLogger sets the logger
func WithControllerLogger(l Logger) AccountsControllerOption {
	return func(c *AccountsController) *AccountsController {
		if l != nil {
			c.Logger = l
		}
		return c
	}
}

// WithControllerDebug dumps decoded payloads, passwords redacted
func WithControllerDebug(debug bool) AccountsControllerOption {
	return func(c *AccountsController) *AccountsController {
		c.Debug = debug
		return c
	}
}

func NewAccountsController(opts ...AccountsControllerOption) *AccountsController {
	c := &AccountsController{
		Logger: defLogger{},
		Routes: &AccountsControllerRoutes{
			Users:           "/users",
			ActivationToken: "/users/token/:token",
		},
	}

	for _, opt := range opts {
		c = opt(c)
	}

	if c.Registrar == nil {
		panic("Missing Registrar in accounts controller...")
	}

	if c.Activator == nil {
		panic("Missing Activator in accounts controller...")
	}

	if c.Formatter == nil {
		c.Formatter = NewEnvelopeFormatter(nil)
	}

	return c
}

// RegistrationPayload is the registration request body
type RegistrationPayload struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Inactive *bool  `json:"inactive,omitempty"`
}

func (r RegistrationPayload) redacted() map[string]any {
	out := map[string]any{
		"username": r.Username,
		"email":    r.Email,
		"password": "********",
	}
	if r.Inactive != nil {
		out["inactive"] = *r.Inactive
	}
	return out
}

func (a *AccountsController) RegistrationCreate(ctx router.Context) error {
	locale := a.locale(ctx)
	payload := new(RegistrationPayload)

	if err := ctx.Bind(payload); err != nil {
		a.Logger.Debug("register account parse payload", "error", err)
		return a.sendError(ctx, NewInvalidRequestBody(err), locale)
	}

	if a.Debug {
		a.Logger.Debug("register account payload", "payload", print.MaybePrettyJSON(payload.redacted()))
	}

	_, err := a.Registrar.Register(ctx.Context(), RegisterAccountMessage{
		Username: payload.Username,
		Email:    payload.Email,
		Password: payload.Password,
		Inactive: payload.Inactive,
		Locale:   locale,
	})
	if err != nil {
		return a.sendError(ctx, err, locale)
	}

	return ctx.JSON(router.StatusOK, a.Formatter.Message(MessageUserCreated, locale))
}

func (a *AccountsController) ActivationCreate(ctx router.Context) error {
	locale := a.locale(ctx)

	_, err := a.Activator.Activate(ctx.Context(), ActivateAccountMessage{
		Token: ctx.Param("token"),
	})
	if err != nil {
		return a.sendError(ctx, err, locale)
	}

	return ctx.JSON(router.StatusOK, a.Formatter.Message(MessageAccountActivated, locale))
}

func (a *AccountsController) sendError(ctx router.Context, err error, locale string) error {
	status, env := a.Formatter.Format(err, ctx.Path(), locale)

	if status >= router.StatusInternalServerError {
		a.Logger.Error("request failed", "path", ctx.Path(), "status", status, "error", err)
	} else {
		a.Logger.Debug("request rejected", "path", ctx.Path(), "status", status, "error", err)
	}

	return ctx.JSON(status, env)
}

func (a *AccountsController) locale(ctx router.Context) string {
	if a.Locales == nil {
		return ""
	}
	return a.Locales.Resolve(ctx.Header("Accept-Language"))
}
