package accounts

import (
	"context"
	"fmt"
	"io/fs"
	"path"
	"strings"
	"time"

	"github.com/flosch/pongo2/v6"
	goerrors "github.com/goliatone/go-errors"
	"github.com/wneessen/go-mail"
)

// ActivationEmail is the message handed to a Mailer
type ActivationEmail struct {
	To            string
	Username      string
	Token         string
	Locale        string
	ActivationURL string
}

var activationSubjects = map[string]string{
	"en": "Account Activation",
	"tr": "Hesap Aktivasyonu",
}

// ActivationRenderer renders the activation email per locale
type ActivationRenderer struct {
	templates     map[string]*pongo2.Template
	defaultLocale string
}

// NewActivationRenderer compiles every activation.<locale>.txt found in fsys
func NewActivationRenderer(fsys fs.FS, defaultLocale string) (*ActivationRenderer, error) {
	if fsys == nil {
		fsys = GetEmailTemplatesFS()
	}

	if defaultLocale == "" {
		defaultLocale = "en"
	}

	matches, err := fs.Glob(fsys, "data/templates/email/activation.*.txt")
	if err != nil {
		return nil, err
	}

	r := &ActivationRenderer{
		templates:     make(map[string]*pongo2.Template, len(matches)),
		defaultLocale: defaultLocale,
	}

	for _, name := range matches {
		raw, err := fs.ReadFile(fsys, name)
		if err != nil {
			return nil, err
		}

		tpl, err := pongo2.FromString(string(raw))
		if err != nil {
			return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to compile email template").
				WithMetadata(map[string]any{"template": name})
		}

		locale := strings.TrimSuffix(strings.TrimPrefix(path.Base(name), "activation."), ".txt")
		r.templates[locale] = tpl
	}

	if _, ok := r.templates[defaultLocale]; !ok {
		return nil, goerrors.New(fmt.Sprintf("missing activation template for default locale %q", defaultLocale), goerrors.CategoryInternal)
	}

	return r, nil
}

// Render returns the subject and plain text body for msg
func (r *ActivationRenderer) Render(msg ActivationEmail) (string, string, error) {
	locale := msg.Locale
	tpl, ok := r.templates[locale]
	if !ok {
		locale = r.defaultLocale
		tpl = r.templates[locale]
	}

	body, err := tpl.Execute(pongo2.Context{
		"username":       msg.Username,
		"token":          msg.Token,
		"activation_url": msg.ActivationURL,
	})
	if err != nil {
		return "", "", err
	}

	subject, ok := activationSubjects[locale]
	if !ok {
		subject = activationSubjects["en"]
	}

	return subject, body, nil
}

// SMTPConfig holds the SMTP transport settings
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	// TLS is one of mandatory, opportunistic or none
	TLS     string
	Timeout time.Duration
}

// SMTPMailer sends activation emails over SMTP
type SMTPMailer struct {
	config   SMTPConfig
	renderer *ActivationRenderer
	logger   Logger
}

var _ Mailer = (*SMTPMailer)(nil)

// NewSMTPMailer returns a Mailer delivering through cfg
func NewSMTPMailer(cfg SMTPConfig, renderer *ActivationRenderer, logger Logger) (*SMTPMailer, error) {
	if cfg.Host == "" {
		return nil, goerrors.New("smtp host is required", goerrors.CategoryBadInput)
	}

	if cfg.From == "" {
		return nil, goerrors.New("smtp from address is required", goerrors.CategoryBadInput)
	}

	if renderer == nil {
		var err error
		if renderer, err = NewActivationRenderer(nil, ""); err != nil {
			return nil, err
		}
	}

	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Second
	}

	return &SMTPMailer{
		config:   cfg,
		renderer: renderer,
		logger:   normalizeLogger(logger),
	}, nil
}

func (s *SMTPMailer) SendActivationEmail(ctx context.Context, msg ActivationEmail) error {
	subject, body, err := s.renderer.Render(msg)
	if err != nil {
		return err
	}

	m := mail.NewMsg()
	if err := m.From(s.config.From); err != nil {
		return err
	}
	if err := m.To(msg.To); err != nil {
		return err
	}
	m.Subject(subject)
	m.SetBodyString(mail.TypeTextPlain, body)

	client, err := mail.NewClient(s.config.Host, s.clientOptions()...)
	if err != nil {
		return err
	}

	if err := client.DialAndSendWithContext(ctx, m); err != nil {
		s.logger.Warn("activation email rejected", "to", msg.To, "error", err)
		return err
	}

	s.logger.Debug("activation email sent", "to", msg.To)
	return nil
}

func (s *SMTPMailer) clientOptions() []mail.Option {
	opts := []mail.Option{
		mail.WithTimeout(s.config.Timeout),
	}

	if s.config.Port > 0 {
		opts = append(opts, mail.WithPort(s.config.Port))
	}

	switch strings.ToLower(s.config.TLS) {
	case "none":
		opts = append(opts, mail.WithTLSPolicy(mail.NoTLS))
	case "opportunistic":
		opts = append(opts, mail.WithTLSPolicy(mail.TLSOpportunistic))
	default:
		opts = append(opts, mail.WithTLSPolicy(mail.TLSMandatory))
	}

	if s.config.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(s.config.Username),
			mail.WithPassword(s.config.Password),
		)
	}

	return opts
}

// LogMailer writes the rendered activation email to the logger instead of
// sending it. Meant for local development.
type LogMailer struct {
	renderer *ActivationRenderer
	logger   Logger
}

// NewLogMailer returns a Mailer that only logs
func NewLogMailer(renderer *ActivationRenderer, logger Logger) (*LogMailer, error) {
	if renderer == nil {
		var err error
		if renderer, err = NewActivationRenderer(nil, ""); err != nil {
			return nil, err
		}
	}
	return &LogMailer{renderer: renderer, logger: normalizeLogger(logger)}, nil
}

func (l *LogMailer) SendActivationEmail(ctx context.Context, msg ActivationEmail) error {
	subject, body, err := l.renderer.Render(msg)
	if err != nil {
		return err
	}
	l.logger.Info("activation email", "to", msg.To, "subject", subject, "body", body)
	return nil
}
