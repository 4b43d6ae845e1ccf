package accounts

import (
	"context"
	"errors"
	"regexp"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
)

const (
	FieldUsername = "username"
	FieldEmail    = "email"
	FieldPassword = "password"
)

// Error keys returned by the validator, resolved to text by the Translator
const (
	KeyUsernameNull    = "USERNAME_NULL"
	KeyUsernameSize    = "USERNAME_SIZE"
	KeyEmailNull       = "EMAIL_NULL"
	KeyEmailInvalid    = "EMAIL_INVALID"
	KeyEmailInUse      = "EMAIL_INUSE"
	KeyPasswordNull    = "PASSWORD_NULL"
	KeyPasswordSize    = "PASSWORD_SIZE"
	KeyPasswordPattern = "PASSWORD_PATTERN"
)

// Lengths count characters, not bytes
const (
	UsernameMinLength = 4
	UsernameMaxLength = 32
	PasswordMinLength = 6
)

var (
	lowercaseRe = regexp.MustCompile(`[a-z]`)
	uppercaseRe = regexp.MustCompile(`[A-Z]`)
	digitRe     = regexp.MustCompile(`[0-9]`)
)

// Candidate holds the registration fields subject to validation
type Candidate struct {
	Username string
	Email    string
	Password string
}

// FieldError is a single field violation
type FieldError struct {
	Field string `json:"field"`
	Key   string `json:"key"`
}

// FieldErrors keeps violations in field declaration order
type FieldErrors []FieldError

// Len returns the number of fields with errors
func (f FieldErrors) Len() int { return len(f) }

// Has reports whether field has an error
func (f FieldErrors) Has(field string) bool {
	_, ok := f.Get(field)
	return ok
}

// Get returns the error key for field
func (f FieldErrors) Get(field string) (string, bool) {
	for _, fe := range f {
		if fe.Field == field {
			return fe.Key, true
		}
	}
	return "", false
}

// Fields returns the field names in order
func (f FieldErrors) Fields() []string {
	out := make([]string, 0, len(f))
	for _, fe := range f {
		out = append(out, fe.Field)
	}
	return out
}

// ContextRule is a validation rule that needs I/O.
// It returns a RuleError for violations and any other error for
// infrastructure failures.
type ContextRule interface {
	ValidateContext(ctx context.Context, value string) error
}

// RuleError marks a rule violation carrying its error key
type RuleError string

func (e RuleError) Error() string { return string(e) }

// CandidateValidator validates registration candidates
type CandidateValidator interface {
	Validate(ctx context.Context, c Candidate) (FieldErrors, error)
}

type fieldRules struct {
	name  string
	value func(Candidate) string
	rules []validation.Rule
	async []ContextRule
}

// Validator runs the per field rules. Every field is evaluated and at
// most one key is reported per field, the first failing rule wins.
type Validator struct {
	fields []fieldRules
}

var _ CandidateValidator = (*Validator)(nil)

// NewValidator builds the registration validator. The lookup backs the
// email uniqueness rule.
func NewValidator(lookup EmailLookup) *Validator {
	return &Validator{
		fields: []fieldRules{
			{
				name:  FieldUsername,
				value: func(c Candidate) string { return c.Username },
				rules: []validation.Rule{
					validation.Required.Error(KeyUsernameNull),
					validation.RuneLength(UsernameMinLength, UsernameMaxLength).Error(KeyUsernameSize),
				},
			},
			{
				name:  FieldEmail,
				value: func(c Candidate) string { return c.Email },
				rules: []validation.Rule{
					validation.Required.Error(KeyEmailNull),
					is.Email.Error(KeyEmailInvalid),
				},
				async: []ContextRule{
					UniqueEmail(lookup),
				},
			},
			{
				name:  FieldPassword,
				value: func(c Candidate) string { return c.Password },
				rules: []validation.Rule{
					validation.Required.Error(KeyPasswordNull),
					validation.RuneLength(PasswordMinLength, 0).Error(KeyPasswordSize),
					validation.Match(lowercaseRe).Error(KeyPasswordPattern),
					validation.Match(uppercaseRe).Error(KeyPasswordPattern),
					validation.Match(digitRe).Error(KeyPasswordPattern),
				},
			},
		},
	}
}

// Validate returns the ordered field errors, empty when the candidate is
// clean. The error is only set when a rule could not be evaluated.
func (v *Validator) Validate(ctx context.Context, c Candidate) (FieldErrors, error) {
	var out FieldErrors

	for _, field := range v.fields {
		value := field.value(c)

		if err := validation.Validate(value, field.rules...); err != nil {
			out = append(out, FieldError{Field: field.name, Key: err.Error()})
			continue
		}

		for _, rule := range field.async {
			err := rule.ValidateContext(ctx, value)
			if err == nil {
				continue
			}

			var ruleErr RuleError
			if errors.As(err, &ruleErr) {
				out = append(out, FieldError{Field: field.name, Key: string(ruleErr)})
				break
			}

			return nil, err
		}
	}

	return out, nil
}

type uniqueEmailRule struct {
	lookup EmailLookup
}

// UniqueEmail fails with EMAIL_INUSE when an account already owns the email
func UniqueEmail(lookup EmailLookup) ContextRule {
	return uniqueEmailRule{lookup: lookup}
}

func (r uniqueEmailRule) ValidateContext(ctx context.Context, value string) error {
	if r.lookup == nil || value == "" {
		return nil
	}

	account, err := r.lookup.GetByEmail(ctx, value)
	if err != nil {
		if IsNotFound(err) {
			return nil
		}
		return NewStoreFailure(err, "failed to check email uniqueness")
	}

	if account != nil {
		return RuleError(KeyEmailInUse)
	}

	return nil
}

