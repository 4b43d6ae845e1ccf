package accounts

import (
	"bytes"
	"encoding/json"
	"net/http"
	"time"
)

// Message keys for non field messages
const (
	MessageUserCreated        = "USER_CREATED"
	MessageAccountActivated   = "ACCOUNT_ACTIVATED"
	MessageValidationFailure  = "VALIDATION_FAILURE"
	MessageEmailFailure       = "EMAIL_FAILURE"
	MessageInvalidToken       = "INVALID_TOKEN"
	MessageUnexpectedError    = "UNEXPECTED_ERROR"
	MessageInvalidRequestBody = "INVALID_REQUEST_BODY"
)

// LocalizedFieldError is a field error resolved to text
type LocalizedFieldError struct {
	Field   string
	Message string
}

// LocalizedFieldErrors encodes as a JSON object keeping field order
type LocalizedFieldErrors []LocalizedFieldError

// Get returns the message for field
func (l LocalizedFieldErrors) Get(field string) (string, bool) {
	for _, fe := range l {
		if fe.Field == field {
			return fe.Message, true
		}
	}
	return "", false
}

func (l LocalizedFieldErrors) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, fe := range l {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(fe.Field)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(fe.Message)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Envelope is the error body returned to API callers
type Envelope struct {
	Path             string               `json:"path"`
	Timestamp        int64                `json:"timestamp"`
	Message          string               `json:"message"`
	ValidationErrors LocalizedFieldErrors `json:"validationErrors,omitempty"`
}

// MessageResponse is the success body
type MessageResponse struct {
	Message string `json:"message"`
}

// EnvelopeFormatter turns errors into localized envelopes
type EnvelopeFormatter struct {
	translator Translator
	now        func() time.Time
}

// EnvelopeOption customizes the formatter
type EnvelopeOption func(*EnvelopeFormatter)

// WithEnvelopeClock injects the clock used for timestamps
func WithEnvelopeClock(clock func() time.Time) EnvelopeOption {
	return func(f *EnvelopeFormatter) {
		if clock != nil {
			f.now = clock
		}
	}
}

// NewEnvelopeFormatter returns a formatter resolving keys with translator
func NewEnvelopeFormatter(translator Translator, opts ...EnvelopeOption) *EnvelopeFormatter {
	f := &EnvelopeFormatter{
		translator: translator,
		now:        time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(f)
		}
	}
	return f
}

// Format maps err to its HTTP status and envelope. Errors outside the
// known failures render a generic message, their details never leak.
func (f *EnvelopeFormatter) Format(err error, path, locale string) (int, Envelope) {
	env := Envelope{
		Path:      path,
		Timestamp: f.now().UnixMilli(),
	}

	switch {
	case IsValidationFailure(err):
		env.Message = f.Translate(MessageValidationFailure, locale)
		if fields, ok := FieldErrorsFrom(err); ok && fields.Len() > 0 {
			env.ValidationErrors = f.localizeFields(fields, locale)
		}
		return http.StatusBadRequest, env
	case IsEmailFailure(err):
		env.Message = f.Translate(MessageEmailFailure, locale)
		return http.StatusBadGateway, env
	case IsInvalidToken(err):
		env.Message = f.Translate(MessageInvalidToken, locale)
		return http.StatusBadRequest, env
	case IsInvalidRequestBody(err):
		env.Message = f.Translate(MessageInvalidRequestBody, locale)
		return http.StatusBadRequest, env
	default:
		env.Message = f.Translate(MessageUnexpectedError, locale)
		return http.StatusInternalServerError, env
	}
}

// Message builds a success body
func (f *EnvelopeFormatter) Message(key, locale string) MessageResponse {
	return MessageResponse{Message: f.Translate(key, locale)}
}

// Translate resolves key, returning the key when no translator is set
func (f *EnvelopeFormatter) Translate(key, locale string) string {
	if f.translator == nil {
		return key
	}
	return f.translator.Translate(key, locale)
}

func (f *EnvelopeFormatter) localizeFields(fields FieldErrors, locale string) LocalizedFieldErrors {
	out := make(LocalizedFieldErrors, 0, fields.Len())
	for _, fe := range fields {
		out = append(out, LocalizedFieldError{
			Field:   fe.Field,
			Message: f.Translate(fe.Key, locale),
		})
	}
	return out
}
