package accounts

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"strings"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/jackc/pgx/v5/pgconn"
)

const (
	TextCodeValidationFailure   = "VALIDATION_FAILURE"
	TextCodeEmailFailure        = "EMAIL_FAILURE"
	TextCodeInvalidToken        = "INVALID_ACTIVATION_TOKEN"
	TextCodeStoreFailure        = "STORE_FAILURE"
	TextCodeCompensationFailure = "COMPENSATION_FAILURE"
	TextCodeEmptyPassword       = "EMPTY_PASSWORD"
	TextCodeInvalidRequestBody  = "INVALID_REQUEST_BODY"
)

const metadataValidationErrors = "validation_errors"

// ErrNoEmptyString is returned when hashing an empty password
var ErrNoEmptyString = goerrors.New("password cannot be empty", goerrors.CategoryValidation).
	WithTextCode(TextCodeEmptyPassword).
	WithCode(goerrors.CodeBadRequest)

// ErrMismatchedHashAndPassword is returned when a password does not match its hash
var ErrMismatchedHashAndPassword = errors.New("password does not match hash")

// NewValidationFailure wraps the field errors produced by the validator
func NewValidationFailure(fields FieldErrors) *goerrors.Error {
	return goerrors.New("validation failure", goerrors.CategoryValidation).
		WithTextCode(TextCodeValidationFailure).
		WithCode(goerrors.CodeBadRequest).
		WithMetadata(map[string]any{
			metadataValidationErrors: fields,
		})
}

// NewEmailFailure is returned when the activation email could not be sent.
// The transport error is kept as the cause but never rendered to callers.
func NewEmailFailure(cause error) *goerrors.Error {
	if cause == nil {
		cause = errors.New("email dispatch failed")
	}
	return goerrors.Wrap(cause, goerrors.CategoryOperation, "activation email could not be sent").
		WithTextCode(TextCodeEmailFailure).
		WithCode(http.StatusBadGateway)
}

// NewInvalidTokenFailure is returned for unknown or consumed activation tokens
func NewInvalidTokenFailure() *goerrors.Error {
	return goerrors.New("account is either active or the token is invalid", goerrors.CategoryValidation).
		WithTextCode(TextCodeInvalidToken).
		WithCode(goerrors.CodeBadRequest)
}

// NewInvalidRequestBody is returned when a request payload cannot be decoded
func NewInvalidRequestBody(cause error) *goerrors.Error {
	if cause == nil {
		cause = errors.New("empty request body")
	}
	return goerrors.Wrap(cause, goerrors.CategoryBadInput, "invalid request body").
		WithTextCode(TextCodeInvalidRequestBody).
		WithCode(goerrors.CodeBadRequest)
}

// NewStoreFailure wraps unexpected persistence errors
func NewStoreFailure(cause error, msg string) *goerrors.Error {
	return goerrors.Wrap(cause, goerrors.CategoryInternal, msg).
		WithTextCode(TextCodeStoreFailure).
		WithCode(goerrors.CodeInternal)
}

// NewCompensationFailure is the fatal error raised when an account created
// during registration could not be removed after the email failed.
func NewCompensationFailure(cause error, account *Account) *goerrors.Error {
	meta := map[string]any{}
	if account != nil {
		meta["account_id"] = account.ID.String()
		meta["email"] = account.Email
	}
	return goerrors.Wrap(cause, goerrors.CategoryInternal, "failed to remove account after email failure").
		WithTextCode(TextCodeCompensationFailure).
		WithCode(goerrors.CodeInternal).
		WithMetadata(meta)
}

// FieldErrorsFrom extracts field errors from a validation failure
func FieldErrorsFrom(err error) (FieldErrors, bool) {
	var richErr *goerrors.Error
	if !goerrors.As(err, &richErr) || richErr.TextCode != TextCodeValidationFailure {
		return nil, false
	}
	fields, ok := richErr.Metadata[metadataValidationErrors].(FieldErrors)
	return fields, ok
}

// IsValidationFailure checks for validation errors
func IsValidationFailure(err error) bool {
	return hasTextCode(err, TextCodeValidationFailure)
}

// IsEmailFailure checks for activation email dispatch errors
func IsEmailFailure(err error) bool {
	return hasTextCode(err, TextCodeEmailFailure)
}

// IsInvalidToken checks for activation token errors
func IsInvalidToken(err error) bool {
	return hasTextCode(err, TextCodeInvalidToken)
}

// IsCompensationFailure checks for failed rollback of a registration
func IsCompensationFailure(err error) bool {
	return hasTextCode(err, TextCodeCompensationFailure)
}

// IsInvalidRequestBody checks for undecodable payloads
func IsInvalidRequestBody(err error) bool {
	return hasTextCode(err, TextCodeInvalidRequestBody)
}

// IsStoreFailure checks for unexpected persistence errors
func IsStoreFailure(err error) bool {
	return hasTextCode(err, TextCodeStoreFailure)
}

func hasTextCode(err error, code string) bool {
	if err == nil {
		return false
	}
	var richErr *goerrors.Error
	if !goerrors.As(err, &richErr) {
		return false
	}
	return richErr.TextCode == code
}

// IsUniqueViolation reports whether the store rejected a write because
// of a unique constraint (postgres 23505 or sqlite UNIQUE failure).
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}

	for e := err; e != nil; e = errors.Unwrap(e) {
		msg := strings.ToLower(e.Error())
		if strings.Contains(msg, "unique constraint") ||
			strings.Contains(msg, "duplicate key value") {
			return true
		}
	}

	return false
}

// IsNotFound matches repository and rich not found errors
func IsNotFound(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, sql.ErrNoRows) ||
		repository.IsRecordNotFound(err) ||
		goerrors.IsNotFound(err)
}

func isContextError(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
