// Package apperr defines the error taxonomy shared by handlers and services:
// validation failures detected before any network call, auth rejections,
// missing resources, provider messages passed through verbatim, and a
// catch-all for everything else.
package apperr

import (
	"errors"
	"fmt"
)

var (
	ErrNotAuthenticated = errors.New("not authenticated")
	ErrNotFound         = errors.New("not found")
)

// ValidationError is a locally detected bad-input error. It is always
// produced before contacting the provider or the database.
type ValidationError struct {
	Field string
	Msg   string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Msg
	}
	return e.Field + ": " + e.Msg
}

func Validation(field, msg string) error {
	return &ValidationError{Field: field, Msg: msg}
}

func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// ProviderError wraps a rejection from the hosted auth provider. Message is
// the provider's own text, surfaced to the user verbatim.
type ProviderError struct {
	Status  int
	Message string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("provider: %s (status %d)", e.Message, e.Status)
}

func IsProvider(err error) bool {
	var pe *ProviderError
	return errors.As(err, &pe)
}

// ProviderMessage returns the verbatim provider message, or "" when err is
// not a ProviderError.
func ProviderMessage(err error) string {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe.Message
	}
	return ""
}

// NotFoundError marks a missing project/domain/profile; routes translate it
// into a 404.
type NotFoundError struct {
	Kind string
	ID   string
}

func (e *NotFoundError) Error() string {
	return e.Kind + " not found: " + e.ID
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

func NotFoundf(kind, id string) error {
	return &NotFoundError{Kind: kind, ID: id}
}

func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// Unexpected wraps any other failure. Handlers log it server-side and show a
// generic message.
func Unexpected(op string, err error) error {
	return fmt.Errorf("%s: %w", op, err)
}
