package service

import (
	"errors"
	"strings"

	"github.com/stemsi/quizhub-backend/internal/repository"
)

var (
	// ErrInvalidCredentials covers both an unknown email and a wrong password.
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailTaken         = errors.New("email already registered")
	ErrSessionInvalid     = errors.New("session invalid or expired")

	ErrNotFound       = errors.New("not found")
	ErrParentNotFound = errors.New("referenced parent does not exist")
	// ErrInvariantViolation means a write would leave a question with more
	// than one correct option. The whole unit of work is rolled back.
	ErrInvariantViolation = errors.New("question would have more than one correct option")
)

// FieldError rejects a single input field. Handlers report it the same way
// as a binding failure.
type FieldError struct {
	Field   string
	Message string
}

func (e *FieldError) Error() string { return e.Field + " " + e.Message }

// requireText trims value and rejects it when nothing is left.
func requireText(field, value string) (string, error) {
	v := strings.TrimSpace(value)
	if v == "" {
		return "", &FieldError{Field: field, Message: "must not be blank"}
	}
	return v, nil
}

// mapStoreErr converts repository sentinels into service sentinels.
func mapStoreErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrNotFound):
		return ErrNotFound
	case errors.Is(err, repository.ErrParentNotFound):
		return ErrParentNotFound
	case errors.Is(err, repository.ErrCorrectOptionConflict):
		return ErrInvariantViolation
	case errors.Is(err, repository.ErrDuplicateEmail):
		return ErrEmailTaken
	}
	return err
}
