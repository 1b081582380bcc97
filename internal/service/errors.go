package service

import (
	"errors"
	"fmt"

	"taskflow/internal/repository"
)

var (
	ErrForbidden          = errors.New("forbidden")
	ErrConflict           = errors.New("conflict")
	ErrInvalidCredentials = errors.New("invalid email or password")
)

// ValidationError reports bad caller input. Handlers map it to 400.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func invalid(format string, args ...interface{}) error {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

func forbidden(msg string) error {
	return fmt.Errorf("%w: %s", ErrForbidden, msg)
}

// IsNotFound reports whether err is one of the repository not-found errors.
func IsNotFound(err error) bool {
	return errors.Is(err, repository.ErrTaskNotFound) ||
		errors.Is(err, repository.ErrProjectNotFound) ||
		errors.Is(err, repository.ErrUserNotFound) ||
		errors.Is(err, repository.ErrMemberNotFound)
}
