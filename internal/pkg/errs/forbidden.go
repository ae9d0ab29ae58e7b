package errs

import (
	"errors"
	"fmt"
)

var ErrForbidden = errors.New("forbidden")

// ForbiddenError reports that Subject is not authorized for the requested data.
type ForbiddenError struct {
	Subject string
	Cause   error
}

func NewForbiddenError(subject string) *ForbiddenError {
	return &ForbiddenError{Subject: subject}
}

func NewForbiddenErrorWithCause(subject string, cause error) *ForbiddenError {
	return &ForbiddenError{
		Subject: subject,
		Cause:   cause,
	}
}

func (e *ForbiddenError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (cause: %v)", ErrForbidden, e.Subject, e.Cause)
	}
	return fmt.Sprintf("%s: %s", ErrForbidden, e.Subject)
}

func (e *ForbiddenError) Unwrap() error {
	return ErrForbidden
}
