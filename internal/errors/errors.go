// internal/errors/errors.go
package errors

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// Sentinels callers can match with errors.Is. The engine is a library,
// so these take the place of transport status codes.
var (
	// ErrNotFound: the referenced couple (or other entity) does not exist.
	ErrNotFound = errors.New("not found")

	// ErrForbidden: the acting user is not a member of the couple.
	ErrForbidden = errors.New("forbidden")

	// ErrConflict: a uniqueness constraint rejected the write. The award
	// path never surfaces this — a duplicate dedupe key is translated
	// into the idempotent no-op internally. It remains visible for
	// writes where a conflict is a real outcome (e.g. pair codes).
	ErrConflict = errors.New("conflict")

	// ErrInvalidArgument: the caller passed something unusable, e.g. a
	// malformed pagination cursor.
	ErrInvalidArgument = errors.New("invalid argument")
)

// Map converts repo/infra errors into the domain sentinels above.
// Keeps the service layer clean by centralizing error translation.
func Map(err error) error {
	if err == nil {
		return nil
	}

	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound

	case errors.Is(err, gorm.ErrDuplicatedKey):
		return ErrConflict

	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return err

	default:
		return err
	}
}

// NotFound wraps ErrNotFound with a message for the caller's logs.
func NotFound(msg string) error {
	return fmt.Errorf("%w: %s", ErrNotFound, msg)
}

// Forbidden wraps ErrForbidden with a message.
func Forbidden(msg string) error {
	return fmt.Errorf("%w: %s", ErrForbidden, msg)
}

// InvalidArgument wraps ErrInvalidArgument with a message.
func InvalidArgument(msg string) error {
	return fmt.Errorf("%w: %s", ErrInvalidArgument, msg)
}
