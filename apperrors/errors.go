// Package apperrors declares the failure taxonomy shared by the notifier.
// Errors are marked with cockroachdb/errors so callers can test the class
// with errors.Is after any amount of wrapping.
package apperrors

import (
	"github.com/cockroachdb/errors"
)

var (
	// ErrConfiguration means credentials or the gateway session are missing.
	// It is fatal to a run.
	ErrConfiguration = errors.New("configuration error")

	ErrTransientDelivery = errors.New("transient delivery error")
	ErrTerminalDelivery  = errors.New("terminal delivery error")

	// ErrNoTemplate means no enabled template matched the recipient.
	ErrNoTemplate = errors.New("no template")

	// ErrDuplicateSend is an informational skip, not a failure.
	ErrDuplicateSend = errors.New("duplicate send")

	ErrRunInProgress    = errors.New("run already in progress")
	ErrNotFound         = errors.New("not found")
	ErrConcurrentUpdate = errors.New("concurrent update")
)

// Send record error codes.
const (
	CodeSendError     = "SEND_ERROR"
	CodeInvalidPhone  = "INVALID_PHONE"
	CodeInternalError = "INTERNAL_ERROR"
)

// Configuration builds a ConfigurationError with an operator hint.
func Configuration(msg, hint string) error {
	err := errors.Mark(errors.New(msg), ErrConfiguration)
	if hint != "" {
		err = errors.WithHint(err, hint)
	}
	return err
}

// Transient marks err as retryable.
func Transient(err error) error {
	return errors.Mark(err, ErrTransientDelivery)
}

// Terminal marks err as not retryable.
func Terminal(err error) error {
	return errors.Mark(err, ErrTerminalDelivery)
}

// NotFound wraps err (usually gorm.ErrRecordNotFound) with a subject.
func NotFound(err error, what string) error {
	return errors.Mark(errors.Wrapf(err, "%s not found", what), ErrNotFound)
}

func IsRetryable(err error) bool {
	return errors.Is(err, ErrTransientDelivery)
}

func IsConfiguration(err error) bool {
	return errors.Is(err, ErrConfiguration)
}

func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
