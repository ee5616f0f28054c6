// Package apperr defines the error taxonomy shared by the backup pipeline.
//
// Errors local to one file or one technology are converted into report
// entries; only configuration errors are fatal to the whole run. Callers
// match categories with errors.Is.
package apperr

import (
	"errors"
	"fmt"
)

var (
	// ErrConfiguration is returned for malformed or missing parameters. Fatal.
	ErrConfiguration = errors.New("configuration error")

	// ErrIO is returned when a directory or file cannot be accessed.
	ErrIO = errors.New("io error")

	// ErrTransfer is returned when the object store rejects an upload.
	ErrTransfer = errors.New("transfer error")

	// ErrNotification is returned when the report email cannot be delivered.
	ErrNotification = errors.New("notification error")
)

// Configuration wraps a formatted message with ErrConfiguration.
func Configuration(format string, args ...any) error {
	return wrap(ErrConfiguration, format, args...)
}

// IO wraps a formatted message with ErrIO.
func IO(format string, args ...any) error {
	return wrap(ErrIO, format, args...)
}

// Transfer wraps a formatted message with ErrTransfer.
func Transfer(format string, args ...any) error {
	return wrap(ErrTransfer, format, args...)
}

// Notification wraps a formatted message with ErrNotification.
func Notification(format string, args ...any) error {
	return wrap(ErrNotification, format, args...)
}

func wrap(kind error, format string, args ...any) error {
	return fmt.Errorf("%w: %w", kind, fmt.Errorf(format, args...))
}

// Kind returns a short label for the category of err, or "unknown".
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrConfiguration):
		return "configuration"
	case errors.Is(err, ErrIO):
		return "io"
	case errors.Is(err, ErrTransfer):
		return "transfer"
	case errors.Is(err, ErrNotification):
		return "notification"
	default:
		return "unknown"
	}
}
