package reports

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// TransientError marks a report that could not be produced in time or
// because the store was busy. Callers may retry the same request.
type TransientError struct {
	Report string
	Err    error
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("%s report unavailable: %v", e.Report, e.Err)
}

func (e *TransientError) Unwrap() error {
	return e.Err
}

// Retryable is always true for a TransientError.
func (e *TransientError) Retryable() bool {
	return true
}

// IsTransient reports whether err is a TransientError.
func IsTransient(err error) bool {
	var terr *TransientError
	return errors.As(err, &terr)
}

// classify turns deadline and lock errors into a TransientError and leaves
// every other error untouched.
func classify(ctx context.Context, report string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return &TransientError{Report: report, Err: err}
	}
	msg := err.Error()
	if strings.Contains(msg, "database is locked") || strings.Contains(msg, "busy") {
		return &TransientError{Report: report, Err: err}
	}
	return err
}
