// Package logging provides panic recovery with stack trace logging.
package logging

import (
	"fmt"
	"runtime/debug"
)

// RecoveryHandler handles panics with logging
type RecoveryHandler struct {
	Logger  *Logger
	OnPanic func(err interface{}, stack string)
}

// NewRecoveryHandler creates a recovery handler for a component
func NewRecoveryHandler(component string) *RecoveryHandler {
	return &RecoveryHandler{
		Logger: New(component),
	}
}

// Wrap executes fn with panic recovery
func (r *RecoveryHandler) Wrap(fn func()) {
	defer func() {
		if rec := recover(); rec != nil {
			r.handlePanic(rec, string(debug.Stack()))
		}
	}()
	fn()
}

// WrapError executes fn with panic recovery, returning error on panic
func (r *RecoveryHandler) WrapError(fn func() error) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = r.handlePanic(rec, string(debug.Stack()))
		}
	}()
	return fn()
}

// handlePanic logs the panic and calls the custom handler
func (r *RecoveryHandler) handlePanic(rec interface{}, stack string) error {
	errMsg := fmt.Sprintf("panic in %s: %v", r.Logger.Component(), rec)

	r.Logger.Error("panic_recovered", map[string]interface{}{
		"stack":     stack,
		"recovered": true,
	}, fmt.Errorf("%v", rec))

	if r.OnPanic != nil {
		r.OnPanic(rec, stack)
	}

	return fmt.Errorf("%s", errMsg)
}
