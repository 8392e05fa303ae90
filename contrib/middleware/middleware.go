// Package middleware provides ready pipeline steps for crudl models and
// ad-hoc definitions: structured logging, Prometheus metrics and panic
// recovery.
//
//	m.On("all", middleware.Recover(), middleware.Logger(log), metrics.Step())
package middleware

import (
	"fmt"
	"runtime/debug"
	"time"

	"github.com/rs/zerolog"

	"github.com/syssam/crudl"
)

// Logger returns a step logging every execution: debug level on success,
// warn on validation, privacy and not found errors, error otherwise.
//
// Bound resolvers validate arguments before the first step runs, so a
// rejected argument set never reaches the step. Only validation errors
// returned by later steps are logged.
func Logger(logger zerolog.Logger) crudl.Step {
	return func(c *crudl.Context, next crudl.Next) error {
		start := time.Now()
		err := next()

		event := logger.Debug()
		switch {
		case err == nil:
		case crudl.IsValidationError(err), crudl.IsPrivacyError(err), crudl.IsNotFound(err):
			event = logger.Warn().Err(err)
		default:
			event = logger.Error().Err(err)
		}
		event.
			Str("name", c.Name).
			Stringer("op", c.Op).
			Dur("duration", time.Since(start)).
			Msg("crudl operation")
		return err
	}
}

// PanicError is returned by the Recover step when a later step panics.
type PanicError struct {
	Value any
	Stack []byte
}

// Error implements the error interface.
func (e *PanicError) Error() string {
	return fmt.Sprintf("crudl: panic in pipeline: %v", e.Value)
}

// Recover returns a step converting panics of later steps into a
// *PanicError.
func Recover() crudl.Step {
	return func(c *crudl.Context, next crudl.Next) (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = &PanicError{Value: r, Stack: debug.Stack()}
			}
		}()
		return next()
	}
}
