// Package fallback runs an ordered list of interchangeable backends until one succeeds.
package fallback

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
)

var (
	// ErrUnavailable marks a backend that cannot run at all, e.g. a missing executable
	ErrUnavailable = errors.New("backend unavailable")
	// ErrExhausted is returned when no backend succeeded
	ErrExhausted = errors.New("all backends failed")
)

// UnavailableError reports why a backend cannot run. It matches ErrUnavailable.
type UnavailableError struct {
	Backend string
	Reason  string
	Err     error
}

// Error implements the error interface
func (e *UnavailableError) Error() string {
	msg := fmt.Sprintf("%s unavailable: %s", e.Backend, e.Reason)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap exposes ErrUnavailable and the underlying cause
func (e *UnavailableError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrUnavailable}
	}
	return []error{ErrUnavailable, e.Err}
}

// Unavailable builds an UnavailableError
func Unavailable(backend, reason string, err error) error {
	return &UnavailableError{Backend: backend, Reason: reason, Err: err}
}

// IsUnavailable reports whether err marks an unavailable backend
func IsUnavailable(err error) bool {
	return errors.Is(err, ErrUnavailable)
}

// Policy decides which failures move on to the next backend
type Policy int

const (
	// ContinueOnAnyError tries the next backend after any failure
	ContinueOnAnyError Policy = iota
	// ContinueOnUnavailable only skips backends that are unavailable.
	// Any other failure stops the chain and is returned unchanged.
	ContinueOnUnavailable
)

// String returns the policy name
func (p Policy) String() string {
	switch p {
	case ContinueOnAnyError:
		return "continue_on_any_error"
	case ContinueOnUnavailable:
		return "continue_on_unavailable"
	}
	return "unknown"
}

// Observer is notified of every failed attempt
type Observer func(backend string, err error)

type runOptions struct {
	logger    *zap.Logger
	observer  Observer
	operation string
}

// Option configures Run
type Option func(*runOptions)

// WithLogger logs each failed attempt at warn level
func WithLogger(logger *zap.Logger) Option {
	return func(o *runOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithObserver registers a callback for failed attempts
func WithObserver(observer Observer) Option {
	return func(o *runOptions) {
		o.observer = observer
	}
}

// WithOperation names the operation in log entries
func WithOperation(name string) Option {
	return func(o *runOptions) {
		o.operation = name
	}
}

// Run calls each strategy in order and returns the first success together with the
// name of the backend that produced it.
func Run[S any, R any](
	ctx context.Context,
	strategies []S,
	name func(S) string,
	policy Policy,
	call func(context.Context, S) (R, error),
	opts ...Option,
) (R, string, error) {
	options := &runOptions{logger: zap.NewNop(), operation: "fallback"}
	for _, opt := range opts {
		opt(options)
	}

	var zero R
	if len(strategies) == 0 {
		return zero, "", fmt.Errorf("%w: no backends configured", ErrExhausted)
	}

	errs := make([]error, 0, len(strategies))
	for _, strategy := range strategies {
		if err := ctx.Err(); err != nil {
			return zero, "", err
		}

		backend := name(strategy)
		result, err := call(ctx, strategy)
		if err == nil {
			return result, backend, nil
		}

		options.logger.Warn("Backend attempt failed",
			zap.String("operation", options.operation),
			zap.String("backend", backend),
			zap.Bool("unavailable", IsUnavailable(err)),
			zap.Error(err),
		)
		if options.observer != nil {
			options.observer(backend, err)
		}

		if policy == ContinueOnUnavailable && !IsUnavailable(err) {
			return zero, backend, err
		}
		errs = append(errs, fmt.Errorf("%s: %w", backend, err))
	}

	return zero, "", fmt.Errorf("%w: %w", ErrExhausted, errors.Join(errs...))
}
