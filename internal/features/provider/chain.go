package provider

import (
	"context"
	"errors"
	"fmt"
	"time"

	"seabot/internal/common/metrics"

	"github.com/cenkalti/backoff/v5"
	"github.com/rs/zerolog"
)

// ErrInvalidResponse marks a well-formed reply that carries no usable result.
// It is not retried.
var ErrInvalidResponse = errors.New("invalid response")

// Attempt is one named source of a T.
type Attempt[T any] struct {
	Name  string
	Fetch func(ctx context.Context) (T, error)
}

// Result is a value with the name of the attempt that produced it.
type Result[T any] struct {
	Value  T
	Source string
}

type Options struct {
	// MaxTries per attempt, including the first call.
	MaxTries        uint
	InitialInterval time.Duration
}

// Chain tries its attempts in order until one succeeds. Each attempt is
// retried with exponential backoff on transient failures.
type Chain[T any] struct {
	attempts []Attempt[T]
	opts     Options
	log      zerolog.Logger
}

func NewChain[T any](opts Options, log zerolog.Logger, attempts ...Attempt[T]) *Chain[T] {
	if opts.MaxTries == 0 {
		opts.MaxTries = 1
	}
	if opts.InitialInterval <= 0 {
		opts.InitialInterval = 500 * time.Millisecond
	}
	return &Chain[T]{attempts: attempts, opts: opts, log: log}
}

func (c *Chain[T]) Run(ctx context.Context) (Result[T], error) {
	var errs []error
	for _, attempt := range c.attempts {
		b := backoff.NewExponentialBackOff()
		b.InitialInterval = c.opts.InitialInterval

		value, err := backoff.Retry(ctx, func() (T, error) {
			v, err := attempt.Fetch(ctx)
			if err != nil && !retryable(err) {
				return v, backoff.Permanent(err)
			}
			return v, err
		}, backoff.WithBackOff(b), backoff.WithMaxTries(c.opts.MaxTries))
		if err == nil {
			return Result[T]{Value: value, Source: attempt.Name}, nil
		}

		metrics.ProviderFailures.WithLabelValues(attempt.Name).Inc()
		c.log.Warn().Err(err).Str("provider", attempt.Name).Msg("Provider failed, trying next")
		errs = append(errs, fmt.Errorf("%s: %w", attempt.Name, err))

		if ctx.Err() != nil {
			break
		}
	}

	var zero Result[T]
	if len(errs) == 0 {
		return zero, errors.New("no providers configured")
	}
	return zero, errors.Join(errs...)
}

func retryable(err error) bool {
	if errors.Is(err, ErrInvalidResponse) || errors.Is(err, context.Canceled) {
		return false
	}
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.Retryable()
	}
	return true
}

// NotFound reports whether every attempt failed with a 404.
func NotFound(err error) bool {
	if err == nil {
		return false
	}
	var joined interface{ Unwrap() []error }
	if errors.As(err, &joined) {
		for _, e := range joined.Unwrap() {
			if !NotFound(e) {
				return false
			}
		}
		return true
	}
	var statusErr *StatusError
	return errors.As(err, &statusErr) && statusErr.Code == 404
}
