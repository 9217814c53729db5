// Package retry runs I/O calls under an exponential backoff policy.
package retry

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v5"
	"go.uber.org/zap"
)

// Policy bounds how often and how fast a call is retried.
type Policy struct {
	MaxRetries int
	Backoff    time.Duration
}

func (p Policy) options(logger *zap.Logger, what string) []backoff.RetryOption {
	maxRetries := p.MaxRetries
	if maxRetries < 0 {
		maxRetries = 0
	}
	delay := p.Backoff
	if delay <= 0 {
		delay = 100 * time.Millisecond
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = delay
	policy.MaxInterval = delay * 10

	notify := func(err error, next time.Duration) {
		logger.Warn("retrying after error", zap.String("call", what), zap.Error(err), zap.Duration("backoff", next))
	}

	return []backoff.RetryOption{
		backoff.WithBackOff(policy),
		backoff.WithMaxTries(uint(maxRetries) + 1),
		backoff.WithNotify(notify),
	}
}

// Do calls fn until it succeeds, returns a permanent error, the retry budget
// is spent or ctx is done.
func Do[T any](ctx context.Context, p Policy, logger *zap.Logger, what string, fn func() (T, error)) (T, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	return backoff.Retry[T](ctx, fn, p.options(logger, what)...)
}

// Run is Do for calls that only return an error.
func Run(ctx context.Context, p Policy, logger *zap.Logger, what string, fn func() error) error {
	_, err := Do(ctx, p, logger, what, func() (struct{}, error) {
		return struct{}{}, fn()
	})
	return err
}

// Permanent marks err as not worth retrying.
func Permanent(err error) error {
	return backoff.Permanent(err)
}

// IsPermanent reports whether err was marked by Permanent. Do and Run unwrap
// the mark before returning.
func IsPermanent(err error) bool {
	var permanent *backoff.PermanentError
	return errors.As(err, &permanent)
}
