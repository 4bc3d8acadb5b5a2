package retry

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"
)

var ErrTooManyAttempts = errors.New("too many retry attempts")

type Callable func(attempt int) error

// Stop wraps an error so that Start gives up immediately instead of
// scheduling another attempt.
func Stop(err error) error {
	if err == nil {
		return nil
	}
	return &stopError{error: err}
}

type stopError struct {
	error
}

type Attempts interface {
	Next() (time.Duration, bool)
	Current() int
}

// Start runs cb until it succeeds, the attempts are exhausted, or ctx is
// done. Every error is retried unless the callback wraps it with Stop.
func Start(ctx context.Context, a Attempts, cb Callable) error {
	for {
		err := cb(a.Current())
		if err == nil {
			return nil
		}

		var stop *stopError
		if errors.As(err, &stop) {
			return errors.Wrapf(stop.error, "retry %d aborted", a.Current())
		}

		next, exhausted := a.Next()
		if exhausted {
			return errors.Wrap(ErrTooManyAttempts, err.Error())
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(next):
			continue
		}
	}
}

func Incremental(ctx context.Context, step time.Duration, maxAttempts int, cb Callable) error {
	return Start(ctx, IncrementalAttempts(step, maxAttempts), cb)
}

type incrementalAttempts struct {
	sync.RWMutex
	prev time.Duration
	step time.Duration
	max  int
	curr int
}

func (a *incrementalAttempts) Next() (time.Duration, bool) {
	a.Lock()
	defer a.Unlock()

	a.curr++
	if a.curr > a.max {
		return 0, true
	}

	next := a.prev + a.step
	a.prev = next

	return next, false
}

func (a *incrementalAttempts) Current() int {
	a.RLock()
	defer a.RUnlock()
	return a.curr
}

func IncrementalAttempts(step time.Duration, max int) Attempts {
	return &incrementalAttempts{
		prev: 0,
		step: step,
		max:  max,
		curr: 1,
	}
}
