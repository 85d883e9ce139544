package provider

import (
	"context"
	"errors"
	"time"
)

// ErrDeadline is returned by Race when the timer fires before the operation settles.
var ErrDeadline = errors.New("provider: deadline exceeded")

// Race runs fn and a timer concurrently; whichever settles first decides the
// outcome. fn receives a context that is cancelled as soon as Race returns,
// so a losing operation can release its connection or subprocess. The result
// of a late fn is dropped. A non-positive timeout disables the timer.
func Race[T any](ctx context.Context, timeout time.Duration, fn func(ctx context.Context) (T, error)) (T, error) {
	opCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	type outcome struct {
		val T
		err error
	}
	done := make(chan outcome, 1)
	go func() {
		v, err := fn(opCtx)
		done <- outcome{v, err}
	}()

	var expired <-chan time.Time
	if timeout > 0 {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		expired = timer.C
	}

	var zero T
	select {
	case o := <-done:
		return o.val, o.err
	case <-expired:
		return zero, ErrDeadline
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}

// Probe reports whether p is available, treating a probe that does not
// answer within timeout as unavailable.
func Probe(ctx context.Context, p Provider, timeout time.Duration) bool {
	ok, err := Race(ctx, timeout, func(ctx context.Context) (bool, error) {
		return p.IsAvailable(ctx), nil
	})
	return err == nil && ok
}

// ProbeAll probes every provider concurrently and returns name → availability.
func ProbeAll[T Provider](ctx context.Context, providers []T, timeout time.Duration) map[string]bool {
	type answer struct {
		name string
		ok   bool
	}
	answers := make(chan answer, len(providers))
	for _, p := range providers {
		go func(p T) {
			answers <- answer{p.Name(), Probe(ctx, p, timeout)}
		}(p)
	}
	status := make(map[string]bool, len(providers))
	for range providers {
		a := <-answers
		status[a.name] = a.ok
	}
	return status
}
