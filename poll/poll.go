// Package poll holds the bounded retry budget shared by scan passes,
// connection verification and daemon startup.
package poll

import (
	"context"
	"errors"
	"time"
)

// ErrExhausted is returned by Until when the budget ran out.
var ErrExhausted = errors.New("poll budget exhausted")

// Budget bounds a polling loop to Attempts tries spaced by Interval.
type Budget struct {
	Attempts int
	Interval time.Duration
}

// Total is the longest time the budget can take.
func (b Budget) Total() time.Duration {
	if b.Attempts <= 0 {
		return 0
	}
	return time.Duration(b.Attempts) * b.Interval
}

// Exhausted reports whether attempt (1-based) used up the budget.
func (b Budget) Exhausted(attempt int) bool {
	return attempt >= b.Attempts
}

// Until calls cond up to Attempts times, sleeping Interval between calls,
// until it reports done. A cond error stops the loop and is returned.
func (b Budget) Until(ctx context.Context, cond func(ctx context.Context) (bool, error)) error {
	for attempt := 1; attempt <= b.Attempts; attempt++ {
		done, err := cond(ctx)
		if err != nil {
			return err
		}
		if done {
			return nil
		}
		if b.Exhausted(attempt) {
			break
		}
		if err := Sleep(ctx, b.Interval); err != nil {
			return err
		}
	}
	return ErrExhausted
}

// Sleep waits for d or until ctx is done.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
