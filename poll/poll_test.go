package poll

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestBudgetUntil(t *testing.T) {
	tests := []struct {
		name      string
		attempts  int
		doneAt    int
		wantCalls int
		wantErr   error
	}{
		{name: "first try", attempts: 3, doneAt: 1, wantCalls: 1},
		{name: "last try", attempts: 3, doneAt: 3, wantCalls: 3},
		{name: "never", attempts: 3, doneAt: 0, wantCalls: 3, wantErr: ErrExhausted},
		{name: "zero budget", attempts: 0, doneAt: 1, wantCalls: 0, wantErr: ErrExhausted},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := Budget{Attempts: tt.attempts, Interval: time.Millisecond}
			calls := 0
			err := b.Until(context.Background(), func(context.Context) (bool, error) {
				calls++
				return calls == tt.doneAt, nil
			})
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("err = %v, want %v", err, tt.wantErr)
			}
			if calls != tt.wantCalls {
				t.Fatalf("calls = %d, want %d", calls, tt.wantCalls)
			}
		})
	}
}

func TestBudgetUntilStopsOnError(t *testing.T) {
	boom := errors.New("boom")
	b := Budget{Attempts: 5, Interval: time.Millisecond}
	calls := 0
	err := b.Until(context.Background(), func(context.Context) (bool, error) {
		calls++
		return false, boom
	})
	if !errors.Is(err, boom) || calls != 1 {
		t.Fatalf("err = %v calls = %d", err, calls)
	}
}

func TestBudgetUntilCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	b := Budget{Attempts: 5, Interval: time.Hour}
	err := b.Until(ctx, func(context.Context) (bool, error) { return false, nil })
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}

func TestBudgetExhaustedAndTotal(t *testing.T) {
	b := Budget{Attempts: 10, Interval: time.Second}
	if b.Exhausted(9) {
		t.Error("9 of 10 should not be exhausted")
	}
	if !b.Exhausted(10) {
		t.Error("10 of 10 should be exhausted")
	}
	if b.Total() != 10*time.Second {
		t.Errorf("Total = %v", b.Total())
	}
}
