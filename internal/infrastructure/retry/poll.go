package retry

import (
	"context"
	"time"

	"github.com/flightplan-tool/flightplan-sub000/internal/infrastructure/timeutil"
)

// Outcome is the terminal state of a Poll.
type Outcome int

const (
	// Ready means the condition became true.
	Ready Outcome = iota

	// TimedOut means the timeout or attempt budget ran out first.
	TimedOut

	// Failed means the check returned an error.
	Failed

	// Cancelled means the context ended first.
	Cancelled
)

// String returns the outcome name.
func (o Outcome) String() string {
	switch o {
	case Ready:
		return "ready"
	case TimedOut:
		return "timed out"
	case Failed:
		return "failed"
	default:
		return "cancelled"
	}
}

// PollConfig bounds a Poll. At least one of Timeout and MaxAttempts must
// be positive; otherwise a single check is made.
type PollConfig struct {
	Timeout     time.Duration
	Interval    time.Duration
	MaxAttempts int
	Clock       timeutil.Clock
}

// PollResult describes how a Poll ended.
type PollResult struct {
	Outcome  Outcome
	Attempts int
	Elapsed  time.Duration

	// Err is the check error for Failed, or the context error for Cancelled.
	Err error
}

// OK reports whether the condition was met.
func (r PollResult) OK() bool { return r.Outcome == Ready }

// Poll calls check until it reports true, returns an error, or the
// configured budget is exhausted. It never panics or loops forever.
func Poll(ctx context.Context, check func(ctx context.Context) (bool, error), cfg PollConfig) PollResult {
	clock := cfg.Clock
	if clock == nil {
		clock = timeutil.NewRealClock()
	}
	interval := cfg.Interval
	if interval <= 0 {
		interval = 250 * time.Millisecond
	}
	maxAttempts := cfg.MaxAttempts
	if maxAttempts <= 0 && cfg.Timeout <= 0 {
		maxAttempts = 1
	}

	start := clock.Now()
	result := PollResult{}
	for {
		if err := ctx.Err(); err != nil {
			result.Outcome, result.Err = Cancelled, err
			break
		}

		result.Attempts++
		done, err := check(ctx)
		if err != nil {
			result.Outcome, result.Err = Failed, err
			break
		}
		if done {
			result.Outcome = Ready
			break
		}

		if maxAttempts > 0 && result.Attempts >= maxAttempts {
			result.Outcome = TimedOut
			break
		}
		wait := interval
		if cfg.Timeout > 0 {
			remaining := cfg.Timeout - clock.Now().Sub(start)
			if remaining <= 0 {
				result.Outcome = TimedOut
				break
			}
			if remaining < wait {
				wait = remaining
			}
		}
		if err := clock.Sleep(ctx, wait); err != nil {
			result.Outcome, result.Err = Cancelled, err
			break
		}
	}

	result.Elapsed = clock.Now().Sub(start)
	return result
}
