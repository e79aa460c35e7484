// Package retry runs a single sub-task with bounded attempts and an
// escalating delay between them, and applies the mandatory/optional
// degradation policy over a set of such sub-tasks.
package retry

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// DefaultMaxAttempts is the number of attempts of the reference policy.
const DefaultMaxAttempts = 3

// DefaultDelays is the reference backoff schedule; the last value repeats
// for any further attempt.
var DefaultDelays = []time.Duration{5 * time.Second, 10 * time.Second, 20 * time.Second}

// Policy bounds the attempts of one sub-task.
type Policy struct {
	MaxAttempts int
	Delays      []time.Duration
}

// DefaultPolicy returns the reference policy.
func DefaultPolicy() Policy {
	return Policy{MaxAttempts: DefaultMaxAttempts, Delays: append([]time.Duration(nil), DefaultDelays...)}
}

// DelayAfter returns the delay observed after the failed attempt with the
// given zero-based index.
func (p Policy) DelayAfter(failed int) time.Duration {
	if len(p.Delays) == 0 {
		return 0
	}
	if failed < 0 {
		failed = 0
	}
	if failed >= len(p.Delays) {
		return p.Delays[len(p.Delays)-1]
	}
	return p.Delays[failed]
}

func (p Policy) attempts() int {
	if p.MaxAttempts <= 0 {
		return 1
	}
	return p.MaxAttempts
}

// Attempt describes one finished attempt. Delay is the time waited before it.
type Attempt struct {
	Index int
	Delay time.Duration
	Err   error
}

// ExhaustedError is returned once every attempt failed. It carries the last error.
type ExhaustedError struct {
	Attempts int
	Last     error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("retry: exhausted after %d attempt(s): %v", e.Attempts, e.Last)
}

func (e *ExhaustedError) Unwrap() error {
	return e.Last
}

// Sleeper waits for d or until ctx is done.
type Sleeper func(ctx context.Context, d time.Duration) error

// Runner executes tasks according to a Policy.
type Runner struct {
	policy    Policy
	sleep     Sleeper
	onAttempt func(Attempt)
}

// Option customises a Runner.
type Option func(*Runner)

// WithSleeper replaces the wall-clock sleeper, mostly for tests.
func WithSleeper(s Sleeper) Option {
	return func(r *Runner) {
		if s != nil {
			r.sleep = s
		}
	}
}

// WithAttemptHook registers fn to be called after every attempt.
func WithAttemptHook(fn func(Attempt)) Option {
	return func(r *Runner) { r.onAttempt = fn }
}

// NewRunner builds a Runner for policy.
func NewRunner(policy Policy, opts ...Option) *Runner {
	r := &Runner{policy: policy, sleep: sleepWithContext}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Policy returns the runner's policy.
func (r *Runner) Policy() Policy {
	return r.policy
}

// Do runs task until it succeeds or the policy is exhausted. A cancelled
// context stops the loop with the context error.
func Do[T any](ctx context.Context, r *Runner, task func(ctx context.Context) (T, error)) (T, error) {
	var (
		zero    T
		lastErr error
		delay   time.Duration
	)
	attempts := r.policy.attempts()
	for i := 0; i < attempts; i++ {
		if i > 0 {
			delay = r.policy.DelayAfter(i - 1)
			if err := r.sleep(ctx, delay); err != nil {
				return zero, err
			}
		}
		value, err := task(ctx)
		if r.onAttempt != nil {
			r.onAttempt(Attempt{Index: i, Delay: delay, Err: err})
		}
		if err == nil {
			return value, nil
		}
		lastErr = err
		if ctxErr := ctx.Err(); ctxErr != nil {
			return zero, ctxErr
		}
	}
	return zero, &ExhaustedError{Attempts: attempts, Last: lastErr}
}

// IsExhausted reports whether err came from a runner that ran out of attempts.
func IsExhausted(err error) bool {
	var exhausted *ExhaustedError
	return errors.As(err, &exhausted)
}

func sleepWithContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
