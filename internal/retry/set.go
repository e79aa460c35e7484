package retry

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// Outcome classifies the result of a task set.
type Outcome string

const (
	OutcomeSuccess  Outcome = "success"
	OutcomeDegraded Outcome = "degraded"
	OutcomeFailed   Outcome = "failed"
)

// Task is one independent sub-task.
type Task[T any] func(ctx context.Context) (T, error)

// Indexed is an optional result tagged with its position in the task set.
type Indexed[T any] struct {
	Index int
	Value T
}

// Failure records why an optional task was dropped.
type Failure struct {
	Index int
	Err   error
}

// SetResult is the aggregate of a mandatory task plus optional tasks.
type SetResult[T any] struct {
	Outcome   Outcome
	Mandatory T
	Optional  []Indexed[T]
	Failures  []Failure
}

// FailedIndices lists the positions of the dropped optional tasks.
func (s SetResult[T]) FailedIndices() []int {
	out := make([]int, 0, len(s.Failures))
	for _, f := range s.Failures {
		out = append(out, f.Index)
	}
	return out
}

// RunSet runs mandatory first; if it exhausts its attempts the whole set
// fails. The optional tasks then run concurrently, at most limit at a time
// (limit <= 0 means unbounded), and every one that exhausts its attempts is
// dropped. Results keep task order.
func RunSet[T any](ctx context.Context, r *Runner, mandatory Task[T], optional []Task[T], limit int) (SetResult[T], error) {
	result := SetResult[T]{Outcome: OutcomeFailed}

	value, err := Do(ctx, r, mandatory)
	if err != nil {
		return result, fmt.Errorf("mandatory task: %w", err)
	}
	result.Mandatory = value

	type slot struct {
		value T
		err   error
	}
	slots := make([]slot, len(optional))
	var g errgroup.Group
	if limit > 0 {
		g.SetLimit(limit)
	}
	for i, task := range optional {
		g.Go(func() error {
			v, err := Do(ctx, r, task)
			slots[i] = slot{value: v, err: err}
			return nil
		})
	}
	_ = g.Wait()

	for i, s := range slots {
		if s.err != nil {
			result.Failures = append(result.Failures, Failure{Index: i, Err: s.err})
			continue
		}
		result.Optional = append(result.Optional, Indexed[T]{Index: i, Value: s.value})
	}
	result.Outcome = OutcomeSuccess
	if len(result.Failures) > 0 {
		result.Outcome = OutcomeDegraded
	}
	return result, nil
}
