// Package pipeline runs one article job through its stages: it loads the
// static configuration, executes the stage graph, checkpoints after every
// transition and applies the quality gate.
package pipeline

import (
	"context"
	"errors"
	"fmt"

	"articlegen/internal/staticcfg"
)

// StageName identifies a stage in timings, checkpoints and events.
type StageName string

const (
	StageStaticConfig StageName = "staticConfig"
	StageResearch     StageName = "research"
	StageStrategy     StageName = "strategy"
	StageWriting      StageName = "writing"
	StageImage        StageName = "image"
	StageMeta         StageName = "meta"
	StageQualityGate  StageName = "qualityGate"
)

// Stage is a pure function of its typed input and model settings. Stages do
// not persist anything and do not time themselves.
type Stage[In, Out any] interface {
	Name() StageName
	Run(ctx context.Context, in In, cfg staticcfg.ModelConfig) (Out, error)
}

type stageFunc[In, Out any] struct {
	name StageName
	fn   func(context.Context, In, staticcfg.ModelConfig) (Out, error)
}

// NewStageFunc adapts a function to the Stage interface.
func NewStageFunc[In, Out any](name StageName, fn func(context.Context, In, staticcfg.ModelConfig) (Out, error)) Stage[In, Out] {
	return stageFunc[In, Out]{name: name, fn: fn}
}

func (s stageFunc[In, Out]) Name() StageName { return s.name }

func (s stageFunc[In, Out]) Run(ctx context.Context, in In, cfg staticcfg.ModelConfig) (Out, error) {
	return s.fn(ctx, in, cfg)
}

// ErrorKind classifies an unrecoverable stage failure.
type ErrorKind string

const (
	KindFailed         ErrorKind = "failed"
	KindMandatoryAsset ErrorKind = "mandatory_asset"
	KindConfig         ErrorKind = "config"
)

// ErrMandatoryAsset marks a stage error caused by a required asset that could
// not be produced. Stages wrap it so the coordinator can classify the failure.
var ErrMandatoryAsset = errors.New("mandatory asset unavailable")

// StageError is the only error Execute returns for a crashed run.
type StageError struct {
	Stage StageName
	Kind  ErrorKind
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("pipeline: stage %s %s: %v", e.Stage, e.Kind, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// AsStageError unwraps err into a StageError.
func AsStageError(err error) (*StageError, bool) {
	var se *StageError
	if errors.As(err, &se) {
		return se, true
	}
	return nil, false
}

// Outcome is the settled result of one stage: either Value or Err.
type Outcome[T any] struct {
	Value T
	Err   *StageError
}

// Ok reports whether the stage produced a value.
func (o Outcome[T]) Ok() bool { return o.Err == nil }

func newStageError(stage StageName, err error) *StageError {
	if se, ok := AsStageError(err); ok {
		return se
	}
	kind := KindFailed
	if errors.Is(err, ErrMandatoryAsset) {
		kind = KindMandatoryAsset
	}
	return &StageError{Stage: stage, Kind: kind, Err: err}
}

// runStage calls s and folds errors and panics into the Outcome.
func runStage[In, Out any](ctx context.Context, s Stage[In, Out], in In, cfg staticcfg.ModelConfig) (out Outcome[Out]) {
	defer func() {
		if r := recover(); r != nil {
			out = Outcome[Out]{Err: &StageError{Stage: s.Name(), Kind: KindFailed, Err: fmt.Errorf("panic: %v", r)}}
		}
	}()
	v, err := s.Run(ctx, in, cfg)
	if err != nil {
		return Outcome[Out]{Err: newStageError(s.Name(), err)}
	}
	return Outcome[Out]{Value: v}
}
