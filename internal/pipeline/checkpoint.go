package pipeline

import (
	"context"
	"encoding/json"
	"fmt"

	"articlegen/internal/domain"
	"articlegen/internal/quality"
)

// Outputs holds the committed stage outputs of a run. A field is set only
// once the level that produced it settled successfully.
type Outputs struct {
	Research *domain.Research `json:"research,omitempty"`
	Strategy *domain.Strategy `json:"strategy,omitempty"`
	Writing  *domain.Article  `json:"writing,omitempty"`
	Image    *domain.ImageSet `json:"image,omitempty"`
	Meta     *domain.Meta     `json:"meta,omitempty"`
}

// Count returns how many stage outputs are present.
func (o Outputs) Count() int {
	n := 0
	for _, set := range []bool{o.Research != nil, o.Strategy != nil, o.Writing != nil, o.Image != nil, o.Meta != nil} {
		if set {
			n++
		}
	}
	return n
}

// Checkpoint is the full snapshot written after a transition. Each write
// replaces the previous snapshot as a whole.
type Checkpoint struct {
	Status       domain.JobStatus
	CurrentPhase string
	RetryCount   int
	Outputs      Outputs
	PhaseTimings PhaseTimings
	Quality      *quality.Report
	Result       *Result
	Error        string
}

// CheckpointWriter persists the status and metadata of a job in a single
// write.
type CheckpointWriter interface {
	Persist(ctx context.Context, jobID string, cp Checkpoint) error
}

// CheckpointWriterFunc adapts a function to CheckpointWriter.
type CheckpointWriterFunc func(ctx context.Context, jobID string, cp Checkpoint) error

func (f CheckpointWriterFunc) Persist(ctx context.Context, jobID string, cp Checkpoint) error {
	return f(ctx, jobID, cp)
}

// Metadata encodes cp into the job metadata document.
func (cp Checkpoint) Metadata() (domain.JobMetadata, error) {
	md := domain.JobMetadata{
		CurrentPhase: cp.CurrentPhase,
		RetryCount:   cp.RetryCount,
		Error:        cp.Error,
	}
	var err error
	if md.Checkpoints, err = json.Marshal(cp.Outputs); err != nil {
		return md, fmt.Errorf("encode checkpoints: %w", err)
	}
	if len(cp.PhaseTimings) > 0 {
		if md.PhaseTimings, err = json.Marshal(cp.PhaseTimings); err != nil {
			return md, fmt.Errorf("encode phase timings: %w", err)
		}
	}
	if cp.Quality != nil {
		if md.Quality, err = json.Marshal(cp.Quality); err != nil {
			return md, fmt.Errorf("encode quality report: %w", err)
		}
	}
	return md, nil
}

// ResultJSON encodes the final result, or returns nil when the run has not
// finished.
func (cp Checkpoint) ResultJSON() (json.RawMessage, error) {
	if cp.Result == nil {
		return nil, nil
	}
	b, err := json.Marshal(cp.Result)
	if err != nil {
		return nil, fmt.Errorf("encode result: %w", err)
	}
	return b, nil
}
