package pipeline

import (
	"time"

	"github.com/rs/zerolog"

	"articlegen/internal/domain"
	"articlegen/internal/observability"
)

// EventKind names a pipeline event.
type EventKind string

const (
	EventStageStarted        EventKind = "stage_started"
	EventStageCompleted      EventKind = "stage_completed"
	EventStageFailed         EventKind = "stage_failed"
	EventImagesDegraded      EventKind = "images_degraded"
	EventCheckpointPersisted EventKind = "checkpoint_persisted"
	EventCheckpointFailed    EventKind = "checkpoint_failed"
	EventQualityEvaluated    EventKind = "quality_evaluated"
	EventJobFinished         EventKind = "job_finished"
)

// Event is a structured record of something that happened during a run.
// Only the fields relevant to Kind are set.
type Event struct {
	Kind     EventKind
	JobID    string
	Stage    StageName
	Status   domain.JobStatus
	Duration time.Duration
	Err      error
	// Degraded is the number of optional images that were dropped.
	Degraded int
	Score    float64
	Strategy string
	Time     time.Time
}

// Observer receives events. Implementations must be safe for concurrent use
// because stages of one level report concurrently.
type Observer interface {
	Observe(Event)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(Event)

func (f ObserverFunc) Observe(e Event) { f(e) }

// Observers fans an event out to every observer in order.
type Observers []Observer

func (o Observers) Observe(e Event) {
	for _, obs := range o {
		if obs != nil {
			obs.Observe(e)
		}
	}
}

// LogObserver writes events as zerolog lines.
type LogObserver struct {
	Logger zerolog.Logger
}

func (l LogObserver) Observe(e Event) {
	var ev *zerolog.Event
	switch e.Kind {
	case EventStageFailed, EventCheckpointFailed:
		ev = l.Logger.Error().Err(e.Err)
	case EventImagesDegraded:
		ev = l.Logger.Warn().Int("degraded", e.Degraded)
	case EventStageStarted, EventCheckpointPersisted:
		ev = l.Logger.Debug()
	default:
		ev = l.Logger.Info()
	}
	ev = ev.Str("job_id", e.JobID)
	if e.Stage != "" {
		ev = ev.Str("stage", string(e.Stage))
	}
	if e.Status != "" {
		ev = ev.Str("status", string(e.Status))
	}
	if e.Duration > 0 {
		ev = ev.Int64("duration_ms", e.Duration.Milliseconds())
	}
	if e.Strategy != "" {
		ev = ev.Str("strategy", e.Strategy)
	}
	if e.Kind == EventQualityEvaluated || e.Kind == EventJobFinished {
		ev = ev.Float64("score", e.Score)
	}
	ev.Msg("pipeline: " + string(e.Kind))
}

// MetricsObserver counts events in a registry.
type MetricsObserver struct {
	Registry *observability.Registry
}

func (m MetricsObserver) Observe(e Event) {
	if m.Registry == nil {
		return
	}
	switch e.Kind {
	case EventStageCompleted, EventStageFailed:
		outcome := "ok"
		if e.Kind == EventStageFailed {
			outcome = "failed"
		}
		m.Registry.Inc("pipeline_stage_total", map[string]string{"stage": string(e.Stage), "outcome": outcome})
		m.Registry.ObserveDuration("pipeline_stage_duration", map[string]string{"stage": string(e.Stage)}, e.Duration)
	case EventImagesDegraded:
		m.Registry.Add("pipeline_image_degraded_total", nil, float64(e.Degraded))
	case EventCheckpointFailed:
		m.Registry.Inc("pipeline_checkpoint_failures_total", nil)
	case EventQualityEvaluated:
		m.Registry.Set("pipeline_quality_score_last", nil, e.Score)
	case EventJobFinished:
		m.Registry.Inc("pipeline_jobs_total", map[string]string{"status": string(e.Status)})
	}
}
