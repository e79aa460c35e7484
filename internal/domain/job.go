package domain

import (
	"encoding/json"
	"time"
)

// JobStatus enumerates job lifecycle states. The ordering of the constants
// mirrors the order in which a successful run visits them.
type JobStatus string

const (
	JobStatusPending           JobStatus = "pending"
	JobStatusProcessing        JobStatus = "processing"
	JobStatusResearchCompleted JobStatus = "research_completed"
	JobStatusStrategyCompleted JobStatus = "strategy_completed"
	JobStatusContentCompleted  JobStatus = "content_completed"
	JobStatusMetaCompleted     JobStatus = "meta_completed"
	JobStatusCompleted         JobStatus = "completed"
	JobStatusQualityFailed     JobStatus = "quality_failed"
	JobStatusFailed            JobStatus = "failed"
)

// IsTerminal reports whether no further transitions are expected.
func (s JobStatus) IsTerminal() bool {
	switch s {
	case JobStatusCompleted, JobStatusQualityFailed, JobStatusFailed:
		return true
	default:
		return false
	}
}

// IsInFlight reports whether a worker currently owns the job. The watchdog
// only inspects jobs in one of these states.
func (s JobStatus) IsInFlight() bool {
	switch s {
	case JobStatusProcessing, JobStatusResearchCompleted, JobStatusStrategyCompleted,
		JobStatusContentCompleted, JobStatusMetaCompleted:
		return true
	default:
		return false
	}
}

// Valid reports whether s is one of the known statuses.
func (s JobStatus) Valid() bool {
	return s == JobStatusPending || s.IsInFlight() || s.IsTerminal()
}

// ArticleRequest is the user supplied input of a generation job.
type ArticleRequest struct {
	Topic             string   `json:"topic"`
	PrimaryKeyword    string   `json:"primary_keyword"`
	SecondaryKeywords []string `json:"secondary_keywords,omitempty"`
	Audience          string   `json:"audience,omitempty"`
	Locale            string   `json:"locale,omitempty"`
	Notes             string   `json:"notes,omitempty"`
}

// Job is the persisted record of an article generation run.
type Job struct {
	ID           string
	UserID       string
	Status       JobStatus
	Request      ArticleRequest
	StartedAt    *time.Time
	Metadata     JobMetadata
	Result       json.RawMessage
	ErrorMessage string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// JobMetadata is the snapshot stored next to the job status. CurrentPhase and
// StartedAt on the job are read by the stuck-job watchdog; RetryCount is owned
// by the watchdog and carried through unchanged by the pipeline.
type JobMetadata struct {
	CurrentPhase string          `json:"current_phase"`
	RetryCount   int             `json:"retry_count"`
	Checkpoints  json.RawMessage `json:"checkpoints,omitempty"`
	PhaseTimings json.RawMessage `json:"phase_timings,omitempty"`
	Quality      json.RawMessage `json:"quality,omitempty"`
	Error        string          `json:"error,omitempty"`
}
