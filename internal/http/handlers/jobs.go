package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"articlegen/internal/domain"
)

// JobStatusResponse is the watchdog and dashboard view of a job.
type JobStatusResponse struct {
	ID           string                `json:"id"`
	UserID       string                `json:"user_id"`
	Status       domain.JobStatus      `json:"status"`
	Terminal     bool                  `json:"terminal"`
	Request      domain.ArticleRequest `json:"request"`
	StartedAt    *time.Time            `json:"started_at,omitempty"`
	CurrentPhase string                `json:"current_phase"`
	RetryCount   int                   `json:"retry_count"`
	PhaseTimings json.RawMessage       `json:"phase_timings,omitempty"`
	Quality      json.RawMessage       `json:"quality,omitempty"`
	Checkpoints  json.RawMessage       `json:"checkpoints,omitempty"`
	Result       json.RawMessage       `json:"result,omitempty"`
	Error        string                `json:"error,omitempty"`
	CreatedAt    time.Time             `json:"created_at"`
	UpdatedAt    time.Time             `json:"updated_at"`
}

// GetJob serves GET /v1/jobs/{id}. Stage outputs are included with
// ?include=checkpoints.
func (a *App) GetJob(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := uuid.Parse(id); err != nil {
		a.error(w, http.StatusBadRequest, "invalid job id")
		return
	}
	job, err := a.Jobs.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			a.error(w, http.StatusNotFound, "job not found")
			return
		}
		a.Logger.Error().Err(err).Str("job_id", id).Msg("http: load job failed")
		a.error(w, http.StatusInternalServerError, "internal error")
		return
	}

	resp := JobStatusResponse{
		ID:           job.ID,
		UserID:       job.UserID,
		Status:       job.Status,
		Terminal:     job.Status.IsTerminal(),
		Request:      job.Request,
		StartedAt:    job.StartedAt,
		CurrentPhase: job.Metadata.CurrentPhase,
		RetryCount:   job.Metadata.RetryCount,
		PhaseTimings: job.Metadata.PhaseTimings,
		Quality:      job.Metadata.Quality,
		Result:       job.Result,
		Error:        firstNonEmpty(job.ErrorMessage, job.Metadata.Error),
		CreatedAt:    job.CreatedAt,
		UpdatedAt:    job.UpdatedAt,
	}
	if wantsCheckpoints(r) {
		resp.Checkpoints = job.Metadata.Checkpoints
	}
	a.json(w, http.StatusOK, resp)
}

func wantsCheckpoints(r *http.Request) bool {
	for _, part := range strings.Split(r.URL.Query().Get("include"), ",") {
		if strings.TrimSpace(part) == "checkpoints" {
			return true
		}
	}
	return false
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
