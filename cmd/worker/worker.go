package main

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"articlegen/internal/domain"
	"articlegen/internal/pipeline"
)

type jobClaimer interface {
	Claim(ctx context.Context) (*domain.Job, error)
}

type jobExecutor interface {
	Execute(ctx context.Context, job pipeline.JobInput) (*pipeline.Result, error)
}

type jobWorker struct {
	jobs         jobClaimer
	pipeline     jobExecutor
	logger       zerolog.Logger
	pollInterval time.Duration
	jobTimeout   time.Duration
}

func newJobWorker(jobs jobClaimer, exec jobExecutor, logger zerolog.Logger, poll, timeout time.Duration) *jobWorker {
	if poll <= 0 {
		poll = 2 * time.Second
	}
	return &jobWorker{jobs: jobs, pipeline: exec, logger: logger, pollInterval: poll, jobTimeout: timeout}
}

// Run claims and executes jobs until ctx is cancelled. A job that is already
// running when ctx is cancelled is allowed to finish.
func (w *jobWorker) Run(ctx context.Context) error {
	w.logger.Info().Msg("worker: started")
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		job, err := w.jobs.Claim(ctx)
		if err != nil {
			if !errors.Is(err, domain.ErrNoJobAvailable) && ctx.Err() == nil {
				w.logger.Error().Err(err).Msg("worker: failed to claim job")
			}
			if err := w.wait(ctx); err != nil {
				return err
			}
			continue
		}

		w.handleJob(ctx, job)
	}
}

func (w *jobWorker) wait(ctx context.Context) error {
	timer := time.NewTimer(w.pollInterval)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (w *jobWorker) handleJob(ctx context.Context, job *domain.Job) {
	logger := w.logger.With().Str("job_id", job.ID).Logger()
	logger.Info().Int("retry_count", job.Metadata.RetryCount).Msg("worker: picked job")

	jobCtx := context.WithoutCancel(ctx)
	if w.jobTimeout > 0 {
		var cancel context.CancelFunc
		jobCtx, cancel = context.WithTimeout(jobCtx, w.jobTimeout)
		defer cancel()
	}

	result, err := w.pipeline.Execute(jobCtx, pipeline.JobInput{
		JobID:      job.ID,
		UserID:     job.UserID,
		Request:    job.Request,
		RetryCount: job.Metadata.RetryCount,
	})
	if err != nil {
		logger.Error().Err(err).Msg("worker: job failed")
		return
	}
	logger.Info().
		Str("status", string(result.Status)).
		Float64("score", result.Quality.Score).
		Int64("duration_ms", result.WallClockMS).
		Float64("parallel_speedup", result.ParallelSpeedup).
		Msg("worker: job finished")
}
