package repo

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"articlegen/internal/domain"
	"articlegen/internal/infra"
	"articlegen/internal/pipeline"
	"articlegen/internal/sqlinline"
)

// JobRepositoryPG implements domain.JobRepository and
// pipeline.CheckpointWriter over the article_jobs table.
type JobRepositoryPG struct {
	sql        infra.SQLExecutor
	staleAfter time.Duration
}

// NewJobRepository creates a job repository. Jobs stuck in an in-flight
// status for longer than staleAfter are claimable again; zero disables
// reclaiming.
func NewJobRepository(sql infra.SQLExecutor, staleAfter time.Duration) *JobRepositoryPG {
	return &JobRepositoryPG{sql: sql, staleAfter: staleAfter}
}

// Claim moves the next claimable job to processing.
func (r *JobRepositoryPG) Claim(ctx context.Context) (*domain.Job, error) {
	row := r.sql.QueryRow(ctx, sqlinline.QWorkerClaimJob, int(r.staleAfter/time.Second))
	job, err := scanJob(row)
	if err != nil {
		if infra.IsNoRows(err) {
			return nil, domain.ErrNoJobAvailable
		}
		return nil, fmt.Errorf("claim job: %w", err)
	}
	return job, nil
}

// GetByID fetches a job by its identifier.
func (r *JobRepositoryPG) GetByID(ctx context.Context, jobID string) (*domain.Job, error) {
	job, err := scanJob(r.sql.QueryRow(ctx, sqlinline.QSelectJobByID, jobID))
	if err != nil {
		if infra.IsNoRows(err) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get job: %w", err)
	}
	return job, nil
}

// Persist writes the checkpoint as one UPDATE, so status and metadata never
// disagree.
func (r *JobRepositoryPG) Persist(ctx context.Context, jobID string, cp pipeline.Checkpoint) error {
	md, err := cp.Metadata()
	if err != nil {
		return err
	}
	mdJSON, err := json.Marshal(md)
	if err != nil {
		return fmt.Errorf("encode metadata: %w", err)
	}
	result, err := cp.ResultJSON()
	if err != nil {
		return err
	}
	tag, err := r.sql.Exec(ctx, sqlinline.QPersistCheckpoint,
		jobID,
		string(cp.Status),
		mdJSON,
		nullableBytes(result),
		cp.Error,
	)
	if err != nil {
		return fmt.Errorf("persist checkpoint: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("persist checkpoint %s: %w", jobID, domain.ErrNotFound)
	}
	return nil
}

func scanJob(row pgx.Row) (*domain.Job, error) {
	var (
		job      domain.Job
		status   string
		request  []byte
		metadata []byte
		result   []byte
		errMsg   *string
	)
	if err := row.Scan(
		&job.ID,
		&job.UserID,
		&status,
		&request,
		&job.StartedAt,
		&metadata,
		&result,
		&errMsg,
		&job.CreatedAt,
		&job.UpdatedAt,
	); err != nil {
		return nil, err
	}
	job.Status = domain.JobStatus(status)
	if len(request) > 0 {
		if err := json.Unmarshal(request, &job.Request); err != nil {
			return nil, fmt.Errorf("decode request of job %s: %w", job.ID, err)
		}
	}
	if len(metadata) > 0 {
		if err := json.Unmarshal(metadata, &job.Metadata); err != nil {
			return nil, fmt.Errorf("decode metadata of job %s: %w", job.ID, err)
		}
	}
	if len(result) > 0 {
		job.Result = json.RawMessage(result)
	}
	if errMsg != nil {
		job.ErrorMessage = *errMsg
	}
	return &job, nil
}

func nullableBytes(b []byte) []byte {
	if len(b) == 0 {
		return nil
	}
	return b
}

var (
	_ domain.JobRepository      = (*JobRepositoryPG)(nil)
	_ pipeline.CheckpointWriter = (*JobRepositoryPG)(nil)
)
