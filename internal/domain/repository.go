package domain

import "context"

// JobRepository defines persistence for article jobs.
type JobRepository interface {
	// Claim moves the oldest pending (or stale) job into processing and
	// returns it. It returns ErrNoJobAvailable when nothing is claimable.
	Claim(ctx context.Context) (*Job, error)
	GetByID(ctx context.Context, jobID string) (*Job, error)
}
