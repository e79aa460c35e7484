package domain

import "errors"

var (
	ErrNotFound              = errors.New("not found")
	ErrNoJobAvailable        = errors.New("no job available")
	ErrProviderFailure       = errors.New("provider failure")
	ErrProviderNotConfigured = errors.New("provider not configured")
	ErrEmptyCompletion       = errors.New("empty completion")
	ErrInvalidArticleRequest = errors.New("invalid article request")
)
