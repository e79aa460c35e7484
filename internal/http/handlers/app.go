// Package handlers serves the read-only job status API.
package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog"

	"articlegen/internal/domain"
)

// JobReader is the part of domain.JobRepository the API needs.
type JobReader interface {
	GetByID(ctx context.Context, jobID string) (*domain.Job, error)
}

type App struct {
	Jobs   JobReader
	Ping   func(ctx context.Context) error
	Logger zerolog.Logger
}

func NewApp(jobs JobReader, ping func(ctx context.Context) error, logger zerolog.Logger) *App {
	return &App{Jobs: jobs, Ping: ping, Logger: logger}
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *App) error(w http.ResponseWriter, code int, msg string) {
	a.json(w, code, map[string]string{"error": msg})
}
