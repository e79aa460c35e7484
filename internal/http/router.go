package httpapi

import (
	stdhttp "net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"articlegen/internal/http/handlers"
	"articlegen/internal/middleware"
)

// Options configures the status API router. Zero values disable the
// optional parts.
type Options struct {
	Logger          zerolog.Logger
	Metrics         stdhttp.Handler
	CORSOrigins     []string
	RateLimitPerMin int
}

func NewRouter(app *handlers.App, opts Options) stdhttp.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.RequestID,
		chimw.RealIP,
		chimw.Recoverer,
		middleware.Logger(opts.Logger),
		middleware.CORS(opts.CORSOrigins),
	)

	r.Get("/v1/healthz", app.Health)
	r.Route("/v1/jobs", func(r chi.Router) {
		r.Use(middleware.RateLimit(opts.RateLimitPerMin, time.Minute))
		r.Get("/{id}", app.GetJob)
	})
	if opts.Metrics != nil {
		r.Method(stdhttp.MethodGet, "/metrics", opts.Metrics)
	}

	return r
}

// NewMetricsRouter serves the worker's metrics and liveness endpoints.
func NewMetricsRouter(metrics stdhttp.Handler) stdhttp.Handler {
	r := chi.NewRouter()
	r.Use(chimw.Recoverer)
	r.Get("/v1/healthz", func(w stdhttp.ResponseWriter, _ *stdhttp.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}` + "\n"))
	})
	r.Method(stdhttp.MethodGet, "/metrics", metrics)
	return r
}
