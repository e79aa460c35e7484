package observability

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryCountersAndGauges(t *testing.T) {
	r := NewRegistry()
	labels := map[string]string{"stage": "writing", "outcome": "ok"}
	r.Inc("pipeline_stage_total", labels)
	r.Add("pipeline_stage_total", map[string]string{"outcome": "ok", "stage": "writing"}, 2)
	r.Add("pipeline_stage_total", labels, 0)
	r.Set("pipeline_inflight", nil, 3)

	assert.Equal(t, 3.0, r.Value("pipeline_stage_total", labels))
	assert.Equal(t, 3.0, r.Value("pipeline_inflight", nil))

	labels["stage"] = "mutated"
	assert.Equal(t, 3.0, r.Value("pipeline_stage_total", map[string]string{"stage": "writing", "outcome": "ok"}))
}

func TestRegistryObserveDuration(t *testing.T) {
	r := NewRegistry()
	l := map[string]string{"stage": "image"}
	r.ObserveDuration("pipeline_stage_duration", l, 1500*time.Millisecond)
	r.ObserveDuration("pipeline_stage_duration", l, 500*time.Millisecond)

	assert.Equal(t, 2000.0, r.Value("pipeline_stage_duration_ms_sum", l))
	assert.Equal(t, 2.0, r.Value("pipeline_stage_duration_count", l))
	assert.Equal(t, 500.0, r.Value("pipeline_stage_duration_ms_last", l))
}

func TestRenderPrometheus(t *testing.T) {
	r := NewRegistry()
	r.Inc("pipeline_jobs_total", map[string]string{"status": "completed"})
	r.Inc("pipeline_jobs_total", map[string]string{"status": "failed"})
	r.Set("bad-name", nil, 1.5)

	out := r.RenderPrometheus()
	assert.Equal(t, 1, strings.Count(out, "# TYPE pipeline_jobs_total counter"))
	assert.Contains(t, out, `pipeline_jobs_total{status="completed"} 1`)
	assert.Contains(t, out, `pipeline_jobs_total{status="failed"} 1`)
	assert.Contains(t, out, "bad_name 1.5")
	assert.Less(t, strings.Index(out, `status="completed"`), strings.Index(out, `status="failed"`))
}

func TestRegistryConcurrentUse(t *testing.T) {
	r := NewRegistry()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r.Inc("hits", nil)
		}()
	}
	wg.Wait()
	assert.Equal(t, 50.0, r.Value("hits", nil))
}

func TestHandlerServesText(t *testing.T) {
	r := NewRegistry()
	r.Inc("hits", nil)
	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/plain")
	assert.Contains(t, rec.Body.String(), "hits 1")
}
