// Package observability keeps in-process pipeline metrics and renders them in
// the Prometheus text format.
package observability

import (
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Point is one labelled value.
type Point struct {
	Name   string            `json:"name"`
	Labels map[string]string `json:"labels,omitempty"`
	Value  float64           `json:"value"`
}

// Snapshot is a sorted copy of every series.
type Snapshot struct {
	Counters []Point `json:"counters"`
	Gauges   []Point `json:"gauges"`
}

type series struct {
	name   string
	labels map[string]string
	value  float64
}

// Registry is a mutex guarded set of counters and gauges. It is safe for
// concurrent use.
type Registry struct {
	mu       sync.Mutex
	counters map[string]series
	gauges   map[string]series
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		counters: make(map[string]series),
		gauges:   make(map[string]series),
	}
}

// Add increments the counter name by delta.
func (r *Registry) Add(name string, labels map[string]string, delta float64) {
	if delta == 0 {
		return
	}
	key, owned := seriesKey(name, labels)
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.counters[key]
	if !ok {
		s = series{name: name, labels: owned}
	}
	s.value += delta
	r.counters[key] = s
}

// Inc increments the counter name by one.
func (r *Registry) Inc(name string, labels map[string]string) {
	r.Add(name, labels, 1)
}

// Set stores value in the gauge name.
func (r *Registry) Set(name string, labels map[string]string, value float64) {
	key, owned := seriesKey(name, labels)
	r.mu.Lock()
	defer r.mu.Unlock()
	r.gauges[key] = series{name: name, labels: owned, value: value}
}

// ObserveDuration records d as a summary: name_ms_sum and name_count
// counters plus a name_ms_last gauge.
func (r *Registry) ObserveDuration(name string, labels map[string]string, d time.Duration) {
	ms := float64(d) / float64(time.Millisecond)
	r.Add(name+"_ms_sum", labels, ms)
	r.Add(name+"_count", labels, 1)
	r.Set(name+"_ms_last", labels, ms)
}

// Value returns the counter (or, failing that, gauge) value of a series.
func (r *Registry) Value(name string, labels map[string]string) float64 {
	key, _ := seriesKey(name, labels)
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.counters[key]; ok {
		return s.value
	}
	return r.gauges[key].value
}

// Snapshot copies every series.
func (r *Registry) Snapshot() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := Snapshot{
		Counters: points(r.counters),
		Gauges:   points(r.gauges),
	}
	return out
}

// RenderPrometheus renders the registry in the text exposition format.
func (r *Registry) RenderPrometheus() string {
	snap := r.Snapshot()
	var b strings.Builder
	writeFamily(&b, "counter", snap.Counters)
	writeFamily(&b, "gauge", snap.Gauges)
	return b.String()
}

// Handler serves RenderPrometheus.
func (r *Registry) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; version=0.0.4")
		_, _ = w.Write([]byte(r.RenderPrometheus()))
	})
}

func points(in map[string]series) []Point {
	out := make([]Point, 0, len(in))
	for _, s := range in {
		out = append(out, Point{Name: s.name, Labels: copyLabels(s.labels), Value: s.value})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return labelString(out[i].Labels) < labelString(out[j].Labels)
	})
	return out
}

func writeFamily(b *strings.Builder, kind string, pts []Point) {
	last := ""
	for _, p := range pts {
		name := metricName(p.Name)
		if name != last {
			fmt.Fprintf(b, "# TYPE %s %s\n", name, kind)
			last = name
		}
		b.WriteString(name)
		if ls := labelString(p.Labels); ls != "" {
			b.WriteString("{" + ls + "}")
		}
		b.WriteString(" " + strconv.FormatFloat(p.Value, 'f', -1, 64) + "\n")
	}
}

func seriesKey(name string, labels map[string]string) (string, map[string]string) {
	if len(labels) == 0 {
		return name, nil
	}
	owned := copyLabels(labels)
	return name + "|" + labelString(owned), owned
}

func labelString(labels map[string]string) string {
	if len(labels) == 0 {
		return ""
	}
	keys := make([]string, 0, len(labels))
	for k := range labels {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%q", metricName(k), labels[k]))
	}
	return strings.Join(parts, ",")
}

func copyLabels(in map[string]string) map[string]string {
	if len(in) == 0 {
		return nil
	}
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

func metricName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return "articlegen_metric"
	}
	out := []rune(name)
	for i, r := range out {
		ok := r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (i > 0 && r >= '0' && r <= '9')
		if !ok {
			out[i] = '_'
		}
	}
	return string(out)
}
