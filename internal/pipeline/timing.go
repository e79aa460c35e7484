package pipeline

import (
	"bytes"
	"encoding/json"
	"time"
)

// PhaseContentGeneration is the wall time of the concurrent Writing and
// Image level.
const PhaseContentGeneration = "contentGeneration"

// Values of metadata.current_phase outside of the stage names.
const (
	PhaseDone = "done"
)

// PhaseTiming is one measured phase.
type PhaseTiming struct {
	Name     string
	Duration time.Duration
}

// PhaseTimings is an append-only list kept in dependency order.
type PhaseTimings []PhaseTiming

// Add appends a timing; negative durations are stored as zero.
func (p *PhaseTimings) Add(name string, d time.Duration) {
	if d < 0 {
		d = 0
	}
	*p = append(*p, PhaseTiming{Name: name, Duration: d})
}

// Get returns the duration recorded under name.
func (p PhaseTimings) Get(name string) (time.Duration, bool) {
	for _, t := range p {
		if t.Name == name {
			return t.Duration, true
		}
	}
	return 0, false
}

// Sum adds up the durations of names that are present.
func (p PhaseTimings) Sum(names ...string) time.Duration {
	var total time.Duration
	for _, n := range names {
		if d, ok := p.Get(n); ok {
			total += d
		}
	}
	return total
}

// MarshalJSON writes an object of milliseconds in recorded order.
func (p PhaseTimings) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, t := range p {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(t.Name)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		ms, _ := json.Marshal(t.Duration.Milliseconds())
		buf.Write(ms)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (p PhaseTimings) clone() PhaseTimings {
	return append(PhaseTimings(nil), p...)
}
