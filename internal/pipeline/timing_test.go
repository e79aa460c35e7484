package pipeline

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"articlegen/internal/domain"
	"articlegen/internal/quality"
)

func TestPhaseTimingsMarshalKeepsOrder(t *testing.T) {
	var p PhaseTimings
	p.Add("research", 1500*time.Millisecond)
	p.Add("strategy", 20*time.Millisecond)
	p.Add("contentGeneration", -time.Second)

	b, err := json.Marshal(p)
	require.NoError(t, err)
	assert.Equal(t, `{"research":1500,"strategy":20,"contentGeneration":0}`, string(b))

	assert.Equal(t, 1520*time.Millisecond, p.Sum("research", "strategy", "missing"))
	_, ok := p.Get("missing")
	assert.False(t, ok)
}

func TestCheckpointMetadata(t *testing.T) {
	var timings PhaseTimings
	timings.Add("research", time.Second)
	cp := Checkpoint{
		Status:       domain.JobStatusResearchCompleted,
		CurrentPhase: "strategy",
		RetryCount:   1,
		Outputs:      Outputs{Research: &domain.Research{Summary: "s"}},
		PhaseTimings: timings,
		Quality:      &quality.Report{Score: 80, Threshold: 75, Accepted: true},
	}

	md, err := cp.Metadata()
	require.NoError(t, err)
	assert.Equal(t, "strategy", md.CurrentPhase)
	assert.Equal(t, 1, md.RetryCount)
	assert.JSONEq(t, `{"research":{"summary":"s","key_points":null}}`, string(md.Checkpoints))
	assert.JSONEq(t, `{"research":1000}`, string(md.PhaseTimings))
	assert.Contains(t, string(md.Quality), `"accepted":true`)

	raw, err := cp.ResultJSON()
	require.NoError(t, err)
	assert.Nil(t, raw)
}

func TestStageErrorClassification(t *testing.T) {
	se := newStageError(StageImage, errors.Join(errors.New("featured"), ErrMandatoryAsset))
	assert.Equal(t, KindMandatoryAsset, se.Kind)

	inner := &StageError{Stage: StageResearch, Kind: KindConfig, Err: errors.New("x")}
	assert.Same(t, inner, newStageError(StageWriting, inner))

	assert.Contains(t, se.Error(), "stage image mandatory_asset")
}

func TestParallelSpeedupIgnoresConfigAndGate(t *testing.T) {
	var p PhaseTimings
	p.Add(string(StageStaticConfig), 5*time.Second)
	p.Add(string(StageResearch), time.Second)
	p.Add(string(StageStrategy), time.Second)
	p.Add(string(StageWriting), 4*time.Second)
	p.Add(string(StageImage), 4*time.Second)
	p.Add(PhaseContentGeneration, 4*time.Second)
	p.Add(string(StageMeta), time.Second)
	p.Add(string(StageQualityGate), 3*time.Second)

	// levels: research 1s, strategy 1s, writing||image 4s, meta 1s
	assert.InDelta(t, 11.0/7.0, parallelSpeedup(p, 7*time.Second), 1e-9)
	assert.Equal(t, 1.0, parallelSpeedup(p, 0))
}
