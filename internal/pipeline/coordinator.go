package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"articlegen/internal/domain"
	"articlegen/internal/quality"
	"articlegen/internal/staticcfg"
)

// ConfigLoader fetches the static configuration of a run. Any error fails
// the run before the first stage.
type ConfigLoader interface {
	Load(ctx context.Context, userID string) (*staticcfg.StaticConfig, error)
}

// Stages is the set of stage implementations the coordinator drives.
type Stages struct {
	Research Stage[ResearchInput, domain.Research]
	Strategy Stage[StrategyInput, domain.Strategy]
	Writing  Stage[WritingInput, domain.Article]
	Image    Stage[ImageInput, domain.ImageSet]
	Meta     Stage[MetaInput, domain.Meta]
}

func (s Stages) validate() error {
	switch {
	case s.Research == nil:
		return errors.New("pipeline: research stage is required")
	case s.Strategy == nil:
		return errors.New("pipeline: strategy stage is required")
	case s.Writing == nil:
		return errors.New("pipeline: writing stage is required")
	case s.Image == nil:
		return errors.New("pipeline: image stage is required")
	case s.Meta == nil:
		return errors.New("pipeline: meta stage is required")
	}
	return nil
}

// Options configures a Coordinator. Zero values are usable.
type Options struct {
	Observer Observer
	Gate     *quality.Gate
}

// Coordinator executes article jobs. One Execute call owns one job; calls
// for different jobs share no mutable state.
type Coordinator struct {
	config      ConfigLoader
	stages      Stages
	checkpoints CheckpointWriter
	gate        *quality.Gate
	observer    Observer
}

// NewCoordinator wires a coordinator.
func NewCoordinator(config ConfigLoader, stages Stages, checkpoints CheckpointWriter, opts Options) (*Coordinator, error) {
	if config == nil {
		return nil, errors.New("pipeline: config loader is required")
	}
	if checkpoints == nil {
		return nil, errors.New("pipeline: checkpoint writer is required")
	}
	if err := stages.validate(); err != nil {
		return nil, err
	}
	gate := opts.Gate
	if gate == nil {
		gate = quality.NewGate()
	}
	observer := opts.Observer
	if observer == nil {
		observer = ObserverFunc(func(Event) {})
	}
	return &Coordinator{
		config:      config,
		stages:      stages,
		checkpoints: checkpoints,
		gate:        gate,
		observer:    observer,
	}, nil
}

// ImageSummary reports how the optional images fared.
type ImageSummary struct {
	Attempted int   `json:"attempted"`
	Succeeded int   `json:"succeeded"`
	Failed    []int `json:"failed,omitempty"`
}

// Result is the outcome of a run that reached the quality gate. Success is
// true only when the gate accepted the article.
type Result struct {
	JobID           string           `json:"job_id"`
	Status          domain.JobStatus `json:"status"`
	Success         bool             `json:"success"`
	Outputs         Outputs          `json:"outputs"`
	Quality         quality.Report   `json:"quality"`
	PhaseTimings    PhaseTimings     `json:"phase_timings"`
	WallClock       time.Duration    `json:"-"`
	WallClockMS     int64            `json:"wall_clock_ms"`
	// ParallelSpeedup is the summed stage time over the wall time of the
	// stage levels only. Config loading, checkpoint writes and the quality
	// gate are outside both sides, so it is not relative to WallClockMS.
	ParallelSpeedup float64          `json:"parallel_speedup"`
	OutlineStrategy string           `json:"outline_strategy,omitempty"`
	Images          ImageSummary     `json:"images"`
}

// run is the per-call state of Execute.
type run struct {
	job       JobInput
	cfg       *staticcfg.StaticConfig
	started   time.Time
	phase     string
	committed Outputs
	timings   PhaseTimings
	// levelWall is the summed wall time of the stage levels.
	levelWall time.Duration

	// written by the stage nodes, one field per node
	research Outcome[domain.Research]
	strategy Outcome[domain.Strategy]
	writing  Outcome[domain.Article]
	image    Outcome[domain.ImageSet]
	meta     Outcome[domain.Meta]
}

func (r *run) checkpoint(status domain.JobStatus) Checkpoint {
	return Checkpoint{
		Status:       status,
		CurrentPhase: r.phase,
		RetryCount:   r.job.RetryCount,
		Outputs:      r.committed,
		PhaseTimings: r.timings.clone(),
	}
}

// Execute runs the job to a terminal status. A run that finished but did not
// clear the quality gate returns a Result with Status quality_failed and a
// nil error. Only an unrecoverable stage failure returns an error, always a
// *StageError, after the job was checkpointed as failed.
func (c *Coordinator) Execute(ctx context.Context, job JobInput) (*Result, error) {
	r := &run{job: job, started: time.Now(), phase: string(StageStaticConfig)}
	c.persist(ctx, r.job.JobID, r.checkpoint(domain.JobStatusProcessing))

	c.emit(Event{Kind: EventStageStarted, JobID: job.JobID, Stage: StageStaticConfig})
	cfgStart := time.Now()
	cfg, err := c.config.Load(ctx, job.UserID)
	if err == nil && cfg == nil {
		err = errors.New("empty static config")
	}
	if err != nil {
		se := &StageError{Stage: StageStaticConfig, Kind: KindConfig, Err: err}
		c.emit(Event{Kind: EventStageFailed, JobID: job.JobID, Stage: StageStaticConfig, Duration: time.Since(cfgStart), Err: se})
		return nil, c.fail(ctx, r, se)
	}
	c.emit(Event{Kind: EventStageCompleted, JobID: job.JobID, Stage: StageStaticConfig, Duration: time.Since(cfgStart)})
	r.cfg = cfg

	graph, err := c.graph(r)
	if err != nil {
		return nil, c.fail(ctx, r, &StageError{Stage: StageStaticConfig, Kind: KindConfig, Err: err})
	}
	levels := graph.Levels()
	r.phase = levelPhase(levels[0])
	c.persist(ctx, job.JobID, r.checkpoint(domain.JobStatusProcessing))

	err = graph.Run(ctx, func(res LevelResult) error {
		c.settle(ctx, r, res, levels)
		return nil
	})
	if err != nil {
		return nil, c.fail(ctx, r, newStageError(r.phaseStage(), err))
	}

	report := c.evaluate(r)
	return c.finish(ctx, r, report), nil
}

func (c *Coordinator) graph(r *run) (*Graph, error) {
	models := r.cfg.Models
	req := r.job.Request
	return NewGraph(
		Node{Name: StageResearch, Run: func(ctx context.Context) error {
			c.emit(Event{Kind: EventStageStarted, JobID: r.job.JobID, Stage: StageResearch})
			r.research = runStage(ctx, c.stages.Research, ResearchInput{
				Request: req,
				Brand:   r.cfg.Brand,
				Recent:  r.cfg.Recent,
			}, models.For(string(StageResearch)))
			return outcomeErr(r.research.Err)
		}},
		Node{Name: StageStrategy, Deps: []StageName{StageResearch}, Run: func(ctx context.Context) error {
			c.emit(Event{Kind: EventStageStarted, JobID: r.job.JobID, Stage: StageStrategy})
			r.strategy = runStage(ctx, c.stages.Strategy, StrategyInput{
				Request:  req,
				Research: *r.committed.Research,
				Brand:    r.cfg.Brand,
				Workflow: r.cfg.Workflow,
				Recent:   r.cfg.Recent,
			}, models.For(string(StageStrategy)))
			return outcomeErr(r.strategy.Err)
		}},
		Node{Name: StageWriting, Deps: []StageName{StageStrategy}, Run: func(ctx context.Context) error {
			c.emit(Event{Kind: EventStageStarted, JobID: r.job.JobID, Stage: StageWriting})
			r.writing = runStage(ctx, c.stages.Writing, WritingInput{
				Request:  req,
				Strategy: *r.committed.Strategy,
				Brand:    r.cfg.Brand,
				Workflow: r.cfg.Workflow,
				Recent:   r.cfg.Recent,
			}, models.For(string(StageWriting)))
			return outcomeErr(r.writing.Err)
		}},
		Node{Name: StageImage, Deps: []StageName{StageStrategy}, Run: func(ctx context.Context) error {
			c.emit(Event{Kind: EventStageStarted, JobID: r.job.JobID, Stage: StageImage})
			r.image = runStage(ctx, c.stages.Image, ImageInput{
				Request:       req,
				Strategy:      *r.committed.Strategy,
				Brand:         r.cfg.Brand,
				SectionImages: r.cfg.Workflow.WantsSectionImages(),
			}, models.For(string(StageImage)))
			return outcomeErr(r.image.Err)
		}},
		Node{Name: StageMeta, Deps: []StageName{StageWriting, StageImage}, Run: func(ctx context.Context) error {
			c.emit(Event{Kind: EventStageStarted, JobID: r.job.JobID, Stage: StageMeta})
			r.meta = runStage(ctx, c.stages.Meta, MetaInput{
				Request:          req,
				Strategy:         *r.committed.Strategy,
				Article:          *r.committed.Writing,
				FeaturedImageURL: r.committed.Image.Featured.URL,
			}, models.For(string(StageMeta)))
			return outcomeErr(r.meta.Err)
		}},
	)
}

// outcomeErr keeps a nil *StageError from turning into a non-nil error.
func outcomeErr(se *StageError) error {
	if se == nil {
		return nil
	}
	return se
}

// settle records timings and events for a finished level and, when every
// node succeeded, commits the outputs and writes the level checkpoint.
func (c *Coordinator) settle(ctx context.Context, r *run, res LevelResult, levels [][]StageName) {
	for _, n := range res.Nodes {
		r.timings.Add(string(n.Name), n.Duration)
		ev := Event{Kind: EventStageCompleted, JobID: r.job.JobID, Stage: n.Name, Duration: n.Duration}
		if n.Err != nil {
			ev.Kind = EventStageFailed
			ev.Err = n.Err
		}
		if n.Name == StageStrategy && n.Err == nil {
			ev.Strategy = r.strategy.Value.OutlineStrategy
		}
		c.emit(ev)
	}
	if len(res.Nodes) > 1 {
		r.timings.Add(PhaseContentGeneration, res.Wall)
	}
	r.levelWall += res.Wall

	if _, failed := res.Failed(); failed {
		return
	}

	var status domain.JobStatus
	for _, n := range res.Nodes {
		switch n.Name {
		case StageResearch:
			v := r.research.Value
			r.committed.Research = &v
			status = domain.JobStatusResearchCompleted
		case StageStrategy:
			v := r.strategy.Value
			r.committed.Strategy = &v
			status = domain.JobStatusStrategyCompleted
		case StageWriting:
			v := r.writing.Value
			r.committed.Writing = &v
			status = domain.JobStatusContentCompleted
		case StageImage:
			v := r.image.Value
			r.committed.Image = &v
			if v.Degraded() {
				c.emit(Event{Kind: EventImagesDegraded, JobID: r.job.JobID, Stage: StageImage, Degraded: len(v.FailedSections)})
			}
		case StageMeta:
			v := r.meta.Value
			if r.committed.Image != nil && strings.TrimSpace(v.OpenGraph.Image) == "" {
				v.OpenGraph.Image = r.committed.Image.Featured.URL
			}
			r.committed.Meta = &v
			status = domain.JobStatusMetaCompleted
		}
	}

	if res.Index+1 < len(levels) {
		r.phase = levelPhase(levels[res.Index+1])
	} else {
		r.phase = string(StageQualityGate)
	}
	c.persist(ctx, r.job.JobID, r.checkpoint(status))
}

func (c *Coordinator) evaluate(r *run) quality.Report {
	keyword := r.job.Request.PrimaryKeyword
	if r.committed.Strategy != nil && strings.TrimSpace(r.committed.Strategy.PrimaryKeyword) != "" {
		keyword = r.committed.Strategy.PrimaryKeyword
	}
	in := quality.Input{
		PrimaryKeyword: keyword,
		Workflow:       r.cfg.Workflow,
		SiteURL:        r.cfg.Brand.SiteURL,
		Recent:         r.cfg.Recent,
	}
	if r.committed.Writing != nil {
		in.Article = *r.committed.Writing
	}
	if r.committed.Image != nil {
		in.Images = *r.committed.Image
	}
	if r.committed.Meta != nil {
		in.Meta = *r.committed.Meta
	}

	start := time.Now()
	report := c.gate.Evaluate(in)
	r.timings.Add(string(StageQualityGate), time.Since(start))
	c.emit(Event{Kind: EventQualityEvaluated, JobID: r.job.JobID, Stage: StageQualityGate, Score: report.Score})
	return report
}

func (c *Coordinator) finish(ctx context.Context, r *run, report quality.Report) *Result {
	status := domain.JobStatusQualityFailed
	if report.Accepted {
		status = domain.JobStatusCompleted
	}

	wall := time.Since(r.started)
	res := &Result{
		JobID:           r.job.JobID,
		Status:          status,
		Success:         report.Accepted,
		Outputs:         r.committed,
		Quality:         report,
		PhaseTimings:    r.timings.clone(),
		WallClock:       wall,
		WallClockMS:     wall.Milliseconds(),
		ParallelSpeedup: parallelSpeedup(r.timings, r.levelWall),
	}
	if s := r.committed.Strategy; s != nil {
		res.OutlineStrategy = s.OutlineStrategy
	}
	if img := r.committed.Image; img != nil {
		res.Images = ImageSummary{
			Attempted: img.Attempted,
			Succeeded: len(img.Sections),
			Failed:    append([]int(nil), img.FailedSections...),
		}
	}

	r.phase = PhaseDone
	cp := r.checkpoint(status)
	cp.Quality = &report
	cp.Result = res
	c.persist(ctx, r.job.JobID, cp)
	c.emit(Event{Kind: EventJobFinished, JobID: r.job.JobID, Status: status, Duration: wall, Score: report.Score})
	return res
}

// fail writes the failed checkpoint with the outputs committed so far and
// returns se. The write is not tied to ctx cancellation.
func (c *Coordinator) fail(ctx context.Context, r *run, se *StageError) error {
	cp := r.checkpoint(domain.JobStatusFailed)
	cp.Error = se.Error()
	c.persist(context.WithoutCancel(ctx), r.job.JobID, cp)
	c.emit(Event{Kind: EventJobFinished, JobID: r.job.JobID, Stage: se.Stage, Status: domain.JobStatusFailed, Duration: time.Since(r.started), Err: se})
	return se
}

// persist writes cp. A failed write is reported to the observer and does not
// stop the run.
func (c *Coordinator) persist(ctx context.Context, jobID string, cp Checkpoint) {
	if err := c.checkpoints.Persist(ctx, jobID, cp); err != nil {
		c.emit(Event{Kind: EventCheckpointFailed, JobID: jobID, Status: cp.Status, Err: fmt.Errorf("persist checkpoint: %w", err)})
		return
	}
	c.emit(Event{Kind: EventCheckpointPersisted, JobID: jobID, Status: cp.Status})
}

func (c *Coordinator) emit(e Event) {
	if e.Time.IsZero() {
		e.Time = time.Now()
	}
	c.observer.Observe(e)
}

// phaseStage maps the running phase back to a stage for error reporting.
func (r *run) phaseStage() StageName {
	if r.phase == PhaseContentGeneration {
		return StageWriting
	}
	return StageName(r.phase)
}

func levelPhase(level []StageName) string {
	if len(level) == 1 {
		return string(level[0])
	}
	return PhaseContentGeneration
}

// parallelSpeedup divides the summed stage durations by the wall time of the
// stage levels. It is 1 for a fully sequential run.
func parallelSpeedup(t PhaseTimings, levelWall time.Duration) float64 {
	if levelWall <= 0 {
		return 1
	}
	sum := t.Sum(string(StageResearch), string(StageStrategy), string(StageWriting), string(StageImage), string(StageMeta))
	return float64(sum) / float64(levelWall)
}
