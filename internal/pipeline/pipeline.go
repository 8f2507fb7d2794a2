// Package pipeline is the stage graph executor: it drives a fixed ordered
// list of named stages over one run directory, persisting run state before
// every transition and stopping at the first failure. Stages are atomic
// units — a run can be aborted between stages, never inside one.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"sragwatch/internal/logging"
)

// Stage is one unit of the pipeline. Run must treat rc as read-mostly: the
// only mutation a stage performs is registering the artifact paths it
// produced, and it only writes files under its own stage directory.
type Stage interface {
	Name() string
	Run(ctx context.Context, rc *RunContext) error
}

// RunContext is the shared state threaded through the stages of one run:
// the run identity, its directory, and the artifact paths produced so far.
type RunContext struct {
	RunID  string
	Dir    string
	Anchor time.Time // set by the metrics stage once derived
	paths  map[string]string
}

// NewRunContext creates the context (and directory name) for a fresh run.
func NewRunContext(runsDir string) *RunContext {
	id := time.Now().UTC().Format("20060102-150405") + "-" + uuid.NewString()[:8]
	return &RunContext{
		RunID: id,
		Dir:   filepath.Join(runsDir, id),
		paths: make(map[string]string),
	}
}

// SetPath registers an artifact produced by a stage under a well-known key.
func (rc *RunContext) SetPath(key, path string) {
	if rc.paths == nil {
		rc.paths = make(map[string]string)
	}
	rc.paths[key] = path
}

// Path returns a registered artifact path. The error names the missing key
// so a wiring mistake surfaces as a stage failure, not a nil-path panic.
func (rc *RunContext) Path(key string) (string, error) {
	p, ok := rc.paths[key]
	if !ok {
		return "", fmt.Errorf("no artifact registered under %q; upstream stage did not run", key)
	}
	return p, nil
}

// StageDir returns (and creates) the subtree the named stage owns.
func (rc *RunContext) StageDir(stage string) (string, error) {
	return EnsureStageDir(rc.Dir, stage)
}

// Recorder receives run lifecycle events; the run-history store implements
// it. A nil Recorder is valid.
type Recorder interface {
	RunStarted(s *RunState) error
	StageFinished(runID string, res StageResult) error
	RunFinished(s *RunState) error
}

// Runner executes stages strictly in declared order.
type Runner struct {
	stages   []Stage
	timeouts map[string]time.Duration
	rec      Recorder
	log      *slog.Logger
	now      func() time.Time
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithTimeouts sets per-stage deadlines. Stages not named run unbounded.
func WithTimeouts(t map[string]time.Duration) RunnerOption {
	return func(r *Runner) { r.timeouts = t }
}

// WithRecorder attaches a run-history recorder.
func WithRecorder(rec Recorder) RunnerOption {
	return func(r *Runner) { r.rec = rec }
}

// WithClock overrides the time source (tests).
func WithClock(now func() time.Time) RunnerOption {
	return func(r *Runner) { r.now = now }
}

// NewRunner builds a Runner over the declared stage order.
func NewRunner(stages []Stage, opts ...RunnerOption) *Runner {
	r := &Runner{
		stages:   stages,
		timeouts: map[string]time.Duration{},
		log:      logging.New("pipeline"),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run executes the pipeline. The returned RunState is terminal — completed
// or failed — and has already been persisted to the run directory; err is
// non-nil exactly when the state is failed, wrapping the failing stage's
// error. Earlier stages' outputs stay on disk either way.
func (r *Runner) Run(ctx context.Context, rc *RunContext) (*RunState, error) {
	state := newRunState(rc.RunID, r.now().UTC())
	if err := saveState(rc.Dir, state); err != nil {
		return nil, err
	}
	if r.rec != nil {
		if err := r.rec.RunStarted(state); err != nil {
			r.log.Warn("run recorder failed on start", "error", err)
		}
	}

	for _, stage := range r.stages {
		// Abort between stages, never inside one.
		if err := ctx.Err(); err != nil {
			return r.fail(rc, state, stage.Name(), fmt.Errorf("run aborted: %w", err))
		}

		state.Status = StatusRunning
		state.CurrentStage = stage.Name()
		if err := saveState(rc.Dir, state); err != nil {
			return nil, err
		}

		r.log.Info("stage starting", "run_id", rc.RunID, "stage", stage.Name())
		res := r.runStage(ctx, stage, rc)
		state.Anchor = anchorString(rc)
		state.recordStage(res)

		if r.rec != nil {
			if err := r.rec.StageFinished(rc.RunID, res); err != nil {
				r.log.Warn("run recorder failed on stage", "stage", res.Stage, "error", err)
			}
		}

		if res.Status == StageFailed {
			return r.fail(rc, state, stage.Name(), fmt.Errorf("%s", res.Error))
		}

		// Persist the completed stage before the next one may start.
		if err := saveState(rc.Dir, state); err != nil {
			return nil, err
		}
		r.log.Info("stage completed", "run_id", rc.RunID, "stage", stage.Name(),
			"duration", res.Duration().Round(time.Millisecond))
	}

	state.Status = StatusCompleted
	state.CurrentStage = ""
	state.FinishedAt = r.now().UTC()
	if err := saveState(rc.Dir, state); err != nil {
		return nil, err
	}
	if r.rec != nil {
		if err := r.rec.RunFinished(state); err != nil {
			r.log.Warn("run recorder failed on finish", "error", err)
		}
	}
	r.log.Info("run completed", "run_id", rc.RunID, "duration", state.FinishedAt.Sub(state.StartedAt).Round(time.Millisecond))
	return state, nil
}

// runStage invokes one stage under its configured timeout.
func (r *Runner) runStage(ctx context.Context, stage Stage, rc *RunContext) StageResult {
	res := StageResult{Stage: stage.Name(), StartedAt: r.now().UTC()}

	stageCtx := ctx
	if timeout, ok := r.timeouts[stage.Name()]; ok && timeout > 0 {
		var cancel context.CancelFunc
		stageCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	err := stage.Run(stageCtx, rc)
	res.FinishedAt = r.now().UTC()
	if err != nil {
		// A deadline hit inside the stage is a stage failure like any other.
		if stageCtx.Err() != nil && ctx.Err() == nil {
			err = fmt.Errorf("stage timed out: %w", err)
		}
		res.Status = StageFailed
		res.Error = err.Error()
		return res
	}
	res.Status = StageOK
	res.OutputDir = StageDir(rc.Dir, stage.Name())
	return res
}

// fail marks the run failed at the given stage and persists the terminal
// state. The returned error carries the stage name for the operator.
func (r *Runner) fail(rc *RunContext, state *RunState, stage string, cause error) (*RunState, error) {
	state.Status = StatusFailed
	state.CurrentStage = ""
	state.FailedStage = stage
	state.Reason = cause.Error()
	state.FinishedAt = r.now().UTC()
	if err := saveState(rc.Dir, state); err != nil {
		r.log.Error("failed to persist terminal state", "error", err)
	}
	if r.rec != nil {
		if err := r.rec.RunFinished(state); err != nil {
			r.log.Warn("run recorder failed on finish", "error", err)
		}
	}
	r.log.Error("run failed", "run_id", rc.RunID, "stage", stage, "reason", cause.Error())
	return state, fmt.Errorf("stage %s: %w", stage, cause)
}

func anchorString(rc *RunContext) string {
	if rc.Anchor.IsZero() {
		return ""
	}
	return rc.Anchor.Format("2006-01-02")
}
