package pipeline

import "time"

// Status is the run-level state machine value.
type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// StageStatus is the per-stage terminal state.
type StageStatus string

const (
	StageOK     StageStatus = "ok"
	StageFailed StageStatus = "failed"
)

const stateFilename = "state.json"

// StageResult records one executed stage: where its output landed or why it
// failed.
type StageResult struct {
	Stage      string      `json:"stage"`
	Status     StageStatus `json:"status"`
	OutputDir  string      `json:"output_dir,omitempty"`
	Error      string      `json:"error,omitempty"`
	StartedAt  time.Time   `json:"started_at"`
	FinishedAt time.Time   `json:"finished_at"`
}

// Duration is the stage's wall time.
func (r StageResult) Duration() time.Duration { return r.FinishedAt.Sub(r.StartedAt) }

// RunState is the persisted run context snapshot: one per run directory,
// rewritten after every transition. The executor is the only writer.
type RunState struct {
	RunID        string                 `json:"run_id"`
	Status       Status                 `json:"status"`
	CurrentStage string                 `json:"current_stage,omitempty"`
	FailedStage  string                 `json:"failed_stage,omitempty"`
	Reason       string                 `json:"reason,omitempty"`
	Anchor       string                 `json:"anchor,omitempty"`
	StageResults map[string]StageResult `json:"stage_results"`
	History      []string               `json:"history"`
	StartedAt    time.Time              `json:"started_at"`
	FinishedAt   time.Time              `json:"finished_at,omitempty"`
}

// newRunState creates a pending state for a fresh run.
func newRunState(runID string, now time.Time) *RunState {
	return &RunState{
		RunID:        runID,
		Status:       StatusPending,
		StageResults: make(map[string]StageResult),
		StartedAt:    now,
	}
}

// recordStage stores a stage outcome and appends it to the history.
func (s *RunState) recordStage(res StageResult) {
	s.StageResults[res.Stage] = res
	s.History = append(s.History, res.Stage)
}

// LoadState reads the persisted state from a run directory. Returns nil when
// no state file exists.
func LoadState(runDir string) (*RunState, error) {
	return ReadArtifact[RunState](runDir, stateFilename)
}

// saveState persists the state to the run directory. The executor calls this
// before every stage transition, so a crash leaves an accurate snapshot.
func saveState(runDir string, s *RunState) error {
	return WriteArtifact(runDir, stateFilename, s)
}
