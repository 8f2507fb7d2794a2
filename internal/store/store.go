// Package store persists run history: one row per pipeline run and one per
// executed stage. The CLI and the scheduler read it; the pipeline runner
// writes it through the Recorder adapter.
package store

import (
	"time"

	"sragwatch/internal/pipeline"
)

// Run is one pipeline execution record.
type Run struct {
	ID          string
	Status      pipeline.Status
	FailedStage string
	Reason      string
	Anchor      string
	StartedAt   time.Time
	FinishedAt  time.Time // zero while running
}

// StageRow is one executed stage of a run.
type StageRow struct {
	RunID      string
	Stage      string
	Status     pipeline.StageStatus
	OutputDir  string
	Error      string
	DurationMS int64
}

// Store is the persistence facade. Implementations: SQLite and in-memory.
type Store interface {
	CreateRun(run *Run) error
	FinishRun(id string, status pipeline.Status, failedStage, reason, anchor string, finishedAt time.Time) error
	SaveStage(row *StageRow) error
	ListRuns(limit int) ([]*Run, error)
	ListStages(runID string) ([]*StageRow, error)
	Close() error
}

// Recorder adapts a Store to the pipeline's Recorder interface.
type Recorder struct {
	S Store
}

// RunStarted inserts the pending run row.
func (r Recorder) RunStarted(s *pipeline.RunState) error {
	return r.S.CreateRun(&Run{
		ID:        s.RunID,
		Status:    pipeline.StatusRunning,
		StartedAt: s.StartedAt,
	})
}

// StageFinished records one stage outcome.
func (r Recorder) StageFinished(runID string, res pipeline.StageResult) error {
	return r.S.SaveStage(&StageRow{
		RunID:      runID,
		Stage:      res.Stage,
		Status:     res.Status,
		OutputDir:  res.OutputDir,
		Error:      res.Error,
		DurationMS: res.Duration().Milliseconds(),
	})
}

// RunFinished stamps the terminal status.
func (r Recorder) RunFinished(s *pipeline.RunState) error {
	return r.S.FinishRun(s.RunID, s.Status, s.FailedStage, s.Reason, s.Anchor, s.FinishedAt)
}
