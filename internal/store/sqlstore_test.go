package store

import (
	"path/filepath"
	"testing"
	"time"

	"sragwatch/internal/pipeline"
)

func openTestStore(t *testing.T) *SqlStore {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "nested", "test.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSqlStore_RunLifecycle(t *testing.T) {
	s := openTestStore(t)
	started := time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC)

	if err := s.CreateRun(&Run{ID: "run-1", Status: pipeline.StatusRunning, StartedAt: started}); err != nil {
		t.Fatalf("CreateRun: %v", err)
	}
	if err := s.SaveStage(&StageRow{RunID: "run-1", Stage: "download", Status: pipeline.StageOK, OutputDir: "/x/download", DurationMS: 1200}); err != nil {
		t.Fatalf("SaveStage: %v", err)
	}
	if err := s.SaveStage(&StageRow{RunID: "run-1", Stage: "news", Status: pipeline.StageFailed, Error: "timed out", DurationMS: 30000}); err != nil {
		t.Fatalf("SaveStage: %v", err)
	}
	if err := s.FinishRun("run-1", pipeline.StatusFailed, "news", "timed out", "2025-06-14", started.Add(time.Minute)); err != nil {
		t.Fatalf("FinishRun: %v", err)
	}

	runs, err := s.ListRuns(10)
	if err != nil {
		t.Fatalf("ListRuns: %v", err)
	}
	if len(runs) != 1 {
		t.Fatalf("got %d runs", len(runs))
	}
	run := runs[0]
	if run.Status != pipeline.StatusFailed || run.FailedStage != "news" || run.Anchor != "2025-06-14" {
		t.Errorf("run = %+v", run)
	}
	if !run.FinishedAt.Equal(started.Add(time.Minute)) {
		t.Errorf("FinishedAt = %v", run.FinishedAt)
	}

	stages, err := s.ListStages("run-1")
	if err != nil {
		t.Fatalf("ListStages: %v", err)
	}
	if len(stages) != 2 {
		t.Fatalf("got %d stage rows", len(stages))
	}
	if stages[0].Stage != "download" || stages[0].Status != pipeline.StageOK {
		t.Errorf("first stage = %+v", stages[0])
	}
	if stages[1].Error != "timed out" {
		t.Errorf("second stage = %+v", stages[1])
	}
}

func TestSqlStore_FinishUnknownRun(t *testing.T) {
	s := openTestStore(t)
	if err := s.FinishRun("ghost", pipeline.StatusCompleted, "", "", "", time.Now()); err == nil {
		t.Fatal("expected error for unknown run id")
	}
}

func TestSqlStore_ListRunsNewestFirst(t *testing.T) {
	s := openTestStore(t)
	base := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	for i, id := range []string{"a", "b", "c"} {
		if err := s.CreateRun(&Run{ID: id, Status: pipeline.StatusRunning, StartedAt: base.Add(time.Duration(i) * time.Hour)}); err != nil {
			t.Fatalf("CreateRun %s: %v", id, err)
		}
	}
	runs, err := s.ListRuns(2)
	if err != nil {
		t.Fatalf("ListRuns: %v", err)
	}
	if len(runs) != 2 || runs[0].ID != "c" || runs[1].ID != "b" {
		t.Errorf("runs = %v, %v", runs[0].ID, runs[1].ID)
	}
}

func TestRecorder_BridgesPipelineEvents(t *testing.T) {
	mem := NewMemStore()
	rec := Recorder{S: mem}

	state := &pipeline.RunState{RunID: "r", Status: pipeline.StatusRunning, StartedAt: time.Now().UTC()}
	if err := rec.RunStarted(state); err != nil {
		t.Fatalf("RunStarted: %v", err)
	}
	res := pipeline.StageResult{
		Stage: "metrics", Status: pipeline.StageOK, OutputDir: "/x/metrics",
		StartedAt: time.Now(), FinishedAt: time.Now().Add(time.Second),
	}
	if err := rec.StageFinished("r", res); err != nil {
		t.Fatalf("StageFinished: %v", err)
	}
	state.Status = pipeline.StatusCompleted
	state.Anchor = "2025-06-14"
	state.FinishedAt = time.Now().UTC()
	if err := rec.RunFinished(state); err != nil {
		t.Fatalf("RunFinished: %v", err)
	}

	runs, _ := mem.ListRuns(0)
	if len(runs) != 1 || runs[0].Status != pipeline.StatusCompleted || runs[0].Anchor != "2025-06-14" {
		t.Errorf("runs = %+v", runs)
	}
	stages, _ := mem.ListStages("r")
	if len(stages) != 1 || stages[0].DurationMS != 1000 {
		t.Errorf("stages = %+v", stages)
	}
}
