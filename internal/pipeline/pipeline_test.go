package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// fakeStage writes a marker file into its stage dir, then returns fail/blocks.
type fakeStage struct {
	name  string
	fail  error
	block time.Duration // sleep until ctx deadline when > 0
}

func (s *fakeStage) Name() string { return s.name }

func (s *fakeStage) Run(ctx context.Context, rc *RunContext) error {
	dir, err := rc.StageDir(s.name)
	if err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Join(dir, "out.json"), []byte(`{}`), 0644); err != nil {
		return err
	}
	rc.SetPath(s.name, filepath.Join(dir, "out.json"))
	if s.block > 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(s.block):
		}
	}
	return s.fail
}

// memRecorder collects recorder events for assertions.
type memRecorder struct {
	started  int
	stages   []StageResult
	finished []*RunState
}

func (m *memRecorder) RunStarted(*RunState) error { m.started++; return nil }
func (m *memRecorder) StageFinished(_ string, res StageResult) error {
	m.stages = append(m.stages, res)
	return nil
}
func (m *memRecorder) RunFinished(s *RunState) error {
	m.finished = append(m.finished, s)
	return nil
}

func newTestContext(t *testing.T) *RunContext {
	t.Helper()
	rc := NewRunContext(t.TempDir())
	return rc
}

func TestRunner_AllStagesComplete(t *testing.T) {
	rec := &memRecorder{}
	r := NewRunner([]Stage{
		&fakeStage{name: "download"},
		&fakeStage{name: "preprocess"},
		&fakeStage{name: "metrics"},
	}, WithRecorder(rec))
	rc := newTestContext(t)

	state, err := r.Run(context.Background(), rc)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if state.Status != StatusCompleted {
		t.Errorf("status = %s, want completed", state.Status)
	}
	if len(state.History) != 3 {
		t.Errorf("history = %v", state.History)
	}
	if rec.started != 1 || len(rec.stages) != 3 || len(rec.finished) != 1 {
		t.Errorf("recorder events: started=%d stages=%d finished=%d", rec.started, len(rec.stages), len(rec.finished))
	}

	// Terminal state is on disk and matches.
	persisted, err := LoadState(rc.Dir)
	if err != nil {
		t.Fatalf("LoadState: %v", err)
	}
	if persisted == nil || persisted.Status != StatusCompleted {
		t.Errorf("persisted state = %+v", persisted)
	}
}

func TestRunner_FailureStopsPipelineAndKeepsArtifacts(t *testing.T) {
	r := NewRunner([]Stage{
		&fakeStage{name: "download"},
		&fakeStage{name: "preprocess"},
		&fakeStage{name: "metrics"},
		&fakeStage{name: "visualize"},
		&fakeStage{name: "news", fail: errors.New("api unreachable")},
		&fakeStage{name: "report"},
	})
	rc := newTestContext(t)

	state, err := r.Run(context.Background(), rc)
	if err == nil {
		t.Fatal("expected error")
	}
	if state.Status != StatusFailed || state.FailedStage != "news" {
		t.Errorf("state = %s/%s, want failed/news", state.Status, state.FailedStage)
	}
	if state.Reason == "" {
		t.Error("reason must be recorded")
	}

	// Artifacts from every earlier stage remain on disk for diagnosis.
	for _, name := range []string{"download", "preprocess", "metrics", "visualize"} {
		if _, err := os.Stat(filepath.Join(StageDir(rc.Dir, name), "out.json")); err != nil {
			t.Errorf("artifact of %s missing: %v", name, err)
		}
	}
	// The never-reached stage has no result.
	if _, ok := state.StageResults["report"]; ok {
		t.Error("report stage must not have run")
	}
}

func TestRunner_StageTimeoutIsStageFailure(t *testing.T) {
	r := NewRunner(
		[]Stage{&fakeStage{name: "news", block: 5 * time.Second}},
		WithTimeouts(map[string]time.Duration{"news": 20 * time.Millisecond}),
	)
	rc := newTestContext(t)

	state, err := r.Run(context.Background(), rc)
	if err == nil {
		t.Fatal("expected timeout error")
	}
	if state.FailedStage != "news" {
		t.Errorf("failed stage = %s, want news", state.FailedStage)
	}
	if res := state.StageResults["news"]; res.Status != StageFailed {
		t.Errorf("stage result = %+v", res)
	}
}

func TestRunner_AbortBetweenStages(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	first := &fakeStage{name: "download"}
	r := NewRunner([]Stage{first, &fakeStage{name: "preprocess"}})
	rc := newTestContext(t)

	// Cancel after the first stage by wrapping it.
	cancelling := stageFunc{"download", func(c context.Context, rcx *RunContext) error {
		err := first.Run(c, rcx)
		cancel()
		return err
	}}

	r = NewRunner([]Stage{cancelling, &fakeStage{name: "preprocess"}})
	state, err := r.Run(ctx, rc)
	if err == nil {
		t.Fatal("expected abort error")
	}
	if state.Status != StatusFailed || state.FailedStage != "preprocess" {
		t.Errorf("state = %s/%s, want failed/preprocess", state.Status, state.FailedStage)
	}
	if _, ok := state.StageResults["preprocess"]; ok {
		t.Error("aborted stage must not have run")
	}
}

// stageFunc adapts a function to the Stage interface.
type stageFunc struct {
	name string
	fn   func(context.Context, *RunContext) error
}

func (s stageFunc) Name() string                                  { return s.name }
func (s stageFunc) Run(ctx context.Context, rc *RunContext) error { return s.fn(ctx, rc) }

func TestRunContext_PathRegistry(t *testing.T) {
	rc := newTestContext(t)
	if _, err := rc.Path("missing"); err == nil {
		t.Fatal("expected error for unregistered key")
	}
	rc.SetPath("raw_data", "/tmp/x.csv")
	p, err := rc.Path("raw_data")
	if err != nil || p != "/tmp/x.csv" {
		t.Errorf("Path = (%q, %v)", p, err)
	}
}

func TestWriteArtifact_DurableBeforeRead(t *testing.T) {
	dir := t.TempDir()
	type payload struct {
		N int `json:"n"`
	}
	if err := WriteArtifact(dir, "x.json", payload{N: 7}); err != nil {
		t.Fatalf("WriteArtifact: %v", err)
	}
	got, err := ReadArtifact[payload](dir, "x.json")
	if err != nil || got == nil || got.N != 7 {
		t.Errorf("ReadArtifact = (%+v, %v)", got, err)
	}
	// No temp file left behind.
	if _, err := os.Stat(filepath.Join(dir, "x.json.tmp")); !os.IsNotExist(err) {
		t.Error("temp file was not cleaned up by rename")
	}

	missing, err := ReadArtifact[payload](dir, "absent.json")
	if err != nil || missing != nil {
		t.Errorf("missing artifact = (%v, %v), want (nil, nil)", missing, err)
	}
}

func TestRunState_TransitionsArePersisted(t *testing.T) {
	var sawRunning bool
	rc := newTestContext(t)
	probe := stageFunc{"probe", func(context.Context, *RunContext) error {
		s, err := LoadState(rc.Dir)
		if err != nil {
			return err
		}
		if s != nil && s.Status == StatusRunning && s.CurrentStage == "probe" {
			sawRunning = true
		}
		return nil
	}}

	if _, err := NewRunner([]Stage{probe}).Run(context.Background(), rc); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !sawRunning {
		t.Error("running(state) was not persisted before the stage executed")
	}
}

func TestStageResult_Duration(t *testing.T) {
	base := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	res := StageResult{StartedAt: base, FinishedAt: base.Add(1500 * time.Millisecond)}
	if res.Duration() != 1500*time.Millisecond {
		t.Errorf("Duration = %v", res.Duration())
	}
	_ = fmt.Sprintf("%v", res) // StageResult must be printable in logs
}
