package store

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"sragwatch/internal/pipeline"
)

// MemStore is an in-memory Store for tests and dry runs.
type MemStore struct {
	mu     sync.Mutex
	runs   map[string]*Run
	stages map[string][]*StageRow
}

// NewMemStore creates an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{
		runs:   make(map[string]*Run),
		stages: make(map[string][]*StageRow),
	}
}

func (m *MemStore) CreateRun(run *Run) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.runs[run.ID]; ok {
		return fmt.Errorf("run %s already exists", run.ID)
	}
	cp := *run
	m.runs[run.ID] = &cp
	return nil
}

func (m *MemStore) FinishRun(id string, status pipeline.Status, failedStage, reason, anchor string, finishedAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	run, ok := m.runs[id]
	if !ok {
		return fmt.Errorf("no run with id %s", id)
	}
	run.Status = status
	run.FailedStage = failedStage
	run.Reason = reason
	run.Anchor = anchor
	run.FinishedAt = finishedAt
	return nil
}

func (m *MemStore) SaveStage(row *StageRow) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *row
	m.stages[row.RunID] = append(m.stages[row.RunID], &cp)
	return nil
}

func (m *MemStore) ListRuns(limit int) ([]*Run, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if limit <= 0 {
		limit = 20
	}
	out := make([]*Run, 0, len(m.runs))
	for _, r := range m.runs {
		cp := *r
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartedAt.After(out[j].StartedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *MemStore) ListStages(runID string) ([]*StageRow, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rows := m.stages[runID]
	out := make([]*StageRow, len(rows))
	for i, r := range rows {
		cp := *r
		out[i] = &cp
	}
	return out, nil
}

func (m *MemStore) Close() error { return nil }
