package pipeline

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// WriteArtifact marshals v as indented JSON and writes it atomically into
// dir/name: the write goes to a temp file first, then a rename. A stage's
// output is durable on disk before the next stage can observe the path.
func WriteArtifact(dir, name string, v any) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create artifact dir: %w", err)
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", name, err)
	}
	tmp := filepath.Join(dir, name+".tmp")
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	if err := os.Rename(tmp, filepath.Join(dir, name)); err != nil {
		return fmt.Errorf("commit %s: %w", name, err)
	}
	return nil
}

// ReadArtifact unmarshals dir/name into T. Returns (nil, nil) when the file
// does not exist.
func ReadArtifact[T any](dir, name string) (*T, error) {
	data, err := os.ReadFile(filepath.Join(dir, name))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("parse %s: %w", name, err)
	}
	return &v, nil
}

// StageDir returns the subtree a stage owns inside the run directory. The
// ownership partition is the concurrency-safety mechanism: a stage writes
// only under its own dir and reads only from earlier stages' dirs.
func StageDir(runDir, stage string) string {
	return filepath.Join(runDir, stage)
}

// EnsureStageDir creates the stage's subtree.
func EnsureStageDir(runDir, stage string) (string, error) {
	dir := StageDir(runDir, stage)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create stage dir: %w", err)
	}
	return dir, nil
}
