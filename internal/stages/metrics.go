package stages

import (
	"context"
	"path/filepath"

	"sragwatch/internal/metrics"
	"sragwatch/internal/pipeline"
	"sragwatch/internal/window"
)

// Metrics derives the analysis anchor from the cleaned data and computes
// every indicator over the analysis windows.
type Metrics struct{}

// NewMetrics builds the metrics stage.
func NewMetrics() *Metrics { return &Metrics{} }

func (s *Metrics) Name() string { return "metrics" }

func (s *Metrics) Run(ctx context.Context, rc *pipeline.RunContext) error {
	ds, err := loadCleaned(rc)
	if err != nil {
		return err
	}

	anchor, err := window.Anchor(ds)
	if err != nil {
		return err
	}
	rc.Anchor = anchor

	out := metrics.Compute(ds, anchor).Rounded()

	dir, err := rc.StageDir(s.Name())
	if err != nil {
		return err
	}
	// metrics.json is the period→metric mapping itself; the window
	// boundaries and raw counts are separate artifacts.
	if err := pipeline.WriteArtifact(dir, "metrics.json", out.Metrics); err != nil {
		return err
	}
	if err := pipeline.WriteArtifact(dir, "periods.json", out.Periods); err != nil {
		return err
	}
	if err := pipeline.WriteArtifact(dir, "counts.json", out.Counts); err != nil {
		return err
	}
	rc.SetPath(KeyMetrics, filepath.Join(dir, "metrics.json"))
	rc.SetPath(KeyPeriods, filepath.Join(dir, "periods.json"))
	rc.SetPath(KeyCounts, filepath.Join(dir, "counts.json"))
	return nil
}
