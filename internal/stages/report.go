package stages

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"sragwatch/adapters/llm"
	"sragwatch/adapters/news"
	"sragwatch/internal/config"
	"sragwatch/internal/metrics"
	"sragwatch/internal/pipeline"
	"sragwatch/internal/report"
	"sragwatch/internal/series"
)

// Report assembles the writer payload from the upstream artifacts, persists
// it, and asks the narrative writer for the analysis text.
type Report struct {
	writer *llm.Writer
}

// NewReport builds the report-writing stage.
func NewReport(cfg config.ReportConfig, apiKey string) *Report {
	return &Report{writer: llm.NewWriter(cfg, apiKey)}
}

func (s *Report) Name() string { return "report" }

func (s *Report) Run(ctx context.Context, rc *pipeline.RunContext) error {
	out, err := loadMetricsOutput(rc)
	if err != nil {
		return err
	}
	daily, err := readStageArtifact[[]series.DailyPoint](rc, KeyDailySeries)
	if err != nil {
		return err
	}
	monthly, err := readStageArtifact[[]series.MonthlyPoint](rc, KeyMonthlySeries)
	if err != nil {
		return err
	}
	items, err := readStageArtifact[[]news.Item](rc, KeyNews)
	if err != nil {
		return err
	}

	in := report.Assemble(out, *daily, *monthly, *items)

	dir, err := rc.StageDir(s.Name())
	if err != nil {
		return err
	}
	if err := pipeline.WriteArtifact(dir, "input.json", in); err != nil {
		return err
	}
	rc.SetPath(KeyReportInput, filepath.Join(dir, "input.json"))

	narrative, err := s.writer.Write(ctx, in)
	if err != nil {
		return err
	}
	mdPath := filepath.Join(dir, "report.md")
	if err := os.WriteFile(mdPath, []byte(narrative+"\n"), 0o644); err != nil {
		return fmt.Errorf("write narrative: %w", err)
	}
	rc.SetPath(KeyNarrative, mdPath)
	return nil
}

// loadMetricsOutput reassembles the metrics engine output from the three
// metrics-stage artifacts plus the run anchor.
func loadMetricsOutput(rc *pipeline.RunContext) (*metrics.Output, error) {
	if rc.Anchor.IsZero() {
		return nil, fmt.Errorf("no anchor date; metrics stage did not run")
	}
	m, err := readStageArtifact[map[string]map[string]*float64](rc, KeyMetrics)
	if err != nil {
		return nil, err
	}
	periods, err := readStageArtifact[map[string]metrics.Period](rc, KeyPeriods)
	if err != nil {
		return nil, err
	}
	counts, err := readStageArtifact[map[string]int](rc, KeyCounts)
	if err != nil {
		return nil, err
	}
	return &metrics.Output{
		Anchor:  rc.Anchor.Format("2006-01-02"),
		Metrics: *m,
		Counts:  *counts,
		Periods: *periods,
	}, nil
}

// readStageArtifact loads a registered upstream artifact and fails with the
// registry key when the file is gone.
func readStageArtifact[T any](rc *pipeline.RunContext, key string) (*T, error) {
	path, err := rc.Path(key)
	if err != nil {
		return nil, err
	}
	v, err := pipeline.ReadArtifact[T](filepath.Dir(path), filepath.Base(path))
	if err != nil {
		return nil, err
	}
	if v == nil {
		return nil, fmt.Errorf("artifact %q missing at %s", key, path)
	}
	return v, nil
}
