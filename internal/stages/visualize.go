package stages

import (
	"context"
	"fmt"
	"path/filepath"

	"golang.org/x/sync/errgroup"

	"sragwatch/adapters/charts"
	"sragwatch/internal/pipeline"
	"sragwatch/internal/series"
)

// Visualize builds both chart series from the cleaned data and renders them
// as standalone HTML charts. The two charts render concurrently.
type Visualize struct{}

// NewVisualize builds the visualization stage.
func NewVisualize() *Visualize { return &Visualize{} }

func (s *Visualize) Name() string { return "visualize" }

func (s *Visualize) Run(ctx context.Context, rc *pipeline.RunContext) error {
	if rc.Anchor.IsZero() {
		return fmt.Errorf("no anchor date; metrics stage did not run")
	}
	ds, err := loadCleaned(rc)
	if err != nil {
		return err
	}

	daily := series.Daily(ds, rc.Anchor)
	monthly := series.Monthly(ds, rc.Anchor)

	dir, err := rc.StageDir(s.Name())
	if err != nil {
		return err
	}
	if err := pipeline.WriteArtifact(dir, "last_30_days.json", daily); err != nil {
		return err
	}
	if err := pipeline.WriteArtifact(dir, "last_12_months.json", monthly); err != nil {
		return err
	}

	dailyPath := filepath.Join(dir, charts.DailyFile)
	monthlyPath := filepath.Join(dir, charts.MonthlyFile)

	g, _ := errgroup.WithContext(ctx)
	g.Go(func() error { return charts.RenderDaily(daily, dailyPath) })
	g.Go(func() error { return charts.RenderMonthly(monthly, monthlyPath) })
	if err := g.Wait(); err != nil {
		return err
	}

	rc.SetPath(KeyDailySeries, filepath.Join(dir, "last_30_days.json"))
	rc.SetPath(KeyMonthlySeries, filepath.Join(dir, "last_12_months.json"))
	rc.SetPath(KeyChartDaily, dailyPath)
	rc.SetPath(KeyChartMonthly, monthlyPath)
	return nil
}
