package stages

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sragwatch/internal/config"
	"sragwatch/internal/metrics"
	"sragwatch/internal/pipeline"
	"sragwatch/internal/report"
	"sragwatch/internal/series"
	"sragwatch/internal/srag"
)

const rawSample = `DT_NOTIFIC;SEM_NOT;EVOLUCAO;UTI;VACINA;VACINA_COV
2024-02-28;9;1;2;1;2
2024-02-27;9;2;1;9;1
2024-02-20;8;3;;2;9
;8;1;1;1;1
2024-01-15;3;9;2;1;2
`

func newRunContext(t *testing.T) *pipeline.RunContext {
	t.Helper()
	return pipeline.NewRunContext(t.TempDir())
}

func runPreprocess(t *testing.T, rc *pipeline.RunContext) {
	t.Helper()
	dir, err := rc.StageDir("download")
	require.NoError(t, err)
	rawPath := filepath.Join(dir, "raw.csv")
	require.NoError(t, os.WriteFile(rawPath, []byte(rawSample), 0o644))
	rc.SetPath(KeyRawCSV, rawPath)

	pre := NewPreprocess(config.Default().Preprocess)
	require.NoError(t, pre.Run(context.Background(), rc))
}

func TestPreprocess_CleansAndRegistersArtifacts(t *testing.T) {
	rc := newRunContext(t)
	runPreprocess(t, rc)

	cleanPath, err := rc.Path(KeyCleanCSV)
	require.NoError(t, err)
	f, err := os.Open(cleanPath)
	require.NoError(t, err)
	defer f.Close()
	ds, err := srag.ReadCleaned(f)
	require.NoError(t, err)
	assert.Len(t, ds, 4, "only the dateless row is dropped")

	stats, err := pipeline.ReadArtifact[srag.CleanStats](filepath.Dir(cleanPath), "stats.json")
	require.NoError(t, err)
	require.NotNil(t, stats)
	assert.Equal(t, 5, stats.Total)
	assert.Equal(t, 1, stats.DroppedDates)
}

func TestPreprocess_FailsWhenNothingSurvives(t *testing.T) {
	rc := newRunContext(t)
	dir, err := rc.StageDir("download")
	require.NoError(t, err)
	rawPath := filepath.Join(dir, "raw.csv")
	raw := "DT_NOTIFIC;EVOLUCAO;UTI;VACINA;VACINA_COV\n;1;1;1;1\n"
	require.NoError(t, os.WriteFile(rawPath, []byte(raw), 0o644))
	rc.SetPath(KeyRawCSV, rawPath)

	pre := NewPreprocess(config.Default().Preprocess)
	err = pre.Run(context.Background(), rc)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no usable rows")
}

func TestMetricsStage_DerivesAnchorAndWritesArtifacts(t *testing.T) {
	rc := newRunContext(t)
	runPreprocess(t, rc)

	require.NoError(t, NewMetrics().Run(context.Background(), rc))

	// Newest date in the sample is 2024-02-28, so the anchor is the 29th.
	assert.Equal(t, time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC), rc.Anchor)

	// metrics.json is the period→metric mapping itself.
	metricsPath, err := rc.Path(KeyMetrics)
	require.NoError(t, err)
	assert.Equal(t, "metrics.json", filepath.Base(metricsPath))
	m, err := readStageArtifact[map[string]map[string]*float64](rc, KeyMetrics)
	require.NoError(t, err)
	require.Contains(t, *m, "last_7_days")
	assert.Contains(t, (*m)["last_7_days"], "mortality_rate")

	periodsPath, err := rc.Path(KeyPeriods)
	require.NoError(t, err)
	assert.Equal(t, "periods.json", filepath.Base(periodsPath))
	periods, err := readStageArtifact[map[string]metrics.Period](rc, KeyPeriods)
	require.NoError(t, err)
	assert.Equal(t, metrics.Period{Start: "2024-02-22", End: "2024-02-29"}, (*periods)["last_7_days"])

	counts, err := readStageArtifact[map[string]int](rc, KeyCounts)
	require.NoError(t, err)
	assert.Equal(t, 2, (*counts)["last_7_days"])
}

func TestVisualize_RendersChartsAndSeries(t *testing.T) {
	rc := newRunContext(t)
	runPreprocess(t, rc)
	require.NoError(t, NewMetrics().Run(context.Background(), rc))

	require.NoError(t, NewVisualize().Run(context.Background(), rc))

	dailyPath, err := rc.Path(KeyDailySeries)
	require.NoError(t, err)
	assert.Equal(t, "last_30_days.json", filepath.Base(dailyPath))
	monthlyPath, err := rc.Path(KeyMonthlySeries)
	require.NoError(t, err)
	assert.Equal(t, "last_12_months.json", filepath.Base(monthlyPath))

	daily, err := readStageArtifact[[]series.DailyPoint](rc, KeyDailySeries)
	require.NoError(t, err)
	assert.Len(t, *daily, series.DailyDays)

	chartPath, err := rc.Path(KeyChartDaily)
	require.NoError(t, err)
	html, err := os.ReadFile(chartPath)
	require.NoError(t, err)
	assert.Contains(t, string(html), "echarts")
}

func TestVisualize_RequiresAnchor(t *testing.T) {
	rc := newRunContext(t)
	err := NewVisualize().Run(context.Background(), rc)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "anchor")
}

func TestRender_WritesPageWithRelativeChartPaths(t *testing.T) {
	rc := newRunContext(t)
	runPreprocess(t, rc)
	require.NoError(t, NewMetrics().Run(context.Background(), rc))
	require.NoError(t, NewVisualize().Run(context.Background(), rc))

	// Stand in for the report stage's writer: assemble the input from the
	// real upstream artifacts, skip only the narrative call.
	out, err := loadMetricsOutput(rc)
	require.NoError(t, err)
	daily, err := readStageArtifact[[]series.DailyPoint](rc, KeyDailySeries)
	require.NoError(t, err)
	monthly, err := readStageArtifact[[]series.MonthlyPoint](rc, KeyMonthlySeries)
	require.NoError(t, err)

	reportDir, err := rc.StageDir("report")
	require.NoError(t, err)
	in := report.Assemble(out, *daily, *monthly, nil)
	require.NoError(t, pipeline.WriteArtifact(reportDir, "input.json", in))
	rc.SetPath(KeyReportInput, filepath.Join(reportDir, "input.json"))

	mdPath := filepath.Join(reportDir, "report.md")
	require.NoError(t, os.WriteFile(mdPath, []byte("Análise do período.\n"), 0o644))
	rc.SetPath(KeyNarrative, mdPath)

	require.NoError(t, NewRender(config.RenderConfig{PDF: false}).Run(context.Background(), rc))

	htmlPath, err := rc.Path(KeyReportHTML)
	require.NoError(t, err)
	html, err := os.ReadFile(htmlPath)
	require.NoError(t, err)
	got := string(html)

	assert.Contains(t, got, "Análise do período.")
	assert.Contains(t, got, `src="../visualize/daily_cases.html"`)
	assert.Contains(t, got, `src="../visualize/monthly_cases.html"`)
}
