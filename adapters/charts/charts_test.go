package charts

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sragwatch/internal/series"
	"sragwatch/internal/srag"
)

func TestRenderDaily_WritesStandaloneHTML(t *testing.T) {
	anchor := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	ds := srag.Dataset{
		{NotificationDate: anchor.AddDate(0, 0, -1), Evolution: srag.Cure},
		{NotificationDate: anchor.AddDate(0, 0, -1), Evolution: srag.Cure},
		{NotificationDate: anchor.AddDate(0, 0, -5), Evolution: srag.Death},
	}
	points := series.Daily(ds, anchor)
	path := filepath.Join(t.TempDir(), DailyFile)

	require.NoError(t, RenderDaily(points, path))

	html, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(html), "Casos diários de SRAG")
	assert.Contains(t, string(html), "echarts")
	assert.Contains(t, string(html), "2024-02-29")
}

func TestRenderMonthly_WritesStandaloneHTML(t *testing.T) {
	anchor := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	ds := srag.Dataset{
		{NotificationDate: time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC), Evolution: srag.Cure},
	}
	points := series.Monthly(ds, anchor)
	path := filepath.Join(t.TempDir(), MonthlyFile)

	require.NoError(t, RenderMonthly(points, path))

	html, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(html), "Casos mensais de SRAG")
	assert.Contains(t, string(html), "2024-01")
}
