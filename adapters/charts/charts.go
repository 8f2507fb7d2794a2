// Package charts renders the bulletin time-series charts as standalone HTML
// documents: a line chart of daily cases over the trailing 30 days and a bar
// chart of monthly cases over the trailing 12 months.
package charts

import (
	"fmt"
	"io"
	"os"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"sragwatch/internal/series"
)

// Daily and Monthly are the file names the renderer embeds.
const (
	DailyFile   = "daily_cases.html"
	MonthlyFile = "monthly_cases.html"
)

// RenderDaily writes the daily-cases line chart to path.
func RenderDaily(points []series.DailyPoint, path string) error {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "Casos diários de SRAG", Width: "900px", Height: "420px"}),
		charts.WithTitleOpts(opts.Title{
			Title:    "Casos diários de SRAG",
			Subtitle: "Últimos 30 dias",
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
	)

	dates := make([]string, len(points))
	values := make([]opts.LineData, len(points))
	for i, p := range points {
		dates[i] = p.Date
		values[i] = opts.LineData{Value: p.Count}
	}
	line.SetXAxis(dates).AddSeries("casos", values,
		charts.WithLineChartOpts(opts.LineChart{Smooth: opts.Bool(true)}))

	return render(line, path)
}

// RenderMonthly writes the monthly-cases bar chart to path.
func RenderMonthly(points []series.MonthlyPoint, path string) error {
	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "Casos mensais de SRAG", Width: "900px", Height: "420px"}),
		charts.WithTitleOpts(opts.Title{
			Title:    "Casos mensais de SRAG",
			Subtitle: "Últimos 12 meses",
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
	)

	months := make([]string, len(points))
	values := make([]opts.BarData, len(points))
	for i, p := range points {
		months[i] = p.Month
		values[i] = opts.BarData{Value: p.Count}
	}
	bar.SetXAxis(months).AddSeries("casos", values)

	return render(bar, path)
}

type renderable interface {
	Render(w io.Writer) error
}

func render(chart renderable, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create chart file: %w", err)
	}
	if err := chart.Render(f); err != nil {
		f.Close()
		return fmt.Errorf("render chart: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close chart file: %w", err)
	}
	return nil
}
