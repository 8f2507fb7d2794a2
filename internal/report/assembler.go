// Package report assembles the single structured payload the narrative
// writer and renderer consume. The merge is deterministic and order-stable,
// and every key is always present: absent upstream data renders as null or
// an empty array, never as a missing key — downstream consumers rely on the
// schema being fixed.
package report

import (
	"sragwatch/adapters/news"
	"sragwatch/internal/metrics"
	"sragwatch/internal/series"
)

// Input is the report-writer payload.
type Input struct {
	Anchor       string                         `json:"anchor"`
	Metrics      map[string]map[string]*float64 `json:"metrics"`
	Counts       map[string]int                 `json:"counts"`
	Periods      map[string]metrics.Period      `json:"periods"`
	ChartDaily   []series.DailyPoint            `json:"chart_daily"`
	ChartMonthly []series.MonthlyPoint          `json:"chart_monthly"`
	News         []news.Item                    `json:"news"`
}

// Assemble merges the metrics output, both chart series, and the news items.
// Nothing the metrics engine produced is dropped; nil inputs become empty
// (but present) collections.
func Assemble(out *metrics.Output, daily []series.DailyPoint, monthly []series.MonthlyPoint, items []news.Item) *Input {
	in := &Input{
		Anchor:       out.Anchor,
		Metrics:      out.Metrics,
		Counts:       out.Counts,
		Periods:      out.Periods,
		ChartDaily:   daily,
		ChartMonthly: monthly,
		News:         items,
	}
	if in.Metrics == nil {
		in.Metrics = map[string]map[string]*float64{}
	}
	if in.Counts == nil {
		in.Counts = map[string]int{}
	}
	if in.Periods == nil {
		in.Periods = map[string]metrics.Period{}
	}
	if in.ChartDaily == nil {
		in.ChartDaily = []series.DailyPoint{}
	}
	if in.ChartMonthly == nil {
		in.ChartMonthly = []series.MonthlyPoint{}
	}
	if in.News == nil {
		in.News = []news.Item{}
	}
	return in
}
