// Package series builds the chart time series: daily case counts for the
// trailing 30 days and monthly counts for the trailing 12 calendar months.
// Buckets are zero-filled and chronological, so the daily series always has
// exactly 30 entries and the monthly series exactly 12.
package series

import (
	"time"

	"sragwatch/internal/srag"
	"sragwatch/internal/window"
)

// DailyPoint is one day of the trailing-30-days series.
type DailyPoint struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

// MonthlyPoint is one calendar month of the trailing-12-months series.
type MonthlyPoint struct {
	Month string `json:"month"`
	Count int    `json:"count"`
}

// DailyDays and MonthlyMonths are the fixed series lengths.
const (
	DailyDays     = 30
	MonthlyMonths = 12
)

// Daily counts cases per day over the 30 days ending at the anchor.
func Daily(ds srag.Dataset, anchor time.Time) []DailyPoint {
	buckets := window.DailyBuckets(anchor, DailyDays)
	points := make([]DailyPoint, len(buckets))
	for i, b := range buckets {
		points[i] = DailyPoint{Date: b.Label, Count: ds.CountBetween(b.Start, b.End)}
	}
	return points
}

// Monthly counts cases per calendar month over the 12 months ending at the
// month that holds the newest data.
func Monthly(ds srag.Dataset, anchor time.Time) []MonthlyPoint {
	buckets := window.MonthlyBuckets(anchor, MonthlyMonths)
	points := make([]MonthlyPoint, len(buckets))
	for i, b := range buckets {
		points[i] = MonthlyPoint{Month: b.Label, Count: ds.CountBetween(b.Start, b.End)}
	}
	return points
}
