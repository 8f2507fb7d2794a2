// Package window derives the analysis periods from an anchor date. Every
// window is a half-open interval [Start, End) over notification dates and is
// exactly reproducible from the anchor — nothing here reads the wall clock.
package window

import (
	"fmt"
	"time"

	"sragwatch/internal/srag"
)

// Window is one named analysis period.
type Window struct {
	Label string
	Start time.Time // inclusive
	End   time.Time // exclusive
}

// Contains reports whether t falls inside the window.
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && t.Before(w.End)
}

// Period labels, in report order.
const (
	Last7Days      = "last_7_days"
	Previous7Days  = "previous_7_days"
	Last30Days     = "last_30_days"
	Previous30Days = "previous_30_days"
	CurrentMonth   = "current_month"
	PreviousMonth  = "previous_month"
)

// Labels is the fixed catalog order used wherever periods are serialized.
var Labels = []string{Last7Days, Previous7Days, Last30Days, Previous30Days, CurrentMonth, PreviousMonth}

// Pairs lists the (current, prior) window pairs the increase rate applies to.
var Pairs = [][2]string{
	{Last7Days, Previous7Days},
	{Last30Days, Previous30Days},
	{CurrentMonth, PreviousMonth},
}

// Anchor resolves the anchor date from the cleaned dataset: midnight of the
// day after the newest notification date. The anchor is the exclusive upper
// bound of the data, so last_7_days = [anchor-7, anchor) covers the seven
// most recent days that have data, newest day included. Anchoring on the
// dataset rather than the wall clock keeps a run reproducible when the
// published data lag behind real time.
func Anchor(ds srag.Dataset) (time.Time, error) {
	max, ok := ds.MaxNotificationDate()
	if !ok {
		return time.Time{}, fmt.Errorf("dataset has no notification dates, cannot derive windows")
	}
	return max.AddDate(0, 0, 1), nil
}

// Calculate derives all scalar periods from the anchor.
func Calculate(anchor time.Time) map[string]Window {
	monthStart := startOfMonth(anchor)
	prevMonthStart := monthStart.AddDate(0, -1, 0)

	return map[string]Window{
		Last7Days:      {Label: Last7Days, Start: anchor.AddDate(0, 0, -7), End: anchor},
		Previous7Days:  {Label: Previous7Days, Start: anchor.AddDate(0, 0, -14), End: anchor.AddDate(0, 0, -7)},
		Last30Days:     {Label: Last30Days, Start: anchor.AddDate(0, 0, -30), End: anchor},
		Previous30Days: {Label: Previous30Days, Start: anchor.AddDate(0, 0, -60), End: anchor.AddDate(0, 0, -30)},
		CurrentMonth:   {Label: CurrentMonth, Start: monthStart, End: anchor},
		PreviousMonth:  {Label: PreviousMonth, Start: prevMonthStart, End: monthStart},
	}
}

// DailyBuckets returns n contiguous one-day windows ending at the anchor,
// oldest first. Their union is [anchor-n, anchor).
func DailyBuckets(anchor time.Time, n int) []Window {
	buckets := make([]Window, 0, n)
	for i := n; i > 0; i-- {
		start := anchor.AddDate(0, 0, -i)
		buckets = append(buckets, Window{
			Label: start.Format("2006-01-02"),
			Start: start,
			End:   start.AddDate(0, 0, 1),
		})
	}
	return buckets
}

// MonthlyBuckets returns n contiguous calendar-month windows, oldest first,
// ending at the month that contains the newest day of data (the day before
// the anchor — the anchor itself is an exclusive bound and may be the first
// of the next month).
func MonthlyBuckets(anchor time.Time, n int) []Window {
	lastMonth := startOfMonth(anchor.AddDate(0, 0, -1))
	buckets := make([]Window, 0, n)
	for i := n - 1; i >= 0; i-- {
		start := lastMonth.AddDate(0, -i, 0)
		buckets = append(buckets, Window{
			Label: start.Format("2006-01"),
			Start: start,
			End:   start.AddDate(0, 1, 0),
		})
	}
	return buckets
}

func startOfMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
}
