// Package metrics computes the epidemiological indicators over the analysis
// windows. A rate whose denominator population is empty is null — not zero
// and not an error — and never stops the rest of the computation.
package metrics

import (
	"math"
	"time"

	"sragwatch/internal/srag"
	"sragwatch/internal/window"
)

// Metric names.
const (
	IncreaseRate       = "increase_rate"
	MortalityRate      = "mortality_rate"
	ICUOccupancyRate   = "icu_occupancy_rate"
	VaccinationRateFlu = "vaccination_rate_flu"
	VaccinationRateCov = "vaccination_rate_covid"
)

// RateNames are the per-window percentage indicators, in report order.
// The increase rate is handled separately: it applies to window pairs only.
var RateNames = []string{MortalityRate, ICUOccupancyRate, VaccinationRateFlu, VaccinationRateCov}

// Period records the exact boundaries used for a label, for auditability.
type Period struct {
	Start string `json:"start_date"`
	End   string `json:"end_date"`
}

// Output is the metrics engine result: per-period indicator values plus the
// window boundaries each value was computed over. Every period the window
// calculator produced is present in all three maps.
type Output struct {
	Anchor  string                         `json:"anchor"`
	Metrics map[string]map[string]*float64 `json:"metrics"`
	Counts  map[string]int                 `json:"counts"`
	Periods map[string]Period              `json:"periods"`
}

// Compute derives every indicator for every window from the anchor.
func Compute(ds srag.Dataset, anchor time.Time) *Output {
	windows := window.Calculate(anchor)

	out := &Output{
		Anchor:  anchor.Format("2006-01-02"),
		Metrics: make(map[string]map[string]*float64, len(windows)),
		Counts:  make(map[string]int, len(windows)),
		Periods: make(map[string]Period, len(windows)),
	}

	for _, label := range window.Labels {
		w := windows[label]
		out.Periods[label] = Period{
			Start: w.Start.Format("2006-01-02"),
			End:   w.End.Format("2006-01-02"),
		}
		out.Counts[label] = ds.CountBetween(w.Start, w.End)
		out.Metrics[label] = map[string]*float64{
			MortalityRate:      mortalityRate(ds, w),
			ICUOccupancyRate:   icuRate(ds, w),
			VaccinationRateFlu: vaccinationRate(ds, w, func(c srag.Case) srag.Category { return c.VaccineFlu }),
			VaccinationRateCov: vaccinationRate(ds, w, func(c srag.Case) srag.Category { return c.VaccineCovid }),
		}
	}

	for _, pair := range window.Pairs {
		current, prior := out.Counts[pair[0]], out.Counts[pair[1]]
		out.Metrics[pair[0]][IncreaseRate] = increaseRate(current, prior)
	}

	return out
}

// increaseRate is ((current-prior)/prior)*100, null when prior is zero.
// The sign is preserved: negative means deceleration.
func increaseRate(current, prior int) *float64 {
	if prior == 0 {
		return nil
	}
	v := (float64(current) - float64(prior)) / float64(prior) * 100
	return &v
}

// mortalityRate is deaths over cases with a defined evolution (Cure or
// Death). Ignored evolutions are outside both numerator and denominator.
func mortalityRate(ds srag.Dataset, w window.Window) *float64 {
	num, den := 0, 0
	for _, c := range ds {
		if !w.Contains(c.NotificationDate) {
			continue
		}
		switch c.Evolution {
		case srag.Death:
			num++
			den++
		case srag.Cure:
			den++
		}
	}
	return rate(num, den)
}

// icuRate is ICU admissions over cases with a defined ICU status.
func icuRate(ds srag.Dataset, w window.Window) *float64 {
	num, den := 0, 0
	for _, c := range ds {
		if !w.Contains(c.NotificationDate) {
			continue
		}
		switch c.ICU {
		case srag.Yes:
			num++
			den++
		case srag.No:
			den++
		}
	}
	return rate(num, den)
}

// vaccinationRate is vaccinated over cases with a defined vaccine status for
// the field selected by get.
func vaccinationRate(ds srag.Dataset, w window.Window, get func(srag.Case) srag.Category) *float64 {
	num, den := 0, 0
	for _, c := range ds {
		if !w.Contains(c.NotificationDate) {
			continue
		}
		switch get(c) {
		case srag.Yes:
			num++
			den++
		case srag.No:
			den++
		}
	}
	return rate(num, den)
}

func rate(num, den int) *float64 {
	if den == 0 {
		return nil
	}
	v := float64(num) / float64(den) * 100
	return &v
}

// Rounded returns a copy with every value rounded to two decimals. Rounding
// happens only at serialization; in-memory values keep full precision.
func (o *Output) Rounded() *Output {
	out := &Output{
		Anchor:  o.Anchor,
		Metrics: make(map[string]map[string]*float64, len(o.Metrics)),
		Counts:  o.Counts,
		Periods: o.Periods,
	}
	for label, values := range o.Metrics {
		rounded := make(map[string]*float64, len(values))
		for name, v := range values {
			if v == nil {
				rounded[name] = nil
				continue
			}
			r := math.Round(*v*100) / 100
			rounded[name] = &r
		}
		out.Metrics[label] = rounded
	}
	return out
}
