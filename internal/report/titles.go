package report

import (
	"sragwatch/internal/metrics"
	"sragwatch/internal/window"
)

// PeriodOrder is the canonical presentation order for the analysis periods,
// shared by the prompt builder and the page renderer so the two can't drift.
var PeriodOrder = window.Labels

// RateOrder is the canonical presentation order for the rate indicators:
// the pair-wise increase rate first, then the per-window rates.
var RateOrder = append([]string{metrics.IncreaseRate}, metrics.RateNames...)

var periodTitles = map[string]string{
	window.Last7Days:      "últimos 7 dias",
	window.Previous7Days:  "7 dias anteriores",
	window.Last30Days:     "últimos 30 dias",
	window.Previous30Days: "30 dias anteriores",
	window.CurrentMonth:   "mês corrente",
	window.PreviousMonth:  "mês anterior",
}

var rateTitles = map[string]string{
	metrics.IncreaseRate:       "Taxa de aumento de casos",
	metrics.MortalityRate:      "Taxa de mortalidade",
	metrics.ICUOccupancyRate:   "Taxa de ocupação de UTI",
	metrics.VaccinationRateFlu: "Taxa de vacinação contra gripe",
	metrics.VaccinationRateCov: "Taxa de vacinação contra COVID-19",
}

// PeriodTitle returns the Portuguese display name of a period label.
// Unknown labels pass through unchanged.
func PeriodTitle(label string) string {
	if t, ok := periodTitles[label]; ok {
		return t
	}
	return label
}

// RateTitle returns the Portuguese display name of a rate indicator.
func RateTitle(name string) string {
	if t, ok := rateTitles[name]; ok {
		return t
	}
	return name
}
