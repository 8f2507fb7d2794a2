// Package render produces the final bulletin: an HTML page built from the
// assembled input and the narrative, optionally printed to PDF through
// headless Chrome.
package render

import (
	_ "embed"
	"fmt"
	"html/template"
	"os"
	"strings"
	"time"

	"sragwatch/internal/report"
)

//go:embed report.html.tmpl
var reportTemplate string

var tmpl = template.Must(template.New("report").Parse(reportTemplate))

// page is the template context for the bulletin.
type page struct {
	Anchor              string
	GeneratedAt         string
	NarrativeParagraphs []string
	Counts              []countRow
	RateHeaders         []string
	Rates               []rateRow
	ChartDaily          string
	ChartMonthly        string
	News                []newsRow
}

type countRow struct {
	Label string
	Start string
	End   string
	Cases int
}

type rateRow struct {
	Label  string
	Values []string
}

type newsRow struct {
	Title   string
	Source  string
	Date    string
	Snippet string
}

// WriteHTML renders the bulletin page to path. Chart paths are relative to
// the output file so the page stays portable within the run directory.
func WriteHTML(in *report.Input, narrative, chartDaily, chartMonthly, path string) error {
	p := page{
		Anchor:              in.Anchor,
		GeneratedAt:         time.Now().UTC().Format("2006-01-02 15:04 UTC"),
		NarrativeParagraphs: splitParagraphs(narrative),
		ChartDaily:          chartDaily,
		ChartMonthly:        chartMonthly,
	}

	for _, label := range report.PeriodOrder {
		n, ok := in.Counts[label]
		if !ok {
			continue
		}
		row := countRow{Label: report.PeriodTitle(label), Cases: n}
		if pr, ok := in.Periods[label]; ok {
			row.Start, row.End = pr.Start, pr.End
		}
		p.Counts = append(p.Counts, row)
	}

	p.RateHeaders = make([]string, len(report.RateOrder))
	for i, name := range report.RateOrder {
		p.RateHeaders[i] = report.RateTitle(name)
	}
	for _, label := range report.PeriodOrder {
		values, ok := in.Metrics[label]
		if !ok {
			continue
		}
		row := rateRow{Label: report.PeriodTitle(label)}
		for _, name := range report.RateOrder {
			row.Values = append(row.Values, formatRate(values[name]))
		}
		p.Rates = append(p.Rates, row)
	}

	for _, item := range in.News {
		p.News = append(p.News, newsRow{Title: item.Title, Source: item.Source, Date: item.Date, Snippet: item.Snippet})
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create report page: %w", err)
	}
	if err := tmpl.Execute(f, p); err != nil {
		f.Close()
		return fmt.Errorf("render report page: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close report page: %w", err)
	}
	return nil
}

// splitParagraphs breaks the narrative markdown into display paragraphs on
// blank lines. Single newlines inside a paragraph are kept as spaces.
func splitParagraphs(narrative string) []string {
	var out []string
	for _, block := range strings.Split(narrative, "\n\n") {
		para := strings.TrimSpace(strings.ReplaceAll(block, "\n", " "))
		if para != "" {
			out = append(out, para)
		}
	}
	return out
}

func formatRate(v *float64) string {
	if v == nil {
		return "—"
	}
	return fmt.Sprintf("%.2f", *v)
}
