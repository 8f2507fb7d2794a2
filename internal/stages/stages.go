// Package stages implements the pipeline stages in execution order:
// download, preprocess, metrics, visualize, news, report, render. Each
// stage owns one subtree of the run directory and hands artifacts to
// downstream stages through the run context's path registry.
package stages

import (
	"time"

	"sragwatch/internal/config"
	"sragwatch/internal/pipeline"
)

// Artifact path registry keys.
const (
	KeyRawCSV        = "raw_csv"
	KeyCleanCSV      = "clean_csv"
	KeyMetrics       = "metrics_json"
	KeyPeriods       = "periods_json"
	KeyCounts        = "counts_json"
	KeyDailySeries   = "daily_series_json"
	KeyMonthlySeries = "monthly_series_json"
	KeyChartDaily    = "chart_daily_html"
	KeyChartMonthly  = "chart_monthly_html"
	KeyNews          = "news_json"
	KeyReportInput   = "report_input_json"
	KeyNarrative     = "narrative_md"
	KeyReportHTML    = "report_html"
	KeyReportPDF     = "report_pdf"
)

// All builds the full pipeline in execution order.
func All(cfg *config.Config, creds config.Credentials) []pipeline.Stage {
	return []pipeline.Stage{
		NewDownload(cfg.Downloader),
		NewPreprocess(cfg.Preprocess),
		NewMetrics(),
		NewVisualize(),
		NewNews(cfg.News, creds.SerperAPIKey),
		NewReport(cfg.Report, creds.OpenAIAPIKey),
		NewRender(cfg.Render),
	}
}

// Timeouts maps stage names to the configured deadlines for the stages that
// block on external collaborators.
func Timeouts(cfg *config.Config) map[string]time.Duration {
	return map[string]time.Duration{
		"download": cfg.Timeouts.Download.Std(),
		"news":     cfg.Timeouts.News.Std(),
		"report":   cfg.Timeouts.Report.Std(),
		"render":   cfg.Timeouts.Render.Std(),
	}
}
