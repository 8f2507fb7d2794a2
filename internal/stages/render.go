package stages

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"sragwatch/adapters/render"
	"sragwatch/internal/config"
	"sragwatch/internal/pipeline"
	"sragwatch/internal/report"
)

// Render writes the final bulletin page and, when enabled, prints it to PDF
// through headless Chrome.
type Render struct {
	cfg config.RenderConfig
}

// NewRender builds the rendering stage.
func NewRender(cfg config.RenderConfig) *Render {
	return &Render{cfg: cfg}
}

func (s *Render) Name() string { return "render" }

func (s *Render) Run(ctx context.Context, rc *pipeline.RunContext) error {
	in, err := readStageArtifact[report.Input](rc, KeyReportInput)
	if err != nil {
		return err
	}
	mdPath, err := rc.Path(KeyNarrative)
	if err != nil {
		return err
	}
	narrative, err := os.ReadFile(mdPath)
	if err != nil {
		return fmt.Errorf("read narrative: %w", err)
	}

	dir, err := rc.StageDir(s.Name())
	if err != nil {
		return err
	}

	chartDaily, err := relativeChart(rc, dir, KeyChartDaily)
	if err != nil {
		return err
	}
	chartMonthly, err := relativeChart(rc, dir, KeyChartMonthly)
	if err != nil {
		return err
	}

	htmlPath := filepath.Join(dir, "report.html")
	if err := render.WriteHTML(in, string(narrative), chartDaily, chartMonthly, htmlPath); err != nil {
		return err
	}
	rc.SetPath(KeyReportHTML, htmlPath)

	if s.cfg.PDF {
		pdfPath := filepath.Join(dir, "report.pdf")
		if err := render.PrintPDF(ctx, htmlPath, pdfPath); err != nil {
			return err
		}
		rc.SetPath(KeyReportPDF, pdfPath)
	}
	return nil
}

// relativeChart rewrites a chart artifact path relative to the render
// directory so the page's iframes work wherever the run tree is copied.
func relativeChart(rc *pipeline.RunContext, renderDir, key string) (string, error) {
	path, err := rc.Path(key)
	if err != nil {
		return "", err
	}
	rel, err := filepath.Rel(renderDir, path)
	if err != nil {
		return "", fmt.Errorf("relativize chart path: %w", err)
	}
	return filepath.ToSlash(rel), nil
}
