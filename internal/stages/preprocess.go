package stages

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"sragwatch/internal/config"
	"sragwatch/internal/logging"
	"sragwatch/internal/pipeline"
	"sragwatch/internal/srag"
)

// Preprocess reads the raw semicolon-separated file, resolves every
// categorical code, drops rows without a usable notification date, and
// writes the cleaned dataset plus its cleaning stats.
type Preprocess struct {
	cfg config.PreprocessConfig
}

// NewPreprocess builds the preprocessing stage.
func NewPreprocess(cfg config.PreprocessConfig) *Preprocess {
	return &Preprocess{cfg: cfg}
}

func (s *Preprocess) Name() string { return "preprocess" }

func (s *Preprocess) Run(ctx context.Context, rc *pipeline.RunContext) error {
	rawPath, err := rc.Path(KeyRawCSV)
	if err != nil {
		return err
	}
	raw, err := os.Open(rawPath)
	if err != nil {
		return fmt.Errorf("open raw file: %w", err)
	}
	defer raw.Close()

	records, err := srag.ReadRaw(raw, s.cfg.Columns)
	if err != nil {
		return err
	}

	ds, stats := srag.Clean(records, logging.New("preprocess"))
	if len(ds) == 0 {
		return fmt.Errorf("no usable rows after cleaning (%d raw rows, %d without a date)",
			stats.Total, stats.DroppedDates)
	}

	dir, err := rc.StageDir(s.Name())
	if err != nil {
		return err
	}
	cleanPath := filepath.Join(dir, "clean.csv")
	out, err := os.Create(cleanPath)
	if err != nil {
		return fmt.Errorf("create clean file: %w", err)
	}
	if err := srag.WriteCleaned(out, ds); err != nil {
		out.Close()
		return err
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("close clean file: %w", err)
	}

	if err := pipeline.WriteArtifact(dir, "stats.json", stats); err != nil {
		return err
	}
	rc.SetPath(KeyCleanCSV, cleanPath)
	return nil
}

// loadCleaned is the shared reader the downstream stages use.
func loadCleaned(rc *pipeline.RunContext) (srag.Dataset, error) {
	path, err := rc.Path(KeyCleanCSV)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open clean file: %w", err)
	}
	defer f.Close()
	return srag.ReadCleaned(f)
}
