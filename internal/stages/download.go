package stages

import (
	"context"
	"path/filepath"

	"sragwatch/adapters/download"
	"sragwatch/internal/config"
	"sragwatch/internal/pipeline"
)

// Download fetches the newest published raw file into the run directory.
type Download struct {
	client *download.Client
}

// NewDownload builds the download stage.
func NewDownload(cfg config.DownloaderConfig) *Download {
	return &Download{client: download.NewClient(cfg)}
}

func (s *Download) Name() string { return "download" }

func (s *Download) Run(ctx context.Context, rc *pipeline.RunContext) error {
	dir, err := rc.StageDir(s.Name())
	if err != nil {
		return err
	}
	if _, err := s.client.Fetch(ctx, dir); err != nil {
		return err
	}
	rc.SetPath(KeyRawCSV, filepath.Join(dir, "raw.csv"))
	return nil
}
