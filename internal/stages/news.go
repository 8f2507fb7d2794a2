package stages

import (
	"context"
	"path/filepath"

	"sragwatch/adapters/news"
	"sragwatch/internal/config"
	"sragwatch/internal/pipeline"
)

// News collects recent SRAG coverage for the report context.
type News struct {
	client *news.Client
}

// NewNews builds the news collection stage.
func NewNews(cfg config.NewsConfig, apiKey string) *News {
	return &News{client: news.NewClient(cfg, apiKey)}
}

func (s *News) Name() string { return "news" }

func (s *News) Run(ctx context.Context, rc *pipeline.RunContext) error {
	items, err := s.client.Search(ctx)
	if err != nil {
		return err
	}

	dir, err := rc.StageDir(s.Name())
	if err != nil {
		return err
	}
	if err := pipeline.WriteArtifact(dir, "news.json", items); err != nil {
		return err
	}
	rc.SetPath(KeyNews, filepath.Join(dir, "news.json"))
	return nil
}
