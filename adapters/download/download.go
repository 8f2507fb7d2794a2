// Package download fetches the raw INFLUD surveillance file from the
// OpenDataSUS bucket. Files are published under a date-stamped name with no
// index, so the client probes backwards from today until it finds one.
package download

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"sragwatch/internal/config"
	"sragwatch/internal/logging"
)

// Metadata describes the file a download run produced.
type Metadata struct {
	SourceURL    string    `json:"source_url"`
	Filename     string    `json:"filename"`
	FileDate     string    `json:"file_date"`
	SizeBytes    int64     `json:"size_bytes"`
	DownloadedAt time.Time `json:"downloaded_at"`
}

// Client probes for and downloads the newest published INFLUD file.
type Client struct {
	cfg  config.DownloaderConfig
	http *http.Client
	now  func() time.Time
	log  *slog.Logger
}

// NewClient builds a downloader from the stage configuration.
func NewClient(cfg config.DownloaderConfig) *Client {
	return &Client{
		cfg:  cfg,
		http: &http.Client{},
		now:  time.Now,
		log:  logging.New("download"),
	}
}

// filename returns the published name for a given file date,
// e.g. INFLUD25-17-08-2026.csv.
func filename(date time.Time) string {
	return fmt.Sprintf("INFLUD%02d-%s.csv", date.Year()%100, date.Format("02-01-2006"))
}

// url expands the base-URL template for a file date.
func (c *Client) url(date time.Time) string {
	u := strings.ReplaceAll(c.cfg.BaseURL, "{year}", fmt.Sprintf("%d", date.Year()))
	return strings.ReplaceAll(u, "{filename}", filename(date))
}

// Fetch probes candidate file dates from today backwards and downloads the
// first file that exists into destDir as raw.csv, writing metadata.json
// beside it. It returns the metadata of the file it found.
func (c *Client) Fetch(ctx context.Context, destDir string) (*Metadata, error) {
	days := c.cfg.DaysToTry
	if days <= 0 {
		days = 1
	}
	today := c.now().UTC().Truncate(24 * time.Hour)

	for i := 0; i < days; i++ {
		date := today.AddDate(0, 0, -i)
		meta, err := c.tryDate(ctx, date, destDir)
		if err == nil {
			return meta, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		c.log.Debug("no file for date", "date", date.Format("2006-01-02"), "reason", err)
	}
	return nil, fmt.Errorf("no published file found in the last %d days", days)
}

func (c *Client) tryDate(ctx context.Context, date time.Time, destDir string) (*Metadata, error) {
	u := c.url(date)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", u, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status %d for %s", resp.StatusCode, u)
	}

	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return nil, fmt.Errorf("create dest dir: %w", err)
	}
	dest := filepath.Join(destDir, "raw.csv")
	f, err := os.Create(dest)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", dest, err)
	}
	n, err := io.Copy(f, resp.Body)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(dest)
		return nil, fmt.Errorf("write %s: %w", dest, err)
	}

	meta := &Metadata{
		SourceURL:    u,
		Filename:     filename(date),
		FileDate:     date.Format("2006-01-02"),
		SizeBytes:    n,
		DownloadedAt: c.now().UTC(),
	}
	if err := writeMetadata(filepath.Join(destDir, "metadata.json"), meta); err != nil {
		return nil, err
	}
	c.log.Info("downloaded raw file", "filename", meta.Filename, "bytes", n)
	return meta, nil
}

func writeMetadata(path string, meta *Metadata) error {
	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal metadata: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write metadata: %w", err)
	}
	return nil
}
