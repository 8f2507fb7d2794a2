// Package news is the thin client for the Serper news-search API. The core
// only depends on its output schema: an ordered list of items for the
// trailing search window.
package news

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"sragwatch/internal/config"
	"sragwatch/internal/logging"
)

// Item is one news result in the payload schema the core consumes.
type Item struct {
	Title   string `json:"title"`
	Snippet string `json:"snippet"`
	Date    string `json:"date"`
	Source  string `json:"source"`
}

// Client calls the Serper news endpoint.
type Client struct {
	cfg    config.NewsConfig
	apiKey string
	http   *http.Client
	log    *slog.Logger
}

// NewClient builds a news client. The API key may be empty; Search then
// fails with a clear reason so the stage failure names the real problem.
// The request deadline comes from the stage context, never from the client.
func NewClient(cfg config.NewsConfig, apiKey string) *Client {
	return &Client{
		cfg:    cfg,
		apiKey: apiKey,
		http:   &http.Client{},
		log:    logging.New("news"),
	}
}

// serperRequest is the search request body.
type serperRequest struct {
	Query      string `json:"q"`
	Country    string `json:"gl,omitempty"`
	Language   string `json:"hl,omitempty"`
	NumResults int    `json:"num,omitempty"`
	TimePeriod string `json:"tbs,omitempty"`
}

// serperResponse is the subset of the response the pipeline reads.
type serperResponse struct {
	News []struct {
		Title   string `json:"title"`
		Snippet string `json:"snippet"`
		Date    string `json:"date"`
		Source  string `json:"source"`
	} `json:"news"`
}

// Search runs the configured query and returns the formatted items in API
// order. An empty result list is not an error — the report renders an empty
// news section.
func (c *Client) Search(ctx context.Context) ([]Item, error) {
	if c.apiKey == "" {
		return nil, fmt.Errorf("SERPER_API_KEY is not set")
	}

	body, err := json.Marshal(serperRequest{
		Query:      c.cfg.Query,
		Country:    c.cfg.Country,
		Language:   c.cfg.Language,
		NumResults: c.cfg.NumResults,
		TimePeriod: c.cfg.TimePeriod,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal news request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.Endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build news request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-API-KEY", c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("news search: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("news API returned status %d: %s", resp.StatusCode, snippet)
	}

	var parsed serperResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode news response: %w", err)
	}

	items := make([]Item, 0, len(parsed.News))
	for _, n := range parsed.News {
		items = append(items, Item{Title: n.Title, Snippet: n.Snippet, Date: n.Date, Source: n.Source})
	}
	if len(items) == 0 {
		c.log.Warn("news search returned no results", "query", c.cfg.Query)
	}
	return items, nil
}
