// Package llm turns the assembled report input into the narrative section
// of the bulletin through an OpenAI-compatible chat completion.
package llm

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"sragwatch/internal/config"
	"sragwatch/internal/logging"
	"sragwatch/internal/metrics"
	"sragwatch/internal/report"
)

// Writer produces the report narrative.
type Writer struct {
	cfg    config.ReportConfig
	client *openai.Client
	log    *slog.Logger
}

// NewWriter builds a narrative writer. An empty API key is allowed here and
// reported when Write is called, so the stage failure names the real problem.
func NewWriter(cfg config.ReportConfig, apiKey string) *Writer {
	oc := openai.DefaultConfig(apiKey)
	if cfg.BaseURL != "" {
		oc.BaseURL = cfg.BaseURL
	}
	return &Writer{
		cfg:    cfg,
		client: openai.NewClientWithConfig(oc),
		log:    logging.New("llm"),
	}
}

// Write sends the assembled input to the model and returns the narrative
// markdown.
func (w *Writer) Write(ctx context.Context, in *report.Input) (string, error) {
	prompt := buildPrompt(in)
	w.log.Debug("requesting narrative", "model", w.cfg.Model, "prompt_chars", len(prompt))

	resp, err := w.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       w.cfg.Model,
		Temperature: w.cfg.Temperature,
		MaxTokens:   w.cfg.MaxTokens,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: w.cfg.SystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("chat completion returned no choices")
	}
	narrative := strings.TrimSpace(resp.Choices[0].Message.Content)
	if narrative == "" {
		return "", fmt.Errorf("chat completion returned an empty narrative")
	}
	return narrative, nil
}

// buildPrompt renders the assembled input as a markdown briefing. Sections
// and rows are emitted in a fixed order so the same input always produces
// the same prompt.
func buildPrompt(in *report.Input) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Data de referência da análise: %s\n\n", in.Anchor)

	b.WriteString("## Casos notificados por período\n")
	for _, label := range report.PeriodOrder {
		if n, ok := in.Counts[label]; ok {
			fmt.Fprintf(&b, "- %s: %d casos", report.PeriodTitle(label), n)
			if p, ok := in.Periods[label]; ok {
				fmt.Fprintf(&b, " (%s a %s)", p.Start, p.End)
			}
			b.WriteString("\n")
		}
	}

	b.WriteString("\n## Taxas calculadas (%)\n")
	for _, label := range report.PeriodOrder {
		values, ok := in.Metrics[label]
		if !ok {
			continue
		}
		fmt.Fprintf(&b, "### %s\n", report.PeriodTitle(label))
		for _, name := range report.RateOrder {
			if name == metrics.IncreaseRate {
				if v, ok := values[name]; ok {
					fmt.Fprintf(&b, "- %s: %s\n", report.RateTitle(name), formatRate(v))
				}
				continue
			}
			fmt.Fprintf(&b, "- %s: %s\n", report.RateTitle(name), formatRate(values[name]))
		}
	}

	if len(in.News) > 0 {
		b.WriteString("\n## Notícias recentes sobre SRAG\n")
		for _, item := range in.News {
			fmt.Fprintf(&b, "- %s (%s, %s): %s\n", item.Title, item.Source, item.Date, item.Snippet)
		}
	}

	b.WriteString("\nEscreva a análise do boletim com base exclusivamente nos dados acima. " +
		"Comente a tendência de casos, a mortalidade, a ocupação de UTI e a cobertura vacinal. " +
		"Quando um valor estiver indisponível, diga que não há dados suficientes em vez de estimar.")
	return b.String()
}

func formatRate(v *float64) string {
	if v == nil {
		return "indisponível"
	}
	return fmt.Sprintf("%.2f", *v)
}
