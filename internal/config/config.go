// Package config loads the pipeline parameters file (YAML) and the API
// credentials that the news and report collaborators need. Credentials come
// from the environment (optionally seeded from a .env file); everything else
// lives in the parameters file so a run is reproducible from it.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Duration wraps time.Duration so timeouts can be written as "90s" or "2m"
// in the parameters file.
type Duration time.Duration

// UnmarshalYAML parses a Go duration string.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("parse duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML renders the duration back as a string.
func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// DownloaderConfig controls the raw-file download stage.
type DownloaderConfig struct {
	// BaseURL is a template with {year} and {filename} placeholders.
	BaseURL string `yaml:"base_url"`
	// DaysToTry is how many days back from today candidate files are probed.
	DaysToTry int `yaml:"days_to_try"`
}

// PreprocessConfig controls the cleaning stage.
type PreprocessConfig struct {
	// Columns are the raw CSV columns kept for analysis. A missing column
	// is an ingestion error.
	Columns []string `yaml:"columns_to_keep"`
}

// NewsConfig controls the news collection stage.
type NewsConfig struct {
	Endpoint   string `yaml:"endpoint"`
	Query      string `yaml:"query"`
	Country    string `yaml:"country_code"`
	Language   string `yaml:"language_code"`
	NumResults int    `yaml:"num_results"`
	// TimePeriod is the search recency filter, e.g. "qdr:m" for one month.
	TimePeriod string `yaml:"time_period"`
}

// ReportConfig controls the narrative-writer stage.
type ReportConfig struct {
	Model        string  `yaml:"model"`
	Temperature  float32 `yaml:"temperature"`
	MaxTokens    int     `yaml:"max_tokens"`
	SystemPrompt string  `yaml:"system_prompt"`
	// BaseURL overrides the API endpoint (for gateways/self-hosted models).
	BaseURL string `yaml:"base_url"`
}

// RenderConfig controls the final rendering stage.
type RenderConfig struct {
	// PDF enables printing the HTML report to PDF through headless Chrome.
	PDF bool `yaml:"pdf"`
}

// TimeoutsConfig sets per-stage deadlines for the stages that block on
// external collaborators. Zero means no deadline.
type TimeoutsConfig struct {
	Download Duration `yaml:"download"`
	News     Duration `yaml:"news"`
	Report   Duration `yaml:"report"`
	Render   Duration `yaml:"render"`
}

// Config is the full parameters file.
type Config struct {
	// DataDir is the root for run artifacts, logs, and the run-history DB.
	DataDir    string           `yaml:"data_dir"`
	LogLevel   string           `yaml:"log_level"`
	LogFormat  string           `yaml:"log_format"`
	Downloader DownloaderConfig `yaml:"downloader"`
	Preprocess PreprocessConfig `yaml:"preprocessing"`
	Timeouts   TimeoutsConfig   `yaml:"timeouts"`
	News       NewsConfig       `yaml:"news"`
	Report     ReportConfig     `yaml:"report"`
	Render     RenderConfig     `yaml:"render"`
}

// Default returns the configuration used when no parameters file is given.
func Default() *Config {
	return &Config{
		DataDir:   "data",
		LogLevel:  "info",
		LogFormat: "text",
		Downloader: DownloaderConfig{
			BaseURL:   "https://s3.sa-east-1.amazonaws.com/ckan.saude.gov.br/SRAG/{year}/{filename}",
			DaysToTry: 15,
		},
		Preprocess: PreprocessConfig{
			Columns: []string{"DT_NOTIFIC", "EVOLUCAO", "UTI", "VACINA", "VACINA_COV"},
		},
		Timeouts: TimeoutsConfig{
			Download: Duration(5 * time.Minute),
			News:     Duration(30 * time.Second),
			Report:   Duration(2 * time.Minute),
			Render:   Duration(1 * time.Minute),
		},
		News: NewsConfig{
			Endpoint:   "https://google.serper.dev/news",
			Query:      "surto de SRAG síndrome respiratória aguda grave Brasil",
			Country:    "br",
			Language:   "pt-br",
			NumResults: 10,
			TimePeriod: "qdr:m",
		},
		Report: ReportConfig{
			Model:       "gpt-4o-mini",
			Temperature: 0.2,
			MaxTokens:   2000,
			SystemPrompt: "Você é um epidemiologista escrevendo um boletim sobre SRAG no Brasil. " +
				"Escreva em português, com tom técnico e objetivo, citando os números fornecidos.",
		},
		Render: RenderConfig{PDF: false},
	}
}

// Load reads a parameters file and overlays it on the defaults, then applies
// environment overrides.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config yaml: %w", err)
	}
	cfg.applyEnv()
	return cfg, nil
}

// LoadOrDefault loads the parameters file if it exists, otherwise returns
// the defaults with environment overrides applied. An unreadable or
// malformed existing file is still an error.
func LoadOrDefault(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		cfg := Default()
		cfg.applyEnv()
		return cfg, nil
	}
	return Load(path)
}

// applyEnv overlays the deployment-level settings that operators commonly
// set per environment rather than per parameters file.
func (c *Config) applyEnv() {
	if v := os.Getenv("SRAGWATCH_DATA_DIR"); v != "" {
		c.DataDir = v
	}
	if v := os.Getenv("SRAGWATCH_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv("SRAGWATCH_LOG_FORMAT"); v != "" {
		c.LogFormat = v
	}
}

// Credentials are the API keys the external collaborators need.
type Credentials struct {
	SerperAPIKey string
	OpenAIAPIKey string
}

// LoadCredentials reads API keys from the environment, first loading a .env
// file when one is present in the working directory. Missing keys are left
// empty; the stages that need them fail with a clear reason at run time.
func LoadCredentials() Credentials {
	_ = godotenv.Load()
	return Credentials{
		SerperAPIKey: os.Getenv("SERPER_API_KEY"),
		OpenAIAPIKey: os.Getenv("OPENAI_API_KEY"),
	}
}

// RunsDir returns the directory that holds per-run artifact trees.
func (c *Config) RunsDir() string { return filepath.Join(c.DataDir, "runs") }

// LogsDir returns the directory for the shared log file.
func (c *Config) LogsDir() string { return filepath.Join(c.DataDir, "logs") }

// StorePath returns the run-history database path.
func (c *Config) StorePath() string { return filepath.Join(c.DataDir, "sragwatch.db") }
