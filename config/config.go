package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds scraper configuration.
type Config struct {
	BaseURL          string        `yaml:"base_url"`
	SettleDelay      time.Duration `yaml:"settle_delay"`
	Timeout          time.Duration `yaml:"timeout"`
	MaxPages         int           `yaml:"max_pages"`
	VisitedCacheSize int           `yaml:"visited_cache_size"`
	UserAgent        string        `yaml:"user_agent"`
	RespectRobotsTxt bool          `yaml:"respect_robots_txt"`
	OutputDir        string        `yaml:"output_dir"`
	CSVFile          string        `yaml:"csv_file"`
	JSONFile         string        `yaml:"json_file"`
	ReportFile       string        `yaml:"report_file"`
	SummaryFile      string        `yaml:"summary_file"`
	SkipReport       bool          `yaml:"skip_report"`
	MetricsAddr      string        `yaml:"metrics_addr"`
	Verbose          bool          `yaml:"verbose"`
}

// DefaultConfig returns conservative defaults for the demo target.
func DefaultConfig() *Config {
	return &Config{
		BaseURL:          "https://books.toscrape.com",
		SettleDelay:      300 * time.Millisecond,
		Timeout:          30 * time.Second,
		MaxPages:         100,
		VisitedCacheSize: 1024,
		UserAgent:        "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/117.0.0.0 Safari/537.36",
		RespectRobotsTxt: false,
		OutputDir:        "output_books",
		CSVFile:          "books_data.csv",
		JSONFile:         "books_data.json",
		ReportFile:       "books_report.pdf",
		SummaryFile:      "books_summary.yaml",
	}
}

// Load overlays the YAML file at path onto the defaults. An empty path
// returns the defaults unchanged.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %q: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %q: %w", path, err)
	}
	return cfg, nil
}

// ApplyEnv overrides fields from BOOKS_* environment variables.
func (c *Config) ApplyEnv() error {
	if value, ok := EnvString("BOOKS_BASE_URL"); ok {
		c.BaseURL = value
	}
	if value, ok := EnvString("BOOKS_OUTPUT_DIR"); ok {
		c.OutputDir = value
	}
	if value, ok := EnvString("BOOKS_METRICS_ADDR"); ok {
		c.MetricsAddr = value
	}
	if value, ok, err := EnvInt("BOOKS_MAX_PAGES"); err != nil {
		return fmt.Errorf("invalid BOOKS_MAX_PAGES: %w", err)
	} else if ok {
		c.MaxPages = value
	}
	if value, ok, err := EnvDuration("BOOKS_SETTLE_DELAY"); err != nil {
		return fmt.Errorf("invalid BOOKS_SETTLE_DELAY: %w", err)
	} else if ok {
		c.SettleDelay = value
	}
	if value, ok, err := EnvDuration("BOOKS_TIMEOUT"); err != nil {
		return fmt.Errorf("invalid BOOKS_TIMEOUT: %w", err)
	} else if ok {
		c.Timeout = value
	}
	return nil
}

// Validate ensures all configuration values are coherent.
func (c *Config) Validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("base URL cannot be empty")
	}

	parsedURL, err := url.Parse(c.BaseURL)
	if err != nil {
		return fmt.Errorf("invalid base URL: %w", err)
	}
	if parsedURL.Host == "" {
		return fmt.Errorf("base URL must include a host")
	}

	if c.SettleDelay < 0 {
		return fmt.Errorf("settle delay cannot be negative")
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	if c.MaxPages <= 0 {
		return fmt.Errorf("max pages must be positive")
	}
	if c.VisitedCacheSize < c.MaxPages {
		return fmt.Errorf("visited cache size (%d) cannot be smaller than max pages (%d)", c.VisitedCacheSize, c.MaxPages)
	}
	if c.UserAgent == "" {
		return fmt.Errorf("user agent cannot be empty")
	}
	if c.OutputDir == "" {
		return fmt.Errorf("output dir cannot be empty")
	}

	files := map[string]string{
		"csv file":     c.CSVFile,
		"json file":    c.JSONFile,
		"report file":  c.ReportFile,
		"summary file": c.SummaryFile,
	}
	seen := make(map[string]string, len(files))
	for _, label := range []string{"csv file", "json file", "report file", "summary file"} {
		name := files[label]
		if name == "" {
			return fmt.Errorf("%s cannot be empty", label)
		}
		if filepath.Base(name) != name {
			return fmt.Errorf("%s must be a bare file name, got %q", label, name)
		}
		if other, ok := seen[name]; ok {
			return fmt.Errorf("%s and %s both use %q", other, label, name)
		}
		seen[name] = label
	}

	return nil
}

// CSVPath returns the delimited-text output location.
func (c *Config) CSVPath() string { return filepath.Join(c.OutputDir, c.CSVFile) }

// JSONPath returns the structured-text output location.
func (c *Config) JSONPath() string { return filepath.Join(c.OutputDir, c.JSONFile) }

// ReportPath returns the PDF report location.
func (c *Config) ReportPath() string { return filepath.Join(c.OutputDir, c.ReportFile) }

// SummaryPath returns the YAML summary location.
func (c *Config) SummaryPath() string { return filepath.Join(c.OutputDir, c.SummaryFile) }

// EnvString returns a trimmed, non-empty environment value.
func EnvString(key string) (string, bool) {
	value, ok := os.LookupEnv(key)
	if !ok {
		return "", false
	}
	value = strings.TrimSpace(value)
	if value == "" {
		return "", false
	}
	return value, true
}

// EnvInt parses an integer environment value.
func EnvInt(key string) (int, bool, error) {
	value, ok := EnvString(key)
	if !ok {
		return 0, false, nil
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0, false, err
	}
	return parsed, true, nil
}

// EnvDuration parses a duration environment value such as "500ms".
func EnvDuration(key string) (time.Duration, bool, error) {
	value, ok := EnvString(key)
	if !ok {
		return 0, false, nil
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return 0, false, errors.Join(fmt.Errorf("duration %q", value), err)
	}
	return parsed, true, nil
}
