package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name: "zero max pages",
			mutate: func(cfg *Config) {
				cfg.MaxPages = 0
			},
			wantErr: "max pages",
		},
		{
			name: "empty base url",
			mutate: func(cfg *Config) {
				cfg.BaseURL = ""
			},
			wantErr: "base URL",
		},
		{
			name: "invalid url format",
			mutate: func(cfg *Config) {
				cfg.BaseURL = "http://"
			},
			wantErr: "base URL",
		},
		{
			name: "negative timeout",
			mutate: func(cfg *Config) {
				cfg.Timeout = -1 * time.Second
			},
			wantErr: "timeout",
		},
		{
			name: "negative settle delay",
			mutate: func(cfg *Config) {
				cfg.SettleDelay = -time.Millisecond
			},
			wantErr: "settle delay",
		},
		{
			name: "visited cache smaller than pages",
			mutate: func(cfg *Config) {
				cfg.VisitedCacheSize = 10
			},
			wantErr: "visited cache",
		},
		{
			name: "output file with directory",
			mutate: func(cfg *Config) {
				cfg.CSVFile = "nested/books.csv"
			},
			wantErr: "bare file name",
		},
		{
			name: "colliding output files",
			mutate: func(cfg *Config) {
				cfg.JSONFile = cfg.CSVFile
			},
			wantErr: "both use",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestDefaultConfigValid(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should validate, got %v", err)
	}
}

func TestLoadOverlaysYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "books.yaml")
	body := "base_url: http://example.test/\nsettle_delay: 50ms\nmax_pages: 3\noutput_dir: out\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.BaseURL != "http://example.test/" || cfg.MaxPages != 3 || cfg.OutputDir != "out" {
		t.Fatalf("unexpected overlay: %+v", cfg)
	}
	if cfg.SettleDelay != 50*time.Millisecond {
		t.Fatalf("settle delay = %v, want 50ms", cfg.SettleDelay)
	}
	if cfg.CSVFile != "books_data.csv" {
		t.Fatalf("unset fields should keep defaults, csv file = %q", cfg.CSVFile)
	}
	if got := cfg.CSVPath(); got != filepath.Join("out", "books_data.csv") {
		t.Fatalf("csv path = %q", got)
	}
}

func TestApplyEnv(t *testing.T) {
	t.Setenv("BOOKS_MAX_PAGES", "7")
	t.Setenv("BOOKS_SETTLE_DELAY", "1s")
	t.Setenv("BOOKS_OUTPUT_DIR", "  ")

	cfg := DefaultConfig()
	if err := cfg.ApplyEnv(); err != nil {
		t.Fatalf("apply env: %v", err)
	}
	if cfg.MaxPages != 7 {
		t.Fatalf("max pages = %d, want 7", cfg.MaxPages)
	}
	if cfg.SettleDelay != time.Second {
		t.Fatalf("settle delay = %v, want 1s", cfg.SettleDelay)
	}
	if cfg.OutputDir != "output_books" {
		t.Fatalf("blank env should be ignored, output dir = %q", cfg.OutputDir)
	}

	t.Setenv("BOOKS_TIMEOUT", "soon")
	if err := cfg.ApplyEnv(); err == nil || !strings.Contains(err.Error(), "BOOKS_TIMEOUT") {
		t.Fatalf("expected BOOKS_TIMEOUT error, got %v", err)
	}
}
