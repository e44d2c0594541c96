package main

import (
	"fmt"
	"time"

	"github.com/aluiziolira/books-rpa/config"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

type rootOptions struct {
	configPath  string
	baseURL     string
	outputDir   string
	settleDelay time.Duration
	timeout     time.Duration
	maxPages    int
	metricsAddr string
	skipReport  bool
	verbose     bool
}

func newRootCmd(a *app) *cobra.Command {
	defaults := config.DefaultConfig()
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "books-rpa",
		Short: "Scrape the Books to Scrape catalog into CSV, JSON and a PDF report",
		Long: `books-rpa walks every listing page of the catalog in order, normalizes each
book into a record, and writes the dataset as CSV and JSON. Unless disabled,
it then analyzes prices and renders a PDF report with a YAML summary.

Settings come from defaults, then the --config YAML file, then BOOKS_*
environment variables (a .env file is loaded if present), then flags.`,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			_ = godotenv.Load()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveConfig(cmd, opts)
			if err != nil {
				return err
			}
			return a.run(cmd.Context(), cfg)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.configPath, "config", "", "YAML configuration file")
	flags.StringVar(&opts.baseURL, "base-url", defaults.BaseURL, "Catalog URL to start from")
	flags.StringVar(&opts.outputDir, "output-dir", defaults.OutputDir, "Directory for the dataset and report")
	flags.DurationVar(&opts.settleDelay, "settle-delay", defaults.SettleDelay, "Pause after each page load")
	flags.DurationVar(&opts.timeout, "timeout", defaults.Timeout, "Page load timeout")
	flags.IntVar(&opts.maxPages, "max-pages", defaults.MaxPages, "Maximum listing pages to visit")
	flags.StringVar(&opts.metricsAddr, "metrics-addr", defaults.MetricsAddr, "Prometheus metrics listen address (e.g. :9090)")
	flags.BoolVar(&opts.skipReport, "skip-report", false, "Write the dataset only")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "Enable debug logging")

	return cmd
}

// resolveConfig layers the config file, the environment, and explicitly set
// flags over the defaults.
func resolveConfig(cmd *cobra.Command, opts *rootOptions) (*config.Config, error) {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return nil, err
	}
	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("base-url") {
		cfg.BaseURL = opts.baseURL
	}
	if flags.Changed("output-dir") {
		cfg.OutputDir = opts.outputDir
	}
	if flags.Changed("settle-delay") {
		cfg.SettleDelay = opts.settleDelay
	}
	if flags.Changed("timeout") {
		cfg.Timeout = opts.timeout
	}
	if flags.Changed("max-pages") {
		cfg.MaxPages = opts.maxPages
	}
	if flags.Changed("metrics-addr") {
		cfg.MetricsAddr = opts.metricsAddr
	}
	if flags.Changed("skip-report") {
		cfg.SkipReport = opts.skipReport
	}
	if flags.Changed("verbose") {
		cfg.Verbose = opts.verbose
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}
