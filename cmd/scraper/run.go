package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/aluiziolira/books-rpa/analysis"
	"github.com/aluiziolira/books-rpa/config"
	"github.com/aluiziolira/books-rpa/pipeline"
	"github.com/aluiziolira/books-rpa/report"
	"github.com/aluiziolira/books-rpa/scraper"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// app holds the process-level dependencies of a run.
type app struct {
	out       io.Writer
	logOut    io.Writer
	transport http.RoundTripper
}

type outputs struct {
	csv, json       string
	report, summary string
}

func (a *app) run(ctx context.Context, cfg *config.Config) error {
	runID := uuid.NewString()
	slog.SetDefault(newLogger(cfg.Verbose, a.logOut, runID))

	slog.Info("starting scrape",
		slog.String("base_url", cfg.BaseURL),
		slog.String("output_dir", cfg.OutputDir),
		slog.Int("max_pages", cfg.MaxPages),
	)

	s, err := scraper.NewScraper(cfg)
	if err != nil {
		return fmt.Errorf("initialising scraper: %w", err)
	}
	if a.transport != nil {
		s.WithTransport(a.transport)
	}

	stopMetrics := serveMetrics(cfg.MetricsAddr, s.Metrics)
	defer stopMetrics()

	writer, err := pipeline.NewDualWriter(cfg.CSVPath(), cfg.JSONPath())
	if err != nil {
		return fmt.Errorf("creating writer: %w", err)
	}
	p := pipeline.NewPipeline(writer)

	startTime := time.Now()
	result, err := s.Run(ctx, p)
	if err != nil {
		if abortErr := p.Abort(); abortErr != nil {
			slog.Error("discard partial output", slog.Any("error", abortErr))
		}
		if kind := scraper.FailureKind(err); kind != "" {
			return fmt.Errorf("%s failure: %w", kind, err)
		}
		return err
	}

	if err := p.Close(); err != nil {
		return fmt.Errorf("write dataset: %w", err)
	}
	if err := writer.Validate(); err != nil {
		return fmt.Errorf("output validation failed: %w", err)
	}
	written := outputs{csv: cfg.CSVPath(), json: cfg.JSONPath()}
	slog.Info("dataset written",
		slog.String("csv", written.csv),
		slog.String("json", written.json),
		slog.Int("records", p.Catalog().Len()),
	)

	if !cfg.SkipReport {
		if err := writeReport(cfg, p.Catalog(), &written); err != nil {
			return err
		}
	}

	printSummary(a.out, result, time.Since(startTime), p.GetMetrics(), written)
	return nil
}

// writeReport analyzes the committed catalog and renders the PDF report and
// YAML summary. An empty catalog is logged and produces no report.
func writeReport(cfg *config.Config, catalog *pipeline.Catalog, written *outputs) error {
	result, err := analysis.Analyze(catalog.Records())
	if errors.Is(err, analysis.ErrEmptyCatalog) {
		slog.Warn("no records to analyze, skipping report")
		return nil
	}
	if err != nil {
		return fmt.Errorf("analyze catalog: %w", err)
	}

	opts := report.Options{Source: cfg.BaseURL, GeneratedAt: time.Now()}
	if err := report.WriteFile(cfg.ReportPath(), result, opts); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	if err := report.WriteSummaryYAML(cfg.SummaryPath(), result, opts); err != nil {
		return fmt.Errorf("write summary: %w", err)
	}
	written.report = cfg.ReportPath()
	written.summary = cfg.SummaryPath()

	slog.Info("report written",
		slog.String("report", written.report),
		slog.String("summary", written.summary),
		slog.Float64("price_median", result.Summary.PriceMedian),
	)
	return nil
}

// serveMetrics exposes the scraper registry on addr until the returned
// function is called. An empty addr disables the endpoint.
func serveMetrics(addr string, metrics *scraper.Metrics) func() {
	if addr == "" || metrics == nil {
		return func() {}
	}

	server := &http.Server{
		Addr:    addr,
		Handler: promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}),
	}
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("metrics server failed", slog.Any("error", err))
		}
	}()
	slog.Info("metrics server enabled", slog.String("addr", addr))

	return func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("metrics server shutdown failed", slog.Any("error", err))
		}
	}
}
