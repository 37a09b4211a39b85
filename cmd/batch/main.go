// Command certgen-batch submits certificate records to the render service
// one at a time, retrying failures and saving every PDF it gets back.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gcci/certgen/internal/application/batch"
	"github.com/gcci/certgen/internal/infrastructure/config"
	"github.com/gcci/certgen/internal/infrastructure/csvimport"
	"github.com/gcci/certgen/internal/infrastructure/generator"
	"github.com/gcci/certgen/internal/infrastructure/hostmetrics"
	"github.com/gcci/certgen/internal/infrastructure/logger"
	"github.com/gcci/certgen/internal/infrastructure/persistence"
	"github.com/gcci/certgen/internal/infrastructure/renderclient"
	"github.com/gcci/certgen/internal/infrastructure/report"
	"github.com/gcci/certgen/internal/infrastructure/storage"
	"github.com/gcci/certgen/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

func main() {
	flags, err := parseFlags(flag.CommandLine, os.Args[1:])
	if err != nil {
		os.Exit(2)
	}

	cfg, err := config.Load(flags.configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Failed to load configuration:", err)
		os.Exit(1)
	}

	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, "Failed to initialize logger:", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err = run(ctx, cfg, flags, log)
	stop()
	if err != nil {
		log.Error("Batch run failed", zap.Error(err))
		_ = log.Sync()
		os.Exit(1)
	}
	_ = log.Sync()
}

func run(ctx context.Context, cfg *config.Config, flags *cliFlags, log *zap.Logger) error {
	opts, err := resolveOptions(cfg, flags)
	if err != nil {
		return err
	}

	tp, err := telemetry.NewTracerProvider(ctx, telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName + "-batch",
		ServiceVersion:    cfg.App.Version,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		return fmt.Errorf("initialize tracing: %w", err)
	}
	defer func() {
		if err := tp.Shutdown(context.Background()); err != nil {
			log.Warn("Tracer shutdown failed", zap.Error(err))
		}
	}()

	registry := telemetry.NewRegistry()
	driverOpts := []batch.Option{
		batch.WithLogger(log),
		batch.WithObserver(telemetry.NewBatchMetrics(registry)),
		batch.WithHostMetrics(hostmetrics.NewSampler()),
	}
	if opts.metricsAddr != "" {
		metricsCtx, cancel := context.WithCancel(ctx)
		defer cancel()
		go func() {
			if err := telemetry.ServeMetrics(metricsCtx, opts.metricsAddr, registry, log); err != nil {
				log.Warn("Metrics server stopped", zap.Error(err))
			}
		}()
	}

	src, err := newSource(opts, log)
	if err != nil {
		return err
	}

	renderer, closeRenderer, err := newRenderer(ctx, cfg, opts, log)
	if err != nil {
		return err
	}
	defer closeRenderer()

	pdfWriter, err := storage.New(ctx, &cfg.Storage, opts.pdfDir, log)
	if err != nil {
		return fmt.Errorf("open PDF storage: %w", err)
	}
	artifacts := storage.NewArtifactStore(pdfWriter)

	if opts.reports {
		reportWriter, err := storage.New(ctx, &cfg.Storage, opts.reportDir, log)
		if err != nil {
			return fmt.Errorf("open report storage: %w", err)
		}
		driverOpts = append(driverOpts, batch.WithReports(report.NewCSVStore(reportWriter), generator.NewFakerScorer(opts.seed)))
	}

	if cfg.Database.Enabled {
		db, err := persistence.NewDatabase(&cfg.Database, persistence.Options{
			LogLevel: logger.MapGormLogLevel(cfg.Log.Level),
			Tracing:  cfg.Telemetry.DBTraceEnabled && tp.IsEnabled(),
			Logger:   log,
		})
		if err != nil {
			return fmt.Errorf("open run ledger: %w", err)
		}
		defer func() {
			if err := db.Close(); err != nil {
				log.Warn("Error closing run ledger", zap.Error(err))
			}
		}()
		driverOpts = append(driverOpts, batch.WithLedger(persistence.NewRunLedger(db.DB)))
	}

	// The context logger tags ledger SQL logs with the run ID.
	runID := uuid.NewString()
	ctx, runLog := logger.WithRunID(ctx, log, runID)

	driver, err := batch.NewDriver(batch.Config{
		RunID:       runID,
		Mode:        opts.mode,
		Policy:      opts.policy,
		RecordDelay: opts.recordDelay,
		Breaker:     opts.breaker,
	}, renderer, artifacts, driverOpts...)
	if err != nil {
		return err
	}

	runLog.Info("Batch run starting",
		zap.String("mode", opts.mode),
		zap.String("render_url", opts.renderURL),
		zap.Int("max_attempts", opts.policy.MaxAttempts),
		zap.Duration("retry_delay", opts.policy.Delay),
		zap.Duration("record_delay", opts.recordDelay),
		zap.Bool("reports", opts.reports),
	)

	summary, err := driver.Run(ctx, src)
	if summary != nil {
		runLog.Info("Batch run finished",
			zap.Int("total", summary.Total),
			zap.Int("succeeded", summary.Succeeded),
			zap.Int("failed", summary.Failed),
			zap.Int("rejected", summary.Rejected),
			zap.Int("attempts", summary.Attempts),
			zap.Int("pauses", summary.Pauses),
			zap.Ints("failed_records", summary.FailedIdx),
			zap.Duration("duration", summary.Duration),
		)
	}
	if errors.Is(err, context.Canceled) {
		return fmt.Errorf("batch run interrupted: %w", err)
	}
	return err
}

func newSource(opts *options, log *zap.Logger) (batch.Source, error) {
	if opts.mode == modeSynthetic {
		return generator.NewSyntheticSource(opts.count, opts.seed)
	}
	return csvimport.NewFileSource(opts.input, opts.delimiter, log), nil
}

func newRenderer(ctx context.Context, cfg *config.Config, opts *options, log *zap.Logger) (batch.Renderer, func(), error) {
	if opts.renderURL == localRenderURL {
		return newLocalRenderer(ctx, cfg, log)
	}
	client, err := renderclient.New(renderclient.Config{
		URL:     opts.renderURL,
		Timeout: opts.requestTimeout,
	})
	if err != nil {
		return nil, nil, err
	}
	return client, client.Close, nil
}
