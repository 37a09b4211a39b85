package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gcci/certgen/internal/application/rendering"
	"github.com/gcci/certgen/internal/infrastructure/cache"
	"github.com/gcci/certgen/internal/infrastructure/config"
	"github.com/gcci/certgen/internal/infrastructure/logger"
	"github.com/gcci/certgen/internal/infrastructure/printing"
	"github.com/gcci/certgen/internal/infrastructure/telemetry"
	"github.com/gcci/certgen/internal/interfaces/http/handler"
	"github.com/gcci/certgen/internal/interfaces/http/router"
	"go.uber.org/zap"
)

func main() {
	configPath := flag.String("config", "", "path to a TOML config file")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = log.Sync()
	}()

	log.Info("Starting certificate server",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("version", cfg.App.Version),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Tracing
	tp, err := telemetry.NewTracerProvider(ctx, telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		ServiceVersion:    cfg.App.Version,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize tracing", zap.Error(err))
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tp.Shutdown(shutdownCtx); err != nil {
			log.Error("Error shutting down tracer provider", zap.Error(err))
		}
	}()

	// Rendering
	background, err := printing.LoadBackground(cfg.Render.BackgroundImage, cfg.Render.RequireBackground)
	if err != nil {
		log.Fatal("Failed to load background image", zap.Error(err))
	}
	if background.Missing {
		log.Warn("Background image missing, certificates will carry a placeholder",
			zap.String("path", cfg.Render.BackgroundImage))
	}

	engine, err := printing.NewTemplateEngine()
	if err != nil {
		log.Fatal("Failed to compile certificate template", zap.Error(err))
	}
	pdf := printing.NewChromedpRenderer(printing.ChromedpConfig{
		DefaultTimeout: cfg.Render.Timeout,
		RemoteURL:      cfg.Render.ChromeURL,
		ExecPath:       cfg.Render.ChromePath,
		NoSandbox:      cfg.Render.NoSandbox,
		Logger:         log,
	})
	defer func() {
		if err := pdf.Close(); err != nil {
			log.Error("Error closing PDF renderer", zap.Error(err))
		}
	}()
	service := rendering.NewService(engine, pdf, background, cfg.Render.Timeout, log)

	// Metrics
	registry := telemetry.NewRegistry()
	httpMetrics := telemetry.NewHTTPMetrics(registry)

	// Handlers
	certOpts := []handler.CertificateOption{handler.WithRenderMetrics(httpMetrics)}
	if cfg.Idempotency.Enabled {
		store, err := cache.NewIdempotencyStore(cfg.Idempotency, cfg.Redis, log)
		if err != nil {
			log.Fatal("Failed to initialize idempotency store", zap.Error(err))
		}
		defer func() {
			if err := store.Close(); err != nil {
				log.Error("Error closing idempotency store", zap.Error(err))
			}
		}()
		certOpts = append(certOpts, handler.WithIdempotency(store, cfg.Idempotency.TTL))
		log.Info("Idempotency-Key replay enabled",
			zap.String("backend", cfg.Idempotency.Backend),
			zap.Duration("ttl", cfg.Idempotency.TTL),
		)
	}

	httpEngine, err := router.NewEngine(ctx, router.Deps{
		Config:      cfg,
		Logger:      log,
		Certificate: handler.NewCertificateHandler(service, certOpts...),
		System:      handler.NewSystemHandler(cfg.App.Name, cfg.App.Version),
		Metrics:     httpMetrics,
		Registry:    registry,
		Tracing:     tp.IsEnabled(),
	})
	if err != nil {
		log.Fatal("Failed to build HTTP engine", zap.Error(err))
	}

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        httpEngine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serveErr <- err
		}
	}()

	select {
	case <-ctx.Done():
		log.Info("Shutting down server...")
	case err := <-serveErr:
		log.Error("Server failed", zap.Error(err))
		stop()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
		os.Exit(1)
	}

	log.Info("Server exited gracefully")
}
