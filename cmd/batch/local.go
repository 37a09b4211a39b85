package main

import (
	"context"
	"fmt"

	"github.com/gcci/certgen/internal/application/batch"
	"github.com/gcci/certgen/internal/application/rendering"
	"github.com/gcci/certgen/internal/infrastructure/config"
	"github.com/gcci/certgen/internal/infrastructure/printing"
	"go.uber.org/zap"
)

// newLocalRenderer renders certificates in this process with the same
// service the HTTP server uses, so a run needs no server.
func newLocalRenderer(_ context.Context, cfg *config.Config, log *zap.Logger) (batch.Renderer, func(), error) {
	background, err := printing.LoadBackground(cfg.Render.BackgroundImage, cfg.Render.RequireBackground)
	if err != nil {
		return nil, nil, fmt.Errorf("load background image: %w", err)
	}
	if background.Missing {
		log.Warn("Background image missing, certificates will carry a placeholder",
			zap.String("path", cfg.Render.BackgroundImage))
	}

	engine, err := printing.NewTemplateEngine()
	if err != nil {
		return nil, nil, fmt.Errorf("compile certificate template: %w", err)
	}
	pdf := printing.NewChromedpRenderer(printing.ChromedpConfig{
		DefaultTimeout: cfg.Render.Timeout,
		RemoteURL:      cfg.Render.ChromeURL,
		ExecPath:       cfg.Render.ChromePath,
		NoSandbox:      cfg.Render.NoSandbox,
		Logger:         log,
	})
	closer := func() {
		if err := pdf.Close(); err != nil {
			log.Warn("Error closing PDF renderer", zap.Error(err))
		}
	}

	service := rendering.NewService(engine, pdf, background, cfg.Render.Timeout, log)
	return rendering.NewBatchRenderer(service), closer, nil
}
