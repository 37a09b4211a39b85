// Package rendering turns certificate data into a PDF document.
package rendering

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gcci/certgen/internal/application/batch"
	"github.com/gcci/certgen/internal/domain/certificate"
	"github.com/gcci/certgen/internal/infrastructure/printing"
	"go.uber.org/zap"
)

// Result is a rendered certificate.
type Result struct {
	PDF      []byte
	Warnings []string
	Duration time.Duration
}

// Service renders certificates.
type Service struct {
	engine     *printing.TemplateEngine
	pdf        printing.PDFRenderer
	background *printing.Background
	timeout    time.Duration
	logger     *zap.Logger
}

// NewService creates a Service. background may be nil.
func NewService(
	engine *printing.TemplateEngine,
	pdf printing.PDFRenderer,
	background *printing.Background,
	timeout time.Duration,
	logger *zap.Logger,
) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if background == nil {
		background = &printing.Background{}
	}
	return &Service{
		engine:     engine,
		pdf:        pdf,
		background: background,
		timeout:    timeout,
		logger:     logger,
	}
}

// Generate validates d against the field rules and renders it. Validation
// failures are returned as *certificate.ValidationError, engine failures as
// *printing.RenderError.
func (s *Service) Generate(ctx context.Context, d certificate.Data) (*Result, error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}

	html, err := s.engine.Compose(d, s.background)
	if err != nil {
		return nil, err
	}

	out, err := s.pdf.Render(ctx, &printing.RenderRequest{
		HTML:    html,
		Title:   "Certificate of Origin " + d.CertificateNumber,
		Timeout: s.timeout,
	})
	if err != nil {
		return nil, err
	}

	warnings := s.background.Warnings()
	if len(warnings) > 0 {
		s.logger.Warn("certificate rendered with warnings",
			zap.String("certificate_number", d.CertificateNumber),
			zap.Strings("warnings", warnings))
	}
	return &Result{PDF: out.PDFData, Warnings: warnings, Duration: out.RenderDuration}, nil
}

// BatchRenderer lets the batch driver render in-process instead of over
// HTTP. Validation failures are reported as a 400 rejection and engine
// failures as a 500 rejection, matching the HTTP endpoint.
type BatchRenderer struct {
	service *Service
}

// NewBatchRenderer adapts s to batch.Renderer.
func NewBatchRenderer(s *Service) *BatchRenderer {
	return &BatchRenderer{service: s}
}

// Render implements batch.Renderer.
func (r *BatchRenderer) Render(ctx context.Context, req batch.RenderRequest) ([]byte, error) {
	var d certificate.Data
	for name, value := range req.Payload {
		if _, ok := certificate.Lookup(name); !ok {
			return nil, &batch.RejectionError{StatusCode: 400, Body: fmt.Sprintf("unknown field %q", name)}
		}
		d = d.With(name, value)
	}

	res, err := r.service.Generate(ctx, d)
	if err != nil {
		if certificate.IsValidationError(err) {
			return nil, &batch.RejectionError{StatusCode: 400, Body: err.Error()}
		}
		var re *printing.RenderError
		if errors.As(err, &re) {
			return nil, &batch.RejectionError{StatusCode: 500, Body: re.Error()}
		}
		return nil, err
	}
	return res.PDF, nil
}

var _ batch.Renderer = (*BatchRenderer)(nil)
