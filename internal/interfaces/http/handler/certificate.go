package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gcci/certgen/internal/application/rendering"
	"github.com/gcci/certgen/internal/domain/certificate"
	"github.com/gcci/certgen/internal/infrastructure/cache"
	"github.com/gcci/certgen/internal/infrastructure/logger"
	"github.com/gcci/certgen/internal/infrastructure/printing"
	"github.com/gcci/certgen/internal/infrastructure/telemetry"
	"github.com/gcci/certgen/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Response headers
const (
	HeaderIdempotencyKey  = "Idempotency-Key"
	HeaderIdempotentReply = "X-Idempotent-Replay"
	HeaderWarning         = "X-Certificate-Warning"

	pdfFileName          = "certificate_of_origin.pdf"
	maxIdempotencyKeyLen = 255
)

// CertificateGenerator renders certificate data.
type CertificateGenerator interface {
	Generate(ctx context.Context, d certificate.Data) (*rendering.Result, error)
}

// GenerateCertificateRequest is the API request schema. Every field is
// optional and unknown keys are ignored.
type GenerateCertificateRequest struct {
	certificate.Data
}

// CertificateHandler serves POST /generate-origin-certificate-pdf/
type CertificateHandler struct {
	BaseHandler
	generator CertificateGenerator
	store     cache.IdempotencyStore
	ttl       time.Duration
	metrics   *telemetry.HTTPMetrics
}

// CertificateOption configures a CertificateHandler
type CertificateOption func(*CertificateHandler)

// WithIdempotency enables Idempotency-Key replay backed by store.
func WithIdempotency(store cache.IdempotencyStore, ttl time.Duration) CertificateOption {
	return func(h *CertificateHandler) {
		h.store = store
		h.ttl = ttl
	}
}

// WithRenderMetrics counts render outcomes.
func WithRenderMetrics(m *telemetry.HTTPMetrics) CertificateOption {
	return func(h *CertificateHandler) {
		h.metrics = m
	}
}

// NewCertificateHandler creates a CertificateHandler
func NewCertificateHandler(g CertificateGenerator, opts ...CertificateOption) *CertificateHandler {
	h := &CertificateHandler{generator: g}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Generate renders the posted certificate and returns it as a PDF download.
func (h *CertificateHandler) Generate(c *gin.Context) {
	log := logger.WithTraceContext(c.Request.Context(), logger.GetGinLogger(c))

	var req GenerateCertificateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			h.Error(c, dto.ErrCodeRequestTooLarge, "Request body exceeds maximum allowed size")
			return
		}
		h.Error(c, dto.ErrCodeInvalidJSON, "Request body must be a JSON object of certificate fields")
		return
	}
	data := req.Data

	key := strings.TrimSpace(c.GetHeader(HeaderIdempotencyKey))
	if len(key) > maxIdempotencyKeyLen {
		h.Error(c, dto.ErrCodeBadRequest, "Idempotency-Key is too long")
		return
	}

	var hash string
	if h.store != nil && key != "" {
		var err error
		hash, err = cache.HashPayload(data.Map())
		if err != nil {
			h.Error(c, dto.ErrCodeInternal, "failed to fingerprint request")
			return
		}
		entry, err := h.store.Get(c.Request.Context(), key)
		if err != nil {
			log.Warn("idempotency lookup failed, rendering", zap.Error(err))
		}
		if entry != nil {
			if entry.PayloadHash != hash {
				h.Error(c, dto.ErrCodeIdempotencyMismatch, "Idempotency-Key was already used with a different payload")
				return
			}
			h.observe(telemetry.RenderReplayed)
			c.Header(HeaderIdempotentReply, "true")
			h.writePDF(c, entry.PDF, entry.Warnings)
			return
		}
	}

	res, err := h.generator.Generate(c.Request.Context(), data)
	if err != nil {
		h.handleGenerateError(c, log, err)
		return
	}
	h.observe(telemetry.RenderRendered)

	if hash != "" {
		entry := &cache.Entry{PayloadHash: hash, PDF: res.PDF, Warnings: res.Warnings, CreatedAt: time.Now().UTC()}
		if _, err := h.store.Put(c.Request.Context(), key, entry, h.ttl); err != nil {
			log.Warn("idempotency store failed", zap.Error(err))
		}
	}

	log.Info("certificate rendered",
		zap.String("certificate_number", data.CertificateNumber),
		zap.Int("size", len(res.PDF)),
		zap.Duration("render_duration", res.Duration),
	)
	h.writePDF(c, res.PDF, res.Warnings)
}

func (h *CertificateHandler) handleGenerateError(c *gin.Context, log *zap.Logger, err error) {
	var ve *certificate.ValidationError
	if errors.As(err, &ve) {
		details := make([]dto.FieldDetail, 0, len(ve.Errors))
		for _, fe := range ve.Errors {
			details = append(details, dto.FieldDetail{Field: fe.Field, Code: fe.Code, Message: fe.Message})
		}
		h.ErrorWithDetails(c, dto.ErrCodeValidation, "Invalid certificate fields", details)
		return
	}

	h.observe(telemetry.RenderFailed)
	log.Error("PDF generation failed", zap.Error(err))

	var re *printing.RenderError
	if errors.As(err, &re) && re.Code == printing.ErrCodeRenderTimeout {
		h.Error(c, dto.ErrCodeRenderTimeout, "PDF generation timed out")
		return
	}
	h.Error(c, dto.ErrCodeRenderFailed, "PDF generation failed")
}

func (h *CertificateHandler) writePDF(c *gin.Context, pdf []byte, warnings []string) {
	if len(warnings) > 0 {
		c.Header(HeaderWarning, strings.Join(warnings, ", "))
	}
	c.Header("Content-Disposition", "attachment; filename="+pdfFileName)
	c.Data(http.StatusOK, "application/pdf", pdf)
}

func (h *CertificateHandler) observe(outcome string) {
	if h.metrics != nil {
		h.metrics.ObserveRender(outcome)
	}
}
