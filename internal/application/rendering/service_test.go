package rendering

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/gcci/certgen/internal/application/batch"
	"github.com/gcci/certgen/internal/domain/certificate"
	"github.com/gcci/certgen/internal/infrastructure/printing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockPDFRenderer struct {
	mock.Mock
}

func (m *MockPDFRenderer) Render(ctx context.Context, req *printing.RenderRequest) (*printing.RenderResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*printing.RenderResult), args.Error(1)
}

func (m *MockPDFRenderer) Close() error {
	return nil
}

func newService(t *testing.T, pdf printing.PDFRenderer, bg *printing.Background) *Service {
	t.Helper()
	engine, err := printing.NewTemplateEngine()
	require.NoError(t, err)
	return NewService(engine, pdf, bg, 5*time.Second, nil)
}

func TestGenerate(t *testing.T) {
	t.Run("renders composed HTML", func(t *testing.T) {
		pdf := new(MockPDFRenderer)
		pdf.On("Render", mock.Anything, mock.MatchedBy(func(req *printing.RenderRequest) bool {
			return strings.Contains(req.HTML, "GCCI-1") && req.Timeout == 5*time.Second
		})).Return(&printing.RenderResult{PDFData: []byte("%PDF")}, nil).Once()

		res, err := newService(t, pdf, nil).Generate(context.Background(), certificate.Data{CertificateNumber: "GCCI-1"})
		require.NoError(t, err)
		assert.Equal(t, []byte("%PDF"), res.PDF)
		assert.Empty(t, res.Warnings)
		pdf.AssertExpectations(t)
	})

	t.Run("missing background warns", func(t *testing.T) {
		pdf := new(MockPDFRenderer)
		pdf.On("Render", mock.Anything, mock.Anything).Return(&printing.RenderResult{PDFData: []byte("%PDF")}, nil)

		svc := newService(t, pdf, &printing.Background{Name: "bggcci.jpg", Missing: true})
		res, err := svc.Generate(context.Background(), certificate.Data{})
		require.NoError(t, err)
		assert.Equal(t, []string{printing.WarningMissingBackground}, res.Warnings)
	})

	t.Run("validation happens before rendering", func(t *testing.T) {
		pdf := new(MockPDFRenderer)
		_, err := newService(t, pdf, nil).Generate(context.Background(), certificate.Data{HSCode: strings.Repeat("1", 40)})
		assert.True(t, certificate.IsValidationError(err))
		pdf.AssertNotCalled(t, "Render", mock.Anything, mock.Anything)
	})

	t.Run("engine failure", func(t *testing.T) {
		pdf := new(MockPDFRenderer)
		pdf.On("Render", mock.Anything, mock.Anything).
			Return(nil, printing.NewRenderError(printing.ErrCodeRenderTimeout, "timed out", nil))

		_, err := newService(t, pdf, nil).Generate(context.Background(), certificate.Data{})
		var re *printing.RenderError
		require.True(t, errors.As(err, &re))
		assert.Equal(t, printing.ErrCodeRenderTimeout, re.Code)
	})
}

func TestBatchRenderer(t *testing.T) {
	pdf := new(MockPDFRenderer)
	pdf.On("Render", mock.Anything, mock.Anything).Return(&printing.RenderResult{PDFData: []byte("%PDF-ok")}, nil)
	r := NewBatchRenderer(newService(t, pdf, nil))

	out, err := r.Render(context.Background(), batch.RenderRequest{
		Payload: certificate.Data{CertificateNumber: "GCCI-9"}.Map(),
	})
	require.NoError(t, err)
	assert.Equal(t, []byte("%PDF-ok"), out)

	_, err = r.Render(context.Background(), batch.RenderRequest{Payload: map[string]string{"colour": "red"}})
	var rej *batch.RejectionError
	require.True(t, errors.As(err, &rej))
	assert.Equal(t, 400, rej.StatusCode)

	_, err = r.Render(context.Background(), batch.RenderRequest{Payload: map[string]string{"item_number": strings.Repeat("9", 50)}})
	require.True(t, errors.As(err, &rej))
	assert.Equal(t, 400, rej.StatusCode)
}
