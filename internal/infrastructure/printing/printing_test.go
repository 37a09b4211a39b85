package printing

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gcci/certgen/internal/domain/certificate"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// 1x1 transparent PNG
var pngPixel = []byte{
	0x89, 0x50, 0x4e, 0x47, 0x0d, 0x0a, 0x1a, 0x0a, 0x00, 0x00, 0x00, 0x0d,
	0x49, 0x48, 0x44, 0x52, 0x00, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00, 0x01,
	0x08, 0x06, 0x00, 0x00, 0x00, 0x1f, 0x15, 0xc4, 0x89, 0x00, 0x00, 0x00,
	0x0a, 0x49, 0x44, 0x41, 0x54, 0x78, 0x9c, 0x63, 0x00, 0x01, 0x00, 0x00,
	0x05, 0x00, 0x01, 0x0d, 0x0a, 0x2d, 0xb4, 0x00, 0x00, 0x00, 0x00, 0x49,
	0x45, 0x4e, 0x44, 0xae, 0x42, 0x60, 0x82,
}

func sampleData() certificate.Data {
	return certificate.Data{
		ExporterNameAddress:  "Acme Trading LLC\nPlot 4, Jebel Ali\nUAE",
		CertificateNumber:    "GCCI-12345",
		ConsigneeNameAddress: "Foo & Sons <Ltd>\nHamburg",
		HSCode:               "8471.30",
		ImportingCountry:     "Germany",
	}
}

func TestLoadBackground(t *testing.T) {
	t.Run("empty path", func(t *testing.T) {
		bg, err := LoadBackground("", true)
		require.NoError(t, err)
		assert.Empty(t, bg.DataURL)
		assert.False(t, bg.Missing)
		assert.Nil(t, bg.Warnings())
	})

	t.Run("existing image embedded", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "bggcci.png")
		require.NoError(t, os.WriteFile(path, pngPixel, 0o644))

		bg, err := LoadBackground(path, true)
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(string(bg.DataURL), "data:image/png;base64,"))
		assert.Equal(t, "bggcci.png", bg.Name)
		assert.Nil(t, bg.Warnings())
	})

	t.Run("missing and optional", func(t *testing.T) {
		bg, err := LoadBackground(filepath.Join(t.TempDir(), "bggcci.jpg"), false)
		require.NoError(t, err)
		assert.True(t, bg.Missing)
		assert.Equal(t, []string{WarningMissingBackground}, bg.Warnings())
	})

	t.Run("missing and required", func(t *testing.T) {
		_, err := LoadBackground(filepath.Join(t.TempDir(), "bggcci.jpg"), true)
		var re *RenderError
		require.True(t, errors.As(err, &re))
		assert.Equal(t, ErrCodeMissingAsset, re.Code)
	})
}

func TestCompose(t *testing.T) {
	engine, err := NewTemplateEngine()
	require.NoError(t, err)

	t.Run("fields and labels", func(t *testing.T) {
		html, err := engine.Compose(sampleData(), &Background{})
		require.NoError(t, err)

		assert.Contains(t, html, "<title>Certificate Of Origin")
		assert.Contains(t, html, "<div>GCCI-12345</div>")
		assert.Contains(t, html, "<div>Plot 4, Jebel Ali</div>", "multiline values are split")
		assert.Contains(t, html, "Foo &amp; Sons &lt;Ltd&gt;", "values are escaped")
		assert.Contains(t, html, "...exports to: Germany")
		assert.Contains(t, html, "H.S. CODE")
		assert.NotContains(t, html, "<img")
		assert.NotContains(t, html, "Missing background image")
	})

	t.Run("background embedded", func(t *testing.T) {
		html, err := engine.Compose(sampleData(), &Background{DataURL: "data:image/png;base64,AAAA"})
		require.NoError(t, err)
		assert.Contains(t, html, `src="data:image/png;base64,AAAA"`)
	})

	t.Run("missing background is visible", func(t *testing.T) {
		html, err := engine.Compose(sampleData(), &Background{Name: "bggcci.jpg", Missing: true})
		require.NoError(t, err)
		assert.Contains(t, html, "Missing background image: bggcci.jpg")
	})
}

func TestBlockTop(t *testing.T) {
	b := body(30, 740, "x")
	// 842 - 740 - ((10-8)/2 + 6.4)
	assert.InDelta(t, 94.6, b.Top(), 0.001)
	assert.Equal(t, 30.0, b.Left())

	blocks := CertificateBlocks(certificate.Data{})
	for _, blk := range blocks {
		assert.GreaterOrEqual(t, blk.Top(), 0.0)
		assert.Less(t, blk.Top(), PageHeight)
		assert.Less(t, blk.Left(), PageWidth)
	}
}

func TestSplitLines(t *testing.T) {
	assert.Nil(t, splitLines(""))
	assert.Equal(t, []string{"a", "b", "c"}, splitLines("a\r\nb\rc\n"))
	assert.Equal(t, []string{"one"}, splitLines("one"))
}

func TestChromedpRenderer_RejectsEmptyHTML(t *testing.T) {
	r := NewChromedpRenderer(ChromedpConfig{})
	defer r.Close()

	_, err := r.Render(context.Background(), &RenderRequest{HTML: "  "})
	var re *RenderError
	require.True(t, errors.As(err, &re))
	assert.Equal(t, ErrCodeInvalidHTML, re.Code)
}

func TestPointsToInches(t *testing.T) {
	assert.InDelta(t, 8.264, pointsToInches(PageWidth), 0.001)
	assert.InDelta(t, 11.694, pointsToInches(PageHeight), 0.001)
}
