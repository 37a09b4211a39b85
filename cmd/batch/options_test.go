package main

import (
	"flag"
	"io"
	"testing"
	"time"

	"github.com/gcci/certgen/internal/application/batch"
	"github.com/gcci/certgen/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parse(t *testing.T, args ...string) *cliFlags {
	t.Helper()
	fs := flag.NewFlagSet("certgen-batch", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	f, err := parseFlags(fs, args)
	require.NoError(t, err)
	return f
}

func baseConfig() *config.Config {
	return &config.Config{
		Batch: config.BatchConfig{
			Mode:           "csv",
			Delimiter:      ",",
			RenderURL:      "http://localhost:8000/generate-origin-certificate-pdf/",
			RequestTimeout: time.Minute,
		},
	}
}

func TestResolveOptions_CSVPreset(t *testing.T) {
	o, err := resolveOptions(baseConfig(), parse(t))
	require.NoError(t, err)

	assert.Equal(t, modeCSV, o.mode)
	assert.Equal(t, "gcci_dummy_input_data.csv", o.input)
	assert.Equal(t, batch.CSVPolicy(), o.policy)
	assert.Equal(t, 2*time.Second, o.recordDelay)
	assert.True(t, o.reports)
	assert.Equal(t, "gcci_pdfs_from_csv_input", o.pdfDir)
	assert.Equal(t, "gcci_csv_reports_from_csv_input", o.reportDir)
	assert.Equal(t, ',', o.delimiter)
}

func TestResolveOptions_SyntheticPreset(t *testing.T) {
	o, err := resolveOptions(baseConfig(), parse(t, "-mode", "synthetic"))
	require.NoError(t, err)

	assert.Equal(t, modeSynthetic, o.mode)
	assert.Equal(t, 50, o.count)
	assert.Equal(t, 0, o.policy.MaxAttempts)
	assert.Equal(t, 5*time.Second, o.policy.Delay)
	assert.Equal(t, 5*time.Second, o.recordDelay)
	assert.False(t, o.reports)
	assert.Equal(t, "rendered_gcci_pdfs", o.pdfDir)
}

func TestResolveOptions_ConfigOverridesPreset(t *testing.T) {
	cfg := baseConfig()
	attempts := 0
	delay := time.Duration(0)
	reports := false
	cfg.Batch.MaxAttempts = &attempts
	cfg.Batch.RetryDelay = &delay
	cfg.Batch.RecordDelay = &delay
	cfg.Batch.Reports = &reports
	cfg.Batch.Input = "exports.csv"
	cfg.Storage.PDFDir = "out/pdfs"

	o, err := resolveOptions(cfg, parse(t))
	require.NoError(t, err)
	assert.Equal(t, 0, o.policy.MaxAttempts)
	assert.Zero(t, o.policy.Delay, "a zero retry delay overrides the preset")
	assert.Zero(t, o.recordDelay)
	assert.False(t, o.reports)
	assert.Equal(t, "exports.csv", o.input)
	assert.Equal(t, "out/pdfs", o.pdfDir)
}

func TestResolveOptions_MultiByteDelimiterFromConfig(t *testing.T) {
	cfg := baseConfig()
	cfg.Batch.Delimiter = "\u00a7"

	o, err := resolveOptions(cfg, parse(t))
	require.NoError(t, err)
	assert.Equal(t, '\u00a7', o.delimiter)
}

func TestResolveOptions_FlagsOverrideConfig(t *testing.T) {
	cfg := baseConfig()
	cfg.Batch.Input = "exports.csv"

	o, err := resolveOptions(cfg, parse(t,
		"-input", "other.csv",
		"-delimiter", ";",
		"-max-attempts", "2",
		"-retry-delay", "100ms",
		"-record-delay", "0s",
		"-no-reports",
		"-render-url", "local",
	))
	require.NoError(t, err)
	assert.Equal(t, "other.csv", o.input)
	assert.Equal(t, ';', o.delimiter)
	assert.Equal(t, 2, o.policy.MaxAttempts)
	assert.Equal(t, 100*time.Millisecond, o.policy.Delay)
	assert.Zero(t, o.recordDelay)
	assert.False(t, o.reports)
	assert.Equal(t, localRenderURL, o.renderURL)
}

func TestResolveOptions_Errors(t *testing.T) {
	t.Run("unknown mode", func(t *testing.T) {
		_, err := resolveOptions(baseConfig(), parse(t, "-mode", "xml"))
		assert.Error(t, err)
	})

	t.Run("multi-character delimiter", func(t *testing.T) {
		_, err := resolveOptions(baseConfig(), parse(t, "-delimiter", "ab"))
		assert.Error(t, err)
	})

	t.Run("negative attempts", func(t *testing.T) {
		_, err := resolveOptions(baseConfig(), parse(t, "-max-attempts", "-1"))
		assert.ErrorIs(t, err, batch.ErrNegativeAttempts)
	})

	t.Run("unknown backoff", func(t *testing.T) {
		_, err := resolveOptions(baseConfig(), parse(t, "-backoff", "linear"))
		assert.Error(t, err)
	})
}
