package telemetry

import (
	"context"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gcci/certgen/internal/application/batch"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNewTracerProvider_Disabled(t *testing.T) {
	tp, err := NewTracerProvider(context.Background(), Config{Enabled: false}, zap.NewNop())
	require.NoError(t, err)
	assert.False(t, tp.IsEnabled())
	assert.NotNil(t, tp.Tracer("test"))
	assert.NoError(t, tp.Shutdown(context.Background()))
}

func TestNewTracerProvider_Enabled(t *testing.T) {
	tp, err := NewTracerProvider(context.Background(), Config{
		Enabled:           true,
		CollectorEndpoint: "127.0.0.1:4317",
		SamplingRatio:     0.5,
		ServiceName:       "certgen-test",
		Insecure:          true,
	}, zap.NewNop())
	require.NoError(t, err)
	assert.True(t, tp.IsEnabled())

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	_ = tp.Shutdown(ctx)
}

func TestSamplerFor(t *testing.T) {
	assert.Contains(t, samplerFor(1).Description(), "AlwaysOn")
	assert.Contains(t, samplerFor(0).Description(), "AlwaysOff")
	assert.Contains(t, samplerFor(0.25).Description(), "TraceIDRatioBased")
}

func TestBatchMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewBatchMetrics(reg)

	m.ObserveAttempt(batch.ResultTransport, 100*time.Millisecond)
	m.ObserveAttempt(batch.ResultSuccess, 200*time.Millisecond)
	m.ObserveRecord(batch.StatusSucceeded, 2, 3*time.Second)
	m.ObserveRejected(3)
	m.ObservePause()

	assert.Equal(t, 1.0, testutil.ToFloat64(m.attempts.WithLabelValues(batch.ResultTransport)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.records.WithLabelValues(batch.StatusSucceeded)))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.rejected))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.pauses))
	assert.Equal(t, 1, testutil.CollectAndCount(m.recordAttempts))
}

func TestHTTPMetrics(t *testing.T) {
	reg := NewRegistry()
	m := NewHTTPMetrics(reg)

	done := m.Start()
	assert.Equal(t, 1.0, testutil.ToFloat64(m.inFlight))
	done("POST", "/generate-origin-certificate-pdf/", 200)
	assert.Equal(t, 0.0, testutil.ToFloat64(m.inFlight))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.requests.WithLabelValues("POST", "/generate-origin-certificate-pdf/", "200")))

	m.ObserveRender(RenderReplayed)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.renders.WithLabelValues(RenderReplayed)))

	rec := httptest.NewRecorder()
	Handler(reg).ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, _ := io.ReadAll(rec.Body)
	assert.Contains(t, string(body), "certgen_http_requests_total")
	assert.Contains(t, string(body), "go_goroutines")
}

func TestServeMetrics_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() {
		errCh <- ServeMetrics(ctx, "127.0.0.1:0", prometheus.NewRegistry(), zap.NewNop())
	}()
	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-errCh:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("metrics server did not stop")
	}
}
