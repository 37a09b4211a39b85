package hostmetrics

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSampler_Host(t *testing.T) {
	sample, err := NewSampler().Sample(context.Background())
	require.NoError(t, err)
	assert.GreaterOrEqual(t, sample.CPUPercent, 0.0)
	assert.Greater(t, sample.MemoryPercent, 0.0)
	assert.LessOrEqual(t, sample.MemoryPercent, 100.0)
}

func TestSampler_Errors(t *testing.T) {
	s := &Sampler{
		cpuPercent: func(context.Context) ([]float64, error) { return nil, errors.New("no /proc") },
		memPercent: func(context.Context) (float64, error) { return 50, nil },
	}
	_, err := s.Sample(context.Background())
	assert.ErrorContains(t, err, "cpu")

	s.cpuPercent = func(context.Context) ([]float64, error) { return []float64{12.5}, nil }
	s.memPercent = func(context.Context) (float64, error) { return 0, errors.New("boom") }
	_, err = s.Sample(context.Background())
	assert.ErrorContains(t, err, "memory")

	s.memPercent = func(context.Context) (float64, error) { return 40, nil }
	sample, err := s.Sample(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 12.5, sample.CPUPercent)
	assert.Equal(t, 40.0, sample.MemoryPercent)
}
