// Package hostmetrics samples host CPU and memory utilization.
package hostmetrics

import (
	"context"
	"fmt"

	"github.com/gcci/certgen/internal/application/batch"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
)

// Sampler reads utilization through gopsutil. CPU usage is measured since
// the previous call, so the first sample after start covers process start-up.
type Sampler struct {
	cpuPercent func(ctx context.Context) ([]float64, error)
	memPercent func(ctx context.Context) (float64, error)
}

// NewSampler creates a sampler backed by the host.
func NewSampler() *Sampler {
	return &Sampler{
		cpuPercent: func(ctx context.Context) ([]float64, error) {
			return cpu.PercentWithContext(ctx, 0, false)
		},
		memPercent: func(ctx context.Context) (float64, error) {
			vm, err := mem.VirtualMemoryWithContext(ctx)
			if err != nil {
				return 0, err
			}
			return vm.UsedPercent, nil
		},
	}
}

// Sample implements batch.HostMetrics.
func (s *Sampler) Sample(ctx context.Context) (batch.HostSample, error) {
	cpus, err := s.cpuPercent(ctx)
	if err != nil {
		return batch.HostSample{}, fmt.Errorf("reading cpu usage: %w", err)
	}
	var cpuPct float64
	if len(cpus) > 0 {
		cpuPct = cpus[0]
	}

	memPct, err := s.memPercent(ctx)
	if err != nil {
		return batch.HostSample{}, fmt.Errorf("reading memory usage: %w", err)
	}

	return batch.HostSample{CPUPercent: cpuPct, MemoryPercent: memPct}, nil
}

var _ batch.HostMetrics = (*Sampler)(nil)
