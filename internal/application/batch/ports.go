package batch

import (
	"context"
	"time"
)

// RenderRequest is a single call to the render capability.
type RenderRequest struct {
	Payload        map[string]string
	IdempotencyKey string
}

// Renderer is the external render capability. A completed call that
// signals failure returns a *RejectionError; any other error is treated
// as a transport failure. Both are retried under the same budget.
type Renderer interface {
	Render(ctx context.Context, req RenderRequest) ([]byte, error)
}

// ArtifactStore persists rendered artifacts and returns their location.
type ArtifactStore interface {
	Save(ctx context.Context, artifact *Artifact) (string, error)
}

// ReportStore persists per-record reports and the run's skipped rows.
type ReportStore interface {
	Save(ctx context.Context, report *Report) (string, error)
	SaveSkipped(ctx context.Context, runID string, rejections []Rejection) (string, error)
}

// Scorer draws an evaluation score in [MinScore, MaxScore].
type Scorer interface {
	Score() int
}

// HostSample is a point-in-time host utilization reading.
type HostSample struct {
	CPUPercent    float64
	MemoryPercent float64
}

// HostMetrics supplies host utilization for progress logging only.
type HostMetrics interface {
	Sample(ctx context.Context) (HostSample, error)
}

// Outcome statuses
const (
	StatusSucceeded = "succeeded"
	StatusFailed    = "failed"
)

// Outcome is the terminal result of one record.
type Outcome struct {
	Index    int
	Status   string
	Attempts int
	Location string
	Reason   string
	Duration time.Duration
}

// Ledger is an append-only audit trail of runs. It is never read back.
type Ledger interface {
	StartRun(ctx context.Context, runID, mode string, total, rejected int) error
	RecordOutcome(ctx context.Context, runID string, outcome Outcome) error
	FinishRun(ctx context.Context, summary *Summary) error
}

// Observer receives driver events for metrics.
type Observer interface {
	ObserveAttempt(result string, d time.Duration)
	ObserveRecord(status string, attempts int, d time.Duration)
	ObserveRejected(n int)
	ObservePause()
}

// Clock abstracts time so tests run without real waits.
type Clock interface {
	Now() time.Time
	Sleep(ctx context.Context, d time.Duration) error
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

func (realClock) Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
