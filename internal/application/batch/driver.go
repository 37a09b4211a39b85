// Package batch drives records through the render capability one at a
// time, retrying failed attempts and persisting what comes back.
package batch

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Config holds driver settings for one run.
type Config struct {
	// RunID identifies the run in keys, logs and the ledger.
	// Default: random UUID
	RunID string

	// Mode is a free-form label ("csv", "synthetic") recorded in the ledger.
	Mode string

	Policy RetryPolicy

	// RecordDelay is the throttle between consecutive records. It is not
	// part of the retry delay.
	RecordDelay time.Duration

	Breaker BreakerConfig
}

// Summary is the result of a run.
type Summary struct {
	RunID     string
	Mode      string
	Total     int
	Succeeded int
	Failed    int
	Rejected  int
	Pauses    int
	Attempts  int
	StartedAt time.Time
	Duration  time.Duration
	Artifacts []string
	FailedIdx []int
}

// Driver submits records sequentially.
type Driver struct {
	config    Config
	renderer  Renderer
	artifacts ArtifactStore
	reports   ReportStore
	scorer    Scorer
	host      HostMetrics
	ledger    Ledger
	observer  Observer
	clock     Clock
	logger    *zap.Logger
}

// Option configures optional driver collaborators.
type Option func(*Driver)

// WithReports enables per-record reports and the skipped-rows report.
func WithReports(store ReportStore, scorer Scorer) Option {
	return func(d *Driver) {
		d.reports = store
		d.scorer = scorer
	}
}

// WithHostMetrics adds host utilization to progress logs.
func WithHostMetrics(h HostMetrics) Option {
	return func(d *Driver) { d.host = h }
}

// WithLedger records run and record outcomes.
func WithLedger(l Ledger) Option {
	return func(d *Driver) { d.ledger = l }
}

// WithObserver reports driver events.
func WithObserver(o Observer) Option {
	return func(d *Driver) { d.observer = o }
}

// WithClock replaces the wall clock.
func WithClock(c Clock) Option {
	return func(d *Driver) { d.clock = c }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(d *Driver) {
		if l != nil {
			d.logger = l
		}
	}
}

// NewDriver creates a driver. renderer and artifacts are required.
func NewDriver(cfg Config, renderer Renderer, artifacts ArtifactStore, opts ...Option) (*Driver, error) {
	if renderer == nil {
		return nil, errors.New("batch: renderer is required")
	}
	if artifacts == nil {
		return nil, errors.New("batch: artifact store is required")
	}
	if err := cfg.Policy.Validate(); err != nil {
		return nil, err
	}
	if cfg.RecordDelay < 0 {
		return nil, errors.New("batch: record delay cannot be negative")
	}
	if cfg.RunID == "" {
		cfg.RunID = uuid.NewString()
	}

	d := &Driver{
		config:    cfg,
		renderer:  renderer,
		artifacts: artifacts,
		clock:     realClock{},
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.reports != nil && d.scorer == nil {
		return nil, errors.New("batch: reports require a scorer")
	}

	d.logger = d.logger.With(zap.String("run_id", cfg.RunID))
	if !cfg.Policy.Bounded() {
		d.logger.Warn("unbounded retry policy: a permanently failing record blocks the run forever",
			zap.Duration("delay", cfg.Policy.Delay),
			zap.String("backoff", cfg.Policy.Backoff))
	}
	return d, nil
}

// RunID returns the run identifier.
func (d *Driver) RunID() string {
	return d.config.RunID
}

// Submit renders a single record under the retry policy and persists the
// artifact (and report, when enabled). A record that runs out of attempts
// returns *ExhaustedError; a failed write returns *PersistenceError.
func (d *Driver) Submit(ctx context.Context, rec Record) (*Artifact, error) {
	artifact, _, err := d.submit(ctx, rec, d.clock.Now())
	return artifact, err
}

func (d *Driver) submit(ctx context.Context, rec Record, started time.Time) (*Artifact, int, error) {
	log := d.logger.With(zap.Int("index", rec.Index))
	req := RenderRequest{
		Payload:        rec.Data.Map(),
		IdempotencyKey: d.config.RunID + "-" + strconv.Itoa(rec.Index),
	}
	policy := d.config.Policy
	schedule := policy.newBackOff()

	for attempt := 1; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, attempt - 1, err
		}

		attemptStart := d.clock.Now()
		data, err := d.renderer.Render(ctx, req)
		result := classify(err)
		d.observeAttempt(result, d.clock.Now().Sub(attemptStart))

		if err == nil {
			artifact := NewArtifact(rec, data, d.clock.Now(), attempt)
			log.Info("record rendered",
				zap.Int("attempt", attempt),
				zap.Int("bytes", len(data)),
				zap.Duration("elapsed", d.clock.Now().Sub(started)))
			if err := d.persist(ctx, artifact); err != nil {
				return nil, attempt, err
			}
			return artifact, attempt, nil
		}

		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, attempt, ctxErr
		}

		log.Warn("render attempt failed",
			zap.Int("attempt", attempt),
			zap.String("result", result),
			zap.Error(err))

		if policy.Bounded() && attempt >= policy.MaxAttempts {
			return nil, attempt, &ExhaustedError{Index: rec.Index, Attempts: attempt, Last: err}
		}

		wait := schedule.NextBackOff()
		if wait == backoff.Stop {
			wait = policy.Delay
		}
		if err := d.clock.Sleep(ctx, wait); err != nil {
			return nil, attempt, err
		}
	}
}

func (d *Driver) persist(ctx context.Context, artifact *Artifact) error {
	location, err := d.artifacts.Save(ctx, artifact)
	if err != nil {
		return &PersistenceError{Op: "save artifact", Index: artifact.Index, Err: err}
	}
	artifact.Location = location

	if d.reports == nil {
		return nil
	}
	report := BuildReport(artifact, d.scorer)
	if _, err := d.reports.Save(ctx, report); err != nil {
		return &PersistenceError{Op: "save report", Index: artifact.Index, Err: err}
	}
	return nil
}

// Run produces the source's records and submits each in order. Exhausted
// records are logged and skipped; persistence failures and cancellation
// stop the run and are returned with the partial summary.
func (d *Driver) Run(ctx context.Context, src Source) (*Summary, error) {
	summary := &Summary{
		RunID:     d.config.RunID,
		Mode:      d.config.Mode,
		StartedAt: d.clock.Now(),
	}
	defer func() {
		summary.Duration = d.clock.Now().Sub(summary.StartedAt)
	}()

	records, rejections, err := src.Produce(ctx)
	if err != nil {
		return summary, fmt.Errorf("produce records: %w", err)
	}
	summary.Total = len(records)
	summary.Rejected = len(rejections)

	for _, r := range rejections {
		d.logger.Warn("row skipped",
			zap.Int("index", r.Index),
			zap.Int("line", r.Line),
			zap.String("reason", r.Reason),
			zap.Strings("fields", r.Fields))
	}
	if d.observer != nil && len(rejections) > 0 {
		d.observer.ObserveRejected(len(rejections))
	}
	if d.reports != nil && len(rejections) > 0 {
		location, err := d.reports.SaveSkipped(ctx, d.config.RunID, rejections)
		if err != nil {
			return summary, &PersistenceError{Op: "save skipped rows", Err: err}
		}
		d.logger.Info("skipped rows written", zap.String("location", location))
	}

	d.ledgerCall("start run", func() error {
		return d.ledger.StartRun(ctx, d.config.RunID, d.config.Mode, len(records), len(rejections))
	})

	d.logger.Info("run started",
		zap.String("mode", d.config.Mode),
		zap.Int("records", len(records)),
		zap.Int("rejected", len(rejections)),
		zap.Int("max_attempts", d.config.Policy.MaxAttempts))

	breaker := NewBreaker(d.config.Breaker)
	for i, rec := range records {
		started := d.clock.Now()
		artifact, attempts, err := d.submit(ctx, rec, started)
		summary.Attempts += attempts
		elapsed := d.clock.Now().Sub(started)

		outcome := Outcome{Index: rec.Index, Attempts: attempts, Duration: elapsed}
		switch {
		case err == nil:
			summary.Succeeded++
			summary.Artifacts = append(summary.Artifacts, artifact.Location)
			outcome.Status = StatusSucceeded
			outcome.Location = artifact.Location
			breaker.RecordSuccess()
		case IsExhausted(err):
			summary.Failed++
			summary.FailedIdx = append(summary.FailedIdx, rec.Index)
			outcome.Status = StatusFailed
			outcome.Reason = err.Error()
			d.logger.Error("record failed", zap.Int("index", rec.Index), zap.Error(err))
		default:
			d.logger.Error("run aborted", zap.Int("index", rec.Index), zap.Error(err))
			d.finish(ctx, summary)
			return summary, err
		}

		if d.observer != nil {
			d.observer.ObserveRecord(outcome.Status, attempts, elapsed)
		}
		d.ledgerCall("record outcome", func() error {
			return d.ledger.RecordOutcome(ctx, d.config.RunID, outcome)
		})
		d.logProgress(ctx, i+1, len(records), outcome)

		if i == len(records)-1 {
			break
		}
		if err := d.clock.Sleep(ctx, d.config.RecordDelay); err != nil {
			d.finish(ctx, summary)
			return summary, err
		}
		if outcome.Status == StatusFailed && breaker.RecordFailure() {
			summary.Pauses++
			if d.observer != nil {
				d.observer.ObservePause()
			}
			d.logger.Warn("consecutive record failures, pausing run",
				zap.Int("threshold", d.config.Breaker.Threshold),
				zap.Duration("cooldown", breaker.Cooldown()))
			if err := d.clock.Sleep(ctx, breaker.Cooldown()); err != nil {
				d.finish(ctx, summary)
				return summary, err
			}
		}
	}

	d.finish(ctx, summary)
	d.logger.Info("run finished",
		zap.Int("succeeded", summary.Succeeded),
		zap.Int("failed", summary.Failed),
		zap.Int("rejected", summary.Rejected),
		zap.Int("attempts", summary.Attempts))
	return summary, nil
}

func (d *Driver) finish(ctx context.Context, summary *Summary) {
	summary.Duration = d.clock.Now().Sub(summary.StartedAt)
	d.ledgerCall("finish run", func() error {
		return d.ledger.FinishRun(context.WithoutCancel(ctx), summary)
	})
}

func (d *Driver) logProgress(ctx context.Context, done, total int, outcome Outcome) {
	fields := []zap.Field{
		zap.Int("index", outcome.Index),
		zap.String("status", outcome.Status),
		zap.Int("attempts", outcome.Attempts),
		zap.Duration("duration", outcome.Duration),
		zap.String("progress", fmt.Sprintf("%d/%d", done, total)),
	}
	if d.host != nil {
		sample, err := d.host.Sample(ctx)
		if err != nil {
			d.logger.Debug("host metrics unavailable", zap.Error(err))
		} else {
			fields = append(fields,
				zap.Float64("cpu_percent", sample.CPUPercent),
				zap.Float64("memory_percent", sample.MemoryPercent))
		}
	}
	d.logger.Info("record done", fields...)
}

func (d *Driver) ledgerCall(op string, fn func() error) {
	if d.ledger == nil {
		return
	}
	if err := fn(); err != nil {
		d.logger.Warn("ledger write failed", zap.String("op", op), zap.Error(err))
	}
}

func (d *Driver) observeAttempt(result string, elapsed time.Duration) {
	if d.observer != nil {
		d.observer.ObserveAttempt(result, elapsed)
	}
}
