package persistence

import (
	"context"
	"fmt"
	"time"

	"github.com/gcci/certgen/internal/application/batch"
	"gorm.io/gorm"
)

// RunLedger implements batch.Ledger.
type RunLedger struct {
	db  *gorm.DB
	now func() time.Time
}

// NewRunLedger creates a ledger on db.
func NewRunLedger(db *gorm.DB) *RunLedger {
	return &RunLedger{db: db, now: time.Now}
}

func (l *RunLedger) StartRun(ctx context.Context, runID, mode string, total, rejected int) error {
	run := &RunModel{
		ID:        runID,
		Mode:      mode,
		Status:    RunStatusRunning,
		Total:     total,
		Rejected:  rejected,
		StartedAt: l.now(),
	}
	if err := l.db.WithContext(ctx).Create(run).Error; err != nil {
		return fmt.Errorf("failed to record run start: %w", err)
	}
	return nil
}

func (l *RunLedger) RecordOutcome(ctx context.Context, runID string, o batch.Outcome) error {
	row := &OutcomeModel{
		RunID:       runID,
		RecordIndex: o.Index,
		Status:      o.Status,
		Attempts:    o.Attempts,
		Location:    o.Location,
		Reason:      o.Reason,
		DurationMS:  o.Duration.Milliseconds(),
	}
	if err := l.db.WithContext(ctx).Create(row).Error; err != nil {
		return fmt.Errorf("failed to record outcome for record %d: %w", o.Index, err)
	}
	return nil
}

func (l *RunLedger) FinishRun(ctx context.Context, s *batch.Summary) error {
	finished := l.now()
	res := l.db.WithContext(ctx).Model(&RunModel{}).Where("id = ?", s.RunID).Updates(map[string]any{
		"status":      RunStatusFinished,
		"succeeded":   s.Succeeded,
		"failed":      s.Failed,
		"pauses":      s.Pauses,
		"attempts":    s.Attempts,
		"finished_at": finished,
		"duration_ms": s.Duration.Milliseconds(),
	})
	if res.Error != nil {
		return fmt.Errorf("failed to record run finish: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("run %s not found", s.RunID)
	}
	return nil
}

var _ batch.Ledger = (*RunLedger)(nil)
