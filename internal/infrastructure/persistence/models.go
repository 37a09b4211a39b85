package persistence

import "time"

// RunModel is one batch run.
type RunModel struct {
	ID         string `gorm:"primaryKey;size:64"`
	Mode       string `gorm:"size:16;not null"`
	Status     string `gorm:"size:16;not null;index"`
	Total      int
	Rejected   int
	Succeeded  int
	Failed     int
	Pauses     int
	Attempts   int
	StartedAt  time.Time `gorm:"not null"`
	FinishedAt *time.Time
	DurationMS int64
}

func (RunModel) TableName() string {
	return "batch_runs"
}

// OutcomeModel is the terminal result of one record in a run.
type OutcomeModel struct {
	ID          uint   `gorm:"primaryKey"`
	RunID       string `gorm:"size:64;not null;uniqueIndex:idx_outcome_run_record"`
	RecordIndex int    `gorm:"not null;uniqueIndex:idx_outcome_run_record"`
	Status      string `gorm:"size:16;not null"`
	Attempts    int
	Location    string `gorm:"size:1024"`
	Reason      string `gorm:"size:2048"`
	DurationMS  int64
	CreatedAt   time.Time
}

func (OutcomeModel) TableName() string {
	return "batch_record_outcomes"
}

// Run statuses
const (
	RunStatusRunning  = "running"
	RunStatusFinished = "finished"
)
