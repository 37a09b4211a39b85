package batch

import (
	"context"
	"fmt"
	"time"

	"github.com/gcci/certgen/internal/domain/certificate"
)

// keyTimeLayout is the capture timestamp layout embedded in artifact keys.
const keyTimeLayout = "20060102150405"

// Record is one validated input row. Index is the 1-based ordinal of the
// data row in its source; rejected rows keep their index so later records
// never shift.
type Record struct {
	Index int
	Line  int
	Data  certificate.Data
}

// Rejection is a source row that failed the batch schema.
type Rejection struct {
	Index  int
	Line   int
	Reason string
	Fields []string
}

// Source produces the full, ordered record sequence for a run.
type Source interface {
	Produce(ctx context.Context) ([]Record, []Rejection, error)
}

// Artifact is a rendered certificate owned by the driver until persisted.
type Artifact struct {
	Index      int
	Key        string
	CapturedAt time.Time
	Attempts   int
	Data       []byte
	Record     Record
	Location   string
}

// NewArtifact builds an artifact whose key is derived from the record
// index and capture time. Indexes are unique within a run, so keys are too.
func NewArtifact(rec Record, data []byte, capturedAt time.Time, attempts int) *Artifact {
	return &Artifact{
		Index:      rec.Index,
		Key:        fmt.Sprintf("%d_%s", rec.Index, capturedAt.Format(keyTimeLayout)),
		CapturedAt: capturedAt,
		Attempts:   attempts,
		Data:       data,
		Record:     rec,
	}
}

// FileName is the artifact's name in any artifact store.
func (a *Artifact) FileName() string {
	return "gcci_certificate_" + a.Key + ".pdf"
}
