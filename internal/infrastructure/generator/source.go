package generator

import (
	"context"
	"errors"

	"github.com/gcci/certgen/internal/application/batch"
)

// DefaultCount is the number of records a synthetic run produces by default.
const DefaultCount = 50

// ErrInvalidCount is returned for a non-positive record count.
var ErrInvalidCount = errors.New("synthetic record count must be positive")

// SyntheticSource produces generated records. It never rejects.
type SyntheticSource struct {
	count int
	faker *CertificateFaker
}

// NewSyntheticSource creates a source of count records drawn from seed.
func NewSyntheticSource(count int, seed uint64) (*SyntheticSource, error) {
	if count <= 0 {
		return nil, ErrInvalidCount
	}
	return &SyntheticSource{count: count, faker: NewCertificateFaker(seed)}, nil
}

func (s *SyntheticSource) Produce(ctx context.Context) ([]batch.Record, []batch.Rejection, error) {
	records := make([]batch.Record, 0, s.count)
	for i := 1; i <= s.count; i++ {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}
		records = append(records, batch.Record{Index: i, Data: s.faker.Generate()})
	}
	return records, nil, nil
}

var _ batch.Source = (*SyntheticSource)(nil)
