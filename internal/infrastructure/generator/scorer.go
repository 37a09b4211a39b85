package generator

import (
	"sync"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/gcci/certgen/internal/application/batch"
)

// FakerScorer assigns report scores uniformly from [MinScore, MaxScore].
type FakerScorer struct {
	mu    sync.Mutex
	faker *gofakeit.Faker
}

// NewFakerScorer creates a scorer. A zero seed picks a random one.
func NewFakerScorer(seed uint64) *FakerScorer {
	return &FakerScorer{faker: gofakeit.New(seed)}
}

func (s *FakerScorer) Score() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.faker.Number(batch.MinScore, batch.MaxScore)
}

var _ batch.Scorer = (*FakerScorer)(nil)
