package sim

import (
	"context"
	"sync"
)

// Factory builds an independent simulator for one replica seed.
type Factory func(seed uint64) (*Simulator, error)

// Ensemble runs independent replicas concurrently.
type Ensemble struct {
	factory   Factory
	numRuns   int
	seedStart uint64
}

func NewEnsemble(factory Factory, numRuns int, seedStart uint64) *Ensemble {
	return &Ensemble{factory: factory, numRuns: numRuns, seedStart: seedStart}
}

func (e *Ensemble) Run(ctx context.Context, cfg Config) ([]*Result, error) {
	results := make([]*Result, e.numRuns)
	errs := make([]error, e.numRuns)

	var wg sync.WaitGroup
	for i := 0; i < e.numRuns; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()

			s, err := e.factory(e.seedStart + uint64(idx))
			if err != nil {
				errs[idx] = err
				return
			}
			results[idx], errs[idx] = s.Run(ctx, cfg)
		}(i)
	}

	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}

	return results, nil
}
