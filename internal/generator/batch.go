package generator

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// BatchItem is the outcome of one seed in a batch.
type BatchItem struct {
	Seed   uint64
	Result *Result
	// Err is the seed's generation error; other seeds are unaffected by it.
	Err error
}

// GenerateBatch generates every seed with at most parallelism seeds in
// flight. Items are returned in the order of seeds.
//
// Postcondition: Returns one item per seed, or ctx.Err() when ctx ended
// before every seed finished.
func (g *Generator) GenerateBatch(ctx context.Context, seeds []uint64, parallelism int) ([]BatchItem, error) {
	if parallelism < 1 {
		parallelism = 1
	}
	out := make([]BatchItem, len(seeds))
	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(parallelism)
	for i, seed := range seeds {
		eg.Go(func() error {
			res, err := g.Generate(egCtx, seed)
			if err != nil && egCtx.Err() != nil {
				return egCtx.Err()
			}
			out[i] = BatchItem{Seed: seed, Result: res, Err: err}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
