/*
Package forest drives the C8 top-level forest build of spec.md §4.7: it
repeats the level-synchronous trainer once per tree, each over its own
independently bagged batch, then aggregates per-tree predictions into one
per-pixel class distribution.
*/
package forest

import (
	"context"
	"fmt"
	"math/rand"

	"github.com/pbanos/pxforest/cache"
	"github.com/pbanos/pxforest/logging"
	"github.com/pbanos/pxforest/pximage"
	"github.com/pbanos/pxforest/queue"
	"github.com/pbanos/pxforest/trainer"
	"github.com/pbanos/pxforest/tree"
)

// Forest is a set of independently trained trees sharing a background
// label, per spec.md §3 "Forest".
type Forest struct {
	Depth           int
	BackgroundLabel pximage.Pixel
	Trees           []*tree.Tree
}

// Params configures a forest build: NumTrees independent trees, each grown
// with the same TrainerParams over its own bag drawn from the shared Cache.
type Params struct {
	NumTrees      int
	TrainerParams trainer.Params
}

// Checkpointer persists one tree's growth; it is trainer.Checkpointer with
// the tree index already known to callers via GrowTree's own treeIndex arg,
// kept as a distinct alias so forest callers don't need to import trainer
// just to name the type.
type Checkpointer = trainer.Checkpointer

// Build grows p.NumTrees trees sequentially on the calling goroutine, each
// from its own batch of c (which must already have had PrepareBatches(p.NumTrees)
// called on it). rng seeds every tree's candidate sampling; each tree draws
// from the same *rand.Rand in turn, so results are reproducible given the
// same seed and provider but depend on tree build order (spec.md §4.1
// "Determinism").
func Build(ctx context.Context, rng *rand.Rand, c *cache.Cache, p Params, logger logging.Logger, cp Checkpointer) (*Forest, error) {
	if logger == nil {
		logger = logging.Noop{}
	}
	f := &Forest{
		Depth: p.TrainerParams.Depth,
		Trees: make([]*tree.Tree, p.NumTrees),
	}
	for i := 0; i < p.NumTrees; i++ {
		bag, err := c.LoadBatch(ctx, i)
		if err != nil {
			return nil, fmt.Errorf("loading batch %d: %w", i, err)
		}
		t, err := trainer.GrowTree(ctx, rng, i, bag, p.TrainerParams, logger, cp)
		if err != nil {
			return nil, fmt.Errorf("growing tree %d: %w", i, err)
		}
		f.Trees[i] = t
		logger.Infof("tree %d/%d grown (%d samples)", i+1, p.NumTrees, len(bag))
	}
	return f, nil
}

// Dispatch pushes one queue.TreeJob per tree onto q, for a distributed
// worker pool to pick up via Work (spec.md §5 "Distributed execution").
// BatchIndex lets a worker re-derive its bag from a cache shared out of
// band (e.g. a common provider + deterministic PrepareBatches call); no
// sample data crosses the queue.
func Dispatch(ctx context.Context, q queue.Queue, numTrees int, seed int64) error {
	for i := 0; i < numTrees; i++ {
		j := &queue.TreeJob{TreeIndex: i, BatchIndex: i, Seed: seed}
		if err := q.Push(ctx, j); err != nil {
			return fmt.Errorf("dispatching tree %d: %w", i, err)
		}
	}
	return nil
}

// Work pulls jobs from q until it is empty, growing each tree with its own
// rng seeded from job.Seed+job.TreeIndex (so two workers pulling the same
// job after a Drop draw the same candidates from the same bag) and reporting
// the grown tree to results. Each LoadBatch call subsamples pixels from the
// cache's shared rng, so with a SamplesPerImageFraction below 1 a retried
// job's bag, and so its tree, can differ. It returns when Pull yields no job
// and no error (queue drained) or ctx is done.
func Work(ctx context.Context, q queue.Queue, c *cache.Cache, p trainer.Params, logger logging.Logger, cp Checkpointer, results func(treeIndex int, t *tree.Tree)) error {
	if logger == nil {
		logger = logging.Noop{}
	}
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		job, jctx, err := q.Pull(ctx)
		if err != nil {
			return fmt.Errorf("pulling job: %w", err)
		}
		if job == nil {
			return nil
		}
		if jctx == nil {
			jctx = ctx
		}
		bag, err := c.LoadBatch(jctx, job.BatchIndex)
		if err != nil {
			q.Drop(ctx, job.ID())
			return fmt.Errorf("loading batch for %s: %w", job.String(), err)
		}
		rng := rand.New(rand.NewSource(job.Seed + int64(job.TreeIndex)))
		t, err := trainer.GrowTree(jctx, rng, job.TreeIndex, bag, p, logger, cp)
		if err != nil {
			q.Drop(ctx, job.ID())
			return fmt.Errorf("growing %s: %w", job.String(), err)
		}
		if err := q.Complete(ctx, job.ID()); err != nil {
			return fmt.Errorf("completing %s: %w", job.String(), err)
		}
		results(job.TreeIndex, t)
		logger.Infof("%s complete", job.String())
	}
}

// Predict merges every tree's prediction for s into one weighted-average
// distribution, per spec.md §4.8 "Forest aggregation". It returns
// tree.ErrCannotPredictFromEmptySet if the forest has no trees.
func (f *Forest) Predict(s pximage.Sample) (*tree.Prediction, error) {
	if len(f.Trees) == 0 {
		return nil, tree.ErrCannotPredictFromEmptySet
	}
	merged, err := f.Trees[0].Predict(s)
	if err != nil {
		return nil, fmt.Errorf("tree 0: %w", err)
	}
	for i := 1; i < len(f.Trees); i++ {
		p, err := f.Trees[i].Predict(s)
		if err != nil {
			return nil, fmt.Errorf("tree %d: %w", i, err)
		}
		merged, err = tree.MergePredictions(merged, p)
		if err != nil {
			return nil, fmt.Errorf("merging tree %d: %w", i, err)
		}
	}
	return merged, nil
}
