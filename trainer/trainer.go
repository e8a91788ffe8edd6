/*
Package trainer implements the level-synchronous training loop (C7 of
spec.md §4.6): it grows one tree breadth-first, one depth level at a time,
re-routing the bag through the partially built tree at every level.
*/
package trainer

import (
	"context"
	"math/rand"

	"github.com/pbanos/pxforest/logging"
	"github.com/pbanos/pxforest/pximage"
	"github.com/pbanos/pxforest/tree"
	"github.com/pbanos/pxforest/weaklearner"
)

// Params configures one tree's growth (spec.md §6 keys relevant to C7).
type Params struct {
	Depth int

	NumFeatures, NumThresholds   int
	OffsetXLow, OffsetXHigh      int
	OffsetYLow, OffsetYHigh      int
	ThresholdLow, ThresholdHigh float64
	AdaptiveThresholdRange       bool
	BinaryImages                 bool

	MinimumNumOfSamples    int
	MinimumInformationGain float64

	LevelPartSize int
	NumThreads    int
}

// Checkpointer is handed the tree after every level finishes growing, so
// it can emit a level-suffixed checkpoint (spec.md §4.6 step 4). A nil
// Checkpointer disables checkpointing.
type Checkpointer interface {
	Checkpoint(ctx context.Context, treeIndex, level int, t *tree.Tree) error
}

// GrowTree grows one tree of depth p.Depth from bag, using rng for every
// candidate/threshold draw. treeIndex identifies the tree to the
// checkpointer only; it has no effect on training.
//
// The tree's own Depth produces node count 2^(Depth+1)-1; internally the
// level-synchronous loop runs Depth+1 passes (spec.md §4.6's `D`): the
// first Depth passes consider splitting their frontier, and one final
// pass computes leaf statistics for the deepest allocated row without
// attempting to split it further (there is no room left to grow into).
func GrowTree(ctx context.Context, rng *rand.Rand, treeIndex int, bag []pximage.Sample, p Params, logger logging.Logger, cp Checkpointer) (*tree.Tree, error) {
	if logger == nil {
		logger = logging.Noop{}
	}
	t := tree.New(p.Depth)
	lastLevel := p.Depth + 1
	for level := 1; level <= lastLevel; level++ {
		depthIdx := level - 1
		fm := tree.BuildFrontierMap(t, depthIdx, bag)
		canSplit := level < lastLevel
		for _, part := range tree.LevelParts(depthIdx, p.LevelPartSize) {
			growPart(t, fm, part, p, rng, canSplit)
		}
		logger.Debugf("tree %d: level %d/%d grown", treeIndex, level, lastLevel)
		if cp != nil {
			if err := cp.Checkpoint(ctx, treeIndex, level, t); err != nil {
				logger.Warnf("tree %d: checkpoint at level %d failed: %v", treeIndex, level, err)
			}
		}
	}
	return t, nil
}

func growPart(t *tree.Tree, fm tree.FrontierMap, part [2]int, p Params, rng *rand.Rand, canSplit bool) {
	for i := part[0]; i < part[1]; i++ {
		samples := fm[i]
		parent := weaklearner.Empty()
		for _, s := range samples {
			parent.Accumulate(s.Label())
		}
		t.Nodes[i].Stats = parent
		if !canSplit || len(samples) == 0 {
			continue
		}
		cs := weaklearner.SampleCandidates(rng, candidateParams(p), samples)
		if cs.TotalSize() == 0 {
			continue
		}
		split := weaklearner.NewSplitStatistics(parent, cs.TotalSize())
		if p.NumThreads == 1 {
			weaklearner.Accumulate(samples, cs, split)
		} else {
			weaklearner.AccumulateParallel(samples, cs, split, p.NumThreads)
		}
		idx, gain, ok := weaklearner.BestSplit(split)
		if !ok || gain <= 0 || gain < p.MinimumInformationGain || parent.NumOfSamples() < p.MinimumNumOfSamples {
			continue
		}
		sp, _ := cs.At(idx)
		t.ApplySplit(i, sp, parent)
	}
}

func candidateParams(p Params) weaklearner.CandidateParams {
	return weaklearner.CandidateParams{
		NumFeatures:            p.NumFeatures,
		NumThresholds:          p.NumThresholds,
		OffsetXLow:             p.OffsetXLow,
		OffsetXHigh:            p.OffsetXHigh,
		OffsetYLow:             p.OffsetYLow,
		OffsetYHigh:            p.OffsetYHigh,
		ThresholdLow:           p.ThresholdLow,
		ThresholdHigh:          p.ThresholdHigh,
		AdaptiveThresholdRange: p.AdaptiveThresholdRange,
		BinaryImages:           p.BinaryImages,
	}
}
