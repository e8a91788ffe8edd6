package weaklearner

import (
	"runtime"

	"github.com/sourcegraph/conc/pool"

	"github.com/pbanos/pxforest/pximage"
)

// Accumulate fills split.Left[k]/split.Right[k] for every sample and every
// candidate k, serially: for each sample, for each flattened candidate, it
// lazily accumulates into the left or right slot depending on which side the
// sample routes to, then finishes every slot's lazy accumulation once the
// single pass over samples is done, per spec.md §4.3 "Serial contract".
func Accumulate(samples []pximage.Sample, cs *CandidateSet, split *SplitStatistics) {
	k := cs.TotalSize()
	splitPoints := make([]pximage.SplitPoint, k)
	for i := 0; i < k; i++ {
		splitPoints[i], _ = cs.At(i)
	}
	for _, s := range samples {
		label := s.Label()
		for i, sp := range splitPoints {
			if sp.RoutesLeft(s) {
				split.Left[i].LazyAccumulate(label)
			} else {
				split.Right[i].LazyAccumulate(label)
			}
		}
	}
	for i := 0; i < k; i++ {
		split.Left[i].FinishLazyAccumulation()
		split.Right[i].FinishLazyAccumulation()
	}
}

// AccumulateParallel shards the K flattened candidates across numThreads
// workers by contiguous index ranges; each worker owns a disjoint slice of
// (left, right) and iterates every sample, so no synchronization is needed
// inside the hot loop (spec.md §4.3 "Parallel contract"). numThreads <= 0
// resolves to runtime.GOMAXPROCS(0), the host hardware hint.
//
// Grounded on the teacher's pkg/botanic/pot.go goroutine-per-subtree
// fan-out, upgraded from a raw sync.WaitGroup to a
// github.com/sourcegraph/conc/pool worker pool (discovered via the
// retrieval pack's MeKo-Christian-pogo module graph) for panic propagation
// across shards.
func AccumulateParallel(samples []pximage.Sample, cs *CandidateSet, split *SplitStatistics, numThreads int) {
	k := cs.TotalSize()
	if k == 0 {
		return
	}
	if numThreads <= 0 {
		numThreads = runtime.GOMAXPROCS(0)
	}
	if numThreads > k {
		numThreads = k
	}
	if numThreads <= 1 {
		Accumulate(samples, cs, split)
		return
	}

	splitPoints := make([]pximage.SplitPoint, k)
	for i := 0; i < k; i++ {
		splitPoints[i], _ = cs.At(i)
	}

	shardSize := (k + numThreads - 1) / numThreads
	p := pool.New()
	for start := 0; start < k; start += shardSize {
		end := start + shardSize
		if end > k {
			end = k
		}
		start, end := start, end
		p.Go(func() {
			accumulateShard(samples, splitPoints[start:end], split.Left[start:end], split.Right[start:end])
		})
	}
	p.Wait()
}

func accumulateShard(samples []pximage.Sample, splitPoints []pximage.SplitPoint, left, right []Statistics) {
	for _, s := range samples {
		label := s.Label()
		for i, sp := range splitPoints {
			if sp.RoutesLeft(s) {
				left[i].LazyAccumulate(label)
			} else {
				right[i].LazyAccumulate(label)
			}
		}
	}
	for i := range splitPoints {
		left[i].FinishLazyAccumulation()
		right[i].FinishLazyAccumulation()
	}
}
