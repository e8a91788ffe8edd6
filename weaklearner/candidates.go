package weaklearner

import (
	"math/rand"

	"github.com/pbanos/pxforest/pximage"
)

// CandidateParams configures the candidate generator of spec.md §4.2.
type CandidateParams struct {
	NumFeatures   int
	NumThresholds int

	OffsetXLow, OffsetXHigh int
	OffsetYLow, OffsetYHigh int

	ThresholdLow, ThresholdHigh float64

	AdaptiveThresholdRange bool
	BinaryImages           bool
}

// Candidate is one sampled Feature together with the thresholds generated
// for it.
type Candidate struct {
	Feature    pximage.Feature
	Thresholds []pximage.Threshold
}

// CandidateSet is the ordered output of SampleCandidates: one Candidate per
// feature, flattened for scoring via TotalSize/At.
type CandidateSet struct {
	Candidates []Candidate
}

// TotalSize returns the flattened candidate count (sum of every candidate's
// threshold count), the K used to size a SplitStatistics.
func (cs *CandidateSet) TotalSize() int {
	n := 0
	for _, c := range cs.Candidates {
		n += len(c.Thresholds)
	}
	return n
}

// At returns the (feature, threshold) pair for flattened index k and true,
// or a zero SplitPoint and false if k is outside [0, TotalSize()).
func (cs *CandidateSet) At(k int) (pximage.SplitPoint, bool) {
	for _, c := range cs.Candidates {
		if k < len(c.Thresholds) {
			return pximage.SplitPoint{Feature: c.Feature, Threshold: c.Thresholds[k]}, true
		}
		k -= len(c.Thresholds)
	}
	return pximage.SplitPoint{}, false
}

// buildOffsetPool builds the discrete offset pool {±x : x in [lo, hi]}.
// ±0 intentionally appears twice when lo <= 0 <= hi: the source does this
// explicitly (spec.md §9 Open Questions), so it is preserved here rather
// than deduplicated.
func buildOffsetPool(lo, hi int) []int {
	var pool []int
	for x := lo; x <= hi; x++ {
		pool = append(pool, x, -x)
	}
	return pool
}

// SampleCandidates draws NumFeatures features from the offset pools and, for
// each, the thresholds appropriate to the configured mode (binary, adaptive,
// or fixed range), per spec.md §4.2. samples is the node's current sample
// range, needed only for the adaptive-threshold-range pass.
func SampleCandidates(rng *rand.Rand, p CandidateParams, samples []pximage.Sample) *CandidateSet {
	xs := buildOffsetPool(p.OffsetXLow, p.OffsetXHigh)
	ys := buildOffsetPool(p.OffsetYLow, p.OffsetYHigh)
	cs := &CandidateSet{Candidates: make([]Candidate, p.NumFeatures)}
	for i := 0; i < p.NumFeatures; i++ {
		f := pximage.Feature{
			OX1: xs[rng.Intn(len(xs))],
			OY1: ys[rng.Intn(len(ys))],
			OX2: xs[rng.Intn(len(xs))],
			OY2: ys[rng.Intn(len(ys))],
		}
		cs.Candidates[i] = Candidate{
			Feature:    f,
			Thresholds: sampleThresholds(rng, p, f, samples),
		}
	}
	return cs
}

func sampleThresholds(rng *rand.Rand, p CandidateParams, f pximage.Feature, samples []pximage.Sample) []pximage.Threshold {
	if p.BinaryImages {
		return []pximage.Threshold{-0.5, 0.5}
	}
	lo, hi := p.ThresholdLow, p.ThresholdHigh
	if p.AdaptiveThresholdRange {
		lo, hi = adaptiveRange(f, samples)
	}
	thresholds := make([]pximage.Threshold, p.NumThresholds)
	for i := range thresholds {
		thresholds[i] = lo + rng.Float64()*(hi-lo)
	}
	return thresholds
}

// adaptiveRange computes [min, max] of f's pixel difference over samples.
// If min >= max (including the empty-samples case, min=+Inf, max=-Inf) it
// collapses both to 0, following the source's literal behavior per
// spec.md §9 Open Questions.
func adaptiveRange(f pximage.Feature, samples []pximage.Sample) (float64, float64) {
	if len(samples) == 0 {
		return 0, 0
	}
	lo, hi := f.Evaluate(samples[0]), f.Evaluate(samples[0])
	for _, s := range samples[1:] {
		v := f.Evaluate(s)
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	if lo >= hi {
		return 0, 0
	}
	return lo, hi
}
