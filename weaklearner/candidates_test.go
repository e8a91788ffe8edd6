package weaklearner

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pbanos/pxforest/pximage"
)

func TestBuildOffsetPoolDuplicatesZero(t *testing.T) {
	pool := buildOffsetPool(0, 2)
	// {0,-0, 1,-1, 2,-2}: six entries, two of which are zero.
	require.Len(t, pool, 6)
	zeroCount := 0
	for _, v := range pool {
		if v == 0 {
			zeroCount++
		}
	}
	assert.Equal(t, 2, zeroCount)
}

func TestSampleCandidatesBinaryImages(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	p := CandidateParams{
		NumFeatures:   5,
		NumThresholds: 7, // must be ignored for binary images
		OffsetXLow:    -1, OffsetXHigh: 1,
		OffsetYLow: -1, OffsetYHigh: 1,
		BinaryImages: true,
	}
	cs := SampleCandidates(rng, p, nil)
	require.Len(t, cs.Candidates, 5)
	for _, c := range cs.Candidates {
		require.Len(t, c.Thresholds, 2)
		assert.Equal(t, -0.5, c.Thresholds[0])
		assert.Equal(t, 0.5, c.Thresholds[1])
	}
}

func TestAdaptiveRangeDegenerateCollapsesToZero(t *testing.T) {
	img, err := pximage.New([][]pximage.Pixel{{5, 5}, {5, 5}}, [][]pximage.Pixel{{0, 0}, {0, 0}})
	require.NoError(t, err)
	samples := []pximage.Sample{
		{Image: img, X: 0, Y: 0},
		{Image: img, X: 1, Y: 0},
		{Image: img, X: 0, Y: 1},
	}
	f := pximage.Feature{OX1: 0, OY1: 0, OX2: 0, OY2: 0}
	lo, hi := adaptiveRange(f, samples)
	assert.Equal(t, 0.0, lo)
	assert.Equal(t, 0.0, hi)
}

func TestCandidateSetFlattenedIndex(t *testing.T) {
	cs := &CandidateSet{Candidates: []Candidate{
		{Thresholds: []pximage.Threshold{1, 2}},
		{Thresholds: []pximage.Threshold{3}},
		{Thresholds: []pximage.Threshold{4, 5, 6}},
	}}
	require.Equal(t, 6, cs.TotalSize())
	sp, ok := cs.At(3)
	require.True(t, ok)
	assert.Equal(t, pximage.Threshold(4), sp.Threshold)
	_, ok = cs.At(6)
	assert.False(t, ok)
}
