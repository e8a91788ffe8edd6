package weaklearner

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInformationGainZeroOnEmptyChild(t *testing.T) {
	parent := Empty()
	parent.Accumulate(1)
	parent.Accumulate(2)
	left := Empty()
	left.Accumulate(1)
	left.Accumulate(2)
	right := Empty()
	assert.Equal(t, 0.0, InformationGain(parent.Entropy(), &left, &right))
}

func TestBestSplitPicksHighestGainFirstIndexTieBreak(t *testing.T) {
	parent := Empty()
	parent.Accumulate(1)
	parent.Accumulate(1)
	parent.Accumulate(2)
	parent.Accumulate(2)
	split := NewSplitStatistics(parent, 3)
	// Candidate 0: no split (all labels on one side) -> gain 0.
	split.Left[0].Accumulate(1)
	split.Left[0].Accumulate(2)
	// Candidate 1: perfect split -> highest gain.
	split.Left[1].Accumulate(1)
	split.Left[1].Accumulate(1)
	split.Right[1].Accumulate(2)
	split.Right[1].Accumulate(2)
	// Candidate 2: identical perfect split, should lose the tie to candidate 1.
	split.Left[2].Accumulate(1)
	split.Left[2].Accumulate(1)
	split.Right[2].Accumulate(2)
	split.Right[2].Accumulate(2)

	idx, gain, ok := BestSplit(split)
	require.True(t, ok)
	assert.Equal(t, 1, idx)
	assert.Greater(t, gain, 0.0)
}

func TestBestSplitNoCandidates(t *testing.T) {
	split := NewSplitStatistics(Empty(), 0)
	_, _, ok := BestSplit(split)
	assert.False(t, ok)
}
