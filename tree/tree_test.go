package tree

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pbanos/pxforest/pximage"
	"github.com/pbanos/pxforest/weaklearner"
)

func gridImage(t *testing.T) *pximage.Image {
	data := [][]pximage.Pixel{
		{0, 1, 2, 3},
		{4, 5, 6, 7},
		{8, 9, 10, 11},
		{12, 13, 14, 15},
	}
	label := [][]pximage.Pixel{
		{0, 0, 0, 0},
		{0, 1, 0, 0},
		{0, 0, 0, 0},
		{0, 0, 0, 0},
	}
	img, err := pximage.New(data, label)
	require.NoError(t, err)
	return img
}

func allSamples(img *pximage.Image) []pximage.Sample {
	var out []pximage.Sample
	for y := 0; y < img.Height(); y++ {
		for x := 0; x < img.Width(); x++ {
			out = append(out, pximage.Sample{Image: img, X: x, Y: y})
		}
	}
	return out
}

func TestNodeCountAndLevelRange(t *testing.T) {
	assert.Equal(t, 1, NodeCount(0))
	assert.Equal(t, 3, NodeCount(1))
	assert.Equal(t, 7, NodeCount(2))

	b, e := LevelRange(0)
	assert.Equal(t, 0, b)
	assert.Equal(t, 1, e)
	b, e = LevelRange(1)
	assert.Equal(t, 1, b)
	assert.Equal(t, 3, e)
	b, e = LevelRange(2)
	assert.Equal(t, 3, b)
	assert.Equal(t, 7, e)
}

func TestNewTreeAllLeaves(t *testing.T) {
	tr := New(3)
	require.Len(t, tr.Nodes, NodeCount(3))
	for _, n := range tr.Nodes {
		assert.True(t, n.Leaf)
	}
}

// TestRouteTerminatesWithinLevelDepth covers invariant 1: routing at level ℓ
// always terminates at a node within depth <= ℓ from the root.
func TestRouteTerminatesWithinLevelDepth(t *testing.T) {
	img := gridImage(t)
	tr := New(2)
	tr.ApplySplit(0, pximage.SplitPoint{Feature: pximage.Feature{OX1: 0, OY1: 0, OX2: 1, OY2: 0}, Threshold: -0.5}, weaklearner.Empty())
	tr.ApplySplit(1, pximage.SplitPoint{Feature: pximage.Feature{OX1: 0, OY1: 0, OX2: 0, OY2: 1}, Threshold: -0.5}, weaklearner.Empty())

	for _, s := range allSamples(img) {
		leaf := tr.Route(s)
		depth := 0
		for i := leaf; i > 0; {
			i = (i - 1) / 2
			depth++
		}
		assert.LessOrEqual(t, depth, tr.Depth)
	}
}

func TestBuildFrontierMapAllBucketsPresentAndInRange(t *testing.T) {
	img := gridImage(t)
	tr := New(2)
	bag := allSamples(img)
	fm := BuildFrontierMap(tr, 0, bag)
	begin, end := LevelRange(0)
	require.Len(t, fm, end-begin)
	total := 0
	for i := begin; i < end; i++ {
		_, ok := fm[i]
		assert.True(t, ok)
		total += len(fm[i])
	}
	assert.Equal(t, len(bag), total)
}

func TestBuildFrontierMapDropsAboveFrontier(t *testing.T) {
	img := gridImage(t)
	tr := New(2)
	tr.ApplySplit(0, pximage.SplitPoint{Feature: pximage.Feature{OX1: 0, OY1: 0, OX2: 1, OY2: 0}, Threshold: -0.5}, weaklearner.Empty())
	// Node 1 becomes a leaf (via ApplySplit's child pre-set) without a further
	// split: samples routing there terminate at level 1, above a level-2 frontier.
	bag := allSamples(img)
	fm := BuildFrontierMap(tr, 2, bag)
	begin, end := LevelRange(2)
	total := 0
	for i := begin; i < end; i++ {
		total += len(fm[i])
	}
	assert.Less(t, total, len(bag))
}

// TestBackgroundThresholdDropsHighLabelSamples covers invariant 3: once a
// background-label threshold excludes labels, no sample with that or higher
// label appears in a frontier bucket built from a bag already filtered by
// the cache's background exclusion.
func TestBackgroundThresholdDropsHighLabelSamples(t *testing.T) {
	img := gridImage(t)
	tr := New(1)
	const backgroundLabel = pximage.Pixel(1)
	var bag []pximage.Sample
	for _, s := range allSamples(img) {
		if s.Label() > backgroundLabel {
			continue
		}
		if s.Label() == backgroundLabel {
			continue
		}
		bag = append(bag, s)
	}
	fm := BuildFrontierMap(tr, 0, bag)
	for _, bucket := range fm {
		for _, s := range bucket {
			assert.Less(t, s.Label(), backgroundLabel+1)
			assert.NotEqual(t, backgroundLabel, s.Label())
		}
	}
}

func TestLevelPartsCoverWholeLevelContiguously(t *testing.T) {
	begin, end := LevelRange(3)
	parts := LevelParts(3, 2)
	require.NotEmpty(t, parts)
	assert.Equal(t, begin, parts[0][0])
	assert.Equal(t, end, parts[len(parts)-1][1])
	for i := 1; i < len(parts); i++ {
		assert.Equal(t, parts[i-1][1], parts[i][0])
	}
}

func TestLevelPartsZeroSizeIsOnePart(t *testing.T) {
	parts := LevelParts(2, 0)
	require.Len(t, parts, 1)
	begin, end := LevelRange(2)
	assert.Equal(t, [2]int{begin, end}, parts[0])
}

// TestApplySplitPresetsChildrenAsLeaves covers a building block of
// invariant 6: a split that is applied immediately gives both children leaf
// status until they are themselves split.
func TestApplySplitPresetsChildrenAsLeaves(t *testing.T) {
	tr := New(2)
	tr.ApplySplit(0, pximage.SplitPoint{}, weaklearner.Empty())
	assert.False(t, tr.Nodes[0].Leaf)
	assert.True(t, tr.Nodes[1].Leaf)
	assert.True(t, tr.Nodes[2].Leaf)
}

func TestSingleLeafTreeWhenNeverSplit(t *testing.T) {
	tr := New(4)
	assert.True(t, tr.Nodes[0].Leaf)
	img := gridImage(t)
	for _, s := range allSamples(img) {
		assert.Equal(t, 0, tr.Route(s))
	}
}
