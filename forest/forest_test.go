package forest

import (
	"context"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pbanos/pxforest/cache"
	"github.com/pbanos/pxforest/pximage"
	"github.com/pbanos/pxforest/pximage/provider"
	"github.com/pbanos/pxforest/queue"
	"github.com/pbanos/pxforest/trainer"
	"github.com/pbanos/pxforest/tree"
)

func splitImage(t *testing.T) *pximage.Image {
	data := make([][]pximage.Pixel, 4)
	label := make([][]pximage.Pixel, 4)
	for y := 0; y < 4; y++ {
		data[y] = make([]pximage.Pixel, 4)
		label[y] = make([]pximage.Pixel, 4)
		for x := 0; x < 4; x++ {
			data[y][x] = pximage.Pixel(x)
			if x < 2 {
				label[y][x] = 1
			}
		}
	}
	img, err := pximage.New(data, label)
	require.NoError(t, err)
	return img
}

func trainerParams() trainer.Params {
	return trainer.Params{
		Depth:         1,
		NumFeatures:   4,
		NumThresholds: 4,
		OffsetXLow:    0, OffsetXHigh: 2,
		OffsetYLow: 0, OffsetYHigh: 0,
		ThresholdLow: -3, ThresholdHigh: 3,
		MinimumNumOfSamples:    1,
		MinimumInformationGain: 0,
		NumThreads:             1,
	}
}

func newTestCache(t *testing.T, numImages int) *cache.Cache {
	images := make([]*pximage.Image, numImages)
	for i := range images {
		images[i] = splitImage(t)
	}
	p := provider.NewMemory(images)
	rng := rand.New(rand.NewSource(1))
	c := cache.New(p, rng, cache.Params{SamplesPerImageFraction: 1, BaggingFraction: 1, BackgroundLabel: 2}, nil)
	return c
}

func TestBuildGrowsOneTreePerBatch(t *testing.T) {
	c := newTestCache(t, 4)
	c.PrepareBatches(3)
	rng := rand.New(rand.NewSource(1))

	f, err := Build(context.Background(), rng, c, Params{NumTrees: 3, TrainerParams: trainerParams()}, nil, nil)
	require.NoError(t, err)
	require.Len(t, f.Trees, 3)
	for _, tr := range f.Trees {
		assert.NotNil(t, tr)
	}
}

func TestForestPredictMergesAcrossTrees(t *testing.T) {
	c := newTestCache(t, 4)
	c.PrepareBatches(3)
	rng := rand.New(rand.NewSource(1))

	f, err := Build(context.Background(), rng, c, Params{NumTrees: 3, TrainerParams: trainerParams()}, nil, nil)
	require.NoError(t, err)

	img := splitImage(t)
	pred, err := f.Predict(pximage.Sample{Image: img, X: 0, Y: 0})
	require.NoError(t, err)
	label, prob := pred.PredictedValue()
	assert.Equal(t, pximage.Pixel(1), label)
	assert.Greater(t, prob, 0.0)
}

func TestForestPredictEmptyForestErrors(t *testing.T) {
	f := &Forest{}
	img := splitImage(t)
	_, err := f.Predict(pximage.Sample{Image: img, X: 0, Y: 0})
	assert.Error(t, err)
}

func TestDispatchPushesOneJobPerTree(t *testing.T) {
	q := queue.New()
	defer q.Stop(context.Background())
	require.NoError(t, Dispatch(context.Background(), q, 3, 42))
	pending, running, err := q.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, pending)
	assert.Equal(t, 0, running)
}

func TestWorkDrainsQueueAndReportsResults(t *testing.T) {
	q := queue.New()
	defer q.Stop(context.Background())
	require.NoError(t, Dispatch(context.Background(), q, 2, 7))

	c := newTestCache(t, 4)
	c.PrepareBatches(2)

	var got []int
	err := Work(context.Background(), q, c, trainerParams(), nil, nil, func(treeIndex int, tr *tree.Tree) {
		got = append(got, treeIndex)
	})
	require.NoError(t, err)
	assert.ElementsMatch(t, []int{0, 1}, got)
}
