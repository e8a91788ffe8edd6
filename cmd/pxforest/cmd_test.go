package main

import (
	"context"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pbanos/pxforest/cache"
	pxconfig "github.com/pbanos/pxforest/config"
	"github.com/pbanos/pxforest/forest"
	"github.com/pbanos/pxforest/pximage"
	"github.com/pbanos/pxforest/pximage/provider"
	"github.com/pbanos/pxforest/serialize/binfmt"
	"github.com/pbanos/pxforest/serialize/jsonfmt"
	"github.com/pbanos/pxforest/trainer"
)

func TestForestCodecForSelectsByFormat(t *testing.T) {
	jc, err := forestCodecFor("json")
	require.NoError(t, err)
	assert.IsType(t, jsonfmt.New(), jc)

	bc, err := forestCodecFor("binary")
	require.NoError(t, err)
	assert.IsType(t, binfmt.New(), bc)

	_, err = forestCodecFor("xml")
	assert.Error(t, err)
}

func TestTrainerParamsFromConfigMapsEveryField(t *testing.T) {
	cfg := pxconfig.DefaultConfig()
	cfg.TreeDepth = 3
	cfg.NumOfFeatures = 5
	cfg.NumOfThresholds = 7
	cfg.FeatureOffsetXRangeLow = -2
	cfg.FeatureOffsetXRangeHigh = 2
	cfg.FeatureOffsetYRangeLow = -3
	cfg.FeatureOffsetYRangeHigh = 3
	cfg.ThresholdRangeLow = -5
	cfg.ThresholdRangeHigh = 5
	cfg.AdaptiveThresholdRange = true
	cfg.BinaryImages = true
	cfg.MinimumNumOfSamples = 10
	cfg.MinimumInformationGain = 0.25
	cfg.LevelPartSize = 16
	cfg.NumOfThreads = 4

	p := trainerParamsFromConfig(&cfg)
	assert.Equal(t, cfg.TreeDepth, p.Depth)
	assert.Equal(t, cfg.NumOfFeatures, p.NumFeatures)
	assert.Equal(t, cfg.NumOfThresholds, p.NumThresholds)
	assert.Equal(t, cfg.FeatureOffsetXRangeLow, p.OffsetXLow)
	assert.Equal(t, cfg.FeatureOffsetXRangeHigh, p.OffsetXHigh)
	assert.Equal(t, cfg.FeatureOffsetYRangeLow, p.OffsetYLow)
	assert.Equal(t, cfg.FeatureOffsetYRangeHigh, p.OffsetYHigh)
	assert.Equal(t, cfg.ThresholdRangeLow, p.ThresholdLow)
	assert.Equal(t, cfg.ThresholdRangeHigh, p.ThresholdHigh)
	assert.Equal(t, cfg.AdaptiveThresholdRange, p.AdaptiveThresholdRange)
	assert.Equal(t, cfg.BinaryImages, p.BinaryImages)
	assert.Equal(t, cfg.MinimumNumOfSamples, p.MinimumNumOfSamples)
	assert.Equal(t, cfg.MinimumInformationGain, p.MinimumInformationGain)
	assert.Equal(t, cfg.LevelPartSize, p.LevelPartSize)
	assert.Equal(t, cfg.NumOfThreads, p.NumThreads)
}

func TestReadManifestDispatchesByExtension(t *testing.T) {
	_, err := readManifest("/nonexistent/manifest.csv")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "opening manifest")
	_, err = readManifest("/nonexistent/manifest.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reading manifest")
}

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

func TestBuildForestDistributedGrowsEveryTree(t *testing.T) {
	images := make([]*pximage.Image, 4)
	for i := range images {
		images[i] = splitImage(t)
	}
	p := provider.NewMemory(images)
	rng := rand.New(rand.NewSource(1))
	c := cache.New(p, rng, cache.Params{SamplesPerImageFraction: 1, BaggingFraction: 1, BackgroundLabel: 2}, nil)
	c.PrepareBatches(3)

	fp := forest.Params{
		NumTrees: 3,
		TrainerParams: trainer.Params{
			Depth: 1, NumFeatures: 4, NumThresholds: 4,
			OffsetXLow: 0, OffsetXHigh: 2,
			ThresholdLow: -3, ThresholdHigh: 3,
			MinimumNumOfSamples: 1, NumThreads: 1,
		},
	}
	tc := &trainCmdConfig{workers: 3, seed: 1}
	f, err := tc.buildForestDistributed(context.Background(), rng, c, fp, nil, nil)
	require.NoError(t, err)
	require.Len(t, f.Trees, 3)
	for _, tr := range f.Trees {
		assert.NotNil(t, tr)
	}
}

func TestCLIParserBuildsExpectedCommandTree(t *testing.T) {
	root := cliParser()
	names := map[string]bool{}
	for _, c := range root.Commands() {
		names[c.Use] = true
	}
	assert.True(t, names["train"])
	assert.True(t, names["predict"])
	assert.True(t, names["version"])
}
