package config

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultConfigMatchesSpecDefaults(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, 0.1, cfg.SamplesPerImageFraction)
	assert.Equal(t, 1.0, cfg.BaggingFraction)
	assert.Equal(t, 1, cfg.NumOfTrees)
	assert.Equal(t, 1, cfg.TreeDepth)
	assert.Equal(t, 1, cfg.NumOfThreads)
	assert.Equal(t, "tree_", cfg.TemporaryJSONTreeFilePrefix)
	assert.Equal(t, "forest_", cfg.TemporaryBinaryForestFilePrefix)
	assert.NoError(t, cfg.Validate())
}

func TestResolveBackgroundLabelDefaultsToMaxPixel(t *testing.T) {
	cfg := DefaultConfig()
	assert.EqualValues(t, math.MaxInt32, cfg.ResolveBackgroundLabel())

	cfg.BackgroundLabel = 7
	assert.EqualValues(t, 7, cfg.ResolveBackgroundLabel())
}

func TestValidateRejectsInvertedOffsetRange(t *testing.T) {
	cfg := DefaultConfig()
	cfg.FeatureOffsetXRangeLow = 5
	cfg.FeatureOffsetXRangeHigh = 1
	assert.Error(t, cfg.Validate())
}

func TestValidateRejectsInvertedThresholdRangeUnlessBinary(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ThresholdRangeLow = 1
	cfg.ThresholdRangeHigh = -1
	assert.Error(t, cfg.Validate())

	cfg.BinaryImages = true
	assert.NoError(t, cfg.Validate())
}

func TestValidateRejectsNonPositiveTreeShape(t *testing.T) {
	cfg := DefaultConfig()
	cfg.NumOfTrees = 0
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.TreeDepth = -1
	assert.Error(t, cfg.Validate())
}

func TestValidateRejectsNegativeFractions(t *testing.T) {
	cfg := DefaultConfig()
	cfg.SamplesPerImageFraction = -0.1
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.BaggingFraction = -1
	assert.Error(t, cfg.Validate())
}
