/*
Package config defines the recognized configuration keys of spec.md §6 as a
Go struct loaded via viper (flags/env/YAML), grounded on
MeKo-Christian-pogo's internal/config: a mapstructure-tagged Config struct
with a DefaultConfig and a Validate method.
*/
package config

import (
	"fmt"
	"math"

	"github.com/pbanos/pxforest/pximage"
)

// Config is the recognized key set of spec.md §6.
type Config struct {
	// Cache/bagging (C2).
	SamplesPerImageFraction float64       `mapstructure:"samples_per_image_fraction" yaml:"samples_per_image_fraction"`
	BaggingFraction         float64       `mapstructure:"bagging_fraction" yaml:"bagging_fraction"`
	BackgroundLabel         pximage.Pixel `mapstructure:"background_label" yaml:"background_label"`

	// Candidate generator (C3).
	NumOfFeatures           int     `mapstructure:"num_of_features" yaml:"num_of_features"`
	NumOfThresholds         int     `mapstructure:"num_of_thresholds" yaml:"num_of_thresholds"`
	FeatureOffsetXRangeLow  int     `mapstructure:"feature_offset_x_range_low" yaml:"feature_offset_x_range_low"`
	FeatureOffsetXRangeHigh int     `mapstructure:"feature_offset_x_range_high" yaml:"feature_offset_x_range_high"`
	FeatureOffsetYRangeLow  int     `mapstructure:"feature_offset_y_range_low" yaml:"feature_offset_y_range_low"`
	FeatureOffsetYRangeHigh int     `mapstructure:"feature_offset_y_range_high" yaml:"feature_offset_y_range_high"`
	ThresholdRangeLow       float64 `mapstructure:"threshold_range_low" yaml:"threshold_range_low"`
	ThresholdRangeHigh      float64 `mapstructure:"threshold_range_high" yaml:"threshold_range_high"`
	AdaptiveThresholdRange  bool    `mapstructure:"adaptive_threshold_range" yaml:"adaptive_threshold_range"`
	BinaryImages            bool    `mapstructure:"binary_images" yaml:"binary_images"`

	// Forest shape (C7/C8).
	NumOfTrees int `mapstructure:"num_of_trees" yaml:"num_of_trees"`
	TreeDepth  int `mapstructure:"tree_depth" yaml:"tree_depth"`

	// Leaf-stopping criteria (C7).
	MinimumNumOfSamples    int     `mapstructure:"minimum_num_of_samples" yaml:"minimum_num_of_samples"`
	MinimumInformationGain float64 `mapstructure:"minimum_information_gain" yaml:"minimum_information_gain"`

	// Execution shape (C4/C7).
	LevelPartSize int `mapstructure:"level_part_size" yaml:"level_part_size"`
	NumOfThreads  int `mapstructure:"num_of_threads" yaml:"num_of_threads"`

	// Checkpoint prefixes (C9).
	TemporaryJSONTreeFilePrefix     string `mapstructure:"temporary_json_tree_file_prefix" yaml:"temporary_json_tree_file_prefix"`
	TemporaryBinaryForestFilePrefix string `mapstructure:"temporary_binary_forest_file_prefix" yaml:"temporary_binary_forest_file_prefix"`
}

// backgroundLabelUnset is a sentinel distinguishing "the user passed 0" from
// "the user never set background_label", since spec.md §6 defaults it to
// the max of the label type, not 0. DefaultConfig uses this and
// ResolveBackgroundLabel maps it to the max of pximage.Pixel. Load does not
// resolve it; since the sentinel equals that max, a Config returned by Load
// already carries the max.
const backgroundLabelUnset = math.MaxInt32

// DefaultConfig returns a Config with every spec.md §6 default applied.
// BackgroundLabel is set to the backgroundLabelUnset sentinel, which
// ResolveBackgroundLabel maps to the max of pximage.Pixel (spec.md §6 "MAX
// of label type"); the default is decided here rather than deferred to
// cache.Params, which treats a zero BackgroundLabel as a legitimate "ignore
// everything" value.
func DefaultConfig() Config {
	return Config{
		SamplesPerImageFraction: 0.1,
		BaggingFraction:         1.0,
		BackgroundLabel:         backgroundLabelUnset,

		NumOfFeatures:      1,
		NumOfThresholds:    1,
		ThresholdRangeLow:  -1,
		ThresholdRangeHigh: 1,

		NumOfTrees: 1,
		TreeDepth:  1,

		MinimumNumOfSamples:    1,
		MinimumInformationGain: 0,

		LevelPartSize: 0,
		NumOfThreads:  1,

		TemporaryJSONTreeFilePrefix:     "tree_",
		TemporaryBinaryForestFilePrefix: "forest_",
	}
}

// Validate reports invalid-input configuration per spec.md §7: negative
// fractions, an inverted offset or threshold range, a non-positive tree
// count, a negative depth (depth 0 is accepted), or a non-positive feature
// or threshold count.
func (c *Config) Validate() error {
	if c.SamplesPerImageFraction < 0 {
		return fmt.Errorf("samples_per_image_fraction must be >= 0, got %v", c.SamplesPerImageFraction)
	}
	if c.BaggingFraction < 0 {
		return fmt.Errorf("bagging_fraction must be >= 0, got %v", c.BaggingFraction)
	}
	if c.FeatureOffsetXRangeLow > c.FeatureOffsetXRangeHigh {
		return fmt.Errorf("feature_offset_x_range_low (%d) must be <= feature_offset_x_range_high (%d)", c.FeatureOffsetXRangeLow, c.FeatureOffsetXRangeHigh)
	}
	if c.FeatureOffsetYRangeLow > c.FeatureOffsetYRangeHigh {
		return fmt.Errorf("feature_offset_y_range_low (%d) must be <= feature_offset_y_range_high (%d)", c.FeatureOffsetYRangeLow, c.FeatureOffsetYRangeHigh)
	}
	if !c.BinaryImages && c.ThresholdRangeLow > c.ThresholdRangeHigh {
		return fmt.Errorf("threshold_range_low (%v) must be <= threshold_range_high (%v)", c.ThresholdRangeLow, c.ThresholdRangeHigh)
	}
	if c.NumOfTrees <= 0 {
		return fmt.Errorf("num_of_trees must be > 0, got %d", c.NumOfTrees)
	}
	if c.TreeDepth < 0 {
		return fmt.Errorf("tree_depth must be >= 0, got %d", c.TreeDepth)
	}
	if c.NumOfFeatures <= 0 {
		return fmt.Errorf("num_of_features must be > 0, got %d", c.NumOfFeatures)
	}
	if !c.BinaryImages && c.NumOfThresholds <= 0 {
		return fmt.Errorf("num_of_thresholds must be > 0, got %d", c.NumOfThresholds)
	}
	return nil
}

// ResolveBackgroundLabel returns c.BackgroundLabel, substituting the max of
// pximage.Pixel if it was left at its DefaultConfig sentinel.
func (c *Config) ResolveBackgroundLabel() pximage.Pixel {
	if c.BackgroundLabel == backgroundLabelUnset {
		return math.MaxInt32
	}
	return c.BackgroundLabel
}
