package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

const (
	// ConfigFileName is the base name for configuration files (without extension).
	ConfigFileName = "pxforest"

	// EnvPrefix is the prefix for environment variables, per spec.md §6.
	EnvPrefix = "PXFOREST"
)

// Loader loads a Config from environment variables and a YAML file, with
// environment variables taking precedence. It binds no command-line flags
// itself; flags bound to the underlying viper instance (see GetViper) take
// precedence over both.
type Loader struct {
	v *viper.Viper
}

// NewLoader returns a Loader wrapping the global viper instance, so that
// any flags bound to that instance also apply to the loaded Config.
func NewLoader() *Loader {
	return &Loader{v: viper.GetViper()}
}

// Load reads pxforest.yaml from the search paths added by addConfigPaths,
// lets PXFOREST_-prefixed environment variables override its values, falls
// back to DefaultConfig for keys set by neither, and validates the result.
func (l *Loader) Load() (*Config, error) {
	return l.load(true)
}

// LoadWithoutValidation behaves like Load but skips Validate, for callers
// that want to inspect or patch the config before checking it.
func (l *Loader) LoadWithoutValidation() (*Config, error) {
	return l.load(false)
}

func (l *Loader) load(validate bool) (*Config, error) {
	l.v.SetConfigName(ConfigFileName)
	l.v.SetConfigType("yaml")

	l.addConfigPaths()
	l.setupEnvironmentVariables()
	l.setDefaults()

	if err := l.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := l.v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if validate {
		if err := cfg.Validate(); err != nil {
			return nil, fmt.Errorf("configuration validation failed: %w", err)
		}
	}

	return &cfg, nil
}

// LoadWithFile loads configuration from a specific file path, ignoring the
// standard search paths.
func (l *Loader) LoadWithFile(configFile string) (*Config, error) {
	if configFile == "" {
		return l.Load()
	}
	if _, err := os.Stat(configFile); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file does not exist: %s", configFile)
	}

	l.v.SetConfigFile(configFile)
	l.setupEnvironmentVariables()
	l.setDefaults()

	if err := l.v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file %s: %w", configFile, err)
	}

	var cfg Config
	if err := l.v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &cfg, nil
}

// GetViper returns the underlying viper instance, for binding cobra flags.
func (l *Loader) GetViper() *viper.Viper {
	return l.v
}

// addConfigPaths adds the standard configuration search paths.
func (l *Loader) addConfigPaths() {
	l.v.AddConfigPath(".")
	if home, err := os.UserHomeDir(); err == nil {
		l.v.AddConfigPath(home)
	}
	l.v.AddConfigPath("/etc/pxforest")
	if configDir, exists := os.LookupEnv("XDG_CONFIG_HOME"); exists {
		l.v.AddConfigPath(filepath.Join(configDir, "pxforest"))
	} else if home, err := os.UserHomeDir(); err == nil {
		l.v.AddConfigPath(filepath.Join(home, ".config", "pxforest"))
	}
}

// setupEnvironmentVariables configures PXFOREST_-prefixed env var lookup.
func (l *Loader) setupEnvironmentVariables() {
	l.v.SetEnvPrefix(EnvPrefix)
	l.v.AutomaticEnv()
	l.v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
}

// setDefaults registers DefaultConfig's values as viper defaults, so that
// a key left unset by flags, env vars and the config file still resolves.
func (l *Loader) setDefaults() {
	d := DefaultConfig()

	l.v.SetDefault("samples_per_image_fraction", d.SamplesPerImageFraction)
	l.v.SetDefault("bagging_fraction", d.BaggingFraction)
	l.v.SetDefault("background_label", d.BackgroundLabel)

	l.v.SetDefault("num_of_features", d.NumOfFeatures)
	l.v.SetDefault("num_of_thresholds", d.NumOfThresholds)
	l.v.SetDefault("feature_offset_x_range_low", d.FeatureOffsetXRangeLow)
	l.v.SetDefault("feature_offset_x_range_high", d.FeatureOffsetXRangeHigh)
	l.v.SetDefault("feature_offset_y_range_low", d.FeatureOffsetYRangeLow)
	l.v.SetDefault("feature_offset_y_range_high", d.FeatureOffsetYRangeHigh)
	l.v.SetDefault("threshold_range_low", d.ThresholdRangeLow)
	l.v.SetDefault("threshold_range_high", d.ThresholdRangeHigh)
	l.v.SetDefault("adaptive_threshold_range", d.AdaptiveThresholdRange)
	l.v.SetDefault("binary_images", d.BinaryImages)

	l.v.SetDefault("num_of_trees", d.NumOfTrees)
	l.v.SetDefault("tree_depth", d.TreeDepth)

	l.v.SetDefault("minimum_num_of_samples", d.MinimumNumOfSamples)
	l.v.SetDefault("minimum_information_gain", d.MinimumInformationGain)

	l.v.SetDefault("level_part_size", d.LevelPartSize)
	l.v.SetDefault("num_of_threads", d.NumOfThreads)

	l.v.SetDefault("temporary_json_tree_file_prefix", d.TemporaryJSONTreeFilePrefix)
	l.v.SetDefault("temporary_binary_forest_file_prefix", d.TemporaryBinaryForestFilePrefix)
}

// GenerateDefaultConfigFile writes DefaultConfig's values to filename as
// YAML, so a user can start from a fully-populated pxforest.yaml.
func GenerateDefaultConfigFile(filename string) error {
	loader := NewLoader()
	loader.setDefaults()
	if filename == "" {
		filename = "pxforest.yaml"
	}
	return loader.v.WriteConfigAs(filename)
}

// GetConfigSearchPaths returns the paths where configuration files are
// searched, for diagnostics.
func GetConfigSearchPaths() []string {
	paths := []string{"."}
	home, homeErr := os.UserHomeDir()
	if homeErr == nil {
		paths = append(paths, home)
	}
	paths = append(paths, "/etc/pxforest")
	if configDir, exists := os.LookupEnv("XDG_CONFIG_HOME"); exists {
		paths = append(paths, filepath.Join(configDir, "pxforest"))
	} else if homeErr == nil {
		paths = append(paths, filepath.Join(home, ".config", "pxforest"))
	}
	return paths
}
