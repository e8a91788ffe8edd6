package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"
)

func clearPxforestEnvVars() {
	for _, env := range os.Environ() {
		if strings.HasPrefix(env, "PXFOREST_") {
			parts := strings.SplitN(env, "=", 2)
			_ = os.Unsetenv(parts[0])
		}
	}
}

func freshLoader(t *testing.T) *Loader {
	t.Helper()
	clearPxforestEnvVars()
	viper.Reset()
	return NewLoader()
}

func TestLoadWithNoConfigFileFallsBackToDefaults(t *testing.T) {
	loader := freshLoader(t)
	tmpDir := t.TempDir()
	originalWd, err := os.Getwd()
	require.NoError(t, err)
	defer func() { _ = os.Chdir(originalWd) }()
	require.NoError(t, os.Chdir(tmpDir))

	cfg, err := loader.Load()
	require.NoError(t, err)
	require.Equal(t, DefaultConfig().NumOfTrees, cfg.NumOfTrees)
	require.Equal(t, DefaultConfig().SamplesPerImageFraction, cfg.SamplesPerImageFraction)
}

func TestLoadReadsEnvironmentVariableOverride(t *testing.T) {
	loader := freshLoader(t)
	tmpDir := t.TempDir()
	originalWd, err := os.Getwd()
	require.NoError(t, err)
	defer func() { _ = os.Chdir(originalWd) }()
	require.NoError(t, os.Chdir(tmpDir))

	require.NoError(t, os.Setenv("PXFOREST_NUM_OF_TREES", "42"))
	defer func() { _ = os.Unsetenv("PXFOREST_NUM_OF_TREES") }()

	cfg, err := loader.Load()
	require.NoError(t, err)
	require.Equal(t, 42, cfg.NumOfTrees)
}

func TestLoadReadsYAMLFile(t *testing.T) {
	loader := freshLoader(t)
	tmpDir := t.TempDir()
	originalWd, err := os.Getwd()
	require.NoError(t, err)
	defer func() { _ = os.Chdir(originalWd) }()
	require.NoError(t, os.Chdir(tmpDir))

	yaml := "num_of_trees: 10\ntree_depth: 5\n"
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, ConfigFileName+".yaml"), []byte(yaml), 0o644))

	cfg, err := loader.Load()
	require.NoError(t, err)
	require.Equal(t, 10, cfg.NumOfTrees)
	require.Equal(t, 5, cfg.TreeDepth)
}

func TestLoadFailsValidationOnInvalidConfigFile(t *testing.T) {
	loader := freshLoader(t)
	tmpDir := t.TempDir()
	originalWd, err := os.Getwd()
	require.NoError(t, err)
	defer func() { _ = os.Chdir(originalWd) }()
	require.NoError(t, os.Chdir(tmpDir))

	yaml := "num_of_trees: 0\n"
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, ConfigFileName+".yaml"), []byte(yaml), 0o644))

	_, err = loader.Load()
	require.Error(t, err)
}

func TestLoadWithFileRejectsMissingPath(t *testing.T) {
	loader := freshLoader(t)
	_, err := loader.LoadWithFile("/nonexistent/pxforest.yaml")
	require.Error(t, err)
}
