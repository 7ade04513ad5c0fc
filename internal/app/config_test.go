package app

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadConfigMissingFileYieldsDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	require.Equal(t, "Single", cfg.DefaultMode)
	require.Equal(t, 60, cfg.MatchThreshold)
	require.False(t, cfg.ClearUncategorizedInMulti)
	require.False(t, cfg.IncludeMissingInPercentages)
}

func TestConfigRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fuzzycoder.yaml")
	want := Config{
		DefaultMode:                 "Multi",
		MatchThreshold:              75,
		ClearUncategorizedInMulti:   true,
		IncludeMissingInPercentages: true,
	}
	require.NoError(t, SaveConfig(path, want))

	got, err := LoadConfig(path)
	require.NoError(t, err)
	require.Equal(t, want, got)
}

func TestLoadConfigPartialFileGetsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fuzzycoder.yaml")
	require.NoError(t, os.WriteFile(path, []byte("match_threshold: 80\n"), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	require.Equal(t, 80, cfg.MatchThreshold)
	require.Equal(t, "Single", cfg.DefaultMode)
}

func TestLoadConfigKeepsExplicitZeroThreshold(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fuzzycoder.yaml")
	require.NoError(t, os.WriteFile(path, []byte("match_threshold: 0\n"), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	// 0 means "show everything", not "unset".
	require.Equal(t, 0, cfg.MatchThreshold)
}

func TestLoadConfigRejectsBadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fuzzycoder.yaml")
	require.NoError(t, os.WriteFile(path, []byte("match_threshold: [not a number\n"), 0o644))

	_, err := LoadConfig(path)
	require.Error(t, err)
}
