package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDefault_MatchesHardcodedConstants(t *testing.T) {
	cfg := Default()
	require.Equal(t, 256, cfg.RegisterCount)
	require.Equal(t, 224, cfg.GlobalRegStart)
	require.Equal(t, 248, cfg.GlobalRegEnd)
	require.Equal(t, 64, cfg.ScopeLevelCount)
	require.Equal(t, 1000, cfg.HotThreshold)
	require.Greater(t, cfg.HeapTriggerThreshold, 0)
	require.Greater(t, cfg.JITCacheCapacity, 0)
}

func TestLoad_EmptyPathReturnsDefault(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, Default(), cfg)
}

func TestLoad_OverlaysFileOntoDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "orus.toml")
	contents := "hot_threshold = 50\njit_cache_capacity = 16\n"
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, 50, cfg.HotThreshold)
	require.Equal(t, 16, cfg.JITCacheCapacity)
	// Fields absent from the file keep their documented defaults.
	require.Equal(t, 256, cfg.RegisterCount)
}

func TestLoad_MissingFileErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	require.Error(t, err)
}
