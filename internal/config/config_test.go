package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brogergvhs/endless/internal/config"
)

func TestLoadMerged_DefaultsWithoutProfile(t *testing.T) {
	t.Setenv("ENDLESS_CONFIG_DIR", t.TempDir())

	cfg, used, err := config.LoadMerged(config.Options{})
	require.NoError(t, err)

	assert.Contains(t, used, "default config in memory")
	assert.Equal(t, 10.0, cfg.URLUpdateThreshold)
	assert.Equal(t, 0.5, cfg.VisibilityThreshold)
	assert.Equal(t, 50, cfg.ScrollDebounceMS)
	assert.Equal(t, 1000, cfg.SyncIntervalMS)
	assert.Equal(t, filepath.Join(config.ConfigRoot(), "library.db"), cfg.DBPath)
}

func TestLoadMerged_ProfileEnvAndFlags(t *testing.T) {
	t.Setenv("ENDLESS_CONFIG_DIR", t.TempDir())

	path, err := config.CreateConfig("Default")
	require.NoError(t, err)
	require.NoError(t, config.SwitchConfig("Default"))

	profile := config.DefaultConfig()
	profile.URLUpdateThreshold = 25
	profile.FetchRetries = 5
	profile.UserAgent = "from-profile"
	require.NoError(t, config.SaveYAML(profile, path))

	t.Setenv("ENDLESS_FETCH_RETRIES", "7")

	cfg, used, err := config.LoadMerged(config.Options{UserAgent: "from-flag"})
	require.NoError(t, err)

	assert.Equal(t, path, used)
	assert.Equal(t, 25.0, cfg.URLUpdateThreshold)
	assert.Equal(t, 7, cfg.FetchRetries)
	assert.Equal(t, "from-flag", cfg.UserAgent)
}

func TestLoadMerged_NormalizesOutOfRange(t *testing.T) {
	t.Setenv("ENDLESS_CONFIG_DIR", t.TempDir())
	t.Setenv("ENDLESS_VISIBILITY_THRESHOLD", "3")
	t.Setenv("ENDLESS_SYNC_INTERVAL_MS", "-1")

	cfg, _, err := config.LoadMerged(config.Options{IgnoreConfig: true})
	require.NoError(t, err)

	assert.Equal(t, 0.5, cfg.VisibilityThreshold)
	assert.Equal(t, 1000, cfg.SyncIntervalMS)
}

func TestProfiles_SwitchAndRemove(t *testing.T) {
	t.Setenv("ENDLESS_CONFIG_DIR", t.TempDir())

	_, err := config.CreateConfig("Default")
	require.NoError(t, err)
	_, err = config.CreateConfig("Work")
	require.NoError(t, err)

	_, err = config.CreateConfig("Work")
	assert.Error(t, err)

	require.NoError(t, config.SwitchConfig("Work"))
	list, err := config.ListConfigs()
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Default", list[0].Label)
	assert.True(t, list[1].Active)

	require.NoError(t, config.RemoveConfig("Work"))
	label, err := config.CurrentLabel()
	require.NoError(t, err)
	assert.Equal(t, "Default", label)

	_, err = os.Stat(filepath.Join(config.ConfigsDir(), "Work.yaml"))
	assert.True(t, os.IsNotExist(err))

	assert.Error(t, config.RemoveConfig("Default"))
	assert.Error(t, config.SwitchConfig("Missing"))
}
