package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chdir changes to dir for the duration of the test, restoring the
// previous working directory on cleanup. Equivalent to t.Chdir, which
// requires a newer Go testing package than the local toolchain provides.
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() {
		if err := os.Chdir(prev); err != nil {
			t.Errorf("restoring working directory: %v", err)
		}
	})
}

func TestLoadDefaults(t *testing.T) {
	chdir(t, t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 20, cfg.MinDurationSeconds)
	assert.InDelta(t, 0.7, cfg.Volume, 0.001)
	assert.True(t, cfg.Watch)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format)
	assert.NotEmpty(t, cfg.MusicDir)
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	content := `
music_dir = "/srv/songs"
min_duration_seconds = 5
volume = 0.4
watch = false

[log]
level = "debug"
format = "json"
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte(content), 0o644))
	chdir(t, dir)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "/srv/songs", cfg.MusicDir)
	assert.Equal(t, 5, cfg.MinDurationSeconds)
	assert.InDelta(t, 0.4, cfg.Volume, 0.001)
	assert.False(t, cfg.Watch)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoadSanitizesBadValues(t *testing.T) {
	dir := t.TempDir()
	content := `
min_duration_seconds = -3
volume = 4.2
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte(content), 0o644))
	chdir(t, dir)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Zero(t, cfg.MinDurationSeconds)
	assert.InDelta(t, 0.7, cfg.Volume, 0.001)
}
