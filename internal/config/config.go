// Package config loads application configuration from TOML files.
package config

import (
	"os"
	"path/filepath"

	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Config holds the user-tunable application settings.
type Config struct {
	// MusicDir is the root of the song library (osu! Songs folder layout:
	// one audio file per beatmap folder). Empty means the default location.
	MusicDir string `koanf:"music_dir"`

	// MinDurationSeconds excludes tracks shorter than this from scans
	// (hit sounds and previews rather than full songs).
	MinDurationSeconds int `koanf:"min_duration_seconds"`

	// Volume is the startup playback volume (0.0 to 1.0).
	Volume float64 `koanf:"volume"`

	// CacheFile overrides the metadata cache location. Empty means the
	// XDG data directory default.
	CacheFile string `koanf:"cache_file"`

	// PlaylistFile overrides the playlist store location. Empty means the
	// XDG data directory default.
	PlaylistFile string `koanf:"playlist_file"`

	// Watch enables the filesystem watcher that rescans on library changes.
	Watch bool `koanf:"watch"`

	// Log holds logging settings.
	Log LogConfig `koanf:"log"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `koanf:"level"`  // "debug", "info", "warn", "error"
	Format string `koanf:"format"` // "text" or "json"
}

// Load reads configuration files in priority order (last wins) and
// applies defaults for anything unset.
func Load() (*Config, error) {
	k := koanf.New(".")

	for _, path := range configPaths() {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
				return nil, err
			}
		}
	}

	cfg := defaults()
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, err
	}

	if cfg.MusicDir == "" {
		cfg.MusicDir = defaultMusicDir()
	}
	cfg.MusicDir = expandPath(cfg.MusicDir)
	cfg.CacheFile = expandPath(cfg.CacheFile)
	cfg.PlaylistFile = expandPath(cfg.PlaylistFile)

	if cfg.MinDurationSeconds < 0 {
		cfg.MinDurationSeconds = 0
	}
	if cfg.Volume < 0 || cfg.Volume > 1 {
		cfg.Volume = 0.7
	}

	return cfg, nil
}

func defaults() *Config {
	return &Config{
		MinDurationSeconds: 20,
		Volume:             0.7,
		Watch:              true,
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

func configPaths() []string {
	paths := []string{}

	// 1. ~/.config/osutune/config.toml
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "osutune", "config.toml"))
	}

	// 2. ./config.toml (pwd, highest priority)
	paths = append(paths, "config.toml")

	return paths
}

// defaultMusicDir is the stock osu! Songs location under the home directory.
func defaultMusicDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, "osu!", "Songs")
}

func expandPath(path string) string {
	if path != "" && path[0] == '~' {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[1:])
		}
	}
	return path
}
