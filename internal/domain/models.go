// Package domain contains core business models and logic with no external dependencies.
// This package defines the fundamental entities of the osutune music library player.
package domain

import (
	"strings"
	"time"
)

// TrackMeta holds the extracted metadata for a single audio file together
// with the cache-validity stamp of the file it was read from.
type TrackMeta struct {
	// Title is the song title (from tags or derived from the filename)
	Title string

	// Artist is the performing artist name
	Artist string

	// Album is the album name
	Album string

	// Duration is the total length of the track (0 if unknown)
	Duration time.Duration

	// ModTime is the source file modification time (unix seconds) at
	// extraction time; together with Size it forms the freshness stamp.
	ModTime int64

	// Size is the source file size in bytes at extraction time.
	Size int64
}

// HasDuration reports whether the duration is known.
func (m TrackMeta) HasDuration() bool {
	return m.Duration > 0
}

// Merge fills empty fields of m from other, preferring values already
// present in m. Used when a path is rediscovered with richer metadata.
func (m TrackMeta) Merge(other TrackMeta) TrackMeta {
	if m.Title == "" {
		m.Title = other.Title
	}
	if m.Artist == "" {
		m.Artist = other.Artist
	}
	if m.Album == "" {
		m.Album = other.Album
	}
	if m.Duration == 0 {
		m.Duration = other.Duration
	}
	if m.ModTime == 0 {
		m.ModTime = other.ModTime
	}
	if m.Size == 0 {
		m.Size = other.Size
	}
	return m
}

// Track represents one discovered audio file. The absolute file path is
// the unique identity; exactly one Track is derived per leaf folder.
type Track struct {
	// Path is the absolute path to the audio file on the filesystem
	Path string

	// FolderTitle is the parent folder name with any leading numeric
	// beatmap id stripped (e.g. "311328 Foo" -> "Foo").
	FolderTitle string

	// Meta holds the extracted or cached metadata for the file.
	Meta TrackMeta
}

// DisplayTitle returns the best available human-readable title:
// the tag title when present, otherwise the derived folder title.
func (t Track) DisplayTitle() string {
	if t.Meta.Title != "" {
		return t.Meta.Title
	}
	return t.FolderTitle
}

// Matches reports whether the track matches a case-insensitive substring
// query against its title, artist and folder title. An empty query
// matches everything.
func (t Track) Matches(query string) bool {
	if query == "" {
		return true
	}
	q := strings.ToLower(query)
	return strings.Contains(strings.ToLower(t.DisplayTitle()), q) ||
		strings.Contains(strings.ToLower(t.Meta.Artist), q) ||
		strings.Contains(strings.ToLower(t.FolderTitle), q)
}

// PlayMode governs how the next track is selected when playback advances.
type PlayMode int

const (
	// PlayModeSequential plays tracks in list order.
	PlayModeSequential PlayMode = iota

	// PlayModeLoop restarts the current track on natural finish.
	PlayModeLoop

	// PlayModeShuffle picks the next track at random.
	PlayModeShuffle
)

// String returns the persisted representation of the play mode.
func (m PlayMode) String() string {
	switch m {
	case PlayModeSequential:
		return "sequential"
	case PlayModeLoop:
		return "loop"
	case PlayModeShuffle:
		return "shuffle"
	default:
		return "sequential"
	}
}

// Next returns the following mode in the cycle sequential -> loop ->
// shuffle -> sequential, used by the mode toggle.
func (m PlayMode) Next() PlayMode {
	switch m {
	case PlayModeSequential:
		return PlayModeLoop
	case PlayModeLoop:
		return PlayModeShuffle
	default:
		return PlayModeSequential
	}
}

// ParsePlayMode parses a persisted play-mode string. Unknown values fall
// back to sequential so a stale cache never prevents startup.
func ParsePlayMode(s string) PlayMode {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "loop":
		return PlayModeLoop
	case "shuffle":
		return PlayModeShuffle
	default:
		return PlayModeSequential
	}
}

// Settings are user preferences persisted alongside the metadata cache.
type Settings struct {
	// DarkMode indicates whether the dark UI theme is active.
	DarkMode bool

	// PlayMode is the persisted play mode.
	PlayMode PlayMode
}

// DefaultSettings returns the settings used on a cold start.
func DefaultSettings() Settings {
	return Settings{DarkMode: true, PlayMode: PlayModeSequential}
}

// PlaybackStatus represents the current playback state.
type PlaybackStatus int

const (
	// StatusIdle indicates no track has been loaded.
	StatusIdle PlaybackStatus = iota

	// StatusPlaying indicates playback is active.
	StatusPlaying

	// StatusPaused indicates playback is paused.
	StatusPaused

	// StatusStopped indicates playback was stopped explicitly.
	StatusStopped

	// StatusFinished indicates the track reached its natural end.
	StatusFinished
)

// String returns a human-readable representation of the playback status.
func (s PlaybackStatus) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusPlaying:
		return "playing"
	case StatusPaused:
		return "paused"
	case StatusStopped:
		return "stopped"
	case StatusFinished:
		return "finished"
	default:
		return "unknown"
	}
}

// CacheSnapshot is the unit of persistence for the metadata store:
// every known track keyed by path plus the user settings.
type CacheSnapshot struct {
	// Tracks maps absolute file path to its discovered Track record.
	Tracks map[string]Track

	// Settings are the persisted user preferences.
	Settings Settings
}

// NewCacheSnapshot returns an empty snapshot with default settings.
func NewCacheSnapshot() CacheSnapshot {
	return CacheSnapshot{
		Tracks:   make(map[string]Track),
		Settings: DefaultSettings(),
	}
}

// ScanProgress carries the running counters of a library scan.
type ScanProgress struct {
	// FoldersVisited is the number of leaf folders inspected so far.
	FoldersVisited int

	// TracksFound is the number of tracks emitted so far.
	TracksFound int

	// Excluded is the number of tracks dropped by the minimum-duration
	// filter.
	Excluded int
}
