// Package ports define repository interfaces for data persistence abstraction.
// These interfaces enable the repository pattern and allow swapping persistence mechanisms.
package ports

import (
	"time"

	"github.com/tejashwikalptaru/osutune/internal/domain"
)

// MetadataStore persists the per-track metadata cache together with the
// user settings. The cache is best-effort and never authoritative: it
// fails soft in both directions.
//
// Thread-safety: Implementations must be thread-safe.
type MetadataStore interface {
	// Load reads the persisted snapshot.
	// Any read or parse error yields an empty snapshot with default
	// settings rather than propagating; a missing or corrupt cache is a
	// cold start, not a failure.
	Load() domain.CacheSnapshot

	// Save persists the full snapshot, replacing the previous one.
	// The caller treats the returned error as advisory: a failed write is
	// logged and retried at the next natural save point, never fatal.
	Save(snapshot domain.CacheSnapshot) error

	// SaveSettings rewrites only the settings portion, keeping the last
	// persisted track set intact. Same advisory error semantics as Save.
	SaveSettings(settings domain.Settings) error
}

// PlaylistStore handles the persistence of named playlists: ordered
// lists of track paths keyed by a user-chosen name.
//
// Thread-safety: Implementations must be thread-safe.
type PlaylistStore interface {
	// ListNames returns all playlist names in sorted order.
	ListNames() []string

	// Get returns the ordered track paths of the named playlist.
	// The second return value is false if the playlist does not exist.
	Get(name string) ([]string, bool)

	// Create adds an empty playlist.
	// Returns domain.ErrPlaylistExists if the name is taken.
	Create(name string) error

	// Delete removes a playlist. Deleting a missing playlist is a no-op.
	Delete(name string) error

	// AddTrack appends a track path to the named playlist.
	// Adding a path already present is a no-op (idempotent).
	// Returns domain.ErrPlaylistNotFound if the playlist does not exist.
	AddTrack(name, path string) error

	// RemoveTrack removes a track path from the named playlist.
	// Returns domain.ErrPlaylistNotFound if the playlist does not exist.
	RemoveTrack(name, path string) error
}

// MetadataProvider extracts tag metadata from audio files.
// Implementations never propagate extraction failures: a corrupt file
// degrades to a filename-derived title and unknown duration.
type MetadataProvider interface {
	// Extract reads tags from the file at path, falling back through
	// progressively cruder strategies until a title is obtained.
	Extract(path string) domain.TrackMeta

	// EnsureDuration computes the stream duration for the file at path.
	// This is the expensive lazy path used when tags carry no duration;
	// callers cache the result. Returns 0 if the stream cannot be decoded.
	EnsureDuration(path string) time.Duration
}
