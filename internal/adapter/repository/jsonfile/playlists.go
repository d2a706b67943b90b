package jsonfile

import (
	"encoding/json"
	"log/slog"
	"os"
	"sort"
	"sync"

	"github.com/tejashwikalptaru/osutune/internal/domain"
	"github.com/tejashwikalptaru/osutune/internal/ports"
)

// PlaylistFileStore persists named playlists as a JSON object keyed by
// playlist name:
//
//	{ "favourites": { "tracks": ["/path/a.mp3", "/path/b.mp3"] } }
//
// Mutations are applied in memory and written through immediately;
// write failures are logged and the in-memory state stays authoritative
// for the session.
type PlaylistFileStore struct {
	path   string
	logger *slog.Logger

	mu        sync.RWMutex
	playlists map[string]*playlistEntry
}

type playlistEntry struct {
	Tracks []string `json:"tracks"`
}

// NewPlaylistFileStore creates a playlist store backed by path, loading
// any existing content. A missing or corrupt file starts empty.
func NewPlaylistFileStore(path string, logger *slog.Logger) *PlaylistFileStore {
	s := &PlaylistFileStore{
		path:      path,
		logger:    logger,
		playlists: make(map[string]*playlistEntry),
	}
	s.load()
	return s
}

func (s *PlaylistFileStore) load() {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			s.logger.Warn("playlist store unreadable, starting empty", slog.String("path", s.path), slog.Any("error", err))
		}
		return
	}
	var parsed map[string]*playlistEntry
	if err := json.Unmarshal(data, &parsed); err != nil {
		s.logger.Warn("playlist store corrupt, starting empty", slog.String("path", s.path), slog.Any("error", err))
		return
	}
	for name, entry := range parsed {
		if entry == nil {
			entry = &playlistEntry{}
		}
		if entry.Tracks == nil {
			entry.Tracks = []string{}
		}
		s.playlists[name] = entry
	}
}

// save writes the current state through to disk. Best-effort: failures
// are logged, not propagated.
func (s *PlaylistFileStore) save() {
	data, err := json.MarshalIndent(s.playlists, "", "  ")
	if err != nil {
		s.logger.Warn("playlist store marshal failed", slog.Any("error", err))
		return
	}
	if err := writeAtomic(s.path, data); err != nil {
		s.logger.Warn("playlist store save failed", slog.String("path", s.path), slog.Any("error", err))
	}
}

// ListNames returns all playlist names in sorted order.
func (s *PlaylistFileStore) ListNames() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.playlists))
	for name := range s.playlists {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Get returns the ordered track paths of the named playlist.
func (s *PlaylistFileStore) Get(name string) ([]string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.playlists[name]
	if !ok {
		return nil, false
	}
	tracks := make([]string, len(entry.Tracks))
	copy(tracks, entry.Tracks)
	return tracks, true
}

// Create adds an empty playlist.
func (s *PlaylistFileStore) Create(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.playlists[name]; exists {
		return domain.ErrPlaylistExists
	}
	s.playlists[name] = &playlistEntry{Tracks: []string{}}
	s.save()
	return nil
}

// Delete removes a playlist. Deleting a missing playlist is a no-op.
func (s *PlaylistFileStore) Delete(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.playlists[name]; !exists {
		return nil
	}
	delete(s.playlists, name)
	s.save()
	return nil
}

// AddTrack appends a track path to the named playlist. Adding a path
// already present is a no-op.
func (s *PlaylistFileStore) AddTrack(name, path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.playlists[name]
	if !ok {
		return domain.ErrPlaylistNotFound
	}
	for _, existing := range entry.Tracks {
		if existing == path {
			return nil
		}
	}
	entry.Tracks = append(entry.Tracks, path)
	s.save()
	return nil
}

// RemoveTrack removes a track path from the named playlist.
func (s *PlaylistFileStore) RemoveTrack(name, path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.playlists[name]
	if !ok {
		return domain.ErrPlaylistNotFound
	}
	for i, existing := range entry.Tracks {
		if existing == path {
			entry.Tracks = append(entry.Tracks[:i], entry.Tracks[i+1:]...)
			s.save()
			return nil
		}
	}
	return nil
}

// Verify that PlaylistFileStore implements the PlaylistStore interface
var _ ports.PlaylistStore = (*PlaylistFileStore)(nil)
