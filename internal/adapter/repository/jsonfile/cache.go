// Package jsonfile provides JSON-file backed implementations of the
// persistence ports: the metadata cache and the named playlist store.
package jsonfile

import (
	"encoding/json"
	"log/slog"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/tejashwikalptaru/osutune/internal/domain"
	"github.com/tejashwikalptaru/osutune/internal/ports"
)

// CacheStore persists the metadata cache snapshot to a single JSON file.
//
// The cache is best-effort in both directions: a missing or corrupt file
// loads as an empty snapshot (cold start) and a failed write is logged
// and retried at the next natural save point.
type CacheStore struct {
	path   string
	logger *slog.Logger

	// mu serializes file access and guards lastItems
	mu sync.Mutex

	// lastItems mirrors the items portion of the last load/save so
	// SaveSettings can rewrite settings without dropping tracks.
	lastItems []cacheItem
}

// cacheFile is the on-disk wrapper format.
type cacheFile struct {
	Items    []cacheItem    `json:"items"`
	Settings *cacheSettings `json:"settings,omitempty"`
}

type cacheItem struct {
	Path        string    `json:"path"`
	FolderTitle string    `json:"folder_title"`
	Meta        cacheMeta `json:"meta"`
}

type cacheMeta struct {
	Title    string  `json:"title,omitempty"`
	Artist   string  `json:"artist,omitempty"`
	Album    string  `json:"album,omitempty"`
	Duration float64 `json:"duration,omitempty"`
	MTime    int64   `json:"mtime,omitempty"`
	Size     int64   `json:"size,omitempty"`
}

type cacheSettings struct {
	DarkMode bool   `json:"dark_mode"`
	PlayMode string `json:"play_mode"`
}

// NewCacheStore creates a cache store writing to path.
func NewCacheStore(path string, logger *slog.Logger) *CacheStore {
	return &CacheStore{
		path:   path,
		logger: logger,
	}
}

// Load reads the persisted snapshot. Any read or parse error yields an
// empty snapshot with default settings.
func (s *CacheStore) Load() domain.CacheSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := domain.NewCacheSnapshot()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			s.logger.Warn("cache unreadable, starting cold", slog.String("path", s.path), slog.Any("error", err))
		}
		return snapshot
	}

	var f cacheFile
	if err := json.Unmarshal(data, &f); err != nil {
		// Legacy format: a bare array of items with no wrapper.
		var items []cacheItem
		if err2 := json.Unmarshal(data, &items); err2 != nil {
			s.logger.Warn("cache corrupt, starting cold", slog.String("path", s.path), slog.Any("error", err))
			return snapshot
		}
		f.Items = items
	}

	for _, item := range f.Items {
		if item.Path == "" {
			continue
		}
		snapshot.Tracks[item.Path] = domain.Track{
			Path:        item.Path,
			FolderTitle: item.FolderTitle,
			Meta: domain.TrackMeta{
				Title:    item.Meta.Title,
				Artist:   item.Meta.Artist,
				Album:    item.Meta.Album,
				Duration: time.Duration(item.Meta.Duration * float64(time.Second)),
				ModTime:  item.Meta.MTime,
				Size:     item.Meta.Size,
			},
		}
	}
	if f.Settings != nil {
		snapshot.Settings = domain.Settings{
			DarkMode: f.Settings.DarkMode,
			PlayMode: domain.ParsePlayMode(f.Settings.PlayMode),
		}
	}

	s.lastItems = itemsFromSnapshot(snapshot)
	return snapshot
}

// Save persists the full snapshot, replacing the previous one.
func (s *CacheStore) Save(snapshot domain.CacheSnapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	items := itemsFromSnapshot(snapshot)
	if err := s.write(items, snapshot.Settings); err != nil {
		s.logger.Warn("cache save failed", slog.String("path", s.path), slog.Any("error", err))
		return domain.NewRepositoryError("save", "cache", "write failed", err)
	}
	s.lastItems = items
	return nil
}

// SaveSettings rewrites only the settings portion, keeping the last
// persisted track set intact.
func (s *CacheStore) SaveSettings(settings domain.Settings) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.write(s.lastItems, settings); err != nil {
		s.logger.Warn("settings save failed", slog.String("path", s.path), slog.Any("error", err))
		return domain.NewRepositoryError("save", "settings", "write failed", err)
	}
	return nil
}

// write marshals and writes the cache file. Items are sorted by path so
// repeated saves of the same snapshot are byte-identical.
func (s *CacheStore) write(items []cacheItem, settings domain.Settings) error {
	f := cacheFile{
		Items: items,
		Settings: &cacheSettings{
			DarkMode: settings.DarkMode,
			PlayMode: settings.PlayMode.String(),
		},
	}
	if f.Items == nil {
		f.Items = []cacheItem{}
	}

	data, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return err
	}
	return writeAtomic(s.path, data)
}

func itemsFromSnapshot(snapshot domain.CacheSnapshot) []cacheItem {
	items := make([]cacheItem, 0, len(snapshot.Tracks))
	for _, track := range snapshot.Tracks {
		items = append(items, cacheItem{
			Path:        track.Path,
			FolderTitle: track.FolderTitle,
			Meta: cacheMeta{
				Title:    track.Meta.Title,
				Artist:   track.Meta.Artist,
				Album:    track.Meta.Album,
				Duration: track.Meta.Duration.Seconds(),
				MTime:    track.Meta.ModTime,
				Size:     track.Meta.Size,
			},
		})
	}
	sort.Slice(items, func(i, j int) bool { return items[i].Path < items[j].Path })
	return items
}

// Verify that CacheStore implements the MetadataStore interface
var _ ports.MetadataStore = (*CacheStore)(nil)
