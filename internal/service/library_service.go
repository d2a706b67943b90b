// Package service provides the business logic of the osutune player:
// library scanning, playback control, sequencing, playlists and
// preferences.
package service

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/tejashwikalptaru/osutune/internal/domain"
	"github.com/tejashwikalptaru/osutune/internal/meta"
	"github.com/tejashwikalptaru/osutune/internal/ports"

	"log/slog"
)

// supportedExts are the audio extensions a leaf folder is searched for,
// in no particular order; selection within a folder is lexicographic.
var supportedExts = []string{".mp3", ".ogg", ".wav", ".flac"}

// LibraryService owns the in-memory track index and the streaming
// library scan. One representative audio file is derived per leaf
// folder; metadata comes from the persisted cache when the file's
// mtime+size stamp still matches, and from the extractor otherwise.
// All operations are thread-safe via sync.RWMutex.
type LibraryService struct {
	// Dependencies (injected)
	logger   *slog.Logger
	store    ports.MetadataStore
	provider ports.MetadataProvider
	bus      ports.EventBus

	// Configuration
	root        string
	minDuration time.Duration

	// State
	tracks   []domain.Track
	byPath   map[string]int
	filtered []domain.Track
	filter   string
	cached   map[string]domain.Track // persisted snapshot, keyed by path
	settings domain.Settings

	// Concurrency control
	mu         sync.RWMutex
	cancelScan context.CancelFunc
	scanDone   chan struct{}
}

// NewLibraryService creates a library service rooted at root. The
// persisted cache is loaded immediately so the first scan can reuse
// fresh metadata. Tracks with a known duration below minDuration are
// excluded from the index.
func NewLibraryService(
	logger *slog.Logger,
	store ports.MetadataStore,
	provider ports.MetadataProvider,
	bus ports.EventBus,
	root string,
	minDuration time.Duration,
) *LibraryService {
	snapshot := store.Load()

	s := &LibraryService{
		logger:      logger,
		store:       store,
		provider:    provider,
		bus:         bus,
		root:        root,
		minDuration: minDuration,
		byPath:      make(map[string]int),
		cached:      snapshot.Tracks,
		settings:    snapshot.Settings,
	}

	// Track settings changes so a post-scan cache save never clobbers
	// newer preferences.
	bus.Subscribe(domain.EventSettingsChanged, func(event domain.Event) {
		if e, ok := event.(domain.SettingsChangedEvent); ok {
			s.mu.Lock()
			s.settings = e.Settings
			s.mu.Unlock()
		}
	})

	logger.Debug("library service initialized",
		slog.String("root", root),
		slog.Int("cached_tracks", len(snapshot.Tracks)))

	return s
}

// CachedSettings returns the settings loaded from the persisted cache.
func (s *LibraryService) CachedSettings() domain.Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.settings
}

// Scan walks the library root and streams discoveries as
// TrackDiscovered events. A scan already in flight is cancelled and
// waited out first, so the new pass always starts from a fresh index.
// Returns context.Canceled if this pass is itself superseded.
func (s *LibraryService) Scan(ctx context.Context) error {
	// Supersede any in-flight pass.
	s.mu.Lock()
	if s.cancelScan != nil {
		s.cancelScan()
	}
	prev := s.scanDone
	s.mu.Unlock()
	if prev != nil {
		<-prev
	}

	s.mu.Lock()
	if s.scanDone != nil {
		// Lost the race to a concurrent caller.
		s.mu.Unlock()
		return domain.ErrScanInProgress
	}
	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	s.cancelScan = cancel
	s.scanDone = done

	// Fresh pass: removed folders must drop out of the index.
	s.tracks = nil
	s.byPath = make(map[string]int)
	s.filtered = nil
	root := s.root
	s.mu.Unlock()

	defer func() {
		cancel()
		s.mu.Lock()
		s.cancelScan = nil
		s.scanDone = nil
		s.mu.Unlock()
		close(done)
	}()

	s.bus.Publish(domain.NewScanStartedEvent(root))

	if info, err := os.Stat(root); err != nil || !info.IsDir() {
		s.logger.Warn("scan root missing", slog.String("root", root))
		s.bus.Publish(domain.NewScanCompletedEvent(domain.ScanProgress{}, false, domain.ErrScanRootMissing))
		return domain.ErrScanRootMissing
	}

	progress := &domain.ScanProgress{}
	err := s.walkFolders(ctx, root, progress)
	cancelled := errors.Is(err, context.Canceled)

	s.bus.Publish(domain.NewScanCompletedEvent(*progress, cancelled, nil))
	s.saveCache()

	s.logger.Info("scan finished",
		slog.Int("folders", progress.FoldersVisited),
		slog.Int("tracks", progress.TracksFound),
		slog.Int("excluded", progress.Excluded),
		slog.Bool("cancelled", cancelled))

	return err
}

// Rescan runs Scan on a background goroutine, superseding any pass in
// flight. Used by the directory watcher.
func (s *LibraryService) Rescan() {
	go func() {
		if err := s.Scan(context.Background()); err != nil &&
			!errors.Is(err, context.Canceled) && !errors.Is(err, domain.ErrScanInProgress) {
			s.logger.Warn("rescan failed", slog.Any("error", err))
		}
	}()
}

// CancelScan cancels the scan in progress, if any.
func (s *LibraryService) CancelScan() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancelScan != nil {
		s.cancelScan()
	}
}

// IsScanning returns true while a scan pass is running.
func (s *LibraryService) IsScanning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.scanDone != nil
}

// SetFilter sets the case-insensitive substring filter and recomputes
// the filtered view.
func (s *LibraryService) SetFilter(query string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.filter = strings.TrimSpace(query)
	s.filtered = nil
	for _, t := range s.tracks {
		if t.Matches(s.filter) {
			s.filtered = append(s.filtered, t)
		}
	}
}

// Filter returns the active filter query.
func (s *LibraryService) Filter() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.filter
}

// All returns a copy of the full index in discovery order.
func (s *LibraryService) All() []domain.Track {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tracks := make([]domain.Track, len(s.tracks))
	copy(tracks, s.tracks)
	return tracks
}

// Filtered returns a copy of the filtered view. With no filter active
// this equals All.
func (s *LibraryService) Filtered() []domain.Track {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.filter == "" {
		tracks := make([]domain.Track, len(s.tracks))
		copy(tracks, s.tracks)
		return tracks
	}
	tracks := make([]domain.Track, len(s.filtered))
	copy(tracks, s.filtered)
	return tracks
}

// Len returns the number of indexed tracks.
func (s *LibraryService) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.tracks)
}

// Find returns the indexed track for the given path.
func (s *LibraryService) Find(path string) (domain.Track, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if i, ok := s.byPath[path]; ok {
		return s.tracks[i], true
	}
	return domain.Track{}, false
}

// Shutdown cancels any running scan and waits for it to finish.
func (s *LibraryService) Shutdown() error {
	s.mu.Lock()
	if s.cancelScan != nil {
		s.cancelScan()
	}
	done := s.scanDone
	s.mu.Unlock()

	if done != nil {
		<-done
	}
	return nil
}

// walkFolders descends the tree depth-first in lexicographic order,
// processing every folder that directly contains a supported audio file.
func (s *LibraryService) walkFolders(ctx context.Context, dir string, progress *domain.ScanProgress) error {
	select {
	case <-ctx.Done():
		return context.Canceled
	default:
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		// Unreadable folders are skipped, not fatal.
		s.logger.Debug("folder unreadable", slog.String("dir", dir), slog.Any("error", err))
		return nil
	}

	// os.ReadDir sorts by name, giving the first lexicographic match.
	audio := ""
	var subdirs []string
	for _, entry := range entries {
		if entry.IsDir() {
			subdirs = append(subdirs, entry.Name())
			continue
		}
		if audio == "" && isSupportedExt(entry.Name()) {
			audio = entry.Name()
		}
	}

	if audio != "" {
		progress.FoldersVisited++
		s.processFolder(dir, audio, progress)
	}

	for _, sub := range subdirs {
		if err := s.walkFolders(ctx, filepath.Join(dir, sub), progress); err != nil {
			return err
		}
	}
	return nil
}

// processFolder derives the track for one leaf folder and emits it.
func (s *LibraryService) processFolder(dir, file string, progress *domain.ScanProgress) {
	path := filepath.Join(dir, file)
	info, err := os.Stat(path)
	if err != nil {
		s.logger.Warn("track unreadable", slog.String("path", path), slog.Any("error", err))
		return
	}

	folderTitle := meta.StripLeadingID(filepath.Base(dir))

	s.mu.RLock()
	cachedTrack, inCache := s.cached[path]
	s.mu.RUnlock()

	fresh := inCache &&
		cachedTrack.Meta.ModTime == info.ModTime().Unix() &&
		cachedTrack.Meta.Size == info.Size()

	var m domain.TrackMeta
	if fresh {
		// Stamp match: reuse cached metadata with zero extractor calls.
		m = cachedTrack.Meta
	} else {
		m = s.provider.Extract(path)
		if !m.HasDuration() {
			m.Duration = s.provider.EnsureDuration(path)
		}
		m.ModTime = info.ModTime().Unix()
		m.Size = info.Size()
		if m.Artist == "" {
			if artist := meta.ParseArtistFromFolder(folderTitle); artist != "" {
				m.Artist = artist
			}
		}
	}

	track := domain.Track{Path: path, FolderTitle: folderTitle, Meta: m}

	// Known-short tracks are tallied and kept in the cache (so the next
	// pass still short-circuits) but never reach the index.
	if m.HasDuration() && m.Duration < s.minDuration {
		s.mu.Lock()
		s.cached[path] = track
		s.mu.Unlock()
		progress.Excluded++
		return
	}

	s.mu.Lock()
	if i, seen := s.byPath[path]; seen {
		// Already emitted this pass: merge richer metadata, no re-emit.
		s.tracks[i].Meta = s.tracks[i].Meta.Merge(m)
		s.cached[path] = s.tracks[i]
		s.mu.Unlock()
		return
	}
	s.byPath[path] = len(s.tracks)
	s.tracks = append(s.tracks, track)
	s.cached[path] = track
	matches := track.Matches(s.filter)
	if matches && s.filter != "" {
		s.filtered = append(s.filtered, track)
	}
	s.mu.Unlock()

	progress.TracksFound++
	s.bus.Publish(domain.NewTrackDiscoveredEvent(track, !fresh, matches))
	s.bus.Publish(domain.NewScanProgressEvent(*progress))
}

// saveCache persists the accumulated snapshot best-effort.
func (s *LibraryService) saveCache() {
	s.mu.RLock()
	snapshot := domain.CacheSnapshot{
		Tracks:   make(map[string]domain.Track, len(s.cached)),
		Settings: s.settings,
	}
	for path, track := range s.cached {
		snapshot.Tracks[path] = track
	}
	s.mu.RUnlock()

	if err := s.store.Save(snapshot); err != nil {
		s.logger.Warn("cache save failed", slog.Any("error", err))
	}
}

// isSupportedExt reports whether the filename has a supported audio
// extension.
func isSupportedExt(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, supported := range supportedExts {
		if ext == supported {
			return true
		}
	}
	return false
}

// Verify that LibraryService implements the expected interface patterns
var _ interface {
	Scan(context.Context) error
	CancelScan()
	IsScanning() bool
	SetFilter(string)
	All() []domain.Track
	Filtered() []domain.Track
	Find(string) (domain.Track, bool)
	Shutdown() error
} = (*LibraryService)(nil)
