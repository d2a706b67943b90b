package service

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tejashwikalptaru/osutune/internal/adapter/eventbus"
	"github.com/tejashwikalptaru/osutune/internal/adapter/repository/jsonfile"
	"github.com/tejashwikalptaru/osutune/internal/domain"
	"github.com/tejashwikalptaru/osutune/internal/logger"
)

// stubProvider is a MetadataProvider that counts extractions and serves
// canned metadata, so tests can prove the cache short-circuit.
type stubProvider struct {
	mu       sync.Mutex
	extracts int
	metas    map[string]domain.TrackMeta
}

func newStubProvider() *stubProvider {
	return &stubProvider{metas: make(map[string]domain.TrackMeta)}
}

func (p *stubProvider) set(path string, title string, duration time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.metas[path] = domain.TrackMeta{Title: title, Duration: duration}
}

func (p *stubProvider) Extract(path string) domain.TrackMeta {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.extracts++
	if m, ok := p.metas[path]; ok {
		return m
	}
	return domain.TrackMeta{Title: filepath.Base(path)}
}

func (p *stubProvider) EnsureDuration(path string) time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()

	if m, ok := p.metas[path]; ok {
		return m.Duration
	}
	return 0
}

func (p *stubProvider) extractCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.extracts
}

// writeSongFolder creates root/<folder>/<file> with dummy content and
// returns the file path.
func writeSongFolder(t *testing.T, root, folder, file string) string {
	t.Helper()

	dir := filepath.Join(root, folder)
	require.NoError(t, os.MkdirAll(dir, 0o755))
	path := filepath.Join(dir, file)
	require.NoError(t, os.WriteFile(path, []byte("audio"), 0o644))
	return path
}

func newTestLibrary(t *testing.T, root string, minDuration time.Duration, provider *stubProvider) *LibraryService {
	t.Helper()

	store := jsonfile.NewCacheStore(filepath.Join(t.TempDir(), "cache.json"), logger.NewTestLogger())
	return NewLibraryService(logger.NewTestLogger(), store, provider, eventbus.NewSyncEventBus(), root, minDuration)
}

func TestLibraryService_ScanThreeFolders(t *testing.T) {
	root := t.TempDir()
	provider := newStubProvider()
	a := writeSongFolder(t, root, "1 Song A", "audio.mp3")
	b := writeSongFolder(t, root, "2 Song B", "audio.mp3")
	c := writeSongFolder(t, root, "3 Song C", "audio.mp3")
	provider.set(a, "Alpha", 10*time.Second)
	provider.set(b, "Beta", 10*time.Second)
	provider.set(c, "Gamma", 10*time.Second)

	lib := newTestLibrary(t, root, 5*time.Second, provider)
	require.NoError(t, lib.Scan(context.Background()))

	tracks := lib.All()
	require.Len(t, tracks, 3)
	assert.Equal(t, "Alpha", tracks[0].Meta.Title)
	assert.Equal(t, "Song A", tracks[0].FolderTitle)
	assert.Equal(t, "Song B", tracks[1].FolderTitle)
	assert.Equal(t, "Song C", tracks[2].FolderTitle)
}

func TestLibraryService_MinDurationExcludesAll(t *testing.T) {
	root := t.TempDir()
	provider := newStubProvider()
	for i, folder := range []string{"1 Song A", "2 Song B", "3 Song C"} {
		path := writeSongFolder(t, root, folder, "audio.mp3")
		provider.set(path, string(rune('A'+i)), 10*time.Second)
	}

	lib := newTestLibrary(t, root, 15*time.Second, provider)

	var completed domain.ScanCompletedEvent
	lib.bus.Subscribe(domain.EventScanCompleted, func(e domain.Event) {
		completed = e.(domain.ScanCompletedEvent)
	})

	require.NoError(t, lib.Scan(context.Background()))

	assert.Zero(t, lib.Len())
	assert.Equal(t, 3, completed.Progress.Excluded)
	assert.Equal(t, 0, completed.Progress.TracksFound)
}

func TestLibraryService_FreshnessShortCircuit(t *testing.T) {
	root := t.TempDir()
	cachePath := filepath.Join(t.TempDir(), "cache.json")
	path := writeSongFolder(t, root, "42 Fresh", "audio.mp3")

	provider := newStubProvider()
	provider.set(path, "Fresh Song", 30*time.Second)

	store := jsonfile.NewCacheStore(cachePath, logger.NewTestLogger())
	lib := NewLibraryService(logger.NewTestLogger(), store, provider, eventbus.NewSyncEventBus(), root, 0)
	require.NoError(t, lib.Scan(context.Background()))
	require.Equal(t, 1, provider.extractCount())

	// A fresh service against the same cache must not extract at all.
	rescanProvider := newStubProvider()
	store2 := jsonfile.NewCacheStore(cachePath, logger.NewTestLogger())
	lib2 := NewLibraryService(logger.NewTestLogger(), store2, rescanProvider, eventbus.NewSyncEventBus(), root, 0)
	require.NoError(t, lib2.Scan(context.Background()))

	assert.Zero(t, rescanProvider.extractCount())
	tracks := lib2.All()
	require.Len(t, tracks, 1)
	assert.Equal(t, "Fresh Song", tracks[0].Meta.Title)
}

func TestLibraryService_StaleStampReExtracts(t *testing.T) {
	root := t.TempDir()
	cachePath := filepath.Join(t.TempDir(), "cache.json")
	path := writeSongFolder(t, root, "7 Stale", "audio.mp3")

	provider := newStubProvider()
	provider.set(path, "Before", 30*time.Second)

	store := jsonfile.NewCacheStore(cachePath, logger.NewTestLogger())
	lib := NewLibraryService(logger.NewTestLogger(), store, provider, eventbus.NewSyncEventBus(), root, 0)
	require.NoError(t, lib.Scan(context.Background()))

	// Change the file size: the stamp no longer matches.
	require.NoError(t, os.WriteFile(path, []byte("longer audio bytes"), 0o644))
	provider.set(path, "After", 30*time.Second)

	store2 := jsonfile.NewCacheStore(cachePath, logger.NewTestLogger())
	lib2 := NewLibraryService(logger.NewTestLogger(), store2, provider, eventbus.NewSyncEventBus(), root, 0)
	require.NoError(t, lib2.Scan(context.Background()))

	tracks := lib2.All()
	require.Len(t, tracks, 1)
	assert.Equal(t, "After", tracks[0].Meta.Title)
}

func TestLibraryService_FirstLexicographicFileWins(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "9 Multi")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.ogg"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.wav"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "0.txt"), []byte("x"), 0o644))

	lib := newTestLibrary(t, root, 0, newStubProvider())
	require.NoError(t, lib.Scan(context.Background()))

	tracks := lib.All()
	require.Len(t, tracks, 1)
	assert.Equal(t, filepath.Join(dir, "a.wav"), tracks[0].Path)
}

func TestLibraryService_NestedFolders(t *testing.T) {
	root := t.TempDir()
	provider := newStubProvider()
	writeSongFolder(t, root, filepath.Join("packs", "1 Inner A"), "audio.mp3")
	writeSongFolder(t, root, filepath.Join("packs", "2 Inner B"), "audio.mp3")

	lib := newTestLibrary(t, root, 0, provider)
	require.NoError(t, lib.Scan(context.Background()))

	tracks := lib.All()
	require.Len(t, tracks, 2)
	assert.Equal(t, "Inner A", tracks[0].FolderTitle)
	assert.Equal(t, "Inner B", tracks[1].FolderTitle)
}

func TestLibraryService_MissingRoot(t *testing.T) {
	lib := newTestLibrary(t, filepath.Join(t.TempDir(), "nope"), 0, newStubProvider())

	var completed domain.ScanCompletedEvent
	lib.bus.Subscribe(domain.EventScanCompleted, func(e domain.Event) {
		completed = e.(domain.ScanCompletedEvent)
	})

	err := lib.Scan(context.Background())
	assert.ErrorIs(t, err, domain.ErrScanRootMissing)
	assert.ErrorIs(t, completed.Err, domain.ErrScanRootMissing)
}

func TestLibraryService_CancelledContext(t *testing.T) {
	root := t.TempDir()
	writeSongFolder(t, root, "1 Song A", "audio.mp3")

	lib := newTestLibrary(t, root, 0, newStubProvider())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var completed domain.ScanCompletedEvent
	lib.bus.Subscribe(domain.EventScanCompleted, func(e domain.Event) {
		completed = e.(domain.ScanCompletedEvent)
	})

	err := lib.Scan(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.True(t, completed.Cancelled)
	assert.False(t, lib.IsScanning())
}

func TestLibraryService_DiscoveryEventsStream(t *testing.T) {
	root := t.TempDir()
	provider := newStubProvider()
	a := writeSongFolder(t, root, "1 Aria", "audio.mp3")
	b := writeSongFolder(t, root, "2 Bolero", "audio.mp3")
	provider.set(a, "Aria", 10*time.Second)
	provider.set(b, "Bolero", 10*time.Second)

	lib := newTestLibrary(t, root, 0, provider)

	var mu sync.Mutex
	var discovered []domain.TrackDiscoveredEvent
	lib.bus.Subscribe(domain.EventTrackDiscovered, func(e domain.Event) {
		mu.Lock()
		defer mu.Unlock()
		discovered = append(discovered, e.(domain.TrackDiscoveredEvent))
	})

	require.NoError(t, lib.Scan(context.Background()))

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, discovered, 2)
	assert.Equal(t, "Aria", discovered[0].Track.Meta.Title)
	assert.True(t, discovered[0].IsNew)
	assert.True(t, discovered[0].MatchesFilter)
}

func TestLibraryService_SetFilter(t *testing.T) {
	root := t.TempDir()
	provider := newStubProvider()
	a := writeSongFolder(t, root, "1 Morning", "audio.mp3")
	n := writeSongFolder(t, root, "2 Night", "audio.mp3")
	provider.set(a, "Morning Song", 10*time.Second)
	provider.set(n, "Night Song", 10*time.Second)

	lib := newTestLibrary(t, root, 0, provider)
	require.NoError(t, lib.Scan(context.Background()))

	lib.SetFilter("night")
	filtered := lib.Filtered()
	require.Len(t, filtered, 1)
	assert.Equal(t, "Night Song", filtered[0].Meta.Title)

	// clearing the filter restores the full view
	lib.SetFilter("")
	assert.Len(t, lib.Filtered(), 2)
}

func TestLibraryService_ArtistFromFolderConvention(t *testing.T) {
	root := t.TempDir()
	path := writeSongFolder(t, root, "101 Some Artist - Some Title", "audio.mp3")

	provider := newStubProvider()
	provider.set(path, "Some Title", 10*time.Second)

	lib := newTestLibrary(t, root, 0, provider)
	require.NoError(t, lib.Scan(context.Background()))

	tracks := lib.All()
	require.Len(t, tracks, 1)
	assert.Equal(t, "Some Artist", tracks[0].Meta.Artist)
}

func TestLibraryService_ExcludedTracksStayCached(t *testing.T) {
	root := t.TempDir()
	cachePath := filepath.Join(t.TempDir(), "cache.json")
	path := writeSongFolder(t, root, "5 Jingle", "audio.mp3")

	provider := newStubProvider()
	provider.set(path, "Jingle", 8*time.Second)

	store := jsonfile.NewCacheStore(cachePath, logger.NewTestLogger())
	lib := NewLibraryService(logger.NewTestLogger(), store, provider, eventbus.NewSyncEventBus(), root, 20*time.Second)
	require.NoError(t, lib.Scan(context.Background()))
	require.Zero(t, lib.Len())

	// The excluded track keeps its stamp in the cache so the next pass
	// still short-circuits extraction.
	snapshot := jsonfile.NewCacheStore(cachePath, logger.NewTestLogger()).Load()
	_, ok := snapshot.Tracks[path]
	assert.True(t, ok)
}

func TestLibraryService_RescanDropsRemovedFolders(t *testing.T) {
	root := t.TempDir()
	provider := newStubProvider()
	a := writeSongFolder(t, root, "1 Keep", "audio.mp3")
	provider.set(a, "Keep", 10*time.Second)
	b := writeSongFolder(t, root, "2 Drop", "audio.mp3")
	provider.set(b, "Drop", 10*time.Second)

	lib := newTestLibrary(t, root, 0, provider)
	require.NoError(t, lib.Scan(context.Background()))
	require.Equal(t, 2, lib.Len())

	require.NoError(t, os.RemoveAll(filepath.Join(root, "2 Drop")))
	require.NoError(t, lib.Scan(context.Background()))

	tracks := lib.All()
	require.Len(t, tracks, 1)
	assert.Equal(t, "Keep", tracks[0].Meta.Title)
}
