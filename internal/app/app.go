// Package app provides application-level orchestration and dependency injection.
// This package wires together all components and manages the application lifecycle.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/adrg/xdg"

	beepengine "github.com/tejashwikalptaru/osutune/internal/adapter/audio/beep"
	"github.com/tejashwikalptaru/osutune/internal/adapter/audio/mock"
	"github.com/tejashwikalptaru/osutune/internal/adapter/eventbus"
	"github.com/tejashwikalptaru/osutune/internal/adapter/repository/jsonfile"
	"github.com/tejashwikalptaru/osutune/internal/adapter/runloop"
	"github.com/tejashwikalptaru/osutune/internal/config"
	"github.com/tejashwikalptaru/osutune/internal/logger"
	"github.com/tejashwikalptaru/osutune/internal/meta"
	"github.com/tejashwikalptaru/osutune/internal/ports"
	"github.com/tejashwikalptaru/osutune/internal/service"
	"github.com/tejashwikalptaru/osutune/internal/watch"
)

// Application is the root structure that holds all dependencies.
// It follows constructor-based dependency injection: everything is
// wired once in New and torn down in reverse order by Shutdown.
type Application struct {
	logger *slog.Logger
	cfg    *config.Config

	// Infrastructure
	eventBus   ports.EventBus
	engine     ports.AudioEngine
	dispatcher ports.Dispatcher

	// Repositories
	cacheStore    ports.MetadataStore
	playlistStore ports.PlaylistStore

	// Services
	libraryService    *service.LibraryService
	playerService     *service.PlayerService
	sequencerService  *service.SequencerService
	playlistService   *service.PlaylistService
	preferenceService *service.PreferenceService

	watcher *watch.Watcher

	shutdownOnce sync.Once
}

// Options control application construction.
type Options struct {
	// Config is the loaded configuration. Nil loads it from disk.
	Config *config.Config

	// UseMockAudio swaps in the mock engine (for tests).
	UseMockAudio bool

	// Logger overrides the configured logger (for tests).
	Logger *slog.Logger
}

// New creates an application with all dependencies wired.
func New(opts Options) (*Application, error) {
	cfg := opts.Config
	if cfg == nil {
		loaded, err := config.Load()
		if err != nil {
			return nil, fmt.Errorf("load configuration: %w", err)
		}
		cfg = loaded
	}

	app := &Application{cfg: cfg}

	if opts.Logger != nil {
		app.logger = opts.Logger
	} else {
		app.logger = logger.NewLogger(logger.Config{
			Level:  parseLevel(cfg.Log.Level),
			Format: cfg.Log.Format,
		})
	}
	app.logger.Info("initializing application",
		slog.String("version", GetVersionInfo().FullString()),
		slog.String("music_dir", cfg.MusicDir))

	// Event bus
	syncBus := eventbus.NewSyncEventBus()
	syncBus.SetLogger(app.logger.With(slog.String("component", "eventbus")))
	app.eventBus = syncBus

	// Audio engine
	if opts.UseMockAudio {
		app.engine = mock.NewEngine()
	} else {
		app.engine = beepengine.NewEngine(app.logger.With(slog.String("engine", "beep")))
	}

	// Presentation context
	app.dispatcher = runloop.New(app.logger.With(slog.String("component", "runloop")))

	// Repositories
	cachePath, err := dataPath(cfg.CacheFile, "cache.json")
	if err != nil {
		return nil, fmt.Errorf("resolve cache path: %w", err)
	}
	playlistPath, err := dataPath(cfg.PlaylistFile, "playlists.json")
	if err != nil {
		return nil, fmt.Errorf("resolve playlist path: %w", err)
	}
	app.cacheStore = jsonfile.NewCacheStore(cachePath, app.logger.With(slog.String("repository", "cache")))
	app.playlistStore = jsonfile.NewPlaylistFileStore(playlistPath, app.logger.With(slog.String("repository", "playlists")))

	// Services
	extractor := meta.NewExtractor(app.logger.With(slog.String("component", "extractor")))

	app.libraryService = service.NewLibraryService(
		app.logger.With(slog.String("service", "library")),
		app.cacheStore,
		extractor,
		app.eventBus,
		cfg.MusicDir,
		time.Duration(cfg.MinDurationSeconds)*time.Second,
	)

	app.playerService = service.NewPlayerService(
		app.logger.With(slog.String("service", "player")),
		app.engine,
		app.eventBus,
		app.libraryService,
	)

	app.sequencerService = service.NewSequencerService(
		app.logger.With(slog.String("service", "sequencer")),
		app.playerService,
		app.dispatcher,
	)
	app.playerService.SetInterrupt(app.sequencerService.Cancel)

	app.playlistService = service.NewPlaylistService(
		app.logger.With(slog.String("service", "playlist")),
		app.playlistStore,
		app.libraryService,
		app.sequencerService,
	)

	app.preferenceService = service.NewPreferenceService(
		app.logger.With(slog.String("service", "preference")),
		app.cacheStore,
		app.eventBus,
		app.libraryService.CachedSettings(),
	)

	app.loadSavedState()

	if cfg.Watch {
		app.watcher = watch.New(
			app.logger.With(slog.String("component", "watcher")),
			cfg.MusicDir,
			app.libraryService.Rescan,
		)
	}

	return app, nil
}

// loadSavedState applies persisted settings and configured defaults to
// the playback controller.
func (a *Application) loadSavedState() {
	a.playerService.SetPlayMode(a.preferenceService.PlayMode())
	a.playerService.SetVolume(a.cfg.Volume)
}

// Run starts the application: audio init, the initial library scan and
// the directory watcher. Blocks until ctx is cancelled.
func (a *Application) Run(ctx context.Context) error {
	if !a.engine.Init() {
		// Scanning and browsing still work without an audio device.
		a.logger.Warn("audio device unavailable, playback disabled")
	}

	a.libraryService.Rescan()

	if a.watcher != nil {
		if err := a.watcher.Start(); err != nil {
			a.logger.Warn("directory watch unavailable, manual rescans only", slog.Any("error", err))
			a.watcher = nil
		}
	}

	a.logger.Info("application started")
	<-ctx.Done()
	return nil
}

// Shutdown gracefully tears everything down in reverse order of
// creation. Safe to call more than once.
func (a *Application) Shutdown() {
	a.shutdownOnce.Do(a.shutdown)
}

func (a *Application) shutdown() {
	a.logger.Info("shutting down application")

	if a.watcher != nil {
		if err := a.watcher.Close(); err != nil {
			a.logger.Warn("failed to close watcher", slog.Any("error", err))
		}
	}

	if err := a.sequencerService.Shutdown(); err != nil {
		a.logger.Warn("failed to shutdown sequencer", slog.Any("error", err))
	}
	if err := a.playerService.Shutdown(); err != nil {
		a.logger.Warn("failed to shutdown player", slog.Any("error", err))
	}
	if err := a.libraryService.Shutdown(); err != nil {
		a.logger.Warn("failed to shutdown library", slog.Any("error", err))
	}

	if err := a.dispatcher.Close(); err != nil {
		a.logger.Warn("failed to close dispatcher", slog.Any("error", err))
	}
	if err := a.engine.Shutdown(); err != nil {
		a.logger.Warn("failed to shutdown audio engine", slog.Any("error", err))
	}
	if err := a.eventBus.Close(); err != nil {
		a.logger.Warn("failed to close event bus", slog.Any("error", err))
	}

	a.logger.Info("application shutdown complete")
}

// Library returns the library service.
func (a *Application) Library() *service.LibraryService { return a.libraryService }

// Player returns the playback controller.
func (a *Application) Player() *service.PlayerService { return a.playerService }

// Sequencer returns the sequencer service.
func (a *Application) Sequencer() *service.SequencerService { return a.sequencerService }

// Playlists returns the playlist service.
func (a *Application) Playlists() *service.PlaylistService { return a.playlistService }

// Preferences returns the preference service.
func (a *Application) Preferences() *service.PreferenceService { return a.preferenceService }

// EventBus returns the application event bus.
func (a *Application) EventBus() ports.EventBus { return a.eventBus }

// dataPath returns override when set, otherwise the XDG data location
// for the named file.
func dataPath(override, name string) (string, error) {
	if override != "" {
		return override, nil
	}
	return xdg.DataFile("osutune/" + name)
}

// parseLevel maps a config level string onto slog levels.
func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
