package service

import (
	"log/slog"
	"sync"

	"github.com/tejashwikalptaru/osutune/internal/domain"
	"github.com/tejashwikalptaru/osutune/internal/ports"
)

// PreferenceService owns the persisted user settings (dark mode and
// play mode). Every change is published on the bus and written through
// to the metadata store; a failed write is logged and retried at the
// next change, never fatal.
// All operations are thread-safe via sync.RWMutex.
type PreferenceService struct {
	// Dependencies (injected)
	logger *slog.Logger
	store  ports.MetadataStore
	bus    ports.EventBus

	// State
	settings domain.Settings

	// Concurrency control
	mu sync.RWMutex
}

// NewPreferenceService creates a preference service seeded with the
// settings loaded from the persisted cache.
func NewPreferenceService(
	logger *slog.Logger,
	store ports.MetadataStore,
	bus ports.EventBus,
	initial domain.Settings,
) *PreferenceService {
	logger.Debug("preference service initialized",
		slog.Bool("dark_mode", initial.DarkMode),
		slog.String("play_mode", initial.PlayMode.String()))

	return &PreferenceService{
		logger:   logger,
		store:    store,
		bus:      bus,
		settings: initial,
	}
}

// Settings returns the current settings.
func (s *PreferenceService) Settings() domain.Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.settings
}

// DarkMode returns whether the dark theme is active.
func (s *PreferenceService) DarkMode() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.settings.DarkMode
}

// PlayMode returns the active play mode.
func (s *PreferenceService) PlayMode() domain.PlayMode {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.settings.PlayMode
}

// ToggleDarkMode flips the theme preference and returns the new value.
func (s *PreferenceService) ToggleDarkMode() bool {
	s.mu.Lock()
	s.settings.DarkMode = !s.settings.DarkMode
	settings := s.settings
	s.mu.Unlock()

	s.persist(settings)
	s.bus.Publish(domain.NewSettingsChangedEvent(settings))
	return settings.DarkMode
}

// SetPlayMode sets the play mode. Setting the current mode is a no-op.
func (s *PreferenceService) SetPlayMode(mode domain.PlayMode) {
	s.mu.Lock()
	if s.settings.PlayMode == mode {
		s.mu.Unlock()
		return
	}
	s.settings.PlayMode = mode
	settings := s.settings
	s.mu.Unlock()

	s.persist(settings)
	s.bus.Publish(domain.NewPlayModeChangedEvent(mode))
	s.bus.Publish(domain.NewSettingsChangedEvent(settings))
}

// CyclePlayMode advances to the next mode in the sequential, loop,
// shuffle cycle and returns it.
func (s *PreferenceService) CyclePlayMode() domain.PlayMode {
	s.mu.RLock()
	next := s.settings.PlayMode.Next()
	s.mu.RUnlock()

	s.SetPlayMode(next)
	return next
}

// persist writes the settings through to the store, best-effort.
func (s *PreferenceService) persist(settings domain.Settings) {
	if err := s.store.SaveSettings(settings); err != nil {
		s.logger.Warn("settings save failed", slog.Any("error", err))
	}
}

// Verify that PreferenceService implements the expected interface patterns
var _ interface {
	Settings() domain.Settings
	DarkMode() bool
	PlayMode() domain.PlayMode
	ToggleDarkMode() bool
	SetPlayMode(domain.PlayMode)
	CyclePlayMode() domain.PlayMode
} = (*PreferenceService)(nil)
