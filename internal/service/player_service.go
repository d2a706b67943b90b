package service

import (
	"log/slog"
	"math/rand"
	"path/filepath"
	"sync"
	"time"

	"github.com/tejashwikalptaru/osutune/internal/domain"
	"github.com/tejashwikalptaru/osutune/internal/meta"
	"github.com/tejashwikalptaru/osutune/internal/ports"
)

// TrackSource supplies the track views auto-advance selects from.
// LibraryService implements it.
type TrackSource interface {
	// All returns every indexed track in discovery order.
	All() []domain.Track

	// Filtered returns the currently filtered view.
	Filtered() []domain.Track
}

// PlayerService is the playback controller. It keeps its own wall-clock
// timing model on top of the engine: elapsed time is derived from an
// anchor timestamp, not from the backend's position estimate, so it
// stays correct across pause/resume and backends with unreliable
// position reporting.
//
// All operations are thread-safe via sync.Mutex.
type PlayerService struct {
	// Dependencies (injected)
	logger *slog.Logger
	engine ports.AudioEngine
	bus    ports.EventBus
	source TrackSource

	// now and pollInterval are swappable for tests
	now          func() time.Time
	pollInterval time.Duration

	// interrupt is invoked on user-initiated PlayTrack to supersede a
	// sequencer run; wired by the app to Sequencer.Cancel.
	interrupt func()

	// State
	status          domain.PlaybackStatus
	current         *domain.Track
	duration        time.Duration
	anchor          time.Time // zero when nothing is loaded
	pausedAt        time.Time // zero while not paused
	volume          float64
	mode            domain.PlayMode
	sequencerActive bool
	finishHandled   bool

	// Concurrency control
	mu         sync.Mutex
	pollCancel chan struct{}
	pollWG     sync.WaitGroup
	rng        *rand.Rand
}

// NewPlayerService creates a playback controller.
func NewPlayerService(
	logger *slog.Logger,
	engine ports.AudioEngine,
	bus ports.EventBus,
	source TrackSource,
) *PlayerService {
	s := &PlayerService{
		logger:       logger,
		engine:       engine,
		bus:          bus,
		source:       source,
		now:          time.Now,
		pollInterval: 500 * time.Millisecond,
		status:       domain.StatusIdle,
		volume:       0.7,
		rng:          rand.New(rand.NewSource(time.Now().UnixNano())),
	}

	// Follow mode changes published by the preference service.
	bus.Subscribe(domain.EventPlayModeChanged, func(event domain.Event) {
		if e, ok := event.(domain.PlayModeChangedEvent); ok {
			s.SetPlayMode(e.Mode)
		}
	})

	logger.Debug("player service initialized")

	return s
}

// SetInterrupt installs the hook invoked when a user-initiated play
// supersedes a sequencer run.
func (s *PlayerService) SetInterrupt(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.interrupt = fn
}

// SetPlayMode sets the mode consulted on natural track finish.
func (s *PlayerService) SetPlayMode(mode domain.PlayMode) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mode = mode
}

// PlayMode returns the active play mode.
func (s *PlayerService) PlayMode() domain.PlayMode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mode
}

// PlayTrack starts playback of a user-selected track, superseding any
// sequencer run.
func (s *PlayerService) PlayTrack(track domain.Track) error {
	s.mu.Lock()
	interrupt := s.interrupt
	s.sequencerActive = false
	s.mu.Unlock()

	if interrupt != nil {
		interrupt()
	}
	return s.start(track, false)
}

// StartSequenced begins playback on behalf of the sequencer: natural
// finishes are reported but advancement is left to the run.
func (s *PlayerService) StartSequenced(track domain.Track) error {
	return s.start(track, true)
}

// SetSequencerActive marks whether a sequencer run currently owns
// track advancement.
func (s *PlayerService) SetSequencerActive(active bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sequencerActive = active
}

// start loads and plays a track, replacing the current one.
func (s *PlayerService) start(track domain.Track, fromSequencer bool) error {
	s.mu.Lock()

	if !s.engine.IsInitialized() && !s.engine.Init() {
		s.mu.Unlock()
		return domain.ErrEngineNotInitialized
	}

	if !s.engine.LoadAndPlay(track.Path) {
		s.mu.Unlock()
		s.logger.Warn("track load failed", slog.String("path", track.Path))
		return domain.NewAudioEngineError("load", track.Path, "backend rejected stream", domain.ErrLoadFailed)
	}

	s.engine.SetVolume(s.volume)

	s.current = &track
	s.duration = track.Meta.Duration
	s.anchor = s.now()
	s.pausedAt = time.Time{}
	s.finishHandled = false
	s.status = domain.StatusPlaying
	if fromSequencer {
		s.sequencerActive = true
	}
	duration := s.duration
	s.restartPollerLocked()
	s.mu.Unlock()

	background := meta.LocateBackgroundImage(filepath.Dir(track.Path))

	s.logger.Info("now playing",
		slog.String("path", track.Path),
		slog.String("title", track.DisplayTitle()))

	s.bus.Publish(domain.NewNowPlayingChangedEvent(&track, duration, background))
	s.bus.Publish(domain.NewPlaybackStateEvent(domain.StatusPlaying))

	return nil
}

// Pause suspends playback. Valid only while playing.
func (s *PlayerService) Pause() error {
	s.mu.Lock()
	if s.status != domain.StatusPlaying {
		s.mu.Unlock()
		return domain.ErrInvalidState
	}

	s.engine.Pause()
	s.pausedAt = s.now()
	s.status = domain.StatusPaused
	s.mu.Unlock()

	s.bus.Publish(domain.NewPlaybackStateEvent(domain.StatusPaused))
	return nil
}

// Resume continues a paused track. When the backend cannot unpause it
// falls back to reloading the stream and seeking to the paused
// position, reproducing the exact pre-pause elapsed time. The timing
// anchor advances by the pause duration either way.
func (s *PlayerService) Resume() error {
	s.mu.Lock()
	if s.status != domain.StatusPaused || s.current == nil {
		s.mu.Unlock()
		return domain.ErrInvalidState
	}

	elapsed := s.elapsedLocked()
	if !s.engine.Unpause() {
		// Restart the stream and run the seek fallback chain back to
		// where the pause left off.
		if !s.engine.LoadAndPlay(s.current.Path) {
			path := s.current.Path
			s.mu.Unlock()
			return domain.NewAudioEngineError("resume", path, "backend rejected stream", domain.ErrLoadFailed)
		}
		s.engine.SetVolume(s.volume)
		if !s.seekBackendLocked(s.current.Path, elapsed.Seconds()) {
			path := s.current.Path
			s.mu.Unlock()
			return domain.NewAudioEngineError("resume", path, "no seek path succeeded", domain.ErrSeekFailed)
		}
	}

	s.anchor = s.anchor.Add(s.now().Sub(s.pausedAt))
	s.pausedAt = time.Time{}
	s.status = domain.StatusPlaying
	s.mu.Unlock()

	s.bus.Publish(domain.NewPlaybackStateEvent(domain.StatusPlaying))
	return nil
}

// Seek moves playback to target seconds from the start of the current
// track, clamped to [0, duration]. The backend fallback chain is
// absolute seek, restart-seek, then full reload plus seek.
func (s *PlayerService) Seek(seconds float64) error {
	s.mu.Lock()
	if s.current == nil {
		s.mu.Unlock()
		return domain.ErrNoTrackLoaded
	}

	target := time.Duration(seconds * float64(time.Second))
	if target < 0 {
		target = 0
	}
	if s.duration > 0 && target > s.duration {
		target = s.duration
	}
	secs := target.Seconds()

	if !s.seekBackendLocked(s.current.Path, secs) {
		path := s.current.Path
		s.mu.Unlock()
		return domain.NewAudioEngineError("seek", path, "no seek path succeeded", domain.ErrSeekFailed)
	}

	s.anchor = s.now().Add(-target)
	s.pausedAt = time.Time{}
	s.finishHandled = false
	s.status = domain.StatusPlaying
	duration := s.duration
	s.restartPollerLocked()
	s.mu.Unlock()

	s.bus.Publish(domain.NewPositionChangedEvent(target, duration))
	s.bus.Publish(domain.NewPlaybackStateEvent(domain.StatusPlaying))
	return nil
}

// seekBackendLocked moves the backend to secs through the fallback
// chain: absolute seek, restart-seek, then full reload plus seek.
// Caller must hold the mutex.
func (s *PlayerService) seekBackendLocked(path string, secs float64) bool {
	if s.engine.SeekSetPosition(secs) {
		return true
	}
	if s.engine.SeekFromStart(secs) {
		return true
	}
	if s.engine.LoadAndPlay(path) && s.engine.SeekSetPosition(secs) {
		s.engine.SetVolume(s.volume)
		return true
	}
	return false
}

// Stop halts playback and clears the current track.
func (s *PlayerService) Stop() {
	s.mu.Lock()
	if s.status == domain.StatusIdle {
		s.mu.Unlock()
		return
	}

	s.engine.Stop()
	s.stopPollerLocked()
	s.current = nil
	s.duration = 0
	s.anchor = time.Time{}
	s.pausedAt = time.Time{}
	s.status = domain.StatusStopped
	s.mu.Unlock()

	s.bus.Publish(domain.NewPlaybackStateEvent(domain.StatusStopped))
	s.bus.Publish(domain.NewNowPlayingChangedEvent(nil, 0, ""))
}

// SetVolume sets the playback volume, clamped to [0, 1].
func (s *PlayerService) SetVolume(volume float64) {
	if volume < 0 {
		volume = 0
	}
	if volume > 1 {
		volume = 1
	}

	s.mu.Lock()
	s.volume = volume
	s.engine.SetVolume(volume)
	s.mu.Unlock()

	s.bus.Publish(domain.NewVolumeChangedEvent(volume))
}

// Volume returns the current volume.
func (s *PlayerService) Volume() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.volume
}

// Status returns the current playback status.
func (s *PlayerService) Status() domain.PlaybackStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// Current returns the current track, or nil.
func (s *PlayerService) Current() *domain.Track {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current == nil {
		return nil
	}
	track := *s.current
	return &track
}

// Elapsed returns the elapsed playback time from the wall-clock model.
func (s *PlayerService) Elapsed() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.elapsedLocked()
}

// Duration returns the duration of the current track (0 if unknown).
func (s *PlayerService) Duration() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.duration
}

// elapsedLocked computes elapsed time from the anchor. Caller must hold
// the mutex.
func (s *PlayerService) elapsedLocked() time.Duration {
	if s.anchor.IsZero() {
		return 0
	}

	var elapsed time.Duration
	if !s.pausedAt.IsZero() {
		elapsed = s.pausedAt.Sub(s.anchor)
	} else {
		elapsed = s.now().Sub(s.anchor)
	}

	if elapsed < 0 {
		elapsed = 0
	}
	if s.duration > 0 && elapsed > s.duration {
		elapsed = s.duration
	}
	return elapsed
}

// Shutdown stops the poller and the engine stream.
func (s *PlayerService) Shutdown() error {
	s.mu.Lock()
	s.stopPollerLocked()
	s.mu.Unlock()

	s.pollWG.Wait()

	s.mu.Lock()
	s.engine.Stop()
	s.current = nil
	s.status = domain.StatusIdle
	s.mu.Unlock()

	return nil
}

// restartPollerLocked replaces the position poll goroutine. Caller must
// hold the mutex.
func (s *PlayerService) restartPollerLocked() {
	s.stopPollerLocked()

	cancel := make(chan struct{})
	s.pollCancel = cancel
	s.pollWG.Add(1)

	go func() {
		defer s.pollWG.Done()
		ticker := time.NewTicker(s.pollInterval)
		defer ticker.Stop()

		for {
			select {
			case <-cancel:
				return

			case <-ticker.C:
				if s.pollTick(cancel) {
					return
				}
			}
		}
	}()
}

// stopPollerLocked cancels the poll goroutine. Caller must hold the mutex.
func (s *PlayerService) stopPollerLocked() {
	if s.pollCancel != nil {
		close(s.pollCancel)
		s.pollCancel = nil
	}
}

// pollTick publishes the position and detects natural finish. Returns
// true when the poller should exit.
func (s *PlayerService) pollTick(cancel chan struct{}) bool {
	s.mu.Lock()

	// A replaced poller must not act on the new track's state.
	if s.pollCancel != cancel {
		s.mu.Unlock()
		return true
	}
	if s.current == nil {
		s.mu.Unlock()
		return false
	}

	elapsed := s.elapsedLocked()
	duration := s.duration
	finished := s.status == domain.StatusPlaying && !s.engine.IsBusy() && !s.finishHandled
	if finished {
		s.finishHandled = true
		s.status = domain.StatusFinished
	}
	s.mu.Unlock()

	s.bus.Publish(domain.NewPositionChangedEvent(elapsed, duration))

	if finished {
		s.handleFinish()
		return true
	}
	return false
}

// handleFinish runs the natural-finish policy exactly once per track.
func (s *PlayerService) handleFinish() {
	s.mu.Lock()
	if s.current == nil {
		s.mu.Unlock()
		return
	}
	track := *s.current
	mode := s.mode
	sequenced := s.sequencerActive
	s.mu.Unlock()

	s.logger.Debug("track finished",
		slog.String("path", track.Path),
		slog.String("mode", mode.String()))

	s.bus.Publish(domain.NewTrackFinishedEvent(track))
	s.bus.Publish(domain.NewPlaybackStateEvent(domain.StatusFinished))

	// An active sequencer run owns advancement.
	if sequenced {
		return
	}

	switch mode {
	case domain.PlayModeLoop:
		if err := s.start(track, false); err != nil {
			s.logger.Warn("loop restart failed", slog.Any("error", err))
		}

	case domain.PlayModeShuffle:
		// Shuffle draws from the whole library, not the filtered view.
		all := s.source.All()
		if len(all) == 0 {
			return
		}
		s.mu.Lock()
		next := all[s.rng.Intn(len(all))]
		s.mu.Unlock()
		if err := s.start(next, false); err != nil {
			s.logger.Warn("shuffle advance failed", slog.Any("error", err))
		}

	default:
		// Sequential advances through the filtered view and stops at
		// its end.
		visible := s.source.Filtered()
		for i, t := range visible {
			if t.Path == track.Path {
				if i+1 < len(visible) {
					if err := s.start(visible[i+1], false); err != nil {
						s.logger.Warn("sequential advance failed", slog.Any("error", err))
					}
				}
				return
			}
		}
	}
}

// Verify that PlayerService implements the expected interface patterns
var _ interface {
	PlayTrack(domain.Track) error
	StartSequenced(domain.Track) error
	Pause() error
	Resume() error
	Seek(float64) error
	Stop()
	SetVolume(float64)
	Elapsed() time.Duration
	Status() domain.PlaybackStatus
	Shutdown() error
} = (*PlayerService)(nil)
