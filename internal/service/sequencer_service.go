package service

import (
	"log/slog"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"github.com/tejashwikalptaru/osutune/internal/domain"
	"github.com/tejashwikalptaru/osutune/internal/ports"
)

// SequencerService plays an ordered list of tracks as one cancellable
// background run. At most one run is active; starting a new one
// supersedes the old, which observes its cancel channel and exits.
// Track starts are marshaled onto the presentation context through the
// dispatcher with a bounded handshake, so a wedged context can never
// hang the run.
type SequencerService struct {
	// Dependencies (injected)
	logger     *slog.Logger
	player     *PlayerService
	dispatcher ports.Dispatcher

	// pollInterval and startTimeout are swappable for tests
	pollInterval time.Duration
	startTimeout time.Duration

	// Concurrency control
	mu  sync.Mutex
	run *sequencerRun
	rng *rand.Rand
}

// sequencerRun is the state of one background run. The skip flag is
// consumed exactly once and wins over a concurrent natural finish.
type sequencerRun struct {
	cancel     chan struct{}
	cancelOnce sync.Once
	done       chan struct{}
	skip       atomic.Bool
}

// abort closes the cancel channel, at most once.
func (r *sequencerRun) abort() {
	r.cancelOnce.Do(func() {
		close(r.cancel)
	})
}

// cancelled reports whether the run has been superseded or cancelled.
func (r *sequencerRun) cancelled() bool {
	select {
	case <-r.cancel:
		return true
	default:
		return false
	}
}

// NewSequencerService creates a sequencer.
func NewSequencerService(
	logger *slog.Logger,
	player *PlayerService,
	dispatcher ports.Dispatcher,
) *SequencerService {
	return &SequencerService{
		logger:       logger,
		player:       player,
		dispatcher:   dispatcher,
		pollInterval: 150 * time.Millisecond,
		startTimeout: 2 * time.Second,
		rng:          rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// PlayList starts a background run over tracks beginning at startIndex.
// Loop is not a run mode (the controller restarts the track itself), so
// it orders like sequential. With wrap the run cycles indefinitely;
// without it the run ends after one pass.
func (s *SequencerService) PlayList(tracks []domain.Track, mode domain.PlayMode, startIndex int, wrap bool) error {
	if len(tracks) == 0 {
		return domain.ErrQueueEmpty
	}
	if startIndex < 0 || startIndex >= len(tracks) {
		startIndex = 0
	}

	list := make([]domain.Track, len(tracks))
	copy(list, tracks)

	s.mu.Lock()
	prev := s.run
	run := &sequencerRun{
		cancel: make(chan struct{}),
		done:   make(chan struct{}),
	}
	s.run = run
	s.mu.Unlock()

	// The old run must fully wind down before the new one touches the
	// player, or their engine calls interleave.
	if prev != nil {
		prev.abort()
		<-prev.done
	}

	s.logger.Info("sequencer run starting",
		slog.Int("tracks", len(list)),
		slog.String("mode", mode.String()),
		slog.Int("start_index", startIndex),
		slog.Bool("wrap", wrap))

	s.player.SetSequencerActive(true)

	go s.runLoop(run, list, mode, startIndex, wrap)

	return nil
}

// Skip requests an immediate advance past the current track. Safe from
// any goroutine; a no-op without an active run.
func (s *SequencerService) Skip() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.run != nil {
		s.run.skip.Store(true)
	}
}

// Cancel aborts the active run. The currently playing track is left
// alone; a superseding load replaces it naturally.
func (s *SequencerService) Cancel() {
	s.mu.Lock()
	run := s.run
	s.mu.Unlock()

	if run != nil {
		run.abort()
	}
}

// IsRunning reports whether a run is active.
func (s *SequencerService) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.run == nil {
		return false
	}
	select {
	case <-s.run.done:
		return false
	default:
		return !s.run.cancelled()
	}
}

// Shutdown cancels the active run and waits for it to exit.
func (s *SequencerService) Shutdown() error {
	s.mu.Lock()
	run := s.run
	s.mu.Unlock()

	if run != nil {
		run.abort()
		<-run.done
	}
	return nil
}

// runLoop drives one run to completion.
func (s *SequencerService) runLoop(run *sequencerRun, tracks []domain.Track, mode domain.PlayMode, startIndex int, wrap bool) {
	defer close(run.done)
	defer s.clearRun(run)

	first := true
	for {
		order := s.makeOrder(len(tracks), mode, startIndex, first)
		for _, idx := range order {
			if run.cancelled() {
				return
			}
			if !s.playOne(run, tracks[idx]) {
				return
			}
		}
		first = false

		if !wrap {
			s.logger.Debug("sequencer run complete")
			return
		}
	}
}

// playOne starts a track and waits until it should be left behind.
// Returns false when the run is cancelled.
func (s *SequencerService) playOne(run *sequencerRun, track domain.Track) bool {
	var startErr error
	err := s.dispatcher.DispatchWait(func() {
		startErr = s.player.StartSequenced(track)
	}, s.startTimeout)
	if err != nil {
		// A wedged presentation context must not stall the run.
		s.logger.Warn("track start handshake failed",
			slog.String("path", track.Path), slog.Any("error", err))
		return true
	}
	if startErr != nil {
		s.logger.Warn("track start failed",
			slog.String("path", track.Path), slog.Any("error", startErr))
		return true
	}

	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-run.cancel:
			return false

		case <-ticker.C:
			// Skip wins over a concurrent natural finish.
			if run.skip.CompareAndSwap(true, false) {
				s.logger.Debug("track skipped", slog.String("path", track.Path))
				s.dispatcher.Dispatch(func() {
					s.player.Stop()
				})
				return true
			}

			switch s.player.Status() {
			case domain.StatusPaused:
				// Suspended, not advancing.
			case domain.StatusFinished:
				return true
			case domain.StatusStopped, domain.StatusIdle:
				// Playback torn down outside the run: wind down.
				return false
			default:
			}
		}
	}
}

// clearRun releases ownership of the player when this run is still the
// active one.
func (s *SequencerService) clearRun(run *sequencerRun) {
	s.mu.Lock()
	active := s.run == run
	if active {
		s.run = nil
	}
	s.mu.Unlock()

	if active {
		s.player.SetSequencerActive(false)
	}
}

// makeOrder builds the index order for one cycle. Sequential cycles
// always rotate so playback starts at startIndex and wraps through the
// list. The first shuffle cycle starts with startIndex followed by a
// permutation of the rest; later cycles permute everything.
func (s *SequencerService) makeOrder(n int, mode domain.PlayMode, startIndex int, first bool) []int {
	order := make([]int, 0, n)

	if mode == domain.PlayModeShuffle {
		s.mu.Lock()
		defer s.mu.Unlock()

		if first {
			order = append(order, startIndex)
			rest := make([]int, 0, n-1)
			for i := 0; i < n; i++ {
				if i != startIndex {
					rest = append(rest, i)
				}
			}
			s.rng.Shuffle(len(rest), func(i, j int) {
				rest[i], rest[j] = rest[j], rest[i]
			})
			return append(order, rest...)
		}

		for i := 0; i < n; i++ {
			order = append(order, i)
		}
		s.rng.Shuffle(len(order), func(i, j int) {
			order[i], order[j] = order[j], order[i]
		})
		return order
	}

	for i := 0; i < n; i++ {
		order = append(order, (startIndex+i)%n)
	}
	return order
}
