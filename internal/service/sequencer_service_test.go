package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tejashwikalptaru/osutune/internal/adapter/audio/mock"
	"github.com/tejashwikalptaru/osutune/internal/adapter/eventbus"
	"github.com/tejashwikalptaru/osutune/internal/adapter/runloop"
	"github.com/tejashwikalptaru/osutune/internal/domain"
	"github.com/tejashwikalptaru/osutune/internal/logger"
	"github.com/tejashwikalptaru/osutune/internal/testutil"
)

func newTestSequencer(t *testing.T) (*SequencerService, *PlayerService, *mock.Engine, *runloop.RunLoop) {
	t.Helper()

	engine := mock.NewEngine()
	bus := eventbus.NewSyncEventBus()
	source := &stubSource{}

	player := NewPlayerService(logger.NewTestLogger(), engine, bus, source)
	player.pollInterval = 5 * time.Millisecond

	dispatcher := runloop.New(logger.NewTestLogger())

	seq := NewSequencerService(logger.NewTestLogger(), player, dispatcher)
	seq.pollInterval = 5 * time.Millisecond
	player.SetInterrupt(seq.Cancel)

	// Cleanups run last-in-first-out: tear everything down, then check leaks.
	t.Cleanup(func() { testutil.VerifyNoLeaks(t) })
	t.Cleanup(func() { _ = dispatcher.Close() })
	t.Cleanup(func() { require.NoError(t, player.Shutdown()) })
	t.Cleanup(func() { require.NoError(t, seq.Shutdown()) })

	return seq, player, engine, dispatcher
}

// waitLoads blocks until the engine has seen at least n loads.
func waitLoads(t *testing.T, engine *mock.Engine, n int) {
	t.Helper()
	require.Eventually(t, func() bool {
		return len(engine.Loads()) >= n
	}, 2*time.Second, 2*time.Millisecond)
}

func sequencerTracks() []domain.Track {
	return []domain.Track{
		testTrack("/songs/a.mp3", "Song A", 10*time.Second),
		testTrack("/songs/b.mp3", "Song B", 10*time.Second),
		testTrack("/songs/c.mp3", "Song C", 10*time.Second),
	}
}

func TestSequencerService_EmptyList(t *testing.T) {
	seq, _, _, _ := newTestSequencer(t)

	assert.ErrorIs(t, seq.PlayList(nil, domain.PlayModeSequential, 0, false), domain.ErrQueueEmpty)
}

func TestSequencerService_SequentialRotationWithWrap(t *testing.T) {
	seq, _, engine, _ := newTestSequencer(t)

	require.NoError(t, seq.PlayList(sequencerTracks(), domain.PlayModeSequential, 1, true))

	// Drive six natural finishes from start index 1: B,C,A then wrap to
	// the same rotation again.
	for i := 1; i <= 6; i++ {
		waitLoads(t, engine, i)
		engine.FinishCurrent()
	}
	waitLoads(t, engine, 6)

	seq.Cancel()
	loads := engine.Loads()[:6]
	assert.Equal(t, []string{
		"/songs/b.mp3", "/songs/c.mp3", "/songs/a.mp3",
		"/songs/b.mp3", "/songs/c.mp3", "/songs/a.mp3",
	}, loads)
}

func TestSequencerService_CompletesWithoutWrap(t *testing.T) {
	seq, player, engine, _ := newTestSequencer(t)

	require.NoError(t, seq.PlayList(sequencerTracks(), domain.PlayModeSequential, 0, false))

	for i := 1; i <= 3; i++ {
		waitLoads(t, engine, i)
		engine.FinishCurrent()
	}

	require.Eventually(t, func() bool {
		return !seq.IsRunning()
	}, 2*time.Second, 2*time.Millisecond)

	assert.Equal(t, []string{"/songs/a.mp3", "/songs/b.mp3", "/songs/c.mp3"}, engine.Loads())
	assert.Equal(t, domain.StatusFinished, player.Status())
}

func TestSequencerService_SkipAdvancesImmediately(t *testing.T) {
	seq, _, engine, _ := newTestSequencer(t)

	require.NoError(t, seq.PlayList(sequencerTracks(), domain.PlayModeSequential, 0, false))
	waitLoads(t, engine, 1)

	// No finish: the skip alone must advance.
	seq.Skip()
	waitLoads(t, engine, 2)

	assert.Equal(t, []string{"/songs/a.mp3", "/songs/b.mp3"}, engine.Loads()[:2])
}

func TestSequencerService_CancelStopsAdvancement(t *testing.T) {
	seq, _, engine, _ := newTestSequencer(t)

	require.NoError(t, seq.PlayList(sequencerTracks(), domain.PlayModeSequential, 0, true))
	waitLoads(t, engine, 1)

	seq.Cancel()
	require.Eventually(t, func() bool {
		return !seq.IsRunning()
	}, 2*time.Second, 2*time.Millisecond)

	// A finish after cancellation must not start anything.
	engine.FinishCurrent()
	time.Sleep(50 * time.Millisecond)
	assert.Len(t, engine.Loads(), 1)
}

func TestSequencerService_NewRunSupersedesOld(t *testing.T) {
	seq, _, engine, _ := newTestSequencer(t)

	first := []domain.Track{testTrack("/songs/a.mp3", "Song A", 10*time.Second)}
	second := []domain.Track{testTrack("/songs/b.mp3", "Song B", 10*time.Second)}

	require.NoError(t, seq.PlayList(first, domain.PlayModeSequential, 0, true))
	waitLoads(t, engine, 1)

	require.NoError(t, seq.PlayList(second, domain.PlayModeSequential, 0, true))
	waitLoads(t, engine, 2)

	assert.Equal(t, "/songs/b.mp3", engine.Loads()[1])

	// Only the new run is alive; its finishes advance within the new list.
	engine.FinishCurrent()
	waitLoads(t, engine, 3)
	assert.Equal(t, "/songs/b.mp3", engine.Loads()[2])
}

func TestSequencerService_ShuffleFirstCycleStartsAtIndex(t *testing.T) {
	seq, _, engine, _ := newTestSequencer(t)

	require.NoError(t, seq.PlayList(sequencerTracks(), domain.PlayModeShuffle, 2, true))
	waitLoads(t, engine, 1)

	assert.Equal(t, "/songs/c.mp3", engine.Loads()[0])

	// The rest of the first cycle is a permutation of the other tracks.
	engine.FinishCurrent()
	waitLoads(t, engine, 2)
	engine.FinishCurrent()
	waitLoads(t, engine, 3)
	seq.Cancel()

	rest := engine.Loads()[1:3]
	assert.ElementsMatch(t, []string{"/songs/a.mp3", "/songs/b.mp3"}, rest)
}

func TestSequencerService_PausedTrackDoesNotAdvance(t *testing.T) {
	seq, player, engine, _ := newTestSequencer(t)

	require.NoError(t, seq.PlayList(sequencerTracks(), domain.PlayModeSequential, 0, false))
	waitLoads(t, engine, 1)

	require.NoError(t, player.Pause())
	time.Sleep(50 * time.Millisecond)
	assert.Len(t, engine.Loads(), 1)

	require.NoError(t, player.Resume())
	engine.FinishCurrent()
	waitLoads(t, engine, 2)
}

func TestSequencerService_UserPlaySupersedesRun(t *testing.T) {
	seq, player, engine, _ := newTestSequencer(t)

	require.NoError(t, seq.PlayList(sequencerTracks(), domain.PlayModeSequential, 0, true))
	waitLoads(t, engine, 1)

	direct := testTrack("/songs/direct.mp3", "Direct", 10*time.Second)
	require.NoError(t, player.PlayTrack(direct))

	require.Eventually(t, func() bool {
		return !seq.IsRunning()
	}, 2*time.Second, 2*time.Millisecond)

	// The run is gone; finishing the direct track stays with the
	// controller's own policy (sequential, not in any view: no advance).
	engine.FinishCurrent()
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, "/songs/direct.mp3", engine.Current())
}

func TestSequencerService_StartHandshakeTimeout(t *testing.T) {
	seq, _, engine, dispatcher := newTestSequencer(t)
	seq.startTimeout = 30 * time.Millisecond

	// Wedge the presentation context.
	release := make(chan struct{})
	dispatcher.Dispatch(func() { <-release })

	require.NoError(t, seq.PlayList(sequencerTracks(), domain.PlayModeSequential, 0, false))

	require.Eventually(t, func() bool {
		return !seq.IsRunning()
	}, 2*time.Second, 2*time.Millisecond)
	assert.Empty(t, engine.Loads())

	// Unwedge and drain so shutdown is clean.
	close(release)
	require.NoError(t, dispatcher.Close())
}
