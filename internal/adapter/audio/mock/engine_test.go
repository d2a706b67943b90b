package mock

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEngine(t *testing.T) {
	engine := NewEngine()

	require.NotNil(t, engine)
	assert.False(t, engine.IsInitialized())
	assert.False(t, engine.IsBusy())
	assert.Empty(t, engine.Current())
}

func TestInitAndShutdown(t *testing.T) {
	engine := NewEngine()

	assert.True(t, engine.Init())
	assert.True(t, engine.IsInitialized())

	require.NoError(t, engine.Shutdown())
	assert.False(t, engine.IsInitialized())
}

func TestInitFailure(t *testing.T) {
	engine := NewEngine()
	engine.SetFailInit(true)

	assert.False(t, engine.Init())
	assert.False(t, engine.IsInitialized())
}

func TestLoadAndPlay(t *testing.T) {
	engine := NewEngine()
	engine.Init()

	assert.True(t, engine.LoadAndPlay("/songs/a.mp3"))
	assert.True(t, engine.IsBusy())
	assert.Equal(t, "/songs/a.mp3", engine.Current())
	assert.Equal(t, []string{"/songs/a.mp3"}, engine.Loads())
}

func TestLoadAndPlayFailure(t *testing.T) {
	engine := NewEngine()
	engine.Init()
	engine.SetFailLoad(true)

	assert.False(t, engine.LoadAndPlay("/songs/a.mp3"))
	assert.False(t, engine.IsBusy())
	assert.Empty(t, engine.Loads())
}

func TestPauseUnpause(t *testing.T) {
	engine := NewEngine()
	engine.Init()
	engine.LoadAndPlay("/songs/a.mp3")

	engine.Pause()
	assert.True(t, engine.IsPaused())
	// paused stream is still busy
	assert.True(t, engine.IsBusy())

	assert.True(t, engine.Unpause())
	assert.False(t, engine.IsPaused())
}

func TestUnpauseUnsupported(t *testing.T) {
	engine := NewEngine()
	engine.Init()
	engine.LoadAndPlay("/songs/a.mp3")
	engine.SetUnpauseSupported(false)

	engine.Pause()
	assert.False(t, engine.Unpause())
	assert.True(t, engine.IsPaused())
}

func TestFinishCurrent(t *testing.T) {
	engine := NewEngine()
	engine.Init()
	engine.SetTrackDuration("/songs/a.mp3", 10*time.Second)
	engine.LoadAndPlay("/songs/a.mp3")

	engine.FinishCurrent()

	assert.False(t, engine.IsBusy())
	assert.Equal(t, 10000, engine.PositionMS())
	// track stays loaded after natural finish
	assert.Equal(t, "/songs/a.mp3", engine.Current())
}

func TestSeekSetPosition(t *testing.T) {
	engine := NewEngine()
	engine.Init()
	engine.LoadAndPlay("/songs/a.mp3")

	assert.True(t, engine.SeekSetPosition(42.5))
	assert.Equal(t, 42500, engine.PositionMS())
}

func TestSeekSetPositionResumesPaused(t *testing.T) {
	engine := NewEngine()
	engine.Init()
	engine.LoadAndPlay("/songs/a.mp3")
	engine.Pause()

	assert.True(t, engine.SeekSetPosition(10))
	assert.False(t, engine.IsPaused())
}

func TestSeekUnsupported(t *testing.T) {
	engine := NewEngine()
	engine.Init()
	engine.LoadAndPlay("/songs/a.mp3")
	engine.SetSeekSupported(false)

	assert.False(t, engine.SeekSetPosition(10))
}

func TestSeekWithoutTrack(t *testing.T) {
	engine := NewEngine()
	engine.Init()

	assert.False(t, engine.SeekSetPosition(10))
	assert.False(t, engine.SeekFromStart(10))
}

func TestSeekFromStartResumesPlayback(t *testing.T) {
	engine := NewEngine()
	engine.Init()
	engine.LoadAndPlay("/songs/a.mp3")
	engine.Pause()

	assert.True(t, engine.SeekFromStart(5))
	assert.False(t, engine.IsPaused())
	assert.True(t, engine.IsBusy())
	assert.Equal(t, 5000, engine.PositionMS())
}

func TestStopClearsState(t *testing.T) {
	engine := NewEngine()
	engine.Init()
	engine.LoadAndPlay("/songs/a.mp3")

	engine.Stop()

	assert.False(t, engine.IsBusy())
	assert.Empty(t, engine.Current())
	assert.Zero(t, engine.PositionMS())
}

func TestSetVolume(t *testing.T) {
	engine := NewEngine()
	engine.SetVolume(0.3)
	assert.InDelta(t, 0.3, engine.Volume(), 0.001)
}

func TestCallLogRecordsSequence(t *testing.T) {
	engine := NewEngine()
	engine.Init()
	engine.LoadAndPlay("/songs/a.mp3")
	engine.Pause()
	engine.Stop()

	assert.Equal(t, []string{
		"init",
		"load_and_play /songs/a.mp3",
		"pause",
		"stop",
	}, engine.Calls())
}

func TestConcurrentAccess(t *testing.T) {
	engine := NewEngine()
	engine.Init()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			engine.LoadAndPlay("/songs/a.mp3")
			engine.Pause()
			engine.Unpause()
			engine.IsBusy()
			engine.PositionMS()
			engine.Stop()
		}()
	}
	wg.Wait()
}
