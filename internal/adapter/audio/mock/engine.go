// Package mock provides a controllable AudioEngine implementation for testing.
// Tests configure per-path durations and capability toggles, then drive
// playback outcomes (finish, failed load, unsupported unpause/seek)
// deterministically.
package mock

import (
	"fmt"
	"sync"
	"time"

	"github.com/tejashwikalptaru/osutune/internal/ports"
)

// Engine is a mock audio engine. All state transitions are recorded in a
// call log so tests can assert on the exact backend interaction sequence.
//
// Thread-safety: all methods are safe for concurrent use.
type Engine struct {
	mu sync.Mutex

	initialized bool

	// failure / capability toggles
	failInit               bool
	failLoad               bool
	unpauseSupported       bool
	seekSupported          bool
	seekFromStartSupported bool

	// configured stream durations by path
	durations map[string]time.Duration

	// playback state
	current  string
	busy     bool
	paused   bool
	position time.Duration
	volume   float64

	// recorded interactions
	calls []string
	loads []string
}

// NewEngine creates a mock engine with all capabilities enabled.
func NewEngine() *Engine {
	return &Engine{
		unpauseSupported:       true,
		seekSupported:          true,
		seekFromStartSupported: true,
		durations:              make(map[string]time.Duration),
		volume:                 1.0,
	}
}

// Init prepares the engine. Fails if SetFailInit was called.
func (e *Engine) Init() bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.record("init")
	if e.failInit {
		return false
	}
	e.initialized = true
	return true
}

// IsInitialized returns true if Init succeeded.
func (e *Engine) IsInitialized() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.initialized
}

// LoadAndPlay loads the file and starts playback.
func (e *Engine) LoadAndPlay(path string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.record("load_and_play %s", path)
	if e.failLoad {
		return false
	}
	e.current = path
	e.busy = true
	e.paused = false
	e.position = 0
	e.loads = append(e.loads, path)
	return true
}

// Pause suspends the current stream.
func (e *Engine) Pause() {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.record("pause")
	if e.busy {
		e.paused = true
	}
}

// Unpause resumes a paused stream, unless configured as unsupported.
func (e *Engine) Unpause() bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.record("unpause")
	if !e.unpauseSupported {
		return false
	}
	e.paused = false
	return true
}

// Stop halts playback and releases the current stream.
func (e *Engine) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.record("stop")
	e.current = ""
	e.busy = false
	e.paused = false
	e.position = 0
}

// IsBusy reports whether a stream is loaded and not yet finished.
func (e *Engine) IsBusy() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.busy
}

// PositionMS returns the configured backend position estimate.
func (e *Engine) PositionMS() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return int(e.position.Milliseconds())
}

// SetVolume records the requested volume.
func (e *Engine) SetVolume(volume float64) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.record("set_volume %.2f", volume)
	e.volume = volume
}

// SeekSetPosition seeks the current stream, unless configured as unsupported.
func (e *Engine) SeekSetPosition(seconds float64) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.record("seek_set_position %.2f", seconds)
	if !e.seekSupported || e.current == "" {
		return false
	}
	e.position = time.Duration(seconds * float64(time.Second))
	// A successful seek resumes playback at the new position.
	e.paused = false
	return true
}

// SeekFromStart restarts the current stream at an offset, unless
// configured as unsupported.
func (e *Engine) SeekFromStart(seconds float64) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.record("seek_from_start %.2f", seconds)
	if !e.seekFromStartSupported || e.current == "" {
		return false
	}
	e.position = time.Duration(seconds * float64(time.Second))
	e.busy = true
	e.paused = false
	return true
}

// Shutdown releases the engine.
func (e *Engine) Shutdown() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.record("shutdown")
	e.initialized = false
	e.busy = false
	e.current = ""
	return nil
}

// Test control methods

// SetFailInit makes Init fail.
func (e *Engine) SetFailInit(fail bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.failInit = fail
}

// SetFailLoad makes LoadAndPlay fail.
func (e *Engine) SetFailLoad(fail bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.failLoad = fail
}

// SetUnpauseSupported toggles Unpause support.
func (e *Engine) SetUnpauseSupported(supported bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.unpauseSupported = supported
}

// SetSeekSupported toggles SeekSetPosition support.
func (e *Engine) SetSeekSupported(supported bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.seekSupported = supported
}

// SetSeekFromStartSupported toggles SeekFromStart support.
func (e *Engine) SetSeekFromStartSupported(supported bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.seekFromStartSupported = supported
}

// SetTrackDuration configures the stream duration reported for a path.
func (e *Engine) SetTrackDuration(path string, d time.Duration) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.durations[path] = d
}

// FinishCurrent simulates the current stream reaching its natural end:
// the engine stays loaded but reports not busy.
func (e *Engine) FinishCurrent() {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.busy = false
	e.paused = false
	if d, ok := e.durations[e.current]; ok {
		e.position = d
	}
}

// SetPosition sets the backend position estimate returned by PositionMS.
func (e *Engine) SetPosition(d time.Duration) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.position = d
}

// Current returns the currently loaded path ("" if none).
func (e *Engine) Current() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.current
}

// IsPaused reports whether the stream is paused.
func (e *Engine) IsPaused() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.paused
}

// Volume returns the last volume passed to SetVolume.
func (e *Engine) Volume() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.volume
}

// Loads returns the ordered list of paths passed to LoadAndPlay.
func (e *Engine) Loads() []string {
	e.mu.Lock()
	defer e.mu.Unlock()

	loads := make([]string, len(e.loads))
	copy(loads, e.loads)
	return loads
}

// Calls returns the recorded call log.
func (e *Engine) Calls() []string {
	e.mu.Lock()
	defer e.mu.Unlock()

	calls := make([]string, len(e.calls))
	copy(calls, e.calls)
	return calls
}

// record appends to the call log. Caller must hold the mutex.
func (e *Engine) record(format string, args ...interface{}) {
	e.calls = append(e.calls, fmt.Sprintf(format, args...))
}

// Verify that Engine implements the AudioEngine interface
var _ ports.AudioEngine = (*Engine)(nil)
