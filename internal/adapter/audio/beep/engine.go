// Package beep implements the AudioEngine port on top of the beep
// library and its speaker output. One stream is active at a time; the
// speaker is initialized once with the first stream's sample rate and
// later streams with a different rate are resampled to it.
package beep

import (
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/effects"
	"github.com/gopxl/beep/v2/flac"
	"github.com/gopxl/beep/v2/mp3"
	"github.com/gopxl/beep/v2/speaker"
	"github.com/gopxl/beep/v2/vorbis"
	"github.com/gopxl/beep/v2/wav"

	"github.com/tejashwikalptaru/osutune/internal/ports"
)

const bufferLen = time.Second / 10

// Engine plays audio files through the beep speaker.
//
// Thread-safety: all methods are safe for concurrent use; stream state
// shared with the speaker goroutine is additionally guarded by
// speaker.Lock.
type Engine struct {
	logger *slog.Logger

	mu sync.Mutex

	initialized bool
	sampleRate  beep.SampleRate

	// current stream state
	path     string
	file     *os.File
	streamer beep.StreamSeekCloser
	format   beep.Format
	ctrl     *beep.Ctrl
	volume   *effects.Volume

	// done is closed by the speaker callback when the stream ends
	// naturally. The callback runs inside the speaker's locked context,
	// so it must not touch the engine mutex; closing a channel is the
	// only signal it gives.
	done chan struct{}

	// requested volume, applied to every stream (0.0 to 1.0)
	level float64
}

// NewEngine creates a beep audio engine.
func NewEngine(logger *slog.Logger) *Engine {
	return &Engine{
		logger: logger,
		level:  1.0,
	}
}

// Init marks the engine ready. The speaker itself is opened lazily on
// the first load because its sample rate comes from the first stream.
func (e *Engine) Init() bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.initialized = true
	return true
}

// IsInitialized returns true if Init succeeded.
func (e *Engine) IsInitialized() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.initialized
}

// LoadAndPlay loads the file at path and immediately starts playback,
// replacing any currently playing stream.
func (e *Engine) LoadAndPlay(path string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.initialized {
		return false
	}

	e.stopLocked()

	f, err := os.Open(path)
	if err != nil {
		e.logger.Warn("audio open failed", slog.String("path", path), slog.Any("error", err))
		return false
	}

	streamer, format, err := decode(f, path)
	if err != nil {
		_ = f.Close()
		e.logger.Warn("audio decode failed", slog.String("path", path), slog.Any("error", err))
		return false
	}

	if e.sampleRate == 0 {
		if err := speaker.Init(format.SampleRate, format.SampleRate.N(bufferLen)); err != nil {
			_ = streamer.Close()
			_ = f.Close()
			e.logger.Error("speaker init failed", slog.Any("error", err))
			return false
		}
		e.sampleRate = format.SampleRate
	}

	e.path = path
	e.file = f
	e.streamer = streamer
	e.format = format
	e.done = make(chan struct{})

	var source beep.Streamer = streamer
	if format.SampleRate != e.sampleRate {
		source = beep.Resample(4, format.SampleRate, e.sampleRate, streamer)
	}

	e.ctrl = &beep.Ctrl{Streamer: source}
	e.volume = volumeEffect(e.ctrl, e.level)

	done := e.done
	speaker.Play(beep.Seq(e.volume, beep.Callback(func() {
		close(done)
	})))

	return true
}

// Pause suspends the current stream.
func (e *Engine) Pause() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.ctrl == nil {
		return
	}
	speaker.Lock()
	e.ctrl.Paused = true
	speaker.Unlock()
}

// Unpause resumes a paused stream. The beep controller supports a true
// unpause, so this always succeeds while a stream is loaded.
func (e *Engine) Unpause() bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.ctrl == nil {
		return false
	}
	speaker.Lock()
	e.ctrl.Paused = false
	speaker.Unlock()
	return true
}

// Stop halts playback and releases the current stream.
func (e *Engine) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.stopLocked()
}

// stopLocked releases the current stream. Caller must hold e.mu.
func (e *Engine) stopLocked() {
	if e.streamer == nil {
		return
	}

	speaker.Clear()

	if err := e.streamer.Close(); err != nil {
		e.logger.Debug("streamer close failed", slog.Any("error", err))
	}
	e.streamer = nil
	e.file = nil // closed by the streamer
	e.ctrl = nil
	e.volume = nil
	e.path = ""
	e.done = nil
}

// IsBusy returns true while a stream is loaded and has not reached its
// natural end. A paused stream is still busy.
func (e *Engine) IsBusy() bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.streamer == nil {
		return false
	}
	select {
	case <-e.done:
		return false
	default:
		return true
	}
}

// PositionMS returns the decoder's position estimate in milliseconds.
func (e *Engine) PositionMS() int {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.streamer == nil {
		return 0
	}
	speaker.Lock()
	pos := e.format.SampleRate.D(e.streamer.Position())
	speaker.Unlock()
	return int(pos.Milliseconds())
}

// SetVolume sets the playback volume from 0.0 (silent) to 1.0 (full).
func (e *Engine) SetVolume(volume float64) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.level = volume
	if e.volume == nil {
		return
	}
	speaker.Lock()
	applyLevel(e.volume, volume)
	speaker.Unlock()
}

// SeekSetPosition seeks the current stream to an absolute offset in seconds.
func (e *Engine) SeekSetPosition(seconds float64) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.streamer == nil {
		return false
	}
	sample := e.format.SampleRate.N(time.Duration(seconds * float64(time.Second)))
	if sample < 0 {
		sample = 0
	}
	if total := e.streamer.Len(); sample > total {
		sample = total
	}

	speaker.Lock()
	err := e.streamer.Seek(sample)
	if err == nil && e.ctrl != nil {
		// A successful seek resumes playback at the new position.
		e.ctrl.Paused = false
	}
	speaker.Unlock()
	if err != nil {
		e.logger.Debug("seek failed", slog.String("path", e.path), slog.Any("error", err))
		return false
	}
	return true
}

// SeekFromStart restarts the current stream and plays from the given
// offset in seconds.
func (e *Engine) SeekFromStart(seconds float64) bool {
	e.mu.Lock()
	path := e.path
	e.mu.Unlock()

	if path == "" {
		return false
	}
	if !e.LoadAndPlay(path) {
		return false
	}
	return e.SeekSetPosition(seconds)
}

// Shutdown releases all backend resources.
func (e *Engine) Shutdown() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.stopLocked()
	e.initialized = false
	return nil
}

// decode selects a decoder by file extension.
func decode(f *os.File, path string) (beep.StreamSeekCloser, beep.Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".flac":
		return flac.Decode(f)
	case ".ogg":
		return vorbis.Decode(f)
	case ".wav":
		return wav.Decode(f)
	default:
		return mp3.Decode(f)
	}
}

// volumeEffect wraps a streamer in a volume control set to level.
func volumeEffect(streamer beep.Streamer, level float64) *effects.Volume {
	v := &effects.Volume{
		Streamer: streamer,
		Base:     2,
	}
	applyLevel(v, level)
	return v
}

// applyLevel maps the linear 0..1 level onto the exponential volume
// scale. 1.0 is unity gain and 0 is silent.
func applyLevel(v *effects.Volume, level float64) {
	if level <= 0 {
		v.Silent = true
		v.Volume = 0
		return
	}
	if level > 1 {
		level = 1
	}
	v.Silent = false
	v.Volume = math.Log2(level)
}

// Verify that Engine implements the AudioEngine interface
var _ ports.AudioEngine = (*Engine)(nil)
