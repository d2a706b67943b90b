// Package ports define interfaces for dependency inversion.
// These interfaces allow the core business logic to remain independent of external frameworks.
package ports

// AudioEngine is the interface for the external audio backend.
// It deliberately mirrors the narrow load/play/pause/stop/seek/volume
// surface of the backend: position reporting is best-effort and the
// playback controller keeps its own wall-clock timing model on top.
//
// Implementations must be thread-safe as they may be called from
// multiple goroutines.
type AudioEngine interface {
	// Init prepares the backend for playback.
	// Returns false if the audio device cannot be opened; the caller is
	// expected to degrade gracefully rather than abort.
	Init() bool

	// IsInitialized returns true if Init succeeded.
	IsInitialized() bool

	// LoadAndPlay loads the file at path and immediately starts playback,
	// replacing any currently playing stream.
	// Returns false if the file cannot be loaded or decoded.
	LoadAndPlay(path string) bool

	// Pause suspends the current stream. No-op if nothing is playing.
	Pause()

	// Unpause resumes a paused stream.
	// Returns false if the backend does not support resuming, in which
	// case the caller must fall back to a restart+seek.
	Unpause() bool

	// Stop halts playback and releases the current stream.
	Stop()

	// IsBusy returns true while a stream is loaded and has not reached
	// its natural end. A paused stream is still busy.
	IsBusy() bool

	// PositionMS returns the backend's own position estimate in
	// milliseconds. Best-effort only: it may be inaccurate across
	// pause/seek and must not be trusted as the primary clock.
	PositionMS() int

	// SetVolume sets the playback volume from 0.0 (silent) to 1.0 (full).
	SetVolume(volume float64)

	// SeekSetPosition seeks the current stream to an absolute offset in
	// seconds. Returns false if the stream cannot seek.
	SeekSetPosition(seconds float64) bool

	// SeekFromStart restarts the current stream and plays from the given
	// offset in seconds. Returns false if unsupported.
	SeekFromStart(seconds float64) bool

	// Shutdown releases all backend resources.
	Shutdown() error
}
