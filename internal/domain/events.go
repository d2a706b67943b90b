// Package domain defines events for the event-driven architecture.
// Events enable loose coupling between the scanner, the playback
// controller, the sequencer and the presentation layer.
package domain

import (
	"time"
)

// Event is the base interface for all events in the system.
// All events must implement this interface to be published via the event bus.
type Event interface {
	// Type returns the event type identifier
	Type() EventType

	// Timestamp returns when the event occurred
	Timestamp() time.Time
}

// EventType is a string identifier for different event types.
type EventType string

// Event type constants define all possible events in the system.
const (
	// Library scanning events
	EventTrackDiscovered EventType = "scan.track_discovered"
	EventScanStarted     EventType = "scan.started"
	EventScanProgress    EventType = "scan.progress"
	EventScanCompleted   EventType = "scan.completed"

	// Playback events
	EventNowPlayingChanged EventType = "playback.now_playing"
	EventPlaybackState     EventType = "playback.state"
	EventPositionChanged   EventType = "playback.position"
	EventTrackFinished     EventType = "playback.finished"
	EventVolumeChanged     EventType = "playback.volume"

	// Settings events
	EventPlayModeChanged EventType = "settings.play_mode"
	EventSettingsChanged EventType = "settings.changed"
)

// EventHandler is a function that handles events.
type EventHandler func(event Event)

// SubscriptionID uniquely identifies an event subscription.
type SubscriptionID string

// baseEvent provides common event functionality.
// All concrete events should embed this struct.
type baseEvent struct {
	timestamp time.Time
}

// Timestamp returns when the event occurred.
func (e baseEvent) Timestamp() time.Time {
	return e.timestamp
}

// newBaseEvent creates a new base event with the current timestamp.
func newBaseEvent() baseEvent {
	return baseEvent{timestamp: time.Now()}
}

// TrackDiscoveredEvent is published for every track a scan emits.
// IsNew distinguishes first-time discoveries from cache hydrations;
// MatchesFilter tells the consumer whether the track belongs in the
// currently filtered view.
type TrackDiscoveredEvent struct {
	baseEvent
	Track         Track
	IsNew         bool
	MatchesFilter bool
}

// Type returns the event type.
func (e TrackDiscoveredEvent) Type() EventType {
	return EventTrackDiscovered
}

// NewTrackDiscoveredEvent creates a new TrackDiscoveredEvent.
func NewTrackDiscoveredEvent(track Track, isNew, matchesFilter bool) TrackDiscoveredEvent {
	return TrackDiscoveredEvent{
		baseEvent:     newBaseEvent(),
		Track:         track,
		IsNew:         isNew,
		MatchesFilter: matchesFilter,
	}
}

// ScanStartedEvent is published when a library scan starts.
type ScanStartedEvent struct {
	baseEvent
	Root string
}

// Type returns the event type.
func (e ScanStartedEvent) Type() EventType {
	return EventScanStarted
}

// NewScanStartedEvent creates a new ScanStartedEvent.
func NewScanStartedEvent(root string) ScanStartedEvent {
	return ScanStartedEvent{
		baseEvent: newBaseEvent(),
		Root:      root,
	}
}

// ScanProgressEvent is published periodically during a library scan.
type ScanProgressEvent struct {
	baseEvent
	Progress ScanProgress
}

// Type returns the event type.
func (e ScanProgressEvent) Type() EventType {
	return EventScanProgress
}

// NewScanProgressEvent creates a new ScanProgressEvent.
func NewScanProgressEvent(progress ScanProgress) ScanProgressEvent {
	return ScanProgressEvent{
		baseEvent: newBaseEvent(),
		Progress:  progress,
	}
}

// ScanCompletedEvent is published when a scan finishes, was cancelled or
// failed outright (missing root). Err is nil on success or cancellation.
type ScanCompletedEvent struct {
	baseEvent
	Progress  ScanProgress
	Cancelled bool
	Err       error
}

// Type returns the event type.
func (e ScanCompletedEvent) Type() EventType {
	return EventScanCompleted
}

// NewScanCompletedEvent creates a new ScanCompletedEvent.
func NewScanCompletedEvent(progress ScanProgress, cancelled bool, err error) ScanCompletedEvent {
	return ScanCompletedEvent{
		baseEvent: newBaseEvent(),
		Progress:  progress,
		Cancelled: cancelled,
		Err:       err,
	}
}

// NowPlayingChangedEvent is published when a different track becomes the
// current one (or playback clears). BackgroundImage is the resolved
// companion image path, or "" when the placeholder should be shown.
type NowPlayingChangedEvent struct {
	baseEvent
	Track           *Track
	Duration        time.Duration
	BackgroundImage string
}

// Type returns the event type.
func (e NowPlayingChangedEvent) Type() EventType {
	return EventNowPlayingChanged
}

// NewNowPlayingChangedEvent creates a new NowPlayingChangedEvent.
func NewNowPlayingChangedEvent(track *Track, duration time.Duration, background string) NowPlayingChangedEvent {
	return NowPlayingChangedEvent{
		baseEvent:       newBaseEvent(),
		Track:           track,
		Duration:        duration,
		BackgroundImage: background,
	}
}

// PlaybackStateEvent is published on every playback status transition.
type PlaybackStateEvent struct {
	baseEvent
	Status PlaybackStatus
}

// Type returns the event type.
func (e PlaybackStateEvent) Type() EventType {
	return EventPlaybackState
}

// NewPlaybackStateEvent creates a new PlaybackStateEvent.
func NewPlaybackStateEvent(status PlaybackStatus) PlaybackStateEvent {
	return PlaybackStateEvent{
		baseEvent: newBaseEvent(),
		Status:    status,
	}
}

// PositionChangedEvent is published on every position-poll tick.
type PositionChangedEvent struct {
	baseEvent
	Elapsed  time.Duration
	Duration time.Duration
}

// Type returns the event type.
func (e PositionChangedEvent) Type() EventType {
	return EventPositionChanged
}

// NewPositionChangedEvent creates a new PositionChangedEvent.
func NewPositionChangedEvent(elapsed, duration time.Duration) PositionChangedEvent {
	return PositionChangedEvent{
		baseEvent: newBaseEvent(),
		Elapsed:   elapsed,
		Duration:  duration,
	}
}

// TrackFinishedEvent is published exactly once per natural track finish.
type TrackFinishedEvent struct {
	baseEvent
	Track Track
}

// Type returns the event type.
func (e TrackFinishedEvent) Type() EventType {
	return EventTrackFinished
}

// NewTrackFinishedEvent creates a new TrackFinishedEvent.
func NewTrackFinishedEvent(track Track) TrackFinishedEvent {
	return TrackFinishedEvent{
		baseEvent: newBaseEvent(),
		Track:     track,
	}
}

// VolumeChangedEvent is published when the playback volume changes.
type VolumeChangedEvent struct {
	baseEvent
	Volume float64 // 0.0 to 1.0
}

// Type returns the event type.
func (e VolumeChangedEvent) Type() EventType {
	return EventVolumeChanged
}

// NewVolumeChangedEvent creates a new VolumeChangedEvent.
func NewVolumeChangedEvent(volume float64) VolumeChangedEvent {
	return VolumeChangedEvent{
		baseEvent: newBaseEvent(),
		Volume:    volume,
	}
}

// PlayModeChangedEvent is published when the play mode changes.
type PlayModeChangedEvent struct {
	baseEvent
	Mode PlayMode
}

// Type returns the event type.
func (e PlayModeChangedEvent) Type() EventType {
	return EventPlayModeChanged
}

// NewPlayModeChangedEvent creates a new PlayModeChangedEvent.
func NewPlayModeChangedEvent(mode PlayMode) PlayModeChangedEvent {
	return PlayModeChangedEvent{
		baseEvent: newBaseEvent(),
		Mode:      mode,
	}
}

// SettingsChangedEvent is published when any persisted setting changes.
type SettingsChangedEvent struct {
	baseEvent
	Settings Settings
}

// Type returns the event type.
func (e SettingsChangedEvent) Type() EventType {
	return EventSettingsChanged
}

// NewSettingsChangedEvent creates a new SettingsChangedEvent.
func NewSettingsChangedEvent(settings Settings) SettingsChangedEvent {
	return SettingsChangedEvent{
		baseEvent: newBaseEvent(),
		Settings:  settings,
	}
}
