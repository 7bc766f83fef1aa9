package notification

import "github.com/osa030/kioskbox/internal/domain/song"

// EventType represents a notification type.
type EventType int

const (
	EventNowPlaying     EventType = iota // Head handed to the media player
	EventHeadRemoved                     // Head removed after playback and delay
	EventPlaybackFailed                  // Head could not be played and will be skipped
	EventQueueEmpty                      // Scheduler went idle
	EventSessionChanged                  // Client logged in or out
)

// String returns the string representation of the event type.
func (e EventType) String() string {
	switch e {
	case EventNowPlaying:
		return "now_playing"
	case EventHeadRemoved:
		return "head_removed"
	case EventPlaybackFailed:
		return "playback_failed"
	case EventQueueEmpty:
		return "queue_empty"
	case EventSessionChanged:
		return "session_changed"
	default:
		return "unknown"
	}
}

// Event represents something observers may render.
type Event struct {
	SequenceNo uint64
	Type       EventType
	Song       song.Song // Song concerned (zero for queue/session events)
	ClientID   string    // Session events only
	Username   string    // Session events only; empty after logout
}

// Publisher is implemented by anything that accepts events.
type Publisher interface {
	Publish(Event)
}

// Discard drops every event.
var Discard Publisher = discard{}

type discard struct{}

func (discard) Publish(Event) {}
