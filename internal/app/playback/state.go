// Package playback provides the playback queue and the scheduler that drains it.
package playback

// State represents the scheduler state.
type State int

const (
	StateIdle    State = iota // Nothing playing
	StatePlaying              // Head handed to the media player
	StateWaiting              // Head finished, inter-track delay running
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StatePlaying:
		return "playing"
	case StateWaiting:
		return "waiting"
	default:
		return "unknown"
	}
}
