// Package state provides kiosk lifecycle state management.
package state

// Phase represents the kiosk lifecycle phase.
type Phase int

const (
	PhaseStarting Phase = iota // Restoring state, requests not yet accepted
	PhaseOpen                  // Accepting requests
	PhaseClosed                // Shut down
)

// String returns the string representation of the phase.
func (p Phase) String() string {
	switch p {
	case PhaseStarting:
		return "starting"
	case PhaseOpen:
		return "open"
	case PhaseClosed:
		return "closed"
	default:
		return "unknown"
	}
}
