// Package media provides the external audio player the scheduler drives.
package media

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
)

// ErrMediaUnavailable marks a file reference that cannot be played.
var ErrMediaUnavailable = errors.New("media unavailable")

// Request describes one playback attempt.
type Request struct {
	Path     string        // Resolved file path
	Title    string        // For logging
	Duration time.Duration // Catalog duration
}

// Handle is an active playback session.
type Handle interface {
	// Release stops playback and frees the device. After Release the
	// completion callback is not invoked. Safe to call more than once.
	Release()
}

// Player begins asynchronous playback.
// Play either returns an error without invoking done, or returns a handle
// and later invokes done exactly once, with nil at end of track or an
// error when playback failed.
type Player interface {
	Name() string
	Play(ctx context.Context, req Request, done func(error)) (Handle, error)
}

// IsUnavailable reports whether err means the media could not be played.
func IsUnavailable(err error) bool {
	return errors.Is(err, ErrMediaUnavailable)
}
