// Package song provides the Song value type and the fixed kiosk catalog.
package song

import (
	"fmt"
	"path/filepath"
	"time"
)

// Song represents a playable track.
// Songs are compared by value: two songs are equal when all four fields match.
type Song struct {
	Title    string        // Song title
	Artist   string        // Artist name
	Duration time.Duration // Track length, whole seconds
	File     string        // File name relative to the song directory
}

// New creates a song from a duration in seconds.
func New(title, artist string, seconds int, file string) Song {
	return Song{
		Title:    title,
		Artist:   artist,
		Duration: time.Duration(seconds) * time.Second,
		File:     file,
	}
}

// Seconds returns the duration in whole seconds.
func (s Song) Seconds() int {
	return int(s.Duration / time.Second)
}

// Path resolves the file reference under dir.
func (s Song) Path(dir string) string {
	return filepath.Join(dir, s.File)
}

// Playtime formats the duration as m:ss.
func (s Song) Playtime() string {
	secs := s.Seconds()
	return fmt.Sprintf("%d:%02d", secs/60, secs%60)
}

// String returns `Artist - "Title" (m:ss)`.
func (s Song) String() string {
	return fmt.Sprintf("%s - %q (%s)", s.Artist, s.Title, s.Playtime())
}

// IsZero reports whether s is the zero song.
func (s Song) IsZero() bool {
	return s == Song{}
}
