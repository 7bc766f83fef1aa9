package playback

import (
	"sync"
	"time"

	"github.com/osa030/kioskbox/internal/domain/song"
)

// Queue is the FIFO of songs awaiting or undergoing playback.
// The head stays in the queue until the scheduler advances past it.
type Queue struct {
	mu     sync.RWMutex
	songs  []song.Song
	signal func()
}

// NewQueue creates an empty queue.
func NewQueue() *Queue {
	return &Queue{
		songs: make([]song.Song, 0),
	}
}

// OnNonEmpty registers fn to be called after an enqueue onto an empty queue.
func (q *Queue) OnNonEmpty(fn func()) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.signal = fn
}

// Enqueue appends a song to the tail and returns its 1-based position.
func (q *Queue) Enqueue(s song.Song) int {
	q.mu.Lock()
	wasEmpty := len(q.songs) == 0
	q.songs = append(q.songs, s)
	position := len(q.songs)
	signal := q.signal
	q.mu.Unlock()

	if wasEmpty && signal != nil {
		signal()
	}
	return position
}

// PeekHead returns the head without removing it.
func (q *Queue) PeekHead() (song.Song, bool) {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if len(q.songs) == 0 {
		return song.Song{}, false
	}
	return q.songs[0], true
}

// Advance removes the head and returns the new head, if any.
// Only the scheduler calls Advance.
func (q *Queue) Advance() (song.Song, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.songs) == 0 {
		return song.Song{}, false
	}
	q.songs[0] = song.Song{}
	q.songs = q.songs[1:]

	if len(q.songs) == 0 {
		return song.Song{}, false
	}
	return q.songs[0], true
}

// IsEmpty returns true if the queue is empty.
func (q *Queue) IsEmpty() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return len(q.songs) == 0
}

// Len returns the number of songs, head included.
func (q *Queue) Len() int {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return len(q.songs)
}

// Snapshot returns an ordered copy of the queue.
func (q *Queue) Snapshot() []song.Song {
	q.mu.RLock()
	defer q.mu.RUnlock()

	result := make([]song.Song, len(q.songs))
	copy(result, q.songs)
	return result
}

// Restore replaces the contents with songs without signalling.
// Used at startup before the scheduler is started.
func (q *Queue) Restore(songs []song.Song) {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.songs = make([]song.Song, len(songs))
	copy(q.songs, songs)
}

// TotalDuration returns the total duration of all queued songs.
func (q *Queue) TotalDuration() time.Duration {
	q.mu.RLock()
	defer q.mu.RUnlock()

	var total time.Duration
	for _, s := range q.songs {
		total += s.Duration
	}
	return total
}
