package playback

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osa030/kioskbox/internal/domain/song"
)

var (
	songA = song.New("Pokemon Capture", "Pikachu", 5, "Capture.mp3")
	songB = song.New("Swing Cheese", "FreePlay Music", 15, "SwingCheese.mp3")
	songC = song.New("LopingSting", "Kevin MacLeod", 5, "LopingSting.mp3")
)

func TestQueue_FIFO(t *testing.T) {
	q := NewQueue()
	assert.True(t, q.IsEmpty())

	_, ok := q.PeekHead()
	assert.False(t, ok)

	assert.Equal(t, 1, q.Enqueue(songA))
	assert.Equal(t, 2, q.Enqueue(songB))
	assert.Equal(t, 3, q.Enqueue(songA)) // duplicates allowed

	head, ok := q.PeekHead()
	require.True(t, ok)
	assert.Equal(t, songA, head)
	assert.Equal(t, 3, q.Len(), "peek does not remove")
	assert.Equal(t, 25*time.Second, q.TotalDuration())

	next, ok := q.Advance()
	require.True(t, ok)
	assert.Equal(t, songB, next)
	assert.Equal(t, []song.Song{songB, songA}, q.Snapshot())

	next, ok = q.Advance()
	require.True(t, ok)
	assert.Equal(t, songA, next)

	_, ok = q.Advance()
	assert.False(t, ok)
	assert.True(t, q.IsEmpty())

	_, ok = q.Advance()
	assert.False(t, ok, "advance on empty queue is a no-op")
}

func TestQueue_SignalOnlyWhenEmpty(t *testing.T) {
	q := NewQueue()
	var signals int32
	q.OnNonEmpty(func() { atomic.AddInt32(&signals, 1) })

	q.Enqueue(songA)
	q.Enqueue(songB)
	assert.Equal(t, int32(1), atomic.LoadInt32(&signals))

	q.Advance()
	q.Advance()
	q.Enqueue(songC)
	assert.Equal(t, int32(2), atomic.LoadInt32(&signals))
}

func TestQueue_RestoreDoesNotSignal(t *testing.T) {
	q := NewQueue()
	var signals int32
	q.OnNonEmpty(func() { atomic.AddInt32(&signals, 1) })

	in := []song.Song{songA, songB}
	q.Restore(in)
	in[0] = songC

	assert.Equal(t, []song.Song{songA, songB}, q.Snapshot())
	assert.Equal(t, int32(0), atomic.LoadInt32(&signals))
}

func TestQueue_SnapshotIsCopy(t *testing.T) {
	q := NewQueue()
	q.Enqueue(songA)

	snap := q.Snapshot()
	snap[0] = songB

	head, _ := q.PeekHead()
	assert.Equal(t, songA, head)
}

func TestQueue_ConcurrentEnqueuePreservesPerProducerOrder(t *testing.T) {
	q := NewQueue()
	const producers, perProducer = 4, 50

	var wg sync.WaitGroup
	for p := 0; p < producers; p++ {
		wg.Add(1)
		go func(p int) {
			defer wg.Done()
			for i := 0; i < perProducer; i++ {
				q.Enqueue(song.New("t", string(rune('a'+p)), i, "f.mp3"))
			}
		}(p)
	}
	wg.Wait()

	snap := q.Snapshot()
	require.Len(t, snap, producers*perProducer)

	last := map[string]int{}
	for _, s := range snap {
		prev, seen := last[s.Artist]
		if seen {
			assert.Greater(t, s.Seconds(), prev)
		}
		last[s.Artist] = s.Seconds()
	}
}
