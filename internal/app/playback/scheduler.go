package playback

import (
	"context"
	"errors"
	"sync"
	"time"

	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/kioskbox/internal/app/notification"
	"github.com/osa030/kioskbox/internal/domain/song"
	"github.com/osa030/kioskbox/internal/infra/media"
)

// Errors
var (
	ErrQueueEmpty = errors.New("queue is empty")
	ErrClosed     = errors.New("scheduler is closed")
)

// DefaultInterTrackDelay is the pause between the end of one song and the next.
const DefaultInterTrackDelay = 2000 * time.Millisecond

// Config holds scheduler configuration.
type Config struct {
	InterTrackDelay time.Duration // Pause after each song before the head is removed
	SongDir         string        // Directory song file references resolve under
}

// Scheduler drains the queue one song at a time through the media player.
//
// Idle -> Playing on an enqueue onto an empty queue or Start.
// Playing -> Waiting when the player reports completion or failure.
// Waiting -> Playing/Idle once the delay elapses and the head is removed.
//
// All transitions happen under mu. The scheduler owns the only media handle.
type Scheduler struct {
	mu sync.Mutex

	queue     *Queue
	player    media.Player
	publisher notification.Publisher
	config    Config

	// Current playback
	state   State
	current song.Song
	handle  media.Handle
	attempt uint64

	// Timer
	delayCancel func()

	// Context
	ctx    context.Context
	cancel context.CancelFunc
	closed bool
}

// NewScheduler creates a scheduler for queue and registers itself as the
// queue's wake-up signal.
func NewScheduler(queue *Queue, player media.Player, publisher notification.Publisher, config Config) *Scheduler {
	if publisher == nil {
		publisher = notification.Discard
	}
	if config.InterTrackDelay < 0 {
		config.InterTrackDelay = 0
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &Scheduler{
		queue:     queue,
		player:    player,
		publisher: publisher,
		config:    config,
		state:     StateIdle,
		ctx:       ctx,
		cancel:    cancel,
	}
	queue.OnNonEmpty(s.wake)
	return s
}

// Queue returns the queue the scheduler drains.
func (s *Scheduler) Queue() *Queue {
	return s.queue
}

// Start begins playing the head if the scheduler is idle.
// Used after restoring a queue; enqueues onto an empty queue start playback on their own.
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}
	if s.state != StateIdle {
		return nil
	}
	return s.startHeadLocked()
}

// wake is the queue's empty -> non-empty signal.
func (s *Scheduler) wake() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed || s.state != StateIdle {
		return
	}
	if err := s.startHeadLocked(); err != nil {
		zlog.Debug().Msgf("playback: wake: %v", err)
	}
}

// State returns the current scheduler state.
func (s *Scheduler) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// NowPlaying returns the song being played or waited on.
func (s *Scheduler) NowPlaying() (song.Song, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateIdle {
		return song.Song{}, false
	}
	return s.current, true
}

// Close stops the scheduler and releases the media handle.
// It does not wait for a running delay.
func (s *Scheduler) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	s.closed = true
	s.cancel()
	if s.delayCancel != nil {
		s.delayCancel()
		s.delayCancel = nil
	}
	s.releaseHandleLocked()
	zlog.Debug().Msgf("playback: closed: state=%s", s.state)
}

// startHeadLocked hands the head to the media player.
// Must be called with lock held.
func (s *Scheduler) startHeadLocked() error {
	head, ok := s.queue.PeekHead()
	if !ok {
		s.state = StateIdle
		return ErrQueueEmpty
	}

	// Only one media session may exist at a time.
	s.releaseHandleLocked()

	s.attempt++
	attempt := s.attempt
	s.current = head
	s.state = StatePlaying

	req := media.Request{
		Path:     head.Path(s.config.SongDir),
		Title:    head.Title,
		Duration: head.Duration,
	}

	var once sync.Once
	done := func(err error) {
		once.Do(func() {
			go s.onMediaDone(attempt, err)
		})
	}

	h, err := s.player.Play(s.ctx, req, done)
	if err != nil {
		zlog.Warn().Msgf("playback: cannot play, skipping: title=%s path=%s err=%v", head.Title, req.Path, err)
		s.publisher.Publish(notification.Event{Type: notification.EventPlaybackFailed, Song: head})
		s.enterWaitingLocked(attempt)
		return nil
	}
	s.handle = h

	zlog.Info().Msgf("playback: now playing: title=%s artist=%s duration=%v queue_size=%d",
		head.Title, head.Artist, head.Duration, s.queue.Len())
	s.publisher.Publish(notification.Event{Type: notification.EventNowPlaying, Song: head})
	return nil
}

// onMediaDone is the player's completion callback.
func (s *Scheduler) onMediaDone(attempt uint64, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed || attempt != s.attempt || s.state != StatePlaying {
		return
	}

	s.releaseHandleLocked()

	if err != nil {
		zlog.Warn().Msgf("playback: playback failed, skipping: title=%s err=%v", s.current.Title, err)
		s.publisher.Publish(notification.Event{Type: notification.EventPlaybackFailed, Song: s.current})
	} else {
		zlog.Debug().Msgf("playback: song finished: title=%s", s.current.Title)
	}

	s.enterWaitingLocked(attempt)
}

// enterWaitingLocked starts the inter-track delay.
// Must be called with lock held.
func (s *Scheduler) enterWaitingLocked(attempt uint64) {
	s.state = StateWaiting
	s.delayCancel = s.startDelayTimer(s.config.InterTrackDelay, func() {
		s.onDelayElapsed(attempt)
	})
}

// onDelayElapsed removes the finished head and moves on.
func (s *Scheduler) onDelayElapsed(attempt uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed || attempt != s.attempt || s.state != StateWaiting {
		return
	}
	s.delayCancel = nil

	removed := s.current
	s.queue.Advance()
	s.current = song.Song{}
	zlog.Info().Msgf("playback: head removed: title=%s queue_size=%d", removed.Title, s.queue.Len())
	s.publisher.Publish(notification.Event{Type: notification.EventHeadRemoved, Song: removed})

	// The emptiness check and the Idle decision share this critical section,
	// so an enqueue racing with it either is seen here or wakes us afterwards.
	if err := s.startHeadLocked(); errors.Is(err, ErrQueueEmpty) {
		zlog.Info().Msg("playback: queue empty, idle")
		s.publisher.Publish(notification.Event{Type: notification.EventQueueEmpty})
	}
}

// releaseHandleLocked frees the current media handle, if any.
// Must be called with lock held.
func (s *Scheduler) releaseHandleLocked() {
	if s.handle != nil {
		s.handle.Release()
		s.handle = nil
	}
}

// startDelayTimer calls callback after duration unless the scheduler closes first.
// Returns a cancel function.
func (s *Scheduler) startDelayTimer(duration time.Duration, callback func()) func() {
	ctx, cancel := context.WithCancel(s.ctx)

	go func() {
		defer cancel()
		timer := time.NewTimer(duration)
		defer timer.Stop()

		select {
		case <-ctx.Done():
		case <-timer.C:
			callback()
		}
	}()

	return cancel
}
