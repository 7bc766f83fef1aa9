package media

import (
	"context"
	"os"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"
)

// SimulatedConfig represents the settings for SimulatedPlayer.
type SimulatedConfig struct {
	Speed        float64 `yaml:"speed" mapstructure:"speed" default:"1" validate:"gt=0"`
	RequireFiles bool    `yaml:"require_files" mapstructure:"require_files"`
}

// SimulatedPlayer "plays" a song by waiting for its duration on the wall clock.
// Used on kiosks without an audio device and in tests.
type SimulatedPlayer struct {
	config SimulatedConfig
}

// NewSimulatedPlayer creates a simulated player.
func NewSimulatedPlayer(config SimulatedConfig) *SimulatedPlayer {
	if config.Speed <= 0 {
		config.Speed = 1
	}
	return &SimulatedPlayer{config: config}
}

func (p *SimulatedPlayer) Name() string {
	return "simulated"
}

func (p *SimulatedPlayer) Play(ctx context.Context, req Request, done func(error)) (Handle, error) {
	if p.config.RequireFiles {
		if _, err := os.Stat(req.Path); err != nil {
			return nil, errors.Mark(errors.Wrapf(err, "media file %s", req.Path), ErrMediaUnavailable)
		}
	}

	length := time.Duration(float64(req.Duration) / p.config.Speed)
	zlog.Debug().Msgf("media: simulated playback: title=%s path=%s length=%v", req.Title, req.Path, length)

	h := &simulatedHandle{}
	h.cancel = startWallClockTimer(ctx, length, func() {
		if h.finish() {
			done(nil)
		}
	})
	return h, nil
}

type simulatedHandle struct {
	mu       sync.Mutex
	cancel   func()
	finished bool
}

// finish marks the handle finished; false if it was released first.
func (h *simulatedHandle) finish() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.finished {
		return false
	}
	h.finished = true
	return true
}

func (h *simulatedHandle) Release() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.finished = true
	if h.cancel != nil {
		h.cancel()
	}
}

// startWallClockTimer calls callback once duration has elapsed on the wall clock.
// Returns a cancel function.
func startWallClockTimer(parent context.Context, duration time.Duration, callback func()) func() {
	ctx, cancel := context.WithCancel(parent)

	go func() {
		defer cancel()
		endTime := toWallTime(time.Now()).Add(duration)
		tick := 100 * time.Millisecond
		if duration < tick {
			tick = duration/2 + time.Millisecond
		}
		ticker := time.NewTicker(tick)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if !toWallTime(time.Now()).Before(endTime) {
					callback()
					return
				}
			}
		}
	}()

	return cancel
}

// toWallTime strips the monotonic clock reading so that differences follow
// the wall clock.
func toWallTime(t time.Time) time.Time {
	return time.Unix(t.Unix(), int64(t.Nanosecond()))
}
