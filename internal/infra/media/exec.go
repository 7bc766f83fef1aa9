package media

import (
	"context"
	"os"
	"os/exec"
	"strings"
	"sync"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"
)

// FilePlaceholder is replaced with the song path in ExecConfig.Args.
const FilePlaceholder = "{file}"

// ExecConfig represents the settings for ExecPlayer.
type ExecConfig struct {
	Command string   `yaml:"command" mapstructure:"command" default:"ffplay" validate:"required"`
	Args    []string `yaml:"args" mapstructure:"args" default:"[\"-nodisp\",\"-autoexit\",\"-loglevel\",\"quiet\",\"{file}\"]"`
}

// ExecPlayer plays a song by running an external audio command.
// The command's exit ends the track.
type ExecPlayer struct {
	config ExecConfig
}

// NewExecPlayer creates an exec player.
func NewExecPlayer(config ExecConfig) *ExecPlayer {
	return &ExecPlayer{config: config}
}

func (p *ExecPlayer) Name() string {
	return "exec"
}

func (p *ExecPlayer) Play(ctx context.Context, req Request, done func(error)) (Handle, error) {
	if _, err := os.Stat(req.Path); err != nil {
		return nil, errors.Mark(errors.Wrapf(err, "media file %s", req.Path), ErrMediaUnavailable)
	}

	args := make([]string, 0, len(p.config.Args)+1)
	hasPlaceholder := false
	for _, a := range p.config.Args {
		if strings.Contains(a, FilePlaceholder) {
			hasPlaceholder = true
			a = strings.ReplaceAll(a, FilePlaceholder, req.Path)
		}
		args = append(args, a)
	}
	if !hasPlaceholder {
		args = append(args, req.Path)
	}

	runCtx, cancel := context.WithCancel(ctx)
	cmd := exec.CommandContext(runCtx, p.config.Command, args...)
	if err := cmd.Start(); err != nil {
		cancel()
		return nil, errors.Mark(errors.Wrapf(err, "failed to start %s", p.config.Command), ErrMediaUnavailable)
	}
	zlog.Debug().Msgf("media: started: command=%s pid=%d title=%s", p.config.Command, cmd.Process.Pid, req.Title)

	h := &execHandle{cancel: cancel}
	go func() {
		err := cmd.Wait()
		if !h.finish() {
			return
		}
		if err != nil {
			done(errors.Mark(errors.Wrapf(err, "%s exited", p.config.Command), ErrMediaUnavailable))
			return
		}
		done(nil)
	}()
	return h, nil
}

type execHandle struct {
	mu       sync.Mutex
	cancel   context.CancelFunc
	finished bool
}

func (h *execHandle) finish() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.finished {
		return false
	}
	h.finished = true
	return true
}

func (h *execHandle) Release() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.finished = true
	h.cancel()
}
