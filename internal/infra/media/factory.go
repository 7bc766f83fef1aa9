package media

import (
	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/kioskbox/internal/infra/config"
)

// NewPlayerFromConfig creates the configured media player.
func NewPlayerFromConfig(cfg config.MediaConfig) (Player, error) {
	zlog.Debug().Msgf("creating media player: type=%s settings=%+v", cfg.Type, cfg.Settings)

	switch cfg.Type {
	case "simulated", "":
		var sc SimulatedConfig
		if err := config.DecodeSettings(cfg.Settings, &sc); err != nil {
			return nil, errors.Wrap(err, "invalid simulated player settings")
		}
		zlog.Info().Msgf("media player: type=simulated speed=%v require_files=%t", sc.Speed, sc.RequireFiles)
		return NewSimulatedPlayer(sc), nil

	case "exec":
		var ec ExecConfig
		if err := config.DecodeSettings(cfg.Settings, &ec); err != nil {
			return nil, errors.Wrap(err, "invalid exec player settings")
		}
		zlog.Info().Msgf("media player: type=exec command=%s args=%v", ec.Command, ec.Args)
		return NewExecPlayer(ec), nil

	default:
		return nil, errors.Newf("unsupported media player type: %s", cfg.Type)
	}
}
