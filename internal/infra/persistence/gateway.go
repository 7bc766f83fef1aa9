// Package persistence saves and restores the queue and the accounts
// between kiosk runs.
package persistence

import (
	"context"
	"path/filepath"

	"github.com/cockroachdb/errors"

	"github.com/osa030/kioskbox/internal/domain/account"
	"github.com/osa030/kioskbox/internal/domain/song"
	"github.com/osa030/kioskbox/internal/infra/config"
)

var (
	ErrNotFound = errors.New("no saved state")
	ErrCorrupt  = errors.New("saved state is corrupt")
)

// Fixed file names inside the persistence directory.
const (
	PlaylistFile = "playlist.yaml"
	AccountsFile = "accounts.yaml"
	DatabaseFile = "kioskbox.db"
)

// State is everything that survives a restart.
// Login sessions and playback position are not part of it.
type State struct {
	Queue    []song.Song
	Accounts []account.Account
}

// IsEmpty reports whether there is nothing to save.
func (s State) IsEmpty() bool {
	return len(s.Queue) == 0 && len(s.Accounts) == 0
}

// Gateway stores State.
type Gateway interface {
	// Name returns the backend name.
	Name() string
	// Save replaces the stored state.
	Save(ctx context.Context, st State) error
	// Load returns the stored state, ErrNotFound if none was saved,
	// or an error marked ErrCorrupt if it cannot be decoded.
	Load(ctx context.Context) (State, error)
}

// NewGatewayFromConfig creates the gateway selected by cfg.Backend.
func NewGatewayFromConfig(cfg config.PersistenceConfig) (Gateway, error) {
	switch cfg.Backend {
	case "file", "":
		return NewFileGateway(cfg.Dir), nil
	case "sqlite":
		return NewSQLiteGateway(filepath.Join(cfg.Dir, DatabaseFile)), nil
	default:
		return nil, errors.Newf("unknown persistence backend: %s", cfg.Backend)
	}
}

// IsNotFound reports whether err means no state was saved.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsCorrupt reports whether err means saved state could not be decoded.
func IsCorrupt(err error) bool {
	return errors.Is(err, ErrCorrupt)
}
