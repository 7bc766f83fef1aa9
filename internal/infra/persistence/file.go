package persistence

import (
	"context"
	"os"
	"path/filepath"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
)

// FileGateway stores State as YAML records in a directory.
type FileGateway struct {
	dir        string
	createTemp func(dir, pattern string) (*os.File, error)
}

// NewFileGateway creates a gateway writing PlaylistFile and AccountsFile under dir.
func NewFileGateway(dir string) *FileGateway {
	return &FileGateway{dir: dir, createTemp: os.CreateTemp}
}

func (g *FileGateway) Name() string {
	return "file"
}

// Save writes both records. Both are staged as temp files before either
// is renamed into place, so an encode or write failure leaves the previous
// pair untouched. A failure between the two renames can still leave a new
// playlist next to old accounts.
func (g *FileGateway) Save(ctx context.Context, st State) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.MkdirAll(g.dir, 0755); err != nil {
		return errors.Wrapf(err, "failed to create directory %s", g.dir)
	}

	q, a := encodeState(st)
	records := []struct {
		name   string
		record any
	}{
		{name: PlaylistFile, record: q},
		{name: AccountsFile, record: a},
	}

	staged := make([]string, 0, len(records))
	defer func() {
		for _, tmp := range staged {
			os.Remove(tmp)
		}
	}()
	for _, r := range records {
		tmp, err := g.stageRecord(r.name, r.record)
		if err != nil {
			return err
		}
		staged = append(staged, tmp)
	}

	for i, r := range records {
		path := filepath.Join(g.dir, r.name)
		if err := os.Rename(staged[i], path); err != nil {
			return errors.Wrapf(err, "failed to replace %s", path)
		}
	}

	zlog.Info().Msgf("persistence: saved: backend=file dir=%s songs=%d accounts=%d", g.dir, len(st.Queue), len(st.Accounts))
	return nil
}

// Load reads both records. A missing file counts as an empty record;
// both missing is ErrNotFound.
func (g *FileGateway) Load(ctx context.Context) (State, error) {
	if err := ctx.Err(); err != nil {
		return State{}, err
	}

	var q queueRecord
	queueFound, err := g.readRecord(PlaylistFile, &q)
	if err != nil {
		return State{}, err
	}

	var a accountsRecord
	accountsFound, err := g.readRecord(AccountsFile, &a)
	if err != nil {
		return State{}, err
	}

	if !queueFound && !accountsFound {
		return State{}, ErrNotFound
	}

	st, err := decodeState(q, a)
	if err != nil {
		return State{}, err
	}
	zlog.Info().Msgf("persistence: loaded: backend=file dir=%s songs=%d accounts=%d", g.dir, len(st.Queue), len(st.Accounts))
	return st, nil
}

// stageRecord writes record to a temp file in the gateway directory and
// returns its path.
func (g *FileGateway) stageRecord(name string, record any) (string, error) {
	data, err := yaml.Marshal(record)
	if err != nil {
		return "", errors.Wrapf(err, "failed to encode %s", name)
	}

	tmp, err := g.createTemp(g.dir, name+".*.tmp")
	if err != nil {
		return "", errors.Wrapf(err, "failed to create temp file for %s", name)
	}

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", errors.Wrapf(err, "failed to write %s", name)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", errors.Wrapf(err, "failed to write %s", name)
	}
	return tmp.Name(), nil
}

func (g *FileGateway) readRecord(name string, record any) (bool, error) {
	path := filepath.Join(g.dir, name)
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, errors.Wrapf(err, "failed to read %s", path)
	}

	if err := yaml.Unmarshal(data, record); err != nil {
		return true, errors.Mark(errors.Wrapf(err, "failed to parse %s", path), ErrCorrupt)
	}
	return true, nil
}
