package persistence

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"strconv"

	"github.com/cockroachdb/errors"
	_ "github.com/mattn/go-sqlite3"
	zlog "github.com/rs/zerolog/log"
)

const schema = `
CREATE TABLE IF NOT EXISTS meta (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS queue (
	position         INTEGER PRIMARY KEY,
	title            TEXT NOT NULL,
	artist           TEXT NOT NULL,
	duration_seconds INTEGER NOT NULL,
	file_reference   TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS accounts (
	username         TEXT PRIMARY KEY,
	password         TEXT NOT NULL,
	songs_today      INTEGER NOT NULL,
	last_active_date TEXT NOT NULL
);`

// SQLiteGateway stores State in a single SQLite database file.
type SQLiteGateway struct {
	path string
}

// NewSQLiteGateway creates a gateway for the database at path.
func NewSQLiteGateway(path string) *SQLiteGateway {
	return &SQLiteGateway{path: path}
}

func (g *SQLiteGateway) Name() string {
	return "sqlite"
}

// openDatabase opens a connection to the SQLite database at path.
func openDatabase(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open database")
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "failed to ping database")
	}

	// One writer is all the kiosk needs.
	db.SetMaxOpenConns(1)
	return db, nil
}

// Save replaces the stored queue and accounts in one transaction.
func (g *SQLiteGateway) Save(ctx context.Context, st State) error {
	if err := os.MkdirAll(filepath.Dir(g.path), 0755); err != nil {
		return errors.Wrapf(err, "failed to create directory for %s", g.path)
	}

	db, err := openDatabase(g.path)
	if err != nil {
		return err
	}
	defer db.Close()

	if _, err := db.ExecContext(ctx, schema); err != nil {
		return errors.Wrap(err, "failed to create schema")
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "failed to begin transaction")
	}
	defer tx.Rollback()

	q, a := encodeState(st)

	if _, err := tx.ExecContext(ctx, `INSERT INTO meta (key, value) VALUES ('version', ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value`, strconv.Itoa(RecordVersion)); err != nil {
		return errors.Wrap(err, "failed to write version")
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM queue`); err != nil {
		return errors.Wrap(err, "failed to clear queue")
	}
	for i, r := range q.Songs {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO queue (position, title, artist, duration_seconds, file_reference) VALUES (?, ?, ?, ?, ?)`,
			i, r.Title, r.Artist, r.DurationSeconds, r.FileReference); err != nil {
			return errors.Wrapf(err, "failed to write queue position %d", i)
		}
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM accounts`); err != nil {
		return errors.Wrap(err, "failed to clear accounts")
	}
	for username, r := range a.Accounts {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO accounts (username, password, songs_today, last_active_date) VALUES (?, ?, ?, ?)`,
			username, r.Password, r.SongsToday, r.LastActiveDate); err != nil {
			return errors.Wrapf(err, "failed to write account %s", username)
		}
	}

	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, "failed to commit")
	}

	zlog.Info().Msgf("persistence: saved: backend=sqlite path=%s songs=%d accounts=%d", g.path, len(st.Queue), len(st.Accounts))
	return nil
}

// Load reads the stored queue and accounts.
func (g *SQLiteGateway) Load(ctx context.Context) (State, error) {
	if _, err := os.Stat(g.path); errors.Is(err, os.ErrNotExist) {
		return State{}, ErrNotFound
	}

	db, err := openDatabase(g.path)
	if err != nil {
		return State{}, errors.Mark(err, ErrCorrupt)
	}
	defer db.Close()

	q, a, err := g.readRecords(ctx, db)
	if err != nil {
		if ctx.Err() != nil {
			return State{}, err
		}
		return State{}, errors.Mark(err, ErrCorrupt)
	}

	st, err := decodeState(q, a)
	if err != nil {
		return State{}, err
	}
	zlog.Info().Msgf("persistence: loaded: backend=sqlite path=%s songs=%d accounts=%d", g.path, len(st.Queue), len(st.Accounts))
	return st, nil
}

func (g *SQLiteGateway) readRecords(ctx context.Context, db *sql.DB) (queueRecord, accountsRecord, error) {
	q := queueRecord{Version: RecordVersion}
	a := accountsRecord{Version: RecordVersion, Accounts: make(map[string]accountRecord)}

	var version string
	err := db.QueryRowContext(ctx, `SELECT value FROM meta WHERE key = 'version'`).Scan(&version)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		// Treated as version 1
	case err != nil:
		return q, a, errors.Wrap(err, "failed to read version")
	default:
		v, err := strconv.Atoi(version)
		if err != nil {
			return q, a, errors.Wrapf(err, "invalid version %q", version)
		}
		q.Version, a.Version = v, v
	}

	rows, err := db.QueryContext(ctx, `SELECT title, artist, duration_seconds, file_reference FROM queue ORDER BY position`)
	if err != nil {
		return q, a, errors.Wrap(err, "failed to read queue")
	}
	defer rows.Close()
	for rows.Next() {
		var r songRecord
		if err := rows.Scan(&r.Title, &r.Artist, &r.DurationSeconds, &r.FileReference); err != nil {
			return q, a, errors.Wrap(err, "failed to scan queue row")
		}
		q.Songs = append(q.Songs, r)
	}
	if err := rows.Err(); err != nil {
		return q, a, errors.Wrap(err, "failed to read queue")
	}

	accRows, err := db.QueryContext(ctx, `SELECT username, password, songs_today, last_active_date FROM accounts`)
	if err != nil {
		return q, a, errors.Wrap(err, "failed to read accounts")
	}
	defer accRows.Close()
	for accRows.Next() {
		var (
			username string
			r        accountRecord
		)
		if err := accRows.Scan(&username, &r.Password, &r.SongsToday, &r.LastActiveDate); err != nil {
			return q, a, errors.Wrap(err, "failed to scan account row")
		}
		a.Accounts[username] = r
	}
	if err := accRows.Err(); err != nil {
		return q, a, errors.Wrap(err, "failed to read accounts")
	}

	return q, a, nil
}
