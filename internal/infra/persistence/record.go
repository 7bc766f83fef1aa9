package persistence

import (
	"sort"

	"github.com/cockroachdb/errors"
	"github.com/go-playground/validator/v10"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/kioskbox/internal/domain/account"
	"github.com/osa030/kioskbox/internal/domain/song"
)

// RecordVersion is the record format written by this build.
const RecordVersion = 1

var validate = validator.New()

// songRecord is the stored form of a song.
type songRecord struct {
	Title           string `yaml:"title" validate:"required"`
	Artist          string `yaml:"artist"`
	DurationSeconds int    `yaml:"duration_seconds" validate:"gte=0"`
	FileReference   string `yaml:"file_reference" validate:"required"`
}

// queueRecord is the stored form of the playback queue.
type queueRecord struct {
	Version int          `yaml:"version"`
	Songs   []songRecord `yaml:"songs" validate:"dive"`
}

// accountRecord is the stored form of one account, keyed by username.
type accountRecord struct {
	Password       string `yaml:"password"`
	SongsToday     int    `yaml:"songs_today" validate:"gte=0,lte=3"`
	LastActiveDate string `yaml:"last_active_date" validate:"required,datetime=2006-01-02"`
}

// accountsRecord is the stored form of the account store.
type accountsRecord struct {
	Version  int                      `yaml:"version"`
	Accounts map[string]accountRecord `yaml:"accounts" validate:"dive,keys,required,endkeys"`
}

func newSongRecord(s song.Song) songRecord {
	return songRecord{
		Title:           s.Title,
		Artist:          s.Artist,
		DurationSeconds: s.Seconds(),
		FileReference:   s.File,
	}
}

func (r songRecord) toSong() song.Song {
	return song.New(r.Title, r.Artist, r.DurationSeconds, r.FileReference)
}

func newAccountRecord(a account.Account) accountRecord {
	return accountRecord{
		Password:       a.Password,
		SongsToday:     a.SongsToday,
		LastActiveDate: a.LastActiveDate.Format(account.DateLayout),
	}
}

// encodeState converts st to its stored records.
func encodeState(st State) (queueRecord, accountsRecord) {
	q := queueRecord{
		Version: RecordVersion,
		Songs:   make([]songRecord, 0, len(st.Queue)),
	}
	for _, s := range st.Queue {
		q.Songs = append(q.Songs, newSongRecord(s))
	}

	a := accountsRecord{
		Version:  RecordVersion,
		Accounts: make(map[string]accountRecord, len(st.Accounts)),
	}
	for _, acc := range st.Accounts {
		a.Accounts[acc.Username] = newAccountRecord(acc)
	}
	return q, a
}

// decodeState validates the records and converts them back to State.
// Accounts come back ordered by username.
func decodeState(q queueRecord, a accountsRecord) (State, error) {
	checkVersion("queue", q.Version)
	checkVersion("accounts", a.Version)

	if err := validate.Struct(q); err != nil {
		return State{}, errors.Mark(errors.Wrap(err, "invalid queue record"), ErrCorrupt)
	}
	if err := validate.Struct(a); err != nil {
		return State{}, errors.Mark(errors.Wrap(err, "invalid accounts record"), ErrCorrupt)
	}

	st := State{
		Queue:    make([]song.Song, 0, len(q.Songs)),
		Accounts: make([]account.Account, 0, len(a.Accounts)),
	}
	for _, r := range q.Songs {
		st.Queue = append(st.Queue, r.toSong())
	}
	for username, r := range a.Accounts {
		date, err := account.ParseDate(r.LastActiveDate)
		if err != nil {
			return State{}, errors.Mark(errors.Wrapf(err, "invalid date for account %s", username), ErrCorrupt)
		}
		st.Accounts = append(st.Accounts, account.Account{
			Username:       username,
			Password:       r.Password,
			SongsToday:     r.SongsToday,
			LastActiveDate: date,
		})
	}
	sort.Slice(st.Accounts, func(i, j int) bool {
		return st.Accounts[i].Username < st.Accounts[j].Username
	})
	return st, nil
}

// checkVersion logs records from a newer build. A missing version is
// version 1; newer versions are decoded as far as the known fields go.
func checkVersion(kind string, version int) {
	if version > RecordVersion {
		zlog.Warn().Msgf("persistence: record newer than supported, loading known fields: kind=%s version=%d supported=%d",
			kind, version, RecordVersion)
	}
}
