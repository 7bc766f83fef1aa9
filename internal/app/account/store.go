// Package account provides the quota-enforcing account store.
package account

import (
	"sort"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/kioskbox/internal/domain/account"
)

var (
	ErrDuplicateUsername  = errors.New("duplicate username")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrQuotaExceeded      = errors.New("daily song quota exceeded")
)

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the clock used for dates.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// Store owns all accounts with thread-safe access.
// Accounts leave the store only as copies.
type Store struct {
	mu       sync.RWMutex
	accounts map[string]*account.Account
	now      func() time.Time
}

// NewStore creates an empty account store.
func NewStore(opts ...Option) *Store {
	s := &Store{
		accounts: make(map[string]*account.Account),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register creates a new account.
func (s *Store) Register(username, password string) (account.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.accounts[username]; ok {
		return account.Account{}, ErrDuplicateUsername
	}

	a := account.New(username, password, s.now())
	s.accounts[username] = &a

	zlog.Info().Msgf("account registered: username=%s", username)
	return a, nil
}

// Authenticate checks credentials. Unknown usernames and wrong passwords
// both return ErrInvalidCredentials.
func (s *Store) Authenticate(username, password string) (account.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.accounts[username]
	if !ok || a.Password != password {
		return account.Account{}, ErrInvalidCredentials
	}
	return *a, nil
}

// Get retrieves an account by username.
func (s *Store) Get(username string) (account.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.accounts[username]
	if !ok {
		return account.Account{}, ErrInvalidCredentials
	}
	return *a, nil
}

// RecordSongAdded applies the daily quota to the account.
// It is the only operation that mutates an account.
func (s *Store) RecordSongAdded(username string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.accounts[username]
	if !ok {
		return false, ErrInvalidCredentials
	}

	if !a.RecordSongAdded(s.now()) {
		zlog.Info().Msgf("quota reached: username=%s songs_today=%d", username, a.SongsToday)
		return false, nil
	}

	zlog.Debug().Msgf("song recorded: username=%s songs_today=%d", username, a.SongsToday)
	return true, nil
}

// Snapshot returns copies of all accounts sorted by username.
func (s *Store) Snapshot() []account.Account {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]account.Account, 0, len(s.accounts))
	for _, a := range s.accounts {
		result = append(result, *a)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Username < result[j].Username
	})
	return result
}

// Restore replaces the store contents with the given accounts.
// Counters outside 0..DailyQuota are clamped.
func (s *Store) Restore(accounts []account.Account) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.accounts = make(map[string]*account.Account, len(accounts))
	for _, a := range accounts {
		a := a
		if a.SongsToday < 0 {
			a.SongsToday = 0
		}
		if a.SongsToday > account.DailyQuota {
			a.SongsToday = account.DailyQuota
		}
		a.LastActiveDate = account.DateOf(a.LastActiveDate)
		s.accounts[a.Username] = &a
	}
}

// Count returns the number of accounts.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.accounts)
}

// Today returns the store's current calendar date.
func (s *Store) Today() time.Time {
	return account.DateOf(s.now())
}
