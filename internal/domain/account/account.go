// Package account provides the kiosk Account domain entity.
package account

import "time"

// DailyQuota is the number of songs one account may add per calendar date.
const DailyQuota = 3

// DateLayout is the calendar date format used in records and logs.
const DateLayout = "2006-01-02"

// Account represents a registered kiosk user.
type Account struct {
	Username       string    // Unique, case-sensitive
	Password       string    // Compared as given
	SongsToday     int       // Songs added on LastActiveDate (0..DailyQuota)
	LastActiveDate time.Time // Calendar date, see DateOf
}

// New creates an account with an empty counter dated today.
func New(username, password string, now time.Time) Account {
	return Account{
		Username:       username,
		Password:       password,
		SongsToday:     0,
		LastActiveDate: DateOf(now),
	}
}

// DateOf truncates t to its local calendar date, stored as midnight UTC
// so that equal dates compare equal regardless of location.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDate parses a DateLayout string.
func ParseDate(v string) (time.Time, error) {
	return time.Parse(DateLayout, v)
}

// RecordSongAdded applies the daily quota for a song added at now.
// A new calendar date resets the counter before the limit is checked.
// Returns false, leaving the account unchanged, when the quota is used up.
func (a *Account) RecordSongAdded(now time.Time) bool {
	today := DateOf(now)
	if !a.LastActiveDate.Equal(today) {
		a.SongsToday = 0
		a.LastActiveDate = today
	}

	if a.SongsToday >= DailyQuota {
		return false
	}
	a.SongsToday++
	return true
}

// Remaining returns how many songs can still be added on now's date.
func (a Account) Remaining(now time.Time) int {
	if !a.LastActiveDate.Equal(DateOf(now)) {
		return DailyQuota
	}
	if a.SongsToday >= DailyQuota {
		return 0
	}
	return DailyQuota - a.SongsToday
}
