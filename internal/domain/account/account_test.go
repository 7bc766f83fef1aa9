package account

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	now := time.Date(2026, 3, 12, 15, 4, 5, 0, time.Local)
	a := New("Name", "PW", now)

	assert.Equal(t, "Name", a.Username)
	assert.Equal(t, "PW", a.Password)
	assert.Equal(t, 0, a.SongsToday)
	assert.Equal(t, time.Date(2026, 3, 12, 0, 0, 0, 0, time.UTC), a.LastActiveDate)
}

func TestAccount_RecordSongAdded_SameDay(t *testing.T) {
	now := time.Date(2026, 3, 12, 9, 0, 0, 0, time.UTC)
	a := New("ABC", "123", now)

	for i := 1; i <= DailyQuota; i++ {
		require.True(t, a.RecordSongAdded(now.Add(time.Duration(i)*time.Hour)))
		assert.Equal(t, i, a.SongsToday)
	}

	// Fourth add on the same day fails and leaves the counter alone.
	assert.False(t, a.RecordSongAdded(now.Add(10*time.Hour)))
	assert.Equal(t, DailyQuota, a.SongsToday)
	assert.Equal(t, 0, a.Remaining(now))
}

func TestAccount_RecordSongAdded_Rollover(t *testing.T) {
	now := time.Date(2026, 3, 12, 9, 0, 0, 0, time.UTC)
	a := Account{
		Username:       "XYZ",
		Password:       "456",
		SongsToday:     DailyQuota,
		LastActiveDate: DateOf(now.AddDate(0, 0, -3)),
	}

	assert.Equal(t, DailyQuota, a.Remaining(now))
	require.True(t, a.RecordSongAdded(now))
	assert.Equal(t, 1, a.SongsToday)
	assert.Equal(t, DateOf(now), a.LastActiveDate)
	assert.Equal(t, 2, a.Remaining(now))
}

func TestAccount_RecordSongAdded_Midnight(t *testing.T) {
	lateNight := time.Date(2026, 3, 12, 23, 59, 59, 0, time.UTC)
	a := New("owl", "pw", lateNight)
	for i := 0; i < DailyQuota; i++ {
		require.True(t, a.RecordSongAdded(lateNight))
	}
	require.False(t, a.RecordSongAdded(lateNight))

	assert.True(t, a.RecordSongAdded(lateNight.Add(2*time.Second)))
	assert.Equal(t, 1, a.SongsToday)
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2026-03-12")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 3, 12, 0, 0, 0, 0, time.UTC), d)
	assert.Equal(t, "2026-03-12", d.Format(DateLayout))

	_, err = ParseDate("12/03/2026")
	assert.Error(t, err)
}
