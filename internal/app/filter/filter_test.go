package filter

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osa030/kioskbox/internal/app/account"
	"github.com/osa030/kioskbox/internal/domain/song"
)

// recordingFilter counts checks and returns a fixed result.
type recordingFilter struct {
	name   string
	result Result
	calls  int
}

func (f *recordingFilter) Name() string                        { return f.name }
func (f *recordingFilter) Description() string                 { return "test filter" }
func (f *recordingFilter) ReturnCodes() []string               { return []string{f.result.Code} }
func (f *recordingFilter) ValidateConfig(map[string]any) error { return nil }
func (f *recordingFilter) Check(context.Context, SongRequest) Result {
	f.calls++
	return f.result
}

func TestChain_Execute(t *testing.T) {
	first := &recordingFilter{name: "first", result: Accept()}
	second := &recordingFilter{name: "second", result: Reject("nope")}
	third := &recordingFilter{name: "third", result: Accept()}

	chain := NewChain()
	chain.Add(first)
	chain.Add(second)
	chain.Add(third)

	result := chain.Execute(context.Background(), SongRequest{})
	assert.False(t, result.Accepted)
	assert.Equal(t, "nope", result.Code)
	assert.Equal(t, 1, first.calls)
	assert.Equal(t, 1, second.calls)
	assert.Equal(t, 0, third.calls, "filters after a rejection must not run")
	assert.Len(t, chain.Filters(), 3)
}

func TestChain_EmptyAccepts(t *testing.T) {
	assert.True(t, NewChain().Execute(context.Background(), SongRequest{}).Accepted)
}

func TestRegistry(t *testing.T) {
	names := RegisteredNames()
	assert.Contains(t, names, "catalog_filter")
	assert.Contains(t, names, "duration_limit_filter")
	assert.NotContains(t, names, "daily_quota_filter")

	for name, factory := range GetRegistered() {
		assert.Equal(t, name, factory().Name())
	}
}

func TestCatalogFilter_Check(t *testing.T) {
	catalog := song.DefaultCatalog()
	known := catalog.Songs(song.SortNone)[0]

	tests := []struct {
		name         string
		match        string
		requested    song.Song
		wantAccepted bool
	}{
		{name: "exact match", match: "exact", requested: known, wantAccepted: true},
		{name: "exact mismatch on duration", match: "exact", requested: song.New(known.Title, known.Artist, 99, known.File), wantAccepted: false},
		{name: "title match ignores case", match: "title", requested: song.Song{Title: "  pokemon CAPTURE "}, wantAccepted: true},
		{name: "title unknown", match: "title", requested: song.Song{Title: "Bohemian Rhapsody"}, wantAccepted: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := NewCatalogFilter(catalog)
			require.NoError(t, f.ValidateConfig(map[string]any{"match": tt.match}))

			result := f.Check(context.Background(), SongRequest{Song: tt.requested})
			assert.Equal(t, tt.wantAccepted, result.Accepted)
			if !tt.wantAccepted {
				assert.Equal(t, "unknown_song", result.Code)
			}
		})
	}
}

func TestCatalogFilter_ValidateConfig(t *testing.T) {
	f := NewCatalogFilter(song.DefaultCatalog())
	require.NoError(t, f.ValidateConfig(nil))
	assert.Equal(t, "exact", f.config.Match)

	assert.Error(t, f.ValidateConfig(map[string]any{"match": "fuzzy"}))
}

func TestDailyQuotaFilter_Check(t *testing.T) {
	now := time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC)
	store := account.NewStore(account.WithClock(func() time.Time { return now }))
	_, err := store.Register("alice", "pw")
	require.NoError(t, err)

	f := NewDailyQuotaFilter(store)
	req := SongRequest{Username: "alice"}

	for i := 0; i < 3; i++ {
		assert.True(t, f.Check(context.Background(), req).Accepted)
	}
	result := f.Check(context.Background(), req)
	assert.False(t, result.Accepted)
	assert.Equal(t, "quota_exceeded", result.Code)

	result = f.Check(context.Background(), SongRequest{Username: "mallory"})
	assert.False(t, result.Accepted)
	assert.Equal(t, "invalid_credentials", result.Code)
}

func TestDailyQuotaFilter_RunsLastInChain(t *testing.T) {
	now := time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC)
	store := account.NewStore(account.WithClock(func() time.Time { return now }))
	_, err := store.Register("bob", "pw")
	require.NoError(t, err)

	chain := NewChain()
	chain.Add(NewCatalogFilter(song.DefaultCatalog()))
	chain.Add(NewDailyQuotaFilter(store))

	// A rejected song does not use up the quota.
	result := chain.Execute(context.Background(), SongRequest{Username: "bob", Song: song.New("x", "y", 1, "z")})
	assert.Equal(t, "unknown_song", result.Code)

	a, err := store.Get("bob")
	require.NoError(t, err)
	assert.Equal(t, 0, a.SongsToday)
}

func TestDailyQuotaFilter_Concurrent(t *testing.T) {
	store := account.NewStore()
	_, err := store.Register("carol", "pw")
	require.NoError(t, err)
	f := NewDailyQuotaFilter(store)

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		accepted int
	)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if f.Check(context.Background(), SongRequest{Username: "carol"}).Accepted {
				mu.Lock()
				accepted++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 3, accepted)
}
