package song

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSong_Equality(t *testing.T) {
	a := New("Swing Cheese", "FreePlay Music", 15, "SwingCheese.mp3")

	tests := []struct {
		name  string
		other Song
		equal bool
	}{
		{name: "identical", other: New("Swing Cheese", "FreePlay Music", 15, "SwingCheese.mp3"), equal: true},
		{name: "different title", other: New("Swing", "FreePlay Music", 15, "SwingCheese.mp3"), equal: false},
		{name: "different artist", other: New("Swing Cheese", "Other", 15, "SwingCheese.mp3"), equal: false},
		{name: "different duration", other: New("Swing Cheese", "FreePlay Music", 16, "SwingCheese.mp3"), equal: false},
		{name: "different file", other: New("Swing Cheese", "FreePlay Music", 15, "x.mp3"), equal: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.equal, a == tt.other)
		})
	}
}

func TestSong_Playtime(t *testing.T) {
	tests := []struct {
		seconds  int
		expected string
	}{
		{seconds: 5, expected: "0:05"},
		{seconds: 34, expected: "0:34"},
		{seconds: 60, expected: "1:00"},
		{seconds: 282, expected: "4:42"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			s := New("t", "a", tt.seconds, "f.mp3")
			assert.Equal(t, tt.expected, s.Playtime())
			assert.Equal(t, time.Duration(tt.seconds)*time.Second, s.Duration)
			assert.Equal(t, tt.seconds, s.Seconds())
		})
	}
}

func TestSong_String(t *testing.T) {
	s := New("Pokemon Capture", "Pikachu", 5, "Capture.mp3")
	assert.Equal(t, `Pikachu - "Pokemon Capture" (0:05)`, s.String())
}

func TestSong_Path(t *testing.T) {
	s := New("Pokemon Capture", "Pikachu", 5, "Capture.mp3")
	assert.Equal(t, "songfiles/Capture.mp3", s.Path("songfiles"))
}

func TestCatalog_Default(t *testing.T) {
	c := DefaultCatalog()
	require.Equal(t, 7, c.Len())

	first, ok := c.At(SortNone, 1)
	require.True(t, ok)
	assert.Equal(t, "Pokemon Capture", first.Title)

	_, ok = c.At(SortNone, 0)
	assert.False(t, ok)
	_, ok = c.At(SortNone, 8)
	assert.False(t, ok)
}

func TestCatalog_Songs_Sorted(t *testing.T) {
	c := DefaultCatalog()

	byTitle := c.Songs(SortTitle)
	assert.Equal(t, "Danse Macabre", byTitle[0].Title)
	assert.Equal(t, "UntameableFire", byTitle[len(byTitle)-1].Title)

	byArtist := c.Songs(SortArtist)
	assert.Equal(t, "FreePlay Music", byArtist[0].Artist)
	assert.Equal(t, "Pikachu", byArtist[len(byArtist)-1].Artist)

	byDuration := c.Songs(SortDuration)
	// Stable sort keeps catalog order for the two 5 second songs.
	assert.Equal(t, "Pokemon Capture", byDuration[0].Title)
	assert.Equal(t, "LopingSting", byDuration[1].Title)
	assert.Equal(t, "UntameableFire", byDuration[len(byDuration)-1].Title)

	// Sorting returns a copy.
	unsorted, _ := c.At(SortNone, 1)
	assert.Equal(t, "Pokemon Capture", unsorted.Title)
}

func TestCatalog_Lookup(t *testing.T) {
	c := DefaultCatalog()

	s, ok := c.FindByTitle("swing cheese")
	require.True(t, ok)
	assert.True(t, c.Contains(s))

	_, ok = c.FindByTitle("missing")
	assert.False(t, ok)

	assert.False(t, c.Contains(New("Swing Cheese", "FreePlay Music", 16, "SwingCheese.mp3")))
}

func TestParseSortKey(t *testing.T) {
	tests := []struct {
		input string
		want  SortKey
		ok    bool
	}{
		{input: "", want: SortNone, ok: true},
		{input: "Title", want: SortTitle, ok: true},
		{input: "artist", want: SortArtist, ok: true},
		{input: "DURATION", want: SortDuration, ok: true},
		{input: "genre", want: SortNone, ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, ok := ParseSortKey(tt.input)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.ok, ok)
		})
	}
}
