package song

import (
	"sort"
	"strings"
)

// SortKey selects the catalog ordering.
type SortKey string

const (
	SortNone     SortKey = ""
	SortTitle    SortKey = "title"
	SortArtist   SortKey = "artist"
	SortDuration SortKey = "duration"
)

// Catalog is the fixed table of songs the kiosk can play.
type Catalog struct {
	songs []Song
}

// DefaultCatalog returns the reference deployment's seven songs.
func DefaultCatalog() *Catalog {
	return NewCatalog([]Song{
		New("Pokemon Capture", "Pikachu", 5, "Capture.mp3"),
		New("Danse Macabre", "Kevin MacLeod", 34, "DanseMacabreViolinHook.mp3"),
		New("Determined Tumbao", "FreePlay Music", 20, "DeterminedTumbao.mp3"),
		New("LopingSting", "Kevin MacLeod", 5, "LopingSting.mp3"),
		New("Swing Cheese", "FreePlay Music", 15, "SwingCheese.mp3"),
		New("The Curtain Rises", "Kevin MacLeod", 28, "TheCurtainRises.mp3"),
		New("UntameableFire", "Pierre Langer", 282, "UntameableFire.mp3"),
	})
}

// NewCatalog creates a catalog from the given songs.
func NewCatalog(songs []Song) *Catalog {
	c := &Catalog{songs: make([]Song, len(songs))}
	copy(c.songs, songs)
	return c
}

// Len returns the number of songs.
func (c *Catalog) Len() int {
	return len(c.songs)
}

// Songs returns a copy of the catalog ordered by key.
// Ties keep catalog order.
func (c *Catalog) Songs(key SortKey) []Song {
	result := make([]Song, len(c.songs))
	copy(result, c.songs)

	var less func(a, b Song) bool
	switch key {
	case SortTitle:
		less = func(a, b Song) bool { return a.Title < b.Title }
	case SortArtist:
		less = func(a, b Song) bool { return a.Artist < b.Artist }
	case SortDuration:
		less = func(a, b Song) bool { return a.Duration < b.Duration }
	default:
		return result
	}

	sort.SliceStable(result, func(i, j int) bool { return less(result[i], result[j]) })
	return result
}

// At returns the song at a 1-based position in the given ordering.
func (c *Catalog) At(key SortKey, position int) (Song, bool) {
	songs := c.Songs(key)
	if position < 1 || position > len(songs) {
		return Song{}, false
	}
	return songs[position-1], true
}

// Contains reports whether s is in the catalog.
func (c *Catalog) Contains(s Song) bool {
	for _, cs := range c.songs {
		if cs == s {
			return true
		}
	}
	return false
}

// FindByTitle returns the first song whose title matches, ignoring case.
func (c *Catalog) FindByTitle(title string) (Song, bool) {
	for _, s := range c.songs {
		if strings.EqualFold(s.Title, title) {
			return s, true
		}
	}
	return Song{}, false
}

// ParseSortKey converts user input to a SortKey.
func ParseSortKey(v string) (SortKey, bool) {
	switch SortKey(strings.ToLower(v)) {
	case SortNone:
		return SortNone, true
	case SortTitle:
		return SortTitle, true
	case SortArtist:
		return SortArtist, true
	case SortDuration:
		return SortDuration, true
	default:
		return SortNone, false
	}
}
