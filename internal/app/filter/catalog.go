package filter

import (
	"context"
	"strings"

	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/kioskbox/internal/domain/song"
	"github.com/osa030/kioskbox/internal/infra/config"
)

// CatalogConfig represents the configuration for CatalogFilter.
type CatalogConfig struct {
	// Match is "exact" (all song fields) or "title" (case-insensitive title).
	Match string `yaml:"match" mapstructure:"match" default:"exact" validate:"oneof=exact title"`
}

// CatalogFilter rejects songs that are not in the kiosk catalog.
type CatalogFilter struct {
	catalog *song.Catalog
	config  CatalogConfig
}

// NewCatalogFilter creates a catalog filter backed by catalog.
func NewCatalogFilter(catalog *song.Catalog) *CatalogFilter {
	return &CatalogFilter{
		catalog: catalog,
		config:  CatalogConfig{Match: "exact"},
	}
}

func (f *CatalogFilter) Name() string {
	return "catalog_filter"
}

func (f *CatalogFilter) Description() string {
	return "Checks if the requested song is in the kiosk catalog"
}

func (f *CatalogFilter) ReturnCodes() []string {
	return []string{"unknown_song"}
}

func (f *CatalogFilter) ValidateConfig(settings map[string]any) error {
	var cfg CatalogConfig
	if err := config.DecodeSettings(settings, &cfg); err != nil {
		return err
	}
	f.config = cfg
	zlog.Info().Msgf("catalog filter config: %+v", cfg)
	return nil
}

func (f *CatalogFilter) Check(ctx context.Context, req SongRequest) Result {
	if f.catalog == nil {
		return Accept()
	}

	if f.config.Match == "title" {
		if _, ok := f.catalog.FindByTitle(strings.TrimSpace(req.Song.Title)); ok {
			return Accept()
		}
		return Reject("unknown_song")
	}

	if !f.catalog.Contains(req.Song) {
		return Reject("unknown_song")
	}
	return Accept()
}

func init() {
	Register("catalog_filter", func() Filter {
		return NewCatalogFilter(song.DefaultCatalog())
	})
}
