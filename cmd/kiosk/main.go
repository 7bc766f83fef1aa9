// Package main provides the kiosk entry point.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/alecthomas/kingpin/v2"
	"github.com/cockroachdb/errors"
	"github.com/joho/godotenv"
	"github.com/muesli/cancelreader"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/kioskbox/internal/app/filter"
	"github.com/osa030/kioskbox/internal/app/session"
	"github.com/osa030/kioskbox/internal/domain/song"
	"github.com/osa030/kioskbox/internal/infra/config"
	"github.com/osa030/kioskbox/internal/infra/logger"
	"github.com/osa030/kioskbox/internal/infra/media"
	"github.com/osa030/kioskbox/internal/infra/persistence"
)

var (
	app        = kingpin.New("kioskbox", "Shared kiosk music queue")
	configPath = app.Flag("config", "Path to config file").Default("config/kiosk.yaml").String()
	verbose    = app.Flag("verbose", "Enable verbose (DEBUG) logging").Short('v').Bool()
	logfile    = app.Flag("logfile", "Path to log file (default: stderr)").String()

	// songs command
	songsCmd  = app.Command("songs", "Print the song catalog and exit")
	songsSort = songsCmd.Flag("sort", "Sort order: title, artist, duration").Default("title").Enum("title", "artist", "duration")

	// list-filters command
	listFiltersCmd = app.Command("list-filters", "List available filters and exit")
)

func init() {
	// start command (default) - no need to store the command
	app.Command("start", "Start the kiosk console (default)").Default()
}

func main() {
	// Load .env file if it exists (errors are ignored)
	_ = godotenv.Load()

	// Parse command
	command := kingpin.MustParse(app.Parse(os.Args[1:]))

	switch command {
	case listFiltersCmd.FullCommand():
		printFilters()
		return
	case songsCmd.FullCommand():
		key, _ := song.ParseSortKey(*songsSort)
		printSongs(os.Stdout, song.DefaultCatalog(), key)
		return
	}

	// Initialize logger
	loggerConfig := logger.Config{
		Output: "stderr",
		Level:  "info",
	}
	// Override with command-line flags if specified
	if *verbose {
		loggerConfig.Level = "debug"
	}
	if *logfile != "" {
		loggerConfig.Output = *logfile
	}
	closer, err := logger.Init(loggerConfig)
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer closer.Close()

	// Load config
	zlog.Info().Msgf("Loading config from %s", *configPath)
	cfg, err := config.Load(*configPath)
	if err != nil {
		zlog.Fatal().Msgf("Failed to load config: %v", err)
	}

	if err := run(cfg); err != nil {
		zlog.Error().Msgf("Kiosk error: %v", err)
		closer.Close()
		os.Exit(1)
	}
}

// run executes the main kiosk logic. Using a separate function ensures
// defer statements are executed even when returning with an error.
func run(cfg *config.Config) error {
	// Validate filter config
	if err := validateFilterConfig(cfg); err != nil {
		return errors.Wrap(err, "invalid filter config")
	}

	player, err := media.NewPlayerFromConfig(cfg.Media)
	if err != nil {
		return errors.Wrap(err, "failed to create media player")
	}
	zlog.Info().Msgf("Media player: type=%s song_dir=%s", player.Name(), cfg.SongDir())

	gateway, err := persistence.NewGatewayFromConfig(cfg.Persistence)
	if err != nil {
		return errors.Wrap(err, "failed to create persistence gateway")
	}

	sessionMgr := session.NewManager(cfg, player)
	defer sessionMgr.Close()

	ctx := context.Background()
	restoreState(ctx, cfg, gateway, sessionMgr)

	if err := sessionMgr.Start(); err != nil {
		return errors.Wrap(err, "failed to start kiosk")
	}

	// The console must release stdin before the save prompt reads it.
	input, err := cancelreader.NewReader(os.Stdin)
	if err != nil {
		// Regular files cannot be polled; read them without cancellation.
		zlog.Warn().Msgf("Console input is not cancellable: %v", err)
		input, _ = cancelreader.NewReader(struct{ io.Reader }{os.Stdin})
	}
	defer input.Close()

	// Run the console until quit, end of input, or a signal
	con := newConsole(sessionMgr, input, os.Stdout, cfg.Kiosk.Title)
	doneCh := make(chan error, 1)
	go func() {
		doneCh <- con.Run()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-sigCh:
		zlog.Info().Msg("Received shutdown signal...")
		stopConsole(input, doneCh)
	case err := <-doneCh:
		if err != nil {
			zlog.Error().Msgf("Console error: %v", err)
		}
	}

	// Stop playback first so the saved queue is not modified underneath us
	sessionMgr.Close()
	saveState(ctx, cfg, gateway, sessionMgr)

	zlog.Info().Msg("Kiosk stopped")
	return nil
}

// stopConsole interrupts the console's pending read and waits for it to
// return. Inputs that cannot be interrupted are left reading.
func stopConsole(input cancelreader.CancelReader, doneCh <-chan error) {
	if !input.Cancel() {
		zlog.Warn().Msg("Console input cannot be interrupted; prompts may miss keystrokes")
		return
	}
	if err := <-doneCh; err != nil {
		zlog.Error().Msgf("Console error: %v", err)
	}
}

// restoreState loads saved state if the operator agrees.
// Any failure leaves the kiosk with a fresh state.
func restoreState(ctx context.Context, cfg *config.Config, gateway persistence.Gateway, sessionMgr *session.Manager) {
	loadCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	st, err := gateway.Load(loadCtx)
	switch {
	case persistence.IsNotFound(err):
		zlog.Info().Msgf("No saved state: backend=%s", gateway.Name())
		return
	case persistence.IsCorrupt(err):
		zlog.Warn().Msgf("Saved state is corrupt, starting fresh: %v", err)
		return
	case err != nil:
		zlog.Error().Msgf("Failed to load saved state, starting fresh: %v", err)
		return
	}

	title := fmt.Sprintf("Restore saved playlist (%d songs) and %d accounts?", len(st.Queue), len(st.Accounts))
	if !confirm(cfg.Persistence.Restore, title) {
		zlog.Info().Msg("Saved state not restored")
		return
	}
	if err := sessionMgr.Restore(st); err != nil {
		zlog.Error().Msgf("Failed to restore state: %v", err)
	}
}

// saveState stores the queue and accounts if the operator agrees.
// A failed save is logged; shutdown continues.
func saveState(ctx context.Context, cfg *config.Config, gateway persistence.Gateway, sessionMgr *session.Manager) {
	st := sessionMgr.Snapshot()
	title := fmt.Sprintf("Save playlist (%d songs) and %d accounts?", len(st.Queue), len(st.Accounts))
	if !confirm(cfg.Persistence.Save, title) {
		zlog.Info().Msg("State not saved")
		return
	}

	saveCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := gateway.Save(saveCtx, st); err != nil {
		zlog.Error().Msgf("Failed to save state: %v", err)
	}
}

// printFilters prints available filters.
func printFilters() {
	fmt.Println("Available Filters:")
	for _, name := range filter.RegisteredNames() {
		f := filter.GetRegistered()[name]()
		codes := strings.Join(f.ReturnCodes(), ", ")
		fmt.Printf("  %-30s - %s [codes: %s]\n", f.Name(), f.Description(), codes)
	}
	quota := filter.NewDailyQuotaFilter(nil)
	fmt.Printf("  %-30s - %s [codes: %s] (always on)\n", quota.Name(), quota.Description(), strings.Join(quota.ReturnCodes(), ", "))
}

// validateFilterConfig validates filter configurations.
func validateFilterConfig(cfg *config.Config) error {
	registry := filter.GetRegistered()

	for filterName, filterCfg := range cfg.Filters {
		if !filterCfg.Enabled {
			continue
		}

		factory, exists := registry[filterName]
		if !exists {
			return errors.Newf("unknown filter: %s", filterName)
		}

		f := factory()
		if err := f.ValidateConfig(filterCfg.Settings); err != nil {
			return errors.Wrapf(err, "filter %s", filterName)
		}
	}

	return nil
}
