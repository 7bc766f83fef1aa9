// Package session provides the kiosk session manager.
package session

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/kioskbox/internal/app/account"
	"github.com/osa030/kioskbox/internal/app/filter"
	"github.com/osa030/kioskbox/internal/app/notification"
	"github.com/osa030/kioskbox/internal/app/playback"
	"github.com/osa030/kioskbox/internal/app/session/registry"
	"github.com/osa030/kioskbox/internal/app/session/state"
	"github.com/osa030/kioskbox/internal/domain/song"
	"github.com/osa030/kioskbox/internal/infra/config"
	"github.com/osa030/kioskbox/internal/infra/media"
	"github.com/osa030/kioskbox/internal/infra/persistence"
)

var (
	ErrNotLoggedIn = errors.New("no user logged in")
	ErrUnknownSong = errors.New("unknown song")
	ErrKioskClosed = errors.New("kiosk is closed")
)

// Rejection codes produced by the manager itself. Filters add their own.
const (
	CodeNotLoggedIn        = "not_logged_in"
	CodeUnknownSong        = "unknown_song"
	CodeDuplicateUsername  = "duplicate_username"
	CodeInvalidCredentials = "invalid_credentials"
	CodeQuotaExceeded      = "quota_exceeded"
	CodeKioskClosed        = "kiosk_closed"
)

// Result is the outcome of a client operation.
type Result struct {
	Accepted bool
	Code     string // Rejection code, empty when accepted
	Position int    // 1-based queue position of an accepted song
	Song     song.Song
}

// Err returns the sentinel error matching a rejection, or nil.
func (r Result) Err() error {
	if r.Accepted {
		return nil
	}
	switch r.Code {
	case CodeNotLoggedIn:
		return ErrNotLoggedIn
	case CodeUnknownSong:
		return ErrUnknownSong
	case CodeDuplicateUsername:
		return account.ErrDuplicateUsername
	case CodeInvalidCredentials:
		return account.ErrInvalidCredentials
	case CodeQuotaExceeded:
		return account.ErrQuotaExceeded
	case CodeKioskClosed:
		return ErrKioskClosed
	default:
		return errors.Newf("request rejected: %s", r.Code)
	}
}

// Status is a point-in-time view of the kiosk.
type Status struct {
	Phase         state.Phase
	State         playback.State
	NowPlaying    song.Song
	Queue         []song.Song
	QueueDuration time.Duration
	Accounts      int
	Clients       int
	Subscribers   int
}

// Option configures a Manager.
type Option func(*options)

type options struct {
	now     func() time.Time
	catalog *song.Catalog
}

// WithClock overrides the clock used for quota dates.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		o.now = now
	}
}

// WithCatalog overrides the song catalog.
func WithCatalog(c *song.Catalog) Option {
	return func(o *options) {
		o.catalog = c
	}
}

// Manager wires the account store, the queue, the scheduler and the
// filter chain together and serves client contexts.
type Manager struct {
	// Configuration
	config *config.Config
	now    func() time.Time

	// Components
	stateMgr     *state.Manager
	clients      *registry.ClientRegistry
	accounts     *account.Store
	catalog      *song.Catalog
	queue        *playback.Queue
	scheduler    *playback.Scheduler
	filterChain  *filter.Chain
	notification *notification.Hub
}

// NewManager creates a new session manager playing through player.
func NewManager(cfg *config.Config, player media.Player, opts ...Option) *Manager {
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	if o.catalog == nil {
		o.catalog = song.DefaultCatalog()
	}

	hub := notification.NewHub(cfg.Playback.EventBufferSize)
	queue := playback.NewQueue()

	m := &Manager{
		config:       cfg,
		now:          o.now,
		stateMgr:     state.New(uuid.New().String()),
		clients:      registry.NewClientRegistry(o.now),
		accounts:     account.NewStore(account.WithClock(o.now)),
		catalog:      o.catalog,
		queue:        queue,
		filterChain:  filter.NewChain(),
		notification: hub,
	}
	m.scheduler = playback.NewScheduler(queue, player, hub, playback.Config{
		InterTrackDelay: cfg.InterTrackDelay(),
		SongDir:         cfg.SongDir(),
	})

	// Setup filters
	m.setupFilters()

	return m
}

// setupFilters initializes the filter chain.
func (m *Manager) setupFilters() {
	cfg := m.config

	// CatalogFilter
	if cfg.IsFilterEnabled("catalog_filter") {
		f := filter.NewCatalogFilter(m.catalog)
		if err := f.ValidateConfig(cfg.Filters["catalog_filter"].Settings); err != nil {
			zlog.Error().Msgf("failed to validate catalog filter config: %v", err)
		} else {
			m.filterChain.Add(f)
		}
	}

	// DurationLimitFilter
	if cfg.IsFilterEnabled("duration_limit_filter") {
		f := filter.NewDurationLimitFilter()
		if err := f.ValidateConfig(cfg.Filters["duration_limit_filter"].Settings); err != nil {
			zlog.Error().Msgf("failed to validate duration limit filter config: %v", err)
		} else {
			m.filterChain.Add(f)
		}
	}

	// DailyQuotaFilter charges the quota, so it runs last.
	m.filterChain.Add(filter.NewDailyQuotaFilter(m.accounts))
}

// Restore loads saved state. It must be called before Start.
func (m *Manager) Restore(st persistence.State) error {
	if m.stateMgr.GetPhase() != state.PhaseStarting {
		return errors.Newf("cannot restore in phase %s", m.stateMgr.GetPhase())
	}
	m.accounts.Restore(st.Accounts)
	m.queue.Restore(st.Queue)
	zlog.Info().Msgf("state restored: songs=%d accounts=%d", len(st.Queue), len(st.Accounts))
	return nil
}

// Start opens the kiosk for requests and plays any restored songs from
// the head of the queue.
func (m *Manager) Start() error {
	if !m.stateMgr.Open(m.now()) {
		return ErrKioskClosed
	}

	err := m.scheduler.Start()
	if err != nil && !errors.Is(err, playback.ErrQueueEmpty) {
		return errors.Wrap(err, "failed to start playback")
	}
	zlog.Info().Msgf("kiosk open: kiosk_id=%s queue_size=%d", m.stateMgr.KioskID(), m.queue.Len())
	return nil
}

// Snapshot returns the state to persist.
func (m *Manager) Snapshot() persistence.State {
	return persistence.State{
		Queue:    m.queue.Snapshot(),
		Accounts: m.accounts.Snapshot(),
	}
}

// Close stops playback and notifications. It does not wait for the
// inter-track delay.
func (m *Manager) Close() {
	if !m.stateMgr.Close(m.now()) {
		return
	}
	m.scheduler.Close()
	m.notification.Close()
	zlog.Info().Msgf("kiosk closed: kiosk_id=%s", m.stateMgr.KioskID())
}

// Connect creates a new client context.
func (m *Manager) Connect() string {
	id := m.clients.Connect()
	zlog.Debug().Msgf("client connected: client_id=%s", id)
	return id
}

// Disconnect drops a client context, logging it out.
func (m *Manager) Disconnect(clientID string) {
	if _, err := m.Logout(clientID); err != nil {
		return
	}
	m.clients.Disconnect(clientID)
	zlog.Debug().Msgf("client disconnected: client_id=%s", clientID)
}

// Register creates an account and logs the client in as the new user.
func (m *Manager) Register(clientID, username, password string) (Result, error) {
	if _, err := m.clients.Get(clientID); err != nil {
		return Result{}, err
	}

	if _, err := m.accounts.Register(username, password); err != nil {
		if errors.Is(err, account.ErrDuplicateUsername) {
			zlog.Info().Msgf("register rejected: client_id=%s username=%s code=%s", clientID, username, CodeDuplicateUsername)
			return Result{Code: CodeDuplicateUsername}, nil
		}
		return Result{}, err
	}

	if err := m.setSession(clientID, username); err != nil {
		return Result{}, err
	}
	return Result{Accepted: true}, nil
}

// Login authenticates username on the client, replacing any previous login.
func (m *Manager) Login(clientID, username, password string) (Result, error) {
	if _, err := m.clients.Get(clientID); err != nil {
		return Result{}, err
	}

	if _, err := m.accounts.Authenticate(username, password); err != nil {
		if errors.Is(err, account.ErrInvalidCredentials) {
			zlog.Info().Msgf("login rejected: client_id=%s username=%s code=%s", clientID, username, CodeInvalidCredentials)
			return Result{Code: CodeInvalidCredentials}, nil
		}
		return Result{}, err
	}

	if err := m.setSession(clientID, username); err != nil {
		return Result{}, err
	}
	return Result{Accepted: true}, nil
}

// setSession logs username in on the client and notifies observers.
func (m *Manager) setSession(clientID, username string) error {
	if _, err := m.clients.Login(clientID, username); err != nil {
		return err
	}
	zlog.Info().Msgf("logged in: client_id=%s username=%s", clientID, username)
	m.notification.Publish(notification.Event{
		Type:     notification.EventSessionChanged,
		ClientID: clientID,
		Username: username,
	})
	return nil
}

// Logout ends the client's login. Logging out without a login is a no-op.
// Returns the username that was logged out.
func (m *Manager) Logout(clientID string) (string, error) {
	previous, err := m.clients.Logout(clientID)
	if err != nil {
		return "", err
	}
	if previous == "" {
		return "", nil
	}

	zlog.Info().Msgf("logged out: client_id=%s username=%s", clientID, previous)
	m.notification.Publish(notification.Event{
		Type:     notification.EventSessionChanged,
		ClientID: clientID,
	})
	return previous, nil
}

// CurrentUser returns the username logged in on the client.
func (m *Manager) CurrentUser(clientID string) (string, error) {
	c, err := m.clients.Get(clientID)
	if err != nil {
		return "", err
	}
	if !c.LoggedIn() {
		return "", ErrNotLoggedIn
	}
	return c.Username, nil
}

// Remaining returns how many songs the client's user can still add today.
func (m *Manager) Remaining(clientID string) (int, error) {
	username, err := m.CurrentUser(clientID)
	if err != nil {
		return 0, err
	}
	a, err := m.accounts.Get(username)
	if err != nil {
		return 0, err
	}
	return a.Remaining(m.now()), nil
}

// SongAt returns the catalog song at a 1-based position in the given order.
func (m *Manager) SongAt(key song.SortKey, position int) (song.Song, error) {
	s, ok := m.catalog.At(key, position)
	if !ok {
		return song.Song{}, errors.Wrapf(ErrUnknownSong, "no song at position %d", position)
	}
	return s, nil
}

// RequestSongAt requests the catalog song at a 1-based position.
func (m *Manager) RequestSongAt(ctx context.Context, clientID string, key song.SortKey, position int) (Result, error) {
	s, err := m.SongAt(key, position)
	if err != nil {
		zlog.Info().Msgf("song request rejected: client_id=%s position=%d code=%s", clientID, position, CodeUnknownSong)
		return Result{Code: CodeUnknownSong}, nil
	}
	return m.RequestSong(ctx, clientID, s)
}

// RequestSong runs the request through the filter chain and enqueues the
// song when it is accepted. Rejections are returned as codes, not errors.
func (m *Manager) RequestSong(ctx context.Context, clientID string, s song.Song) (Result, error) {
	if !m.stateMgr.IsAccepting() {
		return Result{Code: CodeKioskClosed, Song: s}, nil
	}

	username, err := m.CurrentUser(clientID)
	if err != nil {
		if errors.Is(err, ErrNotLoggedIn) {
			zlog.Info().Msgf("song request rejected: client_id=%s title=%s code=%s", clientID, s.Title, CodeNotLoggedIn)
			return Result{Code: CodeNotLoggedIn, Song: s}, nil
		}
		return Result{}, err
	}

	req := filter.SongRequest{
		ClientID: clientID,
		Username: username,
		Song:     s,
	}
	result := m.filterChain.Execute(ctx, req)
	zlog.Info().Msgf("song request: username=%s title=%s result=%t code=%s", username, s.Title, result.Accepted, result.Code)
	if !result.Accepted {
		return Result{Code: result.Code, Song: s}, nil
	}

	position := m.queue.Enqueue(s)
	return Result{Accepted: true, Position: position, Song: s}, nil
}

// Message returns the user-facing message for a result.
func (m *Manager) Message(r Result) string {
	if r.Accepted {
		return m.config.GetMessage("success")
	}
	return m.config.GetMessage(r.Code)
}

// Catalog returns the song catalog.
func (m *Manager) Catalog() *song.Catalog {
	return m.catalog
}

// Queue returns an ordered copy of the queue.
func (m *Manager) Queue() []song.Song {
	return m.queue.Snapshot()
}

// NowPlaying returns the song being played or waited on.
func (m *Manager) NowPlaying() (song.Song, bool) {
	return m.scheduler.NowPlaying()
}

// GetStatus returns the current kiosk status.
func (m *Manager) GetStatus() *Status {
	now, _ := m.scheduler.NowPlaying()
	return &Status{
		Phase:         m.stateMgr.GetPhase(),
		State:         m.scheduler.State(),
		NowPlaying:    now,
		Queue:         m.queue.Snapshot(),
		QueueDuration: m.queue.TotalDuration(),
		Accounts:      m.accounts.Count(),
		Clients:       m.clients.Count(),
		Subscribers:   m.notification.SubscriberCount(),
	}
}

// GetNotificationHub returns the hub observers subscribe to.
func (m *Manager) GetNotificationHub() *notification.Hub {
	return m.notification
}
