// Package registry tracks the client contexts connected to the kiosk.
package registry

import (
	"sort"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
)

var (
	ErrInvalidClient = errors.New("invalid client")
)

// Client represents one client context and the account logged in on it.
type Client struct {
	ID          string
	Username    string // Empty when nobody is logged in
	ConnectedAt time.Time
	LoggedInAt  time.Time
}

// LoggedIn reports whether a user is logged in on the client.
func (c Client) LoggedIn() bool {
	return c.Username != ""
}

// ClientRegistry manages client contexts with thread-safe access.
type ClientRegistry struct {
	mu      sync.RWMutex
	clients map[string]*Client
	now     func() time.Time
}

// NewClientRegistry creates a new client registry.
func NewClientRegistry(now func() time.Time) *ClientRegistry {
	if now == nil {
		now = time.Now
	}
	return &ClientRegistry{
		clients: make(map[string]*Client),
		now:     now,
	}
}

// Connect adds a new client context and returns its ID.
func (r *ClientRegistry) Connect() string {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := uuid.New().String()
	r.clients[id] = &Client{ID: id, ConnectedAt: r.now()}
	return id
}

// Disconnect removes a client context.
func (r *ClientRegistry) Disconnect(clientID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.clients, clientID)
}

// Get returns a copy of the client.
func (r *ClientRegistry) Get(clientID string) (Client, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.clients[clientID]
	if !ok {
		return Client{}, ErrInvalidClient
	}
	return *c, nil
}

// Login binds username to the client, replacing any previous login.
// Returns the previously logged in username.
func (r *ClientRegistry) Login(clientID, username string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.clients[clientID]
	if !ok {
		return "", ErrInvalidClient
	}
	previous := c.Username
	c.Username = username
	c.LoggedInAt = r.now()
	return previous, nil
}

// Logout clears the client's login. Logging out twice is not an error.
// Returns the username that was logged in, if any.
func (r *ClientRegistry) Logout(clientID string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.clients[clientID]
	if !ok {
		return "", ErrInvalidClient
	}
	previous := c.Username
	c.Username = ""
	c.LoggedInAt = time.Time{}
	return previous, nil
}

// All returns copies of all clients ordered by connection time.
func (r *ClientRegistry) All() []Client {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]Client, 0, len(r.clients))
	for _, c := range r.clients {
		result = append(result, *c)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].ConnectedAt.Before(result[j].ConnectedAt)
	})
	return result
}

// Count returns the number of clients.
func (r *ClientRegistry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.clients)
}
