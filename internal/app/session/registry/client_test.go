package registry

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientRegistry_LoginLogout(t *testing.T) {
	now := time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC)
	r := NewClientRegistry(func() time.Time { return now })

	id := r.Connect()
	c, err := r.Get(id)
	require.NoError(t, err)
	assert.False(t, c.LoggedIn())
	assert.Equal(t, now, c.ConnectedAt)

	prev, err := r.Login(id, "alice")
	require.NoError(t, err)
	assert.Empty(t, prev)

	prev, err = r.Login(id, "bob")
	require.NoError(t, err)
	assert.Equal(t, "alice", prev)

	c, err = r.Get(id)
	require.NoError(t, err)
	assert.Equal(t, "bob", c.Username)
	assert.Equal(t, now, c.LoggedInAt)

	prev, err = r.Logout(id)
	require.NoError(t, err)
	assert.Equal(t, "bob", prev)

	// Second logout is a no-op.
	prev, err = r.Logout(id)
	require.NoError(t, err)
	assert.Empty(t, prev)
}

func TestClientRegistry_InvalidClient(t *testing.T) {
	r := NewClientRegistry(nil)

	_, err := r.Get("missing")
	assert.ErrorIs(t, err, ErrInvalidClient)
	_, err = r.Login("missing", "alice")
	assert.ErrorIs(t, err, ErrInvalidClient)
	_, err = r.Logout("missing")
	assert.ErrorIs(t, err, ErrInvalidClient)
}

func TestClientRegistry_IndependentClients(t *testing.T) {
	r := NewClientRegistry(nil)
	a := r.Connect()
	b := r.Connect()
	assert.NotEqual(t, a, b)
	assert.Equal(t, 2, r.Count())

	_, err := r.Login(a, "alice")
	require.NoError(t, err)

	cb, err := r.Get(b)
	require.NoError(t, err)
	assert.False(t, cb.LoggedIn())

	r.Disconnect(a)
	assert.Equal(t, 1, r.Count())
	assert.Len(t, r.All(), 1)
}
