package main

import (
	"bytes"
	"context"
	"io"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/muesli/cancelreader"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osa030/kioskbox/internal/app/session"
	"github.com/osa030/kioskbox/internal/domain/song"
	"github.com/osa030/kioskbox/internal/infra/config"
	"github.com/osa030/kioskbox/internal/infra/media"
)

func newTestConsole(t *testing.T) (*console, *bytes.Buffer) {
	t.Helper()
	cfg := config.Default()
	cfg.Playback.InterTrackDelayMs = 10
	// Slow enough that the first song is still playing during the test.
	mgr := session.NewManager(cfg, media.NewSimulatedPlayer(media.SimulatedConfig{Speed: 0.01}))
	require.NoError(t, mgr.Start())
	t.Cleanup(mgr.Close)

	var out bytes.Buffer
	return newConsole(mgr, strings.NewReader(""), &out, "Test Kiosk"), &out
}

func send(t *testing.T, c *console, out *bytes.Buffer, line string) string {
	t.Helper()
	out.Reset()
	c.handle(context.Background(), line)
	c.mu.Lock()
	defer c.mu.Unlock()
	return out.String()
}

func TestConsole_Session(t *testing.T) {
	c, out := newTestConsole(t)

	assert.Contains(t, send(t, c, out, "add 1"), "No user logged in")
	assert.Contains(t, send(t, c, out, "whoami"), "No user logged in")
	registered := send(t, c, out, "register alice pw1")
	assert.Contains(t, registered, "Account alice created")
	assert.Contains(t, registered, "Logged in as alice (3 of 3 songs left today)")
	assert.Contains(t, send(t, c, out, "register alice pw2"), "Username unavailable")
	assert.Contains(t, send(t, c, out, "login alice nope"), "Username/Password is incorrect")
	assert.Contains(t, send(t, c, out, "login alice pw1"), "Logged in as alice (3 of 3 songs left today)")

	assert.Contains(t, send(t, c, out, "songs duration"), " 1. Pokemon Capture")
	assert.Contains(t, send(t, c, out, "add 7"), "Song added to the queue. (#1: Pierre Langer - \"UntameableFire\" (4:42))")
	assert.Contains(t, send(t, c, out, "add 1"), "#2")
	assert.Contains(t, send(t, c, out, "add 99"), "not in the catalog")
	assert.Contains(t, send(t, c, out, "add 2"), "#3")
	assert.Contains(t, send(t, c, out, "add 3"), "three songs today")

	q := send(t, c, out, "queue")
	assert.Contains(t, q, "♪  1. Pierre Langer")
	assert.Contains(t, q, "   3. Kevin MacLeod - \"LopingSting\"")
	assert.Contains(t, send(t, c, out, "now"), "UntameableFire")

	assert.Contains(t, send(t, c, out, "logout"), "Goodbye, alice.")
	assert.Contains(t, send(t, c, out, "logout"), "Nobody is logged in.")
}

func TestConsole_Usage(t *testing.T) {
	c, out := newTestConsole(t)

	tests := []struct {
		line string
		want string
	}{
		{line: "register alice", want: "Usage: register"},
		{line: "login", want: "Usage: login"},
		{line: "add", want: "Usage: add"},
		{line: "add two", want: "Usage: add"},
		{line: "songs loudness", want: "Usage: songs"},
		{line: "dance", want: `Unknown command "dance"`},
		{line: "help", want: "add <n>"},
		{line: "queue", want: "The playlist is empty."},
		{line: "now", want: "Nothing is playing."},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			assert.Contains(t, send(t, c, out, tt.line), tt.want)
		})
	}

	assert.True(t, c.handle(context.Background(), "quit"))
	assert.False(t, c.handle(context.Background(), "   "))
}

func TestConsole_RunUntilQuit(t *testing.T) {
	cfg := config.Default()
	mgr := session.NewManager(cfg, media.NewSimulatedPlayer(media.SimulatedConfig{}))
	require.NoError(t, mgr.Start())
	defer mgr.Close()

	var out bytes.Buffer
	in := strings.NewReader("register bob pw\nquit\nwhoami\n")
	c := newConsole(mgr, in, &out, "Test Kiosk")
	require.NoError(t, c.Run())

	c.mu.Lock()
	defer c.mu.Unlock()
	text := out.String()
	assert.Contains(t, text, "Test Kiosk")
	assert.Contains(t, text, "Logged in as bob")
	assert.Equal(t, 1, strings.Count(text, "Logged in as bob"), "input after quit is not read")
	assert.Equal(t, 0, mgr.GetStatus().Clients)
}

func TestConsole_RunStopsOnCancel(t *testing.T) {
	mgr := session.NewManager(config.Default(), media.NewSimulatedPlayer(media.SimulatedConfig{}))
	require.NoError(t, mgr.Start())
	defer mgr.Close()

	r, w, err := os.Pipe()
	require.NoError(t, err)
	defer r.Close()
	defer w.Close()

	input, err := cancelreader.NewReader(r)
	require.NoError(t, err)
	defer input.Close()

	var out bytes.Buffer
	c := newConsole(mgr, input, &out, "Test Kiosk")
	doneCh := make(chan error, 1)
	go func() {
		doneCh <- c.Run()
	}()

	_, err = w.Write([]byte("register carol pw\n"))
	require.NoError(t, err)
	require.Eventually(t, func() bool {
		_, err := mgr.CurrentUser(c.clientID)
		return err == nil
	}, 2*time.Second, 5*time.Millisecond)

	// The write end stays open, so the console is blocked in a read.
	require.True(t, input.Cancel())
	select {
	case err := <-doneCh:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("console kept reading after cancel")
	}
	assert.Equal(t, 0, mgr.GetStatus().Clients)
}

func TestStopConsole_Uninterruptible(t *testing.T) {
	input, err := cancelreader.NewReader(struct{ io.Reader }{strings.NewReader("")})
	require.NoError(t, err)

	// Nobody ever reports on doneCh; stopConsole must not wait for it.
	stopped := make(chan struct{})
	go func() {
		stopConsole(input, make(chan error))
		close(stopped)
	}()
	select {
	case <-stopped:
	case <-time.After(time.Second):
		t.Fatal("stopConsole waited on an input it could not interrupt")
	}
}

func TestPrintSongs(t *testing.T) {
	var buf bytes.Buffer
	printSongs(&buf, song.DefaultCatalog(), song.SortArtist)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 7)
	assert.Contains(t, lines[0], "Determined Tumbao")
	assert.Contains(t, lines[6], "Pokemon Capture")
	assert.True(t, strings.HasSuffix(lines[6], "0:05"))
}

func TestConfirm(t *testing.T) {
	assert.True(t, confirm("always", "Save?"))
	assert.False(t, confirm("never", "Save?"))
}
