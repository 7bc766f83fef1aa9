package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/muesli/cancelreader"

	"github.com/osa030/kioskbox/internal/app/notification"
	"github.com/osa030/kioskbox/internal/app/session"
	"github.com/osa030/kioskbox/internal/domain/account"
	"github.com/osa030/kioskbox/internal/domain/song"
)

const helpText = `Commands:
  register <username> <password>   create an account and log in
  login <username> <password>      log in
  logout                           log out
  whoami                           show who is logged in
  songs [title|artist|duration]    list the catalog
  add <n>                          add song n from the last listing
  queue                            show the playlist
  now                              show the current song
  help                             show this help
  quit                             leave the kiosk`

// console is one interactive client context on the kiosk terminal.
type console struct {
	mgr      *session.Manager
	in       io.Reader
	clientID string
	title    string
	sortKey  song.SortKey

	mu  sync.Mutex
	out io.Writer
}

func newConsole(mgr *session.Manager, in io.Reader, out io.Writer, title string) *console {
	return &console{
		mgr:      mgr,
		in:       in,
		out:      out,
		clientID: mgr.Connect(),
		title:    title,
		sortKey:  song.SortTitle,
	}
}

// Run reads commands until quit, end of input, or cancellation of a
// cancelreader input.
func (c *console) Run() error {
	defer c.mgr.Disconnect(c.clientID)

	subID, events := c.mgr.GetNotificationHub().Subscribe()
	defer c.mgr.GetNotificationHub().Unsubscribe(subID)
	go c.watch(events)

	c.printf("%s\n%s\n> ", c.title, helpText)

	scanner := bufio.NewScanner(c.in)
	for scanner.Scan() {
		if quit := c.handle(context.Background(), scanner.Text()); quit {
			return nil
		}
		c.printf("> ")
	}
	if err := scanner.Err(); err != nil && !errors.Is(err, cancelreader.ErrCanceled) {
		return errors.Wrap(err, "failed to read input")
	}
	return nil
}

// watch renders playback events until the channel closes.
func (c *console) watch(events <-chan notification.Event) {
	for e := range events {
		switch e.Type {
		case notification.EventNowPlaying:
			c.printf("\n♪ Now playing: %s\n", e.Song)
		case notification.EventPlaybackFailed:
			c.printf("\n! Cannot play %s, skipping\n", e.Song)
		}
	}
}

// handle executes one command line and reports whether to quit.
func (c *console) handle(ctx context.Context, line string) bool {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false
	}
	cmd, args := strings.ToLower(fields[0]), fields[1:]

	switch cmd {
	case "quit", "exit":
		return true
	case "help":
		c.println(helpText)
	case "register":
		c.register(args)
	case "login":
		c.login(args)
	case "logout":
		c.logout()
	case "whoami":
		c.whoami()
	case "songs":
		c.songs(args)
	case "add":
		c.add(ctx, args)
	case "queue":
		c.queue()
	case "now":
		c.now()
	default:
		c.printf("Unknown command %q. Type help for the list of commands.\n", cmd)
	}
	return false
}

func (c *console) register(args []string) {
	if len(args) != 2 {
		c.println("Usage: register <username> <password>")
		return
	}
	r, err := c.mgr.Register(c.clientID, args[0], args[1])
	if err != nil {
		c.printf("Error: %v\n", err)
		return
	}
	if !r.Accepted {
		c.println(c.mgr.Message(r))
		return
	}
	c.printf("Account %s created.\n", args[0])
	c.whoami()
}

func (c *console) login(args []string) {
	if len(args) != 2 {
		c.println("Usage: login <username> <password>")
		return
	}
	r, err := c.mgr.Login(c.clientID, args[0], args[1])
	if err != nil {
		c.printf("Error: %v\n", err)
		return
	}
	if !r.Accepted {
		c.println(c.mgr.Message(r))
		return
	}
	c.whoami()
}

func (c *console) logout() {
	previous, err := c.mgr.Logout(c.clientID)
	if err != nil {
		c.printf("Error: %v\n", err)
		return
	}
	if previous == "" {
		c.println("Nobody is logged in.")
		return
	}
	c.printf("Goodbye, %s.\n", previous)
}

func (c *console) whoami() {
	username, err := c.mgr.CurrentUser(c.clientID)
	if err != nil {
		c.println(c.mgr.Message(session.Result{Code: session.CodeNotLoggedIn}))
		return
	}
	remaining, err := c.mgr.Remaining(c.clientID)
	if err != nil {
		c.printf("Logged in as %s\n", username)
		return
	}
	c.printf("Logged in as %s (%d of %d songs left today)\n", username, remaining, account.DailyQuota)
}

func (c *console) songs(args []string) {
	if len(args) > 0 {
		key, ok := song.ParseSortKey(args[0])
		if !ok {
			c.println("Usage: songs [title|artist|duration]")
			return
		}
		c.sortKey = key
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	printSongs(c.out, c.mgr.Catalog(), c.sortKey)
}

func (c *console) add(ctx context.Context, args []string) {
	if len(args) != 1 {
		c.println("Usage: add <n>")
		return
	}
	n, err := strconv.Atoi(args[0])
	if err != nil {
		c.println("Usage: add <n>")
		return
	}

	r, err := c.mgr.RequestSongAt(ctx, c.clientID, c.sortKey, n)
	if err != nil {
		c.printf("Error: %v\n", err)
		return
	}
	if !r.Accepted {
		c.println(c.mgr.Message(r))
		return
	}
	c.printf("%s (#%d: %s)\n", c.mgr.Message(r), r.Position, r.Song)
}

func (c *console) queue() {
	songs := c.mgr.Queue()
	if len(songs) == 0 {
		c.println("The playlist is empty.")
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintln(c.out, "Playlist:")
	for i, s := range songs {
		marker := " "
		if i == 0 {
			marker = "♪"
		}
		fmt.Fprintf(c.out, "%s %2d. %s\n", marker, i+1, s)
	}
}

func (c *console) now() {
	s, ok := c.mgr.NowPlaying()
	if !ok {
		c.println("Nothing is playing.")
		return
	}
	c.printf("Now playing: %s\n", s)
}

func (c *console) printf(format string, args ...any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintf(c.out, format, args...)
}

func (c *console) println(msg string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintln(c.out, msg)
}

// printSongs prints the catalog as a numbered list in the given order.
func printSongs(w io.Writer, catalog *song.Catalog, key song.SortKey) {
	for i, s := range catalog.Songs(key) {
		fmt.Fprintf(w, "%2d. %-20s %-16s %6s\n", i+1, s.Title, s.Artist, s.Playtime())
	}
}
