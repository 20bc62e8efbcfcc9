package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/alfredjeanlab/campus/internal/events"
)

// Reconnect defaults: five consecutive failed attempts, one second apart.
const (
	DefaultReconnectAttempts = 5
	DefaultReconnectBackoff  = time.Second
)

// Handler receives a realtime envelope.
type Handler func(env events.Envelope)

// EventSource is the subset of Feed a Collection depends on.
type EventSource interface {
	// On registers h for events named name and returns a function that
	// removes it.
	On(name string, h Handler) func()
	// OnStatus registers fn to be told about every connect and disconnect.
	OnStatus(fn func(online bool)) func()
	Online() bool
}

// Feed is a WebSocket connection to the server's realtime hub that dispatches
// each received envelope to the handlers registered for its event name.
type Feed struct {
	url      string
	dialer   *websocket.Dialer
	attempts int
	backoff  time.Duration
	log      *slog.Logger

	mu       sync.Mutex
	nextID   int
	handlers map[string]map[int]Handler
	status   map[int]func(bool)
	online   bool
	clientID string
}

// FeedOption configures a Feed.
type FeedOption func(*Feed)

// WithReconnect sets how many consecutive failed connection attempts Run
// makes before giving up, and the pause between them.
func WithReconnect(attempts int, backoff time.Duration) FeedOption {
	return func(f *Feed) {
		f.attempts = attempts
		f.backoff = backoff
	}
}

// WithFeedLogger sets the logger for connection state changes.
func WithFeedLogger(l *slog.Logger) FeedOption {
	return func(f *Feed) { f.log = l }
}

// NewFeed returns a Feed for the server at baseURL (http or https); the
// WebSocket endpoint is derived from it. Call Run to connect.
func NewFeed(baseURL string, opts ...FeedOption) *Feed {
	f := &Feed{
		url:      WebSocketURL(baseURL),
		dialer:   &websocket.Dialer{HandshakeTimeout: 10 * time.Second, Proxy: http.ProxyFromEnvironment},
		attempts: DefaultReconnectAttempts,
		backoff:  DefaultReconnectBackoff,
		log:      slog.Default(),
		handlers: make(map[string]map[int]Handler),
		status:   make(map[int]func(bool)),
	}
	for _, o := range opts {
		o(f)
	}
	return f
}

// WebSocketURL maps a server base URL onto its realtime endpoint.
func WebSocketURL(baseURL string) string {
	u := strings.TrimRight(baseURL, "/")
	switch {
	case strings.HasPrefix(u, "https://"):
		u = "wss://" + strings.TrimPrefix(u, "https://")
	case strings.HasPrefix(u, "http://"):
		u = "ws://" + strings.TrimPrefix(u, "http://")
	}
	return u + "/ws"
}

// On registers h for events named name.
func (f *Feed) On(name string, h Handler) func() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	id := f.nextID
	if f.handlers[name] == nil {
		f.handlers[name] = make(map[int]Handler)
	}
	f.handlers[name][id] = h
	return func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		delete(f.handlers[name], id)
	}
}

// OnStatus registers fn for connection state changes.
func (f *Feed) OnStatus(fn func(online bool)) func() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	id := f.nextID
	f.status[id] = fn
	return func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		delete(f.status, id)
	}
}

// Online reports whether the feed currently holds a live connection.
func (f *Feed) Online() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.online
}

// ClientID returns the identifier the server assigned to the current
// connection, or "" when offline.
func (f *Feed) ClientID() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.clientID
}

// ErrReconnectExhausted is returned by Run after the configured number of
// consecutive connection attempts has failed.
var ErrReconnectExhausted = errors.New("realtime feed: reconnect attempts exhausted")

// Run connects and dispatches events until ctx is cancelled, reconnecting
// after each disconnect. It returns nil when ctx ends and an error wrapping
// ErrReconnectExhausted once too many consecutive attempts fail. A successful
// connection resets the attempt count.
func (f *Feed) Run(ctx context.Context) error {
	failures := 0
	for {
		connected, err := f.session(ctx)
		if ctx.Err() != nil {
			return nil
		}
		if connected {
			failures = 0
			f.log.Info("realtime feed disconnected", "url", f.url, "error", err)
		} else {
			failures++
			f.log.Warn("realtime feed connection failed", "url", f.url, "attempt", failures, "error", err)
			if failures >= f.attempts {
				return fmt.Errorf("%w after %d attempts: %v", ErrReconnectExhausted, failures, err)
			}
		}

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(f.backoff):
		}
	}
}

// session holds one connection. connected reports whether the server's
// greeting was received.
func (f *Feed) session(ctx context.Context) (connected bool, err error) {
	conn, _, err := f.dialer.DialContext(ctx, f.url, nil)
	if err != nil {
		return false, err
	}
	defer conn.Close()

	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if connected {
				f.setOnline(false, "")
			}
			return connected, err
		}
		var env events.Envelope
		if err := json.Unmarshal(data, &env); err != nil {
			f.log.Debug("skipping undecodable realtime frame", "error", err)
			continue
		}
		if env.Event == events.NameConnected {
			var hello events.Connected
			_ = json.Unmarshal(env.Data, &hello)
			connected = true
			f.setOnline(true, hello.ClientID)
			continue
		}
		f.dispatch(env)
	}
}

func (f *Feed) setOnline(online bool, clientID string) {
	f.mu.Lock()
	f.online = online
	f.clientID = clientID
	fns := make([]func(bool), 0, len(f.status))
	for _, fn := range f.status {
		fns = append(fns, fn)
	}
	f.mu.Unlock()

	if online {
		f.log.Info("realtime feed connected", "url", f.url, "client", clientID)
	}
	for _, fn := range fns {
		fn(online)
	}
}

func (f *Feed) dispatch(env events.Envelope) {
	f.mu.Lock()
	hs := make([]Handler, 0, len(f.handlers[env.Event]))
	for _, h := range f.handlers[env.Event] {
		hs = append(hs, h)
	}
	f.mu.Unlock()
	for _, h := range hs {
		h(env)
	}
}
