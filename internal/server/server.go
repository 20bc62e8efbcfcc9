// Package server implements the campus HTTP API, the realtime hub that fans
// change events out to connected clients, and the optional gRPC health
// endpoint.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gorilla/websocket"

	"github.com/alfredjeanlab/campus/internal/events"
	"github.com/alfredjeanlab/campus/internal/store"
	"github.com/alfredjeanlab/campus/internal/uploads"
)

// Options configures a Server.
type Options struct {
	// PublicURL is the origin used for image URLs. When empty it is derived
	// from each request.
	PublicURL string
	// CORSOrigins lists the origins allowed to call the API and open realtime
	// connections. Empty or "*" allows any origin.
	CORSOrigins []string
	Logger      *slog.Logger
}

// Server serves the campus API backed by a record store and an upload store.
type Server struct {
	store     store.Store
	uploads   uploads.Store
	publisher events.Publisher
	hub       *hub
	publicURL string
	origins   []string
	log       *slog.Logger
	upgrader  websocket.Upgrader
}

// New returns a Server. A nil publisher disables NATS forwarding.
func New(st store.Store, up uploads.Store, pub events.Publisher, opts Options) *Server {
	if pub == nil {
		pub = events.NoopPublisher{}
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		store:     st,
		uploads:   up,
		publisher: pub,
		hub:       newHub(),
		publicURL: strings.TrimRight(opts.PublicURL, "/"),
		origins:   opts.CORSOrigins,
		log:       logger,
	}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 4096,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			return origin == "" || originAllowed(s.origins, origin)
		},
	}
	return s
}

// Clients returns the number of connected realtime clients.
func (s *Server) Clients() int { return s.hub.len() }

// Close disconnects every realtime client.
func (s *Server) Close() {
	s.hub.close()
}

// notify announces a completed write. The envelope is published to NATS and
// broadcast to every realtime client. Failures on any path are logged and
// never reach the caller; the write has already been committed.
func (s *Server) notify(ctx context.Context, e events.Event, clientToken string) {
	env, err := events.Encode(e, clientToken)
	if err != nil {
		s.log.Warn("failed to encode event", "event", events.Name(e), "error", err)
		return
	}
	subject := events.Subject(e.Collection(), e.Op())
	if err := s.publisher.Publish(ctx, subject, env); err != nil {
		s.log.Warn("failed to publish event", "event", env.Event, "subject", subject, "error", err)
	}
	frame, err := json.Marshal(env)
	if err != nil {
		s.log.Warn("failed to encode broadcast frame", "event", env.Event, "error", err)
		return
	}
	s.hub.broadcast(env.Event, frame)
	s.log.Debug("event broadcast", "event", env.Event, "clients", s.hub.len())
}

// origin returns the public origin used to build image URLs for r.
func (s *Server) origin(r *http.Request) string {
	if s.publicURL != "" {
		return s.publicURL
	}
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if p := r.Header.Get("X-Forwarded-Proto"); p != "" {
		scheme = strings.TrimSpace(strings.Split(p, ",")[0])
	}
	return scheme + "://" + r.Host
}

// removeImage deletes a stored image, logging failures.
func (s *Server) removeImage(ctx context.Context, name string) {
	if name == "" {
		return
	}
	if err := s.uploads.Delete(ctx, name); err != nil && !errors.Is(err, uploads.ErrNotFound) {
		s.log.Warn("failed to remove image", "image", name, "error", err)
	}
}
