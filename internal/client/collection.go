package client

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/alfredjeanlab/campus/internal/events"
	"github.com/alfredjeanlab/campus/internal/idgen"
	"github.com/alfredjeanlab/campus/internal/model"
)

// DefaultMatchWindow bounds how far apart an optimistic entry and a created
// event without a client token may be and still be treated as the same
// submission.
const DefaultMatchWindow = 30 * time.Second

// Syncable is a record type a Collection can hold.
type Syncable[T any] interface {
	model.Record
	WithRecordID(id string) T
	SameSubmission(o T) bool
}

// ListFunc fetches a full snapshot of a collection, newest first.
type ListFunc[T any] func(ctx context.Context) ([]T, error)

// CreateFunc issues the HTTP create for an optimistic entry, sending
// clientToken with the request.
type CreateFunc[T any] func(ctx context.Context, clientToken string) (T, error)

// Item is one entry of a Collection.
type Item[T any] struct {
	Record T
	// Pending is set while an optimistic create awaits confirmation.
	Pending bool
}

// LoadError is the error a Collection reports when its snapshot fetch fails.
type LoadError struct {
	Collection model.Collection
	Err        error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("Failed to load %s. Please try again later.", e.Collection)
}

func (e *LoadError) Unwrap() error { return e.Err }

type entry[T any] struct {
	item    T
	pending bool
	token   string
	sentAt  time.Time
}

// Collection is a live, client-side copy of one server collection. It is
// populated from a snapshot fetch and kept current by the realtime feed;
// creates are shown immediately as pending entries and reconciled when the
// server confirms them.
type Collection[T Syncable[T]] struct {
	kind   model.Collection
	list   ListFunc[T]
	source EventSource
	log    *slog.Logger

	// MatchWindow and Now drive the token-less created-event heuristic.
	MatchWindow time.Duration
	Now         func() time.Time

	mu       sync.Mutex
	ctx      context.Context
	items    []entry[T]
	loading  bool
	err      error
	fetchSeq int
	fetching bool
	buffered []events.Envelope
	started  bool
	stopped  bool
	cancels  []func()
	nextSub  int
	onChange map[int]func()
}

// NewCollection returns a Collection of kind fed by list and, when source is
// non-nil, by realtime events.
func NewCollection[T Syncable[T]](kind model.Collection, list ListFunc[T], source EventSource) *Collection[T] {
	return &Collection[T]{
		kind:        kind,
		list:        list,
		source:      source,
		log:         slog.Default(),
		MatchWindow: DefaultMatchWindow,
		Now:         time.Now,
		loading:     true,
		onChange:    make(map[int]func()),
	}
}

// NewSchools returns a Collection of schools served by c.
func NewSchools(c *HTTPClient, source EventSource) *Collection[model.School] {
	return NewCollection[model.School](model.CollectionSchools, c.ListSchools, source)
}

// NewAnnouncements returns a Collection of announcements served by c.
func NewAnnouncements(c *HTTPClient, source EventSource) *Collection[model.Announcement] {
	return NewCollection[model.Announcement](model.CollectionAnnouncements, c.ListAnnouncements, source)
}

// NewInquiries returns a Collection of inquiries served by c.
func NewInquiries(c *HTTPClient, source EventSource) *Collection[model.Inquiry] {
	return NewCollection[model.Inquiry](model.CollectionInquiries, c.ListInquiries, source)
}

// Start subscribes to the collection's events and performs the initial
// snapshot fetch. Every later reconnect of the source triggers a fresh fetch
// using ctx. A fetch failure is reported by Err; Start returns it as well.
func (c *Collection[T]) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.started || c.stopped {
		c.mu.Unlock()
		return nil
	}
	c.started = true
	c.ctx = ctx
	c.mu.Unlock()

	if c.source != nil {
		var cancels []func()
		for _, op := range []events.Op{events.OpCreated, events.OpUpdated, events.OpDeleted} {
			cancels = append(cancels, c.source.On(events.EventName(c.kind, op), c.handle))
		}
		cancels = append(cancels, c.source.OnStatus(c.statusChanged))
		c.mu.Lock()
		c.cancels = cancels
		c.mu.Unlock()
	}
	return c.Refetch(ctx)
}

// Stop unsubscribes from the source. The collection does not change after
// Stop returns.
func (c *Collection[T]) Stop() {
	c.mu.Lock()
	if c.stopped {
		c.mu.Unlock()
		return
	}
	c.stopped = true
	cancels := c.cancels
	c.cancels = nil
	c.mu.Unlock()
	for _, cancel := range cancels {
		cancel()
	}
}

// Refetch replaces the collection with a fresh snapshot. Events received
// while the fetch is in flight are applied on top of the snapshot. Pending
// entries survive. On failure existing entries are kept and Err is set.
func (c *Collection[T]) Refetch(ctx context.Context) error {
	c.mu.Lock()
	if c.stopped {
		c.mu.Unlock()
		return nil
	}
	c.fetchSeq++
	seq := c.fetchSeq
	c.fetching = true
	c.loading = true
	c.buffered = nil
	c.mu.Unlock()
	c.changed()

	list, err := c.list(ctx)

	c.mu.Lock()
	if c.stopped || seq != c.fetchSeq {
		c.mu.Unlock()
		return nil
	}
	c.fetching = false
	c.loading = false
	if err != nil {
		c.err = &LoadError{Collection: c.kind, Err: err}
		c.log.Warn("collection fetch failed", "collection", c.kind, "error", err)
	} else {
		c.err = nil
		items := make([]entry[T], 0, len(list)+len(c.items))
		for _, e := range c.items {
			if e.pending {
				items = append(items, e)
			}
		}
		for _, rec := range list {
			items = append(items, entry[T]{item: rec})
		}
		c.items = items
	}
	buffered := c.buffered
	c.buffered = nil
	for _, env := range buffered {
		c.applyLocked(env)
	}
	err = c.err
	c.mu.Unlock()

	c.changed()
	return err
}

// Create shows draft immediately as a pending entry and calls send to
// perform the HTTP create. The entry is confirmed by whichever of the HTTP
// response and the matching created event arrives first, and removed if
// send fails.
func (c *Collection[T]) Create(ctx context.Context, draft T, send CreateFunc[T]) (T, error) {
	tempID := idgen.TempID()
	token := idgen.Token()

	c.mu.Lock()
	if c.stopped {
		c.mu.Unlock()
		return send(ctx, token)
	}
	c.items = append([]entry[T]{{
		item:    draft.WithRecordID(tempID),
		pending: true,
		token:   token,
		sentAt:  c.Now(),
	}}, c.items...)
	c.mu.Unlock()
	c.changed()

	rec, err := send(ctx, token)

	c.mu.Lock()
	if c.stopped {
		c.mu.Unlock()
		return rec, err
	}
	// A matching created event may already have confirmed the entry, and
	// later events may have changed or removed the record since.
	if i := c.indexLocked(tempID); i >= 0 {
		if err != nil {
			c.removeLocked(i)
		} else {
			c.confirmLocked(tempID, rec)
		}
	}
	c.mu.Unlock()
	c.changed()

	if err != nil {
		var zero T
		return zero, err
	}
	return rec, nil
}

// Items returns a copy of the current entries, newest first.
func (c *Collection[T]) Items() []Item[T] {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Item[T], len(c.items))
	for i, e := range c.items {
		out[i] = Item[T]{Record: e.item, Pending: e.pending}
	}
	return out
}

// Records returns the current records, newest first, pending ones included.
func (c *Collection[T]) Records() []T {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]T, len(c.items))
	for i, e := range c.items {
		out[i] = e.item
	}
	return out
}

// Loading reports whether a snapshot fetch is in flight.
func (c *Collection[T]) Loading() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loading
}

// Err returns the error of the last snapshot fetch, if it failed.
func (c *Collection[T]) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

// Online reports whether realtime updates are being received.
func (c *Collection[T]) Online() bool {
	return c.source != nil && c.source.Online()
}

// OnChange registers fn to be called after every state change. fn runs
// without the collection's lock held.
func (c *Collection[T]) OnChange(fn func()) func() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.nextSub++
	id := c.nextSub
	c.onChange[id] = fn
	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		delete(c.onChange, id)
	}
}

func (c *Collection[T]) changed() {
	c.mu.Lock()
	fns := make([]func(), 0, len(c.onChange))
	for _, fn := range c.onChange {
		fns = append(fns, fn)
	}
	c.mu.Unlock()
	for _, fn := range fns {
		fn()
	}
}

func (c *Collection[T]) statusChanged(online bool) {
	if online {
		c.mu.Lock()
		ctx := c.ctx
		stopped := c.stopped
		c.mu.Unlock()
		if !stopped && ctx != nil {
			go c.Refetch(ctx) //nolint:errcheck
		}
		return
	}
	c.changed()
}

// handle applies an event, or buffers it while a snapshot is in flight.
func (c *Collection[T]) handle(env events.Envelope) {
	c.mu.Lock()
	if c.stopped {
		c.mu.Unlock()
		return
	}
	if c.fetching {
		c.buffered = append(c.buffered, env)
		c.mu.Unlock()
		return
	}
	changed := c.applyLocked(env)
	c.mu.Unlock()
	if changed {
		c.changed()
	}
}

func (c *Collection[T]) applyLocked(env events.Envelope) bool {
	switch env.Event {
	case events.EventName(c.kind, events.OpCreated):
		var rec T
		if err := json.Unmarshal(env.Data, &rec); err != nil {
			c.log.Warn("skipping malformed event", "event", env.Event, "error", err)
			return false
		}
		c.createdLocked(rec, env.ClientToken)
		return true
	case events.EventName(c.kind, events.OpUpdated):
		var rec T
		if err := json.Unmarshal(env.Data, &rec); err != nil {
			c.log.Warn("skipping malformed event", "event", env.Event, "error", err)
			return false
		}
		i := c.indexLocked(rec.RecordID())
		if i < 0 || c.items[i].pending {
			return false
		}
		c.items[i] = entry[T]{item: rec}
		return true
	case events.EventName(c.kind, events.OpDeleted):
		var d events.Deleted
		if err := json.Unmarshal(env.Data, &d); err != nil {
			c.log.Warn("skipping malformed event", "event", env.Event, "error", err)
			return false
		}
		i := c.indexLocked(d.ID)
		if i < 0 {
			return false
		}
		c.removeLocked(i)
		return true
	}
	return false
}

// createdLocked reconciles a created record: a pending entry carrying the
// same client token is confirmed; otherwise an entry with the same id is
// replaced; otherwise, for token-less events, a pending entry with the same
// submitted fields sent within MatchWindow is confirmed; otherwise the record
// is prepended.
func (c *Collection[T]) createdLocked(rec T, token string) {
	if token != "" {
		for _, e := range c.items {
			if e.pending && e.token == token {
				c.confirmLocked(e.item.RecordID(), rec)
				return
			}
		}
	}
	if i := c.indexLocked(rec.RecordID()); i >= 0 {
		c.items[i] = entry[T]{item: rec}
		return
	}
	if token == "" {
		for _, e := range c.items {
			if e.pending && e.item.SameSubmission(rec) && c.withinWindow(e.sentAt, rec.RecordCreatedAt()) {
				c.confirmLocked(e.item.RecordID(), rec)
				return
			}
		}
	}
	c.items = append([]entry[T]{{item: rec}}, c.items...)
}

func (c *Collection[T]) withinWindow(sent, created time.Time) bool {
	d := created.Sub(sent)
	if d < 0 {
		d = -d
	}
	return d <= c.MatchWindow
}

// confirmLocked resolves the pending entry tempID as rec. An entry already
// holding rec's id is at least as fresh as rec and is kept; the pending entry
// is then dropped.
func (c *Collection[T]) confirmLocked(tempID string, rec T) {
	i := c.indexLocked(tempID)
	if i < 0 || !c.items[i].pending {
		return
	}
	if c.indexLocked(rec.RecordID()) >= 0 {
		c.removeLocked(i)
		return
	}
	c.items[i] = entry[T]{item: rec}
}

func (c *Collection[T]) indexLocked(id string) int {
	for i, e := range c.items {
		if e.item.RecordID() == id {
			return i
		}
	}
	return -1
}

func (c *Collection[T]) removeLocked(i int) {
	c.items = append(c.items[:i], c.items[i+1:]...)
}
