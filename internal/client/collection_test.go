package client

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alfredjeanlab/campus/internal/events"
	"github.com/alfredjeanlab/campus/internal/model"
)

// fakeSource is an EventSource whose events are delivered synchronously by emit.
type fakeSource struct {
	mu       sync.Mutex
	nextID   int
	handlers map[string]map[int]Handler
	status   map[int]func(bool)
	online   bool
}

func newFakeSource() *fakeSource {
	return &fakeSource{handlers: make(map[string]map[int]Handler), status: make(map[int]func(bool))}
}

func (f *fakeSource) On(name string, h Handler) func() {
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

func (f *fakeSource) OnStatus(fn func(bool)) func() {
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

func (f *fakeSource) Online() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.online
}

func (f *fakeSource) subscribers() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := len(f.status)
	for _, hs := range f.handlers {
		n += len(hs)
	}
	return n
}

func (f *fakeSource) setOnline(online bool) {
	f.mu.Lock()
	f.online = online
	var fns []func(bool)
	for _, fn := range f.status {
		fns = append(fns, fn)
	}
	f.mu.Unlock()
	for _, fn := range fns {
		fn(online)
	}
}

func (f *fakeSource) emit(t *testing.T, e events.Event, token string) {
	t.Helper()
	env, err := events.Encode(e, token)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	f.mu.Lock()
	var hs []Handler
	for _, h := range f.handlers[env.Event] {
		hs = append(hs, h)
	}
	f.mu.Unlock()
	for _, h := range hs {
		h(env)
	}
}

// fakeList serves a mutable snapshot.
type fakeList struct {
	mu    sync.Mutex
	items []model.School
	err   error
	calls int
	// gate, when set, blocks each call until it receives a value.
	gate chan struct{}
}

func (l *fakeList) list(ctx context.Context) ([]model.School, error) {
	l.mu.Lock()
	l.calls++
	gate := l.gate
	l.mu.Unlock()
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.err != nil {
		return nil, l.err
	}
	return append([]model.School(nil), l.items...), nil
}

func (l *fakeList) callCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.calls
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

var t0 = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

func school(id, name string, at time.Time) model.School {
	return model.School{ID: id, Name: name, Image: id + ".png", CreatedAt: at, UpdatedAt: at}
}

func newTestCollection(t *testing.T, items ...model.School) (*Collection[model.School], *fakeSource, *fakeList) {
	t.Helper()
	src := newFakeSource()
	fl := &fakeList{items: items}
	c := NewCollection[model.School](model.CollectionSchools, fl.list, src)
	c.Now = func() time.Time { return t0 }
	c.log = discardLogger()
	if err := c.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	t.Cleanup(c.Stop)
	return c, src, fl
}

func ids(c *Collection[model.School]) []string {
	var out []string
	for _, r := range c.Records() {
		out = append(out, r.ID)
	}
	return out
}

func requireIDs(t *testing.T, c *Collection[model.School], want ...string) {
	t.Helper()
	got := ids(c)
	if len(got) != len(want) {
		t.Fatalf("ids = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("ids = %v, want %v", got, want)
		}
	}
}

func TestCollection_StartLoadsSnapshot(t *testing.T) {
	c, _, _ := newTestCollection(t, school("sch-2", "B", t0), school("sch-1", "A", t0))
	if c.Loading() {
		t.Fatal("loading should be false after fetch")
	}
	if c.Err() != nil {
		t.Fatalf("Err = %v", c.Err())
	}
	requireIDs(t, c, "sch-2", "sch-1")
}

func TestCollection_FetchFailure(t *testing.T) {
	src := newFakeSource()
	fl := &fakeList{err: errors.New("connection refused")}
	c := NewCollection[model.School](model.CollectionSchools, fl.list, src)
	c.log = discardLogger()
	defer c.Stop()

	err := c.Start(context.Background())
	var le *LoadError
	if !errors.As(err, &le) {
		t.Fatalf("expected *LoadError, got %v", err)
	}
	if err.Error() != "Failed to load schools. Please try again later." {
		t.Fatalf("message = %q", err.Error())
	}
	if c.Loading() || len(c.Records()) != 0 {
		t.Fatal("expected empty, not loading")
	}
	if fl.callCount() != 1 {
		t.Fatalf("no automatic retry expected, got %d calls", fl.callCount())
	}

	fl.mu.Lock()
	fl.err = nil
	fl.items = []model.School{school("sch-1", "A", t0)}
	fl.mu.Unlock()
	if err := c.Refetch(context.Background()); err != nil {
		t.Fatalf("Refetch: %v", err)
	}
	if c.Err() != nil {
		t.Fatalf("Err after refetch = %v", c.Err())
	}
	requireIDs(t, c, "sch-1")
}

func TestCollection_CreatedFromOtherClientPrepends(t *testing.T) {
	c, src, _ := newTestCollection(t, school("sch-1", "A", t0))
	sc := school("sch-2", "B", t0.Add(time.Minute))

	src.emit(t, events.SchoolCreated{School: &sc}, "someone-elses-token")
	requireIDs(t, c, "sch-2", "sch-1")

	// A duplicate delivery replaces in place.
	sc.Name = "B2"
	src.emit(t, events.SchoolCreated{School: &sc}, "")
	requireIDs(t, c, "sch-2", "sch-1")
	if c.Records()[0].Name != "B2" {
		t.Fatalf("name = %q", c.Records()[0].Name)
	}
}

func TestCollection_UpdatedAndDeleted(t *testing.T) {
	c, src, _ := newTestCollection(t, school("sch-2", "B", t0), school("sch-1", "A", t0))

	upd := school("sch-1", "A renamed", t0)
	src.emit(t, events.SchoolUpdated{School: &upd}, "")
	requireIDs(t, c, "sch-2", "sch-1")
	if c.Records()[1].Name != "A renamed" {
		t.Fatalf("name = %q", c.Records()[1].Name)
	}

	ghost := school("sch-9", "Ghost", t0)
	src.emit(t, events.SchoolUpdated{School: &ghost}, "")
	requireIDs(t, c, "sch-2", "sch-1")

	src.emit(t, events.SchoolDeleted{ID: "sch-2"}, "")
	requireIDs(t, c, "sch-1")

	src.emit(t, events.SchoolDeleted{ID: "sch-2"}, "")
	requireIDs(t, c, "sch-1")
}

func TestCollection_CreateConfirmedByTokenThenResponse(t *testing.T) {
	c, src, _ := newTestCollection(t, school("sch-1", "A", t0))
	confirmed := school("sch-2", "New", t0)

	rec, err := c.Create(context.Background(), model.School{Name: "New"}, func(_ context.Context, token string) (model.School, error) {
		items := c.Items()
		if len(items) != 2 || !items[0].Pending || items[0].Record.Name != "New" {
			t.Fatalf("expected a pending entry first, got %+v", items)
		}
		if items[0].Record.ID[:4] != "tmp-" {
			t.Fatalf("temp id = %q", items[0].Record.ID)
		}
		// The broadcast reaches this client before the HTTP response.
		src.emit(t, events.SchoolCreated{School: &confirmed}, token)
		if got := c.Items(); len(got) != 2 || got[0].Pending || got[0].Record.ID != "sch-2" {
			t.Fatalf("expected event to confirm the entry, got %+v", got)
		}
		return confirmed, nil
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if rec.ID != "sch-2" {
		t.Fatalf("rec = %+v", rec)
	}
	requireIDs(t, c, "sch-2", "sch-1")
}

func TestCollection_CreateConfirmedByResponseThenEvent(t *testing.T) {
	c, src, _ := newTestCollection(t)
	confirmed := school("sch-5", "Lakeside", t0)

	var token string
	_, err := c.Create(context.Background(), model.School{Name: "Lakeside"}, func(_ context.Context, tok string) (model.School, error) {
		token = tok
		return confirmed, nil
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	requireIDs(t, c, "sch-5")
	if c.Items()[0].Pending {
		t.Fatal("entry should be confirmed")
	}

	src.emit(t, events.SchoolCreated{School: &confirmed}, token)
	requireIDs(t, c, "sch-5")
}

func TestCollection_LateResponseAfterDelete(t *testing.T) {
	c, src, _ := newTestCollection(t, school("sch-1", "A", t0))
	confirmed := school("sch-2", "New", t0)

	_, err := c.Create(context.Background(), model.School{Name: "New"}, func(_ context.Context, token string) (model.School, error) {
		src.emit(t, events.SchoolCreated{School: &confirmed}, token)
		src.emit(t, events.SchoolDeleted{ID: "sch-2"}, "")
		requireIDs(t, c, "sch-1")
		return confirmed, nil
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	requireIDs(t, c, "sch-1")
}

func TestCollection_LateResponseAfterUpdate(t *testing.T) {
	c, src, _ := newTestCollection(t)
	confirmed := school("sch-2", "New", t0)

	_, err := c.Create(context.Background(), model.School{Name: "New"}, func(_ context.Context, token string) (model.School, error) {
		src.emit(t, events.SchoolCreated{School: &confirmed}, token)
		renamed := school("sch-2", "Renamed", t0.Add(time.Second))
		src.emit(t, events.SchoolUpdated{School: &renamed}, "")
		return confirmed, nil
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	requireIDs(t, c, "sch-2")
	if got := c.Records()[0].Name; got != "Renamed" {
		t.Fatalf("name = %q, want %q", got, "Renamed")
	}
}

// TestCollection_CreateConvergesInAnyOrder delivers the snapshot containing
// the new record, its created event and the HTTP response in every order.
func TestCollection_CreateConvergesInAnyOrder(t *testing.T) {
	const (
		snapshot = "snapshot"
		event    = "event"
		response = "response"
	)
	orders := [][]string{
		{snapshot, event, response},
		{snapshot, response, event},
		{event, snapshot, response},
		{event, response, snapshot},
		{response, snapshot, event},
		{response, event, snapshot},
	}
	for _, order := range orders {
		t.Run(strings.Join(order, "-"), func(t *testing.T) {
			c, src, fl := newTestCollection(t)
			confirmed := school("sch-2", "New", t0)

			var token string
			step := func(name string) {
				switch name {
				case snapshot:
					fl.mu.Lock()
					fl.items = []model.School{confirmed}
					fl.mu.Unlock()
					if err := c.Refetch(context.Background()); err != nil {
						t.Fatalf("Refetch: %v", err)
					}
				case event:
					src.emit(t, events.SchoolCreated{School: &confirmed}, token)
				}
			}

			at := slices.Index(order, response)
			_, err := c.Create(context.Background(), model.School{Name: "New"}, func(_ context.Context, tok string) (model.School, error) {
				token = tok
				for _, name := range order[:at] {
					step(name)
				}
				return confirmed, nil
			})
			if err != nil {
				t.Fatalf("Create: %v", err)
			}
			for _, name := range order[at+1:] {
				step(name)
			}

			requireIDs(t, c, "sch-2")
			if c.Items()[0].Pending {
				t.Fatal("entry should be confirmed")
			}
		})
	}
}

func TestCollection_CreateRollsBack(t *testing.T) {
	c, _, _ := newTestCollection(t, school("sch-1", "A", t0))
	boom := errors.New("HTTP 400: name is required")

	_, err := c.Create(context.Background(), model.School{}, func(context.Context, string) (model.School, error) {
		return model.School{}, boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v", err)
	}
	requireIDs(t, c, "sch-1")
}

func TestCollection_HeuristicMatchWithoutToken(t *testing.T) {
	c, src, _ := newTestCollection(t)

	_, _ = c.Create(context.Background(), model.School{Name: "Hilltop"}, func(_ context.Context, _ string) (model.School, error) {
		// An event without a token for the same submission, created within the window.
		match := school("sch-7", "Hilltop", t0.Add(5*time.Second))
		src.emit(t, events.SchoolCreated{School: &match}, "")
		if got := c.Items(); len(got) != 1 || got[0].Pending {
			t.Fatalf("expected heuristic match, got %+v", got)
		}

		// Same fields, but far outside the window: a different submission.
		other := school("sch-8", "Hilltop", t0.Add(10*time.Minute))
		src.emit(t, events.SchoolCreated{School: &other}, "")
		return match, nil
	})
	requireIDs(t, c, "sch-8", "sch-7")
}

func TestCollection_HeuristicRejectsDifferentFields(t *testing.T) {
	c, src, _ := newTestCollection(t)

	_, _ = c.Create(context.Background(), model.School{Name: "Hilltop"}, func(context.Context, string) (model.School, error) {
		other := school("sch-3", "Valley", t0)
		src.emit(t, events.SchoolCreated{School: &other}, "")
		items := c.Items()
		if len(items) != 2 || !items[1].Pending {
			t.Fatalf("pending entry should be untouched, got %+v", items)
		}
		return school("sch-4", "Hilltop", t0), nil
	})
	requireIDs(t, c, "sch-3", "sch-4")
}

func TestCollection_EventsDuringFetchAreBuffered(t *testing.T) {
	src := newFakeSource()
	gate := make(chan struct{})
	fl := &fakeList{items: []model.School{school("sch-1", "A", t0)}, gate: gate}
	c := NewCollection[model.School](model.CollectionSchools, fl.list, src)
	c.log = discardLogger()
	defer c.Stop()

	done := make(chan error, 1)
	go func() { done <- c.Start(context.Background()) }()

	// Wait until the fetch is in flight.
	deadline := time.Now().Add(2 * time.Second)
	for fl.callCount() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("fetch never started")
		}
		time.Sleep(time.Millisecond)
	}

	// sch-2 was created after the snapshot was read; sch-1 is then deleted.
	late := school("sch-2", "B", t0)
	src.emit(t, events.SchoolCreated{School: &late}, "")
	src.emit(t, events.SchoolDeleted{ID: "sch-1"}, "")
	if len(c.Records()) != 0 {
		t.Fatal("events must not apply before the snapshot")
	}

	close(gate)
	if err := <-done; err != nil {
		t.Fatalf("Start: %v", err)
	}
	requireIDs(t, c, "sch-2")
}

func TestCollection_ReconnectRefetches(t *testing.T) {
	c, src, fl := newTestCollection(t, school("sch-1", "A", t0))

	fl.mu.Lock()
	fl.items = []model.School{school("sch-3", "C", t0), school("sch-1", "A", t0)}
	fl.mu.Unlock()

	changed := make(chan struct{}, 16)
	c.OnChange(func() { changed <- struct{}{} })

	src.setOnline(false)
	if c.Online() {
		t.Fatal("expected offline")
	}
	src.setOnline(true)
	if !c.Online() {
		t.Fatal("expected online")
	}

	deadline := time.After(2 * time.Second)
	for {
		if got := ids(c); len(got) == 2 && !c.Loading() {
			break
		}
		select {
		case <-changed:
		case <-deadline:
			t.Fatalf("refetch did not happen, ids = %v", ids(c))
		}
	}
	requireIDs(t, c, "sch-3", "sch-1")
	if fl.callCount() != 2 {
		t.Fatalf("expected 2 fetches, got %d", fl.callCount())
	}
}

func TestCollection_StopIgnoresEvents(t *testing.T) {
	c, src, _ := newTestCollection(t, school("sch-1", "A", t0))
	c.Stop()

	if src.subscribers() != 0 {
		t.Fatalf("expected no subscriptions after Stop, got %d", src.subscribers())
	}
	sc := school("sch-2", "B", t0)
	src.emit(t, events.SchoolCreated{School: &sc}, "")
	c.handle(mustEnvelope(t, events.SchoolDeleted{ID: "sch-1"}))
	requireIDs(t, c, "sch-1")
}

func TestCollection_IgnoresMalformedEvents(t *testing.T) {
	c, _, _ := newTestCollection(t, school("sch-1", "A", t0))
	c.handle(events.Envelope{Event: events.NameSchoolCreated, Data: json.RawMessage(`"nope"`)})
	c.handle(events.Envelope{Event: events.NameSchoolDeleted, Data: json.RawMessage(`[]`)})
	requireIDs(t, c, "sch-1")
}

func mustEnvelope(t *testing.T, e events.Event) events.Envelope {
	t.Helper()
	env, err := events.Encode(e, "")
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	return env
}
