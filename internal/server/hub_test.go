package server

import (
	"fmt"
	"sync"
	"testing"
	"time"
)

func TestHub_BroadcastAndReceive(t *testing.T) {
	h := newHub()
	a := h.add("a")
	b := h.add("b")
	defer h.remove(a)
	defer h.remove(b)

	h.broadcast("school_created", []byte(`{"event":"school_created"}`))

	for _, c := range []*hubClient{a, b} {
		select {
		case msg := <-c.ch:
			if msg.Name != "school_created" || string(msg.Frame) != `{"event":"school_created"}` {
				t.Fatalf("client %s got %+v", c.id, msg)
			}
		case <-time.After(time.Second):
			t.Fatalf("client %s timed out", c.id)
		}
	}
}

func TestHub_Remove(t *testing.T) {
	h := newHub()
	c := h.add("a")
	h.remove(c)
	h.remove(c) // second remove must not panic

	h.broadcast("school_deleted", []byte(`{}`))

	if _, ok := <-c.ch; ok {
		t.Fatal("channel should be closed after remove")
	}
	if h.len() != 0 {
		t.Fatalf("expected 0 clients, got %d", h.len())
	}
}

func TestHub_SlowClientDropsInsteadOfBlocking(t *testing.T) {
	h := newHub()
	slow := h.add("slow")
	defer h.remove(slow)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < hubBufferSize*3; i++ {
			h.broadcast("school_created", []byte(fmt.Sprintf(`{"n":%d}`, i)))
		}
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("broadcast blocked on a slow client")
	}
	if got := len(slow.ch); got != hubBufferSize {
		t.Fatalf("expected a full buffer of %d, got %d", hubBufferSize, got)
	}
	// The oldest frames are kept.
	if msg := <-slow.ch; string(msg.Frame) != `{"n":0}` {
		t.Fatalf("first frame = %s", msg.Frame)
	}
}

func TestHub_Close(t *testing.T) {
	h := newHub()
	c := h.add("a")
	h.close()
	h.close()

	if _, ok := <-c.ch; ok {
		t.Fatal("channel should be closed")
	}
	h.remove(c)

	late := h.add("late")
	if _, ok := <-late.ch; ok {
		t.Fatal("clients added after close should be closed immediately")
	}
	if h.len() != 0 {
		t.Fatalf("expected 0 clients, got %d", h.len())
	}
}

func TestHub_ConcurrentMembership(t *testing.T) {
	h := newHub()
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			c := h.add(fmt.Sprint(i))
			h.broadcast("x", []byte(`{}`))
			h.remove(c)
		}(i)
		go func() {
			defer wg.Done()
			h.broadcast("y", []byte(`{}`))
		}()
	}
	wg.Wait()
	if h.len() != 0 {
		t.Fatalf("expected 0 clients, got %d", h.len())
	}
}
