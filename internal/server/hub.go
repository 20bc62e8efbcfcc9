package server

import "sync"

// hubBufferSize is the number of frames queued per client before new
// broadcasts are dropped for that client.
const hubBufferSize = 64

// hubMessage is a single encoded envelope queued for a client.
type hubMessage struct {
	Name  string // event name, used as the SSE event field
	Frame []byte // JSON-encoded events.Envelope
}

// hubClient is one live realtime connection, whatever its transport.
type hubClient struct {
	id string
	ch chan hubMessage
}

// hub owns the set of connected realtime clients. Clients are added when a
// transport connects and removed when it disconnects; nothing else mutates
// the set.
type hub struct {
	mu      sync.RWMutex
	clients map[*hubClient]struct{}
	closed  bool
}

func newHub() *hub {
	return &hub{clients: make(map[*hubClient]struct{})}
}

// add registers a client with the given id. After close, add returns a client
// whose channel is already closed.
func (h *hub) add(id string) *hubClient {
	c := &hubClient{id: id, ch: make(chan hubMessage, hubBufferSize)}
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		close(c.ch)
		return c
	}
	h.clients[c] = struct{}{}
	return c
}

// remove unregisters c and closes its channel. Removing twice is a no-op.
func (h *hub) remove(c *hubClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; !ok {
		return
	}
	delete(h.clients, c)
	close(c.ch)
}

// broadcast queues frame for every connected client. A client whose buffer is
// full misses the frame; broadcast never blocks.
func (h *hub) broadcast(name string, frame []byte) {
	msg := hubMessage{Name: name, Frame: frame}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients {
		select {
		case c.ch <- msg:
		default:
		}
	}
}

// len returns the number of connected clients.
func (h *hub) len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// close disconnects every client and rejects new ones.
func (h *hub) close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	for c := range h.clients {
		delete(h.clients, c)
		close(c.ch)
	}
}
