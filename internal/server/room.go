package server

import (
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
)

// viewer is one connected client, websocket or event stream.
type viewer struct {
	id      string
	send    chan []byte
	done    chan struct{}
	once    sync.Once
	dropped atomic.Uint64
}

func newViewer(buffer int) *viewer {
	return &viewer{
		id:   uuid.NewString(),
		send: make(chan []byte, buffer),
		done: make(chan struct{}),
	}
}

// offer queues a payload without blocking; a slow viewer loses frames.
func (v *viewer) offer(payload []byte) bool {
	select {
	case v.send <- payload:
		return true
	default:
		v.dropped.Add(1)
		return false
	}
}

func (v *viewer) close() { v.once.Do(func() { close(v.done) }) }

// room fans frames of one duel out to its viewers and keeps the most recent
// ones so late joiners start with some context.
type room struct {
	mu      sync.Mutex
	viewers map[*viewer]struct{}
	backlog [][]byte
	limit   int
}

func newRoom(limit int) *room {
	return &room{viewers: make(map[*viewer]struct{}), limit: limit}
}

func (r *room) broadcast(payload []byte) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.limit > 0 {
		if len(r.backlog) == r.limit {
			copy(r.backlog, r.backlog[1:])
			r.backlog = r.backlog[:r.limit-1]
		}
		r.backlog = append(r.backlog, payload)
	}
	for v := range r.viewers {
		v.offer(payload)
	}
}

func (r *room) join(v *viewer) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, payload := range r.backlog {
		v.offer(payload)
	}
	r.viewers[v] = struct{}{}
}

func (r *room) leave(v *viewer) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, ok := r.viewers[v]
	delete(r.viewers, v)
	return ok
}

func (r *room) closeAll() {
	r.mu.Lock()
	defer r.mu.Unlock()

	for v := range r.viewers {
		v.close()
	}
}
