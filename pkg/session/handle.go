package session

import (
	"context"
	"sync"
	"time"
)

// Handle gives exclusive access to a [Session].
//
// The session is owned by one goroutine started by [NewHandle]. [Handle.Do]
// submits a function to that goroutine and waits for it, so operations on
// the session are serialized without callers holding a lock.
type Handle struct {
	id   string
	reqs chan request
	quit chan struct{}
	done chan struct{}
	once sync.Once

	mu       sync.Mutex
	lastUsed time.Time
}

type request struct {
	fn   func(*Session) error
	errc chan error
}

// NewHandle starts the owning goroutine for s. Call [Handle.Close] to stop it.
func NewHandle(s *Session) *Handle {
	h := &Handle{
		id:       s.ID,
		reqs:     make(chan request),
		quit:     make(chan struct{}),
		done:     make(chan struct{}),
		lastUsed: time.Now(),
	}
	go h.loop(s)
	return h
}

func (h *Handle) loop(s *Session) {
	defer close(h.done)
	for {
		select {
		case req := <-h.reqs:
			req.errc <- req.fn(s)
		case <-h.quit:
			return
		}
	}
}

// ID returns the session ID.
func (h *Handle) ID() string { return h.id }

// LastUsed returns when the handle last accepted an operation.
func (h *Handle) LastUsed() time.Time {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.lastUsed
}

// Do runs fn on the owning goroutine and returns its error.
//
// Do returns ctx.Err() if ctx is done before fn starts, and [ErrClosed] once
// the handle is closed. An fn that already started always runs to the end;
// Do still waits for it so fn never outlives the call.
func (h *Handle) Do(ctx context.Context, fn func(*Session) error) error {
	req := request{fn: fn, errc: make(chan error, 1)}
	select {
	case h.reqs <- req:
	case <-h.quit:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
	h.mu.Lock()
	h.lastUsed = time.Now()
	h.mu.Unlock()
	return <-req.errc
}

// Close stops the owning goroutine after the running operation finishes.
// It is safe to call more than once.
func (h *Handle) Close() {
	h.once.Do(func() { close(h.quit) })
	<-h.done
}
