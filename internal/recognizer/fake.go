package recognizer

import (
	"context"
	"sync"
)

// Fake is a scripted recognizer for tests: it records calls and delivers
// whatever Emit is given.
type Fake struct {
	mu        sync.Mutex
	events    chan Event
	done      chan struct{}
	sending   sync.RWMutex
	requests  []Request
	stops     int
	destroyed bool

	// StartErr, when set, is returned from Start.
	StartErr error
}

// NewFake returns a Fake with a buffered event stream.
func NewFake() *Fake {
	return &Fake{events: make(chan Event, 64), done: make(chan struct{})}
}

func (f *Fake) Start(_ context.Context, req Request) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.destroyed {
		return ErrDestroyed
	}
	if f.StartErr != nil {
		return f.StartErr
	}
	f.requests = append(f.requests, req)
	return nil
}

func (f *Fake) Stop() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stops++
	return nil
}

func (f *Fake) Destroy() error {
	f.mu.Lock()
	if f.destroyed {
		f.mu.Unlock()
		return nil
	}
	f.destroyed = true
	close(f.done)
	f.mu.Unlock()

	// Wait out in-flight Emit calls before closing the stream.
	f.sending.Lock()
	close(f.events)
	f.sending.Unlock()
	return nil
}

func (f *Fake) Events() <-chan Event {
	return f.events
}

// Emit delivers one event unless the handle was destroyed. It blocks while
// the stream is full without holding the lock Start and Stop need.
func (f *Fake) Emit(event Event) {
	f.sending.RLock()
	defer f.sending.RUnlock()

	select {
	case <-f.done:
		return
	default:
	}
	select {
	case f.events <- event:
	case <-f.done:
	}
}

// Starts reports how many Start calls succeeded.
func (f *Fake) Starts() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.requests)
}

// Stops reports how many Stop calls were made.
func (f *Fake) Stops() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.stops
}

// LastRequest returns the request passed to the most recent Start.
func (f *Fake) LastRequest() (Request, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.requests) == 0 {
		return Request{}, false
	}
	return f.requests[len(f.requests)-1], true
}

// Destroyed reports whether Destroy was called.
func (f *Fake) Destroyed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.destroyed
}
