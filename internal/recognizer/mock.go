package recognizer

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Mock is a self-contained recognizer that "hears" a canned utterance after
// a fixed delay. It backs the mock backend used for demos and diagnostics.
type Mock struct {
	delay  time.Duration
	events chan Event

	mu        sync.Mutex
	active    chan struct{}
	count     int
	destroyed bool
	done      chan struct{}
	wg        sync.WaitGroup
}

// NewMock creates a mock recognizer whose sessions end after delay.
func NewMock(delay time.Duration) *Mock {
	if delay <= 0 {
		delay = 1500 * time.Millisecond
	}
	return &Mock{
		delay:  delay,
		events: make(chan Event, 32),
		done:   make(chan struct{}),
	}
}

func (m *Mock) Start(ctx context.Context, _ Request) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.destroyed {
		return ErrDestroyed
	}
	if m.active != nil {
		m.wg.Add(1)
		go func() {
			defer m.wg.Done()
			m.emit(Failure(ErrRecognizerBusy))
		}()
		return nil
	}

	m.count++
	stop := make(chan struct{})
	m.active = stop
	text := fmt.Sprintf("[mock transcript %d]", m.count)

	m.wg.Add(1)
	go m.run(ctx, stop, text)
	return nil
}

func (m *Mock) run(ctx context.Context, stop chan struct{}, text string) {
	defer m.wg.Done()

	m.emit(Ready())
	m.emit(BeginningOfSpeech())

	timer := time.NewTimer(m.delay)
	defer timer.Stop()

	select {
	case <-timer.C:
		m.emit(EndOfSpeech())
	case <-stop:
	case <-ctx.Done():
		m.finish(stop)
		return
	case <-m.done:
		return
	}
	m.finish(stop)
	m.emit(Result(text))
}

// finish clears the active session if it is still stop.
func (m *Mock) finish(stop chan struct{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.active == stop {
		m.active = nil
	}
}

func (m *Mock) Stop() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.active != nil {
		close(m.active)
		m.active = nil
	}
	return nil
}

func (m *Mock) Destroy() error {
	m.mu.Lock()
	if m.destroyed {
		m.mu.Unlock()
		return nil
	}
	m.destroyed = true
	close(m.done)
	m.mu.Unlock()

	m.wg.Wait()
	close(m.events)
	return nil
}

func (m *Mock) Events() <-chan Event {
	return m.events
}

// emit blocks until the event is delivered or the handle is destroyed.
func (m *Mock) emit(event Event) {
	select {
	case m.events <- event:
	case <-m.done:
	}
}
