package session

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rbright/hark/internal/audio"
	"github.com/rbright/hark/internal/endpoint"
	"github.com/rbright/hark/internal/fsm"
	"github.com/rbright/hark/internal/pipeline"
	"github.com/rbright/hark/internal/recognizer"
	"github.com/stretchr/testify/require"
)

// feedSource hands frames to the capture loop one at a time until stopped.
type feedSource struct {
	frames   chan []byte
	stopOnce sync.Once
	stopped  chan struct{}
}

func newFeedSource() *feedSource {
	return &feedSource{frames: make(chan []byte), stopped: make(chan struct{})}
}

// feed blocks until n frames were read or the source stopped.
func (s *feedSource) feed(n int) {
	for i := 0; i < n; i++ {
		select {
		case s.frames <- make([]byte, audio.FrameBytes):
		case <-s.stopped:
			return
		}
	}
}

func (s *feedSource) Frames() <-chan []byte { return s.frames }
func (s *feedSource) Device() audio.Device  { return audio.Device{ID: "test-mic"} }

func (s *feedSource) Stop() error {
	s.stopOnce.Do(func() {
		close(s.stopped)
		close(s.frames)
	})
	return nil
}

type alwaysVoiced struct{}

func (alwaysVoiced) Voiced([]byte) (bool, error) { return true, nil }

type heldTranscriber struct {
	entered chan struct{}
	release chan struct{}
	text    string
}

func (h *heldTranscriber) Transcribe(ctx context.Context, _ []byte, _ recognizer.Request) ([]string, error) {
	h.entered <- struct{}{}
	select {
	case <-h.release:
		return []string{h.text}, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func TestLateResultDoesNotEndNextExecSession(t *testing.T) {
	sources := make(chan *feedSource, 4)
	transcriber := &heldTranscriber{
		entered: make(chan struct{}, 4),
		release: make(chan struct{}),
		text:    "first utterance",
	}
	rec := pipeline.New(pipeline.Options{
		Open: func(context.Context) (pipeline.Source, error) {
			source := newFeedSource()
			sources <- source
			return source, nil
		},
		Transcriber: transcriber,
		Classifier: func(endpoint.Config) (endpoint.Classifier, error) {
			return alwaysVoiced{}, nil
		},
	})
	t.Cleanup(func() { _ = rec.Destroy() })

	h := start(t, func(o *Options) { o.Recognizer = rec })

	require.Equal(t, fsm.StateListening, h.toggle(t).State)
	first := receiveSource(t, sources)
	first.feed(5)
	require.Equal(t, fsm.StateIdle, h.toggle(t).State)

	select {
	case <-transcriber.entered:
	case <-time.After(2 * time.Second):
		t.Fatal("first utterance was not transcribed")
	}

	// Still transcribing: the next session is refused instead of overlapping.
	h.toggle(t)
	snap := h.waitFor(t, func(s Snapshot) bool {
		return s.State == fsm.StateIdle && s.Notice == recognizer.ErrRecognizerBusy.Notice()
	})
	require.Empty(t, snap.Entries)

	close(transcriber.release)
	snap = h.waitFor(t, func(s Snapshot) bool { return len(s.Entries) == 1 })
	require.Equal(t, "first utterance", snap.Entries[0].Text)
	require.Equal(t, fsm.StateIdle, snap.State)

	require.Equal(t, fsm.StateListening, h.toggle(t).State)
	receiveSource(t, sources)
	require.Never(t, func() bool {
		return h.ctrl.Snapshot().State != fsm.StateListening
	}, 150*time.Millisecond, 10*time.Millisecond)
	require.Len(t, h.ctrl.Snapshot().Entries, 1)
}

func receiveSource(t *testing.T, sources <-chan *feedSource) *feedSource {
	t.Helper()
	select {
	case source := <-sources:
		return source
	case <-time.After(2 * time.Second):
		t.Fatal("capture was not opened")
		return nil
	}
}
