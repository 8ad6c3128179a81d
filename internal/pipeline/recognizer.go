// Package pipeline implements the exec recognizer backend: Pulse capture,
// VAD endpointing, and a one-shot transcription command per utterance.
package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/rbright/hark/internal/audio"
	"github.com/rbright/hark/internal/endpoint"
	"github.com/rbright/hark/internal/recognizer"
)

// Source is a running PCM capture. Frames is closed after Stop.
type Source interface {
	Frames() <-chan []byte
	Stop() error
	Device() audio.Device
}

// OpenFunc starts a capture for one listening session.
type OpenFunc func(ctx context.Context) (Source, error)

// PulseSource selects a Pulse input with the given preferences and captures from it.
func PulseSource(input string, fallback string, logger *slog.Logger) OpenFunc {
	return func(ctx context.Context) (Source, error) {
		selection, err := audio.SelectDevice(ctx, input, fallback)
		if err != nil {
			return nil, err
		}
		if selection.Warning != "" && logger != nil {
			logger.Warn(selection.Warning)
		}
		capture, err := audio.StartCapture(ctx, selection.Device)
		if err != nil {
			return nil, err
		}
		return capture, nil
	}
}

// ClassifierFunc builds the voicing classifier for one listening session.
type ClassifierFunc func(cfg endpoint.Config) (endpoint.Classifier, error)

// Options wires a Recognizer. A nil Classifier uses the WebRTC VAD.
type Options struct {
	Open              OpenFunc
	Transcriber       Transcriber
	Classifier        ClassifierFunc
	Endpoint          endpoint.Config
	TranscribeTimeout time.Duration
	AudioDump         bool
	Logger            *slog.Logger
}

// Recognizer is the exec backend of recognizer.Recognizer.
type Recognizer struct {
	opts   Options
	events chan recognizer.Event
	done   chan struct{}
	wg     sync.WaitGroup

	mu        sync.Mutex
	active    *listen
	destroyed bool
}

type listen struct {
	stop     chan struct{}
	stopOnce sync.Once
}

func (l *listen) halt() {
	l.stopOnce.Do(func() { close(l.stop) })
}

type captureOutcome int

const (
	outcomeStopped captureOutcome = iota
	outcomeEnded
	outcomeTimedOut
)

// New returns an idle exec recognizer.
func New(opts Options) *Recognizer {
	if opts.TranscribeTimeout <= 0 {
		opts.TranscribeTimeout = 20 * time.Second
	}
	if opts.Classifier == nil {
		opts.Classifier = func(cfg endpoint.Config) (endpoint.Classifier, error) {
			return endpoint.NewVAD(audio.SampleRate, cfg.Mode)
		}
	}
	return &Recognizer{
		opts:   opts,
		events: make(chan recognizer.Event, 64),
		done:   make(chan struct{}),
	}
}

// Start begins capturing. A Start while an earlier session is still
// capturing or transcribing reports recognizer_busy on the event stream.
func (r *Recognizer) Start(ctx context.Context, req recognizer.Request) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.destroyed {
		return recognizer.ErrDestroyed
	}
	if r.opts.Open == nil || r.opts.Transcriber == nil {
		return errors.New("exec recognizer is missing capture or transcriber wiring")
	}
	if r.active != nil {
		r.wg.Add(1)
		go func() {
			defer r.wg.Done()
			r.emit(recognizer.Failure(recognizer.ErrRecognizerBusy))
		}()
		return nil
	}

	session := &listen{stop: make(chan struct{})}
	r.active = session
	r.wg.Add(1)
	go r.run(ctx, session, req)
	return nil
}

// Stop ends the current capture; the utterance so far is still transcribed.
// The handle stays busy until that session delivers its final event.
func (r *Recognizer) Stop() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.active != nil {
		r.active.halt()
	}
	return nil
}

// Destroy cancels any in-flight work and closes Events.
func (r *Recognizer) Destroy() error {
	r.mu.Lock()
	if r.destroyed {
		r.mu.Unlock()
		return nil
	}
	r.destroyed = true
	if r.active != nil {
		r.active.halt()
		r.active = nil
	}
	close(r.done)
	r.mu.Unlock()

	r.wg.Wait()
	close(r.events)
	return nil
}

func (r *Recognizer) Events() <-chan recognizer.Event {
	return r.events
}

func (r *Recognizer) run(parent context.Context, session *listen, req recognizer.Request) {
	defer r.wg.Done()

	ctx, cancel := context.WithCancel(parent)
	defer cancel()
	go func() {
		select {
		case <-r.done:
			cancel()
		case <-ctx.Done():
		}
	}()

	final, ok := r.listen(ctx, session, req)
	r.release(session)
	if ok {
		r.emit(final)
	}
}

// listen runs one session and returns its terminal event. The caller
// releases the handle before delivering it, so a Start issued in reaction
// to that event is accepted.
func (r *Recognizer) listen(ctx context.Context, session *listen, req recognizer.Request) (recognizer.Event, bool) {
	classifier, err := r.opts.Classifier(r.opts.Endpoint)
	if err != nil {
		r.logWarn("voice activity detector unavailable", "error", err.Error())
		return recognizer.Failure(recognizer.ErrClient), true
	}

	source, err := r.opts.Open(ctx)
	if err != nil {
		r.logWarn("capture start failed", "error", err.Error())
		return recognizer.Failure(captureCode(err)), true
	}
	r.logInfo("capture started", "device", source.Device().String())
	r.emit(recognizer.Ready())

	detector := endpoint.NewDetector(r.opts.Endpoint)
	pcm, outcome := r.capture(ctx, session, source, classifier, detector)

	if ctx.Err() != nil {
		return recognizer.Event{}, false
	}
	r.dumpAudio(pcm)

	switch outcome {
	case outcomeTimedOut:
		return recognizer.Failure(recognizer.ErrSpeechTimeout), true
	case outcomeEnded:
		r.emit(recognizer.EndOfSpeech())
	}

	if !detector.Speaking() || len(pcm) == 0 {
		return recognizer.Failure(recognizer.ErrNoMatch), true
	}

	tctx, tcancel := context.WithTimeout(ctx, r.opts.TranscribeTimeout)
	defer tcancel()

	started := time.Now()
	candidates, err := r.opts.Transcriber.Transcribe(tctx, pcm, req)
	if err != nil {
		if ctx.Err() != nil {
			return recognizer.Event{}, false
		}
		code := codeFor(err)
		r.logWarn("transcription failed", "code", code.String(), "error", err.Error())
		return recognizer.Failure(code), true
	}
	r.logInfo("transcription complete",
		"candidates", len(candidates),
		"bytes", len(pcm),
		"elapsed_ms", time.Since(started).Milliseconds(),
	)
	if len(candidates) == 0 {
		return recognizer.Failure(recognizer.ErrNoMatch), true
	}
	return recognizer.Result(candidates...), true
}

// capture reads frames until the user stops, the endpointer ends the
// utterance, or ctx is canceled. It always stops source and drains it.
func (r *Recognizer) capture(ctx context.Context, session *listen, source Source, classifier endpoint.Classifier, detector *endpoint.Detector) ([]byte, captureOutcome) {
	var pcm []byte
	outcome := outcomeStopped

	frames := source.Frames()
loop:
	for {
		select {
		case frame, ok := <-frames:
			if !ok {
				break loop
			}
			pcm = append(pcm, frame...)

			r.offer(recognizer.RmsChanged(endpoint.RMS(frame)))
			r.offer(recognizer.BufferReceived(frame))

			voiced, err := classifier.Voiced(frame)
			if err != nil {
				r.logDebug("frame classification failed", "error", err.Error())
			}
			switch detector.Feed(voiced, endpoint.FrameDuration(frame, audio.SampleRate)) {
			case endpoint.SpeechBegan:
				r.emit(recognizer.BeginningOfSpeech())
			case endpoint.SpeechEnded, endpoint.MaxDuration:
				outcome = outcomeEnded
				break loop
			case endpoint.NoSpeechTimeout:
				outcome = outcomeTimedOut
				break loop
			}
		case <-session.stop:
			break loop
		case <-ctx.Done():
			break loop
		}
	}

	_ = source.Stop()
	for frame := range frames {
		pcm = append(pcm, frame...)
	}
	return pcm, outcome
}

// release clears session as the active capture if it still is.
func (r *Recognizer) release(session *listen) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.active == session {
		r.active = nil
	}
}

// emit blocks until the event is consumed or the handle is destroyed.
func (r *Recognizer) emit(event recognizer.Event) {
	select {
	case r.events <- event:
	case <-r.done:
	}
}

// offer drops the event when the consumer is behind.
func (r *Recognizer) offer(event recognizer.Event) {
	select {
	case r.events <- event:
	default:
	}
}

func captureCode(err error) recognizer.ErrorCode {
	if errors.Is(err, audio.ErrAccessDenied) {
		return recognizer.ErrInsufficientPermissions
	}
	return recognizer.ErrAudio
}

func (r *Recognizer) logDebug(msg string, args ...any) {
	if r.opts.Logger != nil {
		r.opts.Logger.Debug(msg, args...)
	}
}

func (r *Recognizer) logInfo(msg string, args ...any) {
	if r.opts.Logger != nil {
		r.opts.Logger.Info(msg, args...)
	}
}

func (r *Recognizer) logWarn(msg string, args ...any) {
	if r.opts.Logger != nil {
		r.opts.Logger.Warn(msg, args...)
	}
}

var _ recognizer.Recognizer = (*Recognizer)(nil)
