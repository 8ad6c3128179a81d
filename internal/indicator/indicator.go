// Package indicator mirrors session state outside the terminal: desktop
// notifications for listening and notices, plus short audio cues.
package indicator

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/gen2brain/beeep"
	"github.com/rbright/hark/internal/config"
	"github.com/rbright/hark/internal/hypr"
)

// Indicator is the session-facing contract. Close drains pending output.
type Indicator interface {
	ShowListening(context.Context)
	ShowIdle(context.Context)
	Notice(context.Context, string)
	Close()
}

// Noop ignores every call.
type Noop struct{}

func (Noop) ShowListening(context.Context)  {}
func (Noop) ShowIdle(context.Context)       {}
func (Noop) Notice(context.Context, string) {}
func (Noop) Close()                         {}

const (
	dispatchTimeout = 400 * time.Millisecond
	queueSize       = 16
)

var errQueueFull = errors.New("indicator queue full")

// Notifier routes indicator output to the configured backend. Backend calls
// run in order on a worker goroutine so callers never wait on them.
type Notifier struct {
	cfg    config.IndicatorConfig
	logger *slog.Logger

	// Overridable for tests.
	beeepNotify func(title, message, icon string) error
	playCue     func(context.Context, cueKind) error

	mu          sync.Mutex
	listeningID uint32
	soundMu     sync.Mutex

	queue     chan job
	startOnce sync.Once
	closeOnce sync.Once
	closed    chan struct{}
	drained   chan struct{}
}

type job struct {
	ctx context.Context
	fn  func(context.Context) error
}

// New returns a Notifier for cfg.
func New(cfg config.IndicatorConfig, logger *slog.Logger) *Notifier {
	return &Notifier{
		cfg:    cfg,
		logger: logger,
		beeepNotify: func(title, message, icon string) error {
			return beeep.Notify(title, message, icon)
		},
		playCue: emitCue,
		queue:   make(chan job, queueSize),
		closed:  make(chan struct{}),
		drained: make(chan struct{}),
	}
}

// Close stops accepting output and waits for queued calls to finish.
func (n *Notifier) Close() {
	n.closeOnce.Do(func() {
		n.startOnce.Do(func() { close(n.drained) })
		close(n.closed)
	})
	<-n.drained
}

// ShowListening plays the start cue and shows a persistent listening notice.
func (n *Notifier) ShowListening(ctx context.Context) {
	n.cue(cueStart)
	if !n.enabled() {
		return
	}
	text := n.cfg.TextListening
	n.run(ctx, func(ctx context.Context) error {
		switch n.backend() {
		case "hypr":
			return hypr.Notify(ctx, hypr.IconInfo, 300000, hypr.ColorListening, text)
		case "beeep":
			return n.beeepNotify(n.appName(), text, "")
		default:
			return n.showDesktopListening(ctx, text)
		}
	})
}

// ShowIdle plays the stop cue and removes the listening notice.
func (n *Notifier) ShowIdle(ctx context.Context) {
	n.cue(cueStop)
	if !n.enabled() {
		return
	}
	n.run(ctx, func(ctx context.Context) error {
		switch n.backend() {
		case "hypr":
			return hypr.DismissNotify(ctx)
		case "beeep":
			return nil
		default:
			return n.dismissDesktopListening(ctx)
		}
	})
}

// Notice shows a transient message for the configured notice timeout.
func (n *Notifier) Notice(ctx context.Context, text string) {
	text = strings.TrimSpace(text)
	if !n.enabled() || text == "" {
		return
	}
	timeout := n.cfg.NoticeTimeoutMS
	if timeout <= 0 {
		timeout = 2000
	}
	n.run(ctx, func(ctx context.Context) error {
		switch n.backend() {
		case "hypr":
			return hypr.Notify(ctx, hypr.IconError, timeout, hypr.ColorNotice, text)
		case "beeep":
			return n.beeepNotify(n.appName(), text, "")
		default:
			_, err := desktopNotify(ctx, n.appName(), 0, text, timeout)
			return err
		}
	})
}

func (n *Notifier) enabled() bool {
	return n.cfg.Enable && n.backend() != "none"
}

func (n *Notifier) backend() string {
	return strings.ToLower(strings.TrimSpace(n.cfg.Backend))
}

func (n *Notifier) appName() string {
	if name := strings.TrimSpace(n.cfg.DesktopAppName); name != "" {
		return name
	}
	return "hark"
}

// showDesktopListening replaces the previous listening notification, if any.
func (n *Notifier) showDesktopListening(ctx context.Context, text string) error {
	n.mu.Lock()
	replaceID := n.listeningID
	n.mu.Unlock()

	id, err := desktopNotify(ctx, n.appName(), replaceID, text, 0)
	if err != nil {
		return err
	}

	n.mu.Lock()
	n.listeningID = id
	n.mu.Unlock()
	return nil
}

func (n *Notifier) dismissDesktopListening(ctx context.Context) error {
	n.mu.Lock()
	id := n.listeningID
	n.listeningID = 0
	n.mu.Unlock()

	if id == 0 {
		return nil
	}
	return desktopDismiss(ctx, id)
}

// run queues a backend call. A full queue or a closed Notifier drops it.
func (n *Notifier) run(ctx context.Context, fn func(context.Context) error) {
	select {
	case <-n.closed:
		return
	default:
	}
	n.startOnce.Do(func() { go n.work() })

	select {
	case n.queue <- job{ctx: context.WithoutCancel(ctx), fn: fn}:
	default:
		n.log("indicator dispatch dropped", errQueueFull)
	}
}

// work runs queued calls with a bounded timeout each. Failures are
// debug-logged.
func (n *Notifier) work() {
	defer close(n.drained)
	for {
		select {
		case j := <-n.queue:
			n.dispatch(j)
		case <-n.closed:
			for {
				select {
				case j := <-n.queue:
					n.dispatch(j)
				default:
					return
				}
			}
		}
	}
}

func (n *Notifier) dispatch(j job) {
	ctx, cancel := context.WithTimeout(j.ctx, dispatchTimeout)
	defer cancel()
	if err := j.fn(ctx); err != nil {
		n.log("indicator dispatch failed", err)
	}
}

// cue plays asynchronously; cues never overlap.
func (n *Notifier) cue(kind cueKind) {
	if !n.cfg.SoundEnable {
		return
	}
	go func() {
		n.soundMu.Lock()
		defer n.soundMu.Unlock()

		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := n.playCue(ctx, kind); err != nil {
			n.log("indicator audio cue failed", err)
		}
	}()
}

func (n *Notifier) log(message string, err error) {
	if n.logger == nil || err == nil {
		return
	}
	n.logger.Debug(message, "error", err.Error())
}
