// Package session coordinates the toggle-to-listen lifecycle: the permission
// gate, the availability check, recognizer start/stop, and routing of
// recognizer events into the transcript log or a transient notice.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rbright/hark/internal/availability"
	"github.com/rbright/hark/internal/fsm"
	"github.com/rbright/hark/internal/permission"
	"github.com/rbright/hark/internal/recognizer"
	"github.com/rbright/hark/internal/transcript"
)

var (
	// ErrStopped is returned by actions once Run has exited.
	ErrStopped = errors.New("session controller stopped")
	// ErrDisabled is the reply error for a toggle on a disabled trigger.
	ErrDisabled = errors.New("trigger disabled")
)

// Gate is the session-facing subset of the permission gate.
type Gate interface {
	Authorized() bool
	CanRequest() bool
	Request(context.Context) <-chan permission.Decision
}

// Indicator is the session-facing subset of indicator behavior.
type Indicator interface {
	ShowListening(context.Context)
	ShowIdle(context.Context)
	Notice(context.Context, string)
}

type noopIndicator struct{}

func (noopIndicator) ShowListening(context.Context)  {}
func (noopIndicator) ShowIdle(context.Context)       {}
func (noopIndicator) Notice(context.Context, string) {}

// Labels are the user-visible texts of the trigger and status notices.
type Labels struct {
	Idle        string
	Listening   string
	Unavailable string
	Denied      string
	Granted     string
}

// Options wires a Controller. Recognizer is required.
type Options struct {
	Recognizer recognizer.Recognizer
	Request    recognizer.Request
	Gate       Gate
	Resolver   availability.Resolver
	Indicator  Indicator
	Committer  Committer
	Labels     Labels

	// DisableOnDeny disables the trigger when consent is denied.
	DisableOnDeny bool
	// NotifyNetworkErrors shows a notice for the network error code too.
	NotifyNetworkErrors bool
	NoticeDuration      time.Duration

	Now    func() time.Time
	Logger *slog.Logger
}

// Snapshot is a read-only copy of controller state.
type Snapshot struct {
	State       fsm.State
	Label       string
	Enabled     bool
	Prompt      string
	Entries     []transcript.Entry
	Notice      string
	NoticeUntil time.Time
	SessionID   string
}

// NoticeActive reports whether the notice should still be shown at now.
func (s Snapshot) NoticeActive(now time.Time) bool {
	return s.Notice != "" && now.Before(s.NoticeUntil)
}

// Reply is the outcome of one user action.
type Reply struct {
	State   fsm.State
	Message string
	Err     error
}

type actionKind int

const (
	actionToggle actionKind = iota + 1
	actionClear
)

type action struct {
	kind  actionKind
	reply chan Reply
}

// Controller owns session state. All mutation happens on the Run goroutine.
type Controller struct {
	opts Options

	actions chan action
	updates chan struct{}
	done    chan struct{}
	running atomic.Bool
	commits sync.WaitGroup

	mu   sync.RWMutex
	snap Snapshot

	// Owned by the Run goroutine.
	state       fsm.State
	enabled     bool
	label       string
	log         transcript.Log
	notice      string
	noticeUntil time.Time
	sessionID   string
	decisions   <-chan permission.Decision
}

// New constructs a controller in the idle state with the trigger enabled.
func New(opts Options) *Controller {
	if opts.Indicator == nil {
		opts.Indicator = noopIndicator{}
	}
	if opts.Committer == nil {
		opts.Committer = CommitFunc(func(context.Context, string) error { return nil })
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.NoticeDuration <= 0 {
		opts.NoticeDuration = 2 * time.Second
	}

	c := &Controller{
		opts:    opts,
		actions: make(chan action),
		updates: make(chan struct{}, 1),
		done:    make(chan struct{}),
		state:   fsm.StateIdle,
		enabled: true,
		label:   opts.Labels.Idle,
	}
	c.snap = c.capture()
	return c
}

// Snapshot returns the most recently published state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	snap := c.snap
	snap.Entries = append([]transcript.Entry(nil), c.snap.Entries...)
	return snap
}

// Updates signals after each published change. Signals coalesce.
func (c *Controller) Updates() <-chan struct{} {
	return c.updates
}

// Done is closed when Run returns.
func (c *Controller) Done() <-chan struct{} {
	return c.done
}

// Toggle starts listening when idle and stops it when listening.
func (c *Controller) Toggle(ctx context.Context) (Reply, error) {
	return c.do(ctx, actionToggle)
}

// Clear empties the transcript log.
func (c *Controller) Clear(ctx context.Context) (Reply, error) {
	return c.do(ctx, actionClear)
}

func (c *Controller) do(ctx context.Context, kind actionKind) (Reply, error) {
	req := action{kind: kind, reply: make(chan Reply, 1)}
	select {
	case c.actions <- req:
	case <-c.done:
		return Reply{}, ErrStopped
	case <-ctx.Done():
		return Reply{}, ctx.Err()
	}

	select {
	case reply := <-req.reply:
		return reply, nil
	case <-c.done:
		return Reply{}, ErrStopped
	case <-ctx.Done():
		return Reply{}, ctx.Err()
	}
}

// Run is the controller loop. It performs the startup checks, then serves
// actions, recognizer events and the permission decision until ctx ends.
// Run may be called once.
func (c *Controller) Run(ctx context.Context) error {
	if c.opts.Recognizer == nil {
		return errors.New("session controller requires a recognizer")
	}
	if !c.running.CompareAndSwap(false, true) {
		return errors.New("session controller already running")
	}
	defer close(c.done)

	c.initialize(ctx)
	c.publish()

	events := c.opts.Recognizer.Events()
	for {
		select {
		case <-ctx.Done():
			c.shutdown()
			return nil
		case req := <-c.actions:
			req.reply <- c.apply(ctx, req.kind)
			c.publish()
		case event, ok := <-events:
			if !ok {
				c.logWarn("recognizer event stream closed")
				events = nil
				continue
			}
			if c.route(ctx, event) {
				c.publish()
			}
		case decision, ok := <-c.decisions:
			c.decisions = nil
			if ok {
				c.decide(ctx, decision)
				c.publish()
			}
		}
	}
}

// initialize runs the permission and availability checks once.
func (c *Controller) initialize(ctx context.Context) {
	if gate := c.opts.Gate; gate != nil && !gate.Authorized() && gate.CanRequest() {
		c.logInfo("requesting microphone permission")
		c.decisions = gate.Request(ctx)
	}

	if c.opts.Resolver == nil {
		return
	}
	count, err := availability.Count(ctx, c.opts.Resolver)
	if err != nil {
		c.logWarn("recognizer availability query failed", "error", err.Error())
	}
	if count == 0 {
		c.logWarn("no recognizer available; trigger disabled")
		c.disable(c.opts.Labels.Unavailable)
		c.show(ctx, c.opts.Labels.Unavailable)
		return
	}
	c.logDebug("recognizer available", "handlers", count)
}

func (c *Controller) apply(ctx context.Context, kind actionKind) Reply {
	switch kind {
	case actionToggle:
		return c.toggle(ctx)
	case actionClear:
		c.log.Clear()
		c.logInfo("transcript cleared")
		return Reply{State: c.state, Message: "cleared"}
	default:
		return Reply{State: c.state, Err: fmt.Errorf("unknown action %d", kind)}
	}
}

func (c *Controller) toggle(ctx context.Context) Reply {
	if !c.enabled {
		c.logInfo("toggle ignored; trigger disabled", "label", c.label)
		return Reply{State: c.state, Err: fmt.Errorf("%w: %s", ErrDisabled, c.label)}
	}
	if c.state == fsm.StateListening {
		c.leave(ctx, fsm.EventToggle)
		return Reply{State: c.state, Message: "stopped listening"}
	}

	next, err := fsm.Transition(c.state, fsm.EventToggle)
	if err != nil {
		return Reply{State: c.state, Err: err}
	}
	if err := c.opts.Recognizer.Start(ctx, c.opts.Request); err != nil {
		c.logError("recognizer start failed", "error", err.Error())
		c.show(ctx, recognizer.ErrClient.Notice())
		return Reply{State: c.state, Err: fmt.Errorf("start recognizer: %w", err)}
	}

	c.state = next
	c.sessionID = uuid.NewString()
	c.label = c.opts.Labels.Listening
	c.opts.Indicator.ShowListening(ctx)
	c.logInfo("listening started", "session_id", c.sessionID)
	return Reply{State: c.state, Message: "listening"}
}

// leave applies a terminal event to a listening session.
func (c *Controller) leave(ctx context.Context, event fsm.Event) {
	next, err := fsm.Transition(c.state, event)
	if err != nil {
		c.logError("session transition failed", "event", string(event), "error", err.Error())
		return
	}
	if err := c.opts.Recognizer.Stop(); err != nil {
		c.logWarn("recognizer stop failed", "error", err.Error())
	}

	c.logInfo("listening stopped", "session_id", c.sessionID, "reason", string(event))
	c.state = next
	c.sessionID = ""
	if c.enabled {
		c.label = c.opts.Labels.Idle
	}
	c.opts.Indicator.ShowIdle(ctx)
}

// route handles one recognizer callback and reports whether state changed.
func (c *Controller) route(ctx context.Context, event recognizer.Event) bool {
	switch event.Kind {
	case recognizer.KindResult:
		return c.result(ctx, event.Candidates)
	case recognizer.KindError:
		c.failure(ctx, event.Code)
		return true
	case recognizer.KindEndOfSpeech:
		if c.state != fsm.StateListening {
			return false
		}
		c.leave(ctx, fsm.EventEndOfSpeech)
		return true
	case recognizer.KindReady, recognizer.KindBeginningOfSpeech:
		c.logDebug("recognizer "+event.Kind.String(), "session_id", c.sessionID)
		return false
	default:
		return false
	}
}

func (c *Controller) result(ctx context.Context, candidates []string) bool {
	text, ok := transcript.Top(candidates)
	if !ok {
		c.logDebug("empty recognition result ignored")
		return false
	}

	if entry, appended := c.log.Append(c.opts.Now(), text); appended {
		c.logInfo("transcript appended", "chars", len(entry.Text), "entries", c.log.Len())
		c.commit(ctx, entry.Text)
	} else {
		c.logDebug("blank top candidate not logged", "candidates", len(candidates))
	}

	if c.state == fsm.StateListening {
		c.leave(ctx, fsm.EventResult)
	}
	return true
}

func (c *Controller) failure(ctx context.Context, code recognizer.ErrorCode) {
	if c.state == fsm.StateListening {
		c.leave(ctx, fsm.EventError)
	}
	if code.Retryable() {
		c.logInfo("recognizer error is a retry candidate", "code", code.String())
	} else {
		c.logWarn("recognizer error", "code", code.String())
	}

	if code == recognizer.ErrNetwork && !c.opts.NotifyNetworkErrors {
		return
	}
	c.show(ctx, code.Notice())
}

// decide applies the consent outcome. A failed prompt counts as a denial.
func (c *Controller) decide(ctx context.Context, decision permission.Decision) {
	if decision.Err != nil {
		c.logWarn("permission request failed", "error", decision.Err.Error())
	}
	if decision.Granted {
		c.logInfo("microphone permission granted")
		c.show(ctx, c.opts.Labels.Granted)
		return
	}

	c.logWarn("microphone permission denied", "disable", c.opts.DisableOnDeny)
	if !c.opts.DisableOnDeny {
		return
	}
	if c.state == fsm.StateListening {
		c.leave(ctx, fsm.EventToggle)
	}
	c.disable(c.opts.Labels.Denied)
}

func (c *Controller) disable(label string) {
	c.enabled = false
	c.label = label
}

func (c *Controller) show(ctx context.Context, text string) {
	c.notice = text
	c.noticeUntil = c.opts.Now().Add(c.opts.NoticeDuration)
	c.opts.Indicator.Notice(ctx, text)
}

func (c *Controller) commit(ctx context.Context, text string) {
	c.commits.Add(1)
	go func() {
		defer c.commits.Done()
		if err := c.opts.Committer.Commit(ctx, text); err != nil {
			c.logWarn("transcript commit failed", "error", err.Error())
		}
	}()
}

func (c *Controller) shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), 800*time.Millisecond)
	defer cancel()

	if c.state == fsm.StateListening {
		c.leave(ctx, fsm.EventToggle)
		c.publish()
	}
	c.commits.Wait()
}

func (c *Controller) capture() Snapshot {
	return Snapshot{
		State:       c.state,
		Label:       c.label,
		Enabled:     c.enabled,
		Prompt:      c.opts.Request.Prompt,
		Entries:     c.log.Entries(),
		Notice:      c.notice,
		NoticeUntil: c.noticeUntil,
		SessionID:   c.sessionID,
	}
}

func (c *Controller) publish() {
	snap := c.capture()
	c.mu.Lock()
	c.snap = snap
	c.mu.Unlock()

	select {
	case c.updates <- struct{}{}:
	default:
	}
}

func (c *Controller) logDebug(msg string, args ...any) {
	if c.opts.Logger != nil {
		c.opts.Logger.Debug(msg, args...)
	}
}

func (c *Controller) logInfo(msg string, args ...any) {
	if c.opts.Logger != nil {
		c.opts.Logger.Info(msg, args...)
	}
}

func (c *Controller) logWarn(msg string, args ...any) {
	if c.opts.Logger != nil {
		c.opts.Logger.Warn(msg, args...)
	}
}

func (c *Controller) logError(msg string, args ...any) {
	if c.opts.Logger != nil {
		c.opts.Logger.Error(msg, args...)
	}
}
