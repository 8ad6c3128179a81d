package permission

import (
	"context"
	"log/slog"
	"time"
)

// Decision is the outcome of one consent request.
type Decision struct {
	Granted bool
	Err     error
}

// Gate answers whether the microphone may be used and asks when it may not.
type Gate struct {
	store    Store
	prompter Prompter
	logger   *slog.Logger
	now      func() time.Time
}

// NewGate returns a gate over store. A nil prompter means consent cannot be
// requested at runtime.
func NewGate(store Store, prompter Prompter, logger *slog.Logger) *Gate {
	return &Gate{store: store, prompter: prompter, logger: logger, now: time.Now}
}

// Status reports the recorded consent, treating unreadable records as unknown.
func (g *Gate) Status() Status {
	record, err := g.store.Load()
	if err != nil {
		g.logWarn("permission record unreadable", "error", err.Error())
		return StatusUnknown
	}
	return record.Microphone
}

// Authorized reports whether consent is recorded as granted.
func (g *Gate) Authorized() bool {
	return g.Status() == StatusGranted
}

// CanRequest reports whether Request can ask the user.
func (g *Gate) CanRequest() bool {
	return g.prompter != nil
}

// Request asks for consent in the background. The returned channel yields
// exactly one Decision and is then closed. A successful answer is recorded.
func (g *Gate) Request(ctx context.Context) <-chan Decision {
	out := make(chan Decision, 1)
	if g.prompter == nil {
		out <- Decision{}
		close(out)
		return out
	}

	go func() {
		defer close(out)

		granted, err := g.prompter.Prompt(ctx)
		if err != nil {
			g.logWarn("permission prompt failed", "error", err.Error())
			out <- Decision{Err: err}
			return
		}

		status := StatusDenied
		if granted {
			status = StatusGranted
		}
		if err := g.store.Save(status, g.now()); err != nil {
			g.logWarn("permission record not saved", "error", err.Error())
		}
		g.logInfo("permission decided", "microphone", string(status))
		out <- Decision{Granted: granted}
	}()
	return out
}

func (g *Gate) logInfo(msg string, args ...any) {
	if g.logger != nil {
		g.logger.Info(msg, args...)
	}
}

func (g *Gate) logWarn(msg string, args ...any) {
	if g.logger != nil {
		g.logger.Warn(msg, args...)
	}
}
