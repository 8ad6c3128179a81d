package ui

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rbright/hark/internal/fsm"
	"github.com/rbright/hark/internal/session"
	"github.com/rbright/hark/internal/transcript"
	"github.com/stretchr/testify/require"
)

var clock = time.Date(2026, 3, 4, 9, 0, 0, 0, time.Local)

type fakeController struct {
	snap    session.Snapshot
	updates chan struct{}
	done    chan struct{}
	toggles int
	clears  int
	reply   session.Reply
}

func newFakeController(snap session.Snapshot) *fakeController {
	return &fakeController{snap: snap, updates: make(chan struct{}, 1), done: make(chan struct{})}
}

func (f *fakeController) Snapshot() session.Snapshot { return f.snap }
func (f *fakeController) Updates() <-chan struct{}   { return f.updates }
func (f *fakeController) Done() <-chan struct{}      { return f.done }
func (f *fakeController) Toggle(context.Context) (session.Reply, error) {
	f.toggles++
	return f.reply, nil
}
func (f *fakeController) Clear(context.Context) (session.Reply, error) {
	f.clears++
	return session.Reply{Message: "cleared"}, nil
}

func idleSnapshot() session.Snapshot {
	return session.Snapshot{State: fsm.StateIdle, Label: "Speak", Enabled: true, Prompt: "You may speak now"}
}

func entries(n int) []transcript.Entry {
	out := make([]transcript.Entry, n)
	for i := range out {
		out[i] = transcript.Entry{At: clock.Add(time.Duration(i) * time.Second), Text: fmt.Sprintf("line %d", i)}
	}
	return out
}

func newModel(ctrl *fakeController) Model {
	m := New(context.Background(), ctrl)
	m.now = func() time.Time { return clock }
	return m
}

func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	model, ok := next.(Model)
	require.True(t, ok)
	return model, cmd
}

func key(s string) tea.KeyMsg {
	switch s {
	case " ":
		return tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "ctrl+c":
		return tea.KeyMsg{Type: tea.KeyCtrlC}
	default:
		return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
	}
}

func TestViewShowsIdleTriggerAndEmptyLog(t *testing.T) {
	view := newModel(newFakeController(idleSnapshot())).View()
	require.Contains(t, view, "Speak")
	require.Contains(t, view, "Nothing heard yet.")
	require.NotContains(t, view, "You may speak now")
	require.Contains(t, view, "toggle")
}

func TestViewShowsPromptWhileListening(t *testing.T) {
	snap := idleSnapshot()
	snap.State = fsm.StateListening
	snap.Label = "Listening…"

	view := newModel(newFakeController(snap)).View()
	require.Contains(t, view, "Listening…")
	require.Contains(t, view, "You may speak now")
}

func TestViewRendersLogLines(t *testing.T) {
	snap := idleSnapshot()
	snap.Entries = entries(2)

	view := newModel(newFakeController(snap)).View()
	require.Contains(t, view, "09:00:00 > line 0")
	require.Contains(t, view, "09:00:01 > line 1")
}

func TestViewShowsNoticeUntilExpiry(t *testing.T) {
	snap := idleSnapshot()
	snap.Notice = "Error detected no match"
	snap.NoticeUntil = clock.Add(time.Second)

	m := newModel(newFakeController(snap))
	require.Contains(t, m.View(), "Error detected no match")

	m.now = func() time.Time { return clock.Add(2 * time.Second) }
	require.NotContains(t, m.View(), "Error detected no match")
}

func TestToggleKeysInvokeController(t *testing.T) {
	ctrl := newFakeController(idleSnapshot())
	m := newModel(ctrl)

	for _, k := range []string{" ", "enter"} {
		_, cmd := update(t, m, key(k))
		require.NotNil(t, cmd)
		require.Equal(t, replyMsg{}, cmd())
	}
	require.Equal(t, 2, ctrl.toggles)

	_, cmd := update(t, m, key("c"))
	cmd()
	require.Equal(t, 1, ctrl.clears)
}

func TestDisabledReplyIsNotShownAsError(t *testing.T) {
	m := newModel(newFakeController(idleSnapshot()))

	m, _ = update(t, m, replyMsg{err: fmt.Errorf("%w: Voice recognizer not present", session.ErrDisabled)})
	require.NoError(t, m.err)

	m, _ = update(t, m, replyMsg{err: errors.New("start recognizer: boom")})
	require.Contains(t, m.View(), "start recognizer: boom")
}

func TestQuitKeys(t *testing.T) {
	m := newModel(newFakeController(idleSnapshot()))
	for _, k := range []string{"q", "ctrl+c"} {
		_, cmd := update(t, m, key(k))
		require.Equal(t, tea.Quit(), cmd())
	}
}

func TestSnapshotMessageRefreshesAndRewaits(t *testing.T) {
	ctrl := newFakeController(idleSnapshot())
	m := newModel(ctrl)

	snap := idleSnapshot()
	snap.Entries = entries(1)
	m, cmd := update(t, m, snapshotMsg(snap))
	require.Len(t, m.snap.Entries, 1)

	ctrl.snap = snap
	ctrl.updates <- struct{}{}
	require.Equal(t, snapshotMsg(snap), cmd())

	close(ctrl.done)
	require.Equal(t, stoppedMsg{}, m.waitForUpdate()())
}

func TestScrollShowsOlderEntries(t *testing.T) {
	snap := idleSnapshot()
	snap.Entries = entries(20)
	ctrl := newFakeController(snap)
	m := newModel(ctrl)
	m, _ = update(t, m, tea.WindowSizeMsg{Width: 80, Height: chromeLines + 3})

	view := m.View()
	require.Contains(t, view, "line 19")
	require.NotContains(t, view, "line 16")

	m, _ = update(t, m, key("up"))
	m, _ = update(t, m, key("up"))
	view = m.View()
	require.Contains(t, view, "line 17")
	require.NotContains(t, view, "line 18")

	m, _ = update(t, m, key("down"))
	require.Equal(t, 1, m.scroll)
}
