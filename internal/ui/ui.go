// Package ui is the single listening screen: the trigger, the transcript log
// and the current notice, drawn with Bubble Tea.
package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/rbright/hark/internal/fsm"
	"github.com/rbright/hark/internal/session"
)

// Controller is what the screen needs from the session controller.
type Controller interface {
	Snapshot() session.Snapshot
	Updates() <-chan struct{}
	Done() <-chan struct{}
	Toggle(context.Context) (session.Reply, error)
	Clear(context.Context) (session.Reply, error)
}

type snapshotMsg session.Snapshot
type replyMsg struct{ err error }
type stoppedMsg struct{}
type tickMsg time.Time

const tickInterval = 250 * time.Millisecond

var (
	titleStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Bold(true)
	buttonStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 2)
	idleButton   = buttonStyle.BorderForeground(lipgloss.Color("39")).Foreground(lipgloss.Color("255"))
	listenButton = buttonStyle.BorderForeground(lipgloss.Color("196")).Foreground(lipgloss.Color("196")).Bold(true)
	offButton    = buttonStyle.BorderForeground(lipgloss.Color("238")).Foreground(lipgloss.Color("241"))
	promptStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	logStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	emptyStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Italic(true)
	noticeStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("0")).Background(lipgloss.Color("217")).Padding(0, 1)
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("208"))
	helpStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("239"))
	helpKeyStyle = helpStyle.Bold(true)
)

// Model is the Bubble Tea model of the listening screen.
type Model struct {
	ctx    context.Context
	ctrl   Controller
	now    func() time.Time
	snap   session.Snapshot
	scroll int
	err    error

	width, height int
}

// New returns a model bound to ctrl.
func New(ctx context.Context, ctrl Controller) Model {
	return Model{ctx: ctx, ctrl: ctrl, now: time.Now, snap: ctrl.Snapshot()}
}

// Run shows the screen until the user quits or ctx ends.
func Run(ctx context.Context, ctrl Controller) error {
	program := tea.NewProgram(New(ctx, ctrl), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := program.Run()
	if err != nil && errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	if err != nil {
		return fmt.Errorf("run screen: %w", err)
	}
	return nil
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.waitForUpdate(), tick())
}

func tick() tea.Cmd {
	return tea.Tick(tickInterval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m Model) waitForUpdate() tea.Cmd {
	ctrl := m.ctrl
	return func() tea.Msg {
		select {
		case <-ctrl.Updates():
			return snapshotMsg(ctrl.Snapshot())
		case <-ctrl.Done():
			return stoppedMsg{}
		}
	}
}

func (m Model) act(fn func(context.Context) (session.Reply, error)) tea.Cmd {
	ctx := m.ctx
	return func() tea.Msg {
		reply, err := fn(ctx)
		if err == nil {
			err = reply.Err
		}
		return replyMsg{err: err}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case " ", "enter":
			return m, m.act(m.ctrl.Toggle)
		case "c":
			m.scroll = 0
			return m, m.act(m.ctrl.Clear)
		case "up", "k":
			if m.scroll < len(m.snap.Entries)-1 {
				m.scroll++
			}
		case "down", "j":
			if m.scroll > 0 {
				m.scroll--
			}
		}

	case snapshotMsg:
		added := len(msg.Entries) > len(m.snap.Entries)
		m.snap = session.Snapshot(msg)
		if added && m.scroll > 0 {
			m.scroll++
		}
		if m.scroll >= len(m.snap.Entries) {
			m.scroll = max(len(m.snap.Entries)-1, 0)
		}
		return m, m.waitForUpdate()

	case replyMsg:
		m.err = nil
		if msg.err != nil && !errors.Is(msg.err, session.ErrDisabled) {
			m.err = msg.err
		}

	case stoppedMsg:
		return m, tea.Quit

	case tickMsg:
		return m, tick()
	}
	return m, nil
}

func (m Model) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("hark"))
	b.WriteString("\n\n")
	b.WriteString(m.button())
	b.WriteString("\n")
	if m.snap.State == fsm.StateListening && m.snap.Prompt != "" {
		b.WriteString(promptStyle.Render(m.snap.Prompt))
	}
	b.WriteString("\n\n")

	for _, line := range m.visibleLog() {
		b.WriteString(line)
		b.WriteString("\n")
	}
	b.WriteString("\n")

	if m.snap.NoticeActive(m.now()) {
		b.WriteString(noticeStyle.Render(m.snap.Notice))
	} else if m.err != nil {
		b.WriteString(errorStyle.Render(m.err.Error()))
	}
	b.WriteString("\n")
	b.WriteString(help())
	return b.String()
}

func (m Model) button() string {
	switch {
	case !m.snap.Enabled:
		return offButton.Render(m.snap.Label)
	case m.snap.State == fsm.StateListening:
		return listenButton.Render("● " + m.snap.Label)
	default:
		return idleButton.Render(m.snap.Label)
	}
}

// chromeLines is the height of everything around the log.
const chromeLines = 11

// visibleLog returns the log lines that fit the window, ending scroll
// entries above the newest.
func (m Model) visibleLog() []string {
	entries := m.snap.Entries
	if len(entries) == 0 {
		return []string{emptyStyle.Render("Nothing heard yet.")}
	}

	end := len(entries) - m.scroll
	rows := len(entries)
	if m.height > 0 {
		rows = max(m.height-chromeLines, 1)
	}
	start := max(end-rows, 0)

	lines := make([]string, 0, end-start)
	for _, entry := range entries[start:end] {
		line := entry.String()
		if m.width > 0 && lipgloss.Width(line) > m.width {
			line = truncate(line, m.width)
		}
		lines = append(lines, logStyle.Render(line))
	}
	return lines
}

func truncate(line string, width int) string {
	runes := []rune(line)
	if width <= 1 || len(runes) <= width {
		return line
	}
	return string(runes[:width-1]) + "…"
}

func help() string {
	keys := []struct{ key, desc string }{
		{"space", "toggle"},
		{"c", "clear"},
		{"↑/↓", "scroll"},
		{"q", "quit"},
	}
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, helpKeyStyle.Render(k.key)+helpStyle.Render(" "+k.desc))
	}
	return strings.Join(parts, helpStyle.Render("  •  "))
}
