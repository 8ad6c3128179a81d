// Package transcript holds the timestamped, append-only transcript log.
package transcript

import (
	"strings"
	"time"
)

// TimeLayout is the capture timestamp format used when rendering entries.
const TimeLayout = "15:04:05"

// Entry is one recognized utterance and the time it was captured.
type Entry struct {
	At   time.Time
	Text string
}

// String renders one log line without the trailing newline.
func (e Entry) String() string {
	return e.At.Format(TimeLayout) + " > " + e.Text
}

// Log is an ordered transcript. It is not safe for concurrent use; the
// session loop owns it and hands out copies.
type Log struct {
	entries []Entry
}

// Append normalizes text and adds it to the log. Blank text is rejected.
func (l *Log) Append(at time.Time, text string) (Entry, bool) {
	text = Normalize(text)
	if text == "" {
		return Entry{}, false
	}
	entry := Entry{At: at, Text: text}
	l.entries = append(l.entries, entry)
	return entry, true
}

// Clear removes every entry.
func (l *Log) Clear() {
	l.entries = nil
}

// Len reports the number of entries.
func (l *Log) Len() int {
	return len(l.entries)
}

// Entries returns a copy of the log contents.
func (l *Log) Entries() []Entry {
	out := make([]Entry, len(l.entries))
	copy(out, l.entries)
	return out
}

// Render formats entries as newline-terminated lines.
func Render(entries []Entry) string {
	var b strings.Builder
	for _, entry := range entries {
		b.WriteString(entry.String())
		b.WriteByte('\n')
	}
	return b.String()
}

// Normalize collapses internal whitespace and trims the ends.
func Normalize(text string) string {
	return strings.Join(strings.Fields(text), " ")
}

// Top returns the highest-ranked candidate, normalized. It reports false only
// for an empty list; a blank top candidate is returned as "".
func Top(candidates []string) (string, bool) {
	if len(candidates) == 0 {
		return "", false
	}
	return Normalize(candidates[0]), true
}
