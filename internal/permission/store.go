// Package permission records and requests microphone consent.
package permission

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Status is the recorded microphone consent.
type Status string

const (
	StatusUnknown Status = "unknown"
	StatusGranted Status = "granted"
	StatusDenied  Status = "denied"
)

// Record is the on-disk consent file.
type Record struct {
	Microphone Status    `json:"microphone"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Store persists consent as JSON at Path.
type Store struct {
	Path string
}

// DefaultPath returns $XDG_STATE_HOME/hark/permissions.json with the usual
// ~/.local/state fallback.
func DefaultPath() (string, error) {
	if xdg := strings.TrimSpace(os.Getenv("XDG_STATE_HOME")); xdg != "" {
		return filepath.Join(xdg, "hark", "permissions.json"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory for state: %w", err)
	}
	return filepath.Join(home, ".local", "state", "hark", "permissions.json"), nil
}

// Load reads the record. A missing file is StatusUnknown.
func (s Store) Load() (Record, error) {
	data, err := os.ReadFile(s.Path)
	if errors.Is(err, os.ErrNotExist) {
		return Record{Microphone: StatusUnknown}, nil
	}
	if err != nil {
		return Record{}, fmt.Errorf("read permissions %q: %w", s.Path, err)
	}

	var record Record
	if err := json.Unmarshal(data, &record); err != nil {
		return Record{}, fmt.Errorf("decode permissions %q: %w", s.Path, err)
	}
	switch record.Microphone {
	case StatusGranted, StatusDenied:
	default:
		record.Microphone = StatusUnknown
	}
	return record, nil
}

// Save writes status atomically with mode 0600.
func (s Store) Save(status Status, at time.Time) error {
	if err := os.MkdirAll(filepath.Dir(s.Path), 0o700); err != nil {
		return fmt.Errorf("create permissions dir: %w", err)
	}

	data, err := json.MarshalIndent(Record{Microphone: status, UpdatedAt: at.UTC()}, "", "  ")
	if err != nil {
		return fmt.Errorf("encode permissions: %w", err)
	}

	tmp := s.Path + ".tmp"
	if err := os.WriteFile(tmp, append(data, '\n'), 0o600); err != nil {
		return fmt.Errorf("write permissions: %w", err)
	}
	if err := os.Rename(tmp, s.Path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("replace permissions %q: %w", s.Path, err)
	}
	return nil
}

// Reset removes the record so the next run asks again.
func (s Store) Reset() error {
	if err := os.Remove(s.Path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove permissions %q: %w", s.Path, err)
	}
	return nil
}
