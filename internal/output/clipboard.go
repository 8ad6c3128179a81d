// Package output applies side effects to each appended transcript entry.
package output

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/rbright/hark/internal/config"
)

// Committer copies transcript entries to the system clipboard when enabled.
type Committer struct {
	enabled     bool
	unsupported bool
	timeout     time.Duration
	write       func(string) error
	logger      *slog.Logger
}

// NewCommitter builds a committer from output config.
func NewCommitter(cfg config.OutputConfig, logger *slog.Logger) *Committer {
	return &Committer{
		enabled:     cfg.Clipboard,
		unsupported: clipboard.Unsupported,
		timeout:     2 * time.Second,
		write:       clipboard.WriteAll,
		logger:      logger,
	}
}

// Commit writes text to the clipboard. Blank text and disabled output are no-ops.
func (c *Committer) Commit(ctx context.Context, text string) error {
	if !c.enabled || strings.TrimSpace(text) == "" {
		return nil
	}
	if c.unsupported {
		return fmt.Errorf("set clipboard: no clipboard utility found (install wl-clipboard, xclip, or xsel)")
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- c.write(text) }()

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("set clipboard: %w", err)
		}
		if c.logger != nil {
			c.logger.Debug("transcript copied to clipboard", "chars", len(text))
		}
		return nil
	case <-ctx.Done():
		return fmt.Errorf("set clipboard: %w", ctx.Err())
	}
}
