package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const fileName = "config.jsonc"

// Loaded is a parsed config plus where it came from.
type Loaded struct {
	Path     string
	Config   Config
	Warnings []Warning
	// Exists is false when Path was missing and defaults are in effect.
	Exists bool
}

// ResolvePath picks the config location: the explicit path (with a leading
// "~/" expanded), else $XDG_CONFIG_HOME/hark, else ~/.config/hark.
func ResolvePath(explicit string) (string, error) {
	explicit = strings.TrimSpace(explicit)
	if explicit != "" && !strings.HasPrefix(explicit, "~/") {
		return explicit, nil
	}
	if explicit == "" {
		if xdg := strings.TrimSpace(os.Getenv("XDG_CONFIG_HOME")); xdg != "" {
			return filepath.Join(xdg, "hark", fileName), nil
		}
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve config path: %w", err)
	}
	if explicit != "" {
		return filepath.Join(home, explicit[2:]), nil
	}
	return filepath.Join(home, ".config", "hark", fileName), nil
}

// Load reads and validates the config. A missing file yields defaults and a warning.
func Load(explicitPath string) (Loaded, error) {
	path, err := ResolvePath(explicitPath)
	if err != nil {
		return Loaded{}, err
	}
	loaded := Loaded{Path: path, Config: Default()}

	content, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		loaded.Warnings = append(loaded.Warnings, Warning{
			Message: fmt.Sprintf("config file %q not found; using defaults", path),
		})
		return loaded, nil
	case err != nil:
		return Loaded{}, fmt.Errorf("read config %q: %w", path, err)
	}

	loaded.Config, loaded.Warnings, err = Parse(string(content), loaded.Config)
	if err != nil {
		return Loaded{}, fmt.Errorf("parse config %q: %w", path, err)
	}
	loaded.Exists = true
	return loaded, nil
}
