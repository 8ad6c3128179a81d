package config

import (
	"fmt"
	"strings"

	"github.com/mattn/go-shellwords"
)

// ParseCommand splits a shell-style command line into argv.
func ParseCommand(raw string) ([]string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	argv, err := shellwords.NewParser().Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("parse command %q: %w", raw, err)
	}
	return argv, nil
}

func mustParseCommand(raw string) []string {
	argv, err := ParseCommand(raw)
	if err != nil {
		panic(err)
	}
	return argv
}
