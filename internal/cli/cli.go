// Package cli parses hark's command line.
package cli

import (
	"errors"
	"fmt"
	"strings"
)

type Command string

const (
	CommandRun        Command = "run"
	CommandToggle     Command = "toggle"
	CommandClear      Command = "clear"
	CommandStatus     Command = "status"
	CommandLog        Command = "log"
	CommandPermission Command = "permission"
	CommandDevices    Command = "devices"
	CommandDoctor     Command = "doctor"
	CommandVersion    Command = "version"
	CommandHelp       Command = "help"
)

// Permission subcommands.
const (
	PermissionGrant  = "grant"
	PermissionRevoke = "revoke"
	PermissionStatus = "status"
)

var validCommands = map[Command]struct{}{
	CommandRun:        {},
	CommandToggle:     {},
	CommandClear:      {},
	CommandStatus:     {},
	CommandLog:        {},
	CommandPermission: {},
	CommandDevices:    {},
	CommandDoctor:     {},
	CommandVersion:    {},
	CommandHelp:       {},
}

type Parsed struct {
	Command    Command
	Subcommand string
	ConfigPath string
	Headless   bool
	ShowHelp   bool
}

func Parse(args []string) (Parsed, error) {
	parsed := Parsed{Command: CommandHelp, ShowHelp: true}

	for i := 0; i < len(args); i++ {
		arg := args[i]

		switch arg {
		case "-h", "--help":
			parsed.ShowHelp = true
			parsed.Command = CommandHelp
		case "--version":
			parsed.ShowHelp = false
			parsed.Command = CommandVersion
		case "--headless":
			parsed.Headless = true
		case "--config":
			i++
			if i >= len(args) {
				return Parsed{}, errors.New("--config requires a path")
			}
			parsed.ConfigPath = args[i]
		default:
			if strings.HasPrefix(arg, "-") {
				return Parsed{}, fmt.Errorf("unknown flag: %s", arg)
			}

			cmd := Command(arg)
			if _, ok := validCommands[cmd]; !ok {
				return Parsed{}, fmt.Errorf("unknown command: %s", arg)
			}
			parsed.Command = cmd
			parsed.ShowHelp = cmd == CommandHelp

			rest := args[i+1:]
			if cmd == CommandPermission {
				sub, err := parsePermission(rest)
				if err != nil {
					return Parsed{}, err
				}
				parsed.Subcommand = sub
				return parsed, nil
			}
			if len(rest) > 0 {
				return Parsed{}, fmt.Errorf("unexpected arguments after command %q", arg)
			}
			return parsed, nil
		}
	}

	return parsed, nil
}

func parsePermission(rest []string) (string, error) {
	if len(rest) == 0 {
		return PermissionStatus, nil
	}
	if len(rest) > 1 {
		return "", errors.New(`unexpected arguments after command "permission"`)
	}
	switch rest[0] {
	case PermissionGrant, PermissionRevoke, PermissionStatus:
		return rest[0], nil
	default:
		return "", fmt.Errorf("unknown permission action: %s (want grant, revoke, or status)", rest[0])
	}
}

func HelpText(binaryName string) string {
	return fmt.Sprintf(`Usage:
  %[1]s [--config PATH] [--headless] <command>

Commands:
  run          Open the listening screen
  toggle       Start or stop listening in the running screen
  clear        Clear the running screen's transcript log
  status       Print current state
  log          Print the running screen's transcript log
  permission   grant|revoke|status microphone consent (default: status)
  devices      List available input devices
  doctor       Run configuration and environment checks
  version      Print version information
  help         Show this help

Flags:
  --config PATH   Config file path (default: $XDG_CONFIG_HOME/hark/config.jsonc)
  --headless      Run without the terminal screen; print log lines to stdout
  -h, --help      Show help
  --version       Show version
`, binaryName)
}
