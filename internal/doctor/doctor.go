// Package doctor runs readiness diagnostics for config, recognizer, consent, audio, and indicators.
package doctor

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/rbright/hark/internal/audio"
	"github.com/rbright/hark/internal/config"
	"github.com/rbright/hark/internal/endpoint"
	"github.com/rbright/hark/internal/permission"
	"github.com/rbright/hark/internal/recognizer"
)

// Check is one doctor assertion result.
type Check struct {
	Name    string
	Pass    bool
	Message string
}

// Report is the full doctor output.
type Report struct {
	Checks []Check
}

// OK returns true when all checks pass.
func (r Report) OK() bool {
	for _, check := range r.Checks {
		if !check.Pass {
			return false
		}
	}
	return true
}

// String renders the report as user-facing text.
func (r Report) String() string {
	var b strings.Builder
	for _, check := range r.Checks {
		status := "OK"
		if !check.Pass {
			status = "FAIL"
		}
		fmt.Fprintf(&b, "[%s] %s: %s\n", status, check.Name, check.Message)
	}
	return strings.TrimSuffix(b.String(), "\n")
}

// Run executes every check for a loaded config. store is the consent record.
func Run(ctx context.Context, loaded config.Loaded, store permission.Store) Report {
	cfg := loaded.Config
	checks := []Check{checkConfig(loaded)}

	checks = append(checks, checkEnv("XDG_RUNTIME_DIR", func(v string) bool {
		return strings.TrimSpace(v) != ""
	}, "remote control socket available", "XDG_RUNTIME_DIR is empty; toggle/clear/status cannot reach the screen"))

	switch cfg.Recognizer.Backend {
	case config.BackendMock:
		checks = append(checks, checkMockSession(ctx, 20*time.Millisecond))
	default:
		checks = append(checks, checkCommand(cfg.Recognizer.Command.Argv, "recognizer.command"))
		checks = append(checks, checkVAD(cfg.Recognizer.VADMode))
		checks = append(checks, checkAudioSelection(ctx, cfg))
	}

	checks = append(checks, checkPermission(store, cfg.Permission))
	checks = append(checks, checkIndicator(cfg.Indicator))
	if cfg.Output.Clipboard {
		checks = append(checks, checkClipboard(clipboard.Unsupported))
	}

	return Report{Checks: checks}
}

func checkConfig(loaded config.Loaded) Check {
	if !loaded.Exists {
		return Check{Name: "config", Pass: true, Message: fmt.Sprintf("using defaults (%q not found)", loaded.Path)}
	}
	return Check{Name: "config", Pass: true, Message: fmt.Sprintf("loaded %q", loaded.Path)}
}

func checkEnv(name string, predicate func(string) bool, okMsg, failMsg string) Check {
	if predicate(os.Getenv(name)) {
		return Check{Name: name, Pass: true, Message: okMsg}
	}
	return Check{Name: name, Pass: false, Message: failMsg}
}

func checkCommand(argv []string, name string) Check {
	if len(argv) == 0 {
		return Check{Name: name, Pass: false, Message: "command is empty"}
	}
	check := checkBinary(argv[0], fmt.Sprintf("%s is available", name))
	check.Name = name
	return check
}

func checkBinary(bin string, okMsg string) Check {
	path, err := exec.LookPath(bin)
	if err != nil {
		return Check{Name: bin, Pass: false, Message: fmt.Sprintf("binary not found in PATH: %s", bin)}
	}
	return Check{Name: bin, Pass: true, Message: fmt.Sprintf("found at %s (%s)", path, okMsg)}
}

// checkMockSession drives one mock listening session through to its result.
func checkMockSession(ctx context.Context, delay time.Duration) Check {
	const name = "recognizer.mock"

	mock := recognizer.NewMock(delay)
	defer func() { _ = mock.Destroy() }()

	if err := mock.Start(ctx, recognizer.Request{LanguageModel: recognizer.LanguageModelFreeForm}); err != nil {
		return Check{Name: name, Pass: false, Message: err.Error()}
	}

	timeout := time.NewTimer(delay + 2*time.Second)
	defer timeout.Stop()
	for {
		select {
		case event := <-mock.Events():
			switch event.Kind {
			case recognizer.KindResult:
				return Check{Name: name, Pass: true, Message: fmt.Sprintf("session produced %q", strings.Join(event.Candidates, " | "))}
			case recognizer.KindError:
				return Check{Name: name, Pass: false, Message: event.Code.Notice()}
			}
		case <-timeout.C:
			return Check{Name: name, Pass: false, Message: "no result before timeout"}
		case <-ctx.Done():
			return Check{Name: name, Pass: false, Message: ctx.Err().Error()}
		}
	}
}

func checkVAD(mode int) Check {
	if _, err := endpoint.NewVAD(audio.SampleRate, mode); err != nil {
		return Check{Name: "recognizer.vad", Pass: false, Message: err.Error()}
	}
	return Check{Name: "recognizer.vad", Pass: true, Message: fmt.Sprintf("webrtc vad ready (mode %d)", mode)}
}

func checkAudioSelection(ctx context.Context, cfg config.Config) Check {
	selection, err := audio.SelectDevice(ctx, cfg.Audio.Input, cfg.Audio.Fallback)
	if err != nil {
		return Check{Name: "audio.device", Pass: false, Message: err.Error()}
	}
	message := fmt.Sprintf("selected %s", selection.Device)
	if selection.Warning != "" {
		message += " (" + selection.Warning + ")"
	}
	return Check{Name: "audio.device", Pass: true, Message: message}
}

func checkPermission(store permission.Store, cfg config.PermissionConfig) Check {
	const name = "permission.microphone"

	record, err := store.Load()
	if err != nil {
		return Check{Name: name, Pass: false, Message: err.Error()}
	}
	switch record.Microphone {
	case permission.StatusGranted:
		return Check{Name: name, Pass: true, Message: "granted"}
	case permission.StatusDenied:
		return Check{Name: name, Pass: false, Message: "denied; run `hark permission grant` to allow"}
	default:
		if cfg.Prompt == config.PromptNone {
			return Check{Name: name, Pass: false, Message: "not granted and prompting is disabled"}
		}
		return Check{Name: name, Pass: true, Message: fmt.Sprintf("not yet requested (prompt=%s)", cfg.Prompt)}
	}
}

func checkIndicator(cfg config.IndicatorConfig) Check {
	if !cfg.Enable {
		return Check{Name: "indicator", Pass: true, Message: "disabled"}
	}
	var check Check
	switch cfg.Backend {
	case "hypr":
		check = checkBinary("hyprctl", "hypr notifications")
	case "desktop":
		check = checkBinary("busctl", "desktop notifications")
	default:
		return Check{Name: "indicator", Pass: true, Message: fmt.Sprintf("backend %q", cfg.Backend)}
	}
	check.Name = "indicator." + cfg.Backend
	return check
}

func checkClipboard(unsupported bool) Check {
	if unsupported {
		return Check{Name: "output.clipboard", Pass: false, Message: "no clipboard utility found (install wl-clipboard, xclip, or xsel)"}
	}
	return Check{Name: "output.clipboard", Pass: true, Message: "clipboard available"}
}
