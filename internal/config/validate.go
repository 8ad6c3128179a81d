package config

import (
	"errors"
	"fmt"
	"strings"
)

var (
	validLanguageModels = []string{"free_form", "web_search"}
	validBackends       = []string{BackendExec, BackendMock}
	validPrompts        = []string{PromptDialog, PromptAuto, PromptNone}
	validDenyPolicies   = []string{DenyIgnore, DenyDisable}
	validIndicators     = []string{"desktop", "hypr", "beeep", "none"}
)

// Validate enforces config invariants and returns non-fatal warnings.
func Validate(cfg Config) ([]Warning, error) {
	warnings := make([]Warning, 0)
	r := cfg.Recognizer

	if err := oneOf("recognizer.backend", r.Backend, validBackends); err != nil {
		return nil, err
	}
	if r.Backend == BackendExec && len(r.Command.Argv) == 0 {
		return nil, errors.New("recognizer.command must not be empty when recognizer.backend=exec")
	}
	if strings.TrimSpace(r.Language) == "" {
		return nil, errors.New("recognizer.language must not be empty")
	}
	if err := oneOf("recognizer.language_model", r.LanguageModel, validLanguageModels); err != nil {
		return nil, err
	}
	if r.MaxResults <= 0 {
		return nil, errors.New("recognizer.max_results must be > 0")
	}
	if r.VADMode < 0 || r.VADMode > 3 {
		return nil, errors.New("recognizer.vad_mode must be between 0 and 3")
	}
	for name, value := range map[string]int{
		"recognizer.speech_start_timeout_ms": r.SpeechStartTimeoutMS,
		"recognizer.end_silence_ms":          r.EndSilenceMS,
		"recognizer.max_listen_ms":           r.MaxListenMS,
		"recognizer.transcribe_timeout_ms":   r.TranscribeTimeoutMS,
	} {
		if value <= 0 {
			return nil, fmt.Errorf("%s must be > 0", name)
		}
	}
	if r.MockDelayMS < 0 {
		return nil, errors.New("recognizer.mock_delay_ms must be >= 0")
	}
	if r.MaxListenMS < r.EndSilenceMS {
		warnings = append(warnings, Warning{Message: "recognizer.max_listen_ms is shorter than recognizer.end_silence_ms; sessions will end on the listen cap"})
	}

	if err := oneOf("permission.prompt", cfg.Permission.Prompt, validPrompts); err != nil {
		return nil, err
	}
	if err := oneOf("permission.on_deny", cfg.Permission.OnDeny, validDenyPolicies); err != nil {
		return nil, err
	}
	if cfg.Permission.Prompt == PromptAuto {
		warnings = append(warnings, Warning{Message: "permission.prompt=auto grants microphone access without asking"})
	}

	ind := cfg.Indicator
	if err := oneOf("indicator.backend", ind.Backend, validIndicators); err != nil {
		return nil, err
	}
	if ind.Backend == "desktop" && strings.TrimSpace(ind.DesktopAppName) == "" {
		return nil, errors.New("indicator.desktop_app_name must not be empty when indicator.backend=desktop")
	}
	if ind.NoticeTimeoutMS < 0 {
		return nil, errors.New("indicator.notice_timeout_ms must be >= 0")
	}
	if strings.TrimSpace(ind.TextIdle) == "" || strings.TrimSpace(ind.TextListening) == "" {
		return nil, errors.New("indicator.text.idle and indicator.text.listening must not be empty")
	}

	return warnings, nil
}

func oneOf(field string, value string, allowed []string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("%s must not be empty", field)
	}
	for _, candidate := range allowed {
		if value == candidate {
			return nil
		}
	}
	return fmt.Errorf("%s must be one of: %s", field, strings.Join(allowed, ", "))
}
