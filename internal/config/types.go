// Package config resolves, parses, validates, and defaults hark configuration.
package config

// Config is the fully materialized runtime configuration used by hark.
type Config struct {
	Recognizer RecognizerConfig
	Audio      AudioConfig
	Permission PermissionConfig
	Indicator  IndicatorConfig
	Output     OutputConfig
	Debug      DebugConfig
}

// RecognizerConfig selects the recognizer backend and the per-session request.
type RecognizerConfig struct {
	Backend       string
	Command       CommandConfig
	Language      string
	LanguageModel string
	Prompt        string
	MaxResults    int

	// Endpointing for the exec backend.
	// VADMode is the WebRTC VAD aggressiveness, 0 (lenient) to 3 (strict).
	VADMode              int
	SpeechStartTimeoutMS int
	EndSilenceMS         int
	MaxListenMS          int
	TranscribeTimeoutMS  int

	MockDelayMS         int
	NotifyNetworkErrors bool
}

// AudioConfig controls preferred and fallback input-source selection.
type AudioConfig struct {
	Input    string
	Fallback string
}

// PermissionConfig controls microphone consent prompting and the denial policy.
type PermissionConfig struct {
	Prompt string
	OnDeny string
}

// IndicatorConfig controls labels, notices, and audio cues.
type IndicatorConfig struct {
	Enable          bool
	Backend         string
	DesktopAppName  string
	SoundEnable     bool
	NoticeTimeoutMS int
	TextIdle        string
	TextListening   string
	TextUnavailable string
	TextDenied      string
	TextGranted     string
}

// OutputConfig controls side effects applied to each appended transcript entry.
type OutputConfig struct {
	Clipboard bool
}

// CommandConfig stores a raw command string and its parsed argv form.
type CommandConfig struct {
	Raw  string
	Argv []string
}

// DebugConfig controls optional debug artifact output.
type DebugConfig struct {
	EnableAudioDump bool
}

// Warning is a non-fatal parse/validation message.
type Warning struct {
	Line    int
	Message string
}

const (
	BackendExec = "exec"
	BackendMock = "mock"

	PromptDialog = "dialog"
	PromptAuto   = "auto"
	PromptNone   = "none"

	DenyIgnore  = "ignore"
	DenyDisable = "disable"
)
