package config

// Default returns the canonical runtime configuration used when no file is present.
func Default() Config {
	command := "hark-stt"

	return Config{
		Recognizer: RecognizerConfig{
			Backend:              BackendExec,
			Command:              CommandConfig{Raw: command, Argv: mustParseCommand(command)},
			Language:             "en-US",
			LanguageModel:        "free_form",
			Prompt:               "You may speak now",
			MaxResults:           5,
			VADMode:              3,
			SpeechStartTimeoutMS: 5000,
			EndSilenceMS:         1200,
			MaxListenMS:          30000,
			TranscribeTimeoutMS:  20000,
			MockDelayMS:          1500,
		},
		Audio: AudioConfig{
			Input:    "default",
			Fallback: "default",
		},
		Permission: PermissionConfig{
			Prompt: PromptDialog,
			OnDeny: DenyIgnore,
		},
		Indicator: IndicatorConfig{
			Enable:          true,
			Backend:         "desktop",
			DesktopAppName:  "hark",
			SoundEnable:     true,
			NoticeTimeoutMS: 2000,
			TextIdle:        "Speak",
			TextListening:   "Listening…",
			TextUnavailable: "Voice recognizer not present",
			TextDenied:      "Microphone permission denied",
			TextGranted:     "Permission granted",
		},
	}
}
