package config

import (
	"encoding/json"
	"fmt"
	"strings"
)

type jsoncConfig struct {
	Recognizer *jsoncRecognizer `json:"recognizer"`
	Audio      *jsoncAudio      `json:"audio"`
	Permission *jsoncPermission `json:"permission"`
	Indicator  *jsoncIndicator  `json:"indicator"`
	Output     *jsoncOutput     `json:"output"`
	Debug      *jsoncDebug      `json:"debug"`
}

type jsoncRecognizer struct {
	Backend              *string `json:"backend"`
	Command              *string `json:"command"`
	Language             *string `json:"language"`
	LanguageModel        *string `json:"language_model"`
	Prompt               *string `json:"prompt"`
	MaxResults           *int    `json:"max_results"`
	VADMode              *int    `json:"vad_mode"`
	SpeechStartTimeoutMS *int    `json:"speech_start_timeout_ms"`
	EndSilenceMS         *int    `json:"end_silence_ms"`
	MaxListenMS          *int    `json:"max_listen_ms"`
	TranscribeTimeoutMS  *int    `json:"transcribe_timeout_ms"`
	MockDelayMS          *int    `json:"mock_delay_ms"`
	NotifyNetworkErrors  *bool   `json:"notify_network_errors"`
}

type jsoncAudio struct {
	Input    *string `json:"input"`
	Fallback *string `json:"fallback"`
}

type jsoncPermission struct {
	Prompt *string `json:"prompt"`
	OnDeny *string `json:"on_deny"`
}

type jsoncIndicator struct {
	Enable          *bool               `json:"enable"`
	Backend         *string             `json:"backend"`
	DesktopAppName  *string             `json:"desktop_app_name"`
	SoundEnable     *bool               `json:"sound_enable"`
	NoticeTimeoutMS *int                `json:"notice_timeout_ms"`
	Text            *jsoncIndicatorText `json:"text"`
}

type jsoncIndicatorText struct {
	Idle        *string `json:"idle"`
	Listening   *string `json:"listening"`
	Unavailable *string `json:"unavailable"`
	Denied      *string `json:"denied"`
	Granted     *string `json:"granted"`
}

type jsoncOutput struct {
	Clipboard *bool `json:"clipboard"`
}

type jsoncDebug struct {
	AudioDump *bool `json:"audio_dump"`
}

func parseJSONC(content string, base Config) (Config, []Warning, error) {
	normalized, err := normalizeJSONC(content)
	if err != nil {
		return Config{}, nil, err
	}

	decoder := json.NewDecoder(strings.NewReader(normalized))
	decoder.DisallowUnknownFields()

	var payload jsoncConfig
	if err := decoder.Decode(&payload); err != nil {
		return Config{}, nil, wrapJSONDecodeError(normalized, err)
	}
	if err := ensureSingleJSONValue(decoder); err != nil {
		return Config{}, nil, wrapJSONDecodeError(normalized, err)
	}

	cfg := base
	if err := payload.applyTo(&cfg); err != nil {
		return Config{}, nil, err
	}

	warnings, err := Validate(cfg)
	if err != nil {
		return Config{}, nil, err
	}
	return cfg, warnings, nil
}

func (payload jsoncConfig) applyTo(cfg *Config) error {
	if r := payload.Recognizer; r != nil {
		setString(&cfg.Recognizer.Backend, r.Backend, true)
		setString(&cfg.Recognizer.Language, r.Language, true)
		setString(&cfg.Recognizer.LanguageModel, r.LanguageModel, true)
		setString(&cfg.Recognizer.Prompt, r.Prompt, false)
		setValue(&cfg.Recognizer.MaxResults, r.MaxResults)
		setValue(&cfg.Recognizer.VADMode, r.VADMode)
		setValue(&cfg.Recognizer.SpeechStartTimeoutMS, r.SpeechStartTimeoutMS)
		setValue(&cfg.Recognizer.EndSilenceMS, r.EndSilenceMS)
		setValue(&cfg.Recognizer.MaxListenMS, r.MaxListenMS)
		setValue(&cfg.Recognizer.TranscribeTimeoutMS, r.TranscribeTimeoutMS)
		setValue(&cfg.Recognizer.MockDelayMS, r.MockDelayMS)
		setValue(&cfg.Recognizer.NotifyNetworkErrors, r.NotifyNetworkErrors)

		if r.Command != nil {
			argv, err := ParseCommand(*r.Command)
			if err != nil {
				return fmt.Errorf("invalid recognizer.command: %w", err)
			}
			cfg.Recognizer.Command = CommandConfig{Raw: *r.Command, Argv: argv}
		}
	}

	if a := payload.Audio; a != nil {
		setString(&cfg.Audio.Input, a.Input, true)
		setString(&cfg.Audio.Fallback, a.Fallback, true)
	}

	if p := payload.Permission; p != nil {
		setString(&cfg.Permission.Prompt, p.Prompt, true)
		setString(&cfg.Permission.OnDeny, p.OnDeny, true)
	}

	if ind := payload.Indicator; ind != nil {
		setValue(&cfg.Indicator.Enable, ind.Enable)
		setString(&cfg.Indicator.Backend, ind.Backend, true)
		setString(&cfg.Indicator.DesktopAppName, ind.DesktopAppName, true)
		setValue(&cfg.Indicator.SoundEnable, ind.SoundEnable)
		setValue(&cfg.Indicator.NoticeTimeoutMS, ind.NoticeTimeoutMS)
		if t := ind.Text; t != nil {
			setString(&cfg.Indicator.TextIdle, t.Idle, false)
			setString(&cfg.Indicator.TextListening, t.Listening, false)
			setString(&cfg.Indicator.TextUnavailable, t.Unavailable, false)
			setString(&cfg.Indicator.TextDenied, t.Denied, false)
			setString(&cfg.Indicator.TextGranted, t.Granted, false)
		}
	}

	if o := payload.Output; o != nil {
		setValue(&cfg.Output.Clipboard, o.Clipboard)
	}

	if d := payload.Debug; d != nil {
		setValue(&cfg.Debug.EnableAudioDump, d.AudioDump)
	}

	return nil
}

func setValue[T any](dst *T, src *T) {
	if src != nil {
		*dst = *src
	}
}

func setString(dst *string, src *string, trim bool) {
	if src == nil {
		return
	}
	if trim {
		*dst = strings.TrimSpace(*src)
		return
	}
	*dst = *src
}
