package recognizer

import (
	"fmt"
	"strings"
)

// Kind tags one recognizer callback.
type Kind int

const (
	KindReady Kind = iota + 1
	KindBeginningOfSpeech
	KindRmsChanged
	KindBufferReceived
	KindEndOfSpeech
	KindPartialResult
	KindResult
	KindError
	KindEvent
)

var kindNames = map[Kind]string{
	KindReady:             "ready",
	KindBeginningOfSpeech: "beginning_of_speech",
	KindRmsChanged:        "rms_changed",
	KindBufferReceived:    "buffer_received",
	KindEndOfSpeech:       "end_of_speech",
	KindPartialResult:     "partial_result",
	KindResult:            "result",
	KindError:             "error",
	KindEvent:             "event",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Event is one callback from the recognizer. Only the fields relevant to
// Kind are populated.
type Event struct {
	Kind       Kind
	Candidates []string // result, partial_result
	Code       ErrorCode
	Level      float64 // rms_changed, normalized to [0,1]
	Buffer     []byte
	EventType  int
}

func Ready() Event             { return Event{Kind: KindReady} }
func BeginningOfSpeech() Event { return Event{Kind: KindBeginningOfSpeech} }
func EndOfSpeech() Event       { return Event{Kind: KindEndOfSpeech} }
func RmsChanged(level float64) Event {
	return Event{Kind: KindRmsChanged, Level: level}
}
func BufferReceived(b []byte) Event { return Event{Kind: KindBufferReceived, Buffer: b} }
func Result(candidates ...string) Event {
	return Event{Kind: KindResult, Candidates: candidates}
}
func PartialResult(candidates ...string) Event {
	return Event{Kind: KindPartialResult, Candidates: candidates}
}
func Failure(code ErrorCode) Event { return Event{Kind: KindError, Code: code} }

// ErrorCode mirrors the platform recognizer error numbering.
type ErrorCode int

const (
	ErrNetworkTimeout ErrorCode = iota + 1
	ErrNetwork
	ErrAudio
	ErrServer
	ErrClient
	ErrSpeechTimeout
	ErrNoMatch
	ErrRecognizerBusy
	ErrInsufficientPermissions
)

type codeInfo struct {
	key  string
	kind string
}

var codeInfos = map[ErrorCode]codeInfo{
	ErrNetworkTimeout:          {key: "network_timeout", kind: "network timeout"},
	ErrNetwork:                 {key: "network", kind: "network"},
	ErrAudio:                   {key: "audio", kind: "audio"},
	ErrServer:                  {key: "server", kind: "server"},
	ErrClient:                  {key: "client", kind: "client"},
	ErrSpeechTimeout:           {key: "speech_timeout", kind: "speech time out"},
	ErrNoMatch:                 {key: "no_match", kind: "no match"},
	ErrRecognizerBusy:          {key: "recognizer_busy", kind: "recogniser busy"},
	ErrInsufficientPermissions: {key: "insufficient_permissions", kind: "insufficient permissions"},
}

// String returns the snake_case identifier used in logs and wire formats.
func (c ErrorCode) String() string {
	if info, ok := codeInfos[c]; ok {
		return info.key
	}
	return fmt.Sprintf("unknown(%d)", int(c))
}

// Notice returns the short user-facing message for the code.
func (c ErrorCode) Notice() string {
	info, ok := codeInfos[c]
	if !ok {
		return "Error detected"
	}
	return "Error detected " + info.kind
}

// Retryable reports the codes documented as worth retrying. Nothing retries
// automatically.
func (c ErrorCode) Retryable() bool {
	switch c {
	case ErrNetworkTimeout, ErrServer, ErrNoMatch:
		return true
	default:
		return false
	}
}

// ParseErrorCode resolves a snake_case or spaced identifier, e.g. "no_match".
func ParseErrorCode(raw string) (ErrorCode, bool) {
	key := strings.ToLower(strings.TrimSpace(raw))
	key = strings.NewReplacer(" ", "_", "-", "_").Replace(key)
	if key == "busy" {
		return ErrRecognizerBusy, true
	}
	for code, info := range codeInfos {
		if info.key == key {
			return code, true
		}
	}
	return 0, false
}
