package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/rbright/hark/internal/recognizer"
)

// Transcriber turns one captured utterance into ranked candidates.
type Transcriber interface {
	Transcribe(ctx context.Context, pcm []byte, req recognizer.Request) ([]string, error)
}

// Failure is an error that already carries its recognizer error code.
type Failure struct {
	Code recognizer.ErrorCode
	Err  error
}

func (f *Failure) Error() string {
	if f.Err == nil {
		return f.Code.String()
	}
	return fmt.Sprintf("%s: %v", f.Code, f.Err)
}

func (f *Failure) Unwrap() error {
	return f.Err
}

// codeFor maps a transcription error onto the recognizer error vocabulary.
func codeFor(err error) recognizer.ErrorCode {
	var failure *Failure
	var exitErr *exec.ExitError
	switch {
	case errors.As(err, &failure):
		return failure.Code
	case errors.Is(err, context.DeadlineExceeded):
		return recognizer.ErrNetworkTimeout
	case errors.Is(err, exec.ErrNotFound), errors.Is(err, os.ErrNotExist):
		return recognizer.ErrClient
	case errors.As(err, &exitErr):
		return recognizer.ErrServer
	default:
		return recognizer.ErrClient
	}
}

// CommandTranscriber runs an external speech-to-text program on a temporary
// WAV file and reads candidates from its stdout.
//
// The program is invoked as
//
//	argv... --audio PATH --language L --language-model M --max-results N
//
// and prints either plain text or {"text", "alternatives", "error"} JSON.
type CommandTranscriber struct {
	Argv       []string
	SampleRate int
	TempDir    string
}

type commandOutput struct {
	Text         string   `json:"text"`
	Alternatives []string `json:"alternatives"`
	Error        string   `json:"error"`
}

func (t CommandTranscriber) Transcribe(ctx context.Context, pcm []byte, req recognizer.Request) ([]string, error) {
	if len(t.Argv) == 0 {
		return nil, &Failure{Code: recognizer.ErrClient, Err: errors.New("recognizer command is empty")}
	}

	file, err := os.CreateTemp(t.TempDir, "hark-*.wav")
	if err != nil {
		return nil, &Failure{Code: recognizer.ErrClient, Err: fmt.Errorf("temp file: %w", err)}
	}
	defer os.Remove(file.Name())
	defer file.Close()

	if err := EncodeWAV(file, pcm, t.SampleRate); err != nil {
		return nil, &Failure{Code: recognizer.ErrClient, Err: err}
	}

	args := append([]string(nil), t.Argv[1:]...)
	args = append(args, "--audio", file.Name())
	if req.Language != "" {
		args = append(args, "--language", req.Language)
	}
	if req.LanguageModel != "" {
		args = append(args, "--language-model", string(req.LanguageModel))
	}
	if req.MaxResults > 0 {
		args = append(args, "--max-results", strconv.Itoa(req.MaxResults))
	}

	cmd := exec.CommandContext(ctx, t.Argv[0], args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.WaitDelay = time.Second

	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("recognizer command: %w", ctxErr)
		}
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return nil, fmt.Errorf("recognizer command failed: %w: %s", err, msg)
		}
		return nil, fmt.Errorf("recognizer command failed: %w", err)
	}

	return parseOutput(stdout.Bytes(), req.MaxResults)
}

// parseOutput reads candidates from command stdout. Blank output and blank
// candidates are dropped; at most limit candidates are kept when limit > 0.
func parseOutput(out []byte, limit int) ([]string, error) {
	trimmed := bytes.TrimSpace(out)
	if len(trimmed) == 0 {
		return nil, nil
	}

	var candidates []string
	if trimmed[0] == '{' {
		var payload commandOutput
		if err := json.Unmarshal(trimmed, &payload); err != nil {
			return nil, &Failure{Code: recognizer.ErrServer, Err: fmt.Errorf("decode recognizer output: %w", err)}
		}
		if payload.Error != "" {
			code, ok := recognizer.ParseErrorCode(payload.Error)
			if !ok {
				code = recognizer.ErrServer
			}
			return nil, &Failure{Code: code, Err: fmt.Errorf("recognizer reported %q", payload.Error)}
		}
		candidates = append([]string{payload.Text}, payload.Alternatives...)
	} else {
		candidates = []string{string(trimmed)}
	}

	kept := candidates[:0]
	for _, candidate := range candidates {
		candidate = strings.TrimSpace(candidate)
		if candidate == "" {
			continue
		}
		kept = append(kept, candidate)
		if limit > 0 && len(kept) == limit {
			break
		}
	}
	return kept, nil
}
