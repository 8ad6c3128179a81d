package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/go-audio/wav"
	"github.com/rbright/hark/internal/recognizer"
	"github.com/stretchr/testify/require"
)

func writeScript(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "stt")
	require.NoError(t, os.WriteFile(path, []byte("#!/usr/bin/env bash\nset -euo pipefail\n"+body), 0o755))
	return path
}

func testRequest() recognizer.Request {
	return recognizer.Request{
		Prompt:        "You may speak now",
		LanguageModel: recognizer.LanguageModelFreeForm,
		Language:      "en-US",
		MaxResults:    3,
	}
}

func TestCommandTranscriberPassesArgsAndParsesPlainText(t *testing.T) {
	argsPath := filepath.Join(t.TempDir(), "args.txt")
	script := writeScript(t, fmt.Sprintf(`
printf '%%s\n' "$@" > %q
audio=""
while [[ $# -gt 0 ]]; do
  if [[ "$1" == "--audio" ]]; then audio="$2"; fi
  shift
done
[[ -s "$audio" ]]
echo "  turn on the lights  "
`, argsPath))

	transcriber := CommandTranscriber{Argv: []string{script, "--fast"}, SampleRate: 16000}
	candidates, err := transcriber.Transcribe(context.Background(), make([]byte, 640), testRequest())
	require.NoError(t, err)
	require.Equal(t, []string{"turn on the lights"}, candidates)

	data, err := os.ReadFile(argsPath)
	require.NoError(t, err)
	args := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Equal(t, "--fast", args[0])
	require.Equal(t, "--audio", args[1])
	require.Equal(t, []string{"--language", "en-US", "--language-model", "free_form", "--max-results", "3"}, args[3:])
}

func TestCommandTranscriberRemovesTempFile(t *testing.T) {
	dir := t.TempDir()
	script := writeScript(t, "echo ok\n")

	transcriber := CommandTranscriber{Argv: []string{script}, SampleRate: 16000, TempDir: dir}
	_, err := transcriber.Transcribe(context.Background(), make([]byte, 64), testRequest())
	require.NoError(t, err)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Empty(t, entries)
}

func TestCommandTranscriberNonZeroExitIsServerError(t *testing.T) {
	script := writeScript(t, "echo 'model crashed' >&2\nexit 3\n")

	_, err := CommandTranscriber{Argv: []string{script}, SampleRate: 16000}.
		Transcribe(context.Background(), make([]byte, 64), testRequest())
	require.Error(t, err)
	require.Contains(t, err.Error(), "model crashed")
	require.Equal(t, recognizer.ErrServer, codeFor(err))
}

func TestCommandTranscriberMissingCommandIsClientError(t *testing.T) {
	_, err := CommandTranscriber{Argv: []string{"definitely-missing-hark-stt"}, SampleRate: 16000}.
		Transcribe(context.Background(), make([]byte, 64), testRequest())
	require.Error(t, err)
	require.Equal(t, recognizer.ErrClient, codeFor(err))
}

func TestCommandTranscriberEmptyArgvIsClientError(t *testing.T) {
	_, err := CommandTranscriber{SampleRate: 16000}.Transcribe(context.Background(), nil, testRequest())
	require.Error(t, err)
	require.Equal(t, recognizer.ErrClient, codeFor(err))
}

func TestCommandTranscriberDeadlineIsNetworkTimeout(t *testing.T) {
	script := writeScript(t, "exec sleep 5\n")

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	_, err := CommandTranscriber{Argv: []string{script}, SampleRate: 16000}.Transcribe(ctx, make([]byte, 64), testRequest())
	require.Error(t, err)
	require.Equal(t, recognizer.ErrNetworkTimeout, codeFor(err))
}

func TestParseOutputJSON(t *testing.T) {
	candidates, err := parseOutput([]byte(`{"text": "hello", "alternatives": ["", "yellow", "fellow", "mellow"]}`), 3)
	require.NoError(t, err)
	require.Equal(t, []string{"hello", "yellow", "fellow"}, candidates)
}

func TestParseOutputJSONError(t *testing.T) {
	_, err := parseOutput([]byte(`{"error": "no_match"}`), 5)
	require.Error(t, err)
	require.Equal(t, recognizer.ErrNoMatch, codeFor(err))

	_, err = parseOutput([]byte(`{"error": "gpu on fire"}`), 5)
	require.Equal(t, recognizer.ErrServer, codeFor(err))
}

func TestParseOutputBlankAndMalformed(t *testing.T) {
	candidates, err := parseOutput([]byte("  \n"), 5)
	require.NoError(t, err)
	require.Empty(t, candidates)

	_, err = parseOutput([]byte(`{"text": `), 5)
	require.Equal(t, recognizer.ErrServer, codeFor(err))
}

func TestCodeForFallbacks(t *testing.T) {
	require.Equal(t, recognizer.ErrNetworkTimeout, codeFor(fmt.Errorf("wrap: %w", context.DeadlineExceeded)))
	require.Equal(t, recognizer.ErrClient, codeFor(fmt.Errorf("wrap: %w", exec.ErrNotFound)))
	require.Equal(t, recognizer.ErrClient, codeFor(errors.New("other")))
	require.Equal(t, recognizer.ErrAudio, codeFor(&Failure{Code: recognizer.ErrAudio}))
}

func TestEncodeWAVRoundTripsHeader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.wav")
	file, err := os.Create(path)
	require.NoError(t, err)

	pcm := []byte{0x00, 0x40, 0x00, 0xC0, 0x01, 0x00, 0xFF, 0xFF}
	require.NoError(t, EncodeWAV(file, pcm, 16000))
	require.NoError(t, file.Close())

	reader, err := os.Open(path)
	require.NoError(t, err)
	defer reader.Close()

	decoder := wav.NewDecoder(reader)
	require.True(t, decoder.IsValidFile())
	buf, err := decoder.FullPCMBuffer()
	require.NoError(t, err)
	require.Equal(t, 16000, int(decoder.SampleRate))
	require.Equal(t, 1, int(decoder.NumChans))
	require.Equal(t, []int{16384, -16384, 1, -1}, buf.Data)
}

func TestEncodeWAVRejectsOddLength(t *testing.T) {
	file, err := os.Create(filepath.Join(t.TempDir(), "odd.wav"))
	require.NoError(t, err)
	defer file.Close()

	require.Error(t, EncodeWAV(file, []byte{1, 2, 3}, 16000))
}
