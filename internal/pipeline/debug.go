package pipeline

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rbright/hark/internal/audio"
)

// dumpAudio writes the utterance under $XDG_STATE_HOME/hark/debug when
// audio dumps are enabled. Failures are logged and otherwise ignored.
func (r *Recognizer) dumpAudio(pcm []byte) {
	if !r.opts.AudioDump || len(pcm) == 0 {
		return
	}

	path, err := debugPath("audio", "wav")
	if err != nil {
		r.logWarn("unable to create debug audio dump", "error", err.Error())
		return
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		r.logWarn("unable to create debug audio dump", "error", err.Error())
		return
	}
	defer file.Close()

	if err := EncodeWAV(file, pcm, audio.SampleRate); err != nil {
		r.logWarn("unable to write debug audio dump", "error", err.Error())
		return
	}
	r.logInfo("debug audio dump written", "path", path)
}

func debugPath(prefix string, extension string) (string, error) {
	stateDir, err := stateHome()
	if err != nil {
		return "", err
	}
	dir := filepath.Join(stateDir, "hark", "debug")
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", fmt.Errorf("create debug dir: %w", err)
	}
	name := fmt.Sprintf("%s-%s.%s", prefix, time.Now().Format("20060102-150405.000"), extension)
	return filepath.Join(dir, name), nil
}

func stateHome() (string, error) {
	if xdg := strings.TrimSpace(os.Getenv("XDG_STATE_HOME")); xdg != "" {
		return xdg, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory for state: %w", err)
	}
	return filepath.Join(home, ".local", "state"), nil
}
