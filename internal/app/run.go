package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/rbright/hark/internal/audio"
	"github.com/rbright/hark/internal/availability"
	"github.com/rbright/hark/internal/config"
	"github.com/rbright/hark/internal/endpoint"
	"github.com/rbright/hark/internal/indicator"
	"github.com/rbright/hark/internal/ipc"
	"github.com/rbright/hark/internal/output"
	"github.com/rbright/hark/internal/permission"
	"github.com/rbright/hark/internal/pipeline"
	"github.com/rbright/hark/internal/recognizer"
	"github.com/rbright/hark/internal/session"
	"github.com/rbright/hark/internal/ui"
)

// commandRun owns the socket and the recognizer until the screen closes or ctx ends.
func (r Runner) commandRun(ctx context.Context, cfg config.Config, headless bool, logger *slog.Logger) int {
	socketPath, err := ipc.RuntimeSocketPath()
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}

	listener, err := ipc.Acquire(ctx, socketPath, 180*time.Millisecond, 8)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		if !errors.Is(err, ipc.ErrAlreadyRunning) {
			logger.Error("acquire socket failed", "error", err.Error())
		}
		return 1
	}
	defer func() {
		_ = listener.Close()
		_ = os.Remove(socketPath)
	}()

	store, err := permissionStore()
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}

	rec := newRecognizer(cfg, logger)
	defer func() { _ = rec.Destroy() }()

	notifier := newIndicator(cfg.Indicator, logger)
	defer notifier.Close()

	controller := session.New(session.Options{
		Recognizer:          rec,
		Request:             newRequest(cfg.Recognizer),
		Gate:                permission.NewGate(store, newPrompter(cfg.Permission), logger),
		Resolver:            newResolver(cfg.Recognizer),
		Indicator:           notifier,
		Committer:           output.NewCommitter(cfg.Output, logger),
		Labels:              newLabels(cfg.Indicator),
		DisableOnDeny:       cfg.Permission.OnDeny == config.DenyDisable,
		NotifyNetworkErrors: cfg.Recognizer.NotifyNetworkErrors,
		NoticeDuration:      millis(cfg.Indicator.NoticeTimeoutMS),
		Logger:              logger,
	})

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	runErr := make(chan error, 1)
	go func() { runErr <- controller.Run(runCtx) }()
	serveErr := make(chan error, 1)
	go func() { serveErr <- ipc.Serve(runCtx, listener, controller) }()

	logger.Info("screen open", "socket", socketPath, "headless", headless, "backend", cfg.Recognizer.Backend)

	var screenErr error
	if headless {
		printHeadless(runCtx, r.Stdout, controller)
	} else {
		screenErr = ui.Run(runCtx, controller)
	}

	cancel()
	errs := errors.Join(screenErr, <-runErr, <-serveErr)
	logger.Info("screen closed", "entries", len(controller.Snapshot().Entries))
	if errs != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", errs)
		logger.Error("screen failed", "error", errs.Error())
		return 1
	}
	return 0
}

func newRecognizer(cfg config.Config, logger *slog.Logger) recognizer.Recognizer {
	rc := cfg.Recognizer
	if rc.Backend == config.BackendMock {
		return recognizer.NewMock(millis(rc.MockDelayMS))
	}
	return pipeline.New(pipeline.Options{
		Open: pipeline.PulseSource(cfg.Audio.Input, cfg.Audio.Fallback, logger),
		Transcriber: pipeline.CommandTranscriber{
			Argv:       rc.Command.Argv,
			SampleRate: audio.SampleRate,
		},
		Endpoint: endpoint.Config{
			Mode:               rc.VADMode,
			SpeechStartTimeout: millis(rc.SpeechStartTimeoutMS),
			EndSilence:         millis(rc.EndSilenceMS),
			MaxDuration:        millis(rc.MaxListenMS),
		},
		TranscribeTimeout: millis(rc.TranscribeTimeoutMS),
		AudioDump:         cfg.Debug.EnableAudioDump,
		Logger:            logger,
	})
}

func newRequest(rc config.RecognizerConfig) recognizer.Request {
	return recognizer.Request{
		Prompt:        rc.Prompt,
		LanguageModel: recognizer.LanguageModel(rc.LanguageModel),
		Language:      rc.Language,
		MaxResults:    rc.MaxResults,
	}
}

func newResolver(rc config.RecognizerConfig) availability.Resolver {
	if rc.Backend == config.BackendMock {
		return availability.Builtin{Name: config.BackendMock}
	}
	return availability.Command{Argv: rc.Command.Argv}
}

func newPrompter(pc config.PermissionConfig) permission.Prompter {
	switch pc.Prompt {
	case config.PromptAuto:
		return permission.Auto{}
	case config.PromptNone:
		return nil
	default:
		return permission.Dialog{}
	}
}

func newIndicator(cfg config.IndicatorConfig, logger *slog.Logger) indicator.Indicator {
	if !cfg.Enable && !cfg.SoundEnable {
		return indicator.Noop{}
	}
	return indicator.New(cfg, logger)
}

func newLabels(cfg config.IndicatorConfig) session.Labels {
	return session.Labels{
		Idle:        cfg.TextIdle,
		Listening:   cfg.TextListening,
		Unavailable: cfg.TextUnavailable,
		Denied:      cfg.TextDenied,
		Granted:     cfg.TextGranted,
	}
}

func millis(ms int) time.Duration {
	return time.Duration(ms) * time.Millisecond
}

// printHeadless writes new log lines, notices and label changes to w until
// ctx ends or the controller stops.
func printHeadless(ctx context.Context, w io.Writer, controller *session.Controller) {
	var (
		printed    int
		label      = controller.Snapshot().Label
		lastNotice time.Time
	)
	fmt.Fprintf(w, "hark: %s\n", label)

	for {
		select {
		case <-ctx.Done():
			return
		case <-controller.Done():
			return
		case <-controller.Updates():
		}

		snap := controller.Snapshot()
		if len(snap.Entries) < printed {
			fmt.Fprintln(w, "-- cleared --")
			printed = 0
		}
		for _, entry := range snap.Entries[printed:] {
			fmt.Fprintln(w, entry.String())
		}
		printed = len(snap.Entries)

		if snap.Notice != "" && !snap.NoticeUntil.Equal(lastNotice) {
			fmt.Fprintf(w, "! %s\n", snap.Notice)
			lastNotice = snap.NoticeUntil
		}
		if snap.Label != label {
			fmt.Fprintf(w, "hark: %s\n", snap.Label)
			label = snap.Label
		}
	}
}
