package indicator

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/jfreymuth/pulse"
)

type cueKind int

const (
	cueStart cueKind = iota + 1
	cueStop
)

const cueSampleRate = 16000

type tone struct {
	hz     float64
	length time.Duration
	gain   float64
}

var (
	startCue = synthesize(
		tone{hz: 660, length: 60 * time.Millisecond, gain: 0.16},
		tone{hz: 990, length: 80 * time.Millisecond, gain: 0.16},
	)
	stopCue = synthesize(
		tone{hz: 990, length: 60 * time.Millisecond, gain: 0.16},
		tone{hz: 660, length: 90 * time.Millisecond, gain: 0.16},
	)
)

func cueSamples(kind cueKind) []int16 {
	switch kind {
	case cueStart:
		return startCue
	case cueStop:
		return stopCue
	default:
		return nil
	}
}

// emitCue plays the cue through Pulse and blocks until it drains. ctx is
// only checked before connecting.
func emitCue(ctx context.Context, kind cueKind) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	samples := cueSamples(kind)
	if len(samples) == 0 {
		return nil
	}

	client, err := pulse.NewClient(
		pulse.ClientApplicationName("hark"),
		pulse.ClientApplicationIconName("audio-input-microphone"),
	)
	if err != nil {
		return fmt.Errorf("connect pulse server: %w", err)
	}
	defer client.Close()

	cursor := 0
	reader := pulse.Int16Reader(func(buf []int16) (int, error) {
		n := copy(buf, samples[cursor:])
		cursor += n
		if cursor >= len(samples) {
			return n, pulse.EndOfData
		}
		return n, nil
	})

	stream, err := client.NewPlayback(
		reader,
		pulse.PlaybackMono,
		pulse.PlaybackSampleRate(cueSampleRate),
		pulse.PlaybackLatency(0.02),
		pulse.PlaybackMediaName("hark cue"),
	)
	if err != nil {
		return fmt.Errorf("create pulse playback stream: %w", err)
	}
	defer stream.Close()

	stream.Start()
	stream.Drain()
	if err := stream.Error(); err != nil {
		return fmt.Errorf("play cue stream: %w", err)
	}
	return nil
}

// synthesize concatenates enveloped sine tones with short gaps.
func synthesize(tones ...tone) []int16 {
	gap := make([]int16, samplesFor(20*time.Millisecond))
	var pcm []int16
	for i, t := range tones {
		if i > 0 {
			pcm = append(pcm, gap...)
		}
		pcm = append(pcm, sine(t)...)
	}
	return pcm
}

func sine(t tone) []int16 {
	n := samplesFor(t.length)
	if n <= 0 || t.hz <= 0 || t.gain <= 0 {
		return nil
	}

	// 5ms linear ramps avoid clicks.
	ramp := max(min(n/10, cueSampleRate/200), 1)

	pcm := make([]int16, n)
	for i := range pcm {
		envelope := min(1.0, float64(i)/float64(ramp), float64(n-1-i)/float64(ramp))
		phase := 2 * math.Pi * t.hz * float64(i) / cueSampleRate
		pcm[i] = int16(math.Round(math.Sin(phase) * t.gain * envelope * math.MaxInt16))
	}
	return pcm
}

func samplesFor(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	return int(math.Round(d.Seconds() * cueSampleRate))
}
