package indicator

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestCueSamplesPresent(t *testing.T) {
	require.NotEmpty(t, cueSamples(cueStart))
	require.NotEmpty(t, cueSamples(cueStop))
	require.Nil(t, cueSamples(cueKind(99)))
}

func TestSynthesizeLength(t *testing.T) {
	pcm := synthesize(
		tone{hz: 440, length: 50 * time.Millisecond, gain: 0.2},
		tone{hz: 880, length: 50 * time.Millisecond, gain: 0.2},
	)
	require.Len(t, pcm, samplesFor(120*time.Millisecond))
}

func TestSineEnvelopeStartsAndEndsSilent(t *testing.T) {
	pcm := sine(tone{hz: 440, length: 100 * time.Millisecond, gain: 0.5})
	require.Len(t, pcm, samplesFor(100*time.Millisecond))
	require.Zero(t, pcm[0])
	require.Zero(t, pcm[len(pcm)-1])
}

func TestSineInvalidToneIsEmpty(t *testing.T) {
	require.Empty(t, sine(tone{hz: 0, length: 100 * time.Millisecond, gain: 0.2}))
	require.Empty(t, sine(tone{hz: 440, length: 0, gain: 0.2}))
	require.Empty(t, sine(tone{hz: 440, length: 100 * time.Millisecond, gain: 0}))
}

func TestSamplesFor(t *testing.T) {
	require.Zero(t, samplesFor(0))
	require.Equal(t, 400, samplesFor(25*time.Millisecond))
}

func TestEmitCueRespectsCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.ErrorIs(t, emitCue(ctx, cueStart), context.Canceled)
}
