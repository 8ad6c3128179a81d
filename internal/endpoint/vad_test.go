package endpoint

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestVADRejectsBadSettings(t *testing.T) {
	_, err := NewVAD(16000, 4)
	require.ErrorContains(t, err, "out of range")

	_, err = NewVAD(44100, 3)
	require.ErrorContains(t, err, "44100 Hz")
}

func TestVADSilenceIsUnvoiced(t *testing.T) {
	vad, err := NewVAD(16000, 3)
	require.NoError(t, err)

	for i := 0; i < 25; i++ {
		voiced, err := vad.Voiced(make([]byte, 640))
		require.NoError(t, err)
		require.False(t, voiced)
	}
}

func TestVADCarriesPartialFrames(t *testing.T) {
	vad, err := NewVAD(16000, 2)
	require.NoError(t, err)

	_, err = vad.Voiced(make([]byte, 500))
	require.NoError(t, err)
	require.Len(t, vad.buf, 500)

	_, err = vad.Voiced(make([]byte, 500))
	require.NoError(t, err)
	require.Len(t, vad.buf, 360)

	vad.Reset()
	require.Empty(t, vad.buf)
}
