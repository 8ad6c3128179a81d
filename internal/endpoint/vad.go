package endpoint

import (
	"fmt"

	webrtcvad "github.com/maxhawkins/go-webrtcvad"
)

const vadFrameMs = 20

// Classifier reports whether a chunk of s16 mono PCM contains speech.
type Classifier interface {
	Voiced(pcm []byte) (bool, error)
}

// VAD classifies PCM with WebRTC voice activity detection. Input is split
// into 20ms frames; a partial tail is kept for the next call. It is not safe
// for concurrent use.
type VAD struct {
	vad        *webrtcvad.VAD
	sampleRate int
	frameBytes int
	buf        []byte
}

// NewVAD returns a detector for sampleRate (8, 16, 32 or 48 kHz) at the given
// aggressiveness, 0 through 3.
func NewVAD(sampleRate int, mode int) (*VAD, error) {
	if mode < 0 || mode > 3 {
		return nil, fmt.Errorf("vad mode %d out of range 0..3", mode)
	}
	switch sampleRate {
	case 8000, 16000, 32000, 48000:
	default:
		return nil, fmt.Errorf("vad does not support %d Hz", sampleRate)
	}

	v, err := webrtcvad.New()
	if err != nil {
		return nil, fmt.Errorf("create vad: %w", err)
	}
	if err := v.SetMode(mode); err != nil {
		return nil, fmt.Errorf("set vad mode: %w", err)
	}
	return &VAD{
		vad:        v,
		sampleRate: sampleRate,
		frameBytes: sampleRate * vadFrameMs / 1000 * 2,
	}, nil
}

// Voiced reports whether any complete frame in pcm (plus the carried tail)
// was classified as speech.
func (v *VAD) Voiced(pcm []byte) (bool, error) {
	v.buf = append(v.buf, pcm...)

	voiced := false
	for len(v.buf) >= v.frameBytes {
		frame := v.buf[:v.frameBytes]
		v.buf = v.buf[v.frameBytes:]

		active, err := v.vad.Process(v.sampleRate, frame)
		if err != nil {
			return voiced, fmt.Errorf("vad process: %w", err)
		}
		voiced = voiced || active
	}
	return voiced, nil
}

// Reset drops any carried partial frame.
func (v *VAD) Reset() {
	v.buf = v.buf[:0]
}
