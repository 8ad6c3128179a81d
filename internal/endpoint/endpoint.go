// Package endpoint decides when a capture session has started and stopped
// speaking. Frames are classified by the WebRTC voice activity detector; the
// Detector turns those per-frame decisions into onset and end events.
package endpoint

import (
	"encoding/binary"
	"math"
	"time"
)

// Event is the result of feeding one PCM frame to a Detector.
type Event int

const (
	None            Event = iota
	SpeechBegan           // first confirmed voiced run
	SpeechEnded           // trailing silence after speech
	NoSpeechTimeout       // nothing voiced before the start deadline
	MaxDuration           // listen cap reached
)

func (e Event) String() string {
	switch e {
	case SpeechBegan:
		return "speech_began"
	case SpeechEnded:
		return "speech_ended"
	case NoSpeechTimeout:
		return "no_speech_timeout"
	case MaxDuration:
		return "max_duration"
	default:
		return "none"
	}
}

// Config holds detector timing. Zero durations disable that rule.
type Config struct {
	// Mode is the VAD aggressiveness passed to NewVAD.
	Mode               int
	SpeechStartTimeout time.Duration
	EndSilence         time.Duration
	MaxDuration        time.Duration
	// Debounce is the number of consecutive voiced frames that confirm speech.
	Debounce int
}

// Detector tracks speech onset and trailing silence across 16-bit PCM frames.
// It is not safe for concurrent use.
type Detector struct {
	cfg Config

	elapsed    time.Duration
	voicedRun  int
	speaking   bool
	lastVoiced time.Duration
	done       bool
}

// NewDetector returns a Detector with cfg; Debounce defaults to 3 frames.
func NewDetector(cfg Config) *Detector {
	if cfg.Debounce <= 0 {
		cfg.Debounce = 3
	}
	return &Detector{cfg: cfg}
}

// Feed advances the detector by one frame of the given duration and returns
// the terminal or onset event it produced. After a terminal event every
// further call returns None.
func (d *Detector) Feed(voiced bool, frame time.Duration) Event {
	if d.done {
		return None
	}
	d.elapsed += frame

	event := None
	if voiced {
		d.voicedRun++
		if d.speaking {
			d.lastVoiced = d.elapsed
		} else if d.voicedRun >= d.cfg.Debounce {
			d.speaking = true
			d.lastVoiced = d.elapsed
			event = SpeechBegan
		}
	} else {
		d.voicedRun = 0
	}

	switch {
	case d.cfg.MaxDuration > 0 && d.elapsed >= d.cfg.MaxDuration:
		d.done = true
		if event == None {
			event = MaxDuration
		}
	case d.speaking && d.cfg.EndSilence > 0 && d.elapsed-d.lastVoiced >= d.cfg.EndSilence:
		d.done = true
		event = SpeechEnded
	case !d.speaking && d.cfg.SpeechStartTimeout > 0 && d.elapsed >= d.cfg.SpeechStartTimeout:
		d.done = true
		event = NoSpeechTimeout
	}
	return event
}

// Speaking reports whether speech onset has been confirmed.
func (d *Detector) Speaking() bool {
	return d.speaking
}

// Done reports whether a terminal event has been returned.
func (d *Detector) Done() bool {
	return d.done
}

// Elapsed returns the audio time fed so far.
func (d *Detector) Elapsed() time.Duration {
	return d.elapsed
}

// RMS returns the normalized root-mean-square level of little-endian s16 PCM
// in the range [0, 1]. It feeds level meters only.
func RMS(pcm []byte) float64 {
	samples := len(pcm) / 2
	if samples == 0 {
		return 0
	}
	var sum float64
	for i := 0; i+1 < len(pcm); i += 2 {
		v := float64(int16(binary.LittleEndian.Uint16(pcm[i:]))) / 32768
		sum += v * v
	}
	return math.Sqrt(sum / float64(samples))
}

// FrameDuration returns the playback duration of s16 mono PCM at sampleRate.
func FrameDuration(pcm []byte, sampleRate int) time.Duration {
	if sampleRate <= 0 {
		return 0
	}
	samples := len(pcm) / 2
	return time.Duration(samples) * time.Second / time.Duration(sampleRate)
}
