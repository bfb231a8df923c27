// Package audio decodes voice recordings and extracts the per-frame loudness,
// pitch and emphasis features that drive the facial animation.
package audio

import (
	"errors"
	"time"
)

// Common errors
var (
	ErrDecode    = errors.New("audio decode failed")
	ErrNoSamples = errors.New("audio contains no samples")
	ErrFormat    = errors.New("unsupported audio format")
)

// Buffer is mono PCM audio normalized to [-1, 1]
type Buffer struct {
	Samples    []float64
	SampleRate int
}

// Duration returns the playback length of the buffer
func (b *Buffer) Duration() time.Duration {
	if b.SampleRate <= 0 {
		return 0
	}
	return time.Duration(float64(len(b.Samples)) / float64(b.SampleRate) * float64(time.Second))
}

// Features is the audio-derived input for one output frame
type Features struct {
	Talking     bool
	ChangePoint bool
	Energy      float64
	Emphasis    bool
}
