package core

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidWaveform indicates a waveform that cannot be processed.
var ErrInvalidWaveform = errors.New("core: invalid waveform")

// Waveform is a mono block of samples with its sample rate in Hz.
//
// Waveforms are treated as immutable values: processors return a new
// Waveform instead of mutating Samples in place.
type Waveform struct {
	Samples    []float64
	SampleRate int
}

// NewWaveform validates and wraps samples. The slice is not copied.
func NewWaveform(samples []float64, sampleRate int) (Waveform, error) {
	w := Waveform{Samples: samples, SampleRate: sampleRate}
	if err := w.Validate(); err != nil {
		return Waveform{}, err
	}

	return w, nil
}

// Validate reports whether w has a positive sample rate and at least one sample.
func (w Waveform) Validate() error {
	if w.SampleRate <= 0 {
		return fmt.Errorf("%w: sample rate must be > 0: %d", ErrInvalidWaveform, w.SampleRate)
	}

	if len(w.Samples) == 0 {
		return fmt.Errorf("%w: no samples", ErrInvalidWaveform)
	}

	return nil
}

// Len returns the number of samples.
func (w Waveform) Len() int { return len(w.Samples) }

// Duration returns the playback length of w.
func (w Waveform) Duration() time.Duration {
	if w.SampleRate <= 0 {
		return 0
	}

	return time.Duration(float64(len(w.Samples)) / float64(w.SampleRate) * float64(time.Second))
}

// Clone returns a deep copy of w.
func (w Waveform) Clone() Waveform {
	return w.WithSamples(append([]float64(nil), w.Samples...))
}

// WithSamples returns a waveform with w's sample rate and the given samples.
func (w Waveform) WithSamples(samples []float64) Waveform {
	return Waveform{Samples: samples, SampleRate: w.SampleRate}
}
