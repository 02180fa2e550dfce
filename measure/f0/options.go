package f0

import (
	"errors"
	"runtime"

	"github.com/cwbudde/algo-autotune/dsp/stft"
	"github.com/cwbudde/algo-autotune/dsp/window"
)

const (
	// DefaultFMin is the lowest candidate frequency in Hz.
	DefaultFMin = 150.0
	// DefaultFMax is the upper candidate bound in Hz (exclusive).
	DefaultFMax = 4000.0
	// DefaultThreshold is the candidate floor relative to the frame maximum.
	DefaultThreshold = 0.1

	highPassOrder = 4
)

var (
	// ErrInsufficientSignal is returned when the input is empty or no frame
	// yields a pitch candidate.
	ErrInsufficientSignal = errors.New("f0: insufficient signal")
	// ErrInvalidConfig is returned for unusable estimator options.
	ErrInvalidConfig = errors.New("f0: invalid configuration")
)

type config struct {
	frameSize    int
	hop          int
	fmin         float64
	fmax         float64
	threshold    float64
	workers      int
	skipUnvoiced bool
	highPassHz   float64
	windowType   window.Type
}

func defaultConfig() config {
	return config{
		frameSize:  stft.DefaultFrameSize,
		hop:        stft.DefaultHop,
		fmin:       DefaultFMin,
		fmax:       DefaultFMax,
		threshold:  DefaultThreshold,
		workers:    runtime.GOMAXPROCS(0),
		windowType: window.TypeHann,
	}
}

// Option configures an Estimator.
type Option func(*config)

// WithFrameSize sets the STFT frame size (power of two).
func WithFrameSize(n int) Option {
	return func(c *config) { c.frameSize = n }
}

// WithHop sets the hop between frames in samples.
func WithHop(n int) Option {
	return func(c *config) { c.hop = n }
}

// WithWindow sets the STFT analysis window (Hann by default).
func WithWindow(t window.Type) Option {
	return func(c *config) { c.windowType = t }
}

// WithFrequencyRange limits candidates to [fmin, fmax). fmax is clipped to
// the Nyquist frequency of the analysed signal.
func WithFrequencyRange(fmin, fmax float64) Option {
	return func(c *config) {
		c.fmin = fmin
		c.fmax = fmax
	}
}

// WithThreshold sets the candidate floor as a fraction of the frame maximum.
func WithThreshold(threshold float64) Option {
	return func(c *config) { c.threshold = threshold }
}

// WithWorkers sets how many goroutines analyse frames. Values below 1 select
// runtime.GOMAXPROCS(0).
func WithWorkers(n int) Option {
	return func(c *config) {
		if n < 1 {
			n = runtime.GOMAXPROCS(0)
		}

		c.workers = n
	}
}

// WithUnvoicedFiltering excludes unvoiced frames from the mean. Off by default,
// which averages zeros from silent frames into the estimate.
func WithUnvoicedFiltering(enabled bool) Option {
	return func(c *config) { c.skipUnvoiced = enabled }
}

// WithHighPass filters the signal with a Butterworth high-pass at cutoffHz
// before framing, removing DC offset and rumble that would otherwise dominate
// the frame maximum. The cutoff must lie below the lower frequency bound.
// Zero disables the filter, which is the default.
func WithHighPass(cutoffHz float64) Option {
	return func(c *config) { c.highPassHz = cutoffHz }
}
