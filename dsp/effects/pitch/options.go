package pitch

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/cwbudde/algo-autotune/dsp/core"
	"github.com/cwbudde/algo-autotune/dsp/resample"
	"github.com/cwbudde/algo-autotune/dsp/window"
)

const (
	// MaxPassRatio bounds the ratio applied in a single pass (three octaves).
	// Larger shifts, and shifts below 1/MaxPassRatio, are split into equal
	// passes.
	MaxPassRatio = 8.0

	identityEps = 1e-12
)

var (
	// ErrInvalidRatio indicates a non-positive or non-finite ratio.
	ErrInvalidRatio = errors.New("pitch: invalid ratio")
	// ErrInvalidConfig indicates unusable processor settings.
	ErrInvalidConfig = errors.New("pitch: invalid configuration")
)

// Method selects the shifting algorithm.
type Method int

const (
	// MethodSpectral uses the phase vocoder (default).
	MethodSpectral Method = iota
	// MethodWSOLA uses time-domain WSOLA plus resampling.
	MethodWSOLA
)

// String returns the lower-case method name.
func (m Method) String() string {
	switch m {
	case MethodSpectral:
		return "spectral"
	case MethodWSOLA:
		return "wsola"
	default:
		return fmt.Sprintf("method(%d)", int(m))
	}
}

// ParseMethod resolves "spectral" or "wsola".
func ParseMethod(name string) (Method, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "spectral", "vocoder":
		return MethodSpectral, nil
	case "wsola":
		return MethodWSOLA, nil
	default:
		return MethodSpectral, fmt.Errorf("%w: unknown method %q", ErrInvalidConfig, name)
	}
}

type config struct {
	method Method

	frameSize       int
	analysisHop     int
	windowType      window.Type
	resampleQuality resample.Quality

	sequenceMs float64
	overlapMs  float64
	searchMs   float64
}

func defaultConfig() config {
	return config{
		method:          MethodSpectral,
		frameSize:       defaultFrameSize,
		analysisHop:     defaultAnalysisHop,
		windowType:      window.TypeHann,
		resampleQuality: resample.QualityBalanced,
		sequenceMs:      defaultSequenceMs,
		overlapMs:       defaultOverlapMs,
		searchMs:        defaultSearchMs,
	}
}

func newConfig(opts []Option) config {
	cfg := defaultConfig()

	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	return cfg
}

// Option configures a shifter.
type Option func(*config)

// WithMethod selects the shifting algorithm used by Shift and NewProcessor.
func WithMethod(m Method) Option {
	return func(c *config) { c.method = m }
}

// WithFrameSize sets the phase-vocoder FFT size (power of two, >= 64).
func WithFrameSize(n int) Option {
	return func(c *config) { c.frameSize = n }
}

// WithAnalysisHop sets the phase-vocoder analysis hop in samples.
func WithAnalysisHop(n int) Option {
	return func(c *config) { c.analysisHop = n }
}

// WithWindow sets the phase-vocoder window.
func WithWindow(t window.Type) Option {
	return func(c *config) { c.windowType = t }
}

// WithResampleQuality sets the quality of the duration-correcting resampler.
func WithResampleQuality(q resample.Quality) Option {
	return func(c *config) { c.resampleQuality = q }
}

// WithWSOLATiming sets the WSOLA sequence, overlap and search lengths in
// milliseconds.
func WithWSOLATiming(sequenceMs, overlapMs, searchMs float64) Option {
	return func(c *config) {
		c.sequenceMs = sequenceMs
		c.overlapMs = overlapMs
		c.searchMs = searchMs
	}
}

// ValidateRatio reports whether ratio can be applied by any shifter. Every
// positive finite ratio is accepted.
func ValidateRatio(ratio float64) error {
	if !core.IsFinitePositive(ratio) {
		return fmt.Errorf("%w: must be positive and finite: %v", ErrInvalidRatio, ratio)
	}

	return nil
}

// Passes splits ratio into n equal per-pass ratios whose product is ratio,
// each within [1/MaxPassRatio, MaxPassRatio].
func Passes(ratio float64) (perPass float64, n int) {
	spans := math.Abs(math.Log(ratio)) / math.Log(MaxPassRatio)

	n = max(int(math.Ceil(spans-identityEps)), 1)
	if n == 1 {
		return ratio, 1
	}

	return math.Pow(ratio, 1/float64(n)), n
}

func isIdentity(ratio float64) bool {
	return math.Abs(ratio-1) <= identityEps
}
