// Package stft frames a mono signal into overlapping windowed blocks and
// computes their magnitude spectra.
package stft

import (
	"errors"
	"fmt"

	"github.com/cwbudde/algo-autotune/dsp/spectrum"
	"github.com/cwbudde/algo-autotune/dsp/window"
	algofft "github.com/cwbudde/algo-fft"
)

const (
	// DefaultFrameSize is the FFT frame size in samples.
	DefaultFrameSize = 2048
	// DefaultHop is the distance between frame starts in samples (75% overlap).
	DefaultHop = 512

	minFrameSize = 16
)

// ErrInvalidConfig indicates an unusable frame size, hop or window.
var ErrInvalidConfig = errors.New("stft: invalid configuration")

type config struct {
	frameSize  int
	hop        int
	windowType window.Type
	center     bool
}

// Option configures an Analyzer.
type Option func(*config)

// WithFrameSize sets the FFT frame size. It must be a power of two.
func WithFrameSize(n int) Option {
	return func(c *config) { c.frameSize = n }
}

// WithHop sets the hop between consecutive frames in samples.
func WithHop(n int) Option {
	return func(c *config) { c.hop = n }
}

// WithWindow selects the analysis window. Windows are always periodic.
func WithWindow(t window.Type) Option {
	return func(c *config) { c.windowType = t }
}

// WithCenter controls whether frame i is centred on sample i*hop. Centred
// framing pads the signal with frameSize/2 zeros on both sides.
func WithCenter(center bool) Option {
	return func(c *config) { c.center = center }
}

// Analyzer computes short-time magnitude spectra.
//
// An Analyzer owns its FFT plan and scratch buffers and is not safe for
// concurrent use. Use Clone to give each goroutine its own instance.
type Analyzer struct {
	cfg    config
	plan   *algofft.Plan[complex128]
	coeffs []float64
	frame  []float64
	buf    []complex128
}

// New creates an Analyzer. Defaults: frame 2048, hop 512, periodic Hann,
// centred framing.
func New(opts ...Option) (*Analyzer, error) {
	cfg := config{
		frameSize:  DefaultFrameSize,
		hop:        DefaultHop,
		windowType: window.TypeHann,
		center:     true,
	}

	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	return newAnalyzer(cfg)
}

func newAnalyzer(cfg config) (*Analyzer, error) {
	if cfg.frameSize < minFrameSize || cfg.frameSize&(cfg.frameSize-1) != 0 {
		return nil, fmt.Errorf("%w: frame size must be a power of two >= %d: %d",
			ErrInvalidConfig, minFrameSize, cfg.frameSize)
	}

	if cfg.hop <= 0 || cfg.hop > cfg.frameSize {
		return nil, fmt.Errorf("%w: hop must be in [1, %d]: %d", ErrInvalidConfig, cfg.frameSize, cfg.hop)
	}

	coeffs := window.Generate(cfg.windowType, cfg.frameSize, window.WithPeriodic())
	if len(coeffs) != cfg.frameSize {
		return nil, fmt.Errorf("%w: window generation failed for size %d", ErrInvalidConfig, cfg.frameSize)
	}

	plan, err := algofft.NewPlan64(cfg.frameSize)
	if err != nil {
		return nil, fmt.Errorf("stft: failed to create FFT plan: %w", err)
	}

	return &Analyzer{
		cfg:    cfg,
		plan:   plan,
		coeffs: coeffs,
		frame:  make([]float64, cfg.frameSize),
		buf:    make([]complex128, cfg.frameSize),
	}, nil
}

// Clone returns an independent Analyzer with the same configuration.
func (a *Analyzer) Clone() (*Analyzer, error) {
	return newAnalyzer(a.cfg)
}

// FrameSize returns the FFT size.
func (a *Analyzer) FrameSize() int { return a.cfg.frameSize }

// Hop returns the frame hop in samples.
func (a *Analyzer) Hop() int { return a.cfg.hop }

// Bins returns the number of non-negative frequency bins, frameSize/2+1.
func (a *Analyzer) Bins() int { return a.cfg.frameSize/2 + 1 }

// FrameCount returns the number of frames for a signal of n samples.
func (a *Analyzer) FrameCount(n int) int {
	if n <= 0 {
		return 0
	}

	if a.cfg.center {
		return 1 + n/a.cfg.hop
	}

	if n < a.cfg.frameSize {
		return 0
	}

	return 1 + (n-a.cfg.frameSize)/a.cfg.hop
}

// FrameStart returns the signal index of the first sample of frame i. With
// centred framing this is negative for the first frames.
func (a *Analyzer) FrameStart(i int) int {
	start := i * a.cfg.hop
	if a.cfg.center {
		start -= a.cfg.frameSize / 2
	}

	return start
}

// MagnitudeFrame writes the magnitude spectrum of frame i into dst, which
// must hold at least Bins() values. Samples outside the signal read as zero.
func (a *Analyzer) MagnitudeFrame(dst, signal []float64, i int) error {
	bins := a.Bins()
	if len(dst) < bins {
		return fmt.Errorf("stft: destination holds %d bins, need %d", len(dst), bins)
	}

	if i < 0 || i >= a.FrameCount(len(signal)) {
		return fmt.Errorf("stft: frame index %d out of range", i)
	}

	start := a.FrameStart(i)
	for n := range a.frame {
		idx := start + n
		if idx >= 0 && idx < len(signal) {
			a.frame[n] = signal[idx]
		} else {
			a.frame[n] = 0
		}
	}

	if err := window.ApplyCoefficientsInPlace(a.frame, a.coeffs); err != nil {
		return err
	}

	for n, v := range a.frame {
		a.buf[n] = complex(v, 0)
	}

	if err := a.plan.Forward(a.buf, a.buf); err != nil {
		return fmt.Errorf("stft: forward FFT failed: %w", err)
	}

	spectrum.MagnitudeInto(dst[:bins], a.buf)

	return nil
}
