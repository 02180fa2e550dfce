package resample

import (
	"errors"
	"math"

	"github.com/cwbudde/algo-autotune/dsp/core"
)

var (
	// ErrInvalidRatio indicates an invalid up/down ratio.
	ErrInvalidRatio = errors.New("resample: invalid ratio")
	// ErrInvalidRate indicates an invalid input/output sample rate.
	ErrInvalidRate = errors.New("resample: invalid sample rate")
)

// Resampler performs rational sample-rate conversion using a polyphase FIR.
//
// A Resampler is immutable after construction and safe for concurrent use.
type Resampler struct {
	up      int
	down    int
	quality Quality

	nTaps  int
	phases [][]float64
}

// NewRational creates a resampler for ratio up/down. The ratio is reduced by
// its greatest common divisor.
func NewRational(up, down int, opts ...Option) (*Resampler, error) {
	if up <= 0 || down <= 0 {
		return nil, ErrInvalidRatio
	}

	g := gcd(up, down)
	up /= g
	down /= g

	cfg := newConfig(opts)

	taps, err := designLowpass(up, down, cfg)
	if err != nil {
		return nil, err
	}

	return &Resampler{
		up:      up,
		down:    down,
		quality: cfg.quality,
		nTaps:   len(taps),
		phases:  splitPhases(taps, up),
	}, nil
}

// NewForRates creates a resampler by approximating outRate/inRate as a ratio.
func NewForRates(inRate, outRate float64, opts ...Option) (*Resampler, error) {
	if !core.IsFinitePositive(inRate) || !core.IsFinitePositive(outRate) {
		return nil, ErrInvalidRate
	}

	cfg := newConfig(opts)
	up, down := approximateRatio(outRate/inRate, cfg.maxDen)

	return NewRational(up, down, opts...)
}

// Resample converts input using ratio up/down as a one-shot helper.
func Resample(input []float64, up, down int, opts ...Option) ([]float64, error) {
	r, err := NewRational(up, down, opts...)
	if err != nil {
		return nil, err
	}

	return r.Process(input), nil
}

// ResampleToLength converts input by up/down, removes the filter's group
// delay and fits the result to exactly n samples.
func ResampleToLength(input []float64, up, down, n int, opts ...Option) ([]float64, error) {
	r, err := NewRational(up, down, opts...)
	if err != nil {
		return nil, err
	}

	out := r.Process(input)

	skip := min(int(math.Round(r.Delay())), len(out))

	return core.FitLength(out[skip:], n), nil
}

// Process converts a complete input block.
func (r *Resampler) Process(input []float64) []float64 {
	n := r.OutputLen(len(input))
	if n == 0 {
		return nil
	}

	out := make([]float64, n)

	for m := range out {
		pos := m * r.down
		idx := pos / r.up
		taps := r.phases[pos%r.up]

		var y float64

		for k, c := range taps {
			j := idx - k
			if j < 0 {
				break
			}

			if j < len(input) {
				y += c * input[j]
			}
		}

		out[m] = y
	}

	return out
}

// OutputLen returns the number of samples Process produces for inputLen samples.
func (r *Resampler) OutputLen(inputLen int) int {
	if inputLen <= 0 {
		return 0
	}

	return (inputLen*r.up + r.down - 1) / r.down
}

// Delay returns the group delay of the anti-aliasing filter in output samples.
func (r *Resampler) Delay() float64 {
	return 0.5 * float64(r.nTaps-1) / float64(r.down)
}

// Ratio returns reduced up/down conversion factors.
func (r *Resampler) Ratio() (up, down int) {
	return r.up, r.down
}

// Quality returns the configured quality mode.
func (r *Resampler) Quality() Quality {
	return r.quality
}
