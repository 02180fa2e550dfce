package pitch

import (
	"fmt"

	"github.com/cwbudde/algo-autotune/dsp/core"
)

// Processor is the shared API of the pitch shifters.
type Processor interface {
	PitchRatio() float64
	PitchSemitones() float64
	// EffectivePitchRatio returns the ratio the algorithm actually realizes,
	// which can differ from PitchRatio by hop quantization.
	EffectivePitchRatio() float64
	SetPitchRatio(ratio float64) error
	// ProcessWithError returns a shifted copy of input with the same length.
	ProcessWithError(input []float64) ([]float64, error)
}

var (
	_ Processor = (*SpectralShifter)(nil)
	_ Processor = (*WSOLAShifter)(nil)
)

// NewProcessor builds the shifter selected by WithMethod for sampleRate.
func NewProcessor(sampleRate float64, opts ...Option) (Processor, error) {
	cfg := newConfig(opts)

	switch cfg.method {
	case MethodSpectral:
		return newSpectralShifter(cfg)
	case MethodWSOLA:
		return newWSOLAShifter(sampleRate, cfg)
	default:
		return nil, fmt.Errorf("%w: unknown method %v", ErrInvalidConfig, cfg.method)
	}
}

// Shift returns w shifted by ratio (2.0 is one octave up). The result has the
// same sample rate and sample count as w. A ratio of exactly 1 returns a copy.
func Shift(w core.Waveform, ratio float64, opts ...Option) (core.Waveform, error) {
	if err := w.Validate(); err != nil {
		return core.Waveform{}, err
	}

	if err := ValidateRatio(ratio); err != nil {
		return core.Waveform{}, err
	}

	if isIdentity(ratio) {
		return w.Clone(), nil
	}

	p, err := NewProcessor(float64(w.SampleRate), opts...)
	if err != nil {
		return core.Waveform{}, err
	}

	if err := p.SetPitchRatio(ratio); err != nil {
		return core.Waveform{}, err
	}

	out, err := p.ProcessWithError(w.Samples)
	if err != nil {
		return core.Waveform{}, err
	}

	return w.WithSamples(out), nil
}

// ShiftSemitones is Shift with the amount given in semitones.
func ShiftSemitones(w core.Waveform, semitones float64, opts ...Option) (core.Waveform, error) {
	if !core.IsFinite(semitones) {
		return core.Waveform{}, fmt.Errorf("%w: semitones must be finite: %v", ErrInvalidRatio, semitones)
	}

	return Shift(w, core.SemitonesToRatio(semitones), opts...)
}
