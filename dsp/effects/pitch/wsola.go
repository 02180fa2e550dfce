package pitch

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-autotune/dsp/core"
	"github.com/cwbudde/algo-autotune/dsp/interp"
	"github.com/cwbudde/algo-vecmath"
)

const (
	// Music-tuned defaults (SoundTouch's 82/10/28 ms preset): a long sequence
	// keeps several periods of low voices inside the correlation window.
	defaultSequenceMs = 82.0
	defaultOverlapMs  = 10.0
	defaultSearchMs   = 28.0

	minSequenceMs = 20.0
	maxSequenceMs = 120.0
	minOverlapMs  = 4.0
	maxOverlapMs  = 60.0
	minSearchMs   = 2.0
	maxSearchMs   = 40.0

	energyFloor = 1e-12
)

// WSOLAShifter performs time-domain pitch shifting: a WSOLA stretch by the
// pitch ratio followed by Hermite resampling back to the input length.
// Ratios beyond MaxPassRatio run as several equal passes.
//
// It is stateless between calls apart from its configuration.
type WSOLAShifter struct {
	sampleRate float64
	ratio      float64
	passRatio  float64
	passes     int

	sequenceLen int
	overlapLen  int
	searchLen   int
	stepOut     int

	fadeIn  []float64
	fadeOut []float64
}

// NewWSOLAShifter creates a WSOLA shifter for sampleRate. Only
// WithWSOLATiming applies.
func NewWSOLAShifter(sampleRate float64, opts ...Option) (*WSOLAShifter, error) {
	return newWSOLAShifter(sampleRate, newConfig(opts))
}

func newWSOLAShifter(sampleRate float64, cfg config) (*WSOLAShifter, error) {
	if !core.IsFinitePositive(sampleRate) {
		return nil, fmt.Errorf("%w: sample rate must be positive and finite: %f", ErrInvalidConfig, sampleRate)
	}

	if err := checkRange("sequence", cfg.sequenceMs, minSequenceMs, maxSequenceMs); err != nil {
		return nil, err
	}

	if err := checkRange("overlap", cfg.overlapMs, minOverlapMs, maxOverlapMs); err != nil {
		return nil, err
	}

	if err := checkRange("search", cfg.searchMs, minSearchMs, maxSearchMs); err != nil {
		return nil, err
	}

	if cfg.overlapMs >= cfg.sequenceMs {
		return nil, fmt.Errorf("%w: overlap %.1f ms must be shorter than sequence %.1f ms",
			ErrInvalidConfig, cfg.overlapMs, cfg.sequenceMs)
	}

	ms := func(v float64) int { return int(math.Round(v * 0.001 * sampleRate)) }

	p := &WSOLAShifter{
		sampleRate:  sampleRate,
		ratio:       1,
		passRatio:   1,
		passes:      1,
		sequenceLen: max(ms(cfg.sequenceMs), 32),
		overlapLen:  max(ms(cfg.overlapMs), 8),
		searchLen:   max(ms(cfg.searchMs), 1),
	}

	if p.overlapLen >= p.sequenceLen {
		return nil, fmt.Errorf("%w: overlap too large for sequence: %d >= %d",
			ErrInvalidConfig, p.overlapLen, p.sequenceLen)
	}

	p.stepOut = p.sequenceLen - p.overlapLen
	if p.stepOut < 4 {
		return nil, fmt.Errorf("%w: output hop too small: %d", ErrInvalidConfig, p.stepOut)
	}

	p.fadeIn = make([]float64, p.overlapLen)
	p.fadeOut = make([]float64, p.overlapLen)

	for i := range p.fadeIn {
		t := float64(i) / float64(p.overlapLen-1)
		in := 0.5 - 0.5*math.Cos(math.Pi*t)
		p.fadeIn[i] = in
		p.fadeOut[i] = 1 - in
	}

	return p, nil
}

func checkRange(name string, v, lo, hi float64) error {
	if math.IsNaN(v) || v < lo || v > hi {
		return fmt.Errorf("%w: %s must be in [%.0f, %.0f] ms: %f", ErrInvalidConfig, name, lo, hi, v)
	}

	return nil
}

// SampleRate returns the sample rate in Hz.
func (p *WSOLAShifter) SampleRate() float64 { return p.sampleRate }

// PitchRatio returns the requested pitch ratio.
func (p *WSOLAShifter) PitchRatio() float64 { return p.ratio }

// PitchSemitones returns the requested shift in semitones.
func (p *WSOLAShifter) PitchSemitones() float64 { return core.RatioToSemitones(p.ratio) }

// EffectivePitchRatio equals PitchRatio; the resampler is continuous.
func (p *WSOLAShifter) EffectivePitchRatio() float64 { return p.ratio }

// SetPitchRatio sets the pitch ratio.
func (p *WSOLAShifter) SetPitchRatio(ratio float64) error {
	if err := ValidateRatio(ratio); err != nil {
		return err
	}

	p.ratio = ratio
	p.passRatio, p.passes = Passes(ratio)

	return nil
}

// ProcessWithError returns input shifted by the configured ratio.
func (p *WSOLAShifter) ProcessWithError(input []float64) ([]float64, error) {
	if len(input) == 0 {
		return nil, nil
	}

	if isIdentity(p.ratio) {
		out := make([]float64, len(input))
		copy(out, input)

		return out, nil
	}

	out := input
	for range p.passes {
		out = p.processPass(out)
	}

	return out, nil
}

// processPass shifts input once by passRatio.
func (p *WSOLAShifter) processPass(input []float64) []float64 {
	out := make([]float64, len(input))
	stretched := p.timeStretch(input)

	if len(out) == 1 {
		out[0] = stretched[0]

		return out
	}

	step := float64(len(stretched)-1) / float64(len(out)-1)
	for i := range out {
		out[i] = interp.HermiteAt(stretched, float64(i)*step)
	}

	return out
}

// timeStretch lengthens input by the per-pass ratio, splicing sequences at the
// offset whose overlap correlates best with the natural continuation.
func (p *WSOLAShifter) timeStretch(input []float64) []float64 {
	targetLen := max(int(math.Round(float64(len(input))*p.passRatio)), 1)
	inStep := max(float64(p.stepOut)/p.passRatio, 1)

	out := make([]float64, (targetLen/p.stepOut+4)*p.stepOut+p.sequenceLen+1)
	for i := range p.sequenceLen {
		out[i] = interp.Zeroed(input, i)
	}

	outLen := p.sequenceLen
	prevStart := 0
	nominal := inStep

	ref := make([]float64, p.overlapLen)
	cand := make([]float64, p.overlapLen)

	for outLen < targetLen+p.sequenceLen {
		fill(ref, input, prevStart+p.stepOut)

		start := p.bestOverlap(ref, cand, input, int(math.Round(nominal)))

		splice := outLen - p.overlapLen
		for i := range p.overlapLen {
			out[splice+i] = out[splice+i]*p.fadeOut[i] + interp.Zeroed(input, start+i)*p.fadeIn[i]
		}

		for i := p.overlapLen; i < p.sequenceLen; i++ {
			out[splice+i] = interp.Zeroed(input, start+i)
		}

		outLen = splice + p.sequenceLen
		prevStart = start
		nominal += inStep
	}

	return core.FitLength(out, targetLen)
}

// bestOverlap searches ±searchLen around predicted for the segment with the
// highest normalized cross-correlation to ref.
func (p *WSOLAShifter) bestOverlap(ref, cand, input []float64, predicted int) int {
	best := predicted
	bestScore := math.Inf(-1)
	refEnergy := vecmath.DotProduct(ref, ref) + energyFloor

	for start := predicted - p.searchLen; start <= predicted+p.searchLen; start++ {
		seg := segment(cand, input, start)

		dot := vecmath.DotProduct(ref, seg)
		energy := vecmath.DotProduct(seg, seg) + energyFloor

		if score := dot / math.Sqrt(refEnergy*energy); score > bestScore {
			bestScore = score
			best = start
		}
	}

	return best
}

// segment returns input[start:start+len(scratch)], copying into scratch with
// zero fill when the range leaves the signal.
func segment(scratch, input []float64, start int) []float64 {
	if start >= 0 && start+len(scratch) <= len(input) {
		return input[start : start+len(scratch)]
	}

	fill(scratch, input, start)

	return scratch
}

func fill(dst, input []float64, start int) {
	for i := range dst {
		dst[i] = interp.Zeroed(input, start+i)
	}
}
