package pitch

import (
	"fmt"
	"math"
	"math/cmplx"

	"github.com/cwbudde/algo-autotune/dsp/core"
	"github.com/cwbudde/algo-autotune/dsp/resample"
	"github.com/cwbudde/algo-autotune/dsp/spectrum"
	"github.com/cwbudde/algo-autotune/dsp/window"
	algofft "github.com/cwbudde/algo-fft"
)

const (
	defaultFrameSize   = 1024
	defaultAnalysisHop = 256
	minFrameSize       = 64
	normFloor          = 1e-12

	// binShiftThreshold is the largest |ratio-1| handled by direct bin
	// shifting. Beyond it the time-stretch path is used.
	binShiftThreshold = 0.15
)

// SpectralShifter performs frequency-domain pitch shifting.
//
// For ratios near 1 it moves STFT bins directly and accumulates phase per
// bin. For larger ratios it stretches time by synthesisHop/analysisHop with
// identity phase locking (Laroche & Dolson 1999) and resamples the result
// back to the input length. Ratios beyond MaxPassRatio run as several
// equal passes.
//
// A SpectralShifter reuses its buffers and is not safe for concurrent use.
type SpectralShifter struct {
	ratio           float64
	passRatio       float64
	passes          int
	frameSize       int
	analysisHop     int
	resampleQuality resample.Quality

	plan   *algofft.Plan[complex128]
	coeffs []float64
	omega  []float64

	prevPhase []float64
	sumPhase  []float64
	mag       []float64
	instFreq  []float64
	outMag    []float64
	outFreq   []float64
	peaks     []int

	spec  []complex128
	frame []complex128
}

// NewSpectralShifter creates a phase-vocoder shifter. Only the spectral
// options apply; WithMethod is ignored.
func NewSpectralShifter(opts ...Option) (*SpectralShifter, error) {
	return newSpectralShifter(newConfig(opts))
}

func newSpectralShifter(cfg config) (*SpectralShifter, error) {
	if cfg.frameSize < minFrameSize || cfg.frameSize&(cfg.frameSize-1) != 0 {
		return nil, fmt.Errorf("%w: frame size must be a power of two >= %d: %d",
			ErrInvalidConfig, minFrameSize, cfg.frameSize)
	}

	if cfg.analysisHop <= 0 || cfg.analysisHop >= cfg.frameSize {
		return nil, fmt.Errorf("%w: analysis hop must be in [1, %d): %d",
			ErrInvalidConfig, cfg.frameSize, cfg.analysisHop)
	}

	plan, err := algofft.NewPlan64(cfg.frameSize)
	if err != nil {
		return nil, fmt.Errorf("spectral shifter: failed to create FFT plan: %w", err)
	}

	coeffs := window.Generate(cfg.windowType, cfg.frameSize, window.WithPeriodic())
	if len(coeffs) != cfg.frameSize {
		return nil, fmt.Errorf("%w: window generation failed for size %d", ErrInvalidConfig, cfg.frameSize)
	}

	bins := cfg.frameSize/2 + 1

	s := &SpectralShifter{
		ratio:           1,
		passRatio:       1,
		passes:          1,
		frameSize:       cfg.frameSize,
		analysisHop:     cfg.analysisHop,
		resampleQuality: cfg.resampleQuality,
		plan:            plan,
		coeffs:          coeffs,
		omega:           make([]float64, bins),
		prevPhase:       make([]float64, bins),
		sumPhase:        make([]float64, bins),
		mag:             make([]float64, bins),
		instFreq:        make([]float64, bins),
		outMag:          make([]float64, bins),
		outFreq:         make([]float64, bins),
		peaks:           make([]int, 0, bins),
		spec:            make([]complex128, cfg.frameSize),
		frame:           make([]complex128, cfg.frameSize),
	}

	for k := range s.omega {
		s.omega[k] = 2 * math.Pi * float64(k) / float64(cfg.frameSize)
	}

	return s, nil
}

// PitchRatio returns the requested pitch ratio.
func (s *SpectralShifter) PitchRatio() float64 { return s.ratio }

// PitchSemitones returns the requested shift in semitones.
func (s *SpectralShifter) PitchSemitones() float64 { return core.RatioToSemitones(s.ratio) }

// FrameSize returns the FFT size.
func (s *SpectralShifter) FrameSize() int { return s.frameSize }

// SetPitchRatio sets the pitch ratio.
func (s *SpectralShifter) SetPitchRatio(ratio float64) error {
	if err := ValidateRatio(ratio); err != nil {
		return err
	}

	s.ratio = ratio
	s.passRatio, s.passes = Passes(ratio)

	return nil
}

// EffectivePitchRatio returns the realized ratio: exact on the bin-shifting
// path, (synthesisHop/analysisHop)^passes on the time-stretch path.
func (s *SpectralShifter) EffectivePitchRatio() float64 {
	if s.useBinShifting() {
		return s.ratio
	}

	ha, hs := s.hops()

	return math.Pow(float64(hs)/float64(ha), float64(s.passes))
}

func (s *SpectralShifter) useBinShifting() bool {
	return math.Abs(s.passRatio-1) <= binShiftThreshold
}

// hops returns the analysis and synthesis hops of the time-stretch path. The
// analysis hop shrinks for large ratios so that frames still overlap by at
// least half at the synthesis side.
func (s *SpectralShifter) hops() (ha, hs int) {
	ha = s.analysisHop
	if limit := int(float64(s.frameSize/2) / s.passRatio); limit < ha {
		ha = max(limit, 1)
	}

	hs = max(int(math.Round(float64(ha)*s.passRatio)), 1)

	return ha, hs
}

// ProcessWithError returns input shifted by the configured ratio.
func (s *SpectralShifter) ProcessWithError(input []float64) ([]float64, error) {
	if len(input) == 0 {
		return nil, nil
	}

	if isIdentity(s.ratio) {
		out := make([]float64, len(input))
		copy(out, input)

		return out, nil
	}

	out := input
	for range s.passes {
		var err error
		if out, err = s.processPass(out); err != nil {
			return nil, err
		}
	}

	return out, nil
}

// processPass shifts input once by passRatio.
func (s *SpectralShifter) processPass(input []float64) ([]float64, error) {
	// Leading zeros give the first real samples full window overlap.
	pad := s.frameSize
	padded := make([]float64, pad+len(input))
	copy(padded[pad:], input)

	var (
		out []float64
		err error
	)

	if s.useBinShifting() {
		out, err = s.processBinShift(padded)
	} else {
		out, err = s.processTimeStretch(padded)
	}

	if err != nil {
		return nil, err
	}

	return core.FitLength(out[pad:], len(input)), nil
}

func (s *SpectralShifter) reset() {
	clear(s.prevPhase)
	clear(s.sumPhase)
}

func (s *SpectralShifter) processBinShift(input []float64) ([]float64, error) {
	s.reset()

	hop := s.analysisHop
	hopF := float64(hop)
	half := s.frameSize / 2
	frames := 1 + (len(input)-1)/hop

	out := make([]float64, (frames-1)*hop+s.frameSize)
	norm := make([]float64, len(out))

	for f := range frames {
		pos := f * hop

		if err := s.analyze(input, pos, hopF); err != nil {
			return nil, err
		}

		for k := 0; k <= half; k++ {
			src := float64(k) / s.passRatio
			if src >= float64(half) {
				s.outMag[k] = 0
				s.outFreq[k] = s.omega[k]

				continue
			}

			lo := int(src)
			hi := min(lo+1, half)
			frac := src - float64(lo)

			s.outMag[k] = s.mag[lo]*(1-frac) + s.mag[hi]*frac
			s.outFreq[k] = (s.instFreq[lo]*(1-frac) + s.instFreq[hi]*frac) * s.passRatio
		}

		for k := 0; k <= half; k++ {
			s.sumPhase[k] += s.outFreq[k] * hopF
		}

		if err := s.synthesize(s.outMag, out, norm, pos); err != nil {
			return nil, err
		}
	}

	normalize(out, norm)

	return out, nil
}

func (s *SpectralShifter) processTimeStretch(input []float64) ([]float64, error) {
	s.reset()

	ha, hs := s.hops()
	hsF := float64(hs)
	half := s.frameSize / 2
	frames := 1 + (len(input)-1)/ha

	stretched := make([]float64, (frames-1)*hs+s.frameSize)
	norm := make([]float64, len(stretched))

	for f := range frames {
		if err := s.analyze(input, f*ha, float64(ha)); err != nil {
			return nil, err
		}

		s.peaks = s.peaks[:0]
		for k := 1; k < half; k++ {
			if s.mag[k] >= s.mag[k-1] && s.mag[k] > s.mag[k+1] {
				s.peaks = append(s.peaks, k)
			}
		}

		if len(s.peaks) == 0 {
			for k := 0; k <= half; k++ {
				s.sumPhase[k] += s.instFreq[k] * hsF
			}
		} else {
			s.lockPhases(hsF)
		}

		if err := s.synthesize(s.mag, stretched, norm, f*hs); err != nil {
			return nil, err
		}
	}

	normalize(stretched, norm)

	if hs == ha {
		return core.FitLength(stretched, len(input)), nil
	}

	out, err := resample.ResampleToLength(stretched, ha, hs, len(input),
		resample.WithQuality(s.resampleQuality))
	if err != nil {
		return nil, fmt.Errorf("spectral shifter: resampling failed: %w", err)
	}

	return out, nil
}

// lockPhases advances peak phases by their instantaneous frequency and ties
// every other bin to its nearest peak, preserving the analysis phase offset.
func (s *SpectralShifter) lockPhases(hop float64) {
	for _, pk := range s.peaks {
		s.sumPhase[pk] += s.instFreq[pk] * hop
	}

	p := 0
	for k := range s.sumPhase {
		for p+1 < len(s.peaks) && abs(s.peaks[p+1]-k) < abs(s.peaks[p]-k) {
			p++
		}

		if pk := s.peaks[p]; k != pk {
			s.sumPhase[k] = s.sumPhase[pk] + s.prevPhase[k] - s.prevPhase[pk]
		}
	}
}

// analyze windows the frame starting at pos, transforms it and updates
// magnitudes, phases and instantaneous frequencies for hop.
func (s *SpectralShifter) analyze(input []float64, pos int, hop float64) error {
	for i := range s.spec {
		x := 0.0
		if idx := pos + i; idx < len(input) {
			x = input[idx]
		}

		s.spec[i] = complex(x*s.coeffs[i], 0)
	}

	if err := s.plan.Forward(s.spec, s.spec); err != nil {
		return fmt.Errorf("spectral shifter: forward FFT failed: %w", err)
	}

	spectrum.MagnitudeInto(s.mag, s.spec)

	for k := range s.mag {
		phase := cmplx.Phase(s.spec[k])
		delta := spectrum.WrapPhase(phase - s.prevPhase[k] - s.omega[k]*hop)

		s.instFreq[k] = s.omega[k] + delta/hop
		s.prevPhase[k] = phase
	}

	return nil
}

// synthesize builds a Hermitian spectrum from mag and the accumulated phases,
// inverts it and overlap-adds the windowed frame at pos.
func (s *SpectralShifter) synthesize(mag, out, norm []float64, pos int) error {
	half := s.frameSize / 2

	for k := 0; k <= half; k++ {
		s.spec[k] = cmplx.Rect(mag[k], s.sumPhase[k])
	}

	s.spec[0] = complex(real(s.spec[0]), 0)
	s.spec[half] = complex(real(s.spec[half]), 0)

	for k := 1; k < half; k++ {
		s.spec[s.frameSize-k] = cmplx.Conj(s.spec[k])
	}

	if err := s.plan.Inverse(s.frame, s.spec); err != nil {
		return fmt.Errorf("spectral shifter: inverse FFT failed: %w", err)
	}

	for i, w := range s.coeffs {
		out[pos+i] += real(s.frame[i]) * w
		norm[pos+i] += w * w
	}

	return nil
}

func normalize(out, norm []float64) {
	for i := range out {
		if norm[i] > normFloor {
			out[i] /= norm[i]
		}
	}
}

func abs(x int) int {
	if x < 0 {
		return -x
	}

	return x
}
