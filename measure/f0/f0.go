package f0

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-autotune/dsp/core"
	"github.com/cwbudde/algo-autotune/dsp/filter/biquad"
	"github.com/cwbudde/algo-autotune/dsp/spectrum"
	"github.com/cwbudde/algo-autotune/dsp/stft"
	"golang.org/x/sync/errgroup"
)

// FrameEstimate is the pitch candidate of one frame.
type FrameEstimate struct {
	Frequency float64 // Hz, 0 if unvoiced
	Magnitude float64 // interpolated peak height
}

// Voiced reports whether the frame produced a candidate.
func (f FrameEstimate) Voiced() bool { return f.Frequency > 0 }

// Estimate is the aggregate pitch of a waveform.
type Estimate struct {
	Frequency    float64
	Frames       int
	VoicedFrames int
}

// VoicedRatio returns the fraction of voiced frames.
func (e Estimate) VoicedRatio() float64 {
	if e.Frames == 0 {
		return 0
	}

	return float64(e.VoicedFrames) / float64(e.Frames)
}

// Estimator tracks pitch over STFT frames. It is immutable after creation and
// safe for concurrent use; each call clones the analyzer per worker.
type Estimator struct {
	cfg      config
	analyzer *stft.Analyzer
}

// NewEstimator creates an Estimator. Defaults: frame 2048, hop 512, range
// [150, 4000) Hz, threshold 0.1, one worker per CPU.
func NewEstimator(opts ...Option) (*Estimator, error) {
	cfg := defaultConfig()

	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	if !core.IsFinitePositive(cfg.fmin) || math.IsNaN(cfg.fmax) || cfg.fmax <= cfg.fmin {
		return nil, fmt.Errorf("%w: frequency range must satisfy 0 < fmin < fmax: [%v, %v)",
			ErrInvalidConfig, cfg.fmin, cfg.fmax)
	}

	if !core.IsFinite(cfg.threshold) || cfg.threshold < 0 || cfg.threshold >= 1 {
		return nil, fmt.Errorf("%w: threshold must be in [0, 1): %v", ErrInvalidConfig, cfg.threshold)
	}

	if !core.IsFinite(cfg.highPassHz) || cfg.highPassHz < 0 || cfg.highPassHz >= cfg.fmin {
		return nil, fmt.Errorf("%w: high-pass cutoff must be in [0, fmin=%v): %v",
			ErrInvalidConfig, cfg.fmin, cfg.highPassHz)
	}

	analyzer, err := stft.New(
		stft.WithFrameSize(cfg.frameSize),
		stft.WithHop(cfg.hop),
		stft.WithWindow(cfg.windowType),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	return &Estimator{cfg: cfg, analyzer: analyzer}, nil
}

// Estimate returns the mean pitch of w.
func (e *Estimator) Estimate(w core.Waveform) (Estimate, error) {
	frames, err := e.Track(w)
	if err != nil {
		return Estimate{}, err
	}

	return e.aggregate(frames)
}

// Track returns one FrameEstimate per STFT frame of w.
func (e *Estimator) Track(w core.Waveform) ([]FrameEstimate, error) {
	if len(w.Samples) == 0 {
		return nil, fmt.Errorf("%w: empty waveform", ErrInsufficientSignal)
	}

	if err := w.Validate(); err != nil {
		return nil, err
	}

	w, err := e.prefilter(w)
	if err != nil {
		return nil, err
	}

	n := e.analyzer.FrameCount(len(w.Samples))
	if n == 0 {
		return nil, fmt.Errorf("%w: %d samples are shorter than one frame", ErrInsufficientSignal, len(w.Samples))
	}

	frames := make([]FrameEstimate, n)
	workers := min(e.cfg.workers, n)
	chunk := (n + workers - 1) / workers

	var g errgroup.Group
	g.SetLimit(workers)

	for first := 0; first < n; first += chunk {
		last := min(first+chunk, n)

		g.Go(func() error {
			return e.trackRange(w, frames, first, last)
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return frames, nil
}

// prefilter returns w high-passed when a cutoff is configured. The caller's
// samples are never modified.
func (e *Estimator) prefilter(w core.Waveform) (core.Waveform, error) {
	if e.cfg.highPassHz == 0 {
		return w, nil
	}

	rate := float64(w.SampleRate)

	coeffs := biquad.ButterworthHP(e.cfg.highPassHz, highPassOrder, rate)
	if coeffs == nil {
		return core.Waveform{}, fmt.Errorf("%w: high-pass cutoff %v Hz is above Nyquist for %d Hz",
			ErrInvalidConfig, e.cfg.highPassHz, w.SampleRate)
	}

	out := w.Clone()
	biquad.NewChain(coeffs).ProcessBlock(out.Samples)

	return out, nil
}

// trackRange fills frames[first:last] with its own analyzer and scratch.
func (e *Estimator) trackRange(w core.Waveform, frames []FrameEstimate, first, last int) error {
	a, err := e.analyzer.Clone()
	if err != nil {
		return err
	}

	p := newPicker(e.cfg, a.FrameSize(), float64(w.SampleRate))

	for i := first; i < last; i++ {
		if err := a.MagnitudeFrame(p.mag, w.Samples, i); err != nil {
			return err
		}

		frames[i] = p.pick()
	}

	return nil
}

func (e *Estimator) aggregate(frames []FrameEstimate) (Estimate, error) {
	var (
		sum    float64
		voiced int
	)

	for _, f := range frames {
		if f.Voiced() {
			sum += f.Frequency
			voiced++
		}
	}

	if voiced == 0 {
		return Estimate{}, fmt.Errorf("%w: no voiced frames in %d", ErrInsufficientSignal, len(frames))
	}

	count := len(frames)
	if e.cfg.skipUnvoiced {
		count = voiced
	}

	return Estimate{
		Frequency:    sum / float64(count),
		Frames:       len(frames),
		VoicedFrames: voiced,
	}, nil
}

// picker selects the pitch candidate of one magnitude frame.
type picker struct {
	threshold float64
	binHz     float64
	lo, hi    int // candidate bins [lo, hi)
	mag       []float64
	masked    []float64
}

func newPicker(cfg config, frameSize int, sampleRate float64) *picker {
	bins := frameSize/2 + 1
	binHz := sampleRate / float64(frameSize)
	fmax := min(cfg.fmax, sampleRate/2)

	return &picker{
		threshold: cfg.threshold,
		binHz:     binHz,
		lo:        max(int(math.Ceil(cfg.fmin/binHz)), 1),
		hi:        min(int(math.Ceil(fmax/binHz)), bins),
		mag:       make([]float64, bins),
		masked:    make([]float64, bins),
	}
}

func (p *picker) pick() FrameEstimate {
	peak := 0.0
	for _, v := range p.mag {
		peak = max(peak, v)
	}

	ref := p.threshold * peak
	for k, v := range p.mag {
		if v > ref {
			p.masked[k] = v
		} else {
			p.masked[k] = 0
		}
	}

	var best FrameEstimate

	for k := p.lo; k < p.hi; k++ {
		if !spectrum.IsLocalMax(p.masked, k) {
			continue
		}

		offset, height := spectrum.ParabolicPeak(p.mag, k)
		if height > best.Magnitude {
			best = FrameEstimate{
				Frequency: (float64(k) + offset) * p.binHz,
				Magnitude: height,
			}
		}
	}

	return best
}

// EstimatePitch is a one-shot helper returning the mean pitch of w in Hz.
func EstimatePitch(w core.Waveform, opts ...Option) (float64, error) {
	e, err := NewEstimator(opts...)
	if err != nil {
		return 0, err
	}

	est, err := e.Estimate(w)
	if err != nil {
		return 0, err
	}

	return est.Frequency, nil
}
