// Package autotune corrects the overall pitch of a monophonic recording to a
// target note.
//
// The pipeline decodes a WAV file, estimates the mean fundamental frequency,
// resolves the target note to Hz, shifts the whole signal by the ratio of the
// two and encodes the result. Each call is independent; nothing is cached
// between calls.
package autotune

import (
	"fmt"
	"time"

	"github.com/cwbudde/algo-autotune/audio/wavio"
	"github.com/cwbudde/algo-autotune/dsp/core"
	"github.com/cwbudde/algo-autotune/dsp/effects/pitch"
	"github.com/cwbudde/algo-autotune/measure/f0"
	"github.com/cwbudde/algo-autotune/music/note"
	timestats "github.com/cwbudde/algo-autotune/stats/time"
)

// DefaultTargetNote is used when a request leaves the target empty.
const DefaultTargetNote = "A4"

// lowVoicedRatio is the voiced-frame fraction below which the unfiltered mean
// is flagged as unreliable.
const lowVoicedRatio = 0.5

// Request describes one correction of a file.
type Request struct {
	InputPath  string
	OutputPath string
	TargetNote string // e.g. "A4", "C#3"; empty selects DefaultTargetNote
}

// Result reports what a correction measured and did.
type Result struct {
	DetectedHz    float64
	DetectedNote  note.Note // nearest note to DetectedHz
	DetectedCents float64   // deviation of DetectedHz from DetectedNote

	TargetNote note.Note
	TargetHz   float64

	Ratio          float64 // TargetHz / DetectedHz
	Semitones      float64
	EffectiveRatio float64 // ratio realized by the shifter

	Frames       int
	VoicedFrames int

	InputRMS   float64
	OutputRMS  float64
	OutputPeak float64

	SampleRate int
	Duration   time.Duration
	OutputPath string
}

// Correct runs the full pipeline for req and writes the corrected file.
// On failure no output file is created.
func Correct(req Request, opts ...Option) (Result, error) {
	cfg := newConfig(opts)
	log := cfg.logger.With("input", req.InputPath)

	start := time.Now()

	w, info, err := wavio.Decode(req.InputPath, cfg.decodeOpts...)
	if err != nil {
		return Result{}, stageErr(StageDecode, err)
	}

	log.Debug("decoded input",
		"sample_rate", info.SampleRate,
		"channels", info.Channels,
		"bit_depth", info.BitDepth,
		"frames", info.Frames,
		"analysis_rate", w.SampleRate)

	out, res, err := correct(w, req.TargetNote, cfg)
	if err != nil {
		return Result{}, err
	}

	if err := wavio.Encode(req.OutputPath, out, cfg.encodeOpts...); err != nil {
		return Result{}, stageErr(StageEncode, err)
	}

	res.OutputPath = req.OutputPath

	log.Info("pitch corrected",
		"output", req.OutputPath,
		"elapsed", time.Since(start))

	return res, nil
}

// CorrectWaveform is the in-memory part of Correct: it returns w shifted so
// that its mean pitch lands on target.
func CorrectWaveform(w core.Waveform, target string, opts ...Option) (core.Waveform, Result, error) {
	out, res, err := correct(w, target, newConfig(opts))
	if err != nil {
		return core.Waveform{}, Result{}, err
	}

	return out, res, nil
}

func correct(w core.Waveform, target string, cfg config) (core.Waveform, Result, error) {
	log := cfg.logger

	if target == "" {
		target = DefaultTargetNote
	}

	estimator, err := f0.NewEstimator(cfg.estimator...)
	if err != nil {
		return core.Waveform{}, Result{}, stageErr(StageEstimate, err)
	}

	est, err := estimator.Estimate(w)
	if err != nil {
		return core.Waveform{}, Result{}, stageErr(StageEstimate, err)
	}

	detected, cents, err := note.Nearest(est.Frequency)
	if err != nil {
		return core.Waveform{}, Result{}, stageErr(StageEstimate, err)
	}

	log.Info("pitch detected",
		"hz", est.Frequency,
		"note", detected.String(),
		"cents", cents,
		"voiced_frames", est.VoicedFrames,
		"frames", est.Frames)

	if est.VoicedRatio() < lowVoicedRatio {
		log.Warn("most frames are unvoiced; the mean pitch may be skewed",
			"voiced_ratio", est.VoicedRatio())
	}

	targetNote, err := note.Parse(target)
	if err != nil {
		return core.Waveform{}, Result{}, stageErr(StageResolve, err)
	}

	targetHz := targetNote.Frequency()
	log.Info("target resolved", "note", targetNote.String(), "hz", targetHz)

	ratio, err := Ratio(est.Frequency, targetHz)
	if err != nil {
		return core.Waveform{}, Result{}, stageErr(StageShift, err)
	}

	if _, passes := pitch.Passes(ratio); passes > 1 {
		log.Warn("shift exceeds three octaves; applying it in passes",
			"ratio", ratio, "passes", passes)
	}

	shifter, err := pitch.NewProcessor(float64(w.SampleRate), cfg.shifter...)
	if err != nil {
		return core.Waveform{}, Result{}, stageErr(StageShift, err)
	}

	if err := shifter.SetPitchRatio(ratio); err != nil {
		return core.Waveform{}, Result{}, stageErr(StageShift, err)
	}

	samples, err := shifter.ProcessWithError(w.Samples)
	if err != nil {
		return core.Waveform{}, Result{}, stageErr(StageShift, err)
	}

	out := w.WithSamples(samples)
	outStats := timestats.Calculate(out.Samples)

	if outStats.Peak > 1 {
		log.Warn("output exceeds full scale and will be clipped", "peak", outStats.Peak)
	}

	log.Debug("pitch shifted",
		"ratio", ratio,
		"semitones", shifter.PitchSemitones(),
		"effective_ratio", shifter.EffectivePitchRatio())

	return out, Result{
		DetectedHz:     est.Frequency,
		DetectedNote:   detected,
		DetectedCents:  cents,
		TargetNote:     targetNote,
		TargetHz:       targetHz,
		Ratio:          ratio,
		Semitones:      shifter.PitchSemitones(),
		EffectiveRatio: shifter.EffectivePitchRatio(),
		Frames:         est.Frames,
		VoicedFrames:   est.VoicedFrames,
		InputRMS:       timestats.RMS(w.Samples),
		OutputRMS:      outStats.RMS,
		OutputPeak:     outStats.Peak,
		SampleRate:     out.SampleRate,
		Duration:       out.Duration(),
	}, nil
}

// Ratio returns targetHz / detectedHz. It fails with pitch.ErrInvalidRatio
// unless both frequencies are positive and finite.
func Ratio(detectedHz, targetHz float64) (float64, error) {
	if !core.IsFinitePositive(detectedHz) {
		return 0, fmt.Errorf("%w: detected pitch must be positive and finite: %v", pitch.ErrInvalidRatio, detectedHz)
	}

	if !core.IsFinitePositive(targetHz) {
		return 0, fmt.Errorf("%w: target pitch must be positive and finite: %v", pitch.ErrInvalidRatio, targetHz)
	}

	ratio := targetHz / detectedHz
	if !core.IsFinitePositive(ratio) {
		return 0, fmt.Errorf("%w: ratio %v is not finite", pitch.ErrInvalidRatio, ratio)
	}

	return ratio, nil
}
