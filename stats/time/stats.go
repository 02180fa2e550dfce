// Package time provides time-domain level statistics for mono signals.
//
// Import it under an alias, e.g. timestats, to avoid shadowing the standard
// library package of the same name.
package time

import (
	"math"

	"github.com/cwbudde/algo-autotune/dsp/core"
	"github.com/cwbudde/algo-vecmath"
)

// Stats summarizes the level of a signal.
//
//nolint:revive
type Stats struct {
	Length        int
	DC            float64 // mean
	RMS           float64
	RMS_dB        float64
	Peak          float64 // max |x|
	Peak_dB       float64
	CrestFactor   float64 // peak / RMS (linear)
	Energy        float64 // sum of squares
	ZeroCrossings int
}

// Calculate computes all statistics of signal. An empty signal yields zero
// levels and -Inf dB values.
func Calculate(signal []float64) Stats {
	if len(signal) == 0 {
		return Stats{RMS_dB: math.Inf(-1), Peak_dB: math.Inf(-1)}
	}

	energy := vecmath.DotProduct(signal, signal)
	rms := math.Sqrt(energy / float64(len(signal)))
	peak := vecmath.MaxAbs(signal)

	var crest float64
	if rms > 0 {
		crest = peak / rms
	}

	return Stats{
		Length:        len(signal),
		DC:            DC(signal),
		RMS:           rms,
		RMS_dB:        core.LinearToDB(rms),
		Peak:          peak,
		Peak_dB:       core.LinearToDB(peak),
		CrestFactor:   crest,
		Energy:        energy,
		ZeroCrossings: ZeroCrossings(signal),
	}
}

// RMS returns the root-mean-square of the signal.
func RMS(signal []float64) float64 {
	if len(signal) == 0 {
		return 0
	}

	return math.Sqrt(vecmath.DotProduct(signal, signal) / float64(len(signal)))
}

// DC returns the mean (DC offset) of the signal.
func DC(signal []float64) float64 {
	if len(signal) == 0 {
		return 0
	}

	return vecmath.Sum(signal) / float64(len(signal))
}

// Peak returns the peak absolute amplitude of the signal.
func Peak(signal []float64) float64 {
	if len(signal) == 0 {
		return 0
	}

	return vecmath.MaxAbs(signal)
}

// ZeroCrossings returns the number of sign changes between consecutive samples.
func ZeroCrossings(signal []float64) int {
	var count int

	for i := 1; i < len(signal); i++ {
		if signal[i-1]*signal[i] < 0 {
			count++
		}
	}

	return count
}

// ZeroCrossingFrequency estimates the frequency of a periodic signal from its
// zero-crossing count: two crossings per cycle.
func ZeroCrossingFrequency(signal []float64, sampleRate float64) float64 {
	if len(signal) < 2 || sampleRate <= 0 {
		return 0
	}

	seconds := float64(len(signal)-1) / sampleRate

	return float64(ZeroCrossings(signal)) / (2 * seconds)
}

// NormalizedCrossCorrelation returns <a,b> / (|a| |b|) over the common prefix
// of a and b, in [-1, 1]. It returns 0 if either input has no energy.
func NormalizedCrossCorrelation(a, b []float64) float64 {
	n := min(len(a), len(b))
	if n == 0 {
		return 0
	}

	a, b = a[:n], b[:n]

	ea := vecmath.DotProduct(a, a)
	eb := vecmath.DotProduct(b, b)

	if ea == 0 || eb == 0 {
		return 0
	}

	return vecmath.DotProduct(a, b) / math.Sqrt(ea*eb)
}
