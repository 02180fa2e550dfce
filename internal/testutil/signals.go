package testutil

import (
	"math"
	"math/rand"

	"github.com/cwbudde/algo-autotune/dsp/core"
)

// DeterministicSine generates a deterministic sine wave starting at phase 0.
func DeterministicSine(freqHz, sampleRate, amplitude float64, length int) []float64 {
	out := make([]float64, length)
	step := 2 * math.Pi * freqHz / sampleRate
	for i := range out {
		out[i] = amplitude * math.Sin(step*float64(i))
	}
	return out
}

// DeterministicNoise generates white noise with a fixed seed for reproducibility.
func DeterministicNoise(seed int64, amplitude float64, length int) []float64 {
	out := make([]float64, length)
	rng := rand.New(rand.NewSource(seed))
	for i := range out {
		out[i] = (rng.Float64()*2 - 1) * amplitude
	}
	return out
}

// SineWaveform returns seconds of a sine at freqHz as a Waveform.
func SineWaveform(freqHz float64, sampleRate int, amplitude, seconds float64) core.Waveform {
	n := int(math.Round(seconds * float64(sampleRate)))
	return core.Waveform{
		Samples:    DeterministicSine(freqHz, float64(sampleRate), amplitude, n),
		SampleRate: sampleRate,
	}
}

// HarmonicWaveform returns a tone with the given fundamental and partials of
// decaying amplitude 1/k, scaled so the peak stays below amplitude.
func HarmonicWaveform(f0 float64, partials, sampleRate int, amplitude, seconds float64) core.Waveform {
	n := int(math.Round(seconds * float64(sampleRate)))
	out := make([]float64, n)
	norm := 0.0
	for k := 1; k <= partials; k++ {
		norm += 1 / float64(k)
	}
	for k := 1; k <= partials; k++ {
		if f0*float64(k) >= float64(sampleRate)/2 {
			break
		}
		step := 2 * math.Pi * f0 * float64(k) / float64(sampleRate)
		gain := amplitude / (float64(k) * norm)
		for i := range out {
			out[i] += gain * math.Sin(step*float64(i))
		}
	}
	return core.Waveform{Samples: out, SampleRate: sampleRate}
}

// Silence returns n zero samples at sampleRate.
func Silence(sampleRate, n int) core.Waveform {
	return core.Waveform{Samples: make([]float64, n), SampleRate: sampleRate}
}
