package spectrum

import (
	"math"
	"sync"

	"github.com/cwbudde/algo-vecmath"
)

// scratchBuf holds pooled scratch memory for complex-to-real unpacking.
type scratchBuf struct {
	data []float64
}

var scratchPool = sync.Pool{
	New: func() any { return &scratchBuf{} },
}

func getScratch(n int) (re, im []float64, buf *scratchBuf) {
	buf = scratchPool.Get().(*scratchBuf)
	need := 2 * n
	if cap(buf.data) < need {
		buf.data = make([]float64, need)
	} else {
		buf.data = buf.data[:need]
	}
	return buf.data[:n], buf.data[n:need], buf
}

func putScratch(buf *scratchBuf) {
	scratchPool.Put(buf)
}

// Magnitude returns |X[k]| for each complex spectrum bin.
//
// Scratch buffers are pooled internally, so in steady state this allocates
// only the output slice.
func Magnitude(in []complex128) []float64 {
	if len(in) == 0 {
		return nil
	}

	out := make([]float64, len(in))
	MagnitudeInto(out, in)

	return out
}

// MagnitudeInto writes |X[k]| for the first len(dst) bins of in into dst.
// in must hold at least len(dst) bins.
func MagnitudeInto(dst []float64, in []complex128) {
	if len(dst) == 0 {
		return
	}

	re, im, buf := getScratch(len(dst))
	for i := range dst {
		re[i] = real(in[i])
		im[i] = imag(in[i])
	}

	vecmath.Magnitude(dst, re, im)
	putScratch(buf)
}

// BinFrequency returns the centre frequency in Hz of bin k for an FFT of
// fftSize points at sampleRate.
func BinFrequency(k, fftSize int, sampleRate float64) float64 {
	if fftSize <= 0 {
		return 0
	}

	return float64(k) * sampleRate / float64(fftSize)
}

// FrequencyBin returns the fractional bin index of freq.
func FrequencyBin(freq float64, fftSize int, sampleRate float64) float64 {
	if sampleRate <= 0 {
		return 0
	}

	return freq * float64(fftSize) / sampleRate
}

// IsLocalMax reports whether mag[k] is a peak: strictly greater than its
// left neighbour and not smaller than its right neighbour. Edge bins compare
// against themselves on the missing side, so bin 0 is never a peak.
func IsLocalMax(mag []float64, k int) bool {
	if k <= 0 || k >= len(mag) {
		return false
	}

	right := mag[min(k+1, len(mag)-1)]

	return mag[k] > mag[k-1] && mag[k] >= right
}

// ParabolicPeak refines the peak at bin k using the neighbouring bins.
//
// It returns the fractional bin offset in (-1, 1) and the interpolated peak
// height. Edge bins and flat neighbourhoods return a zero offset and the bin
// value unchanged.
func ParabolicPeak(mag []float64, k int) (offset, height float64) {
	if k <= 0 || k >= len(mag)-1 {
		if k >= 0 && k < len(mag) {
			return 0, mag[k]
		}

		return 0, 0
	}

	prev, curr, next := mag[k-1], mag[k], mag[k+1]
	avg := 0.5 * (next - prev)

	curvature := 2*curr - next - prev
	if math.Abs(curvature) < math.SmallestNonzeroFloat64 {
		return 0, curr
	}

	offset = avg / curvature

	return offset, curr + 0.5*avg*offset
}

// WrapPhase maps x into [-pi, pi).
func WrapPhase(x float64) float64 {
	x = math.Mod(x+math.Pi, 2*math.Pi)
	if x < 0 {
		x += 2 * math.Pi
	}

	return x - math.Pi
}
