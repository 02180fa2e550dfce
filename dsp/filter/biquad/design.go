package biquad

import "math"

// Highpass designs an RBJ cookbook high-pass section at freq Hz with quality
// factor q. A non-positive q falls back to 1/sqrt(2). An invalid cutoff
// yields zero Coefficients.
func Highpass(freq, q, sampleRate float64) Coefficients {
	if !ValidCutoff(freq, sampleRate) {
		return Coefficients{}
	}

	if q <= 0 || math.IsNaN(q) || math.IsInf(q, 0) {
		q = 1 / math.Sqrt2
	}

	w0 := 2 * math.Pi * freq / sampleRate
	cw := math.Cos(w0)
	alpha := math.Sin(w0) / (2 * q)
	a0 := 1 + alpha

	return Coefficients{
		B0: (1 + cw) / 2 / a0,
		B1: -(1 + cw) / a0,
		B2: (1 + cw) / 2 / a0,
		A1: -2 * cw / a0,
		A2: (1 - alpha) / a0,
	}
}

// ButterworthHP designs a high-pass Butterworth cascade of the given order.
// For odd orders the final section is first-order (B2=A2=0). It returns nil
// for order <= 0 or an invalid cutoff.
func ButterworthHP(freq float64, order int, sampleRate float64) []Coefficients {
	if order <= 0 || !ValidCutoff(freq, sampleRate) {
		return nil
	}

	sections := make([]Coefficients, 0, (order+1)/2)
	for i := order/2 - 1; i >= 0; i-- {
		sections = append(sections, Highpass(freq, butterworthQ(order, i), sampleRate))
	}

	if order%2 != 0 {
		sections = append(sections, firstOrderHP(freq, sampleRate))
	}

	return sections
}

// ValidCutoff reports whether freq lies strictly between 0 and Nyquist.
func ValidCutoff(freq, sampleRate float64) bool {
	return sampleRate > 0 && freq > 0 && freq < sampleRate/2
}

// butterworthQ returns the Q of pole pair index (0 .. order/2-1).
func butterworthQ(order, index int) float64 {
	theta := math.Pi * float64(2*index+1) / (2 * float64(order))

	s := math.Sin(theta)
	if s == 0 {
		return 1 / math.Sqrt2
	}

	return 1 / (2 * s)
}

// firstOrderHP is the bilinear transform of s/(s+1).
func firstOrderHP(freq, sampleRate float64) Coefficients {
	k := math.Tan(math.Pi * freq / sampleRate)
	norm := 1 / (1 + k)

	return Coefficients{
		B0: norm,
		B1: -norm,
		A1: (k - 1) * norm,
	}
}
