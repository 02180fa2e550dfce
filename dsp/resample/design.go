package resample

import (
	"errors"
	"fmt"
	"math"

	"github.com/cwbudde/algo-autotune/dsp/window"
)

// designLowpass returns the prototype FIR at the upsampled rate, normalized
// to a DC gain of up so that interpolation preserves amplitude.
func designLowpass(up, down int, cfg config) ([]float64, error) {
	if cfg.tapsPerPhase <= 0 {
		return nil, errors.New("resample: taps per phase must be > 0")
	}

	nTaps := cfg.tapsPerPhase * up

	fc := 0.5 / float64(max(up, down)) * cfg.cutoffScale
	if fc <= 0 || fc >= 0.5 {
		return nil, fmt.Errorf("resample: invalid cutoff %.6f", fc)
	}

	taps := make([]float64, nTaps)
	center := 0.5 * float64(nTaps-1)

	var sum float64

	for n := range taps {
		t := float64(n) - center

		w := 1.0
		if center > 0 {
			w = window.KaiserAt(t, center, cfg.kaiserBeta)
		}

		taps[n] = 2 * fc * sinc(2*fc*t) * w
		sum += taps[n]
	}

	if sum == 0 {
		return nil, errors.New("resample: designed zero-sum filter")
	}

	scale := float64(up) / sum
	for i := range taps {
		taps[i] *= scale
	}

	return taps, nil
}

// splitPhases decomposes taps into up polyphase branches; branch p holds
// taps[p], taps[p+up], taps[p+2up], ...
func splitPhases(taps []float64, up int) [][]float64 {
	phases := make([][]float64, up)
	for p := range phases {
		branch := make([]float64, 0, (len(taps)-p+up-1)/up)
		for i := p; i < len(taps); i += up {
			branch = append(branch, taps[i])
		}

		phases[p] = branch
	}

	return phases
}

// approximateRatio finds num/den close to v with den <= maxDen using
// continued fractions.
func approximateRatio(v float64, maxDen int) (num, den int) {
	if v <= 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		return 1, 1
	}

	p0, q0 := 1.0, 0.0
	p1, q1 := math.Floor(v), 1.0
	x := v

	for {
		frac := x - math.Floor(x)
		if frac < 1e-12 {
			break
		}

		x = 1 / frac
		a := math.Floor(x)

		p2 := a*p1 + p0
		q2 := a*q1 + q0

		if q2 > float64(maxDen) {
			break
		}

		p0, q0 = p1, q1
		p1, q1 = p2, q2
	}

	num = int(math.Round(p1))
	den = int(math.Round(q1))

	if num <= 0 || den <= 0 {
		return 1, 1
	}

	g := gcd(num, den)

	return num / g, den / g
}

func gcd(a, b int) int {
	if a < 0 {
		a = -a
	}

	if b < 0 {
		b = -b
	}

	for b != 0 {
		a, b = b, a%b
	}

	if a == 0 {
		return 1
	}

	return a
}

func sinc(x float64) float64 {
	if math.Abs(x) < 1e-12 {
		return 1
	}

	pix := math.Pi * x

	return math.Sin(pix) / pix
}
