package dither

import (
	"fmt"
	"math"
	"math/rand/v2"
)

const (
	minBitDepth = 2
	maxBitDepth = 32
)

// Quantizer maps samples in [-1, 1] to integers in [-(2^(bits-1)-1), 2^(bits-1)-1].
// It keeps noise-shaping history and is not safe for concurrent use.
type Quantizer struct {
	bits      int
	scale     float64
	typ       Type
	amplitude float64
	rng       *rand.Rand

	coeffs  []float64
	history []float64 // most recent error first
}

// NewQuantizer creates a Quantizer for bits. Without options it rounds to the
// nearest step with no dither and no shaping.
func NewQuantizer(bits int, opts ...Option) (*Quantizer, error) {
	if bits < minBitDepth || bits > maxBitDepth {
		return nil, fmt.Errorf("%w: bit depth must be in [%d, %d]: %d", ErrInvalid, minBitDepth, maxBitDepth, bits)
	}

	cfg := defaultConfig()

	for _, opt := range opts {
		if opt == nil {
			continue
		}

		if err := opt(&cfg); err != nil {
			return nil, err
		}
	}

	q := &Quantizer{
		bits:      bits,
		scale:     math.Exp2(float64(bits-1)) - 1,
		typ:       cfg.typ,
		amplitude: cfg.amplitude,
		rng:       cfg.rng,
		coeffs:    cfg.preset.Coefficients(),
	}

	if q.rng == nil {
		q.rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}

	q.history = make([]float64, len(q.coeffs))

	return q, nil
}

// BitDepth returns the target bit depth.
func (q *Quantizer) BitDepth() int { return q.bits }

// Type returns the dither noise type.
func (q *Quantizer) Type() Type { return q.typ }

// Quantize returns the integer code for x. NaN maps to 0 and x is clipped to
// [-1, 1] before scaling.
func (q *Quantizer) Quantize(x float64) int {
	if math.IsNaN(x) {
		x = 0
	}

	x = max(-1, min(1, x))

	shaped := x * q.scale
	for i, c := range q.coeffs {
		shaped -= c * q.history[i]
	}

	v := math.Round(shaped + q.noise())
	v = max(-q.scale, min(q.scale, v))

	if len(q.history) > 0 {
		copy(q.history[1:], q.history)
		q.history[0] = v - shaped
	}

	return int(v)
}

// QuantizeInto writes the codes of src to dst, which must be at least as long.
func (q *Quantizer) QuantizeInto(dst []int, src []float64) {
	for i, x := range src {
		dst[i] = q.Quantize(x)
	}
}

// Reset clears the noise-shaping history.
func (q *Quantizer) Reset() {
	clear(q.history)
}

func (q *Quantizer) noise() float64 {
	switch q.typ {
	case Rectangular:
		return q.amplitude * (q.rng.Float64() - 0.5)
	case Triangular:
		return q.amplitude * (q.rng.Float64() - q.rng.Float64())
	default:
		return 0
	}
}
