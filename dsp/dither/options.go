package dither

import (
	"fmt"
	"math"
	"math/rand/v2"
)

type config struct {
	typ       Type
	amplitude float64
	preset    Preset
	rng       *rand.Rand
}

func defaultConfig() config {
	return config{typ: None, amplitude: 1, preset: PresetNone}
}

// Option configures a Quantizer.
type Option func(*config) error

// WithType sets the dither noise PDF (default None).
func WithType(t Type) Option {
	return func(c *config) error {
		if !t.Valid() {
			return fmt.Errorf("%w: dither type %d", ErrInvalid, int(t))
		}

		c.typ = t

		return nil
	}
}

// WithAmplitude scales the dither noise in LSB (default 1).
func WithAmplitude(amp float64) Option {
	return func(c *config) error {
		if amp < 0 || math.IsNaN(amp) || math.IsInf(amp, 0) {
			return fmt.Errorf("%w: amplitude must be >= 0 and finite: %v", ErrInvalid, amp)
		}

		c.amplitude = amp

		return nil
	}
}

// WithPreset selects an FIR noise-shaping preset (default PresetNone).
func WithPreset(p Preset) Option {
	return func(c *config) error {
		if !p.Valid() {
			return fmt.Errorf("%w: preset %d", ErrInvalid, int(p))
		}

		c.preset = p

		return nil
	}
}

// WithSeed makes the dither noise reproducible.
func WithSeed(seed uint64) Option {
	return func(c *config) error {
		c.rng = rand.New(rand.NewPCG(seed, 0))

		return nil
	}
}
