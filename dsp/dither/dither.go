// Package dither quantizes normalized samples to signed integers with
// optional dither noise and error-feedback noise shaping.
package dither

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalid is returned for unknown types, presets or out-of-range options.
var ErrInvalid = errors.New("dither: invalid option")

// Type selects the probability distribution of the dither noise.
type Type int

const (
	// None rounds without noise.
	None Type = iota
	// Rectangular adds uniform noise spanning amplitude LSB.
	Rectangular
	// Triangular adds TPDF noise, the sum of two uniform draws.
	Triangular

	typeCount
)

var typeNames = [typeCount]string{"none", "rectangular", "triangular"}

func (t Type) String() string {
	if t.Valid() {
		return typeNames[t]
	}

	return fmt.Sprintf("Type(%d)", int(t))
}

// Valid reports whether t is a known type.
func (t Type) Valid() bool { return t >= 0 && t < typeCount }

// ParseType parses a case-insensitive type name.
func ParseType(s string) (Type, error) {
	for i, name := range typeNames {
		if strings.EqualFold(s, name) {
			return Type(i), nil
		}
	}

	return None, fmt.Errorf("%w: unknown dither type %q", ErrInvalid, s)
}

// Preset identifies an FIR noise-shaping coefficient set.
type Preset int

const (
	PresetNone Preset = iota // no shaping
	PresetEFB                // simple error feedback, 1st order
	Preset2SC                // simple 2nd-order highpass
	Preset3MEC               // modified E-weighted, 3rd order
	Preset3FC                // F-weighted, 3rd order
	Preset9FC                // F-weighted, 9th order

	presetCount
)

var presetNames = [presetCount]string{"none", "efb", "2sc", "3mec", "3fc", "9fc"}

var presetCoeffs = [presetCount][]float64{
	PresetNone: nil,
	PresetEFB:  {1},
	Preset2SC:  {1.0, -0.5},
	Preset3MEC: {1.652, -1.049, 0.1382},
	Preset3FC:  {1.623, -0.982, 0.109},
	Preset9FC: {
		2.412, -3.370, 3.937, -4.174, 3.353,
		-2.205, 1.281, -0.569, 0.0847,
	},
}

func (p Preset) String() string {
	if p.Valid() {
		return presetNames[p]
	}

	return fmt.Sprintf("Preset(%d)", int(p))
}

// Valid reports whether p is a known preset.
func (p Preset) Valid() bool { return p >= 0 && p < presetCount }

// Coefficients returns a copy of the error-feedback coefficients, most recent
// error first. PresetNone returns nil.
func (p Preset) Coefficients() []float64 {
	if !p.Valid() || len(presetCoeffs[p]) == 0 {
		return nil
	}

	return append([]float64(nil), presetCoeffs[p]...)
}

// ParsePreset parses a case-insensitive preset name.
func ParsePreset(s string) (Preset, error) {
	for i, name := range presetNames {
		if strings.EqualFold(s, name) {
			return Preset(i), nil
		}
	}

	return PresetNone, fmt.Errorf("%w: unknown noise-shaping preset %q", ErrInvalid, s)
}
