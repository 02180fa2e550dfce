// Package wavio reads and writes mono waveforms as PCM WAV files.
//
// Decoding accepts 8, 16, 24 and 32-bit integer PCM with any number of
// channels; channels are averaged to mono. Encoding writes integer PCM and
// replaces the destination atomically.
package wavio

import (
	"errors"
	"io/fs"
	"time"

	"github.com/cwbudde/algo-autotune/dsp/dither"
	"github.com/cwbudde/algo-autotune/dsp/resample"
)

const (
	// DefaultBitDepth is the encoder bit depth.
	DefaultBitDepth = 16

	// FileMode is the mode Encode requests for written files.
	FileMode fs.FileMode = 0o644

	formatPCM        = 1
	formatExtensible = 0xFFFE
)

var (
	// ErrDecode is returned when a file is missing, unreadable or not
	// integer PCM WAV.
	ErrDecode = errors.New("wavio: decode failed")
	// ErrEncode is returned when a waveform cannot be written.
	ErrEncode = errors.New("wavio: encode failed")
)

// Info describes the source file of a decoded waveform.
type Info struct {
	SampleRate int // rate of the file, before any resampling
	Channels   int
	BitDepth   int
	Frames     int
	Duration   time.Duration
}

type decodeConfig struct {
	targetRate int
	quality    resample.Quality
}

// DecodeOption configures Decode.
type DecodeOption func(*decodeConfig)

// WithTargetRate resamples the decoded signal to rate Hz. Zero keeps the
// file's rate.
func WithTargetRate(rate int) DecodeOption {
	return func(c *decodeConfig) { c.targetRate = rate }
}

// WithResampleQuality selects the resampler used by WithTargetRate.
func WithResampleQuality(q resample.Quality) DecodeOption {
	return func(c *decodeConfig) { c.quality = q }
}

type encodeConfig struct {
	bitDepth int
	dither   []dither.Option
}

// EncodeOption configures Encode.
type EncodeOption func(*encodeConfig)

// WithBitDepth sets the output bit depth: 8, 16, 24 or 32.
func WithBitDepth(bits int) EncodeOption {
	return func(c *encodeConfig) { c.bitDepth = bits }
}

// WithDither quantizes through a dither.Quantizer configured by opts. Without
// it samples are rounded to the nearest step.
func WithDither(opts ...dither.Option) EncodeOption {
	return func(c *encodeConfig) { c.dither = append(c.dither, opts...) }
}

func validBitDepth(bits int) bool {
	switch bits {
	case 8, 16, 24, 32:
		return true
	default:
		return false
	}
}

// fullScale returns the magnitude of the most negative sample at bits.
func fullScale(bits int) float64 {
	return float64(int64(1) << (bits - 1))
}
