package wavio

import (
	"fmt"
	"os"

	"github.com/cwbudde/algo-autotune/dsp/core"
	"github.com/cwbudde/algo-autotune/dsp/resample"
	"github.com/go-audio/wav"
)

// Decode reads the WAV file at path and returns its mono downmix.
//
// A file with a valid header but no sample frames decodes to an empty
// Waveform; callers decide whether that is an error.
func Decode(path string, opts ...DecodeOption) (core.Waveform, Info, error) {
	cfg := decodeConfig{quality: resample.QualityBalanced}

	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	if cfg.targetRate < 0 {
		return core.Waveform{}, Info{}, fmt.Errorf("%w: negative target rate %d", ErrDecode, cfg.targetRate)
	}

	f, err := os.Open(path)
	if err != nil {
		return core.Waveform{}, Info{}, fmt.Errorf("%w: %w", ErrDecode, err)
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	dec.ReadInfo()

	if err := dec.Err(); err != nil {
		return core.Waveform{}, Info{}, fmt.Errorf("%w: %s: %w", ErrDecode, path, err)
	}

	info := Info{
		SampleRate: int(dec.SampleRate),
		Channels:   int(dec.NumChans),
		BitDepth:   int(dec.BitDepth),
	}

	if err := checkFormat(dec.WavAudioFormat, info); err != nil {
		return core.Waveform{}, Info{}, fmt.Errorf("%w: %s: %w", ErrDecode, path, err)
	}

	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return core.Waveform{}, Info{}, fmt.Errorf("%w: %s: reading samples: %w", ErrDecode, path, err)
	}

	if buf == nil {
		return core.Waveform{}, Info{}, fmt.Errorf("%w: %s: no PCM data chunk", ErrDecode, path)
	}

	samples := downmix(buf.Data, info.Channels, info.BitDepth)
	w := core.Waveform{Samples: samples, SampleRate: info.SampleRate}
	info.Frames = w.Len()
	info.Duration = w.Duration()

	if cfg.targetRate > 0 && cfg.targetRate != info.SampleRate && len(samples) > 0 {
		w, err = convertRate(w, cfg.targetRate, cfg.quality)
		if err != nil {
			return core.Waveform{}, Info{}, fmt.Errorf("%w: %s: %w", ErrDecode, path, err)
		}
	}

	return w, info, nil
}

func checkFormat(format uint16, info Info) error {
	if info.Channels < 1 || info.SampleRate <= 0 {
		return fmt.Errorf("missing or invalid fmt chunk (channels %d, rate %d)", info.Channels, info.SampleRate)
	}

	if format != formatPCM && format != formatExtensible {
		return fmt.Errorf("unsupported audio format 0x%04X, need integer PCM", format)
	}

	if !validBitDepth(info.BitDepth) {
		return fmt.Errorf("unsupported bit depth %d", info.BitDepth)
	}

	return nil
}

// downmix averages interleaved channels and scales to [-1, 1). 8-bit WAV
// samples are unsigned with a midpoint of 128.
func downmix(data []int, channels, bits int) []float64 {
	frames := len(data) / channels
	scale := 1 / (fullScale(bits) * float64(channels))

	offset := 0
	if bits == 8 {
		offset = 128
	}

	out := make([]float64, frames)
	for i := range out {
		sum := 0
		for _, v := range data[i*channels : (i+1)*channels] {
			sum += v - offset
		}

		out[i] = float64(sum) * scale
	}

	return out
}

func convertRate(w core.Waveform, rate int, quality resample.Quality) (core.Waveform, error) {
	r, err := resample.NewForRates(float64(w.SampleRate), float64(rate), resample.WithQuality(quality))
	if err != nil {
		return core.Waveform{}, err
	}

	up, down := r.Ratio()

	out, err := resample.ResampleToLength(w.Samples, up, down, r.OutputLen(len(w.Samples)),
		resample.WithQuality(quality))
	if err != nil {
		return core.Waveform{}, err
	}

	return core.Waveform{Samples: out, SampleRate: rate}, nil
}
