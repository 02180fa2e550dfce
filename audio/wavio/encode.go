package wavio

import (
	"fmt"
	"path/filepath"

	"github.com/cwbudde/algo-autotune/dsp/core"
	"github.com/cwbudde/algo-autotune/dsp/dither"
	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/google/renameio/v2"
)

// Encode writes w to path as mono integer PCM. Samples are clipped to
// [-1, 1]. The file is written to a temporary sibling and renamed into place,
// so a failed Encode leaves neither a partial file nor a stale temporary.
// New files get mode FileMode minus the process umask.
func Encode(path string, w core.Waveform, opts ...EncodeOption) error {
	cfg := encodeConfig{bitDepth: DefaultBitDepth}

	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	if !validBitDepth(cfg.bitDepth) {
		return fmt.Errorf("%w: unsupported bit depth %d", ErrEncode, cfg.bitDepth)
	}

	if err := w.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrEncode, err)
	}

	q, err := dither.NewQuantizer(cfg.bitDepth, cfg.dither...)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrEncode, err)
	}

	pf, err := renameio.NewPendingFile(path,
		renameio.WithTempDir(filepath.Dir(path)),
		renameio.WithPermissions(FileMode))
	if err != nil {
		return fmt.Errorf("%w: %w", ErrEncode, err)
	}
	defer pf.Cleanup()

	enc := wav.NewEncoder(pf, w.SampleRate, cfg.bitDepth, 1, formatPCM)

	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: 1, SampleRate: w.SampleRate},
		Data:           quantize(q, w.Samples),
		SourceBitDepth: cfg.bitDepth,
	}

	if err := enc.Write(buf); err != nil {
		return fmt.Errorf("%w: writing samples: %w", ErrEncode, err)
	}

	if err := enc.Close(); err != nil {
		return fmt.Errorf("%w: finalizing header: %w", ErrEncode, err)
	}

	if err := pf.CloseAtomicallyReplace(); err != nil {
		return fmt.Errorf("%w: %w", ErrEncode, err)
	}

	return nil
}

// quantize maps [-1, 1] to signed integers, or to unsigned values around 128
// for 8-bit output.
func quantize(q *dither.Quantizer, samples []float64) []int {
	out := make([]int, len(samples))
	q.QuantizeInto(out, samples)

	if q.BitDepth() == 8 {
		for i := range out {
			out[i] += 128
		}
	}

	return out
}
