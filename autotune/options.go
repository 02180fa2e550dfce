package autotune

import (
	"log/slog"

	"github.com/cwbudde/algo-autotune/audio/wavio"
	"github.com/cwbudde/algo-autotune/dsp/effects/pitch"
	"github.com/cwbudde/algo-autotune/measure/f0"
)

type config struct {
	logger     *slog.Logger
	estimator  []f0.Option
	shifter    []pitch.Option
	decodeOpts []wavio.DecodeOption
	encodeOpts []wavio.EncodeOption
}

func newConfig(opts []Option) config {
	cfg := config{logger: slog.New(slog.DiscardHandler)}

	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	return cfg
}

// Option configures Correct and CorrectWaveform.
type Option func(*config)

// WithLogger sets the diagnostics logger. Nil keeps the discarding default.
func WithLogger(l *slog.Logger) Option {
	return func(c *config) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithEstimatorOptions passes options to the pitch estimator.
func WithEstimatorOptions(opts ...f0.Option) Option {
	return func(c *config) { c.estimator = append(c.estimator, opts...) }
}

// WithShiftOptions passes options to the pitch shifter.
func WithShiftOptions(opts ...pitch.Option) Option {
	return func(c *config) { c.shifter = append(c.shifter, opts...) }
}

// WithDecodeOptions passes options to the WAV decoder.
func WithDecodeOptions(opts ...wavio.DecodeOption) Option {
	return func(c *config) { c.decodeOpts = append(c.decodeOpts, opts...) }
}

// WithEncodeOptions passes options to the WAV encoder.
func WithEncodeOptions(opts ...wavio.EncodeOption) Option {
	return func(c *config) { c.encodeOpts = append(c.encodeOpts, opts...) }
}
