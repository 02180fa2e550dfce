// Package config loads settings for the tune command: built-in defaults,
// then an optional YAML file, then AUTOTUNE_* environment variables.
package config

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"reflect"
	"strings"

	"github.com/cwbudde/algo-autotune/audio/wavio"
	"github.com/cwbudde/algo-autotune/autotune"
	"github.com/cwbudde/algo-autotune/dsp/dither"
	"github.com/cwbudde/algo-autotune/dsp/effects/pitch"
	"github.com/cwbudde/algo-autotune/dsp/window"
	"github.com/cwbudde/algo-autotune/measure/f0"
	"github.com/cwbudde/algo-autotune/music/note"
	"github.com/go-playground/validator/v10"
	"github.com/sethvargo/go-envconfig"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "AUTOTUNE_"

// ErrInvalid is returned when the merged configuration fails validation.
var ErrInvalid = errors.New("config: invalid configuration")

// Config holds all settings of a correction run.
type Config struct {
	TargetNote   string  `yaml:"target_note"   env:"TARGET_NOTE"   validate:"required,note"`
	Method       string  `yaml:"method"        env:"METHOD"        validate:"oneof=spectral vocoder wsola"`
	Window       string  `yaml:"window"        env:"WINDOW"        validate:"oneof=rectangular hann hamming blackman kaiser"`
	SkipUnvoiced bool    `yaml:"skip_unvoiced" env:"SKIP_UNVOICED"`
	Workers      int     `yaml:"workers"       env:"WORKERS"       validate:"gte=0,lte=1024"`
	FMin         float64 `yaml:"fmin"          env:"FMIN"          validate:"gt=0"`
	FMax         float64 `yaml:"fmax"          env:"FMAX"          validate:"gtfield=FMin"`
	Threshold    float64 `yaml:"threshold"     env:"THRESHOLD"     validate:"gte=0,lt=1"`
	HighPassHz   float64 `yaml:"highpass_hz"   env:"HIGHPASS_HZ"   validate:"gte=0,ltfield=FMin"`
	AnalysisRate int     `yaml:"analysis_rate" env:"ANALYSIS_RATE" validate:"gte=0,lte=384000"`
	BitDepth     int     `yaml:"bit_depth"     env:"BIT_DEPTH"     validate:"oneof=8 16 24 32"`
	Dither       string  `yaml:"dither"        env:"DITHER"        validate:"oneof=none rectangular triangular"`
	NoiseShaping string  `yaml:"noise_shaping" env:"NOISE_SHAPING" validate:"oneof=none efb 2sc 3mec 3fc 9fc"`

	Log LogConfig `yaml:"log" env:", prefix=LOG_"`
}

// LogConfig selects the slog handler.
type LogConfig struct {
	Level  string `yaml:"level"  env:"LEVEL"  validate:"oneof=debug info warn warning error"`
	Format string `yaml:"format" env:"FORMAT" validate:"oneof=text json"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		TargetNote:   autotune.DefaultTargetNote,
		Method:       pitch.MethodSpectral.String(),
		Window:       window.TypeHann.String(),
		FMin:         f0.DefaultFMin,
		FMax:         f0.DefaultFMax,
		Threshold:    f0.DefaultThreshold,
		BitDepth:     wavio.DefaultBitDepth,
		Dither:       dither.None.String(),
		NoiseShaping: dither.PresetNone.String(),
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load merges Default, the YAML file at path (skipped when path is empty) and
// the environment seen through lookuper, then validates the result. A nil
// lookuper reads the process environment.
func Load(ctx context.Context, path string, lookuper envconfig.Lookuper) (Config, error) {
	cfg := Default()

	if path != "" {
		if err := loadFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}

	if lookuper == nil {
		lookuper = envconfig.OsLookuper()
	}

	if err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:           &cfg,
		Lookuper:         envconfig.PrefixLookuper(EnvPrefix, lookuper),
		DefaultOverwrite: true,
	}); err != nil {
		return Config{}, fmt.Errorf("config: environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func loadFile(path string, cfg *Config) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("config: open %q: %w", path, err)
	}
	defer f.Close()

	if err := decodeYAML(f, cfg); err != nil {
		return fmt.Errorf("config: parse %q: %w", path, err)
	}

	return nil
}

// decodeYAML overlays the YAML document in r onto cfg. Unknown keys are
// rejected; an empty document leaves cfg unchanged.
func decodeYAML(r io.Reader, cfg *Config) error {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("decode yaml: %w", err)
	}

	return nil
}

// Validate checks cfg and reports every failing field.
func (c Config) Validate() error {
	err := newValidator().Struct(c)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}

	errs := make([]error, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		errs = append(errs, fmt.Errorf("%s: %v fails %q", fe.Namespace(), fe.Value(), tagWithParam(fe)))
	}

	return fmt.Errorf("%w: %w", ErrInvalid, errors.Join(errs...))
}

func tagWithParam(fe validator.FieldError) string {
	if fe.Param() == "" {
		return fe.Tag()
	}

	return fe.Tag() + "=" + fe.Param()
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Report YAML key names instead of Go field names.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("yaml"), ",")
		if name == "" || name == "-" {
			return f.Name
		}

		return name
	})

	_ = v.RegisterValidation("note", func(fl validator.FieldLevel) bool {
		_, err := note.Parse(fl.Field().String())
		return err == nil
	})

	return v
}

// NewLogger builds the slog logger selected by c.Log, writing to w.
func (c Config) NewLogger(w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLogLevel(c.Log.Level)}

	if strings.EqualFold(c.Log.Format, "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}

	return slog.New(slog.NewTextHandler(w, opts))
}

// Options translates c into autotune options.
func (c Config) Options(logger *slog.Logger) ([]autotune.Option, error) {
	method, err := pitch.ParseMethod(c.Method)
	if err != nil {
		return nil, err
	}

	win, err := window.ParseType(c.Window)
	if err != nil {
		return nil, err
	}

	ditherType, err := dither.ParseType(c.Dither)
	if err != nil {
		return nil, err
	}

	preset, err := dither.ParsePreset(c.NoiseShaping)
	if err != nil {
		return nil, err
	}

	return []autotune.Option{
		autotune.WithLogger(logger),
		autotune.WithEstimatorOptions(
			f0.WithWorkers(c.Workers),
			f0.WithUnvoicedFiltering(c.SkipUnvoiced),
			f0.WithFrequencyRange(c.FMin, c.FMax),
			f0.WithThreshold(c.Threshold),
			f0.WithHighPass(c.HighPassHz),
			f0.WithWindow(win),
		),
		autotune.WithShiftOptions(pitch.WithMethod(method), pitch.WithWindow(win)),
		autotune.WithDecodeOptions(wavio.WithTargetRate(c.AnalysisRate)),
		autotune.WithEncodeOptions(
			wavio.WithBitDepth(c.BitDepth),
			wavio.WithDither(dither.WithType(ditherType), dither.WithPreset(preset)),
		),
	}, nil
}

// parseLogLevel converts a string log level to slog.Level.
func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
