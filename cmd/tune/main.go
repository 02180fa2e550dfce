// Command tune shifts a monophonic WAV recording so that its average pitch
// lands on a target note.
//
// Usage:
//
//	tune [flags] <input.wav> <output.wav> [flags]
//
// Flags may appear before or after the file names; "--" ends flag parsing.
// Settings are read from built-in defaults, then the -config YAML file, then
// AUTOTUNE_* environment variables, then flags.
//
// Examples:
//
//	tune vocal.wav tuned.wav
//	tune vocal.wav tuned.wav --target-note C4
//	tune -target-note C#4 -method wsola vocal.wav tuned.wav
//	tune -config tune.yaml -skip-unvoiced -log-level debug vocal.wav tuned.wav
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/cwbudde/algo-autotune/autotune"
	"github.com/cwbudde/algo-autotune/internal/config"
)

const (
	exitOK    = 0
	exitError = 1
	exitUsage = 2
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("tune", flag.ContinueOnError)
	fs.SetOutput(stderr)

	configPath := fs.String("config", "", "YAML configuration file")
	targetNote := fs.String("target-note", "", "target note, e.g. A4 or C#3 (default A4)")
	method := fs.String("method", "", "pitch shift method: spectral or wsola")
	windowName := fs.String("window", "", "analysis window: rectangular, hann, hamming, blackman or kaiser")
	skipUnvoiced := fs.Bool("skip-unvoiced", false, "average voiced frames only")
	workers := fs.Int("workers", 0, "pitch estimation goroutines (0 = one per CPU)")
	ditherType := fs.String("dither", "", "output dither: none, rectangular or triangular")
	noiseShaping := fs.String("noise-shaping", "", "noise shaping preset: none, efb, 2sc, 3mec, 3fc or 9fc")
	bitDepth := fs.Int("bit-depth", 0, "output bit depth: 8, 16, 24 or 32 (default 16)")
	highPass := fs.Float64("highpass", 0, "high-pass cutoff in Hz applied before pitch estimation (0 = off)")
	analysisRate := fs.Int("analysis-rate", 0, "resample input to this rate in Hz before processing (0 = keep)")
	logLevel := fs.String("log-level", "", "log level: debug, info, warn, error")
	logFormat := fs.String("log-format", "", "log format: text or json")

	fs.Usage = func() {
		fmt.Fprintf(stderr, "Usage: tune [flags] <input.wav> <output.wav> [flags]\n\n")
		fmt.Fprintf(stderr, "Shifts a recording so its average pitch matches a target note.\n\n")
		fs.PrintDefaults()
	}

	files, err := parseInterspersed(fs, args)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}

		return exitUsage
	}

	if len(files) != 2 {
		fs.Usage()

		return exitUsage
	}

	cfg, err := config.Load(context.Background(), *configPath, nil)
	if err != nil {
		fmt.Fprintf(stderr, "tune: %v\n", err)

		return exitUsage
	}

	// Flags given explicitly override everything else.
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "target-note":
			cfg.TargetNote = *targetNote
		case "method":
			cfg.Method = *method
		case "window":
			cfg.Window = *windowName
		case "skip-unvoiced":
			cfg.SkipUnvoiced = *skipUnvoiced
		case "workers":
			cfg.Workers = *workers
		case "dither":
			cfg.Dither = *ditherType
		case "noise-shaping":
			cfg.NoiseShaping = *noiseShaping
		case "bit-depth":
			cfg.BitDepth = *bitDepth
		case "highpass":
			cfg.HighPassHz = *highPass
		case "analysis-rate":
			cfg.AnalysisRate = *analysisRate
		case "log-level":
			cfg.Log.Level = *logLevel
		case "log-format":
			cfg.Log.Format = *logFormat
		}
	})

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(stderr, "tune: %v\n", err)

		return exitUsage
	}

	logger := cfg.NewLogger(stderr)

	opts, err := cfg.Options(logger)
	if err != nil {
		fmt.Fprintf(stderr, "tune: %v\n", err)

		return exitUsage
	}

	req := autotune.Request{
		InputPath:  files[0],
		OutputPath: files[1],
		TargetNote: cfg.TargetNote,
	}

	res, err := autotune.Correct(req, opts...)
	if err != nil {
		fmt.Fprintf(stderr, "tune: %v\n", err)

		return exitError
	}

	fmt.Fprintf(stdout, "Detected pitch: %.2f Hz (%s %+.1f cents)\n", res.DetectedHz, res.DetectedNote, res.DetectedCents)
	fmt.Fprintf(stdout, "Target frequency for %s: %.2f Hz\n", res.TargetNote, res.TargetHz)
	fmt.Fprintf(stdout, "Shift: %+.2f semitones (ratio %.4f)\n", res.Semitones, res.Ratio)
	fmt.Fprintf(stdout, "Pitch corrected and saved to %s\n", res.OutputPath)

	return exitOK
}

// parseInterspersed parses flags anywhere in args and returns the remaining
// positional arguments in order. Everything after "--" is positional.
func parseInterspersed(fs *flag.FlagSet, args []string) ([]string, error) {
	var positional []string

	for {
		if err := fs.Parse(args); err != nil {
			return nil, err
		}

		rest := fs.Args()
		if len(rest) == 0 {
			return positional, nil
		}

		if consumed := len(args) - len(rest); consumed > 0 && args[consumed-1] == "--" {
			return append(positional, rest...), nil
		}

		positional = append(positional, rest[0])
		args = rest[1:]
	}
}
