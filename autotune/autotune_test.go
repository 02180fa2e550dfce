package autotune

import (
	"bytes"
	"errors"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/cwbudde/algo-autotune/audio/wavio"
	"github.com/cwbudde/algo-autotune/dsp/core"
	"github.com/cwbudde/algo-autotune/dsp/effects/pitch"
	"github.com/cwbudde/algo-autotune/internal/testutil"
	"github.com/cwbudde/algo-autotune/measure/f0"
	"github.com/cwbudde/algo-autotune/music/note"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCorrectWaveformToA4(t *testing.T) {
	in := testutil.SineWaveform(220, 22050, 0.5, 1)

	for _, method := range []pitch.Method{pitch.MethodSpectral, pitch.MethodWSOLA} {
		t.Run(method.String(), func(t *testing.T) {
			out, res, err := CorrectWaveform(in, "A4", WithShiftOptions(pitch.WithMethod(method)))
			require.NoError(t, err)

			assert.InDelta(t, 220, res.DetectedHz, 5)
			assert.Equal(t, "A3", res.DetectedNote.String())
			assert.Equal(t, "A4", res.TargetNote.String())
			assert.InDelta(t, 440, res.TargetHz, 1e-9)
			assert.InDelta(t, 2, res.Ratio, 0.05)
			assert.InDelta(t, 12, res.Semitones, 0.4)
			assert.Equal(t, 44, res.Frames)
			assert.Equal(t, in.SampleRate, res.SampleRate)
			assert.Equal(t, in.Duration(), res.Duration)

			require.Equal(t, in.SampleRate, out.SampleRate)
			require.Len(t, out.Samples, in.Len())
			testutil.RequireFinite(t, out.Samples)

			hz, err := f0.EstimatePitch(out)
			require.NoError(t, err)
			assert.InDelta(t, 440, hz, 8)
		})
	}
}

func TestCorrectWaveformDefaultsTarget(t *testing.T) {
	_, res, err := CorrectWaveform(testutil.SineWaveform(330, 22050, 0.5, 0.5), "")
	require.NoError(t, err)
	assert.Equal(t, DefaultTargetNote, res.TargetNote.String())
}

func TestCorrectWaveformDoesNotMutateInput(t *testing.T) {
	in := testutil.SineWaveform(220, 22050, 0.5, 0.5)
	orig := in.Clone()

	_, _, err := CorrectWaveform(in, "C4")
	require.NoError(t, err)
	assert.Equal(t, orig.Samples, in.Samples)
}

func TestCorrectWaveformSparseVoicing(t *testing.T) {
	const sampleRate = 22050

	// A short tone after a long pause pulls the frame mean far below the
	// tone, so the ratio lands well past three octaves.
	tone := testutil.SineWaveform(220, sampleRate, 0.5, 0.2)
	samples := append(testutil.Silence(sampleRate, 3*sampleRate).Samples, tone.Samples...)
	in := core.Waveform{Samples: samples, SampleRate: sampleRate}

	for _, method := range []pitch.Method{pitch.MethodSpectral, pitch.MethodWSOLA} {
		t.Run(method.String(), func(t *testing.T) {
			out, res, err := CorrectWaveform(in, "A4", WithShiftOptions(pitch.WithMethod(method)))
			require.NoError(t, err)

			assert.Greater(t, res.Ratio, pitch.MaxPassRatio)
			assert.InDelta(t, 440/res.DetectedHz, res.Ratio, 1e-9)
			require.Len(t, out.Samples, in.Len())
			testutil.RequireFinite(t, out.Samples)
		})
	}
}

func TestCorrectWaveformFarTarget(t *testing.T) {
	in := testutil.SineWaveform(220, 44100, 0.5, 0.5)

	out, res, err := CorrectWaveform(in, "A7")
	require.NoError(t, err)

	assert.InDelta(t, 16, res.Ratio, 0.5)
	require.Len(t, out.Samples, in.Len())
	testutil.RequireFinite(t, out.Samples)
}

func TestCorrectWaveformStageErrors(t *testing.T) {
	tone := testutil.SineWaveform(220, 22050, 0.5, 0.5)

	tests := []struct {
		name   string
		w      core.Waveform
		target string
		opts   []Option
		stage  Stage
		want   error
	}{
		{
			name: "silence", w: testutil.Silence(22050, 22050), target: "A4",
			stage: StageEstimate, want: f0.ErrInsufficientSignal,
		},
		{
			name: "empty", w: core.Waveform{SampleRate: 22050}, target: "A4",
			stage: StageEstimate, want: f0.ErrInsufficientSignal,
		},
		{
			name: "bad estimator option", w: tone, target: "A4",
			opts:  []Option{WithEstimatorOptions(f0.WithHop(0))},
			stage: StageEstimate, want: f0.ErrInvalidConfig,
		},
		{
			name: "unknown note", w: tone, target: "H2",
			stage: StageResolve, want: note.ErrUnknownNote,
		},
		{
			name: "bad shifter option", w: tone, target: "A4",
			opts:  []Option{WithShiftOptions(pitch.WithFrameSize(1000))},
			stage: StageShift, want: pitch.ErrInvalidConfig,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, res, err := CorrectWaveform(tt.w, tt.target, tt.opts...)
			require.ErrorIs(t, err, tt.want)

			var se *StageError
			require.ErrorAs(t, err, &se)
			assert.Equal(t, tt.stage, se.Stage)
			assert.Contains(t, err.Error(), string(tt.stage))

			assert.Empty(t, out.Samples)
			assert.Zero(t, res)
		})
	}
}

func TestRatio(t *testing.T) {
	tests := []struct {
		name     string
		detected float64
		target   float64
		want     float64
		wantErr  bool
	}{
		{name: "octave up", detected: 220, target: 440, want: 2},
		{name: "fifth down", detected: 660, target: 440, want: 2.0 / 3},
		{name: "zero detected", detected: 0, target: 440, wantErr: true},
		{name: "negative detected", detected: -1, target: 440, wantErr: true},
		{name: "NaN detected", detected: math.NaN(), target: 440, wantErr: true},
		{name: "Inf target", detected: 220, target: math.Inf(1), wantErr: true},
		{name: "overflow", detected: math.SmallestNonzeroFloat64, target: math.MaxFloat64, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Ratio(tt.detected, tt.target)
			if tt.wantErr {
				require.ErrorIs(t, err, pitch.ErrInvalidRatio)

				return
			}

			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-12)
		})
	}
}

func TestCorrectFile(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "in.wav")
	output := filepath.Join(dir, "out.wav")

	require.NoError(t, wavio.Encode(input, testutil.SineWaveform(220, 22050, 0.5, 1)))

	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug}))

	res, err := Correct(Request{InputPath: input, OutputPath: output, TargetNote: "A4"}, WithLogger(logger))
	require.NoError(t, err)

	assert.Equal(t, output, res.OutputPath)
	assert.InDelta(t, 2, res.Ratio, 0.05)
	assert.Greater(t, res.InputRMS, 0.3)
	assert.Greater(t, res.OutputRMS, 0.1)

	w, info, err := wavio.Decode(output)
	require.NoError(t, err)
	assert.Equal(t, 22050, info.SampleRate)
	assert.Equal(t, 22050, info.Frames)

	hz, err := f0.EstimatePitch(w)
	require.NoError(t, err)
	assert.InDelta(t, 440, hz, 8)

	assert.Contains(t, logs.String(), "pitch detected")
	assert.Contains(t, logs.String(), "target resolved")
	assert.Contains(t, logs.String(), "pitch corrected")
}

func TestCorrectWithAnalysisRate(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "in.wav")
	output := filepath.Join(dir, "out.wav")

	require.NoError(t, wavio.Encode(input, testutil.SineWaveform(220, 44100, 0.5, 1)))

	res, err := Correct(Request{InputPath: input, OutputPath: output},
		WithDecodeOptions(wavio.WithTargetRate(22050)),
		WithEncodeOptions(wavio.WithBitDepth(24)))
	require.NoError(t, err)
	assert.Equal(t, 22050, res.SampleRate)

	_, info, err := wavio.Decode(output)
	require.NoError(t, err)
	assert.Equal(t, 22050, info.SampleRate)
	assert.Equal(t, 24, info.BitDepth)
}

func TestCorrectFailuresLeaveNoOutput(t *testing.T) {
	dir := t.TempDir()

	silent := filepath.Join(dir, "silent.wav")
	require.NoError(t, wavio.Encode(silent, testutil.Silence(22050, 22050)))

	tests := []struct {
		name  string
		req   Request
		stage Stage
		want  error
	}{
		{
			name:  "missing input",
			req:   Request{InputPath: filepath.Join(dir, "missing.wav"), OutputPath: filepath.Join(dir, "a.wav")},
			stage: StageDecode, want: wavio.ErrDecode,
		},
		{
			name:  "silent input",
			req:   Request{InputPath: silent, OutputPath: filepath.Join(dir, "b.wav")},
			stage: StageEstimate, want: f0.ErrInsufficientSignal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Correct(tt.req)
			require.ErrorIs(t, err, tt.want)

			var se *StageError
			require.True(t, errors.As(err, &se))
			assert.Equal(t, tt.stage, se.Stage)

			_, statErr := os.Stat(tt.req.OutputPath)
			assert.True(t, os.IsNotExist(statErr), "output must not exist after failure")
		})
	}
}

func TestCorrectEncodeFailure(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "in.wav")
	require.NoError(t, wavio.Encode(input, testutil.SineWaveform(220, 22050, 0.5, 0.5)))

	_, err := Correct(Request{InputPath: input, OutputPath: filepath.Join(dir, "missing", "out.wav")})
	require.ErrorIs(t, err, wavio.ErrEncode)

	var se *StageError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, StageEncode, se.Stage)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestStageErrorMessage(t *testing.T) {
	err := &StageError{Stage: StageDecode, Err: errors.New("boom")}
	assert.Equal(t, "autotune: decode: boom", err.Error())
	assert.Equal(t, "boom", errors.Unwrap(err).Error())
}
