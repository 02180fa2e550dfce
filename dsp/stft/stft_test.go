package stft

import (
	"errors"
	"math"
	"testing"

	"github.com/cwbudde/algo-autotune/dsp/window"
	"github.com/cwbudde/algo-autotune/internal/testutil"
)

func TestNewValidation(t *testing.T) {
	tests := []struct {
		name string
		opts []Option
	}{
		{name: "non power of two", opts: []Option{WithFrameSize(1000)}},
		{name: "too small", opts: []Option{WithFrameSize(8)}},
		{name: "zero hop", opts: []Option{WithHop(0)}},
		{name: "hop above frame", opts: []Option{WithFrameSize(256), WithHop(512)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := New(tt.opts...); !errors.Is(err, ErrInvalidConfig) {
				t.Fatalf("New() error = %v, want ErrInvalidConfig", err)
			}
		})
	}
}

func TestNewDefaults(t *testing.T) {
	a, err := New()
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if a.FrameSize() != DefaultFrameSize || a.Hop() != DefaultHop {
		t.Fatalf("defaults = %d/%d, want %d/%d", a.FrameSize(), a.Hop(), DefaultFrameSize, DefaultHop)
	}

	if a.Bins() != DefaultFrameSize/2+1 {
		t.Fatalf("Bins() = %d, want %d", a.Bins(), DefaultFrameSize/2+1)
	}
}

func TestFrameCount(t *testing.T) {
	centred, err := New()
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	plain, err := New(WithCenter(false))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	tests := []struct {
		n           int
		wantCentred int
		wantPlain   int
	}{
		{n: 0, wantCentred: 0, wantPlain: 0},
		{n: 100, wantCentred: 1, wantPlain: 0},
		{n: 2048, wantCentred: 5, wantPlain: 1},
		{n: 22050, wantCentred: 44, wantPlain: 40},
	}

	for _, tt := range tests {
		if got := centred.FrameCount(tt.n); got != tt.wantCentred {
			t.Fatalf("centred FrameCount(%d) = %d, want %d", tt.n, got, tt.wantCentred)
		}
		if got := plain.FrameCount(tt.n); got != tt.wantPlain {
			t.Fatalf("plain FrameCount(%d) = %d, want %d", tt.n, got, tt.wantPlain)
		}
	}
}

func TestMagnitudeFramePeakAtSineBin(t *testing.T) {
	const (
		sampleRate = 16384.0
		frameSize  = 1024
	)

	// 32 cycles per frame lands exactly on bin 32.
	freq := 32 * sampleRate / frameSize
	signal := testutil.DeterministicSine(freq, sampleRate, 1, 8192)

	a, err := New(WithFrameSize(frameSize), WithHop(256))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	mag := make([]float64, a.Bins())
	if err := a.MagnitudeFrame(mag, signal, 10); err != nil {
		t.Fatalf("MagnitudeFrame() error = %v", err)
	}

	peak := 0
	for k := range mag {
		if mag[k] > mag[peak] {
			peak = k
		}
	}

	if peak != 32 {
		t.Fatalf("peak bin = %d, want 32", peak)
	}

	// A periodic Hann window has coherent gain 0.5, so a unit sine peaks at N/4.
	if want := frameSize / 4.0; math.Abs(mag[peak]-want) > 1e-6*want {
		t.Fatalf("peak magnitude = %v, want %v", mag[peak], want)
	}
}

func TestMagnitudeFrameCentredPaddingIsZero(t *testing.T) {
	a, err := New(WithFrameSize(64), WithHop(16), WithWindow(window.TypeRectangular))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	signal := make([]float64, 64)
	for i := range signal {
		signal[i] = 1
	}

	mag := make([]float64, a.Bins())
	if err := a.MagnitudeFrame(mag, signal, 0); err != nil {
		t.Fatalf("MagnitudeFrame() error = %v", err)
	}

	// Frame 0 covers [-32, 32): half padding, half ones.
	if math.Abs(mag[0]-32) > 1e-9 {
		t.Fatalf("DC magnitude = %v, want 32", mag[0])
	}
}

func TestMagnitudeFrameErrors(t *testing.T) {
	a, err := New(WithFrameSize(64), WithHop(16))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	signal := make([]float64, 64)

	if err := a.MagnitudeFrame(make([]float64, 3), signal, 0); err == nil {
		t.Fatal("expected error for short destination")
	}
	if err := a.MagnitudeFrame(make([]float64, a.Bins()), signal, a.FrameCount(len(signal))); err == nil {
		t.Fatal("expected error for out-of-range frame")
	}
}

func TestCloneIsIndependent(t *testing.T) {
	a, err := New(WithFrameSize(256), WithHop(64))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	b, err := a.Clone()
	if err != nil {
		t.Fatalf("Clone() error = %v", err)
	}

	if b.FrameSize() != 256 || b.Hop() != 64 {
		t.Fatalf("Clone() config = %d/%d, want 256/64", b.FrameSize(), b.Hop())
	}

	signal := testutil.DeterministicSine(440, 8000, 0.5, 2048)
	ma := make([]float64, a.Bins())
	mb := make([]float64, b.Bins())

	for i := range a.FrameCount(len(signal)) {
		if err := a.MagnitudeFrame(ma, signal, i); err != nil {
			t.Fatalf("a.MagnitudeFrame(%d) error = %v", i, err)
		}
		if err := b.MagnitudeFrame(mb, signal, i); err != nil {
			t.Fatalf("b.MagnitudeFrame(%d) error = %v", i, err)
		}

		testutil.RequireSliceNearlyEqual(t, mb, ma, 0)
	}
}
