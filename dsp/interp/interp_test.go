package interp

import "testing"

func TestHermite4IdentityOnLinearRamp(t *testing.T) {
	xm1, x0, x1, x2 := -1.0, 0.0, 1.0, 2.0
	for _, tc := range []struct {
		t float64
		w float64
	}{
		{t: 0.0, w: 0.0},
		{t: 0.25, w: 0.25},
		{t: 0.5, w: 0.5},
		{t: 1.0, w: 1.0},
	} {
		got := Hermite4(tc.t, xm1, x0, x1, x2)
		if diff := got - tc.w; diff < -1e-12 || diff > 1e-12 {
			t.Fatalf("t=%v: got %v want %v", tc.t, got, tc.w)
		}
	}
}

func TestLinear2(t *testing.T) {
	if got := Linear2(0.25, 2, 4); got != 2.5 {
		t.Fatalf("Linear2() = %v, want 2.5", got)
	}
}

func TestHermiteAtRamp(t *testing.T) {
	x := []float64{0, 1, 2, 3, 4, 5}
	for _, pos := range []float64{1, 1.5, 2.25, 3.75} {
		got := HermiteAt(x, pos)
		if diff := got - pos; diff < -1e-12 || diff > 1e-12 {
			t.Fatalf("HermiteAt(%v) = %v, want %v", pos, got, pos)
		}
	}
}

func TestClampedAndZeroed(t *testing.T) {
	x := []float64{3, 4, 5}

	if got := Clamped(x, -2); got != 3 {
		t.Fatalf("Clamped(-2) = %v, want 3", got)
	}
	if got := Clamped(x, 9); got != 5 {
		t.Fatalf("Clamped(9) = %v, want 5", got)
	}
	if got := Clamped(nil, 0); got != 0 {
		t.Fatalf("Clamped(nil) = %v, want 0", got)
	}
	if got := Zeroed(x, 3); got != 0 {
		t.Fatalf("Zeroed(3) = %v, want 0", got)
	}
	if got := Zeroed(x, 1); got != 4 {
		t.Fatalf("Zeroed(1) = %v, want 4", got)
	}
}
