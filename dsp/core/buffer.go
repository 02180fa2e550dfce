package core

// EnsureLen returns a slice with the requested length, reusing buf capacity if possible.
func EnsureLen(buf []float64, n int) []float64 {
	if n <= 0 {
		return buf[:0]
	}
	if cap(buf) >= n {
		return buf[:n]
	}
	return make([]float64, n)
}

// FitLength returns a copy of in truncated or zero-padded to n samples.
func FitLength(in []float64, n int) []float64 {
	if n <= 0 {
		return nil
	}

	out := make([]float64, n)
	copy(out, in)

	return out
}
