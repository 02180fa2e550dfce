// Package spectrum provides FFT-adjacent spectrum-domain utilities.
//
// The package does not implement an FFT itself. It operates on complex or
// magnitude bins produced by an external FFT backend and provides helpers for
// magnitude extraction, bin/frequency mapping, peak picking and phase
// wrapping.
package spectrum
