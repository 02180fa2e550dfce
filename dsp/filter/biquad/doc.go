// Package biquad provides second-order IIR filter sections, cascades of them,
// and Butterworth high-pass designs.
//
// A [Section] implements Direct Form II Transposed processing for one
// second-order section defined by [Coefficients]. A [Chain] cascades sections
// for higher orders.
package biquad
