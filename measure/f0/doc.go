// Package f0 estimates the fundamental frequency of monophonic audio.
//
// The estimator frames the signal with a centred STFT and picks one pitch
// candidate per frame by spectral peak tracking: every local maximum of the
// magnitude spectrum inside [fmin, fmax) that exceeds a fraction of the frame
// maximum is a candidate, its frequency and height are refined by parabolic
// interpolation, and the strongest candidate wins. Frames without a candidate
// are unvoiced and report 0 Hz.
//
// The aggregate estimate is the mean over all frames, unvoiced ones included,
// unless WithUnvoicedFiltering is set. WithHighPass removes DC and rumble
// before framing.
package f0
