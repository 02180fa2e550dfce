// Package pitch shifts the pitch of a mono signal while keeping its duration.
//
// Included processors:
//   - SpectralShifter: phase-vocoder shifter. Small ratios shift bins
//     directly; larger ratios time-stretch with identity phase locking and
//     resample back to the original length.
//   - WSOLAShifter: time-domain WSOLA stretch followed by Hermite resampling.
//
// Shift is the one-shot entry point operating on a core.Waveform.
package pitch
