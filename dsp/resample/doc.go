// Package resample provides rational sample-rate conversion with a polyphase
// windowed-sinc FIR.
//
// The pitch shifter uses it to turn a time-stretched signal back into the
// original duration: stretching by synthesisHop/analysisHop and resampling by
// analysisHop/synthesisHop yields a pitch change of exactly that ratio.
//
// Quality modes:
//
//	mode            taps/phase   kaiser beta
//	QualityFast     16           5.0
//	QualityBalanced 32           7.5
//	QualityBest     64           9.0
package resample
