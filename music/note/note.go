// Package note converts between note names and equal-tempered frequencies
// anchored at A4 = 440 Hz.
package note

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

const (
	// ReferenceHz is the frequency of A4.
	ReferenceHz = 440.0
	// ReferenceMIDI is the MIDI number of A4.
	ReferenceMIDI = 69

	classA = 9
)

var (
	// ErrInvalidFrequency is returned for frequencies that are not positive and finite.
	ErrInvalidFrequency = errors.New("note: invalid frequency")
	// ErrUnknownNote is returned for names that do not parse.
	ErrUnknownNote = errors.New("note: unknown note")
)

// pitchClasses is indexed by semitones above C.
var pitchClasses = [12]string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}

var letterClass = map[byte]int{'C': 0, 'D': 2, 'E': 4, 'F': 5, 'G': 7, 'A': 9, 'B': 11}

// Note is a pitch class (0 = C ... 11 = B) in an octave. C4 is middle C.
type Note struct {
	Class  int
	Octave int
}

// PitchClasses returns the 12 pitch-class names in ascending order from C.
func PitchClasses() [12]string { return pitchClasses }

// Name returns the pitch-class name, e.g. "C#".
func (n Note) Name() string { return pitchClasses[mod12(n.Class)] }

// String returns the name with octave, e.g. "C#4".
func (n Note) String() string { return n.Name() + strconv.Itoa(n.Octave) }

// MIDI returns the MIDI note number (A4 = 69).
func (n Note) MIDI() int { return (n.Octave+1)*12 + n.Class }

// semitonesFromA4 returns the signed semitone distance to A4.
func (n Note) semitonesFromA4() int { return n.MIDI() - ReferenceMIDI }

// Frequency returns the equal-tempered frequency in Hz.
func (n Note) Frequency() float64 {
	semis := n.semitonesFromA4()
	if semis == 0 {
		return ReferenceHz
	}

	return ReferenceHz * math.Pow(2, float64(semis)/12)
}

// FromMIDI returns the note with MIDI number m.
func FromMIDI(m int) Note {
	return Note{Class: mod12(m), Octave: floorDiv(m, 12) - 1}
}

// Parse reads a note such as "A4", "C#3", "Db5", "a4", "F♯2" or "B♭-1".
func Parse(s string) (Note, error) {
	class, rest, err := parseClass(s)
	if err != nil {
		return Note{}, err
	}

	if rest == "" {
		return Note{}, fmt.Errorf("%w: %q has no octave", ErrUnknownNote, s)
	}

	octave, err := strconv.Atoi(rest)
	if err != nil {
		return Note{}, fmt.Errorf("%w: %q has invalid octave", ErrUnknownNote, s)
	}

	return fromClassOctave(class, octave), nil
}

// ParseClass reads a pitch class without octave such as "C#" or "Eb" and
// returns its index 0..11.
func ParseClass(s string) (int, error) {
	class, rest, err := parseClass(s)
	if err != nil {
		return 0, err
	}

	if rest != "" {
		return 0, fmt.Errorf("%w: %q", ErrUnknownNote, s)
	}

	return mod12(class), nil
}

// NoteToFrequency returns the frequency of pitch class name in octave.
// NoteToFrequency("A", 4) is exactly 440.
func NoteToFrequency(name string, octave int) (float64, error) {
	class, rest, err := parseClass(name)
	if err != nil {
		return 0, err
	}

	if rest != "" {
		return 0, fmt.Errorf("%w: %q", ErrUnknownNote, name)
	}

	return fromClassOctave(class, octave).Frequency(), nil
}

// FrequencyToNote returns the pitch-class name nearest to hz, without octave.
func FrequencyToNote(hz float64) (string, error) {
	semis, err := semitonesFromA4(hz)
	if err != nil {
		return "", err
	}

	return pitchClasses[mod12(int(math.Round(semis))+classA)], nil
}

// Nearest returns the note nearest to hz and the deviation from it in cents
// (positive when hz is sharp).
func Nearest(hz float64) (Note, float64, error) {
	semis, err := semitonesFromA4(hz)
	if err != nil {
		return Note{}, 0, err
	}

	rounded := math.Round(semis)

	return FromMIDI(ReferenceMIDI + int(rounded)), 100 * (semis - rounded), nil
}

func semitonesFromA4(hz float64) (float64, error) {
	if hz <= 0 || math.IsNaN(hz) || math.IsInf(hz, 0) {
		return 0, fmt.Errorf("%w: %v Hz", ErrInvalidFrequency, hz)
	}

	return 12 * math.Log2(hz/ReferenceHz), nil
}

// parseClass consumes a letter and any accidentals from the front of s. The
// class may leave 0..11, e.g. "Cb" is -1 and "B#" is 12.
func parseClass(s string) (class int, rest string, err error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, "", fmt.Errorf("%w: empty name", ErrUnknownNote)
	}

	base, ok := letterClass[upper(s[0])]
	if !ok {
		return 0, "", fmt.Errorf("%w: %q", ErrUnknownNote, s)
	}

	class = base
	rest = s[1:]

	for {
		switch {
		case strings.HasPrefix(rest, "#"):
			class++
			rest = rest[1:]
		case strings.HasPrefix(rest, "♯"):
			class++
			rest = rest[len("♯"):]
		case strings.HasPrefix(rest, "b"):
			class--
			rest = rest[1:]
		case strings.HasPrefix(rest, "♭"):
			class--
			rest = rest[len("♭"):]
		default:
			return class, rest, nil
		}
	}
}

// fromClassOctave normalizes classes outside 0..11 into the adjacent octave.
func fromClassOctave(class, octave int) Note {
	return FromMIDI((octave+1)*12 + class)
}

func upper(c byte) byte {
	if c >= 'a' && c <= 'z' {
		return c - 'a' + 'A'
	}

	return c
}

func mod12(v int) int {
	return ((v % 12) + 12) % 12
}

func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}

	return q
}
