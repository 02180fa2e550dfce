package note

import (
	"errors"
	"math"
	"testing"
)

func TestNoteToFrequencyReference(t *testing.T) {
	got, err := NoteToFrequency("A", 4)
	if err != nil {
		t.Fatalf("NoteToFrequency(A, 4) error = %v", err)
	}

	if got != 440 {
		t.Fatalf("NoteToFrequency(A, 4) = %v, want exactly 440", got)
	}

	c4, err := NoteToFrequency("C", 4)
	if err != nil {
		t.Fatalf("NoteToFrequency(C, 4) error = %v", err)
	}

	if math.Abs(c4-261.63) > 0.01 {
		t.Fatalf("NoteToFrequency(C, 4) = %v, want 261.63 ± 0.01", c4)
	}
}

func TestNoteToFrequencyTable(t *testing.T) {
	tests := []struct {
		name   string
		octave int
		want   float64
	}{
		{name: "A", octave: 5, want: 880},
		{name: "A", octave: 3, want: 220},
		{name: "A", octave: 0, want: 27.5},
		{name: "E", octave: 2, want: 82.4069},
		{name: "Db", octave: 5, want: 554.3653},
		{name: "C#", octave: 5, want: 554.3653},
		{name: "B♭", octave: 3, want: 233.0819},
		{name: "f♯", octave: 4, want: 369.9944},
		{name: "Cb", octave: 4, want: 246.9417},
		{name: "B#", octave: 3, want: 261.6256},
	}

	for _, tt := range tests {
		got, err := NoteToFrequency(tt.name, tt.octave)
		if err != nil {
			t.Fatalf("NoteToFrequency(%q, %d) error = %v", tt.name, tt.octave, err)
		}

		if math.Abs(got-tt.want) > 1e-3 {
			t.Fatalf("NoteToFrequency(%q, %d) = %v, want %v", tt.name, tt.octave, got, tt.want)
		}
	}
}

func TestPitchClassRoundTrip(t *testing.T) {
	for octave := -1; octave <= 9; octave++ {
		for _, name := range PitchClasses() {
			hz, err := NoteToFrequency(name, octave)
			if err != nil {
				t.Fatalf("NoteToFrequency(%q, %d) error = %v", name, octave, err)
			}

			got, err := FrequencyToNote(hz)
			if err != nil {
				t.Fatalf("FrequencyToNote(%v) error = %v", hz, err)
			}

			if got != name {
				t.Fatalf("FrequencyToNote(NoteToFrequency(%q, %d)) = %q", name, octave, got)
			}
		}
	}
}

func TestFrequencyToNoteRoundsToNearest(t *testing.T) {
	tests := []struct {
		hz   float64
		want string
	}{
		{hz: 440, want: "A"},
		{hz: 452, want: "A"},
		{hz: 460, want: "A#"},
		{hz: 220.5, want: "A"},
		{hz: 261.0, want: "C"},
		{hz: 30.87, want: "B"},
	}

	for _, tt := range tests {
		got, err := FrequencyToNote(tt.hz)
		if err != nil {
			t.Fatalf("FrequencyToNote(%v) error = %v", tt.hz, err)
		}

		if got != tt.want {
			t.Fatalf("FrequencyToNote(%v) = %q, want %q", tt.hz, got, tt.want)
		}
	}
}

func TestInvalidFrequency(t *testing.T) {
	for _, hz := range []float64{0, -440, math.NaN(), math.Inf(1), math.Inf(-1)} {
		if _, err := FrequencyToNote(hz); !errors.Is(err, ErrInvalidFrequency) {
			t.Fatalf("FrequencyToNote(%v) error = %v, want ErrInvalidFrequency", hz, err)
		}

		if _, _, err := Nearest(hz); !errors.Is(err, ErrInvalidFrequency) {
			t.Fatalf("Nearest(%v) error = %v, want ErrInvalidFrequency", hz, err)
		}
	}
}

func TestParse(t *testing.T) {
	tests := []struct {
		in   string
		want Note
	}{
		{in: "A4", want: Note{Class: 9, Octave: 4}},
		{in: "a4", want: Note{Class: 9, Octave: 4}},
		{in: " C#3 ", want: Note{Class: 1, Octave: 3}},
		{in: "Db5", want: Note{Class: 1, Octave: 5}},
		{in: "bb2", want: Note{Class: 10, Octave: 2}},
		{in: "F♯2", want: Note{Class: 6, Octave: 2}},
		{in: "B♭1", want: Note{Class: 10, Octave: 1}},
		{in: "Cb4", want: Note{Class: 11, Octave: 3}},
		{in: "B#3", want: Note{Class: 0, Octave: 4}},
		{in: "C-1", want: Note{Class: 0, Octave: -1}},
	}

	for _, tt := range tests {
		got, err := Parse(tt.in)
		if err != nil {
			t.Fatalf("Parse(%q) error = %v", tt.in, err)
		}

		if got != tt.want {
			t.Fatalf("Parse(%q) = %+v, want %+v", tt.in, got, tt.want)
		}
	}
}

func TestParseErrors(t *testing.T) {
	for _, in := range []string{"", "H4", "A", "A#x", "4A", "C##"} {
		if _, err := Parse(in); !errors.Is(err, ErrUnknownNote) {
			t.Fatalf("Parse(%q) error = %v, want ErrUnknownNote", in, err)
		}
	}

	if _, err := NoteToFrequency("A4", 4); !errors.Is(err, ErrUnknownNote) {
		t.Fatalf("NoteToFrequency(A4, 4) error = %v, want ErrUnknownNote", err)
	}

	if _, err := ParseClass("Q"); !errors.Is(err, ErrUnknownNote) {
		t.Fatalf("ParseClass(Q) error = %v, want ErrUnknownNote", err)
	}
}

func TestNoteStringAndMIDI(t *testing.T) {
	n := Note{Class: 1, Octave: 4}
	if n.String() != "C#4" {
		t.Fatalf("String() = %q, want C#4", n.String())
	}

	if n.MIDI() != 61 {
		t.Fatalf("MIDI() = %d, want 61", n.MIDI())
	}

	for m := 0; m < 128; m++ {
		if got := FromMIDI(m).MIDI(); got != m {
			t.Fatalf("FromMIDI(%d).MIDI() = %d", m, got)
		}
	}

	if got := FromMIDI(-1); got != (Note{Class: 11, Octave: -2}) {
		t.Fatalf("FromMIDI(-1) = %+v", got)
	}
}

func TestNearest(t *testing.T) {
	n, cents, err := Nearest(220)
	if err != nil {
		t.Fatalf("Nearest(220) error = %v", err)
	}

	if n.String() != "A3" || math.Abs(cents) > 1e-9 {
		t.Fatalf("Nearest(220) = %v %+.3f cents, want A3 0", n, cents)
	}

	// Thirty cents above A4 still resolves to A4.
	sharp := 440 * math.Pow(2, 0.3/12)

	n, cents, err = Nearest(sharp)
	if err != nil {
		t.Fatalf("Nearest() error = %v", err)
	}

	if n.String() != "A4" || math.Abs(cents-30) > 1e-9 {
		t.Fatalf("Nearest(%v) = %v %+.3f cents, want A4 +30", sharp, n, cents)
	}

	flat := 261.63 * math.Pow(2, -0.2/12)

	n, cents, err = Nearest(flat)
	if err != nil {
		t.Fatalf("Nearest() error = %v", err)
	}

	if n.String() != "C4" || math.Abs(cents+20) > 0.1 {
		t.Fatalf("Nearest(%v) = %v %+.3f cents, want C4 -20", flat, n, cents)
	}
}
