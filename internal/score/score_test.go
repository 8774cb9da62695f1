package score

import (
	"errors"
	"math"
	"testing"
)

func TestPitchMIDIAndFrequency(t *testing.T) {
	if got := (Pitch{Name: C, Octave: 4}).MIDI(); got != 60 {
		t.Fatalf("C4 midi = %d, want 60", got)
	}
	if got := (Pitch{Name: A, Octave: 4}).Frequency(); math.Abs(got-440) > 1e-9 {
		t.Fatalf("A4 = %f, want 440", got)
	}
	if got := (Pitch{Name: A, Octave: 3}).Frequency(); math.Abs(got-220) > 1e-9 {
		t.Fatalf("A3 = %f, want 220", got)
	}
	if got := (Pitch{Name: A, Octave: 4}).Transpose(-1); got != (Pitch{Name: A, Octave: 3}) {
		t.Fatalf("transpose = %v", got)
	}
}

func TestPatternLength(t *testing.T) {
	p := &Pattern{Events: []Event{
		Note(Pitch{Name: A, Octave: 4}),
		Rest(3),
		Chord(Pitch{Name: C, Octave: 4}, Pitch{Name: E, Octave: 4}),
	}}
	if got, want := p.Length(), Beats(5); got != want {
		t.Fatalf("derived length = %d, want %d", got, want)
	}
	p.Beats = Beats(8)
	if got := p.Length(); got != Beats(8) {
		t.Fatalf("declared length = %d", got)
	}
	if got := p.EventsLength(); got != Beats(5) {
		t.Fatalf("events length = %d", got)
	}
}

func TestPatternValidate(t *testing.T) {
	a4 := Pitch{Name: A, Octave: 4}
	cases := []struct {
		name    string
		pattern Pattern
		wantErr bool
	}{
		{
			name:    "exactly full",
			pattern: Pattern{Beats: Beats(4), Events: []Event{Note(a4), Note(a4), Note(a4), Note(a4)}},
		},
		{
			name:    "trailing silence",
			pattern: Pattern{Beats: Beats(4), Events: []Event{Note(a4)}},
		},
		{
			name:    "overflow",
			pattern: Pattern{Beats: Beats(3), Events: []Event{Note(a4), Note(a4), Note(a4), Note(a4)}},
			wantErr: true,
		},
		{
			name:    "empty",
			pattern: Pattern{},
			wantErr: true,
		},
		{
			name:    "negative beats",
			pattern: Pattern{Beats: -1, Events: []Event{Note(a4)}},
			wantErr: true,
		},
		{
			name:    "single member chord",
			pattern: Pattern{Events: []Event{{Type: EventChord, Pitches: []Pitch{a4}}}},
			wantErr: true,
		},
		{
			name:    "zero rest",
			pattern: Pattern{Events: []Event{{Type: EventRest}, Note(a4)}},
			wantErr: true,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.pattern.Validate()
			if tc.wantErr {
				if !errors.Is(err, ErrConfiguration) {
					t.Fatalf("expected configuration error, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestInstrumentValidate(t *testing.T) {
	if err := DefaultInstrument().Validate(); err != nil {
		t.Fatalf("default instrument invalid: %v", err)
	}
	bad := []Instrument{
		{Attack: -1, Sustain: 0.5},
		{Release: -0.1, Sustain: 0.5},
		{Sustain: 1.5},
		{Sustain: -0.1},
		{Sustain: math.NaN()},
		{Attack: math.NaN(), Sustain: 0.5},
		{Decay: math.Inf(1), Sustain: 0.5},
		{Release: math.Inf(-1), Sustain: 0.5},
		{Sustain: math.Inf(1)},
	}
	for i, in := range bad {
		if err := in.Validate(); !errors.Is(err, ErrConfiguration) {
			t.Fatalf("case %d: expected configuration error, got %v", i, err)
		}
	}
}

func TestConfigurationErrorMessage(t *testing.T) {
	base := &ConfigurationError{Track: -1, Segment: -1, Msg: "pattern has zero length"}
	err := base.At(1, 2, "verse.notes")
	want := "configuration error: track 1 segment 2 (verse.notes): pattern has zero length"
	if err.Error() != want {
		t.Fatalf("message = %q, want %q", err.Error(), want)
	}
	if base.Track != -1 {
		t.Fatalf("At must not modify the receiver")
	}
}
