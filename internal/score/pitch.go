package score

import (
	"fmt"
	"math"
)

type NoteName int

const (
	C NoteName = iota
	CSharp
	D
	DSharp
	E
	F
	FSharp
	G
	GSharp
	A
	ASharp
	B
)

var noteNames = [...]string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}

func (n NoteName) String() string {
	if n < C || n > B {
		return fmt.Sprintf("NoteName(%d)", int(n))
	}
	return noteNames[n]
}

// Semitone is the offset within an octave, C=0 through B=11.
func (n NoteName) Semitone() int { return int(n) }

const (
	MinOctave = 0
	MaxOctave = 8
)

type Pitch struct {
	Name   NoteName
	Octave int
}

// MIDI returns the MIDI note number; C4 is 60.
func (p Pitch) MIDI() int {
	return (p.Octave+1)*12 + p.Name.Semitone()
}

// Frequency in Hz with A4 = 440.
func (p Pitch) Frequency() float64 {
	return midiToFreq(p.MIDI())
}

// Transpose shifts the pitch by whole octaves.
func (p Pitch) Transpose(octaves int) Pitch {
	p.Octave += octaves
	return p
}

func (p Pitch) String() string {
	return fmt.Sprintf("%s%d", p.Name, p.Octave)
}

func midiToFreq(note int) float64 {
	return 440 * math.Pow(2, float64(note-69)/12)
}
