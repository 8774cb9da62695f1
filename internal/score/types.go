package score

import "math"

// Tick is the exact time unit used for all beat arithmetic.
type Tick int64

// TicksPerBeat is the resolution of one beat. It divides evenly by 2, 3, 4,
// 5, 6, 8, 10, 12, 16 so common fractional beat counts stay exact.
const TicksPerBeat Tick = 1920

// Beats converts a whole number of beats to ticks.
func Beats(n int) Tick { return Tick(n) * TicksPerBeat }

// InBeats returns t as a fractional beat count. Only used for display and
// for the final conversion to seconds.
func (t Tick) InBeats() float64 { return float64(t) / float64(TicksPerBeat) }

type EventType int

const (
	EventNote EventType = iota + 1
	EventChord
	EventRest
)

func (t EventType) String() string {
	switch t {
	case EventNote:
		return "note"
	case EventChord:
		return "chord"
	case EventRest:
		return "rest"
	default:
		return "unknown"
	}
}

// Event is one step of a pattern. Notes carry exactly one pitch, chords two
// or more, rests none. A zero Length on a note or chord means one beat.
type Event struct {
	Type    EventType
	Pitches []Pitch
	Length  Tick
}

// Duration returns the number of ticks the event occupies.
func (e Event) Duration() Tick {
	if e.Length > 0 {
		return e.Length
	}
	if e.Type == EventRest {
		return 0
	}
	return TicksPerBeat
}

func Note(p Pitch) Event { return Event{Type: EventNote, Pitches: []Pitch{p}} }

func Chord(ps ...Pitch) Event { return Event{Type: EventChord, Pitches: ps} }

func Rest(beats int) Event { return Event{Type: EventRest, Length: Beats(beats)} }

type TimeSignature struct {
	Num int
	Den int
}

func DefaultTimeSignature() TimeSignature { return TimeSignature{Num: 4, Den: 4} }

// Pattern is one bar or segment of events. Patterns are read-only once
// loaded and may be shared by any number of tracks.
type Pattern struct {
	Beats         Tick // declared length; 0 means derived from the events
	Loop          bool
	TimeSignature TimeSignature
	Octave        int
	Events        []Event
}

// EventsLength is the sum of all event durations.
func (p *Pattern) EventsLength() Tick {
	var n Tick
	for _, ev := range p.Events {
		n += ev.Duration()
	}
	return n
}

// Length is the declared beat count, or the events' total when undeclared.
func (p *Pattern) Length() Tick {
	if p.Beats != 0 {
		return p.Beats
	}
	return p.EventsLength()
}

// Validate reports a ConfigurationError for non-positive lengths, malformed
// events, and events that overflow the declared beats.
func (p *Pattern) Validate() error {
	if p.Beats < 0 {
		return &ConfigurationError{Track: -1, Segment: -1, Msg: "pattern beats must be positive"}
	}
	for i, ev := range p.Events {
		if err := validateEvent(ev); err != nil {
			return &ConfigurationError{Track: -1, Segment: -1, Msg: "event " + itoa(i) + ": " + err.Error()}
		}
	}
	if p.Length() <= 0 {
		return &ConfigurationError{Track: -1, Segment: -1, Msg: "pattern has zero length"}
	}
	if used := p.EventsLength(); used > p.Length() {
		return &ConfigurationError{
			Track:   -1,
			Segment: -1,
			Msg:     "events span " + formatBeats(used) + " beats but pattern declares " + formatBeats(p.Length()),
		}
	}
	return nil
}

// Instrument holds ADSR envelope parameters. Times are in seconds, sustain
// is a level in [0, 1].
type Instrument struct {
	Attack  float64 `yaml:"attack"`
	Decay   float64 `yaml:"decay"`
	Sustain float64 `yaml:"sustain"`
	Release float64 `yaml:"release"`
}

func DefaultInstrument() Instrument {
	return Instrument{
		Attack:  0.01,
		Decay:   0.1,
		Sustain: 0.7,
		Release: 0.25,
	}
}

func (in Instrument) Validate() error {
	switch {
	case !validTime(in.Attack) || !validTime(in.Decay) || !validTime(in.Release):
		return &ConfigurationError{Track: -1, Segment: -1, Msg: "instrument times must be finite and non-negative"}
	case !(in.Sustain >= 0 && in.Sustain <= 1):
		return &ConfigurationError{Track: -1, Segment: -1, Msg: "instrument sustain must be in [0, 1]"}
	}
	return nil
}

// validTime rejects negative, NaN and infinite durations.
func validTime(sec float64) bool {
	return sec >= 0 && !math.IsInf(sec, 1)
}

// Segment plays one pattern Repeat times.
type Segment struct {
	Pattern string
	Repeat  int
}

type Track struct {
	Name           string
	Instrument     *Instrument
	InstrumentPath string
	Segments       []Segment
	Gain           float64 // 0 means equal share of the mix
}

type Song struct {
	Tempo         float64
	TimeSignature TimeSignature
	Tracks        []Track
}

// Instruments returns a copy of every track's instrument, in track order.
// Tracks without an instrument get the default envelope.
func (s *Song) Instruments() []Instrument {
	out := make([]Instrument, len(s.Tracks))
	for i, tr := range s.Tracks {
		if tr.Instrument != nil {
			out[i] = *tr.Instrument
		} else {
			out[i] = DefaultInstrument()
		}
	}
	return out
}

// Gains returns the per-track gain settings, in track order.
func (s *Song) Gains() []float64 {
	out := make([]float64, len(s.Tracks))
	for i, tr := range s.Tracks {
		out[i] = tr.Gain
	}
	return out
}
