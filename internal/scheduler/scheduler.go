package scheduler

import (
	"cmp"
	"slices"

	"github.com/cbegin/clidaw-go/internal/score"
)

type CommandKind int

// NoteOff sorts before NoteOn so a note ending exactly where the next one
// starts on the same track is released first.
const (
	NoteOff CommandKind = iota
	NoteOn
)

func (k CommandKind) String() string {
	if k == NoteOn {
		return "on"
	}
	return "off"
}

// Command is one timestamped instruction for the audio engine.
type Command struct {
	Tick      score.Tick
	Time      float64 // seconds from song start
	Track     int
	Kind      CommandKind
	Frequency float64 // NoteOn only
	Group     int
}

// Schedule is the globally ordered command sequence for one song. It is
// built once and only read afterwards.
type Schedule struct {
	Commands []Command
	Tracks   int
	Tempo    float64
	Length   score.Tick // length of the longest track
}

func (s *Schedule) Len() int { return len(s.Commands) }

// Seconds converts exact ticks to seconds at the schedule tempo.
func (s *Schedule) Seconds(t score.Tick) float64 {
	return tickSeconds(t, s.Tempo)
}

// Duration is the song length in seconds, not counting release tails.
func (s *Schedule) Duration() float64 {
	return s.Seconds(s.Length)
}

// tickSeconds divides once so whole and half beats land on exact seconds.
func tickSeconds(t score.Tick, tempo float64) float64 {
	return float64(t) * 60 / (tempo * float64(score.TicksPerBeat))
}

type Option func(*options)

type options struct {
	tempo     float64
	transpose int
}

// WithTempo overrides the song tempo. Values <= 0 are ignored.
func WithTempo(bpm float64) Option {
	return func(o *options) {
		if bpm > 0 {
			o.tempo = bpm
		}
	}
}

// WithTranspose shifts every pitch by whole octaves.
func WithTranspose(octaves int) Option {
	return func(o *options) {
		o.transpose = octaves
	}
}

// Build expands the song into a single sorted command sequence. It either
// returns a complete schedule or a *score.ConfigurationError; nothing is
// built from partially valid input.
func Build(song *score.Song, patterns map[string]*score.Pattern, opts ...Option) (*Schedule, error) {
	o := options{tempo: song.Tempo}
	for _, opt := range opts {
		opt(&o)
	}
	if err := validate(song, patterns, o.tempo); err != nil {
		return nil, err
	}

	sched := &Schedule{
		Tracks: len(song.Tracks),
		Tempo:  o.tempo,
	}
	b := builder{tempo: o.tempo, transpose: o.transpose}
	for trackIdx, tr := range song.Tracks {
		var cursor score.Tick
		for _, seg := range tr.Segments {
			pat := patterns[seg.Pattern]
			for rep := 0; rep < seg.Repeat; rep++ {
				b.emitPattern(trackIdx, cursor, pat)
				cursor += pat.Length()
			}
		}
		if cursor > sched.Length {
			sched.Length = cursor
		}
	}
	sched.Commands = b.commands
	slices.SortStableFunc(sched.Commands, compareCommands)
	return sched, nil
}

type builder struct {
	commands  []Command
	nextGroup int
	tempo     float64
	transpose int
}

func (b *builder) emitPattern(track int, start score.Tick, pat *score.Pattern) {
	patEnd := start + pat.Length()
	onset := start
	for i, ev := range pat.Events {
		dur := ev.Duration()
		if ev.Type != score.EventRest {
			next := patEnd
			if i+1 < len(pat.Events) {
				next = onset + dur
			}
			end := min(onset+dur, next)
			for _, p := range ev.Pitches {
				group := b.nextGroup
				b.nextGroup++
				b.push(Command{
					Tick:      onset,
					Track:     track,
					Kind:      NoteOn,
					Frequency: p.Transpose(b.transpose).Frequency(),
					Group:     group,
				})
				b.push(Command{
					Tick:  end,
					Track: track,
					Kind:  NoteOff,
					Group: group,
				})
			}
		}
		onset += dur
	}
}

func (b *builder) push(c Command) {
	c.Time = tickSeconds(c.Tick, b.tempo)
	b.commands = append(b.commands, c)
}

func compareCommands(a, b Command) int {
	switch {
	case a.Tick != b.Tick:
		return cmp.Compare(a.Tick, b.Tick)
	case a.Track != b.Track:
		return a.Track - b.Track
	default:
		return int(a.Kind) - int(b.Kind)
	}
}
