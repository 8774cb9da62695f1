package notation

import (
	"io"
	"math/big"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/cbegin/clidaw-go/internal/score"
)

const DefaultOctave = 4

type key struct {
	name   score.NoteName
	octave int // added to the current octave
}

// Home row is the white keys, top row the black keys.
var keyboard = map[rune]key{
	'a':  {score.C, 0},
	's':  {score.D, 0},
	'd':  {score.E, 0},
	'f':  {score.F, 0},
	'g':  {score.G, 0},
	'h':  {score.A, 0},
	'j':  {score.B, 0},
	'k':  {score.C, 1},
	'l':  {score.D, 1},
	';':  {score.E, 1},
	'\'': {score.F, 1},
	'w':  {score.CSharp, 0},
	'e':  {score.DSharp, 0},
	't':  {score.FSharp, 0},
	'y':  {score.GSharp, 0},
	'u':  {score.ASharp, 0},
	'o':  {score.CSharp, 1},
	'p':  {score.DSharp, 1},
}

// KeyPitch maps a keyboard character to a pitch relative to octave.
func KeyPitch(c rune, octave int) (score.Pitch, bool) {
	k, ok := keyboard[c]
	if !ok {
		return score.Pitch{}, false
	}
	return score.Pitch{Name: k.name, Octave: octave + k.octave}, true
}

// ParsePattern reads a .notes pattern. name is used in error messages.
func ParsePattern(r io.Reader, name string) (*score.Pattern, error) {
	lines, err := readLines(r)
	if err != nil {
		return nil, err
	}
	pat := &score.Pattern{
		TimeSignature: score.DefaultTimeSignature(),
		Octave:        DefaultOctave,
	}
	octave := DefaultOctave
	seenEvents := false
	for _, ln := range lines {
		if k, v, ok := directive(ln.text); ok {
			switch k {
			case "beats":
				beats, err := parseBeats(v)
				if err != nil {
					return nil, errorf(name, ln.num, 0, "beats: %v", err)
				}
				pat.Beats = beats
			case "loop":
				loop, err := parseBool(v)
				if err != nil {
					return nil, errorf(name, ln.num, 0, "loop: %v", err)
				}
				pat.Loop = loop
			case "time_signature":
				ts, err := parseTimeSignature(v)
				if err != nil {
					return nil, errorf(name, ln.num, 0, "time_signature: %v", err)
				}
				pat.TimeSignature = ts
			case "octave":
				o, err := strconv.Atoi(v)
				if err != nil || o < score.MinOctave || o > score.MaxOctave {
					return nil, errorf(name, ln.num, 0, "octave must be %d-%d, got %q", score.MinOctave, score.MaxOctave, v)
				}
				octave = o
				if !seenEvents {
					pat.Octave = o
				}
			default:
				return nil, errorf(name, ln.num, 0, "unknown directive %q", k)
			}
			continue
		}
		events, perr := parseEventLine(ln.text, octave)
		if perr != nil {
			perr.Path, perr.Line = name, ln.num
			return nil, perr
		}
		pat.Events = append(pat.Events, events...)
		seenEvents = true
	}
	return pat, nil
}

// parseEventLine turns one line of keys into events. Columns are 1-based
// byte offsets into text.
func parseEventLine(text string, octave int) ([]score.Event, *ParseError) {
	var events []score.Event
	for i := 0; i < len(text); {
		c := rune(text[i])
		col := i + 1
		switch {
		case c == ' ' || c == '\t' || c == '|' || c == '\r':
			i++
		case c == '-':
			n := 0
			for i < len(text) && text[i] == '-' {
				n++
				i++
			}
			events = append(events, score.Rest(n))
		case c == '_':
			if len(events) == 0 || events[len(events)-1].Type == score.EventRest {
				return nil, &ParseError{Col: col, Msg: "hold '_' must follow a note or chord"}
			}
			last := &events[len(events)-1]
			last.Length = last.Duration() + score.TicksPerBeat
			i++
		case c == '[':
			end := strings.IndexByte(text[i:], ']')
			if end < 0 {
				return nil, &ParseError{Col: col, Msg: "unclosed chord"}
			}
			var pitches []score.Pitch
			for j := i + 1; j < i+end; j++ {
				m := rune(text[j])
				if m == ' ' || m == '\t' {
					continue
				}
				p, ok := KeyPitch(m, octave)
				if !ok {
					return nil, &ParseError{Col: j + 1, Msg: "unknown chord member " + strconv.QuoteRune(m)}
				}
				pitches = append(pitches, p)
			}
			switch len(pitches) {
			case 0:
				return nil, &ParseError{Col: col, Msg: "empty chord"}
			case 1:
				events = append(events, score.Note(pitches[0]))
			default:
				events = append(events, score.Chord(pitches...))
			}
			i += end + 1
		default:
			r, size := utf8.DecodeRuneInString(text[i:])
			p, ok := KeyPitch(r, octave)
			if !ok {
				return nil, &ParseError{Col: col, Msg: "unknown character " + strconv.QuoteRune(r)}
			}
			events = append(events, score.Note(p))
			i += size
		}
	}
	return events, nil
}

// parseBeats accepts integers, decimals and fractions that land exactly on
// the tick grid.
func parseBeats(s string) (score.Tick, error) {
	r, ok := new(big.Rat).SetString(strings.TrimSpace(s))
	if !ok {
		return 0, errInvalid(s)
	}
	if r.Sign() <= 0 {
		return 0, errNotPositive(s)
	}
	ticks := new(big.Rat).Mul(r, big.NewRat(int64(score.TicksPerBeat), 1))
	if !ticks.IsInt() || !ticks.Num().IsInt64() {
		return 0, errOffGrid(s)
	}
	return score.Tick(ticks.Num().Int64()), nil
}

func parseBool(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "yes", "on":
		return true, nil
	case "no", "off":
		return false, nil
	}
	b, err := strconv.ParseBool(s)
	if err != nil {
		return false, errInvalid(s)
	}
	return b, nil
}

func parseTimeSignature(s string) (score.TimeSignature, error) {
	num, den, ok := strings.Cut(s, "/")
	if !ok {
		return score.TimeSignature{}, errInvalid(s)
	}
	n, err1 := strconv.Atoi(strings.TrimSpace(num))
	d, err2 := strconv.Atoi(strings.TrimSpace(den))
	if err1 != nil || err2 != nil || n <= 0 || d <= 0 {
		return score.TimeSignature{}, errInvalid(s)
	}
	return score.TimeSignature{Num: n, Den: d}, nil
}
