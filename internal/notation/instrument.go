package notation

import (
	"io"
	"math"
	"strconv"

	"github.com/cbegin/clidaw-go/internal/score"
)

// ParseInstrument reads an .instr file. Missing keys keep their defaults and
// sustain is clamped to [0, 1].
func ParseInstrument(r io.Reader, name string) (score.Instrument, error) {
	in := score.DefaultInstrument()
	lines, err := readLines(r)
	if err != nil {
		return in, err
	}
	for _, ln := range lines {
		k, v, ok := directive(ln.text)
		if !ok {
			return in, errorf(name, ln.num, 0, "expected key: value")
		}
		f, err := strconv.ParseFloat(v, 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return in, errorf(name, ln.num, 0, "%s: %v", k, errInvalid(v))
		}
		switch k {
		case "attack":
			in.Attack = f
		case "decay":
			in.Decay = f
		case "sustain":
			in.Sustain = min(max(f, 0), 1)
			continue
		case "release":
			in.Release = f
		default:
			return in, errorf(name, ln.num, 0, "unknown key %q", k)
		}
		if f < 0 {
			return in, errorf(name, ln.num, 0, "%s: %v", k, errNegative(v))
		}
	}
	return in, nil
}
