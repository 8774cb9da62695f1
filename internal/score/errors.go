package score

import (
	"errors"
	"strconv"
	"strings"
)

// ErrConfiguration is matched by every ConfigurationError via errors.Is.
var ErrConfiguration = errors.New("configuration error")

// ConfigurationError reports inconsistent song or pattern data. Track and
// Segment are -1 when the error is not tied to one.
type ConfigurationError struct {
	Track   int
	Segment int
	Pattern string
	Msg     string
}

func (e *ConfigurationError) Error() string {
	var b strings.Builder
	b.WriteString("configuration error")
	if e.Track >= 0 {
		b.WriteString(": track ")
		b.WriteString(strconv.Itoa(e.Track))
	}
	if e.Segment >= 0 {
		b.WriteString(" segment ")
		b.WriteString(strconv.Itoa(e.Segment))
	}
	if e.Pattern != "" {
		b.WriteString(" (")
		b.WriteString(e.Pattern)
		b.WriteString(")")
	}
	b.WriteString(": ")
	b.WriteString(e.Msg)
	return b.String()
}

func (e *ConfigurationError) Is(target error) bool {
	return target == ErrConfiguration
}

// At returns a copy of e located at the given track, segment and pattern.
func (e *ConfigurationError) At(track, segment int, pattern string) *ConfigurationError {
	out := *e
	out.Track = track
	out.Segment = segment
	out.Pattern = pattern
	return &out
}

func validateEvent(ev Event) error {
	switch ev.Type {
	case EventNote:
		if len(ev.Pitches) != 1 {
			return errors.New("note must have exactly one pitch")
		}
	case EventChord:
		if len(ev.Pitches) < 2 {
			return errors.New("chord needs at least two pitches")
		}
	case EventRest:
		if len(ev.Pitches) != 0 {
			return errors.New("rest cannot carry pitches")
		}
		if ev.Length <= 0 {
			return errors.New("rest must have a positive length")
		}
	default:
		return errors.New("unknown event type")
	}
	if ev.Length < 0 {
		return errors.New("negative event length")
	}
	return nil
}

func itoa(n int) string { return strconv.Itoa(n) }

func formatBeats(t Tick) string {
	return strconv.FormatFloat(t.InBeats(), 'f', -1, 64)
}
