package notation

import (
	"io"
	"math"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/cbegin/clidaw-go/internal/score"
)

const DefaultTempo = 120

// ParseSong reads a .song file. Instrument and pattern paths are resolved
// against dir; instruments are left unloaded (Track.Instrument is nil).
func ParseSong(r io.Reader, name, dir string) (*score.Song, error) {
	lines, err := readLines(r)
	if err != nil {
		return nil, err
	}
	song := &score.Song{
		Tempo:         DefaultTempo,
		TimeSignature: score.DefaultTimeSignature(),
	}
	var cur *score.Track
	flush := func() {
		// An instrument block without sequence lines contributes nothing.
		if cur != nil && len(cur.Segments) > 0 {
			song.Tracks = append(song.Tracks, *cur)
		}
		cur = nil
	}
	for _, ln := range lines {
		if k, v, ok := directive(ln.text); ok {
			switch k {
			case "tempo":
				t, err := strconv.ParseFloat(v, 64)
				if err != nil || t <= 0 || math.IsInf(t, 0) || math.IsNaN(t) {
					return nil, errorf(name, ln.num, 0, "tempo: %v", errNotPositive(v))
				}
				song.Tempo = t
			case "time_signature":
				ts, err := parseTimeSignature(v)
				if err != nil {
					return nil, errorf(name, ln.num, 0, "time_signature: %v", err)
				}
				song.TimeSignature = ts
			case "instrument":
				if v == "" {
					return nil, errorf(name, ln.num, 0, "instrument: missing path")
				}
				flush()
				path := resolve(dir, v)
				cur = &score.Track{Name: trackName(path), InstrumentPath: path}
			case "gain":
				if cur == nil {
					return nil, errorf(name, ln.num, 0, "gain before any instrument")
				}
				g, err := strconv.ParseFloat(v, 64)
				if err != nil || g < 0 || math.IsInf(g, 0) || math.IsNaN(g) {
					return nil, errorf(name, ln.num, 0, "gain: %v", errNegative(v))
				}
				cur.Gain = g
			default:
				return nil, errorf(name, ln.num, 0, "unknown directive %q", k)
			}
			continue
		}
		seg, err := parseSequenceLine(ln.text)
		if err != nil {
			return nil, errorf(name, ln.num, 0, "%v", err)
		}
		if cur == nil {
			return nil, errorf(name, ln.num, 0, "sequence line %q before any instrument", strings.TrimSpace(ln.text))
		}
		seg.Pattern = resolve(dir, seg.Pattern)
		cur.Segments = append(cur.Segments, seg)
	}
	flush()
	if len(song.Tracks) == 0 {
		return nil, errorf(name, 0, 0, "song has no tracks (need 'instrument:' followed by pattern lines)")
	}
	return song, nil
}

// parseSequenceLine reads "path" or "path * N".
func parseSequenceLine(text string) (score.Segment, error) {
	path, times, hasTimes := strings.Cut(text, "*")
	path = strings.TrimSpace(path)
	if path == "" {
		return score.Segment{}, errInvalid(strings.TrimSpace(text))
	}
	seg := score.Segment{Pattern: path, Repeat: 1}
	if hasTimes {
		n, err := strconv.Atoi(strings.TrimSpace(times))
		if err != nil {
			return seg, errInvalid(strings.TrimSpace(times))
		}
		if n < 1 {
			return seg, errNotPositive(strings.TrimSpace(times))
		}
		seg.Repeat = n
	}
	return seg, nil
}

func resolve(dir, p string) string {
	if filepath.IsAbs(p) || dir == "" {
		return filepath.Clean(p)
	}
	return filepath.Join(dir, p)
}

func trackName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
