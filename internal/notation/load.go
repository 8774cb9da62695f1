package notation

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/Southclaws/fault"
	"github.com/Southclaws/fault/fmsg"
	"github.com/Southclaws/fault/ftag"

	"github.com/cbegin/clidaw-go/internal/score"
)

const (
	ExtPattern    = ".notes"
	ExtInstrument = ".instr"
	ExtSong       = ".song"
)

func open(path, what string) (*os.File, error) {
	f, err := os.Open(path)
	if err == nil {
		return f, nil
	}
	kind := ftag.Internal
	if errors.Is(err, fs.ErrNotExist) {
		kind = ftag.NotFound
	}
	return nil, fault.Wrap(err,
		fmsg.WithDesc("open "+what, "Could not open "+what+" file "+path),
		ftag.With(kind),
	)
}

func LoadPattern(path string) (*score.Pattern, error) {
	f, err := open(path, "pattern")
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ParsePattern(f, path)
}

func LoadInstrument(path string) (score.Instrument, error) {
	f, err := open(path, "instrument")
	if err != nil {
		return score.Instrument{}, err
	}
	defer f.Close()
	return ParseInstrument(f, path)
}

// LoadSong parses a .song file without loading what it references.
func LoadSong(path string) (*score.Song, error) {
	f, err := open(path, "song")
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ParseSong(f, path, filepath.Dir(path))
}

// LoadProject loads a song together with every instrument and pattern it
// references. Each distinct file is read once; patterns are keyed by their
// resolved path, which is also what the song's segments refer to.
func LoadProject(songPath string) (*score.Song, map[string]*score.Pattern, error) {
	song, err := LoadSong(songPath)
	if err != nil {
		return nil, nil, err
	}
	instruments := map[string]*score.Instrument{}
	patterns := map[string]*score.Pattern{}
	for i := range song.Tracks {
		tr := &song.Tracks[i]
		in, ok := instruments[tr.InstrumentPath]
		if !ok {
			loaded, err := LoadInstrument(tr.InstrumentPath)
			if err != nil {
				return nil, nil, fault.Wrap(err, fmsg.With("track "+tr.Name))
			}
			in = &loaded
			instruments[tr.InstrumentPath] = in
		}
		inCopy := *in
		tr.Instrument = &inCopy
		for _, seg := range tr.Segments {
			if _, ok := patterns[seg.Pattern]; ok {
				continue
			}
			pat, err := LoadPattern(seg.Pattern)
			if err != nil {
				return nil, nil, fault.Wrap(err, fmsg.With("track "+tr.Name))
			}
			patterns[seg.Pattern] = pat
		}
	}
	return song, patterns, nil
}

// SinglePatternSong wraps one pattern as a one-track song under key.
func SinglePatternSong(pat *score.Pattern, key string, instrument score.Instrument, tempo float64, repeat int) (*score.Song, map[string]*score.Pattern) {
	if tempo <= 0 {
		tempo = DefaultTempo
	}
	if repeat < 1 {
		repeat = 1
	}
	song := &score.Song{
		Tempo:         tempo,
		TimeSignature: pat.TimeSignature,
		Tracks: []score.Track{{
			Name:       trackName(key),
			Instrument: &instrument,
			Segments:   []score.Segment{{Pattern: key, Repeat: repeat}},
		}},
	}
	return song, map[string]*score.Pattern{key: pat}
}
