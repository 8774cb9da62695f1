// Package clidaw plays text-notated songs: patterns of notes and chords are
// scheduled onto tracks, voiced with ADSR sine voices and mixed to an audio
// device or rendered offline.
package clidaw

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/cbegin/clidaw-go/internal/engine"
	"github.com/cbegin/clidaw-go/internal/notation"
	"github.com/cbegin/clidaw-go/internal/scheduler"
	"github.com/cbegin/clidaw-go/internal/score"
)

type (
	Song       = score.Song
	Pattern    = score.Pattern
	Instrument = score.Instrument
	Schedule   = scheduler.Schedule
	Engine     = engine.Engine
	Params     = engine.Params
)

// ComputeSchedule validates the song and expands it into a sorted command
// list. It fails with a *score.ConfigurationError on bad input.
func ComputeSchedule(song *Song, patterns map[string]*Pattern, opts ...scheduler.Option) (*Schedule, error) {
	return scheduler.Build(song, patterns, opts...)
}

// CreateEngine prepares an engine for sched using the song's instruments.
// Track gains from the song apply unless params sets its own.
func CreateEngine(sched *Schedule, song *Song, sampleRate int, params Params, opts ...engine.Option) (*Engine, error) {
	if params.TrackGains == nil {
		params.TrackGains = song.Gains()
	}
	return engine.New(sched, song.Instruments(), sampleRate, params, opts...)
}

// Load reads a .song project or a lone .notes pattern. A pattern is wrapped
// as a one-track song with the default instrument and tempo.
func Load(path string) (*Song, map[string]*Pattern, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case notation.ExtSong:
		return notation.LoadProject(path)
	case notation.ExtPattern:
		pat, err := notation.LoadPattern(path)
		if err != nil {
			return nil, nil, err
		}
		song, patterns := notation.SinglePatternSong(pat, path, score.DefaultInstrument(), notation.DefaultTempo, 1)
		return song, patterns, nil
	default:
		return nil, nil, fmt.Errorf("unsupported file type %q (want %s or %s)", filepath.Ext(path), notation.ExtSong, notation.ExtPattern)
	}
}
