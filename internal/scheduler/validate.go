package scheduler

import (
	"errors"
	"math"

	"github.com/cbegin/clidaw-go/internal/score"
)

func validate(song *score.Song, patterns map[string]*score.Pattern, tempo float64) error {
	if tempo <= 0 || math.IsNaN(tempo) || math.IsInf(tempo, 0) {
		return &score.ConfigurationError{Track: -1, Segment: -1, Msg: "tempo must be positive"}
	}
	if len(song.Tracks) == 0 {
		return &score.ConfigurationError{Track: -1, Segment: -1, Msg: "song has no tracks"}
	}
	for ti, tr := range song.Tracks {
		if tr.Instrument == nil {
			return &score.ConfigurationError{Track: ti, Segment: -1, Pattern: tr.InstrumentPath, Msg: "missing instrument"}
		}
		if err := tr.Instrument.Validate(); err != nil {
			return locate(err, ti, -1, tr.InstrumentPath)
		}
		if !(tr.Gain >= 0) || math.IsInf(tr.Gain, 1) {
			return &score.ConfigurationError{Track: ti, Segment: -1, Msg: "track gain must be finite and non-negative"}
		}
		if len(tr.Segments) == 0 {
			return &score.ConfigurationError{Track: ti, Segment: -1, Msg: "track has no segments"}
		}
		for si, seg := range tr.Segments {
			if seg.Repeat < 1 {
				return &score.ConfigurationError{Track: ti, Segment: si, Pattern: seg.Pattern, Msg: "repeat count must be at least 1"}
			}
			pat, ok := patterns[seg.Pattern]
			if !ok || pat == nil {
				return &score.ConfigurationError{Track: ti, Segment: si, Pattern: seg.Pattern, Msg: "pattern not loaded"}
			}
			if err := pat.Validate(); err != nil {
				return locate(err, ti, si, seg.Pattern)
			}
		}
	}
	return nil
}

func locate(err error, track, segment int, pattern string) error {
	var ce *score.ConfigurationError
	if errors.As(err, &ce) {
		return ce.At(track, segment, pattern)
	}
	return err
}
