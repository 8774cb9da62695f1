package clidaw

import (
	"fmt"
	"math"

	intengine "github.com/cbegin/clidaw-go/internal/engine"
)

const renderChunkFrames = 4096

// RenderSamples renders the first seconds of sched with default mixing.
// The result always holds exactly seconds worth of frames; anything after
// the end of the song is silence.
func RenderSamples(sched *Schedule, song *Song, sampleRate int, seconds float64) ([]float32, error) {
	if !(seconds >= 0) || math.IsInf(seconds, 1) {
		return nil, fmt.Errorf("render length %v must be finite and not negative", seconds)
	}
	eng, err := CreateEngine(sched, song, sampleRate, intengine.DefaultParams())
	if err != nil {
		return nil, err
	}
	frames := int(float64(sampleRate) * seconds)
	out := make([]float32, frames*eng.Channels())
	eng.Fill(out)
	return out, nil
}

// RenderAll renders sched until every note and release tail has finished.
func RenderAll(sched *Schedule, song *Song, sampleRate int) ([]float32, error) {
	eng, err := CreateEngine(sched, song, sampleRate, intengine.DefaultParams())
	if err != nil {
		return nil, err
	}
	buf := make([]float32, renderChunkFrames*eng.Channels())
	var out []float32
	for !eng.Finished() {
		n := eng.Fill(buf)
		out = append(out, buf[:n]...)
	}
	return out, nil
}
