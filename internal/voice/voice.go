package voice

import "math"

const twoPi = math.Pi * 2

// Voice is one sine oscillator with its own envelope.
type Voice struct {
	group  int
	serial uint64 // start order, used to find the oldest voice
	freq   float64
	phase  float64 // [0, 2π)
	inc    float64
	dt     float64
	env    Envelope
}

// Start (re)initialises the voice and enters Attack.
func (v *Voice) Start(group int, freq float64, adsr ADSR, sampleRate float64) {
	v.group = group
	v.freq = freq
	v.phase = 0
	v.inc = math.Mod(twoPi*freq/sampleRate, twoPi)
	v.dt = 1 / sampleRate
	v.env = NewEnvelope(adsr)
	v.env.Trigger()
}

// Sample advances the oscillator and the envelope by one sample period and
// returns sin(phase) scaled by the envelope.
func (v *Voice) Sample() float64 {
	if v.env.Idle() {
		return 0
	}
	v.phase += v.inc
	if v.phase >= twoPi {
		v.phase -= twoPi
	}
	amp := v.env.Advance(v.dt)
	return math.Sin(v.phase) * amp
}

func (v *Voice) Release()           { v.env.Release() }
func (v *Voice) Idle() bool         { return v.env.Idle() }
func (v *Voice) Stage() Stage       { return v.env.Stage() }
func (v *Voice) Level() float64     { return v.env.Level() }
func (v *Voice) Group() int         { return v.group }
func (v *Voice) Frequency() float64 { return v.freq }
func (v *Voice) Phase() float64     { return v.phase }
