package engine

import (
	"fmt"
	"math"
	"sync/atomic"

	"github.com/cwbudde/algo-dsp/dsp/core"
	"github.com/viterin/vek"

	"github.com/cbegin/clidaw-go/internal/scheduler"
	"github.com/cbegin/clidaw-go/internal/score"
	"github.com/cbegin/clidaw-go/internal/voice"
)

// EventKind identifies engine lifecycle events.
type EventKind int

const (
	// EventPlaybackEnded fires when every command has been consumed and the
	// last release tail has finished.
	EventPlaybackEnded EventKind = iota
	// EventStopped fires instead of EventPlaybackEnded when playback ended
	// because of RequestStop.
	EventStopped
)

func (k EventKind) String() string {
	switch k {
	case EventPlaybackEnded:
		return "playback-ended"
	case EventStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

const (
	DefaultChannels    = 2
	DefaultMasterGain  = 0.3
	DefaultBlockFrames = 512
)

// Params controls mixing. Zero values are replaced by defaults.
type Params struct {
	Channels   int
	Polyphony  int
	MasterGain float64
	// TrackGains[i] scales track i. Missing or zero entries use 1/numTracks.
	TrackGains []float64
}

func DefaultParams() Params {
	return Params{
		Channels:   DefaultChannels,
		Polyphony:  voice.DefaultPolyphony,
		MasterGain: DefaultMasterGain,
	}
}

type Option func(*Engine)

// WithEventHandler registers fn for lifecycle events. It runs on the audio
// goroutine and must not block.
func WithEventHandler(fn func(EventKind)) Option {
	return func(e *Engine) { e.onEvent = fn }
}

// WithBlockFrames sets the size of the internal mixing block.
func WithBlockFrames(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.blockFrames = n
		}
	}
}

const (
	stopNone int32 = iota
	stopGraceful
	stopHard
)

// Engine turns a schedule into interleaved float32 samples. Fill and Process
// must be called from a single goroutine; RequestStop, Finished, Position and
// Elapsed may be called from any goroutine.
type Engine struct {
	commands    []scheduler.Command
	frames      []int64 // sample index of each command
	next        int
	endFrame    int64
	pools       []*voice.Pool
	gains       []float64
	master      float64
	channels    int
	sampleRate  int
	blockFrames int
	mix         []float64
	track       []float64
	frame       int64
	stopping    bool
	ended       bool
	onEvent     func(EventKind)

	stop     atomic.Int32
	finished atomic.Bool
	position atomic.Int64
}

// New prepares an engine for sched. instruments[i] is used by track i. All
// buffers are allocated here so rendering never allocates.
func New(sched *scheduler.Schedule, instruments []score.Instrument, sampleRate int, params Params, opts ...Option) (*Engine, error) {
	if sched == nil {
		return nil, fmt.Errorf("engine: nil schedule")
	}
	if sampleRate <= 0 {
		return nil, fmt.Errorf("engine: invalid sample rate %d", sampleRate)
	}
	if len(instruments) != sched.Tracks {
		return nil, fmt.Errorf("engine: %d instruments for %d tracks", len(instruments), sched.Tracks)
	}
	def := DefaultParams()
	if params.Channels <= 0 {
		params.Channels = def.Channels
	}
	if params.Polyphony <= 0 {
		params.Polyphony = def.Polyphony
	}
	if params.MasterGain <= 0 {
		params.MasterGain = def.MasterGain
	}

	e := &Engine{
		commands:    sched.Commands,
		frames:      make([]int64, len(sched.Commands)),
		endFrame:    secondsToFrame(sched.Duration(), sampleRate),
		pools:       make([]*voice.Pool, sched.Tracks),
		gains:       make([]float64, sched.Tracks),
		master:      params.MasterGain,
		channels:    params.Channels,
		sampleRate:  sampleRate,
		blockFrames: DefaultBlockFrames,
	}
	for _, opt := range opts {
		opt(e)
	}
	for i, c := range sched.Commands {
		if c.Track < 0 || c.Track >= sched.Tracks {
			return nil, fmt.Errorf("engine: command %d targets track %d of %d", i, c.Track, sched.Tracks)
		}
		e.frames[i] = secondsToFrame(c.Time, sampleRate)
	}
	equal := 1.0
	if sched.Tracks > 0 {
		equal = 1 / float64(sched.Tracks)
	}
	for i, inst := range instruments {
		e.pools[i] = voice.NewPool(voice.ADSR{
			Attack:  inst.Attack,
			Decay:   inst.Decay,
			Sustain: inst.Sustain,
			Release: inst.Release,
		}, float64(sampleRate), params.Polyphony)
		e.gains[i] = equal
		if i < len(params.TrackGains) && params.TrackGains[i] > 0 {
			e.gains[i] = params.TrackGains[i]
		}
	}
	e.mix = make([]float64, e.blockFrames)
	e.track = make([]float64, e.blockFrames)
	return e, nil
}

func secondsToFrame(sec float64, sampleRate int) int64 {
	return int64(math.Round(sec * float64(sampleRate)))
}

func (e *Engine) SampleRate() int { return e.sampleRate }
func (e *Engine) Channels() int   { return e.channels }

// Finished reports whether the stream has ended.
func (e *Engine) Finished() bool { return e.finished.Load() }

// Position is the number of frames emitted so far.
func (e *Engine) Position() int64 { return e.position.Load() }

// Elapsed is Position in seconds.
func (e *Engine) Elapsed() float64 {
	return float64(e.position.Load()) / float64(e.sampleRate)
}

// RequestStop asks the engine to end playback. A graceful stop releases every
// voice and lets the tails ring out; a hard stop silences output at the next
// buffer. Only the first request counts unless a hard stop follows a graceful
// one.
func (e *Engine) RequestStop(hard bool) {
	if hard {
		e.stop.Store(stopHard)
		return
	}
	e.stop.CompareAndSwap(stopNone, stopGraceful)
}

// ActiveVoices counts sounding voices across all tracks. Audio goroutine only.
func (e *Engine) ActiveVoices() int {
	n := 0
	for _, p := range e.pools {
		n += p.Active()
	}
	return n
}

// Process fills dst, writing silence after the end of the stream.
func (e *Engine) Process(dst []float32) {
	e.Fill(dst)
}

// Fill writes interleaved samples into dst and returns how many were written
// before the end of the stream. The rest of dst is zeroed.
func (e *Engine) Fill(dst []float32) int {
	if e.ended {
		clear(dst)
		return 0
	}
	switch e.stop.Load() {
	case stopHard:
		e.finish(EventStopped)
		clear(dst)
		return 0
	case stopGraceful:
		if !e.stopping {
			e.stopping = true
			e.next = len(e.commands)
			e.endFrame = e.frame
			for _, p := range e.pools {
				p.ReleaseAll()
			}
		}
	}

	frames := len(dst) / e.channels
	done := 0
	for done < frames && !e.ended {
		n := min(frames-done, e.blockFrames)
		done += e.renderBlock(dst[done*e.channels:], n)
	}
	written := done * e.channels
	clear(dst[written:])
	e.position.Store(e.frame)
	return written
}

// renderBlock mixes up to n frames into out and returns how many it produced.
// Commands are applied at the exact frame they fall on by splitting the block
// at each command boundary.
func (e *Engine) renderBlock(out []float32, n int) int {
	f := 0
	for f < n {
		e.applyDue()
		if e.next >= len(e.commands) && e.frame >= e.endFrame && e.ActiveVoices() == 0 {
			if e.stopping {
				e.finish(EventStopped)
			} else {
				e.finish(EventPlaybackEnded)
			}
			break
		}
		seg := n - f
		if e.next < len(e.commands) {
			seg = min(seg, int(e.frames[e.next]-e.frame))
		} else if e.frame < e.endFrame {
			seg = min(seg, int(e.endFrame-e.frame))
		}
		e.mixSegment(e.mix[f:f+seg], e.track[:seg])
		f += seg
		e.frame += int64(seg)
	}

	for i := 0; i < f; i++ {
		s := float32(core.Clamp(e.mix[i]*e.master, -1, 1))
		base := i * e.channels
		for c := 0; c < e.channels; c++ {
			out[base+c] = s
		}
	}
	return f
}

func (e *Engine) applyDue() {
	for e.next < len(e.commands) && e.frames[e.next] <= e.frame {
		c := &e.commands[e.next]
		pool := e.pools[c.Track]
		if c.Kind == scheduler.NoteOn {
			pool.NoteOn(c.Group, c.Frequency)
		} else {
			pool.NoteOff(c.Group)
		}
		e.next++
	}
}

func (e *Engine) mixSegment(mix, scratch []float64) {
	vek.Zeros_Into(mix, len(mix))
	for t, pool := range e.pools {
		if pool.Active() == 0 {
			continue
		}
		pool.Render(scratch)
		vek.MulNumber_Inplace(scratch, e.gains[t])
		vek.Add_Inplace(mix, scratch)
	}
}

func (e *Engine) finish(kind EventKind) {
	if e.ended {
		return
	}
	e.ended = true
	for _, p := range e.pools {
		p.Reset()
	}
	e.position.Store(e.frame)
	e.finished.Store(true)
	if e.onEvent != nil {
		e.onEvent(kind)
	}
}
