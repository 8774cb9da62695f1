package clidaw

import (
	"errors"
	"sync"
	"sync/atomic"
	"time"

	intaudio "github.com/cbegin/clidaw-go/internal/audio"
	intengine "github.com/cbegin/clidaw-go/internal/engine"
	intsched "github.com/cbegin/clidaw-go/internal/scheduler"
)

type EventKind int

const (
	EventPlaybackEnded EventKind = iota
	EventStopped
)

func (k EventKind) String() string {
	if k == EventStopped {
		return "stopped"
	}
	return "playback-ended"
}

// PlaybackEvent is delivered on the channel returned by Watch.
type PlaybackEvent struct {
	Kind     EventKind
	Position time.Duration
}

type PlayerOption func(*playerConfig)

type playerConfig struct {
	backend      intaudio.Kind
	params       Params
	bufferFrames int
	sampleTap    func([]float32)
	schedOpts    []intsched.Option
}

func defaultPlayerConfig() playerConfig {
	return playerConfig{backend: intaudio.KindEbiten, params: intengine.DefaultParams()}
}

func WithBackend(kind intaudio.Kind) PlayerOption {
	return func(cfg *playerConfig) {
		cfg.backend = kind
	}
}

func WithParams(params Params) PlayerOption {
	return func(cfg *playerConfig) {
		cfg.params = params
	}
}

// WithBufferFrames sets the device buffer size in frames.
func WithBufferFrames(n int) PlayerOption {
	return func(cfg *playerConfig) {
		cfg.bufferFrames = n
	}
}

// WithSampleTap installs a callback invoked with each generated buffer.
// The callback runs on the audio thread; keep work brief and non-blocking.
func WithSampleTap(tap func([]float32)) PlayerOption {
	return func(cfg *playerConfig) {
		cfg.sampleTap = tap
	}
}

// WithScheduleOptions passes tempo and transpose overrides to every Play.
func WithScheduleOptions(opts ...intsched.Option) PlayerOption {
	return func(cfg *playerConfig) {
		cfg.schedOpts = append(cfg.schedOpts, opts...)
	}
}

type Player struct {
	mu         sync.Mutex
	sampleRate int
	cfg        playerConfig
	cur        *session

	// Loaded on the audio thread when playback ends, so it is not guarded by mu.
	eventCh atomic.Pointer[chan PlaybackEvent]
}

// openDevice is replaced in tests.
var openDevice = intaudio.Open

// session is one Play call: an engine, the device pulling from it, and the
// channel closed when it ends.
type session struct {
	engine    *intengine.Engine
	out       intaudio.Player
	tap       func([]float32)
	done      chan struct{}
	endOnce   sync.Once
	closeOnce sync.Once
	closeErr  error
}

func (s *session) Process(dst []float32) {
	s.engine.Process(dst)
	if s.tap != nil {
		s.tap(dst)
	}
}

func (s *session) Finished() bool {
	return s.engine.Finished()
}

// closeDevice stops the device stream once; later calls return the first
// result.
func (s *session) closeDevice() error {
	s.closeOnce.Do(func() {
		s.closeErr = s.out.Stop()
	})
	return s.closeErr
}

func NewPlayer(sampleRate int, opts ...PlayerOption) (*Player, error) {
	if sampleRate <= 0 {
		return nil, errors.New("sampleRate must be positive")
	}
	cfg := defaultPlayerConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if _, err := intaudio.ParseKind(string(cfg.backend)); err != nil {
		return nil, err
	}
	return &Player{sampleRate: sampleRate, cfg: cfg}, nil
}

// Play schedules the song and starts it, replacing any current playback.
// Schedule errors are returned before the device is touched.
func (p *Player) Play(song *Song, patterns map[string]*Pattern) error {
	sched, err := ComputeSchedule(song, patterns, p.cfg.schedOpts...)
	if err != nil {
		return err
	}

	s := &session{tap: p.cfg.sampleTap, done: make(chan struct{})}
	eng, err := CreateEngine(sched, song, p.sampleRate, p.cfg.params,
		intengine.WithEventHandler(func(kind intengine.EventKind) {
			ev := EventPlaybackEnded
			if kind == intengine.EventStopped {
				ev = EventStopped
			}
			p.end(s, ev)
		}))
	if err != nil {
		return err
	}
	s.engine = eng

	out, err := openDevice(p.cfg.backend, p.sampleRate, eng.Channels(), p.cfg.bufferFrames, s)
	if err != nil {
		return err
	}
	s.out = out

	p.mu.Lock()
	prev := p.cur
	p.cur = s
	p.mu.Unlock()
	if prev != nil {
		_ = p.halt(prev)
	}
	out.Play()
	return nil
}

// end runs once per session, usually on the audio thread. The device is
// released from a separate goroutine since a backend may wait for its own
// pull loop to return.
func (p *Player) end(s *session, kind EventKind) {
	s.endOnce.Do(func() {
		p.sendEvent(PlaybackEvent{Kind: kind, Position: p.position(s)})
		close(s.done)
		go s.closeDevice()
	})
}

func (p *Player) sendEvent(ev PlaybackEvent) {
	ch := p.eventCh.Load()
	if ch == nil {
		return
	}
	select {
	case *ch <- ev:
	default:
		// Channel full; drop event
	}
}

func (p *Player) current() *session {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cur
}

// Stop asks the current playback to release every note and end once the
// release tails have finished. Use Wait to block until then.
func (p *Player) Stop() {
	if s := p.current(); s != nil {
		s.engine.RequestStop(false)
	}
}

// Halt silences the current playback immediately and closes the device.
func (p *Player) Halt() error {
	p.mu.Lock()
	s := p.cur
	p.cur = nil
	p.mu.Unlock()
	if s == nil {
		return nil
	}
	return p.halt(s)
}

func (p *Player) halt(s *session) error {
	s.engine.RequestStop(true)
	err := s.closeDevice()
	p.end(s, EventStopped)
	return err
}

// Close halts any playback and releases the device.
func (p *Player) Close() error {
	return p.Halt()
}

// Wait blocks until the current playback ends, whether it ran to completion
// or was stopped. It returns immediately if nothing is playing. The device
// stream is released in the background once playback ends.
func (p *Player) Wait() {
	if s := p.current(); s != nil {
		<-s.done
	}
}

func (p *Player) Pause() {
	if s := p.current(); s != nil {
		s.out.Pause()
	}
}

func (p *Player) Resume() {
	if s := p.current(); s != nil {
		s.out.Play()
	}
}

// Watch returns a channel that receives playback events:
//   - EventPlaybackEnded: every note and release tail has finished
//   - EventStopped: playback ended because of Stop, Halt or a new Play
//
// The channel is buffered (cap 8) and events are dropped when it is full.
// Only the most recent Watch() channel receives events; call Watch before Play.
func (p *Player) Watch() <-chan PlaybackEvent {
	ch := make(chan PlaybackEvent, 8)
	p.eventCh.Store(&ch)
	return ch
}

// Position is how much audio the engine has produced for the current
// playback. The device may lag behind by its buffer size.
func (p *Player) Position() time.Duration {
	return p.position(p.current())
}

func (p *Player) position(s *session) time.Duration {
	if s == nil || s.engine == nil {
		return 0
	}
	return time.Duration(s.engine.Position()) * time.Second / time.Duration(p.sampleRate)
}

// Err reports an asynchronous device error for the current playback.
func (p *Player) Err() error {
	if s := p.current(); s != nil {
		return s.out.Err()
	}
	return nil
}
