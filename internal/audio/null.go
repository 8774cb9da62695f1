package audio

import "sync"

const defaultNullFrames = 1024

// nullPlayer pulls from the source as fast as it can and discards the
// samples. It is used for headless runs and tests.
type nullPlayer struct {
	source   SampleSource
	buf      []float32
	mu       sync.Mutex
	playing  bool
	stopped  bool
	wake     chan struct{}
	done     chan struct{}
	stopOnce sync.Once
}

func newNullPlayer(channels, bufferFrames int, source SampleSource) *nullPlayer {
	if bufferFrames <= 0 {
		bufferFrames = defaultNullFrames
	}
	p := &nullPlayer{
		source: source,
		buf:    make([]float32, bufferFrames*channels),
		wake:   make(chan struct{}, 1),
		done:   make(chan struct{}),
	}
	go p.loop()
	return p
}

func (p *nullPlayer) loop() {
	defer close(p.done)
	for {
		p.mu.Lock()
		playing, stopped := p.playing, p.stopped
		p.mu.Unlock()
		if stopped || finished(p.source) {
			p.mu.Lock()
			p.playing = false
			p.mu.Unlock()
			return
		}
		if !playing {
			<-p.wake
			continue
		}
		p.source.Process(p.buf)
	}
}

func (p *nullPlayer) signal() {
	select {
	case p.wake <- struct{}{}:
	default:
	}
}

func (p *nullPlayer) Play() {
	p.mu.Lock()
	p.playing = !p.stopped
	p.mu.Unlock()
	p.signal()
}

func (p *nullPlayer) Pause() {
	p.mu.Lock()
	p.playing = false
	p.mu.Unlock()
}

func (p *nullPlayer) IsPlaying() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.playing
}

func (p *nullPlayer) Err() error { return nil }

func (p *nullPlayer) Stop() error {
	p.stopOnce.Do(func() {
		p.mu.Lock()
		p.stopped = true
		p.playing = false
		p.mu.Unlock()
		p.signal()
		<-p.done
	})
	return nil
}
