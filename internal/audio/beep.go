package audio

import (
	"fmt"
	"sync"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/speaker"
)

var (
	speakerOnce sync.Once
	speakerErr  error
	speakerRate int
)

func initSpeaker(sampleRate, bufferFrames int) error {
	speakerOnce.Do(func() {
		speakerRate = sampleRate
		sr := beep.SampleRate(sampleRate)
		size := bufferFrames
		if size <= 0 {
			size = sr.N(100 * time.Millisecond)
		}
		speakerErr = speaker.Init(sr, size)
	})
	if speakerErr != nil {
		return speakerErr
	}
	if speakerRate != sampleRate {
		return fmt.Errorf("speaker already initialized at %d Hz (requested %d Hz)", speakerRate, sampleRate)
	}
	return nil
}

// beepStreamer adapts a SampleSource to beep's stereo float64 frames.
type beepStreamer struct {
	source   SampleSource
	channels int
	buf      []float32
}

func (s *beepStreamer) Stream(samples [][2]float64) (int, bool) {
	if finished(s.source) {
		return 0, false
	}
	need := len(samples) * s.channels
	if cap(s.buf) < need {
		s.buf = make([]float32, need)
	}
	s.buf = s.buf[:need]
	s.source.Process(s.buf)
	for i := range samples {
		l := float64(s.buf[i*s.channels])
		r := l
		if s.channels > 1 {
			r = float64(s.buf[i*s.channels+1])
		}
		samples[i] = [2]float64{l, r}
	}
	return len(samples), true
}

func (s *beepStreamer) Err() error { return nil }

type beepPlayer struct {
	ctrl *beep.Ctrl
}

func newBeepPlayer(sampleRate, channels, bufferFrames int, source SampleSource) (Player, error) {
	if err := initSpeaker(sampleRate, bufferFrames); err != nil {
		return nil, deviceErr(KindBeep, "init", err)
	}
	ctrl := &beep.Ctrl{
		Streamer: &beepStreamer{source: source, channels: channels},
		Paused:   true,
	}
	speaker.Play(ctrl)
	return &beepPlayer{ctrl: ctrl}, nil
}

func (p *beepPlayer) setPaused(paused bool) {
	speaker.Lock()
	p.ctrl.Paused = paused
	speaker.Unlock()
}

func (p *beepPlayer) Play()  { p.setPaused(false) }
func (p *beepPlayer) Pause() { p.setPaused(true) }

func (p *beepPlayer) IsPlaying() bool {
	speaker.Lock()
	defer speaker.Unlock()
	return !p.ctrl.Paused && p.ctrl.Streamer != nil
}

func (p *beepPlayer) Err() error { return nil }

func (p *beepPlayer) Stop() error {
	speaker.Lock()
	p.ctrl.Streamer = nil
	speaker.Unlock()
	speaker.Clear()
	return nil
}
