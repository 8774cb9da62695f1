package audio

import (
	"fmt"
	"sync"
	"time"

	ebitaudio "github.com/hajimehoshi/ebiten/v2/audio"
)

type ebitenPlayer struct {
	player *ebitaudio.Player
	reader *StreamReader
}

var (
	audioContextOnce sync.Once
	audioContext     *ebitaudio.Context
	audioSampleRate  int
)

// ebiten allows one audio context per process.
func sharedAudioContext(sampleRate int) (*ebitaudio.Context, error) {
	audioContextOnce.Do(func() {
		audioSampleRate = sampleRate
		audioContext = ebitaudio.NewContext(sampleRate)
	})
	if audioSampleRate != sampleRate {
		return nil, fmt.Errorf("audio context already initialized at %d Hz (requested %d Hz)", audioSampleRate, sampleRate)
	}
	return audioContext, nil
}

func newEbitenPlayer(sampleRate, channels, bufferFrames int, source SampleSource) (Player, error) {
	if channels != 2 {
		return nil, deviceErr(KindEbiten, "open", fmt.Errorf("ebiten needs 2 channels, got %d", channels))
	}
	ctx, err := sharedAudioContext(sampleRate)
	if err != nil {
		return nil, deviceErr(KindEbiten, "context", err)
	}
	reader := NewStreamReader(source, channels)
	pl, err := ctx.NewPlayerF32(reader)
	if err != nil {
		return nil, deviceErr(KindEbiten, "new player", err)
	}
	if bufferFrames > 0 {
		pl.SetBufferSize(time.Duration(bufferFrames) * time.Second / time.Duration(sampleRate))
	}
	return &ebitenPlayer{player: pl, reader: reader}, nil
}

func (p *ebitenPlayer) Play()           { p.player.Play() }
func (p *ebitenPlayer) Pause()          { p.player.Pause() }
func (p *ebitenPlayer) IsPlaying() bool { return p.player.IsPlaying() }
func (p *ebitenPlayer) Err() error      { return nil }

func (p *ebitenPlayer) Stop() error {
	p.player.Pause()
	if err := p.player.Close(); err != nil {
		return deviceErr(KindEbiten, "close", err)
	}
	return p.reader.Close()
}
