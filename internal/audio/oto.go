package audio

import (
	"fmt"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"
)

var (
	otoOnce     sync.Once
	otoContext  *oto.Context
	otoErr      error
	otoRate     int
	otoChannels int
)

func sharedOtoContext(sampleRate, channels, bufferFrames int) (*oto.Context, error) {
	otoOnce.Do(func() {
		otoRate, otoChannels = sampleRate, channels
		op := &oto.NewContextOptions{
			SampleRate:   sampleRate,
			ChannelCount: channels,
			Format:       oto.FormatSignedInt16LE,
		}
		if bufferFrames > 0 {
			op.BufferSize = time.Duration(bufferFrames) * time.Second / time.Duration(sampleRate)
		}
		ctx, ready, err := oto.NewContext(op)
		if err != nil {
			otoErr = err
			return
		}
		<-ready
		otoContext = ctx
	})
	if otoErr != nil {
		return nil, otoErr
	}
	if otoRate != sampleRate || otoChannels != channels {
		return nil, fmt.Errorf("oto context already initialized at %d Hz/%d ch (requested %d Hz/%d ch)",
			otoRate, otoChannels, sampleRate, channels)
	}
	return otoContext, nil
}

type otoPlayer struct {
	player *oto.Player
	reader *Int16Reader
}

func newOtoPlayer(sampleRate, channels, bufferFrames int, source SampleSource) (Player, error) {
	ctx, err := sharedOtoContext(sampleRate, channels, bufferFrames)
	if err != nil {
		return nil, deviceErr(KindOto, "context", err)
	}
	reader, err := NewInt16Reader(source, sampleRate, channels)
	if err != nil {
		return nil, deviceErr(KindOto, "encoder", err)
	}
	return &otoPlayer{player: ctx.NewPlayer(reader), reader: reader}, nil
}

func (p *otoPlayer) Play()           { p.player.Play() }
func (p *otoPlayer) Pause()          { p.player.Pause() }
func (p *otoPlayer) IsPlaying() bool { return p.player.IsPlaying() }

func (p *otoPlayer) Err() error {
	return deviceErr(KindOto, "stream", p.player.Err())
}

func (p *otoPlayer) Stop() error {
	p.player.Pause()
	if err := p.player.Close(); err != nil {
		return deviceErr(KindOto, "close", err)
	}
	return p.reader.Close()
}
