package audio

import (
	"fmt"
	"strings"
)

// Player is a running output stream pulling from a SampleSource.
type Player interface {
	Play()
	Pause()
	IsPlaying() bool
	// Stop halts output and releases the device stream.
	Stop() error
	// Err reports an asynchronous device failure, if any.
	Err() error
}

type Kind string

const (
	KindEbiten Kind = "ebiten"
	KindOto    Kind = "oto"
	KindBeep   Kind = "beep"
	KindNull   Kind = "null"
)

var kinds = []Kind{KindEbiten, KindOto, KindBeep, KindNull}

// Kinds lists the available backends; the first is the default.
func Kinds() []Kind { return append([]Kind(nil), kinds...) }

func ParseKind(s string) (Kind, error) {
	if s == "" {
		return KindEbiten, nil
	}
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range kinds {
		if k == known {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown audio backend %q", s)
}

// DeviceError reports a failure in an output backend.
type DeviceError struct {
	Backend Kind
	Op      string
	Err     error
}

func (e *DeviceError) Error() string {
	return fmt.Sprintf("audio %s: %s: %v", e.Backend, e.Op, e.Err)
}

func (e *DeviceError) Unwrap() error { return e.Err }

func deviceErr(kind Kind, op string, err error) error {
	if err == nil {
		return nil
	}
	return &DeviceError{Backend: kind, Op: op, Err: err}
}

// Open creates a paused player for source on the requested backend.
// bufferFrames sizes the device buffer; 0 keeps the backend default.
func Open(kind Kind, sampleRate, channels, bufferFrames int, source SampleSource) (Player, error) {
	if sampleRate <= 0 {
		return nil, deviceErr(kind, "open", fmt.Errorf("invalid sample rate %d", sampleRate))
	}
	if channels <= 0 {
		channels = 2
	}
	switch kind {
	case KindEbiten, "":
		return newEbitenPlayer(sampleRate, channels, bufferFrames, source)
	case KindOto:
		return newOtoPlayer(sampleRate, channels, bufferFrames, source)
	case KindBeep:
		return newBeepPlayer(sampleRate, channels, bufferFrames, source)
	case KindNull:
		return newNullPlayer(channels, bufferFrames, source), nil
	default:
		return nil, deviceErr(kind, "open", fmt.Errorf("unknown backend"))
	}
}
