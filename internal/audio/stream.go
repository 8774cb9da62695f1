package audio

import (
	"encoding/binary"
	"io"
	"math"
	"sync"
)

// SampleSource produces interleaved float32 samples on demand.
type SampleSource interface {
	Process(dst []float32)
}

// FinishingSource is a SampleSource that can signal when playback has ended.
// When Finished returns true, readers return io.EOF on the next Read.
type FinishingSource interface {
	SampleSource
	Finished() bool
}

func finished(src SampleSource) bool {
	fs, ok := src.(FinishingSource)
	return ok && fs.Finished()
}

// StreamReader encodes a source as little-endian float32 bytes.
type StreamReader struct {
	mu       sync.Mutex
	source   SampleSource
	channels int
	buf      []float32
}

func NewStreamReader(source SampleSource, channels int) *StreamReader {
	if channels <= 0 {
		channels = 2
	}
	return &StreamReader{source: source, channels: channels}
}

func (r *StreamReader) Read(p []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if finished(r.source) {
		return 0, io.EOF
	}
	frameBytes := 4 * r.channels
	frames := len(p) / frameBytes
	if frames == 0 {
		return 0, nil
	}
	need := frames * r.channels
	if cap(r.buf) < need {
		r.buf = make([]float32, need)
	}
	r.buf = r.buf[:need]
	r.source.Process(r.buf)
	for i, s := range r.buf {
		binary.LittleEndian.PutUint32(p[i*4:], math.Float32bits(s))
	}
	n := frames * frameBytes
	if finished(r.source) {
		return n, io.EOF
	}
	return n, nil
}

func (r *StreamReader) Close() error { return nil }
