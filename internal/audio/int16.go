package audio

import (
	"encoding/binary"
	"fmt"
	"io"
	"math/rand/v2"
	"sync"

	"github.com/cwbudde/algo-dsp/dsp/dither"
)

// DitherSeed seeds the quantizer so identical input always produces
// identical bytes.
const DitherSeed = 0x636c6964

// Int16Reader encodes a source as little-endian signed 16-bit samples with
// TPDF dither.
type Int16Reader struct {
	mu       sync.Mutex
	source   SampleSource
	channels int
	quant    *dither.Quantizer
	buf      []float32
}

func NewInt16Reader(source SampleSource, sampleRate, channels int) (*Int16Reader, error) {
	if channels <= 0 {
		channels = 2
	}
	q, err := dither.NewQuantizer(float64(sampleRate),
		dither.WithBitDepth(16),
		dither.WithDitherType(dither.DitherTriangular),
		dither.WithRNG(rand.New(rand.NewPCG(DitherSeed, 0))),
	)
	if err != nil {
		return nil, fmt.Errorf("int16 quantizer: %w", err)
	}
	return &Int16Reader{source: source, channels: channels, quant: q}, nil
}

func (r *Int16Reader) Read(p []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if finished(r.source) {
		return 0, io.EOF
	}
	frameBytes := 2 * r.channels
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
		v := r.quant.ProcessInteger(float64(s))
		binary.LittleEndian.PutUint16(p[i*2:], uint16(int16(v)))
	}
	n := frames * frameBytes
	if finished(r.source) {
		return n, io.EOF
	}
	return n, nil
}

func (r *Int16Reader) Close() error { return nil }
