package audio

import (
	"encoding/binary"
	"errors"
	"io"
	"math"
	"testing"
	"time"
)

// constSource emits a fixed value for a number of Process calls.
type constSource struct {
	value float32
	calls int
	limit int
}

func (s *constSource) Process(dst []float32) {
	s.calls++
	for i := range dst {
		dst[i] = s.value
	}
}

func (s *constSource) Finished() bool { return s.limit > 0 && s.calls >= s.limit }

type rampSource struct{ n int }

func (s *rampSource) Process(dst []float32) {
	for i := range dst {
		dst[i] = float32(math.Sin(float64(s.n) * 0.01))
		s.n++
	}
}

func TestStreamReaderEncodesFloat32(t *testing.T) {
	r := NewStreamReader(&constSource{value: 0.25}, 2)
	p := make([]byte, 8*4+3)
	n, err := r.Read(p)
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if n != 32 {
		t.Fatalf("read %d bytes, want 32", n)
	}
	for i := 0; i < 8; i++ {
		if got := math.Float32frombits(binary.LittleEndian.Uint32(p[i*4:])); got != 0.25 {
			t.Fatalf("sample %d = %v", i, got)
		}
	}
}

func TestStreamReaderShortBuffer(t *testing.T) {
	r := NewStreamReader(&constSource{value: 1}, 2)
	n, err := r.Read(make([]byte, 7))
	if n != 0 || err != nil {
		t.Fatalf("got %d, %v", n, err)
	}
}

func TestStreamReaderEOFWhenFinished(t *testing.T) {
	src := &constSource{value: 0.5, limit: 2}
	r := NewStreamReader(src, 1)
	p := make([]byte, 64)
	if _, err := r.Read(p); err != nil {
		t.Fatalf("first read: %v", err)
	}
	n, err := r.Read(p)
	if n != 64 || err != io.EOF {
		t.Fatalf("second read = %d, %v; want 64, EOF", n, err)
	}
	if n, err := r.Read(p); n != 0 || err != io.EOF {
		t.Fatalf("read after end = %d, %v", n, err)
	}
}

func TestInt16ReaderQuantizes(t *testing.T) {
	r, err := NewInt16Reader(&constSource{value: 0.5}, 48000, 2)
	if err != nil {
		t.Fatalf("new reader: %v", err)
	}
	p := make([]byte, 2*2*256)
	n, err := r.Read(p)
	if err != nil || n != len(p) {
		t.Fatalf("read = %d, %v", n, err)
	}
	var sum float64
	for i := 0; i < n; i += 2 {
		sum += float64(int16(binary.LittleEndian.Uint16(p[i:])))
	}
	mean := sum / float64(n/2)
	if math.Abs(mean-16384) > 64 {
		t.Fatalf("mean sample = %v, want about 16384", mean)
	}
}

func TestInt16ReaderSilenceStaysNearZero(t *testing.T) {
	r, err := NewInt16Reader(&constSource{}, 48000, 1)
	if err != nil {
		t.Fatalf("new reader: %v", err)
	}
	p := make([]byte, 2*512)
	r.Read(p)
	for i := 0; i < len(p); i += 2 {
		if s := int16(binary.LittleEndian.Uint16(p[i:])); s > 256 || s < -256 {
			t.Fatalf("silence encoded as %d", s)
		}
	}
}

func TestInt16ReaderIsDeterministic(t *testing.T) {
	read := func() []byte {
		r, err := NewInt16Reader(&rampSource{}, 44100, 2)
		if err != nil {
			t.Fatalf("new reader: %v", err)
		}
		p := make([]byte, 4096)
		r.Read(p)
		return p
	}
	a, b := read(), read()
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("byte %d differs between runs", i)
		}
	}
}

func TestNullPlayerDrainsSource(t *testing.T) {
	src := &constSource{limit: 10}
	pl, err := Open(KindNull, 48000, 2, 64, src)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	pl.Play()
	deadline := time.Now().Add(2 * time.Second)
	for pl.IsPlaying() && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	if err := pl.Stop(); err != nil {
		t.Fatalf("stop: %v", err)
	}
	if src.calls != 10 {
		t.Fatalf("source processed %d buffers, want 10", src.calls)
	}
}

func TestNullPlayerStopWhilePaused(t *testing.T) {
	src := &constSource{}
	pl, err := Open(KindNull, 48000, 2, 64, src)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if pl.IsPlaying() {
		t.Fatal("new player should be paused")
	}
	if err := pl.Stop(); err != nil {
		t.Fatalf("stop: %v", err)
	}
	pl.Play()
	if pl.IsPlaying() {
		t.Fatal("stopped player resumed")
	}
}

func TestParseKind(t *testing.T) {
	tests := []struct {
		in      string
		want    Kind
		wantErr bool
	}{
		{"", KindEbiten, false},
		{"oto", KindOto, false},
		{" BEEP ", KindBeep, false},
		{"null", KindNull, false},
		{"alsa", "", true},
	}
	for _, tt := range tests {
		got, err := ParseKind(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Fatalf("ParseKind(%q) = %q, %v", tt.in, got, err)
		}
	}
}

func TestOpenRejectsBadInput(t *testing.T) {
	_, err := Open(KindNull, 0, 2, 0, &constSource{})
	var de *DeviceError
	if !errors.As(err, &de) || de.Op != "open" {
		t.Fatalf("err = %v", err)
	}
	if _, err := Open(Kind("alsa"), 48000, 2, 0, &constSource{}); !errors.As(err, &de) {
		t.Fatalf("unknown backend err = %v", err)
	}
}

func TestDeviceErrorUnwraps(t *testing.T) {
	base := errors.New("boom")
	err := deviceErr(KindOto, "stream", base)
	if !errors.Is(err, base) {
		t.Fatal("DeviceError does not unwrap")
	}
	if deviceErr(KindOto, "stream", nil) != nil {
		t.Fatal("nil cause should give nil error")
	}
	if got := err.Error(); got != "audio oto: stream: boom" {
		t.Fatalf("message = %q", got)
	}
}
