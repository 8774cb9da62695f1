package clidaw

import (
	"crypto/sha256"
	"encoding/binary"
	"math"
	"os"
	"path/filepath"
	"testing"
)

func renderHash(samples []float32) [32]byte {
	buf := make([]byte, 4*len(samples))
	for i, s := range samples {
		binary.LittleEndian.PutUint32(buf[4*i:], math.Float32bits(s))
	}
	return sha256.Sum256(buf)
}

func mustSchedule(t *testing.T, song *Song, patterns map[string]*Pattern) *Schedule {
	t.Helper()
	sched, err := ComputeSchedule(song, patterns)
	if err != nil {
		t.Fatalf("schedule: %v", err)
	}
	return sched
}

func TestRenderSamplesDeterministic(t *testing.T) {
	song, patterns := riffSong(2)
	sched := mustSchedule(t, song, patterns)
	a, err := RenderSamples(sched, song, testRate, 1.5)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if len(a) != 12000*2 {
		t.Fatalf("got %d samples", len(a))
	}
	b, err := RenderSamples(sched, song, testRate, 1.5)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if renderHash(a) != renderHash(b) {
		t.Fatalf("renders differ")
	}
	var peak float32
	for _, s := range a {
		peak = max(peak, float32(math.Abs(float64(s))))
	}
	if peak == 0 || peak > 1 {
		t.Fatalf("peak = %v", peak)
	}
}

func TestRenderAllExtendsRenderSamples(t *testing.T) {
	song, patterns := riffSong(1)
	sched := mustSchedule(t, song, patterns)
	all, err := RenderAll(sched, song, testRate)
	if err != nil {
		t.Fatalf("render all: %v", err)
	}
	// One second of song, then the 0.25s release of the last chord.
	if len(all) < 2*(testRate+testRate/4-16) || len(all) > 2*(testRate+testRate/4+16) {
		t.Fatalf("got %d samples", len(all))
	}
	head, err := RenderSamples(sched, song, testRate, 0.5)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	for i := range head {
		if head[i] != all[i] {
			t.Fatalf("sample %d: %v != %v", i, head[i], all[i])
		}
	}
}

func TestRenderSamplesRejectsBadLength(t *testing.T) {
	song, patterns := riffSong(1)
	sched := mustSchedule(t, song, patterns)
	for _, sec := range []float64{-1, math.NaN(), math.Inf(1)} {
		if _, err := RenderSamples(sched, song, testRate, sec); err == nil {
			t.Fatalf("seconds %v: expected error", sec)
		}
	}
	out, err := RenderSamples(sched, song, testRate, 0)
	if err != nil || len(out) != 0 {
		t.Fatalf("zero length render = %d samples, %v", len(out), err)
	}
}

func TestRenderTrailingSilenceIsZero(t *testing.T) {
	song, patterns := riffSong(1)
	sched := mustSchedule(t, song, patterns)
	out, err := RenderSamples(sched, song, testRate, 3)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	for i, s := range out[2*testRate*2:] {
		if s != 0 {
			t.Fatalf("sample %d after end = %v", i, s)
		}
	}
}

func TestLoadPatternFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "riff.notes")
	if err := os.WriteFile(path, []byte("beats: 4\na s d f\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	song, patterns, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if song.Tempo != 120 || len(song.Tracks) != 1 || song.Tracks[0].Name != "riff" {
		t.Fatalf("song = %+v", song)
	}
	sched := mustSchedule(t, song, patterns)
	if sched.Len() != 8 || sched.Duration() != 2 {
		t.Fatalf("schedule has %d commands over %vs", sched.Len(), sched.Duration())
	}
}

func TestLoadSongFile(t *testing.T) {
	dir := t.TempDir()
	files := map[string]string{
		"lead.instr": "attack: 0.02\nrelease: 0.1\n",
		"a.notes":    "a _ d -\n",
		"demo.song":  "tempo: 60\ninstrument: lead.instr\na.notes * 2\n",
	}
	for name, src := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(src), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	song, patterns, err := Load(filepath.Join(dir, "demo.song"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if song.Tracks[0].Instrument.Release != 0.1 {
		t.Fatalf("instrument = %+v", song.Tracks[0].Instrument)
	}
	sched := mustSchedule(t, song, patterns)
	if sched.Duration() != 8 {
		t.Fatalf("duration = %v", sched.Duration())
	}
}

func TestLoadRejectsUnknownExtension(t *testing.T) {
	if _, _, err := Load("tune.mml"); err == nil {
		t.Fatalf("expected error")
	}
}
