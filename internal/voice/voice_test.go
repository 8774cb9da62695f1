package voice

import (
	"testing"

	"github.com/cwbudde/algo-dsp/dsp/core"
)

const testRate = 48000.0

var testADSR = ADSR{Attack: 0.01, Decay: 0.1, Sustain: 0.7, Release: 0.25}

func TestEnvelopeReachesSustain(t *testing.T) {
	adsr := ADSR{Attack: 0.25, Decay: 0.5, Sustain: 0.7, Release: 0.25}
	env := NewEnvelope(adsr)
	env.Trigger()
	got := env.Advance(adsr.Attack + adsr.Decay)
	if env.Stage() != StageSustain {
		t.Fatalf("stage = %v, want sustain", env.Stage())
	}
	if got != adsr.Sustain {
		t.Fatalf("level = %v, want %v", got, adsr.Sustain)
	}
	// Sustain holds until release.
	if got := env.Advance(5); got != adsr.Sustain {
		t.Fatalf("held level = %v", got)
	}
}

func TestEnvelopeSampleStepping(t *testing.T) {
	env := NewEnvelope(testADSR)
	env.Trigger()
	n := int((testADSR.Attack + testADSR.Decay) * testRate)
	var peak float64
	for i := 0; i < n; i++ {
		peak = max(peak, env.Advance(1/testRate))
	}
	if !core.NearlyEqual(env.Level(), testADSR.Sustain, 1e-3) {
		t.Fatalf("level after %d samples = %v", n, env.Level())
	}
	if !core.NearlyEqual(peak, 1, 1e-3) {
		t.Fatalf("peak = %v, want ~1", peak)
	}
}

func TestEnvelopeReleaseFromAttackIsContinuous(t *testing.T) {
	env := NewEnvelope(testADSR)
	env.Trigger()
	before := env.Advance(testADSR.Attack / 2)
	env.Release()
	if env.Level() != before {
		t.Fatalf("release changed level %v -> %v", before, env.Level())
	}
	dt := 1 / testRate
	after := env.Advance(dt)
	maxStep := before / testADSR.Release * dt
	if after > before || before-after > maxStep+1e-12 {
		t.Fatalf("discontinuity: %v -> %v", before, after)
	}
}

func TestEnvelopeReleaseFromDecay(t *testing.T) {
	env := NewEnvelope(testADSR)
	env.Trigger()
	before := env.Advance(testADSR.Attack + testADSR.Decay/2)
	if env.Stage() != StageDecay {
		t.Fatalf("stage = %v", env.Stage())
	}
	env.Release()
	after := env.Advance(1 / testRate)
	if before-after > 0.001 {
		t.Fatalf("jump at release: %v -> %v", before, after)
	}
	if got := env.Advance(testADSR.Release); got != 0 || !env.Idle() {
		t.Fatalf("after release: level %v stage %v", got, env.Stage())
	}
}

func TestEnvelopeReleaseOnIdleIsNoop(t *testing.T) {
	env := NewEnvelope(testADSR)
	env.Release()
	if !env.Idle() || env.Level() != 0 {
		t.Fatalf("idle release changed state: %v %v", env.Stage(), env.Level())
	}
	if got := env.Advance(1); got != 0 {
		t.Fatalf("idle advance = %v", got)
	}
}

func TestEnvelopeNeverNegative(t *testing.T) {
	for _, adsr := range []ADSR{
		testADSR,
		{Attack: 0, Decay: 0, Sustain: 0, Release: 0},
		{Attack: 0.001, Decay: 0.002, Sustain: 1, Release: 0.003},
	} {
		env := NewEnvelope(adsr)
		env.Trigger()
		for i := 0; i < 2000; i++ {
			if i == 500 {
				env.Release()
			}
			if lvl := env.Advance(1 / testRate); lvl < 0 || lvl > 1 {
				t.Fatalf("%+v: level %v at sample %d", adsr, lvl, i)
			}
		}
	}
}

func TestEnvelopeZeroTimes(t *testing.T) {
	env := NewEnvelope(ADSR{Sustain: 0.5})
	env.Trigger()
	if got := env.Advance(1 / testRate); got != 0.5 {
		t.Fatalf("level = %v, want 0.5", got)
	}
	env.Release()
	if got := env.Advance(1 / testRate); got != 0 || !env.Idle() {
		t.Fatalf("zero release: level %v stage %v", got, env.Stage())
	}
}

func TestVoicePhaseWraps(t *testing.T) {
	var v Voice
	v.Start(0, 440, testADSR, testRate)
	for i := 0; i < 10000; i++ {
		s := v.Sample()
		if s < -1 || s > 1 {
			t.Fatalf("sample %d out of range: %v", i, s)
		}
		if p := v.Phase(); p < 0 || p >= twoPi {
			t.Fatalf("phase %v out of [0, 2π)", p)
		}
	}
}

func TestVoiceIdleIsSilent(t *testing.T) {
	var v Voice
	if v.Sample() != 0 {
		t.Fatal("zero voice not silent")
	}
}

func TestPoolRetriggerUsesNewVoice(t *testing.T) {
	p := NewPool(testADSR, testRate, 4)
	p.NoteOn(1, 440)
	p.NoteOn(2, 440)
	if p.Active() != 2 {
		t.Fatalf("active = %d, want 2", p.Active())
	}
	if n := p.NoteOff(1); n != 1 {
		t.Fatalf("released %d voices for group 1", n)
	}
	if n := p.NoteOff(99); n != 0 {
		t.Fatalf("unknown group released %d", n)
	}
}

func TestPoolRemovesIdleVoices(t *testing.T) {
	adsr := ADSR{Attack: 0.001, Decay: 0.001, Sustain: 0.5, Release: 0.001}
	p := NewPool(adsr, testRate, 4)
	p.NoteOn(0, 220)
	p.NoteOn(1, 330)
	buf := make([]float64, 256)
	p.Render(buf)
	p.NoteOff(0)
	p.Render(buf)
	if p.Active() != 1 {
		t.Fatalf("active = %d, want 1", p.Active())
	}
	p.ReleaseAll()
	p.Render(buf)
	if p.Active() != 0 {
		t.Fatalf("active = %d, want 0", p.Active())
	}
	p.Render(buf)
	for i, s := range buf {
		if s != 0 {
			t.Fatalf("buf[%d] = %v after all voices idle", i, s)
		}
	}
}

func TestPoolStealsOldestReleasing(t *testing.T) {
	p := NewPool(testADSR, testRate, 3)
	p.NoteOn(0, 100)
	p.NoteOn(1, 200)
	p.NoteOn(2, 300)
	p.NoteOff(1)
	p.NoteOn(3, 400)
	if p.Active() != 3 {
		t.Fatalf("active = %d", p.Active())
	}
	groups := map[int]bool{}
	for i := 0; i < p.n; i++ {
		groups[p.voices[i].Group()] = true
	}
	if groups[1] || !groups[0] || !groups[2] || !groups[3] {
		t.Fatalf("groups after steal = %v", groups)
	}
}

func TestPoolStealsOldestWhenNoneReleasing(t *testing.T) {
	p := NewPool(testADSR, testRate, 2)
	p.NoteOn(0, 100)
	p.NoteOn(1, 200)
	p.NoteOn(2, 300)
	for i := 0; i < p.n; i++ {
		if p.voices[i].Group() == 0 {
			t.Fatal("oldest voice was not stolen")
		}
	}
}

func TestPoolRenderDoesNotAllocate(t *testing.T) {
	p := NewPool(testADSR, testRate, DefaultPolyphony)
	buf := make([]float64, 512)
	allocs := testing.AllocsPerRun(50, func() {
		p.NoteOn(0, 440)
		p.Render(buf)
		p.NoteOff(0)
	})
	if allocs != 0 {
		t.Fatalf("allocs per run = %v", allocs)
	}
}
