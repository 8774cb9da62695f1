package voice

type Stage int

const (
	StageIdle Stage = iota
	StageAttack
	StageDecay
	StageSustain
	StageRelease
)

func (s Stage) String() string {
	switch s {
	case StageIdle:
		return "idle"
	case StageAttack:
		return "attack"
	case StageDecay:
		return "decay"
	case StageSustain:
		return "sustain"
	case StageRelease:
		return "release"
	default:
		return "unknown"
	}
}

// ADSR holds envelope times in seconds and the sustain level in [0, 1].
type ADSR struct {
	Attack  float64
	Decay   float64
	Sustain float64
	Release float64
}

// Envelope is a linear ADSR state machine. It records the level at the last
// stage transition so a release can start from wherever the envelope is.
type Envelope struct {
	adsr    ADSR
	stage   Stage
	elapsed float64 // seconds spent in the current stage
	from    float64 // level when the current stage was entered
	level   float64
}

func NewEnvelope(adsr ADSR) Envelope {
	if !(adsr.Sustain >= 0) {
		adsr.Sustain = 0
	}
	if adsr.Sustain > 1 {
		adsr.Sustain = 1
	}
	return Envelope{adsr: adsr}
}

func (e *Envelope) Stage() Stage   { return e.stage }
func (e *Envelope) Level() float64 { return e.level }
func (e *Envelope) Idle() bool     { return e.stage == StageIdle }

// Trigger restarts the envelope in Attack from silence.
func (e *Envelope) Trigger() {
	e.stage = StageAttack
	e.elapsed = 0
	e.from = 0
	e.level = 0
}

// Release moves to Release from the current level. Releasing an idle or
// already releasing envelope does nothing.
func (e *Envelope) Release() {
	if e.stage == StageIdle || e.stage == StageRelease {
		return
	}
	e.stage = StageRelease
	e.elapsed = 0
	e.from = e.level
}

// Advance moves the envelope dt seconds forward and returns the new level.
// Time left over at the end of a stage carries into the next one.
func (e *Envelope) Advance(dt float64) float64 {
	if e.stage == StageIdle {
		return 0
	}
	e.elapsed += dt
	for {
		switch e.stage {
		case StageAttack:
			if e.elapsed < e.adsr.Attack {
				e.level = lerp(e.from, 1, e.elapsed/e.adsr.Attack)
				return e.level
			}
			e.elapsed -= e.adsr.Attack
			e.enter(StageDecay, 1)
		case StageDecay:
			if e.elapsed < e.adsr.Decay {
				e.level = lerp(e.from, e.adsr.Sustain, e.elapsed/e.adsr.Decay)
				return e.level
			}
			e.elapsed -= e.adsr.Decay
			e.enter(StageSustain, e.adsr.Sustain)
		case StageSustain:
			e.elapsed = 0
			e.level = e.adsr.Sustain
			return e.level
		case StageRelease:
			if e.elapsed < e.adsr.Release {
				e.level = lerp(e.from, 0, e.elapsed/e.adsr.Release)
				return e.level
			}
			e.enter(StageIdle, 0)
			e.elapsed = 0
			return 0
		default:
			return 0
		}
	}
}

func (e *Envelope) enter(stage Stage, from float64) {
	e.stage = stage
	e.from = from
	e.level = from
}

func lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}
