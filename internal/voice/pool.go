package voice

// DefaultPolyphony is the voice cap per track.
const DefaultPolyphony = 16

// Pool is a fixed set of voices for one track. All storage is allocated by
// NewPool; NoteOn, NoteOff and Render never allocate.
//
// Every NoteOn gets its own voice, even for a pitch that is already sounding.
// When the pool is full the oldest releasing voice is stolen, or failing that
// the oldest voice.
type Pool struct {
	adsr       ADSR
	sampleRate float64
	voices     []Voice // voices[:n] are active
	n          int
	serial     uint64
}

func NewPool(adsr ADSR, sampleRate float64, polyphony int) *Pool {
	if polyphony <= 0 {
		polyphony = DefaultPolyphony
	}
	return &Pool{
		adsr:       adsr,
		sampleRate: sampleRate,
		voices:     make([]Voice, polyphony),
	}
}

func (p *Pool) Active() int   { return p.n }
func (p *Pool) Capacity() int { return len(p.voices) }

// NoteOn starts a voice for group at freq.
func (p *Pool) NoteOn(group int, freq float64) {
	slot := p.n
	if p.n < len(p.voices) {
		p.n++
	} else {
		slot = p.steal()
	}
	v := &p.voices[slot]
	v.Start(group, freq, p.adsr, p.sampleRate)
	v.serial = p.serial
	p.serial++
}

// NoteOff releases every voice of group and reports how many it touched.
// Groups that are unknown or already idle are ignored.
func (p *Pool) NoteOff(group int) int {
	n := 0
	for i := 0; i < p.n; i++ {
		if p.voices[i].group == group {
			p.voices[i].Release()
			n++
		}
	}
	return n
}

func (p *Pool) ReleaseAll() {
	for i := 0; i < p.n; i++ {
		p.voices[i].Release()
	}
}

func (p *Pool) Reset() {
	p.n = 0
}

// Render overwrites dst with the sum of all active voices. Voices that reach
// Idle stop contributing at that sample and leave the active set.
func (p *Pool) Render(dst []float64) {
	clear(dst)
	for i := 0; i < p.n; {
		v := &p.voices[i]
		for f := range dst {
			dst[f] += v.Sample()
			if v.Idle() {
				break
			}
		}
		if v.Idle() {
			p.remove(i)
			continue
		}
		i++
	}
}

// remove keeps the remaining voices in order; output must not depend on how
// a render is chunked.
func (p *Pool) remove(i int) {
	copy(p.voices[i:p.n-1], p.voices[i+1:p.n])
	p.n--
}

func (p *Pool) steal() int {
	oldestRelease := -1
	oldest := 0
	for i := 0; i < p.n; i++ {
		v := &p.voices[i]
		if v.Stage() == StageRelease && (oldestRelease < 0 || v.serial < p.voices[oldestRelease].serial) {
			oldestRelease = i
		}
		if v.serial < p.voices[oldest].serial {
			oldest = i
		}
	}
	if oldestRelease >= 0 {
		return oldestRelease
	}
	return oldest
}
