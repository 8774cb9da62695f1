package report

import (
	"embed"
	"fmt"
	"io"
	"text/template"

	"github.com/Masterminds/sprig"

	"github.com/cbegin/clidaw-go/internal/scheduler"
	"github.com/cbegin/clidaw-go/internal/score"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

var templates = template.Must(template.New("report").Funcs(sprig.TxtFuncMap()).ParseFS(templateFS, "templates/*.tmpl"))

type eventRow struct {
	Index   int
	Kind    string
	Beats   float64
	Pitches []string
}

type patternData struct {
	Name          string
	Beats         float64
	Derived       bool
	TimeSignature string
	Octave        int
	Loop          bool
	Events        []eventRow
}

// Pattern writes a human-readable summary of pat.
func Pattern(w io.Writer, name string, pat *score.Pattern) error {
	data := patternData{
		Name:          name,
		Beats:         pat.Length().InBeats(),
		Derived:       pat.Beats == 0,
		TimeSignature: fmt.Sprintf("%d/%d", pat.TimeSignature.Num, pat.TimeSignature.Den),
		Octave:        pat.Octave,
		Loop:          pat.Loop,
		Events:        make([]eventRow, len(pat.Events)),
	}
	for i, ev := range pat.Events {
		row := eventRow{Index: i, Kind: ev.Type.String(), Beats: ev.Duration().InBeats()}
		for _, p := range ev.Pitches {
			row.Pitches = append(row.Pitches, p.String())
		}
		data.Events[i] = row
	}
	return templates.ExecuteTemplate(w, "pattern", data)
}

type commandRow struct {
	Time      float64
	Beat      float64
	Track     int
	Kind      string
	Group     int
	Frequency float64
}

type scheduleData struct {
	Total     int
	Tracks    int
	Tempo     float64
	Duration  float64
	Commands  []commandRow
	Truncated int
}

// Schedule lists the commands of sched. limit caps the number of rows;
// 0 lists everything.
func Schedule(w io.Writer, sched *scheduler.Schedule, limit int) error {
	cmds := sched.Commands
	data := scheduleData{
		Total:    len(cmds),
		Tracks:   sched.Tracks,
		Tempo:    sched.Tempo,
		Duration: sched.Duration(),
	}
	if limit > 0 && len(cmds) > limit {
		data.Truncated = len(cmds) - limit
		cmds = cmds[:limit]
	}
	data.Commands = make([]commandRow, len(cmds))
	for i, c := range cmds {
		data.Commands[i] = commandRow{
			Time:      c.Time,
			Beat:      c.Tick.InBeats(),
			Track:     c.Track,
			Kind:      c.Kind.String(),
			Group:     c.Group,
			Frequency: c.Frequency,
		}
	}
	return templates.ExecuteTemplate(w, "schedule", data)
}
