package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/Southclaws/fault/fmsg"
	"github.com/Southclaws/fault/ftag"

	"github.com/cbegin/clidaw-go"
	"github.com/cbegin/clidaw-go/internal/audio"
	"github.com/cbegin/clidaw-go/internal/config"
	"github.com/cbegin/clidaw-go/internal/notation"
	"github.com/cbegin/clidaw-go/internal/report"
	"github.com/cbegin/clidaw-go/internal/scheduler"
)

const usage = `usage: clidaw [flags] <command> <file>

commands:
  play      play a .song project or a .notes pattern
  parse     print a summary of a .notes pattern
  schedule  print the note commands computed for a .song or .notes file

flags:
`

func main() {
	var (
		configPath = flag.String("config", "", "YAML settings file")
		backend    = flag.String("backend", "", "audio backend: "+kindList())
		sampleRate = flag.Int("sample-rate", 0, "output sample rate (0 keeps the configured rate)")
		tempo      = flag.Float64("tempo", 0, "override the tempo in BPM")
		transpose  = flag.Int("transpose", 0, "shift every note by N octaves")
		repeat     = flag.Int("repeat", 0, "repeat a lone pattern N times")
		instrument = flag.String("instrument", "", "play a lone .notes pattern with this .instr file")
		limit      = flag.Int("limit", 0, "schedule: list at most N commands (0 = all)")
		verbose    = flag.Bool("v", false, "debug logging")
	)
	flag.Usage = func() {
		fmt.Fprint(flag.CommandLine.Output(), usage)
		flag.PrintDefaults()
	}
	flag.Parse()
	if flag.NArg() != 2 {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "backend":
			cfg.Backend = *backend
		case "sample-rate":
			cfg.SampleRate = *sampleRate
		case "tempo":
			cfg.Tempo = *tempo
		case "transpose":
			cfg.Transpose = *transpose
		case "repeat":
			cfg.Repeat = *repeat
		}
	})
	if *verbose {
		cfg.LogLevel = "debug"
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel(cfg.LogLevel)}))
	slog.SetDefault(logger)

	cmd, path := flag.Arg(0), flag.Arg(1)
	switch cmd {
	case "play":
		err = play(cfg, path, *instrument)
	case "parse":
		err = parse(path)
	case "schedule":
		err = schedule(cfg, path, *instrument, *limit)
	default:
		err = fmt.Errorf("unknown command %q", cmd)
	}
	if err != nil {
		fail(err)
	}
}

func fail(err error) {
	msg := err.Error()
	if issue := fmsg.GetIssue(err); issue != "" {
		msg = issue
	}
	slog.Debug("command failed", "error", err, "kind", ftag.Get(err))
	fmt.Fprintln(os.Stderr, "clidaw:", msg)
	if ftag.Get(err) == ftag.NotFound {
		os.Exit(3)
	}
	os.Exit(1)
}

func kindList() string {
	var names []string
	for _, k := range audio.Kinds() {
		names = append(names, string(k))
	}
	return strings.Join(names, "|")
}

func logLevel(name string) slog.Level {
	switch strings.ToLower(name) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// load reads a song project, or wraps a lone pattern in a one-track song
// using the configured repeat count. The pattern plays with the instrument
// file at instrPath if given, else the configured instrument.
func load(cfg config.Config, path, instrPath string) (*clidaw.Song, map[string]*clidaw.Pattern, error) {
	if !strings.EqualFold(filepath.Ext(path), notation.ExtPattern) {
		if instrPath != "" {
			return nil, nil, fmt.Errorf("-instrument only applies to %s files", notation.ExtPattern)
		}
		return clidaw.Load(path)
	}
	inst := cfg.Instrument
	if instrPath != "" {
		var err error
		if inst, err = notation.LoadInstrument(instrPath); err != nil {
			return nil, nil, err
		}
	}
	pat, err := notation.LoadPattern(path)
	if err != nil {
		return nil, nil, err
	}
	song, patterns := notation.SinglePatternSong(pat, path, inst, notation.DefaultTempo, cfg.Repeat)
	return song, patterns, nil
}

func scheduleOptions(cfg config.Config) []scheduler.Option {
	var opts []scheduler.Option
	if cfg.Tempo > 0 {
		opts = append(opts, scheduler.WithTempo(cfg.Tempo))
	}
	if cfg.Transpose != 0 {
		opts = append(opts, scheduler.WithTranspose(cfg.Transpose))
	}
	return opts
}

func parse(path string) error {
	pat, err := notation.LoadPattern(path)
	if err != nil {
		return err
	}
	return report.Pattern(os.Stdout, path, pat)
}

func schedule(cfg config.Config, path, instrPath string, limit int) error {
	song, patterns, err := load(cfg, path, instrPath)
	if err != nil {
		return err
	}
	sched, err := clidaw.ComputeSchedule(song, patterns, scheduleOptions(cfg)...)
	if err != nil {
		return err
	}
	return report.Schedule(os.Stdout, sched, limit)
}

func play(cfg config.Config, path, instrPath string) error {
	song, patterns, err := load(cfg, path, instrPath)
	if err != nil {
		return err
	}
	kind, err := audio.ParseKind(cfg.Backend)
	if err != nil {
		return err
	}
	pl, err := clidaw.NewPlayer(cfg.SampleRate,
		clidaw.WithBackend(kind),
		clidaw.WithParams(cfg.EngineParams()),
		clidaw.WithBufferFrames(cfg.BufferFrames),
		clidaw.WithScheduleOptions(scheduleOptions(cfg)...),
	)
	if err != nil {
		return err
	}
	defer pl.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	events := pl.Watch()
	if err := pl.Play(song, patterns); err != nil {
		return err
	}
	slog.Info("playing", "file", path, "tracks", len(song.Tracks), "backend", kind, "sample_rate", cfg.SampleRate)

	select {
	case ev := <-events:
		slog.Info("playback finished", "event", ev.Kind, "position", ev.Position)
		return pl.Err()
	case <-ctx.Done():
	}

	// First interrupt lets the release tails ring out; a second one halts.
	slog.Info("stopping")
	pl.Stop()
	hard, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	select {
	case ev := <-events:
		slog.Info("playback finished", "event", ev.Kind, "position", ev.Position)
		return nil
	case <-hard.Done():
		slog.Warn("halting")
		return pl.Halt()
	}
}
