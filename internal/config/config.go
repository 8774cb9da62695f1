package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/cbegin/clidaw-go/internal/audio"
	"github.com/cbegin/clidaw-go/internal/engine"
	"github.com/cbegin/clidaw-go/internal/score"
	"github.com/cbegin/clidaw-go/internal/voice"
)

// EnvPrefix prefixes every environment override, e.g. CLIDAW_SAMPLE_RATE.
const EnvPrefix = "CLIDAW_"

// Config holds player and CLI settings. Precedence, lowest first: Default,
// YAML file, environment, command-line flags.
type Config struct {
	SampleRate   int              `yaml:"sample_rate"`
	Channels     int              `yaml:"channels"`
	Backend      string           `yaml:"backend"`
	BufferFrames int              `yaml:"buffer_frames"`
	Polyphony    int              `yaml:"polyphony"`
	MasterGain   float64          `yaml:"master_gain"`
	Tempo        float64          `yaml:"tempo"` // 0 keeps the song tempo
	Transpose    int              `yaml:"transpose"`
	Repeat       int              `yaml:"repeat"`
	LogLevel     string           `yaml:"log_level"`
	Instrument   score.Instrument `yaml:"instrument"` // used when playing a lone pattern
}

func Default() Config {
	return Config{
		SampleRate:   48000,
		Channels:     engine.DefaultChannels,
		Backend:      string(audio.KindEbiten),
		BufferFrames: 1024,
		Polyphony:    voice.DefaultPolyphony,
		MasterGain:   engine.DefaultMasterGain,
		Repeat:       1,
		LogLevel:     "info",
		Instrument:   score.DefaultInstrument(),
	}
}

// Load returns Default overlaid with the YAML file at path (if path is not
// empty) and then the environment.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config: %w", err)
		}
		if err := cfg.Decode(bytes.NewReader(data)); err != nil {
			return cfg, fmt.Errorf("config %s: %w", path, err)
		}
	}
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

// Decode overlays YAML onto cfg. Unknown keys are errors.
func (c *Config) Decode(r io.Reader) error {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// ApplyEnv overlays CLIDAW_* variables found through lookup.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	ints := map[string]*int{
		"SAMPLE_RATE":   &c.SampleRate,
		"CHANNELS":      &c.Channels,
		"BUFFER_FRAMES": &c.BufferFrames,
		"POLYPHONY":     &c.Polyphony,
		"TRANSPOSE":     &c.Transpose,
		"REPEAT":        &c.Repeat,
	}
	floats := map[string]*float64{
		"MASTER_GAIN": &c.MasterGain,
		"TEMPO":       &c.Tempo,
	}
	strs := map[string]*string{
		"BACKEND":   &c.Backend,
		"LOG_LEVEL": &c.LogLevel,
	}
	for name, dst := range ints {
		if v, ok := lookup(EnvPrefix + name); ok {
			n, err := strconv.Atoi(strings.TrimSpace(v))
			if err != nil {
				return fmt.Errorf("%s%s: %w", EnvPrefix, name, err)
			}
			*dst = n
		}
	}
	for name, dst := range floats {
		if v, ok := lookup(EnvPrefix + name); ok {
			f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
			if err != nil {
				return fmt.Errorf("%s%s: %w", EnvPrefix, name, err)
			}
			*dst = f
		}
	}
	for name, dst := range strs {
		if v, ok := lookup(EnvPrefix + name); ok {
			*dst = strings.TrimSpace(v)
		}
	}
	return nil
}

func (c Config) Validate() error {
	var errs []error
	if c.SampleRate < 8000 || c.SampleRate > 192000 {
		errs = append(errs, fmt.Errorf("sample_rate %d out of range 8000-192000", c.SampleRate))
	}
	if c.Channels < 1 || c.Channels > 8 {
		errs = append(errs, fmt.Errorf("channels %d out of range 1-8", c.Channels))
	}
	if _, err := audio.ParseKind(c.Backend); err != nil {
		errs = append(errs, err)
	}
	if c.BufferFrames < 0 {
		errs = append(errs, fmt.Errorf("buffer_frames must not be negative"))
	}
	if c.Polyphony < 1 {
		errs = append(errs, fmt.Errorf("polyphony must be at least 1"))
	}
	if !(c.MasterGain > 0 && c.MasterGain <= 1) {
		errs = append(errs, fmt.Errorf("master_gain %v out of range (0, 1]", c.MasterGain))
	}
	if !(c.Tempo >= 0) || math.IsInf(c.Tempo, 1) {
		errs = append(errs, fmt.Errorf("tempo must be finite and not negative"))
	}
	if c.Repeat < 1 {
		errs = append(errs, fmt.Errorf("repeat must be at least 1"))
	}
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("unknown log_level %q", c.LogLevel))
	}
	if err := c.Instrument.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("instrument: %w", err))
	}
	return errors.Join(errs...)
}

// EngineParams converts the mixing settings.
func (c Config) EngineParams() engine.Params {
	return engine.Params{
		Channels:   c.Channels,
		Polyphony:  c.Polyphony,
		MasterGain: c.MasterGain,
	}
}
