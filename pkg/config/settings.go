package config

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
)

const (
	envPrefix         = "FAIRRL_"
	maxConfigFileSize = 1024 * 1024 // 1MB
)

//go:embed defaults.yaml
var defaultSettings []byte

// EpisodeSettings holds the per-kind episode lengths
type EpisodeSettings struct {
	EpTimesteps     int `koanf:"ep_timesteps"`
	EpTimestepsEval int `koanf:"ep_timesteps_eval"`
}

// LogSettings controls the process logger
type LogSettings struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// Settings holds the experiment constants shared by every run
type Settings struct {
	ExpDir       string  `koanf:"exp_dir"`
	SaveFreq     int     `koanf:"save_freq"`     // checkpoint cadence in steps
	EvalInterval int     `koanf:"eval_interval"` // evaluation cadence in steps
	EvalNumEps   int     `koanf:"eval_num_eps"`
	PlotSmooth   int     `koanf:"plot_smooth"`
	Gamma        float64 `koanf:"gamma"`
	ClipRange    float64 `koanf:"clip_range"`

	Attention EpisodeSettings `koanf:"attention"`
	Lending   EpisodeSettings `koanf:"lending"`
	Log       LogSettings     `koanf:"log"`
}

// Episodes returns the episode lengths for kind
func (s Settings) Episodes(kind EnvKind) EpisodeSettings {
	if kind == EnvLending {
		return s.Lending
	}
	return s.Attention
}

// LoadSettings loads settings from the embedded defaults, then the YAML
// file at path (if non-empty), then FAIRRL_* environment variables.
//
//	FAIRRL_EXP_DIR                  -> exp_dir
//	FAIRRL_ATTENTION_EP_TIMESTEPS   -> attention.ep_timesteps
//	FAIRRL_LOG_LEVEL                -> log.level
func LoadSettings(path string) (Settings, error) {
	k := koanf.New(".")

	if err := k.Load(rawbytes.Provider(defaultSettings), yaml.Parser()); err != nil {
		return Settings{}, fmt.Errorf("failed to load default settings: %w", err)
	}

	if path != "" {
		info, err := os.Stat(path)
		if err != nil {
			return Settings{}, fmt.Errorf("failed to stat settings file: %w", err)
		}
		if info.Size() > maxConfigFileSize {
			return Settings{}, fmt.Errorf("settings file %s too large: %d bytes", path, info.Size())
		}
		content, err := os.ReadFile(path)
		if err != nil {
			return Settings{}, fmt.Errorf("failed to read settings file: %w", err)
		}
		if err := k.Load(rawbytes.Provider(content), yaml.Parser()); err != nil {
			return Settings{}, fmt.Errorf("failed to load settings file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(envPrefix, ".", envKey), nil); err != nil {
		return Settings{}, fmt.Errorf("failed to load environment variables: %w", err)
	}

	var s Settings
	if err := k.Unmarshal("", &s); err != nil {
		return Settings{}, fmt.Errorf("failed to unmarshal settings: %w", err)
	}
	if err := s.Validate(); err != nil {
		return Settings{}, fmt.Errorf("settings validation failed: %w", err)
	}
	return s, nil
}

// envKey maps FAIRRL_SECTION_FIELD_NAME to section.field_name for the
// nested sections and FAIRRL_FIELD_NAME to field_name otherwise.
func envKey(s string) string {
	key := strings.ToLower(strings.TrimPrefix(s, envPrefix))
	for _, section := range []string{"attention", "lending", "log"} {
		if strings.HasPrefix(key, section+"_") {
			return section + "." + strings.TrimPrefix(key, section+"_")
		}
	}
	return key
}

// Validate checks that every cadence and count is usable
func (s Settings) Validate() error {
	if s.ExpDir == "" {
		return fmt.Errorf("exp_dir is required")
	}
	if s.SaveFreq <= 0 {
		return fmt.Errorf("save_freq (%d) must be positive", s.SaveFreq)
	}
	if s.EvalInterval <= 0 {
		return fmt.Errorf("eval_interval (%d) must be positive", s.EvalInterval)
	}
	if s.EvalNumEps <= 0 {
		return fmt.Errorf("eval_num_eps (%d) must be positive", s.EvalNumEps)
	}
	if s.PlotSmooth <= 0 {
		return fmt.Errorf("plot_smooth (%d) must be positive", s.PlotSmooth)
	}
	if s.Gamma <= 0 || s.Gamma > 1 {
		return fmt.Errorf("gamma (%.3f) must be in (0, 1]", s.Gamma)
	}
	if s.ClipRange <= 0 {
		return fmt.Errorf("clip_range (%.3f) must be positive", s.ClipRange)
	}
	for name, eps := range map[string]EpisodeSettings{"attention": s.Attention, "lending": s.Lending} {
		if eps.EpTimesteps <= 0 || eps.EpTimestepsEval <= 0 {
			return fmt.Errorf("%s episode lengths must be positive", name)
		}
	}
	return nil
}
