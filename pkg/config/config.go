// Package config loads the settings of the voicecapture commands.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/xaionaro-go/voicecapture/pkg/format"
	"gopkg.in/yaml.v3"
)

const EnvPrefix = "VOICECAPTURE_"

type Mode string

const (
	ModeDevelopment Mode = "development"
	ModeProduction  Mode = "production"
)

type Config struct {
	Mode    Mode          `yaml:"mode" validate:"oneof=development production"`
	Audio   AudioConfig   `yaml:"audio"`
	Capture CaptureConfig `yaml:"capture"`
	Store   StoreConfig   `yaml:"store"`
	API     APIConfig     `yaml:"api"`
	Export  ExportConfig  `yaml:"export"`
}

type AudioConfig struct {
	// Format is the preferred format of stored recordings: webm, mp4, mp3
	// or empty for the platform default.
	Format string `yaml:"format"`
}

type CaptureConfig struct {
	SampleRate         int `yaml:"sample_rate" validate:"gt=0"`
	Channels           int `yaml:"channels" validate:"min=1,max=2"`
	MaxDurationMS      int `yaml:"max_duration_ms" validate:"gt=0"`
	AudioBitsPerSecond int `yaml:"audio_bits_per_second" validate:"gt=0"`
	TimeSliceMS        int `yaml:"time_slice_ms" validate:"gt=0"`
}

func (c CaptureConfig) MaxDuration() time.Duration {
	return time.Duration(c.MaxDurationMS) * time.Millisecond
}

func (c CaptureConfig) TimeSlice() time.Duration {
	return time.Duration(c.TimeSliceMS) * time.Millisecond
}

type StoreConfig struct {
	Path string `yaml:"path" validate:"required"`
}

type APIConfig struct {
	BaseURL   string `yaml:"base_url" validate:"omitempty,url"`
	TimeoutMS int    `yaml:"timeout_ms" validate:"gt=0"`
}

func (c APIConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutMS) * time.Millisecond
}

type ExportConfig struct {
	Dir string `yaml:"dir"`
}

func Default() Config {
	return Config{
		Mode: ModeDevelopment,
		Capture: CaptureConfig{
			SampleRate:         48000,
			Channels:           1,
			MaxDurationMS:      8000,
			AudioBitsPerSecond: 768000,
			TimeSliceMS:        1000,
		},
		Store: StoreConfig{
			Path: "./data/voicecapture.db",
		},
		API: APIConfig{
			BaseURL:   "http://localhost:8000",
			TimeoutMS: 60000,
		},
		Export: ExportConfig{
			Dir: ".",
		},
	}
}

// IsProduction reports whether debug exports are disabled.
func (c Config) IsProduction() bool {
	return c.Mode == ModeProduction
}

func (c Config) Preference() format.Preference {
	pref, err := format.ParsePreference(c.Audio.Format)
	if err != nil {
		return format.PreferenceDefault
	}
	return pref
}

// Load reads the YAML file at path (if non-empty) on top of Default,
// then applies the environment overrides and validates the result.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				return cfg, fmt.Errorf("config file not found: %w", err)
			}
			return cfg, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("failed to parse config file: %w", err)
		}
	}
	applyEnvOverrides(&cfg)
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	overrideString((*string)(&cfg.Mode), EnvPrefix+"MODE")
	overrideString(&cfg.Audio.Format, EnvPrefix+"AUDIO_FORMAT")
	overrideInt(&cfg.Capture.SampleRate, EnvPrefix+"CAPTURE_SAMPLE_RATE")
	overrideInt(&cfg.Capture.Channels, EnvPrefix+"CAPTURE_CHANNELS")
	overrideInt(&cfg.Capture.MaxDurationMS, EnvPrefix+"CAPTURE_MAX_DURATION_MS")
	overrideInt(&cfg.Capture.AudioBitsPerSecond, EnvPrefix+"CAPTURE_AUDIO_BITS_PER_SECOND")
	overrideInt(&cfg.Capture.TimeSliceMS, EnvPrefix+"CAPTURE_TIME_SLICE_MS")
	overrideString(&cfg.Store.Path, EnvPrefix+"STORE_PATH")
	overrideString(&cfg.API.BaseURL, EnvPrefix+"API_BASE_URL")
	overrideInt(&cfg.API.TimeoutMS, EnvPrefix+"API_TIMEOUT_MS")
	overrideString(&cfg.Export.Dir, EnvPrefix+"EXPORT_DIR")
}

func overrideString(target *string, envKey string) {
	if value, ok := os.LookupEnv(envKey); ok && strings.TrimSpace(value) != "" {
		*target = value
	}
}

func overrideInt(target *int, envKey string) {
	if value, ok := os.LookupEnv(envKey); ok {
		if parsed, err := strconv.Atoi(value); err == nil {
			*target = parsed
		}
	}
}

var validate = validator.New()

func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if _, err := format.ParsePreference(c.Audio.Format); err != nil {
		return fmt.Errorf("invalid config: audio.format: %w", err)
	}
	if !c.IsProduction() && c.Export.Dir == "" {
		return errors.New("invalid config: export.dir must not be empty outside of production mode")
	}
	return nil
}
