package platform

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"

	"github.com/aretw0/tastewalk/pkg/core"
)

const (
	// EnvPrefix prefixes every environment override, e.g. TASTEWALK_WALK__BACK_PROB.
	EnvPrefix = "TASTEWALK_"
	// ConfigPathEnvVar overrides the configuration file path.
	ConfigPathEnvVar = EnvPrefix + "CONFIG"
)

// Config is the whole tastewalk configuration.
type Config struct {
	DataDir string        `koanf:"data_dir" validate:"required"`
	Kind    string        `koanf:"kind" validate:"required"`
	Format  string        `koanf:"format" validate:"oneof=json yaml"`
	Backend string        `koanf:"backend" validate:"oneof=fs badger sqlite memory"`
	Seed    string        `koanf:"seed"`
	Walk    WalkConfig    `koanf:"walk"`
	Tags    TagsConfig    `koanf:"tags"`
	LastFM  LastFMConfig  `koanf:"lastfm"`
	Log     LogConfig     `koanf:"log"`
	Metrics MetricsConfig `koanf:"metrics"`
}

// WalkConfig tunes the random walk.
type WalkConfig struct {
	MaxDegree     int           `koanf:"max_degree" validate:"min=1"`
	BackProb      float64       `koanf:"back_prob" validate:"gte=0,lte=1"`
	MaxFallback   int           `koanf:"max_fallback" validate:"gte=0"`
	Autosave      bool          `koanf:"autosave"`
	MaxSteps      int           `koanf:"max_steps" validate:"gte=0"`
	RetryAttempts int           `koanf:"retry_attempts" validate:"gte=0"`
	RetryDelay    time.Duration `koanf:"retry_delay" validate:"gte=0"`
}

// TagsConfig tunes tag gathering and batch collection.
type TagsConfig struct {
	Limit    int           `koanf:"limit" validate:"min=1"`
	Autosave bool          `koanf:"autosave"`
	Show     bool          `koanf:"show"`
	Attempts int           `koanf:"attempts" validate:"min=1"`
	Delay    time.Duration `koanf:"delay" validate:"gte=0"`
}

// LastFMConfig configures the similarity source.
type LastFMConfig struct {
	APIKey          string        `koanf:"api_key"`
	BaseURL         string        `koanf:"base_url" validate:"omitempty,url"`
	Timeout         time.Duration `koanf:"timeout" validate:"gte=0"`
	RateLimit       float64       `koanf:"rate_limit" validate:"gte=0"`
	Burst           int           `koanf:"burst" validate:"gte=0"`
	MaxRetries      int           `koanf:"max_retries" validate:"gte=0"`
	BreakerFailures uint32        `koanf:"breaker_failures"`
	BreakerTimeout  time.Duration `koanf:"breaker_timeout" validate:"gte=0"`
}

// LogConfig configures the process logger.
type LogConfig struct {
	Level  string `koanf:"level" validate:"oneof=debug info warn error"`
	Format string `koanf:"format" validate:"oneof=console json"`
}

// MetricsConfig configures the metrics export.
type MetricsConfig struct {
	// File receives the metrics in text exposition format when the process ends.
	File string `koanf:"file"`
}

// DefaultConfig returns the configuration used when nothing overrides it.
func DefaultConfig() *Config {
	return &Config{
		DataDir: "data",
		Kind:    core.KindWalk,
		Format:  "json",
		Backend: "fs",
		Seed:    "john coltrane",
		Walk: WalkConfig{
			MaxDegree:     100,
			BackProb:      0.1,
			Autosave:      true,
			RetryAttempts: 0,
			RetryDelay:    5 * time.Second,
		},
		Tags: TagsConfig{
			Limit:    100,
			Autosave: true,
			Attempts: 50,
			Delay:    5 * time.Second,
		},
		LastFM: LastFMConfig{
			BaseURL:         "https://ws.audioscrobbler.com/2.0/",
			Timeout:         30 * time.Second,
			RateLimit:       5,
			Burst:           1,
			MaxRetries:      5,
			BreakerFailures: 5,
			BreakerTimeout:  30 * time.Second,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// LoadConfig layers, from lowest to highest priority: defaults, the YAML
// file at path (or found by FindConfig when path is empty), TASTEWALK_*
// environment variables and overrides keyed by koanf path (e.g. "walk.back_prob").
func LoadConfig(path string, overrides map[string]any) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(DefaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path == "" {
		path = os.Getenv(ConfigPathEnvVar)
	}
	if path == "" {
		if wd, err := os.Getwd(); err == nil {
			path, _ = FindConfig(wd)
		}
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	for key, value := range overrides {
		if err := k.Set(key, value); err != nil {
			return nil, fmt.Errorf("failed to set %s: %w", key, err)
		}
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// envTransformFunc maps TASTEWALK_WALK__BACK_PROB to walk.back_prob.
func envTransformFunc(key string) string {
	key = strings.ToLower(strings.TrimPrefix(key, EnvPrefix))
	return strings.ReplaceAll(key, "__", ".")
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks field constraints and the snapshot kind.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s must satisfy %s", fe.Namespace(), describe(fe)))
			}
			return errors.New(strings.Join(msgs, "; "))
		}
		return err
	}
	return core.ValidateKind(c.Kind)
}

func describe(fe validator.FieldError) string {
	if fe.Param() == "" {
		return fe.Tag()
	}
	return fe.Tag() + "=" + fe.Param()
}

// MarshalConfig renders cfg as the YAML accepted by LoadConfig.
func MarshalConfig(cfg *Config) ([]byte, error) {
	k := koanf.New(".")
	if err := k.Load(structs.Provider(cfg, "koanf"), nil); err != nil {
		return nil, err
	}
	return k.Marshal(yaml.Parser())
}
