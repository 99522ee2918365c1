// Package config loads the typed runtime configuration from defaults, an
// optional YAML file and PILOT_* environment variables, in increasing order
// of precedence.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"browser-pilot/internal/application/port/output"

	"github.com/spf13/viper"
)

const (
	EnvPrefix    = "PILOT"
	DefaultModel = "openai/gpt-4o-mini"
)

type BrowserConfig struct {
	Headless          bool          `mapstructure:"headless"`
	NoSandbox         bool          `mapstructure:"no_sandbox"`
	Bin               string        `mapstructure:"bin"`
	SlowMotion        time.Duration `mapstructure:"slow_motion"`
	Timeout           time.Duration `mapstructure:"timeout"`
	NavigationTimeout time.Duration `mapstructure:"navigation_timeout"`
	ProbeTimeout      time.Duration `mapstructure:"probe_timeout"`
	MaxShotWidth      int           `mapstructure:"max_shot_width"`
	ShotQuality       int           `mapstructure:"shot_quality"`
}

type ControllerConfig struct {
	StepDelay time.Duration `mapstructure:"step_delay"`
	MaxLinks  int           `mapstructure:"max_links"`
}

type PerceptionConfig struct {
	MaxDepth    int `mapstructure:"max_depth"`
	MaxElements int `mapstructure:"max_elements"`
}

type IntentConfig struct {
	Policy string `mapstructure:"policy"`
}

type LLMConfig struct {
	APIKey      string        `mapstructure:"api_key"`
	Model       string        `mapstructure:"model"`
	BaseURL     string        `mapstructure:"base_url"`
	Timeout     time.Duration `mapstructure:"timeout"`
	Temperature float32       `mapstructure:"temperature"`
	MaxTokens   int           `mapstructure:"max_tokens"`
}

type ServerConfig struct {
	Addr            string        `mapstructure:"addr"`
	RateLimit       float64       `mapstructure:"rate_limit"`
	RateBurst       int           `mapstructure:"rate_burst"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	AllowedActions  []string      `mapstructure:"allowed_actions"`
}

type LogConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age"`
}

type AuditConfig struct {
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size"`
	MaxBackups int    `mapstructure:"max_backups"`
}

type MemoryConfig struct {
	Size int `mapstructure:"size"`
}

type Config struct {
	Browser    BrowserConfig    `mapstructure:"browser"`
	Controller ControllerConfig `mapstructure:"controller"`
	Perception PerceptionConfig `mapstructure:"perception"`
	Intent     IntentConfig     `mapstructure:"intent"`
	LLM        LLMConfig        `mapstructure:"llm"`
	Server     ServerConfig     `mapstructure:"server"`
	Log        LogConfig        `mapstructure:"log"`
	Audit      AuditConfig      `mapstructure:"audit"`
	Memory     MemoryConfig     `mapstructure:"memory"`
}

func SetDefaults(v *viper.Viper) {
	// -- Browser --
	v.SetDefault("browser.headless", true)
	v.SetDefault("browser.no_sandbox", false)
	v.SetDefault("browser.bin", "")
	v.SetDefault("browser.slow_motion", "0s")
	v.SetDefault("browser.timeout", "10s")
	v.SetDefault("browser.navigation_timeout", "30s")
	v.SetDefault("browser.probe_timeout", "5s")
	v.SetDefault("browser.max_shot_width", 1024)
	v.SetDefault("browser.shot_quality", 75)

	// -- Controller --
	v.SetDefault("controller.step_delay", "2s")
	v.SetDefault("controller.max_links", 30)

	// -- Perception --
	v.SetDefault("perception.max_depth", 5)
	v.SetDefault("perception.max_elements", 50)

	v.SetDefault("intent.policy", "prefer_message")

	// -- LLM --
	v.SetDefault("llm.api_key", "")
	v.SetDefault("llm.model", "")
	v.SetDefault("llm.base_url", "https://openrouter.ai/api/v1")
	v.SetDefault("llm.timeout", "60s")
	v.SetDefault("llm.temperature", 0.7)
	v.SetDefault("llm.max_tokens", 1024)

	// -- Server --
	v.SetDefault("server.addr", "127.0.0.1:8000")
	v.SetDefault("server.rate_limit", 2.0)
	v.SetDefault("server.rate_burst", 10)
	v.SetDefault("server.shutdown_timeout", "10s")
	v.SetDefault("server.allowed_actions", []string{})

	// -- Logging --
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("log.file", "")
	v.SetDefault("log.max_size", 100)
	v.SetDefault("log.max_backups", 5)
	v.SetDefault("log.max_age", 30)

	v.SetDefault("audit.file", "audit.log")
	v.SetDefault("audit.max_size", 50)
	v.SetDefault("audit.max_backups", 3)

	v.SetDefault("memory.size", 256)
}

// NewDefaultConfig returns the configuration with nothing but defaults.
func NewDefaultConfig() *Config {
	v := viper.New()
	SetDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		panic(fmt.Sprintf("failed to unmarshal default config: %v", err))
	}
	return &cfg
}

// Load reads path when it is non-empty, then applies the environment. The
// OPENROUTER_* variables fill the model settings when PILOT_LLM_* are unset;
// with an env source the model falls back to DefaultModel.
func Load(path string, env output.ConfigPort) (*Config, error) {
	v := viper.New()
	SetDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	return NewConfigFromViper(v, env)
}

func NewConfigFromViper(v *viper.Viper, env output.ConfigPort) (*Config, error) {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if env != nil {
		if cfg.LLM.APIKey == "" {
			cfg.LLM.APIKey = env.Get("OPENROUTER_API_KEY")
		}
		if cfg.LLM.Model == "" {
			cfg.LLM.Model = env.GetWithDefault("OPENROUTER_MODEL_NAME", DefaultModel)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	var errs []error
	if c.Controller.StepDelay < 0 {
		errs = append(errs, errors.New("controller.step_delay must not be negative"))
	}
	if c.Perception.MaxDepth <= 0 {
		errs = append(errs, errors.New("perception.max_depth must be a positive integer"))
	}
	if c.Perception.MaxElements <= 0 {
		errs = append(errs, errors.New("perception.max_elements must be a positive integer"))
	}
	if c.Server.RateLimit <= 0 || c.Server.RateBurst <= 0 {
		errs = append(errs, errors.New("server.rate_limit and server.rate_burst must be positive"))
	}
	if c.Memory.Size <= 0 {
		errs = append(errs, errors.New("memory.size must be a positive integer"))
	}
	if c.Browser.ShotQuality < 1 || c.Browser.ShotQuality > 100 {
		errs = append(errs, errors.New("browser.shot_quality must be between 1 and 100"))
	}
	return errors.Join(errs...)
}

// RequireLLM reports whether the model settings needed by chat are present.
func (c *Config) RequireLLM() error {
	if c.LLM.APIKey == "" {
		return errors.New("llm api key is missing: set PILOT_LLM_API_KEY or OPENROUTER_API_KEY")
	}
	if c.LLM.Model == "" {
		return errors.New("llm model is missing: set PILOT_LLM_MODEL or OPENROUTER_MODEL_NAME")
	}
	return nil
}
