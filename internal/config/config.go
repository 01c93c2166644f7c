// Package config loads the tavern-watch configuration.
//
// Loading starts from the defaults, applies an optional YAML file, then
// TAVERN_WATCH_* environment variables, and validates the result. A value set
// explicitly is validated as given and never replaced by a default.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "TAVERN_WATCH_"

// Config is the full service configuration.
type Config struct {
	ListenAddr  string `yaml:"listen_addr" env:"LISTEN_ADDR"`
	LogLevel    string `yaml:"log_level" env:"LOG_LEVEL"`
	LogFormat   string `yaml:"log_format" env:"LOG_FORMAT"`
	TemplateDir string `yaml:"template_dir" env:"TEMPLATE_DIR"`
	MinionsPath string `yaml:"minions_path" env:"MINIONS_PATH"`
	HeroesPath  string `yaml:"heroes_path" env:"HEROES_PATH"`
	FrameDir    string `yaml:"frame_dir" env:"FRAME_DIR"`
	MCPStdio    bool   `yaml:"mcp_stdio" env:"MCP_STDIO"`

	Recognition RecognitionConfig `yaml:"recognition" envPrefix:"RECOGNITION_"`
	Schedule    ScheduleConfig    `yaml:"schedule" envPrefix:"SCHEDULE_"`
	Delivery    DeliveryConfig    `yaml:"delivery" envPrefix:"DELIVERY_"`
}

// RecognitionConfig tunes the matcher and snapshot builder.
type RecognitionConfig struct {
	Threshold float64   `yaml:"threshold" env:"THRESHOLD"`
	ShopSlots int       `yaml:"shop_slots" env:"SHOP_SLOTS"`
	Scales    []float64 `yaml:"scales" env:"SCALES" envSeparator:","`
}

// ScheduleConfig holds the delays between pipeline cycles.
type ScheduleConfig struct {
	NormalInterval time.Duration `yaml:"normal_interval" env:"NORMAL_INTERVAL"`
	FailureBackoff time.Duration `yaml:"failure_backoff" env:"FAILURE_BACKOFF"`
}

// DeliveryConfig tunes the WebSocket delivery channel.
type DeliveryConfig struct {
	// WriteTimeout bounds a single frame write; zero means no deadline.
	WriteTimeout time.Duration `yaml:"write_timeout" env:"WRITE_TIMEOUT"`
}

func (c *Config) defaults() {
	if c.ListenAddr == "" {
		c.ListenAddr = "127.0.0.1:8000"
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.LogFormat == "" {
		c.LogFormat = "text"
	}
	if c.TemplateDir == "" {
		c.TemplateDir = "static/media"
	}
	if c.MinionsPath == "" {
		c.MinionsPath = "data/bgs/minions.json"
	}
	if c.HeroesPath == "" {
		c.HeroesPath = "data/bgs/heroes.json"
	}
	if c.FrameDir == "" {
		c.FrameDir = "frames"
	}
	if c.Recognition.Threshold == 0 {
		c.Recognition.Threshold = 0.6
	}
	if c.Recognition.ShopSlots == 0 {
		c.Recognition.ShopSlots = 7
	}
	if len(c.Recognition.Scales) == 0 {
		c.Recognition.Scales = []float64{0.8, 0.9, 1.0, 1.1, 1.2}
	}
	if c.Schedule.NormalInterval == 0 {
		c.Schedule.NormalInterval = 100 * time.Millisecond
	}
	if c.Schedule.FailureBackoff == 0 {
		c.Schedule.FailureBackoff = time.Second
	}
}

// Default returns the configuration used when no file or overrides are given.
func Default() *Config {
	c := &Config{}
	c.defaults()
	return c
}

// Load starts from Default, applies path (skipped when empty) and the
// environment overrides, and validates the result.
func Load(path string) (*Config, error) {
	c := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, c); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	if err := env.ParseWithOptions(c, env.Options{Prefix: EnvPrefix}); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Validate checks that values are usable.
func (c *Config) Validate() error {
	var errs []error
	if c.ListenAddr == "" {
		errs = append(errs, errors.New("listen_addr is required"))
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, err)
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("log_format %q: use text or json", c.LogFormat))
	}
	if t := c.Recognition.Threshold; t <= 0 || t >= 1 {
		errs = append(errs, fmt.Errorf("recognition.threshold %v: must be in (0,1)", t))
	}
	if c.Recognition.ShopSlots <= 0 {
		errs = append(errs, errors.New("recognition.shop_slots must be > 0"))
	}
	if len(c.Recognition.Scales) == 0 {
		errs = append(errs, errors.New("recognition.scales must not be empty"))
	}
	for i, s := range c.Recognition.Scales {
		if s <= 0 {
			errs = append(errs, fmt.Errorf("recognition.scales[%d] %v: must be > 0", i, s))
		}
	}
	if c.Schedule.NormalInterval <= 0 {
		errs = append(errs, errors.New("schedule.normal_interval must be > 0"))
	}
	if c.Schedule.FailureBackoff <= 0 {
		errs = append(errs, errors.New("schedule.failure_backoff must be > 0"))
	}
	if c.Delivery.WriteTimeout < 0 {
		errs = append(errs, errors.New("delivery.write_timeout must be >= 0"))
	}
	return errors.Join(errs...)
}
