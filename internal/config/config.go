package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/stairlog/agent/internal/session"
)

const (
	// DefaultPath is read when STAIRLOG_CONFIG is unset.
	DefaultPath = "stairlog.yaml"

	// PathEnv overrides the config file location.
	PathEnv = "STAIRLOG_CONFIG"
)

// Sink kinds.
const (
	SinkCSV    = "csv"
	SinkSQLite = "sqlite"
	SinkBoth   = "both"
)

type Config struct {
	Button  ButtonConfig  `yaml:"button"`
	Sampler SamplerConfig `yaml:"sampler"`
	Sensor  SensorConfig  `yaml:"sensor"`
	Display DisplayConfig `yaml:"display"`
	Sink    SinkConfig    `yaml:"sink"`
	Status  StatusConfig  `yaml:"status"`
	Health  HealthConfig  `yaml:"health"`
}

type ButtonConfig struct {
	Pin               string        `yaml:"pin"`
	PollInterval      time.Duration `yaml:"poll_interval"`
	Debounce          time.Duration `yaml:"debounce"`
	DoubleClickWindow time.Duration `yaml:"double_click_window"`
}

type SamplerConfig struct {
	Period       time.Duration `yaml:"period"`
	IdleInterval time.Duration `yaml:"idle_interval"`
	DefaultLabel string        `yaml:"default_label"`
}

type SensorConfig struct {
	Bus     string  `yaml:"bus"` // empty selects the first I2C bus
	Address uint16  `yaml:"address"`
	Scale   float64 `yaml:"scale"` // g per LSB
}

type DisplayConfig struct {
	Bus     string `yaml:"bus"`
	Address uint16 `yaml:"address"`
	Width   int    `yaml:"width"`
	Height  int    `yaml:"height"`
}

type SinkConfig struct {
	Kind       string `yaml:"kind"`
	Dir        string `yaml:"dir"`
	SQLitePath string `yaml:"sqlite_path"`
}

// StatusConfig controls the optional websocket status feed. An empty Addr
// disables it.
type StatusConfig struct {
	Addr             string        `yaml:"addr"`
	SnapshotInterval time.Duration `yaml:"snapshot_interval"`
}

type HealthConfig struct {
	Schedule         string `yaml:"schedule"`
	FailureThreshold int    `yaml:"failure_threshold"`
}

func defaultConfig() *Config {
	return &Config{
		Button: ButtonConfig{
			Pin:               "GPIO17",
			PollInterval:      5 * time.Millisecond,
			Debounce:          50 * time.Millisecond,
			DoubleClickWindow: 350 * time.Millisecond,
		},
		Sampler: SamplerConfig{
			Period:       20 * time.Millisecond,
			IdleInterval: 50 * time.Millisecond,
			DefaultLabel: session.WalkingUp.String(),
		},
		Sensor: SensorConfig{
			Address: 0x6A,
			Scale:   0.000061,
		},
		Display: DisplayConfig{
			Address: 0x3D,
			Width:   64,
			Height:  48,
		},
		Sink: SinkConfig{
			Kind:       SinkCSV,
			Dir:        "data",
			SQLitePath: "data/samples.db",
		},
		Status: StatusConfig{
			SnapshotInterval: 5 * time.Second,
		},
		Health: HealthConfig{
			Schedule:         "@every 1m",
			FailureThreshold: 3,
		},
	}
}

// Default returns the built-in configuration.
func Default() *Config {
	return defaultConfig()
}

// Load reads path and overlays it on the defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := defaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// LoadOrDefault behaves like Load but returns the defaults when path does
// not exist.
func LoadOrDefault(path string) (*Config, error) {
	cfg, err := Load(path)
	if errors.Is(err, os.ErrNotExist) {
		return defaultConfig(), nil
	}
	return cfg, err
}

// Path returns the config file location, honouring STAIRLOG_CONFIG.
func Path() string {
	if p := os.Getenv(PathEnv); p != "" {
		return p
	}
	return DefaultPath
}

// Validate checks the timing contracts the loops rely on.
func (c *Config) Validate() error {
	if c.Button.PollInterval <= 0 {
		return fmt.Errorf("button.poll_interval must be positive, got %v", c.Button.PollInterval)
	}
	if c.Button.Debounce <= 0 {
		return fmt.Errorf("button.debounce must be positive, got %v", c.Button.Debounce)
	}
	if c.Button.DoubleClickWindow <= c.Button.Debounce {
		return fmt.Errorf("button.double_click_window (%v) must exceed button.debounce (%v)",
			c.Button.DoubleClickWindow, c.Button.Debounce)
	}
	if c.Sampler.Period <= 0 {
		return fmt.Errorf("sampler.period must be positive, got %v", c.Sampler.Period)
	}
	if c.Sampler.IdleInterval <= 0 {
		return fmt.Errorf("sampler.idle_interval must be positive, got %v", c.Sampler.IdleInterval)
	}
	if _, ok := session.ParseLabel(c.Sampler.DefaultLabel); !ok {
		return fmt.Errorf("sampler.default_label %q is not a known label", c.Sampler.DefaultLabel)
	}
	switch c.Sink.Kind {
	case SinkCSV, SinkSQLite, SinkBoth:
	default:
		return fmt.Errorf("sink.kind %q must be one of csv, sqlite, both", c.Sink.Kind)
	}
	if c.Status.Addr != "" && c.Status.SnapshotInterval <= 0 {
		return fmt.Errorf("status.snapshot_interval must be positive when status.addr is set, got %v", c.Status.SnapshotInterval)
	}
	if c.Health.FailureThreshold < 1 {
		return fmt.Errorf("health.failure_threshold must be at least 1, got %d", c.Health.FailureThreshold)
	}
	return nil
}

// InitialLabel returns the label the session starts with.
func (c *Config) InitialLabel() session.Label {
	l, ok := session.ParseLabel(c.Sampler.DefaultLabel)
	if !ok {
		return session.WalkingUp
	}
	return l
}
