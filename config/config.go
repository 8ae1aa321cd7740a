package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/kilianp07/ehsim/core/factory"
	"github.com/kilianp07/ehsim/core/metrics"
	"github.com/kilianp07/ehsim/core/problem"
	"github.com/kilianp07/ehsim/infra/mqtt"
)

// EnvPrefix marks environment overrides. Nested keys are separated by a
// double underscore, e.g. EHSIM_OPTIMIZER__SEED=7.
const EnvPrefix = "EHSIM_"

type Config struct {
	Simulation SimulationConfig       `json:"simulation"`
	Encoding   EncodingConfig         `json:"encoding"`
	Optimizer  OptimizerConfig        `json:"optimizer"`
	Devices    []factory.ModuleConfig `json:"devices"`
	Pricing    problem.Pricing        `json:"pricing"`
	Metrics    metrics.Config         `json:"metrics"`
	Logging    LoggingConfig          `json:"logging"`
	MQTT       mqtt.Config            `json:"mqtt"`
	Sentry     SentryConfig           `json:"sentry"`
}

func Load(path string) (*Config, error) {
	k := koanf.New(".")
	ext := strings.ToLower(filepath.Ext(path))
	var parser koanf.Parser
	switch ext {
	case ".yaml", ".yml":
		parser = yaml.Parser()
	case ".json":
		parser = json.Parser()
	default:
		return nil, fmt.Errorf("unsupported config format: %s", ext)
	}
	if err := k.Load(file.Provider(path), parser); err != nil {
		return nil, err
	}
	// Optional environment overrides
	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, err
	}
	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, err
	}
	if dir := filepath.Dir(path); cfg.Simulation.Layout != "" && !filepath.IsAbs(cfg.Simulation.Layout) {
		cfg.Simulation.Layout = filepath.Join(dir, cfg.Simulation.Layout)
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func envKey(s string) string {
	s = strings.TrimPrefix(strings.ToLower(s), strings.ToLower(EnvPrefix))
	return strings.ReplaceAll(s, "__", ".")
}

// SetDefaults applies the defaults of every section.
func (c *Config) SetDefaults() {
	c.Simulation.SetDefaults()
	c.Encoding.SetDefaults()
	c.Optimizer.SetDefaults()
	c.Logging.SetDefaults()
	if c.MQTT.Enabled() {
		c.MQTT.SetDefaults()
	}
	c.applyActivation()
}

// Validate checks every section.
func (c Config) Validate() error {
	if err := c.Simulation.Validate(); err != nil {
		return fmt.Errorf("simulation: %w", err)
	}
	if err := c.Encoding.Validate(); err != nil {
		return fmt.Errorf("encoding: %w", err)
	}
	if err := c.Optimizer.Validate(); err != nil {
		return fmt.Errorf("optimizer: %w", err)
	}
	if len(c.Devices) == 0 {
		return fmt.Errorf("devices: at least one device is required")
	}
	for i, d := range c.Devices {
		if d.Type == "" {
			return fmt.Errorf("devices[%d]: type is required", i)
		}
	}
	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("logging: %w", err)
	}
	if err := c.Sentry.Validate(); err != nil {
		return fmt.Errorf("sentry: %w", err)
	}
	if c.MQTT.Enabled() {
		if err := c.MQTT.Validate(); err != nil {
			return fmt.Errorf("mqtt: %w", err)
		}
	}
	return nil
}

// applyActivation copies encoding.activation_seconds into controllable
// devices that do not set their own.
func (c *Config) applyActivation() {
	if c.Encoding.ActivationSeconds <= 0 {
		return
	}
	for i, d := range c.Devices {
		if d.Type != "chp" && d.Type != "chiller" {
			continue
		}
		if c.Devices[i].Conf == nil {
			c.Devices[i].Conf = map[string]any{}
		}
		if _, ok := c.Devices[i].Conf["activation_seconds"]; !ok {
			c.Devices[i].Conf["activation_seconds"] = c.Encoding.ActivationSeconds
		}
	}
}
