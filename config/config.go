// Package config loads the service configuration from a YAML or JSON file
// with optional environment overrides.
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

	"github.com/voltlab/smartcharge/api"
	"github.com/voltlab/smartcharge/core/charge"
	"github.com/voltlab/smartcharge/core/factory"
	"github.com/voltlab/smartcharge/core/history"
	"github.com/voltlab/smartcharge/core/metrics"
	"github.com/voltlab/smartcharge/core/worker"
	"github.com/voltlab/smartcharge/infra/hass"
	"github.com/voltlab/smartcharge/infra/monitoring"
	"github.com/voltlab/smartcharge/infra/mqtt"
)

type Config struct {
	MQTT    mqtt.Config            `json:"mqtt"`
	Hass    hass.Config            `json:"hass"`
	Charge  charge.Config          `json:"charge"`
	Worker  worker.Config          `json:"worker"`
	Prices  []factory.ModuleConfig `json:"prices"`
	Persist PersistConfig          `json:"persist"`
	History history.Config         `json:"history"`
	KPI     KPIConfig              `json:"kpi"`
	Metrics metrics.Config         `json:"metrics"`
	Sentry  monitoring.Config      `json:"sentry"`
	API     api.Config             `json:"api"`
}

// Load reads the file at path, applies SC_-prefixed environment overrides
// (SC_MQTT__BROKER sets mqtt.broker), fills defaults and validates.
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
	if err := k.Load(env.Provider("SC_", ".", func(s string) string {
		s = strings.TrimPrefix(strings.ToLower(s), "sc_")
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, err
	}
	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, err
	}
	cfg.MQTT.SetDefaults()
	cfg.Hass.SetDefaults()
	cfg.Charge.SetDefaults()
	cfg.Worker.SetDefaults()
	cfg.Persist.SetDefaults()
	cfg.History.SetDefaults()
	cfg.KPI.SetDefaults()
	cfg.Metrics.SetDefaults()
	cfg.API.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks every section.
func (c Config) Validate() error {
	if err := c.MQTT.Validate(); err != nil {
		return fmt.Errorf("mqtt: %w", err)
	}
	if err := c.Hass.Validate(); err != nil {
		return fmt.Errorf("hass: %w", err)
	}
	if err := c.Charge.Validate(); err != nil {
		return fmt.Errorf("charge: %w", err)
	}
	if err := c.Worker.Validate(); err != nil {
		return fmt.Errorf("worker: %w", err)
	}
	if err := c.History.Validate(); err != nil {
		return fmt.Errorf("history: %w", err)
	}
	if err := c.KPI.Validate(); err != nil {
		return fmt.Errorf("kpi: %w", err)
	}
	if err := c.API.Validate(); err != nil {
		return fmt.Errorf("api: %w", err)
	}
	if len(c.Prices) == 0 {
		return fmt.Errorf("prices: at least one price source is required")
	}
	return nil
}
