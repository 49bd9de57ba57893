package api

import "fmt"

// Config controls the embedded HTTP API server.
type Config struct {
	Enabled bool   `json:"enabled"`
	Addr    string `json:"addr"`
	// Token, when non-empty, must be presented as "Bearer <token>" on
	// every /api/ route. /healthz stays open for probes.
	Token string `json:"token"`
}

// SetDefaults applies sane defaults.
func (c *Config) SetDefaults() {
	if c.Addr == "" {
		c.Addr = ":8088"
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if c.Enabled && c.Addr == "" {
		return fmt.Errorf("addr is required when the api is enabled")
	}
	return nil
}
