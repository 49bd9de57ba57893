package config

import "fmt"

// PersistConfig locates the session snapshot file.
type PersistConfig struct {
	Path string `json:"path"`
}

// SetDefaults applies sane defaults.
func (c *PersistConfig) SetDefaults() {
	if c.Path == "" {
		c.Path = "smartcharge_state.json"
	}
}

// KPIConfig selects the daily KPI store.
type KPIConfig struct {
	// Backend selects the store type: "memory" or "sqlite".
	Backend string `json:"backend"`
	// Path is the database location for the sqlite backend.
	Path string `json:"path"`
}

// SetDefaults applies sane defaults.
func (c *KPIConfig) SetDefaults() {
	if c.Backend == "" {
		c.Backend = "memory"
	}
	if c.Backend == "sqlite" && c.Path == "" {
		c.Path = "smartcharge_kpi.db"
	}
}

// Validate checks the backend selection.
func (c KPIConfig) Validate() error {
	switch c.Backend {
	case "memory", "sqlite":
	default:
		return fmt.Errorf("unknown backend %s", c.Backend)
	}
	if c.Backend == "sqlite" && c.Path == "" {
		return fmt.Errorf("path is required for the sqlite backend")
	}
	return nil
}
