package worker

import "fmt"

// Config tunes the scheduling behavior of the worker loop.
type Config struct {
	// DebounceSeconds delays reactive re-evaluations so bursts of input
	// changes collapse into a single run.
	DebounceSeconds float64 `json:"debounce_seconds"`
	// MaxSleepSeconds caps the time between two evaluations.
	MaxSleepSeconds int `json:"max_sleep_seconds"`
	// RetrySleepSeconds caps the sleep after a failed run.
	RetrySleepSeconds int `json:"retry_sleep_seconds"`
	// PersistEverySeconds sets how often the session snapshot is saved.
	PersistEverySeconds int `json:"persist_every_seconds"`
}

// SetDefaults applies sane defaults.
func (c *Config) SetDefaults() {
	if c.DebounceSeconds == 0 {
		c.DebounceSeconds = 2
	}
	if c.MaxSleepSeconds == 0 {
		c.MaxSleepSeconds = 3600
	}
	if c.RetrySleepSeconds == 0 {
		c.RetrySleepSeconds = 300
	}
	if c.PersistEverySeconds == 0 {
		c.PersistEverySeconds = 86400
	}
}

// Validate checks the tuning values.
func (c Config) Validate() error {
	if c.DebounceSeconds < 0 {
		return fmt.Errorf("debounce_seconds must not be negative")
	}
	if c.MaxSleepSeconds <= 0 {
		return fmt.Errorf("max_sleep_seconds must be positive")
	}
	if c.RetrySleepSeconds <= 0 {
		return fmt.Errorf("retry_sleep_seconds must be positive")
	}
	if c.PersistEverySeconds <= 0 {
		return fmt.Errorf("persist_every_seconds must be positive")
	}
	return nil
}
