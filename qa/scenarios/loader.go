// Package scenarios runs controller behavior cases loaded from YAML
// fixtures, so the interesting situations read as data instead of test
// code.
package scenarios

import (
	"os"

	"gopkg.in/yaml.v3"
)

// PriceDef is one price point with hour offsets relative to the
// scenario clock. A nil value means the interval is known but unpriced.
type PriceDef struct {
	StartHours float64  `yaml:"start_hours"`
	EndHours   float64  `yaml:"end_hours"`
	Value      *float64 `yaml:"value"`
}

// SourceDef describes one price source feeding the scenario.
type SourceDef struct {
	Name     string `yaml:"name"`
	Required bool   `yaml:"required"`
	// Unavailable makes the source fail instead of returning points.
	Unavailable bool       `yaml:"unavailable,omitempty"`
	Points      []PriceDef `yaml:"points,omitempty"`
}

// Expected lists the assertions made after the evaluation.
type Expected struct {
	Status string `yaml:"status"`
	// Command is "on", "off" or "none".
	Command        string   `yaml:"command"`
	ReasonContains string   `yaml:"reason_contains,omitempty"`
	TimeLeftAttr   string   `yaml:"time_left_attr,omitempty"`
	NeedSeconds    int      `yaml:"need_seconds,omitempty"`
	NextStartHours *float64 `yaml:"next_start_hours,omitempty"`
}

// Scenario is one behavior case.
type Scenario struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description,omitempty"`
	// Active is the enable flag, defaulting to true.
	Active        *bool  `yaml:"active,omitempty"`
	InitialStatus string `yaml:"initial_status,omitempty"`
	// NeedSeconds presets the session's known charge need.
	NeedSeconds int               `yaml:"need_seconds,omitempty"`
	FinishBy    string            `yaml:"finish_by,omitempty"`
	Entities    map[string]string `yaml:"entities"`
	// StaleSeconds backdates an entity's last change by this many
	// seconds; everything else reads as changed just before the run.
	StaleSeconds map[string]int `yaml:"stale_seconds,omitempty"`
	Sources      []SourceDef    `yaml:"sources,omitempty"`
	Expected     Expected       `yaml:"expected"`
}

// Load reads one scenario fixture.
func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var sc Scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, err
	}
	return &sc, nil
}
