package charge

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Config wires the controller to the entities it observes and commands.
// Entity references use the "entity_id" or "entity_id,attribute" form.
type Config struct {
	// FinishBy is the clock time ("HH:MM" or "HH:MM:SS") by which charging
	// must be complete, or an entity reference holding such a value.
	// Empty means no deadline.
	FinishBy string `json:"finish_by"`
	// Timezone names the location whose midnight anchors price offsets.
	Timezone string `json:"timezone"`
	// ChargerSwitch is the switch commanded on and off.
	ChargerSwitch string `json:"charger_switch"`
	// ChargingState is the sensor reporting the charge state literal.
	ChargingState string `json:"charging_state"`
	// StateStopped, StateCharging and StateComplete are the literals the
	// charging state sensor reports. Matching is case-insensitive.
	StateStopped  string `json:"charging_state_stopped"`
	StateCharging string `json:"charging_state_charging"`
	StateComplete string `json:"charging_state_complete"`
	// DeviceTracker reports where the EV is.
	DeviceTracker string `json:"device_tracker"`
	// PresenceHome is the tracker value meaning the EV can use the charger.
	PresenceHome string `json:"presence_home"`
	// TimeLeft is the sensor reporting remaining charge time in hours.
	TimeLeft string `json:"time_left"`
}

// SetDefaults applies sane defaults.
func (c *Config) SetDefaults() {
	if c.Timezone == "" {
		c.Timezone = "Local"
	}
	if c.StateStopped == "" {
		c.StateStopped = "stopped"
	}
	if c.StateCharging == "" {
		c.StateCharging = "charging"
	}
	if c.StateComplete == "" {
		c.StateComplete = "complete"
	}
	if c.PresenceHome == "" {
		c.PresenceHome = "home"
	}
}

// Validate checks mandatory fields.
func (c Config) Validate() error {
	if c.ChargerSwitch == "" {
		return fmt.Errorf("charger_switch is required")
	}
	if c.ChargingState == "" {
		return fmt.Errorf("charging_state is required")
	}
	if c.DeviceTracker == "" {
		return fmt.Errorf("device_tracker is required")
	}
	if c.TimeLeft == "" {
		return fmt.Errorf("time_left is required")
	}
	if c.FinishBy != "" && !strings.Contains(c.FinishBy, ".") {
		if _, err := ParseClockOffset(c.FinishBy); err != nil {
			return fmt.Errorf("finish_by: %w", err)
		}
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("timezone: %w", err)
	}
	return nil
}

// Location returns the configured timezone.
func (c Config) Location() (*time.Location, error) {
	return time.LoadLocation(c.Timezone)
}

// ParseClockOffset converts a clock string to seconds since midnight.
// The first component is always hours: "07" and "07:00" both give 25200.
func ParseClockOffset(s string) (int, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) == 0 || len(parts) > 3 {
		return 0, fmt.Errorf("invalid clock time %q", s)
	}
	multipliers := []int{3600, 60, 1}
	seconds := 0
	for i, p := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return 0, fmt.Errorf("invalid clock time %q: %w", s, err)
		}
		seconds += v * multipliers[i]
	}
	return seconds, nil
}
