package charge

import "testing"

func TestParseClockOffset(t *testing.T) {
	cases := []struct {
		in   string
		want int
		ok   bool
	}{
		{"07", 7 * 3600, true},
		{"07:00", 7 * 3600, true},
		{"07:30", 7*3600 + 30*60, true},
		{"07:30:15", 7*3600 + 30*60 + 15, true},
		{"7:5", 7*3600 + 5*60, true},
		{" 23:59 ", 23*3600 + 59*60, true},
		{"0:0:0", 0, true},
		{"ab", 0, false},
		{"1:2:3:4", 0, false},
		{"", 0, false},
	}
	for _, c := range cases {
		got, err := ParseClockOffset(c.in)
		if c.ok && err != nil {
			t.Errorf("ParseClockOffset(%q): unexpected error %v", c.in, err)
			continue
		}
		if !c.ok {
			if err == nil {
				t.Errorf("ParseClockOffset(%q): expected error", c.in)
			}
			continue
		}
		if got != c.want {
			t.Errorf("ParseClockOffset(%q) = %d want %d", c.in, got, c.want)
		}
	}
}

func TestConfigSetDefaults(t *testing.T) {
	var cfg Config
	cfg.SetDefaults()
	if cfg.StateStopped != "stopped" || cfg.StateCharging != "charging" || cfg.StateComplete != "complete" {
		t.Fatalf("unexpected state literals: %+v", cfg)
	}
	if cfg.PresenceHome != "home" {
		t.Fatalf("expected presence default home got %s", cfg.PresenceHome)
	}
	if cfg.Timezone != "Local" {
		t.Fatalf("expected timezone default Local got %s", cfg.Timezone)
	}
}

func TestConfigValidate(t *testing.T) {
	cfg := Config{
		ChargerSwitch: "switch.ev_charger",
		ChargingState: "binary_sensor.ev_charger,charging_state",
		DeviceTracker: "device_tracker.ev",
		TimeLeft:      "sensor.ev_charging,time_left",
		FinishBy:      "07:30",
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}

	missing := cfg
	missing.ChargerSwitch = ""
	if err := missing.Validate(); err == nil {
		t.Fatal("expected error for missing charger_switch")
	}

	badClock := cfg
	badClock.FinishBy = "25xx"
	if err := badClock.Validate(); err == nil {
		t.Fatal("expected error for unparsable finish_by literal")
	}

	entityRef := cfg
	entityRef.FinishBy = "sensor.finish_by"
	if err := entityRef.Validate(); err != nil {
		t.Fatalf("entity finish_by rejected: %v", err)
	}

	badTZ := cfg
	badTZ.Timezone = "Mars/Olympus"
	if err := badTZ.Validate(); err == nil {
		t.Fatal("expected error for unknown timezone")
	}
}
