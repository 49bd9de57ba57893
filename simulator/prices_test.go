package main

import (
	"math"
	"testing"
	"time"
)

func TestPriceCurveShape(t *testing.T) {
	p := priceCurve{Base: 0.20, Swing: 0.10}
	if got := p.At(3); math.Abs(got-0.10) > 1e-9 {
		t.Errorf("At(3) = %v, want the daily low 0.10", got)
	}
	if got := p.At(15); math.Abs(got-0.30) > 1e-9 {
		t.Errorf("At(15) = %v, want the daily peak 0.30", got)
	}
	for h := 0; h < 24; h++ {
		v := p.At(h)
		if v < 0.10-1e-9 || v > 0.30+1e-9 {
			t.Errorf("At(%d) = %v out of [0.10, 0.30]", h, v)
		}
	}
}

func TestHorizonCoversTwoDays(t *testing.T) {
	p := priceCurve{Base: 0.20, Swing: 0.10}
	now := time.Date(2026, 8, 24, 21, 0, 0, 0, time.UTC)
	pts := p.Horizon(now)
	if len(pts) != 48 {
		t.Fatalf("Horizon returned %d points, want 48", len(pts))
	}
	if pts[0].Start != "2026-08-24T00:00:00Z" {
		t.Errorf("first start = %s, want midnight today", pts[0].Start)
	}
	if pts[47].End != "2026-08-26T00:00:00Z" {
		t.Errorf("last end = %s, want midnight after tomorrow", pts[47].End)
	}
	for i, pt := range pts {
		start, err := time.Parse(time.RFC3339, pt.Start)
		if err != nil {
			t.Fatalf("point %d start: %v", i, err)
		}
		end, err := time.Parse(time.RFC3339, pt.End)
		if err != nil {
			t.Fatalf("point %d end: %v", i, err)
		}
		if end.Sub(start) != time.Hour {
			t.Errorf("point %d spans %s, want 1h", i, end.Sub(start))
		}
		if i > 0 && pts[i-1].End != pt.Start {
			t.Errorf("gap between point %d and %d", i-1, i)
		}
	}
}

func TestConfigValidate(t *testing.T) {
	valid := func() Config {
		return Config{
			Broker:        "tcp://localhost:1883",
			Prefix:        "homeassistant/statestream",
			ChargerSwitch: "switch.charger",
			ChargingState: "sensor.ev_charging",
			DeviceTracker: "device_tracker.ev",
			TimeLeft:      "sensor.ev_time_left",
			PriceRef:      "sensor.prices,today",
			CapacityKWh:   40,
			ChargeRateKW:  7,
			InitialSoc:    0.4,
			TargetSoc:     1,
			Interval:      5 * time.Second,
			Speedup:       1,
			TripLength:    30 * time.Minute,
		}
	}

	cfg := valid()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}

	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"missing broker", func(c *Config) { c.Broker = "" }},
		{"missing entity", func(c *Config) { c.ChargerSwitch = "" }},
		{"zero capacity", func(c *Config) { c.CapacityKWh = 0 }},
		{"soc out of range", func(c *Config) { c.InitialSoc = 1.5 }},
		{"zero target", func(c *Config) { c.TargetSoc = 0 }},
		{"zero interval", func(c *Config) { c.Interval = 0 }},
		{"away rate too high", func(c *Config) { c.AwayRate = 1 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := valid()
			tc.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}
