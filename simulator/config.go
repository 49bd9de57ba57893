package main

import (
	"errors"
	"time"
)

// Config holds parameters for the simulated charger and EV.
type Config struct {
	Broker   string
	Prefix   string
	ClientID string

	ChargerSwitch string
	ChargingState string
	DeviceTracker string
	TimeLeft      string
	PriceRef      string

	CapacityKWh  float64
	ChargeRateKW float64
	DriveDrainKW float64
	InitialSoc   float64
	TargetSoc    float64

	BasePrice  float64
	PriceSwing float64

	Interval   time.Duration
	Speedup    float64
	AwayRate   float64
	TripLength time.Duration
	Verbose    bool
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if c.Broker == "" {
		return errors.New("broker is required")
	}
	if c.Prefix == "" {
		return errors.New("prefix is required")
	}
	if c.ChargerSwitch == "" || c.ChargingState == "" || c.DeviceTracker == "" || c.TimeLeft == "" {
		return errors.New("all entity ids are required")
	}
	if c.PriceRef == "" {
		return errors.New("price entity is required")
	}
	if c.CapacityKWh <= 0 {
		return errors.New("capacity must be positive")
	}
	if c.ChargeRateKW <= 0 {
		return errors.New("charge rate must be positive")
	}
	if c.DriveDrainKW < 0 {
		return errors.New("drive drain must not be negative")
	}
	if c.InitialSoc < 0 || c.InitialSoc > 1 {
		return errors.New("soc must be within [0,1]")
	}
	if c.TargetSoc <= 0 || c.TargetSoc > 1 {
		return errors.New("target soc must be within (0,1]")
	}
	if c.Interval <= 0 {
		return errors.New("interval must be positive")
	}
	if c.Speedup <= 0 {
		return errors.New("speedup must be positive")
	}
	if c.AwayRate < 0 || c.AwayRate >= 1 {
		return errors.New("away rate must be within [0,1)")
	}
	if c.AwayRate > 0 && c.TripLength <= 0 {
		return errors.New("trip length must be positive")
	}
	return nil
}
