// Command simulator emulates the Home Assistant side of a smartcharge
// deployment: a charger switch, an EV with a battery, a device tracker
// and a nordpool-style price sensor, all over a plain MQTT broker.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/voltlab/smartcharge/core/entity"
)

func main() {
	cfg := parseFlags()
	if err := (&cfg).Validate(); err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	if !cfg.Verbose {
		log.SetOutput(io.Discard)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sim := buildCharger(cfg)
	if err := sim.Run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "simulator: %v\n", err)
		os.Exit(1)
	}
}

func parseFlags() Config {
	var cfg Config
	flag.StringVar(&cfg.Broker, "broker", "tcp://localhost:1883", "MQTT broker URL")
	flag.StringVar(&cfg.Prefix, "prefix", "homeassistant/statestream", "statestream topic prefix")
	flag.StringVar(&cfg.ClientID, "client-id", "smartcharge-sim", "MQTT client id")
	flag.StringVar(&cfg.ChargerSwitch, "charger-switch", "switch.charger", "charger switch entity")
	flag.StringVar(&cfg.ChargingState, "charging-state", "sensor.ev_charging", "charging state sensor entity")
	flag.StringVar(&cfg.DeviceTracker, "device-tracker", "device_tracker.ev", "EV device tracker entity")
	flag.StringVar(&cfg.TimeLeft, "time-left", "sensor.ev_time_left", "time-left sensor entity")
	flag.StringVar(&cfg.PriceRef, "price-entity", "sensor.prices,today", "price attribute entity reference")
	flag.Float64Var(&cfg.CapacityKWh, "capacity", 40, "battery capacity kWh")
	flag.Float64Var(&cfg.ChargeRateKW, "charge-rate", 7, "charge rate kW")
	flag.Float64Var(&cfg.DriveDrainKW, "drive-drain", 5, "battery drain while driving kW")
	flag.Float64Var(&cfg.InitialSoc, "soc", 0.4, "initial state of charge [0,1]")
	flag.Float64Var(&cfg.TargetSoc, "target-soc", 1, "state of charge that counts as full")
	flag.Float64Var(&cfg.BasePrice, "base-price", 0.20, "mean price per kWh")
	flag.Float64Var(&cfg.PriceSwing, "price-swing", 0.10, "daily price amplitude per kWh")
	flag.DurationVar(&cfg.Interval, "interval", 5*time.Second, "publish interval")
	flag.Float64Var(&cfg.Speedup, "speedup", 1, "battery time factor per wall-clock second")
	flag.Float64Var(&cfg.AwayRate, "away-rate", 0, "probability per interval of the EV leaving")
	flag.DurationVar(&cfg.TripLength, "trip-length", 30*time.Minute, "how long the EV stays away")
	flag.BoolVar(&cfg.Verbose, "verbose", false, "enable verbose logging")
	flag.Parse()
	return cfg
}

func buildCharger(cfg Config) *SimulatedCharger {
	return &SimulatedCharger{
		Broker:   cfg.Broker,
		ClientID: cfg.ClientID,
		Prefix:   cfg.Prefix,
		Switch:   entity.ParseRef(cfg.ChargerSwitch),
		State:    entity.ParseRef(cfg.ChargingState),
		Tracker:  entity.ParseRef(cfg.DeviceTracker),
		TimeLeft: entity.ParseRef(cfg.TimeLeft),
		Price:    entity.ParseRef(cfg.PriceRef),
		Battery: &Battery{
			CapacityKWh:  cfg.CapacityKWh,
			ChargeRateKW: cfg.ChargeRateKW,
			Soc:          cfg.InitialSoc,
		},
		TargetSoc:    cfg.TargetSoc,
		DriveDrainKW: cfg.DriveDrainKW,
		Curve:        priceCurve{Base: cfg.BasePrice, Swing: cfg.PriceSwing},
		Interval:     cfg.Interval,
		Speedup:      cfg.Speedup,
		AwayRate:     cfg.AwayRate,
		TripLength:   cfg.TripLength,
		cmds:         make(chan bool, 8),
		prev:         map[string]string{},
	}
}
