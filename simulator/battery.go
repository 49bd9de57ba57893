package main

import "time"

// Battery models the EV battery the charger fills. It is owned by the
// simulation loop and not safe for concurrent use.
type Battery struct {
	CapacityKWh  float64
	ChargeRateKW float64
	Soc          float64 // state of charge [0,1]
}

// Charge adds energy for the elapsed interval and returns the new SoC.
func (b *Battery) Charge(dt time.Duration) float64 {
	hours := dt.Hours()
	if hours <= 0 {
		return b.Soc
	}
	b.Soc += b.ChargeRateKW * hours / b.CapacityKWh
	if b.Soc > 1 {
		b.Soc = 1
	}
	return b.Soc
}

// Drain removes energy at the given rate, used while the EV is driving.
func (b *Battery) Drain(dt time.Duration, rateKW float64) float64 {
	hours := dt.Hours()
	if hours <= 0 || rateKW <= 0 {
		return b.Soc
	}
	b.Soc -= rateKW * hours / b.CapacityKWh
	if b.Soc < 0 {
		b.Soc = 0
	}
	return b.Soc
}

// HoursToTarget returns the charging time needed to reach the target SoC,
// zero when the battery is already there.
func (b *Battery) HoursToTarget(target float64) float64 {
	if b.Soc >= target {
		return 0
	}
	return (target - b.Soc) * b.CapacityKWh / b.ChargeRateKW
}
