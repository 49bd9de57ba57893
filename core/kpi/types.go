package kpi

import "time"

// Record aggregates charging KPIs for one day.
type Record struct {
	Day time.Time
	// ChargedSeconds is the total time the charger was on.
	ChargedSeconds float64
	// PriceSeconds is the sum of slot price times charged seconds, used
	// to derive the mean price paid.
	PriceSeconds float64
}

// MeanPrice returns the time-weighted mean price paid while charging.
func (r Record) MeanPrice() float64 {
	if r.ChargedSeconds == 0 {
		return 0
	}
	return r.PriceSeconds / r.ChargedSeconds
}

// EnergyKWh estimates delivered energy for a charger drawing powerKW.
func (r Record) EnergyKWh(powerKW float64) float64 {
	return r.ChargedSeconds / 3600 * powerKW
}
