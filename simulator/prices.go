package main

import (
	"math"
	"time"
)

// pricePoint mirrors one element of a nordpool-style price attribute.
type pricePoint struct {
	Start string  `json:"start"`
	End   string  `json:"end"`
	Value float64 `json:"value"`
}

// priceCurve generates a deterministic daily price shape with the low
// around 03:00 and the peak around 15:00.
type priceCurve struct {
	Base  float64
	Swing float64
}

// At returns the price for the given hour of day.
func (p priceCurve) At(hour int) float64 {
	v := p.Base + p.Swing*math.Cos(2*math.Pi*float64(hour-15)/24)
	return math.Round(v*10000) / 10000
}

// Day returns 24 hourly points for the day containing t, in t's location.
func (p priceCurve) Day(t time.Time) []pricePoint {
	midnight := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	pts := make([]pricePoint, 24)
	for h := range pts {
		start := midnight.Add(time.Duration(h) * time.Hour)
		pts[h] = pricePoint{
			Start: start.Format(time.RFC3339),
			End:   start.Add(time.Hour).Format(time.RFC3339),
			Value: p.At(h),
		}
	}
	return pts
}

// Horizon returns hourly points for today and tomorrow so a deadline
// past midnight is always covered.
func (p priceCurve) Horizon(t time.Time) []pricePoint {
	return append(p.Day(t), p.Day(t.Add(24*time.Hour))...)
}
