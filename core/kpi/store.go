// Package kpi aggregates per-day charging indicators from activation
// outcomes.
package kpi

import "time"

// Store persists charging KPI records.
type Store interface {
	Add(Record) error
	Query(start, end time.Time) ([]Record, error)
}

// Day aligns t to the start of its day in UTC.
func Day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
