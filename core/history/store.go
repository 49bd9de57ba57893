// Package history records every worker activation so past decisions can
// be inspected through the HTTP API or exported for analysis.
package history

import (
	"context"
	"time"
)

// Record captures the decision of one activation.
type Record struct {
	ID             string    `json:"id"`
	Timestamp      time.Time `json:"timestamp"`
	Status         string    `json:"status"`
	Reason         string    `json:"reason"`
	Command        string    `json:"command"`
	NeedKnown      bool      `json:"need_known"`
	NeedSeconds    int       `json:"need_seconds"`
	SlotCount      int       `json:"slot_count"`
	PlannedSeconds int       `json:"planned_seconds"`
	// SlotPrice is the price of the slot in effect, set while charging.
	SlotPrice  float64 `json:"slot_price,omitempty"`
	DurationMS int64   `json:"duration_ms"`
	Failed     bool    `json:"failed"`
}

// Query defines filters for retrieving records.
type Query struct {
	Start  time.Time
	End    time.Time
	Status string
	// Limit keeps only the most recent n matching records when > 0.
	Limit int
}

// Store persists Records and supports querying.
type Store interface {
	Append(ctx context.Context, rec Record) error
	Query(ctx context.Context, q Query) ([]Record, error)
	Close() error
}

// NopStore discards records, used when history is disabled.
type NopStore struct{}

func (NopStore) Append(context.Context, Record) error { return nil }

func (NopStore) Query(context.Context, Query) ([]Record, error) {
	return nil, nil
}

func (NopStore) Close() error { return nil }

// matches reports whether rec passes the query filters (except Limit).
func (q Query) matches(rec Record) bool {
	if !q.Start.IsZero() && rec.Timestamp.Before(q.Start) {
		return false
	}
	if !q.End.IsZero() && rec.Timestamp.After(q.End) {
		return false
	}
	if q.Status != "" && rec.Status != q.Status {
		return false
	}
	return true
}

// clip applies the Limit, keeping the most recent records.
func (q Query) clip(recs []Record) []Record {
	if q.Limit > 0 && len(recs) > q.Limit {
		return recs[len(recs)-q.Limit:]
	}
	return recs
}
