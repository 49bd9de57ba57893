// Package chargekpi rebuilds daily charging KPIs from the activation
// history.
package chargekpi

import (
	"github.com/voltlab/smartcharge/core/history"
	"github.com/voltlab/smartcharge/core/kpi"
)

// Backfill replays historical activations and populates the store. Each
// record marks the controller state until the next activation, so charged
// time is the gap between a charging record and its successor. The last
// record has no successor and is skipped.
func Backfill(store kpi.Store, records []history.Record) error {
	for i := 0; i+1 < len(records); i++ {
		cur := records[i]
		if cur.Status != "charging" {
			continue
		}
		secs := records[i+1].Timestamp.Sub(cur.Timestamp).Seconds()
		if secs <= 0 {
			continue
		}
		rec := kpi.Record{
			Day:            kpi.Day(cur.Timestamp),
			ChargedSeconds: secs,
			PriceSeconds:   secs * cur.SlotPrice,
		}
		if err := store.Add(rec); err != nil {
			return err
		}
	}
	return nil
}
