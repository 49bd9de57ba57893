// Package export renders a computed charge plan for scripts and
// spreadsheets.
package export

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"strconv"
	"time"

	"github.com/voltlab/smartcharge/core/charge"
)

// Slot is one planned charging interval in export form.
type Slot struct {
	Start   time.Time `json:"start"`
	End     time.Time `json:"end"`
	Seconds int       `json:"seconds"`
	Price   float64   `json:"price"`
}

// Plan is the export form of a charge plan.
type Plan struct {
	GeneratedAt       time.Time `json:"generated_at"`
	NeedSeconds       int       `json:"need_seconds"`
	PlannedSeconds    int       `json:"planned_seconds"`
	NextStart         time.Time `json:"next_start"`
	NextStop          time.Time `json:"next_stop"`
	MeanPrice         float64   `json:"mean_price"`
	MeanSelectedPrice float64   `json:"mean_selected_price"`
	Slots             []Slot    `json:"slots"`
}

// FromPlan converts a controller plan. A nil plan yields an empty export
// with only the need and timestamp set.
func FromPlan(p *charge.Plan, needSeconds int, now time.Time) Plan {
	out := Plan{
		GeneratedAt: now,
		NeedSeconds: needSeconds,
		Slots:       []Slot{},
	}
	if p == nil {
		return out
	}
	out.PlannedSeconds = p.PlannedSeconds
	out.NextStart = p.NextStart
	out.NextStop = p.NextStop
	out.MeanPrice = p.MeanPrice
	out.MeanSelectedPrice = p.MeanSelectedPrice
	for _, s := range p.Slots {
		out.Slots = append(out.Slots, Slot{
			Start:   s.Start,
			End:     s.End,
			Seconds: s.Length,
			Price:   s.Price,
		})
	}
	return out
}

// WriteJSON writes the plan to w in JSON format.
func WriteJSON(w io.Writer, p Plan) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(p)
}

// WriteCSV writes the plan slots to w, one row per slot.
func WriteCSV(w io.Writer, p Plan) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"start", "end", "seconds", "price"}); err != nil {
		return err
	}
	for _, s := range p.Slots {
		rec := []string{
			s.Start.Format(time.RFC3339),
			s.End.Format(time.RFC3339),
			strconv.Itoa(s.Seconds),
			strconv.FormatFloat(s.Price, 'f', -1, 64),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
