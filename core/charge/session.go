package charge

import (
	"fmt"
	"time"
)

// Session is the single-writer record of the controller's current view.
// Only the controller and the worker loop mutate it; everything else
// receives rendered copies.
type Session struct {
	// Active mirrors the user-facing enable switch.
	Active bool
	// Need is the remaining charge time in seconds. It is only
	// meaningful while NeedKnown is true.
	Need      int
	NeedKnown bool
	Status    Status
	Reason    string
	Plan      *Plan
}

// NewSession creates a session restored to the given persisted state.
func NewSession(active bool, status Status) *Session {
	return &Session{Active: active, Status: status}
}

// SlotView is the JSON rendering of one selected slot.
type SlotView struct {
	Start  string  `json:"start"`
	End    string  `json:"end"`
	Length int     `json:"length"`
	Price  float64 `json:"price"`
}

// Snapshot renders the state string and attributes published for the
// status entity.
func (s *Session) Snapshot() (string, map[string]any) {
	attrs := map[string]any{
		"charge_time_left": "unknown",
		"next_start":       "",
		"next_stop":        "",
		"slots":            []SlotView{},
		"reason":           s.Reason,
	}
	switch {
	case s.Status == StatusComplete:
		attrs["charge_time_left"] = "00:00"
	case s.NeedKnown:
		attrs["charge_time_left"] = formatHoursMinutes(s.Need)
	}
	if s.Plan != nil && len(s.Plan.Slots) > 0 {
		attrs["next_start"] = s.Plan.NextStart.Format(time.ANSIC)
		attrs["next_stop"] = s.Plan.NextStop.Format(time.ANSIC)
		views := make([]SlotView, len(s.Plan.Slots))
		for i, slot := range s.Plan.Slots {
			views[i] = SlotView{
				Start:  slot.Start.Format(time.ANSIC),
				End:    slot.End.Format(time.ANSIC),
				Length: slot.Length,
				Price:  slot.Price,
			}
		}
		attrs["slots"] = views
	}
	return s.Status.String(), attrs
}

func formatHoursMinutes(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%02d:%02d", seconds/3600, (seconds%3600)/60)
}
