package charge

import (
	"sort"
	"time"

	"gonum.org/v1/gonum/stat"
)

// Plan holds the slots chosen for the current charge need, ordered
// chronologically, plus summary figures for reporting.
type Plan struct {
	Slots []Interval
	// NextStart is the start of the earliest slot.
	NextStart time.Time
	// NextStop is the end of the contiguous run beginning at NextStart.
	NextStop time.Time
	// PlannedSeconds is the summed usable length of the chosen slots.
	PlannedSeconds int
	// MeanPrice is the average price over all candidate intervals,
	// MeanSelectedPrice over the chosen slots only.
	MeanPrice         float64
	MeanSelectedPrice float64
}

// SelectSlots greedily picks the cheapest intervals until their summed
// usable length strictly exceeds needSeconds, then orders the result by
// start time. Ties on price keep the original start order. When the
// supply cannot exceed the need every interval is chosen.
func SelectSlots(intervals []Interval, needSeconds int) *Plan {
	if len(intervals) == 0 {
		return &Plan{}
	}

	byPrice := make([]Interval, len(intervals))
	copy(byPrice, intervals)
	sort.SliceStable(byPrice, func(i, j int) bool {
		return byPrice[i].Price < byPrice[j].Price
	})

	var slots []Interval
	total := 0
	for _, iv := range byPrice {
		slots = append(slots, iv)
		total += iv.Length
		if total > needSeconds {
			break
		}
	}

	sort.SliceStable(slots, func(i, j int) bool {
		return slots[i].Start.Before(slots[j].Start)
	})

	plan := &Plan{Slots: slots, PlannedSeconds: total}
	plan.MeanPrice = meanPrice(intervals)
	plan.MeanSelectedPrice = meanPrice(slots)

	plan.NextStart = slots[0].Start
	// Walk the contiguous run from the first slot: the first gap is the
	// next stop boundary.
	end := slots[0].Start
	for _, s := range slots {
		if !s.Start.Equal(end) {
			break
		}
		end = s.End
	}
	plan.NextStop = end

	return plan
}

func meanPrice(intervals []Interval) float64 {
	if len(intervals) == 0 {
		return 0
	}
	prices := make([]float64, len(intervals))
	for i, iv := range intervals {
		prices[i] = iv.Price
	}
	return stat.Mean(prices, nil)
}
