package charge

import (
	"errors"
	"sort"
	"time"

	"github.com/voltlab/smartcharge/core/logger"
	"github.com/voltlab/smartcharge/core/price"
)

// ErrMissingPriceData reports that a required price source had no usable
// data and the remaining data does not reach through the deadline.
// Callers must distinguish it from an empty interval sequence, which
// only means there is nothing useful right now.
var ErrMissingPriceData = errors.New("missing required price data")

// Interval is a normalized price interval clipped to now and the deadline.
type Interval struct {
	Start             time.Time
	End               time.Time
	StartFromMidnight int
	EndFromMidnight   int
	SecondsUntilStart int
	// Length is the usable number of seconds once clipping is applied.
	Length int
	Price  float64
}

// Normalizer merges raw source points into one time-ordered, clipped
// interval sequence.
type Normalizer struct {
	sources  []price.Source
	deadline func() (int, bool)
	loc      *time.Location
	log      logger.Logger
}

// NewNormalizer creates a Normalizer. The deadline callback returns the
// finish-by offset in seconds since midnight, or false when no deadline
// is configured.
func NewNormalizer(sources []price.Source, deadline func() (int, bool), loc *time.Location, log logger.Logger) *Normalizer {
	return &Normalizer{sources: sources, deadline: deadline, loc: loc, log: log}
}

// Normalize builds the usable interval sequence for the given instant.
//
// Points from all sources are concatenated and sorted without
// deduplication; overlapping points from different sources are kept
// as-is. A required source contributing no usable point marks the
// result missing unless the retained data already reaches through the
// deadline.
func (n *Normalizer) Normalize(now time.Time) ([]Interval, error) {
	midnight := referenceMidnight(now, n.loc)

	deadlineOffset, hasDeadline := n.deadline()
	if hasDeadline && int(now.Sub(midnight).Seconds()) > deadlineOffset {
		// The clock time already passed today, it means tomorrow.
		deadlineOffset += 24 * 3600
	}

	var merged []price.RawPoint
	missing := false
	for _, src := range n.sources {
		points, err := src.Points()
		if err != nil {
			n.log.Warnf("price source %s: %v", src.Name(), err)
			if src.Required() {
				missing = true
			}
			continue
		}
		usable := 0
		for _, p := range points {
			if p.Value == nil {
				continue
			}
			merged = append(merged, p)
			usable++
		}
		if src.Required() && usable == 0 {
			n.log.Warnf("price source %s has no usable data", src.Name())
			missing = true
		}
	}

	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].Start.Before(merged[j].Start)
	})

	coversDeadline := false
	var out []Interval
	for _, p := range merged {
		if p.End.Before(now) {
			continue
		}

		startOffset := int(p.Start.Sub(midnight).Seconds())
		endOffset := int(p.End.Sub(midnight).Seconds())
		untilStart := int(p.Start.Sub(now).Seconds())

		if hasDeadline && startOffset >= deadlineOffset {
			// Sorted by start, every following point is too late as well.
			break
		}

		length := int(p.End.Sub(p.Start).Seconds())
		switch {
		case hasDeadline && endOffset > deadlineOffset:
			length = deadlineOffset - startOffset
			coversDeadline = true
		case untilStart < 0:
			length += untilStart
		}

		out = append(out, Interval{
			Start:             p.Start,
			End:               p.End,
			StartFromMidnight: startOffset,
			EndFromMidnight:   endOffset,
			SecondsUntilStart: untilStart,
			Length:            length,
			Price:             *p.Value,
		})
	}

	if missing && !coversDeadline {
		return nil, ErrMissingPriceData
	}
	return out, nil
}

// referenceMidnight returns the most recent midnight in loc.
func referenceMidnight(now time.Time, loc *time.Location) time.Time {
	local := now.In(loc)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
}
