// Package price defines the raw price feed consumed by the planner and
// the registry through which feed implementations are plugged in.
package price

import (
	"time"

	"github.com/voltlab/smartcharge/core/entity"
)

// RawPoint is a single price interval as reported by a source. Value is
// nil when the source knows the interval but has no price for it.
type RawPoint struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
	Value *float64  `json:"value"`
}

// Source supplies raw price intervals for plan computation.
type Source interface {
	// Name identifies the source in logs and error messages.
	Name() string
	// Required reports whether the whole price calculation must be
	// aborted when this source has no usable data.
	Required() bool
	// Points returns the currently known intervals. Order is not
	// significant and intervals may overlap those of other sources.
	Points() ([]RawPoint, error)
}

// Watchable is implemented by sources backed by entity state. The
// worker re-evaluates the plan whenever one of these refs changes.
type Watchable interface {
	WatchRefs() []entity.Ref
}
