package metrics

import "time"

// ActivationResult represents one controller evaluation to be recorded.
type ActivationResult struct {
	Status   string
	Failed   bool
	Duration time.Duration
	Time     time.Time
}

// MetricsSink records activation results for observability purposes.
type MetricsSink interface {
	RecordActivation(res ActivationResult) error
}

// CommandEvent represents a switch command sent to the charger.
type CommandEvent struct {
	On     bool
	Failed bool
	Time   time.Time
}

// CommandRecorder records charger commands.
type CommandRecorder interface {
	RecordCommand(ev CommandEvent) error
}

// StateChangeEvent captures a controller status transition.
type StateChangeEvent struct {
	From   string
	To     string
	Reason string
	Time   time.Time
}

// StateChangeRecorder records status transitions.
type StateChangeRecorder interface {
	RecordStateChange(ev StateChangeEvent) error
}

// PlanEvent captures the outcome of a slot selection.
type PlanEvent struct {
	Slots             int
	PlannedSeconds    int
	NeededSeconds     int
	MeanPrice         float64
	MeanSelectedPrice float64
	Time              time.Time
}

// PlanRecorder records computed charge plans.
type PlanRecorder interface {
	RecordPlan(ev PlanEvent) error
}

// ChargeSliceEvent represents charged time accumulated between activations.
type ChargeSliceEvent struct {
	Seconds float64
	Price   float64
	Time    time.Time
}

// ChargeSliceRecorder records charged time slices.
type ChargeSliceRecorder interface {
	RecordChargeSlice(ev ChargeSliceEvent) error
}

// SleepRecorder records the sleep scheduled until the next activation.
type SleepRecorder interface {
	RecordSleep(d time.Duration) error
}

// NopSink implements MetricsSink with no-op methods.
type NopSink struct{}

func (NopSink) RecordActivation(ActivationResult) error { return nil }

func (NopSink) RecordCommand(CommandEvent) error         { return nil }
func (NopSink) RecordStateChange(StateChangeEvent) error { return nil }
func (NopSink) RecordPlan(PlanEvent) error               { return nil }
func (NopSink) RecordChargeSlice(ChargeSliceEvent) error { return nil }
func (NopSink) RecordSleep(time.Duration) error          { return nil }
