package metrics

import "time"

// MultiSink fans events out to multiple sinks.
type MultiSink struct {
	Sinks []MetricsSink
}

// NewMultiSink creates a MultiSink with the provided sinks.
func NewMultiSink(sinks ...MetricsSink) *MultiSink {
	return &MultiSink{Sinks: sinks}
}

// RecordActivation forwards the result to all sinks, returning the first
// error encountered.
func (m *MultiSink) RecordActivation(res ActivationResult) error {
	for _, s := range m.Sinks {
		if err := s.RecordActivation(res); err != nil {
			return err
		}
	}
	return nil
}

// RecordCommand forwards command events when supported by the sink.
func (m *MultiSink) RecordCommand(ev CommandEvent) error {
	for _, s := range m.Sinks {
		if rec, ok := s.(CommandRecorder); ok {
			if err := rec.RecordCommand(ev); err != nil {
				return err
			}
		}
	}
	return nil
}

// RecordStateChange forwards status transitions when supported by the sink.
func (m *MultiSink) RecordStateChange(ev StateChangeEvent) error {
	for _, s := range m.Sinks {
		if rec, ok := s.(StateChangeRecorder); ok {
			if err := rec.RecordStateChange(ev); err != nil {
				return err
			}
		}
	}
	return nil
}

// RecordPlan forwards plan events when supported by the sink.
func (m *MultiSink) RecordPlan(ev PlanEvent) error {
	for _, s := range m.Sinks {
		if rec, ok := s.(PlanRecorder); ok {
			if err := rec.RecordPlan(ev); err != nil {
				return err
			}
		}
	}
	return nil
}

// RecordChargeSlice forwards charged time slices when supported by the sink.
func (m *MultiSink) RecordChargeSlice(ev ChargeSliceEvent) error {
	for _, s := range m.Sinks {
		if rec, ok := s.(ChargeSliceRecorder); ok {
			if err := rec.RecordChargeSlice(ev); err != nil {
				return err
			}
		}
	}
	return nil
}

// RecordSleep forwards sleep durations when supported by the sink.
func (m *MultiSink) RecordSleep(d time.Duration) error {
	for _, s := range m.Sinks {
		if rec, ok := s.(SleepRecorder); ok {
			if err := rec.RecordSleep(d); err != nil {
				return err
			}
		}
	}
	return nil
}
