package metrics

import (
	"context"
	"time"

	"github.com/voltlab/smartcharge/core/events"
	coremetrics "github.com/voltlab/smartcharge/core/metrics"
	"github.com/voltlab/smartcharge/internal/eventbus"
)

// StartEventCollector subscribes to the event bus and records metrics for
// events. It stops when the context is canceled.
func StartEventCollector(ctx context.Context, bus *eventbus.Bus, sink coremetrics.MetricsSink) {
	if bus == nil || sink == nil {
		return
	}
	sub := bus.Subscribe()
	go func() {
		defer bus.Unsubscribe(sub)
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-sub:
				if !ok {
					return
				}
				switch e := ev.(type) {
				case events.ActivationEvent:
					_ = sink.RecordActivation(coremetrics.ActivationResult{
						Status:   e.Status,
						Failed:   e.Failed,
						Duration: e.Duration,
						Time:     e.Time,
					})
					if r, ok := sink.(coremetrics.SleepRecorder); ok {
						_ = r.RecordSleep(e.Sleep)
					}
				case events.CommandEvent:
					if r, ok := sink.(coremetrics.CommandRecorder); ok {
						_ = r.RecordCommand(coremetrics.CommandEvent{
							On:     e.On,
							Failed: e.Err != nil,
							Time:   e.Time,
						})
					}
				case events.StateChangeEvent:
					if r, ok := sink.(coremetrics.StateChangeRecorder); ok {
						_ = r.RecordStateChange(coremetrics.StateChangeEvent{
							From:   e.From,
							To:     e.To,
							Reason: e.Reason,
							Time:   e.Time,
						})
					}
				case events.PlanEvent:
					if r, ok := sink.(coremetrics.PlanRecorder); ok {
						_ = r.RecordPlan(coremetrics.PlanEvent{
							Slots:             e.Slots,
							PlannedSeconds:    e.PlannedSeconds,
							NeededSeconds:     e.NeededSeconds,
							MeanPrice:         e.MeanPrice,
							MeanSelectedPrice: e.MeanSelectedPrice,
							Time:              time.Now(),
						})
					}
				case events.ChargeSliceEvent:
					if r, ok := sink.(coremetrics.ChargeSliceRecorder); ok {
						_ = r.RecordChargeSlice(coremetrics.ChargeSliceEvent{
							Seconds: e.Seconds,
							Price:   e.Price,
							Time:    e.Time,
						})
					}
				}
			}
		}
	}()
}
