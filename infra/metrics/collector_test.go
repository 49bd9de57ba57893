package metrics

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/voltlab/smartcharge/core/events"
	coremetrics "github.com/voltlab/smartcharge/core/metrics"
	"github.com/voltlab/smartcharge/internal/eventbus"
)

type captureSink struct {
	mu          sync.Mutex
	activations []coremetrics.ActivationResult
	commands    []coremetrics.CommandEvent
	plans       []coremetrics.PlanEvent
}

func (c *captureSink) RecordActivation(res coremetrics.ActivationResult) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.activations = append(c.activations, res)
	return nil
}

func (c *captureSink) RecordCommand(ev coremetrics.CommandEvent) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.commands = append(c.commands, ev)
	return nil
}

func (c *captureSink) RecordPlan(ev coremetrics.PlanEvent) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.plans = append(c.plans, ev)
	return nil
}

func (c *captureSink) counts() (int, int, int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.activations), len(c.commands), len(c.plans)
}

func TestStartEventCollector_RoutesEvents(t *testing.T) {
	bus := eventbus.New()
	sink := &captureSink{}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	StartEventCollector(ctx, bus, sink)

	bus.Publish(events.ActivationEvent{Status: "charging", Duration: time.Millisecond, Time: time.Now()})
	bus.Publish(events.CommandEvent{Target: "switch.charger", On: true, Time: time.Now()})
	bus.Publish(events.PlanEvent{Slots: 2, PlannedSeconds: 7200})
	// StateChangeEvent has no recorder on this sink and must be skipped.
	bus.Publish(events.StateChangeEvent{From: "stopped", To: "charging", Time: time.Now()})

	deadline := time.After(2 * time.Second)
	for {
		a, c, p := sink.counts()
		if a == 1 && c == 1 && p == 1 {
			break
		}
		select {
		case <-deadline:
			t.Fatalf("events not collected: activations=%d commands=%d plans=%d", a, c, p)
		case <-time.After(10 * time.Millisecond):
		}
	}

	sink.mu.Lock()
	defer sink.mu.Unlock()
	if sink.commands[0].Failed {
		t.Errorf("command without error should not be failed")
	}
	if sink.plans[0].PlannedSeconds != 7200 {
		t.Errorf("plan not forwarded: %+v", sink.plans[0])
	}
}
