package charge

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/voltlab/smartcharge/core/entity"
	"github.com/voltlab/smartcharge/core/events"
	"github.com/voltlab/smartcharge/core/logger"
	"github.com/voltlab/smartcharge/core/price"
	"github.com/voltlab/smartcharge/internal/eventbus"
)

// Command is the charger instruction issued during an evaluation.
type Command int

const (
	CommandNone Command = iota
	CommandOn
	CommandOff
)

func (c Command) String() string {
	switch c {
	case CommandOn:
		return "on"
	case CommandOff:
		return "off"
	default:
		return "none"
	}
}

// Outcome reports what one evaluation decided.
type Outcome struct {
	Status  Status
	Reason  string
	Command Command
	// Failed marks runs the worker retries on the short ceiling.
	Failed bool
	// Plan is set when slot selection ran.
	Plan *Plan
	// Intervals is the normalized sequence the plan was built from; the
	// worker derives its next wake-up from the earliest end.
	Intervals []Interval
}

// Deps bundles the collaborators a Controller needs. All fields except
// Bus and Now are required.
type Deps struct {
	Reader    entity.Reader
	Commander entity.Commander
	Status    entity.StatusPublisher
	Sources   []price.Source
	Bus       *eventbus.Bus
	Log       logger.Logger
	Now       func() time.Time
}

// Controller maps live charger signals and the price plan onto a status
// and an on/off command. It is not safe for concurrent use; the worker
// loop serializes evaluations.
type Controller struct {
	cfg     Config
	session *Session
	reader  entity.Reader
	cmd     entity.Commander
	status  entity.StatusPublisher
	sources []price.Source
	bus     *eventbus.Bus
	log     logger.Logger
	now     func() time.Time

	norm        *Normalizer
	chargerRef  entity.Ref
	stateRef    entity.Ref
	trackerRef  entity.Ref
	timeLeftRef entity.Ref
	deadlineRef entity.Ref

	stateStopped  string
	stateCharging string
	stateComplete string
}

// NewController creates a Controller operating on the given session.
func NewController(cfg Config, sess *Session, deps Deps) (*Controller, error) {
	if sess == nil {
		return nil, errors.New("nil session")
	}
	if deps.Reader == nil || deps.Commander == nil || deps.Status == nil || deps.Log == nil {
		return nil, errors.New("reader, commander, status publisher and logger are required")
	}
	loc, err := cfg.Location()
	if err != nil {
		return nil, fmt.Errorf("load timezone: %w", err)
	}
	now := deps.Now
	if now == nil {
		now = time.Now
	}

	c := &Controller{
		cfg:           cfg,
		session:       sess,
		reader:        deps.Reader,
		cmd:           deps.Commander,
		status:        deps.Status,
		sources:       deps.Sources,
		bus:           deps.Bus,
		log:           deps.Log,
		now:           now,
		chargerRef:    entity.ParseRef(cfg.ChargerSwitch),
		stateRef:      entity.ParseRef(cfg.ChargingState),
		trackerRef:    entity.ParseRef(cfg.DeviceTracker),
		timeLeftRef:   entity.ParseRef(cfg.TimeLeft),
		stateStopped:  strings.ToLower(cfg.StateStopped),
		stateCharging: strings.ToLower(cfg.StateCharging),
		stateComplete: strings.ToLower(cfg.StateComplete),
	}
	if strings.Contains(cfg.FinishBy, ".") {
		c.deadlineRef = entity.ParseRef(cfg.FinishBy)
	}
	c.norm = NewNormalizer(deps.Sources, c.deadline, loc, deps.Log)
	return c, nil
}

// Evaluate runs one full pass of the decision rules, publishes the
// resulting status and returns the decision.
func (c *Controller) Evaluate() Outcome {
	now := c.now()
	prev := c.session.Status

	out := c.decide(now, prev)

	c.session.Status = out.Status
	c.session.Reason = out.Reason
	c.session.Plan = out.Plan

	state, attrs := c.session.Snapshot()
	if err := c.status.PublishStatus(state, attrs); err != nil {
		c.log.Errorf("publish status: %v", err)
	}
	if out.Status != prev {
		c.publish(events.StateChangeEvent{
			From:   prev.String(),
			To:     out.Status.String(),
			Reason: out.Reason,
			Time:   now,
		})
	}
	return out
}

// decide applies the transition rules in order, first match wins.
func (c *Controller) decide(now time.Time, prev Status) Outcome {
	// Rule 1: module switched off by the user. When we stopped the
	// charger earlier we must hand it back switched on.
	if !c.session.Active {
		c.log.Debugf("deactivated by user, skipping evaluation")
		out := Outcome{Status: StatusDisabled, Reason: "deactivated by user"}
		if prev == StatusStopped && !c.command(true, &out) {
			return out
		}
		c.clearNeed()
		return out
	}

	// Rule 2: EV is somewhere else.
	if v, ok := c.reader.Value(c.trackerRef); !ok || v != c.cfg.PresenceHome {
		c.log.Debugf("EV is not home, skipping evaluation")
		c.clearNeed()
		return Outcome{Status: StatusInactive, Reason: "EV is not home"}
	}

	// Rule 3: the charging state must be readable before anything else.
	raw, ok := c.reader.Value(c.stateRef)
	if !ok {
		return Outcome{Status: StatusError, Reason: "error reading charging state", Failed: true}
	}
	state := strings.ToLower(raw)
	c.log.Debugf("charging state is %q", state)

	// Rule 4: while charging, pick up fresh time-left readings.
	if state == c.stateCharging {
		c.refreshNeed()
	}

	// Rule 5: fully charged. Hand the charger back switched on so a
	// later top-up can start without us in the way.
	if state == c.stateComplete {
		out := Outcome{Status: StatusComplete, Reason: "EV fully charged"}
		c.clearNeed()
		c.command(true, &out)
		return out
	}

	// Rule 6: the charge stopped while we were probing for time left.
	// Restart the probe.
	if state == c.stateStopped && prev == StatusCalculating {
		out := Outcome{Status: StatusCalculating, Reason: "asking device for time left"}
		c.clearNeed()
		c.command(true, &out)
		return out
	}

	// Rule 7: let the plan decide.
	return c.applyPlan(now)
}

// refreshNeed updates the needed charge time from the time-left sensor.
// Readings that are unreadable, non-positive or older than the charging
// state change are ignored so a stale pre-charge value cannot shrink
// the plan.
func (c *Controller) refreshNeed() {
	raw, ok := c.reader.Value(c.timeLeftRef)
	if !ok {
		return
	}
	hours, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || hours <= 0 {
		return
	}
	tlChanged, okTL := c.reader.LastChanged(c.timeLeftRef)
	csChanged, okCS := c.reader.LastChanged(c.stateRef)
	if okTL && okCS && tlChanged.Before(csChanged) {
		c.log.Debugf("time left reading predates charge start, ignoring")
		return
	}
	c.session.Need = int(hours * 3600)
	c.session.NeedKnown = true
}

func (c *Controller) applyPlan(now time.Time) Outcome {
	if !c.session.NeedKnown {
		// Charging makes the EV report how much it still needs.
		out := Outcome{Status: StatusCalculating, Reason: "asking device for time left"}
		c.command(true, &out)
		return out
	}

	intervals, err := c.norm.Normalize(now)
	if err != nil {
		c.log.Warnf("price data unavailable: %v", err)
		out := Outcome{Status: StatusStopped, Reason: "missing price info"}
		c.command(false, &out)
		return out
	}

	c.log.Debugf("need %d seconds of charge, %d usable intervals", c.session.Need, len(intervals))

	plan := SelectSlots(intervals, c.session.Need)
	out := Outcome{Plan: plan, Intervals: intervals}
	if len(plan.Slots) == 0 {
		out.Status = StatusNoSlots
		out.Reason = "no slots needed"
		c.command(true, &out)
		return out
	}

	c.publish(events.PlanEvent{
		Slots:             len(plan.Slots),
		PlannedSeconds:    plan.PlannedSeconds,
		NeededSeconds:     c.session.Need,
		MeanPrice:         plan.MeanPrice,
		MeanSelectedPrice: plan.MeanSelectedPrice,
		NextStart:         plan.NextStart,
		NextStop:          plan.NextStop,
	})

	first := plan.Slots[0]
	if !now.Before(first.Start) && now.Before(first.End) {
		out.Status = StatusCharging
		out.Reason = fmt.Sprintf("inside low rate time slot (price %g)", first.Price)
		c.command(true, &out)
	} else {
		out.Status = StatusStopped
		out.Reason = fmt.Sprintf("outside low rate time slot (price %g)", first.Price)
		c.command(false, &out)
	}
	return out
}

// command issues the charger switch command and downgrades the outcome
// to an error status when it fails. It reports whether it succeeded.
func (c *Controller) command(on bool, out *Outcome) bool {
	name := "off"
	out.Command = CommandOff
	if on {
		name = "on"
		out.Command = CommandOn
	}
	err := c.cmd.Command(c.chargerRef, on)
	c.publish(events.CommandEvent{Target: c.chargerRef.String(), On: on, Err: err, Time: c.now()})
	if err != nil {
		c.log.Errorf("charger %s command: %v", name, err)
		out.Status = StatusError
		out.Reason = fmt.Sprintf("charger %s command failed", name)
		out.Failed = true
		return false
	}
	return true
}

func (c *Controller) clearNeed() {
	c.session.Need = 0
	c.session.NeedKnown = false
}

func (c *Controller) publish(ev any) {
	if c.bus != nil {
		c.bus.Publish(ev)
	}
}

// deadline resolves the finish-by offset in seconds since midnight. It
// re-reads the backing entity every call so a changed deadline takes
// effect on the next evaluation.
func (c *Controller) deadline() (int, bool) {
	if c.cfg.FinishBy == "" {
		return 0, false
	}
	raw := c.cfg.FinishBy
	if !c.deadlineRef.IsZero() {
		v, ok := c.reader.Value(c.deadlineRef)
		if !ok {
			c.log.Warnf("finish_by entity %s unreadable, no deadline applied", c.deadlineRef)
			return 0, false
		}
		raw = v
	}
	secs, err := ParseClockOffset(raw)
	if err != nil {
		c.log.Warnf("finish_by value %q: %v", raw, err)
		return 0, false
	}
	return secs, true
}

// Intervals recomputes the normalized sequence outside an evaluation,
// for callers that only need the nearest interval boundary.
func (c *Controller) Intervals(now time.Time) []Interval {
	intervals, err := c.norm.Normalize(now)
	if err != nil {
		return nil
	}
	return intervals
}

// WatchRefs lists the entity references whose changes should trigger a
// re-evaluation.
func (c *Controller) WatchRefs() []entity.Ref {
	refs := []entity.Ref{c.chargerRef, c.stateRef, c.trackerRef, c.timeLeftRef}
	if !c.deadlineRef.IsZero() {
		refs = append(refs, c.deadlineRef)
	}
	for _, src := range c.sources {
		if w, ok := src.(price.Watchable); ok {
			refs = append(refs, w.WatchRefs()...)
		}
	}
	return refs
}
