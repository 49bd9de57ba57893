// Package worker drives the charge controller: it re-evaluates on input
// changes (debounced) and on timer expiry, re-arming a single owned timer
// after every run so exactly one evaluation is ever pending.
package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/voltlab/smartcharge/core/charge"
	"github.com/voltlab/smartcharge/core/entity"
	"github.com/voltlab/smartcharge/core/events"
	"github.com/voltlab/smartcharge/core/history"
	"github.com/voltlab/smartcharge/core/logger"
	"github.com/voltlab/smartcharge/core/monitoring"
	"github.com/voltlab/smartcharge/core/persist"
	"github.com/voltlab/smartcharge/internal/eventbus"
)

// Deps bundles the collaborators of a Worker. Controller, Session, Store
// and Log are required; the rest defaults to no-ops.
type Deps struct {
	Controller *charge.Controller
	Session    *charge.Session
	Store      persist.Store
	History    history.Store
	Watcher    entity.Watcher
	Bus        *eventbus.Bus
	Log        logger.Logger
	Now        func() time.Time
}

// Snapshot is a safe-to-share copy of the published session state.
type Snapshot struct {
	Active     bool           `json:"active"`
	State      string         `json:"state"`
	Attributes map[string]any `json:"attributes"`
	LastRun    time.Time      `json:"last_run"`
}

// Worker owns the evaluation loop and is the only writer of the session.
type Worker struct {
	cfg     Config
	ctrl    *charge.Controller
	session *charge.Session
	store   persist.Store
	history history.Store
	watcher entity.Watcher
	bus     *eventbus.Bus
	log     logger.Logger
	now     func() time.Time

	wakeCh chan time.Duration

	mu            sync.Mutex
	pendingActive *bool
	last          Snapshot

	// loop-goroutine state
	lastRun   time.Time
	slotPrice float64
}

// New creates a Worker.
func New(cfg Config, deps Deps) (*Worker, error) {
	if deps.Controller == nil || deps.Session == nil || deps.Store == nil || deps.Log == nil {
		return nil, errors.New("controller, session, store and logger are required")
	}
	hist := deps.History
	if hist == nil {
		hist = history.NopStore{}
	}
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	return &Worker{
		cfg:     cfg,
		ctrl:    deps.Controller,
		session: deps.Session,
		store:   deps.Store,
		history: hist,
		watcher: deps.Watcher,
		bus:     deps.Bus,
		log:     deps.Log,
		now:     now,
		wakeCh:  make(chan time.Duration, 1),
	}, nil
}

// Run executes the worker loop until ctx is canceled. The first
// evaluation happens immediately; afterwards the loop sleeps until the
// nearest interval boundary, an input change or the persist tick.
func (w *Worker) Run(ctx context.Context) error {
	var watched []entity.Ref
	if w.watcher != nil {
		for _, ref := range w.ctrl.WatchRefs() {
			if err := w.watcher.Watch(ref, func(entity.Event) { w.Trigger() }); err != nil {
				w.log.Warnf("watch %s: %v", ref, err)
				continue
			}
			watched = append(watched, ref)
		}
		defer func() {
			for _, ref := range watched {
				if err := w.watcher.Unwatch(ref); err != nil {
					w.log.Debugf("unwatch %s: %v", ref, err)
				}
			}
		}()
	}

	persistTicker := time.NewTicker(time.Duration(w.cfg.PersistEverySeconds) * time.Second)
	defer persistTicker.Stop()

	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			w.Flush()
			return nil
		case <-persistTicker.C:
			w.Flush()
		case d := <-w.wakeCh:
			// Replace the pending activation: cancel and re-arm.
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
			timer.Reset(d)
		case <-timer.C:
			timer.Reset(w.activate(ctx))
		}
	}
}

// Trigger schedules a debounced re-evaluation. Bursts of triggers within
// the debounce window collapse into a single run.
func (w *Worker) Trigger() { w.wake(w.debounce()) }

// SetActive records the user's enable flag and schedules a re-evaluation.
// Turning the flag off reacts immediately so a stopped charger is handed
// back switched on without waiting out the debounce.
func (w *Worker) SetActive(on bool) {
	w.mu.Lock()
	w.pendingActive = &on
	w.mu.Unlock()
	if on {
		w.wake(w.debounce())
	} else {
		w.wake(0)
	}
}

// Snapshot returns the state published by the last evaluation. Safe for
// concurrent use.
func (w *Worker) Snapshot() Snapshot {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.last
}

// Flush saves the persistent record. Failures are logged and non-fatal.
func (w *Worker) Flush() {
	rec := persist.Record{Active: "on", Status: w.session.Status.String()}
	if !w.session.Active {
		rec.Active = "off"
	}
	if err := w.store.Save(rec); err != nil {
		w.log.Errorf("save state: %v", err)
	}
}

// activate performs one full evaluation and returns the sleep until the
// next one. Panics are contained here so the loop survives any single
// bad run.
func (w *Worker) activate(ctx context.Context) time.Duration {
	started := w.now()
	w.applyPendingActive()

	w.accountSlice(started)

	var out charge.Outcome
	panicked := false
	func() {
		defer func() {
			if r := recover(); r != nil {
				panicked = true
				err := fmt.Errorf("activation panic: %v", r)
				w.log.Errorf("%v", err)
				monitoring.CaptureException(err, map[string]string{"component": "charge_worker"})
			}
		}()
		out = w.ctrl.Evaluate()
	}()
	failed := out.Failed || panicked

	finished := w.now()
	sleep := w.nextSleep(out, finished, failed)

	w.slotPrice = 0
	if out.Status == charge.StatusCharging && out.Plan != nil && len(out.Plan.Slots) > 0 {
		w.slotPrice = out.Plan.Slots[0].Price
	}
	w.lastRun = started
	w.snapshot(started)

	rec := history.Record{
		ID:          uuid.NewString(),
		Timestamp:   started,
		Status:      out.Status.String(),
		Reason:      out.Reason,
		Command:     out.Command.String(),
		NeedKnown:   w.session.NeedKnown,
		NeedSeconds: w.session.Need,
		SlotPrice:   w.slotPrice,
		DurationMS:  finished.Sub(started).Milliseconds(),
		Failed:      failed,
	}
	if out.Plan != nil {
		rec.SlotCount = len(out.Plan.Slots)
		rec.PlannedSeconds = out.Plan.PlannedSeconds
	}
	if err := w.history.Append(ctx, rec); err != nil {
		w.log.Warnf("append history: %v", err)
	}

	w.publish(events.ActivationEvent{
		Status:   out.Status.String(),
		Reason:   out.Reason,
		Duration: finished.Sub(started),
		Sleep:    sleep,
		Failed:   failed,
		Time:     started,
	})

	w.log.Debugw("activation complete", map[string]any{
		"status":   out.Status.String(),
		"reason":   out.Reason,
		"failed":   failed,
		"duration": finished.Sub(started).String(),
		"sleep":    sleep.String(),
	})
	return sleep
}

// applyPendingActive folds an enable flip into the session at the start
// of an activation, keeping the session single-writer.
func (w *Worker) applyPendingActive() {
	w.mu.Lock()
	pending := w.pendingActive
	w.pendingActive = nil
	w.mu.Unlock()
	if pending == nil {
		return
	}
	w.session.Active = *pending
}

// accountSlice publishes the time spent charging since the previous
// activation so KPI sinks can aggregate it.
func (w *Worker) accountSlice(now time.Time) {
	if w.session.Status != charge.StatusCharging || w.lastRun.IsZero() {
		return
	}
	secs := now.Sub(w.lastRun).Seconds()
	if secs <= 0 {
		return
	}
	w.publish(events.ChargeSliceEvent{Seconds: secs, Price: w.slotPrice, Time: now})
}

// nextSleep derives the time until the next evaluation: the end of the
// nearest priced interval, capped by the sleep ceiling, and by the retry
// ceiling after a failed run.
func (w *Worker) nextSleep(out charge.Outcome, now time.Time, failed bool) time.Duration {
	sleep := time.Duration(w.cfg.MaxSleepSeconds) * time.Second
	intervals := out.Intervals
	if intervals == nil {
		intervals = w.ctrl.Intervals(now)
	}
	for _, iv := range intervals {
		if d := iv.End.Sub(now); d > 0 {
			if d < sleep {
				sleep = d
			}
			break
		}
	}
	if failed {
		if retry := time.Duration(w.cfg.RetrySleepSeconds) * time.Second; retry < sleep {
			sleep = retry
		}
	}
	return sleep
}

func (w *Worker) snapshot(at time.Time) {
	state, attrs := w.session.Snapshot()
	w.mu.Lock()
	w.last = Snapshot{
		Active:     w.session.Active,
		State:      state,
		Attributes: attrs,
		LastRun:    at,
	}
	w.mu.Unlock()
}

func (w *Worker) debounce() time.Duration {
	return time.Duration(w.cfg.DebounceSeconds * float64(time.Second))
}

// wake hands the desired delay to the loop. When a wake is already
// pending the smaller delay wins, so an immediate wake is never masked
// by a debounced one.
func (w *Worker) wake(d time.Duration) {
	for {
		select {
		case w.wakeCh <- d:
			return
		default:
		}
		select {
		case old := <-w.wakeCh:
			if old < d {
				d = old
			}
		default:
		}
	}
}

func (w *Worker) publish(ev any) {
	if w.bus != nil {
		w.bus.Publish(ev)
	}
}
