package scenarios

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/voltlab/smartcharge/core/charge"
	"github.com/voltlab/smartcharge/core/entity"
	"github.com/voltlab/smartcharge/core/price"
	"github.com/voltlab/smartcharge/infra/logger"
)

// The fixtures all use the same entity wiring; only values vary.
const (
	chargerSwitch = "switch.charger"
	chargingState = "binary_sensor.ev,charging_state"
	deviceTracker = "device_tracker.ev"
	timeLeft      = "sensor.ev,time_left"
)

type tableReader struct {
	values  map[string]string
	changed map[string]time.Time
}

func (r *tableReader) Value(ref entity.Ref) (string, bool) {
	v, ok := r.values[ref.String()]
	return v, ok
}

func (r *tableReader) LastChanged(ref entity.Ref) (time.Time, bool) {
	ts, ok := r.changed[ref.String()]
	return ts, ok
}

type captureCommander struct{ calls []bool }

func (c *captureCommander) Command(_ entity.Ref, on bool) error {
	c.calls = append(c.calls, on)
	return nil
}

type captureStatus struct {
	state string
	attrs map[string]any
}

func (s *captureStatus) PublishStatus(state string, attrs map[string]any) error {
	s.state, s.attrs = state, attrs
	return nil
}

func (s *captureStatus) PublishActive(string) error { return nil }

type fixedSource struct {
	name        string
	required    bool
	unavailable bool
	points      []price.RawPoint
}

func (s fixedSource) Name() string { return s.name }

func (s fixedSource) Required() bool { return s.required }

func (s fixedSource) Points() ([]price.RawPoint, error) {
	if s.unavailable {
		return nil, fmt.Errorf("source %s unavailable", s.name)
	}
	return s.points, nil
}

// RunScenario evaluates the controller once against the fixture and
// checks the expectations. The clock is pinned so hour offsets in the
// fixture are deterministic.
func RunScenario(t *testing.T, sc *Scenario) {
	now := time.Date(2026, 1, 15, 21, 0, 0, 0, time.UTC)

	reader := &tableReader{values: map[string]string{}, changed: map[string]time.Time{}}
	for ref, val := range sc.Entities {
		key := entity.ParseRef(ref).String()
		reader.values[key] = val
		reader.changed[key] = now.Add(-time.Minute)
	}
	for ref, secs := range sc.StaleSeconds {
		reader.changed[entity.ParseRef(ref).String()] = now.Add(-time.Duration(secs) * time.Second)
	}

	active := true
	if sc.Active != nil {
		active = *sc.Active
	}
	session := charge.NewSession(active, charge.ParseStatus(sc.InitialStatus))
	if sc.NeedSeconds > 0 {
		session.Need, session.NeedKnown = sc.NeedSeconds, true
	}

	var sources []price.Source
	for _, def := range sc.Sources {
		src := fixedSource{name: def.Name, required: def.Required, unavailable: def.Unavailable}
		for _, p := range def.Points {
			src.points = append(src.points, price.RawPoint{
				Start: now.Add(time.Duration(p.StartHours * float64(time.Hour))),
				End:   now.Add(time.Duration(p.EndHours * float64(time.Hour))),
				Value: p.Value,
			})
		}
		sources = append(sources, src)
	}

	cfg := charge.Config{
		FinishBy:      sc.FinishBy,
		Timezone:      "UTC",
		ChargerSwitch: chargerSwitch,
		ChargingState: chargingState,
		DeviceTracker: deviceTracker,
		TimeLeft:      timeLeft,
	}
	cfg.SetDefaults()

	cmdr := &captureCommander{}
	status := &captureStatus{}
	ctrl, err := charge.NewController(cfg, session, charge.Deps{
		Reader:    reader,
		Commander: cmdr,
		Status:    status,
		Sources:   sources,
		Log:       logger.NopLogger{},
		Now:       func() time.Time { return now },
	})
	if err != nil {
		t.Fatalf("controller: %v", err)
	}

	out := ctrl.Evaluate()

	if got := out.Status.String(); got != sc.Expected.Status {
		t.Errorf("status %q, want %q (reason %q)", got, sc.Expected.Status, out.Reason)
	}
	switch sc.Expected.Command {
	case "on", "off":
		want := sc.Expected.Command == "on"
		if len(cmdr.calls) == 0 {
			t.Errorf("no command issued, want %s", sc.Expected.Command)
		} else if last := cmdr.calls[len(cmdr.calls)-1]; last != want {
			t.Errorf("command on=%v, want %s", last, sc.Expected.Command)
		}
	case "none", "":
		if len(cmdr.calls) != 0 {
			t.Errorf("unexpected commands %v", cmdr.calls)
		}
	default:
		t.Fatalf("bad expected.command %q", sc.Expected.Command)
	}
	if rc := sc.Expected.ReasonContains; rc != "" && !strings.Contains(out.Reason, rc) {
		t.Errorf("reason %q does not contain %q", out.Reason, rc)
	}
	if tl := sc.Expected.TimeLeftAttr; tl != "" {
		if got := status.attrs["charge_time_left"]; got != tl {
			t.Errorf("charge_time_left %v, want %q", got, tl)
		}
	}
	if ns := sc.Expected.NeedSeconds; ns != 0 && session.Need != ns {
		t.Errorf("need %d, want %d", session.Need, ns)
	}
	if sc.Expected.NextStartHours != nil {
		want := now.Add(time.Duration(*sc.Expected.NextStartHours * float64(time.Hour)))
		if out.Plan == nil || len(out.Plan.Slots) == 0 {
			t.Errorf("no plan, want next start %v", want)
		} else if !out.Plan.NextStart.Equal(want) {
			t.Errorf("next start %v, want %v", out.Plan.NextStart, want)
		}
	}
}
