package main

import (
	"context"
	"encoding/json"
	"log"
	"math/rand"
	"strconv"
	"strings"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/voltlab/smartcharge/core/entity"
	"github.com/voltlab/smartcharge/infra/hass"
)

var rng = rand.New(rand.NewSource(time.Now().UnixNano()))

// Charging state literals, matching the controller defaults.
const (
	stateStopped  = "stopped"
	stateCharging = "charging"
	stateComplete = "complete"
)

// SimulatedCharger plays the Home Assistant side of the statestream. It
// publishes the entity topics a controller observes and honors switch
// commands arriving on the set topic, echoing the new state back.
type SimulatedCharger struct {
	Broker   string
	ClientID string
	Prefix   string

	Switch   entity.Ref
	State    entity.Ref
	Tracker  entity.Ref
	TimeLeft entity.Ref
	Price    entity.Ref

	Battery      *Battery
	TargetSoc    float64
	DriveDrainKW float64
	Curve        priceCurve
	Interval     time.Duration
	Speedup      float64
	AwayRate     float64
	TripLength   time.Duration

	client paho.Client
	cmds   chan bool

	// run-loop state, untouched by the MQTT callback
	on        bool
	awayUntil time.Time
	prev      map[string]string
	priceDay  int
}

// Run connects to the broker, seeds the retained topics and ticks the
// simulation until ctx is done.
func (s *SimulatedCharger) Run(ctx context.Context) error {
	cli, err := connectBroker(s.Broker, s.ClientID)
	if err != nil {
		return err
	}
	s.client = cli
	topic := hass.CommandTopic(s.Prefix, s.Switch)
	if token := cli.Subscribe(topic, 1, s.onCommand); token.Wait() && token.Error() != nil {
		cli.Disconnect(250)
		return token.Error()
	}
	s.seed(time.Now())

	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			cli.Disconnect(250)
			return nil
		case want := <-s.cmds:
			s.apply(want, time.Now())
		case now := <-ticker.C:
			s.step(now)
		}
	}
}

// onCommand queues a switch command for the run loop. The callback runs
// on the MQTT router goroutine and must not publish itself.
func (s *SimulatedCharger) onCommand(_ paho.Client, msg paho.Message) {
	want := strings.EqualFold(strings.TrimSpace(string(msg.Payload())), "on")
	select {
	case s.cmds <- want:
	default:
		log.Printf("command queue full, dropping switch %s", onOff(want))
	}
}

// apply flips the switch and echoes the new state. The charging state
// follows on the next tick.
func (s *SimulatedCharger) apply(want bool, now time.Time) {
	s.on = want
	s.publishSwitch(want, now)
	log.Printf("charger switch set %s", onOff(want))
}

// seed publishes the full retained picture so a controller starting
// later finds every topic populated.
func (s *SimulatedCharger) seed(now time.Time) {
	s.publishSwitch(s.on, now)
	s.publishEntity(s.Tracker, trackerWord(true), now)
	state, hours := s.chargeState(s.on, true)
	s.publishEntity(s.State, state, now)
	s.publishEntity(s.TimeLeft, formatHours(hours), now)
	s.publishPrices(now)
	s.priceDay = now.YearDay()
}

// step advances the battery physics by one tick and publishes whatever
// changed.
func (s *SimulatedCharger) step(now time.Time) {
	if !s.awayUntil.IsZero() && now.After(s.awayUntil) {
		s.awayUntil = time.Time{}
		log.Printf("EV back home")
	} else if s.awayUntil.IsZero() && s.AwayRate > 0 && rng.Float64() < s.AwayRate {
		s.awayUntil = now.Add(s.TripLength)
		log.Printf("EV left, back in %s", s.TripLength)
	}
	home := s.awayUntil.IsZero()

	dt := time.Duration(float64(s.Interval) * s.Speedup)
	if home && s.on {
		s.Battery.Charge(dt)
	} else if !home {
		s.Battery.Drain(dt, s.DriveDrainKW)
	}

	s.publishEntity(s.Tracker, trackerWord(home), now)
	state, hours := s.chargeState(s.on, home)
	s.publishEntity(s.State, state, now)
	s.publishEntity(s.TimeLeft, formatHours(hours), now)

	if day := now.YearDay(); day != s.priceDay {
		s.publishPrices(now)
		s.priceDay = day
	}
}

// chargeState derives the charging state literal and the hours left to
// the target SoC.
func (s *SimulatedCharger) chargeState(on, home bool) (string, float64) {
	hours := s.Battery.HoursToTarget(s.TargetSoc)
	switch {
	case hours <= 0:
		return stateComplete, 0
	case on && home:
		return stateCharging, hours
	default:
		return stateStopped, hours
	}
}

// publishEntity publishes a state value and its last_changed timestamp,
// skipping unchanged values the way the statestream integration does.
func (s *SimulatedCharger) publishEntity(ref entity.Ref, value string, at time.Time) {
	if s.prev == nil {
		s.prev = map[string]string{}
	}
	if s.prev[ref.String()] == value {
		return
	}
	s.prev[ref.String()] = value
	s.publish(hass.StateTopic(s.Prefix, ref), value)
	s.publish(hass.LastChangedTopic(s.Prefix, ref), at.Format(time.RFC3339Nano))
}

// publishSwitch echoes the switch state unconditionally. Commands that
// repeat the current state still expect the retained echo refreshed.
func (s *SimulatedCharger) publishSwitch(on bool, at time.Time) {
	s.publish(hass.StateTopic(s.Prefix, s.Switch), onOff(on))
	s.publish(hass.LastChangedTopic(s.Prefix, s.Switch), at.Format(time.RFC3339Nano))
}

func (s *SimulatedCharger) publishPrices(now time.Time) {
	body, err := json.Marshal(s.Curve.Horizon(now))
	if err != nil {
		log.Printf("encode prices: %v", err)
		return
	}
	s.publish(hass.StateTopic(s.Prefix, s.Price), string(body))
}

func (s *SimulatedCharger) publish(topic, payload string) {
	token := s.client.Publish(topic, 1, true, []byte(payload))
	if !token.WaitTimeout(5 * time.Second) {
		log.Printf("publish timeout on %s", topic)
		return
	}
	if err := token.Error(); err != nil {
		log.Printf("publish %s: %v", topic, err)
	}
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}

func trackerWord(home bool) string {
	if home {
		return "home"
	}
	return "not_home"
}

func formatHours(h float64) string {
	return strconv.FormatFloat(h, 'f', 2, 64)
}
