package hass

import (
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voltlab/smartcharge/core/entity"
	"github.com/voltlab/smartcharge/infra/logger"
	"github.com/voltlab/smartcharge/infra/mqtt"
)

type brokerMsg struct {
	topic    string
	qos      byte
	retained bool
	payload  string
}

type fakeBroker struct {
	mu        sync.Mutex
	published []brokerMsg
	subs      map[string]mqtt.Handler
	pubErr    error
}

func newFakeBroker() *fakeBroker {
	return &fakeBroker{subs: map[string]mqtt.Handler{}}
}

func (f *fakeBroker) Publish(topic string, qos byte, retained bool, payload []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.pubErr != nil {
		return f.pubErr
	}
	f.published = append(f.published, brokerMsg{topic, qos, retained, string(payload)})
	return nil
}

func (f *fakeBroker) Subscribe(topic string, qos byte, fn mqtt.Handler) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.subs[topic] = fn
	return nil
}

func (f *fakeBroker) Unsubscribe(topics ...string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, t := range topics {
		delete(f.subs, t)
	}
	return nil
}

func (f *fakeBroker) QoSFor(string) byte { return 0 }

// deliver feeds a message into the handler subscribed for the topic.
func (f *fakeBroker) deliver(t *testing.T, topic, payload string) {
	t.Helper()
	f.mu.Lock()
	fn := f.subs[topic]
	f.mu.Unlock()
	require.NotNil(t, fn, "no subscription for %s", topic)
	fn(topic, []byte(payload))
}

func (f *fakeBroker) messages(topic string) []brokerMsg {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []brokerMsg
	for _, m := range f.published {
		if m.topic == topic {
			out = append(out, m)
		}
	}
	return out
}

func newTestClient(t *testing.T) (*Client, *fakeBroker) {
	t.Helper()
	cfg := Config{CommandTimeoutSeconds: 0.2}
	cfg.SetDefaults()
	fb := newFakeBroker()
	cli, err := NewClient(cfg, fb, logger.NopLogger{})
	require.NoError(t, err)
	return cli, fb
}

func TestClientValueCacheAndWatch(t *testing.T) {
	cli, fb := newTestClient(t)
	ref := entity.ParseRef("binary_sensor.charger,charging_state")
	require.NoError(t, cli.Track(ref))

	_, ok := cli.Value(ref)
	assert.False(t, ok, "no value before first message")

	var events []entity.Event
	var mu sync.Mutex
	require.NoError(t, cli.Watch(ref, func(ev entity.Event) {
		mu.Lock()
		events = append(events, ev)
		mu.Unlock()
	}))

	// Attribute payloads arrive JSON-encoded.
	fb.deliver(t, "hass/binary_sensor/charger/charging_state", `"Stopped"`)
	v, ok := cli.Value(ref)
	require.True(t, ok)
	assert.Equal(t, "Stopped", v)

	fb.deliver(t, "hass/binary_sensor/charger/charging_state", `"Charging"`)
	fb.deliver(t, "hass/binary_sensor/charger/charging_state", `"Charging"`) // duplicate, no event

	mu.Lock()
	require.Len(t, events, 2)
	assert.Equal(t, "Stopped", events[0].Value)
	assert.Equal(t, "Charging", events[1].Value)
	assert.Equal(t, "Stopped", events[1].Previous)
	mu.Unlock()

	fb.deliver(t, "hass/binary_sensor/charger/last_changed", `"2024-05-04T10:00:00.123456+02:00"`)
	at, ok := cli.LastChanged(ref)
	require.True(t, ok)
	assert.Equal(t, 2024, at.Year())

	// Placeholder states read as no value but still notify watchers.
	fb.deliver(t, "hass/binary_sensor/charger/charging_state", `"unavailable"`)
	_, ok = cli.Value(ref)
	assert.False(t, ok)
	mu.Lock()
	require.Len(t, events, 3)
	assert.Equal(t, "unavailable", events[2].Value)
	mu.Unlock()

	require.NoError(t, cli.Unwatch(ref))
	fb.deliver(t, "hass/binary_sensor/charger/charging_state", `"Stopped"`)
	mu.Lock()
	assert.Len(t, events, 3, "no events after unwatch")
	mu.Unlock()
}

func TestClientCommandConfirmedByEcho(t *testing.T) {
	cli, fb := newTestClient(t)
	ref := entity.ParseRef("switch.charger")

	done := make(chan error, 1)
	go func() { done <- cli.Command(ref, true) }()

	require.Eventually(t, func() bool {
		return len(fb.messages("hass/switch/charger/set")) == 1
	}, time.Second, 5*time.Millisecond, "command not published")
	assert.Equal(t, "on", fb.messages("hass/switch/charger/set")[0].payload)

	fb.deliver(t, "hass/switch/charger/state", "on")
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("command did not return")
	}
}

func TestClientCommandTimeout(t *testing.T) {
	cli, _ := newTestClient(t)
	err := cli.Command(entity.ParseRef("switch.charger"), false)
	require.Error(t, err)
	assert.True(t, errors.Is(err, entity.ErrCommandFailed))
}

func TestClientCommandAlreadyInState(t *testing.T) {
	cli, fb := newTestClient(t)
	ref := entity.ParseRef("switch.charger")
	require.NoError(t, cli.Track(ref))
	fb.deliver(t, "hass/switch/charger/state", "on")

	// No echo will come for an unchanged state; the command must not wait.
	start := time.Now()
	require.NoError(t, cli.Command(ref, true))
	assert.Less(t, time.Since(start), 100*time.Millisecond)
	assert.Len(t, fb.messages("hass/switch/charger/set"), 1)
}

func TestClientPublishStatus(t *testing.T) {
	cli, fb := newTestClient(t)
	attrs := map[string]any{"reason": "outside low rate time slot", "charge_time_left": "01:30"}
	require.NoError(t, cli.PublishStatus("stopped", attrs))

	states := fb.messages("smartcharge/status/state")
	require.Len(t, states, 1)
	assert.Equal(t, "stopped", states[0].payload)
	assert.True(t, states[0].retained)

	attrMsgs := fb.messages("smartcharge/status/attributes")
	require.Len(t, attrMsgs, 1)
	var decoded map[string]any
	require.NoError(t, json.Unmarshal([]byte(attrMsgs[0].payload), &decoded))
	assert.Equal(t, "01:30", decoded["charge_time_left"])
}

func TestClientActiveCommand(t *testing.T) {
	cli, fb := newTestClient(t)
	var got []bool
	var mu sync.Mutex
	require.NoError(t, cli.OnActiveCommand(func(on bool) {
		mu.Lock()
		got = append(got, on)
		mu.Unlock()
	}))

	fb.deliver(t, "smartcharge/active/set", "OFF")
	fb.deliver(t, "smartcharge/active/set", "on")
	fb.deliver(t, "smartcharge/active/set", "garbage")

	mu.Lock()
	require.Equal(t, []bool{false, true}, got)
	mu.Unlock()

	// The accepted commands are echoed as retained state.
	echoes := fb.messages("smartcharge/active/state")
	require.Len(t, echoes, 2)
	assert.Equal(t, "off", echoes[0].payload)
	assert.Equal(t, "on", echoes[1].payload)
	assert.True(t, echoes[0].retained)
}

func TestClientDiscovery(t *testing.T) {
	cli, fb := newTestClient(t)
	require.NoError(t, cli.PublishDiscovery())

	swMsgs := fb.messages("homeassistant/switch/smartcharge/active/config")
	require.Len(t, swMsgs, 1)
	require.True(t, swMsgs[0].retained)
	var sw switchDiscovery
	require.NoError(t, json.Unmarshal([]byte(swMsgs[0].payload), &sw))
	assert.Equal(t, "smartcharge/active/set", sw.CommandTopic)
	assert.Equal(t, "smartcharge/active/state", sw.StateTopic)
	assert.Equal(t, "smartcharge_active", sw.UniqueID)

	snMsgs := fb.messages("homeassistant/sensor/smartcharge/status/config")
	require.Len(t, snMsgs, 1)
	var sn sensorDiscovery
	require.NoError(t, json.Unmarshal([]byte(snMsgs[0].payload), &sn))
	assert.Equal(t, "smartcharge/status/attributes", sn.JSONAttributesTopic)
	assert.Equal(t, "smartcharge/available", sn.AvailabilityTopic)
}

func TestClientAvailability(t *testing.T) {
	cli, fb := newTestClient(t)
	require.NoError(t, cli.PublishAvailable())
	msgs := fb.messages("smartcharge/available")
	require.Len(t, msgs, 1)
	assert.Equal(t, "online", msgs[0].payload)
	assert.True(t, msgs[0].retained)
}
