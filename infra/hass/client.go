// Package hass adapts a Home Assistant MQTT statestream to the entity
// capability interfaces. Incoming topics feed a value cache, switch
// commands are confirmed by their state echo, and the controller's own
// switch and status sensor are published under a dedicated base topic.
package hass

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/voltlab/smartcharge/core/entity"
	"github.com/voltlab/smartcharge/core/logger"
	"github.com/voltlab/smartcharge/infra/mqtt"
)

// Config holds the topic layout of the Home Assistant bridge.
type Config struct {
	// StatestreamPrefix is the base_topic of the mqtt_statestream
	// integration on the Home Assistant side.
	StatestreamPrefix string `json:"statestream_prefix"`
	// DiscoveryPrefix is where MQTT discovery configs are announced.
	DiscoveryPrefix string `json:"discovery_prefix"`
	// BaseTopic is the root of the topics this controller owns.
	BaseTopic string `json:"base_topic"`
	// NodeID identifies the controller in discovery unique ids.
	NodeID string `json:"node_id"`
	// Name is the friendly name prefix of the owned entities.
	Name string `json:"name"`
	// CommandTimeoutSeconds bounds the wait for a command's state echo.
	CommandTimeoutSeconds float64 `json:"command_timeout_seconds"`
}

// SetDefaults fills unset fields with working defaults.
func (c *Config) SetDefaults() {
	if c.StatestreamPrefix == "" {
		c.StatestreamPrefix = "hass"
	}
	if c.DiscoveryPrefix == "" {
		c.DiscoveryPrefix = "homeassistant"
	}
	if c.BaseTopic == "" {
		c.BaseTopic = "smartcharge"
	}
	if c.NodeID == "" {
		c.NodeID = "smartcharge"
	}
	if c.Name == "" {
		c.Name = "Smart Charging"
	}
	if c.CommandTimeoutSeconds == 0 {
		c.CommandTimeoutSeconds = 10
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if c.CommandTimeoutSeconds <= 0 {
		return errors.New("command_timeout_seconds must be positive")
	}
	return nil
}

// Broker is the slice of the MQTT client the adapter uses, split out so
// tests can substitute it.
type Broker interface {
	Publish(topic string, qos byte, retained bool, payload []byte) error
	Subscribe(topic string, qos byte, fn mqtt.Handler) error
	Unsubscribe(topics ...string) error
	QoSFor(name string) byte
}

type cmdWaiter struct {
	want string
	ch   chan struct{}
}

// Client implements entity.Reader, entity.Commander,
// entity.StatusPublisher and entity.Watcher over a statestream.
type Client struct {
	cfg    Config
	broker Broker
	log    logger.Logger
	now    func() time.Time

	mu       sync.Mutex
	values   map[string]string             // ref -> decoded value
	changed  map[string]time.Time          // entity id -> last_changed
	watchers map[string][]func(entity.Event)
	waiters  map[string][]cmdWaiter // entity id -> pending command echoes
	tracked  map[string]bool        // subscribed topics
	onActive func(bool)
}

// NewClient creates the adapter on top of a connected broker.
func NewClient(cfg Config, broker Broker, log logger.Logger) (*Client, error) {
	if broker == nil || log == nil {
		return nil, errors.New("broker and logger are required")
	}
	return &Client{
		cfg:      cfg,
		broker:   broker,
		log:      log,
		now:      time.Now,
		values:   make(map[string]string),
		changed:  make(map[string]time.Time),
		watchers: make(map[string][]func(entity.Event)),
		waiters:  make(map[string][]cmdWaiter),
		tracked:  make(map[string]bool),
	}, nil
}

// Track subscribes to the topics backing ref so its value and the
// entity's last_changed flow into the cache. Statestream topics are
// retained, so the cache warms up right after subscribing.
func (c *Client) Track(ref entity.Ref) error {
	if ref.IsZero() {
		return errors.New("empty ref")
	}
	topics := []string{
		StateTopic(c.cfg.StatestreamPrefix, ref),
		LastChangedTopic(c.cfg.StatestreamPrefix, ref),
	}
	qos := c.broker.QoSFor("state")
	for _, topic := range topics {
		c.mu.Lock()
		seen := c.tracked[topic]
		c.tracked[topic] = true
		c.mu.Unlock()
		if seen {
			continue
		}
		if err := c.broker.Subscribe(topic, qos, c.onMessage); err != nil {
			return fmt.Errorf("subscribe %s: %w", topic, err)
		}
	}
	return nil
}

// onMessage routes one statestream message into the cache, the watch
// callbacks and any pending command waiters.
func (c *Client) onMessage(topic string, payload []byte) {
	ref, ok := RefFromTopic(c.cfg.StatestreamPrefix, topic)
	if !ok {
		return
	}
	value := decodePayload(payload)

	if ref.Attribute == "last_changed" || ref.Attribute == "last_updated" {
		at, err := parseTimestamp(value)
		if err != nil {
			c.log.Debugf("bad %s timestamp %q: %v", ref, value, err)
			return
		}
		if ref.Attribute == "last_changed" {
			c.mu.Lock()
			c.changed[ref.EntityID] = at
			c.mu.Unlock()
		}
		return
	}

	key := ref.String()
	c.mu.Lock()
	prev := c.values[key]
	c.values[key] = value
	callbacks := append([]func(entity.Event){}, c.watchers[key]...)
	var signaled []chan struct{}
	if ref.Attribute == "" {
		pending := c.waiters[ref.EntityID]
		kept := pending[:0]
		for _, w := range pending {
			if strings.EqualFold(w.want, value) {
				signaled = append(signaled, w.ch)
			} else {
				kept = append(kept, w)
			}
		}
		c.waiters[ref.EntityID] = kept
	}
	c.mu.Unlock()

	for _, ch := range signaled {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
	if value == prev {
		return
	}
	ev := entity.Event{Ref: ref, Value: value, Previous: prev, At: c.now()}
	for _, fn := range callbacks {
		fn(ev)
	}
}

// Value implements entity.Reader. Home Assistant's "unknown" and
// "unavailable" placeholders count as no value.
func (c *Client) Value(ref entity.Ref) (string, bool) {
	c.mu.Lock()
	v, ok := c.values[ref.String()]
	c.mu.Unlock()
	if !ok || v == "" || v == "unknown" || v == "unavailable" {
		return "", false
	}
	return v, true
}

// LastChanged implements entity.Reader.
func (c *Client) LastChanged(ref entity.Ref) (time.Time, bool) {
	c.mu.Lock()
	at, ok := c.changed[ref.EntityID]
	c.mu.Unlock()
	return at, ok
}

// Command implements entity.Commander. The command is published to the
// set topic and counts as confirmed when the statestream echoes the
// desired state back within the configured timeout. A target already in
// the desired state is republished without waiting, there will be no
// echo for it.
func (c *Client) Command(target entity.Ref, on bool) error {
	want := "off"
	if on {
		want = "on"
	}
	if err := c.Track(target); err != nil {
		return fmt.Errorf("track %s: %w", target, entity.ErrCommandFailed)
	}
	if cur, ok := c.Value(target); ok && strings.EqualFold(cur, want) {
		return c.publishCommand(target, want)
	}

	ch := make(chan struct{}, 1)
	c.mu.Lock()
	c.waiters[target.EntityID] = append(c.waiters[target.EntityID], cmdWaiter{want: want, ch: ch})
	c.mu.Unlock()
	defer c.dropWaiter(target.EntityID, ch)

	if err := c.publishCommand(target, want); err != nil {
		return err
	}

	timeout := time.Duration(c.cfg.CommandTimeoutSeconds * float64(time.Second))
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case <-ch:
		return nil
	case <-timer.C:
		return fmt.Errorf("no state echo for %s within %s: %w", target, timeout, entity.ErrCommandFailed)
	}
}

func (c *Client) publishCommand(target entity.Ref, want string) error {
	topic := CommandTopic(c.cfg.StatestreamPrefix, target)
	if err := c.broker.Publish(topic, c.broker.QoSFor("command"), false, []byte(want)); err != nil {
		return fmt.Errorf("publish %s: %v: %w", topic, err, entity.ErrCommandFailed)
	}
	return nil
}

func (c *Client) dropWaiter(entityID string, ch chan struct{}) {
	c.mu.Lock()
	defer c.mu.Unlock()
	pending := c.waiters[entityID]
	for i, w := range pending {
		if w.ch == ch {
			c.waiters[entityID] = append(pending[:i], pending[i+1:]...)
			return
		}
	}
}

// Watch implements entity.Watcher. The callback runs on the MQTT router
// goroutine and must not block.
func (c *Client) Watch(ref entity.Ref, fn func(entity.Event)) error {
	if err := c.Track(ref); err != nil {
		return err
	}
	key := ref.String()
	c.mu.Lock()
	c.watchers[key] = append(c.watchers[key], fn)
	c.mu.Unlock()
	return nil
}

// Unwatch implements entity.Watcher. The topic subscription stays so the
// cache keeps warm; only the callbacks are dropped.
func (c *Client) Unwatch(ref entity.Ref) error {
	c.mu.Lock()
	delete(c.watchers, ref.String())
	c.mu.Unlock()
	return nil
}

// PublishStatus implements entity.StatusPublisher. State and attributes
// are retained so Home Assistant restores them after a restart.
func (c *Client) PublishStatus(state string, attrs map[string]any) error {
	qos := c.broker.QoSFor("status")
	if err := c.broker.Publish(c.StatusStateTopic(), qos, true, []byte(state)); err != nil {
		return fmt.Errorf("publish status: %w", err)
	}
	body, err := json.Marshal(attrs)
	if err != nil {
		return fmt.Errorf("encode attributes: %w", err)
	}
	if err := c.broker.Publish(c.StatusAttributesTopic(), qos, true, body); err != nil {
		return fmt.Errorf("publish attributes: %w", err)
	}
	return nil
}

// PublishActive implements entity.StatusPublisher.
func (c *Client) PublishActive(state string) error {
	return c.broker.Publish(c.ActiveStateTopic(), c.broker.QoSFor("status"), true, []byte(state))
}

// PublishAvailable marks the controller online. The matching offline
// payload is the broker's last-will on the same topic.
func (c *Client) PublishAvailable() error {
	return c.broker.Publish(c.AvailabilityTopic(), c.broker.QoSFor("status"), true, []byte("online"))
}

// PublishOffline marks the controller unavailable on clean shutdown.
// Unclean exits rely on the broker's last-will instead.
func (c *Client) PublishOffline() error {
	return c.broker.Publish(c.AvailabilityTopic(), c.broker.QoSFor("status"), true, []byte("offline"))
}

// OnActiveCommand subscribes to the owned enable switch's set topic. The
// received state is echoed back immediately (the flag is ours to accept)
// and then handed to fn.
func (c *Client) OnActiveCommand(fn func(bool)) error {
	c.mu.Lock()
	c.onActive = fn
	c.mu.Unlock()
	return c.broker.Subscribe(c.ActiveSetTopic(), c.broker.QoSFor("command"), c.onActiveSet)
}

func (c *Client) onActiveSet(_ string, payload []byte) {
	state := strings.ToLower(strings.TrimSpace(string(payload)))
	if state != "on" && state != "off" {
		c.log.Warnf("ignoring active command %q", payload)
		return
	}
	if err := c.PublishActive(state); err != nil {
		c.log.Errorf("echo active state: %v", err)
	}
	c.mu.Lock()
	fn := c.onActive
	c.mu.Unlock()
	if fn != nil {
		fn(state == "on")
	}
}

// Owned topic accessors.

func (c *Client) ActiveStateTopic() string { return c.cfg.BaseTopic + "/active/state" }

func (c *Client) ActiveSetTopic() string { return c.cfg.BaseTopic + "/active/set" }

func (c *Client) StatusStateTopic() string { return c.cfg.BaseTopic + "/status/state" }

func (c *Client) StatusAttributesTopic() string { return c.cfg.BaseTopic + "/status/attributes" }

func (c *Client) AvailabilityTopic() string { return c.cfg.BaseTopic + "/available" }

// decodePayload unwraps JSON-encoded scalars: statestream publishes
// attribute values through json.dumps, so strings arrive quoted. Arrays
// and objects are kept as raw JSON for the price sources to parse.
func decodePayload(payload []byte) string {
	s := strings.TrimSpace(string(payload))
	if strings.HasPrefix(s, `"`) {
		var out string
		if err := json.Unmarshal([]byte(s), &out); err == nil {
			return out
		}
	}
	return s
}

// parseTimestamp accepts the isoformat variants Home Assistant emits.
func parseTimestamp(s string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02 15:04:05.999999-07:00", "2006-01-02 15:04:05-07:00"} {
		if at, err := time.Parse(layout, s); err == nil {
			return at, nil
		}
	}
	return time.Time{}, fmt.Errorf("unsupported timestamp %q", s)
}
