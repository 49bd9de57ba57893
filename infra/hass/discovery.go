package hass

import (
	"encoding/json"
	"fmt"
)

// MQTT discovery payloads for the two owned entities. Publishing them
// retained makes the switch and the status sensor appear on the Home
// Assistant side without YAML.

type deviceInfo struct {
	Identifiers  []string `json:"identifiers"`
	Name         string   `json:"name"`
	Manufacturer string   `json:"manufacturer,omitempty"`
}

type switchDiscovery struct {
	Name              string     `json:"name"`
	UniqueID          string     `json:"unique_id"`
	StateTopic        string     `json:"state_topic"`
	CommandTopic      string     `json:"command_topic"`
	PayloadOn         string     `json:"payload_on"`
	PayloadOff        string     `json:"payload_off"`
	AvailabilityTopic string     `json:"availability_topic,omitempty"`
	Device            deviceInfo `json:"device"`
}

type sensorDiscovery struct {
	Name                string     `json:"name"`
	UniqueID            string     `json:"unique_id"`
	StateTopic          string     `json:"state_topic"`
	JSONAttributesTopic string     `json:"json_attributes_topic,omitempty"`
	AvailabilityTopic   string     `json:"availability_topic,omitempty"`
	Device              deviceInfo `json:"device"`
}

// PublishDiscovery announces the enable switch and the status sensor.
func (c *Client) PublishDiscovery() error {
	device := deviceInfo{
		Identifiers: []string{c.cfg.NodeID},
		Name:        c.cfg.Name,
	}
	sw := switchDiscovery{
		Name:              c.cfg.Name + " Active",
		UniqueID:          c.cfg.NodeID + "_active",
		StateTopic:        c.ActiveStateTopic(),
		CommandTopic:      c.ActiveSetTopic(),
		PayloadOn:         "on",
		PayloadOff:        "off",
		AvailabilityTopic: c.AvailabilityTopic(),
		Device:            device,
	}
	sensor := sensorDiscovery{
		Name:                c.cfg.Name + " Status",
		UniqueID:            c.cfg.NodeID + "_status",
		StateTopic:          c.StatusStateTopic(),
		JSONAttributesTopic: c.StatusAttributesTopic(),
		AvailabilityTopic:   c.AvailabilityTopic(),
		Device:              device,
	}

	if err := c.publishConfig("switch", "active", sw); err != nil {
		return err
	}
	return c.publishConfig("sensor", "status", sensor)
}

func (c *Client) publishConfig(component, objectID string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode %s discovery: %w", component, err)
	}
	topic := fmt.Sprintf("%s/%s/%s/%s/config", c.cfg.DiscoveryPrefix, component, c.cfg.NodeID, objectID)
	if err := c.broker.Publish(topic, c.broker.QoSFor("status"), true, body); err != nil {
		return fmt.Errorf("publish %s discovery: %w", component, err)
	}
	return nil
}
