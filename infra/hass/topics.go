package hass

import (
	"strings"

	"github.com/voltlab/smartcharge/core/entity"
)

// Statestream topic layout, as published by the Home Assistant
// mqtt_statestream integration:
//
//	<prefix>/<domain>/<object_id>/state           entity state
//	<prefix>/<domain>/<object_id>/<attribute>     one topic per attribute
//	<prefix>/<domain>/<object_id>/last_changed    when publish_timestamps is on
//
// Commands travel the other way on <prefix>/<domain>/<object_id>/set; an
// automation on the Home Assistant side maps them to service calls.

// StateTopic returns the topic carrying the value of ref.
func StateTopic(prefix string, ref entity.Ref) string {
	leaf := "state"
	if ref.Attribute != "" {
		leaf = ref.Attribute
	}
	return prefix + "/" + ref.Domain() + "/" + ref.ObjectID() + "/" + leaf
}

// LastChangedTopic returns the topic carrying the last_changed timestamp
// of ref's entity.
func LastChangedTopic(prefix string, ref entity.Ref) string {
	return prefix + "/" + ref.Domain() + "/" + ref.ObjectID() + "/last_changed"
}

// CommandTopic returns the topic a switch command for ref is published to.
func CommandTopic(prefix string, ref entity.Ref) string {
	return prefix + "/" + ref.Domain() + "/" + ref.ObjectID() + "/set"
}

// RefFromTopic inverts StateTopic. The "state" leaf maps to the bare
// entity ref, every other leaf to an attribute ref (timestamps included,
// the caller filters them). ok is false for topics outside the prefix or
// without the domain/object/leaf shape.
func RefFromTopic(prefix, topic string) (entity.Ref, bool) {
	rest, found := strings.CutPrefix(topic, prefix+"/")
	if !found {
		return entity.Ref{}, false
	}
	parts := strings.Split(rest, "/")
	if len(parts) != 3 || parts[0] == "" || parts[1] == "" || parts[2] == "" {
		return entity.Ref{}, false
	}
	ref := entity.Ref{EntityID: parts[0] + "." + parts[1]}
	if parts[2] != "state" {
		ref.Attribute = parts[2]
	}
	return ref, true
}
