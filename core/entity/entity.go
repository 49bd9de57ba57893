package entity

import (
	"errors"
	"strings"
	"time"
)

// ErrCommandFailed is returned when a charger command is rejected by the
// transport or not confirmed before the timeout.
var ErrCommandFailed = errors.New("charger command failed")

// Ref identifies a named input. The textual form is "entity_id[,attribute]";
// an empty Attribute selects the entity state itself.
type Ref struct {
	EntityID  string
	Attribute string
}

// ParseRef splits "entity_id[,attribute]" into a Ref, trimming whitespace
// around both parts.
func ParseRef(s string) Ref {
	parts := strings.SplitN(s, ",", 2)
	r := Ref{EntityID: strings.TrimSpace(parts[0])}
	if len(parts) > 1 {
		r.Attribute = strings.TrimSpace(parts[1])
	}
	return r
}

// String renders the Ref back to its configuration form.
func (r Ref) String() string {
	if r.Attribute == "" {
		return r.EntityID
	}
	return r.EntityID + "," + r.Attribute
}

// IsZero reports whether the Ref is empty.
func (r Ref) IsZero() bool { return r.EntityID == "" }

// Domain returns the part of the entity id before the first dot
// ("sensor.foo" -> "sensor"). Empty when the id carries no domain.
func (r Ref) Domain() string {
	if i := strings.IndexByte(r.EntityID, '.'); i > 0 {
		return r.EntityID[:i]
	}
	return ""
}

// ObjectID returns the part of the entity id after the first dot.
func (r Ref) ObjectID() string {
	if i := strings.IndexByte(r.EntityID, '.'); i >= 0 {
		return r.EntityID[i+1:]
	}
	return r.EntityID
}

// Event describes a change of a watched input.
type Event struct {
	Ref      Ref
	Value    string
	Previous string
	At       time.Time
}

// Reader provides read access to named inputs. A false second return means
// the value is unknown or not yet received.
type Reader interface {
	Value(ref Ref) (string, bool)
	LastChanged(ref Ref) (time.Time, bool)
}

// Commander switches the charger on or off. Implementations must return an
// error (wrapping ErrCommandFailed) when the command cannot be confirmed.
type Commander interface {
	Command(target Ref, on bool) error
}

// StatusPublisher exposes the controller's own entities for observability.
type StatusPublisher interface {
	// PublishStatus publishes the status entity state and its attributes.
	PublishStatus(state string, attrs map[string]any) error
	// PublishActive publishes the enable switch state ("on" or "off").
	PublishActive(state string) error
}

// Watcher delivers change events for watched inputs. Callbacks must not
// block; implementations drop events a slow consumer cannot take.
type Watcher interface {
	Watch(ref Ref, fn func(Event)) error
	Unwatch(ref Ref) error
}
