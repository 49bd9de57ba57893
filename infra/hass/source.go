package hass

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/voltlab/smartcharge/core/entity"
	"github.com/voltlab/smartcharge/core/factory"
	"github.com/voltlab/smartcharge/core/price"
)

// rawEntry mirrors one element of a nordpool-style price attribute:
// [{"start": "...", "end": "...", "value": 0.23}, ...]. A null value
// means the interval is known but unpriced.
type rawEntry struct {
	Start isoTime  `json:"start"`
	End   isoTime  `json:"end"`
	Value *float64 `json:"value"`
}

// isoTime accepts the isoformat variants price integrations emit.
type isoTime struct{ time.Time }

func (t *isoTime) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	at, err := parseTimestamp(s)
	if err != nil {
		return err
	}
	t.Time = at
	return nil
}

// EntitySource reads price intervals from a statestream attribute.
type EntitySource struct {
	name     string
	ref      entity.Ref
	required bool
	reader   entity.Reader
}

func (s *EntitySource) Name() string { return s.name }

func (s *EntitySource) Required() bool { return s.required }

// Points decodes the cached attribute payload. An unreadable entity is
// an error; an empty array is merely no data.
func (s *EntitySource) Points() ([]price.RawPoint, error) {
	raw, ok := s.reader.Value(s.ref)
	if !ok {
		return nil, fmt.Errorf("entity %s has no data", s.ref)
	}
	var entries []rawEntry
	if err := json.Unmarshal([]byte(raw), &entries); err != nil {
		return nil, fmt.Errorf("decode %s: %w", s.ref, err)
	}
	points := make([]price.RawPoint, 0, len(entries))
	for _, e := range entries {
		points = append(points, price.RawPoint{Start: e.Start.Time, End: e.End.Time, Value: e.Value})
	}
	return points, nil
}

// WatchRefs makes re-evaluation follow price updates.
func (s *EntitySource) WatchRefs() []entity.Ref { return []entity.Ref{s.ref} }

type entitySourceConfig struct {
	Entity   string `json:"entity"`
	Required bool   `json:"required"`
	Name     string `json:"name"`
}

// entityClient is the statestream client the "entity" factory binds to.
// The price registry is process-global while clients are per-service, so
// the factory resolves the client at construction time.
var (
	entityMu     sync.RWMutex
	entityClient *Client
)

func currentEntityClient() *Client {
	entityMu.RLock()
	defer entityMu.RUnlock()
	return entityClient
}

// RegisterEntitySource registers the "entity" price source type backed
// by the given client, rebinding it on repeat calls. Tracking starts at
// construction so retained price attributes are already cached when the
// first evaluation runs.
func RegisterEntitySource(client *Client) error {
	if client == nil {
		return errors.New("entity source: nil client")
	}
	entityMu.Lock()
	first := entityClient == nil
	entityClient = client
	entityMu.Unlock()
	if !first {
		return nil
	}
	return price.RegisterSource("entity", func(conf map[string]any) (price.Source, error) {
		var c entitySourceConfig
		if err := factory.Decode(conf, &c); err != nil {
			return nil, err
		}
		if c.Entity == "" {
			return nil, errors.New("entity source: entity is required")
		}
		cli := currentEntityClient()
		if cli == nil {
			return nil, errors.New("entity source: no client registered")
		}
		name := c.Name
		if name == "" {
			name = c.Entity
		}
		ref := entity.ParseRef(c.Entity)
		if err := cli.Track(ref); err != nil {
			return nil, err
		}
		return &EntitySource{name: name, ref: ref, required: c.Required, reader: cli}, nil
	})
}
