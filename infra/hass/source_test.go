package hass

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voltlab/smartcharge/core/entity"
	"github.com/voltlab/smartcharge/core/factory"
	"github.com/voltlab/smartcharge/core/price"
)

type staticReader map[string]string

func (r staticReader) Value(ref entity.Ref) (string, bool) {
	v, ok := r[ref.String()]
	return v, ok
}

func (r staticReader) LastChanged(entity.Ref) (time.Time, bool) { return time.Time{}, false }

const rawToday = `[
  {"start": "2024-05-04T00:00:00+02:00", "end": "2024-05-04T01:00:00+02:00", "value": 0.21},
  {"start": "2024-05-04 01:00:00+02:00", "end": "2024-05-04 02:00:00+02:00", "value": null}
]`

func TestEntitySourcePoints(t *testing.T) {
	reader := staticReader{"sensor.prices,raw_today": rawToday}
	src := &EntitySource{name: "today", ref: entity.ParseRef("sensor.prices,raw_today"), required: true, reader: reader}

	points, err := src.Points()
	require.NoError(t, err)
	require.Len(t, points, 2)

	require.NotNil(t, points[0].Value)
	assert.InDelta(t, 0.21, *points[0].Value, 1e-9)
	assert.Equal(t, 0, points[0].Start.Hour())
	assert.Equal(t, time.Hour, points[0].End.Sub(points[0].Start))

	// Unpriced intervals keep a nil value.
	assert.Nil(t, points[1].Value)
}

func TestEntitySourceUnreadable(t *testing.T) {
	src := &EntitySource{name: "today", ref: entity.ParseRef("sensor.prices,raw_today"), reader: staticReader{}}
	_, err := src.Points()
	require.Error(t, err)

	bad := &EntitySource{name: "bad", ref: entity.ParseRef("sensor.prices,raw_today"), reader: staticReader{"sensor.prices,raw_today": "not json"}}
	_, err = bad.Points()
	require.Error(t, err)
}

func TestRegisterEntitySource(t *testing.T) {
	cli, fb := newTestClient(t)
	require.NoError(t, RegisterEntitySource(cli))

	sources, err := price.NewSources([]factory.ModuleConfig{{
		Type: "entity",
		Conf: map[string]any{"entity": "sensor.prices,raw_today", "required": true},
	}})
	require.NoError(t, err)
	require.Len(t, sources, 1)

	src := sources[0]
	assert.Equal(t, "sensor.prices,raw_today", src.Name())
	assert.True(t, src.Required())

	w, ok := src.(price.Watchable)
	require.True(t, ok)
	require.Len(t, w.WatchRefs(), 1)

	// Construction already subscribed the backing topics.
	fb.deliver(t, "hass/sensor/prices/raw_today", rawToday)
	points, err := src.Points()
	require.NoError(t, err)
	assert.Len(t, points, 2)

	// Missing entity key is rejected.
	_, err = price.NewSources([]factory.ModuleConfig{{Type: "entity", Conf: map[string]any{"required": true}}})
	require.Error(t, err)
}
