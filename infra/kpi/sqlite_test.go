package kpi

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	core "github.com/voltlab/smartcharge/core/kpi"
)

func TestSQLiteStore_UpsertAndQuery(t *testing.T) {
	store, err := NewSQLiteStore("file:kpi_test.db?mode=memory&cache=shared")
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	day := time.Date(2026, 3, 10, 2, 0, 0, 0, time.UTC)
	require.NoError(t, store.Add(core.Record{Day: day, ChargedSeconds: 1800, PriceSeconds: 1800 * 0.10}))
	require.NoError(t, store.Add(core.Record{Day: day.Add(6 * time.Hour), ChargedSeconds: 1800, PriceSeconds: 1800 * 0.30}))
	require.NoError(t, store.Add(core.Record{Day: day.AddDate(0, 0, 1), ChargedSeconds: 900, PriceSeconds: 900 * 0.05}))

	recs, err := store.Query(day, day)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	require.Equal(t, float64(3600), recs[0].ChargedSeconds)
	require.InDelta(t, 0.20, recs[0].MeanPrice(), 1e-9)

	recs, err = store.Query(day, day.AddDate(0, 0, 1))
	require.NoError(t, err)
	require.Len(t, recs, 2)
	require.True(t, recs[0].Day.Before(recs[1].Day))
}
