package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/voltlab/smartcharge/core/kpi"
	coremetrics "github.com/voltlab/smartcharge/core/metrics"
)

func TestKpiSink_RecordChargeSlice(t *testing.T) {
	reg := prometheus.NewRegistry()
	store := kpi.NewMemoryStore()
	sink := NewKpiSink(store, 11, reg)

	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	if err := sink.RecordChargeSlice(coremetrics.ChargeSliceEvent{Seconds: 1800, Price: 0.10, Time: now}); err != nil {
		t.Fatalf("record: %v", err)
	}
	if err := sink.RecordChargeSlice(coremetrics.ChargeSliceEvent{Seconds: 1800, Price: 0.30, Time: now.Add(time.Hour)}); err != nil {
		t.Fatalf("record: %v", err)
	}

	recs, err := store.Query(now, now)
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(recs) != 1 || recs[0].ChargedSeconds != 3600 {
		t.Fatalf("unexpected store content: %+v", recs)
	}

	day := "2026-03-10"
	if got := testutil.ToFloat64(sink.charged.WithLabelValues(day)); got != 3600 {
		t.Errorf("charged gauge: got %v", got)
	}
	if got := testutil.ToFloat64(sink.meanPrice.WithLabelValues(day)); got != 0.20 {
		t.Errorf("mean price gauge: got %v", got)
	}
	if got := testutil.ToFloat64(sink.energy.WithLabelValues(day)); got != 11 {
		t.Errorf("energy gauge: got %v", got)
	}
}
