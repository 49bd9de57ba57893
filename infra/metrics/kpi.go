package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/voltlab/smartcharge/core/kpi"
	coremetrics "github.com/voltlab/smartcharge/core/metrics"
)

// KpiSink aggregates charged time slices into daily KPI records.
type KpiSink struct {
	store     kpi.Store
	powerKW   float64
	charged   *prometheus.GaugeVec
	meanPrice *prometheus.GaugeVec
	energy    *prometheus.GaugeVec
}

// NewKpiSink creates a sink with Prometheus gauges registered on reg.
func NewKpiSink(store kpi.Store, powerKW float64, reg prometheus.Registerer) *KpiSink {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	charged := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "charge_daily_seconds",
		Help: "Charged seconds per day",
	}, []string{"day"})
	meanPrice := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "charge_daily_mean_price",
		Help: "Time-weighted mean price paid per day",
	}, []string{"day"})
	energy := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "charge_daily_energy_kwh",
		Help: "Estimated delivered energy per day",
	}, []string{"day"})
	reg.MustRegister(charged, meanPrice, energy)
	return &KpiSink{store: store, powerKW: powerKW, charged: charged, meanPrice: meanPrice, energy: energy}
}

// RecordActivation is a no-op; the sink only consumes charge slices.
func (s *KpiSink) RecordActivation(coremetrics.ActivationResult) error { return nil }

// RecordChargeSlice updates the store and daily gauges.
func (s *KpiSink) RecordChargeSlice(ev coremetrics.ChargeSliceEvent) error {
	rec := kpi.Record{
		Day:            kpi.Day(ev.Time),
		ChargedSeconds: ev.Seconds,
		PriceSeconds:   ev.Seconds * ev.Price,
	}
	if err := s.store.Add(rec); err != nil {
		return err
	}
	dayStr := rec.Day.Format("2006-01-02")
	records, _ := s.store.Query(ev.Time, ev.Time)
	if len(records) > 0 {
		rr := records[0]
		s.charged.WithLabelValues(dayStr).Set(rr.ChargedSeconds)
		s.meanPrice.WithLabelValues(dayStr).Set(rr.MeanPrice())
		s.energy.WithLabelValues(dayStr).Set(rr.EnergyKWh(s.powerKW))
	}
	return nil
}
