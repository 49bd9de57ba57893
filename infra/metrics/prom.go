package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	coremetrics "github.com/voltlab/smartcharge/core/metrics"
)

// PromSink records charge control events in Prometheus metrics.
type PromSink struct {
	activations *prometheus.CounterVec
	duration    prometheus.Histogram
	commands    *prometheus.CounterVec
	transitions *prometheus.CounterVec
	planned     prometheus.Gauge
	needed      prometheus.Gauge
	slots       prometheus.Gauge
	meanPrice   prometheus.Gauge
	slotPrice   prometheus.Gauge
	sleep       prometheus.Gauge
}

// NewPromSink registers charge metrics on the default Prometheus registerer.
// The Prometheus server should be started separately.
func NewPromSink(cfg coremetrics.Config) (coremetrics.MetricsSink, error) {
	return NewPromSinkWithRegistry(cfg, prometheus.DefaultRegisterer)
}

// NewPromSinkWithRegistry registers metrics on the provided registerer.
// A nil registerer defaults to the global Prometheus registerer.
func NewPromSinkWithRegistry(_ coremetrics.Config, reg prometheus.Registerer) (coremetrics.MetricsSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	s := &PromSink{
		activations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "charge_activations_total",
			Help: "Total number of controller activations",
		}, []string{"status", "failed"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "charge_activation_duration_seconds",
			Help:    "Time spent evaluating the controller",
			Buckets: prometheus.DefBuckets,
		}),
		commands: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "charger_commands_total",
			Help: "Total number of switch commands sent to the charger",
		}, []string{"command", "failed"}),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "charge_state_changes_total",
			Help: "Total number of controller status transitions",
		}, []string{"from", "to"}),
		planned: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "charge_planned_seconds",
			Help: "Seconds of charging covered by the current plan",
		}),
		needed: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "charge_needed_seconds",
			Help: "Seconds of charging the vehicle still needs",
		}),
		slots: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "charge_selected_slots",
			Help: "Number of slots in the current plan",
		}),
		meanPrice: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "charge_mean_price",
			Help: "Mean price over all available slots",
		}),
		slotPrice: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "charge_mean_selected_price",
			Help: "Mean price over the selected slots",
		}),
		sleep: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "charge_worker_sleep_seconds",
			Help: "Sleep scheduled until the next activation",
		}),
	}

	collectors := []prometheus.Collector{
		s.activations, s.duration, s.commands, s.transitions,
		s.planned, s.needed, s.slots, s.meanPrice, s.slotPrice, s.sleep,
	}
	for i, c := range collectors {
		if err := reg.Register(c); err != nil {
			are, ok := err.(prometheus.AlreadyRegisteredError)
			if !ok {
				return nil, err
			}
			collectors[i] = are.ExistingCollector
		}
	}
	s.activations = collectors[0].(*prometheus.CounterVec)
	s.duration = collectors[1].(prometheus.Histogram)
	s.commands = collectors[2].(*prometheus.CounterVec)
	s.transitions = collectors[3].(*prometheus.CounterVec)
	s.planned = collectors[4].(prometheus.Gauge)
	s.needed = collectors[5].(prometheus.Gauge)
	s.slots = collectors[6].(prometheus.Gauge)
	s.meanPrice = collectors[7].(prometheus.Gauge)
	s.slotPrice = collectors[8].(prometheus.Gauge)
	s.sleep = collectors[9].(prometheus.Gauge)
	return s, nil
}

// RecordActivation increments the activation counter and duration histogram.
func (s *PromSink) RecordActivation(res coremetrics.ActivationResult) error {
	s.activations.WithLabelValues(res.Status, strconv.FormatBool(res.Failed)).Inc()
	s.duration.Observe(res.Duration.Seconds())
	return nil
}

// RecordCommand counts switch commands by direction and outcome.
func (s *PromSink) RecordCommand(ev coremetrics.CommandEvent) error {
	cmd := "off"
	if ev.On {
		cmd = "on"
	}
	s.commands.WithLabelValues(cmd, strconv.FormatBool(ev.Failed)).Inc()
	return nil
}

// RecordStateChange counts status transitions.
func (s *PromSink) RecordStateChange(ev coremetrics.StateChangeEvent) error {
	s.transitions.WithLabelValues(ev.From, ev.To).Inc()
	return nil
}

// RecordPlan updates the plan gauges.
func (s *PromSink) RecordPlan(ev coremetrics.PlanEvent) error {
	s.planned.Set(float64(ev.PlannedSeconds))
	s.needed.Set(float64(ev.NeededSeconds))
	s.slots.Set(float64(ev.Slots))
	s.meanPrice.Set(ev.MeanPrice)
	s.slotPrice.Set(ev.MeanSelectedPrice)
	return nil
}

// RecordSleep sets the gauge to the scheduled sleep duration.
func (s *PromSink) RecordSleep(d time.Duration) error {
	s.sleep.Set(d.Seconds())
	return nil
}
