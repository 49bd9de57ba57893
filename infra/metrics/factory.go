// Package metrics provides metrics sink implementations backed by
// Prometheus and InfluxDB, plus the event bus collector feeding them.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/voltlab/smartcharge/core/factory"
	coremetrics "github.com/voltlab/smartcharge/core/metrics"
)

// The builtin sinks self-register so importing this package is enough
// to make them buildable from configuration.
func init() {
	mustRegister("nop", func(map[string]any) (coremetrics.MetricsSink, error) {
		return coremetrics.NopSink{}, nil
	})

	mustRegister("prometheus", func(map[string]any) (coremetrics.MetricsSink, error) {
		return NewPromSinkWithRegistry(coremetrics.Config{}, prometheus.DefaultRegisterer)
	})

	mustRegister("influx", func(conf map[string]any) (coremetrics.MetricsSink, error) {
		var c struct {
			URL    string `json:"url"`
			Token  string `json:"token"`
			Org    string `json:"org"`
			Bucket string `json:"bucket"`
		}
		if err := factory.Decode(conf, &c); err != nil {
			return nil, err
		}
		return NewInfluxSinkWithFallback(c.URL, c.Token, c.Org, c.Bucket), nil
	})
}

func mustRegister(name string, b factory.Builder[coremetrics.MetricsSink]) {
	if err := coremetrics.RegisterMetricsSink(name, b); err != nil {
		panic(err)
	}
}
