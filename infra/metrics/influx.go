package metrics

import (
	"context"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	coremetrics "github.com/voltlab/smartcharge/core/metrics"
	"github.com/voltlab/smartcharge/infra/logger"
)

// InfluxSink writes charge control events to an InfluxDB instance using the
// official client.
type InfluxSink struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
	log      logger.Logger
}

// NewInfluxSink creates a new sink configured for the given InfluxDB endpoint.
func NewInfluxSink(url, token, org, bucket string) *InfluxSink {
	base := strings.TrimSuffix(url, "/api/v2/write")
	client := influxdb2.NewClientWithOptions(base, token,
		influxdb2.DefaultOptions().SetHTTPClient(&http.Client{Timeout: 5 * time.Second}))
	return &InfluxSink{
		client:   client,
		writeAPI: client.WriteAPIBlocking(org, bucket),
		log:      logger.New("influx-sink"),
	}
}

// NewInfluxSinkWithFallback tries to ping the InfluxDB instance and
// returns a NopSink if the health check fails.
func NewInfluxSinkWithFallback(url, token, org, bucket string) coremetrics.MetricsSink {
	sink := NewInfluxSink(url, token, org, bucket)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	health, err := sink.client.Health(ctx)
	if err != nil || health.Status != "pass" {
		if err != nil {
			sink.log.Errorf("influx health check error: %v", err)
		} else {
			sink.log.Errorf("influx health status: %s", health.Status)
		}
		sink.client.Close()
		return coremetrics.NopSink{}
	}
	return sink
}

// RecordActivation writes the activation as a line protocol event.
func (s *InfluxSink) RecordActivation(res coremetrics.ActivationResult) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("charge_activation").
		AddTag("status", res.Status).
		AddTag("failed", strconv.FormatBool(res.Failed)).
		AddTag("component", "charge_worker").
		AddField("duration_ms", round3(res.Duration.Seconds()*1000)).
		SetTime(res.Time)
	return s.writeAPI.WritePoint(ctx, p)
}

// RecordCommand persists a switch command.
func (s *InfluxSink) RecordCommand(ev coremetrics.CommandEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	cmd := "off"
	if ev.On {
		cmd = "on"
	}
	p := write.NewPointWithMeasurement("charger_command").
		AddTag("command", cmd).
		AddTag("failed", strconv.FormatBool(ev.Failed)).
		AddTag("component", "charge_controller").
		AddField("count", 1).
		SetTime(ev.Time)
	return s.writeAPI.WritePoint(ctx, p)
}

// RecordStateChange persists a status transition.
func (s *InfluxSink) RecordStateChange(ev coremetrics.StateChangeEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("charge_state_change").
		AddTag("from", ev.From).
		AddTag("to", ev.To).
		AddTag("component", "charge_controller").
		AddField("reason", ev.Reason).
		SetTime(ev.Time)
	return s.writeAPI.WritePoint(ctx, p)
}

// RecordPlan persists the outcome of a slot selection.
func (s *InfluxSink) RecordPlan(ev coremetrics.PlanEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("charge_plan").
		AddTag("component", "charge_controller").
		AddField("slots", ev.Slots).
		AddField("planned_seconds", ev.PlannedSeconds).
		AddField("needed_seconds", ev.NeededSeconds).
		AddField("mean_price", round3(ev.MeanPrice)).
		AddField("mean_selected_price", round3(ev.MeanSelectedPrice)).
		SetTime(ev.Time)
	return s.writeAPI.WritePoint(ctx, p)
}

// RecordChargeSlice persists charged time accumulated between activations.
func (s *InfluxSink) RecordChargeSlice(ev coremetrics.ChargeSliceEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("charge_slice").
		AddTag("component", "charge_worker").
		AddField("seconds", round3(ev.Seconds)).
		AddField("price", round3(ev.Price)).
		SetTime(ev.Time)
	return s.writeAPI.WritePoint(ctx, p)
}

func round3(f float64) float64 {
	return math.Round(f*1000) / 1000
}
