// Package app assembles the configured service: broker, statestream
// adapter, controller, worker loop and the observability surfaces.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/voltlab/smartcharge/api"
	"github.com/voltlab/smartcharge/config"
	"github.com/voltlab/smartcharge/core/charge"
	"github.com/voltlab/smartcharge/core/history"
	"github.com/voltlab/smartcharge/core/kpi"
	coremetrics "github.com/voltlab/smartcharge/core/metrics"
	coremon "github.com/voltlab/smartcharge/core/monitoring"
	"github.com/voltlab/smartcharge/core/price"
	"github.com/voltlab/smartcharge/core/worker"
	"github.com/voltlab/smartcharge/infra/hass"
	infrakpi "github.com/voltlab/smartcharge/infra/kpi"
	"github.com/voltlab/smartcharge/infra/logger"
	inframetrics "github.com/voltlab/smartcharge/infra/metrics"
	"github.com/voltlab/smartcharge/infra/monitoring"
	"github.com/voltlab/smartcharge/infra/mqtt"
	"github.com/voltlab/smartcharge/infra/persist"
	"github.com/voltlab/smartcharge/internal/eventbus"
	"github.com/voltlab/smartcharge/jobs/chargekpi"
)

// Service orchestrates the charge worker and its adapters.
type Service struct {
	Worker *worker.Worker

	cfg      *config.Config
	mqtt     *mqtt.Client
	hass     *hass.Client
	bus      *eventbus.Bus
	history  history.Store
	kpiStore kpi.Store
	kpiClose func() error
	sink     coremetrics.MetricsSink
	monitor  coremon.Monitor
	log      logger.Logger
}

// New creates a Service from the configuration.
func New(cfg *config.Config) (*Service, error) {
	logg := logger.New("service")

	monitor, err := monitoring.NewSentryMonitor(cfg.Sentry)
	if err != nil {
		return nil, fmt.Errorf("sentry: %w", err)
	}
	coremon.Init(monitor)

	store := persist.NewFileStore(cfg.Persist.Path, logger.New("persist"))
	rec, err := store.Load()
	if err != nil {
		return nil, fmt.Errorf("load state: %w", err)
	}
	session := charge.NewSession(rec.Active == "on", charge.ParseStatus(rec.Status))

	// Align the last-will with the availability topic so an unclean exit
	// flips the integration to unavailable.
	mqttCfg := cfg.MQTT
	if mqttCfg.LWTTopic == "" {
		mqttCfg.LWTTopic = cfg.Hass.BaseTopic + "/available"
		mqttCfg.LWTPayload = "offline"
		mqttCfg.LWTRetain = true
	}
	client, err := mqtt.NewClient(mqttCfg)
	if err != nil {
		return nil, fmt.Errorf("mqtt client: %w", err)
	}

	ha, err := hass.NewClient(cfg.Hass, client, logger.New("hass"))
	if err != nil {
		return nil, fmt.Errorf("hass client: %w", err)
	}
	if err := hass.RegisterEntitySource(ha); err != nil {
		return nil, fmt.Errorf("entity source: %w", err)
	}
	sources, err := price.NewSources(cfg.Prices)
	if err != nil {
		return nil, fmt.Errorf("price sources: %w", err)
	}

	bus := eventbus.New()
	ctrl, err := charge.NewController(cfg.Charge, session, charge.Deps{
		Reader:    ha,
		Commander: ha,
		Status:    ha,
		Sources:   sources,
		Bus:       bus,
		Log:       logger.New("controller"),
	})
	if err != nil {
		return nil, fmt.Errorf("controller: %w", err)
	}

	hist, err := history.New(cfg.History)
	if err != nil {
		return nil, fmt.Errorf("history store: %w", err)
	}
	kpiStore, kpiClose, err := newKPIStore(cfg.KPI)
	if err != nil {
		return nil, fmt.Errorf("kpi store: %w", err)
	}
	// Rebuild daily aggregates so gauges and the API survive restarts.
	if recs, err := hist.Query(context.Background(), history.Query{}); err != nil {
		logg.Warnf("kpi backfill query: %v", err)
	} else if err := chargekpi.Backfill(kpiStore, recs); err != nil {
		logg.Warnf("kpi backfill: %v", err)
	}

	sink, err := coremetrics.NewMetricsSink(cfg.Metrics.Sinks)
	if err != nil {
		return nil, fmt.Errorf("metrics sinks: %w", err)
	}
	sink = coremetrics.NewMultiSink(sink, inframetrics.NewKpiSink(kpiStore, cfg.Metrics.ChargerPowerKW, nil))

	w, err := worker.New(cfg.Worker, worker.Deps{
		Controller: ctrl,
		Session:    session,
		Store:      store,
		History:    hist,
		Watcher:    ha,
		Bus:        bus,
		Log:        logger.New("worker"),
	})
	if err != nil {
		return nil, fmt.Errorf("worker: %w", err)
	}

	if err := ha.PublishDiscovery(); err != nil {
		logg.Warnf("discovery: %v", err)
	}
	if err := ha.PublishAvailable(); err != nil {
		logg.Warnf("availability: %v", err)
	}
	if err := ha.PublishActive(rec.Active); err != nil {
		logg.Warnf("initial active state: %v", err)
	}
	if err := ha.OnActiveCommand(w.SetActive); err != nil {
		return nil, fmt.Errorf("active command: %w", err)
	}

	return &Service{
		Worker:   w,
		cfg:      cfg,
		mqtt:     client,
		hass:     ha,
		bus:      bus,
		history:  hist,
		kpiStore: kpiStore,
		kpiClose: kpiClose,
		sink:     sink,
		monitor:  monitor,
		log:      logg,
	}, nil
}

// Run starts the observability servers and blocks in the worker loop
// until the context is cancelled.
func (s *Service) Run(ctx context.Context) error {
	inframetrics.StartEventCollector(ctx, s.bus, s.sink)
	if s.cfg.Metrics.HasSink("prometheus") {
		go func() {
			if err := inframetrics.StartPromServer(ctx, s.cfg.Metrics.PrometheusAddr); err != nil {
				s.log.Errorf("prom server: %v", err)
			}
		}()
	}
	if s.cfg.API.Enabled {
		deps := api.Deps{
			Status:         s.Worker,
			History:        s.history,
			KPI:            s.kpiStore,
			ChargerPowerKW: s.cfg.Metrics.ChargerPowerKW,
			Healthy:        s.mqtt.IsConnected,
		}
		go func() {
			if err := api.Start(ctx, s.cfg.API, deps); err != nil {
				s.log.Errorf("api server: %v", err)
			}
		}()
	}
	return s.Worker.Run(ctx)
}

// Close releases resources held by the service.
func (s *Service) Close() error {
	var firstErr error
	if err := s.hass.PublishOffline(); err != nil {
		s.log.Warnf("offline state: %v", err)
	}
	if err := s.history.Close(); err != nil {
		firstErr = err
	}
	if s.kpiClose != nil {
		if err := s.kpiClose(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	s.bus.Close()
	s.mqtt.Disconnect()
	s.monitor.Flush(2 * time.Second)
	return firstErr
}

// newKPIStore builds the configured daily KPI store. The second return
// closes it, nil when nothing needs closing.
func newKPIStore(cfg config.KPIConfig) (kpi.Store, func() error, error) {
	switch cfg.Backend {
	case "sqlite":
		st, err := infrakpi.NewSQLiteStore(cfg.Path)
		if err != nil {
			return nil, nil, err
		}
		return st, st.Close, nil
	default:
		return kpi.NewMemoryStore(), nil, nil
	}
}
