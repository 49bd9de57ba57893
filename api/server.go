// Package api exposes the controller state over HTTP: the live session
// snapshot, the decision history and daily charging KPIs.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/voltlab/smartcharge/core/history"
	"github.com/voltlab/smartcharge/core/kpi"
	"github.com/voltlab/smartcharge/core/worker"
	"github.com/voltlab/smartcharge/infra/logger"
)

// StatusSource provides the current session snapshot.
type StatusSource interface {
	Snapshot() worker.Snapshot
}

// Deps carries the data sources the API serves.
type Deps struct {
	Status  StatusSource
	History history.Store
	KPI     kpi.Store
	// ChargerPowerKW converts charged seconds into an energy estimate on
	// the KPI endpoint. Zero omits the estimate.
	ChargerPowerKW float64
	// Healthy reports whether the service considers itself operational,
	// typically broker connectivity. Nil means always healthy.
	Healthy func() bool
}

// NewStatusHandler returns an HTTP handler exposing the session snapshot
// via GET /api/status.
func NewStatusHandler(src StatusSource) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(src.Snapshot()); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
	})
}

// NewHistoryHandler returns an HTTP handler exposing decision records via
// GET /api/history. Supported query parameters: start and end (RFC3339),
// status, and limit.
func NewHistoryHandler(store history.Store) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		q := history.Query{}
		if s := r.URL.Query().Get("start"); s != "" {
			t, err := time.Parse(time.RFC3339, s)
			if err != nil {
				http.Error(w, "invalid start", http.StatusBadRequest)
				return
			}
			q.Start = t
		}
		if s := r.URL.Query().Get("end"); s != "" {
			t, err := time.Parse(time.RFC3339, s)
			if err != nil {
				http.Error(w, "invalid end", http.StatusBadRequest)
				return
			}
			q.End = t
		}
		q.Status = r.URL.Query().Get("status")
		if s := r.URL.Query().Get("limit"); s != "" {
			n, err := strconv.Atoi(s)
			if err != nil || n < 0 {
				http.Error(w, "invalid limit", http.StatusBadRequest)
				return
			}
			q.Limit = n
		}
		records, err := store.Query(r.Context(), q)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		if records == nil {
			records = []history.Record{}
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(records); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
	})
}

// NewKPIHandler exposes daily charging KPIs via GET /api/kpi. powerKW
// converts charged time into an energy estimate; zero omits it.
func NewKPIHandler(store kpi.Store, powerKW float64) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		start, _ := time.Parse(time.RFC3339, r.URL.Query().Get("start"))
		end, _ := time.Parse(time.RFC3339, r.URL.Query().Get("end"))
		if end.IsZero() {
			end = time.Now()
		}
		recs, err := store.Query(start, end)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		type out struct {
			Date           string  `json:"date"`
			ChargedSeconds float64 `json:"charged_seconds"`
			MeanPrice      float64 `json:"mean_price"`
			EnergyKWh      float64 `json:"energy_kwh,omitempty"`
		}
		outSlice := make([]out, len(recs))
		for i, rec := range recs {
			outSlice[i] = out{
				Date:           rec.Day.Format("2006-01-02"),
				ChargedSeconds: rec.ChargedSeconds,
				MeanPrice:      rec.MeanPrice(),
			}
			if powerKW > 0 {
				outSlice[i].EnergyKWh = rec.EnergyKWh(powerKW)
			}
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(outSlice)
	})
}

// NewHealthHandler returns the /healthz probe. healthy may be nil.
func NewHealthHandler(healthy func() bool) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if healthy != nil && !healthy() {
			w.WriteHeader(http.StatusServiceUnavailable)
			_ = json.NewEncoder(w).Encode(map[string]string{"status": "degraded"})
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	})
}

// requireToken wraps h with a bearer-token check. An empty token disables
// the check.
func requireToken(token string, h http.Handler) http.Handler {
	if token == "" {
		return h
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer "+token {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		h.ServeHTTP(w, r)
	})
}

// NewMux builds the API route table. Exposed separately so tests can
// exercise routing without binding a listener.
func NewMux(cfg Config, deps Deps) *http.ServeMux {
	mux := http.NewServeMux()
	if deps.Status != nil {
		mux.Handle("/api/status", requireToken(cfg.Token, NewStatusHandler(deps.Status)))
	}
	if deps.History != nil {
		mux.Handle("/api/history", requireToken(cfg.Token, NewHistoryHandler(deps.History)))
	}
	if deps.KPI != nil {
		mux.Handle("/api/kpi", requireToken(cfg.Token, NewKPIHandler(deps.KPI, deps.ChargerPowerKW)))
	}
	mux.Handle("/healthz", NewHealthHandler(deps.Healthy))
	return mux
}

// Start runs the API server on cfg.Addr until ctx is canceled.
func Start(ctx context.Context, cfg Config, deps Deps) error {
	log := logger.New("api-server")
	srv := &http.Server{Addr: cfg.Addr, Handler: NewMux(cfg, deps)}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Errorf("shutdown: %v", err)
		}
		cancel()
	}()
	log.Infof("api listening on %s", cfg.Addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}
