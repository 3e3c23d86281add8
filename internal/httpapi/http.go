// Package httpapi exposes the read-only ops surface.
package httpapi

import (
	"encoding/json"
	"log"
	"net/http"

	"sensorbus/eventbus"
	"sensorbus/internal/chart"
	"sensorbus/internal/consumer"
	"sensorbus/internal/metrics"
	"sensorbus/internal/store"
	"sensorbus/sensor"
)

// Fleet is the view of the simulator fleet the ops surface needs. The app
// implements it, delegating to whichever manager is current.
type Fleet interface {
	Running() bool
	Count() int
}

// Router builds HTTP handlers for /ops.
type Router struct {
	bus       *eventbus.Bus
	fleet     Fleet
	store     *store.Store
	collector *consumer.StatsCollector
	metrics   *metrics.Metrics
	runID     string
}

func NewRouter(bus *eventbus.Bus, fleet Fleet, st *store.Store, collector *consumer.StatsCollector, m *metrics.Metrics, runID string) *Router {
	return &Router{bus: bus, fleet: fleet, store: st, collector: collector, metrics: m, runID: runID}
}

func (r *Router) Register(mux *http.ServeMux) {
	mux.HandleFunc("/ops/status", r.status)
	mux.HandleFunc("/ops/stats", r.stats)
	mux.HandleFunc("/ops/health", r.health)
	mux.HandleFunc("/ops/chart.png", r.chart)
}

func (r *Router) status(w http.ResponseWriter, req *http.Request) {
	respondJSON(w, map[string]any{
		"run_id":     r.runID,
		"running":    r.fleet.Running(),
		"simulators": r.fleet.Count(),
		"bus":        r.bus.Stats(),
		"metrics":    r.metrics.Snapshot(),
	})
}

func (r *Router) stats(w http.ResponseWriter, req *http.Request) {
	persisted, err := r.store.ListDeviceStats(req.Context(), r.runID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	respondJSON(w, map[string]any{
		"live":      r.collector.Snapshot(),
		"persisted": persisted,
	})
}

func (r *Router) chart(w http.ResponseWriter, req *http.Request) {
	kindParam := req.URL.Query().Get("kind")
	if kindParam == "" {
		kindParam = string(sensor.KindCO)
	}
	kind, err := sensor.ParseKind(kindParam)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	data, err := chart.Render(string(kind), r.collector.Recent(kind))
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	_, _ = w.Write(data)
}

func (r *Router) health(w http.ResponseWriter, req *http.Request) {
	if err := r.store.Health(req.Context()); err != nil {
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func respondJSON(w http.ResponseWriter, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("write json: %v", err)
	}
}
