// Package app wires the bus, the simulator fleet, the consumers, and the
// ops surface together.
package app

import (
	"context"
	"errors"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"sensorbus/eventbus"
	"sensorbus/internal/config"
	"sensorbus/internal/consumer"
	"sensorbus/internal/httpapi"
	"sensorbus/internal/metrics"
	"sensorbus/internal/store"
	"sensorbus/internal/watch"
	"sensorbus/sensor"
	"sensorbus/sim"
)

// App owns the component graph for one process lifetime.
type App struct {
	cfg       config.Config
	bus       *eventbus.Bus
	store     *store.Store
	collector *consumer.StatsCollector
	metrics   *metrics.Metrics
	mux       *http.ServeMux
	runID     string

	mu      sync.Mutex
	manager *sim.Manager
}

func New(cfg config.Config) (*App, error) {
	st, err := store.Open(cfg.DBPath)
	if err != nil {
		return nil, err
	}
	bus := eventbus.New()
	m := metrics.New()
	collector := consumer.NewStatsCollector(bus, cfg.ChartPoints)
	consumer.NewLogConsumer(bus, m)

	manager, err := BuildFleet(cfg, bus)
	if err != nil {
		_ = st.Close()
		return nil, err
	}

	a := &App{
		cfg:       cfg,
		bus:       bus,
		store:     st,
		collector: collector,
		metrics:   m,
		runID:     uuid.NewString(),
		manager:   manager,
	}
	mux := http.NewServeMux()
	router := httpapi.NewRouter(bus, a, st, collector, m, a.runID)
	router.Register(mux)
	a.mux = mux
	return a, nil
}

// BuildFleet constructs one simulator per configured device. When the seed
// is zero each device gets a time-derived seed; a fixed seed makes the
// whole fleet deterministic.
func BuildFleet(cfg config.Config, bus *eventbus.Bus) (*sim.Manager, error) {
	manager := sim.NewManager()
	index := uint32(0)
	for _, spec := range cfg.Sensors {
		kind, err := sensor.ParseKind(spec.Kind)
		if err != nil {
			return nil, err
		}
		count := spec.Count
		if count <= 0 {
			count = 1
		}
		for i := 0; i < count; i++ {
			index++
			seed := cfg.Seed
			if seed == 0 {
				seed = uint32(time.Now().UnixNano()) ^ (index << 16)
			} else {
				seed += index
			}
			s, err := sim.NewSensorSimulator(bus, kind, spec.Interval(), sensor.NewRNG(seed))
			if err != nil {
				return nil, err
			}
			if err := manager.Add(s); err != nil {
				return nil, err
			}
		}
	}
	return manager, nil
}

// Running reports whether the current fleet is running.
func (a *App) Running() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.manager.Running()
}

// Count returns the current fleet size.
func (a *App) Count() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.manager.Count()
}

// Mux exposes the ops handlers for tests.
func (a *App) Mux() *http.ServeMux { return a.mux }

// RunID identifies this process run in the store.
func (a *App) RunID() string { return a.runID }

// Run starts the bus, the fleet, the watcher, and the ops server, then
// blocks until ctx is cancelled. Shutdown stops the fleet first, drains
// the bus, and flushes final stats before closing the store.
func (a *App) Run(ctx context.Context) error {
	if err := a.store.StartRun(ctx, a.runID, time.Now().UTC()); err != nil {
		return err
	}
	a.bus.Start()
	if err := a.currentManager().StartAll(); err != nil {
		log.Printf("start fleet: %v", err)
	}
	log.Printf("run %s started: %d simulators", a.runID, a.Count())

	if a.cfg.EnableWatcher {
		watcher := watch.New(a.cfg.ConfigPath, a.reload)
		if err := watcher.Start(ctx); err != nil {
			log.Printf("watcher disabled: %v", err)
		}
	}
	go a.flushLoop(ctx)

	if !a.cfg.EnableHTTP {
		<-ctx.Done()
		a.shutdown()
		return nil
	}

	srv := &http.Server{Addr: a.cfg.HTTPPort, Handler: a.mux}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
	log.Printf("ops listening on %s", a.cfg.HTTPPort)
	err := srv.ListenAndServe()
	a.shutdown()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (a *App) currentManager() *sim.Manager {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.manager
}

// reload rebuilds the fleet from the config file: the old fleet stops and
// drains, then the new one starts. A config that fails to load or build
// leaves the running fleet untouched.
func (a *App) reload() {
	cfg, err := config.Load()
	if err != nil {
		log.Printf("reload rejected: %v", err)
		return
	}
	manager, err := BuildFleet(cfg, a.bus)
	if err != nil {
		log.Printf("reload rejected: %v", err)
		return
	}

	a.mu.Lock()
	old := a.manager
	a.manager = manager
	a.mu.Unlock()

	old.StopAll()
	if err := manager.StartAll(); err != nil {
		log.Printf("reload start: %v", err)
		return
	}
	a.metrics.RecordReload()
	log.Printf("fleet reloaded: %d simulators", manager.Count())
}

func (a *App) flushLoop(ctx context.Context) {
	interval := time.Duration(a.cfg.FlushIntervalSec) * time.Second
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			a.flush(ctx)
		}
	}
}

func (a *App) flush(ctx context.Context) {
	if err := a.collector.Flush(ctx, a.store, a.runID); err != nil {
		log.Printf("stats flush: %v", err)
		return
	}
	a.metrics.RecordFlush()
}

func (a *App) shutdown() {
	a.currentManager().StopAll()
	a.bus.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	a.flush(ctx)
	if err := a.store.FinishRun(ctx, a.runID, time.Now().UTC()); err != nil {
		log.Printf("finish run: %v", err)
	}
	if err := a.store.Close(); err != nil {
		log.Printf("close store: %v", err)
	}
	log.Printf("run %s stopped", a.runID)
}
