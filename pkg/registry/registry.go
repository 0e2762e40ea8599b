package registry

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/Thebestandgreatest/craftybroker/pkg/crafty"
	"github.com/Thebestandgreatest/craftybroker/pkg/events"
	"github.com/Thebestandgreatest/craftybroker/pkg/log"
	"github.com/Thebestandgreatest/craftybroker/pkg/metrics"
	"github.com/Thebestandgreatest/craftybroker/pkg/storage"
	"github.com/Thebestandgreatest/craftybroker/pkg/types"
)

// Registry holds the brokers for all managed servers, persists their records
// and publishes lifecycle events. It is the host-side collaborator around the
// per-server engine: scheduling of which server to act on happens here or
// above, never inside a broker.
type Registry struct {
	mu      sync.RWMutex
	brokers map[string]*crafty.Broker

	store  storage.Store
	bus    *events.Bus
	logger zerolog.Logger
}

// New creates a registry backed by the given store and event bus
func New(store storage.Store, bus *events.Bus) *Registry {
	return &Registry{
		brokers: make(map[string]*crafty.Broker),
		store:   store,
		bus:     bus,
		logger:  log.WithComponent("registry"),
	}
}

// Restore rebuilds brokers for every persisted server record
func (r *Registry) Restore() error {
	records, err := r.store.ListServers()
	if err != nil {
		return fmt.Errorf("failed to list server records: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, record := range records {
		broker, err := crafty.FromConfig(record.Config)
		if err != nil {
			r.logger.Error().Err(err).Str("server", record.Name).Msg("skipping unusable server record")
			continue
		}
		r.brokers[record.Name] = broker
	}

	r.logger.Info().Int("servers", len(r.brokers)).Msg("restored managed servers")
	return nil
}

// Apply reconciles the registry against a set of server configurations.
// New servers get a broker and a record; existing servers are reconciled and
// any deferred configuration cutover is executed immediately.
func (r *Registry) Apply(ctx context.Context, cfgs []types.Config) error {
	for _, cfg := range cfgs {
		if err := r.applyOne(ctx, cfg); err != nil {
			return fmt.Errorf("server %q: %w", cfg.Name, err)
		}
	}
	return nil
}

func (r *Registry) applyOne(ctx context.Context, cfg types.Config) error {
	r.mu.Lock()
	broker, exists := r.brokers[cfg.Name]
	if !exists {
		created, err := crafty.FromConfig(cfg)
		if err != nil {
			r.mu.Unlock()
			return err
		}
		r.brokers[cfg.Name] = created
		r.mu.Unlock()

		record := &types.ServerRecord{
			ID:         cfg.Crafty.ServerID,
			Name:       cfg.Name,
			Config:     cfg,
			LastStatus: types.StatusUnknown,
			CreatedAt:  time.Now(),
		}
		if err := r.store.SaveServer(record); err != nil {
			return err
		}
		r.logger.Info().Str("server", cfg.Name).Msg("server registered")
		return nil
	}
	r.mu.Unlock()

	pending, err := broker.Reconcile(cfg)
	if err != nil {
		return err
	}

	if !pending.NoOp() {
		if err := pending.Apply(ctx); err != nil {
			return fmt.Errorf("applying configuration change: %w", err)
		}
		metrics.ConfigChangesTotal.Inc()
		r.bus.Publish(events.EventConfigChanged, cfg.Name, "configuration cutover applied")
	}

	return r.updateRecord(cfg.Name, func(record *types.ServerRecord) {
		record.Config = cfg
	})
}

// Get returns the broker for a managed server
func (r *Registry) Get(name string) (*crafty.Broker, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	broker, ok := r.brokers[name]
	if !ok {
		return nil, fmt.Errorf("unknown server %q", name)
	}
	return broker, nil
}

// Names returns the names of all managed servers
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.brokers))
	for name := range r.brokers {
		names = append(names, name)
	}
	return names
}

// Start starts a managed server and blocks until it is running
func (r *Registry) Start(ctx context.Context, name string) error {
	broker, err := r.Get(name)
	if err != nil {
		return err
	}

	r.bus.Publish(events.EventServerStarting, name, "start requested")
	if err := broker.Start(ctx); err != nil {
		metrics.LifecycleOperationsTotal.WithLabelValues("start", "failure").Inc()
		return err
	}
	metrics.LifecycleOperationsTotal.WithLabelValues("start", "success").Inc()
	r.bus.Publish(events.EventServerRunning, name, "server running")

	return r.updateRecord(name, func(record *types.ServerRecord) {
		record.LastStatus = types.StatusRunning
		record.LastSeen = time.Now()
	})
}

// Stop stops a managed server and blocks until it is stopped
func (r *Registry) Stop(ctx context.Context, name string) error {
	broker, err := r.Get(name)
	if err != nil {
		return err
	}

	r.bus.Publish(events.EventServerStopping, name, "stop requested")
	if err := broker.Stop(ctx); err != nil {
		metrics.LifecycleOperationsTotal.WithLabelValues("stop", "failure").Inc()
		return err
	}
	metrics.LifecycleOperationsTotal.WithLabelValues("stop", "success").Inc()
	r.bus.Publish(events.EventServerStopped, name, "server stopped")

	return r.updateRecord(name, func(record *types.ServerRecord) {
		record.LastStatus = types.StatusStopped
		record.LastSeen = time.Now()
	})
}

// Remove removes a managed server from the controller and forgets it.
// The destructive call destroys the server's persisted data remotely.
func (r *Registry) Remove(ctx context.Context, name string) error {
	broker, err := r.Get(name)
	if err != nil {
		return err
	}

	if err := broker.Remove(ctx); err != nil {
		metrics.LifecycleOperationsTotal.WithLabelValues("remove", "failure").Inc()
		return err
	}
	metrics.LifecycleOperationsTotal.WithLabelValues("remove", "success").Inc()
	r.bus.Publish(events.EventServerRemoved, name, "server removed")

	r.mu.Lock()
	delete(r.brokers, name)
	r.mu.Unlock()

	return r.store.DeleteServer(name)
}

// Status reads the live status of a managed server and records it
func (r *Registry) Status(ctx context.Context, name string) (types.RemoteStatus, error) {
	broker, err := r.Get(name)
	if err != nil {
		return types.StatusUnknown, err
	}

	status := broker.Status(ctx)
	err = r.updateRecord(name, func(record *types.ServerRecord) {
		record.LastStatus = status
		record.LastSeen = time.Now()
	})
	return status, err
}

// RefreshStatuses re-reads every managed server's status, updates records,
// events and the managed-servers gauge. Called periodically by serve mode;
// the brokers themselves never poll in the background.
func (r *Registry) RefreshStatuses(ctx context.Context) {
	counts := map[types.RemoteStatus]int{
		types.StatusRunning: 0,
		types.StatusStopped: 0,
		types.StatusUnknown: 0,
	}

	for _, name := range r.Names() {
		status, err := r.Status(ctx, name)
		if err != nil {
			r.logger.Error().Err(err).Str("server", name).Msg("failed to record status")
		}
		counts[status]++
		if status == types.StatusUnknown {
			r.bus.Publish(events.EventServerUnknown, name, "status read failed")
		}
	}

	for status, count := range counts {
		metrics.ManagedServers.WithLabelValues(string(status)).Set(float64(count))
	}
}

func (r *Registry) updateRecord(name string, mutate func(*types.ServerRecord)) error {
	record, err := r.store.GetServer(name)
	if err != nil {
		return err
	}
	mutate(record)
	return r.store.SaveServer(record)
}
