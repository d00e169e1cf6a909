package plugin

import (
	"context"
	"fmt"
	"log/slog"
	"reflect"
	"sync"
	"time"

	"github.com/xraph/treasury/bank"
	"github.com/xraph/treasury/transaction"
	"github.com/xraph/treasury/types"
)

// Registry manages all registered plugins and provides efficient dispatch.
// It uses type-cached discovery for O(1) dispatch performance.
type Registry struct {
	mu      sync.RWMutex
	plugins []Plugin
	logger  *slog.Logger

	// Type-cached plugin lists for efficient dispatch
	onInit                []OnInit
	onShutdown            []OnShutdown
	onMovementApplied     []OnMovementApplied
	onPeriodConsolidated  []OnPeriodConsolidated
	onTransactionReverted []OnTransactionReverted
	onSimulationRecorded  []OnSimulationRecorded
	onDriftDetected       []OnDriftDetected
}

// NewRegistry creates a new plugin registry.
func NewRegistry() *Registry {
	return &Registry{
		logger: slog.Default(),
	}
}

// WithLogger sets the logger for the registry.
func (r *Registry) WithLogger(logger *slog.Logger) *Registry {
	r.logger = logger
	return r
}

// Register adds a plugin to the registry and caches its interfaces.
func (r *Registry) Register(p Plugin) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	// Check for duplicate
	for _, existing := range r.plugins {
		if existing.Name() == p.Name() {
			return fmt.Errorf("plugin: duplicate registration: %s", p.Name())
		}
	}

	r.plugins = append(r.plugins, p)

	// Type-switch to cache interfaces
	if v, ok := p.(OnInit); ok {
		r.onInit = append(r.onInit, v)
	}
	if v, ok := p.(OnShutdown); ok {
		r.onShutdown = append(r.onShutdown, v)
	}
	if v, ok := p.(OnMovementApplied); ok {
		r.onMovementApplied = append(r.onMovementApplied, v)
	}
	if v, ok := p.(OnPeriodConsolidated); ok {
		r.onPeriodConsolidated = append(r.onPeriodConsolidated, v)
	}
	if v, ok := p.(OnTransactionReverted); ok {
		r.onTransactionReverted = append(r.onTransactionReverted, v)
	}
	if v, ok := p.(OnSimulationRecorded); ok {
		r.onSimulationRecorded = append(r.onSimulationRecorded, v)
	}
	if v, ok := p.(OnDriftDetected); ok {
		r.onDriftDetected = append(r.onDriftDetected, v)
	}

	r.logger.Info("plugin registered",
		"name", p.Name(),
		"interfaces", r.getImplementedInterfaces(p),
	)

	return nil
}

// getImplementedInterfaces returns a list of interfaces implemented by the plugin.
func (r *Registry) getImplementedInterfaces(p Plugin) []string {
	var interfaces []string
	v := reflect.TypeOf(p)

	checkInterface := func(iface reflect.Type, name string) {
		if v.Implements(iface) {
			interfaces = append(interfaces, name)
		}
	}

	checkInterface(reflect.TypeOf((*OnInit)(nil)).Elem(), "OnInit")
	checkInterface(reflect.TypeOf((*OnShutdown)(nil)).Elem(), "OnShutdown")
	checkInterface(reflect.TypeOf((*OnMovementApplied)(nil)).Elem(), "OnMovementApplied")
	checkInterface(reflect.TypeOf((*OnPeriodConsolidated)(nil)).Elem(), "OnPeriodConsolidated")
	checkInterface(reflect.TypeOf((*OnTransactionReverted)(nil)).Elem(), "OnTransactionReverted")
	checkInterface(reflect.TypeOf((*OnSimulationRecorded)(nil)).Elem(), "OnSimulationRecorded")
	checkInterface(reflect.TypeOf((*OnDriftDetected)(nil)).Elem(), "OnDriftDetected")

	return interfaces
}

// Get returns a plugin by name.
func (r *Registry) Get(name string) Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, p := range r.plugins {
		if p.Name() == name {
			return p
		}
	}
	return nil
}

// List returns all registered plugins.
func (r *Registry) List() []Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]Plugin, len(r.plugins))
	copy(result, r.plugins)
	return result
}

// Count returns the number of registered plugins.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.plugins)
}

// ──────────────────────────────────────────────────
// Event emission methods
// ──────────────────────────────────────────────────

// EmitInit calls OnInit for all plugins that implement it.
func (r *Registry) EmitInit(ctx context.Context, engine interface{}) {
	r.mu.RLock()
	plugins := r.onInit
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnInit(ctx, engine)
		}); err != nil {
			r.logger.Warn("plugin OnInit failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitShutdown calls OnShutdown for all plugins that implement it.
func (r *Registry) EmitShutdown(ctx context.Context) {
	r.mu.RLock()
	plugins := r.onShutdown
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnShutdown(ctx)
		}); err != nil {
			r.logger.Warn("plugin OnShutdown failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitMovementApplied emits a movement applied event.
func (r *Registry) EmitMovementApplied(ctx context.Context, txn *transaction.Transaction, snap *bank.Snapshot) {
	r.mu.RLock()
	plugins := r.onMovementApplied
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnMovementApplied(ctx, txn, snap)
		}); err != nil {
			r.logger.Warn("plugin OnMovementApplied failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitPeriodConsolidated emits a period consolidated event.
func (r *Registry) EmitPeriodConsolidated(ctx context.Context, period types.Period, moved types.Money, transitioned int64) {
	r.mu.RLock()
	plugins := r.onPeriodConsolidated
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnPeriodConsolidated(ctx, period, moved, transitioned)
		}); err != nil {
			r.logger.Warn("plugin OnPeriodConsolidated failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitTransactionReverted emits a transaction reverted event.
func (r *Registry) EmitTransactionReverted(ctx context.Context, original, compensating *transaction.Transaction) {
	r.mu.RLock()
	plugins := r.onTransactionReverted
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnTransactionReverted(ctx, original, compensating)
		}); err != nil {
			r.logger.Warn("plugin OnTransactionReverted failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitSimulationRecorded emits a simulation recorded event.
func (r *Registry) EmitSimulationRecorded(ctx context.Context, amount types.Money, snap *bank.Snapshot) {
	r.mu.RLock()
	plugins := r.onSimulationRecorded
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnSimulationRecorded(ctx, amount, snap)
		}); err != nil {
			r.logger.Warn("plugin OnSimulationRecorded failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitDriftDetected emits a reconciliation drift event.
func (r *Registry) EmitDriftDetected(ctx context.Context, aggregate, log types.Money) {
	r.mu.RLock()
	plugins := r.onDriftDetected
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnDriftDetected(ctx, aggregate, log)
		}); err != nil {
			r.logger.Warn("plugin OnDriftDetected failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// callWithTimeout calls a plugin function with a timeout.
// Plugins must never block the ledger pipeline.
func (r *Registry) callWithTimeout(ctx context.Context, pluginName string, fn func() error) error {
	done := make(chan error, 1)

	go func() {
		done <- fn()
	}()

	select {
	case err := <-done:
		return err
	case <-time.After(5 * time.Second):
		return fmt.Errorf("plugin timeout: %s", pluginName)
	case <-ctx.Done():
		return ctx.Err()
	}
}
