package connector

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/gennetta/gennetta/internal/model"
)

// Factory creates a fresh Provider for one invocation.
type Factory func() Provider

// Registry maps driver names to provider factories. It holds no connections:
// every Analyze call gets its own provider and its own connection scope.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
	live      map[string]bool
}

// NewRegistry creates a new empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		factories: make(map[string]Factory),
		live:      make(map[string]bool),
	}
}

// RegisterDriver registers a provider factory for a driver name.
func (r *Registry) RegisterDriver(driver string, factory Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[driver] = factory
	r.live[driver] = factory().Live()
}

// Provider returns a new provider for driver.
func (r *Registry) Provider(driver string) (Provider, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	factory, ok := r.factories[driver]
	if !ok {
		return nil, &ValidationError{
			Message: fmt.Sprintf("unsupported driver: %s (available: %v)", driver, r.availableDrivers()),
		}
	}
	return factory(), nil
}

// Analyze parses raw and runs the driver's provider against it. The returned
// descriptor is valid whenever parsing succeeded, so callers can echo its
// masked form even when introspection fails.
func (r *Registry) Analyze(ctx context.Context, driver, raw string) (*model.SchemaSnapshot, Descriptor, error) {
	d, err := ParseDescriptor(raw)
	if err != nil {
		return nil, Descriptor{}, err
	}

	p, err := r.Provider(driver)
	if err != nil {
		return nil, d, err
	}

	snap, err := p.Analyze(ctx, d)
	if err != nil {
		return nil, d, err
	}
	return snap, d, nil
}

// Drivers lists registered drivers sorted by name.
func (r *Registry) Drivers() []model.DriverInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]model.DriverInfo, 0, len(r.factories))
	for _, name := range r.availableDrivers() {
		out = append(out, model.DriverInfo{Name: name, Live: r.live[name]})
	}
	return out
}

func (r *Registry) availableDrivers() []string {
	drivers := make([]string, 0, len(r.factories))
	for d := range r.factories {
		drivers = append(drivers, d)
	}
	sort.Strings(drivers)
	return drivers
}
