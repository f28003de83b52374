// Package registry provides the in-memory tier-to-endpoint mapping
// consulted by the router.
package registry

import (
	"fmt"
	"sync"

	"github.com/anthonylubrino/globalmcp/internal/domain/models"
	"github.com/anthonylubrino/globalmcp/internal/domain/services"
)

// InMemoryRegistry is a tier-keyed endpoint map with last-write-wins
// registration. Reads are concurrent, writes serialized; registration is
// rare relative to resolution, so an RWMutex is sufficient.
type InMemoryRegistry struct {
	mu        sync.RWMutex
	endpoints map[models.Tier]models.ModelEndpointDescriptor
}

// compile-time interface check
var _ services.ModelRegistry = (*InMemoryRegistry)(nil)

// NewInMemoryRegistry creates an empty registry.
func NewInMemoryRegistry() *InMemoryRegistry {
	return &InMemoryRegistry{
		endpoints: make(map[models.Tier]models.ModelEndpointDescriptor),
	}
}

// Register validates the descriptor and stores it under its tier.
// Re-registering a tier replaces the previous descriptor.
func (r *InMemoryRegistry) Register(descriptor models.ModelEndpointDescriptor) error {
	if err := descriptor.Validate(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.endpoints[descriptor.Tier] = descriptor
	return nil
}

// Resolve returns the descriptor registered for the tier. An unknown
// tier is reported, never substituted with a guessed default.
func (r *InMemoryRegistry) Resolve(tier models.Tier) (models.ModelEndpointDescriptor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	descriptor, ok := r.endpoints[tier]
	if !ok {
		return models.ModelEndpointDescriptor{},
			fmt.Errorf("%w: %s", models.ErrTierNotRegistered, tier)
	}
	return descriptor, nil
}

// Tiers returns the tiers that currently have a registered endpoint, in
// capability order.
func (r *InMemoryRegistry) Tiers() []models.Tier {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tiers := make([]models.Tier, 0, len(r.endpoints))
	for _, tier := range models.TierOrder {
		if _, ok := r.endpoints[tier]; ok {
			tiers = append(tiers, tier)
		}
	}
	return tiers
}
