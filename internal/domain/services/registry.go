package services

import "github.com/anthonylubrino/globalmcp/internal/domain/models"

// ModelRegistry maps tiers to model endpoint descriptors. Implementations
// must support concurrent reads with serialized writes; registration is
// rare relative to resolution.
//
// The registry is injected into the router rather than accessed as
// process-wide state so tests can swap it per case.
type ModelRegistry interface {
	// Register stores the descriptor under its tier. Re-registering a
	// tier replaces the previous descriptor (last write wins).
	Register(descriptor models.ModelEndpointDescriptor) error

	// Resolve returns the descriptor registered for the tier, or an
	// error wrapping models.ErrTierNotRegistered. It never guesses a
	// default endpoint.
	Resolve(tier models.Tier) (models.ModelEndpointDescriptor, error)

	// Tiers returns all tiers that currently have a registered endpoint.
	Tiers() []models.Tier
}
