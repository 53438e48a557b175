package entity

import (
	"context"
	"errors"
)

// DriverSet reports whether a driver name is registered. *driver.Registry
// satisfies it.
type DriverSet interface {
	Has(name string) bool
}

// Resolver turns entity names into live entities.
type Resolver struct {
	store   Store
	drivers DriverSet
}

// NewResolver creates a Resolver over store, validating expected drivers
// against drivers.
func NewResolver(store Store, drivers DriverSet) *Resolver {
	return &Resolver{store: store, drivers: drivers}
}

// Lookup returns the entity called name.
//
// When expectedDriver is non-empty it must be registered (ErrUnknownDriver)
// and the entity must have that driver (ErrTypeMismatch). A missing entity
// is ErrNotFound. The driver check runs before the store is consulted.
func (r *Resolver) Lookup(ctx context.Context, name, expectedDriver string) (*Entity, error) {
	if expectedDriver != "" && !r.drivers.Has(expectedDriver) {
		return nil, newError(ErrUnknownDriver, "The requested driver %q does not exist", expectedDriver)
	}

	e, err := r.store.GetByName(ctx, name)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, newError(ErrNotFound, "Object %q not found", name)
		}
		return nil, err
	}

	if expectedDriver != "" && e.Driver != expectedDriver {
		return nil, newError(ErrTypeMismatch, "The driver for object %q is not %q", name, expectedDriver)
	}
	return e, nil
}

// LookupAll resolves every name, returning the found entities in request
// order and the names that do not exist. Store faults other than a missing
// entity abort the lookup.
func (r *Resolver) LookupAll(ctx context.Context, names []string) (found []*Entity, missing []string, err error) {
	for _, name := range names {
		e, err := r.store.GetByName(ctx, name)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				missing = append(missing, name)
				continue
			}
			return nil, nil, err
		}
		found = append(found, e)
	}
	return found, missing, nil
}
