package entity

import "context"

// Filter keys understood by SQLiteStore.List.
const (
	FilterName     = "name"
	FilterAttr     = "attr"
	FilterContains = "contains"
	FilterParent   = "parent"
)

// Query selects entities for Store.List. An empty Drivers slice matches
// every driver.
type Query struct {
	Drivers []string
	Filters map[string][]string
}

// Store is the persistence contract for entities, their attributes and
// the containment graph. Lookups of a missing name return an error
// wrapping ErrNotFound. Every method is atomic on its own.
type Store interface {
	GetByName(ctx context.Context, name string) (*Entity, error)

	// GetOrCreate returns the entity called name, creating it with the
	// given driver when absent. An existing entity is returned unchanged
	// whatever its driver. created reports whether a row was inserted.
	GetOrCreate(ctx context.Context, name, driver string) (e *Entity, created bool, err error)

	List(ctx context.Context, q Query) ([]Entity, error)

	// Delete removes the entity, its attributes and every edge touching it.
	Delete(ctx context.Context, name string) error

	Attributes(ctx context.Context, e *Entity) ([]Attribute, error)
	AddAttribute(ctx context.Context, e *Entity, attr Attribute) error

	Contents(ctx context.Context, e *Entity) ([]Entity, error)
	Parents(ctx context.Context, e *Entity) ([]Entity, error)
	Contains(ctx context.Context, container, member *Entity) (bool, error)

	// Insert adds the container -> member edge. Inserting an existing edge
	// is a no-op.
	Insert(ctx context.Context, container, member *Entity) error

	CountByDriver(ctx context.Context) (map[string]int, error)
}
