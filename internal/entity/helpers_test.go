package entity

import (
	"context"
	"testing"

	"github.com/nerrad567/gray-logic-inventory/internal/driver"
	"github.com/nerrad567/gray-logic-inventory/internal/infrastructure/database"
	_ "github.com/nerrad567/gray-logic-inventory/migrations" // registers the schema
)

// testDrivers is the registry used across the package tests.
var testDrivers = driver.MustNew(
	driver.Driver{Name: "entity"},
	driver.Driver{Name: "pool", Type: driver.TypePool},
	driver.Driver{Name: "basicserver", Type: driver.TypeServer},
)

// newTestStore opens a migrated in-memory database.
func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()

	ctx := context.Background()
	db, err := database.Open(ctx, database.Config{Path: database.MemoryPath})
	if err != nil {
		t.Fatalf("opening test database: %v", err)
	}
	t.Cleanup(func() { db.Close() }) //nolint:errcheck // Test cleanup

	if err := db.Migrate(ctx); err != nil {
		t.Fatalf("migrating test database: %v", err)
	}
	return NewSQLiteStore(db)
}

func newTestService(t *testing.T) (*Service, *SQLiteStore) {
	t.Helper()
	store := newTestStore(t)
	return NewService(store, testDrivers), store
}

// mustCreate creates entities directly in the store.
func mustCreate(t *testing.T, store Store, driverName string, names ...string) []*Entity {
	t.Helper()
	out := make([]*Entity, 0, len(names))
	for _, name := range names {
		e, _, err := store.GetOrCreate(context.Background(), name, driverName)
		if err != nil {
			t.Fatalf("GetOrCreate(%q) error = %v", name, err)
		}
		out = append(out, e)
	}
	return out
}

// recordingNotifier collects events.
type recordingNotifier struct {
	events []Event
}

func (r *recordingNotifier) Notify(_ context.Context, ev Event) {
	r.events = append(r.events, ev)
}
