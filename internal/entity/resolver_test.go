package entity

import (
	"context"
	"errors"
	"testing"
)

func TestResolver_Lookup(t *testing.T) {
	store := newTestStore(t)
	mustCreate(t, store, "pool", "p1")
	resolver := NewResolver(store, testDrivers)

	tests := []struct {
		name     string
		lookup   string
		driver   string
		wantErr  error
		wantMsg  string
		wantName string
	}{
		{name: "no driver assertion", lookup: "p1", wantName: "p1"},
		{name: "matching driver", lookup: "p1", driver: "pool", wantName: "p1"},
		{name: "missing", lookup: "nope", wantErr: ErrNotFound, wantMsg: `Object "nope" not found`},
		{name: "missing with driver", lookup: "nope", driver: "pool", wantErr: ErrNotFound},
		{
			name: "type mismatch", lookup: "p1", driver: "basicserver",
			wantErr: ErrTypeMismatch, wantMsg: `The driver for object "p1" is not "basicserver"`,
		},
		{
			name: "unknown driver", lookup: "p1", driver: "nondriver",
			wantErr: ErrUnknownDriver, wantMsg: `The requested driver "nondriver" does not exist`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, err := resolver.Lookup(context.Background(), tt.lookup, tt.driver)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Lookup() error = %v, want %v", err, tt.wantErr)
				}
				if tt.wantMsg != "" && Message(err) != tt.wantMsg {
					t.Errorf("Message() = %q, want %q", Message(err), tt.wantMsg)
				}
				return
			}
			if err != nil {
				t.Fatalf("Lookup() error = %v", err)
			}
			if e.Name != tt.wantName {
				t.Errorf("Name = %q, want %q", e.Name, tt.wantName)
			}
		})
	}
}

func TestResolver_NotFoundIsNotMismatch(t *testing.T) {
	store := newTestStore(t)
	mustCreate(t, store, "pool", "p1")
	resolver := NewResolver(store, testDrivers)

	_, err := resolver.Lookup(context.Background(), "p1", "basicserver")
	if errors.Is(err, ErrNotFound) {
		t.Error("a present entity of the wrong driver must not report ErrNotFound")
	}
}

func TestResolver_LookupAll(t *testing.T) {
	store := newTestStore(t)
	mustCreate(t, store, "pool", "p1", "p2")
	resolver := NewResolver(store, testDrivers)

	found, missing, err := resolver.LookupAll(context.Background(), []string{"p2", "x", "p1", "y"})
	if err != nil {
		t.Fatalf("LookupAll() error = %v", err)
	}
	if len(found) != 2 || found[0].Name != "p2" || found[1].Name != "p1" {
		t.Errorf("found = %v, want [p2 p1]", found)
	}
	if len(missing) != 2 || missing[0] != "x" || missing[1] != "y" {
		t.Errorf("missing = %v, want [x y]", missing)
	}
}

func TestResolver_StoreFaultPropagates(t *testing.T) {
	boom := errors.New("disk on fire")
	resolver := NewResolver(&faultyStore{err: boom}, testDrivers)

	if _, err := resolver.Lookup(context.Background(), "p1", ""); !errors.Is(err, boom) {
		t.Errorf("Lookup() error = %v, want store fault", err)
	}
	if _, _, err := resolver.LookupAll(context.Background(), []string{"p1"}); !errors.Is(err, boom) {
		t.Errorf("LookupAll() error = %v, want store fault", err)
	}
}

// faultyStore fails every call with err.
type faultyStore struct {
	err error
}

func (f *faultyStore) GetByName(context.Context, string) (*Entity, error) { return nil, f.err }
func (f *faultyStore) GetOrCreate(context.Context, string, string) (*Entity, bool, error) {
	return nil, false, f.err
}
func (f *faultyStore) List(context.Context, Query) ([]Entity, error)          { return nil, f.err }
func (f *faultyStore) Delete(context.Context, string) error                   { return f.err }
func (f *faultyStore) Attributes(context.Context, *Entity) ([]Attribute, error) { return nil, f.err }
func (f *faultyStore) AddAttribute(context.Context, *Entity, Attribute) error { return f.err }
func (f *faultyStore) Contents(context.Context, *Entity) ([]Entity, error)    { return nil, f.err }
func (f *faultyStore) Parents(context.Context, *Entity) ([]Entity, error)     { return nil, f.err }
func (f *faultyStore) Contains(context.Context, *Entity, *Entity) (bool, error) {
	return false, f.err
}
func (f *faultyStore) Insert(context.Context, *Entity, *Entity) error      { return f.err }
func (f *faultyStore) CountByDriver(context.Context) (map[string]int, error) { return nil, f.err }
