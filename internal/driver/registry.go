package driver

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/nerrad567/gray-logic-inventory/internal/infrastructure/config"
)

// Domain errors.
var (
	ErrRegistryFrozen  = errors.New("driver: registry is frozen")
	ErrDuplicateDriver = errors.New("driver: already registered")
	ErrInvalidName     = errors.New("driver: invalid name")
)

// Kinds group drivers by what they model.
const (
	TypeGeneric       = "generic"
	TypeMeta          = "meta"
	TypePool          = "pool"
	TypeLocation      = "location"
	TypeRack          = "rack"
	TypeServer        = "server"
	TypeVirtualServer = "virtualserver"
	TypeNetworkSwitch = "networkswitch"
	TypePowerStrip    = "powerstrip"
	TypeConsoleServer = "consoleserver"
	TypeResource      = "resourcemanager"
)

// Driver describes one registered entity kind.
type Driver struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	Description string `json:"description,omitempty"`
}

// Registry maps driver names to their descriptors.
type Registry struct {
	mu      sync.RWMutex
	drivers map[string]Driver
	frozen  bool
}

// NewRegistry returns an empty, unfrozen registry.
func NewRegistry() *Registry {
	return &Registry{drivers: make(map[string]Driver)}
}

// Register adds d to the registry. It fails once the registry is frozen,
// when the name is already taken, or when the name cannot appear as a
// single path segment.
func (r *Registry) Register(d Driver) error {
	if err := validateName(d.Name); err != nil {
		return err
	}
	if d.Type == "" {
		d.Type = TypeGeneric
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.frozen {
		return fmt.Errorf("%w: cannot register %q", ErrRegistryFrozen, d.Name)
	}
	if _, exists := r.drivers[d.Name]; exists {
		return fmt.Errorf("%w: %q", ErrDuplicateDriver, d.Name)
	}
	r.drivers[d.Name] = d
	return nil
}

// Freeze makes the registry read-only. Calling it twice is harmless.
func (r *Registry) Freeze() {
	r.mu.Lock()
	r.frozen = true
	r.mu.Unlock()
}

// Frozen reports whether Freeze has been called.
func (r *Registry) Frozen() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.frozen
}

// Resolve looks up a driver by name.
func (r *Registry) Resolve(name string) (Driver, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.drivers[name]
	return d, ok
}

// Has reports whether name is registered.
func (r *Registry) Has(name string) bool {
	_, ok := r.Resolve(name)
	return ok
}

// List returns every driver sorted by name.
func (r *Registry) List() []Driver {
	r.mu.RLock()
	out := make([]Driver, 0, len(r.drivers))
	for _, d := range r.drivers {
		out = append(out, d)
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Len returns the number of registered drivers.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.drivers)
}

func validateName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: empty", ErrInvalidName)
	}
	if strings.ContainsAny(name, "/ \t\n") {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return nil
}

// Builtin returns the default driver set used when config.yaml declares
// none.
func Builtin() []Driver {
	return []Driver{
		{Name: "entity", Type: TypeGeneric, Description: "Plain entity with no specialised behaviour"},
		{Name: "clustometa", Type: TypeMeta, Description: "Inventory metadata holder"},
		{Name: "pool", Type: TypePool, Description: "Arbitrary grouping of entities"},
		{Name: "location", Type: TypeLocation, Description: "Physical site"},
		{Name: "datacenter", Type: TypeLocation, Description: "Datacenter within a location"},
		{Name: "rack", Type: TypeRack, Description: "Equipment rack"},
		{Name: "basicserver", Type: TypeServer, Description: "Physical server"},
		{Name: "basicvirtualserver", Type: TypeVirtualServer, Description: "Virtual machine"},
		{Name: "basicnetworkswitch", Type: TypeNetworkSwitch, Description: "Network switch"},
		{Name: "basicpowerstrip", Type: TypePowerStrip, Description: "Switched power strip"},
		{Name: "basicconsoleserver", Type: TypeConsoleServer, Description: "Serial console server"},
		{Name: "ipmanager", Type: TypeResource, Description: "IP address allocator"},
		{Name: "simplenamemanager", Type: TypeResource, Description: "Sequential name allocator"},
	}
}

// FromConfig builds and freezes a registry from the drivers section of the
// configuration, falling back to Builtin when the section is empty.
func FromConfig(cfgs []config.DriverConfig) (*Registry, error) {
	reg := NewRegistry()

	drivers := Builtin()
	if len(cfgs) > 0 {
		drivers = make([]Driver, 0, len(cfgs))
		for _, c := range cfgs {
			drivers = append(drivers, Driver{Name: c.Name, Type: c.Type, Description: c.Description})
		}
	}

	for _, d := range drivers {
		if err := reg.Register(d); err != nil {
			return nil, err
		}
	}
	reg.Freeze()
	return reg, nil
}

// MustNew returns a frozen registry holding drivers. It panics on an
// invalid or duplicate name and is meant for tests and fixed tables.
func MustNew(drivers ...Driver) *Registry {
	reg := NewRegistry()
	for _, d := range drivers {
		if err := reg.Register(d); err != nil {
			panic(err)
		}
	}
	reg.Freeze()
	return reg
}
