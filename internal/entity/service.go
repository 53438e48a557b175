package entity

import (
	"context"
	"strings"
	"sync"
	"time"
)

// Logger is the logging interface used by the Service.
// *logging.Logger satisfies it.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Notifier receives an Event for every completed mutation. Notify is called
// synchronously on the request path and must not block.
type Notifier interface {
	Notify(ctx context.Context, ev Event)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(ctx context.Context, ev Event)

// Notify calls f.
func (f NotifierFunc) Notify(ctx context.Context, ev Event) { f(ctx, ev) }

// Service applies the bulk list/create/delete and containment policies.
type Service struct {
	store    Store
	drivers  DriverSet
	resolver *Resolver
	logger   Logger

	mu        sync.RWMutex
	notifiers []Notifier
}

// NewService creates a Service over store, gating every driver-typed
// operation on drivers.
func NewService(store Store, drivers DriverSet) *Service {
	return &Service{
		store:    store,
		drivers:  drivers,
		resolver: NewResolver(store, drivers),
		logger:   noopLogger{},
	}
}

// SetLogger sets the logger for the service.
func (s *Service) SetLogger(logger Logger) {
	s.logger = logger
}

// AddNotifier registers n to receive mutation events.
func (s *Service) AddNotifier(n Notifier) {
	s.mu.Lock()
	s.notifiers = append(s.notifiers, n)
	s.mu.Unlock()
}

// Resolver returns the resolver the service uses.
func (s *Service) Resolver() *Resolver {
	return s.resolver
}

func (s *Service) notify(ctx context.Context, ev Event) {
	ev.Timestamp = time.Now().UTC()

	s.mu.RLock()
	notifiers := s.notifiers
	s.mu.RUnlock()

	for _, n := range notifiers {
		n.Notify(ctx, ev)
	}
}

// List returns the entities of driver matching filters. An empty driver
// lists every entity.
func (s *Service) List(ctx context.Context, driver string, filters map[string][]string) ([]Entity, error) {
	q := Query{Filters: filters}
	if driver != "" {
		if !s.drivers.Has(driver) {
			return nil, newError(ErrUnknownDriver, "The requested driver %q does not exist", driver)
		}
		q.Drivers = []string{driver}
	}
	return s.store.List(ctx, q)
}

// CreateResult is the outcome of a bulk Create.
type CreateResult struct {
	// Entities holds one entry per requested name, in request order.
	Entities []*Entity

	// Existing holds the references of names that already existed before
	// the call, deduplicated, in first-seen order.
	Existing []string
}

// Created reports whether every requested name was new.
func (r *CreateResult) Created() bool {
	return len(r.Existing) == 0
}

// Warning returns the message listing pre-existing entities, or "".
func (r *CreateResult) Warning() string {
	if r.Created() {
		return ""
	}
	return "Entity(s) " + strings.Join(r.Existing, ",") + " already exist(s)"
}

// References returns the serialized references of the result entities.
func (r *CreateResult) References() []string {
	out := make([]string, 0, len(r.Entities))
	for _, e := range r.Entities {
		out = append(out, e.Reference())
	}
	return out
}

// Create gets or creates one entity of driver per name.
//
// Pre-existing names never block creation; they only degrade the batch to
// "accepted" and are listed in the result's warning. Entities that exist
// under another driver are returned as they are.
func (s *Service) Create(ctx context.Context, driver string, names []string) (*CreateResult, error) {
	if !s.drivers.Has(driver) {
		return nil, newError(ErrUnknownDriver, "Requested driver %q does not exist", driver)
	}
	if len(names) == 0 {
		return nil, newError(ErrInvalidRequest, "At least one name is required")
	}
	for _, name := range names {
		if name == "" {
			return nil, newError(ErrInvalidRequest, "Entity names cannot be empty")
		}
	}

	result := &CreateResult{Entities: make([]*Entity, 0, len(names))}

	// Classify before creating so duplicates within the request do not
	// count as pre-existing.
	found, _, err := s.resolver.LookupAll(ctx, names)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool, len(found))
	for _, e := range found {
		ref := e.Reference()
		if !seen[ref] {
			seen[ref] = true
			result.Existing = append(result.Existing, ref)
		}
	}

	for _, name := range names {
		e, created, err := s.store.GetOrCreate(ctx, name, driver)
		if err != nil {
			return nil, err
		}
		if created {
			s.logger.Info("entity created", "driver", driver, "name", name)
			s.notify(ctx, Event{Action: ActionCreated, Driver: e.Driver, Name: e.Name})
		}
		result.Entities = append(result.Entities, e)
	}

	return result, nil
}

// Delete removes every named entity, or none of them.
//
// Unlike Create, a single missing name voids the whole batch: nothing is
// deleted and the error lists the missing names. Names are not checked
// against driver; it only has to be registered.
func (s *Service) Delete(ctx context.Context, driver string, names []string) error {
	if !s.drivers.Has(driver) {
		return newError(ErrUnknownDriver, "Requested driver %q does not exist", driver)
	}

	found, missing, err := s.resolver.LookupAll(ctx, names)
	if err != nil {
		return err
	}
	if len(missing) > 0 {
		return newError(ErrNotFound, "Objects %s not found", strings.Join(missing, ","))
	}

	seen := make(map[string]bool, len(found))
	for _, e := range found {
		if seen[e.ID] {
			continue
		}
		seen[e.ID] = true

		if err := s.store.Delete(ctx, e.Name); err != nil {
			return err
		}
		s.logger.Info("entity deleted", "driver", e.Driver, "name", e.Name)
		s.notify(ctx, Event{Action: ActionDeleted, Driver: e.Driver, Name: e.Name})
	}
	return nil
}

// Show returns the description of the entity called name, which must have
// the given driver.
func (s *Service) Show(ctx context.Context, driver, name string) (*Description, error) {
	e, err := s.resolver.Lookup(ctx, name, driver)
	if err != nil {
		return nil, err
	}
	return Describe(ctx, s.store, e)
}

// Insert places every named member inside the container and returns the
// container's fresh description.
//
// The container must exist with containerDriver. Every member must exist
// and differ from the container, or nothing is inserted. Members already
// inside the container are skipped.
func (s *Service) Insert(ctx context.Context, containerName, containerDriver string, memberNames []string) (*Description, error) {
	container, err := s.resolver.Lookup(ctx, containerName, containerDriver)
	if err != nil {
		return nil, err
	}

	members, missing, err := s.resolver.LookupAll(ctx, memberNames)
	if err != nil {
		return nil, err
	}
	if len(missing) > 0 {
		return nil, newError(ErrValidation, "Objects %s do not exist and cannot be inserted into %q",
			strings.Join(missing, ","), containerName)
	}
	for _, m := range members {
		if m.ID == container.ID {
			return nil, newError(ErrValidation, "Object %q cannot be inserted into itself", containerName)
		}
	}

	for _, m := range members {
		contained, err := s.store.Contains(ctx, container, m)
		if err != nil {
			return nil, err
		}
		if contained {
			continue
		}
		if err := s.store.Insert(ctx, container, m); err != nil {
			return nil, err
		}
		s.logger.Info("entity inserted", "container", container.Reference(), "member", m.Reference())
		s.notify(ctx, Event{
			Action:    ActionInserted,
			Driver:    m.Driver,
			Name:      m.Name,
			Container: container.Reference(),
		})
	}

	return Describe(ctx, s.store, container)
}

// Counts returns the number of entities per driver.
func (s *Service) Counts(ctx context.Context) (map[string]int, error) {
	return s.store.CountByDriver(ctx)
}
