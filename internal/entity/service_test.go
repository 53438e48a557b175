package entity

import (
	"context"
	"errors"
	"reflect"
	"testing"
)

func TestService_List(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()
	mustCreate(t, store, "pool", "p1")
	mustCreate(t, store, "basicserver", "s1")

	all, err := svc.List(ctx, "", nil)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(all) != 2 {
		t.Errorf("List(all) = %v, want 2 entities", References(all))
	}

	pools, err := svc.List(ctx, "pool", nil)
	if err != nil {
		t.Fatalf("List(pool) error = %v", err)
	}
	if got := References(pools); !reflect.DeepEqual(got, []string{"/pool/p1"}) {
		t.Errorf("List(pool) = %v", got)
	}

	_, err = svc.List(ctx, "nondriver", nil)
	if !errors.Is(err, ErrUnknownDriver) {
		t.Fatalf("List(nondriver) error = %v, want ErrUnknownDriver", err)
	}
	if want := `The requested driver "nondriver" does not exist`; Message(err) != want {
		t.Errorf("Message() = %q, want %q", Message(err), want)
	}
}

func TestService_Create(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	res, err := svc.Create(ctx, "pool", []string{"p1"})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if !res.Created() {
		t.Error("fresh batch should report Created()")
	}
	if res.Warning() != "" {
		t.Errorf("Warning() = %q, want empty", res.Warning())
	}
	if got := res.References(); !reflect.DeepEqual(got, []string{"/pool/p1"}) {
		t.Errorf("References() = %v", got)
	}

	again, err := svc.Create(ctx, "pool", []string{"p1", "p2"})
	if err != nil {
		t.Fatalf("second Create() error = %v", err)
	}
	if again.Created() {
		t.Error("batch with a pre-existing name should not report Created()")
	}
	if got := again.References(); !reflect.DeepEqual(got, []string{"/pool/p1", "/pool/p2"}) {
		t.Errorf("References() = %v, want every requested name", got)
	}
	if want := "Entity(s) /pool/p1 already exist(s)"; again.Warning() != want {
		t.Errorf("Warning() = %q, want %q", again.Warning(), want)
	}
	if again.Entities[0].ID != res.Entities[0].ID {
		t.Error("pre-existing entity must be returned unchanged")
	}
}

func TestService_CreateDuplicatesInRequest(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	res, err := svc.Create(ctx, "pool", []string{"p1", "p1"})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if !res.Created() {
		t.Error("duplicates within one request are not pre-existing")
	}
	if len(res.Entities) != 2 || res.Entities[0].ID != res.Entities[1].ID {
		t.Errorf("Entities = %v, want the same entity twice", res.References())
	}

	mustCreate(t, store, "pool", "p2")
	res, err = svc.Create(ctx, "pool", []string{"p2", "p2", "p1"})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if want := "Entity(s) /pool/p2,/pool/p1 already exist(s)"; res.Warning() != want {
		t.Errorf("Warning() = %q, want %q", res.Warning(), want)
	}
}

func TestService_CreateExistingUnderOtherDriver(t *testing.T) {
	svc, store := newTestService(t)
	mustCreate(t, store, "basicserver", "s1")

	res, err := svc.Create(context.Background(), "pool", []string{"s1"})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if got := res.References(); !reflect.DeepEqual(got, []string{"/basicserver/s1"}) {
		t.Errorf("References() = %v, want existing entity as is", got)
	}
	if want := "Entity(s) /basicserver/s1 already exist(s)"; res.Warning() != want {
		t.Errorf("Warning() = %q, want %q", res.Warning(), want)
	}
}

func TestService_CreateErrors(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, "nondriver", []string{"x"})
	if !errors.Is(err, ErrUnknownDriver) {
		t.Fatalf("Create(nondriver) error = %v, want ErrUnknownDriver", err)
	}
	if want := `Requested driver "nondriver" does not exist`; Message(err) != want {
		t.Errorf("Message() = %q, want %q", Message(err), want)
	}
	if _, err := store.GetByName(ctx, "x"); !errors.Is(err, ErrNotFound) {
		t.Error("unknown driver must not create anything")
	}

	if _, err := svc.Create(ctx, "pool", nil); !errors.Is(err, ErrInvalidRequest) {
		t.Errorf("Create(no names) error = %v, want ErrInvalidRequest", err)
	}
	if _, err := svc.Create(ctx, "pool", []string{"ok", ""}); !errors.Is(err, ErrInvalidRequest) {
		t.Errorf("Create(empty name) error = %v, want ErrInvalidRequest", err)
	}
	if _, err := store.GetByName(ctx, "ok"); !errors.Is(err, ErrNotFound) {
		t.Error("rejected batch must not create anything")
	}
}

func TestService_DeleteAllOrNothing(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()
	mustCreate(t, store, "pool", "p1", "p2")

	err := svc.Delete(ctx, "pool", []string{"p1", "nope", "p2", "gone"})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("Delete() error = %v, want ErrNotFound", err)
	}
	if want := "Objects nope,gone not found"; Message(err) != want {
		t.Errorf("Message() = %q, want %q", Message(err), want)
	}

	for _, name := range []string{"p1", "p2"} {
		if _, err := store.GetByName(ctx, name); err != nil {
			t.Errorf("%s must survive a failed batch: %v", name, err)
		}
	}
}

func TestService_Delete(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()
	mustCreate(t, store, "pool", "p1")
	mustCreate(t, store, "basicserver", "s1")

	// Names are not checked against the driver.
	if err := svc.Delete(ctx, "pool", []string{"p1", "s1"}); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	for _, name := range []string{"p1", "s1"} {
		if _, err := store.GetByName(ctx, name); !errors.Is(err, ErrNotFound) {
			t.Errorf("%s still exists after delete", name)
		}
	}

	if err := svc.Delete(ctx, "pool", nil); err != nil {
		t.Errorf("Delete(no names) error = %v, want nil", err)
	}

	mustCreate(t, store, "pool", "p9")
	err := svc.Delete(ctx, "nondriver", []string{"p9"})
	if !errors.Is(err, ErrUnknownDriver) {
		t.Fatalf("Delete(nondriver) error = %v, want ErrUnknownDriver", err)
	}
	if _, err := store.GetByName(ctx, "p9"); err != nil {
		t.Error("unknown driver must not delete anything")
	}
}

func TestService_DeleteRepeatedName(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()
	mustCreate(t, store, "pool", "p1", "p2")

	rec := &recordingNotifier{}
	svc.AddNotifier(rec)

	if err := svc.Delete(ctx, "pool", []string{"p1", "p2", "p1"}); err != nil {
		t.Fatalf("Delete() error = %v, want nil", err)
	}
	for _, name := range []string{"p1", "p2"} {
		if _, err := store.GetByName(ctx, name); !errors.Is(err, ErrNotFound) {
			t.Errorf("%s still exists after delete", name)
		}
	}
	if len(rec.events) != 2 {
		t.Errorf("events = %d, want one per entity", len(rec.events))
	}
}

func TestService_CreateSlashedNameRoundTrips(t *testing.T) {
	svc, _ := newTestService(t)

	result, err := svc.Create(context.Background(), "pool", []string{"a/b"})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	ref := result.References()[0]
	if ref != "/pool/a/b" {
		t.Fatalf("reference = %q, want /pool/a/b", ref)
	}
	driverName, name, err := ParseReference(ref)
	if err != nil || driverName != "pool" || name != "a/b" {
		t.Errorf("ParseReference(%q) = (%q, %q, %v), want (pool, a/b, nil)", ref, driverName, name, err)
	}
}

func TestService_Show(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()
	mustCreate(t, store, "pool", "p1")

	d, err := svc.Show(ctx, "pool", "p1")
	if err != nil {
		t.Fatalf("Show() error = %v", err)
	}
	if d.Name != "p1" || d.Driver != "pool" {
		t.Errorf("Show() = %+v", d)
	}

	if _, err := svc.Show(ctx, "basicserver", "p1"); !errors.Is(err, ErrTypeMismatch) {
		t.Errorf("Show(mismatch) error = %v, want ErrTypeMismatch", err)
	}
	if _, err := svc.Show(ctx, "pool", "nope"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Show(missing) error = %v, want ErrNotFound", err)
	}
}

func TestService_Insert(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()
	mustCreate(t, store, "pool", "p1")
	mustCreate(t, store, "basicserver", "s1", "s2")

	d, err := svc.Insert(ctx, "p1", "pool", []string{"s1", "s2"})
	if err != nil {
		t.Fatalf("Insert() error = %v", err)
	}
	want := []string{"/basicserver/s1", "/basicserver/s2"}
	if !reflect.DeepEqual(d.Contents, want) {
		t.Errorf("Contents = %v, want %v", d.Contents, want)
	}

	again, err := svc.Insert(ctx, "p1", "pool", []string{"s1", "s1"})
	if err != nil {
		t.Fatalf("repeated Insert() error = %v", err)
	}
	if !reflect.DeepEqual(again.Contents, want) {
		t.Errorf("repeated insert changed contents: %v", again.Contents)
	}

	s1, err := svc.Show(ctx, "basicserver", "s1")
	if err != nil {
		t.Fatalf("Show(s1) error = %v", err)
	}
	if !reflect.DeepEqual(s1.Parents, []string{"/pool/p1"}) {
		t.Errorf("s1 parents = %v, want [/pool/p1]", s1.Parents)
	}
}

func TestService_InsertErrors(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()
	mustCreate(t, store, "pool", "p1")
	mustCreate(t, store, "basicserver", "s1")

	tests := []struct {
		name      string
		container string
		driver    string
		members   []string
		wantErr   error
		wantMsg   string
	}{
		{"container missing", "nope", "pool", []string{"s1"}, ErrNotFound, `Object "nope" not found`},
		{"container mismatch", "p1", "basicserver", []string{"s1"}, ErrTypeMismatch, `The driver for object "p1" is not "basicserver"`},
		{"unknown driver", "p1", "nondriver", []string{"s1"}, ErrUnknownDriver, ""},
		{
			"members missing", "p1", "pool", []string{"a", "s1", "b"}, ErrValidation,
			`Objects a,b do not exist and cannot be inserted into "p1"`,
		},
		{
			"into itself", "p1", "pool", []string{"s1", "p1"}, ErrValidation,
			`Object "p1" cannot be inserted into itself`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Insert(ctx, tt.container, tt.driver, tt.members)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Insert() error = %v, want %v", err, tt.wantErr)
			}
			if tt.wantMsg != "" && Message(err) != tt.wantMsg {
				t.Errorf("Message() = %q, want %q", Message(err), tt.wantMsg)
			}
		})
	}

	d, err := svc.Show(ctx, "pool", "p1")
	if err != nil {
		t.Fatalf("Show() error = %v", err)
	}
	if len(d.Contents) != 0 {
		t.Errorf("failed inserts must leave contents empty, got %v", d.Contents)
	}
}

func TestService_Notifiers(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	rec := &recordingNotifier{}
	svc.AddNotifier(rec)

	var funcCalls int
	svc.AddNotifier(NotifierFunc(func(context.Context, Event) { funcCalls++ }))

	if _, err := svc.Create(ctx, "pool", []string{"p1"}); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if _, err := svc.Create(ctx, "basicserver", []string{"s1", "p1"}); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if _, err := svc.Insert(ctx, "p1", "pool", []string{"s1"}); err != nil {
		t.Fatalf("Insert() error = %v", err)
	}
	if _, err := svc.Insert(ctx, "p1", "pool", []string{"s1"}); err != nil {
		t.Fatalf("Insert() error = %v", err)
	}
	if err := svc.Delete(ctx, "basicserver", []string{"s1"}); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}

	want := []struct {
		action    Action
		ref       string
		container string
	}{
		{ActionCreated, "/pool/p1", ""},
		{ActionCreated, "/basicserver/s1", ""},
		{ActionInserted, "/basicserver/s1", "/pool/p1"},
		{ActionDeleted, "/basicserver/s1", ""},
	}
	if len(rec.events) != len(want) {
		t.Fatalf("got %d events, want %d: %+v", len(rec.events), len(want), rec.events)
	}
	for i, w := range want {
		ev := rec.events[i]
		if ev.Action != w.action || ev.Reference() != w.ref || ev.Container != w.container {
			t.Errorf("event[%d] = %+v, want %v %s %s", i, ev, w.action, w.ref, w.container)
		}
		if ev.Timestamp.IsZero() {
			t.Errorf("event[%d] missing timestamp", i)
		}
	}
	if funcCalls != len(want) {
		t.Errorf("NotifierFunc called %d times, want %d", funcCalls, len(want))
	}
}

func TestService_StoreFaults(t *testing.T) {
	boom := errors.New("store unavailable")
	svc := NewService(&faultyStore{err: boom}, testDrivers)
	ctx := context.Background()

	if _, err := svc.List(ctx, "pool", nil); !errors.Is(err, boom) {
		t.Errorf("List() error = %v, want store fault", err)
	}
	if _, err := svc.Create(ctx, "pool", []string{"p1"}); !errors.Is(err, boom) {
		t.Errorf("Create() error = %v, want store fault", err)
	}
	if err := svc.Delete(ctx, "pool", []string{"p1"}); !errors.Is(err, boom) {
		t.Errorf("Delete() error = %v, want store fault", err)
	}
	if _, err := svc.Insert(ctx, "p1", "pool", nil); !errors.Is(err, boom) {
		t.Errorf("Insert() error = %v, want store fault", err)
	}
	if Message(boom) != "" {
		t.Error("store faults carry no client message")
	}
}
