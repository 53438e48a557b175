package database

import (
	"context"
	"io/fs"
	"os"
	"reflect"
	"strings"
	"testing"
	"testing/fstest"
)

// schemaDir is the top-level migrations package, relative to this one.
const schemaDir = "../../../migrations"

const (
	entitySchemaVersion = "20260301_120000"
	auditLogsVersion    = "20260301_130000"
)

// useMigrations points the runner at fsys for the duration of the test.
func useMigrations(t *testing.T, fsys fs.FS) {
	t.Helper()

	origFS, origDir := MigrationsFS, MigrationsDir
	t.Cleanup(func() {
		MigrationsFS, MigrationsDir = origFS, origDir
	})
	MigrationsFS, MigrationsDir = fsys, "."
}

// schemaFS copies the service's migration files into a MapFS, adding
// extra files keyed by name.
func schemaFS(t *testing.T, extra map[string]string) fstest.MapFS {
	t.Helper()

	out := fstest.MapFS{}
	entries, err := os.ReadDir(schemaDir)
	if err != nil {
		t.Fatalf("reading %s: %v", schemaDir, err)
	}
	for _, e := range entries {
		if !strings.HasSuffix(e.Name(), ".sql") {
			continue
		}
		data, err := os.ReadFile(schemaDir + "/" + e.Name())
		if err != nil {
			t.Fatalf("reading %s: %v", e.Name(), err)
		}
		out[e.Name()] = &fstest.MapFile{Data: data}
	}
	for name, sql := range extra {
		out[name] = &fstest.MapFile{Data: []byte(sql)}
	}
	return out
}

func tableExists(t *testing.T, db *DB, name string) bool {
	t.Helper()
	var n int
	err := db.QueryRowContext(context.Background(),
		"SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?", name,
	).Scan(&n)
	if err != nil {
		t.Fatalf("querying sqlite_master: %v", err)
	}
	return n == 1
}

func TestMigrate_EntitySchema(t *testing.T) {
	useMigrations(t, os.DirFS(schemaDir))
	db := openTestDB(t)
	defer db.Close() //nolint:errcheck // Test cleanup
	ctx := context.Background()

	if err := db.Migrate(ctx); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}
	for _, table := range []string{"entities", "entity_attributes", "entity_contents", "audit_logs"} {
		if !tableExists(t, db, table) {
			t.Errorf("table %s not created", table)
		}
	}

	status, err := db.SchemaStatus(ctx)
	if err != nil {
		t.Fatalf("SchemaStatus() error = %v", err)
	}
	if status.Version != auditLogsVersion || status.Applied != 2 || !status.UpToDate() {
		t.Errorf("SchemaStatus() = %+v, want 2 applied up to %s", status, auditLogsVersion)
	}

	if err := db.Migrate(ctx); err != nil {
		t.Fatalf("second Migrate() error = %v", err)
	}
}

func TestMigrate_EntityConstraints(t *testing.T) {
	useMigrations(t, os.DirFS(schemaDir))
	db := openTestDB(t)
	defer db.Close() //nolint:errcheck // Test cleanup
	ctx := context.Background()

	if err := db.Migrate(ctx); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}

	insert := "INSERT INTO entities (id, name, driver, created_at) VALUES (?, ?, 'pool', '2026-03-01T00:00:00Z')"
	if _, err := db.ExecContext(ctx, insert, "id-1", "p1"); err != nil {
		t.Fatalf("insert p1: %v", err)
	}
	if _, err := db.ExecContext(ctx, insert, "id-2", "p1"); err == nil {
		t.Error("entity names must be unique")
	}

	_, err := db.ExecContext(ctx,
		"INSERT INTO entity_contents (parent_id, child_id, created_at) VALUES ('id-1', 'missing', 'now')")
	if err == nil {
		t.Error("containment edges must reference existing entities")
	}
}

func TestMigrate_AppliesOnlyPending(t *testing.T) {
	ctx := context.Background()
	useMigrations(t, schemaFS(t, nil))
	db := openTestDB(t)
	defer db.Close() //nolint:errcheck // Test cleanup

	if err := db.Migrate(ctx); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}

	useMigrations(t, schemaFS(t, map[string]string{
		"20260401_090000_entity_driver_name.sql": "CREATE INDEX idx_entities_driver_name ON entities(driver, name);",
	}))

	status, err := db.SchemaStatus(ctx)
	if err != nil {
		t.Fatalf("SchemaStatus() error = %v", err)
	}
	if want := []string{"20260401_090000_entity_driver_name"}; !reflect.DeepEqual(status.Pending, want) {
		t.Errorf("Pending = %v, want %v", status.Pending, want)
	}
	if status.UpToDate() {
		t.Error("UpToDate() = true with a pending migration")
	}

	if err := db.Migrate(ctx); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}
	status, err = db.SchemaStatus(ctx)
	if err != nil {
		t.Fatalf("SchemaStatus() error = %v", err)
	}
	if status.Version != "20260401_090000" || status.Applied != 3 || !status.UpToDate() {
		t.Errorf("SchemaStatus() = %+v, want 3 applied up to 20260401_090000", status)
	}
}

func TestMigrate_FailureRollsBack(t *testing.T) {
	ctx := context.Background()
	useMigrations(t, schemaFS(t, map[string]string{
		"20260402_000000_broken.sql": "CREATE TABLE entity_tags (id INTEGER PRIMARY KEY);\nINSERT INTO nowhere VALUES (1);",
	}))
	db := openTestDB(t)
	defer db.Close() //nolint:errcheck // Test cleanup

	err := db.Migrate(ctx)
	if err == nil || !strings.Contains(err.Error(), "20260402_000000 (broken)") {
		t.Fatalf("Migrate() error = %v, want failure naming the broken migration", err)
	}

	if !tableExists(t, db, "entities") {
		t.Error("migrations before the failure must stay applied")
	}
	if tableExists(t, db, "entity_tags") {
		t.Error("the failed migration must be rolled back")
	}

	status, err := db.SchemaStatus(ctx)
	if err != nil {
		t.Fatalf("SchemaStatus() error = %v", err)
	}
	if status.Version != auditLogsVersion || len(status.Pending) != 1 {
		t.Errorf("SchemaStatus() = %+v, want broken migration pending", status)
	}
}

func TestMigrate_NoMigrations(t *testing.T) {
	useMigrations(t, nil)
	db := openTestDB(t)
	defer db.Close() //nolint:errcheck // Test cleanup
	ctx := context.Background()

	if err := db.Migrate(ctx); err != nil {
		t.Fatalf("Migrate() with no migrations error = %v", err)
	}
	status, err := db.SchemaStatus(ctx)
	if err != nil {
		t.Fatalf("SchemaStatus() error = %v", err)
	}
	if status.Version != "" || status.Applied != 0 || !status.UpToDate() {
		t.Errorf("SchemaStatus() = %+v, want empty", status)
	}
}

func TestSchemaStatus_BeforeMigrate(t *testing.T) {
	useMigrations(t, os.DirFS(schemaDir))
	db := openTestDB(t)
	defer db.Close() //nolint:errcheck // Test cleanup

	if _, err := db.SchemaStatus(context.Background()); err == nil {
		t.Error("SchemaStatus() on an unmigrated database should fail")
	}
}

func TestLoadMigrations(t *testing.T) {
	useMigrations(t, fstest.MapFS{
		"20260302_000000_second.sql": &fstest.MapFile{Data: []byte("SELECT 2;")},
		"20260301_000000_first.sql":  &fstest.MapFile{Data: []byte("SELECT 1;")},
		"embed.go":                   &fstest.MapFile{Data: []byte("package migrations")},
		"README":                     &fstest.MapFile{Data: []byte("ignored")},
	})

	migrations, err := loadMigrations()
	if err != nil {
		t.Fatalf("loadMigrations() error = %v", err)
	}
	want := []Migration{
		{Version: "20260301_000000", Name: "first", SQL: "SELECT 1;"},
		{Version: "20260302_000000", Name: "second", SQL: "SELECT 2;"},
	}
	if !reflect.DeepEqual(migrations, want) {
		t.Errorf("loadMigrations() = %+v, want %+v", migrations, want)
	}
}

func TestLoadMigrations_DuplicateVersion(t *testing.T) {
	useMigrations(t, fstest.MapFS{
		"20260301_000000_one.sql": &fstest.MapFile{Data: []byte("SELECT 1;")},
		"20260301_000000_two.sql": &fstest.MapFile{Data: []byte("SELECT 2;")},
	})

	_, err := loadMigrations()
	if err == nil || !strings.Contains(err.Error(), "duplicate migration version") {
		t.Errorf("loadMigrations() error = %v, want duplicate version", err)
	}
}

func TestLoadMigrations_ServiceSchema(t *testing.T) {
	useMigrations(t, os.DirFS(schemaDir))

	migrations, err := loadMigrations()
	if err != nil {
		t.Fatalf("loadMigrations() error = %v", err)
	}
	var versions []string
	for _, m := range migrations {
		versions = append(versions, m.Version+"_"+m.Name)
	}
	want := []string{entitySchemaVersion + "_entity_schema", auditLogsVersion + "_audit_logs"}
	if !reflect.DeepEqual(versions, want) {
		t.Errorf("migrations = %v, want %v", versions, want)
	}
}

func TestParseMigrationFilename(t *testing.T) {
	tests := []struct {
		filename    string
		wantVersion string
		wantName    string
		wantOk      bool
	}{
		{"20260301_120000_entity_schema.sql", "20260301_120000", "entity_schema", true},
		{"20260301_130000_audit_logs.sql", "20260301_130000", "audit_logs", true},
		{"embed.go", "", "", false},
		{"20260301_120000.sql", "", "", false},
		{"20260301_120000_.sql", "", "", false},
		{"2026031_120000_short_date.sql", "", "", false},
		{"2026030a_120000_letters.sql", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			version, name, ok := parseMigrationFilename(tt.filename)
			if ok != tt.wantOk || version != tt.wantVersion || name != tt.wantName {
				t.Errorf("parseMigrationFilename(%q) = (%q, %q, %v), want (%q, %q, %v)",
					tt.filename, version, name, ok, tt.wantVersion, tt.wantName, tt.wantOk)
			}
		})
	}
}

func TestSchemaStatus_DatabaseClosed(t *testing.T) {
	useMigrations(t, os.DirFS(schemaDir))
	db := openTestDB(t)
	if err := db.Migrate(context.Background()); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}
	db.Close() //nolint:errcheck // Closing to force an error

	if _, err := db.SchemaStatus(context.Background()); err == nil {
		t.Error("SchemaStatus() on a closed database should fail")
	}
}
