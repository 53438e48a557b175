// Package database provides SQLite connectivity for the inventory service.
//
// It manages the connection (WAL mode, busy timeout, foreign keys), the
// embedded forward-only migration runner with a SchemaStatus report and small helpers such as
// WithTx used by the entity store.
//
// All queries use parameterised statements. The database file is created
// with 0600 permissions.
//
// Usage:
//
//	db, err := database.Open(ctx, database.Config{Path: cfg.Database.Path, WALMode: true})
//	if err != nil {
//	    return err
//	}
//	defer db.Close()
//
//	if err := db.Migrate(ctx); err != nil {
//	    return err
//	}
//
// Migration files live in the top-level migrations package and are named
// YYYYMMDD_HHMMSS_description.sql. Applied versions are recorded in
// schema_migrations.
package database
