// Package database provides the SQLite store behind the pulse journal.
//
// This package manages:
//   - Opening the journal database with WAL mode and a busy timeout
//   - Forward and backward schema migrations from an embedded filesystem
//   - Health checks for the status API
//
// Migrations are plain SQL files named
//
//	YYYYMMDD_HHMMSS_description.up.sql
//	YYYYMMDD_HHMMSS_description.down.sql
//
// and are applied in version order, each in its own transaction. Applied
// versions are recorded in schema_migrations.
//
// Usage:
//
//	db, err := database.Open(cfg.Journal)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer db.Close()
//
//	if err := db.Migrate(ctx, migrations.Source()); err != nil {
//	    log.Fatal(err)
//	}
package database
