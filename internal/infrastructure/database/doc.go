// Package database provides SQLite connectivity for homegraph.
//
// This package manages:
//   - Connection setup with WAL mode and a busy timeout
//   - A single-connection pool matching SQLite's single writer
//   - Versioned up/down schema migrations read from an fs.FS
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
//	if err := db.Migrate(ctx, migrations.FS); err != nil {
//	    return err
//	}
package database
