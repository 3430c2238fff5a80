// Package database provides SQLite connectivity for the bus audit log.
//
// This package manages:
//   - Database connection with WAL mode
//   - Schema migrations embedded in the binary
//   - Connection pooling and lifecycle management
//
// Only the audit trail lives here. The bus itself is never loaded from the
// database; rows describe what happened on the bus, not what it holds.
//
// Usage:
//
//	db, err := database.Open(database.Config{
//	    Path:        cfg.Database.Path,
//	    WALMode:     cfg.Database.WALMode,
//	    BusyTimeout: cfg.Database.BusyTimeout,
//	})
//	if err != nil {
//	    return err
//	}
//	defer db.Close()
//
//	if err := db.Migrate(ctx); err != nil {
//	    return err
//	}
//
// Migration files are named YYYYMMDD_HHMMSS_description.{up,down}.sql and
// are registered by the migrations package via MigrationsFS.
package database
