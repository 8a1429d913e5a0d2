// Package database provides SQLite connectivity for the Gray Logic
// display service.
//
// The display service keeps one small database: the event journal
// (internal/journal), which records display lifecycle events so an
// installer can reconstruct what a panel did after the fact. This
// package owns the connection and schema plumbing underneath it:
//   - Connection setup with WAL mode for concurrent reads
//   - Embedded schema migrations (migrations/ at the repo root)
//   - Health checks and lifecycle management
//
// Security Considerations:
//   - All queries use parameterised statements (no SQL injection)
//   - Database file permissions are set to 0600 (owner read/write only)
//
// Performance Characteristics:
//   - WAL mode allows the API's journal reads during event writes
//   - Busy timeout prevents lock contention errors
//   - Single-writer pool matches SQLite's locking model; journal write
//     volume is a handful of rows per display interaction, well under
//     any SQLite ceiling
//
// Usage:
//
//	db, err := database.Open(database.Config{
//	    Path:        cfg.Journal.Path,
//	    WALMode:     cfg.Journal.WALMode,
//	    BusyTimeout: cfg.Journal.BusyTimeout,
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer db.Close()
//
//	if err := db.Migrate(ctx); err != nil {
//	    log.Fatal(err)
//	}
//
// Migration Strategy:
//
// Migrations are additive-only so a service downgrade never meets a
// schema it cannot read:
//   - New columns must be NULLABLE or have DEFAULT values
//   - Never DROP or RENAME columns
//   - Each migration file has both .up.sql and .down.sql
package database
