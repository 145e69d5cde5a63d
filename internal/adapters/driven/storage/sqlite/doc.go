// Package sqlite keeps the cache blob and the scheduler state in one
// database, ~/.citetrack/data/citetrack.db by default.
//
// It uses modernc.org/sqlite, so no CGO is needed. The database runs in WAL
// mode so a companion process can read the cache while this one writes.
// Schema changes are numbered migrations under migrations/.
package sqlite
