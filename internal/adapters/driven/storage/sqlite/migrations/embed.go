// Package migrations holds the versioned schema for the SQLite store.
package migrations

import "embed"

// FS holds the NNN_name.up.sql / NNN_name.down.sql pairs, applied in order.
//
//go:embed *.sql
var FS embed.FS
