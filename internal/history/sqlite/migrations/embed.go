package migrations

import "embed"

// FS contains embedded SQLite migrations for the consultation history.
//
//go:embed *.sql
var FS embed.FS
