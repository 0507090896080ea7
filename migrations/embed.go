// Package migrations embeds the portal database schema.
package migrations

import "embed"

// FS holds the *.sql files, applied in name order by cmd/migrate.
//
//go:embed *.sql
var FS embed.FS
