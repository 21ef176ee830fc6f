// Package migrations embeds the Postgres schema migrations applied by
// cmd/migrate and by the repository tests.
package migrations

import "embed"

// FS holds the numbered *.up.sql and *.down.sql files.
//
//go:embed *.sql
var FS embed.FS
