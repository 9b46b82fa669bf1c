// Package migrations embeds the SQL schema migrations applied at startup.
package migrations

import "embed"

// FS holds the *.sql migration files in golang-migrate naming format.
//
//go:embed *.sql
var FS embed.FS
