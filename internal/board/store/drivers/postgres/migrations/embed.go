// Package migrations embeds the PostgreSQL schema migrations applied by
// golang-migrate on startup.
package migrations

import "embed"

//go:embed *.sql
var Migrations embed.FS
