// Package migrations embeds the goose SQL migrations of the client's local
// SQLite store.
package migrations

import "embed"

//go:embed *.sql
var Migrations embed.FS
