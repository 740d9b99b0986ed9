// Package migrations embeds the goose SQL migrations for the accounts table.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
