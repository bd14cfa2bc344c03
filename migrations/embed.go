// Package migrations embeds the goose SQL migrations so the server binary
// and test helpers can apply the schema without a checkout of this
// directory on disk.
package migrations

import "embed"

// FS holds the embedded migration files.
//
//go:embed *.sql
var FS embed.FS
