// Package migrations embeds the schema migration files for each supported
// database dialect.
package migrations

import "embed"

//go:embed sqlite/*.sql postgres/*.sql
var FS embed.FS
