// Package migrations embeds the SQL migrations of the attempt archive.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
