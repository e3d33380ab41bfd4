// Package migrations embeds the xattr store schema.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
