// Package migrations embeds the storefront SQL schema.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
