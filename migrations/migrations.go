// Package migrations embeds the schema files the server applies at startup.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
