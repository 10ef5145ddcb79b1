// Package migrations embeds the PostgreSQL schema and seed data.
package migrations

import "embed"

//go:embed *.up.sql
var FS embed.FS
