// Package migrations embeds the SQL schema migrations applied by goose, one
// directory per storage dialect.
package migrations

import "embed"

//go:embed postgres/*.sql sqlite/*.sql
var Migrations embed.FS

// Dirs maps a database driver name to its migrations directory in Migrations.
var Dirs = map[string]string{
	"pgx":    "postgres",
	"sqlite": "sqlite",
}
