// Package migrations embeds the goose schema migrations for every supported
// server database dialect. Each dialect lives in its own directory.
package migrations

import "embed"

//go:embed sqlite/*.sql postgres/*.sql
var Migrations embed.FS

const (
	DirSQLite   = "sqlite"
	DirPostgres = "postgres"
)
