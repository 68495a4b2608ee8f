// Package migrations embeds SQL migration files into the binary so
// wifid can migrate its database without the SQL files being present
// on the filesystem.
package migrations

import (
	"embed"

	"github.com/wavelan/wifid/internal/infrastructure/database"
)

//go:embed *.sql
var migrationsFS embed.FS

func init() {
	database.MigrationsFS = migrationsFS
	database.MigrationsDir = "."
}
