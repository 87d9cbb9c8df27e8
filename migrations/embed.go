// Package migrations embeds SQL migration files into the binary.
//
// The bridge applies them on startup without needing the SQL files on disk.
package migrations

import (
	"embed"

	"github.com/nerrad567/noolite-mqtt/internal/infrastructure/database"
)

//go:embed *.sql
var migrationsFS embed.FS

func init() {
	database.MigrationsFS = migrationsFS
	database.MigrationsDir = "."
}
