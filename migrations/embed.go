// Package migrations embeds the audit log SQL migrations into the binary.
package migrations

import (
	"embed"

	"github.com/nerrad567/gray-logic-systembus/internal/infrastructure/database"
)

//go:embed *.sql
var migrationsFS embed.FS

func init() {
	database.MigrationsFS = migrationsFS
	database.MigrationsDir = "."
}
