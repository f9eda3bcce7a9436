// Package migrations embeds the journal schema into the binary.
//
// pulse runs its migrations without the SQL files being present on the
// filesystem; they're compiled into the executable.
package migrations

import (
	"embed"

	"github.com/nerrad567/gray-logic-pulse/internal/infrastructure/database"
)

//go:embed *.sql
var migrationsFS embed.FS

// Source returns the embedded journal migrations.
func Source() database.Source {
	return database.Source{FS: migrationsFS, Dir: "."}
}
