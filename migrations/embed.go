// Package migrations contiene el esquema SQL versionado (goose) embebido en los binarios.
package migrations

import "embed"

// FS migraciones goose del esquema.
//
//go:embed *.sql
var FS embed.FS
