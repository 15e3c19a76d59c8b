package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/pressly/goose/v3"

	"github.com/jhoicas/allocation-engine/migrations"
)

// Migrate aplica sobre db las migraciones embebidas pendientes.
func Migrate(ctx context.Context, db *sql.DB) error {
	return RunMigrations(ctx, db, "up")
}

// RunMigrations ejecuta un comando goose (up, down, status, redo, version...) sobre las migraciones embebidas.
func RunMigrations(ctx context.Context, db *sql.DB, command string, args ...string) error {
	goose.SetBaseFS(migrations.FS)
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("goose dialect: %w", err)
	}
	if err := goose.RunContext(ctx, command, db, ".", args...); err != nil {
		return fmt.Errorf("goose %s: %w", command, err)
	}
	return nil
}
