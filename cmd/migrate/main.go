// migrate aplica las migraciones embebidas con goose.
//
// Uso: go run ./cmd/migrate [up|down|status|redo|version|reset] [args...]
package main

import (
	"context"
	"flag"
	"os"

	"github.com/joho/godotenv"

	"github.com/jhoicas/allocation-engine/internal/infrastructure/postgres"
	"github.com/jhoicas/allocation-engine/pkg/config"
	"github.com/jhoicas/allocation-engine/pkg/logger"
)

func main() {
	flag.Parse()

	// .env es opcional; las variables del sistema tienen prioridad.
	envErr := godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}
	log := logger.New(logger.Config{Env: cfg.App.Env, Level: cfg.App.LogLevel}).Component("migrate")
	if envErr != nil {
		log.Debug().Err(envErr).Msg(".env no encontrado, se usan variables del sistema")
	}

	arguments := flag.Args()
	if len(arguments) == 0 {
		arguments = []string{"up"}
	}
	command, args := arguments[0], arguments[1:]

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()

	db := postgres.OpenDB(pool)
	defer db.Close()

	if err := postgres.RunMigrations(ctx, db, command, args...); err != nil {
		log.Error().Err(err).Str("command", command).Msg("migración fallida")
		os.Exit(1)
	}
	log.Info().Str("command", command).Msg("migración completada")
}
