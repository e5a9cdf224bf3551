package main

import (
	"context"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/pratoshot/pratoshot-api/internal/config"
	"github.com/pratoshot/pratoshot-api/internal/domain/template"
	"github.com/pratoshot/pratoshot-api/internal/pkg/database"
)

func main() {
	cfg := config.Load()

	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	if cfg.IsDevelopment() {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: "15:04:05"})
	}

	db, err := database.NewPostgres(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer database.ClosePostgres(db)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	repo := template.NewRepository(db)
	if err := template.Seed(ctx, repo); err != nil {
		log.Fatal().Err(err).Msg("Failed to seed templates")
	}

	log.Info().Int("templates", len(template.SeedData)).Msg("Template catalog seeded")
}
