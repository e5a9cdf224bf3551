package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/pratoshot/pratoshot-api/internal/config"
	"github.com/pratoshot/pratoshot-api/internal/domain/generation"
	"github.com/pratoshot/pratoshot-api/internal/pkg/database"
)

const pollInterval = 1 * time.Minute

// The reaper fails PROCESSING jobs that stopped making progress, which
// happens when an API instance dies mid generation. Users then see a
// FAILED job they can retry for free instead of one stuck forever.
func main() {
	cfg := config.Load()
	setupLogger(cfg)

	log.Info().Dur("stale_after", cfg.JobStaleAfter).Msg("Starting job-reaper")

	db, err := database.NewPostgres(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer database.ClosePostgres(db)

	rdb, err := database.NewRedis(cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer database.CloseRedis(rdb)

	repo := generation.NewRepository(db)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Optional Redis wake-up; polling is still the main mechanism.
	wake := make(chan struct{}, 1)
	if rdb != nil {
		go subscribeWakeups(ctx, rdb, wake)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)
	go func() {
		<-sigChan
		log.Info().Msg("Shutdown signal received")
		cancel()
	}()

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("job-reaper stopped")
			return
		case <-wake:
			// immediate sweep
		case <-ticker.C:
		}

		cutoff := time.Now().Add(-cfg.JobStaleAfter)
		ids, err := repo.ReapStale(ctx, cutoff)
		if err != nil {
			log.Error().Err(err).Msg("Failed to reap stale jobs")
			continue
		}
		for _, id := range ids {
			log.Warn().Str("job_id", id.String()).Msg("Stale job marked FAILED")
		}
	}
}

func subscribeWakeups(ctx context.Context, rdb *redis.Client, wake chan<- struct{}) {
	sub := rdb.Subscribe(ctx, "generation:reaper")
	defer func() { _ = sub.Close() }()

	for {
		select {
		case <-ctx.Done():
			return
		case _, ok := <-sub.Channel():
			if !ok {
				return
			}
			select {
			case wake <- struct{}{}:
			default:
			}
		}
	}
}

func setupLogger(cfg *config.Config) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.DebugLevel
	}
	zerolog.SetGlobalLevel(level)

	if cfg.IsDevelopment() {
		log.Logger = log.Output(zerolog.ConsoleWriter{
			Out:        os.Stdout,
			TimeFormat: "15:04:05",
		})
	}
}
