package main

import (
	"context"
	"net/http"
	"os"
	"path/filepath"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/pratoshot/pratoshot-api/internal/config"
	"github.com/pratoshot/pratoshot-api/internal/domain/auth"
	"github.com/pratoshot/pratoshot-api/internal/domain/credits"
	"github.com/pratoshot/pratoshot-api/internal/domain/generation"
	"github.com/pratoshot/pratoshot-api/internal/domain/template"
	"github.com/pratoshot/pratoshot-api/internal/domain/user"
	"github.com/pratoshot/pratoshot-api/internal/middleware"
	"github.com/pratoshot/pratoshot-api/internal/pkg/database"
	"github.com/pratoshot/pratoshot-api/internal/pkg/email"
	"github.com/pratoshot/pratoshot-api/internal/pkg/gemini"
	"github.com/pratoshot/pratoshot-api/internal/pkg/jwt"
	pkgresponse "github.com/pratoshot/pratoshot-api/internal/pkg/response"
	"github.com/pratoshot/pratoshot-api/internal/pkg/storage"
)

func main() {
	cfg := config.Load()
	setupLogger(cfg)

	log.Info().
		Str("env", cfg.Env).
		Str("port", cfg.Port).
		Msg("Starting PratoShot API")

	db, err := database.NewPostgres(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer database.ClosePostgres(db)

	redisClient, err := database.NewRedis(cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer database.CloseRedis(redisClient)

	jwtService := jwt.NewService(cfg.JWTSecret, cfg.JWTAccessTTL, cfg.JWTRefreshTTL)

	originals, err := newStorage(cfg, cfg.R2BucketOriginals)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create originals storage")
	}
	generated, err := newStorage(cfg, cfg.R2BucketGenerated)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create generated storage")
	}

	generator, err := gemini.NewClient(context.Background(), gemini.Config{
		APIKey: cfg.GeminiAPIKey,
		Model:  cfg.GeminiImageModel,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create Gemini client")
	}

	mailer := email.NewSendGridClient(email.SendGridConfig{
		APIKey:    cfg.SendGridAPIKey,
		FromEmail: cfg.EmailFrom,
		FromName:  cfg.EmailFromName,
	})

	// ---------- Repositories ----------
	userRepo := user.NewRepository(db)
	creditsRepo := credits.NewRepository(db)
	templateRepo := template.NewRepository(db)
	generationRepo := generation.NewRepository(db)

	// ---------- WebSocket hub ----------
	hub := generation.NewHub(cfg.AllowedOrigins)
	defer hub.Close()

	// ---------- Services ----------
	creditsService := credits.NewService(creditsRepo, cfg.FreeCredits)
	authService := auth.NewService(userRepo, creditsService, jwtService, redisClient, mailer)
	generationService := generation.NewService(
		generationRepo, templateRepo, creditsService,
		originals, generated, generator, hub,
		redisClient, cfg.GenerationMaxInflight,
	)

	// ---------- Handlers ----------
	authHandler := auth.NewHandler(authService)
	creditsHandler := credits.NewHandler(creditsService)
	templateHandler := template.NewHandler(templateRepo)
	generationHandler := generation.NewHandler(generationService)

	authMiddleware := middleware.Auth(jwtService)

	// ---------- Router ----------
	r := chi.NewRouter()

	r.Use(chimw.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recover)
	r.Use(middleware.CORSHandler(cfg.AllowedOrigins))

	// WebSocket endpoint (before Compress)
	r.Get("/ws", func(w http.ResponseWriter, r *http.Request) {
		token := r.URL.Query().Get("token")
		if token != "" {
			r.Header.Set("Authorization", "Bearer "+token)
		}
		authMiddleware(http.HandlerFunc(hub.ServeWS)).ServeHTTP(w, r)
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"ok":true}`))
	})

	// With the local storage driver the saved files are served directly.
	if cfg.StorageDriver == "local" {
		r.Handle("/uploads/*", http.StripPrefix("/uploads/",
			http.FileServer(http.Dir(cfg.LocalStoragePath))))
	}

	r.Route("/api", func(r chi.Router) {
		r.Use(chimw.Compress(5))

		r.Mount("/auth", auth.Routes(authHandler, jwtService))
		r.Mount("/templates", template.Routes(templateHandler))

		r.Group(func(r chi.Router) {
			r.Use(authMiddleware)
			r.Mount("/credits", credits.Routes(creditsHandler))
			r.Mount("/generations", generation.Routes(generationHandler))
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		pkgresponse.NotFound(w, "Route not found")
	})

	server := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
		// Generation requests block until the variants are produced, so
		// the write timeout has to cover the slowest full job.
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 6 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("addr", server.Addr).Msg("HTTP server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited properly")
}

// newStorage builds one storage backend per bucket. The local driver
// keeps each bucket in its own subdirectory so the two never collide.
func newStorage(cfg *config.Config, bucket string) (storage.Storage, error) {
	if cfg.StorageDriver == "local" {
		return storage.NewLocalStorage(
			filepath.Join(cfg.LocalStoragePath, bucket),
			cfg.LocalStorageURL+"/"+bucket,
		)
	}
	return storage.NewR2Storage(storage.R2Config{
		AccountID:       cfg.R2AccountID,
		AccessKeyID:     cfg.R2AccessKeyID,
		AccessKeySecret: cfg.R2AccessKeySecret,
		BucketName:      bucket,
		PublicURL:       cfg.R2PublicURL,
	})
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
