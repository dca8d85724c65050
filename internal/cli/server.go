package cli

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"trivia-lobby-service/internal/app"
	"trivia-lobby-service/internal/config"
	"trivia-lobby-service/internal/domain"
	"trivia-lobby-service/internal/infra/memory"
	pgcatalog "trivia-lobby-service/internal/infra/postgres"
	rediscatalog "trivia-lobby-service/internal/infra/redis"
	transport "trivia-lobby-service/internal/transport/http"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the trivia lobby server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	if cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, cfg); err != nil {
			return err
		}
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	}
	redisTTL := config.TTLDuration(cfg.Redis.TTL, 2*time.Hour)

	var pool *pgxpool.Pool
	if cfg.Postgres.URL != "" {
		pool, err = pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
	}

	var loader memory.CatalogLoader = memory.NewStaticCatalogLoader(fallbackCatalog())
	if pool != nil {
		loader = pgcatalog.NewCatalogLoader(pool)
	}

	catalogTTL := config.TTLDuration(cfg.Catalog.TTL, 10*time.Minute)
	var catalog app.CatalogRepository
	if redisClient != nil {
		catalog = rediscatalog.NewCatalogRepository(redisClient, loader, catalogTTL)
	} else {
		catalog = memory.NewCatalogRepository(loader, catalogTTL)
	}

	var store app.LobbyStore
	if redisClient != nil {
		store = rediscatalog.NewLobbyStore(redisClient, redisTTL)
	} else {
		store = memory.NewLobbyStore()
	}

	settings := app.DefaultSettings()
	settings.Capacity = config.PositiveInt(cfg.Game.Capacity, settings.Capacity)
	settings.QuestionTime = config.TTLDuration(cfg.Game.QuestionTime, settings.QuestionTime)
	settings.RevealDelay = config.TTLDuration(cfg.Game.RevealDelay, settings.RevealDelay)
	settings.Scoring.BasePoints = config.PositiveInt(cfg.Game.Scoring.BasePoints, settings.Scoring.BasePoints)
	settings.Scoring.TimeBonusPerSecond = config.PositiveInt(cfg.Game.Scoring.TimeBonusPerSecond, settings.Scoring.TimeBonusPerSecond)
	settings.Scoring.StreakBonus = config.PositiveInt(cfg.Game.Scoring.StreakBonus, settings.Scoring.StreakBonus)

	service := app.NewLobbyService(store, catalog, settings)
	wsHandler := transport.NewWSHandler(service)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	mux.HandleFunc("/ws", wsHandler.ServeWS)

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Printf("starting trivia lobby service on :%s", finalPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("failed to start server: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Println("shutting down server...")
	case <-ctx.Done():
		log.Println("context canceled, shutting down server...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// fallbackCatalog provides a minimal question set so the server still comes
// up with something playable when no database is configured.
func fallbackCatalog() map[string][]domain.Question {
	return map[string][]domain.Question{
		"General Knowledge": {
			{
				Prompt:  "What is 2 + 2?",
				Options: []string{"3", "4", "5", "6"},
				Answer:  "4",
			},
			{
				Prompt:  "What is the capital of France?",
				Options: []string{"Berlin", "Madrid", "Paris", "Rome"},
				Answer:  "Paris",
			},
		},
	}
}
