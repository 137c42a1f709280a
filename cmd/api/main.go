package main

import (
	"context"
	"log"

	fbauth "firebase.google.com/go/v4/auth"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/atelier-ai/atelier-backend/config"
	"github.com/atelier-ai/atelier-backend/internal/archive"
	"github.com/atelier-ai/atelier-backend/internal/auth"
	"github.com/atelier-ai/atelier-backend/internal/bootstrap"
	"github.com/atelier-ai/atelier-backend/internal/gateway"
	cronjob "github.com/atelier-ai/atelier-backend/internal/maintenance/cron"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	bootstrap.SetGinMode(cfg.App.Environment)
	ctx := context.Background()

	redisClient, err := bootstrap.OpenRedis(ctx, cfg.Redis)
	if err != nil {
		log.Fatalf("redis: %v", err)
	}

	var db *pgxpool.Pool
	if cfg.Database.DSN != "" {
		db, err = bootstrap.OpenDB(ctx, bootstrap.DBOptions{DSN: cfg.Database.DSN})
		if err != nil {
			log.Fatalf("db: %v", err)
		}
		defer db.Close()
	}

	var store archive.SnapshotStore
	switch cfg.Archive.Store {
	case "postgres":
		pg := archive.NewPostgresStore(db)
		if err := pg.EnsureSchema(ctx); err != nil {
			log.Fatalf("archive schema: %v", err)
		}
		store = pg
	default:
		store = archive.NewRedisStore(redisClient)
	}

	repo, err := archive.NewRepo(ctx, store)
	if err != nil {
		log.Fatalf("archive: %v", err)
	}

	var gen gateway.Generator
	switch cfg.Gateway.Backend {
	case "openai":
		gen = gateway.NewOpenAIClient(cfg.Gateway.OpenAIKey, cfg.Gateway.RatePerMinute)
	default:
		gen = gateway.NewStudioClient(cfg.Gateway.BaseURL, cfg.Gateway.RatePerMinute)
	}

	var fbClient *fbauth.Client
	if cfg.Firebase.CredentialsPath != "" {
		fbClient, err = auth.InitializeFirebase(&cfg.Firebase)
		if err != nil {
			log.Fatalf("firebase: %v", err)
		}
	}

	cronjob.NewScheduler(repo).Start()

	r := bootstrap.BuildRouter(bootstrap.RouterDeps{
		ServiceName:  "atelier-backend",
		Version:      cfg.App.Version,
		Redis:        redisClient,
		DB:           db,
		Archive:      repo,
		Generator:    gen,
		FirebaseAuth: fbClient,
	})

	log.Printf("listening on :%s", cfg.Server.Port)
	if err := r.Run(":" + cfg.Server.Port); err != nil {
		log.Fatalf("server: %v", err)
	}
}
