package main

import (
	"context"
	"log"

	"github.com/atelier-ai/atelier-backend/config"
	"github.com/atelier-ai/atelier-backend/internal/archive"
	"github.com/atelier-ai/atelier-backend/internal/bootstrap"
)

// RunCompact runs the archive maintenance once and exits.
func RunCompact() {
	ctx := context.Background()
	repo := openArchive(ctx)

	dropped, err := repo.Compact(ctx)
	if err != nil {
		log.Fatalf("compact: %v", err)
	}
	log.Printf("compact done, %d duplicate images dropped", dropped)
}

// openArchive builds the archive repo from the configured snapshot store.
func openArchive(ctx context.Context) *archive.Repo {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	var store archive.SnapshotStore
	switch cfg.Archive.Store {
	case "postgres":
		db, err := bootstrap.OpenDB(ctx, bootstrap.DBOptions{DSN: cfg.Database.DSN})
		if err != nil {
			log.Fatalf("db: %v", err)
		}
		pg := archive.NewPostgresStore(db)
		if err := pg.EnsureSchema(ctx); err != nil {
			log.Fatalf("archive schema: %v", err)
		}
		store = pg
	default:
		redisClient, err := bootstrap.OpenRedis(ctx, cfg.Redis)
		if err != nil {
			log.Fatalf("redis: %v", err)
		}
		store = archive.NewRedisStore(redisClient)
	}

	repo, err := archive.NewRepo(ctx, store)
	if err != nil {
		log.Fatalf("archive: %v", err)
	}
	return repo
}
