package cronjob

import (
	"context"
	"log"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/atelier-ai/atelier-backend/internal/archive"
)

type Scheduler struct {
	repo *archive.Repo
}

func NewScheduler(repo *archive.Repo) *Scheduler {
	return &Scheduler{repo: repo}
}

// Start schedules the nightly archive maintenance (12:00 AM).
func (s *Scheduler) Start() {
	c := cron.New(cron.WithSeconds())

	_, err := c.AddFunc("0 0 0 * * *", func() {
		s.runNightly()
	})
	if err != nil {
		log.Printf("Failed to create cron job: %v", err)
		return
	}

	log.Println("Cron scheduler started (archive maintenance nightly at 12:00AM)")
	c.Start()
}

func (s *Scheduler) runNightly() {
	log.Println("Nightly archive maintenance started...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	dropped, err := s.repo.Compact(ctx)
	if err != nil {
		log.Printf("Archive maintenance failed: %v", err)
		return
	}

	log.Printf("Archive maintenance done, %d duplicate images dropped, at: %s",
		dropped, time.Now().Format(time.RFC1123))
}
