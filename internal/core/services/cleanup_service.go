package services

import (
	"context"
	"log"
	"time"

	"github.com/robfig/cron/v3"
)

// CleanupService runs scheduled housekeeping. Currently one job:
// purging session rows whose expiry predates the retention window.
// Expired-but-retained rows are already treated as inactive by the
// access gate; deletion here is storage hygiene, not revocation.
type CleanupService struct {
	sessions  *SessionService
	retention time.Duration
	cron      *cron.Cron
}

// NewCleanupService creates a cleanup service with the given retention
// window for expired sessions
func NewCleanupService(sessions *SessionService, retentionDays int) *CleanupService {
	return &CleanupService{
		sessions:  sessions,
		retention: time.Duration(retentionDays) * 24 * time.Hour,
		cron:      cron.New(),
	}
}

// Start schedules the purge job (daily at 03:00)
func (s *CleanupService) Start() {
	s.cron.AddFunc("0 3 * * *", s.purgeSessions)
	s.cron.Start()
	log.Println("🚀 CleanupService started (session purge daily at 03:00)")
}

// Stop stops the scheduler, waiting for a running job to finish
func (s *CleanupService) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	log.Println("🛑 CleanupService stopped")
}

func (s *CleanupService) purgeSessions() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	deleted, err := s.sessions.PurgeExpired(ctx, s.retention)
	if err != nil {
		log.Printf("❌ Session purge error: %v", err)
		return
	}
	if deleted > 0 {
		log.Printf("🗑️ Purged %d sessions expired before the retention window", deleted)
	}
}
