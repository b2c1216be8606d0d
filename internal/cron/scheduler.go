// Package cron runs the nightly maintenance: pruning dead session index
// entries and deleting abandoned empty assessments.
package cron

import (
	"context"
	"log"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/impactlens/impact-backend/internal/assessments"
	"github.com/impactlens/impact-backend/internal/session"
)

const staleAssessmentAge = 30 * 24 * time.Hour

type Scheduler struct {
	sessions    *session.Store
	assessments *assessments.Repo
	c           *cron.Cron
}

func NewScheduler(sessions *session.Store, assessmentRepo *assessments.Repo) *Scheduler {
	return &Scheduler{
		sessions:    sessions,
		assessments: assessmentRepo,
	}
}

// Start registers the nightly job (12:00 AM) and starts the cron loop.
func (s *Scheduler) Start() {
	s.c = cron.New(cron.WithSeconds())

	_, err := s.c.AddFunc("0 0 0 * * *", func() {
		s.runNightly()
	})
	if err != nil {
		log.Printf("Failed to create cron job: %v", err)
		return
	}

	log.Println("Cron scheduler started (running nightly at 12:00AM)")
	s.c.Start()
}

func (s *Scheduler) Stop() {
	if s.c != nil {
		s.c.Stop()
	}
}

func (s *Scheduler) runNightly() {
	log.Println("Nightly maintenance started...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	users, err := s.sessions.IndexedUsers(ctx)
	if err != nil {
		log.Printf("Session index scan failed: %v", err)
	} else {
		pruned := 0
		for _, uid := range users {
			n, err := s.sessions.PruneUserIndex(ctx, uid)
			if err != nil {
				log.Printf("Session index prune for %s failed: %v", uid, err)
				continue
			}
			pruned += n
		}
		log.Printf("Pruned %d dead session index entries", pruned)
	}

	cutoff := time.Now().Add(-staleAssessmentAge)
	deleted, err := s.assessments.DeleteStaleEmpty(ctx, cutoff)
	if err != nil {
		log.Printf("Stale assessment cleanup failed: %v", err)
	} else {
		log.Printf("Deleted %d stale empty assessments", deleted)
	}

	log.Println("Nightly maintenance completed at:", time.Now().Format(time.RFC1123))
}
