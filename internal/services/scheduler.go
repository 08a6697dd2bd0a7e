package services

import (
	"context"
	"fmt"
	"time"

	"github.com/go-co-op/gocron"
	"go.uber.org/zap"
)

// Scheduler runs the screening housekeeping jobs.
type Scheduler struct {
	log       *zap.Logger
	service   *ScreeningService
	scheduler *gocron.Scheduler
}

// NewScheduler registers session expiry every minute and the follow-up
// check once a day at followUpTime (HH:MM, UTC).
func NewScheduler(log *zap.Logger, service *ScreeningService, followUpTime string) (*Scheduler, error) {
	s := &Scheduler{
		log:       log,
		service:   service,
		scheduler: gocron.NewScheduler(time.UTC),
	}

	if _, err := s.scheduler.Every(1).Minute().Tag("expire-sessions").Do(s.expireSessions); err != nil {
		return nil, fmt.Errorf("failed to schedule session expiry: %w", err)
	}
	if _, err := s.scheduler.Every(1).Day().At(followUpTime).Tag("follow-ups").Do(s.runFollowUps); err != nil {
		return nil, fmt.Errorf("failed to schedule follow-ups at %q: %w", followUpTime, err)
	}
	return s, nil
}

// Start runs the jobs in the background.
func (s *Scheduler) Start() {
	s.log.Info("Starting screening scheduler...", zap.Int("jobs", s.scheduler.Len()))
	s.scheduler.StartAsync()
}

func (s *Scheduler) Stop() {
	s.scheduler.Stop()
}

func (s *Scheduler) expireSessions() {
	s.service.ExpireSessions()
}

func (s *Scheduler) runFollowUps() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	if _, err := s.service.RunFollowUps(ctx); err != nil {
		s.log.Error("Follow-up check failed", zap.Error(err))
	}
}
