package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// SchedulerService runs background jobs on cron schedules ("@daily", "0 3 * * *").
type SchedulerService struct {
	cron *cron.Cron
}

func NewSchedulerService(loc *time.Location) *SchedulerService {
	if loc == nil {
		loc = time.UTC
	}
	return &SchedulerService{
		cron: cron.New(cron.WithLocation(loc)),
	}
}

// ScheduleArchive writes a goal archive on every tick of schedule. Failures are
// logged; the next tick tries again.
func (s *SchedulerService) ScheduleArchive(schedule string, archive *ArchiveService, timeout time.Duration) (cron.EntryID, error) {
	if !archive.Enabled() {
		return 0, ErrArchiveDisabled
	}

	id, err := s.cron.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		result, err := archive.Archive(ctx)
		if err != nil {
			slog.Error("scheduled archive failed", "error", err)
			return
		}
		slog.Info("scheduled archive written", "key", result.Key, "count", result.Count)
	})
	if err != nil {
		return 0, fmt.Errorf("invalid archive schedule %q: %w", schedule, err)
	}
	return id, nil
}

func (s *SchedulerService) Entries() int {
	return len(s.cron.Entries())
}

func (s *SchedulerService) Start() {
	s.cron.Start()
}

// Stop waits for running jobs to finish.
func (s *SchedulerService) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}
