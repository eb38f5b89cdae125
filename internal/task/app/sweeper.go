package app

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"

	"taskhub/internal/logging"
	"taskhub/internal/observability"
)

// Sweeper runs the overdue sweep on a cron schedule.
type Sweeper struct {
	service  *Service
	schedule string
	logger   logging.Logger
	metrics  *observability.Metrics
	cron     *cron.Cron
	timeout  time.Duration
}

// NewSweeper builds a sweeper. schedule is a standard five-field cron
// expression; every minute is a sensible default.
func NewSweeper(service *Service, schedule string, logger logging.Logger, metrics *observability.Metrics) *Sweeper {
	return &Sweeper{
		service:  service,
		schedule: schedule,
		logger:   logging.OrNop(logger),
		metrics:  metrics,
		timeout:  30 * time.Second,
	}
}

// Start registers the cron entry and begins ticking. It runs one sweep
// immediately so a restart does not leave stale pending tasks until the
// next tick.
func (s *Sweeper) Start() error {
	s.cron = cron.New()
	if _, err := s.cron.AddFunc(s.schedule, s.run); err != nil {
		return err
	}
	go s.run()
	s.cron.Start()
	s.logger.Info("overdue sweeper started: schedule=%q", s.schedule)
	return nil
}

// Stop halts scheduling and waits for a running sweep to finish.
func (s *Sweeper) Stop() {
	if s.cron == nil {
		return
	}
	<-s.cron.Stop().Done()
	s.logger.Info("overdue sweeper stopped")
}

func (s *Sweeper) run() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	transitioned, err := s.service.SweepOverdue(ctx)
	if err != nil {
		s.logger.Error("overdue sweep failed: %v", err)
		if s.metrics != nil {
			s.metrics.RecordSweepRun("error")
		}
		return
	}
	if s.metrics != nil {
		s.metrics.RecordSweepRun("ok")
		s.metrics.AddSweepTransitions(transitioned)
	}
}
