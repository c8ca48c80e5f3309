package jobs

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"imageserver/internal/config"
)

type Sweeper interface {
	SweepFailed(ctx context.Context) error
	SweepUnused(ctx context.Context) error
}

type Refresher interface {
	Refresh(ctx context.Context) error
}

type Scheduler struct {
	cron    *cron.Cron
	cleanup Sweeper
	catalog Refresher
	lock    *Lock
	cfg     config.AppConfig
	log     zerolog.Logger
}

func NewScheduler(cleanup Sweeper, catalog Refresher, lock *Lock, cfg config.AppConfig, log zerolog.Logger) *Scheduler {
	c := cron.New(cron.WithSeconds())
	return &Scheduler{
		cron:    c,
		cleanup: cleanup,
		catalog: catalog,
		lock:    lock,
		cfg:     cfg,
		log:     log,
	}
}

func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc(s.cfg.Cleanup.FailedCron, s.sweepFailed); err != nil {
		return err
	}
	if _, err := s.cron.AddFunc(s.cfg.Cleanup.UnusedCron, s.sweepUnused); err != nil {
		return err
	}
	if _, err := s.cron.AddFunc(s.cfg.Catalog.RefreshCron, s.refreshCatalog); err != nil {
		return err
	}

	s.cron.Start()
	return nil
}

func (s *Scheduler) Stop() context.CancelFunc {
	_, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	go func() {
		<-s.cron.Stop().Done()
		cancel()
	}()
	return cancel
}

func (s *Scheduler) sweepFailed() {
	s.runLocked("cleanup-failed", s.cleanup.SweepFailed)
}

func (s *Scheduler) sweepUnused() {
	s.runLocked("cleanup-unused", s.cleanup.SweepUnused)
}

func (s *Scheduler) refreshCatalog() {
	// Catalog refresh is per-instance on purpose: every instance
	// carries its own in-memory registry.
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	if err := s.catalog.Refresh(ctx); err != nil {
		s.log.Error().Err(err).Msg("catalog refresh failed")
	}
}

func (s *Scheduler) runLocked(name string, job func(ctx context.Context) error) {
	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.Cleanup.LockTTL)
	defer cancel()

	release, err := s.lock.Acquire(ctx, name)
	if err != nil {
		s.log.Error().Err(err).Str("job", name).Msg("lock acquire failed")
		return
	}
	if release == nil {
		s.log.Debug().Str("job", name).Msg("lock held elsewhere, skipping run")
		return
	}
	defer release()

	if err := job(ctx); err != nil {
		s.log.Error().Err(err).Str("job", name).Msg("job run failed")
	}
}
