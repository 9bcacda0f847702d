package services

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Scheduler wraps cron-based background jobs. Specs include a seconds field.
type Scheduler struct {
	cron *cron.Cron
	log  *zap.Logger
}

func NewScheduler(loc *time.Location, logger *zap.Logger) *Scheduler {
	if loc == nil {
		loc = time.Local
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scheduler{
		cron: cron.New(cron.WithLocation(loc), cron.WithSeconds(), cron.WithChain(cron.Recover(cron.DefaultLogger))),
		log:  logger,
	}
}

// Schedule registers job under spec. Each run gets its own timeout context.
func (s *Scheduler) Schedule(name, spec string, timeout time.Duration, job func(ctx context.Context) error) (cron.EntryID, error) {
	if timeout <= 0 {
		timeout = time.Minute
	}
	return s.cron.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		start := time.Now()
		if err := job(ctx); err != nil {
			s.log.Warn("scheduled job failed", zap.String("job", name), zap.Error(err))
			return
		}
		s.log.Debug("scheduled job done", zap.String("job", name), zap.Duration("took", time.Since(start)))
	})
}

// ScheduleCatalogWarm keeps the badge cache hot.
func (s *Scheduler) ScheduleCatalogWarm(spec string, catalog *BadgeCatalog) (cron.EntryID, error) {
	return s.Schedule("catalog-warm", spec, 30*time.Second, catalog.WarmCache)
}

// Entries returns the number of registered jobs.
func (s *Scheduler) Entries() int {
	return len(s.cron.Entries())
}

func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop waits for running jobs to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}
