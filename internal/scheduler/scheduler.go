package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"kiosk-assistant/internal/logger"
)

// JobFunc is a scheduled task. Its context is cancelled on Stop.
type JobFunc func(ctx context.Context) error

// Scheduler runs named jobs on cron specs (standard five-field or @every descriptors).
type Scheduler struct {
	cron   *cron.Cron
	ctx    context.Context
	cancel context.CancelFunc
	log    logrus.FieldLogger
}

func New(log logrus.FieldLogger) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		cron:   cron.New(cron.WithLocation(time.UTC)),
		ctx:    ctx,
		cancel: cancel,
		log:    logger.OrDiscard(log),
	}
}

// Add registers f under name. An invalid spec is returned as an error.
func (s *Scheduler) Add(name, spec string, f JobFunc) error {
	if f == nil {
		return fmt.Errorf("job %s: nil function", name)
	}
	if _, err := s.cron.AddFunc(spec, s.wrap(name, f)); err != nil {
		return fmt.Errorf("job %s: bad schedule %q: %w", name, spec, err)
	}
	s.log.WithFields(logrus.Fields{"job": name, "spec": spec}).Info("job scheduled")
	return nil
}

func (s *Scheduler) wrap(name string, f JobFunc) func() {
	return func() {
		log := s.log.WithField("job", name)
		log.Debug("job triggered")
		if err := f(s.ctx); err != nil {
			log.WithError(err).Warn("job failed")
		}
	}
}

func (s *Scheduler) Start() {
	if len(s.cron.Entries()) == 0 {
		s.log.Warn("no jobs registered, scheduler idle")
		return
	}
	s.cron.Start()
	s.log.Info("scheduler started")
}

// Stop waits for running jobs to return, then cancels their context.
func (s *Scheduler) Stop() {
	if s.cron != nil {
		ctx := s.cron.Stop()
		<-ctx.Done()
	}
	if s.cancel != nil {
		s.cancel()
	}
	s.log.Info("scheduler stopped")
}

func (s *Scheduler) IsRunning() bool {
	return s.cron != nil && len(s.cron.Entries()) > 0
}
